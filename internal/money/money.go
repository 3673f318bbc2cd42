// Package money holds the integer minor-unit representation used for every
// price computation. Decimal values only exist at the edges (parsing input,
// rendering output).
package money

import (
	"bytes"
	"fmt"

	"github.com/shopspring/decimal"
)

// Cents is an amount in minor currency units.
type Cents int64

// FromDecimal rounds d to the nearest cent, halves away from zero.
func FromDecimal(d decimal.Decimal) Cents {
	return Cents(d.Shift(2).Round(0).IntPart())
}

// FromFloat converts a display price such as 10.10 into cents. The float is
// read through its shortest decimal representation, so 10.10 becomes 1010
// and not 1009.
func FromFloat(f float64) Cents {
	return FromDecimal(decimal.NewFromFloat(f))
}

// Parse reads a decimal string such as "59.99" into cents.
func Parse(s string) (Cents, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return FromDecimal(d), nil
}

// MustParse is Parse for constants and tests.
func MustParse(s string) Cents {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Cents) Mul(quantity int) Cents {
	return c * Cents(quantity)
}

func (c Cents) Decimal() decimal.Decimal {
	return decimal.New(int64(c), -2)
}

func (c Cents) String() string {
	return c.Decimal().StringFixed(2)
}

// Sum adds amounts without leaving integer arithmetic.
func Sum(amounts ...Cents) Cents {
	var total Cents
	for _, a := range amounts {
		total += a
	}
	return total
}

// MarshalJSON renders the amount as a quoted decimal string so clients never
// see a binary float.
func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

// UnmarshalJSON accepts both "12.34" and 12.34.
func (c *Cents) UnmarshalJSON(data []byte) error {
	raw := bytes.Trim(data, `"`)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		*c = 0
		return nil
	}
	parsed, err := Parse(string(raw))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
