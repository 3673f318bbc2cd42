package inventory

import "time"

type ReservationStatus string

const (
	StatusReserved  ReservationStatus = "reserved"
	StatusConfirmed ReservationStatus = "confirmed"
	StatusReleased  ReservationStatus = "released"
	StatusExpired   ReservationStatus = "expired"
)

type Item struct {
	SkuID    int64
	Quantity int
}

// Reservation holds stock for one settlement until it is confirmed,
// released or expires.
type Reservation struct {
	ID        string
	Reference string
	Items     []Item
	Status    ReservationStatus
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (r *Reservation) IsExpired() bool {
	return time.Now().After(r.ExpiresAt)
}

type StockInfo struct {
	SkuID    int64
	Total    int
	Reserved int
}

// Available is total stock minus what pending settlements hold.
func (s StockInfo) Available() int {
	return s.Total - s.Reserved
}
