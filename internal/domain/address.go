package domain

import "time"

// Address is an entry of a user's address book. Orders never reference it;
// settlement copies its AddressSnapshot into the order.
type Address struct {
	ID     int64  `json:"id"`
	UserID string `json:"-"`
	AddressSnapshot
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *Address) Snapshot() AddressSnapshot {
	return a.AddressSnapshot
}
