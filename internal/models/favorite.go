package models

import "time"

// Favorite marks a vehicle saved by an account. The pair is the key.
type Favorite struct {
	AccountID   uint       `gorm:"primaryKey;autoIncrement:false" json:"account_id"`
	InventoryID uint       `gorm:"primaryKey;autoIncrement:false" json:"inv_id"`
	CreatedAt   time.Time  `json:"created_at"`
	Inventory   *Inventory `gorm:"constraint:OnDelete:CASCADE" json:"vehicle,omitempty"`
}

// GetAccountID exposes the owner for ownership policies.
func (f *Favorite) GetAccountID() uint { return f.AccountID }

// All returns every model in migration order.
func All() []any {
	return []any{&Account{}, &Classification{}, &Inventory{}, &Favorite{}}
}
