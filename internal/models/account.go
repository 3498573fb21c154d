package models

import "time"

// AccountType is the authorization tier of an account.
type AccountType string

const (
	AccountClient   AccountType = "Client"
	AccountEmployee AccountType = "Employee"
	AccountAdmin    AccountType = "Admin"
)

func (t AccountType) Valid() bool {
	switch t {
	case AccountClient, AccountEmployee, AccountAdmin:
		return true
	}
	return false
}

// IsStaff reports whether the tier may manage inventory.
func (t AccountType) IsStaff() bool { return t == AccountEmployee || t == AccountAdmin }

// Account is a registered site user. Accounts are never hard-deleted.
type Account struct {
	ID        uint        `gorm:"primaryKey" json:"account_id"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	FirstName string      `gorm:"size:100;not null" json:"account_firstname"`
	LastName  string      `gorm:"size:100;not null" json:"account_lastname"`
	Email     string      `gorm:"uniqueIndex;size:255;not null" json:"account_email"`
	Password  string      `gorm:"size:255;not null" json:"-"` // bcrypt digest, never exposed
	Type      AccountType `gorm:"size:20;not null;default:Client" json:"account_type"`
}

func (a Account) FullName() string { return a.FirstName + " " + a.LastName }

// GetAccountID exposes the owner for ownership policies; an account owns itself.
func (a *Account) GetAccountID() uint { return a.ID }
