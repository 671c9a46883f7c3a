package models

import "time"

// User mirrors an identity owned by the external session provider.
// Rows are provisioned on the first authenticated request; only the
// currency preference is mutable through this API.
type User struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Currency  string    `gorm:"size:3;not null;default:IDR" json:"currency"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Pockets  []Pocket  `gorm:"foreignKey:UserID" json:"pockets,omitempty"`
	Invoices []Invoice `gorm:"foreignKey:UserID" json:"invoices,omitempty"`
}
