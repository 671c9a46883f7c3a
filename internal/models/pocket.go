package models

// DefaultPocketName is the pocket created implicitly the first time an
// invoice is saved without an explicit target.
const DefaultPocketName = "Personal"

// Pocket is a named expense bucket owned by a single user. Non-owners
// gain access through PocketMember rows; the owner is implicitly a
// member and never stored as one.
type Pocket struct {
	Base
	Name   string `gorm:"not null;uniqueIndex:idx_pockets_user_name" json:"name"`
	UserID string `gorm:"not null;uniqueIndex:idx_pockets_user_name;index" json:"user_id"`

	Invoices []Invoice      `gorm:"foreignKey:PocketID" json:"invoices,omitempty"`
	Members  []PocketMember `gorm:"foreignKey:PocketID;constraint:OnDelete:CASCADE" json:"members,omitempty"`
}

// PocketMember grants a non-owner user access to a pocket.
type PocketMember struct {
	Base
	PocketID string `gorm:"not null;uniqueIndex:idx_pocket_members_pocket_user" json:"pocket_id"`
	UserID   string `gorm:"not null;uniqueIndex:idx_pocket_members_pocket_user;index" json:"user_id"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
