package models

import "time"

// Conditions a guitar can be listed in.
const (
	ConditionNew     = "New"
	ConditionUsed    = "Used"
	ConditionVintage = "Vintage"
)

// Brand is a guitar manufacturer. Brands are created implicitly the first
// time a guitar references them by name.
type Brand struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"type:varchar(255);not null;uniqueIndex"`
}

// TableName pins the table name used by the schema.
func (Brand) TableName() string { return "brand" }

// Guitar represents an instrument in a user's inventory.
type Guitar struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Model     string    `json:"model" gorm:"type:varchar(255);not null;uniqueIndex:idx_guitar_owner_model_brand,priority:2"`
	Type      string    `json:"type" gorm:"type:varchar(100);not null"`
	Strings   int       `json:"strings" gorm:"not null"`
	Condition string    `json:"condition" gorm:"type:varchar(20);not null"`
	Price     float64   `json:"price" gorm:"type:decimal(10,2);not null"`
	ImageURL  *string   `json:"imageUrl,omitempty" gorm:"type:text"`
	BrandID   uint      `json:"-" gorm:"not null;uniqueIndex:idx_guitar_owner_model_brand,priority:3"`
	Brand     Brand     `json:"brand"`
	UserID    string    `json:"userId" gorm:"type:varchar(36);not null;index;uniqueIndex:idx_guitar_owner_model_brand,priority:1"`
	User      *User     `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName pins the table name used by the schema.
func (Guitar) TableName() string { return "guitar" }

// ValidCondition reports whether c is one of the known conditions.
func ValidCondition(c string) bool {
	switch c {
	case ConditionNew, ConditionUsed, ConditionVintage:
		return true
	}
	return false
}
