// models/material.go
package models

import "time"

const CategoryTable = "lsb_categories"
const MaterialTable = "lsb_materials"

type Category struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Name      string     `gorm:"size:200;uniqueIndex;not null" json:"name"`
	Materials []Material `json:"materials,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Material is reference data. Borrowed/available counts are never stored here,
// they are derived from RequestItems on every read.
type Material struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Name              string    `gorm:"size:200;not null" json:"name"`
	Description       string    `gorm:"type:text" json:"description"`
	Quantity          int       `gorm:"not null;default:0;check:quantity >= 0" json:"quantity"`
	MaxDaysPerRequest int       `gorm:"not null;default:1;check:max_days_per_request >= 1" json:"maxDaysPerRequest"`
	CategoryID        uint      `gorm:"index;not null" json:"categoryId"`
	Category          *Category `json:"category,omitempty"`

	RequestItems []RequestItem `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Category) TableName() string { return CategoryTable }
func (Material) TableName() string { return MaterialTable }
