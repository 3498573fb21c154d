package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Image paths used when a vehicle is saved without pictures.
const (
	PlaceholderImage     = "/images/vehicles/no-image.png"
	PlaceholderThumbnail = "/images/vehicles/no-image-tn.png"
)

// Classification groups vehicles, e.g. "SUV" or "Truck".
type Classification struct {
	ID        uint        `gorm:"primaryKey" json:"classification_id"`
	CreatedAt time.Time   `json:"-"`
	UpdatedAt time.Time   `json:"-"`
	Name      string      `gorm:"uniqueIndex;size:50;not null" json:"classification_name"`
	Vehicles  []Inventory `gorm:"foreignKey:ClassificationID" json:"-"`
}

// Inventory is a vehicle for sale.
type Inventory struct {
	ID               uint            `gorm:"primaryKey" json:"inv_id"`
	CreatedAt        time.Time       `json:"-"`
	UpdatedAt        time.Time       `json:"-"`
	ClassificationID uint            `gorm:"index;not null" json:"classification_id"`
	Classification   *Classification `json:"-"`
	Make             string          `gorm:"size:50;not null" json:"inv_make"`
	Model            string          `gorm:"size:50;not null" json:"inv_model"`
	Year             int             `gorm:"not null" json:"inv_year"`
	Description      string          `gorm:"type:text;not null" json:"inv_description"`
	Image            string          `gorm:"size:255;not null" json:"inv_image"`
	Thumbnail        string          `gorm:"size:255;not null" json:"inv_thumbnail"`
	Price            float64         `gorm:"not null" json:"inv_price"`
	Miles            int             `gorm:"not null" json:"inv_miles"`
	Color            string          `gorm:"size:20;not null" json:"inv_color"`
}

// TableName keeps the singular table name used by the SQL migrations.
func (Inventory) TableName() string { return "inventory" }

// Name is "Make Model".
func (i Inventory) Name() string { return strings.TrimSpace(i.Make + " " + i.Model) }

// ClassificationName returns the preloaded classification name, if any.
func (i Inventory) ClassificationName() string {
	if i.Classification == nil {
		return ""
	}
	return i.Classification.Name
}

// ApplyImageDefaults fills missing image paths with the placeholders.
func (i *Inventory) ApplyImageDefaults() {
	if strings.TrimSpace(i.Image) == "" {
		i.Image = PlaceholderImage
	}
	if strings.TrimSpace(i.Thumbnail) == "" {
		i.Thumbnail = PlaceholderThumbnail
	}
}

func (i *Inventory) BeforeSave(*gorm.DB) error {
	i.ApplyImageDefaults()
	return nil
}
