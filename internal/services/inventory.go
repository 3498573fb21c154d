package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/diewo77/go-dealership/internal/models"
)

// InventoryService manages vehicles.
type InventoryService struct{ DB *gorm.DB }

func NewInventoryService(db *gorm.DB) *InventoryService { return &InventoryService{DB: db} }

// ByClassification lists the vehicles of a classification with the
// classification preloaded, ordered by make then model.
func (s *InventoryService) ByClassification(ctx context.Context, classificationID uint) ([]models.Inventory, error) {
	var out []models.Inventory
	err := s.DB.WithContext(ctx).
		Preload("Classification").
		Where("classification_id = ?", classificationID).
		Order("make, model, id").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("inventory by classification: %w", err)
	}
	return out, nil
}

func (s *InventoryService) ByID(ctx context.Context, id uint) (*models.Inventory, error) {
	var inv models.Inventory
	if err := s.DB.WithContext(ctx).Preload("Classification").First(&inv, id).Error; err != nil {
		if notFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("inventory by id: %w", err)
	}
	return &inv, nil
}

// Create inserts the vehicle. Missing images get the placeholder paths.
func (s *InventoryService) Create(ctx context.Context, inv *models.Inventory) error {
	inv.ID = 0
	inv.Classification = nil
	if err := s.DB.WithContext(ctx).Create(inv).Error; err != nil {
		return fmt.Errorf("create inventory: %w", err)
	}
	return nil
}

// Update replaces every editable field of the vehicle with inv's values.
func (s *InventoryService) Update(ctx context.Context, inv *models.Inventory) error {
	var current models.Inventory
	if err := s.DB.WithContext(ctx).First(&current, inv.ID).Error; err != nil {
		if notFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("load inventory: %w", err)
	}
	current.ClassificationID = inv.ClassificationID
	current.Make = inv.Make
	current.Model = inv.Model
	current.Year = inv.Year
	current.Description = inv.Description
	current.Image = inv.Image
	current.Thumbnail = inv.Thumbnail
	current.Price = inv.Price
	current.Miles = inv.Miles
	current.Color = inv.Color
	if err := s.DB.WithContext(ctx).Omit("Classification").Save(&current).Error; err != nil {
		return fmt.Errorf("update inventory: %w", err)
	}
	*inv = current
	return nil
}

// Delete removes the vehicle and any favorites pointing at it. It reports
// whether a vehicle existed.
func (s *InventoryService) Delete(ctx context.Context, id uint) (bool, error) {
	var deleted bool
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("inventory_id = ?", id).Delete(&models.Favorite{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Inventory{}, id)
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("delete inventory: %w", err)
	}
	return deleted, nil
}

func (s *InventoryService) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&models.Inventory{}).Count(&n).Error
	return n, err
}
