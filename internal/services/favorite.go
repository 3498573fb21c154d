package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/diewo77/go-dealership/internal/models"
)

// FavoriteService stores the vehicles an account saved.
type FavoriteService struct{ DB *gorm.DB }

func NewFavoriteService(db *gorm.DB) *FavoriteService { return &FavoriteService{DB: db} }

// Add saves the vehicle for the account. Saving twice is not an error.
func (s *FavoriteService) Add(ctx context.Context, accountID, inventoryID uint) error {
	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.Inventory{}).Where("id = ?", inventoryID).Count(&count).Error; err != nil {
		return fmt.Errorf("check vehicle: %w", err)
	}
	if count == 0 {
		return ErrNotFound
	}
	fav := models.Favorite{AccountID: accountID, InventoryID: inventoryID}
	if err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&fav).Error; err != nil {
		return fmt.Errorf("add favorite: %w", err)
	}
	return nil
}

// Get returns one favorite, or ErrNotFound.
func (s *FavoriteService) Get(ctx context.Context, accountID, inventoryID uint) (*models.Favorite, error) {
	var fav models.Favorite
	err := s.DB.WithContext(ctx).
		Where("account_id = ? AND inventory_id = ?", accountID, inventoryID).
		First(&fav).Error
	if err != nil {
		if notFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get favorite: %w", err)
	}
	return &fav, nil
}

// Remove deletes the favorite and reports whether it existed.
func (s *FavoriteService) Remove(ctx context.Context, accountID, inventoryID uint) (bool, error) {
	res := s.DB.WithContext(ctx).
		Where("account_id = ? AND inventory_id = ?", accountID, inventoryID).
		Delete(&models.Favorite{})
	if res.Error != nil {
		return false, fmt.Errorf("remove favorite: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// List returns the account's favorites, newest first, with vehicles loaded.
func (s *FavoriteService) List(ctx context.Context, accountID uint) ([]models.Favorite, error) {
	var out []models.Favorite
	err := s.DB.WithContext(ctx).
		Preload("Inventory").
		Where("account_id = ?", accountID).
		Order("created_at desc").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	return out, nil
}

// Has reports whether the account saved the vehicle.
func (s *FavoriteService) Has(ctx context.Context, accountID, inventoryID uint) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.Favorite{}).
		Where("account_id = ? AND inventory_id = ?", accountID, inventoryID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check favorite: %w", err)
	}
	return count > 0, nil
}
