package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/diewo77/go-dealership/internal/models"
)

// ClassificationService manages vehicle classifications.
type ClassificationService struct{ DB *gorm.DB }

func NewClassificationService(db *gorm.DB) *ClassificationService {
	return &ClassificationService{DB: db}
}

// List returns every classification ordered by name.
func (s *ClassificationService) List(ctx context.Context) ([]models.Classification, error) {
	var out []models.Classification
	if err := s.DB.WithContext(ctx).Order("name").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list classifications: %w", err)
	}
	return out, nil
}

// Create inserts a classification; an existing name gives ErrDuplicate.
func (s *ClassificationService) Create(ctx context.Context, name string) (*models.Classification, error) {
	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.Classification{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check classification: %w", err)
	}
	if count > 0 {
		return nil, ErrDuplicate
	}
	c := models.Classification{Name: name}
	if err := s.DB.WithContext(ctx).Create(&c).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("create classification: %w", err)
	}
	return &c, nil
}

func (s *ClassificationService) ByID(ctx context.Context, id uint) (*models.Classification, error) {
	var c models.Classification
	if err := s.DB.WithContext(ctx).First(&c, id).Error; err != nil {
		if notFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("classification by id: %w", err)
	}
	return &c, nil
}

// Exists reports whether id names a classification. Store errors count as
// absent, which makes the form fail validation instead of writing.
func (s *ClassificationService) Exists(ctx context.Context, id uint) bool {
	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.Classification{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false
	}
	return count > 0
}

func (s *ClassificationService) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&models.Classification{}).Count(&n).Error
	return n, err
}
