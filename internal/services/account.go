package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/diewo77/go-dealership/auth"
	"github.com/diewo77/go-dealership/internal/models"
)

// AccountService manages registered accounts. Hash turns a plaintext
// password into the stored digest.
type AccountService struct {
	DB   *gorm.DB
	Hash func(plain string) (string, error)
}

func NewAccountService(db *gorm.DB) *AccountService {
	return &AccountService{DB: db, Hash: auth.HashPassword}
}

func (s *AccountService) hash(plain string) (string, error) {
	if s.Hash == nil {
		return auth.HashPassword(plain)
	}
	return s.Hash(plain)
}

// Register hashes the password and creates a Client account.
func (s *AccountService) Register(ctx context.Context, first, last, email, password string) (*models.Account, error) {
	taken, err := s.EmailTakenByOther(ctx, email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}
	digest, err := s.hash(password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHashFailed, err)
	}
	acc := models.Account{FirstName: first, LastName: last, Email: email, Password: digest, Type: models.AccountClient}
	if err := s.DB.WithContext(ctx).Create(&acc).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create account: %w", err)
	}
	return &acc, nil
}

// Authenticate returns the account for a matching email and password.
// Unknown emails and wrong passwords give the same ErrInvalidCredentials.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*models.Account, error) {
	acc, err := s.ByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(acc.Password, password) {
		return nil, ErrInvalidCredentials
	}
	acc.Password = ""
	return acc, nil
}

func (s *AccountService) ByEmail(ctx context.Context, email string) (*models.Account, error) {
	var acc models.Account
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&acc).Error; err != nil {
		if notFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("account by email: %w", err)
	}
	return &acc, nil
}

func (s *AccountService) ByID(ctx context.Context, id uint) (*models.Account, error) {
	var acc models.Account
	if err := s.DB.WithContext(ctx).First(&acc, id).Error; err != nil {
		if notFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("account by id: %w", err)
	}
	return &acc, nil
}

// EmailTakenByOther reports whether email belongs to an account other than id.
// Pass id 0 to check against every account.
func (s *AccountService) EmailTakenByOther(ctx context.Context, email string, id uint) (bool, error) {
	var count int64
	q := s.DB.WithContext(ctx).Model(&models.Account{}).Where("email = ?", email)
	if id != 0 {
		q = q.Where("id <> ?", id)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return count > 0, nil
}

// Update changes the identity fields and returns the stored account.
func (s *AccountService) Update(ctx context.Context, id uint, first, last, email string) (*models.Account, error) {
	res := s.DB.WithContext(ctx).Model(&models.Account{}).Where("id = ?", id).
		Updates(map[string]any{"first_name": first, "last_name": last, "email": email})
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("update account: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.ByID(ctx, id)
}

// UpdatePassword stores a new bcrypt digest for the account.
func (s *AccountService) UpdatePassword(ctx context.Context, id uint, password string) error {
	digest, err := s.hash(password)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrHashFailed, err)
	}
	res := s.DB.WithContext(ctx).Model(&models.Account{}).Where("id = ?", id).Update("password", digest)
	if res.Error != nil {
		return fmt.Errorf("update password: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
