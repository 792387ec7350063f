package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"photogo/internal/domain"
)

// ErrCustomerInfoNotFound means nothing is cached for the user yet.
var ErrCustomerInfoNotFound = errors.New("customer info not found")

// CustomerInfoRepository stores the contact details a user last entered in the
// booking wizard. It is separate from the account profile.
type CustomerInfoRepository interface {
	Get(ctx context.Context, userID int64) (*domain.CustomerInfo, error)
	Save(ctx context.Context, userID int64, info domain.CustomerInfo) error
}

type customerInfoRepository struct {
	db *gorm.DB
}

func NewCustomerInfoRepository(db *gorm.DB) CustomerInfoRepository {
	return &customerInfoRepository{db: db}
}

func (r *customerInfoRepository) Get(ctx context.Context, userID int64) (*domain.CustomerInfo, error) {
	var p domain.CustomerProfile
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCustomerInfoNotFound
	}
	if err != nil {
		return nil, err
	}
	info := p.Info()
	return &info, nil
}

// Save updates the row of the user, creating it on first use. Two concurrent
// first saves race on the unique user_id; the loser falls back to update.
func (r *customerInfoRepository) Save(ctx context.Context, userID int64, info domain.CustomerInfo) error {
	db := r.db.WithContext(ctx)

	updated, err := r.update(db, userID, info)
	if err != nil || updated {
		return err
	}

	p := &domain.CustomerProfile{
		UserID: userID,
		Name:   info.Name,
		Email:  info.Email,
		Phone:  info.Phone,
		Notes:  info.Notes,
	}
	if err := db.Create(p).Error; err != nil {
		if !isUniqueViolation(err) {
			return err
		}
		_, err = r.update(db, userID, info)
		return err
	}
	return nil
}

func (r *customerInfoRepository) update(db *gorm.DB, userID int64, info domain.CustomerInfo) (bool, error) {
	res := db.Model(&domain.CustomerProfile{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"name":  info.Name,
			"email": info.Email,
			"phone": info.Phone,
			"notes": info.Notes,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate")
}
