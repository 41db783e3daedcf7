package credential

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, p *ApplicationPassword) error
	GetByID(ctx context.Context, id int64) (*ApplicationPassword, error)
	ListActiveByUsername(ctx context.Context, username string) ([]*ApplicationPassword, error)
	ListByUsername(ctx context.Context, username string) ([]*ApplicationPassword, error)
	MarkUsed(ctx context.Context, id int64, at time.Time) error
	Revoke(ctx context.Context, id int64, at time.Time) error
	DeleteRevokedBefore(ctx context.Context, before time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, p *ApplicationPassword) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *repository) GetByID(ctx context.Context, id int64) (*ApplicationPassword, error) {
	var p ApplicationPassword
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPasswordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) ListActiveByUsername(ctx context.Context, username string) ([]*ApplicationPassword, error) {
	var out []*ApplicationPassword
	err := r.db.WithContext(ctx).
		Where("username = ? AND revoked_at IS NULL", username).
		Order("id ASC").
		Find(&out).Error
	return out, err
}

func (r *repository) ListByUsername(ctx context.Context, username string) ([]*ApplicationPassword, error) {
	var out []*ApplicationPassword
	err := r.db.WithContext(ctx).Where("username = ?", username).Order("created_at DESC").Find(&out).Error
	return out, err
}

func (r *repository) MarkUsed(ctx context.Context, id int64, at time.Time) error {
	return r.db.WithContext(ctx).Model(&ApplicationPassword{}).
		Where("id = ?", id).
		Update("last_used_at", at).Error
}

func (r *repository) Revoke(ctx context.Context, id int64, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&ApplicationPassword{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyRevoked
	}
	return nil
}

func (r *repository) DeleteRevokedBefore(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("revoked_at IS NOT NULL AND revoked_at < ?", before).
		Delete(&ApplicationPassword{})
	return res.RowsAffected, res.Error
}
