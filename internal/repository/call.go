package repository

import (
	"context"
	"membership-api/internal/model"
	"time"

	"gorm.io/gorm"
)

type CallRepository interface {
	Create(ctx context.Context, call *model.DailyCall) error
	Update(ctx context.Context, call *model.DailyCall) error
	SoftDelete(ctx context.Context, id string) error
	// FindByID also returns soft-deleted calls so existing unlocks keep resolving.
	FindByID(ctx context.Context, id string) (*model.DailyCall, error)
	ListVisible(ctx context.Context) ([]*model.DailyCall, error)
	ListAll(ctx context.Context) ([]*model.DailyCall, error)
}

type callRepoImpl struct {
	db *gorm.DB
}

func NewCallRepository(db *gorm.DB) CallRepository {
	return &callRepoImpl{
		db: db,
	}
}

func (r *callRepoImpl) Create(ctx context.Context, call *model.DailyCall) error {
	return r.db.WithContext(ctx).Create(call).Error
}

func (r *callRepoImpl) Update(ctx context.Context, call *model.DailyCall) error {
	return r.db.WithContext(ctx).Save(call).Error
}

func (r *callRepoImpl) SoftDelete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&model.DailyCall{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(map[string]interface{}{
			"is_deleted": true,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *callRepoImpl) FindByID(ctx context.Context, id string) (*model.DailyCall, error) {
	var call model.DailyCall
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&call).Error

	if err != nil {
		return nil, err
	}

	return &call, nil
}

func (r *callRepoImpl) ListVisible(ctx context.Context) ([]*model.DailyCall, error) {
	var calls []*model.DailyCall
	err := r.db.WithContext(ctx).
		Where("is_deleted = ?", false).
		Order("published_at DESC").
		Order("created_at DESC").
		Find(&calls).
		Error

	if err != nil {
		return nil, err
	}

	return calls, nil
}

func (r *callRepoImpl) ListAll(ctx context.Context) ([]*model.DailyCall, error) {
	var calls []*model.DailyCall
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&calls).
		Error

	if err != nil {
		return nil, err
	}

	return calls, nil
}
