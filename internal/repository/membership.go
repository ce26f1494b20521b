package repository

import (
	"context"
	"membership-api/internal/model"
	"time"

	"gorm.io/gorm"
)

type MembershipRepository interface {
	Create(ctx context.Context, tx *gorm.DB, membership *model.Membership) error
	FindByID(ctx context.Context, tx *gorm.DB, id string) (*model.Membership, error)
	ExpireOverdue(ctx context.Context, userID string, now time.Time) (int64, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Membership, error)
	ListAll(ctx context.Context) ([]*model.Membership, error)
	HasActive(ctx context.Context, userID, planName string, now time.Time) (bool, error)
	CountActiveByPlan(ctx context.Context, planName string, now time.Time) (int64, error)
	DeleteByPlan(ctx context.Context, tx *gorm.DB, planName string) (int64, error)
}

type membershipRepoImpl struct {
	db *gorm.DB
}

func NewMembershipRepository(db *gorm.DB) MembershipRepository {
	return &membershipRepoImpl{
		db: db,
	}
}

func (r *membershipRepoImpl) Create(ctx context.Context, tx *gorm.DB, membership *model.Membership) error {
	return conn(r.db, tx).WithContext(ctx).Create(membership).Error
}

func (r *membershipRepoImpl) FindByID(ctx context.Context, tx *gorm.DB, id string) (*model.Membership, error) {
	var membership model.Membership
	err := conn(r.db, tx).WithContext(ctx).
		Where("id = ?", id).
		First(&membership).
		Error

	if err != nil {
		return nil, err
	}

	return &membership, nil
}

// ExpireOverdue flips the user's active rows whose expiry has passed.
func (r *membershipRepoImpl) ExpireOverdue(ctx context.Context, userID string, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Membership{}).
		Where("user_id = ? AND status = ? AND expiry_date < ?", userID, model.MembershipActive, now).
		Updates(map[string]interface{}{
			"status":     model.MembershipExpired,
			"updated_at": now,
		})

	return result.RowsAffected, result.Error
}

func (r *membershipRepoImpl) ListByUser(ctx context.Context, userID string) ([]*model.Membership, error) {
	var memberships []*model.Membership
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("start_date DESC").
		Find(&memberships).
		Error

	if err != nil {
		return nil, err
	}

	return memberships, nil
}

func (r *membershipRepoImpl) ListAll(ctx context.Context) ([]*model.Membership, error) {
	var memberships []*model.Membership
	err := r.db.WithContext(ctx).
		Order("start_date ASC").
		Find(&memberships).
		Error

	if err != nil {
		return nil, err
	}

	return memberships, nil
}

func (r *membershipRepoImpl) HasActive(ctx context.Context, userID, planName string, now time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Membership{}).
		Where("user_id = ? AND plan_name = ?", userID, planName).
		Where("status = ? AND expiry_date > ?", model.MembershipActive, now).
		Count(&count).Error

	return count > 0, err
}

func (r *membershipRepoImpl) CountActiveByPlan(ctx context.Context, planName string, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Membership{}).
		Where("plan_name = ?", planName).
		Where("status = ? AND expiry_date > ?", model.MembershipActive, now).
		Count(&count).Error

	return count, err
}

func (r *membershipRepoImpl) DeleteByPlan(ctx context.Context, tx *gorm.DB, planName string) (int64, error) {
	result := conn(r.db, tx).WithContext(ctx).
		Where("plan_name = ?", planName).
		Delete(&model.Membership{})

	return result.RowsAffected, result.Error
}
