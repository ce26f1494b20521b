package repository

import (
	"context"
	"membership-api/internal/model"

	"gorm.io/gorm"
)

type ChatRepository interface {
	Create(ctx context.Context, msg *model.ChatMessage) error
	Update(ctx context.Context, msg *model.ChatMessage) error
	FindByID(ctx context.Context, id string) (*model.ChatMessage, error)
	ListByPlan(ctx context.Context, planName string) ([]*model.ChatMessage, error)
	DeleteByPlan(ctx context.Context, tx *gorm.DB, planName string) (int64, error)
}

type chatRepoImpl struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepoImpl{db: db}
}

func (r *chatRepoImpl) Create(ctx context.Context, msg *model.ChatMessage) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *chatRepoImpl) Update(ctx context.Context, msg *model.ChatMessage) error {
	return r.db.WithContext(ctx).Save(msg).Error
}

func (r *chatRepoImpl) FindByID(ctx context.Context, id string) (*model.ChatMessage, error) {
	var msg model.ChatMessage
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&msg).Error
	if err != nil {
		return nil, err
	}

	return &msg, nil
}

func (r *chatRepoImpl) ListByPlan(ctx context.Context, planName string) ([]*model.ChatMessage, error) {
	var msgs []*model.ChatMessage
	err := r.db.WithContext(ctx).
		Where("plan_name = ?", planName).
		Order("created_at ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}

	return msgs, nil
}

// DeleteByPlan removes a plan's whole thread; only used when the plan itself is deleted.
func (r *chatRepoImpl) DeleteByPlan(ctx context.Context, tx *gorm.DB, planName string) (int64, error) {
	result := conn(r.db, tx).WithContext(ctx).
		Where("plan_name = ?", planName).
		Delete(&model.ChatMessage{})

	return result.RowsAffected, result.Error
}
