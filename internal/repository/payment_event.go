package repository

import (
	"context"
	"membership-api/internal/model"
	"time"

	"gorm.io/gorm"
)

type PaymentEventRepository interface {
	Get(ctx context.Context, tx *gorm.DB, paymentID string) (*model.PaymentEvent, error)
	MarkProcessed(ctx context.Context, tx *gorm.DB, event *model.PaymentEvent) error
}

type paymentEventRepoImpl struct {
	db *gorm.DB
}

func NewPaymentEventRepository(db *gorm.DB) PaymentEventRepository {
	return &paymentEventRepoImpl{db: db}
}

func (r *paymentEventRepoImpl) Get(ctx context.Context, tx *gorm.DB, paymentID string) (*model.PaymentEvent, error) {
	var event model.PaymentEvent
	err := conn(r.db, tx).WithContext(ctx).
		Where("payment_id = ?", paymentID).
		First(&event).Error

	if err != nil {
		return nil, err
	}

	return &event, nil
}

func (r *paymentEventRepoImpl) MarkProcessed(ctx context.Context, tx *gorm.DB, event *model.PaymentEvent) error {
	if event.ProcessedAt.IsZero() {
		event.ProcessedAt = time.Now()
	}
	return conn(r.db, tx).WithContext(ctx).Create(event).Error
}
