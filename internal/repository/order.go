package repository

import (
	"context"
	"membership-api/internal/model"
	"time"

	"gorm.io/gorm"
)

const (
	OrderStatusCreated = "CREATED"
	OrderStatusPaid    = "PAID"
)

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *model.GatewayOrder) error
	FindByOrderID(ctx context.Context, orderID string) (*model.GatewayOrder, error)
	MarkPaid(ctx context.Context, tx *gorm.DB, orderID string) (bool, error)
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.GatewayOrder) error {
	if order.Status == "" {
		order.Status = OrderStatusCreated
	}
	return conn(r.db, tx).WithContext(ctx).Create(order).Error
}

func (r *orderRepoImpl) FindByOrderID(ctx context.Context, orderID string) (*model.GatewayOrder, error) {
	var order model.GatewayOrder
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

// MarkPaid reports whether a CREATED order was flipped to PAID. Orders created
// outside this service are not tracked, so a missing row is not an error.
func (r *orderRepoImpl) MarkPaid(ctx context.Context, tx *gorm.DB, orderID string) (bool, error) {
	result := conn(r.db, tx).WithContext(ctx).Model(&model.GatewayOrder{}).
		Where("order_id = ? AND status = ?", orderID, OrderStatusCreated).
		Updates(map[string]interface{}{
			"status":     OrderStatusPaid,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}
