package repository

import (
	"context"
	"membership-api/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UnlockRepository interface {
	FindByUserAndCall(ctx context.Context, tx *gorm.DB, userID, callID string) (*model.UnlockedCall, error)
	// FindByUserAndCallForUpdate is a locking read, so it sees rows committed after the transaction's snapshot.
	FindByUserAndCallForUpdate(ctx context.Context, tx *gorm.DB, userID, callID string) (*model.UnlockedCall, error)
	FindByID(ctx context.Context, tx *gorm.DB, id string) (*model.UnlockedCall, error)
	// CreateIfAbsent inserts the unlock unless the (user, call) pair already exists.
	CreateIfAbsent(ctx context.Context, tx *gorm.DB, unlock *model.UnlockedCall) (bool, error)
	ListCallIDsByUser(ctx context.Context, userID string) ([]string, error)
}

type unlockRepoImpl struct {
	db *gorm.DB
}

func NewUnlockRepository(db *gorm.DB) UnlockRepository {
	return &unlockRepoImpl{
		db: db,
	}
}

func (r *unlockRepoImpl) FindByUserAndCall(ctx context.Context, tx *gorm.DB, userID, callID string) (*model.UnlockedCall, error) {
	var unlock model.UnlockedCall
	err := conn(r.db, tx).WithContext(ctx).
		Where("user_id = ? AND call_id = ?", userID, callID).
		First(&unlock).Error
	if err != nil {
		return nil, err
	}

	return &unlock, nil
}

func (r *unlockRepoImpl) FindByUserAndCallForUpdate(ctx context.Context, tx *gorm.DB, userID, callID string) (*model.UnlockedCall, error) {
	var unlock model.UnlockedCall
	err := conn(r.db, tx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND call_id = ?", userID, callID).
		First(&unlock).Error
	if err != nil {
		return nil, err
	}

	return &unlock, nil
}

func (r *unlockRepoImpl) FindByID(ctx context.Context, tx *gorm.DB, id string) (*model.UnlockedCall, error) {
	var unlock model.UnlockedCall
	err := conn(r.db, tx).WithContext(ctx).
		Where("id = ?", id).
		First(&unlock).Error
	if err != nil {
		return nil, err
	}

	return &unlock, nil
}

func (r *unlockRepoImpl) CreateIfAbsent(ctx context.Context, tx *gorm.DB, unlock *model.UnlockedCall) (bool, error) {
	result := conn(r.db, tx).WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "call_id"}},
		DoNothing: true,
	}).Create(unlock)

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *unlockRepoImpl) ListCallIDsByUser(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.UnlockedCall{}).
		Where("user_id = ?", userID).
		Pluck("call_id", &ids).Error
	if err != nil {
		return nil, err
	}

	return ids, nil
}
