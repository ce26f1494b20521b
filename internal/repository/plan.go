package repository

import (
	"context"
	"membership-api/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PlanRepository interface {
	Seed(ctx context.Context, plans []*model.Plan) (int64, error)
	Create(ctx context.Context, plan *model.Plan) error
	Update(ctx context.Context, plan *model.Plan) error
	Delete(ctx context.Context, tx *gorm.DB, id string) error
	FindByID(ctx context.Context, id string) (*model.Plan, error)
	FindByName(ctx context.Context, name string) (*model.Plan, error)
	NameTaken(ctx context.Context, name, exceptID string) (bool, error)
	List(ctx context.Context) ([]*model.Plan, error)
}

type planRepoImpl struct {
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &planRepoImpl{
		db: db,
	}
}

// Seed inserts plans whose name is not taken yet and reports how many were added.
func (r *planRepoImpl) Seed(ctx context.Context, plans []*model.Plan) (int64, error) {
	if len(plans) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&plans)

	return result.RowsAffected, result.Error
}

func (r *planRepoImpl) Create(ctx context.Context, plan *model.Plan) error {
	return r.db.WithContext(ctx).Create(plan).Error
}

func (r *planRepoImpl) Update(ctx context.Context, plan *model.Plan) error {
	return r.db.WithContext(ctx).Save(plan).Error
}

func (r *planRepoImpl) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	result := conn(r.db, tx).WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.Plan{})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *planRepoImpl) FindByID(ctx context.Context, id string) (*model.Plan, error) {
	var plan model.Plan
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&plan).Error

	if err != nil {
		return nil, err
	}

	return &plan, nil
}

func (r *planRepoImpl) FindByName(ctx context.Context, name string) (*model.Plan, error) {
	var plan model.Plan
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&plan).Error

	if err != nil {
		return nil, err
	}

	return &plan, nil
}

func (r *planRepoImpl) NameTaken(ctx context.Context, name, exceptID string) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).
		Model(&model.Plan{}).
		Where("name = ?", name)
	if exceptID != "" {
		query = query.Where("id <> ?", exceptID)
	}
	err := query.Count(&count).Error

	return count > 0, err
}

func (r *planRepoImpl) List(ctx context.Context) ([]*model.Plan, error) {
	var plans []*model.Plan
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&plans).
		Error

	if err != nil {
		return nil, err
	}

	return plans, nil
}
