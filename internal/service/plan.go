package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"membership-api/internal/dto"
	"membership-api/internal/model"
	"membership-api/internal/repository"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PlanService interface {
	List(ctx context.Context) ([]*model.Plan, error)
	GetByName(ctx context.Context, name string) (*model.Plan, error)
	Create(ctx context.Context, req *dto.PlanRequest) (*model.Plan, error)
	Update(ctx context.Context, id string, req *dto.PlanRequest) (*model.Plan, error)
	Delete(ctx context.Context, id string) error
	Seed(ctx context.Context, plans []*model.Plan) (int64, error)
}

type planServiceImpl struct {
	db             *gorm.DB
	planRepo       repository.PlanRepository
	membershipRepo repository.MembershipRepository
	chatRepo       repository.ChatRepository
	now            func() time.Time
}

func NewPlanService(
	db *gorm.DB,
	planRepo repository.PlanRepository,
	membershipRepo repository.MembershipRepository,
	chatRepo repository.ChatRepository,
) PlanService {
	return &planServiceImpl{
		db:             db,
		planRepo:       planRepo,
		membershipRepo: membershipRepo,
		chatRepo:       chatRepo,
		now:            time.Now,
	}
}

func (s *planServiceImpl) List(ctx context.Context) ([]*model.Plan, error) {
	return s.planRepo.List(ctx)
}

func (s *planServiceImpl) GetByName(ctx context.Context, name string) (*model.Plan, error) {
	plan, err := s.planRepo.FindByName(ctx, name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPlanNotFound
	}
	return plan, err
}

func validatePlan(req *dto.PlanRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if req.Name == "" || req.Description == "" || req.Pricing == nil {
		return invalidInput("name, description and pricing are required")
	}
	for _, price := range []*float64{req.Pricing.Monthly, req.Pricing.Quarterly, req.Pricing.HalfYearly, req.Pricing.Yearly} {
		if price != nil && *price < 0 {
			return invalidInput("prices must not be negative")
		}
	}
	return nil
}

func (s *planServiceImpl) Create(ctx context.Context, req *dto.PlanRequest) (*model.Plan, error) {
	if err := validatePlan(req); err != nil {
		return nil, err
	}

	taken, err := s.planRepo.NameTaken(ctx, req.Name, "")
	if err != nil {
		return nil, fmt.Errorf("check plan name: %w", err)
	}
	if taken {
		return nil, ErrPlanNameTaken
	}

	plan := &model.Plan{
		Name:        req.Name,
		Description: req.Description,
		Pricing:     datatypes.NewJSONType(*req.Pricing),
	}
	if err := s.planRepo.Create(ctx, plan); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrPlanNameTaken
		}
		return nil, fmt.Errorf("create plan: %w", err)
	}

	return plan, nil
}

// Update does not rename historical memberships; they keep the name they were bought under.
func (s *planServiceImpl) Update(ctx context.Context, id string, req *dto.PlanRequest) (*model.Plan, error) {
	if err := validatePlan(req); err != nil {
		return nil, err
	}

	plan, err := s.planRepo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find plan: %w", err)
	}

	taken, err := s.planRepo.NameTaken(ctx, req.Name, id)
	if err != nil {
		return nil, fmt.Errorf("check plan name: %w", err)
	}
	if taken {
		return nil, ErrPlanNameTaken
	}

	if plan.Name != req.Name {
		slog.WarnContext(ctx, "plan renamed; existing memberships keep the old name",
			"plan_id", id, "old_name", plan.Name, "new_name", req.Name)
	}

	plan.Name = req.Name
	plan.Description = req.Description
	plan.Pricing = datatypes.NewJSONType(*req.Pricing)
	if err := s.planRepo.Update(ctx, plan); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrPlanNameTaken
		}
		return nil, fmt.Errorf("update plan: %w", err)
	}

	return plan, nil
}

// Delete refuses while any membership for the plan is still running, then clears its chat and history.
func (s *planServiceImpl) Delete(ctx context.Context, id string) error {
	plan, err := s.planRepo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrPlanNotFound
	}
	if err != nil {
		return fmt.Errorf("find plan: %w", err)
	}

	active, err := s.membershipRepo.CountActiveByPlan(ctx, plan.Name, s.now())
	if err != nil {
		return fmt.Errorf("count active memberships: %w", err)
	}
	if active > 0 {
		return &PlanInUseError{ActiveSubscribers: active}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		msgs, err := s.chatRepo.DeleteByPlan(ctx, tx, plan.Name)
		if err != nil {
			return fmt.Errorf("delete chat messages: %w", err)
		}
		history, err := s.membershipRepo.DeleteByPlan(ctx, tx, plan.Name)
		if err != nil {
			return fmt.Errorf("delete membership history: %w", err)
		}
		if err := s.planRepo.Delete(ctx, tx, plan.ID); err != nil {
			return fmt.Errorf("delete plan: %w", err)
		}

		slog.InfoContext(ctx, "plan deleted", "plan_id", plan.ID, "plan_name", plan.Name,
			"chat_messages", msgs, "memberships", history)
		return nil
	})
}

func (s *planServiceImpl) Seed(ctx context.Context, plans []*model.Plan) (int64, error) {
	return s.planRepo.Seed(ctx, plans)
}

func price(v float64) *float64 { return &v }

// DefaultPlans is the starter catalogue written by the seed-plans command.
func DefaultPlans() []*model.Plan {
	return []*model.Plan{
		{
			Name:        "Silver",
			Description: "Daily intraday calls with entry, target and stop-loss levels.",
			Pricing:     datatypes.NewJSONType(model.Pricing{Monthly: price(499), Quarterly: price(1399)}),
		},
		{
			Name:        "Gold",
			Description: "Intraday and swing calls plus the members-only announcement thread.",
			Pricing:     datatypes.NewJSONType(model.Pricing{Monthly: price(999), Quarterly: price(2799), HalfYearly: price(5399), Yearly: price(9999)}),
		},
		{
			Name:        "Platinum",
			Description: "Everything in Gold with positional research and detailed rationale.",
			Pricing:     datatypes.NewJSONType(model.Pricing{HalfYearly: price(9999), Yearly: price(17999)}),
		},
	}
}
