package service

import (
	"context"
	"errors"
	"fmt"
	"membership-api/internal/dto"
	"membership-api/internal/model"
	"membership-api/internal/repository"
	"strings"
	"time"

	"gorm.io/gorm"
)

const (
	LockedScrip     = "PREMIUM SCRIP"
	LockedValue     = "Locked"
	LockedRationale = "Unlock to view the detailed analysis and rationale."
)

type CallService interface {
	ListForViewer(ctx context.Context, viewer *model.Principal) ([]*dto.CallView, error)
	ListAll(ctx context.Context) ([]*model.DailyCall, error)
	Create(ctx context.Context, req *dto.CallRequest) (*model.DailyCall, error)
	Update(ctx context.Context, id string, req *dto.CallRequest) (*model.DailyCall, error)
	Delete(ctx context.Context, id string) error
}

type callServiceImpl struct {
	callRepo   repository.CallRepository
	unlockRepo repository.UnlockRepository
}

func NewCallService(callRepo repository.CallRepository, unlockRepo repository.UnlockRepository) CallService {
	return &callServiceImpl{
		callRepo:   callRepo,
		unlockRepo: unlockRepo,
	}
}

// ListForViewer hides premium fields of every call the viewer has not unlocked. Admins see everything.
func (s *callServiceImpl) ListForViewer(ctx context.Context, viewer *model.Principal) ([]*dto.CallView, error) {
	calls, err := s.callRepo.ListVisible(ctx)
	if err != nil {
		return nil, fmt.Errorf("list calls: %w", err)
	}

	purchased := make(map[string]bool)
	if viewer != nil {
		ids, err := s.unlockRepo.ListCallIDsByUser(ctx, viewer.UserID)
		if err != nil {
			return nil, fmt.Errorf("list unlocked calls: %w", err)
		}
		for _, id := range ids {
			purchased[id] = true
		}
	}

	views := make([]*dto.CallView, 0, len(calls))
	for _, call := range calls {
		views = append(views, RenderCall(call, purchased[call.ID], viewer.IsAdmin()))
	}

	return views, nil
}

// RenderCall builds the viewer's copy of a call, masking premium fields when it is locked.
func RenderCall(call *model.DailyCall, purchased, admin bool) *dto.CallView {
	view := &dto.CallView{
		ID:          call.ID,
		Title:       call.Title,
		Price:       call.Price,
		PublishedAt: call.PublishedAt,
		Action:      call.Action,
		IsPurchased: purchased,
		IsUnlocked:  purchased || admin,
	}

	if !view.IsUnlocked {
		view.Scrip = LockedScrip
		view.Entry = LockedValue
		view.BuyMore = LockedValue
		view.Target = LockedValue
		view.StopLoss = LockedValue
		view.Rationale = LockedRationale
		return view
	}

	view.Scrip = call.Scrip
	view.Entry = call.Entry
	view.BuyMore = call.BuyMore
	view.Target = call.Target
	view.StopLoss = call.StopLoss
	view.Rationale = call.Rationale
	return view
}

func (s *callServiceImpl) ListAll(ctx context.Context) ([]*model.DailyCall, error) {
	return s.callRepo.ListAll(ctx)
}

func (s *callServiceImpl) Create(ctx context.Context, req *dto.CallRequest) (*model.DailyCall, error) {
	call := &model.DailyCall{PublishedAt: time.Now()}
	applyCallRequest(call, req)

	if err := validateCall(call); err != nil {
		return nil, err
	}

	if err := s.callRepo.Create(ctx, call); err != nil {
		return nil, fmt.Errorf("create call: %w", err)
	}

	return call, nil
}

func (s *callServiceImpl) Update(ctx context.Context, id string, req *dto.CallRequest) (*model.DailyCall, error) {
	call, err := s.callRepo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && call.IsDeleted) {
		return nil, ErrCallNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find call: %w", err)
	}

	applyCallRequest(call, req)
	if err := validateCall(call); err != nil {
		return nil, err
	}

	if err := s.callRepo.Update(ctx, call); err != nil {
		return nil, fmt.Errorf("update call: %w", err)
	}

	return call, nil
}

func (s *callServiceImpl) Delete(ctx context.Context, id string) error {
	err := s.callRepo.SoftDelete(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrCallNotFound
	}
	return err
}

func applyCallRequest(call *model.DailyCall, req *dto.CallRequest) {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}

	setString(&call.Title, req.Title)
	setString(&call.Scrip, req.Scrip)
	setString(&call.Entry, req.Entry)
	setString(&call.BuyMore, req.BuyMore)
	setString(&call.Target, req.Target)
	setString(&call.StopLoss, req.StopLoss)
	setString(&call.Rationale, req.Rationale)
	if req.Action != nil {
		call.Action = strings.ToUpper(strings.TrimSpace(*req.Action))
	}
	if req.Price != nil {
		call.Price = *req.Price
	}
	if req.PublishedAt != nil {
		call.PublishedAt = *req.PublishedAt
	}
}

func validateCall(call *model.DailyCall) error {
	if call.Title == "" || call.Scrip == "" || call.Entry == "" || call.Target == "" || call.StopLoss == "" {
		return invalidInput("title, scrip, entry, target and stopLoss are required")
	}
	if call.Action != "BUY" && call.Action != "SELL" {
		return invalidInput("action must be BUY or SELL")
	}
	if call.Price <= 0 {
		return invalidInput("price must be positive")
	}
	return nil
}
