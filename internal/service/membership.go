package service

import (
	"context"
	"fmt"
	"log/slog"
	"membership-api/internal/dto"
	"membership-api/internal/repository"
	"time"
)

type MembershipService interface {
	ListForUser(ctx context.Context, userID string, latestOnly bool) ([]*dto.MembershipView, error)
	ListAll(ctx context.Context) ([]*dto.AdminMembershipView, error)
	HasActiveMembership(ctx context.Context, userID, planName string) (bool, error)
}

type membershipServiceImpl struct {
	membershipRepo repository.MembershipRepository
	now            func() time.Time
}

func NewMembershipService(membershipRepo repository.MembershipRepository) MembershipService {
	return &membershipServiceImpl{
		membershipRepo: membershipRepo,
		now:            time.Now,
	}
}

// ListForUser recomputes expiry before reading, so status is never stale for the caller.
func (s *membershipServiceImpl) ListForUser(ctx context.Context, userID string, latestOnly bool) ([]*dto.MembershipView, error) {
	expired, err := s.membershipRepo.ExpireOverdue(ctx, userID, s.now())
	if err != nil {
		return nil, fmt.Errorf("expire overdue memberships: %w", err)
	}
	if expired > 0 {
		slog.DebugContext(ctx, "memberships expired on read", "user_id", userID, "count", expired)
	}

	memberships, err := s.membershipRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}

	seen := make(map[string]bool)
	views := make([]*dto.MembershipView, 0, len(memberships))
	for _, m := range memberships {
		if latestOnly {
			if seen[m.PlanName] {
				continue
			}
			seen[m.PlanName] = true
		}
		views = append(views, &dto.MembershipView{
			ID:         m.ID,
			PlanName:   m.PlanName,
			Duration:   m.Duration,
			StartDate:  m.StartDate,
			ExpiryDate: m.ExpiryDate,
			Status:     string(m.Status),
			AmountPaid: m.AmountPaid,
			CreatedAt:  m.CreatedAt,
		})
	}

	return views, nil
}

// ListAll returns every membership oldest first, numbering renewals per user and plan.
func (s *membershipServiceImpl) ListAll(ctx context.Context) ([]*dto.AdminMembershipView, error) {
	memberships, err := s.membershipRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list all memberships: %w", err)
	}

	counts := make(map[string]int)
	views := make([]*dto.AdminMembershipView, 0, len(memberships))
	for _, m := range memberships {
		key := m.UserID + "\x00" + m.PlanName
		counts[key]++
		views = append(views, &dto.AdminMembershipView{
			Membership:   *m,
			RenewalCount: counts[key],
		})
	}

	return views, nil
}

func (s *membershipServiceImpl) HasActiveMembership(ctx context.Context, userID, planName string) (bool, error) {
	return s.membershipRepo.HasActive(ctx, userID, planName, s.now())
}

