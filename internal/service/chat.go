package service

import (
	"context"
	"errors"
	"fmt"
	"membership-api/internal/dto"
	"membership-api/internal/model"
	"membership-api/internal/repository"
	"strings"

	"gorm.io/gorm"
)

const DeletedMessageContent = "This message was deleted."

type ChatService interface {
	Post(ctx context.Context, author *model.Principal, req *dto.ChatMessageRequest) (*model.ChatMessage, error)
	Edit(ctx context.Context, id, content string) (*model.ChatMessage, error)
	Delete(ctx context.Context, id string) (*model.ChatMessage, error)
	List(ctx context.Context, viewer *model.Principal, planName string) ([]*model.ChatMessage, error)
}

type chatServiceImpl struct {
	chatRepo    repository.ChatRepository
	planRepo    repository.PlanRepository
	memberships MembershipService
}

func NewChatService(chatRepo repository.ChatRepository, planRepo repository.PlanRepository, memberships MembershipService) ChatService {
	return &chatServiceImpl{
		chatRepo:    chatRepo,
		planRepo:    planRepo,
		memberships: memberships,
	}
}

func (s *chatServiceImpl) Post(ctx context.Context, author *model.Principal, req *dto.ChatMessageRequest) (*model.ChatMessage, error) {
	planName := strings.TrimSpace(req.PlanName)
	content := strings.TrimSpace(req.Content)
	if planName == "" || content == "" {
		return nil, invalidInput("planName and content are required")
	}

	if _, err := s.planRepo.FindByName(ctx, planName); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("find plan: %w", err)
	}

	msg := &model.ChatMessage{
		PlanName:   planName,
		Content:    content,
		AuthorID:   author.UserID,
		AuthorName: author.Name,
	}
	if err := s.chatRepo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	return msg, nil
}

func (s *chatServiceImpl) Edit(ctx context.Context, id, content string) (*model.ChatMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, invalidInput("content is required")
	}

	msg, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if msg.IsDeleted {
		return nil, ErrMessageDeleted
	}

	msg.Content = content
	msg.IsEdited = true
	if err := s.chatRepo.Update(ctx, msg); err != nil {
		return nil, fmt.Errorf("update message: %w", err)
	}

	return msg, nil
}

// Delete redacts the message in place; the row stays so the thread keeps its shape.
func (s *chatServiceImpl) Delete(ctx context.Context, id string) (*model.ChatMessage, error) {
	msg, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if msg.IsDeleted {
		return msg, nil
	}

	msg.Content = DeletedMessageContent
	msg.IsDeleted = true
	msg.IsEdited = false
	if err := s.chatRepo.Update(ctx, msg); err != nil {
		return nil, fmt.Errorf("delete message: %w", err)
	}

	return msg, nil
}

func (s *chatServiceImpl) List(ctx context.Context, viewer *model.Principal, planName string) ([]*model.ChatMessage, error) {
	if !viewer.IsAdmin() {
		ok, err := s.memberships.HasActiveMembership(ctx, viewer.UserID, planName)
		if err != nil {
			return nil, fmt.Errorf("check membership: %w", err)
		}
		if !ok {
			return nil, ErrNotSubscribed
		}
	}

	return s.chatRepo.ListByPlan(ctx, planName)
}

func (s *chatServiceImpl) find(ctx context.Context, id string) (*model.ChatMessage, error) {
	msg, err := s.chatRepo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find message: %w", err)
	}
	return msg, nil
}
