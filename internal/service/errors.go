package service

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrGateway          = errors.New("payment gateway unavailable")
	ErrPlanNotFound     = errors.New("plan not found")
	ErrPlanNameTaken    = errors.New("plan name already exists")
	ErrPlanInUse        = errors.New("plan has active subscribers")
	ErrCallNotFound     = errors.New("call not found")
	ErrMessageNotFound  = errors.New("message not found")
	ErrMessageDeleted   = errors.New("message was deleted")
	ErrNotSubscribed    = errors.New("no active membership for this plan")
)

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// PlanInUseError carries how many active memberships block a plan deletion.
type PlanInUseError struct {
	ActiveSubscribers int64
}

func (e *PlanInUseError) Error() string {
	return fmt.Sprintf("%s: %d", ErrPlanInUse, e.ActiveSubscribers)
}

func (e *PlanInUseError) Is(target error) bool {
	return target == ErrPlanInUse
}

// EntitlementWriteError means the payment was verified but nothing could be persisted.
type EntitlementWriteError struct {
	OrderID   string
	PaymentID string
	Err       error
}

func (e *EntitlementWriteError) Error() string {
	return fmt.Sprintf("persist entitlement for payment %s: %v", e.PaymentID, e.Err)
}

func (e *EntitlementWriteError) Unwrap() error {
	return e.Err
}
