package model

import "time"

type EntitlementKind string

const (
	KindMembership EntitlementKind = "membership"
	KindUnlock     EntitlementKind = "unlock"
)

// Principal is the authenticated caller attached to a request.
type Principal struct {
	UserID string
	Email  string
	Name   string
	Role   string
}

func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == "admin"
}

// Billing carries the optional invoice fields submitted with a confirmation.
type Billing struct {
	IsBusiness  bool
	CompanyName string
	GSTNumber   string
	Email       string
	Address     string
	State       string
	PinCode     string
}

// PaymentConfirmation is the client-submitted proof of payment.
type PaymentConfirmation struct {
	Kind       EntitlementKind
	OrderID    string
	PaymentID  string
	Signature  string
	PlanName   string
	Duration   string
	CallID     string
	AmountPaid int64 // minor units
	Billing    Billing
}

type MembershipGrant struct {
	PlanName   string
	Duration   string
	StartDate  time.Time
	ExpiryDate time.Time
}

type UnlockGrant struct {
	CallID    string
	CallTitle string
}

// EntitlementPlan is exactly one of Membership or Unlock, selected by Kind.
type EntitlementPlan struct {
	Kind       EntitlementKind
	UserID     string
	UserEmail  string
	UserName   string
	OrderID    string
	PaymentID  string
	AmountPaid int64
	Membership *MembershipGrant
	Unlock     *UnlockGrant
}

// EntitlementRecord is what the writer persisted (or found already persisted).
type EntitlementRecord struct {
	Kind       EntitlementKind
	Membership *Membership
	Unlock     *UnlockedCall
	// Replayed is true when this payment id was already processed.
	Replayed bool
	// AlreadyUnlocked is true when a new payment hit an unlock the user already held.
	AlreadyUnlocked bool
}

func (r *EntitlementRecord) ID() string {
	switch {
	case r.Membership != nil:
		return r.Membership.ID
	case r.Unlock != nil:
		return r.Unlock.ID
	}
	return ""
}

// BillingContext is everything the invoice dispatcher needs, detached from the request.
type BillingContext struct {
	Kind           EntitlementKind
	OrderID        string
	PaymentID      string
	AmountPaid     int64
	RecipientEmail string
	RecipientName  string
	Billing        Billing
	ItemName       string
	DurationLabel  string
	PlanName       string
	StartDate      time.Time
	ExpiryDate     time.Time
	CallTitle      string
}

// GatewayOrderResult is the order object returned by the payment gateway.
type GatewayOrderResult struct {
	ID         string `json:"id"`
	Entity     string `json:"entity"`
	Amount     int64  `json:"amount"`
	AmountPaid int64  `json:"amount_paid"`
	AmountDue  int64  `json:"amount_due"`
	Currency   string `json:"currency"`
	Receipt    string `json:"receipt"`
	Status     string `json:"status"`
	Attempts   int    `json:"attempts"`
	CreatedAt  int64  `json:"created_at"`
}

type GatewayError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

type MailAttachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

type Mail struct {
	To          string
	ToName      string
	Subject     string
	HTMLBody    string
	Attachments []MailAttachment
}
