package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type MembershipStatus string

const (
	MembershipActive    MembershipStatus = "active"
	MembershipExpired   MembershipStatus = "expired"
	MembershipCancelled MembershipStatus = "cancelled"
)

// Pricing maps each duration to a major-unit price; nil means the duration is not offered.
type Pricing struct {
	Monthly    *float64 `json:"monthly"`
	Quarterly  *float64 `json:"quarterly"`
	HalfYearly *float64 `json:"halfYearly"`
	Yearly     *float64 `json:"yearly"`
}

type Plan struct {
	ID          string                      `gorm:"primaryKey;size:36" json:"id"`
	Name        string                      `gorm:"size:128;uniqueIndex;not null" json:"name"`
	Description string                      `gorm:"type:text;not null" json:"description"`
	Pricing     datatypes.JSONType[Pricing] `json:"pricing"`
	CreatedAt   time.Time                   `json:"createdAt"`
	UpdatedAt   time.Time                   `json:"updatedAt"`
}

// Membership rows are history: one per purchase or renewal, never upserted.
type Membership struct {
	ID               string           `gorm:"primaryKey;size:36" json:"id"`
	UserID           string           `gorm:"size:64;index;not null" json:"userId"`
	UserEmail        string           `gorm:"size:255" json:"userEmail,omitempty"`
	UserName         string           `gorm:"size:255" json:"userName,omitempty"`
	PlanName         string           `gorm:"size:128;index;not null" json:"planName"` // natural key into plans.name
	Duration         string           `gorm:"size:32;not null" json:"duration"`
	StartDate        time.Time        `gorm:"not null" json:"startDate"`
	ExpiryDate       time.Time        `gorm:"index;not null" json:"expiryDate"`
	Status           MembershipStatus `gorm:"size:16;index;not null" json:"status"`
	GatewayOrderID   string           `gorm:"size:64;not null" json:"gatewayOrderId"`
	GatewayPaymentID string           `gorm:"size:64;uniqueIndex;not null" json:"gatewayPaymentId"`
	AmountPaid       int64            `gorm:"not null" json:"amountPaid"` // minor units
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// DailyCall is a paid content item. Premium fields are only served to unlock holders and admins.
type DailyCall struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Price       float64   `gorm:"not null" json:"price"`
	PublishedAt time.Time `gorm:"index" json:"publishedAt"`

	Scrip     string `gorm:"size:128;not null" json:"scrip"`
	Action    string `gorm:"size:8;not null" json:"action"` // BUY, SELL
	Entry     string `gorm:"size:64;not null" json:"entry"`
	BuyMore   string `gorm:"size:64" json:"buyMore"`
	Target    string `gorm:"size:64;not null" json:"target"`
	StopLoss  string `gorm:"size:64;not null" json:"stopLoss"`
	Rationale string `gorm:"type:text" json:"rationale"`

	IsDeleted bool      `gorm:"index;not null;default:false" json:"isDeleted"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type UnlockedCall struct {
	ID               string    `gorm:"primaryKey;size:36" json:"id"`
	UserID           string    `gorm:"size:64;not null;uniqueIndex:idx_unlock_user_call,priority:1" json:"userId"`
	CallID           string    `gorm:"size:36;not null;uniqueIndex:idx_unlock_user_call,priority:2" json:"callId"`
	GatewayOrderID   string    `gorm:"size:64;not null" json:"gatewayOrderId"`
	GatewayPaymentID string    `gorm:"size:64;not null" json:"gatewayPaymentId"`
	AmountPaid       int64     `gorm:"not null" json:"amountPaid"`
	PurchasedAt      time.Time `gorm:"not null" json:"purchasedAt"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

type ChatMessage struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	PlanName   string    `gorm:"size:128;index;not null" json:"planName"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	AuthorID   string    `gorm:"size:64;not null" json:"authorId"`
	AuthorName string    `gorm:"size:255" json:"authorName"`
	IsEdited   bool      `gorm:"not null;default:false" json:"isEdited"`
	IsDeleted  bool      `gorm:"not null;default:false" json:"isDeleted"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type GatewayOrder struct {
	OrderID   string `gorm:"primaryKey;size:64;not null"` // gateway order id
	UserID    string `gorm:"size:64;index"`
	Amount    int64  `gorm:"not null"` // minor units
	Currency  string `gorm:"size:8;not null"`
	Receipt   string `gorm:"size:64"`
	Status    string `gorm:"size:16;index;not null"` // CREATED, PAID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PaymentEvent records each gateway payment that has already produced an entitlement.
type PaymentEvent struct {
	PaymentID     string `gorm:"primaryKey;size:64;not null"`
	OrderID       string `gorm:"size:64;index;not null"`
	Kind          string `gorm:"size:16;not null"`
	EntitlementID string `gorm:"size:36;not null"`
	ProcessedAt   time.Time
	CreatedAt     time.Time
}

func (p *Plan) BeforeCreate(*gorm.DB) error         { p.ID = ensureID(p.ID); return nil }
func (m *Membership) BeforeCreate(*gorm.DB) error   { m.ID = ensureID(m.ID); return nil }
func (c *DailyCall) BeforeCreate(*gorm.DB) error    { c.ID = ensureID(c.ID); return nil }
func (u *UnlockedCall) BeforeCreate(*gorm.DB) error { u.ID = ensureID(u.ID); return nil }
func (c *ChatMessage) BeforeCreate(*gorm.DB) error  { c.ID = ensureID(c.ID); return nil }

func ensureID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

// AllModels lists every table managed by AutoMigrate.
func AllModels() []interface{} {
	return []interface{}{
		&Plan{},
		&Membership{},
		&DailyCall{},
		&UnlockedCall{},
		&ChatMessage{},
		&GatewayOrder{},
		&PaymentEvent{},
	}
}
