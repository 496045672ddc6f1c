package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusPurchased   = "purchased"
	StatusConsidering = "considering"
	StatusPotential   = "potential"
	StatusCancelled   = "cancelled"
)

const (
	PlanWebinarPrice = "webinar_price"
	PlanFullPrice    = "full_price"
	PlanWebinarTop   = "webinar_top"
	PlanFullTop      = "full_top"
)

// PlanPrices is the plan-price table applied when a client record is created.
// Price can be edited independently of the plan afterward.
var PlanPrices = map[string]decimal.Decimal{
	PlanWebinarPrice: decimal.NewFromInt(1790),
	PlanFullPrice:    decimal.NewFromInt(1490),
	PlanWebinarTop:   decimal.NewFromInt(5200),
	PlanFullTop:      decimal.NewFromInt(7700),
}

var PlanNames = map[string]string{
	PlanWebinarPrice: "Webinar Plan",
	PlanFullPrice:    "Full Price Plan",
	PlanWebinarTop:   "Webinar TOP",
	PlanFullTop:      "Full Price TOP",
}

func ValidStatus(status string) bool {
	switch status {
	case StatusPurchased, StatusConsidering, StatusPotential, StatusCancelled:
		return true
	}
	return false
}

type Client struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string     `gorm:"not null" json:"name"`
	Phone        string     `json:"phone"`
	Plan         string     `gorm:"not null" json:"plan"`
	Price        string     `gorm:"type:decimal(18,2);not null" json:"price"`
	Status       string     `gorm:"not null;default:'potential'" json:"status"`
	PurchaseDate *time.Time `json:"purchase_date,omitempty"`
	Notes        string     `gorm:"type:text" json:"notes"`
	AgentID      int64      `gorm:"index;not null" json:"agent_id"`
	CreatedAt    *time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    *time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c Client) PriceDecimal() decimal.Decimal {
	d, err := decimal.NewFromString(c.Price)
	if err != nil {
		return decimal.Zero
	}
	return d
}
