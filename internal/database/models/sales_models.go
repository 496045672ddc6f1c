package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AgentSales is one team-ledger entry: the lifetime running aggregate for one
// agent. The intended state is one row per (team, agent); duplicates can appear
// when a sync races a roster sweep and are repaired on demand, so no unique
// constraint is declared here.
type AgentSales struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	TeamID       int64      `gorm:"index;not null" json:"team_id"`
	AgentID      int64      `gorm:"index;not null" json:"agent_id"`
	Name         string     `gorm:"not null" json:"name"`
	Email        string     `json:"email"`
	Role         string     `gorm:"not null;default:'agent'" json:"role"`
	TotalSales   string     `gorm:"type:decimal(18,2);not null" json:"total_sales"`
	ClientCount  int32      `gorm:"not null" json:"client_count"`
	LastSaleDate *time.Time `json:"last_sale_date,omitempty"`
	Streak       int32      `gorm:"not null" json:"streak"`
	UpdatedAt    *time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (a AgentSales) TotalSalesDecimal() decimal.Decimal {
	d, err := decimal.NewFromString(a.TotalSales)
	if err != nil {
		return decimal.Zero
	}
	return d
}

const (
	NotificationSaleMade      = "sale_made"
	NotificationBonusAchieved = "bonus_achieved"
	NotificationMilestone     = "milestone"
	NotificationWarning       = "warning"
)

type StringArray []string

func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = []string{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to scan StringArray: %v", value)
	}
	return json.Unmarshal(bytes, a)
}

func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	return json.Marshal(a)
}

type Notification struct {
	ID         int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	TeamID     int64       `gorm:"index;not null" json:"team_id"`
	AgentID    int64       `gorm:"not null" json:"agent_id"`
	AgentName  string      `gorm:"not null" json:"agent_name"`
	Message    string      `gorm:"type:text;not null" json:"message"`
	Type       string      `gorm:"not null" json:"type"`
	ClientName string      `json:"client_name,omitempty"`
	SaleAmount string      `gorm:"type:decimal(18,2)" json:"sale_amount,omitempty"`
	PlanName   string      `json:"plan_name,omitempty"`
	ReadBy     StringArray `gorm:"type:text" json:"read_by"`
	CreatedAt  *time.Time  `gorm:"autoCreateTime" json:"created_at"`
}
