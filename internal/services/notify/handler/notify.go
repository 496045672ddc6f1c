package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"wesell-system/internal/database/models"
)

const (
	EVENT_CHANNEL_PREFIX = "wesell:events:"
	EVENT_CHANNEL_ALL    = "wesell:events:all"
)

// TeamEvent is the broadcast payload published alongside every persisted
// notification.
type TeamEvent struct {
	EventType  string    `json:"event_type"`
	TeamID     int64     `json:"team_id"`
	AgentID    int64     `json:"agent_id"`
	AgentName  string    `json:"agent_name"`
	Message    string    `json:"message"`
	ClientName string    `json:"client_name,omitempty"`
	SaleAmount string    `json:"sale_amount,omitempty"`
	PlanName   string    `json:"plan_name,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// --- Message templates ---

func BuildSaleMessage(clientName, planName string, amount decimal.Decimal) string {
	return fmt.Sprintf("New sale! %s purchased %s for %s", clientName, planName, amount.StringFixed(0))
}

func BuildBonusMessage(agentName, tierName string, amount decimal.Decimal) string {
	return fmt.Sprintf("%s reached the %s bonus tier and earned %s!", agentName, tierName, amount.StringFixed(0))
}

func BuildMilestoneMessage(agentName, milestone string) string {
	return fmt.Sprintf("%s hit a milestone: %s", agentName, milestone)
}

// --- Handler ---

type NotifyHandler struct {
	db    *gorm.DB
	redis *redis.Client
	log   *logrus.Logger
}

func NewNotifyHandler(db *gorm.DB, redisClient *redis.Client, logger *logrus.Logger) *NotifyHandler {
	return &NotifyHandler{
		db:    db,
		redis: redisClient,
		log:   logger,
	}
}

// SaleNotification records one team-wide notification for a new purchase and
// broadcasts it.
func (h *NotifyHandler) SaleNotification(ctx context.Context, teamID, agentID int64, agentName, clientName, planCode string, amount decimal.Decimal) error {
	if teamID == 0 {
		return nil
	}

	planName, ok := models.PlanNames[planCode]
	if !ok {
		planName = planCode
	}

	notification := models.Notification{
		TeamID:     teamID,
		AgentID:    agentID,
		AgentName:  agentName,
		Message:    BuildSaleMessage(clientName, planName, amount),
		Type:       models.NotificationSaleMade,
		ClientName: clientName,
		SaleAmount: amount.StringFixed(2),
		PlanName:   planName,
		ReadBy:     models.StringArray{},
	}
	if err := h.db.WithContext(ctx).Create(&notification).Error; err != nil {
		return fmt.Errorf("create sale notification: %w", err)
	}

	h.publishEvent(ctx, TeamEvent{
		EventType:  models.NotificationSaleMade,
		TeamID:     teamID,
		AgentID:    agentID,
		AgentName:  agentName,
		Message:    notification.Message,
		ClientName: clientName,
		SaleAmount: notification.SaleAmount,
		PlanName:   planName,
		Timestamp:  time.Now(),
	})
	return nil
}

// BonusNotification announces a bonus-tier achievement to the team.
func (h *NotifyHandler) BonusNotification(ctx context.Context, teamID, agentID int64, agentName, tierName string, amount decimal.Decimal) error {
	if teamID == 0 {
		return nil
	}

	notification := models.Notification{
		TeamID:    teamID,
		AgentID:   agentID,
		AgentName: agentName,
		Message:   BuildBonusMessage(agentName, tierName, amount),
		Type:      models.NotificationBonusAchieved,
		ReadBy:    models.StringArray{},
	}
	if err := h.db.WithContext(ctx).Create(&notification).Error; err != nil {
		return fmt.Errorf("create bonus notification: %w", err)
	}

	h.publishEvent(ctx, TeamEvent{
		EventType: models.NotificationBonusAchieved,
		TeamID:    teamID,
		AgentID:   agentID,
		AgentName: agentName,
		Message:   notification.Message,
		Timestamp: time.Now(),
	})
	return nil
}

// MilestoneNotification records a free-form milestone for an agent.
func (h *NotifyHandler) MilestoneNotification(ctx context.Context, teamID, agentID int64, agentName, milestone string) error {
	if teamID == 0 {
		return nil
	}

	notification := models.Notification{
		TeamID:    teamID,
		AgentID:   agentID,
		AgentName: agentName,
		Message:   BuildMilestoneMessage(agentName, milestone),
		Type:      models.NotificationMilestone,
		ReadBy:    models.StringArray{},
	}
	if err := h.db.WithContext(ctx).Create(&notification).Error; err != nil {
		return fmt.Errorf("create milestone notification: %w", err)
	}

	h.publishEvent(ctx, TeamEvent{
		EventType: models.NotificationMilestone,
		TeamID:    teamID,
		AgentID:   agentID,
		AgentName: agentName,
		Message:   notification.Message,
		Timestamp: time.Now(),
	})
	return nil
}

// ListTeamNotifications returns a team's notifications, newest first.
func (h *NotifyHandler) ListTeamNotifications(ctx context.Context, teamID int64, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 50
	}

	var notifications []models.Notification
	err := h.db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// MarkRead records that a user has seen a notification.
func (h *NotifyHandler) MarkRead(ctx context.Context, notificationID, userID int64) error {
	var notification models.Notification
	if err := h.db.WithContext(ctx).First(&notification, notificationID).Error; err != nil {
		return fmt.Errorf("load notification: %w", err)
	}

	reader := strconv.FormatInt(userID, 10)
	for _, id := range notification.ReadBy {
		if id == reader {
			return nil
		}
	}
	notification.ReadBy = append(notification.ReadBy, reader)

	if err := h.db.WithContext(ctx).Save(&notification).Error; err != nil {
		return fmt.Errorf("save notification: %w", err)
	}
	return nil
}

// Broadcast failures are logged and swallowed: the persisted notification is
// authoritative, the channel is best-effort.
func (h *NotifyHandler) publishEvent(ctx context.Context, event TeamEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.log.Errorf("marshal team event: %v", err)
		return
	}

	channel := EVENT_CHANNEL_PREFIX + event.EventType
	if err := h.redis.Publish(ctx, channel, payload).Err(); err != nil {
		h.log.WithField("channel", channel).Errorf("publish team event: %v", err)
	}
	if err := h.redis.Publish(ctx, EVENT_CHANNEL_ALL, payload).Err(); err != nil {
		h.log.WithField("channel", EVENT_CHANNEL_ALL).Errorf("publish team event: %v", err)
	}
}
