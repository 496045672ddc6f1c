package handler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"wesell-system/internal/bonus"
	"wesell-system/internal/database/models"
	notifyhandler "wesell-system/internal/services/notify/handler"
	saleshandler "wesell-system/internal/services/sales/handler"
)

var (
	ErrClientNotFound = errors.New("client not found")
	ErrUnknownPlan    = errors.New("unknown plan")
	ErrInvalidStatus  = errors.New("invalid client status")
	ErrNegativePrice  = errors.New("price must not be negative")
)

type CreateClientInput struct {
	Name         string
	Phone        string
	Plan         string
	Status       string
	PurchaseDate *time.Time
	Notes        string
}

type UpdateClientInput struct {
	Name         *string
	Phone        *string
	Price        *string
	Status       *string
	PurchaseDate *time.Time
	Notes        *string
}

type ClientHandler struct {
	db     *gorm.DB
	sales  *saleshandler.SalesHandler
	notify *notifyhandler.NotifyHandler
	log    *logrus.Logger
}

func NewClientHandler(db *gorm.DB, sales *saleshandler.SalesHandler, notify *notifyhandler.NotifyHandler, logger *logrus.Logger) *ClientHandler {
	return &ClientHandler{
		db:     db,
		sales:  sales,
		notify: notify,
		log:    logger,
	}
}

// CreateClient stores a new client record for an agent. The price is fixed
// from the plan-price table at creation; unknown plans are rejected. The team
// ledger sync and the sale notification are best-effort side effects.
func (h *ClientHandler) CreateClient(ctx context.Context, agentID, teamID int64, agentName string, input CreateClientInput) (models.Client, error) {
	price, ok := models.PlanPrices[input.Plan]
	if !ok {
		return models.Client{}, ErrUnknownPlan
	}

	status := input.Status
	if status == "" {
		status = models.StatusPotential
	}
	if !models.ValidStatus(status) {
		return models.Client{}, ErrInvalidStatus
	}

	purchaseDate := input.PurchaseDate
	if status == models.StatusPurchased && purchaseDate == nil {
		now := time.Now()
		purchaseDate = &now
	}

	client := models.Client{
		Name:         input.Name,
		Phone:        input.Phone,
		Plan:         input.Plan,
		Price:        price.StringFixed(2),
		Status:       status,
		PurchaseDate: purchaseDate,
		Notes:        input.Notes,
		AgentID:      agentID,
	}
	if err := h.db.WithContext(ctx).Create(&client).Error; err != nil {
		return models.Client{}, fmt.Errorf("create client: %w", err)
	}

	h.sales.ApplyClientMutation(teamID, agentID, bonus.MutationAdded, client, nil)

	if client.Status == models.StatusPurchased && teamID != 0 {
		if err := h.notify.SaleNotification(ctx, teamID, agentID, agentName, client.Name, client.Plan, price); err != nil {
			h.log.WithField("client_id", client.ID).Errorf("sale notification failed: %v", err)
		}
	}

	return client, nil
}

// GetClient loads one record.
func (h *ClientHandler) GetClient(ctx context.Context, id int64) (models.Client, error) {
	var client models.Client
	if err := h.db.WithContext(ctx).First(&client, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return models.Client{}, ErrClientNotFound
		}
		return models.Client{}, fmt.Errorf("load client: %w", err)
	}
	return client, nil
}

// ListClients returns one agent's records, optionally filtered by status.
func (h *ClientHandler) ListClients(ctx context.Context, agentID int64, status string) ([]models.Client, error) {
	query := h.db.WithContext(ctx).Where("agent_id = ?", agentID)
	if status != "" {
		if !models.ValidStatus(status) {
			return nil, ErrInvalidStatus
		}
		query = query.Where("status = ?", status)
	}

	var clients []models.Client
	if err := query.Order("created_at DESC").Find(&clients).Error; err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return clients, nil
}

// ListTeamClients returns every record owned by the given agents (manager view).
func (h *ClientHandler) ListTeamClients(ctx context.Context, agentIDs []int64) ([]models.Client, error) {
	if len(agentIDs) == 0 {
		return nil, nil
	}

	var clients []models.Client
	err := h.db.WithContext(ctx).
		Where("agent_id IN ?", agentIDs).
		Order("created_at DESC").
		Find(&clients).Error
	if err != nil {
		return nil, fmt.Errorf("list team clients: %w", err)
	}
	return clients, nil
}

// UpdateClient applies a partial update. Price and status edits flow through
// the delta reconciler; a transition into "purchased" emits a notification.
func (h *ClientHandler) UpdateClient(ctx context.Context, id, teamID int64, agentName string, input UpdateClientInput) (models.Client, error) {
	var client models.Client
	if err := h.db.WithContext(ctx).First(&client, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return models.Client{}, ErrClientNotFound
		}
		return models.Client{}, fmt.Errorf("load client: %w", err)
	}
	previous := client

	if input.Name != nil {
		client.Name = *input.Name
	}
	if input.Phone != nil {
		client.Phone = *input.Phone
	}
	if input.Price != nil {
		price, err := decimal.NewFromString(*input.Price)
		if err != nil {
			return models.Client{}, fmt.Errorf("%w: %q", ErrNegativePrice, *input.Price)
		}
		if price.IsNegative() {
			return models.Client{}, ErrNegativePrice
		}
		client.Price = price.StringFixed(2)
	}
	if input.Status != nil {
		if !models.ValidStatus(*input.Status) {
			return models.Client{}, ErrInvalidStatus
		}
		client.Status = *input.Status
	}
	if input.PurchaseDate != nil {
		client.PurchaseDate = input.PurchaseDate
	}
	if input.Notes != nil {
		client.Notes = *input.Notes
	}

	if client.Status == models.StatusPurchased && client.PurchaseDate == nil {
		now := time.Now()
		client.PurchaseDate = &now
	}

	if err := h.db.WithContext(ctx).Save(&client).Error; err != nil {
		return models.Client{}, fmt.Errorf("update client: %w", err)
	}

	h.sales.ApplyClientMutation(teamID, client.AgentID, bonus.MutationUpdated, client, &previous)

	if previous.Status != models.StatusPurchased && client.Status == models.StatusPurchased && teamID != 0 {
		if err := h.notify.SaleNotification(ctx, teamID, client.AgentID, agentName, client.Name, client.Plan, client.PriceDecimal()); err != nil {
			h.log.WithField("client_id", client.ID).Errorf("sale notification failed: %v", err)
		}
	}

	return client, nil
}

// DeleteClient removes a record and reverses its sale impact.
func (h *ClientHandler) DeleteClient(ctx context.Context, id, teamID int64) error {
	var client models.Client
	if err := h.db.WithContext(ctx).First(&client, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrClientNotFound
		}
		return fmt.Errorf("load client: %w", err)
	}

	if err := h.db.WithContext(ctx).Delete(&client).Error; err != nil {
		return fmt.Errorf("delete client: %w", err)
	}

	h.sales.ApplyClientMutation(teamID, client.AgentID, bonus.MutationRemoved, client, nil)
	return nil
}

// AgentMonthlyStats computes the month-scoped aggregate for one agent's
// records, including bonus-ladder position.
func (h *ClientHandler) AgentMonthlyStats(ctx context.Context, agentID int64) (bonus.MonthlyStats, error) {
	var clients []models.Client
	if err := h.db.WithContext(ctx).Where("agent_id = ?", agentID).Find(&clients).Error; err != nil {
		return bonus.MonthlyStats{}, fmt.Errorf("load clients: %w", err)
	}

	records := make([]bonus.ClientRecord, len(clients))
	for i, c := range clients {
		records[i] = bonus.ClientRecord{
			Price:     c.PriceDecimal(),
			Purchased: c.Status == models.StatusPurchased,
		}
		if c.PurchaseDate != nil {
			records[i].PurchaseDate = *c.PurchaseDate
		}
	}

	return bonus.CalculateMonthlyStats(records, time.Now())
}
