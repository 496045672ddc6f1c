package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"wesell-system/internal/database/models"
	"wesell-system/internal/gateway/middleware"
	clienthandler "wesell-system/internal/services/clients/handler"
	userhandler "wesell-system/internal/services/user/handler"
)

type ClientHTTPHandler struct {
	clients *clienthandler.ClientHandler
	users   *userhandler.UserHandler
}

func NewClientHTTPHandler(clients *clienthandler.ClientHandler, users *userhandler.UserHandler) *ClientHTTPHandler {
	return &ClientHTTPHandler{
		clients: clients,
		users:   users,
	}
}

type CreateClientRequest struct {
	Name         string  `json:"name" binding:"required"`
	Phone        string  `json:"phone,omitempty"`
	Plan         string  `json:"plan" binding:"required"`
	Status       *string `json:"status,omitempty"`
	PurchaseDate *string `json:"purchase_date,omitempty"`
	Notes        string  `json:"notes,omitempty"`
}

type UpdateClientRequest struct {
	Name         *string `json:"name,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	Price        *string `json:"price,omitempty"`
	Status       *string `json:"status,omitempty"`
	PurchaseDate *string `json:"purchase_date,omitempty"`
	Notes        *string `json:"notes,omitempty"`
}

type ListClientsQuery struct {
	Status string `form:"status,omitempty"`
}

func parseDate(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// canAccessClient allows agents their own records and managers any record
// owned by their team.
func (h *ClientHTTPHandler) canAccessClient(ctx context.Context, c *gin.Context, client models.Client) bool {
	callerID := c.GetInt64(middleware.ContextUserID)
	if client.AgentID == callerID {
		return true
	}
	if c.GetString(middleware.ContextUserRole) != models.RoleManager {
		return false
	}

	owner, err := h.users.GetUser(ctx, client.AgentID)
	if err != nil {
		return false
	}
	teamID := c.GetInt64(middleware.ContextTeamID)
	return owner.TeamID != nil && *owner.TeamID == teamID
}

// --- Client Records ---

func (h *ClientHTTPHandler) CreateClient(c *gin.Context) {
	var req CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	purchaseDate, err := parseDate(req.PurchaseDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid purchase date"))
		return
	}

	status := ""
	if req.Status != nil {
		status = *req.Status
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := h.clients.CreateClient(ctx,
		c.GetInt64(middleware.ContextUserID),
		c.GetInt64(middleware.ContextTeamID),
		c.GetString(middleware.ContextUserName),
		clienthandler.CreateClientInput{
			Name:         req.Name,
			Phone:        req.Phone,
			Plan:         req.Plan,
			Status:       status,
			PurchaseDate: purchaseDate,
			Notes:        req.Notes,
		})
	if err != nil {
		switch {
		case errors.Is(err, clienthandler.ErrUnknownPlan):
			c.JSON(http.StatusBadRequest, errorResponse("Unknown plan"))
		case errors.Is(err, clienthandler.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, errorResponse("Invalid client status"))
		default:
			c.JSON(http.StatusInternalServerError, errorResponse("Client service error"))
		}
		return
	}

	c.JSON(http.StatusCreated, successResponse("Client created successfully", client))
}

func (h *ClientHTTPHandler) GetClient(c *gin.Context) {
	clientID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid client ID"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := h.clients.GetClient(ctx, clientID)
	if err != nil {
		c.JSON(http.StatusNotFound, errorResponse("Client not found"))
		return
	}

	if !h.canAccessClient(ctx, c, client) {
		c.JSON(http.StatusForbidden, errorResponse("Access denied"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Client retrieved successfully", client))
}

// ListClients returns the caller's own records. Managers get every record
// owned by their team roster.
func (h *ClientHTTPHandler) ListClients(c *gin.Context) {
	var query ListClientsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid query parameters"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if c.GetString(middleware.ContextUserRole) == models.RoleManager {
		members, err := h.users.ListTeamMembers(ctx, c.GetInt64(middleware.ContextTeamID), "")
		if err != nil {
			c.JSON(http.StatusInternalServerError, errorResponse("User service error"))
			return
		}
		agentIDs := make([]int64, len(members))
		for i, m := range members {
			agentIDs[i] = m.ID
		}
		clients, err := h.clients.ListTeamClients(ctx, agentIDs)
		if err != nil {
			c.JSON(http.StatusInternalServerError, errorResponse("Client service error"))
			return
		}
		c.JSON(http.StatusOK, successWithMetaResponse("Clients retrieved successfully", clients, map[string]interface{}{
			"total": len(clients),
		}))
		return
	}

	clients, err := h.clients.ListClients(ctx, c.GetInt64(middleware.ContextUserID), query.Status)
	if err != nil {
		if errors.Is(err, clienthandler.ErrInvalidStatus) {
			c.JSON(http.StatusBadRequest, errorResponse("Invalid client status"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("Client service error"))
		return
	}

	c.JSON(http.StatusOK, successWithMetaResponse("Clients retrieved successfully", clients, map[string]interface{}{
		"total": len(clients),
	}))
}

func (h *ClientHTTPHandler) UpdateClient(c *gin.Context) {
	clientID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid client ID"))
		return
	}

	var req UpdateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	purchaseDate, err := parseDate(req.PurchaseDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid purchase date"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	existing, err := h.clients.GetClient(ctx, clientID)
	if err != nil {
		c.JSON(http.StatusNotFound, errorResponse("Client not found"))
		return
	}
	if !h.canAccessClient(ctx, c, existing) {
		c.JSON(http.StatusForbidden, errorResponse("Access denied"))
		return
	}

	client, err := h.clients.UpdateClient(ctx, clientID,
		c.GetInt64(middleware.ContextTeamID),
		c.GetString(middleware.ContextUserName),
		clienthandler.UpdateClientInput{
			Name:         req.Name,
			Phone:        req.Phone,
			Price:        req.Price,
			Status:       req.Status,
			PurchaseDate: purchaseDate,
			Notes:        req.Notes,
		})
	if err != nil {
		switch {
		case errors.Is(err, clienthandler.ErrClientNotFound):
			c.JSON(http.StatusNotFound, errorResponse("Client not found"))
		case errors.Is(err, clienthandler.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, errorResponse("Invalid client status"))
		case errors.Is(err, clienthandler.ErrNegativePrice):
			c.JSON(http.StatusBadRequest, errorResponse("Invalid price"))
		default:
			c.JSON(http.StatusInternalServerError, errorResponse("Client service error"))
		}
		return
	}

	c.JSON(http.StatusOK, successResponse("Client updated successfully", client))
}

func (h *ClientHTTPHandler) DeleteClient(c *gin.Context) {
	clientID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid client ID"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	existing, err := h.clients.GetClient(ctx, clientID)
	if err != nil {
		c.JSON(http.StatusNotFound, errorResponse("Client not found"))
		return
	}
	if !h.canAccessClient(ctx, c, existing) {
		c.JSON(http.StatusForbidden, errorResponse("Access denied"))
		return
	}

	if err := h.clients.DeleteClient(ctx, clientID, c.GetInt64(middleware.ContextTeamID)); err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Client service error"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Client deleted successfully", nil))
}

// --- Monthly Stats ---

// MonthlyStats reports the caller's current-month totals and bonus progress.
func (h *ClientHTTPHandler) MonthlyStats(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stats, err := h.clients.AgentMonthlyStats(ctx, c.GetInt64(middleware.ContextUserID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Client service error"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Monthly stats retrieved successfully", stats))
}
