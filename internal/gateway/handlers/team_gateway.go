package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"wesell-system/internal/gateway/middleware"
	saleshandler "wesell-system/internal/services/sales/handler"
	userhandler "wesell-system/internal/services/user/handler"
)

type TeamHTTPHandler struct {
	users *userhandler.UserHandler
	sales *saleshandler.SalesHandler
}

func NewTeamHTTPHandler(users *userhandler.UserHandler, sales *saleshandler.SalesHandler) *TeamHTTPHandler {
	return &TeamHTTPHandler{
		users: users,
		sales: sales,
	}
}

type ListMembersQuery struct {
	Role string `form:"role,omitempty"`
}

type TopPerformersQuery struct {
	Limit int `form:"limit,default=3"`
}

type PresenceRequest struct {
	Online bool `json:"online"`
}

// --- Roster ---

func (h *TeamHTTPHandler) GetTeam(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	team, err := h.users.GetTeam(ctx, c.GetInt64(middleware.ContextTeamID))
	if err != nil {
		c.JSON(http.StatusNotFound, errorResponse("Team not found"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Team retrieved successfully", team))
}

func (h *TeamHTTPHandler) ListMembers(c *gin.Context) {
	var query ListMembersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid query parameters"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	members, err := h.users.ListTeamMembers(ctx, c.GetInt64(middleware.ContextTeamID), query.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("User service error"))
		return
	}

	c.JSON(http.StatusOK, successWithMetaResponse("Members retrieved successfully", members, map[string]interface{}{
		"total": len(members),
	}))
}

func (h *TeamHTTPHandler) RemoveMember(c *gin.Context) {
	memberID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid member ID"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := h.users.RemoveFromTeam(ctx, c.GetInt64(middleware.ContextTeamID), memberID); err != nil {
		if errors.Is(err, userhandler.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, errorResponse("Member not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("User service error"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Member removed successfully", nil))
}

// --- Overview & Leaderboard ---

func (h *TeamHTTPHandler) Overview(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	overview, err := h.users.GetTeamOverview(ctx, c.GetInt64(middleware.ContextTeamID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("User service error"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Team overview retrieved successfully", overview))
}

func (h *TeamHTTPHandler) Leaderboard(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	board, err := h.sales.TeamLeaderboard(ctx, c.GetInt64(middleware.ContextTeamID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Sales service error"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Leaderboard retrieved successfully", board))
}

func (h *TeamHTTPHandler) TopPerformers(c *gin.Context) {
	var query TopPerformersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid query parameters"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	performers, err := h.sales.TopPerformers(ctx, c.GetInt64(middleware.ContextTeamID), query.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Sales service error"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Top performers retrieved successfully", performers))
}

// --- Ledger Maintenance ---

// InitializeSales seeds ledger entries for every roster member that has none.
func (h *TeamHTTPHandler) InitializeSales(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	created, err := h.sales.InitializeTeamSales(ctx, c.GetInt64(middleware.ContextTeamID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Sales service error"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Team sales initialized", map[string]interface{}{
		"created": created,
	}))
}

// CleanupDuplicates collapses duplicate ledger entries per agent, keeping the
// entry with the highest recorded sales.
func (h *TeamHTTPHandler) CleanupDuplicates(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	removed, err := h.sales.CleanupDuplicates(ctx, c.GetInt64(middleware.ContextTeamID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Sales service error"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Duplicate cleanup complete", map[string]interface{}{
		"removed": removed,
	}))
}

// SyncMember recomputes a member's ledger entry from their client records.
func (h *TeamHTTPHandler) SyncMember(c *gin.Context) {
	memberID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid member ID"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := h.sales.SyncAgentSales(ctx, memberID); err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Sales service error"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Member sales synced", nil))
}

// --- Presence ---

func (h *TeamHTTPHandler) SetPresence(c *gin.Context) {
	var req PresenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := h.sales.SetOnline(ctx,
		c.GetInt64(middleware.ContextTeamID),
		c.GetInt64(middleware.ContextUserID),
		req.Online)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Sales service error"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Presence updated", nil))
}
