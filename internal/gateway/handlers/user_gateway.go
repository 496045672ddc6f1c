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
	userhandler "wesell-system/internal/services/user/handler"
)

type UserHTTPHandler struct {
	users *userhandler.UserHandler
}

func NewUserHTTPHandler(users *userhandler.UserHandler) *UserHTTPHandler {
	return &UserHTTPHandler{
		users: users,
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type SetupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone,omitempty"`
	TeamName string `json:"team_name,omitempty"`
}

type CreateAgentRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone,omitempty"`
}

type UpdateUserRequest struct {
	Name  *string `json:"name,omitempty"`
	Phone *string `json:"phone,omitempty"`
	Email *string `json:"email,omitempty"`
}

// --- Authentication ---

func (h *UserHTTPHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := h.users.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, userhandler.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, errorResponse("Invalid email or password"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("Authentication service error"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Login successful", map[string]interface{}{
		"token":      result.Token,
		"expires_at": result.ExpiresAt,
		"user":       result.User,
	}))
}

// Setup bootstraps the first manager account and its team.
func (h *UserHTTPHandler) Setup(c *gin.Context) {
	var req SetupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := h.users.SetupManager(ctx, req.Email, req.Password, req.Name, req.Phone, req.TeamName)
	if err != nil {
		if errors.Is(err, userhandler.ErrEmailTaken) {
			c.JSON(http.StatusConflict, errorResponse("Email already registered"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("User service error"))
		return
	}

	c.JSON(http.StatusCreated, successResponse("Manager account created", map[string]interface{}{
		"token":      result.Token,
		"expires_at": result.ExpiresAt,
		"user":       result.User,
	}))
}

// --- User Management ---

func (h *UserHTTPHandler) CreateAgent(c *gin.Context) {
	var req CreateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	teamID := c.GetInt64(middleware.ContextTeamID)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	agent, err := h.users.CreateAgent(ctx, teamID, req.Email, req.Password, req.Name, req.Phone)
	if err != nil {
		if errors.Is(err, userhandler.ErrEmailTaken) {
			c.JSON(http.StatusConflict, errorResponse("Email already registered"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("User service error"))
		return
	}

	c.JSON(http.StatusCreated, successResponse("Agent created successfully", agent))
}

func (h *UserHTTPHandler) GetUser(c *gin.Context) {
	idParam := c.Param("id")
	userID, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid user ID"))
		return
	}

	callerID := c.GetInt64(middleware.ContextUserID)
	callerRole := c.GetString(middleware.ContextUserRole)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	user, err := h.users.GetUser(ctx, userID)
	if err != nil {
		c.JSON(http.StatusNotFound, errorResponse("User not found"))
		return
	}

	if callerID != userID && callerRole != models.RoleManager {
		c.JSON(http.StatusForbidden, errorResponse("Access denied"))
		return
	}

	c.JSON(http.StatusOK, successResponse("User retrieved successfully", user))
}

func (h *UserHTTPHandler) UpdateUser(c *gin.Context) {
	idParam := c.Param("id")
	userID, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid user ID"))
		return
	}

	callerID := c.GetInt64(middleware.ContextUserID)
	callerRole := c.GetString(middleware.ContextUserRole)
	if callerID != userID && callerRole != models.RoleManager {
		c.JSON(http.StatusForbidden, errorResponse("Access denied"))
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := h.users.UpdateUser(ctx, userID, userhandler.UpdateUserInput{
		Name:  req.Name,
		Phone: req.Phone,
		Email: req.Email,
	})
	if err != nil {
		if errors.Is(err, userhandler.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, errorResponse("User not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("User service error"))
		return
	}

	c.JSON(http.StatusOK, successResponse("User updated successfully", user))
}
