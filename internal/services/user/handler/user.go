package handler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"wesell-system/internal/bonus"
	"wesell-system/internal/database/models"
	saleshandler "wesell-system/internal/services/sales/handler"
	"wesell-system/internal/utils"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrTeamNotFound       = errors.New("team not found")
	ErrEmailTaken         = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

type UserHandler struct {
	db       *gorm.DB
	sales    *saleshandler.SalesHandler
	log      *logrus.Logger
	tokenTTL time.Duration
}

func NewUserHandler(db *gorm.DB, sales *saleshandler.SalesHandler, tokenTTL time.Duration, logger *logrus.Logger) *UserHandler {
	return &UserHandler{
		db:       db,
		sales:    sales,
		log:      logger,
		tokenTTL: tokenTTL,
	}
}

type AuthResult struct {
	User      models.User
	Token     string
	ExpiresAt time.Time
}

// --- Authentication & bootstrap ---

// SetupManager creates the initial manager account together with its team.
func (h *UserHandler) SetupManager(ctx context.Context, email, password, name, phone, teamName string) (AuthResult, error) {
	var existing models.User
	if err := h.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error; err == nil {
		return AuthResult{}, ErrEmailTaken
	} else if err != gorm.ErrRecordNotFound {
		return AuthResult{}, fmt.Errorf("check existing user: %w", err)
	}

	pwHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	if teamName == "" {
		teamName = "Sales Team"
	}

	var manager models.User
	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		manager = models.User{
			Email:    email,
			Password: string(pwHash),
			Name:     name,
			Phone:    phone,
			Role:     models.RoleManager,
		}
		if err := tx.Create(&manager).Error; err != nil {
			return err
		}

		team := models.Team{Name: teamName, ManagerID: manager.ID}
		if err := tx.Create(&team).Error; err != nil {
			return err
		}

		manager.TeamID = &team.ID
		return tx.Save(&manager).Error
	})
	if err != nil {
		return AuthResult{}, fmt.Errorf("create manager: %w", err)
	}

	if err := h.sales.InitializeMember(ctx, *manager.TeamID, manager); err != nil {
		h.log.WithField("user_id", manager.ID).Errorf("ledger init failed: %v", err)
	}

	token, exp, err := utils.GenerateToken(manager.ID, manager.Name, manager.Role, *manager.TeamID, h.tokenTTL)
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate token: %w", err)
	}

	h.log.WithFields(logrus.Fields{
		"user_id": manager.ID,
		"team_id": *manager.TeamID,
	}).Info("manager and team created")

	return AuthResult{User: manager, Token: token, ExpiresAt: exp}, nil
}

// Authenticate verifies credentials and issues a token carrying role and team.
func (h *UserHandler) Authenticate(ctx context.Context, email, password string) (AuthResult, error) {
	var user models.User
	if err := h.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, fmt.Errorf("load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return AuthResult{}, ErrInvalidCredentials
	}

	teamID := int64(0)
	if user.TeamID != nil {
		teamID = *user.TeamID
	}
	token, exp, err := utils.GenerateToken(user.ID, user.Name, user.Role, teamID, h.tokenTTL)
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate token: %w", err)
	}

	now := time.Now()
	user.LastLogin = &now
	h.db.WithContext(ctx).Save(&user)

	if teamID != 0 {
		if err := h.sales.SetOnline(ctx, teamID, user.ID, true); err != nil {
			h.log.WithField("user_id", user.ID).Warnf("presence update failed: %v", err)
		}
	}

	return AuthResult{User: user, Token: token, ExpiresAt: exp}, nil
}

// --- User management ---

// CreateAgent lets a manager add an agent to their team. The new agent is
// immediately seeded into the team ledger and live view.
func (h *UserHandler) CreateAgent(ctx context.Context, teamID int64, email, password, name, phone string) (models.User, error) {
	var existing models.User
	if err := h.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error; err == nil {
		return models.User{}, ErrEmailTaken
	} else if err != gorm.ErrRecordNotFound {
		return models.User{}, fmt.Errorf("check existing user: %w", err)
	}

	pwHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	agent := models.User{
		Email:    email,
		Password: string(pwHash),
		Name:     name,
		Phone:    phone,
		Role:     models.RoleAgent,
		TeamID:   &teamID,
	}
	if err := h.db.WithContext(ctx).Create(&agent).Error; err != nil {
		return models.User{}, fmt.Errorf("create agent: %w", err)
	}

	if err := h.sales.InitializeMember(ctx, teamID, agent); err != nil {
		h.log.WithField("user_id", agent.ID).Errorf("ledger init failed: %v", err)
	}

	return agent, nil
}

func (h *UserHandler) GetUser(ctx context.Context, id int64) (models.User, error) {
	var user models.User
	if err := h.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

type UpdateUserInput struct {
	Name  *string
	Phone *string
	Email *string
}

func (h *UserHandler) UpdateUser(ctx context.Context, id int64, input UpdateUserInput) (models.User, error) {
	var user models.User
	if err := h.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, fmt.Errorf("load user: %w", err)
	}

	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Phone != nil {
		user.Phone = *input.Phone
	}
	if input.Email != nil {
		user.Email = *input.Email
	}

	if err := h.db.WithContext(ctx).Save(&user).Error; err != nil {
		return models.User{}, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

// --- Team management ---

func (h *UserHandler) GetTeam(ctx context.Context, teamID int64) (models.Team, error) {
	var team models.Team
	if err := h.db.WithContext(ctx).First(&team, teamID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return models.Team{}, ErrTeamNotFound
		}
		return models.Team{}, fmt.Errorf("load team: %w", err)
	}
	return team, nil
}

// ListTeamMembers returns the roster, optionally filtered by role.
func (h *UserHandler) ListTeamMembers(ctx context.Context, teamID int64, role string) ([]models.User, error) {
	query := h.db.WithContext(ctx).Where("team_id = ?", teamID)
	if role != "" {
		query = query.Where("role = ?", role)
	}

	var members []models.User
	if err := query.Order("name ASC").Find(&members).Error; err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}
	return members, nil
}

// RemoveFromTeam detaches a member from the team and cascades the removal to
// the ledger and live view. The member's client records stay owned by them.
func (h *UserHandler) RemoveFromTeam(ctx context.Context, teamID, memberID int64) error {
	var user models.User
	if err := h.db.WithContext(ctx).First(&user, memberID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrUserNotFound
		}
		return fmt.Errorf("load user: %w", err)
	}
	if user.TeamID == nil || *user.TeamID != teamID {
		return ErrUserNotFound
	}

	user.TeamID = nil
	if err := h.db.WithContext(ctx).Save(&user).Error; err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	if err := h.sales.RemoveAgent(ctx, teamID, memberID); err != nil {
		h.log.WithField("user_id", memberID).Errorf("ledger cascade failed: %v", err)
	}
	return nil
}

// --- Team overview ---

type MemberStats struct {
	Member models.User        `json:"member"`
	Stats  bonus.MonthlyStats `json:"stats"`
}

type TeamOverview struct {
	TotalStats         bonus.MonthlyStats `json:"total_stats"`
	MemberStats        []MemberStats      `json:"member_stats"`
	TotalMembers       int                `json:"total_members"`
	TotalClients       int                `json:"total_clients"`
	ActiveMembersCount int                `json:"active_members_count"`
}

// GetTeamOverview assembles the manager dashboard: per-member monthly stats,
// team-wide totals, and the count of members with at least one sale this month.
func (h *UserHandler) GetTeamOverview(ctx context.Context, teamID int64) (TeamOverview, error) {
	members, err := h.ListTeamMembers(ctx, teamID, models.RoleAgent)
	if err != nil {
		return TeamOverview{}, err
	}

	memberIDs := make([]int64, len(members))
	for i, m := range members {
		memberIDs[i] = m.ID
	}

	var clients []models.Client
	if len(memberIDs) > 0 {
		if err := h.db.WithContext(ctx).Where("agent_id IN ?", memberIDs).Find(&clients).Error; err != nil {
			return TeamOverview{}, fmt.Errorf("load team clients: %w", err)
		}
	}

	now := time.Now()
	byAgent := make(map[int64][]bonus.ClientRecord)
	allRecords := make([]bonus.ClientRecord, 0, len(clients))
	for _, c := range clients {
		rec := bonus.ClientRecord{
			Price:     c.PriceDecimal(),
			Purchased: c.Status == models.StatusPurchased,
		}
		if c.PurchaseDate != nil {
			rec.PurchaseDate = *c.PurchaseDate
		}
		byAgent[c.AgentID] = append(byAgent[c.AgentID], rec)
		allRecords = append(allRecords, rec)
	}

	totalStats, err := bonus.CalculateMonthlyStats(allRecords, now)
	if err != nil {
		return TeamOverview{}, fmt.Errorf("team stats: %w", err)
	}

	overview := TeamOverview{
		TotalStats:   totalStats,
		TotalMembers: len(members),
		TotalClients: len(clients),
	}
	for _, member := range members {
		stats, err := bonus.CalculateMonthlyStats(byAgent[member.ID], now)
		if err != nil {
			return TeamOverview{}, fmt.Errorf("member stats: %w", err)
		}
		overview.MemberStats = append(overview.MemberStats, MemberStats{Member: member, Stats: stats})
		if stats.TotalSales.IsPositive() {
			overview.ActiveMembersCount++
		}
	}

	return overview, nil
}
