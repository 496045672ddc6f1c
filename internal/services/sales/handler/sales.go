package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"wesell-system/internal/bonus"
	"wesell-system/internal/database/models"
)

const (
	TEAM_LIVE_KEY_PREFIX = "team:live:"
)

// LiveMember is the reduced performance view mirrored to the live store for
// real-time leaderboard consumption.
type LiveMember struct {
	Name         string `json:"name"`
	Role         string `json:"role"`
	TotalSales   string `json:"total_sales"`
	ClientCount  int    `json:"client_count"`
	LastSaleTime int64  `json:"last_sale_time"`
	LastActive   int64  `json:"last_active"`
	IsOnline     bool   `json:"is_online"`
}

// --- Handler ---

type SalesHandler struct {
	db    *gorm.DB
	redis *redis.Client
	sched *SyncScheduler
	log   *logrus.Logger

	initializing int32
	cleaning     int32
}

func NewSalesHandler(db *gorm.DB, redisClient *redis.Client, debounceWindow time.Duration, logger *logrus.Logger) *SalesHandler {
	return &SalesHandler{
		db:    db,
		redis: redisClient,
		sched: NewSyncScheduler(debounceWindow),
		log:   logger,
	}
}

func (s *SalesHandler) Close() {
	s.sched.Close()
}

func liveKey(teamID int64) string {
	return fmt.Sprintf("%s%d", TEAM_LIVE_KEY_PREFIX, teamID)
}

func clientToRecord(c models.Client) bonus.ClientRecord {
	rec := bonus.ClientRecord{
		Price:     c.PriceDecimal(),
		Purchased: c.Status == models.StatusPurchased,
	}
	if c.PurchaseDate != nil {
		rec.PurchaseDate = *c.PurchaseDate
	}
	return rec
}

// --- Incremental reconciliation ---

// ApplyClientMutation feeds one client-record change into the team ledger.
// The write is debounced per agent (last mutation in the window wins) and is
// best-effort: persistence failures are logged, never returned, because the
// client record itself is already committed.
func (s *SalesHandler) ApplyClientMutation(teamID, agentID int64, kind bonus.Mutation, rec models.Client, prev *models.Client) {
	if teamID == 0 || agentID == 0 {
		return
	}

	var prevRec *bonus.ClientRecord
	if prev != nil {
		converted := clientToRecord(*prev)
		prevRec = &converted
	}
	delta := bonus.SaleImpact(kind, clientToRecord(rec), prevRec)
	if delta.IsZero() {
		s.log.WithFields(logrus.Fields{
			"agent_id": agentID,
			"mutation": kind,
		}).Debug("no sales impact for client change")
		return
	}

	saleDate := time.Now()
	if rec.Status == models.StatusPurchased && rec.PurchaseDate != nil {
		saleDate = *rec.PurchaseDate
	}

	s.sched.Schedule(agentID, func() {
		s.flushDelta(context.Background(), teamID, agentID, delta, saleDate)
	})
}

// flushDelta re-reads the latest persisted aggregate, folds the delta in, and
// writes it back. The read and write are two separate steps with no
// transactional guard; concurrent writers to the same aggregate can lose an
// update (documented limitation, kept as-is).
func (s *SalesHandler) flushDelta(ctx context.Context, teamID, agentID int64, delta bonus.Delta, saleDate time.Time) {
	var entry models.AgentSales
	err := s.db.WithContext(ctx).
		Where("team_id = ? AND agent_id = ?", teamID, agentID).
		First(&entry).Error
	if err == gorm.ErrRecordNotFound {
		created, createErr := s.createLedgerEntry(ctx, teamID, agentID)
		if createErr != nil {
			s.logSyncError(agentID, "create ledger entry", createErr)
			return
		}
		entry = created
	} else if err != nil {
		s.logSyncError(agentID, "read ledger entry", err)
		return
	}

	newSales, newCount := bonus.ApplyDelta(entry.TotalSalesDecimal(), int(entry.ClientCount), delta)
	entry.TotalSales = newSales.StringFixed(2)
	entry.ClientCount = int32(newCount)
	entry.LastSaleDate = &saleDate

	if err := s.db.WithContext(ctx).Save(&entry).Error; err != nil {
		s.logSyncError(agentID, "write ledger entry", err)
		return
	}

	s.mirrorLive(ctx, teamID, agentID, LiveMember{
		Name:         entry.Name,
		Role:         entry.Role,
		TotalSales:   entry.TotalSales,
		ClientCount:  newCount,
		LastSaleTime: saleDate.UnixMilli(),
		LastActive:   time.Now().UnixMilli(),
		IsOnline:     true,
	})

	s.log.WithFields(logrus.Fields{
		"agent_id":     agentID,
		"sales_delta":  delta.Sales.StringFixed(2),
		"count_delta":  delta.Count,
		"total_sales":  entry.TotalSales,
		"client_count": newCount,
	}).Info("ledger updated for client change")
}

func (s *SalesHandler) createLedgerEntry(ctx context.Context, teamID, agentID int64) (models.AgentSales, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, agentID).Error; err != nil {
		return models.AgentSales{}, err
	}

	entry := models.AgentSales{
		TeamID:      teamID,
		AgentID:     agentID,
		Name:        user.Name,
		Email:       user.Email,
		Role:        user.Role,
		TotalSales:  "0.00",
		ClientCount: 0,
		Streak:      0,
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return models.AgentSales{}, err
	}
	return entry, nil
}

// --- Full resync ---

// SyncAgentSales recomputes an agent's monthly aggregate from their full
// client set and overwrites the ledger entry plus the live view. Unlike the
// incremental path this one is month-scoped, matching the monthly stats view.
func (s *SalesHandler) SyncAgentSales(ctx context.Context, agentID int64) error {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, agentID).Error; err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if user.Role != models.RoleAgent && user.Role != models.RoleManager {
		return nil
	}
	if user.TeamID == nil {
		return nil
	}
	teamID := *user.TeamID

	var clients []models.Client
	if err := s.db.WithContext(ctx).Where("agent_id = ?", agentID).Find(&clients).Error; err != nil {
		return fmt.Errorf("load clients: %w", err)
	}

	records := make([]bonus.ClientRecord, len(clients))
	purchaseDates := make([]time.Time, 0, len(clients))
	var lastSale *time.Time
	for i, c := range clients {
		records[i] = clientToRecord(c)
		if c.Status == models.StatusPurchased && c.PurchaseDate != nil {
			purchaseDates = append(purchaseDates, *c.PurchaseDate)
			if lastSale == nil || c.PurchaseDate.After(*lastSale) {
				lastSale = c.PurchaseDate
			}
		}
	}

	now := time.Now()
	stats, err := bonus.CalculateMonthlyStats(records, now)
	if err != nil {
		return fmt.Errorf("calculate stats: %w", err)
	}
	streak := bonus.ComputeStreak(purchaseDates, now)

	var entry models.AgentSales
	err = s.db.WithContext(ctx).
		Where("team_id = ? AND agent_id = ?", teamID, agentID).
		First(&entry).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return fmt.Errorf("read ledger entry: %w", err)
	}

	entry.TeamID = teamID
	entry.AgentID = agentID
	entry.Name = user.Name
	entry.Email = user.Email
	entry.Role = user.Role
	entry.TotalSales = stats.TotalSales.StringFixed(2)
	entry.ClientCount = int32(stats.ClientCount)
	entry.LastSaleDate = lastSale
	entry.Streak = int32(streak)

	if err := s.db.WithContext(ctx).Save(&entry).Error; err != nil {
		return fmt.Errorf("write ledger entry: %w", err)
	}

	lastSaleTime := int64(0)
	if lastSale != nil {
		lastSaleTime = lastSale.UnixMilli()
	}
	s.mirrorLive(ctx, teamID, agentID, LiveMember{
		Name:         user.Name,
		Role:         user.Role,
		TotalSales:   entry.TotalSales,
		ClientCount:  stats.ClientCount,
		LastSaleTime: lastSaleTime,
		LastActive:   now.UnixMilli(),
		IsOnline:     true,
	})

	return nil
}

// --- Team initialization sweep ---

// InitializeTeamSales creates missing ledger rows and live entries for every
// agent and manager on the roster. Concurrent invocations are dropped.
func (s *SalesHandler) InitializeTeamSales(ctx context.Context, teamID int64) (int, error) {
	if !atomic.CompareAndSwapInt32(&s.initializing, 0, 1) {
		return 0, nil
	}
	defer atomic.StoreInt32(&s.initializing, 0)

	var members []models.User
	err := s.db.WithContext(ctx).
		Where("team_id = ? AND role IN ?", teamID, []string{models.RoleAgent, models.RoleManager}).
		Find(&members).Error
	if err != nil {
		return 0, fmt.Errorf("load roster: %w", err)
	}

	created := 0
	for _, member := range members {
		var count int64
		err := s.db.WithContext(ctx).Model(&models.AgentSales{}).
			Where("team_id = ? AND agent_id = ?", teamID, member.ID).
			Count(&count).Error
		if err != nil {
			return created, fmt.Errorf("check ledger entry: %w", err)
		}
		if count > 0 {
			continue
		}

		if err := s.InitializeMember(ctx, teamID, member); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// InitializeMember creates a zeroed ledger row and live entry for one member.
func (s *SalesHandler) InitializeMember(ctx context.Context, teamID int64, member models.User) error {
	entry := models.AgentSales{
		TeamID:      teamID,
		AgentID:     member.ID,
		Name:        member.Name,
		Email:       member.Email,
		Role:        member.Role,
		TotalSales:  "0.00",
		ClientCount: 0,
		Streak:      0,
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("create ledger entry: %w", err)
	}

	s.mirrorLive(ctx, teamID, member.ID, LiveMember{
		Name:         member.Name,
		Role:         member.Role,
		TotalSales:   "0.00",
		ClientCount:  0,
		LastSaleTime: 0,
		LastActive:   time.Now().UnixMilli(),
		IsOnline:     false,
	})

	s.log.WithFields(logrus.Fields{
		"team_id":  teamID,
		"agent_id": member.ID,
		"role":     member.Role,
	}).Info("initialized team member in sales ledger")
	return nil
}

// --- Duplicate repair ---

// CleanupDuplicates collapses duplicate per-agent ledger rows, keeping the
// highest-sales / most recent entry. On-demand repair, idempotent.
func (s *SalesHandler) CleanupDuplicates(ctx context.Context, teamID int64) (int, error) {
	if !atomic.CompareAndSwapInt32(&s.cleaning, 0, 1) {
		return 0, nil
	}
	defer atomic.StoreInt32(&s.cleaning, 0)

	var rows []models.AgentSales
	if err := s.db.WithContext(ctx).Where("team_id = ?", teamID).Find(&rows).Error; err != nil {
		return 0, fmt.Errorf("load ledger: %w", err)
	}

	entries := make([]bonus.LedgerEntry, len(rows))
	for i, row := range rows {
		entries[i] = bonus.LedgerEntry{
			EntryID:     row.ID,
			AgentID:     row.AgentID,
			Name:        row.Name,
			TotalSales:  row.TotalSalesDecimal(),
			ClientCount: int(row.ClientCount),
		}
		if row.UpdatedAt != nil {
			entries[i].UpdatedAt = *row.UpdatedAt
		}
	}

	result := bonus.ReconcileDuplicates(entries)
	if len(result.Remove) == 0 {
		return 0, nil
	}

	if err := s.db.WithContext(ctx).Delete(&models.AgentSales{}, result.Remove).Error; err != nil {
		return 0, fmt.Errorf("delete duplicates: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"team_id": teamID,
		"removed": len(result.Remove),
	}).Info("removed duplicate ledger entries")
	return len(result.Remove), nil
}

// --- Member removal ---

// RemoveAgent cascades a member's removal from the team into the ledger and
// the live store.
func (s *SalesHandler) RemoveAgent(ctx context.Context, teamID, agentID int64) error {
	s.sched.Cancel(agentID)

	err := s.db.WithContext(ctx).
		Where("team_id = ? AND agent_id = ?", teamID, agentID).
		Delete(&models.AgentSales{}).Error
	if err != nil {
		return fmt.Errorf("delete ledger entry: %w", err)
	}

	if err := s.redis.HDel(ctx, liveKey(teamID), fmt.Sprintf("%d", agentID)).Err(); err != nil {
		s.logSyncError(agentID, "delete live entry", err)
	}
	return nil
}

// --- Live view ---

func (s *SalesHandler) mirrorLive(ctx context.Context, teamID, agentID int64, member LiveMember) {
	payload, err := json.Marshal(member)
	if err != nil {
		s.logSyncError(agentID, "marshal live entry", err)
		return
	}
	if err := s.redis.HSet(ctx, liveKey(teamID), fmt.Sprintf("%d", agentID), payload).Err(); err != nil {
		s.logSyncError(agentID, "write live entry", err)
	}
}

// SetOnline flips a member's presence marker in the live store.
func (s *SalesHandler) SetOnline(ctx context.Context, teamID, agentID int64, online bool) error {
	field := fmt.Sprintf("%d", agentID)
	raw, err := s.redis.HGet(ctx, liveKey(teamID), field).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read live entry: %w", err)
	}

	var member LiveMember
	if err := json.Unmarshal([]byte(raw), &member); err != nil {
		return fmt.Errorf("decode live entry: %w", err)
	}
	member.IsOnline = online
	member.LastActive = time.Now().UnixMilli()

	payload, _ := json.Marshal(member)
	return s.redis.HSet(ctx, liveKey(teamID), field, payload).Err()
}

// TeamLeaderboard builds the ranked live view for a team. The live store is
// the source; when it is empty (fresh process) the ledger seeds it.
func (s *SalesHandler) TeamLeaderboard(ctx context.Context, teamID int64) (bonus.Leaderboard, error) {
	fields, err := s.redis.HGetAll(ctx, liveKey(teamID)).Result()
	if err != nil {
		s.log.WithField("team_id", teamID).Warnf("live store unavailable, falling back to ledger: %v", err)
		fields = nil
	}

	var members []bonus.Member
	if len(fields) > 0 {
		for field, raw := range fields {
			var live LiveMember
			if err := json.Unmarshal([]byte(raw), &live); err != nil {
				continue
			}
			agentID, err := strconv.ParseInt(field, 10, 64)
			if err != nil {
				continue
			}
			totalSales, _ := decimal.NewFromString(live.TotalSales)
			members = append(members, bonus.Member{
				AgentID:      agentID,
				Name:         live.Name,
				Role:         live.Role,
				TotalSales:   totalSales,
				ClientCount:  live.ClientCount,
				LastSaleTime: live.LastSaleTime,
				LastActive:   live.LastActive,
				IsOnline:     live.IsOnline,
			})
		}
	} else {
		var rows []models.AgentSales
		if err := s.db.WithContext(ctx).Where("team_id = ?", teamID).Find(&rows).Error; err != nil {
			return bonus.Leaderboard{}, fmt.Errorf("load ledger: %w", err)
		}
		for _, row := range rows {
			lastSaleTime := int64(0)
			if row.LastSaleDate != nil {
				lastSaleTime = row.LastSaleDate.UnixMilli()
			}
			members = append(members, bonus.Member{
				AgentID:      row.AgentID,
				Name:         row.Name,
				Role:         row.Role,
				TotalSales:   row.TotalSalesDecimal(),
				ClientCount:  int(row.ClientCount),
				LastSaleTime: lastSaleTime,
			})
		}
	}

	return bonus.BuildLeaderboard(members), nil
}

// TopPerformers returns the n best-selling members with at least one sale.
func (s *SalesHandler) TopPerformers(ctx context.Context, teamID int64, n int) ([]bonus.Member, error) {
	lb, err := s.TeamLeaderboard(ctx, teamID)
	if err != nil {
		return nil, err
	}
	return lb.TopPerformers(n), nil
}

func (s *SalesHandler) logSyncError(agentID int64, op string, err error) {
	s.log.WithFields(logrus.Fields{
		"agent_id": agentID,
		"op":       op,
	}).Errorf("sales sync failed: %v", err)
}
