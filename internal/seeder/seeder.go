package seeder

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"

	"dealview/internal/proposals"
	"dealview/internal/tracking"
	"dealview/internal/workspaces"
)

// Seeder populates a development database with a demo workspace, a spread of
// proposals across the lifecycle, and realistic viewer sessions against them.
type Seeder struct {
	DBManager    cartridge.DBManager
	Logger       *slog.Logger
	SessionCount int
}

// NewSeeder creates a new seeder instance
func NewSeeder(dbManager cartridge.DBManager, logger *slog.Logger, sessionCount int) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	if sessionCount <= 0 {
		sessionCount = 50
	}
	return &Seeder{
		DBManager:    dbManager,
		Logger:       logger,
		SessionCount: sessionCount,
	}
}

type proposalSeed struct {
	title    string
	value    float64
	outcome  proposals.Status
	ageDays  int
	sessions int
}

// Run executes the seeding process
func (s *Seeder) Run(ctx context.Context) error {
	start := time.Now()
	s.Logger.Info("Starting database seeding...", slog.Int("sessionCount", s.SessionCount))

	workspace, err := s.seedWorkspace()
	if err != nil {
		return fmt.Errorf("failed to seed workspace: %w", err)
	}

	seeds := []proposalSeed{
		{title: "Website Redesign - Northwind", value: 18500, outcome: proposals.StatusAccepted, ageDays: 45, sessions: 4},
		{title: "Annual Retainer - Contoso", value: 96000, outcome: proposals.StatusAccepted, ageDays: 30, sessions: 6},
		{title: "Brand Refresh - Fabrikam", value: 12000, outcome: proposals.StatusRejected, ageDays: 25, sessions: 2},
		{title: "Mobile App Phase 1 - Adventure Works", value: 54000, outcome: proposals.StatusViewed, ageDays: 10, sessions: 3},
		{title: "SEO Audit - Tailspin Toys", value: 4500, outcome: proposals.StatusSent, ageDays: 3, sessions: 0},
		{title: "Data Migration - Wide World", value: 27500, outcome: proposals.StatusDraft, ageDays: 1, sessions: 0},
		{title: "Support Contract - Proseware", value: 15000, outcome: proposals.StatusExpired, ageDays: 70, sessions: 1},
	}

	for _, seed := range seeds {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := s.seedProposal(ctx, workspace.ID, seed); err != nil {
			return fmt.Errorf("failed to seed proposal %q: %w", seed.title, err)
		}
	}

	s.Logger.Info("Seeding completed successfully", slog.Duration("elapsed", time.Since(start)))
	return nil
}

// seedWorkspace ensures the demo workspace exists with a couple of members
func (s *Seeder) seedWorkspace() (*workspaces.Workspace, error) {
	db := s.DBManager.GetConnection()

	var workspace workspaces.Workspace
	if err := db.Where("name = ?", "Demo Agency").First(&workspace).Error; err == nil {
		s.Logger.Info("Demo workspace already exists", slog.Uint64("id", uint64(workspace.ID)))
		return &workspace, nil
	}

	workspace = workspaces.Workspace{
		Name:      "Demo Agency",
		CreatedAt: time.Now().UTC(),
	}
	err := sqlite.PerformWrite(s.Logger, db, func(tx *gorm.DB) error {
		return tx.Create(&workspace).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}

	for userID, role := range map[uint]string{1: "owner", 2: "member"} {
		member := workspaces.Member{
			WorkspaceID: workspace.ID,
			UserID:      userID,
			Role:        role,
			CreatedAt:   time.Now().UTC(),
		}
		if err := sqlite.PerformWrite(s.Logger, db, func(tx *gorm.DB) error {
			return tx.Create(&member).Error
		}); err != nil {
			return nil, fmt.Errorf("failed to create member: %w", err)
		}
	}

	s.Logger.Info("Demo workspace created", slog.Uint64("id", uint64(workspace.ID)))
	return &workspace, nil
}

// seedProposal creates one proposal, walks it through its lifecycle, and
// replays viewer sessions against it through the regular ingestion path.
func (s *Seeder) seedProposal(ctx context.Context, workspaceID uint, seed proposalSeed) error {
	db := s.DBManager.GetConnection()
	createdAt := time.Now().UTC().AddDate(0, 0, -seed.ageDays)

	proposal := proposals.Proposal{
		WorkspaceID: workspaceID,
		Title:       seed.title,
		Status:      proposals.StatusDraft,
		TotalValue:  seed.value,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	err := sqlite.PerformWrite(s.Logger, db, func(tx *gorm.DB) error {
		return tx.Create(&proposal).Error
	})
	if err != nil {
		return fmt.Errorf("failed to create proposal: %w", err)
	}

	if seed.outcome == proposals.StatusDraft {
		return nil
	}

	if err := proposals.MarkSent(s.Logger, db, proposal.ID); err != nil {
		return fmt.Errorf("failed to mark proposal sent: %w", err)
	}

	ipPool := generateIPPool(10)
	userAgents := getUserAgents()

	for session := 0; session < seed.sessions; session++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		sessionID := uuid.NewString()
		ip := ipPool[rand.IntN(len(ipPool))]
		userAgent := userAgents[rand.IntN(len(userAgents))]

		if err := s.replaySession(proposal.ID, sessionID, ip, userAgent); err != nil {
			s.Logger.Error("Failed to replay session during seeding",
				slog.Uint64("proposalId", uint64(proposal.ID)),
				slog.Any("error", err))
		}
	}

	switch seed.outcome {
	case proposals.StatusAccepted, proposals.StatusRejected:
		if err := proposals.MarkDecided(s.Logger, db, proposal.ID, seed.outcome); err != nil {
			return fmt.Errorf("failed to decide proposal: %w", err)
		}
	case proposals.StatusExpired:
		if err := proposals.MarkExpired(s.Logger, db, proposal.ID); err != nil {
			return fmt.Errorf("failed to expire proposal: %w", err)
		}
	}

	return nil
}

// replaySession simulates one viewer reading through a proposal: an opening
// page view, scrolling, a few interactions, and accumulated reading time.
func (s *Seeder) replaySession(proposalID uint, sessionID, ip, userAgent string) error {
	record := func(eventType tracking.EventType, payload map[string]any) error {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		return tracking.RecordEvent(s.DBManager, s.Logger, &tracking.RecordEventInput{
			ProposalID: proposalID,
			SessionID:  sessionID,
			EventType:  eventType,
			EventData:  raw,
			UserAgent:  userAgent,
			IPAddress:  ip,
		})
	}

	if err := record(tracking.EventTypePageView, map[string]any{"page": 1}); err != nil {
		return err
	}

	sections := []string{"overview", "scope", "timeline", "pricing", "terms"}
	depth := 0
	for _, section := range sections {
		depth += rand.IntN(20) + 5
		if depth > 100 {
			depth = 100
		}
		if err := record(tracking.EventTypeScroll, map[string]any{"depth": depth, "section": section}); err != nil {
			return err
		}
		if rand.IntN(3) == 0 {
			if err := record(tracking.EventTypeClick, map[string]any{"target": "expand", "section": section}); err != nil {
				return err
			}
		}
		if depth == 100 {
			break
		}
	}

	if rand.IntN(4) == 0 {
		if err := record(tracking.EventTypeDownload, map[string]any{"file_name": "proposal.pdf"}); err != nil {
			return err
		}
	}

	return record(tracking.EventTypeTimeSpent, map[string]any{"seconds": rand.IntN(280) + 20})
}

// generateIPPool generates a pool of unique random public IP addresses
func generateIPPool(count int) []string {
	ipPool := make(map[string]bool)
	var ips []string
	for len(ips) < count {
		ip := fmt.Sprintf("%d.%d.%d.%d", rand.IntN(255)+1, rand.IntN(256), rand.IntN(256), rand.IntN(256))
		if !ipPool[ip] {
			ipPool[ip] = true
			ips = append(ips, ip)
		}
	}
	return ips
}

// getUserAgents returns a list of common user agent strings
func getUserAgents() []string {
	return []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.1 Safari/605.1.15",
		"Mozilla/5.0 (iPhone; CPU iPhone OS 16_1_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.1 Mobile/15E148 Safari/605.1",
		"Mozilla/5.0 (Linux; Android 13; Pixel 7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Mobile Safari/537.36",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36",
		"Mozilla/5.0 (iPad; CPU OS 16_1_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.1 Mobile/15E148 Safari/605.1",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36 Edg/108.0.1462.54",
	}
}
