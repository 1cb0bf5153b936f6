package testsupport

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/cache"
	ctestsupport "github.com/karloscodes/cartridge/testsupport"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"dealview/internal"
	"dealview/internal/config"
	"dealview/internal/proposals"
	"dealview/internal/timeframe"
	"dealview/internal/tracking"
	"dealview/internal/workspaces"
)

// testDBCache caches test databases by test name to allow multiple calls
// within the same test to share the same database
var testDBCache = make(map[string]*gorm.DB)
var testDBCacheMu sync.Mutex

// TestDBManager wraps cartridge's TestDBManager with dealview's interface
type TestDBManager struct {
	*ctestsupport.TestDBManager
}

// NewTestDBManager creates a TestDBManager that implements cartridge.DBManager
func NewTestDBManager(db *gorm.DB) *TestDBManager {
	return &TestDBManager{
		TestDBManager: ctestsupport.NewTestDBManager(db),
	}
}

// Ensure TestDBManager implements cartridge.DBManager
var _ cartridge.DBManager = (*TestDBManager)(nil)

// TestDateStat is a helper struct for testing date-based statistics
type TestDateStat struct {
	Date  time.Time
	Count int
}

// ConvertToTestDateStat converts a DateStat to TestDateStat
func ConvertToTestDateStat(ds timeframe.DateStat) (TestDateStat, error) {
	t, err := time.Parse(time.RFC3339, ds.Date)
	if err != nil {
		return TestDateStat{}, err
	}
	return TestDateStat{Date: t, Count: ds.Count}, nil
}

// allModels returns all dealview models for migration
func allModels() []any {
	return []any{
		&cache.CacheRecord{},
		&workspaces.Workspace{},
		&workspaces.Member{},
		&proposals.Proposal{},
		&tracking.ProposalEvent{},
		&tracking.ProposalView{},
	}
}

// SetupTestDB creates a test database with all dealview models migrated.
// Uses a named in-memory database with cache=shared to allow multiple connections
// to share the same database within a test. Caches the database by test name
// so multiple calls within the same test return the same database.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	testName := t.Name()

	// Use root test name for caching to handle closure issues where
	// setup functions capture the outer t while t.Run has subtest t
	rootName := testName
	if idx := strings.Index(testName, "/"); idx > 0 {
		rootName = testName[:idx]
	}

	// Check cache first
	testDBCacheMu.Lock()
	if db, exists := testDBCache[rootName]; exists {
		testDBCacheMu.Unlock()
		return db
	}
	testDBCacheMu.Unlock()

	// Create a unique named in-memory database for each test
	// cache=shared allows multiple connections to the same database
	sanitizedName := strings.ReplaceAll(rootName, "/", "_")
	dsn := fmt.Sprintf("file:test_%s_%d?mode=memory&cache=shared", sanitizedName, time.Now().UnixNano())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("testsupport: failed to open test database: %v", err)
	}

	// Apply SQLite pragmas
	db.Exec("PRAGMA foreign_keys = ON")
	db.Exec("PRAGMA journal_mode = WAL")

	// Auto-migrate models
	if err := db.AutoMigrate(allModels()...); err != nil {
		t.Fatalf("testsupport: failed to migrate models: %v", err)
	}

	// Cache the database
	testDBCacheMu.Lock()
	testDBCache[rootName] = db
	testDBCacheMu.Unlock()

	// Register cleanup
	t.Cleanup(func() {
		testDBCacheMu.Lock()
		delete(testDBCache, rootName)
		testDBCacheMu.Unlock()
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	return db
}

// SetupTestDBManager creates a test DB manager using cartridge's testsupport
func SetupTestDBManager(t *testing.T) (*TestDBManager, *slog.Logger) {
	cfg := config.GetConfig()

	// SAFETY CHECK: Ensure we're in test environment
	if cfg.Environment != config.Test {
		t.Fatalf("CRITICAL: Tests must run in test environment! Current: %s. Set DEALVIEW_ENV=test", cfg.Environment)
	}

	db := SetupTestDB(t)
	logger := GetLogger()
	dbManager := NewTestDBManager(db)

	return dbManager, logger
}

// SetupTestDBManagerWithProposal creates a test database manager with a
// workspace and a sent proposal ready to receive events
func SetupTestDBManagerWithProposal(t *testing.T) (*TestDBManager, *slog.Logger, proposals.Proposal) {
	dbManager, logger := SetupTestDBManager(t)
	workspace := CreateTestWorkspace(dbManager.GetConnection(), "Acme Sales")
	proposal := CreateTestProposal(t, dbManager.GetConnection(), workspace.ID, proposals.StatusSent, 12500)
	return dbManager, logger, proposal
}

// CleanAllTables clears all non-system tables in the database
func CleanAllTables(db *gorm.DB) {
	var tableNames []string
	db.Raw("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'").Scan(&tableNames)

	var tables []string
	for _, name := range tableNames {
		if name != "migrations" && name != "schema_migrations" {
			tables = append(tables, name)
		}
	}

	if len(tables) == 0 {
		return
	}

	db.Exec("PRAGMA foreign_keys = OFF")
	defer db.Exec("PRAGMA foreign_keys = ON")

	db.Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			tx.Exec("DELETE FROM " + table)
			tx.Exec("DELETE FROM sqlite_sequence WHERE name=?", table)
		}
		return nil
	})
}

// CleanTables cleans specific tables or all tables if none specified
func CleanTables(db *gorm.DB, tables []string) {
	if len(tables) == 0 {
		CleanAllTables(db)
		return
	}

	db.Exec("PRAGMA foreign_keys = OFF")
	defer db.Exec("PRAGMA foreign_keys = ON")

	db.Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			tx.Exec("DELETE FROM " + table)
			tx.Exec("DELETE FROM sqlite_sequence WHERE name=?", table)
		}
		return nil
	})
}

// CreateTestWorkspace creates a test workspace in the database
func CreateTestWorkspace(db *gorm.DB, name string) workspaces.Workspace {
	var workspace workspaces.Workspace
	if db.Where("name = ?", name).First(&workspace).Error != nil {
		workspace = workspaces.Workspace{Name: name, CreatedAt: time.Now().UTC()}
		db.Create(&workspace)
	}
	return workspace
}

// CreateTestMember adds a user to a workspace for authorization testing
func CreateTestMember(t *testing.T, db *gorm.DB, workspaceID, userID uint) workspaces.Member {
	t.Helper()

	member := workspaces.Member{
		WorkspaceID: workspaceID,
		UserID:      userID,
		Role:        "member",
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, db.Create(&member).Error)
	return member
}

// CreateTestProposal creates a proposal in the given status. SentAt and
// DecidedAt are stamped to match the status so lifecycle queries behave the
// same as they would against production rows.
func CreateTestProposal(t *testing.T, db *gorm.DB, workspaceID uint, status proposals.Status, totalValue float64) proposals.Proposal {
	t.Helper()

	now := time.Now().UTC()
	proposal := proposals.Proposal{
		WorkspaceID: workspaceID,
		Title:       fmt.Sprintf("Proposal %d", now.UnixNano()),
		Status:      status,
		TotalValue:  totalValue,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if status != proposals.StatusDraft {
		sentAt := now
		proposal.SentAt = &sentAt
	}
	if status.IsTerminal() {
		decidedAt := now
		proposal.DecidedAt = &decidedAt
	}

	require.NoError(t, db.Create(&proposal).Error)
	return proposal
}

// CreateTestView inserts a deduplicated view row directly
func CreateTestView(t *testing.T, db *gorm.DB, proposalID uint, sessionID, viewerIP, userAgent string, timeSpent int64) tracking.ProposalView {
	t.Helper()

	now := time.Now().UTC()
	view := tracking.ProposalView{
		ProposalID:   proposalID,
		SessionID:    sessionID,
		ViewerIP:     viewerIP,
		UserAgent:    userAgent,
		TimeSpent:    timeSpent,
		CreatedAt:    now,
		LastViewedAt: now,
	}
	require.NoError(t, db.Create(&view).Error)
	return view
}

// CreateTestEvent inserts a raw engagement event directly, bypassing ingestion
func CreateTestEvent(t *testing.T, db *gorm.DB, proposalID uint, sessionID string, eventType tracking.EventType, eventData map[string]any, createdAt time.Time) tracking.ProposalEvent {
	t.Helper()

	payload := "{}"
	if eventData != nil {
		raw, err := json.Marshal(eventData)
		require.NoError(t, err)
		payload = string(raw)
	}

	event := tracking.ProposalEvent{
		ProposalID: proposalID,
		SessionID:  sessionID,
		EventType:  eventType,
		EventData:  payload,
		UserAgent:  "Mozilla/5.0 Test Browser",
		IPAddress:  "203.0.113.10",
		CreatedAt:  createdAt,
	}
	require.NoError(t, db.Create(&event).Error)
	return event
}

// RecordTestEvent pushes an event through the full ingestion path
func RecordTestEvent(t *testing.T, dbManager cartridge.DBManager, logger *slog.Logger, proposalID uint, sessionID string, eventType tracking.EventType, eventData map[string]any) {
	t.Helper()

	var raw json.RawMessage
	if eventData != nil {
		encoded, err := json.Marshal(eventData)
		require.NoError(t, err)
		raw = encoded
	}

	err := tracking.RecordEvent(dbManager, logger, &tracking.RecordEventInput{
		ProposalID: proposalID,
		SessionID:  sessionID,
		EventType:  eventType,
		EventData:  raw,
		UserAgent:  "Mozilla/5.0 Test Browser",
		IPAddress:  "203.0.113.10",
	})
	require.NoError(t, err)
}

// GetLogger returns a test logger
func GetLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})
	return slog.New(handler)
}

// GetFirstDayOfISOWeek returns the first day of the given ISO week
func GetFirstDayOfISOWeek(year, week int) time.Time {
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	isoYearStart := jan4.AddDate(0, 0, -int(jan4.Weekday()-time.Monday))
	return isoYearStart.AddDate(0, 0, (week-1)*7)
}

// GetTimeInISOWeek returns a time in the specified ISO week
func GetTimeInISOWeek(year, week, dayOffset, hour, min int) time.Time {
	return GetFirstDayOfISOWeek(year, week).AddDate(0, 0, dayOffset).
		Add(time.Duration(hour)*time.Hour + time.Duration(min)*time.Minute)
}

// CreateMinimalTestApp creates a test Fiber app with all routes
func CreateMinimalTestApp(t *testing.T, db *gorm.DB) *fiber.App {
	t.Helper()

	dbManager := NewTestDBManager(db)
	appConfig := config.GetConfig()
	appConfig.Environment = config.Test

	cfg := cartridge.DefaultServerConfig()
	cfg.Config = appConfig
	cfg.Logger = GetLogger()
	cfg.DBManager = dbManager
	// Mirror cartridge's own testsupport server setup: test requests carry no
	// Sec-Fetch-Site header, so the CSRF middleware must be off in tests.
	cfg.EnableSecFetchSite = false

	srv, err := cartridge.NewServer(cfg)
	require.NoError(t, err)

	internal.MountAppRoutes(srv)
	return srv.App()
}
