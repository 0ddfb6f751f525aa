package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/analyticsPapy/trainlytics-app/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestStoreWithSQLite tests store operations with SQLite
func TestStoreWithSQLite(t *testing.T) {
	testStoreOperations(t, "sqlite", nil)
}

// TestStoreWithPostgres tests store operations with PostgreSQL
func TestStoreWithPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping PostgreSQL integration test in short mode")
	}

	defer func() {
		if r := recover(); r != nil {
			t.Skipf("Skipping PostgreSQL test: Docker not available (panic: %v)", r)
		}
	}()

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Skipf("Skipping PostgreSQL test: Docker not available (%v)", err)
		return
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	testStoreOperations(t, "postgres", pgContainer)
}

// createFreshStore creates a new store instance for test isolation.
// For SQLite, each call creates a fresh :memory: database.
// For PostgreSQL, each call creates a uniquely-named database in the container.
func createFreshStore(t *testing.T, driver string, pgContainer *postgres.PostgresContainer) *Store {
	t.Helper()

	var dsn string
	switch driver {
	case "sqlite":
		dsn = ":memory:"
	case "postgres":
		dbName := "test_" + uuid.New().String()[:8]

		ctx := context.Background()

		createDBCmd := fmt.Sprintf("CREATE DATABASE %s", dbName)
		_, _, err := pgContainer.Exec(
			ctx,
			[]string{"psql", "-U", "testuser", "-d", "testdb", "-c", createDBCmd},
		)
		require.NoError(t, err)

		host, err := pgContainer.Host(ctx)
		require.NoError(t, err)
		port, err := pgContainer.MappedPort(ctx, "5432")
		require.NoError(t, err)
		dsn = fmt.Sprintf(
			"host=%s port=%s user=testuser password=testpass dbname=%s sslmode=disable",
			host, port.Port(), dbName,
		)

		t.Cleanup(func() {
			dropDBCmd := fmt.Sprintf("DROP DATABASE IF EXISTS %s", dbName)
			_, _, _ = pgContainer.Exec(
				context.Background(),
				[]string{"psql", "-U", "testuser", "-d", "testdb", "-c", dropDBCmd},
			)
		})
	default:
		t.Fatalf("unsupported driver: %s", driver)
	}

	store, err := New(driver, dsn)
	require.NoError(t, err)
	require.NotNil(t, store)

	return store
}

// createTestConnection inserts a connection for userID and returns it
func createTestConnection(t *testing.T, store *Store, userID, provider string) *models.ProviderConnection {
	t.Helper()

	conn, err := store.UpsertConnection(UpsertConnectionParams{
		UserID:         userID,
		Provider:       provider,
		ProviderUserID: "acct-" + uuid.New().String()[:8],
		AccessToken:    "access-token",
		RefreshToken:   "refresh-token",
		TokenExpiresAt: time.Now().Add(6 * time.Hour),
		Scopes:         "read,activity:read_all",
	})
	require.NoError(t, err)
	return conn
}

func strPtr(s string) *string { return &s }

func testStoreOperations(t *testing.T, driver string, pgContainer *postgres.PostgresContainer) {
	t.Run("UpsertConnectionCreatesThenOverwrites", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)
		userID := uuid.New().String()

		first, err := store.UpsertConnection(UpsertConnectionParams{
			UserID:         userID,
			Provider:       models.ProviderStrava,
			ProviderUserID: "12345",
			AccessToken:    "token-1",
			RefreshToken:   "refresh-1",
			TokenExpiresAt: time.Now().Add(time.Hour),
		})
		require.NoError(t, err)
		assert.True(t, first.IsActive)

		// Reconnecting the same pair replaces tokens instead of adding a row
		second, err := store.UpsertConnection(UpsertConnectionParams{
			UserID:         userID,
			Provider:       models.ProviderStrava,
			ProviderUserID: "12345",
			AccessToken:    "token-2",
			RefreshToken:   "refresh-2",
			TokenExpiresAt: time.Now().Add(time.Hour),
		})
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "token-2", second.AccessToken)

		conns, err := store.ListConnections(userID, false)
		require.NoError(t, err)
		assert.Len(t, conns, 1)
	})

	t.Run("UpsertConnectionConcurrentWritersLeaveOneRow", func(t *testing.T) {
		if driver == "sqlite" {
			t.Skip("sqlite :memory: serializes writers; races only exist on postgres")
		}
		store := createFreshStore(t, driver, pgContainer)
		userID := uuid.New().String()

		const writers = 8
		tokens := make([]string, writers)
		errs := make([]error, writers)

		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			tokens[i] = fmt.Sprintf("token-%d", i)
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = store.UpsertConnection(UpsertConnectionParams{
					UserID:         userID,
					Provider:       models.ProviderStrava,
					ProviderUserID: "12345",
					AccessToken:    tokens[i],
					RefreshToken:   "refresh",
					TokenExpiresAt: time.Now().Add(time.Hour),
				})
			}(i)
		}
		wg.Wait()

		for i, err := range errs {
			require.NoErrorf(t, err, "writer %d", i)
		}

		// Exactly one row survives, holding whichever write landed last
		conns, err := store.ListConnections(userID, false)
		require.NoError(t, err)
		require.Len(t, conns, 1)
		assert.Contains(t, tokens, conns[0].AccessToken)
	})

	t.Run("UpsertConnectionRejectsAccountLinkedElsewhere", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)

		_, err := store.UpsertConnection(UpsertConnectionParams{
			UserID:         uuid.New().String(),
			Provider:       models.ProviderStrava,
			ProviderUserID: "shared-account",
			AccessToken:    "token",
			TokenExpiresAt: time.Now().Add(time.Hour),
		})
		require.NoError(t, err)

		_, err = store.UpsertConnection(UpsertConnectionParams{
			UserID:         uuid.New().String(),
			Provider:       models.ProviderStrava,
			ProviderUserID: "shared-account",
			AccessToken:    "token",
			TokenExpiresAt: time.Now().Add(time.Hour),
		})
		assert.ErrorIs(t, err, ErrProviderAccountLinked)
	})

	t.Run("GetConnectionEnforcesOwnership", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)
		userID := uuid.New().String()
		conn := createTestConnection(t, store, userID, models.ProviderStrava)

		_, err := store.GetConnection(conn.ID, userID)
		require.NoError(t, err)

		_, err = store.GetConnection(conn.ID, uuid.New().String())
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("ListConnectionsActiveOnly", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)
		userID := uuid.New().String()
		active := createTestConnection(t, store, userID, models.ProviderStrava)
		inactive := createTestConnection(t, store, userID, models.ProviderPolar)

		off := false
		_, err := store.UpdateConnection(inactive.ID, userID, ConnectionPatch{IsActive: &off})
		require.NoError(t, err)

		conns, err := store.ListConnections(userID, true)
		require.NoError(t, err)
		require.Len(t, conns, 1)
		assert.Equal(t, active.ID, conns[0].ID)

		all, err := store.ListConnections(userID, false)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("DeleteConnectionLeavesActivitiesOrphaned", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)
		userID := uuid.New().String()
		conn := createTestConnection(t, store, userID, models.ProviderStrava)

		activity := &models.Activity{
			UserID:       userID,
			ConnectionID: &conn.ID,
			ExternalID:   strPtr("ext-1"),
			ActivityType: "run",
			StartTime:    time.Now(),
		}
		_, err := store.UpsertExternalActivity(activity)
		require.NoError(t, err)

		require.NoError(t, store.DeleteConnection(conn.ID, userID))

		acts, err := store.ListActivities(userID, ActivityFilter{})
		require.NoError(t, err)
		require.Len(t, acts, 1)
		assert.Equal(t, conn.ID, *acts[0].ConnectionID)
	})

	t.Run("StartSyncBlocksSecondOpenSync", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)
		conn := createTestConnection(t, store, uuid.New().String(), models.ProviderStrava)

		syncID, err := store.StartSync(conn.ID)
		require.NoError(t, err)
		require.NotEmpty(t, syncID)

		_, err = store.StartSync(conn.ID)
		assert.ErrorIs(t, err, ErrSyncAlreadyRunning)

		// Terminal completion frees the connection for the next attempt
		_, err = store.CompleteSync(syncID, models.SyncStatusSuccess, models.SyncCounts{Fetched: 3, Created: 2, Skipped: 1}, nil, "")
		require.NoError(t, err)

		_, err = store.StartSync(conn.ID)
		require.NoError(t, err)
	})

	t.Run("CompleteSyncIsTerminalOnce", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)
		conn := createTestConnection(t, store, uuid.New().String(), models.ProviderStrava)

		syncID, err := store.StartSync(conn.ID)
		require.NoError(t, err)

		record, err := store.CompleteSync(syncID, models.SyncStatusSuccess, models.SyncCounts{Fetched: 5, Created: 5}, nil, "")
		require.NoError(t, err)
		assert.Equal(t, models.SyncStatusSuccess, record.SyncStatus)
		assert.NotNil(t, record.SyncCompletedAt)
		assert.Equal(t, 5, record.Fetched)

		_, err = store.CompleteSync(syncID, models.SyncStatusFailed, models.SyncCounts{}, strPtr("boom"), "")
		assert.ErrorIs(t, err, ErrSyncAlreadyCompleted)

		// First result survives
		latest, err := store.GetLatestSync(conn.ID)
		require.NoError(t, err)
		assert.Equal(t, models.SyncStatusSuccess, latest.SyncStatus)
	})

	t.Run("CompleteSyncRejectsNonTerminalStatus", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)
		conn := createTestConnection(t, store, uuid.New().String(), models.ProviderStrava)

		syncID, err := store.StartSync(conn.ID)
		require.NoError(t, err)

		_, err = store.CompleteSync(syncID, models.SyncStatusRunning, models.SyncCounts{}, nil, "")
		assert.Error(t, err)
	})

	t.Run("CompleteSyncUnknownID", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)

		_, err := store.CompleteSync(uuid.New().String(), models.SyncStatusSuccess, models.SyncCounts{}, nil, "")
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("GetSyncHistoryNewestFirst", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)
		conn := createTestConnection(t, store, uuid.New().String(), models.ProviderStrava)

		for i := 0; i < 3; i++ {
			syncID, err := store.StartSync(conn.ID)
			require.NoError(t, err)
			_, err = store.CompleteSync(syncID, models.SyncStatusSuccess, models.SyncCounts{Fetched: i}, nil, "")
			require.NoError(t, err)
			time.Sleep(5 * time.Millisecond)
		}

		history, err := store.GetSyncHistory(conn.ID, 2)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, 2, history[0].Fetched)
		assert.Equal(t, 1, history[1].Fetched)
	})

	t.Run("ReconcileAbandonedSyncs", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)
		conn := createTestConnection(t, store, uuid.New().String(), models.ProviderStrava)

		syncID, err := store.StartSync(conn.ID)
		require.NoError(t, err)

		// Backdate the start so the record looks abandoned
		err = store.db.Model(&models.SyncHistory{}).
			Where("id = ?", syncID).
			Update("sync_started_at", time.Now().Add(-2*time.Hour)).Error
		require.NoError(t, err)

		n, err := store.ReconcileAbandonedSyncs(30 * time.Minute)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		latest, err := store.GetLatestSync(conn.ID)
		require.NoError(t, err)
		assert.Equal(t, models.SyncStatusFailed, latest.SyncStatus)
		require.NotNil(t, latest.ErrorMessage)
		assert.Contains(t, *latest.ErrorMessage, "abandoned")

		// The connection is usable again
		_, err = store.StartSync(conn.ID)
		require.NoError(t, err)
	})

	t.Run("OAuthStateSingleUse", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)
		userID := uuid.New().String()

		state := "random-state-token"
		_, err := store.CreateOAuthState(state, userID, models.ProviderStrava, "https://app.example.com/done", 10*time.Minute)
		require.NoError(t, err)

		record, err := store.ConsumeOAuthState(state)
		require.NoError(t, err)
		assert.Equal(t, userID, record.UserID)
		assert.Equal(t, models.ProviderStrava, record.Provider)

		_, err = store.ConsumeOAuthState(state)
		assert.ErrorIs(t, err, ErrStateAlreadyUsed)
	})

	t.Run("OAuthStateExpired", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)

		state := "expired-state-token"
		_, err := store.CreateOAuthState(state, uuid.New().String(), models.ProviderStrava, "", -time.Minute)
		require.NoError(t, err)

		_, err = store.ConsumeOAuthState(state)
		assert.ErrorIs(t, err, ErrStateExpired)

		// Expired consumption still burns the state
		_, err = store.ConsumeOAuthState(state)
		assert.ErrorIs(t, err, ErrStateAlreadyUsed)
	})

	t.Run("OAuthStateUnknown", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)

		_, err := store.ConsumeOAuthState("never-issued")
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("PurgeExpiredOAuthStates", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)
		userID := uuid.New().String()

		_, err := store.CreateOAuthState("live", userID, models.ProviderStrava, "", 10*time.Minute)
		require.NoError(t, err)
		_, err = store.CreateOAuthState("dead", userID, models.ProviderPolar, "", -time.Minute)
		require.NoError(t, err)
		_, err = store.CreateOAuthState("used", userID, models.ProviderWahoo, "", 10*time.Minute)
		require.NoError(t, err)
		_, err = store.ConsumeOAuthState("used")
		require.NoError(t, err)

		n, err := store.PurgeExpiredOAuthStates()
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		// The live one survives
		_, err = store.ConsumeOAuthState("live")
		require.NoError(t, err)
	})

	t.Run("UpsertExternalActivityDedups", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)
		userID := uuid.New().String()
		conn := createTestConnection(t, store, userID, models.ProviderStrava)

		dur := 3600
		activity := &models.Activity{
			UserID:       userID,
			ConnectionID: &conn.ID,
			ExternalID:   strPtr("strava-100"),
			ActivityType: "ride",
			ActivityName: "Morning Ride",
			StartTime:    time.Now().Add(-2 * time.Hour),
			Duration:     &dur,
		}
		outcome, err := store.UpsertExternalActivity(activity)
		require.NoError(t, err)
		assert.Equal(t, ImportCreated, outcome)

		// Same external id again refreshes in place
		updated := &models.Activity{
			UserID:       userID,
			ConnectionID: &conn.ID,
			ExternalID:   strPtr("strava-100"),
			ActivityType: "ride",
			ActivityName: "Morning Ride (renamed)",
			StartTime:    activity.StartTime,
		}
		outcome, err = store.UpsertExternalActivity(updated)
		require.NoError(t, err)
		assert.Equal(t, ImportUpdated, outcome)

		acts, err := store.ListActivities(userID, ActivityFilter{})
		require.NoError(t, err)
		require.Len(t, acts, 1)
		assert.Equal(t, "Morning Ride (renamed)", acts[0].ActivityName)
	})

	t.Run("ManualActivitiesDoNotCollide", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)
		userID := uuid.New().String()

		// Two manual entries have no external identity; nil columns must
		// not trip the dedup index.
		for i := 0; i < 2; i++ {
			err := store.CreateActivity(&models.Activity{
				UserID:       userID,
				ActivityType: "run",
				StartTime:    time.Now().Add(time.Duration(-i) * time.Hour),
			})
			require.NoError(t, err)
		}

		acts, err := store.ListActivities(userID, ActivityFilter{})
		require.NoError(t, err)
		assert.Len(t, acts, 2)
	})

	t.Run("ListActivitiesFilters", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)
		userID := uuid.New().String()
		base := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

		for i, actType := range []string{"run", "ride", "run"} {
			err := store.CreateActivity(&models.Activity{
				UserID:       userID,
				ActivityType: actType,
				StartTime:    base.AddDate(0, 0, i),
			})
			require.NoError(t, err)
		}

		runs, err := store.ListActivities(userID, ActivityFilter{ActivityType: "run"})
		require.NoError(t, err)
		assert.Len(t, runs, 2)

		from := base.AddDate(0, 0, 1)
		recent, err := store.ListActivities(userID, ActivityFilter{StartDate: &from})
		require.NoError(t, err)
		assert.Len(t, recent, 2)

		paged, err := store.ListActivities(userID, ActivityFilter{Limit: 1, Offset: 1})
		require.NoError(t, err)
		require.Len(t, paged, 1)
		// Newest first, so offset 1 is the middle activity
		assert.Equal(t, "ride", paged[0].ActivityType)
	})

	t.Run("WorkoutLifecycle", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)
		userID := uuid.New().String()

		scheduled := time.Now().AddDate(0, 0, 3)
		workout := &models.Workout{
			UserID:        userID,
			WorkoutName:   "Threshold intervals",
			WorkoutType:   "interval",
			ScheduledDate: &scheduled,
		}
		require.NoError(t, store.CreateWorkout(workout))

		err := store.CreateActivity(&models.Activity{
			ID:           uuid.New().String(),
			UserID:       userID,
			ActivityType: "ride",
			StartTime:    time.Now(),
		})
		require.NoError(t, err)
		acts, err := store.ListActivities(userID, ActivityFilter{})
		require.NoError(t, err)
		activityID := acts[0].ID

		completed, err := store.CompleteWorkout(workout.ID, userID, &activityID)
		require.NoError(t, err)
		assert.True(t, completed.IsCompleted())
		require.NotNil(t, completed.ActivityID)
		assert.Equal(t, activityID, *completed.ActivityID)

		done := true
		list, err := store.ListWorkouts(userID, WorkoutFilter{Completed: &done})
		require.NoError(t, err)
		assert.Len(t, list, 1)

		pending := false
		list, err = store.ListWorkouts(userID, WorkoutFilter{Completed: &pending})
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("EnsureUserIsIdempotent", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)
		userID := uuid.New().String()

		first, err := store.EnsureUser(userID, "athlete@example.com")
		require.NoError(t, err)
		assert.Equal(t, models.UserTypeAthlete, first.UserType)

		name := "Jo Runner"
		_, err = store.UpdateUser(userID, UserPatch{FullName: &name})
		require.NoError(t, err)

		// A later request must not reset the profile
		again, err := store.EnsureUser(userID, "athlete@example.com")
		require.NoError(t, err)
		assert.Equal(t, "Jo Runner", again.FullName)
	})

	t.Run("UpdateConnectionTokens", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)
		userID := uuid.New().String()
		conn := createTestConnection(t, store, userID, models.ProviderStrava)

		newExpiry := time.Now().Add(8 * time.Hour)
		err := store.UpdateConnectionTokens(conn.ID, "fresh-access", "fresh-refresh", newExpiry)
		require.NoError(t, err)

		reloaded, err := store.GetConnection(conn.ID, userID)
		require.NoError(t, err)
		assert.Equal(t, "fresh-access", reloaded.AccessToken)
		assert.Equal(t, "fresh-refresh", reloaded.RefreshToken)
	})
}
