package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/analyticsPapy/trainlytics-app/internal/models"
	"github.com/analyticsPapy/trainlytics-app/internal/store"
)

// ConnectionPublic is the outward representation of a provider
// connection. Tokens never leave the service layer.
type ConnectionPublic struct {
	ID               string     `json:"id"`
	Provider         string     `json:"provider"`
	ProviderUsername string     `json:"provider_username,omitempty"`
	ProviderEmail    string     `json:"provider_email,omitempty"`
	IsActive         bool       `json:"is_active"`
	LastSyncAt       *time.Time `json:"last_sync_at"`
	LastSyncError    *string    `json:"last_sync_error,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

func toConnectionPublic(conn *models.ProviderConnection) *ConnectionPublic {
	return &ConnectionPublic{
		ID:               conn.ID,
		Provider:         conn.Provider,
		ProviderUsername: conn.ProviderUsername,
		ProviderEmail:    conn.ProviderEmail,
		IsActive:         conn.IsActive,
		LastSyncAt:       conn.LastSyncAt,
		LastSyncError:    conn.LastSyncError,
		CreatedAt:        conn.CreatedAt,
	}
}

// ConnectionsSummary is the dashboard rollup of a user's connections.
type ConnectionsSummary struct {
	TotalConnections    int                 `json:"total_connections"`
	ActiveConnections   int                 `json:"active_connections"`
	InactiveConnections int                 `json:"inactive_connections"`
	Providers           []string            `json:"providers"`
	Connections         []ConnectionSummary `json:"connections"`
}

// ConnectionSummary is one row of the dashboard rollup.
type ConnectionSummary struct {
	ID         string     `json:"id"`
	Provider   string     `json:"provider"`
	IsActive   bool       `json:"is_active"`
	LastSyncAt *time.Time `json:"last_sync_at"`
	HasError   bool       `json:"has_error"`
}

// ConnectionService exposes the connection registry.
type ConnectionService struct {
	store *store.Store
}

func NewConnectionService(s *store.Store) *ConnectionService {
	return &ConnectionService{store: s}
}

// List returns the user's connections, optionally active only.
func (s *ConnectionService) List(userID string, activeOnly bool) ([]ConnectionPublic, error) {
	conns, err := s.store.ListConnections(userID, activeOnly)
	if err != nil {
		return nil, translateStoreErr(err)
	}

	out := make([]ConnectionPublic, 0, len(conns))
	for i := range conns {
		out = append(out, *toConnectionPublic(&conns[i]))
	}
	return out, nil
}

// Get returns one connection owned by the user.
func (s *ConnectionService) Get(connectionID, userID string) (*ConnectionPublic, error) {
	conn, err := s.store.GetConnection(connectionID, userID)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return toConnectionPublic(conn), nil
}

// GetByProvider returns the user's connection for a provider id.
func (s *ConnectionService) GetByProvider(userID, provider string) (*ConnectionPublic, error) {
	if !models.IsKnownProvider(provider) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
	conn, err := s.store.GetConnectionByProvider(userID, provider)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return toConnectionPublic(conn), nil
}

// SetActive toggles whether the connection participates in syncs.
func (s *ConnectionService) SetActive(connectionID, userID string, active bool) (*ConnectionPublic, error) {
	conn, err := s.store.UpdateConnection(connectionID, userID, store.ConnectionPatch{
		IsActive: &active,
	})
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return toConnectionPublic(conn), nil
}

// Disconnect removes the connection and its tokens. Activities imported
// through it stay.
func (s *ConnectionService) Disconnect(connectionID, userID string) error {
	if err := s.store.DeleteConnection(connectionID, userID); err != nil {
		return translateStoreErr(err)
	}
	return nil
}

// Summary builds the dashboard rollup.
func (s *ConnectionService) Summary(userID string) (*ConnectionsSummary, error) {
	conns, err := s.store.ListConnections(userID, false)
	if err != nil {
		return nil, translateStoreErr(err)
	}

	summary := &ConnectionsSummary{
		Providers:   make([]string, 0, len(conns)),
		Connections: make([]ConnectionSummary, 0, len(conns)),
	}
	summary.TotalConnections = len(conns)
	for i := range conns {
		c := &conns[i]
		if c.IsActive {
			summary.ActiveConnections++
		} else {
			summary.InactiveConnections++
		}
		summary.Providers = append(summary.Providers, c.Provider)
		summary.Connections = append(summary.Connections, ConnectionSummary{
			ID:         c.ID,
			Provider:   c.Provider,
			IsActive:   c.IsActive,
			LastSyncAt: c.LastSyncAt,
			HasError:   c.LastSyncError != nil,
		})
	}
	return summary, nil
}

// translateStoreErr lifts store sentinels into the service taxonomy.
func translateStoreErr(err error) error {
	switch {
	case errors.Is(err, store.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, store.ErrProviderAccountLinked):
		return fmt.Errorf("%w: provider account already linked to another user", ErrConflict)
	case errors.Is(err, store.ErrSyncAlreadyRunning):
		return ErrSyncRunning
	case errors.Is(err, store.ErrSyncAlreadyCompleted):
		return fmt.Errorf("%w: sync already completed", ErrConflict)
	case errors.Is(err, store.ErrStateAlreadyUsed), errors.Is(err, store.ErrStateExpired):
		return ErrInvalidState
	case errors.Is(err, store.ErrDuplicateActivity):
		return fmt.Errorf("%w: duplicate activity", ErrConflict)
	default:
		return err
	}
}
