// Package session persists upload sessions: the parsed records, the
// validation context and, once computed, the cached issues and summary.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campaignops/media-sufficiency/internal/domain/import/parser"
	"github.com/campaignops/media-sufficiency/internal/domain/import/validator"
	"github.com/campaignops/media-sufficiency/internal/domain/masterdata"
)

// ErrNotFound is returned when no session exists for the given id.
var ErrNotFound = errors.New("session not found")

// Session is the persisted record of one upload. It is created on upload,
// updated in place when validation runs (issues are cached to avoid
// recompute), read by the grid UI and consumed by the commit step.
type Session struct {
	ID             uuid.UUID `json:"id"`
	FileName       string    `json:"fileName"`
	Country        string    `json:"country"`
	FinancialCycle string    `json:"financialCycle"`
	BusinessUnit   string    `json:"businessUnit,omitempty"`
	RecordCount    int       `json:"recordCount"`

	Records        []parser.Record         `json:"records"`
	AliasedHeaders map[parser.Field]string `json:"aliasedHeaders,omitempty"`

	MasterDataCounts masterdata.Counts `json:"masterDataCounts"`

	// Issues and Summary are nil until the first validate call.
	Issues  []validator.Issue  `json:"issues,omitempty"`
	Summary *validator.Summary `json:"summary,omitempty"`

	CreatedAt   time.Time  `json:"createdAt"`
	ValidatedAt *time.Time `json:"validatedAt,omitempty"`
}

// Validated reports whether validation results are cached on the session.
func (s *Session) Validated() bool {
	return s.Summary != nil
}

// Store is the key-value contract for sessions: atomic put/get keyed by
// session id. Each upload gets a fresh id, so stores need no cross-session
// locking.
type Store interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, id uuid.UUID) (*Session, error)
	Update(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// MemoryStore keeps sessions in an in-process map. Used in tests and
// single-request tooling.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[uuid.UUID]*Session)}
}

func (m *MemoryStore) Create(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

func (m *MemoryStore) Update(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.ID]; !ok {
		return ErrNotFound
	}
	m.sessions[s.ID] = s
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}
