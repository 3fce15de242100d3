package history

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/singhoo/pkg/model"
	"github.com/m-mizutani/singhoo/pkg/utils/logging"
)

// Store is the persistence behind a Manager. Implementations swallow their
// own failures; see repository.Store.
type Store interface {
	Load(ctx context.Context) []model.Record
	Save(ctx context.Context, records []model.Record)
}

// Manager keeps the history in memory, newest first, and writes the whole
// collection through to the Store after every mutation.
type Manager struct {
	mu      sync.Mutex
	store   Store
	records []model.Record

	now   func() time.Time
	newID func() model.HistoryID
}

// Option is a functional option for Manager
type Option func(*Manager)

// WithClock replaces the timestamp source
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithIDGenerator replaces the record ID source
func WithIDGenerator(newID func() model.HistoryID) Option {
	return func(m *Manager) {
		m.newID = newID
	}
}

// New creates a Manager and loads the stored history once
func New(ctx context.Context, store Store, opts ...Option) *Manager {
	m := &Manager{
		store: store,
		now:   time.Now,
		newID: model.NewHistoryID,
	}
	for _, opt := range opts {
		opt(m)
	}

	m.records = store.Load(ctx)
	if m.records == nil {
		m.records = []model.Record{}
	}
	logging.From(ctx).Debug("history loaded", "records", len(m.records))

	return m
}

// Add records a completed result at the front. When the result has the same
// image as the current front record, nothing is added and the front record
// is returned with added=false.
func (m *Manager) Add(ctx context.Context, c model.Candidate) (record model.Record, added bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Persisted timestamps carry milliseconds only
	ts := m.now().Truncate(time.Millisecond)
	if len(m.records) > 0 {
		// Keep timestamps non-decreasing in insertion order
		if front := m.records[0].Base().Timestamp; ts.Before(front) {
			ts = front
		}
	}

	rec, err := model.NewRecord(c, m.newID(), ts)
	if err != nil {
		return nil, false, goerr.Wrap(err, "failed to build history record")
	}

	if len(m.records) > 0 && m.records[0].Base().ImageURL == rec.Base().ImageURL {
		logging.From(ctx).Debug("duplicate history record ignored", "front_id", m.records[0].Base().ID)
		return m.records[0], false, nil
	}

	m.records = append([]model.Record{rec}, m.records...)
	m.store.Save(ctx, m.records)

	return rec, true, nil
}

// Remove deletes the record with id. It reports whether a record was removed.
func (m *Manager) Remove(ctx context.Context, id model.HistoryID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, r := range m.records {
		if r.Base().ID != id {
			continue
		}

		next := make([]model.Record, 0, len(m.records)-1)
		next = append(next, m.records[:i]...)
		next = append(next, m.records[i+1:]...)
		m.records = next
		m.store.Save(ctx, m.records)
		return true
	}

	return false
}

// Clear removes every record
func (m *Manager) Clear(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = []model.Record{}
	m.store.Save(ctx, m.records)
}

// List returns the records newest first
func (m *Manager) List() []model.Record {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.Record, len(m.records))
	copy(out, m.records)
	return out
}

// Len returns the number of records
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}
