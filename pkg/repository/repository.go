package repository

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/singhoo/pkg/model"
	"github.com/m-mizutani/singhoo/pkg/utils/logging"
)

// StorageKey names the single slot holding the serialized history
const StorageKey = "singhoo_illustrator_history"

// ErrSlotEmpty is returned by Slot.Read when nothing has been stored yet
var ErrSlotEmpty = goerr.New("history slot is empty", goerr.T(model.TagNotFound))

// Slot is one named blob in durable storage
type Slot interface {
	// Read returns the whole blob or ErrSlotEmpty
	Read(ctx context.Context) ([]byte, error)
	// Write replaces the whole blob
	Write(ctx context.Context, data []byte) error
}

// Store persists history records into a Slot. It never returns errors:
// persistence failures are logged and the caller keeps its in-memory state.
type Store struct {
	slot Slot
}

// New creates a Store backed by slot
func New(slot Slot) *Store {
	return &Store{slot: slot}
}

// Load returns the stored records, or an empty collection when the slot is
// empty, unreadable or holds data that cannot be parsed.
func (s *Store) Load(ctx context.Context) []model.Record {
	logger := logging.From(ctx)

	data, err := s.slot.Read(ctx)
	if err != nil {
		if errors.Is(err, ErrSlotEmpty) {
			return []model.Record{}
		}
		logger.Error("failed to load history", "error", err)
		return []model.Record{}
	}
	if len(data) == 0 {
		return []model.Record{}
	}

	records, skipped, err := model.UnmarshalRecords(data)
	if err != nil {
		logger.Warn("stored history is malformed, starting empty", "error", err)
		return []model.Record{}
	}
	if skipped > 0 {
		logger.Warn("skipped unreadable history records", "skipped", skipped)
	}

	return records
}

// Save writes the full collection in one Write call
func (s *Store) Save(ctx context.Context, records []model.Record) {
	logger := logging.From(ctx)

	data, err := model.MarshalRecords(records)
	if err != nil {
		logger.Error("failed to serialize history", "error", err)
		return
	}

	if err := s.slot.Write(ctx, data); err != nil {
		logger.Error("failed to save history", "error", err, "records", len(records))
		return
	}

	logger.Debug("history saved", "records", len(records), "bytes", len(data))
}
