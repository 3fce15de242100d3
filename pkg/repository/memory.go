package repository

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
)

// MemorySlot keeps the blob in process memory
type MemorySlot struct {
	mu   sync.Mutex
	data []byte
	err  error
}

func NewMemorySlot() *MemorySlot {
	return &MemorySlot{}
}

// Fail makes every following Read and Write return err. Passing nil restores
// normal behavior.
func (m *MemorySlot) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MemorySlot) Read(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, goerr.Wrap(m.err, "memory slot read failed")
	}
	if m.data == nil {
		return nil, ErrSlotEmpty
	}
	return append([]byte(nil), m.data...), nil
}

func (m *MemorySlot) Write(ctx context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return goerr.Wrap(m.err, "memory slot write failed")
	}
	m.data = append([]byte(nil), data...)
	return nil
}
