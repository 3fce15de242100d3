package repository

import (
	"bytes"
	"context"
	"io"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/singhoo/pkg/adapter"
	"github.com/m-mizutani/singhoo/pkg/model"
)

// BucketSlot stores the blob as one Cloud Storage object
type BucketSlot struct {
	storage adapter.Storage
	key     string
}

// NewBucketSlot creates a slot at <prefix>singhoo_illustrator_history.json
func NewBucketSlot(storage adapter.Storage, prefix string) *BucketSlot {
	return &BucketSlot{
		storage: storage,
		key:     prefix + StorageKey + ".json",
	}
}

func (b *BucketSlot) Read(ctx context.Context) ([]byte, error) {
	reader, err := b.storage.Get(ctx, b.key)
	if err != nil {
		if goerr.HasTag(err, model.TagNotFound) {
			return nil, ErrSlotEmpty
		}
		return nil, goerr.Wrap(err, "failed to get history object")
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read history object", goerr.V("key", b.key))
	}
	return data, nil
}

func (b *BucketSlot) Write(ctx context.Context, data []byte) error {
	writer, err := b.storage.Put(ctx, b.key)
	if err != nil {
		return goerr.Wrap(err, "failed to create storage writer", goerr.V("key", b.key))
	}

	if _, err := io.Copy(writer, bytes.NewReader(data)); err != nil {
		writer.Close()
		return goerr.Wrap(err, "failed to write history object", goerr.V("key", b.key))
	}

	if err := writer.Close(); err != nil {
		return goerr.Wrap(err, "failed to close storage writer", goerr.V("key", b.key))
	}
	return nil
}
