package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const DefaultCollection = "singhoo"

// FirestoreSlot stores the blob in one Firestore document. Firestore limits
// documents to 1 MiB, so large histories fail to save; Store logs that and
// keeps the in-memory state.
type FirestoreSlot struct {
	client     *firestore.Client
	collection string
}

type historyDoc struct {
	Data      string    `firestore:"data"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

// NewFirestore creates a Firestore backed slot
func NewFirestore(ctx context.Context, projectID, databaseID, collection string, opts ...option.ClientOption) (*FirestoreSlot, error) {
	if collection == "" {
		collection = DefaultCollection
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project", projectID),
			goerr.V("database", databaseID))
	}

	return &FirestoreSlot{
		client:     client,
		collection: collection,
	}, nil
}

func (r *FirestoreSlot) doc() *firestore.DocumentRef {
	return r.client.Collection(r.collection).Doc(StorageKey)
}

func (r *FirestoreSlot) Read(ctx context.Context) ([]byte, error) {
	snap, err := r.doc().Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrSlotEmpty
		}
		return nil, goerr.Wrap(err, "failed to get history document", goerr.V("collection", r.collection))
	}

	var doc historyDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode history document", goerr.V("collection", r.collection))
	}
	return []byte(doc.Data), nil
}

func (r *FirestoreSlot) Write(ctx context.Context, data []byte) error {
	doc := historyDoc{
		Data:      string(data),
		UpdatedAt: time.Now(),
	}
	if _, err := r.doc().Set(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to set history document",
			goerr.V("collection", r.collection),
			goerr.V("bytes", len(data)))
	}
	return nil
}

// Close releases the Firestore client
func (r *FirestoreSlot) Close() error {
	if err := r.client.Close(); err != nil {
		return goerr.Wrap(err, "failed to close firestore client")
	}
	return nil
}
