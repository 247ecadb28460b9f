// Package indexer embeds canonical email texts into the persistent
// vector store and retrieves the most similar entries for a query.
package indexer

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/nhle/mailmind/internal/model"
	"github.com/nhle/mailmind/internal/provider"
	"github.com/nhle/mailmind/internal/record"
	"github.com/nhle/mailmind/internal/vectorstore"
)

// ErrEmptyInput indicates that an indexing run was given no records.
var ErrEmptyInput = errors.New("email record list cannot be empty")

// EntryStore is the subset of the vector store used for indexing.
type EntryStore interface {
	Add(ctx context.Context, collection string, e vectorstore.Entry) error
}

// Indexer embeds email records and writes them to a collection.
type Indexer struct {
	embedder   provider.Embedder
	store      EntryStore
	collection string
}

// NewIndexer creates an indexer writing to the named collection.
func NewIndexer(embedder provider.Embedder, store EntryStore, collection string) *Indexer {
	return &Indexer{
		embedder:   embedder,
		store:      store,
		collection: collection,
	}
}

// Index embeds every record's canonical text and appends it to the
// collection under a fresh unique identifier. There is no
// deduplication: indexing the same records twice produces duplicate
// entries.
//
// All records are validated before the first embedding call, so a
// single malformed record aborts the whole batch. Returns the number
// of entries written.
func (ix *Indexer) Index(ctx context.Context, records []model.EmailRecord) (int, error) {
	if len(records) == 0 {
		return 0, ErrEmptyInput
	}

	for i, r := range records {
		if err := record.Validate(r); err != nil {
			return 0, fmt.Errorf("validating record %d: %w", i+1, err)
		}
	}

	indexed := 0
	for _, r := range records {
		text := record.CanonicalText(r)

		embedding, err := ix.embedder.Embed(ctx, text)
		if err != nil {
			return indexed, fmt.Errorf("embedding record from %q: %w", r.Sender, err)
		}

		entry := vectorstore.Entry{
			ID:        uuid.NewString(),
			Text:      text,
			Sender:    r.Sender,
			Subject:   r.Subject,
			Date:      r.Date,
			Embedding: embedding,
		}

		if err := ix.store.Add(ctx, ix.collection, entry); err != nil {
			return indexed, fmt.Errorf("storing entry for %q: %w", r.Subject, err)
		}

		indexed++
	}

	return indexed, nil
}
