package indexer

import (
	"context"
	"fmt"
	"strings"

	"github.com/nhle/mailmind/internal/provider"
	"github.com/nhle/mailmind/internal/vectorstore"
)

// EntrySearcher is the subset of the vector store used for retrieval.
type EntrySearcher interface {
	Search(ctx context.Context, collection string, query []float32, k int) ([]vectorstore.Result, error)
}

// Retriever finds the indexed emails most similar to a query.
type Retriever struct {
	embedder   provider.Embedder
	store      EntrySearcher
	collection string
}

// NewRetriever creates a retriever reading from the named collection.
func NewRetriever(embedder provider.Embedder, store EntrySearcher, collection string) *Retriever {
	return &Retriever{
		embedder:   embedder,
		store:      store,
		collection: collection,
	}
}

// Retrieve returns at most k entries ranked by similarity to the
// query. Tie order between equal scores is engine-dependent. k <= 0
// yields no results.
func (r *Retriever) Retrieve(
	ctx context.Context, query string, k int,
) ([]vectorstore.Result, error) {
	if k <= 0 {
		return nil, nil
	}

	embedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	results, err := r.store.Search(ctx, r.collection, embedding, k)
	if err != nil {
		return nil, fmt.Errorf("searching collection %q: %w", r.collection, err)
	}

	return results, nil
}

// BuildContext assembles retrieved entries into the ordered context
// block handed to the completion engine: one numbered section per
// email, in ranked order.
func BuildContext(results []vectorstore.Result) string {
	var sb strings.Builder
	for i, res := range results {
		sb.WriteString(fmt.Sprintf("\n--- Email %d ---\n", i+1))
		sb.WriteString(res.Text)
		sb.WriteString("\n")
	}
	return sb.String()
}
