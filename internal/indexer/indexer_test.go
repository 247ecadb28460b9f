package indexer

import (
	"context"
	"errors"
	"testing"

	"github.com/nhle/mailmind/internal/model"
	"github.com/nhle/mailmind/internal/record"
	"github.com/nhle/mailmind/internal/vectorstore"
)

// fakeEmbedder returns a fixed vector and counts calls.
type fakeEmbedder struct {
	calls int
	err   error
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

// fakeStore collects added entries and serves canned search results.
type fakeStore struct {
	entries []vectorstore.Entry
	results []vectorstore.Result
}

func (f *fakeStore) Add(_ context.Context, _ string, e vectorstore.Entry) error {
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeStore) Search(_ context.Context, _ string, _ []float32, k int) ([]vectorstore.Result, error) {
	if k > len(f.results) {
		k = len(f.results)
	}
	return f.results[:k], nil
}

func validRecords(n int) []model.EmailRecord {
	records := make([]model.EmailRecord, n)
	for i := range records {
		records[i] = model.EmailRecord{
			Sender:  "alice@example.com",
			Subject: "Greetings",
			Date:    "Mon, 06 Jan 2025 10:00:00 +0000",
			Body:    "Hello there",
		}
	}
	return records
}

func TestIndex_EmptyInput(t *testing.T) {
	ix := NewIndexer(&fakeEmbedder{}, &fakeStore{}, "emails")

	_, err := ix.Index(context.Background(), nil)
	if !errors.Is(err, ErrEmptyInput) {
		t.Errorf("Index(nil) error = %v, want ErrEmptyInput", err)
	}
}

func TestIndex_ValidatesBeforeEmbedding(t *testing.T) {
	embedder := &fakeEmbedder{}
	ix := NewIndexer(embedder, &fakeStore{}, "emails")

	records := validRecords(3)
	records[2].Body = ""

	_, err := ix.Index(context.Background(), records)
	if err == nil {
		t.Fatal("expected a validation error")
	}
	if !record.IsValidationError(err) {
		t.Errorf("error %v is not a validation error", err)
	}
	if embedder.calls != 0 {
		t.Errorf("embedder called %d times before validation failed, want 0", embedder.calls)
	}
}

func TestIndex_WritesOneEntryPerRecord(t *testing.T) {
	embedder := &fakeEmbedder{}
	store := &fakeStore{}
	ix := NewIndexer(embedder, store, "emails")

	n, err := ix.Index(context.Background(), validRecords(3))
	if err != nil {
		t.Fatalf("Index() error = %v", err)
	}
	if n != 3 {
		t.Errorf("Index() = %d, want 3", n)
	}
	if len(store.entries) != 3 {
		t.Fatalf("store has %d entries, want 3", len(store.entries))
	}
	if embedder.calls != 3 {
		t.Errorf("embedder called %d times, want 3", embedder.calls)
	}

	for _, e := range store.entries {
		if e.ID == "" {
			t.Error("entry has an empty identifier")
		}
		if e.Sender != "alice@example.com" || e.Subject != "Greetings" {
			t.Errorf("entry metadata = %q/%q, want record metadata", e.Sender, e.Subject)
		}
	}
}

func TestIndex_RepeatedCallsCreateDistinctIdentifiers(t *testing.T) {
	store := &fakeStore{}
	ix := NewIndexer(&fakeEmbedder{}, store, "emails")

	records := validRecords(2)
	for i := 0; i < 2; i++ {
		if _, err := ix.Index(context.Background(), records); err != nil {
			t.Fatalf("Index() call %d error = %v", i+1, err)
		}
	}

	// No dedup: the second run on the same records appends new entries
	// under fresh identifiers.
	if len(store.entries) != 4 {
		t.Fatalf("store has %d entries, want 4", len(store.entries))
	}

	seen := make(map[string]bool)
	for _, e := range store.entries {
		if seen[e.ID] {
			t.Errorf("identifier %q reused across entries", e.ID)
		}
		seen[e.ID] = true
	}
}

func TestIndex_EmbedFailureAborts(t *testing.T) {
	embedErr := errors.New("backend down")
	store := &fakeStore{}
	ix := NewIndexer(&fakeEmbedder{err: embedErr}, store, "emails")

	_, err := ix.Index(context.Background(), validRecords(2))
	if !errors.Is(err, embedErr) {
		t.Errorf("Index() error = %v, want wrapped %v", err, embedErr)
	}
	if len(store.entries) != 0 {
		t.Errorf("store has %d entries after embed failure, want 0", len(store.entries))
	}
}

func TestRetrieve_ZeroCount(t *testing.T) {
	embedder := &fakeEmbedder{}
	r := NewRetriever(embedder, &fakeStore{}, "emails")

	results, err := r.Retrieve(context.Background(), "anything", 0)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Retrieve(k=0) returned %d results, want 0", len(results))
	}
	if embedder.calls != 0 {
		t.Errorf("embedder called %d times for k=0, want 0", embedder.calls)
	}
}

func TestRetrieve_NeverExceedsK(t *testing.T) {
	store := &fakeStore{results: []vectorstore.Result{
		{Entry: vectorstore.Entry{ID: "a", Text: "first"}},
		{Entry: vectorstore.Entry{ID: "b", Text: "second"}},
		{Entry: vectorstore.Entry{ID: "c", Text: "third"}},
	}}
	r := NewRetriever(&fakeEmbedder{}, store, "emails")

	results, err := r.Retrieve(context.Background(), "query", 2)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(results) > 2 {
		t.Errorf("Retrieve(k=2) returned %d results", len(results))
	}
}

func TestBuildContext(t *testing.T) {
	results := []vectorstore.Result{
		{Entry: vectorstore.Entry{Text: "first email text"}},
		{Entry: vectorstore.Entry{Text: "second email text"}},
	}

	got := BuildContext(results)
	want := "\n--- Email 1 ---\nfirst email text\n" +
		"\n--- Email 2 ---\nsecond email text\n"

	if got != want {
		t.Errorf("BuildContext() = %q, want %q", got, want)
	}
}

func TestBuildContext_Empty(t *testing.T) {
	if got := BuildContext(nil); got != "" {
		t.Errorf("BuildContext(nil) = %q, want empty", got)
	}
}
