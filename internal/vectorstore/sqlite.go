// Package vectorstore persists embedded email texts in a
// directory-backed SQLite database and answers nearest-neighbor
// queries over a named collection by brute-force cosine similarity.
// Entries are append-only: adding the same text twice creates two
// entries with distinct identifiers, never an upsert.
package vectorstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// ErrNotFound indicates that no persisted index exists at the
// expected location.
var ErrNotFound = errors.New("vector store not found")

// dbFileName is the database file inside the persist directory.
const dbFileName = "vectors.db"

// Entry is one indexed unit: the canonical text, its embedding, and
// the record metadata.
type Entry struct {
	ID        string
	Text      string
	Sender    string
	Subject   string
	Date      string
	Embedding []float32
}

// Result is a search hit with its similarity score.
type Result struct {
	Entry
	Similarity float64
}

// Store is a directory-backed vector collection store.
type Store struct {
	db *sqlx.DB
}

// Open opens (or creates) the store under dir, enables WAL mode, and
// runs any pending schema migrations.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory %s: %w", dir, err)
	}
	return open(filepath.Join(dir, dbFileName))
}

// OpenExisting opens the store under dir for querying. It fails with
// ErrNotFound when no index has been persisted there yet.
func OpenExisting(dir string) (*Store, error) {
	path := filepath.Join(dir, dbFileName)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf(
			"%w at %q: run the index command first", ErrNotFound, dir,
		)
	}
	return open(path)
}

func open(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *Store) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// entryRow is the database representation of an Entry.
type entryRow struct {
	ID         string `db:"id"`
	Collection string `db:"collection"`
	Text       string `db:"text"`
	Sender     string `db:"sender"`
	Subject    string `db:"subject"`
	Date       string `db:"date"`
	Embedding  string `db:"embedding"`
}

// Add appends one entry to the named collection.
func (s *Store) Add(ctx context.Context, collection string, e Entry) error {
	embedding, err := json.Marshal(e.Embedding)
	if err != nil {
		return fmt.Errorf("encoding embedding: %w", err)
	}

	const query = `
		INSERT INTO entries (id, collection, text, sender, subject, date, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		e.ID, collection, e.Text, e.Sender, e.Subject, e.Date, string(embedding),
	)
	if err != nil {
		return fmt.Errorf("inserting entry %s: %w", e.ID, err)
	}

	return nil
}

// Count returns the number of entries in the named collection.
func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM entries WHERE collection = ?", collection,
	)
	if err != nil {
		return 0, fmt.Errorf("counting entries: %w", err)
	}
	return n, nil
}

// Search returns the k entries of the collection most similar to the
// query vector, ordered by cosine similarity descending. Ties fall
// back to id order, which is engine-dependent and not part of the
// contract. k <= 0 yields no results.
func (s *Store) Search(
	ctx context.Context, collection string, query []float32, k int,
) ([]Result, error) {
	if k <= 0 {
		return nil, nil
	}

	const selectQuery = `
		SELECT id, collection, text, sender, subject, date, embedding
		FROM entries
		WHERE collection = ?`

	var rows []entryRow
	if err := s.db.SelectContext(ctx, &rows, selectQuery, collection); err != nil {
		return nil, fmt.Errorf("loading collection %q: %w", collection, err)
	}

	results := make([]Result, 0, len(rows))
	for _, row := range rows {
		var embedding []float32
		if err := json.Unmarshal([]byte(row.Embedding), &embedding); err != nil {
			return nil, fmt.Errorf("decoding embedding for entry %s: %w", row.ID, err)
		}

		results = append(results, Result{
			Entry: Entry{
				ID:        row.ID,
				Text:      row.Text,
				Sender:    row.Sender,
				Subject:   row.Subject,
				Date:      row.Date,
				Embedding: embedding,
			},
			Similarity: cosineSimilarity(query, embedding),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].ID < results[j].ID
	})

	if len(results) > k {
		results = results[:k]
	}

	return results, nil
}

// cosineSimilarity computes the cosine of the angle between two
// vectors. Mismatched dimensions or zero vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
