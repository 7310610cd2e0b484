// Package pgstore is the server-backed vector store, built on PostgreSQL with
// the pgvector extension. It is selected when the store location is a
// postgres:// URL and shares the index across processes, unlike the embedded
// backend.
package pgstore

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pgvector/pgvector-go"

	"github.com/sagecor-solutions/resumeintel/internal/domain"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB is a store handle bound to one collection. The full handle runs on a
// connection pool; the primitive fallback runs on a single connection with no
// pooling or migrations.
type DB struct {
	db         querier
	collection string
	close      func() error

	// tx support requires a pool; the primitive handle falls back to
	// non-transactional writes.
	pool *pgxpool.Pool
}

// Open connects a pool to databaseURL, applies pending migrations and returns
// a handle bound to collection.
func Open(ctx context.Context, databaseURL, collection string) (*DB, error) {
	if collection == "" {
		return nil, fmt.Errorf("collection name must not be empty")
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if err := runMigrations(databaseURL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("applying migrations: %w", err)
	}

	return &DB{
		db:         pool,
		collection: collection,
		pool:       pool,
		close: func() error {
			pool.Close()
			return nil
		},
	}, nil
}

// OpenPrimitive opens a single unpooled connection and skips migrations.
// Writes through this handle are not transactional.
func OpenPrimitive(ctx context.Context, databaseURL, collection string) (*DB, error) {
	if collection == "" {
		return nil, fmt.Errorf("collection name must not be empty")
	}

	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting: %w", err)
	}
	return &DB{
		db:         conn,
		collection: collection,
		close: func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return conn.Close(ctx)
		},
	}, nil
}

// Exists reports whether the chunks table has been created at databaseURL.
func Exists(databaseURL string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		return false
	}
	defer conn.Close(ctx)

	var reg *string
	if err := conn.QueryRow(ctx, `SELECT to_regclass('resume_chunks')::text`).Scan(&reg); err != nil {
		return false
	}
	return reg != nil
}

func runMigrations(databaseURL string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("loading migration source: %w", err)
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("opening migration connection: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("creating migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("creating migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// Close releases the pool or connection behind the handle.
func (d *DB) Close() error {
	return d.close()
}

// AddChunks replaces the chunks of each referenced document. On the pooled
// handle the replace runs in one transaction; the primitive handle replaces
// without one.
func (d *DB) AddChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if d.pool == nil {
		return d.addChunks(ctx, d.db, chunks)
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := d.addChunks(ctx, tx, chunks); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func (d *DB) addChunks(ctx context.Context, q querier, chunks []domain.Chunk) error {
	seen := make(map[string]struct{})
	for _, c := range chunks {
		if _, ok := seen[c.DocumentID]; ok {
			continue
		}
		seen[c.DocumentID] = struct{}{}
		if _, err := q.Exec(ctx,
			`DELETE FROM resume_chunks WHERE collection = $1 AND document_id = $2`,
			d.collection, c.DocumentID,
		); err != nil {
			return fmt.Errorf("clearing previous chunks for %s: %w", c.DocumentID, err)
		}
	}

	for _, c := range chunks {
		profile, err := json.Marshal(c.Profile)
		if err != nil {
			return fmt.Errorf("encoding profile for chunk %s: %w", c.ID, err)
		}
		if _, err := q.Exec(ctx,
			`INSERT INTO resume_chunks (
				id, collection, document_id, document_name, ordinal, total_chunks,
				content, preview, kind, section_label, byte_start, byte_end,
				profile, parsing, embedding, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
			c.ID, d.collection, c.DocumentID, c.DocumentName, c.Ordinal, c.TotalChunks,
			c.Text, c.Preview, string(c.Kind), c.SectionLabel, c.ByteStart, c.ByteEnd,
			profile, string(c.Parsing), pgvector.NewVector(c.Embedding),
			c.CreatedAt.UTC(), c.UpdatedAt.UTC(),
		); err != nil {
			return fmt.Errorf("inserting chunk %s: %w", c.ID, err)
		}
	}
	return nil
}

// DeleteDocument removes a document's chunks. Deleting an unknown document
// returns domain.ErrDocumentNotFound.
func (d *DB) DeleteDocument(ctx context.Context, documentID string) error {
	tag, err := d.db.Exec(ctx,
		`DELETE FROM resume_chunks WHERE collection = $1 AND document_id = $2`,
		d.collection, documentID,
	)
	if err != nil {
		return fmt.Errorf("deleting document %s: %w", documentID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", documentID, domain.ErrDocumentNotFound)
	}
	return nil
}

// Search returns the limit closest chunks by cosine distance, ascending,
// ordered by pgvector on the server side.
func (d *DB) Search(ctx context.Context, embedding []float32, limit int, documentID string) ([]domain.ScoredChunk, error) {
	if limit <= 0 {
		return nil, nil
	}

	vec := pgvector.NewVector(embedding)
	query := `
		SELECT id, document_id, document_name, ordinal, total_chunks,
		       content, preview, kind, section_label, byte_start, byte_end,
		       profile, parsing, embedding, created_at, updated_at,
		       embedding <=> $1 AS distance
		FROM resume_chunks
		WHERE collection = $2`
	args := []any{vec, d.collection}
	if documentID != "" {
		query += ` AND document_id = $3`
		args = append(args, documentID)
	}
	query += fmt.Sprintf(` ORDER BY embedding <=> $1 LIMIT %d`, limit)

	rows, err := d.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("searching chunks: %w", err)
	}
	defer rows.Close()

	var scored []domain.ScoredChunk
	for rows.Next() {
		var (
			c        domain.Chunk
			kind     string
			parsing  string
			profile  []byte
			emb      pgvector.Vector
			distance float64
		)
		if err := rows.Scan(
			&c.ID, &c.DocumentID, &c.DocumentName, &c.Ordinal, &c.TotalChunks,
			&c.Text, &c.Preview, &kind, &c.SectionLabel, &c.ByteStart, &c.ByteEnd,
			&profile, &parsing, &emb, &c.CreatedAt, &c.UpdatedAt, &distance,
		); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		c.Kind = domain.ChunkKind(kind)
		c.Parsing = domain.ParsingMethod(parsing)
		c.Embedding = emb.Slice()
		if err := json.Unmarshal(profile, &c.Profile); err != nil {
			return nil, fmt.Errorf("decoding profile for chunk %s: %w", c.ID, err)
		}
		c.Profile.Normalize()
		scored = append(scored, domain.ScoredChunk{Chunk: c, Distance: distance})
	}
	return scored, rows.Err()
}

// ListDocuments returns one summary per distinct document, newest first.
func (d *DB) ListDocuments(ctx context.Context) ([]domain.DocumentSummary, error) {
	rows, err := d.db.Query(ctx, `
		SELECT document_id, document_name, COUNT(*), MAX(updated_at)
		FROM resume_chunks
		WHERE collection = $1
		GROUP BY document_id, document_name
		ORDER BY MAX(updated_at) DESC`,
		d.collection,
	)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var summaries []domain.DocumentSummary
	for rows.Next() {
		var s domain.DocumentSummary
		if err := rows.Scan(&s.DocumentID, &s.Name, &s.ChunkCount, &s.LastUpdated); err != nil {
			return nil, fmt.Errorf("scanning document summary: %w", err)
		}
		s.Format = strings.TrimPrefix(strings.ToLower(filepath.Ext(s.Name)), ".")
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// KnownDocumentIDs returns the set of document IDs in the collection.
func (d *DB) KnownDocumentIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := d.db.Query(ctx,
		`SELECT DISTINCT document_id FROM resume_chunks WHERE collection = $1`,
		d.collection,
	)
	if err != nil {
		return nil, fmt.Errorf("listing document IDs: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning document ID: %w", err)
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}
