// Package sqlitestore is the embedded vector store backend. It keeps chunks
// and their embeddings in a single SQLite file inside the store directory and
// answers similarity queries with brute-force cosine distance, which is fast
// enough for collections in the low tens of thousands of chunks.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/sagecor-solutions/resumeintel/internal/domain"
)

// DBFileName marks a directory as an initialized store.
const DBFileName = "resumestore.sqlite3"

const schema = `
CREATE TABLE IF NOT EXISTS chunks (
	id            TEXT PRIMARY KEY,
	collection    TEXT NOT NULL,
	document_id   TEXT NOT NULL,
	document_name TEXT NOT NULL,
	ordinal       INTEGER NOT NULL,
	total_chunks  INTEGER NOT NULL,
	content       TEXT NOT NULL,
	preview       TEXT NOT NULL,
	kind          TEXT NOT NULL,
	section_label TEXT NOT NULL DEFAULT '',
	byte_start    INTEGER NOT NULL,
	byte_end      INTEGER NOT NULL,
	profile       TEXT NOT NULL DEFAULT '{}',
	parsing       TEXT NOT NULL,
	embedding     BLOB NOT NULL,
	created_at    TIMESTAMP NOT NULL,
	updated_at    TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chunks_document ON chunks(collection, document_id);
`

// DB is a store handle bound to one collection within the SQLite file.
type DB struct {
	db         *sql.DB
	collection string
}

// Exists reports whether the store file is present under dir.
func Exists(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, DBFileName))
	return err == nil && !info.IsDir()
}

// Open creates or loads the store under dir with WAL journaling and a busy
// timeout, creating the directory and schema as needed.
func Open(ctx context.Context, dir, collection string) (*DB, error) {
	return open(ctx, dir, collection, "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
}

// OpenPrimitive opens the store file with driver defaults only. It is the
// fallback used when the fully configured open keeps failing, typically
// because another process holds the WAL.
func OpenPrimitive(ctx context.Context, dir, collection string) (*DB, error) {
	return open(ctx, dir, collection, "")
}

func open(ctx context.Context, dir, collection, params string) (*DB, error) {
	if collection == "" {
		return nil, fmt.Errorf("collection name must not be empty")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, DBFileName)+params)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &DB{db: db, collection: collection}, nil
}

// Close closes the underlying database.
func (d *DB) Close() error {
	return d.db.Close()
}

// AddChunks replaces the chunks of each referenced document in one
// transaction, so readers never observe a half-replaced document.
func (d *DB) AddChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	seen := make(map[string]struct{})
	for _, c := range chunks {
		if _, ok := seen[c.DocumentID]; ok {
			continue
		}
		seen[c.DocumentID] = struct{}{}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM chunks WHERE collection = ? AND document_id = ?`,
			d.collection, c.DocumentID,
		); err != nil {
			return fmt.Errorf("clearing previous chunks for %s: %w", c.DocumentID, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (
			id, collection, document_id, document_name, ordinal, total_chunks,
			content, preview, kind, section_label, byte_start, byte_end,
			profile, parsing, embedding, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		profile, err := json.Marshal(c.Profile)
		if err != nil {
			return fmt.Errorf("encoding profile for chunk %s: %w", c.ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			c.ID, d.collection, c.DocumentID, c.DocumentName, c.Ordinal, c.TotalChunks,
			c.Text, c.Preview, string(c.Kind), c.SectionLabel, c.ByteStart, c.ByteEnd,
			string(profile), string(c.Parsing), encodeEmbedding(c.Embedding),
			c.CreatedAt.UTC(), c.UpdatedAt.UTC(),
		); err != nil {
			return fmt.Errorf("inserting chunk %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing chunks: %w", err)
	}
	return nil
}

// DeleteDocument removes a document's chunks. Deleting an unknown document
// returns domain.ErrDocumentNotFound.
func (d *DB) DeleteDocument(ctx context.Context, documentID string) error {
	res, err := d.db.ExecContext(ctx,
		`DELETE FROM chunks WHERE collection = ? AND document_id = ?`,
		d.collection, documentID,
	)
	if err != nil {
		return fmt.Errorf("deleting document %s: %w", documentID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("document %s: %w", documentID, domain.ErrDocumentNotFound)
	}
	return nil
}

// Search scans the collection and returns the limit closest chunks by cosine
// distance, ascending. A non-empty documentID narrows the scan to that one
// document.
func (d *DB) Search(ctx context.Context, embedding []float32, limit int, documentID string) ([]domain.ScoredChunk, error) {
	if limit <= 0 {
		return nil, nil
	}

	query := `
		SELECT id, document_id, document_name, ordinal, total_chunks,
		       content, preview, kind, section_label, byte_start, byte_end,
		       profile, parsing, embedding, created_at, updated_at
		FROM chunks WHERE collection = ?`
	args := []any{d.collection}
	if documentID != "" {
		query += ` AND document_id = ?`
		args = append(args, documentID)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("scanning chunks: %w", err)
	}
	defer rows.Close()

	var scored []domain.ScoredChunk
	for rows.Next() {
		c, emb, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		scored = append(scored, domain.ScoredChunk{
			Chunk:    c,
			Distance: cosineDistance(embedding, emb),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	sort.Slice(scored, func(i, j int) bool {
		return scored[i].Distance < scored[j].Distance
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// ListDocuments returns one summary per distinct document, newest first.
func (d *DB) ListDocuments(ctx context.Context) ([]domain.DocumentSummary, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT document_id, document_name, COUNT(*), MAX(updated_at)
		FROM chunks WHERE collection = ?
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
	rows, err := d.db.QueryContext(ctx,
		`SELECT DISTINCT document_id FROM chunks WHERE collection = ?`,
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

func scanChunk(rows *sql.Rows) (domain.Chunk, []float32, error) {
	var (
		c         domain.Chunk
		kind      string
		parsing   string
		profile   string
		embedding []byte
	)
	if err := rows.Scan(
		&c.ID, &c.DocumentID, &c.DocumentName, &c.Ordinal, &c.TotalChunks,
		&c.Text, &c.Preview, &kind, &c.SectionLabel, &c.ByteStart, &c.ByteEnd,
		&profile, &parsing, &embedding, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return domain.Chunk{}, nil, fmt.Errorf("scanning chunk: %w", err)
	}
	c.Kind = domain.ChunkKind(kind)
	c.Parsing = domain.ParsingMethod(parsing)
	if err := json.Unmarshal([]byte(profile), &c.Profile); err != nil {
		return domain.Chunk{}, nil, fmt.Errorf("decoding profile for chunk %s: %w", c.ID, err)
	}
	c.Profile.Normalize()
	emb := decodeEmbedding(embedding)
	c.Embedding = emb
	return c, emb, nil
}

// encodeEmbedding packs float32 coordinates as little-endian bytes.
func encodeEmbedding(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeEmbedding(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}

// cosineDistance is 1 - cos(a, b). Degenerate vectors get the maximum
// distance instead of NaN.
func cosineDistance(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 2
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}
