package merkle

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS nodes (
	hash        TEXT PRIMARY KEY,
	parent_hash TEXT,
	bucket      BLOB NOT NULL,
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_nodes_parent ON nodes(parent_hash);
CREATE INDEX IF NOT EXISTS idx_nodes_created ON nodes(created_at);
`

// SQLiteStorer persists nodes in SQLite. Buckets are stored as
// zstd-compressed JSON since notes can run to hundreds of kilobytes.
type SQLiteStorer struct {
	db  *sql.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
	now func() time.Time
}

var _ Storer = (*SQLiteStorer)(nil)

// NewSQLiteStorer opens (and creates if needed) the database at path.
// Use ":memory:" for an in-memory database.
func NewSQLiteStorer(path string) (*SQLiteStorer, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &SQLiteStorer{db: db, enc: enc, dec: dec, now: time.Now}, nil
}

func (s *SQLiteStorer) Put(ctx context.Context, node *Node) (bool, error) {
	if node == nil {
		return false, errors.New("cannot store nil node")
	}

	raw, err := json.Marshal(node.Bucket)
	if err != nil {
		return false, fmt.Errorf("marshal bucket: %w", err)
	}
	created := node.CreatedAt
	if created.IsZero() {
		created = s.now()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO nodes (hash, parent_hash, bucket, created_at) VALUES (?, ?, ?, ?)`,
		node.Hash, node.ParentHash, s.enc.EncodeAll(raw, nil), created.UnixNano(),
	)
	if err != nil {
		return false, fmt.Errorf("insert node %s: %w", node.Hash, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteStorer) Get(ctx context.Context, hash string) (*Node, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT hash, parent_hash, bucket, created_at FROM nodes WHERE hash = ?`, hash)
	node, err := s.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound{Hash: hash}
	}
	return node, err
}

func (s *SQLiteStorer) Has(ctx context.Context, hash string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM nodes WHERE hash = ?`, hash).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *SQLiteStorer) Children(ctx context.Context, parentHash string) ([]*Node, error) {
	return s.query(ctx,
		`SELECT hash, parent_hash, bucket, created_at FROM nodes WHERE parent_hash = ? ORDER BY created_at DESC, hash`,
		parentHash)
}

func (s *SQLiteStorer) List(ctx context.Context) ([]*Node, error) {
	return s.query(ctx,
		`SELECT hash, parent_hash, bucket, created_at FROM nodes ORDER BY created_at DESC, hash`)
}

func (s *SQLiteStorer) Leaves(ctx context.Context) ([]*Node, error) {
	return s.query(ctx, `
		SELECT n.hash, n.parent_hash, n.bucket, n.created_at FROM nodes n
		WHERE NOT EXISTS (SELECT 1 FROM nodes c WHERE c.parent_hash = n.hash)
		ORDER BY n.created_at DESC, n.hash`)
}

func (s *SQLiteStorer) Ancestry(ctx context.Context, hash string) ([]*Node, error) {
	return ancestry(ctx, s, hash)
}

func (s *SQLiteStorer) Close() error {
	s.enc.Close()
	s.dec.Close()
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteStorer) scan(row scanner) (*Node, error) {
	var (
		node       Node
		parentHash sql.NullString
		blob       []byte
		created    int64
	)
	if err := row.Scan(&node.Hash, &parentHash, &blob, &created); err != nil {
		return nil, err
	}
	if parentHash.Valid {
		p := parentHash.String
		node.ParentHash = &p
	}
	raw, err := s.dec.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress node %s: %w", node.Hash, err)
	}
	if err := json.Unmarshal(raw, &node.Bucket); err != nil {
		return nil, fmt.Errorf("unmarshal node %s: %w", node.Hash, err)
	}
	node.CreatedAt = time.Unix(0, created).UTC()
	return &node, nil
}

func (s *SQLiteStorer) query(ctx context.Context, q string, args ...any) ([]*Node, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	nodes := []*Node{}
	for rows.Next() {
		node, err := s.scan(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, rows.Err()
}
