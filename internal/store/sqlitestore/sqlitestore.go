// Package sqlitestore keeps todos as individual indexed rows in a SQLite
// database, one row per todo.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/store"

	_ "modernc.org/sqlite"
)

const DataFileName = "todos.sqlite"

const schemaVersion = "1"

type Store struct {
	store.Hub

	mu   sync.Mutex
	db   *sql.DB
	path string
}

var _ store.Store = (*Store)(nil)

// Open opens (creating if needed) dir/todos.sqlite and migrates it.
func Open(ctx context.Context, dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, store.Wrap("open", fmt.Errorf("mkdir: %w", err))
	}
	return OpenPath(ctx, filepath.Join(dir, DataFileName))
}

func OpenPath(ctx context.Context, path string) (*Store, error) {
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, store.Wrap("open", err)
	}
	// pragmas below are per connection
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, store.Wrap("open", err)
		}
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, store.Wrap("migrate", err)
	}
	return &Store{db: db, path: path}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			k TEXT PRIMARY KEY,
			v TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS todos (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			text TEXT NOT NULL,
			completed INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL,
			synced INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_todos_created_at ON todos(created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_todos_synced ON todos(synced);`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	_, err := db.ExecContext(ctx, `INSERT OR IGNORE INTO meta(k, v) VALUES('schema_version', ?)`, schemaVersion)
	return err
}

func (s *Store) Path() string { return s.path }

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Add(ctx context.Context, t model.Todo) (int64, error) {
	var id int64
	err := s.write(ctx, func() error {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO todos(text, completed, created_at, synced) VALUES(?, ?, ?, ?)`,
			t.Text, boolToInt(t.Completed), t.CreatedAt, boolToInt(t.Synced))
		if err != nil {
			return store.Wrap("add", err)
		}
		id, err = res.LastInsertId()
		return store.Wrap("add", err)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Store) Get(ctx context.Context, id int64) (model.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := s.db.QueryRowContext(ctx,
		`SELECT id, text, completed, created_at, synced FROM todos WHERE id = ?`, id)
	t, err := scanTodo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Todo{}, store.NotFoundError{ID: id}
	}
	if err != nil {
		return model.Todo{}, store.Wrap("get", err)
	}
	return t, nil
}

func (s *Store) Update(ctx context.Context, id int64, p model.Patch) error {
	if err := store.ValidatePatch(p); err != nil {
		return err
	}
	return s.write(ctx, func() error {
		// COALESCE keeps the stored value for fields the patch leaves nil.
		res, err := s.db.ExecContext(ctx,
			`UPDATE todos SET
				completed = COALESCE(?, completed),
				synced = COALESCE(?, synced)
			WHERE id = ?`,
			nullBool(p.Completed), nullBool(p.Synced), id)
		if err != nil {
			return store.Wrap("update", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return store.Wrap("update", err)
		}
		if n == 0 {
			return store.NotFoundError{ID: id}
		}
		return nil
	})
}

func (s *Store) Remove(ctx context.Context, id int64) error {
	return s.write(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id)
		return store.Wrap("remove", err)
	})
}

func (s *Store) Clear(ctx context.Context) error {
	return s.write(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM todos`)
		return store.Wrap("clear", err)
	})
}

func (s *Store) List(ctx context.Context) ([]model.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list(ctx)
}

func (s *Store) list(ctx context.Context) ([]model.Todo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text, completed, created_at, synced FROM todos ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, store.Wrap("list", err)
	}
	defer rows.Close()

	out := []model.Todo{}
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, store.Wrap("list", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Wrap("list", err)
	}
	return out, nil
}

// write runs fn under the store lock and, on success, publishes a fresh
// snapshot once the lock is released.
func (s *Store) write(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	if err := fn(); err != nil {
		s.mu.Unlock()
		return err
	}
	var snap []model.Todo
	notify := s.Active()
	if notify {
		var err error
		snap, err = s.list(ctx)
		if err != nil {
			// the write itself is committed; subscribers catch up on the next one
			notify = false
		}
	}
	s.mu.Unlock()

	if notify {
		s.Publish(snap)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTodo(sc scanner) (model.Todo, error) {
	var (
		t                 model.Todo
		completed, synced int
	)
	if err := sc.Scan(&t.ID, &t.Text, &completed, &t.CreatedAt, &synced); err != nil {
		return model.Todo{}, err
	}
	t.Completed = completed != 0
	t.Synced = synced != 0
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullBool(b *bool) sql.NullInt64 {
	if b == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(boolToInt(*b)), Valid: true}
}
