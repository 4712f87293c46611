package jsonstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/store"
)

// JSON-backed storage. Single file, human-readable, portable.
// The whole collection is rewritten on every change via temp file + rename,
// so a crash leaves either the old or the new document on disk.

const DataFileName = "todos.json"

type document struct {
	NextID int64        `json:"nextId"`
	Todos  []model.Todo `json:"todos"`
}

// legacyItem covers both older layouts: the first CLI ({title, done}) and
// the plain in-memory page ({id, text, completed}).
type legacyItem struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	Done      bool   `json:"done"`
	CreatedAt int64  `json:"createdAt"`
}

type Store struct {
	store.Hub

	mu   sync.Mutex
	path string
}

var _ store.Store = (*Store)(nil)

// Open returns a store backed by dir/todos.json, creating dir if needed.
// The file itself is only created by the first write.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, store.Wrap("open", fmt.Errorf("mkdir: %w", err))
	}
	return &Store{path: filepath.Join(dir, DataFileName)}, nil
}

func (s *Store) Path() string { return s.path }

func (s *Store) Close() error { return nil }

func (s *Store) Add(ctx context.Context, t model.Todo) (int64, error) {
	var id int64
	err := s.write(ctx, "add", func(doc *document) error {
		id = doc.NextID
		doc.NextID++
		t.ID = id
		doc.Todos = append(doc.Todos, t)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Store) Get(ctx context.Context, id int64) (model.Todo, error) {
	if err := ctx.Err(); err != nil {
		return model.Todo{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return model.Todo{}, store.Wrap("get", err)
	}
	for _, t := range doc.Todos {
		if t.ID == id {
			return t, nil
		}
	}
	return model.Todo{}, store.NotFoundError{ID: id}
}

func (s *Store) Update(ctx context.Context, id int64, p model.Patch) error {
	if err := store.ValidatePatch(p); err != nil {
		return err
	}
	return s.write(ctx, "update", func(doc *document) error {
		for i := range doc.Todos {
			if doc.Todos[i].ID == id {
				p.Apply(&doc.Todos[i])
				return nil
			}
		}
		return store.NotFoundError{ID: id}
	})
}

func (s *Store) Remove(ctx context.Context, id int64) error {
	return s.write(ctx, "remove", func(doc *document) error {
		for i := range doc.Todos {
			if doc.Todos[i].ID == id {
				doc.Todos = append(doc.Todos[:i], doc.Todos[i+1:]...)
				return nil
			}
		}
		return errUnchanged
	})
}

func (s *Store) Clear(ctx context.Context) error {
	return s.write(ctx, "clear", func(doc *document) error {
		doc.Todos = []model.Todo{}
		return nil
	})
}

func (s *Store) List(ctx context.Context) ([]model.Todo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return nil, store.Wrap("list", err)
	}
	return sorted(doc.Todos), nil
}

// errUnchanged lets a mutation skip the save without reporting an error.
var errUnchanged = errors.New("unchanged")

func (s *Store) write(ctx context.Context, op string, mutate func(*document) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	doc, err := s.load()
	if err != nil {
		s.mu.Unlock()
		return store.Wrap(op, err)
	}
	if err := mutate(&doc); err != nil {
		s.mu.Unlock()
		if errors.Is(err, errUnchanged) {
			return nil
		}
		return err
	}
	if err := s.save(doc); err != nil {
		s.mu.Unlock()
		return store.Wrap(op, err)
	}
	var snap []model.Todo
	notify := s.Active()
	if notify {
		snap = sorted(doc.Todos)
	}
	s.mu.Unlock()

	if notify {
		s.Publish(snap)
	}
	return nil
}

func (s *Store) load() (document, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return document{NextID: 1, Todos: []model.Todo{}}, nil
		}
		return document{}, fmt.Errorf("read file: %w", err)
	}
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return document{NextID: 1, Todos: []model.Todo{}}, nil
	}

	var doc document
	if b[0] == '[' {
		doc, err = decodeLegacy(b, s.modTime())
		if err != nil {
			return document{}, err
		}
	} else if err := json.Unmarshal(b, &doc); err != nil {
		return document{}, fmt.Errorf("json unmarshal: %w", err)
	}
	if doc.Todos == nil {
		doc.Todos = []model.Todo{}
	}
	for _, t := range doc.Todos {
		if t.ID >= doc.NextID {
			doc.NextID = t.ID + 1
		}
	}
	if doc.NextID < 1 {
		doc.NextID = 1
	}
	return doc, nil
}

func (s *Store) save(doc document) error {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".todos-*.json")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

func (s *Store) modTime() time.Time {
	fi, err := os.Stat(s.path)
	if err != nil {
		return time.Now()
	}
	return fi.ModTime()
}

// decodeLegacy converts a bare JSON array into a document. Items keep the
// id they had when no earlier item claimed it; missing or repeated ids get
// fresh ones above the highest id in the file. A millisecond-timestamp id
// (the page used Date.now()) doubles as the creation time; the rest are
// ordered by position. Items with blank text are dropped. None of them were
// ever sent anywhere, so all start unsynced.
func decodeLegacy(b []byte, mtime time.Time) (document, error) {
	var items []legacyItem
	if err := json.Unmarshal(b, &items); err != nil {
		return document{}, fmt.Errorf("json unmarshal legacy: %w", err)
	}
	const msTimestamp = 1_000_000_000_000

	var maxID int64
	for _, it := range items {
		if it.ID > maxID {
			maxID = it.ID
		}
	}
	next := maxID + 1
	used := make(map[int64]bool, len(items))

	doc := document{NextID: 1, Todos: make([]model.Todo, 0, len(items))}
	base := mtime.UnixMilli()
	for i, it := range items {
		text := strings.TrimSpace(it.Text)
		if text == "" {
			text = strings.TrimSpace(it.Title)
		}
		if text == "" {
			continue
		}
		t := model.Todo{
			ID:        it.ID,
			Text:      text,
			Completed: it.Completed || it.Done,
			CreatedAt: it.CreatedAt,
		}
		if t.CreatedAt == 0 {
			if it.ID >= msTimestamp {
				t.CreatedAt = it.ID
			} else {
				// older entries were appended, so later index means newer
				t.CreatedAt = base - int64(len(items)-1-i)
			}
		}
		if t.ID <= 0 || used[t.ID] {
			t.ID = next
			next++
		}
		used[t.ID] = true
		doc.Todos = append(doc.Todos, t)
	}
	return doc, nil
}

func sorted(items []model.Todo) []model.Todo {
	out := make([]model.Todo, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool { return model.Newer(out[i], out[j]) })
	return out
}
