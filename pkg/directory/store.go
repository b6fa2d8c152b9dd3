package directory

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/kittclouds/labkit/pkg/kvstore"
	"github.com/kittclouds/labkit/pkg/search"
	"go.uber.org/zap"
)

// DefaultKey is the storage key the directory persists under.
const DefaultKey = "students"

// ErrDuplicateID is returned by Add when unique ids are enforced and the id
// is already present.
var ErrDuplicateID = errors.New("directory: duplicate student id")

// Store holds the students of the current session in insertion order.
// Thread-safe for concurrent access from WASM callbacks.
type Store struct {
	mu       sync.RWMutex
	students []Student

	storage        kvstore.Storage
	key            string
	uniqueIDs      bool
	log            *zap.Logger
	onRestoreError func(error)
}

// Option configures a Store.
type Option func(*Store)

// WithKey overrides the storage key.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithUniqueIDs makes Add reject ids that are already present.
func WithUniqueIDs() Option {
	return func(s *Store) { s.uniqueIDs = true }
}

// WithLogger sets the logger used for restore diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// OnRestoreError registers fn to be called when persisted data cannot be
// decoded. Restore still resets to an empty directory.
func OnRestoreError(fn func(error)) Option {
	return func(s *Store) { s.onRestoreError = fn }
}

// New creates an empty directory persisting into storage.
func New(storage kvstore.Storage, opts ...Option) *Store {
	s := &Store{
		students: []Student{},
		storage:  storage,
		key:      DefaultKey,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add appends a student and persists the whole directory.
// The student stays in memory even if persisting fails.
func (s *Store) Add(st Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.uniqueIDs && s.indexOf(st.ID) >= 0 {
		return fmt.Errorf("%w: %q", ErrDuplicateID, st.ID)
	}

	s.students = append(s.students, st)
	return s.persistLocked()
}

// All returns a snapshot of every student in insertion order.
func (s *Store) All() []Student {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Student, len(s.students))
	copy(out, s.students)
	return out
}

// Count returns the number of students.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.students)
}

// FindByID returns the first student whose id equals id exactly.
func (s *Store) FindByID(id string) (Student, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(id); i >= 0 {
		return s.students[i], true
	}
	return Student{}, false
}

// FindByName returns students whose first or last name contains text,
// case-insensitively. Blank text matches nothing.
func (s *Store) FindByName(text string) []Student {
	keyword := strings.ToLower(strings.TrimSpace(text))
	if keyword == "" {
		return []Student{}
	}

	return s.filter(func(st Student) bool {
		return strings.Contains(strings.ToLower(st.FirstName), keyword) ||
			strings.Contains(strings.ToLower(st.LastName), keyword)
	})
}

// FindByMajor returns students whose major contains text, case-insensitively.
// Blank text matches nothing.
func (s *Store) FindByMajor(text string) []Student {
	keyword := strings.ToLower(strings.TrimSpace(text))
	if keyword == "" {
		return []Student{}
	}

	return s.filter(func(st Student) bool {
		return strings.Contains(strings.ToLower(st.Major), keyword)
	})
}

// FindByEmail returns the first student whose email equals text, ignoring
// case and surrounding whitespace. No substring matching.
func (s *Store) FindByEmail(text string) (Student, bool) {
	email := strings.ToLower(strings.TrimSpace(text))

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, st := range s.students {
		if strings.ToLower(st.Email) == email {
			return st, true
		}
	}
	return Student{}, false
}

// Search returns students matching any keyword of a free-text query across
// name, major and email. Stopwords are ignored; a query with no keywords
// matches nothing.
func (s *Store) Search(query string) ([]Student, error) {
	m, err := search.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("compile query: %w", err)
	}
	if m.Empty() {
		return []Student{}, nil
	}

	return s.filter(func(st Student) bool {
		return m.Matches(st.haystack())
	}), nil
}

// Persist writes the whole directory to storage, overwriting the slot.
func (s *Store) Persist() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.persistLocked()
}

// Restore replaces the directory with the persisted copy.
// A missing key or an empty value leaves the directory as it is. Undecodable data resets the
// directory to empty and is reported through the logger and the
// OnRestoreError hook, never as a returned error. Only a storage failure is
// returned.
func (s *Store) Restore() error {
	data, ok, err := s.storage.GetItem(s.key)
	if err != nil {
		return fmt.Errorf("read %q: %w", s.key, err)
	}
	if !ok || data == "" {
		return nil
	}

	var loaded []Student
	decodeErr := json.Unmarshal([]byte(data), &loaded)

	s.mu.Lock()
	if decodeErr != nil || loaded == nil {
		s.students = []Student{}
	} else {
		s.students = loaded
	}
	s.mu.Unlock()

	if decodeErr != nil {
		s.log.Warn("failed to parse students from storage",
			zap.String("key", s.key),
			zap.Int("bytes", len(data)),
			zap.Error(decodeErr),
		)
		if s.onRestoreError != nil {
			s.onRestoreError(decodeErr)
		}
		return nil
	}

	s.log.Debug("restored students", zap.String("key", s.key), zap.Int("count", len(loaded)))
	return nil
}

func (s *Store) persistLocked() error {
	data, err := json.Marshal(s.students)
	if err != nil {
		return fmt.Errorf("encode students: %w", err)
	}
	if err := s.storage.SetItem(s.key, string(data)); err != nil {
		return fmt.Errorf("write %q: %w", s.key, err)
	}
	return nil
}

func (s *Store) indexOf(id string) int {
	for i, st := range s.students {
		if st.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) filter(keep func(Student) bool) []Student {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Student{}
	for _, st := range s.students {
		if keep(st) {
			out = append(out, st)
		}
	}
	return out
}
