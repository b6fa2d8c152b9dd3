package expense

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kittclouds/labkit/internal/store"
	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned when an expense id does not exist.
	ErrNotFound = errors.New("expense not found")
	// ErrClosed is returned by Watch after Close.
	ErrClosed = errors.New("expense service closed")
)

// Service manages expenses and live subscribers.
type Service struct {
	store store.Storer
	log   *zap.Logger

	mu     sync.Mutex
	subs   map[uint64]*subscriber
	nextID uint64
	closed bool
	wg     sync.WaitGroup
}

type subscriber struct {
	notify chan struct{} // capacity 1: pending refreshes coalesce
	done   chan struct{}
	once   sync.Once
}

func (s *subscriber) stop() {
	s.once.Do(func() { close(s.done) })
}

// NewService creates an expense service over a store.
func NewService(st store.Storer, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store: st,
		log:   log,
		subs:  make(map[uint64]*subscriber),
	}
}

// =============================================================================
// CRUD
// =============================================================================

// Add validates the form and stores a new expense.
func (s *Service) Add(ctx context.Context, f Form) (*store.Expense, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fields, err := f.Fields()
	if err != nil {
		return nil, err
	}

	e := &store.Expense{
		Title:    fields.Title,
		Amount:   fields.Amount,
		Type:     fields.Type,
		Category: fields.Category,
		Note:     fields.Note,
	}
	if err := s.store.AddExpense(e); err != nil {
		return nil, fmt.Errorf("failed to save expense: %w", err)
	}

	s.log.Debug("expense added", zap.String("id", e.ID), zap.String("type", string(e.Type)))
	s.publish()
	return e, nil
}

// Get loads one expense.
func (s *Service) Get(ctx context.Context, id string) (*store.Expense, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e, err := s.store.GetExpense(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load expense: %w", err)
	}
	if e == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e, nil
}

// Update validates the form and overwrites the expense's editable fields.
func (s *Service) Update(ctx context.Context, id string, f Form) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fields, err := f.Fields()
	if err != nil {
		return err
	}

	if err := s.store.UpdateExpense(id, fields); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return fmt.Errorf("failed to update expense: %w", err)
	}

	s.log.Debug("expense updated", zap.String("id", id))
	s.publish()
	return nil
}

// Delete removes an expense.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.store.DeleteExpense(id); err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}

	s.log.Debug("expense deleted", zap.String("id", id))
	s.publish()
	return nil
}

// List returns every expense, newest first.
func (s *Service) List(ctx context.Context) ([]*store.Expense, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.ListExpenses()
}

// Summary totals every stored expense.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	list, err := s.List(ctx)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(list), nil
}

// =============================================================================
// Live query
// =============================================================================

// Watch calls fn with the current list, then again with the full list after
// every change made through this service, until ctx is done or the returned
// cancel func is called. fn runs on a dedicated goroutine per subscriber;
// changes arriving while fn is busy are coalesced into one refresh.
func (s *Service) Watch(ctx context.Context, fn func([]*store.Expense)) (cancel func(), err error) {
	if fn == nil {
		return nil, errors.New("watch: nil callback")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sub := &subscriber{
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}

	// Register before the first read so a change landing in between still
	// triggers a refresh.
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = sub
	s.wg.Add(1)
	s.mu.Unlock()

	initial, err := s.store.ListExpenses()
	if err != nil {
		s.unsubscribe(id)
		s.wg.Done()
		return nil, err
	}

	go func() {
		defer s.wg.Done()
		defer s.unsubscribe(id)

		fn(initial)
		for {
			select {
			case <-sub.notify:
				list, err := s.store.ListExpenses()
				if err != nil {
					s.log.Warn("watch refresh failed", zap.Error(err))
					continue
				}
				fn(list)
			case <-ctx.Done():
				return
			case <-sub.done:
				return
			}
		}
	}()

	return sub.stop, nil
}

// Subscribers returns the number of active watchers.
func (s *Service) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Close stops every watcher and waits for their goroutines to exit.
func (s *Service) Close() {
	s.mu.Lock()
	s.closed = true
	for _, sub := range s.subs {
		sub.stop()
	}
	s.mu.Unlock()

	s.wg.Wait()
}

// Refresh re-delivers the list to every watcher. Use it after changing the
// store directly, e.g. after an import.
func (s *Service) Refresh() {
	s.publish()
}

func (s *Service) publish() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sub := range s.subs {
		select {
		case sub.notify <- struct{}{}:
		default:
		}
	}
}

func (s *Service) unsubscribe(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}

// =============================================================================
// User-facing messages
// =============================================================================

// UserMessage turns an error into the short message shown to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Message
	case errors.Is(err, ErrNotFound):
		return "the selected item was not found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "the request was cancelled"
	default:
		return "something went wrong, please try again"
	}
}
