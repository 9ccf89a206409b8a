// Package memory provides an in-process Store used by tests and by the API
// when no Postgres DSN is configured.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
)

type voteKey struct {
	complaintID string
	userID      string
}

type state struct {
	complaints    map[string]*domain.Complaint
	history       []domain.HistoryRecord
	rules         map[string]*domain.EscalationRule
	users         map[string]*domain.User
	comments      []domain.Comment
	votes         map[voteKey]domain.Vote
	feedback      map[string]domain.Feedback
	announcements map[string]domain.Announcement
	notifications map[string]*domain.Notification
	resets        map[string]*domain.PasswordResetToken
}

func newState() *state {
	return &state{
		complaints:    make(map[string]*domain.Complaint),
		rules:         make(map[string]*domain.EscalationRule),
		users:         make(map[string]*domain.User),
		votes:         make(map[voteKey]domain.Vote),
		feedback:      make(map[string]domain.Feedback),
		announcements: make(map[string]domain.Announcement),
		notifications: make(map[string]*domain.Notification),
		resets:        make(map[string]*domain.PasswordResetToken),
	}
}

func (s *state) clone() *state {
	out := newState()
	for id, c := range s.complaints {
		out.complaints[id] = c.Clone()
	}
	out.history = append([]domain.HistoryRecord(nil), s.history...)
	for id, r := range s.rules {
		rule := *r
		out.rules[id] = &rule
	}
	for id, u := range s.users {
		user := *u
		out.users[id] = &user
	}
	out.comments = append([]domain.Comment(nil), s.comments...)
	for k, v := range s.votes {
		out.votes[k] = v
	}
	for k, v := range s.feedback {
		out.feedback[k] = v
	}
	for k, v := range s.announcements {
		out.announcements[k] = v
	}
	for id, n := range s.notifications {
		notification := *n
		out.notifications[id] = &notification
	}
	for k, t := range s.resets {
		token := *t
		out.resets[k] = &token
	}
	return out
}

// Option customises a Store.
type Option func(*Store)

// WithClock overrides the time source used for generated timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Store is a mutex-guarded Store implementation. Transactions run against a
// copy of the data that replaces the live copy only when the callback succeeds.
// Callbacks passed to WithinTx must only use the repositories they receive.
type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

// NewStore returns an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{st: newState(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ repository.Store = (*Store)(nil)

func (s *Store) Repos() repository.Repos {
	return s.bind(func() *state { return s.st }, &s.mu)
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.st.clone()
	if err := fn(ctx, s.bind(func() *state { return working }, noopLocker{})); err != nil {
		return err
	}
	s.st = working
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) bind(current func() *state, lock sync.Locker) repository.Repos {
	v := &view{current: current, lock: lock, now: s.now}
	return repository.Repos{
		Complaints:     complaintRepo{v},
		History:        historyRepo{v},
		Rules:          ruleRepo{v},
		Users:          userRepo{v},
		Comments:       commentRepo{v},
		Votes:          voteRepo{v},
		Feedback:       feedbackRepo{v},
		Announcements:  announcementRepo{v},
		Notifications:  notificationRepo{v},
		PasswordResets: resetRepo{v},
	}
}

type view struct {
	current func() *state
	lock    sync.Locker
	now     func() time.Time
}

// with runs fn while holding the view lock.
func (v *view) with(fn func(st *state) error) error {
	v.lock.Lock()
	defer v.lock.Unlock()
	return fn(v.current())
}

type noopLocker struct{}

func (noopLocker) Lock()   {}
func (noopLocker) Unlock() {}

func page[T any](items []T, limit, offset, defaultLimit int) []T {
	if limit <= 0 {
		limit = defaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
