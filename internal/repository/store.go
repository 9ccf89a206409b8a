package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConcurrentModification is returned when a versioned update lost a race.
	ErrConcurrentModification = errors.New("concurrent modification")
	// ErrDuplicate is returned when a unique constraint rejects an insert.
	ErrDuplicate = errors.New("duplicate record")
)

const (
	pgUniqueViolation           = "23505"
	pgInvalidTextRepresentation = "22P02"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repos bundles every repository bound to one connection or transaction.
type Repos struct {
	Complaints     ComplaintRepository
	History        ComplaintHistoryRepository
	Rules          EscalationRuleRepository
	Users          UserRepository
	Comments       CommentRepository
	Votes          VoteRepository
	Feedback       FeedbackRepository
	Announcements  AnnouncementRepository
	Notifications  NotificationRepository
	PasswordResets PasswordResetRepository
}

// Store exposes repositories and a transactional boundary.
type Store interface {
	Repos() Repos
	// WithinTx runs fn with repositories bound to one transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Repos) error) error
	Ping(ctx context.Context) error
}

// NewRepos binds every Postgres repository to db.
func NewRepos(db DBTX) Repos {
	return Repos{
		Complaints:     NewComplaintRepository(db),
		History:        NewComplaintHistoryRepository(db),
		Rules:          NewEscalationRuleRepository(db),
		Users:          NewUserRepository(db),
		Comments:       NewCommentRepository(db),
		Votes:          NewVoteRepository(db),
		Feedback:       NewFeedbackRepository(db),
		Announcements:  NewAnnouncementRepository(db),
		Notifications:  NewNotificationRepository(db),
		PasswordResets: NewPasswordResetRepository(db),
	}
}

// PostgresStore is the pgx-backed Store.
type PostgresStore struct {
	pool  *pgxpool.Pool
	repos Repos
}

// NewPostgresStore wraps a pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, repos: NewRepos(pool)}
}

func (s *PostgresStore) Repos() Repos {
	return s.repos
}

func (s *PostgresStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Repos) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(ctx, NewRepos(tx))
	})
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return ErrDuplicate
		case pgInvalidTextRepresentation:
			// A malformed uuid cannot name an existing row.
			return ErrNotFound
		}
	}
	return err
}

func pageBounds(limit, offset, defaultLimit int) (int, int) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
