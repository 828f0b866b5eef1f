package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/waypoint/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrSessionNotFound is returned when no suspended dialog is stored for a conversation.
var ErrSessionNotFound = errors.New("session not found")

// Database is the part of pgxpool.Pool the repository needs. pgxmock satisfies it in tests.
type Database interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Session is the stored snapshot of one conversation's dialog stack.
type Session struct {
	ConversationID string
	ChannelID      string
	State          []byte // Encoded dialog stack.
	UpdatedAt      time.Time
}

// CapturedLocation is one finished location capture.
type CapturedLocation struct {
	ConversationID string
	Place          *models.Place
	CapturedAt     time.Time
}

type Repository struct {
	db  Database
	log *slog.Logger
}

type Interface interface {
	LoadSession(ctx context.Context, conversationID string) (*Session, error)
	SaveSession(ctx context.Context, session Session) error
	DeleteSession(ctx context.Context, conversationID string) error
	DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error)
	CountSessions(ctx context.Context) (int, error)
	SaveCapturedLocation(ctx context.Context, loc CapturedLocation) error
	RecentLocations(ctx context.Context, conversationID string, limit int) ([]CapturedLocation, error)
}

// NewRepository creates a new instance of Repository with the provided Database.
// It returns a pointer to the newly created Repository.
func NewRepository(db Database, log *slog.Logger) *Repository {
	return &Repository{db: db, log: log}
}
