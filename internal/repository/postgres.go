package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/UnknownOlympus/waypoint/internal/models"
	"github.com/bytedance/sonic"
	"github.com/jackc/pgx/v5"
)

// LoadSession returns the stored dialog stack of a conversation or ErrSessionNotFound.
func (r *Repository) LoadSession(ctx context.Context, conversationID string) (*Session, error) {
	query := `
		SELECT conversation_id, channel_id, state, updated_at
		FROM dialog_sessions
		WHERE conversation_id = $1;
	`

	var session Session
	err := r.db.QueryRow(ctx, query, conversationID).
		Scan(&session.ConversationID, &session.ChannelID, &session.State, &session.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	return &session, nil
}

// SaveSession inserts or replaces the dialog stack of a conversation.
func (r *Repository) SaveSession(ctx context.Context, session Session) error {
	query := `
		INSERT INTO dialog_sessions (conversation_id, channel_id, state, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (conversation_id) DO UPDATE
		SET
			channel_id = EXCLUDED.channel_id,
			state = EXCLUDED.state,
			updated_at = EXCLUDED.updated_at;
	`

	_, err := r.db.Exec(ctx, query, session.ConversationID, session.ChannelID, session.State, session.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	r.log.DebugContext(ctx, "Session saved", "conversation_id", session.ConversationID, "bytes", len(session.State))
	return nil
}

// DeleteSession removes the dialog stack of a conversation. Deleting a missing session is not an error.
func (r *Repository) DeleteSession(ctx context.Context, conversationID string) error {
	query := `DELETE FROM dialog_sessions WHERE conversation_id = $1;`

	if _, err := r.db.Exec(ctx, query, conversationID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}

// DeleteExpiredSessions removes every session not updated since before and returns how many were removed.
func (r *Repository) DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM dialog_sessions WHERE updated_at < $1;`

	tag, err := r.db.Exec(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	return tag.RowsAffected(), nil
}

// CountSessions returns the number of suspended dialogs.
func (r *Repository) CountSessions(ctx context.Context) (int, error) {
	query := `SELECT count(*) FROM dialog_sessions;`

	var count int
	if err := r.db.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}

	return count, nil
}

// SaveCapturedLocation records a finished capture.
func (r *Repository) SaveCapturedLocation(ctx context.Context, loc CapturedLocation) error {
	query := `
		INSERT INTO captured_locations (conversation_id, place, captured_at)
		VALUES ($1, $2, $3);
	`

	place, err := sonic.Marshal(loc.Place)
	if err != nil {
		return fmt.Errorf("failed to encode place: %w", err)
	}

	if _, err = r.db.Exec(ctx, query, loc.ConversationID, place, loc.CapturedAt); err != nil {
		return fmt.Errorf("failed to save captured location: %w", err)
	}

	return nil
}

// RecentLocations returns the latest captures of a conversation, newest first.
func (r *Repository) RecentLocations(ctx context.Context, conversationID string, limit int) ([]CapturedLocation, error) {
	query := `
		SELECT conversation_id, place, captured_at
		FROM captured_locations
		WHERE conversation_id = $1
		ORDER BY captured_at DESC
		LIMIT $2;
	`

	rows, err := r.db.Query(ctx, query, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query captured locations: %w", err)
	}
	defer rows.Close()

	var locations []CapturedLocation
	for rows.Next() {
		var (
			loc CapturedLocation
			raw []byte
		)
		if errScan := rows.Scan(&loc.ConversationID, &raw, &loc.CapturedAt); errScan != nil {
			return nil, fmt.Errorf("failed to scan captured location: %w", errScan)
		}
		loc.Place = &models.Place{}
		if errDecode := sonic.Unmarshal(raw, loc.Place); errDecode != nil {
			return nil, fmt.Errorf("failed to decode captured place: %w", errDecode)
		}
		locations = append(locations, loc)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read row: %w", err)
	}

	return locations, nil
}
