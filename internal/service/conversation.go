// Package service hosts location dialogs for many conversations: it loads the suspended
// stack of a conversation, runs one turn and stores or discards the result.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/UnknownOlympus/waypoint/internal/dialog"
	"github.com/UnknownOlympus/waypoint/internal/events"
	"github.com/UnknownOlympus/waypoint/internal/location"
	"github.com/UnknownOlympus/waypoint/internal/metrics"
	"github.com/UnknownOlympus/waypoint/internal/models"
	"github.com/UnknownOlympus/waypoint/internal/repository"
	"github.com/UnknownOlympus/waypoint/internal/resources"
	"github.com/jonboulle/clockwork"
)

// ErrEmptyConversation is returned for inbound messages without a conversation id.
var ErrEmptyConversation = errors.New("conversation id is required")

// Inbound is one user message addressed to a conversation.
type Inbound struct {
	ConversationID string
	ChannelID      string
	Text           string
	Point          *models.GeoPoint
}

// Outcome is what the host answers for one inbound message.
type Outcome struct {
	Replies []dialog.Reply
	Done    bool
	Place   *models.Place // Set when the dialog finished with a location.
}

// ConversationService runs location dialogs on behalf of many conversations.
type ConversationService struct {
	log       *slog.Logger         // Logger for turn processing
	repo      repository.Interface // Store of suspended stacks and captured locations
	engine    *dialog.Engine       // Engine driving the stacks
	deps      *location.Dependencies
	strs      *resources.Strings
	publisher events.Publisher // Downstream sink of finished captures
	metrics   *metrics.Metrics // Metrics for turn processing
	clock     clockwork.Clock  // Clock for session expiry
	ttl       time.Duration    // Idle time after which a suspended dialog expires
	defaults  location.Options // Options of every new dialog; the channel comes from the message
	locks     stripedLock
}

// Config groups the collaborators of a ConversationService.
type Config struct {
	Log       *slog.Logger
	Repo      repository.Interface
	Engine    *dialog.Engine
	Deps      *location.Dependencies
	Publisher events.Publisher
	Metrics   *metrics.Metrics
	Clock     clockwork.Clock
	TTL       time.Duration
	Defaults  location.Options
}

// NewConversationService creates the host. A nil clock means the real clock and a nil publisher discards events.
func NewConversationService(cfg Config) *ConversationService {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Publisher == nil {
		cfg.Publisher = events.Discard{}
	}

	return &ConversationService{
		log:       cfg.Log,
		repo:      cfg.Repo,
		engine:    cfg.Engine,
		deps:      cfg.Deps,
		strs:      cfg.Deps.Strings,
		publisher: cfg.Publisher,
		metrics:   cfg.Metrics,
		clock:     cfg.Clock,
		ttl:       cfg.TTL,
		defaults:  cfg.Defaults,
	}
}

// Handle runs one turn of the conversation's dialog, starting a new one when none is suspended.
// A failed turn leaves the stored session untouched.
func (s *ConversationService) Handle(ctx context.Context, in Inbound) (*Outcome, error) {
	if strings.TrimSpace(in.ConversationID) == "" {
		return nil, ErrEmptyConversation
	}

	unlock := s.locks.lock(in.ConversationID)
	defer unlock()

	startTime := s.clock.Now()
	defer func() {
		s.metrics.TurnSeconds.Observe(s.clock.Since(startTime).Seconds())
	}()

	out, err := s.handle(ctx, in)
	if err != nil {
		s.metrics.TurnsProcessed.WithLabelValues("failure").Inc()
		s.log.ErrorContext(ctx, "Turn failed", "conversation_id", in.ConversationID, "error", err)
		return nil, err
	}

	s.metrics.TurnsProcessed.WithLabelValues("success").Inc()
	return out, nil
}

func (s *ConversationService) handle(ctx context.Context, in Inbound) (*Outcome, error) {
	session, err := s.repo.LoadSession(ctx, in.ConversationID)
	switch {
	case errors.Is(err, repository.ErrSessionNotFound):
		return s.start(ctx, in, nil)
	case err != nil:
		return nil, err
	}

	if s.ttl > 0 && s.clock.Since(session.UpdatedAt) > s.ttl {
		s.log.InfoContext(ctx, "Session expired", "conversation_id", in.ConversationID, "updated_at", session.UpdatedAt)
		return s.restart(ctx, in)
	}

	st, err := s.engine.Unmarshal(session.State)
	if errors.Is(err, dialog.ErrProtocolViolation) {
		s.log.WarnContext(ctx, "Stored session is unusable", "conversation_id", in.ConversationID, "error", err)
		return s.restart(ctx, in)
	}
	if err != nil {
		return nil, err
	}

	turn, err := s.engine.Resume(ctx, st, dialog.Message{ChannelID: in.ChannelID, Text: in.Text, Point: in.Point})
	if errors.Is(err, dialog.ErrProtocolViolation) {
		s.log.WarnContext(ctx, "Dialog broke protocol", "conversation_id", in.ConversationID, "error", err)
		return s.restart(ctx, in)
	}
	if err != nil {
		return nil, err
	}

	return s.finish(ctx, in, st, turn, nil)
}

// restart drops the stored session and opens a new dialog behind a session-expired notice.
func (s *ConversationService) restart(ctx context.Context, in Inbound) (*Outcome, error) {
	if err := s.repo.DeleteSession(ctx, in.ConversationID); err != nil {
		return nil, err
	}

	return s.start(ctx, in, []dialog.Reply{{Text: s.strs.SessionExpired}})
}

func (s *ConversationService) start(ctx context.Context, in Inbound, preamble []dialog.Reply) (*Outcome, error) {
	opts := s.defaults
	opts.ChannelID = in.ChannelID

	root, err := location.New(opts, s.deps)
	if err != nil {
		return nil, err
	}

	st, turn, err := s.engine.Start(ctx, root)
	if err != nil {
		return nil, err
	}

	s.log.DebugContext(ctx, "Dialog started", "conversation_id", in.ConversationID, "channel", in.ChannelID)
	return s.finish(ctx, in, st, turn, preamble)
}

func (s *ConversationService) finish(
	ctx context.Context,
	in Inbound,
	st *dialog.Stack,
	turn dialog.Turn,
	preamble []dialog.Reply,
) (*Outcome, error) {
	for _, cmd := range turn.Commands {
		s.metrics.CommandsHandled.WithLabelValues(cmd).Inc()
	}

	out := &Outcome{Replies: append(preamble, turn.Replies...), Done: turn.Done}

	if !turn.Done {
		state, err := s.engine.Marshal(st)
		if err != nil {
			return nil, err
		}
		err = s.repo.SaveSession(ctx, repository.Session{
			ConversationID: in.ConversationID,
			ChannelID:      in.ChannelID,
			State:          state,
			UpdatedAt:      s.clock.Now(),
		})
		if err != nil {
			return nil, err
		}
		return out, nil
	}

	if err := s.repo.DeleteSession(ctx, in.ConversationID); err != nil {
		return nil, err
	}

	if turn.Result == nil || turn.Result.Location == nil {
		s.metrics.LocationsCaptured.WithLabelValues("cancelled").Inc()
		s.log.InfoContext(ctx, "Location capture cancelled", "conversation_id", in.ConversationID)
		return out, nil
	}

	out.Place = models.NewPlace(turn.Result.Location)
	if err := s.record(ctx, in, out.Place); err != nil {
		return nil, err
	}

	s.metrics.LocationsCaptured.WithLabelValues("captured").Inc()
	s.log.InfoContext(ctx, "Location captured", "conversation_id", in.ConversationID, "name", out.Place.Name)
	return out, nil
}

// record stores the capture and publishes it. A publishing failure is logged, not returned.
func (s *ConversationService) record(ctx context.Context, in Inbound, place *models.Place) error {
	now := s.clock.Now()

	err := s.repo.SaveCapturedLocation(ctx, repository.CapturedLocation{
		ConversationID: in.ConversationID,
		Place:          place,
		CapturedAt:     now,
	})
	if err != nil {
		return fmt.Errorf("failed to record capture: %w", err)
	}

	event := events.NewLocationCaptured(in.ConversationID, in.ChannelID, place, now)
	if err = s.publisher.Publish(ctx, event); err != nil {
		s.log.ErrorContext(ctx, "Failed to publish capture", "conversation_id", in.ConversationID, "error", err)
	}

	return nil
}

// History returns the latest captures of a conversation.
func (s *ConversationService) History(
	ctx context.Context,
	conversationID string,
	limit int,
) ([]repository.CapturedLocation, error) {
	return s.repo.RecentLocations(ctx, conversationID, limit)
}
