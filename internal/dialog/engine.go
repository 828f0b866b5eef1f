package dialog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/UnknownOlympus/waypoint/internal/resources"
)

// maxStarts bounds how many Start deliveries (calls and restarts) a single turn may make.
// Unwinding is not counted: each pop shrinks the stack, so it ends on its own.
const maxStarts = 64

// Engine drives stacks of units. It holds no per-conversation state and is safe for concurrent use;
// the caller must serialize turns of the same stack.
type Engine struct {
	interceptor *Interceptor
	registry    *Registry
	log         *slog.Logger
}

// NewEngine creates an engine. The registry is only needed to restore snapshots.
func NewEngine(strs *resources.Strings, registry *Registry, log *slog.Logger) *Engine {
	return &Engine{
		interceptor: NewInterceptor(strs),
		registry:    registry,
		log:         log,
	}
}

type deliveryKind int

const (
	deliverStart deliveryKind = iota
	deliverMessage
	deliverResponse
)

type delivery struct {
	kind     deliveryKind
	message  *Message
	response *Response
}

// Start pushes root as the outermost frame and runs its opening sequence.
func (e *Engine) Start(ctx context.Context, root Unit) (*Stack, Turn, error) {
	if root == nil {
		return nil, Turn{}, fmt.Errorf("%w: nil root unit", ErrProtocolViolation)
	}

	st := &Stack{}
	st.push(root, true)

	e.log.DebugContext(ctx, "Starting dialog", "kind", root.Kind())

	turn, err := e.run(ctx, st, delivery{kind: deliverStart})
	if err != nil {
		return nil, turn, err
	}

	return st, turn, nil
}

// Resume delivers msg to the top frame of st.
// The turn runs on a copy of the frames; st only changes when the turn succeeds.
// Unit state mutated by a failed handler is not rolled back.
func (e *Engine) Resume(ctx context.Context, st *Stack, msg Message) (Turn, error) {
	if st.Depth() == 0 || st.Finished {
		return Turn{}, fmt.Errorf("%w: resume on an empty or finished stack", ErrProtocolViolation)
	}

	work := st.clone()
	turn, err := e.run(ctx, work, delivery{kind: deliverMessage, message: &msg})
	if err != nil {
		return turn, err
	}
	*st = *work

	return turn, nil
}

func (e *Engine) run(ctx context.Context, st *Stack, next delivery) (Turn, error) {
	var turn Turn

	starts := 0
	if next.kind == deliverStart {
		starts++
	}

	for {
		top := st.Top()
		c := newContext(top, &turn)

		if err := e.step(ctx, c, top, next); err != nil {
			return turn, fmt.Errorf("unit %q: %w", top.Kind, err)
		}
		if c.verbs != 1 {
			return turn, fmt.Errorf("%w: unit %q ended its handler with %d verbs",
				ErrProtocolViolation, top.Kind, c.verbs)
		}

		e.log.DebugContext(ctx, "Unit transition",
			"kind", top.Kind,
			"verb", c.verb.String(),
			"point", string(c.point),
			"depth", st.Depth())

		switch c.verb {
		case verbWait:
			top.Point = c.point
			return turn, nil
		case verbCall:
			if c.child == nil {
				return turn, fmt.Errorf("%w: unit %q called a nil child", ErrProtocolViolation, top.Kind)
			}
			top.Point = c.point
			st.push(c.child, false)
			next = delivery{kind: deliverStart}
			starts++
		case verbRestart:
			top.Point = ""
			next = delivery{kind: deliverStart}
			starts++
		case verbDone:
			st.pop()
			if st.Depth() == 0 {
				st.Finished = true
				turn.Done = true
				turn.Result = c.response
				return turn, nil
			}
			next = delivery{kind: deliverResponse, response: c.response}
		case verbCancel:
			st.clear()
			turn.Done = true
			return turn, nil
		}

		if starts > maxStarts {
			return turn, fmt.Errorf("%w: turn did not settle after %d starts", ErrProtocolViolation, maxStarts)
		}
	}
}

func (e *Engine) step(ctx context.Context, c *Context, top *Frame, d delivery) error {
	switch d.kind {
	case deliverStart:
		return top.Unit.Start(ctx, c)
	case deliverMessage:
		if cmd, ok := e.interceptor.InterceptMessage(c, d.message); ok {
			c.turn.Commands = append(c.turn.Commands, cmd.String())
			e.log.InfoContext(ctx, "Command intercepted", "command", cmd.String(), "kind", top.Kind, "root", top.Root)
			return nil
		}
		return top.Unit.Resume(ctx, c, top.Point, Input{Message: d.message})
	default:
		if e.interceptor.InterceptResponse(c, d.response) {
			return nil
		}
		return top.Unit.Resume(ctx, c, top.Point, Input{Response: d.response})
	}
}
