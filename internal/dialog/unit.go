// Package dialog implements a stack of suspendable conversation units.
//
// Each unit runs one handler per turn and ends it with exactly one verb on the
// Context: Wait suspends the unit at a resume point, Call pushes a child unit,
// Done pops the unit and hands a Response to its parent, and Restart re-runs
// the unit's start sequence. Only the top frame ever receives a message.
package dialog

import (
	"context"
	"errors"
	"fmt"
)

// ErrProtocolViolation is returned when a stack is driven in a way the engine cannot honor.
var ErrProtocolViolation = errors.New("dialog protocol violation")

// ResumePoint names the handler a suspended unit continues with.
type ResumePoint string

// Input is delivered to a resumed unit: either the next user message or the response of a finished child.
type Input struct {
	Message  *Message
	Response *Response
}

// Unit is one suspendable conversation step.
//
// Units keep their resumable state in exported fields so the stack can be
// snapshotted; collaborators are injected by the Registry constructor.
type Unit interface {
	Kind() string
	// Start resets the unit's state and runs its opening sequence.
	Start(ctx context.Context, c *Context) error
	// Resume continues the unit at the point it registered with Wait or Call.
	Resume(ctx context.Context, c *Context, point ResumePoint, in Input) error
}

// UnknownPoint builds the error a unit returns for a resume point it does not handle.
func UnknownPoint(kind string, point ResumePoint) error {
	return fmt.Errorf("%w: unit %q has no resume point %q", ErrProtocolViolation, kind, point)
}
