package dialog

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
)

const snapshotVersion = 1

// ErrNoRegistry is returned when restoring a snapshot on an engine built without a registry.
var ErrNoRegistry = errors.New("engine has no unit registry")

type frameSnapshot struct {
	Kind  string          `json:"kind"`
	Root  bool            `json:"root,omitempty"`
	Point ResumePoint     `json:"point,omitempty"`
	State json.RawMessage `json:"state"`
}

type stackSnapshot struct {
	Version int             `json:"version"`
	Frames  []frameSnapshot `json:"frames"`
}

// Marshal encodes a suspended stack.
func (e *Engine) Marshal(st *Stack) ([]byte, error) {
	if st.Depth() == 0 || st.Finished {
		return nil, fmt.Errorf("%w: nothing to snapshot", ErrProtocolViolation)
	}

	snap := stackSnapshot{Version: snapshotVersion, Frames: make([]frameSnapshot, 0, st.Depth())}
	for _, f := range st.Frames {
		state, err := sonic.Marshal(f.Unit)
		if err != nil {
			return nil, fmt.Errorf("failed to encode unit %q: %w", f.Kind, err)
		}
		snap.Frames = append(snap.Frames, frameSnapshot{
			Kind:  f.Kind,
			Root:  f.Root,
			Point: f.Point,
			State: state,
		})
	}

	data, err := sonic.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to encode stack: %w", err)
	}

	return data, nil
}

// Unmarshal rebuilds a stack, re-creating every unit through the registry.
func (e *Engine) Unmarshal(data []byte) (*Stack, error) {
	if e.registry == nil {
		return nil, ErrNoRegistry
	}

	var snap stackSnapshot
	if err := sonic.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: failed to decode stack: %w", ErrProtocolViolation, err)
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("%w: unsupported snapshot version %d", ErrProtocolViolation, snap.Version)
	}
	if len(snap.Frames) == 0 {
		return nil, fmt.Errorf("%w: snapshot has no frames", ErrProtocolViolation)
	}

	st := &Stack{Frames: make([]*Frame, 0, len(snap.Frames))}
	for _, fs := range snap.Frames {
		unit, err := e.registry.New(fs.Kind)
		if err != nil {
			return nil, err
		}
		if err = sonic.Unmarshal(fs.State, unit); err != nil {
			return nil, fmt.Errorf("%w: failed to decode unit %q: %w", ErrProtocolViolation, fs.Kind, err)
		}
		st.Frames = append(st.Frames, &Frame{Kind: fs.Kind, Root: fs.Root, Point: fs.Point, Unit: unit})
	}

	return st, nil
}
