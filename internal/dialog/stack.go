package dialog

// Frame is the engine's record of one active unit.
type Frame struct {
	Kind  string
	Root  bool
	Point ResumePoint // Handler the next input is delivered to.
	Unit  Unit
}

// Stack owns the frames of one conversation, last in first out.
type Stack struct {
	Frames   []*Frame
	Finished bool
}

// Depth returns the number of active frames.
func (s *Stack) Depth() int {
	if s == nil {
		return 0
	}
	return len(s.Frames)
}

// Top returns the frame that receives the next message, or nil.
func (s *Stack) Top() *Frame {
	if s.Depth() == 0 {
		return nil
	}
	return s.Frames[len(s.Frames)-1]
}

// clone copies the frames so a turn can run without touching s until it commits.
func (s *Stack) clone() *Stack {
	out := &Stack{Frames: make([]*Frame, len(s.Frames)), Finished: s.Finished}
	for i, f := range s.Frames {
		frame := *f
		out.Frames[i] = &frame
	}
	return out
}

func (s *Stack) push(u Unit, root bool) *Frame {
	f := &Frame{Kind: u.Kind(), Root: root, Unit: u}
	s.Frames = append(s.Frames, f)
	return f
}

func (s *Stack) pop() {
	s.Frames[len(s.Frames)-1] = nil
	s.Frames = s.Frames[:len(s.Frames)-1]
}

func (s *Stack) clear() {
	clear(s.Frames)
	s.Frames = s.Frames[:0]
	s.Finished = true
}

// Turn is the outcome of one engine call.
type Turn struct {
	Replies  []Reply
	Commands []string  // Global commands recognized in the inbound message.
	Done     bool      // The stack finished; Result goes to the caller.
	Result   *Response // Nil after a cancel.
}
