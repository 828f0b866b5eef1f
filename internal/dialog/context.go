package dialog

type verb int

const (
	verbNone verb = iota
	verbWait
	verbCall
	verbDone
	verbRestart
	verbCancel
)

func (v verb) String() string {
	switch v {
	case verbWait:
		return "wait"
	case verbCall:
		return "call"
	case verbDone:
		return "done"
	case verbRestart:
		return "restart"
	case verbCancel:
		return "cancel"
	default:
		return "none"
	}
}

// Context is handed to a unit handler. It collects outbound replies and the verb that ends the handler.
type Context struct {
	frame    *Frame
	turn     *Turn
	verb     verb
	verbs    int
	point    ResumePoint
	child    Unit
	response *Response
}

func newContext(frame *Frame, turn *Turn) *Context {
	return &Context{frame: frame, turn: turn}
}

// IsRoot reports whether the running unit is the outermost frame.
func (c *Context) IsRoot() bool {
	return c.frame.Root
}

// Point returns the resume point the running unit was suspended at.
func (c *Context) Point() ResumePoint {
	return c.frame.Point
}

// Post queues a reply for the current turn.
func (c *Context) Post(r Reply) {
	c.turn.Replies = append(c.turn.Replies, r)
}

// Say posts a plain text reply.
func (c *Context) Say(text string) {
	c.Post(Reply{Text: text})
}

// Wait suspends the unit until the next message, which is delivered to point.
func (c *Context) Wait(point ResumePoint) {
	c.set(verbWait)
	c.point = point
}

// Call starts child on top of the unit; its response is delivered to point.
func (c *Context) Call(child Unit, point ResumePoint) {
	c.set(verbCall)
	c.child = child
	c.point = point
}

// Done finishes the unit and hands resp to its parent, or to the caller for the root frame.
func (c *Context) Done(resp *Response) {
	c.set(verbDone)
	c.response = resp
}

// Restart re-runs the unit's Start on the same frame.
func (c *Context) Restart() {
	c.set(verbRestart)
}

// cancel tears down the whole stack.
func (c *Context) cancel() {
	c.set(verbCancel)
}

func (c *Context) set(v verb) {
	c.verb = v
	c.verbs++
}
