package dialog

import (
	"strings"

	"github.com/UnknownOlympus/waypoint/internal/resources"
)

// Command is a global command honored by every unit.
type Command int

const (
	CommandNone Command = iota
	CommandCancel
	CommandHelp
	CommandReset
)

func (c Command) String() string {
	switch c {
	case CommandCancel:
		return "cancel"
	case CommandHelp:
		return "help"
	case CommandReset:
		return "reset"
	default:
		return "none"
	}
}

// Interceptor recognizes the global commands before a unit sees its input.
type Interceptor struct {
	strings *resources.Strings
}

// NewInterceptor creates an interceptor matching the command tokens of strs.
func NewInterceptor(strs *resources.Strings) *Interceptor {
	return &Interceptor{strings: strs}
}

// Parse matches text against the command tokens, ignoring case.
func (i *Interceptor) Parse(text string) Command {
	switch {
	case resources.Is(text, i.strings.CancelCommand):
		return CommandCancel
	case resources.Is(text, i.strings.HelpCommand):
		return CommandHelp
	case resources.Is(text, i.strings.ResetCommand):
		return CommandReset
	default:
		return CommandNone
	}
}

// InterceptMessage handles a command typed by the user.
// Messages without text, such as a bare location payload, always reach the unit.
func (i *Interceptor) InterceptMessage(c *Context, msg *Message) (Command, bool) {
	if msg == nil || strings.TrimSpace(msg.Text) == "" {
		return CommandNone, false
	}

	cmd := i.Parse(msg.Text)
	if cmd == CommandNone {
		return CommandNone, false
	}
	i.handle(c, cmd)

	return cmd, true
}

// InterceptResponse handles the response of a finished child.
// An empty response ends the parent too; a command echo is handled as if the user typed it here.
func (i *Interceptor) InterceptResponse(c *Context, resp *Response) bool {
	if resp.IsEmpty() {
		c.Done(nil)
		return true
	}
	if resp.Command == "" {
		return false
	}

	cmd := i.Parse(resp.Command)
	if cmd == CommandNone {
		return false
	}
	i.handle(c, cmd)

	return true
}

func (i *Interceptor) handle(c *Context, cmd Command) {
	switch cmd {
	case CommandCancel:
		c.Say(i.strings.CancelPrompt)
		c.cancel()
	case CommandHelp:
		c.Say(i.strings.HelpMessage)
		c.Wait(c.Point())
	case CommandReset:
		// Only the root claims a reset; inner units hand it to their parent.
		if c.IsRoot() {
			c.Say(i.strings.ResetPrompt)
			c.Restart()
			return
		}
		c.Done(&Response{Command: i.strings.ResetCommand})
	case CommandNone:
	}
}
