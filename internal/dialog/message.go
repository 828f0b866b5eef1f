package dialog

import "github.com/UnknownOlympus/waypoint/internal/models"

// Message is one inbound user activity.
type Message struct {
	ChannelID string           `json:"channel_id,omitempty"`
	Text      string           `json:"text,omitempty"`
	Point     *models.GeoPoint `json:"point,omitempty"` // Structured location pushed by the channel.
}

// Layout tells the channel how to arrange the cards of a reply.
type Layout string

const (
	LayoutList     Layout = "list"
	LayoutCarousel Layout = "carousel"
)

// Reply is one outbound activity.
type Reply struct {
	Text            string   `json:"text,omitempty"`
	Layout          Layout   `json:"layout,omitempty"`
	Cards           []Card   `json:"cards,omitempty"`
	Buttons         []Button `json:"buttons,omitempty"`
	RequestLocation bool     `json:"request_location,omitempty"` // Ask the channel for its native location picker.
}

// Card is a hero card with an optional image.
type Card struct {
	Title    string `json:"title,omitempty"`
	Subtitle string `json:"subtitle,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// Button posts Value back as a message when tapped.
type Button struct {
	Title string `json:"title"`
	Value string `json:"value"`
}

// Response is what a finished unit hands to its parent: a location or a command echo.
// A nil response or one with neither field set means the flow was abandoned.
type Response struct {
	Location *models.Location `json:"location,omitempty"`
	Command  string           `json:"command,omitempty"`
}

// IsEmpty reports whether the response carries neither a location nor a command.
func (r *Response) IsEmpty() bool {
	return r == nil || (r.Location == nil && r.Command == "")
}
