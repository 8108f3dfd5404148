package slack

import "github.com/sjzar/sentry-slack/pkg/model"

// ParseNone disables the destination's automatic link and mention parsing.
const ParseNone = "none"

// Payload is the JSON document posted to the incoming webhook.
type Payload struct {
	Parse       string       `json:"parse"`
	Attachments []Attachment `json:"attachments"`
	Username    string       `json:"username,omitempty"`
	Channel     string       `json:"channel,omitempty"`
	IconURL     string       `json:"icon_url,omitempty"`
}

// Attachment is the styled block carrying the error summary.
type Attachment struct {
	Fallback  string  `json:"fallback"`
	Title     string  `json:"title"`
	TitleLink string  `json:"title_link"`
	Color     string  `json:"color"`
	Fields    []Field `json:"fields"`
}

type Field struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// form is what actually goes over the wire: the JSON payload wrapped in a
// single form field.
type form struct {
	Payload string `schema:"payload"`
}

var levelColors = map[model.Level]string{
	model.LevelDebug:   "cfd3da",
	model.LevelInfo:    "2788ce",
	model.LevelWarning: "f18500",
	model.LevelError:   "f43f20",
	model.LevelFatal:   "d20f2a",
}

// ColorForLevel maps a severity to its attachment color. Unknown levels get
// the error color.
func ColorForLevel(level model.Level) string {
	l, _ := model.ParseLevel(string(level))
	color, ok := levelColors[l]
	if !ok {
		color = levelColors[model.LevelError]
	}
	return "#" + color
}
