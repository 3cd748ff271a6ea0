package models

import "strings"

// Status is the kanban column a feature sits in.
type Status string

const (
	StatusBacklog    Status = "BACKLOG"
	StatusNextUp     Status = "NEXT_UP"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
)

// Statuses lists every status in board order.
var Statuses = []Status{StatusBacklog, StatusNextUp, StatusInProgress, StatusDone}

var statusMeta = map[Status]struct {
	label       string
	emoji       string
	color       string
	description string
}{
	StatusBacklog:    {"Backlog", "📋", "#6b7280", "Features that are not yet started"},
	StatusNextUp:     {"Next Up", "⏭️", "#3b82f6", "Features that are scheduled for the next release"},
	StatusInProgress: {"In Progress", "🚧", "#f59e0b", "Features that are currently being worked on"},
	StatusDone:       {"Done", "✅", "#10b981", "Features that are completed"},
}

// Valid reports whether s is one of the four board statuses.
func (s Status) Valid() bool {
	_, ok := statusMeta[s]
	return ok
}

func (s Status) Label() string { return statusMeta[s].label }

func (s Status) Emoji() string { return statusMeta[s].emoji }

func (s Status) Description() string { return statusMeta[s].description }

// DefaultColor is the badge colour used when a roadmap sets no override.
func (s Status) DefaultColor() string { return statusMeta[s].color }

// ParseStatus accepts the canonical value as well as loose spellings such as
// "next-up" or "In Progress". The second result is false for unknown input.
func ParseStatus(raw string) (Status, bool) {
	normalised := strings.ToUpper(strings.TrimSpace(raw))
	normalised = strings.NewReplacer("-", "_", " ", "_").Replace(normalised)
	status := Status(normalised)
	if !status.Valid() {
		return "", false
	}
	return status, true
}
