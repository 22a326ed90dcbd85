package model

import (
	"strings"
	"time"
)

// Priority controls how long a record stays in hot storage without access.
type Priority string

const (
	// PriorityP0 marks a permanent record, never evicted.
	PriorityP0 Priority = "P0"
	// PriorityP1 keeps a record for 90 days after its last access.
	PriorityP1 Priority = "P1"
	// PriorityP2 keeps a record for 30 days after its last access. Default.
	PriorityP2 Priority = "P2"
)

// ParsePriority returns the priority for s, or ErrValidation when s is not
// one of the three valid tokens.
func ParsePriority(s string) (Priority, error) {
	p := Priority(s)
	if !p.Valid() {
		return "", ErrValidation
	}
	return p, nil
}

// Valid reports whether p is one of the three known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityP0, PriorityP1, PriorityP2:
		return true
	}
	return false
}

// Retention returns how long a record of this priority may go unaccessed
// before eviction. Zero means never.
func (p Priority) Retention() time.Duration {
	switch p {
	case PriorityP1:
		return 90 * 24 * time.Hour
	case PriorityP2:
		return 30 * 24 * time.Hour
	}
	return 0
}

// Metadata is the retention block attached to every record. It is either
// fully present and well-formed or treated as absent; partial blocks are
// never accepted.
type Metadata struct {
	Priority       Priority  `json:"priority"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	LastAccessedAt time.Time `json:"lastAccessedAt"`
}

// Record is one markdown file in a user's hot or archive directory.
type Record struct {
	Filename string   `json:"filename"`
	Body     string   `json:"body"`
	Meta     Metadata `json:"meta"`
}

// UntitledPlaceholder is shown for records whose body has no heading line.
const UntitledPlaceholder = "(untitled)"

// Title extracts the display title: the first markdown heading line in the
// body, or UntitledPlaceholder when none is found.
func (r *Record) Title() string {
	for _, line := range strings.Split(r.Body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			return strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
		}
	}
	return UntitledPlaceholder
}

// RecordSummary is the list() projection of a record.
type RecordSummary struct {
	Filename       string    `json:"filename"`
	Title          string    `json:"title"`
	Priority       Priority  `json:"priority"`
	LastAccessedAt time.Time `json:"lastAccessedAt"`
}
