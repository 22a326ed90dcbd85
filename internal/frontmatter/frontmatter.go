// Package frontmatter encodes and decodes the retention metadata block
// prefixed to every record file, and infers metadata for legacy records
// written before the block existed.
package frontmatter

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zcf0508/mem-mcp/internal/model"
)

// Marker delimits the metadata block at the very start of a record.
const Marker = "---"

// TimeLayout is the canonical timestamp encoding.
const TimeLayout = time.RFC3339Nano

// block mirrors the four required fields. Strict decoding rejects extras.
type block struct {
	Priority       string `yaml:"priority"`
	CreatedAt      string `yaml:"createdAt"`
	UpdatedAt      string `yaml:"updatedAt"`
	LastAccessedAt string `yaml:"lastAccessedAt"`
}

// Decode splits raw into (metadata, body). ok is false when no well-formed
// block is present; partial or malformed blocks are never accepted, the
// whole content is then the legacy body.
func Decode(raw string) (model.Metadata, string, bool) {
	var zero model.Metadata
	lines := strings.Split(raw, "\n")
	if len(lines) < 3 || strings.TrimRight(lines[0], "\r") != Marker {
		return zero, raw, false
	}
	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimRight(lines[i], "\r") == Marker {
			end = i
			break
		}
	}
	if end < 0 {
		return zero, raw, false
	}

	var b block
	dec := yaml.NewDecoder(strings.NewReader(strings.Join(lines[1:end], "\n")))
	dec.KnownFields(true)
	if err := dec.Decode(&b); err != nil {
		return zero, raw, false
	}
	if b.Priority == "" || b.CreatedAt == "" || b.UpdatedAt == "" || b.LastAccessedAt == "" {
		return zero, raw, false
	}
	prio, err := model.ParsePriority(b.Priority)
	if err != nil {
		return zero, raw, false
	}
	created, err := parseTime(b.CreatedAt)
	if err != nil {
		return zero, raw, false
	}
	updated, err := parseTime(b.UpdatedAt)
	if err != nil {
		return zero, raw, false
	}
	accessed, err := parseTime(b.LastAccessedAt)
	if err != nil {
		return zero, raw, false
	}

	meta := model.Metadata{
		Priority:       prio,
		CreatedAt:      created,
		UpdatedAt:      updated,
		LastAccessedAt: accessed,
	}
	return meta, strings.Join(lines[end+1:], "\n"), true
}

// Encode emits the canonical form: the four fields in fixed order between
// marker lines, then the body. Round-trips with Decode byte for byte.
func Encode(meta model.Metadata, body string) string {
	var sb strings.Builder
	sb.WriteString(Marker)
	sb.WriteByte('\n')
	fmt.Fprintf(&sb, "priority: %s\n", meta.Priority)
	fmt.Fprintf(&sb, "createdAt: %s\n", meta.CreatedAt.Format(TimeLayout))
	fmt.Fprintf(&sb, "updatedAt: %s\n", meta.UpdatedAt.Format(TimeLayout))
	fmt.Fprintf(&sb, "lastAccessedAt: %s\n", meta.LastAccessedAt.Format(TimeLayout))
	sb.WriteString(Marker)
	sb.WriteByte('\n')
	sb.WriteString(body)
	return sb.String()
}

var legacyFooter = regexp.MustCompile(`^\*Created:\s*(.+?)\*$`)

// legacy timestamp layouts tried in order for the footer line.
var footerLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// InferLegacy builds metadata for a record with no block. createdAt comes
// from a trailing "*Created: ...*" footer when parseable, else modTime,
// else now. The body is left untouched, footer included.
func InferLegacy(body string, modTime, now time.Time) model.Metadata {
	created := now
	if !modTime.IsZero() {
		created = modTime
	}
	if ts, ok := footerTime(body); ok {
		created = ts
	}
	return model.Metadata{
		Priority:       model.PriorityP2,
		CreatedAt:      created,
		UpdatedAt:      created,
		LastAccessedAt: now,
	}
}

func footerTime(body string) (time.Time, bool) {
	lines := strings.Split(body, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		m := legacyFooter.FindStringSubmatch(line)
		if m == nil {
			return time.Time{}, false
		}
		for _, layout := range footerLayouts {
			if ts, err := time.Parse(layout, strings.TrimSpace(m[1])); err == nil {
				return ts, true
			}
		}
		return time.Time{}, false
	}
	return time.Time{}, false
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(TimeLayout, strings.TrimSpace(s))
}
