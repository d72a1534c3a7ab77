// Package frontmatter splits an optional leading YAML metadata fence
// from a Markdown document and decodes it into a key/value mapping.
package frontmatter

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnterminated is returned when a metadata fence opens at the top of
// the file but never closes. This is fatal: the document body cannot be
// determined.
var ErrUnterminated = errors.New("unterminated frontmatter fence")

const fence = "---"

// Metadata is the decoded frontmatter mapping. Values are scalars or
// lists as written; arbitrary keys are preserved.
type Metadata map[string]any

// Split separates the optional leading metadata fence from the body.
// When no fence is present the whole input is the body and the returned
// metadata is empty.
func Split(src string) (Metadata, string, error) {
	lines := strings.Split(src, "\n")
	if len(lines) == 0 || strings.TrimRight(lines[0], " \t\r") != fence {
		return Metadata{}, src, nil
	}

	for i := 1; i < len(lines); i++ {
		marker := strings.TrimRight(lines[i], " \t\r")
		if marker == fence || marker == "..." {
			meta, err := decode(strings.Join(lines[1:i], "\n"))
			if err != nil {
				return nil, "", err
			}
			return meta, strings.Join(lines[i+1:], "\n"), nil
		}
	}
	return nil, "", fmt.Errorf("frontmatter opened at line 1: %w", ErrUnterminated)
}

func decode(raw string) (Metadata, error) {
	meta := Metadata{}
	if strings.TrimSpace(raw) == "" {
		return meta, nil
	}
	if err := yaml.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, fmt.Errorf("decode frontmatter: %w", err)
	}
	return meta, nil
}

// Marshal serializes the mapping back to YAML. Split(Marshal(m)) with
// fences re-applied yields an equal mapping.
func (m Metadata) Marshal() ([]byte, error) {
	return yaml.Marshal(map[string]any(m))
}

// Title returns the title key, or empty.
func (m Metadata) Title() string { return m.str("title") }

// Abstract returns the abstract key, falling back to summary.
func (m Metadata) Abstract() string {
	if s := m.str("abstract"); s != "" {
		return s
	}
	return m.str("summary")
}

// Tags returns the tags list. A scalar tag value is returned as a
// single-element list.
func (m Metadata) Tags() []string {
	switch v := m["tags"].(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return out
	case string:
		return []string{v}
	case nil:
		return nil
	default:
		return []string{fmt.Sprint(v)}
	}
}

func (m Metadata) str(key string) string {
	if v, ok := m[key]; ok && v != nil {
		return strings.TrimSpace(fmt.Sprint(v))
	}
	return ""
}
