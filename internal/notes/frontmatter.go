package notes

import (
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

const delimiter = "---"

var (
	ErrNoFrontmatter = errors.New("no frontmatter block")
	ErrUnclosed      = errors.New("unclosed frontmatter block")
)

// Frontmatter is the decoded metadata block of a note.
type Frontmatter map[string]any

// Split separates the "---" delimited metadata block from the body and decodes
// it. Block lists ("key:" followed by indented "- item" lines) decode as slices.
// A block that is not valid YAML is read line by line, so one hand-edited line
// only loses its own key.
func Split(content string) (Frontmatter, string, error) {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != delimiter {
		return nil, content, ErrNoFrontmatter
	}
	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == delimiter {
			end = i
			break
		}
	}
	if end < 0 {
		return nil, content, ErrUnclosed
	}

	block := lines[1:end]
	fm := Frontmatter{}
	if err := yaml.Unmarshal([]byte(strings.Join(block, "\n")), &fm); err != nil {
		fm = parseLines(block)
	}
	return fm, strings.Join(lines[end+1:], "\n"), nil
}

// parseLines reads "key: value" pairs and "- item" lists, splitting each pair
// on its first colon. Lines that fit neither shape are skipped.
func parseLines(lines []string) Frontmatter {
	fm := Frontmatter{}
	listKey := ""
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if item, ok := strings.CutPrefix(trimmed, "- "); ok && listKey != "" {
			items, _ := fm[listKey].([]any)
			fm[listKey] = append(items, unquote(item))
			continue
		}
		key, value, ok := strings.Cut(trimmed, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" || line != strings.TrimLeft(line, " \t") {
			listKey = ""
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			fm[key] = nil
			listKey = key
			continue
		}
		fm[key] = unquote(value)
		listKey = ""
	}
	return fm
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == '"' && s[len(s)-1] == '"' || s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}

// String returns the value of key as text; missing keys and nulls are "".
func (f Frontmatter) String(key string) string {
	v, ok := f[key]
	if !ok || v == nil {
		return ""
	}
	if t, ok := v.(time.Time); ok {
		return t.Format(time.DateOnly)
	}
	return strings.TrimSpace(cast.ToString(v))
}

func (f Frontmatter) Int(key string) (int, error) {
	v, ok := f[key]
	if !ok || v == nil {
		return 0, errors.New(key + ": missing")
	}
	return cast.ToIntE(v)
}

// Date parses key as an ISO calendar date.
func (f Frontmatter) Date(key string) (civil.Date, bool) {
	s := f.String(key)
	if s == "" {
		return civil.Date{}, false
	}
	d, err := civil.ParseDate(s)
	if err != nil {
		return civil.Date{}, false
	}
	return d, true
}

// Flag treats true, yes and 1 (any case) as set.
func (f Frontmatter) Flag(key string) bool {
	switch strings.ToLower(f.String(key)) {
	case "true", "yes", "1":
		return true
	}
	return false
}

func (f Frontmatter) List(key string) []string {
	v, ok := f[key]
	if !ok || v == nil {
		return nil
	}
	items, err := cast.ToStringSliceE(v)
	if err != nil {
		return []string{cast.ToString(v)}
	}
	return items
}

// FirstLine returns the first non-blank body line, trimmed.
func FirstLine(body string) string {
	for _, line := range strings.Split(body, "\n") {
		if s := strings.TrimSpace(line); s != "" {
			return s
		}
	}
	return ""
}
