package food

import (
	"bytes"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

const bodyTag = "#foodtracker"

// logFileName is "{YYYY-MM-DD_HH-MM-SS}_{shortid}.md".
func logFileName(ts time.Time, shortID string) string {
	return fmt.Sprintf("%s_%s.md", ts.Format("2006-01-02_15-04-05"), shortID)
}

// renderFrontmatter encodes v as a "---" block followed by body. Struct
// fields keep their declaration order.
func renderFrontmatter(v any, body string) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encode frontmatter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encode frontmatter: %w", err)
	}
	return "---\n" + buf.String() + "---\n\n" + body, nil
}

type stamp struct {
	Date string `yaml:"date"`
	Time string `yaml:"time"`
}

func stampOf(ts time.Time) stamp {
	return stamp{Date: ts.Format(time.DateOnly), Time: ts.Format("15:04")}
}
