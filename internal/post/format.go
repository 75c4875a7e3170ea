package post

import (
	"regexp"
	"strings"
	"time"
)

var tagPattern = regexp.MustCompile(`<[^>]+>`)

// DateLayout renders dates as "Mon D, YYYY".
const DateLayout = "Jan 2, 2006"

// Excerpt strips HTML tags from content and keeps the first two ". "-separated
// fragments, always followed by "...".
func Excerpt(content string) string {
	plain := tagPattern.ReplaceAllString(content, "")
	parts := strings.Split(plain, ". ")
	if len(parts) > 2 {
		parts = parts[:2]
	}
	return strings.Join(parts, ". ") + "..."
}

// FormatDate renders t in UTC using DateLayout.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// Summarize projects p for list responses.
func Summarize(p *Post) Summary {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return Summary{
		ID:      p.ID,
		Title:   p.Title,
		Excerpt: Excerpt(p.Content),
		Date:    FormatDate(p.Date),
		Tags:    tags,
		Author:  p.Author,
	}
}

// Describe projects p for the single-post response.
func Describe(p *Post) Detail {
	return Detail{Summary: Summarize(p), Content: p.Content}
}
