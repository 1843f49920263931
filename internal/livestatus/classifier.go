package livestatus

import (
	"strings"
	"time"
)

// DefaultPlaceholderKeywords and DefaultCutoffYear are used when configuration
// supplies nothing.
var DefaultPlaceholderKeywords = []string{"free chat", "聊天室", "chatroom", "chat"}

const DefaultCutoffYear = 2024

// Classifier separates genuine upcoming broadcasts from the long-lived
// "free chat" style listings some channels keep scheduled forever.
//
// The heuristic is fuzzy: a genuinely new stream with "chat" in its title is
// reported as a placeholder.
type Classifier struct {
	keywords   []string
	cutoffYear int
}

func NewClassifier(keywords []string, cutoffYear int) Classifier {
	kw := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			kw = append(kw, k)
		}
	}
	return Classifier{keywords: kw, cutoffYear: cutoffYear}
}

// IsPlaceholder applies the rules in order: keyword in title, then publish year
// before the cutoff. An unknown publish date is never treated as old.
func (c Classifier) IsPlaceholder(ev ChannelEvent) bool {
	if ev.Title != nil {
		title := strings.ToLower(*ev.Title)
		for _, kw := range c.keywords {
			if strings.Contains(title, kw) {
				return true
			}
		}
	}
	if year, ok := publishedYear(ev.PublishedAt); ok && c.cutoffYear > 0 && year < c.cutoffYear {
		return true
	}
	return false
}

// Partition splits upcoming events, keeping input order within each bucket.
// Events of any other kind are always returned as real.
func (c Classifier) Partition(events []ChannelEvent) (genuine, placeholders []ChannelEvent) {
	genuine = make([]ChannelEvent, 0, len(events))
	placeholders = make([]ChannelEvent, 0)
	for _, ev := range events {
		if ev.Kind == KindUpcoming && c.IsPlaceholder(ev) {
			placeholders = append(placeholders, ev)
			continue
		}
		genuine = append(genuine, ev)
	}
	return genuine, placeholders
}

var publishedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func publishedYear(s *string) (int, bool) {
	if s == nil {
		return 0, false
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return 0, false
	}
	for _, layout := range publishedLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC().Year(), true
		}
	}
	return 0, false
}
