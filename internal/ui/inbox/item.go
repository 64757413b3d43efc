package inbox

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/email-agent/internal/model"
	"github.com/nhle/email-agent/internal/theme"
)

// EmailItem wraps a model.Email so it can be used in a bubbles/list.
type EmailItem struct {
	Email model.Email
}

// FilterValue returns the string used for fuzzy filtering.
func (i EmailItem) FilterValue() string {
	return i.Email.Subject + " " + i.Email.Sender
}

// Title returns the subject line for the list.
func (i EmailItem) Title() string { return i.Email.Subject }

// Description returns a short summary line for the list.
func (i EmailItem) Description() string {
	return i.Email.Sender
}

// ItemDelegate implements list.ItemDelegate for rendering inbox rows.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused for now).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single inbox row.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ei, ok := item.(EmailItem)
	if !ok {
		return
	}

	email := ei.Email
	isSelected := index == m.Index()

	var prefix string
	if email.Read {
		prefix = "○"
	} else {
		prefix = "●"
	}

	categoryBadge := renderCategoryBadge(email.Category)

	taskMarker := ""
	if set, err := model.DecodeActionItemSet(email.ActionItems); err == nil {
		if set.Failed() {
			taskMarker = lipgloss.NewStyle().
				Foreground(theme.ColorYellow).
				Render(" ⚠")
		} else if len(set.Tasks) > 0 {
			taskMarker = lipgloss.NewStyle().
				Foreground(theme.ColorGreen).
				Render(fmt.Sprintf(" ✓%d", len(set.Tasks)))
		}
	}

	sender := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(email.Sender)

	subject := email.Subject
	if !email.Read {
		subject = theme.UnreadStyle.Render(subject)
	}

	timeStr := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(relativeTime(email.Timestamp))

	line := fmt.Sprintf(
		"%s %s %s — %s%s  %s",
		prefix, categoryBadge, subject, sender, taskMarker, timeStr,
	)

	if isSelected {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// renderCategoryBadge draws the category badge, or a muted placeholder
// for emails that have not been categorized yet.
func renderCategoryBadge(category string) string {
	if category == "" {
		return theme.CategoryStyle("").Render("—")
	}
	return theme.CategoryStyle(category).Render(category)
}

// relativeTime converts a stored ISO-8601 timestamp into a
// human-friendly relative string. Unparseable timestamps render as-is.
func relativeTime(ts string) string {
	if ts == "" {
		return ""
	}

	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		if t, err = time.Parse("2006-01-02T15:04:05", ts); err != nil {
			return ts
		}
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		mins := int(d.Minutes())
		if mins == 1 {
			return "1m ago"
		}
		return fmt.Sprintf("%dm ago", mins)
	case d < 24*time.Hour:
		hrs := int(d.Hours())
		if hrs == 1 {
			return "1h ago"
		}
		return fmt.Sprintf("%dh ago", hrs)
	case d < 7*24*time.Hour:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1d ago"
		}
		return fmt.Sprintf("%dd ago", days)
	default:
		weeks := int(d.Hours() / 24 / 7)
		if weeks == 1 {
			return "1w ago"
		}
		return fmt.Sprintf("%dw ago", weeks)
	}
}
