package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"catalogsync/internal/adapters/tui/styles"
	"catalogsync/internal/application/commands"
	"catalogsync/internal/domain"
)

// frame collects the lines of one review screen
type frame struct {
	lines []string
}

func newFrame(stats *commands.AuditStats) *frame {
	f := &frame{lines: []string{styles.Title.Render("catalogsync review"), ""}}
	if stats != nil {
		f.add(styles.Subtitle.Render(statsLine(*stats)), "")
	}
	return f
}

func (f *frame) add(lines ...string) *frame {
	f.lines = append(f.lines, lines...)
	return f
}

// note adds a styled message followed by a gap; empty text adds nothing
func (f *frame) note(text string, isErr bool) *frame {
	if text == "" {
		return f
	}
	style := styles.Success
	if isErr {
		style = styles.ErrorMsg
	}
	return f.add(style.Render(text), "")
}

func (f *frame) help(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, styles.HelpKey.Render(h.Key)+" "+styles.HelpDesc.Render(h.Desc))
	}
	f.add(strings.Join(parts, styles.HelpSeparator.String()))
	return f.String()
}

func (f *frame) String() string {
	return styles.App.Render(strings.Join(f.lines, "\n"))
}

func statsLine(s commands.AuditStats) string {
	return fmt.Sprintf("%d records  %d matched  %d mismatched  %d orphans  %d unassigned  %d unused assets",
		s.TotalRecords, s.Matched, s.Mismatched, s.Orphans, s.Unassigned, s.UnusedAssets)
}

// renderRow draws one proposal: decision mark, record id in the color of
// the record's current status, name and target
func renderRow(it ReviewItem, selected bool) string {
	mark := "[ ]"
	switch it.Decision {
	case DecisionAccepted:
		mark = styles.Accepted.Render("[✓]")
	case DecisionSkipped:
		mark = styles.MutedText.Render("[✗]")
	}

	id := lipgloss.NewStyle().Foreground(styles.StatusColor(it.Status.Status)).Render(fmt.Sprintf("%-8s", it.Entry.RecordID))
	text := fmt.Sprintf("%-32s → %s", truncate(it.Entry.RecordName, 32), it.Entry.ToRef)
	switch {
	case selected:
		text = styles.RowSelected.Render(text)
	case it.Decision == DecisionSkipped:
		text = styles.Skipped.Render(text)
	default:
		text = styles.Row.Render(text)
	}
	return mark + " " + id + " " + text
}

func renderDetail(it ReviewItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", styles.StatusBadge(it.Status.Status), it.Entry.RecordName)
	from := it.Entry.FromRef
	if from == "" {
		from = "(none)"
	}
	fmt.Fprintf(&b, "from  %s", from)
	if it.Status.Placeholder {
		b.WriteString(styles.MutedText.Render("  placeholder"))
	}
	fmt.Fprintf(&b, "\nto    %s\n", it.Entry.ToRef)
	fmt.Fprintf(&b, "%s, confidence %.2f", it.Entry.Reason, it.Entry.Confidence)
	if it.Entry.RuleIndex != nil {
		fmt.Fprintf(&b, ", rule #%d", *it.Entry.RuleIndex)
	}
	return styles.Detail.Render(b.String())
}

// renderFailures lists the records an apply run could not write
func renderFailures(results []domain.ItemResult) []string {
	var lines []string
	for _, r := range results {
		if !r.Success {
			lines = append(lines, styles.ErrorMsg.Render(r.ID)+"  "+r.Error)
		}
	}
	return lines
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
