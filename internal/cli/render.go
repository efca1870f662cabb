package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/rulesmith/internal/model"
)

const timestampLayout = "2006-01-02 15:04"

// RenderTable lays rows out in aligned columns under a bold header.
func RenderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	renderRow := func(cells []string, style lipgloss.Style) string {
		parts := make([]string, len(widths))
		for i := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			parts[i] = TableCellStyle.Width(widths[i] + 2).Render(cell)
		}
		return style.Render(lipgloss.JoinHorizontal(lipgloss.Top, parts...))
	}

	lines := []string{renderRow(headers, TableHeaderStyle)}
	for _, row := range rows {
		lines = append(lines, renderRow(row, lipgloss.NewStyle()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// PrintProposals writes a proposal table, or a notice when there are none.
func PrintProposals(w io.Writer, proposals []model.Proposal) error {
	if len(proposals) == 0 {
		_, err := fmt.Fprintln(w, FormatInfo("No proposals found."))
		return err
	}

	rows := make([][]string, 0, len(proposals))
	for _, p := range proposals {
		rows = append(rows, []string{
			p.ID,
			StatusStyle(string(p.Status)).Render(string(p.Status)),
			p.RuleType,
			proposalScope(p),
			orDash(p.RuleID),
			p.SubmittedBy,
			truncate(p.Description, 48),
		})
	}
	_, err := fmt.Fprintln(w, RenderTable(
		[]string{"ID", "STATUS", "TYPE", "SCOPE", "TARGET", "BY", "DESCRIPTION"}, rows))
	return err
}

func proposalScope(p model.Proposal) string {
	if p.KeepsScope() {
		return "(unchanged)"
	}
	return p.Scope().Label()
}

// PrintProposal writes a detail view of one proposal followed by its diff.
func PrintProposal(w io.Writer, p *model.Proposal) error {
	fields := [][2]string{
		{"Status", StatusStyle(string(p.Status)).Render(string(p.Status))},
		{"Type", p.RuleType},
		{"Scope", proposalScope(*p)},
		{"Target rule", p.TargetRuleID()},
		{"Parent", orDash(p.ParentRuleID)},
		{"Project", orDash(p.Project)},
		{"Submitted", p.Timestamp.Format(timestampLayout) + " by " + p.SubmittedBy},
		{"Description", p.Description},
	}
	if p.ReasonForChange != "" {
		fields = append(fields, [2]string{"Reason", p.ReasonForChange})
	}
	if len(p.AppliesTo) > 0 {
		fields = append(fields, [2]string{"Applies to", strings.Join(p.AppliesTo, ", ")})
	}

	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		lines = append(lines, SubtleStyle.Width(14).Render(f[0])+f[1])
	}
	body := strings.Join(lines, "\n") + "\n\n" + strings.TrimRight(p.Diff, "\n")

	_, err := fmt.Fprintln(w, RenderBox("Proposal "+p.ID, body))
	return err
}

// PrintRules writes a table of live rules.
func PrintRules(w io.Writer, rules []model.Rule) error {
	if len(rules) == 0 {
		_, err := fmt.Fprintln(w, FormatInfo("No rules found."))
		return err
	}

	rows := make([][]string, 0, len(rules))
	for _, r := range rules {
		rows = append(rows, []string{
			r.ID,
			fmt.Sprintf("v%d", r.Version),
			r.RuleType,
			r.Scope().Label(),
			orDash(r.ParentRuleID),
			orDash(r.Project),
			truncate(r.Description, 48),
		})
	}
	_, err := fmt.Fprintln(w, RenderTable(
		[]string{"ID", "VERSION", "TYPE", "SCOPE", "PARENT", "PROJECT", "DESCRIPTION"}, rows))
	return err
}

// PrintHistory writes the archived versions of a rule, newest first.
func PrintHistory(w io.Writer, ruleID string, versions []model.RuleVersion) error {
	if len(versions) == 0 {
		_, err := fmt.Fprintln(w, FormatInfo(fmt.Sprintf("No archived versions for %s.", ruleID)))
		return err
	}

	rows := make([][]string, 0, len(versions))
	for _, v := range versions {
		rows = append(rows, []string{
			fmt.Sprintf("v%d", v.Version),
			v.ArchivedAt.Format(timestampLayout),
			model.Scope{Level: v.ScopeLevel, ID: v.ScopeID}.Label(),
			v.AddedBy,
			truncate(v.Description, 56),
		})
	}
	_, err := fmt.Fprintln(w, RenderTable(
		[]string{"VERSION", "ARCHIVED", "SCOPE", "ADDED BY", "DESCRIPTION"}, rows))
	return err
}

// PrintEnhancements writes a table of enhancements.
func PrintEnhancements(w io.Writer, enhancements []model.Enhancement) error {
	if len(enhancements) == 0 {
		_, err := fmt.Fprintln(w, FormatInfo("No enhancements found."))
		return err
	}

	rows := make([][]string, 0, len(enhancements))
	for _, e := range enhancements {
		rows = append(rows, []string{
			e.ID,
			StatusStyle(string(e.Status)).Render(string(e.Status)),
			orDash(e.SuggestedBy),
			orDash(e.ProposalID),
			truncate(e.Description, 56),
		})
	}
	_, err := fmt.Fprintln(w, RenderTable(
		[]string{"ID", "STATUS", "BY", "PROPOSAL", "DESCRIPTION"}, rows))
	return err
}

// PrintFeedback writes the feedback recorded on a proposal.
func PrintFeedback(w io.Writer, feedback []model.Feedback) error {
	if len(feedback) == 0 {
		_, err := fmt.Fprintln(w, FormatInfo("No feedback yet."))
		return err
	}

	rows := make([][]string, 0, len(feedback))
	for _, f := range feedback {
		rows = append(rows, []string{
			f.CreatedAt.Format(timestampLayout),
			string(f.Type),
			orDash(f.UserID),
			truncate(f.Comments, 64),
		})
	}
	_, err := fmt.Fprintln(w, RenderTable([]string{"WHEN", "TYPE", "USER", "COMMENTS"}, rows))
	return err
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// truncate shortens s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
