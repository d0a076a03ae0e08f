package layout

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/cazamitos/cazamitos/internal/ui/theme"
)

const (
	MinWidth  = 60
	MinHeight = 20

	// ContentMaxWidth caps line length of prose on wide terminals.
	ContentMaxWidth = 96
)

// KeyHint represents a key binding hint shown in the footer.
type KeyHint struct {
	Key         string
	Description string
}

// IsTooSmall returns true if the terminal is below minimum size.
func IsTooSmall(width, height int) bool {
	return width < MinWidth || height < MinHeight
}

// ContentWidth is the usable width for wrapped text inside a frame.
func ContentWidth(width int) int {
	w := width - 4
	if w > ContentMaxWidth {
		w = ContentMaxWidth
	}
	if w < 20 {
		w = 20
	}
	return w
}

// RenderMinSizeMessage renders the "terminal too small" message.
func RenderMinSizeMessage(width, height int) string {
	return lipgloss.NewStyle().
		Align(lipgloss.Center).
		Foreground(theme.Text).
		Width(width).
		Height(height).
		Render(fmt.Sprintf(
			"Terminal demasiado pequeña.\n\nAmplíala al menos a\n%d x %d\n\nActual: %d x %d",
			MinWidth, MinHeight, width, height,
		))
}

// RenderHeader renders the title bar. context is shown right-aligned,
// typically the subject and topic of the attempt.
func RenderHeader(title, context string, width int) string {
	left := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true).
		Render(" Cazamitos")

	center := lipgloss.NewStyle().
		Foreground(theme.Text).
		Render(title)

	right := lipgloss.NewStyle().
		Foreground(theme.Accent).
		Render(context)

	innerWidth := width - 4
	if innerWidth < 0 {
		innerWidth = 0
	}

	leftLen := lipgloss.Width(left)
	centerLen := lipgloss.Width(center)
	rightLen := lipgloss.Width(right)

	leftGap := (innerWidth-centerLen)/2 - leftLen
	if leftGap < 1 {
		leftGap = 1
	}
	rightGap := innerWidth - leftLen - leftGap - centerLen - rightLen
	if rightGap < 1 {
		// Drop the context before squeezing the title.
		right = ""
		rightGap = 0
	}

	content := left + strings.Repeat(" ", leftGap) + center + strings.Repeat(" ", rightGap) + right

	return lipgloss.NewStyle().
		Width(width).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Render(content)
}

// RenderFooter renders the footer with key hints.
func RenderFooter(hints []KeyHint, width int) string {
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		part := lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(h.Key) +
			" " +
			lipgloss.NewStyle().Foreground(theme.TextDim).Render(h.Description)
		parts = append(parts, part)
	}

	return lipgloss.NewStyle().
		Width(width).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Render(" " + strings.Join(parts, "   "))
}

// RenderAlert renders a dismissable error banner.
func RenderAlert(message string, width int) string {
	body := lipgloss.NewStyle().Bold(true).Render("Error: ") + message +
		lipgloss.NewStyle().Foreground(theme.TextDim).Render("   (Esc para cerrar)")
	return theme.Alert.Width(width).Render(body)
}

// RenderFrame composes header, optional alert, content and footer.
func RenderFrame(header, alert, content, footer string, width, height int) string {
	used := lipgloss.Height(header) + lipgloss.Height(footer)
	if alert != "" {
		used += lipgloss.Height(alert)
	}
	contentHeight := height - used
	if contentHeight < 0 {
		contentHeight = 0
	}

	styledContent := lipgloss.NewStyle().
		Width(width).
		Height(contentHeight).
		MaxHeight(contentHeight).
		Render(content)

	parts := []string{header}
	if alert != "" {
		parts = append(parts, alert)
	}
	parts = append(parts, styledContent, footer)
	return strings.Join(parts, "\n")
}
