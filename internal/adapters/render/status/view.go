package status

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bnema/tsdm-autosign/internal/application"
	"github.com/bnema/tsdm-autosign/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

type RenderOptions struct {
	Now        time.Time
	Automation bool
	// Cooldown scales the work progress bar; zero hides it.
	Cooldown time.Duration
}

func renderView(snapshots []application.AccountSnapshot, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("TSDM Accounts"),
		s.header.Render(fmt.Sprintf("accounts: %d  automation: %s", len(snapshots), onOff(opts.Automation))),
	}

	if len(snapshots) == 0 {
		lines = append(lines, s.empty.Render("No accounts. Add one with `tsdm auth login`."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, snapshot := range snapshots {
		lines = append(lines, s.section.Render(renderAccount(snapshot, opts, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderAccount(snapshot application.AccountSnapshot, opts RenderOptions, s styles) string {
	title := s.account.Render(string(snapshot.Account))
	if !snapshot.CredentialValid {
		title += " " + s.warning.Render("[credentials invalid]")
	}

	parts := []string{
		title,
		signLine(snapshot, s),
		workLine(snapshot, opts, s),
	}
	if line := queueLine(snapshot, s); line != "" {
		parts = append(parts, line)
	}
	if len(snapshot.NeedsAttention) > 0 {
		parts = append(parts, s.warning.Render("needs attention: "+joinKinds(snapshot.NeedsAttention)))
	}
	if snapshot.LastOutcome != nil {
		parts = append(parts, outcomeLine(*snapshot.LastOutcome, opts.Now, s))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func signLine(snapshot application.AccountSnapshot, s styles) string {
	label := s.key.Render("sign:")
	if snapshot.SignedToday {
		return label + " " + s.ok.Render("done today")
	}

	last := snapshot.LastSignDate
	if last == "" {
		last = "never"
	}
	return label + " " + s.detail.Render("pending") + " " + s.meta.Render(fmt.Sprintf("(last %s)", last))
}

func workLine(snapshot application.AccountSnapshot, opts RenderOptions, s styles) string {
	label := s.key.Render("work:")
	if snapshot.CooldownRemaining <= 0 {
		return label + " " + s.ok.Render("ready")
	}

	parts := []string{label}
	if opts.Cooldown > 0 {
		elapsed := 100 * (1 - snapshot.CooldownRemaining.Seconds()/opts.Cooldown.Seconds())
		parts = append(parts, renderProgressBar(elapsed, 24, s))
	}

	countdown := lipgloss.NewStyle().Foreground(countdownColor(snapshot.CooldownRemaining, opts.Cooldown))
	parts = append(parts, countdown.Render(snapshot.Countdown))
	if snapshot.LastWorkTime != nil && !opts.Now.IsZero() {
		parts = append(parts, s.meta.Render("(ready "+formatClock(snapshot.LastWorkTime.Add(opts.Cooldown), opts.Now)+")"))
	}

	return strings.Join(parts, " ")
}

func queueLine(snapshot application.AccountSnapshot, s styles) string {
	var parts []string
	if snapshot.InFlight != "" {
		parts = append(parts, "running "+string(snapshot.InFlight))
	}
	if len(snapshot.Queued) > 0 {
		parts = append(parts, "queued "+joinKinds(snapshot.Queued))
	}
	if len(parts) == 0 {
		return ""
	}
	return s.key.Render("tasks:") + " " + s.detail.Render(strings.Join(parts, ", "))
}

func outcomeLine(outcome application.OutcomeSummary, now time.Time, s styles) string {
	status := s.ok
	if outcome.Status != domain.OutcomeSucceeded {
		status = s.warning
	}

	line := fmt.Sprintf("%s %s %s", s.key.Render("last:"), outcome.Kind, status.Render(string(outcome.Status)))
	if !outcome.FinishedAt.IsZero() {
		line += " " + s.meta.Render("at "+formatClock(outcome.FinishedAt, now))
	}
	if outcome.Detail != "" {
		line += " " + s.meta.Render("("+outcome.Detail+")")
	}
	return line
}

func renderProgressBar(percent float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	filled := int(math.Round(float64(width) * clampPercent(percent) / 100))
	if filled > width {
		filled = width
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", width-filled)),
		s.barBracket.Render("]"),
	)
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// formatClock prints t as a clock time, adding the date when it is not on now's day.
func formatClock(t, now time.Time) string {
	if now.IsZero() {
		return t.Format(time.RFC3339)
	}

	yearA, monthA, dayA := now.Date()
	yearB, monthB, dayB := t.Date()
	if yearA == yearB && monthA == monthB && dayA == dayB {
		return t.Format("15:04")
	}
	return t.Format("15:04 on 02 Jan")
}

func joinKinds(kinds []domain.TaskKind) string {
	out := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		out = append(out, string(kind))
	}
	return strings.Join(out, ", ")
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func interpolateColor(value, min, max float64) lipgloss.Color {
	if max == min {
		return lipgloss.Color("255")
	}

	normalized := (value - min) / (max - min)
	if normalized < 0 {
		normalized = 0
	}
	if normalized > 1 {
		normalized = 1
	}

	// ANSI 256 greyscale ramp, faded 240 up to bright 255.
	return lipgloss.Color(fmt.Sprintf("%d", int(240+15*normalized)))
}

// countdownColor brightens as the cooldown runs out.
func countdownColor(remaining, cooldown time.Duration) lipgloss.Color {
	if cooldown <= 0 {
		return lipgloss.Color("255")
	}
	return interpolateColor((cooldown - remaining).Seconds(), 0, cooldown.Seconds())
}
