package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/cory-johannsen/quizboss/internal/frontend/telnet"
	"github.com/cory-johannsen/quizboss/internal/game/session"
)

var noticeColors = map[session.Kind]string{
	session.KindInfo:      telnet.White,
	session.KindQuestion:  telnet.Bold + telnet.BrightWhite,
	session.KindResult:    telnet.BrightYellow,
	session.KindWarning:   telnet.Bold + telnet.BrightRed,
	session.KindPowerPlay: telnet.Bold + telnet.BrightMagenta,
	session.KindBoss:      telnet.Red,
	session.KindPlayer:    telnet.BrightCyan,
	session.KindGame:      telnet.Bold + telnet.BrightGreen,
	session.KindReject:    telnet.Dim,
}

// RenderNotice formats a session notice as colored Telnet text.
func RenderNotice(n session.Notice) string {
	color, ok := noticeColors[n.Kind]
	if !ok {
		return n.Text
	}
	if n.Kind == session.KindQuestion {
		// color the header line, leave the options plain for readability
		head, rest, found := strings.Cut(n.Text, "\n")
		if found {
			return telnet.Colorize(color, head) + "\n" + rest
		}
	}
	return telnet.Colorize(color, n.Text)
}

// RenderStatus formats a session snapshot as a multi-line status block.
func RenderStatus(s session.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s %d/%d  %s\n",
		telnet.Colorize(telnet.Red, "Boss"),
		telnet.Bar(s.BossHP, s.BossMaxHP, 20), s.BossHP, s.BossMaxHP,
		telnet.Colorize(telnet.Dim, s.BossPhase))
	fmt.Fprintf(&b, "%s %s%s  Focus %d  Charges %d\n",
		telnet.Colorize(telnet.BrightCyan, "Hearts"),
		telnet.Colorize(telnet.BrightRed, strings.Repeat("♥", max(0, s.Hearts))),
		telnet.Colorize(telnet.Dim, strings.Repeat("♡", max(0, s.MaxHearts-s.Hearts))),
		s.Focus, s.Charges)

	switch {
	case s.Question == 0:
		b.WriteString("No question yet.")
	case s.QuestionActive:
		fmt.Fprintf(&b, "Question %d/%d  %s left", s.Question, s.Total, formatSeconds(s.Remaining))
	default:
		fmt.Fprintf(&b, "Question %d/%d", s.Question, s.Total)
	}
	if s.Combo > 1 {
		fmt.Fprintf(&b, "  Combo x%d", s.Combo)
	}
	if s.PowerPlay {
		b.WriteString("  " + telnet.Colorize(telnet.Bold+telnet.BrightMagenta, "POWER PLAY"))
	}
	b.WriteString("\n")

	station := "outside the station"
	switch {
	case s.Inside && s.Ready:
		station = "in the station, ready"
	case s.Inside:
		station = "in the station"
	}
	fmt.Fprintf(&b, "You are %s at (%.1f, %.1f); the boss is at (%.1f, %.1f). [%s]",
		station, s.PlayerX, s.PlayerY, s.BossX, s.BossY, s.State)
	return b.String()
}

// Prompt returns the input prompt for a snapshot.
func Prompt(s session.Snapshot) string {
	if s.QuestionActive {
		return telnet.Colorf(telnet.BrightCyan, "[Q%d %s]> ", s.Question, formatSeconds(s.Remaining))
	}
	return telnet.Colorf(telnet.BrightCyan, "[%s]> ", strings.Repeat("♥", max(0, s.Hearts)))
}

// RenderHelp lists the verbs of r grouped by category.
func RenderHelp(r *Registry) string {
	var b strings.Builder
	category := ""
	for _, v := range r.Verbs() {
		if v.Category != category {
			category = v.Category
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			b.WriteString(telnet.Colorize(telnet.BrightYellow, category+":"))
		}
		fmt.Fprintf(&b, "\n  %-34s %s", v.Usage, v.Help)
		if len(v.Aliases) > 0 {
			b.WriteString(telnet.Colorf(telnet.Dim, " (%s)", strings.Join(v.Aliases, ", ")))
		}
	}
	return b.String()
}

// RenderPacks lists the pack names available for a new fight.
func RenderPacks(names []string, def string) string {
	var b strings.Builder
	b.WriteString(telnet.Colorize(telnet.BrightYellow, "Question packs:"))
	for i, name := range names {
		fmt.Fprintf(&b, "\n  %d) %s", i+1, name)
		if name == def {
			b.WriteString(telnet.Colorize(telnet.Dim, " (default)"))
		}
	}
	return b.String()
}

func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.1fs", max(0, d).Seconds())
}
