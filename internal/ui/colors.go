package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var styles = newPalette(theme{
	accent:   "#7D56F4",
	survivor: "#04B575",
	pending:  "#FFA500",
	failure:  "#FF0000",
	muted:    "#626262",
})

// theme holds the hex colors a [palette] is built from.
type theme struct {
	accent   string
	survivor string
	pending  string
	failure  string
	muted    string
}

// palette styles each role a track id or line can play in the browser.
type palette struct {
	uid         lipgloss.Style // group heading
	survivor    lipgloss.Style // greatest id of a group, receives every replay
	unreachable lipgloss.Style // ids whose replays move to the survivor
	unfinished  lipgloss.Style // unreachable ids with no recorded replay
	recorded    lipgloss.Style // unreachable ids that already have replays
	failure     lipgloss.Style
	muted       lipgloss.Style
}

func newPalette(t theme) *palette {
	fg := func(c string) lipgloss.Style { return lipgloss.NewStyle().Foreground(lipgloss.Color(c)) }

	return &palette{
		uid:         fg(t.accent).Bold(true).MarginBottom(1),
		survivor:    fg(t.survivor).Bold(true),
		unreachable: lipgloss.NewStyle(),
		unfinished:  fg(t.pending).Bold(true),
		recorded:    fg(t.muted).Strikethrough(true),
		failure:     fg(t.failure).Bold(true),
		muted:       fg(t.muted).Italic(true),
	}
}

// trackLine renders one id of a group with its role suffix.
func (p *palette) trackLine(id int, role trackRole) string {
	switch role {
	case roleSurvivor:
		return p.survivor.Render(fmtTrack(id, "survivor"))
	case roleUnfinished:
		return p.unfinished.Render(fmtTrack(id, "unfinished"))
	case roleRecorded:
		return p.recorded.Render(fmtTrack(id, "has records"))
	default:
		return p.unreachable.Render(fmtTrack(id, ""))
	}
}
