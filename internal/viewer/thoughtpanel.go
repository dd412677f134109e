package viewer

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"github.com/Garsondee/standoff/internal/sim"
)

const (
	logPanelWidth = 320
	logLineHeight = 14
	logTitleH     = 18
	recentLines   = 3 // newest entries highlighted
)

var face = text.NewGoXFace(basicfont.Face7x13)

// drawText draws s with its top-left corner at (x, y).
func drawText(dst *ebiten.Image, s string, x, y int, c color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(float64(x), float64(y))
	op.ColorScale.ScaleWithColor(c)
	text.Draw(dst, s, face, op)
}

// clip shortens s to at most n runes.
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "~"
}

// drawThoughts renders the thought log as a side panel, newest at the bottom.
func drawThoughts(screen *ebiten.Image, tl *sim.ThoughtLog, panelX, panelH int) {
	px := float32(panelX)
	vector.FillRect(screen, px, 0, logPanelWidth, float32(panelH), color.RGBA{R: 10, G: 12, B: 10, A: 248}, false)
	vector.StrokeLine(screen, px, 0, px, float32(panelH), 1.0, color.RGBA{R: 50, G: 70, B: 50, A: 255}, false)

	vector.FillRect(screen, px, 0, logPanelWidth, logTitleH, color.RGBA{R: 20, G: 30, B: 20, A: 255}, false)
	drawText(screen, "THOUGHT LOG", panelX+8, 2, color.RGBA{R: 180, G: 210, B: 180, A: 255})
	vector.StrokeLine(screen, px, logTitleH, px+logPanelWidth, logTitleH, 1.0, color.RGBA{R: 50, G: 80, B: 50, A: 200}, false)

	entries := tl.Recent()
	maxVisible := (panelH - logTitleH - 6) / logLineHeight
	if len(entries) > maxVisible {
		entries = entries[len(entries)-maxVisible:]
	}

	maxChars := (logPanelWidth - 16) / 7
	y := logTitleH + 4
	for i, e := range entries {
		isRecent := i >= len(entries)-recentLines
		if isRecent {
			vector.FillRect(screen, px+2, float32(y), logPanelWidth-4, logLineHeight, color.RGBA{R: 30, G: 40, B: 30, A: 160}, false)
		}
		vector.FillRect(screen, px+5, float32(y+4), 3, 6, teamColor(e.Team), false)

		textCol := color.RGBA{R: 150, G: 160, B: 150, A: 255}
		if isRecent {
			textCol = color.RGBA{R: 230, G: 235, B: 225, A: 255}
		}
		line := fmt.Sprintf("%4d [%s] %s", e.Tick, e.Label, e.Message)
		drawText(screen, clip(line, maxChars), panelX+12, y, textCol)
		y += logLineHeight
	}
}
