// File: render/ascii.go
package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/lguibr/crypt/game"
	"github.com/lguibr/crypt/utils"
)

// Glyphs used for each body kind. Bodies currently in contact are drawn with ContactGlyph.
const (
	PlayerGlyph  = 'A'
	EnemyGlyph   = 'W'
	BulletGlyph  = '|'
	OtherGlyph   = '?'
	ContactGlyph = '*'
)

// RGB is a terminal color.
type RGB struct{ R, G, B uint8 }

// Colors per collision layer, used when Options.Color is set.
var layerColors = map[uint8]RGB{
	utils.LayerFriendly: {R: 80, G: 200, B: 255},
	utils.LayerHostile:  {R: 255, G: 90, B: 90},
}

var contactColor = RGB{R: 255, G: 230, B: 0}

// Options controls the frame size and styling.
type Options struct {
	Cols  int
	Rows  int
	Color bool // Emit ANSI truecolor escapes
}

// DefaultOptions fits a standard 80x24 terminal.
func DefaultOptions() Options {
	return Options{Cols: 78, Rows: 20}
}

// rgbToAnsi converts a color to an ANSI truecolor foreground escape.
func rgbToAnsi(c RGB) string {
	return fmt.Sprintf("\033[38;2;%d;%d;%dm", c.R, c.G, c.B)
}

type cell struct {
	glyph rune
	color *RGB
}

func glyphFor(kind string) rune {
	switch kind {
	case game.KindPlayer:
		return PlayerGlyph
	case game.KindEnemy:
		return EnemyGlyph
	case game.KindBullet:
		return BulletGlyph
	}
	return OtherGlyph
}

// Frame renders a snapshot as a bordered ASCII frame with a status line on top.
func Frame(snap game.Snapshot, opts Options) string {
	if opts.Cols <= 0 || opts.Rows <= 0 {
		opts = DefaultOptions()
	}

	grid := make([][]cell, opts.Rows)
	for r := range grid {
		grid[r] = make([]cell, opts.Cols)
		for c := range grid[r] {
			grid[r][c].glyph = ' '
		}
	}

	if snap.ArenaWidth > 0 && snap.ArenaHeight > 0 {
		for _, b := range snap.Bodies {
			plot(grid, snap, b, opts)
		}
	}

	var sb strings.Builder
	sb.WriteString(statusLine(snap))
	sb.WriteByte('\n')
	border := "+" + strings.Repeat("-", opts.Cols) + "+\n"
	sb.WriteString(border)
	for _, row := range grid {
		sb.WriteByte('|')
		for _, c := range row {
			if opts.Color && c.color != nil {
				sb.WriteString(rgbToAnsi(*c.color))
				sb.WriteRune(c.glyph)
				sb.WriteString("\033[0m")
				continue
			}
			sb.WriteRune(c.glyph)
		}
		sb.WriteString("|\n")
	}
	sb.WriteString(border)
	return sb.String()
}

// plot fills the cells covered by a body's rectangle. Every body covers at least one cell.
func plot(grid [][]cell, snap game.Snapshot, b game.BodySnapshot, opts Options) {
	toCol := func(x float64) int {
		return int(math.Floor((x + snap.ArenaWidth/2) / snap.ArenaWidth * float64(opts.Cols)))
	}
	toRow := func(y float64) int {
		return int(math.Floor((snap.ArenaHeight/2 - y) / snap.ArenaHeight * float64(opts.Rows)))
	}

	c0, c1 := clampIndex(toCol(b.Rect.Left), opts.Cols), clampIndex(toCol(b.Rect.Right), opts.Cols)
	r0, r1 := clampIndex(toRow(b.Rect.Top), opts.Rows), clampIndex(toRow(b.Rect.Bottom), opts.Rows)

	glyph := glyphFor(b.Kind)
	color := layerColors[b.Layer]
	if b.Contact {
		glyph = ContactGlyph
		color = contactColor
	}
	for r := r0; r <= r1; r++ {
		for c := c0; c <= c1; c++ {
			col := color
			grid[r][c] = cell{glyph: glyph, color: &col}
		}
	}
}

func clampIndex(i, n int) int {
	return int(utils.Clamp(float64(i), 0, float64(n-1)))
}

func statusLine(snap game.Snapshot) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "tick %d", snap.Tick)
	for _, p := range snap.Players {
		state := "out"
		if p.Alive {
			state = fmt.Sprintf("lives %d", p.Lives)
		}
		fmt.Fprintf(&sb, " | P%d %s score %d", p.Index, state, p.Score)
	}
	fmt.Fprintf(&sb, " | contacts %d | events s%d c%d x%d r%d",
		snap.Contacts, snap.Events.Start, snap.Events.Continue, snap.Events.Stop, snap.Events.Remove)
	if snap.GameOver {
		sb.WriteString(" | GAME OVER")
	}
	return sb.String()
}
