// Package render draws attack-map diagrams: a board with the pieces of a
// position and a set of highlighted squares, as SVG or PNG.
package render

import (
	"fmt"
	"image/color"
	"strconv"

	"github.com/hailam/attackmap/internal/board"
)

// Options controls the diagram layout. Zero values select the defaults.
type Options struct {
	SquareSize int  // pixels per square
	Flip       bool // draw with rank 8 at the bottom

	Light, Dark                   string // square colors, "#rrggbb"
	HighlightLight, HighlightDark string // colors of highlighted squares
	Title                         string // SVG <title>, omitted when empty
}

// Default colors.
const (
	DefaultSquareSize     = 48
	DefaultLight          = "#f0d9b5"
	DefaultDark           = "#b58863"
	DefaultHighlightLight = "#f4a582"
	DefaultHighlightDark  = "#d6604d"

	ink    = "#202020"
	paper  = "#fafafa"
	labels = "#6b4f3a"
)

func (o Options) withDefaults() Options {
	if o.SquareSize <= 0 {
		o.SquareSize = DefaultSquareSize
	}
	if o.Light == "" {
		o.Light = DefaultLight
	}
	if o.Dark == "" {
		o.Dark = DefaultDark
	}
	if o.HighlightLight == "" {
		o.HighlightLight = DefaultHighlightLight
	}
	if o.HighlightDark == "" {
		o.HighlightDark = DefaultHighlightDark
	}
	return o
}

func (o Options) validate() error {
	for _, c := range []string{o.Light, o.Dark, o.HighlightLight, o.HighlightDark} {
		if _, err := parseColor(c); err != nil {
			return err
		}
	}
	return nil
}

// BoardSize returns the width and height of a diagram in pixels.
func (o Options) BoardSize() int {
	return 8 * o.withDefaults().SquareSize
}

// origin returns the top-left pixel of sq.
func (o Options) origin(sq board.Square) (x, y int) {
	file, rank := sq.File(), 7-sq.Rank()
	if o.Flip {
		file, rank = 7-file, 7-rank
	}
	return file * o.SquareSize, rank * o.SquareSize
}

// fill returns the color of sq.
func (o Options) fill(sq board.Square, highlight board.Bitboard) string {
	light := (sq.File()+sq.Rank())%2 == 1
	switch {
	case highlight.IsSet(sq) && light:
		return o.HighlightLight
	case highlight.IsSet(sq):
		return o.HighlightDark
	case light:
		return o.Light
	default:
		return o.Dark
	}
}

// edge reports whether sq gets a file label (bottom row) or a rank label
// (left column) in the current orientation.
func (o Options) edge(sq board.Square) (fileLabel, rankLabel bool) {
	bottom, left := 0, 0
	if o.Flip {
		bottom, left = 7, 7
	}
	return sq.Rank() == bottom, sq.File() == left
}

func parseColor(s string) (color.RGBA, error) {
	if len(s) != 7 || s[0] != '#' {
		return color.RGBA{}, fmt.Errorf("render: color %q is not #rrggbb", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("render: color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
