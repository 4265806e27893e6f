package render

import (
	"fmt"
	"io"
	"strconv"

	svg "github.com/ajstarks/svgo"

	"github.com/hailam/attackmap/internal/board"
)

// SVG writes a diagram of pos to w with the squares in highlight marked.
func SVG(w io.Writer, pos *board.Position, highlight board.Bitboard, opts Options) error {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return err
	}

	ew := &errWriter{w: w}
	writeSVG(ew, pos, highlight, opts, true)
	if ew.err != nil {
		return fmt.Errorf("render: write svg: %w", ew.err)
	}
	return nil
}

// writeSVG emits the board. Without glyphs only the squares are drawn,
// which is all the rasteriser understands.
func writeSVG(w io.Writer, pos *board.Position, highlight board.Bitboard, opts Options, glyphs bool) {
	sq := opts.SquareSize
	size := 8 * sq

	canvas := svg.New(w)
	canvas.Startview(size, size, 0, 0, size, size)
	if glyphs && opts.Title != "" {
		canvas.Title(opts.Title)
	}

	canvas.Gid("squares")
	for s := board.A1; s <= board.H8; s++ {
		x, y := opts.origin(s)
		canvas.Rect(x, y, sq, sq, `fill="`+opts.fill(s, highlight)+`"`)
	}
	canvas.Gend()

	if glyphs {
		writeLabels(canvas, opts)
		writePieces(canvas, pos, opts)
	}
	canvas.End()
}

func writeLabels(canvas *svg.SVG, opts Options) {
	sq := opts.SquareSize
	style := `font-family="sans-serif" font-size="` + strconv.Itoa(sq/4) + `" fill="` + labels + `"`

	canvas.Gid("coordinates")
	for s := board.A1; s <= board.H8; s++ {
		fileLabel, rankLabel := opts.edge(s)
		x, y := opts.origin(s)
		if fileLabel {
			canvas.Text(x+sq-3, y+sq-3, string(rune('a'+s.File())), style, `text-anchor="end"`)
		}
		if rankLabel {
			canvas.Text(x+3, y+sq/4+2, strconv.Itoa(s.Rank()+1), style)
		}
	}
	canvas.Gend()
}

func writePieces(canvas *svg.SVG, pos *board.Position, opts Options) {
	sq := opts.SquareSize
	base := `text-anchor="middle" font-family="sans-serif" font-weight="bold" font-size="` + strconv.Itoa(sq*7/10) + `"`

	canvas.Gid("pieces")
	for bb := pos.AllOccupied; bb != 0; {
		s := bb.PopLSB()
		piece := pos.PieceAt(s)
		x, y := opts.origin(s)

		paint := `fill="` + ink + `"`
		if piece.Color() == board.White {
			paint = `fill="` + paper + `" stroke="` + ink + `" stroke-width="1"`
		}
		canvas.Text(x+sq/2, y+sq*3/4, piece.String(), base, paint)
	}
	canvas.Gend()
}

// errWriter keeps the first write error; svgo does not report them.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}
