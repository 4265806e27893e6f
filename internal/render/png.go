package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"strconv"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/hailam/attackmap/internal/board"
)

type fontSet struct {
	regular, bold *opentype.Font
}

var loadFonts = sync.OnceValues(func() (fontSet, error) {
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return fontSet{}, fmt.Errorf("render: load regular font: %w", err)
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return fontSet{}, fmt.Errorf("render: load bold font: %w", err)
	}
	return fontSet{regular: regular, bold: bold}, nil
})

// PNG writes a diagram of pos to w as a PNG image.
func PNG(w io.Writer, pos *board.Position, highlight board.Bitboard, opts Options) error {
	img, err := Image(pos, highlight, opts)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// Image renders the diagram into an RGBA image. The squares are produced
// as SVG and rasterised; pieces and coordinates are drawn with Go fonts.
func Image(pos *board.Position, highlight board.Bitboard, opts Options) (*image.RGBA, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	writeSVG(&buf, pos, highlight, opts, false)

	icon, err := oksvg.ReadIconStream(&buf)
	if err != nil {
		return nil, fmt.Errorf("render: parse board svg: %w", err)
	}

	size := 8 * opts.SquareSize
	icon.SetTarget(0, 0, float64(size), float64(size))

	rgba := image.NewRGBA(image.Rect(0, 0, size, size))
	scanner := rasterx.NewScannerGV(size, size, rgba, rgba.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	if err := drawGlyphs(rgba, pos, opts); err != nil {
		return nil, err
	}
	return rgba, nil
}

func drawGlyphs(dst draw.Image, pos *board.Position, opts Options) error {
	fonts, err := loadFonts()
	if err != nil {
		return err
	}
	sq := opts.SquareSize

	labelFace, err := opentype.NewFace(fonts.regular, &opentype.FaceOptions{
		Size:    float64(sq) / 4,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return fmt.Errorf("render: label face: %w", err)
	}
	defer labelFace.Close()

	pieceFace, err := opentype.NewFace(fonts.bold, &opentype.FaceOptions{
		Size:    float64(sq) * 7 / 10,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return fmt.Errorf("render: piece face: %w", err)
	}
	defer pieceFace.Close()

	labelColor, _ := parseColor(labels)
	inkColor, _ := parseColor(ink)
	paperColor, _ := parseColor(paper)

	for s := board.A1; s <= board.H8; s++ {
		fileLabel, rankLabel := opts.edge(s)
		x, y := opts.origin(s)
		if fileLabel {
			label := string(rune('a' + s.File()))
			adv := font.MeasureString(labelFace, label)
			drawString(dst, labelFace, label, labelColor, fixed.I(x+sq-3)-adv, fixed.I(y+sq-3))
		}
		if rankLabel {
			drawString(dst, labelFace, strconv.Itoa(s.Rank()+1), labelColor, fixed.I(x+3), fixed.I(y+sq/4+2))
		}
	}

	capHeight := pieceFace.Metrics().CapHeight
	for bb := pos.AllOccupied; bb != 0; {
		s := bb.PopLSB()
		piece := pos.PieceAt(s)
		x, y := opts.origin(s)

		glyph := piece.String()
		dotX := fixed.I(x+sq/2) - font.MeasureString(pieceFace, glyph)/2
		dotY := fixed.I(y+sq/2) + capHeight/2

		if piece.Color() == board.White {
			// Outline first so light squares keep a visible edge.
			for _, d := range [][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
				drawString(dst, pieceFace, glyph, inkColor, dotX+fixed.I(d[0]), dotY+fixed.I(d[1]))
			}
			drawString(dst, pieceFace, glyph, paperColor, dotX, dotY)
		} else {
			drawString(dst, pieceFace, glyph, inkColor, dotX, dotY)
		}
	}
	return nil
}

func drawString(dst draw.Image, face font.Face, s string, c color.Color, x, y fixed.Int26_6) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.Point26_6{X: x, Y: y},
	}
	d.DrawString(s)
}
