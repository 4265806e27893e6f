package fixture

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/bits"
	"strconv"
	"strings"

	"github.com/hailam/attackmap/internal/board"
)

// Fixture is the extracted state of one position.
type Fixture struct {
	FEN          string         `json:"fen"`
	Occupancy    board.Bitboard `json:"occupancy"`
	WhiteAttacks board.Bitboard `json:"white_attacks"`
	BlackAttacks board.Bitboard `json:"black_attacks"`
	EnPassant    string         `json:"en_passant"` // square name or "-"
	Castling     string         `json:"castling"`   // subset of "KQkq" or "-"
}

// BinarySize is the length of an encoded Fixture, the FEN excluded.
const BinarySize = 3*8 + 2

// ErrShortBuffer is returned by UnmarshalBinary for truncated input.
var ErrShortBuffer = errors.New("fixture: short buffer")

// FromPosition builds the fixture for pos from a precomputed set of maps.
// fen is recorded as given.
func FromPosition(fen string, pos *board.Position, maps board.AttackMaps) Fixture {
	return Fixture{
		FEN:          fen,
		Occupancy:    maps.Occupancy,
		WhiteAttacks: maps.Attacks[board.White],
		BlackAttacks: maps.Attacks[board.Black],
		EnPassant:    pos.EnPassant.String(),
		Castling:     pos.CastlingRights.String(),
	}
}

// Generate parses fen and computes its fixture.
func Generate(fen string, opts ...Option) (Fixture, error) {
	return NewGenerator(opts...).Generate(fen)
}

// Attacks returns the attack map of color c.
func (f Fixture) Attacks(c board.Color) board.Bitboard {
	if c == board.Black {
		return f.BlackAttacks
	}
	return f.WhiteAttacks
}

// Hex formats bb in the reference fixture notation: 0x followed by sixteen
// lowercase digits of the byte-reversed bitboard.
func Hex(bb board.Bitboard) string {
	return fmt.Sprintf("0x%016x", bits.ReverseBytes64(uint64(bb)))
}

// ParseHex is the inverse of Hex. The 0x prefix is optional.
func ParseHex(s string) (board.Bitboard, error) {
	digits := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(digits, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("fixture: parse hex %q: %w", s, err)
	}
	return board.Bitboard(bits.ReverseBytes64(v)), nil
}

// AppendBinary appends the encoded fixture to b: occupancy, white attacks
// and black attacks as little-endian words, then the en passant square
// index (64 for none) and the castling rights bits.
func (f Fixture) AppendBinary(b []byte) ([]byte, error) {
	ep := board.NoSquare
	if f.EnPassant != "-" {
		sq, err := board.ParseSquare(f.EnPassant)
		if err != nil {
			return b, fmt.Errorf("fixture: en passant: %w", err)
		}
		ep = sq
	}
	cr, err := castlingBits(f.Castling)
	if err != nil {
		return b, err
	}

	b = binary.LittleEndian.AppendUint64(b, uint64(f.Occupancy))
	b = binary.LittleEndian.AppendUint64(b, uint64(f.WhiteAttacks))
	b = binary.LittleEndian.AppendUint64(b, uint64(f.BlackAttacks))
	return append(b, byte(ep), byte(cr)), nil
}

// MarshalBinary encodes the fixture without its FEN.
func (f Fixture) MarshalBinary() ([]byte, error) {
	return f.AppendBinary(make([]byte, 0, BinarySize))
}

// UnmarshalBinary decodes data produced by MarshalBinary. The FEN field is
// left untouched.
func (f *Fixture) UnmarshalBinary(data []byte) error {
	if len(data) < BinarySize {
		return fmt.Errorf("%w: %d bytes, want %d", ErrShortBuffer, len(data), BinarySize)
	}

	ep := board.Square(data[24])
	if ep != board.NoSquare && (ep > board.H8 || (ep.Rank() != 2 && ep.Rank() != 5)) {
		return fmt.Errorf("fixture: invalid en passant byte %d", data[24])
	}
	cr := board.CastlingRights(data[25])
	if cr&^board.AllCastling != 0 {
		return fmt.Errorf("fixture: invalid castling byte %#x", data[25])
	}

	f.Occupancy = board.Bitboard(binary.LittleEndian.Uint64(data[0:]))
	f.WhiteAttacks = board.Bitboard(binary.LittleEndian.Uint64(data[8:]))
	f.BlackAttacks = board.Bitboard(binary.LittleEndian.Uint64(data[16:]))
	f.EnPassant = ep.String()
	f.Castling = cr.String()
	return nil
}

func castlingBits(s string) (board.CastlingRights, error) {
	if s == "-" || s == "" {
		return board.NoCastling, nil
	}
	var cr board.CastlingRights
	for _, c := range s {
		i := strings.IndexRune("KQkq", c)
		if i < 0 {
			return 0, fmt.Errorf("fixture: invalid castling %q", s)
		}
		cr |= 1 << i
	}
	return cr, nil
}

// String renders the fixture as a labelled report, one field per line.
func (f Fixture) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "FEN           : %s\n", f.FEN)
	fmt.Fprintf(&sb, "Occupancy     : %s\n", Hex(f.Occupancy))
	fmt.Fprintf(&sb, "White Attacks : %s\n", Hex(f.WhiteAttacks))
	fmt.Fprintf(&sb, "Black Attacks : %s\n", Hex(f.BlackAttacks))
	fmt.Fprintf(&sb, "En-passant    : %s\n", f.EnPassant)
	fmt.Fprintf(&sb, "Castling      : %s\n", f.Castling)
	sb.WriteString(strings.Repeat("-", 40))
	return sb.String()
}

// HexLine renders the fixture on one line: the three maps in Hex notation,
// en passant, castling and the FEN, separated by single spaces.
func (f Fixture) HexLine() string {
	return strings.Join([]string{
		Hex(f.Occupancy), Hex(f.WhiteAttacks), Hex(f.BlackAttacks),
		f.EnPassant, f.Castling, strings.TrimSpace(f.FEN),
	}, " ")
}
