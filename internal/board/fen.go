package board

import (
	"strconv"
	"strings"
)

// StartFEN is the FEN string for the starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ParseFEN parses a FEN string and returns a Position.
//
// The half-move clock and full-move number may be omitted, in which case
// they default to 0 and 1. An en passant square must lie on rank 3 or 6 but
// is not checked against the side to move; use ParseFENStrict for that.
func ParseFEN(fen string) (*Position, error) {
	return parseFEN(fen, false)
}

// ParseFENStrict is ParseFEN that additionally requires the en passant
// square to be on rank 6 when white is to move and rank 3 when black is.
func ParseFENStrict(fen string) (*Position, error) {
	return parseFEN(fen, true)
}

func parseFEN(fen string, strict bool) (*Position, error) {
	parts := strings.Fields(fen)
	if len(parts) < 4 || len(parts) > 6 {
		return nil, fenError(ErrMalformedFEN, "fields", fen, "need 4 to 6 fields, got %d", len(parts))
	}

	pos := NewEmptyPosition()

	if err := parsePiecePlacement(pos, parts[0]); err != nil {
		return nil, err
	}

	switch parts[1] {
	case "w":
		pos.SideToMove = White
	case "b":
		pos.SideToMove = Black
	default:
		return nil, fenError(ErrMalformedFEN, "side", parts[1], "want w or b")
	}

	if err := parseCastlingRights(pos, parts[2]); err != nil {
		return nil, err
	}

	if err := parseEnPassant(pos, parts[3], strict); err != nil {
		return nil, err
	}

	if len(parts) > 4 {
		hmc, err := strconv.Atoi(parts[4])
		if err != nil || hmc < 0 {
			return nil, fenError(ErrMalformedFEN, "halfmove", parts[4], "want a non-negative integer")
		}
		pos.HalfMoveClock = hmc
	}

	if len(parts) > 5 {
		fmn, err := strconv.Atoi(parts[5])
		if err != nil || fmn < 0 {
			return nil, fenError(ErrMalformedFEN, "fullmove", parts[5], "want a non-negative integer")
		}
		pos.FullMoveNumber = fmn
	}

	pos.updateOccupied()
	pos.Hash = pos.ComputeHash()

	return pos, nil
}

// parsePiecePlacement parses the piece placement section of a FEN string.
func parsePiecePlacement(pos *Position, placement string) error {
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return fenError(ErrInvalidBoardLayout, "board", placement, "need 8 ranks, got %d", len(ranks))
	}

	for i, rankStr := range ranks {
		rank := 7 - i // FEN starts from rank 8
		file := 0

		for j := 0; j < len(rankStr); j++ {
			c := rankStr[j]
			if file > 7 {
				return fenError(ErrInvalidBoardLayout, "board", rankStr, "rank %d has more than 8 files", rank+1)
			}

			if c >= '1' && c <= '8' {
				file += int(c - '0')
				continue
			}

			piece := PieceFromChar(c)
			if piece == NoPiece {
				return fenError(ErrInvalidBoardLayout, "board", rankStr, "unknown piece %q in rank %d", c, rank+1)
			}
			pos.setPiece(piece, NewSquare(file, rank))
			file++
		}

		if file != 8 {
			return fenError(ErrInvalidBoardLayout, "board", rankStr, "rank %d covers %d files", rank+1, file)
		}
	}

	return nil
}

// parseCastlingRights parses the castling rights section of a FEN string.
func parseCastlingRights(pos *Position, castling string) error {
	if castling == "-" {
		pos.CastlingRights = NoCastling
		return nil
	}

	for i := 0; i < len(castling); i++ {
		var right CastlingRights
		switch castling[i] {
		case 'K':
			right = WhiteKingSideCastle
		case 'Q':
			right = WhiteQueenSideCastle
		case 'k':
			right = BlackKingSideCastle
		case 'q':
			right = BlackQueenSideCastle
		default:
			return fenError(ErrInvalidCastling, "castling", castling, "unexpected %q", castling[i])
		}
		if pos.CastlingRights&right != 0 {
			return fenError(ErrInvalidCastling, "castling", castling, "%q repeated", castling[i])
		}
		pos.CastlingRights |= right
	}

	return nil
}

func parseEnPassant(pos *Position, field string, strict bool) error {
	if field == "-" {
		pos.EnPassant = NoSquare
		return nil
	}

	sq, err := ParseSquare(field)
	if err != nil {
		return fenError(ErrInvalidEnPassant, "en passant", field, "not a square")
	}

	want := -1
	if strict {
		want = 5
		if pos.SideToMove == Black {
			want = 2
		}
	}
	switch {
	case want >= 0 && sq.Rank() != want:
		return fenError(ErrInvalidEnPassant, "en passant", field, "%s to move needs rank %d", pos.SideToMove, want+1)
	case sq.Rank() != 2 && sq.Rank() != 5:
		return fenError(ErrInvalidEnPassant, "en passant", field, "must be on rank 3 or 6")
	}

	pos.EnPassant = sq
	return nil
}

// ToFEN returns the FEN representation of the position.
func (p *Position) ToFEN() string {
	var sb strings.Builder

	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			piece := p.PieceAt(NewSquare(file, rank))
			if piece == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteByte(piece.Char())
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}

	sb.WriteByte(' ')
	if p.SideToMove == White {
		sb.WriteByte('w')
	} else {
		sb.WriteByte('b')
	}

	sb.WriteByte(' ')
	sb.WriteString(p.CastlingRights.String())
	sb.WriteByte(' ')
	sb.WriteString(p.EnPassant.String())
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.HalfMoveClock))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.FullMoveNumber))

	return sb.String()
}
