package board

// AttackMaps holds the three bitboards extracted from a position: the
// occupancy and the set of squares each side attacks.
type AttackMaps struct {
	Occupancy Bitboard
	Attacks   [2]Bitboard // [Color]
}

// AttackersByColor returns the pieces of color c that attack sq, with sliders
// blocked by occupied.
func (p *Position) AttackersByColor(sq Square, c Color, occupied Bitboard) Bitboard {
	// A pawn of color c attacks sq exactly when a pawn of the other color on
	// sq would attack the pawn's square.
	return (pawnAttacks[c.Other()][sq] & p.Pieces[c][Pawn]) |
		(knightAttacks[sq] & p.Pieces[c][Knight]) |
		(kingAttacks[sq] & p.Pieces[c][King]) |
		(BishopAttacks(sq, occupied) & (p.Pieces[c][Bishop] | p.Pieces[c][Queen])) |
		(RookAttacks(sq, occupied) & (p.Pieces[c][Rook] | p.Pieces[c][Queen]))
}

// AttackersTo returns the pieces of both colors that attack sq.
func (p *Position) AttackersTo(sq Square) Bitboard {
	return p.AttackersByColor(sq, White, p.AllOccupied) |
		p.AttackersByColor(sq, Black, p.AllOccupied)
}

// IsAttacked reports whether any piece of color by attacks sq. It agrees
// with AttackedSquares(by).IsSet(sq) for every position and square, and
// returns as soon as one attacker type is found.
func (p *Position) IsAttacked(sq Square, by Color) bool {
	pieces := &p.Pieces[by]
	if pawnAttacks[by.Other()][sq]&pieces[Pawn] != 0 ||
		knightAttacks[sq]&pieces[Knight] != 0 ||
		kingAttacks[sq]&pieces[King] != 0 {
		return true
	}
	if diag := pieces[Bishop] | pieces[Queen]; diag != 0 && BishopAttacks(sq, p.AllOccupied)&diag != 0 {
		return true
	}
	orth := pieces[Rook] | pieces[Queen]
	return orth != 0 && RookAttacks(sq, p.AllOccupied)&orth != 0
}

// AttackedSquares returns every square attacked by at least one piece of
// color by. Sliders are blocked by pieces of either color; the blocking
// square itself is attacked. Squares holding by's own pieces are included
// when defended.
func (p *Position) AttackedSquares(by Color) Bitboard {
	pieces := &p.Pieces[by]
	occupied := p.AllOccupied

	attacks := PawnAttacksBB(pieces[Pawn], by)

	for bb := pieces[Knight]; bb != 0; {
		attacks |= knightAttacks[bb.PopLSB()]
	}
	for bb := pieces[Bishop] | pieces[Queen]; bb != 0; {
		attacks |= BishopAttacks(bb.PopLSB(), occupied)
	}
	for bb := pieces[Rook] | pieces[Queen]; bb != 0; {
		attacks |= RookAttacks(bb.PopLSB(), occupied)
	}
	for bb := pieces[King]; bb != 0; {
		attacks |= kingAttacks[bb.PopLSB()]
	}

	return attacks
}

// AttackMaps computes the occupancy and both sides' attack maps.
func (p *Position) AttackMaps() AttackMaps {
	return AttackMaps{
		Occupancy: p.AllOccupied,
		Attacks:   [2]Bitboard{p.AttackedSquares(White), p.AttackedSquares(Black)},
	}
}
