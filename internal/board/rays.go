package board

// slidingAttacks walks each ray from sq outward. A ray includes the first
// occupied square it meets and stops there; a ray that meets nothing runs to
// the edge of the board.
func slidingAttacks(sq Square, occupied Bitboard, dirs [4]Direction) Bitboard {
	var attacks Bitboard
	for _, d := range dirs {
		df, dr := d.delta()
		for s, ok := sq.offset(df, dr); ok; s, ok = s.offset(df, dr) {
			attacks |= SquareBB(s)
			if occupied.IsSet(s) {
				break
			}
		}
	}
	return attacks
}

// RookRayAttacks computes rook attacks by walking rays square by square.
// It is the reference RookAttacks is built from and checked against.
func RookRayAttacks(sq Square, occupied Bitboard) Bitboard {
	return slidingAttacks(sq, occupied, Orthogonal)
}

// BishopRayAttacks computes bishop attacks by walking rays square by square.
func BishopRayAttacks(sq Square, occupied Bitboard) Bitboard {
	return slidingAttacks(sq, occupied, Diagonal)
}
