package board

// Fancy magic bitboards for slider attacks. Each square owns a slice of a
// shared table indexed by ((occupied & mask) * magic) >> shift. Entries are
// filled from the ray walker in rays.go, so lookups agree with it exactly.

// Magic holds the magic bitboard data for a single square.
type Magic struct {
	Mask   Bitboard // Relevant occupancy mask (excludes edges)
	Magic  uint64   // Magic multiplier
	Shift  uint8    // Bits to shift right
	Offset uint32   // Index into attack table
}

func (m *Magic) index(occupied Bitboard) uint32 {
	return m.Offset + uint32((uint64(occupied&m.Mask)*m.Magic)>>m.Shift)
}

var (
	bishopMagics [64]Magic
	rookMagics   [64]Magic

	bishopTable [5248]Bitboard
	rookTable   [102400]Bitboard
)

// Seed multipliers. initSliderMagics verifies every one and searches for a
// replacement if a number does not hash its square perfectly.
var bishopMagicNumbers = [64]uint64{
	0x0002020202020200, 0x0002020202020000, 0x0004010202000000, 0x0004040080000000,
	0x0001104000000000, 0x0000821040000000, 0x0000410410400000, 0x0000104104104000,
	0x0000040404040400, 0x0000020202020200, 0x0000040102020000, 0x0000040400800000,
	0x0000011040000000, 0x0000008210400000, 0x0000004104104000, 0x0000002082082000,
	0x0004000808080800, 0x0002000404040400, 0x0001000202020200, 0x0000800802004000,
	0x0000800400A00000, 0x0000200100884000, 0x0000400082082000, 0x0000200041041000,
	0x0002080010101000, 0x0001040008080800, 0x0000208004010400, 0x0000404004010200,
	0x0000840000802000, 0x0000404002011000, 0x0000808001041000, 0x0000404000820800,
	0x0001041000202000, 0x0000820800101000, 0x0000104400080800, 0x0000020080080080,
	0x0000404040040100, 0x0000808100020100, 0x0001010100020800, 0x0000808080010400,
	0x0000820820004000, 0x0000410410002000, 0x0000082088001000, 0x0000002011000800,
	0x0000080100400400, 0x0001010101000200, 0x0002020202000400, 0x0001010101000200,
	0x0000410410400000, 0x0000208208200000, 0x0000002084100000, 0x0000000020880000,
	0x0000001002020000, 0x0000040408020000, 0x0004040404040000, 0x0002020202020000,
	0x0000104104104000, 0x0000002082082000, 0x0000000020841000, 0x0000000000208800,
	0x0000000010020200, 0x0000000404080200, 0x0000040404040400, 0x0002020202020200,
}

var rookMagicNumbers = [64]uint64{
	0x0080001020400080, 0x0040001000200040, 0x0080081000200080, 0x0080040800100080,
	0x0080020400080080, 0x0080010200040080, 0x0080008001000200, 0x0080002040800100,
	0x0000800020400080, 0x0000400020005000, 0x0000801000200080, 0x0000800800100080,
	0x0000800400080080, 0x0000800200040080, 0x0000800100020080, 0x0000800040800100,
	0x0000208000400080, 0x0000404000201000, 0x0000808010002000, 0x0000808008001000,
	0x0000808004000800, 0x0000808002000400, 0x0000010100020004, 0x0000020000408104,
	0x0000208080004000, 0x0000200040005000, 0x0000100080200080, 0x0000080080100080,
	0x0000040080080080, 0x0000020080040080, 0x0000010080800200, 0x0000800080004100,
	0x0000204000800080, 0x0000200040401000, 0x0000100080802000, 0x0000080080801000,
	0x0000040080800800, 0x0000020080800400, 0x0000020001010004, 0x0000800040800100,
	0x0000204000808000, 0x0000200040008080, 0x0000100020008080, 0x0000080010008080,
	0x0000040008008080, 0x0000020004008080, 0x0000010002008080, 0x0000004081020004,
	0x0000204000800080, 0x0000200040008080, 0x0000100020008080, 0x0000080010008080,
	0x0000040008008080, 0x0000020004008080, 0x0000800100020080, 0x0000800041000080,
	0x00FFFCDDFCED714A, 0x007FFCDDFCED714A, 0x003FFFCDFFD88096, 0x0000040810002101,
	0x0001000204080011, 0x0001000204000801, 0x0001000082000401, 0x0001FFFAABFAD1A2,
}

func initMagics() {
	rng := newPRNG(0x6D61676963) // Fixed seed keeps tables reproducible.
	initSliderMagics(&bishopMagics, bishopTable[:], &bishopMagicNumbers, bishopMask, BishopRayAttacks, rng)
	initSliderMagics(&rookMagics, rookTable[:], &rookMagicNumbers, rookMask, RookRayAttacks, rng)
}

func initSliderMagics(magics *[64]Magic, table []Bitboard, seeds *[64]uint64,
	maskOf func(Square) Bitboard, slow func(Square, Bitboard) Bitboard, rng *prng) {
	var offset uint32
	for sq := A1; sq <= H8; sq++ {
		mask := maskOf(sq)
		bits := mask.PopCount()
		m := &magics[sq]
		*m = Magic{
			Mask:   mask,
			Magic:  seeds[sq],
			Shift:  uint8(64 - bits),
			Offset: offset,
		}

		entries := table[offset : offset+1<<bits]
		for !fillMagic(sq, m, entries, slow) {
			m.Magic = rng.sparse()
		}
		offset += 1 << bits
	}
}

// fillMagic writes the attack set of every occupancy subset of m.Mask into
// entries and reports false on a destructive collision. A zero entry means
// unused: every slider attacks at least one square.
func fillMagic(sq Square, m *Magic, entries []Bitboard, slow func(Square, Bitboard) Bitboard) bool {
	clear(entries)

	// Carry-Rippler enumeration of all subsets of the mask.
	for occ := Empty; ; {
		attacks := slow(sq, occ)
		idx := m.index(occ) - m.Offset
		switch entries[idx] {
		case 0:
			entries[idx] = attacks
		case attacks:
		default:
			return false
		}
		occ = (occ - m.Mask) & m.Mask
		if occ == 0 {
			return true
		}
	}
}

// bishopMask is the empty-board diagonal reach minus the rim, since a piece
// on the rim never blocks anything further along.
func bishopMask(sq Square) Bitboard {
	return BishopRayAttacks(sq, Empty) &^ Edges
}

// rookMask is the empty-board orthogonal reach minus the last square of each
// ray; nothing lies beyond that square for it to block.
func rookMask(sq Square) Bitboard {
	rim := (Rank1|Rank8)&^RankMask[sq.Rank()] | (FileA|FileH)&^FileMask[sq.File()]
	return RookRayAttacks(sq, Empty) &^ rim
}

// getBishopAttacks returns bishop attacks using magic bitboards.
func getBishopAttacks(sq Square, occupied Bitboard) Bitboard {
	return bishopTable[bishopMagics[sq].index(occupied)]
}

// getRookAttacks returns rook attacks using magic bitboards.
func getRookAttacks(sq Square, occupied Bitboard) Bitboard {
	return rookTable[rookMagics[sq].index(occupied)]
}
