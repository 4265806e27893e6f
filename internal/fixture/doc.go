// Package fixture turns FEN strings into attack-map fixtures: the occupancy
// of a position and the squares each side attacks, together with the en
// passant and castling fields the position was parsed with.
//
// Bitboards use the board package's layout, bit 0 = a1 through bit 63 = h8.
// Hex renders a bitboard the way the reference fixture tables were written:
// the eight bytes of the bitboard are reversed before printing, so rank 8
// occupies the lowest byte of the printed number. ParseHex undoes this.
//
// The binary encoding is little-endian throughout.
package fixture
