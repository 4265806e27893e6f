package fixture

import (
	"bytes"
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/hailam/attackmap/internal/board"
)

// suiteGolden holds the reference fixtures for DefaultSuite in Hex notation:
// occupancy, white attacks, black attacks, en passant and castling.
var suiteGolden = []struct {
	fen                   string
	occupancy, white, blk string
	enPassant, castling   string
}{
	{"8/8/8/8/8/8/8/8 w - - ", "0x0000000000000000", "0x0000000000000000", "0x0000000000000000", "-", "-"},
	{"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1", "0xffff00000000ffff", "0x7effff0000000000", "0x0000000000ffff7e", "-", "KQkq"},
	{"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1", "0x91ffa41218737d91", "0x7ef9ff75eaf52800", "0x00508dd7aefebbff", "-", "KQkq"},
	{"rnbqkb1r/pp1p1pPp/8/2p1pP2/1P1P4/3P3P/P1P1P3/RNBQKBNR w KQkq e6 0 1", "0xff15880a3400ebbf", "0x7effbf7455d000a0", "0x000000aa457fff7e", "e6", "KQkq"},
	{"r2q1rk1/ppp2ppp/2n1bn2/2b1p3/3pP3/3P1NPP/PPP1NPB1/R1BQ1RK1 b - - 0 9 ", "0x6d77e8181434e769", "0xfefffffc78800000", "0x0001977eb9fffdff", "-", "-"},
	{"r3k2r/8/8/8/3pPp2/8/8/R3K1RR b KQkq e3 0 1", "0xd100003800000091", "0xfef9c1c1e9c1c1c1", "0x8181d5818181b97e", "e3", "KQkq"},
	{"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1", "0x69cb211703e2ef91", "0xfffdf7c97f0d3062", "0x45233e5fadffbf7e", "-", "kq"},
	{"8/7p/p5pb/4k3/P1pPn3/8/P5PP/1rB2RK1 b - d3 0 28", "0x66c1001d10c18000", "0xfceaf32076a02020", "0x052a5e3aee7a4222", "d3", "-"},
	{"8/3K4/2p5/p2b2r1/5k2/8/8/1q6 b - - 1 67", "0x0200002049040800", "0x00000000001c141c", "0xfd477a56fa56e242", "-", "-"},
	{"rnbqkb1r/ppppp1pp/7n/4Pp2/8/8/PPPP1PPP/RNBQKBNR w KQkq f6 0 3", "0xffef00003080dfbf", "0x7effff4482290000", "0x0000005020ffff7e", "f6", "KQkq"},
	{"n1n5/PPPk4/8/8/8/8/4Kppp/5N1N b - - 0 1", "0xa0f0000000000f05", "0x38a878000000000f", "0xf0000000001e151c", "-", "-"},
	{"r3k2r/p6p/8/B7/1pp1p3/3b4/P6P/R3K2R w KQkq - 0 1", "0x9181081601008191", "0x7eb9420200020408", "0x22142f140042b97e", "-", "KQkq"},
	{"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1", "0x005000a283080400", "0x0202aa3f02070000", "0x0000d0c0fe8a8080", "-", "-"},
	{"r6r/1b2k1bq/8/8/7B/8/8/R3K2R b KQ - 3 2", "0x910000800000d281", "0x7eb9c18141211101", "0x83472d99b9fde9ff", "-", "KQ"},
	{"8/8/8/2k5/2pP4/8/B7/4K3 b - d3 0 3", "0x1001000c04000000", "0x2a38020414000000", "0x00000a0e0a0e0000", "d3", "-"},
	{"r1bqkbnr/pppppppp/n7/8/8/P7/1PPPPPPP/RNBQKBNR w KQkq - 2 2", "0xfffe01000001fffd", "0x7effff0200000000", "0x0000000204ffff7e", "-", "KQkq"},
	{"r3k2r/p1pp1pb1/bn2Qnp1/2qPN3/1p2P3/2N5/PPPBBPPP/R3K2R b KQkq - 3 2", "0x91ff04121c736d91", "0x7eb9ff75faff3810", "0x00b09ddfabfebfff", "-", "KQkq"},
	{"2kr3r/p1ppqpb1/bn2Qnp1/3PN3/1p2P3/2N5/PPPBBPPP/R3K2R b KQ - 3 2", "0x91ff041218737d8c", "0x7eb9ff75faff3800", "0x00908dd7aefeaeff", "-", "KQ"},
	{"rnb2k1r/pp1Pbppp/2p5/q7/2B5/8/PPPQNnPP/RNB1K2R w KQ - 3 9", "0x97ff00040104fba7", "0x7ebfff2a4b992814", "0x88098dd3feffff7a", "-", "KQ"},
}

func TestDefaultSuiteGolden(t *testing.T) {
	if len(DefaultSuite) != len(suiteGolden) {
		t.Fatalf("suite has %d positions, golden table %d", len(DefaultSuite), len(suiteGolden))
	}
	for i, want := range suiteGolden {
		if DefaultSuite[i] != want.fen {
			t.Fatalf("suite[%d] = %q, want %q", i, DefaultSuite[i], want.fen)
		}
		t.Run(strings.TrimSpace(want.fen), func(t *testing.T) {
			f, err := Generate(want.fen)
			if err != nil {
				t.Fatal(err)
			}
			if f.FEN != want.fen {
				t.Errorf("FEN = %q", f.FEN)
			}
			if got := Hex(f.Occupancy); got != want.occupancy {
				t.Errorf("occupancy = %s, want %s", got, want.occupancy)
			}
			if got := Hex(f.WhiteAttacks); got != want.white {
				t.Errorf("white attacks = %s, want %s", got, want.white)
			}
			if got := Hex(f.BlackAttacks); got != want.blk {
				t.Errorf("black attacks = %s, want %s", got, want.blk)
			}
			if f.EnPassant != want.enPassant || f.Castling != want.castling {
				t.Errorf("en passant/castling = %s/%s, want %s/%s", f.EnPassant, f.Castling, want.enPassant, want.castling)
			}
		})
	}
}

func TestHex(t *testing.T) {
	tests := []struct {
		bb   board.Bitboard
		want string
	}{
		{board.Empty, "0x0000000000000000"},
		{board.SquareBB(board.A1), "0x0100000000000000"},
		{board.SquareBB(board.H1), "0x8000000000000000"},
		{board.SquareBB(board.A8), "0x0000000000000001"},
		{board.SquareBB(board.H8), "0x0000000000000080"},
		{board.Rank2 | board.Rank7, "0x00ff00000000ff00"},
	}
	for _, tc := range tests {
		if got := Hex(tc.bb); got != tc.want {
			t.Errorf("Hex(%x) = %s, want %s", uint64(tc.bb), got, tc.want)
		}
		back, err := ParseHex(tc.want)
		if err != nil || back != tc.bb {
			t.Errorf("ParseHex(%s) = %x, %v", tc.want, uint64(back), err)
		}
	}

	rng := rand.New(rand.NewPCG(21, 42))
	for i := 0; i < 100; i++ {
		bb := board.Bitboard(rng.Uint64())
		if back, err := ParseHex(Hex(bb)); err != nil || back != bb {
			t.Fatalf("ParseHex(Hex(%x)) = %x, %v", uint64(bb), uint64(back), err)
		}
	}

	for _, bad := range []string{"", "0x", "0xzz", "0x1ffffffffffffffff"} {
		if _, err := ParseHex(bad); err == nil {
			t.Errorf("ParseHex(%q) succeeded", bad)
		}
	}
}

func TestBinaryEncoding(t *testing.T) {
	for _, fen := range DefaultSuite {
		f, err := Generate(fen)
		if err != nil {
			t.Fatal(err)
		}
		data, err := f.MarshalBinary()
		if err != nil {
			t.Fatalf("%q: %v", fen, err)
		}
		if len(data) != BinarySize {
			t.Fatalf("%q: %d bytes", fen, len(data))
		}

		var got Fixture
		if err := got.UnmarshalBinary(data); err != nil {
			t.Fatalf("%q: %v", fen, err)
		}
		got.FEN = f.FEN
		if got != f {
			t.Errorf("%q: decoded %+v, want %+v", fen, got, f)
		}
	}
}

func TestBinaryLayout(t *testing.T) {
	f, err := Generate("r3k2r/8/8/8/3pPp2/8/8/R3K1RR b KQkq e3 0 1")
	if err != nil {
		t.Fatal(err)
	}
	data, err := f.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}

	// a1 is the lowest bit, so the first byte is rank 1: a1, e1, g1, h1.
	if data[0] != 0xd1 {
		t.Errorf("first occupancy byte = %#x, want 0xd1", data[0])
	}
	if data[24] != byte(board.E3) || data[25] != byte(board.AllCastling) {
		t.Errorf("trailer = %v", data[24:])
	}

	prefixed, err := f.AppendBinary([]byte("hdr"))
	if err != nil || !bytes.Equal(prefixed[3:], data) {
		t.Errorf("AppendBinary did not append the encoding: %v", err)
	}
}

func TestUnmarshalBinaryErrors(t *testing.T) {
	var f Fixture
	if err := f.UnmarshalBinary(make([]byte, BinarySize-1)); !errors.Is(err, ErrShortBuffer) {
		t.Errorf("short buffer error = %v", err)
	}

	data := make([]byte, BinarySize)
	data[24] = byte(board.E4)
	if err := f.UnmarshalBinary(data); err == nil {
		t.Error("en passant on rank 4 accepted")
	}

	data[24] = byte(board.NoSquare)
	data[25] = 0x30
	if err := f.UnmarshalBinary(data); err == nil {
		t.Error("unknown castling bits accepted")
	}

	data[25] = 0
	if err := f.UnmarshalBinary(data); err != nil {
		t.Fatal(err)
	}
	if f.EnPassant != "-" || f.Castling != "-" {
		t.Errorf("empty trailer decoded as %s/%s", f.EnPassant, f.Castling)
	}
}

func TestMarshalBinaryRejectsBadFields(t *testing.T) {
	if _, err := (Fixture{EnPassant: "z9", Castling: "-"}).MarshalBinary(); err == nil {
		t.Error("bad en passant encoded")
	}
	if _, err := (Fixture{EnPassant: "-", Castling: "KX"}).MarshalBinary(); err == nil {
		t.Error("bad castling encoded")
	}
}

func TestReportFormats(t *testing.T) {
	f, err := Generate(board.StartFEN)
	if err != nil {
		t.Fatal(err)
	}

	report := f.String()
	for _, line := range []string{
		"FEN           : " + board.StartFEN,
		"Occupancy     : 0xffff00000000ffff",
		"White Attacks : 0x7effff0000000000",
		"Black Attacks : 0x0000000000ffff7e",
		"En-passant    : -",
		"Castling      : KQkq",
	} {
		if !strings.Contains(report, line+"\n") {
			t.Errorf("report missing %q:\n%s", line, report)
		}
	}

	want := "0xffff00000000ffff 0x7effff0000000000 0x0000000000ffff7e - KQkq " + board.StartFEN
	if got := f.HexLine(); got != want {
		t.Errorf("HexLine() = %q\nwant %q", got, want)
	}
	if f.Attacks(board.Black) != f.BlackAttacks || f.Attacks(board.White) != f.WhiteAttacks {
		t.Error("Attacks returned the wrong side")
	}
}

func TestGenerateAllKeepsOrder(t *testing.T) {
	var fens []string
	for i := 0; i < 5; i++ {
		fens = append(fens, DefaultSuite...)
	}

	cache, err := NewCache(64)
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	got, err := NewGenerator(WithWorkers(4), WithCache(cache)).GenerateAll(context.Background(), fens)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(fens) {
		t.Fatalf("got %d fixtures, want %d", len(got), len(fens))
	}
	for i, fen := range fens {
		want, err := Generate(fen)
		if err != nil {
			t.Fatal(err)
		}
		if got[i] != want {
			t.Errorf("fixture %d = %+v, want %+v", i, got[i], want)
		}
	}
}

func TestGenerateAllReportsIndex(t *testing.T) {
	fens := []string{board.StartFEN, board.StartFEN, board.StartFEN, "8/8/8/8/8/8/8/9 w - - 0 1"}
	_, err := NewGenerator(WithWorkers(2)).GenerateAll(context.Background(), fens)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.Is(err, board.ErrInvalidBoardLayout) {
		t.Errorf("error %v does not wrap ErrInvalidBoardLayout", err)
	}
	if !strings.Contains(err.Error(), "fixture 3") {
		t.Errorf("error %v does not name the index", err)
	}
}

func TestGenerateAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewGenerator().GenerateAll(ctx, DefaultSuite); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}

	got, err := NewGenerator().GenerateAll(context.Background(), nil)
	if err != nil || len(got) != 0 {
		t.Errorf("empty batch = %v, %v", got, err)
	}
}

func TestStrictOption(t *testing.T) {
	fen := "8/8/8/8/4P3/8/8/8 w - e3 0 1"
	if _, err := Generate(fen); err != nil {
		t.Fatalf("lenient: %v", err)
	}
	if _, err := Generate(fen, WithStrict(true)); !errors.Is(err, board.ErrInvalidEnPassant) {
		t.Errorf("strict error = %v, want ErrInvalidEnPassant", err)
	}
}

func TestCache(t *testing.T) {
	cache, err := NewCache(16)
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	pos := board.NewPosition()
	first := cache.AttackMaps(pos)
	cache.Wait()
	if second := cache.AttackMaps(pos); second != first {
		t.Errorf("cached maps differ: %+v vs %+v", second, first)
	}
	if cache.Hits() == 0 || cache.HitRate() <= 0 {
		t.Errorf("hits = %d, rate = %.1f", cache.Hits(), cache.HitRate())
	}

	// An entry stored under the same hash for a different board must not
	// be returned.
	cache.maps.Set(pos.Hash, board.AttackMaps{Occupancy: board.Rank4}, 1)
	cache.Wait()
	if got := cache.AttackMaps(pos); got != pos.AttackMaps() {
		t.Errorf("collision returned %+v", got)
	}

	cache.Clear()
	cache.Wait()
	if _, ok := cache.maps.Get(pos.Hash); ok {
		t.Error("Clear left entries behind")
	}
}

func BenchmarkGenerateAll(b *testing.B) {
	g := NewGenerator()
	ctx := context.Background()
	for i := 0; i < b.N; i++ {
		if _, err := g.GenerateAll(ctx, DefaultSuite); err != nil {
			b.Fatal(err)
		}
	}
}
