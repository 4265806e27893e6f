package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hailam/attackmap/internal/board"
	"github.com/hailam/attackmap/internal/fixture"
)

func TestReadFENs(t *testing.T) {
	in := strings.NewReader("# suite\n\n  " + board.StartFEN + "  \n8/8/8/8/8/8/8/8 w - -\n")
	fens, err := readFENs(in)
	if err != nil {
		t.Fatal(err)
	}
	if len(fens) != 2 || fens[0] != board.StartFEN || fens[1] != "8/8/8/8/8/8/8/8 w - -" {
		t.Errorf("readFENs = %q", fens)
	}
}

func TestRunHex(t *testing.T) {
	dir := t.TempDir()
	var stdout, stderr bytes.Buffer
	args := []string{
		"-format", "hex",
		"-fen", board.StartFEN,
		"-save", "-db", filepath.Join(dir, "db"),
		"-svg", filepath.Join(dir, "svg"),
		"-png", filepath.Join(dir, "png"),
		"-square", "16",
	}
	if err := run(args, strings.NewReader(""), &stdout, &stderr); err != nil {
		t.Fatalf("run: %v\n%s", err, stderr.String())
	}

	want := "0xffff00000000ffff 0x7effff0000000000 0x0000000000ffff7e - KQkq " + board.StartFEN + "\n"
	if stdout.String() != want {
		t.Errorf("stdout = %q\nwant %q", stdout.String(), want)
	}
	for _, name := range []string{"svg/000-white.svg", "svg/000-black.svg", "png/000-white.png", "png/000-black.png"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
	if !strings.Contains(stderr.String(), "fixtures saved") {
		t.Errorf("store summary not logged:\n%s", stderr.String())
	}
}

func TestRunDefaultSuiteFromStdin(t *testing.T) {
	var stdout, stderr bytes.Buffer
	stdin := strings.NewReader(strings.Join(fixture.DefaultSuite, "\n"))
	if err := run([]string{"-in", "-", "-workers", "3"}, stdin, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}
	if n := strings.Count(stdout.String(), "White Attacks : "); n != len(fixture.DefaultSuite) {
		t.Errorf("%d reports, want %d", n, len(fixture.DefaultSuite))
	}
}

func TestRunErrors(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run([]string{"-fen", "8/8/8 w - - 0 1"}, strings.NewReader(""), &stdout, &stderr)
	if !errors.Is(err, board.ErrInvalidBoardLayout) {
		t.Errorf("bad FEN error = %v", err)
	}
	if stdout.Len() != 0 {
		t.Errorf("output written for a failed batch: %q", stdout.String())
	}

	if err := run([]string{"-format", "xml"}, strings.NewReader(""), &stdout, &stderr); err == nil {
		t.Error("unknown format accepted")
	}
	if err := run([]string{"-in", filepath.Join(t.TempDir(), "missing")}, strings.NewReader(""), &stdout, &stderr); err == nil {
		t.Error("missing input file accepted")
	}
}
