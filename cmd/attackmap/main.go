// Command attackmap extracts attack-map fixtures from FEN positions.
//
// Each position yields its occupancy and the squares attacked by each side,
// printed as a labelled report or one hex line per position. Fixtures can be
// persisted to a BadgerDB store and drawn as SVG or PNG diagrams.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"

	"github.com/hailam/attackmap/internal/board"
	"github.com/hailam/attackmap/internal/fixture"
	"github.com/hailam/attackmap/internal/render"
	"github.com/hailam/attackmap/internal/storage"
)

// fenList collects repeated -fen flags.
type fenList []string

func (l *fenList) String() string { return fmt.Sprint(*l) }

func (l *fenList) Set(s string) error {
	*l = append(*l, s)
	return nil
}

type config struct {
	fens       fenList
	inPath     string
	format     string
	workers    int
	cacheSize  int64
	strict     bool
	save       bool
	dbDir      string
	svgDir     string
	pngDir     string
	squareSize int
	verbosity  int
	cpuprofile string
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "attackmap:", err)
		}
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (*config, error) {
	cfg := &config{}
	fs := flag.NewFlagSet("attackmap", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.Var(&cfg.fens, "fen", "position to extract (repeatable)")
	fs.StringVar(&cfg.inPath, "in", "", "file with one FEN per line, - for stdin")
	fs.StringVar(&cfg.format, "format", "text", "output format: text or hex")
	fs.IntVar(&cfg.workers, "workers", envInt("ATTACKMAP_WORKERS", 0), "parallel workers, 0 for one per CPU")
	fs.Int64Var(&cfg.cacheSize, "cache", 4096, "attack-map cache entries")
	fs.BoolVar(&cfg.strict, "strict", false, "reject en passant squares that do not fit the side to move")
	fs.BoolVar(&cfg.save, "save", false, "persist fixtures to the store")
	fs.StringVar(&cfg.dbDir, "db", os.Getenv("ATTACKMAP_DB"), "fixture store directory (default: platform data dir)")
	fs.StringVar(&cfg.svgDir, "svg", "", "write SVG diagrams to this directory")
	fs.StringVar(&cfg.pngDir, "png", "", "write PNG diagrams to this directory")
	fs.IntVar(&cfg.squareSize, "square", render.DefaultSquareSize, "diagram square size in pixels")
	fs.IntVar(&cfg.verbosity, "v", 0, "log verbosity")
	fs.StringVar(&cfg.cpuprofile, "cpuprofile", "", "write cpu profile to file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cfg.fens = append(cfg.fens, fs.Args()...)

	if cfg.cpuprofile == "" {
		cfg.cpuprofile = os.Getenv("CPUPROFILE")
	}
	if cfg.format != "text" && cfg.format != "hex" {
		return nil, fmt.Errorf("unknown format %q", cfg.format)
	}
	return cfg, nil
}

func envInt(name string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(name)); err == nil {
		return v
	}
	return def
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	stdr.SetVerbosity(cfg.verbosity)
	logger := stdr.New(log.New(stderr, "", log.LstdFlags))

	// Start CPU profiling if requested (via flag or environment variable)
	if cfg.cpuprofile != "" {
		f, err := os.Create(cfg.cpuprofile)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
		logger.Info("CPU profiling enabled", "path", cfg.cpuprofile)
	}

	fens := []string(cfg.fens)
	if cfg.inPath != "" {
		in := stdin
		if cfg.inPath != "-" {
			f, err := os.Open(cfg.inPath)
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}
		more, err := readFENs(in)
		if err != nil {
			return fmt.Errorf("read %s: %w", cfg.inPath, err)
		}
		fens = append(fens, more...)
	}
	if len(fens) == 0 {
		fens = fixture.DefaultSuite
		logger.V(1).Info("no positions given, using the default suite", "positions", len(fens))
	}

	cache, err := fixture.NewCache(cfg.cacheSize)
	if err != nil {
		return err
	}
	defer cache.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	gen := fixture.NewGenerator(
		fixture.WithWorkers(cfg.workers),
		fixture.WithStrict(cfg.strict),
		fixture.WithCache(cache),
		fixture.WithLogger(logger.WithName("fixture")),
	)

	start := time.Now()
	fixtures, err := gen.GenerateAll(ctx, fens)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	for _, f := range fixtures {
		if cfg.format == "hex" {
			fmt.Fprintln(stdout, f.HexLine())
		} else {
			fmt.Fprintln(stdout, f.String())
		}
	}

	if cfg.save {
		if err := save(cfg.dbDir, fixtures, logger); err != nil {
			return err
		}
	}
	if cfg.svgDir != "" || cfg.pngDir != "" {
		if err := writeDiagrams(cfg, fixtures, logger); err != nil {
			return err
		}
	}

	rate := float64(len(fixtures)) / elapsed.Seconds()
	logger.Info("done",
		"positions", humanize.Comma(int64(len(fixtures))),
		"elapsed", elapsed.Round(time.Microsecond).String(),
		"perSecond", humanize.Comma(int64(rate)),
		"cacheHitRate", fmt.Sprintf("%.1f%%", cache.HitRate()))
	return nil
}

func save(dir string, fixtures []fixture.Fixture, logger logr.Logger) error {
	if dir == "" {
		var err error
		if dir, err = storage.GetDatabaseDir(); err != nil {
			return err
		}
	}

	store, err := storage.Open(dir, logger.WithName("storage"))
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.PutAll(fixtures); err != nil {
		return err
	}
	all, err := store.All()
	if err != nil {
		return err
	}
	logger.Info("fixtures saved", "dir", dir, "stored", humanize.Comma(int64(len(all))),
		"size", humanize.Bytes(uint64(store.Size())))
	return nil
}

// writeDiagrams draws both sides' attack maps for every fixture as
// NNN-white.svg, NNN-black.png and so on.
func writeDiagrams(cfg *config, fixtures []fixture.Fixture, logger logr.Logger) error {
	for _, dir := range []string{cfg.svgDir, cfg.pngDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	var written int
	for i, f := range fixtures {
		pos, err := board.ParseFEN(f.FEN)
		if err != nil {
			return err
		}
		for _, c := range []board.Color{board.White, board.Black} {
			opts := render.Options{
				SquareSize: cfg.squareSize,
				Title:      fmt.Sprintf("%s attacks: %s", c, f.FEN),
			}
			name := fmt.Sprintf("%03d-%s", i, strings.ToLower(c.String()))

			if cfg.svgDir != "" {
				if err := writeFile(filepath.Join(cfg.svgDir, name+".svg"), func(w io.Writer) error {
					return render.SVG(w, pos, f.Attacks(c), opts)
				}); err != nil {
					return err
				}
				written++
			}
			if cfg.pngDir != "" {
				if err := writeFile(filepath.Join(cfg.pngDir, name+".png"), func(w io.Writer) error {
					return render.PNG(w, pos, f.Attacks(c), opts)
				}); err != nil {
					return err
				}
				written++
			}
		}
	}
	logger.V(1).Info("diagrams written", "files", written)
	return nil
}

func writeFile(path string, fill func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fill(f); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}
