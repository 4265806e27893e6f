package fixture

import (
	"context"
	"fmt"
	"runtime"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"github.com/hailam/attackmap/internal/board"
)

type config struct {
	workers int
	strict  bool
	cache   *Cache
	log     logr.Logger
}

// Option configures a Generator.
type Option func(*config)

// WithWorkers bounds the number of positions processed at once by
// GenerateAll. Values below 1 select runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(cfg *config) {
		cfg.workers = n
	}
}

// WithStrict makes the generator reject en passant squares that do not
// match the side to move.
func WithStrict(strict bool) Option {
	return func(cfg *config) {
		cfg.strict = strict
	}
}

// WithCache shares an attack-map cache between generated fixtures.
func WithCache(c *Cache) Option {
	return func(cfg *config) {
		cfg.cache = c
	}
}

// WithLogger sets the logger for per-position diagnostics at V(1).
func WithLogger(log logr.Logger) Option {
	return func(cfg *config) {
		cfg.log = log
	}
}

// Generator extracts fixtures from FEN strings. A Generator is safe for
// concurrent use; board tables are read-only after package init.
type Generator struct {
	cfg config
}

// NewGenerator creates a generator with the given options.
func NewGenerator(opts ...Option) *Generator {
	cfg := config{log: logr.Discard()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.workers < 1 {
		cfg.workers = runtime.NumCPU()
	}
	return &Generator{cfg: cfg}
}

// Generate parses fen and extracts its fixture.
func (g *Generator) Generate(fen string) (Fixture, error) {
	parse := board.ParseFEN
	if g.cfg.strict {
		parse = board.ParseFENStrict
	}
	pos, err := parse(fen)
	if err != nil {
		return Fixture{}, err
	}

	var maps board.AttackMaps
	if g.cfg.cache != nil {
		maps = g.cfg.cache.AttackMaps(pos)
	} else {
		maps = pos.AttackMaps()
	}

	f := FromPosition(fen, pos, maps)
	g.cfg.log.V(1).Info("extracted", "fen", fen, "occupancy", Hex(f.Occupancy),
		"white", Hex(f.WhiteAttacks), "black", Hex(f.BlackAttacks))
	return f, nil
}

// GenerateAll extracts fixtures for every FEN concurrently. Results keep the
// order of fens. The first parse error cancels the remaining work and is
// returned with the offending index and FEN.
func (g *Generator) GenerateAll(ctx context.Context, fens []string) ([]Fixture, error) {
	out := make([]Fixture, len(fens))

	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(g.cfg.workers)

	for i, fen := range fens {
		if gctx.Err() != nil {
			break
		}
		grp.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			f, err := g.Generate(fen)
			if err != nil {
				return fmt.Errorf("fixture %d (%q): %w", i, fen, err)
			}
			out[i] = f
			return nil
		})
	}

	if err := grp.Wait(); err != nil {
		return nil, err
	}
	// The loop may stop early on a cancelled parent without any task failing.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.cfg.log.V(1).Info("batch complete", "positions", len(fens), "workers", g.cfg.workers)
	return out, nil
}
