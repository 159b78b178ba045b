package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/covertsonic/privateer"
	"github.com/google/uuid"
	"github.com/mattn/go-colorable"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var (
	configPath = flag.String("config", "", "YAML file overlaid on the built-in defaults")
	seedList   = flag.String("seeds", "1", "seeds to run, e.g. 1,2,10-20")
	parallel   = flag.Int("parallel", 4, "number of skirmishes run at once")
	duration   = flag.Duration("duration", time.Minute, "simulated length of each skirmish")
	tick       = flag.Duration("tick", time.Second/60, "simulated time per tick")
	enemies    = flag.Int("enemies", 3, "enemies in the opening wave")
	pilotMode  = flag.String("pilot", "gunner", "scripted player: gunner|orbiter")
	logLevel   = flag.String("log-level", "info", "panic|fatal|error|warn|info|debug|trace")
	logFormat  = flag.String("log-format", "text", "text|json")
)

func main() {
	flag.Parse()
	logger := newLogger(*logLevel, *logFormat)
	privateer.SetLogger(logger)

	cfg := privateer.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = privateer.LoadConfig(*configPath); err != nil {
			logger.WithError(err).Fatal("failed to load config")
		}
	}
	seeds, err := parseSeeds(*seedList)
	if err != nil {
		logger.WithError(err).Fatal("bad -seeds")
	}
	if *tick <= 0 || *duration < *tick {
		logger.Fatal("-tick must be positive and no longer than -duration")
	}
	if *pilotMode != "gunner" && *pilotMode != "orbiter" {
		logger.Fatalf("unknown pilot %q", *pilotMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results := make([]result, len(seeds))
	g, ctx := errgroup.WithContext(ctx)
	if *parallel > 0 {
		g.SetLimit(*parallel)
	}
	for i, seed := range seeds {
		i, seed := i, seed
		g.Go(func() error {
			sk := skirmish{
				Config:  withSeed(cfg, seed),
				RunID:   uuid.NewString(),
				Enemies: *enemies,
				Pilot:   *pilotMode,
				Tick:    tick.Seconds(),
				Frames:  int(*duration / *tick),
				Log:     logger,
			}
			res, err := sk.run(ctx)
			results[i] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		logger.WithError(err).Error("skirmishes aborted")
		os.Exit(2)
	}

	failed := printSummary(results)
	if failed > 0 {
		logger.Errorf("%d of %d skirmishes violated invariants", failed, len(results))
		os.Exit(1)
	}
}

func newLogger(level, format string) *logrus.Logger {
	l := logrus.New()
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	if strings.ToLower(format) == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
		l.SetOutput(os.Stderr)
		return l
	}
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, ForceColors: true})
	l.SetOutput(colorable.NewColorableStderr())
	return l
}

func withSeed(base *privateer.Config, seed int64) *privateer.Config {
	cfg := *base
	cfg.Seed = seed
	// headless runs are faster than real time, so locks follow simulated time
	cfg.Targeting.Clock = privateer.ClockSimulation
	return &cfg
}

// parseSeeds accepts comma separated seeds and inclusive ranges.
func parseSeeds(s string) ([]int64, error) {
	var seeds []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi := part, part
		if i := strings.Index(part[1:], "-"); i >= 0 {
			lo, hi = part[:i+1], part[i+2:]
		}
		from, err := strconv.ParseInt(lo, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "seed %q", part)
		}
		to, err := strconv.ParseInt(hi, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "seed %q", part)
		}
		if to < from {
			return nil, errors.Errorf("empty seed range %q", part)
		}
		for n := from; n <= to; n++ {
			seeds = append(seeds, n)
		}
	}
	if len(seeds) == 0 {
		return nil, errors.New("no seeds given")
	}
	return seeds, nil
}

func printSummary(results []result) int {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tRUN\tFRAMES\tSIM TIME\tKILLS\tPLAYER\tHULL\tINVARIANTS")
	failed := 0
	for _, r := range results {
		status := "ok"
		if r.Violation != nil {
			status = r.Violation.Error()
			failed++
		}
		player := "alive"
		if !r.PlayerAlive {
			player = "destroyed"
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%.1fs\t%d\t%s\t%.0f\t%s\n",
			r.Seed, shortID(r.RunID), r.Frames, r.Seconds, r.Kills, player, r.Hull, status)
	}
	w.Flush()
	return failed
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
