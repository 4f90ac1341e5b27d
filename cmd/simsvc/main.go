package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"arena_ai/internal/combat"
	"arena_ai/internal/config"
	"arena_ai/internal/stream"
	"arena_ai/internal/telemetry"
)

type options struct {
	cfgDir   string
	scenario string
	out      string
	mode     string
	n        int
	record   bool
}

func main() {
	var opt options
	var seed int64
	var dt, duration float64
	flag.StringVar(&opt.cfgDir, "config", "assets", "dir holding simsvc.yaml")
	flag.StringVar(&opt.scenario, "scenario", "", "scenario file overriding the content dir's scenario.yaml")
	flag.StringVar(&opt.out, "out", "out.json", "output file (single) or summary file (batch)")
	flag.StringVar(&opt.mode, "mode", "single", "single | batch | serve")
	flag.IntVar(&opt.n, "n", 1, "number of simulations in batch mode")
	flag.BoolVar(&opt.record, "log", true, "save full event log in single mode")
	flag.Int64Var(&seed, "seed", 0, "seed (overrides settings)")
	flag.Float64Var(&dt, "dt", 0, "fixed step seconds (overrides settings)")
	flag.Float64Var(&duration, "duration", 0, "simulated seconds (overrides settings)")
	flag.Parse()

	st, err := config.LoadSettings(opt.cfgDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "seed":
			st.Seed = seed
		case "dt":
			st.Dt = dt
		case "duration":
			st.Duration = duration
		}
	})

	runID := uuid.NewString()
	log := telemetry.NewLogger(st.LogLevel, st.LogFormat, runID, os.Stderr)

	bundle, err := config.LoadAll(contentDir(opt.cfgDir, st.ContentDir))
	if err != nil {
		log.Fatal().Err(err).Msg("load content")
	}
	if opt.scenario != "" {
		sc, err := config.LoadScenario(opt.scenario)
		if err != nil {
			log.Fatal().Err(err).Msg("load scenario")
		}
		bundle.Scenario = *sc
	}
	if bundle.Scenario.Dt > 0 && !flagSet("dt") {
		st.Dt = bundle.Scenario.Dt
	}
	if bundle.Scenario.Duration > 0 && !flagSet("duration") {
		st.Duration = bundle.Scenario.Duration
	}

	var metrics *telemetry.Metrics
	if st.Metrics {
		if metrics, err = telemetry.NewMetrics(nil); err != nil {
			log.Fatal().Err(err).Msg("init metrics")
		}
	}

	switch opt.mode {
	case "single":
		err = runSingle(log, st, bundle, metrics, runID, opt)
	case "batch":
		err = runBatch(log, st, bundle, metrics, opt)
	case "serve":
		err = runServe(log, st, bundle, metrics, runID)
	default:
		err = fmt.Errorf("unknown mode %q", opt.mode)
	}
	if err != nil {
		log.Fatal().Err(err).Str("mode", opt.mode).Msg("simsvc failed")
	}
}

func flagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// contentDir resolves a relative content dir against the config dir.
func contentDir(cfgDir, dir string) string {
	if dir == "" {
		return cfgDir
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	if _, err := os.Stat(dir); err == nil {
		return dir
	}
	return filepath.Join(cfgDir, dir)
}

func worldOptions(log zerolog.Logger, st *config.Settings, metrics *telemetry.Metrics) []combat.Option {
	opts := []combat.Option{
		combat.WithLogger(log),
		combat.WithParallelAI(st.Parallel),
		combat.WithSinks(telemetry.NewLogSink(telemetry.AuditLogger(log, st.AuditSample))),
	}
	if metrics != nil {
		opts = append(opts, combat.WithSinks(metrics), combat.WithObserver(metrics))
	}
	return opts
}

func openRecorder(log zerolog.Logger, st *config.Settings, runID string) (*telemetry.Recorder, error) {
	if st.AuditDB.Path == "" {
		return nil, nil
	}
	return telemetry.OpenRecorder(st.AuditDB.Path, runID, st.AuditDB.BatchSize, log)
}

func runSingle(log zerolog.Logger, st *config.Settings, b *config.Bundle, metrics *telemetry.Metrics, runID string, opt options) error {
	opts := append(worldOptions(log, st, metrics), combat.WithRecord(opt.record))
	rec, err := openRecorder(log, st, runID)
	if err != nil {
		return err
	}
	if rec != nil {
		defer rec.Close()
		opts = append(opts, combat.WithSinks(rec))
	}
	w, err := combat.NewWorldFromBundle(b, st.Seed, opts...)
	if err != nil {
		return err
	}
	res := w.Run(st.Duration, st.Dt)
	if err := os.WriteFile(opt.out, combat.MarshalPretty(res), 0644); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	log.Info().
		Str("scenario", res.Scenario).
		Float64("t", res.Duration).
		Uint64("ticks", res.Ticks).
		Interface("survivors", res.Survivors).
		Str("out", opt.out).
		Msg("single run finished")
	return nil
}

func runBatch(log zerolog.Logger, st *config.Settings, b *config.Bundle, metrics *telemetry.Metrics, opt options) error {
	n := opt.n
	if n < 1 {
		n = 1
	}
	results := make([]combat.SimResult, n)
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			runLog := log.With().Int("run", i).Logger()
			w, err := combat.NewWorldFromBundle(b, st.Seed+int64(i)*7919, worldOptions(runLog, st, metrics)...)
			if err != nil {
				return fmt.Errorf("run %d: %w", i, err)
			}
			results[i] = w.Run(st.Duration, st.Dt)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	summary := summarize(results)
	if err := os.WriteFile(opt.out, combat.MarshalPretty(summary), 0644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	log.Info().Int("runs", n).Str("out", filepath.Base(opt.out)).Msg("batch finished")
	return nil
}

// summarize folds batch results into per-ability damage share, kill totals
// and average survivors per team.
func summarize(results []combat.SimResult) map[string]any {
	byAbility := map[string]float64{}
	kills := map[string]int{}
	survivors := map[string]float64{}
	owners := map[string]map[string]int{}
	totalDmg, sumT := 0.0, 0.0
	for _, r := range results {
		sumT += r.Duration
		for k, v := range r.DamageByAbility {
			byAbility[k] += v
			totalDmg += v
		}
		for k, v := range r.Kills {
			kills[k] += v
		}
		for team, c := range r.Survivors {
			survivors[team] += float64(c)
		}
		for site, team := range r.SiteOwners {
			if owners[site] == nil {
				owners[site] = map[string]int{}
			}
			owners[site][team]++
		}
	}
	n := float64(len(results))
	share := map[string]any{}
	keys := make([]string, 0, len(byAbility))
	for k := range byAbility {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ratio := 0.0
		if totalDmg > 0 {
			ratio = byAbility[k] / totalDmg
		}
		share[k] = map[string]any{"total": byAbility[k], "ratio": ratio}
	}
	for team := range survivors {
		survivors[team] /= n
	}
	return map[string]any{
		"runs":          len(results),
		"avg_time":      sumT / n,
		"total_damage":  totalDmg,
		"by_ability":    share,
		"kills":         kills,
		"avg_survivors": survivors,
		"site_owners":   owners,
	}
}

func runServe(log zerolog.Logger, st *config.Settings, b *config.Bundle, metrics *telemetry.Metrics, runID string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := worldOptions(log, st, metrics)
	rec, err := openRecorder(log, st, runID)
	if err != nil {
		return err
	}
	if rec != nil {
		defer rec.Close()
		opts = append(opts, combat.WithSinks(rec))
	}
	w, err := combat.NewWorldFromBundle(b, st.Seed, opts...)
	if err != nil {
		return err
	}

	hub := stream.NewHub(log)
	var mu sync.Mutex
	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	mux.HandleFunc("/snapshot", func(rw http.ResponseWriter, r *http.Request) {
		mu.Lock()
		snap := w.Snapshot()
		mu.Unlock()
		rw.Header().Set("Content-Type", "application/json")
		_, _ = rw.Write(combat.MarshalPretty(snap))
	})
	srv := &http.Server{Addr: st.Serve.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", st.Serve.Addr).Msg("serving snapshots")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if rec != nil {
		g.Go(func() error { return rec.Run(ctx, st.AuditDB.FlushInterval) })
	}
	g.Go(func() error {
		rate := st.Serve.TickRate
		if rate <= 0 {
			rate = 20
		}
		ticker := time.NewTicker(time.Duration(float64(time.Second) / rate))
		defer ticker.Stop()
		dt := 1 / rate
		for {
			select {
			case <-ctx.Done():
				return nil
			case in := <-hub.Inputs():
				mu.Lock()
				w.SetInput(in)
				mu.Unlock()
			case <-ticker.C:
				mu.Lock()
				w.Step(dt)
				snap := w.Snapshot()
				mu.Unlock()
				if err := hub.Broadcast(snap); err != nil {
					log.Warn().Err(err).Msg("broadcast snapshot")
				}
			}
		}
	})
	err = g.Wait()
	log.Info().Float64("t", w.Env.Time).Msg("serve stopped")
	return err
}
