// Command familysched searches for a low-cost day assignment of
// families to a holiday schedule, given each family's ranked day
// preferences and a per-day capacity band.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/exp/rand"
	"k8s.io/klog/v2"

	"github.com/brodin-oss/familysched/internal/archive"
	"github.com/brodin-oss/familysched/internal/catalog"
	"github.com/brodin-oss/familysched/internal/config"
	"github.com/brodin-oss/familysched/internal/constraints"
	"github.com/brodin-oss/familysched/internal/controller"
	"github.com/brodin-oss/familysched/internal/cost"
	"github.com/brodin-oss/familysched/internal/metrics"
	"github.com/brodin-oss/familysched/internal/plotting"
	"github.com/brodin-oss/familysched/internal/schedulerio"
	"github.com/brodin-oss/familysched/internal/solution"
	"github.com/brodin-oss/familysched/internal/warmstart"
)

func main() {
	klog.InitFlags(nil)
	if err := newRootCmd().Execute(); err != nil {
		klog.ErrorS(err, "familysched failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := config.Default()

	cmd := &cobra.Command{
		Use:   "familysched",
		Short: "Search for a low-cost family-to-day schedule assignment",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&cfg.FamiliesPath, "fam", "f", cfg.FamiliesPath, "path to the family data CSV")
	flags.IntVarP(&cfg.NThreads, "nthreads", "n", cfg.NThreads, "number of worker goroutines")
	flags.IntVarP(&cfg.NInit, "ninit", "i", 0, "number of random initial solutions to start from (defaults to nthreads)")
	flags.IntVarP(&cfg.RepsPerSol, "nreps", "r", 0, "number of times to repeat optimizing each initial solution (defaults to nthreads)")
	flags.StringVarP(&cfg.SolutionPath, "sol", "s", "", "start from a pre-built solution CSV instead of --ninit random ones")
	flags.IntVarP(&cfg.MoveDepth, "depth", "d", cfg.MoveDepth, "maximum length of a chained move")
	flags.IntVarP(&cfg.Perturbations, "npert", "p", cfg.Perturbations, "number of perturbation rounds per ILS run")
	flags.StringVarP(&cfg.OutDir, "outdir", "o", cfg.OutDir, "output directory for checkpoint CSVs")
	flags.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "address to serve Prometheus metrics on (empty disables it)")
	flags.StringVar(&cfg.PlotPath, "plot", "", "write a convergence chart to this HTML file on exit (empty disables it)")
	flags.StringVar(&cfg.InitStrategy, "init-strategy", cfg.InitStrategy, "initial solution constructor: greedy or random")
	flags.BoolVar(&cfg.Diagnostics, "diagnostics", false, "log the penalty/accounting cost split at each checkpoint")
	flags.IntVarP(&cfg.Verbosity, "verbosity", "v", 0, "klog verbosity level")

	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	cfg.Resolve()
	if err := config.Validate(cfg); err != nil {
		return err
	}
	flag.Set("v", strconv.Itoa(cfg.Verbosity))

	cat, err := schedulerio.ReadFamilies(cfg.FamiliesPath)
	if err != nil {
		return fmt.Errorf("familysched: loading families: %w", err)
	}
	klog.InfoS("catalog loaded", "families", cat.NumFamilies, "days", cat.NumDays)

	masterRNG := rand.New(rand.NewSource(uint64(time.Now().UnixNano())))

	seeds, err := buildSeeds(cat, cfg, masterRNG)
	if err != nil {
		return err
	}

	q := archive.New(cfg.OutDir, archive.DefaultAdmissionPolicy(cat.NumFamilies))

	var rec *metrics.Recorder
	var reg *prometheus.Registry
	if cfg.MetricsAddr != "" {
		rec, reg = metrics.NewRecorder()
	}

	runCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	start := time.Now()
	var samplesMu sync.Mutex
	var samples []plotting.Sample

	hooks := controller.Hooks{
		OnCheckpoint: func(path string, bestCost float64) {
			klog.InfoS("new global best", "cost", bestCost, "path", path)
			if rec != nil {
				rec.BestCost.Set(bestCost)
				rec.ArchiveSize.Set(float64(q.Len()))
				rec.Checkpoints.Inc()
			}
			if cfg.PlotPath != "" {
				samplesMu.Lock()
				samples = append(samples, plotting.Sample{ElapsedSeconds: time.Since(start).Seconds(), BestCost: bestCost})
				samplesMu.Unlock()
			}
			if cfg.Diagnostics {
				logDiagnostics(cat, path)
			}
		},
		OnRoundComplete: func(workerID int, roundCost float64, duration time.Duration) {
			if rec != nil {
				rec.RoundsTotal.WithLabelValues(fmt.Sprintf("%d", workerID)).Inc()
				rec.RoundDuration.Observe(duration.Seconds())
			}
		},
	}

	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(runCtx, cfg.MetricsAddr, reg); err != nil {
				klog.ErrorS(err, "metrics server stopped with error")
			}
		}()
	}

	controller.Run(runCtx, cat, seeds, controller.Config{
		NThreads:      cfg.NThreads,
		RepsPerSol:    cfg.RepsPerSol,
		MoveDepth:     cfg.MoveDepth,
		Perturbations: cfg.Perturbations,
	}, q, masterRNG, hooks)

	if best, ok := q.Fmin(); ok {
		klog.InfoS("search stopped", "bestCost", best)
	}

	if cfg.PlotPath != "" {
		samplesMu.Lock()
		defer samplesMu.Unlock()
		if len(samples) > 0 {
			if err := plotting.RenderConvergence(samples, cfg.PlotPath); err != nil {
				return fmt.Errorf("familysched: rendering convergence chart: %w", err)
			}
		}
	}
	return nil
}

func buildSeeds(cat *catalog.Catalog, cfg *config.Config, rng *rand.Rand) ([]*solution.Solution, error) {
	valid := []constraints.Predicate{constraints.CapacityBand(cat), constraints.OccupancyConsistency(cat)}

	if cfg.SolutionPath != "" {
		ctx := catalog.NewScoringContext()
		sol, err := schedulerio.ReadSolution(cat, ctx, cfg.SolutionPath)
		if err != nil {
			return nil, fmt.Errorf("familysched: loading solution: %w", err)
		}
		if !constraints.All(sol, valid...) {
			return nil, fmt.Errorf("familysched: %s does not satisfy the capacity/occupancy invariants", cfg.SolutionPath)
		}
		return []*solution.Solution{sol}, nil
	}

	seeds := make([]*solution.Solution, cfg.NInit)
	for i := range seeds {
		ctx := catalog.NewScoringContext()
		sol := warmstart.Build(cat, ctx, rng, cfg.InitStrategy)
		if !constraints.All(sol, valid...) {
			return nil, fmt.Errorf("familysched: warmstart produced a seed violating the capacity/occupancy invariants")
		}
		seeds[i] = sol
	}
	return seeds, nil
}

func logDiagnostics(cat *catalog.Catalog, checkpointPath string) {
	ctx := catalog.NewScoringContext()
	sol, err := schedulerio.ReadSolution(cat, ctx, checkpointPath)
	if err != nil {
		klog.ErrorS(err, "diagnostics: re-reading checkpoint", "path", checkpointPath)
		return
	}
	total, p, a := cost.Split(cat, ctx, sol)
	klog.InfoS("cost split", "total", total, "penalty", p, "accounting", a)
}

