package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/meeshkan/sorteddict"
	"github.com/meeshkan/sorteddict/workload"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCommand(ctx).Execute(); err != nil {
		fmt.Printf("Error: %s\n", err.Error())
		os.Exit(1)
	}
}

func rootCommand(c context.Context) *cobra.Command {
	var (
		profile        string
		seed           uint64
		rounds         int64
		roundLimit     int64
		initialSize    int
		finalSize      int
		changePerRound int
		deleteFraction float64
		skipVerify     bool
		logLevel       string
		metricsFile    string
		dotFile        string
	)

	cmd := &cobra.Command{
		Use:   "sorteddict-bench",
		Short: "Runs randomized workloads against the sorted dictionary.",
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := zerolog.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
				Level(level).
				With().Timestamp().Logger()

			var params workload.Params
			switch profile {
			case "small":
				params = workload.SmallProfile(rounds)
			case "churn":
				params = workload.ChurnProfile(rounds)
			case "ascending":
				params = workload.AscendingProfile(rounds)
			default:
				return fmt.Errorf("unknown profile %q", profile)
			}
			params.Seed = seed
			if cmd.Flags().Changed("initial-size") {
				params.InitialSize = initialSize
			}
			if cmd.Flags().Changed("final-size") {
				params.FinalSize = finalSize
			}
			if cmd.Flags().Changed("change-per-round") {
				params.ChangePerRound = changePerRound
			}
			if cmd.Flags().Changed("delete-fraction") {
				params.DeleteFraction = deleteFraction
			}

			labels := map[string]string{"profile": profile}
			registry := prometheus.NewRegistry()
			ctx := &workload.RunContext{
				Context:    c,
				Log:        log,
				Params:     params,
				RoundLimit: roundLimit,
				SkipVerify: skipVerify,
				MetricOpCount: promauto.With(registry).NewCounter(prometheus.CounterOpts{
					Name:        "sorteddict_ops_total",
					Help:        "number of dictionary operations applied",
					ConstLabels: labels,
				}),
				MetricMapSize: promauto.With(registry).NewGauge(prometheus.GaugeOpts{
					Name:        "sorteddict_entries",
					Help:        "entries in the dictionary after the run",
					ConstLabels: labels,
				}),
				MetricTreeHeight: promauto.With(registry).NewGauge(prometheus.GaugeOpts{
					Name:        "sorteddict_tree_height",
					Help:        "height of the backing tree after the run",
					ConstLabels: labels,
				}),
			}

			var dict *sorteddict.Map[string, []byte]
			if level <= zerolog.DebugLevel {
				dict = sorteddict.NewWithLogger[string, []byte](log)
			} else {
				dict = sorteddict.New[string, []byte]()
			}

			started := time.Now()
			if err := ctx.Run(dict); err != nil {
				return err
			}
			log.Info().Msgf("profile %s finished in %s", profile, time.Since(started))

			families, err := registry.Gather()
			if err != nil {
				return err
			}
			for _, mf := range families {
				for _, m := range mf.GetMetric() {
					switch {
					case m.GetCounter() != nil:
						log.Info().Msgf("%s = %s", mf.GetName(), humanize.Commaf(m.GetCounter().GetValue()))
					case m.GetGauge() != nil:
						log.Info().Msgf("%s = %s", mf.GetName(), humanize.Commaf(m.GetGauge().GetValue()))
					}
				}
			}

			if metricsFile != "" {
				if err := prometheus.WriteToTextfile(metricsFile, registry); err != nil {
					return fmt.Errorf("error writing metrics file: %w", err)
				}
			}
			if dotFile != "" {
				if err := os.WriteFile(dotFile, []byte(dict.RenderDotGraph()), 0o644); err != nil {
					return fmt.Errorf("error writing dot file: %w", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&profile, "profile", "small", "workload profile: small, churn or ascending")
	cmd.Flags().Uint64Var(&seed, "seed", 1234, "seed for the random number generator")
	cmd.Flags().Int64Var(&rounds, "rounds", 10, "number of rounds to generate")
	cmd.Flags().Int64Var(&roundLimit, "round-limit", 0, "stop after this many rounds; 0 applies all rounds")
	cmd.Flags().IntVar(&initialSize, "initial-size", 0, "override the profile's initial entry count")
	cmd.Flags().IntVar(&finalSize, "final-size", 0, "override the profile's final entry count")
	cmd.Flags().IntVar(&changePerRound, "change-per-round", 0, "override the profile's changes per round")
	cmd.Flags().Float64Var(&deleteFraction, "delete-fraction", 0, "override the profile's delete fraction")
	cmd.Flags().BoolVar(&skipVerify, "skip-verify", false, "skip the per-round reference cross-checks")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "zerolog level: trace, debug, info, warn or error")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write metrics in prometheus text format to this file")
	cmd.Flags().StringVar(&dotFile, "dot-file", "", "write the final tree in graphviz dot format to this file")

	return cmd
}
