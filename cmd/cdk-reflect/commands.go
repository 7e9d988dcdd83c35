package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rix0rrr/cdk-reflect/core"
	"github.com/rix0rrr/cdk-reflect/corpus"
	"github.com/rix0rrr/cdk-reflect/eval"
	"github.com/rix0rrr/cdk-reflect/eval/wasmhost"
	"github.com/rix0rrr/cdk-reflect/explore"
	"github.com/rix0rrr/cdk-reflect/extract"
	"github.com/rix0rrr/cdk-reflect/model"
	"github.com/rix0rrr/cdk-reflect/pkg/metrics"
	"github.com/rix0rrr/cdk-reflect/pkg/tracing"
	"github.com/rix0rrr/cdk-reflect/stmt"
	"github.com/rix0rrr/cdk-reflect/typereg"
)

func newExtractCmd() *cobra.Command {
	var outFile string
	cmd := &cobra.Command{
		Use:   "extract <registry>...",
		Short: "extract a distribution model from normalized type registries",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			types, err := typereg.NewLoader(args...).Load()
			if err != nil {
				return err
			}
			m, err := extract.ExtractDistributions(types)
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(m, "", "  ")
			if err != nil {
				return err
			}
			if outFile == "" || outFile == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			logger.Slog().Info("model written", "path", outFile, "fqns", len(m.FQNs()))
			return os.WriteFile(outFile, data, 0o644)
		},
	}
	cmd.Flags().StringVarP(&outFile, "output", "o", "", "model output file (default stdout)")
	return cmd
}

func newExploreCmd() *cobra.Command {
	var (
		modelFile string
		seed      uint64
		variants  int
		rounds    int
		evaluate  bool
		outDir    string
		wasmFile  string
	)
	cfg := explore.LoadConfig()
	cmd := &cobra.Command{
		Use:   "explore <FQN>",
		Short: "generate a minimal value and explore its mutation neighborhood",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := loadModel(modelFile)
			if err != nil {
				return err
			}

			var host eval.Host
			if wasmFile != "" {
				wasm, err := os.ReadFile(wasmFile)
				if err != nil {
					return err
				}
				wh, err := wasmhost.New(cmd.Context(), wasm)
				if err != nil {
					return err
				}
				defer wh.Close(cmd.Context())
				host = wh
			}
			if evaluate && host == nil {
				return fmt.Errorf("-s requires --wasm <library module>")
			}

			var store *corpus.Store
			if outDir != "" {
				if store, err = corpus.NewStore(outDir); err != nil {
					return err
				}
			}

			tracer := tracing.Noop()
			if cfg.JaegerEndpoint != "" {
				if tracer, err = tracing.NewTracer(tracing.Config{
					ServiceName:    "cdk-reflect",
					JaegerEndpoint: cfg.JaegerEndpoint,
				}); err != nil {
					return err
				}
				defer tracer.Shutdown(context.Background())
			}

			explorer := explore.New(m, host, store, logger, metrics.NewPrometheusMetrics(nil), tracer)
			report, err := explorer.Explore(cmd.Context(), args[0], explore.Options{
				Seed:        seed,
				Variants:    variants,
				Rounds:      rounds,
				Evaluate:    evaluate,
				OnCandidate: candidatePrinter(cmd),
				OnRound: func(round, candidates, kept int) {
					if verbosity == 0 {
						fmt.Fprint(cmd.OutOrStdout(), ".")
					}
				},
			})
			if err != nil {
				return err
			}
			if verbosity == 0 {
				fmt.Fprintln(cmd.OutOrStdout())
			}
			printReport(cmd, report)
			return nil
		},
	}
	cmd.Flags().StringVarP(&modelFile, "model", "m", "", "distribution model file (required)")
	cmd.Flags().Uint64VarP(&seed, "seed", "S", cfg.Seed, "PRNG seed")
	cmd.Flags().IntVarP(&variants, "variants", "V", cfg.Variants, "mutation variants per round")
	cmd.Flags().IntVarP(&rounds, "rounds", "R", cfg.Rounds, "mutation rounds")
	cmd.Flags().BoolVarP(&evaluate, "synthesize", "s", false, "evaluate candidates and keep only successes")
	cmd.Flags().StringVarP(&outDir, "output", "o", cfg.OutDir, "corpus directory for successful values")
	cmd.Flags().StringVar(&wasmFile, "wasm", "", "WASM build of the library under exploration")
	_ = cmd.MarkFlagRequired("model")
	return cmd
}

func newSynthCmd() *cobra.Command {
	var wasmFile string
	cmd := &cobra.Command{
		Use:   "synth <file>...",
		Short: "re-evaluate saved values",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var wasm []byte
			if wasmFile != "" {
				var err error
				if wasm, err = os.ReadFile(wasmFile); err != nil {
					return err
				}
			}

			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(4)
			for _, path := range args {
				path := path
				g.Go(func() error {
					v, err := corpus.Load(path)
					if err != nil {
						return err
					}
					statements := stmt.Discretize(v)
					if verbosity >= 1 {
						fmt.Fprintln(cmd.OutOrStdout(), stmt.Print(statements))
					}
					if wasm == nil {
						return nil
					}
					// Module instances are not safe for concurrent calls;
					// each file gets its own.
					host, err := wasmhost.New(ctx, wasm)
					if err != nil {
						return err
					}
					defer host.Close(ctx)
					artifact, err := eval.New(host).Run(ctx, statements)
					if err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
					logger.Slog().Info("value synthesized", "path", path)
					if verbosity >= 2 {
						dump, _ := json.MarshalIndent(artifact, "", "  ")
						fmt.Fprintln(cmd.OutOrStdout(), string(dump))
					}
					return nil
				})
			}
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&wasmFile, "wasm", "", "WASM build of the library under exploration")
	return cmd
}

func loadModel(path string) (*model.Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file %s: %w", path, err)
	}
	m := model.NewRegistry()
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("failed to parse model file %s: %w", path, err)
	}
	return m, nil
}

func candidatePrinter(cmd *cobra.Command) func(v core.Value, artifact any, err error) {
	return func(v core.Value, artifact any, err error) {
		switch {
		case verbosity >= 2:
			fmt.Fprintln(cmd.OutOrStdout(), stmt.Print(stmt.Discretize(v)))
			if artifact != nil {
				dump, _ := json.MarshalIndent(artifact, "", "  ")
				fmt.Fprintln(cmd.OutOrStdout(), string(dump))
			}
		case verbosity == 1:
			status := "ok"
			if err != nil {
				status = "rejected"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", status, core.Print(v))
		}
	}
}

func printReport(cmd *cobra.Command, report *explore.Report) {
	fmt.Fprintf(cmd.OutOrStdout(), "session %s: %d rounds, %d evaluated, %d accepted\n",
		report.SessionID, report.Rounds, report.Evaluated, report.Successes)
	for class, count := range report.FailureHistogram {
		fmt.Fprintf(cmd.OutOrStdout(), "  %-16s %d\n", class, count)
	}
	if report.Final != nil {
		fmt.Fprintln(cmd.OutOrStdout(), core.Print(report.Final))
	}
}
