// Command cdk-reflect explores the program space of a typed class library:
// extract a distribution model from normalized type registries, generate
// and mutate values of a target type, and re-evaluate saved values.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rix0rrr/cdk-reflect/explore"
	"github.com/rix0rrr/cdk-reflect/pkg/logging"
)

var (
	verbosity int
	logger    *logging.Logger
)

func main() {
	root := &cobra.Command{
		Use:           "cdk-reflect",
		Short:         "program-space exploration for typed class libraries",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := explore.LoadConfig()
			level := cfg.LogLevel
			if verbosity >= 2 {
				level = "debug"
			}
			var err error
			logger, err = logging.NewLogger(logging.Config{
				Level:  level,
				Format: "json",
				Output: "stderr",
			})
			return err
		},
	}
	root.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase verbosity (repeatable)")

	root.AddCommand(newExtractCmd(), newExploreCmd(), newSynthCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
