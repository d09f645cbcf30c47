package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "devana",
		Short: "Frequency response computation and DVA parameter optimization",
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(solveCmd(&verbose))
	rootCmd.AddCommand(optimizeCmd(&verbose))
	rootCmd.AddCommand(beamCmd(&verbose))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func solveCmd(verbose *bool) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "solve [config-path]",
		Short: "Run one frequency sweep and report peaks, bandwidths, and composite measures",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runSolve(args[0], out, *verbose)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the result JSON to this file instead of stdout")
	return cmd
}

func optimizeCmd(verbose *bool) *cobra.Command {
	var out string
	var dbPath string
	var runs int

	cmd := &cobra.Command{
		Use:   "optimize [config-path]",
		Short: "Search DVA parameters with the genetic algorithm",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runOptimize(args[0], out, dbPath, runs, *verbose)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the outcome JSON to this file instead of stdout")
	cmd.Flags().StringVar(&dbPath, "db", "", "log per-generation populations to this sqlite file")
	cmd.Flags().IntVar(&runs, "benchmark", 0, "repeat the optimization this many times and export run records")
	return cmd
}

func beamCmd(verbose *bool) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "beam [config-path]",
		Short: "Optimize beam spring/damper magnitudes and placement",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runBeam(args[0], out, *verbose)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the result JSON to this file instead of stdout")
	return cmd
}
