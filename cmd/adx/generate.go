package main

import (
	"fmt"
	"os"

	"adx/internal/config"
	"adx/internal/errors"
	"adx/internal/logging"
	"adx/internal/pipeline"

	"github.com/spf13/cobra"
)

var (
	generateRoots     []string
	generateOutput    string
	generateStrict    bool
	generateReport    string
	generateWorkers   int
	generateLogFormat string
	generateLogLevel  string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the architectural decisions document",
	Long: `Scans the configured roots for decision record annotations, locates
usage sites, and writes the XML document. Recoverable problems are
reported on stderr; fatal ones abort without touching the document.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringArrayVar(&generateRoots, "root", nil, "Scan root, relative to the repository root (repeatable; overrides config)")
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "Output document path (overrides config)")
	generateCmd.Flags().BoolVar(&generateStrict, "strict", false, "Escalate every recoverable problem to a fatal error")
	generateCmd.Flags().StringVar(&generateReport, "report", "", "Write a YAML run report to the given path")
	generateCmd.Flags().IntVar(&generateWorkers, "workers", 0, "Parallel parse workers (0 = number of CPUs)")
	generateCmd.Flags().StringVar(&generateLogFormat, "log-format", "", "Log format: human or json (overrides config)")
	generateCmd.Flags().StringVar(&generateLogLevel, "log-level", "", "Log level: debug, info, warn, or error (overrides config)")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return errors.Wrap(errors.InternalError, "resolving current directory", err)
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return err
	}
	if len(generateRoots) > 0 {
		cfg.Scan.Roots = generateRoots
	}
	if generateOutput != "" {
		cfg.Output.Path = generateOutput
	}
	if generateWorkers > 0 {
		cfg.Scan.Workers = generateWorkers
	}
	if generateLogFormat != "" {
		cfg.Logging.Format = generateLogFormat
	}
	if generateLogLevel != "" {
		cfg.Logging.Level = generateLogLevel
	}
	if generateStrict {
		cfg = cfg.Strict()
	}

	logger := logging.NewLogger(logging.Config{
		Format: logging.Format(cfg.Logging.Format),
		Level:  logging.ParseLevel(cfg.Logging.Level),
	})

	p, err := pipeline.NewDefault(cfg, logger)
	if err != nil {
		return err
	}

	result, err := p.Run(cmd.Context())
	if err != nil {
		return err
	}

	for _, d := range result.Diagnostics {
		fmt.Fprintln(os.Stderr, d.String())
	}

	fmt.Printf("Wrote %s: %d decision record(s), %d usage site(s) from %d file(s).\n",
		result.OutputPath, result.Records, result.UsageSites, result.FilesParsed)
	if len(result.Diagnostics) > 0 {
		fmt.Printf("%d diagnostic(s) reported, see stderr.\n", len(result.Diagnostics))
	}

	if generateReport != "" {
		if err := result.Report().Write(generateReport); err != nil {
			return errors.Wrap(errors.WriteFailed, "writing run report", err)
		}
	}
	return nil
}
