package main

import (
	"adx/internal/version"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "adx",
	Short: "adx - architectural decision records from source annotations",
	Long: `adx scans a source tree for decision record annotations, cross-references
the declarations that reference them, and generates a deterministic
architectural-decisions.xml document.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("adx version {{.Version}}\n")
}
