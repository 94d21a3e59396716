package main

import (
	"fmt"
	"os"
	"path/filepath"

	"adx/internal/config"
	"adx/internal/errors"

	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize adx configuration",
	Long:  "Creates a .adx/ directory with default configuration in the current repository root",
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing .adx directory")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return errors.Wrap(errors.InternalError, "resolving current directory", err)
	}

	adxDir := filepath.Join(cwd, ".adx")
	if _, statErr := os.Stat(adxDir); statErr == nil {
		if !initForce {
			// Idempotent: already initialized is success (CI-friendly)
			fmt.Println("adx already initialized.")
			fmt.Printf("Configuration at: %s\n", filepath.Join(adxDir, "config.json"))
			fmt.Println("\nRun 'adx init --force' to reinitialize.")
			return nil
		}
		if removeErr := os.RemoveAll(adxDir); removeErr != nil {
			return errors.Wrap(errors.InternalError, "removing existing .adx directory", removeErr)
		}
	}

	cfg := config.DefaultConfig()
	cfg.RepoRoot = "."
	if err := cfg.Save(cwd); err != nil {
		return errors.Wrap(errors.InternalError, "writing configuration", err)
	}

	fmt.Println("Initialized adx.")
	fmt.Printf("Configuration at: %s\n", filepath.Join(adxDir, "config.json"))
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Adjust scan.roots in .adx/config.json for your layout")
	fmt.Println("  2. Annotate a declaration with an adx:decision comment")
	fmt.Println("  3. Run 'adx generate'")
	return nil
}
