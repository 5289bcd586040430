package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/pagealloc/internal/logger"
	"github.com/joshuapare/pagealloc/mem/alloc"
	"github.com/joshuapare/pagealloc/mem/page"
)

var (
	// Global flags
	verbose     bool
	quiet       bool
	jsonOut     bool
	presetName  string
	policyName  string
	granularity int
	pageLimit   int
)

var rootCmd = &cobra.Command{
	Use:   "pagealloc",
	Short: "Drive a user-space page allocator",
	Long: `pagealloc runs workloads against a first-fit page allocator that maps
memory from the operating system and manages it with an intrusive free list.
It can demonstrate a single allocation, replay seeded random workloads with
invariant checking, and print the block map of every span.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log allocator activity to stderr")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().
		StringVar(&presetName, "preset", "compact", "Base configuration: reference or compact")
	rootCmd.PersistentFlags().
		StringVar(&policyName, "policy", "", "Override span policy: single or multi")
	rootCmd.PersistentFlags().
		IntVar(&granularity, "granularity", 0, "Override block size granularity in bytes")
	rootCmd.PersistentFlags().
		IntVar(&pageLimit, "page-limit", 0, "Cap the pages mapped from the OS (0 = unlimited)")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v\n", err)
		os.Exit(1)
	}
}

// allocatorConfig resolves the global flags into a validated Config.
func allocatorConfig() (alloc.Config, error) {
	var cfg alloc.Config
	switch strings.ToLower(presetName) {
	case "", "compact":
		cfg = alloc.ConfigCompact
	case "reference":
		cfg = alloc.ConfigReference
	default:
		return cfg, fmt.Errorf("unknown preset %q (want reference or compact)", presetName)
	}
	if policyName != "" {
		p, err := alloc.ParsePolicy(policyName)
		if err != nil {
			return cfg, err
		}
		cfg.Policy = p
	}
	if granularity > 0 {
		cfg.Granularity = granularity
	}
	return cfg, cfg.Validate()
}

// newAllocator builds an allocator from the global flags.
func newAllocator() (*alloc.Allocator, error) {
	cfg, err := allocatorConfig()
	if err != nil {
		return nil, err
	}

	src := page.Default()
	if pageLimit > 0 {
		src = page.Limit(src, pageLimit*page.PageSize)
	}

	log := logger.FromEnv()
	if verbose {
		log = logger.New(logger.Options{Enabled: true, Level: slog.LevelDebug, JSON: jsonOut})
	}

	printVerbose("Config: %s, policy %s, granularity %d\n", cfg.Name, cfg.Policy, cfg.Granularity)
	return alloc.New(alloc.WithConfig(cfg), alloc.WithSource(src), alloc.WithLogger(log))
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printError prints an error message
func printError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format, args...)
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
