package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"dealintake/internal/config"
	"dealintake/internal/logging"
	"dealintake/internal/model"
	"dealintake/internal/parser"
	"dealintake/internal/repository"
	"dealintake/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// rootOptions holds global CLI flags.
type rootOptions struct {
	SeedFile     string
	PatternsFile string
	LogLevel     string
	MinLength    int
	Pretty       bool
}

// app carries what every subcommand needs
type app struct {
	in      io.Reader
	out     io.Writer
	opts    *rootOptions
	logger  *zap.Logger
	store   *repository.MemoryStore
	service *service.IntakeService
}

func newRootCommand(in io.Reader, out io.Writer) *cobra.Command {
	a := &app{in: in, out: out, opts: &rootOptions{}}

	cmd := &cobra.Command{
		Use:           "dealctl",
		Short:         "Parse, dedupe and match property listing messages offline",
		Version:       fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.opts.SeedFile, "seed", "", "JSON file with inventory, activeDeals and contacts")
	pf.StringVar(&a.opts.PatternsFile, "patterns", "", "YAML pattern override (cities, localities, typeKeywords)")
	pf.StringVar(&a.opts.LogLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.IntVar(&a.opts.MinLength, "min-length", parser.MinSegmentLength, "minimum segment length in characters")
	pf.BoolVar(&a.opts.Pretty, "pretty", true, "indent JSON output")

	cmd.AddCommand(
		newSegmentCmd(a),
		newParseCmd(a),
		newMatchCmd(a),
		newProcessCmd(a),
	)
	return cmd
}

func (a *app) init() error {
	logger, err := logging.New(config.LoggingConfig{Level: a.opts.LogLevel, Format: "console"})
	if err != nil {
		return err
	}
	a.logger = logger

	var seed repository.Seed
	if a.opts.SeedFile != "" {
		if seed, err = repository.LoadSeedFile(a.opts.SeedFile); err != nil {
			return err
		}
	}

	var patterns *model.PatternOverride
	if a.opts.PatternsFile != "" {
		if patterns, err = config.LoadPatternFile(a.opts.PatternsFile); err != nil {
			return err
		}
	}

	a.store = repository.NewMemoryStore(seed)
	a.service = service.NewIntakeService(a.store, service.Options{
		MinSegmentLength: a.opts.MinLength,
		Patterns:         patterns,
	}, logger, nil)
	return nil
}

// readInput returns the named file, or stdin when no file or "-" is given
func (a *app) readInput(args []string) (string, error) {
	var (
		data []byte
		err  error
	)
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(a.in)
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", service.ErrEmptyIntake
	}
	return string(data), nil
}

func (a *app) print(v interface{}) error {
	enc := json.NewEncoder(a.out)
	if a.opts.Pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
