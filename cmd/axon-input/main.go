package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/toyz/axon-input/internal/cli"
	"github.com/toyz/axon-input/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "Usage: axon-input <command> [options] <packages...>\n\n")
	fmt.Fprintf(w, "Checks and inspects input mapping directives (from, load and input struct tags).\n\n")
	fmt.Fprintf(w, "Commands:\n")
	fmt.Fprintf(w, "  lint       Report invalid directives; exits 1 when errors are found\n")
	fmt.Fprintf(w, "  inspect    Dump the parsed directives of each mapped type\n")
	fmt.Fprintf(w, "\nExamples:\n")
	fmt.Fprintf(w, "  axon-input lint ./...                          # Check every package recursively\n")
	fmt.Fprintf(w, "  axon-input lint -mapping input.yaml ./forms    # Also check a YAML mapping\n")
	fmt.Fprintf(w, "  axon-input lint -types Money,Email ./...       # Accept application constructor types\n")
	fmt.Fprintf(w, "  axon-input inspect -type forms.Signup ./forms  # Dump one type\n")
	fmt.Fprintf(w, "\nEnvironment:\n")
	fmt.Fprintf(w, "  AXON_INPUT_TAG_FROM, AXON_INPUT_TAG_LOAD, AXON_INPUT_TAG_ENTITY    Tag names\n")
	fmt.Fprintf(w, "  AXON_INPUT_MAPPING_FILE                                            Default -mapping\n")
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "-help" || args[0] == "help" {
		usage(stderr)
		if len(args) == 0 {
			return 2
		}
		return 0
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	switch args[0] {
	case "lint":
		return runLint(ctx, cfg, args[1:], stdout, stderr)
	case "inspect":
		return runInspect(ctx, cfg, args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Error: unknown command %q\n\n", args[0])
		usage(stderr)
		return 2
	}
}

type commonFlags struct {
	dir     string
	mapping string
	types   string
}

func (c *commonFlags) register(fs *flag.FlagSet, cfg *config.Config) {
	fs.StringVar(&c.dir, "dir", ".", "Directory package patterns are resolved from")
	fs.StringVar(&c.mapping, "mapping", cfg.MappingFile, "YAML directive mapping to check alongside struct tags")
	fs.StringVar(&c.types, "types", "", "Comma-separated constructor type names registered by the application")
}

func (c *commonFlags) linter(cfg *config.Config) (*cli.Linter, error) {
	linter := cli.NewLinter(cfg.TagReader()).WithDir(c.dir)
	if c.types != "" {
		linter.WithKnownTypes(strings.Split(c.types, ",")...)
	}
	if c.mapping != "" {
		if err := linter.WithMapping(c.mapping); err != nil {
			return nil, err
		}
	}
	return linter, nil
}

func runLint(ctx context.Context, cfg *config.Config, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("lint", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var common commonFlags
	common.register(fs, cfg)
	verbose := fs.Bool("verbose", false, "Show hints and the mapped types")
	quiet := fs.Bool("quiet", false, "Only show errors")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	patterns := fs.Args()
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}

	level := cli.DiagnosticInfo
	switch {
	case *quiet:
		level = cli.DiagnosticError
	case *verbose:
		level = cli.DiagnosticVerbose
	}
	diagnostics := cli.NewDiagnosticsTo(level, stdout, stderr)

	if mod, err := cli.ResolveModule(common.dir); err == nil {
		diagnostics.Header(fmt.Sprintf("linting %s", mod.Path))
	} else if !errors.Is(err, cli.ErrNoGoMod) {
		diagnostics.Warn("%v", err)
	}

	linter, err := common.linter(cfg)
	if err != nil {
		diagnostics.Error("%v", err)
		return 1
	}
	report, err := linter.Lint(ctx, patterns...)
	if err != nil {
		diagnostics.Error("Lint failed: %v", err)
		return 1
	}

	for _, f := range report.Findings {
		diagnostics.Finding(f)
	}

	if *verbose && len(report.Types) > 0 {
		diagnostics.Subsection("Mapped types")
		for _, td := range report.Types {
			diagnostics.List("%s (%d fields)", td.Identity, len(td.Fields))
		}
	}

	diagnostics.Summary("Lint complete", map[string]any{
		"Packages":     report.Packages,
		"Mapped types": len(report.Types),
		"Fields":       report.Fields(),
		"Errors":       report.Errors(),
		"Warnings":     report.Warnings(),
	})

	if report.Errors() > 0 {
		return 1
	}
	diagnostics.Success("All directives are valid")
	return 0
}

func runInspect(ctx context.Context, cfg *config.Config, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var common commonFlags
	common.register(fs, cfg)
	typeFilter := fs.String("type", "", "Only dump this type (pkg.Type or full import path)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	patterns := fs.Args()
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}

	linter, err := common.linter(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	report, err := linter.Lint(ctx, patterns...)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if cli.Inspect(stdout, report, *typeFilter) == 0 {
		if *typeFilter != "" {
			fmt.Fprintf(stderr, "Error: no mapped type matches %q\n", *typeFilter)
			return 1
		}
		fmt.Fprintln(stderr, "No mapped types found")
	}
	return 0
}
