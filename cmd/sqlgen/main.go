// Command sqlgen compiles a .sqlgen spec file into a pair of C source files
// implementing the declared queries against SQLite (spec.md §1, §6).
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	flags "github.com/jessevdk/go-flags"
	"golang.org/x/term"

	"github.com/syssam/sqlgen/internal/config"
	"github.com/syssam/sqlgen/internal/diag"
	"github.com/syssam/sqlgen/internal/gen"
	"github.com/syssam/sqlgen/internal/normalize"
	"github.com/syssam/sqlgen/internal/parser"
	"github.com/syssam/sqlgen/internal/sink"
	"github.com/syssam/sqlgen/internal/source"
	"github.com/syssam/sqlgen/internal/watch"
)

// version is stamped at release build time; "dev" covers local builds.
var version = "dev"

// options is spec.md §6's command line verbatim: -i/--header/--source are
// required (checked once flag parsing succeeds, since go-flags has no
// built-in "required unless --version" support), -b defaults to "sqlite3"
// and is validated by gen.WithBackends during the build, plus the SPEC_FULL.md
// additive flags (--manifest, --watch, --config, --no-color, --version).
type options struct {
	Input      string `short:"i" long:"input" description:"path to the .sqlgen spec file"`
	HeaderPath string `long:"header" description:"output path for the generated declaration (.h) file"`
	SourcePath string `long:"source" description:"output path for the generated implementation (.c) file"`
	Backends   string `short:"b" long:"backends" description:"comma-separated backend list (only \"sqlite3\" is recognized)" default:"sqlite3"`
	DebugLayer bool   `long:"debug-layer" description:"force-emit the debug instrumentation layer"`

	Manifest string `long:"manifest" description:"also write a Go introspection manifest to this path"`
	Config   string `long:"config" description:"path to a .sqlgen.yaml file of flag defaults"`
	Watch    bool   `long:"watch" description:"re-run whenever the spec file changes"`
	NoColor  bool   `long:"no-color" description:"disable colored diagnostics"`
	Version  bool   `long:"version" description:"print the version and exit"`
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	var opts options
	parserFlags := flags.NewParser(&opts, flags.Default)
	if _, err := parserFlags.ParseArgs(argv); err != nil {
		if flags.WroteHelp(err) {
			return 0
		}
		return reportErr(opts.NoColor, diag.Usage("%s", err))
	}

	if opts.Version {
		fmt.Printf("sqlgen %s\n", version)
		return 0
	}

	if opts.Config != "" {
		cfgFile, err := config.Load(opts.Config)
		if err != nil {
			return reportErr(opts.NoColor, diag.IO("reading config: %s", err))
		}
		config.ApplyDefaults(cfgFile, new(string), &opts.Manifest, &opts.HeaderPath, &opts.SourcePath, &opts.NoColor)
	}

	if err := validateRequired(&opts); err != nil {
		return reportErr(opts.NoColor, err)
	}

	build := func() error { return build(opts) }

	if opts.Watch {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		err := watch.Run(ctx, opts.Input, build, func(err error) {
			fmt.Fprintln(os.Stderr, colorize(opts.NoColor, err.Error()))
		})
		if err != nil {
			return reportErr(opts.NoColor, err)
		}
		return 0
	}

	if err := build(); err != nil {
		return reportErr(opts.NoColor, err)
	}
	return 0
}

// validateRequired reports a usage error when -i, --header or --source is
// missing. The backend list is checked later, by gen.WithBackends in build.
func validateRequired(opts *options) error {
	if opts.Input == "" {
		return diag.Usage("missing required -i PATH (input spec file)")
	}
	if opts.HeaderPath == "" {
		return diag.Usage("missing required --header PATH (declaration output)")
	}
	if opts.SourcePath == "" {
		return diag.Usage("missing required --source PATH (implementation output)")
	}
	return nil
}

func build(opts options) error {
	data, err := os.ReadFile(opts.Input)
	if err != nil {
		return diag.IO("reading %s: %s", opts.Input, err)
	}
	src := source.New(opts.Input, data)

	root, err := parser.Parse(src)
	if err != nil {
		return err
	}
	normalize.Run(root)

	headerName := strings.TrimSuffix(filepath.Base(opts.HeaderPath), filepath.Ext(opts.HeaderPath))
	var backends []string
	for _, b := range strings.Split(opts.Backends, ",") {
		backends = append(backends, strings.TrimSpace(b))
	}

	cfg, err := gen.NewConfig(
		gen.WithHeaderName(headerName),
		gen.WithBackends(backends),
		gen.WithDebugLayer(opts.DebugLayer),
	)
	if err != nil {
		return diag.Usage("%s", err)
	}
	if opts.Manifest != "" {
		if err := applyOption(cfg, gen.WithManifestPath(opts.Manifest)); err != nil {
			return err
		}
	}

	result, err := gen.Generate(cfg, root)
	if err != nil {
		return err
	}

	files := result.Files(opts.HeaderPath, opts.SourcePath, opts.Manifest)

	if err := sink.Write(context.Background(), ".", files); err != nil {
		return diag.IO("%s", err)
	}

	var total int
	for _, f := range files {
		total += len(f.Data)
	}
	// runID correlates this invocation's log lines in CI output; it never
	// touches generated file content, so idempotent-write behavior holds.
	runID := uuid.New()
	fmt.Printf("sqlgen[%s]: wrote %d file(s), %s\n", runID, len(files), humanize.Bytes(uint64(total)))
	return nil
}

func applyOption(cfg *gen.Config, opt gen.Option) error {
	return opt(cfg)
}

func reportErr(noColor bool, err error) int {
	fmt.Fprintln(os.Stderr, colorize(noColor, err.Error()))
	return 1
}

func colorize(noColor bool, msg string) string {
	if noColor || !term.IsTerminal(int(os.Stderr.Fd())) {
		return "sqlgen: " + msg
	}
	const red = "\x1b[31m"
	const reset = "\x1b[0m"
	return red + "sqlgen: " + strings.TrimSpace(msg) + reset
}
