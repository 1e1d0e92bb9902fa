package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/omnikeys/internal/config"
	"github.com/roach88/omnikeys/internal/store"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output      string
	InputFormat string
	Asset       bool
	Title       string
	TimeoutMS   int
	Namespace   string
	Watch       bool
	History     string
}

// CompileResult is the JSON payload of a successful compile.
type CompileResult struct {
	Config          string          `json:"config"`
	Description     string          `json:"description,omitempty"`
	Rules           int             `json:"rules"`
	Productions     int             `json:"productions"`
	ProductionsHash string          `json:"productions_hash"`
	OutputHash      string          `json:"output_hash"`
	Output          string          `json:"output,omitempty"`
	BuildID         string          `json:"build_id,omitempty"`
	Unchanged       bool            `json:"unchanged,omitempty"` // output equals the previous successful build
	Karabiner       json.RawMessage `json:"karabiner,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile [config]",
		Short: "Compile a hotkey config to Karabiner JSON",
		Long: `Compile a hotkey config (TOML, YAML or CUE) into a Karabiner-Elements
complex modification rule.

The config is read from the given path, or from stdin when no path is given
and stdin is not a terminal. The output is validated against the Karabiner
schema before it is written. Without -o it goes to stdout.

Exit codes:
  0 - Compiled
  1 - Config rejected (every problem is reported)
  2 - Command error (unreadable input, unwritable output, bad flags)

Examples:
  omnikeys compile keys.toml
  omnikeys compile keys.toml -o ~/.config/karabiner/assets/complex_modifications/omnikeys.json --asset
  cat keys.yaml | omnikeys compile --input-format yaml
  omnikeys compile keys.toml -o out.json --watch --history ~/.omnikeys/history.db`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path (default stdout)")
	cmd.Flags().StringVar(&opts.InputFormat, "input-format", "", "config syntax (toml|yaml|cue); default from extension, toml for stdin")
	cmd.Flags().BoolVar(&opts.Asset, "asset", false, "wrap the rule in an importable asset file")
	cmd.Flags().StringVar(&opts.Title, "title", "", "asset title (default config description)")
	cmd.Flags().IntVar(&opts.TimeoutMS, "timeout", 0, "sequence timeout in milliseconds (overrides timeout_ms)")
	cmd.Flags().StringVar(&opts.Namespace, "namespace", "", "variable name prefix (overrides namespace)")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "recompile whenever the config changes")
	cmd.Flags().StringVar(&opts.History, "history", "", "record builds in this SQLite database")

	return cmd
}

// settings maps flags onto a build. Zero values leave the config's own
// timeout_ms and namespace in effect.
func (o *CompileOptions) settings() buildSettings {
	return buildSettings{
		TimeoutMS: o.TimeoutMS,
		Namespace: o.Namespace,
		Title:     o.Title,
		Asset:     o.Asset,
		Render:    true,
	}
}

func runCompile(opts *CompileOptions, args []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if opts.Watch && len(args) == 0 {
		return outputCommandError(formatter, ErrCodeNoInput, "--watch needs a config path", nil)
	}

	src, err := readSource(cmd.InOrStdin(), args, opts.InputFormat)
	if err != nil {
		return outputCommandError(formatter, ErrCodeReadFailed, err.Error(), err)
	}
	if opts.Output, err = expandPath(opts.Output); err != nil {
		return outputCommandError(formatter, ErrCodeGeneric, err.Error(), err)
	}

	st, err := openHistory(opts.History)
	if err != nil {
		return outputCommandError(formatter, ErrCodeHistory, err.Error(), err)
	}
	if st != nil {
		defer st.Close()
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	formatter.VerboseLog("Compiling %s (%s)", src.Name, src.Format)
	outcome := build(src, opts.settings())
	if err := deliver(ctx, opts, formatter, st, outcome); !opts.Watch || GetExitCode(err) == ExitCommandError {
		return err
	}

	return watch(ctx, opts, formatter, st, src, cmd)
}

// deliver records the outcome, writes the output and reports the result.
func deliver(ctx context.Context, opts *CompileOptions, formatter *OutputFormatter, st *store.Store, b *buildOutcome) error {
	var (
		buildID   string
		unchanged bool
	)
	if st != nil {
		if prev, err := st.LatestBuild(ctx, b.Source.Name); err == nil && b.ok() && prev.OutputHash == b.OutputHash {
			unchanged = true
			formatter.VerboseLog("Output unchanged since build %s", prev.ID)
		}
		rec, err := record(ctx, st, b)
		if err != nil {
			return outputCommandError(formatter, ErrCodeHistory, fmt.Sprintf("recording build: %v", err), err)
		}
		buildID = rec.ID
		formatter.VerboseLog("Recorded build %s (seq %d)", rec.ID, rec.Seq)
	}

	if !b.ok() {
		return outputCompileFailure(formatter, b)
	}

	if opts.Output != "" {
		if err := writeOutput(opts.Output, b.Output); err != nil {
			return outputCommandError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), err)
		}
	}

	result := CompileResult{
		Config:          b.Source.Name,
		Description:     b.Config.Description,
		Rules:           len(b.Config.Rules),
		Productions:     len(b.Set.Productions),
		ProductionsHash: b.ProductionsHash,
		OutputHash:      b.OutputHash,
		Output:          opts.Output,
		BuildID:         buildID,
		Unchanged:       unchanged,
	}
	return outputCompileSuccess(formatter, result, b.Output)
}

func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

// watch recompiles on every change to the config until interrupted.
func watch(ctx context.Context, opts *CompileOptions, formatter *OutputFormatter, st *store.Store, src *source, cmd *cobra.Command) error {
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	w, err := config.NewWatcher(src.Path, src.Format)
	if err != nil {
		return outputCommandError(formatter, ErrCodeGeneric, err.Error(), err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, stopping watch", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	logger.Info("watching config", "path", src.Path)
	err = w.Run(ctx, func(r config.Reload) {
		if r.Data == nil {
			logger.Error("config unreadable", "path", src.Path, "error", r.Err)
			return
		}
		next := &source{Path: src.Path, Name: src.Name, Format: src.Format, Data: r.Data}
		b := buildLoaded(next, r.Config, r.Err, opts.settings())

		if err := deliver(ctx, opts, formatter, st, b); err != nil {
			logger.Warn("rebuild failed", "path", src.Path, "stage", b.Stage, "error", err)
			return
		}
		logger.Info("rebuilt", "path", src.Path, "productions", len(b.Set.Productions), "output_hash", b.OutputHash)
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "watch failed", err)
	}

	logger.Info("watch stopped")
	return nil
}

// newLogger returns a text logger on w, at debug level when verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// outputCompileSuccess reports a compiled config. In text mode without -o the
// Karabiner JSON itself is the output.
func outputCompileSuccess(formatter *OutputFormatter, result CompileResult, output []byte) error {
	if formatter.Format == "json" {
		if result.Output == "" {
			result.Karabiner = json.RawMessage(output)
		}
		return formatter.Success(result)
	}

	if result.Output == "" {
		_, err := formatter.Writer.Write(output)
		return err
	}

	fmt.Fprintf(formatter.Writer, "✓ Compiled %d rule(s) into %d manipulator(s)\n", result.Rules, result.Productions)
	fmt.Fprintf(formatter.Writer, "Wrote %s\n", result.Output)
	if result.BuildID != "" {
		fmt.Fprintf(formatter.Writer, "Build %s\n", result.BuildID)
	}
	return nil
}

// outputCompileFailure reports a failed build. A rejected config exits 1; an
// emitter failure is a command error.
func outputCompileFailure(formatter *OutputFormatter, b *buildOutcome) error {
	if !b.rejected() {
		return outputCommandError(formatter, errorCode(b), fmt.Sprintf("rendering output: %v", b.Err), b.Err)
	}
	diags := Diagnostics(b.Err)
	if err := formatter.Diagnostics("Compilation failed", diags); err != nil {
		return err
	}
	return WrapExitError(ExitFailure, fmt.Sprintf("compilation failed with %d error(s)", len(diags)), b.Err)
}

// outputCommandError reports a command-level error (exit code 2).
func outputCommandError(formatter *OutputFormatter, code, message string, err error) error {
	_ = formatter.Error(code, message, nil)
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), err)
}
