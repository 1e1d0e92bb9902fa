package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	InputFormat string
	TimeoutMS   int
	Productions bool
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid       bool         `json:"valid"`
	Config      string       `json:"config"`
	Rules       int          `json:"rules,omitempty"`
	Productions []string     `json:"productions,omitempty"`
	Errors      []Diagnostic `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate [config]",
		Short: "Check a hotkey config without writing output",
		Long: `Load and compile a hotkey config, reporting every problem found.

Runs the same checks as compile (syntax, unknown keys, grammar, ambiguous
prefixes, conflicting mappings, unresolved leaders) and the Karabiner schema
check, but writes nothing. Use --productions to list the compiled
productions in match order.

Examples:
  omnikeys validate keys.toml
  omnikeys validate keys.cue --productions
  omnikeys validate keys.yaml --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.InputFormat, "input-format", "", "config syntax (toml|yaml|cue)")
	cmd.Flags().IntVar(&opts.TimeoutMS, "timeout", 0, "sequence timeout in milliseconds (overrides timeout_ms)")
	cmd.Flags().BoolVar(&opts.Productions, "productions", false, "list compiled productions")

	return cmd
}

func runValidate(opts *ValidateOptions, args []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	src, err := readSource(cmd.InOrStdin(), args, opts.InputFormat)
	if err != nil {
		return outputCommandError(formatter, ErrCodeReadFailed, err.Error(), err)
	}

	b := build(src, buildSettings{TimeoutMS: opts.TimeoutMS, Render: true})
	result := ValidationResult{Valid: b.ok(), Config: src.Name}
	if b.Config != nil {
		result.Rules = len(b.Config.Rules)
		formatter.VerboseLog("Loaded %d rule(s) from %s", result.Rules, src.Name)
	}
	if b.Set != nil && opts.Productions {
		for _, p := range b.Set.Productions {
			result.Productions = append(result.Productions, p.String())
		}
	}

	if !b.ok() {
		if !b.rejected() {
			return outputCommandError(formatter, errorCode(b), fmt.Sprintf("rendering output: %v", b.Err), b.Err)
		}
		result.Errors = Diagnostics(b.Err)
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ %s is valid (%d rule(s))\n", result.Config, result.Rules)
	if len(result.Productions) > 0 {
		fmt.Fprintln(formatter.Writer)
		for i, p := range result.Productions {
			fmt.Fprintf(formatter.Writer, "%3d  %s\n", i, p)
		}
	}
	return nil
}

// outputValidationErrors reports every problem. Validation failures exit 1.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		if err := formatter.encode(CLIResponse{
			Status: "error",
			Data:   result,
			Error:  &CLIError{Code: result.Errors[0].Code, Message: result.Errors[0].Message},
		}); err != nil {
			return err
		}
	} else if err := formatter.Diagnostics("Validation failed", result.Errors); err != nil {
		return err
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
}
