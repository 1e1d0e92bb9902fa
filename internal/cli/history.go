package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/omnikeys/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
	Status   string
	Config   string
	Artifact bool
}

// HistoryResult is the JSON payload of history listings.
type HistoryResult struct {
	Builds []store.Build `json:"builds"`
}

// NewHistoryCommand creates the history command and its show subcommand.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded builds",
		Long: `List builds recorded by compile --history, newest first.

Each build records the config hash, the production set hash, the output hash
and, for failed builds, every diagnostic.

Examples:
  omnikeys history --db ~/.omnikeys/history.db
  omnikeys history --db ./history.db --limit 5 --format json
  omnikeys history --db ./history.db --status failed --config ~/keys.toml
  omnikeys history show <build-id> --db ./history.db
  omnikeys history show <build-id> --db ./history.db --artifact > restored.json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryList(opts, cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to the build history database (required)")
	_ = cmd.MarkPersistentFlagRequired("db")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum number of builds to list (0 for all)")
	cmd.Flags().StringVar(&opts.Status, "status", "", "only list builds with this status (ok, failed)")
	cmd.Flags().StringVar(&opts.Config, "config", "", "only list builds of this config path")

	show := &cobra.Command{
		Use:           "show <build-id>",
		Short:         "Show one recorded build",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryShow(opts, args[0], cmd)
		},
	}
	show.Flags().BoolVar(&opts.Artifact, "artifact", false, "print the stored Karabiner JSON instead")
	cmd.AddCommand(show)

	return cmd
}

func openHistoryForRead(opts *HistoryOptions, formatter *OutputFormatter) (*store.Store, error) {
	st, err := openHistory(opts.Database)
	if err != nil {
		return nil, outputCommandError(formatter, ErrCodeHistory, err.Error(), err)
	}
	if st == nil {
		return nil, outputCommandError(formatter, ErrCodeHistory, "--db is required", nil)
	}
	return st, nil
}

func runHistoryList(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := openHistoryForRead(opts, formatter)
	if err != nil {
		return err
	}
	defer st.Close()

	filter := store.BuildFilter{Status: opts.Status, Limit: opts.Limit}
	if opts.Config != "" {
		if filter.ConfigPath, err = expandPath(opts.Config); err != nil {
			return outputCommandError(formatter, ErrCodeGeneric, err.Error(), err)
		}
	}

	builds, err := st.FindBuilds(commandContext(cmd), filter)
	if err != nil {
		return outputCommandError(formatter, ErrCodeHistory, fmt.Sprintf("listing builds: %v", err), err)
	}

	if opts.Format == "json" {
		if builds == nil {
			builds = []store.Build{}
		}
		return formatter.Success(HistoryResult{Builds: builds})
	}

	if len(builds) == 0 {
		fmt.Fprintln(formatter.Writer, "No builds recorded.")
		return nil
	}
	for _, b := range builds {
		fmt.Fprintf(formatter.Writer, "%4d  %s  %s  %-6s  %s  %s\n",
			b.Seq, b.ID, b.CreatedAt.UTC().Format(time.RFC3339), b.Status, shortHash(b.ConfigHash), b.ConfigPath)
	}
	return nil
}

func runHistoryShow(opts *HistoryOptions, id string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := openHistoryForRead(opts, formatter)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := commandContext(cmd)
	b, err := st.GetBuild(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return outputCommandError(formatter, ErrCodeNotFound, fmt.Sprintf("build not found: %s", id), err)
	}
	if err != nil {
		return outputCommandError(formatter, ErrCodeHistory, fmt.Sprintf("reading build: %v", err), err)
	}

	if opts.Artifact {
		if b.OutputHash == "" {
			return outputCommandError(formatter, ErrCodeNotFound, fmt.Sprintf("build %s has no output", id), nil)
		}
		data, err := st.Artifact(ctx, b.OutputHash)
		if err != nil {
			return outputCommandError(formatter, ErrCodeHistory, fmt.Sprintf("reading artifact: %v", err), err)
		}
		_, err = formatter.Writer.Write(data)
		return err
	}

	if opts.Format == "json" {
		return formatter.Success(b)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Build %s (seq %d)\n", b.ID, b.Seq)
	fmt.Fprintf(w, "  created:      %s\n", b.CreatedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(w, "  config:       %s\n", b.ConfigPath)
	fmt.Fprintf(w, "  config hash:  %s\n", b.ConfigHash)
	if b.Description != "" {
		fmt.Fprintf(w, "  description:  %s\n", b.Description)
	}
	fmt.Fprintf(w, "  status:       %s\n", b.Status)
	fmt.Fprintf(w, "  rules:        %d\n", b.Rules)
	if b.Status == store.StatusOK {
		fmt.Fprintf(w, "  productions:  %d (%s)\n", b.Productions, shortHash(b.ProductionsHash))
		fmt.Fprintf(w, "  output hash:  %s\n", b.OutputHash)
	}
	for _, e := range b.Errors {
		fmt.Fprintf(w, "  error:        %s\n", e.Message)
	}
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
