package cli

import (
	"context"

	"github.com/roach88/omnikeys/internal/compiler"
	"github.com/roach88/omnikeys/internal/config"
	"github.com/roach88/omnikeys/internal/ir"
	"github.com/roach88/omnikeys/internal/karabiner"
	"github.com/roach88/omnikeys/internal/store"
)

// Stages a build can fail in.
const (
	stageLoad    = "load"
	stageCompile = "compile"
	stageRender  = "render"
)

// defaultTitle names asset files whose config has no description.
const defaultTitle = "omnikeys"

// buildSettings are the flags compile, validate and the watch loop share.
type buildSettings struct {
	TimeoutMS int
	Namespace string
	Title     string
	Asset     bool
	Render    bool // false stops after compiling
}

// buildOutcome is everything one pass through load, compile and render
// produced. Err is set when a stage failed; later fields are then zero.
type buildOutcome struct {
	Source          *source
	Config          *ir.Config
	Set             *ir.ProductionSet
	Output          []byte
	ConfigHash      string
	ProductionsHash string
	OutputHash      string

	Stage string
	Err   error
}

// ok reports whether every stage succeeded.
func (b *buildOutcome) ok() bool {
	return b.Err == nil
}

// rejected reports whether the config itself was at fault, as opposed to the
// emitter failing on a production set the compiler accepted.
func (b *buildOutcome) rejected() bool {
	return b.Err != nil && b.Stage != stageRender
}

// build loads src and runs the remaining stages.
func build(src *source, s buildSettings) *buildOutcome {
	cfg, err := config.LoadBytes(src.Data, src.Format, src.Name)
	return buildLoaded(src, cfg, err, s)
}

// buildLoaded continues a build from an already loaded config, so the watch
// loop can reuse the watcher's load.
func buildLoaded(src *source, cfg *ir.Config, loadErr error, s buildSettings) *buildOutcome {
	out := &buildOutcome{Source: src, ConfigHash: ir.ConfigHash(src.Data)}
	if loadErr != nil {
		out.Stage, out.Err = stageLoad, loadErr
		return out
	}
	out.Config = cfg

	set, err := compiler.CompileConfig(cfg,
		compiler.WithTimeout(s.TimeoutMS),
		compiler.WithNamespace(s.Namespace),
	)
	if err != nil {
		out.Stage, out.Err = stageCompile, err
		return out
	}
	out.Set = set
	if out.ProductionsHash, err = ir.ProductionSetHash(set); err != nil {
		out.Stage, out.Err = stageCompile, err
		return out
	}

	if !s.Render {
		return out
	}
	title := s.Title
	if title == "" {
		title = cfg.Description
	}
	if title == "" {
		title = defaultTitle
	}
	data, err := karabiner.Render(set, title, s.Asset)
	if err != nil {
		out.Stage, out.Err = stageRender, err
		return out
	}
	out.Output = data
	out.OutputHash = ir.OutputHash(data)
	return out
}

// record stores the outcome in the build history.
func record(ctx context.Context, st *store.Store, b *buildOutcome) (*store.Build, error) {
	rec := &store.Build{
		ConfigPath: b.Source.Name,
		ConfigHash: b.ConfigHash,
		Status:     store.StatusOK,
	}
	if b.Config != nil {
		rec.Description = b.Config.Description
		rec.Rules = len(b.Config.Rules)
	}
	if b.Set != nil {
		rec.Productions = len(b.Set.Productions)
		rec.ProductionsHash = b.ProductionsHash
	}
	if !b.ok() {
		rec.Status = store.StatusFailed
		for _, d := range Diagnostics(b.Err) {
			rec.Errors = append(rec.Errors, store.BuildError{Code: d.Code, Rule: d.Rule, Message: d.String()})
		}
	}

	var output []byte
	if b.ok() {
		output = b.Output
		rec.OutputHash = b.OutputHash
	}
	if err := st.RecordBuild(ctx, rec, output, rec.OutputHash); err != nil {
		return nil, err
	}
	return rec, nil
}

// openHistory opens the build history database, or returns nil when path is
// empty.
func openHistory(path string) (*store.Store, error) {
	if path == "" {
		return nil, nil
	}
	expanded, err := expandPath(path)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(expanded)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open build history", err)
	}
	return st, nil
}

// errorCode picks the envelope code for a failed outcome.
func errorCode(b *buildOutcome) string {
	if b.Stage == stageRender {
		return ErrCodeRenderFailed
	}
	if diags := Diagnostics(b.Err); len(diags) > 0 {
		return diags[0].Code
	}
	return ErrCodeGeneric
}
