// Package config loads hotkey configuration files (TOML, YAML or CUE) into IR.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/roach88/omnikeys/internal/dsl"
	"github.com/roach88/omnikeys/internal/ir"
)

// Version is the newest schema version this loader understands.
const Version = 1

// Format is a config file syntax.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	FormatCUE  Format = "cue"
)

// FormatFromPath picks the syntax from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".cue":
		return FormatCUE, nil
	default:
		return "", &LoadError{Code: CodeUnknownFormat, File: path,
			Message: fmt.Sprintf("unrecognized config extension %q (want .toml, .yaml, .yml or .cue)", filepath.Ext(path))}
	}
}

// ParseFormat validates a user-supplied format name.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(name)); f {
	case FormatTOML, FormatYAML, FormatCUE:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", &LoadError{Code: CodeUnknownFormat, Message: fmt.Sprintf("unknown config format %q", name)}
	}
}

// File is the on-disk schema shared by every syntax.
type File struct {
	Version      int         `toml:"version" yaml:"version" json:"version,omitempty"`
	Description  string      `toml:"description" yaml:"description" json:"description,omitempty"`
	TimeoutMS    int         `toml:"timeout_ms" yaml:"timeout_ms" json:"timeout_ms,omitempty"`
	Namespace    string      `toml:"namespace" yaml:"namespace" json:"namespace,omitempty"`
	Applications []string    `toml:"applications" yaml:"applications" json:"applications,omitempty"`
	Alias        AliasTable  `toml:"alias" yaml:"alias" json:"alias,omitempty"`
	Rules        []RuleEntry `toml:"rule" yaml:"rule" json:"rule,omitempty"`
	When         []WhenBlock `toml:"when" yaml:"when" json:"when,omitempty"`
}

// AliasTable holds key and modifier aliases.
type AliasTable struct {
	Key map[string]string `toml:"key" yaml:"key" json:"key,omitempty"`
	Mod map[string]string `toml:"mod" yaml:"mod" json:"mod,omitempty"`
}

// RuleEntry binds a trigger to exactly one of emit or shell.
type RuleEntry struct {
	Trigger string `toml:"trigger" yaml:"trigger" json:"trigger"`
	Emit    string `toml:"emit" yaml:"emit" json:"emit,omitempty"`
	Shell   string `toml:"shell" yaml:"shell" json:"shell,omitempty"`
}

// WhenBlock scopes its rules to the listed applications.
type WhenBlock struct {
	Applications []string    `toml:"applications" yaml:"applications" json:"applications"`
	Rules        []RuleEntry `toml:"rule" yaml:"rule" json:"rule,omitempty"`
}

// Load reads, decodes and parses a config file.
func Load(path string) (*ir.Config, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: CodeReadFailed, File: path, Message: err.Error()}
	}
	return LoadBytes(data, format, path)
}

// LoadBytes decodes and parses config source. name labels positions and rule
// sources in errors.
func LoadBytes(data []byte, format Format, name string) (*ir.Config, error) {
	f, locate, err := decode(data, format, name)
	if err != nil {
		return nil, err
	}
	return f.build(name, locate)
}

// locator returns the source position of a rule; zero when unknown.
type locator func(when, rule int) (line, column int)

// decode parses source into the file schema without interpreting rules.
func decode(data []byte, format Format, name string) (*File, locator, error) {
	var f File
	switch format {
	case FormatTOML:
		md, err := toml.Decode(string(data), &f)
		if err != nil {
			le := &LoadError{Code: CodeDecodeFailed, File: name, Message: err.Error()}
			var perr toml.ParseError
			if errors.As(err, &perr) {
				le.Line = perr.Position.Line
				le.Message = perr.Message
			}
			return nil, nil, le
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, nil, &LoadError{Code: CodeUnknownField, File: name,
				Message: "unknown keys: " + strings.Join(keys, ", ")}
		}
		return &f, nil, nil

	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			if errors.Is(err, io.EOF) {
				return &f, nil, nil
			}
			code := CodeDecodeFailed
			if strings.Contains(err.Error(), "not found in type") {
				code = CodeUnknownField
			}
			return nil, nil, &LoadError{Code: code, File: name, Message: err.Error()}
		}
		return &f, nil, nil

	case FormatCUE:
		return decodeCUE(data, name)

	default:
		return nil, nil, &LoadError{Code: CodeUnknownFormat, File: name, Message: fmt.Sprintf("unknown config format %q", format)}
	}
}

// build validates the decoded file and parses every rule. All rule errors are
// collected.
func (f *File) build(name string, locate locator) (*ir.Config, error) {
	if f.Version > Version {
		return nil, &LoadError{Code: CodeUnsupportedVersion, File: name,
			Message: fmt.Sprintf("config version %d is newer than supported version %d", f.Version, Version)}
	}

	parser, err := dsl.NewParser(dsl.Aliases{Keys: f.Alias.Key, Mods: f.Alias.Mod})
	if err != nil {
		return nil, &LoadError{Code: CodeInvalidAlias, File: name, Message: err.Error()}
	}

	cfg := &ir.Config{
		Description: f.Description,
		TimeoutMS:   f.TimeoutMS,
		Namespace:   f.Namespace,
	}

	var errs []error
	add := func(when, idx int, label string, entry RuleEntry, scope []string) {
		r, err := parseEntry(parser, entry)
		le := &LoadError{File: name}
		if locate != nil {
			le.Line, le.Column = locate(when, idx)
		}
		if err != nil {
			le.Code = CodeInvalidRule
			le.Message = fmt.Sprintf("%s: %v", label, err)
			errs = append(errs, le)
			return
		}
		r.Source = ruleSource(name, label, le.Line, r)
		if len(scope) > 0 {
			r.When = &ir.When{Applications: slices.Clone(scope)}
		}
		cfg.Rules = append(cfg.Rules, r)
	}

	errs = append(errs, checkPatterns(name, "applications", f.Applications)...)
	for i, entry := range f.Rules {
		add(-1, i, fmt.Sprintf("rule[%d]", i), entry, f.Applications)
	}
	for j, block := range f.When {
		if len(block.Applications) == 0 {
			le := &LoadError{Code: CodeInvalidScope, File: name,
				Message: fmt.Sprintf("when[%d]: applications must not be empty", j)}
			errs = append(errs, le)
			continue
		}
		errs = append(errs, checkPatterns(name, fmt.Sprintf("when[%d].applications", j), block.Applications)...)
		for i, entry := range block.Rules {
			add(j, i, fmt.Sprintf("when[%d].rule[%d]", j, i), entry, block.Applications)
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

// checkPatterns reports every application pattern that does not compile.
func checkPatterns(name, label string, patterns []string) []error {
	var errs []error
	for i, pattern := range patterns {
		if _, err := regexp.Compile(pattern); err != nil {
			errs = append(errs, &LoadError{Code: CodeInvalidPattern, File: name,
				Message: fmt.Sprintf("%s[%d]: %v", label, i, err)})
		}
	}
	return errs
}

func parseEntry(p *dsl.Parser, e RuleEntry) (ir.Rule, error) {
	switch {
	case e.Emit != "" && e.Shell != "":
		return ir.Rule{}, errors.New("rule sets both emit and shell")
	case e.Shell != "":
		return p.ParseShellRule(e.Trigger, e.Shell)
	case e.Emit != "":
		return p.ParseRule(e.Trigger, e.Emit)
	default:
		return ir.Rule{}, errors.New("rule needs emit or shell")
	}
}

func ruleSource(file, label string, line int, r ir.Rule) string {
	loc := file
	if line > 0 {
		loc = fmt.Sprintf("%s:%d", file, line)
	}
	if loc == "" {
		return label + " " + r.Trigger.String()
	}
	return loc + " " + label + " " + r.Trigger.String()
}
