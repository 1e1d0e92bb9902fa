package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/mitchellh/go-homedir"

	"github.com/roach88/omnikeys/internal/config"
)

// stdinName labels config read from standard input in diagnostics.
const stdinName = "<stdin>"

// source is raw config text and the syntax to decode it with.
type source struct {
	Path   string // empty for stdin
	Name   string
	Format config.Format
	Data   []byte
}

// readSource reads the config named by args, or stdin when args is empty and
// stdin is not a terminal. formatName overrides the extension-derived syntax.
func readSource(in io.Reader, args []string, formatName string) (*source, error) {
	var override config.Format
	if formatName != "" {
		f, err := config.ParseFormat(formatName)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "invalid --input-format", err)
		}
		override = f
	}

	if len(args) == 0 {
		if isTerminal(in) {
			return nil, NewExitError(ExitCommandError, "no config given: pass a path or pipe one on stdin")
		}
		data, err := io.ReadAll(in)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to read stdin", err)
		}
		format := override
		if format == "" {
			format = config.FormatTOML
		}
		return &source{Name: stdinName, Format: format, Data: data}, nil
	}

	path, err := expandPath(args[0])
	if err != nil {
		return nil, err
	}
	format := override
	if format == "" {
		if format, err = config.FormatFromPath(path); err != nil {
			return nil, WrapExitError(ExitCommandError, "cannot pick config syntax", err)
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to read config", err)
	}
	return &source{Path: path, Name: path, Format: format, Data: data}, nil
}

// isTerminal reports whether in is an interactive terminal. Readers that are
// not files (pipes set up by tests, buffers) never are.
func isTerminal(in io.Reader) bool {
	f, ok := in.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// expandPath resolves a leading ~ to the user's home directory.
func expandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", WrapExitError(ExitCommandError, fmt.Sprintf("cannot expand path %q", path), err)
	}
	return expanded, nil
}
