package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const keysTOML = `description = "Test keys"
timeout_ms = 500

[[rule]]
trigger = "f18>w>v"
emit = "cmd+shift+1"

[[rule]]
trigger = "f18>t"
shell = "open -a Terminal"
`

const keysYAML = `description: Piped keys
rule:
  - trigger: f18>w
    emit: cmd+1
`

// ambiguousTOML binds f18>w and its extension f18>w>v.
const ambiguousTOML = `[[rule]]
trigger = "f18>w"
emit = "1"

[[rule]]
trigger = "f18>w>v"
emit = "2"
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// execute runs cmd with args and an empty stdin, returning stdout.
func execute(cmd *cobra.Command, args ...string) (string, error) {
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	if cmd.InOrStdin() == os.Stdin {
		cmd.SetIn(strings.NewReader(""))
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}
