// Command omnikeys compiles leader-key hotkey configs into Karabiner-Elements
// complex modifications.
//
// Usage:
//
//	omnikeys compile keys.toml -o ~/.config/karabiner/assets/complex_modifications/omnikeys.json --asset
//	omnikeys validate keys.toml
//	omnikeys simulate ./scenarios
//	omnikeys history --db ~/.omnikeys/history.db
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/omnikeys/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	err := cmd.Execute()
	if err == nil {
		return
	}

	// Subcommands report their own failures; flag and argument errors land here.
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCommandError)
	}
	os.Exit(exitErr.Code)
}
