// Command piql runs an interactive REPL and smoke-test tooling over the
// PiQL query engine.
package main

import (
	"fmt"
	"os"

	"github.com/JoeHowarth/piql/cmd/piql/cli"
)

var version = "dev"

func main() {
	if err := cli.NewRootCommand(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
