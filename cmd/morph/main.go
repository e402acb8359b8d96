// Command morph compiles, evaluates and law-checks pipelines.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/morph/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
