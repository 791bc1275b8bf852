// Command reqstream runs requests concurrently and prints their results in
// request order.
package main

import (
	"fmt"
	"os"

	"github.com/vnykmshr/reqstream/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "reqstream:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
