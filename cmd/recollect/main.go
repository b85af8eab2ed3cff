package main

import (
	"fmt"
	"os"

	"github.com/lazypower/recollect/internal/cli"
	"github.com/lazypower/recollect/internal/errutil"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(errutil.ExitCode(err))
	}
}
