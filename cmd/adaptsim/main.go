package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/sprite-ai/adaptsim/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		var exit *cli.ExitError
		if !errors.As(err, &exit) {
			fmt.Fprintln(os.Stderr, "adaptsim:", err)
		}
		os.Exit(cli.ExitCode(err))
	}
}
