package main

import (
	"fmt"
	"os"

	"github.com/okian/wpr/internal/cli"
)

func main() {
	if err := cli.NewRootCommand(os.Stdout, nil).Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
