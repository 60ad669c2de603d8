// Command opinions runs the What to Watch web app and its maintenance tasks.
//
//	opinions serve                       start the HTTP server
//	opinions load-opinions [file.csv]    import opinions from CSV
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
