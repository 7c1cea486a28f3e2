package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"reelforge/internal/services"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
			if services.InternalBug(err) {
				fmt.Fprintln(os.Stderr, "this looks like a bug in reelforge; please report it with the timeline document")
			}
		}
		os.Exit(1)
	}
}
