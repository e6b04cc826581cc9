// Package main is the entrypoint for the pkgrisk CLI.
// It delegates all command handling to the cmd package.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/toyinlola/pkgrisk/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, cmd.ErrRiskThreshold) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
