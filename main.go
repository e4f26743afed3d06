package main

import (
	"os"

	"github.com/Iron-Ham/sessionizer/internal/cmd"
	"github.com/Iron-Ham/sessionizer/internal/errors"
	"github.com/Iron-Ham/sessionizer/internal/ui"
)

func main() {
	err := cmd.Execute()
	if err == nil {
		return
	}

	// Cancellation is success-shaped: exit 130 with no diagnostic noise.
	if !errors.IsInterrupted(err) {
		ui.Fail("%v", err)
	}
	os.Exit(errors.ExitCode(err))
}
