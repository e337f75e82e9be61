package main

import (
	"os"

	"github.com/hashicorp/go-hclog"
)

func main() {
	logger := hclog.New(&hclog.LoggerOptions{
		Level:      hclog.Info,
		Output:     os.Stderr,
		JSONFormat: true,
		Color:      hclog.ColorOff,
	})

	if err := newRootCommand(logger).Execute(); err != nil {
		logger.Error("Command failed", "error", err)
		os.Exit(1)
	}
}
