package main

import (
	"os"

	"github.com/calibancode/gifforge/internal/infrastructure/logger"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		logger.Error.Printf("%v", err)
		os.Exit(1)
	}
}
