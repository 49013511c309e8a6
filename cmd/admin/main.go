package main

import (
	"os"

	"github.com/yigit/edupay/internal/pkg/logger"
)

func main() {
	if err := newApp(&commandLine{out: os.Stdout}).Run(os.Args); err != nil {
		logger.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
