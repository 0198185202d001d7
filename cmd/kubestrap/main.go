package main

import (
	"fmt"
	"os"

	"github.com/kimama4423/kubestrap/internal/logger"
)

// exitCode carries the worst final status of a provisioning run to the
// process exit. Commands that fail outright exit through the error path
// instead.
var exitCode int

func main() {
	log, err := logger.New(logger.Options{Level: "info", HumanReadable: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}

	if err := registerExecutors(log); err != nil {
		fmt.Fprintf(os.Stderr, "failed to prepare executors: %v\n", err)
		os.Exit(1)
	}

	if err := newRootCmd(log).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	os.Exit(exitCode)
}
