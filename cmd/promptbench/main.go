package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes for different failure modes
const (
	ExitSuccess         = 0 // Benchmark completed with a usable result
	ExitBenchmarkFailed = 1 // Benchmark ran but every technique failed
	ExitError           = 2 // Configuration or runtime error
)

// BenchmarkFailureError indicates the benchmark ran to completion but no
// technique produced a usable answer.
type BenchmarkFailureError struct {
	Message string
}

func (e *BenchmarkFailureError) Error() string {
	return e.Message
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		var benchErr *BenchmarkFailureError
		if errors.As(err, &benchErr) {
			os.Exit(ExitBenchmarkFailed)
		}

		// All other errors are configuration/runtime errors
		os.Exit(ExitError)
	}
}
