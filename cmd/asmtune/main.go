package main

import (
	"fmt"
	"os"

	"asmtune/internal/config"
	"asmtune/internal/errs"
	"asmtune/internal/orchestrator"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	cfg, err := config.Parse(argv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitCode(err, true)
	}

	if _, err := orchestrator.Run(cfg, orchestrator.Deps{}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitCode(err, false)
	}
	return errs.ExitSuccess
}

func exitCode(err error, duringParse bool) int {
	e, ok := err.(*errs.Error)
	if !ok {
		return errs.ExitInternal
	}
	if duringParse {
		return errs.ExitCodeDuringParse(e.Kind)
	}
	return errs.ExitCode(e.Kind)
}
