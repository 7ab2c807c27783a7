package main

import (
	"io"

	"github.com/oy3o/materialbin/internal/report"
)

func runVersions(args []string, stdout io.Writer) error {
	if len(args) > 0 {
		return usagef("versions takes no arguments")
	}
	report.New(stdout, report.Profile(stdout, "auto")).Versions()
	return nil
}
