// Command recorder-demo is a small CLI front end for recorder.Bootstrap:
// it runs a YAML manifest of build steps and writes the generated
// startup files the steps recorded.
package main

import (
	"os"

	"github.com/mstgnz/recorder/cmd/recorder-demo/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
