package cmd

import (
	"fmt"
	"os"

	"github.com/mstgnz/recorder"
	"github.com/spf13/cobra"
)

var outDir string

var runCmd = &cobra.Command{
	Use:   "run <manifest.yaml>",
	Short: "Run the build steps named in a YAML manifest and emit their generated source",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&outDir, "out", ".", "directory to write generated *_startup.go files into")
}

// greeter is the demo recordable struct every manifest entry named
// "greeting" records against.
type greeter struct {
	SayHello func(name string)
}

func runRun(_ *cobra.Command, args []string) error {
	manifestPath := args[0]

	m, err := recorder.LoadManifestFile(manifestPath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("recorder-demo: creating output directory: %w", err)
	}

	b := recorder.NewBootstrap()
	b.Register("greeting", func(ctx *recorder.Context) error {
		g := recorder.GetRecordingProxy[greeter](ctx,
			"greetingimpl.New()", "github.com/mstgnz/recorder/examples/greeting/greetingimpl")
		g.SayHello("world")
		return nil
	})

	if err := b.RunManifest(m, outDir); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "generated startup files written to %s\n", outDir)
	return nil
}
