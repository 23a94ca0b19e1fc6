package recorder

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// BuildStep records calls into the *Context it is given and reports any
// error - Bootstrap owns naming and emission, not recording.
type BuildStep func(ctx *Context) error

// StepSpec is one entry of a Bootstrap manifest: which registered build
// step to run, and whether it records a static-init or runtime-phase
// startup task.
type StepSpec struct {
	Name       string `yaml:"name"`
	StaticInit bool   `yaml:"staticInit"`
}

// Manifest lists the build steps a Bootstrap run should execute, in
// order.
type Manifest struct {
	Steps []StepSpec `yaml:"steps"`
}

// Bootstrap is the engine's minimal stand-in for the out-of-scope
// StepScheduler (spec section 1): given a set of named build steps, it
// constructs one *Context per manifest entry, runs the step against it,
// and emits the generated source for any context that recorded
// anything. It is intentionally sequential and has no dependency graph
// between steps - a real build system's scheduler is expected to
// replace it outright rather than be generalized from it.
type Bootstrap struct {
	steps map[string]BuildStep
}

// NewBootstrap creates an empty Bootstrap.
func NewBootstrap() *Bootstrap {
	return &Bootstrap{steps: make(map[string]BuildStep)}
}

// Register names step so a manifest entry can refer to it by name.
// Registering the same name twice overwrites the previous step.
func (b *Bootstrap) Register(name string, step BuildStep) {
	b.steps[name] = step
}

// LoadManifest parses a YAML manifest from r.
func LoadManifest(r io.Reader) (*Manifest, error) {
	var m Manifest
	if err := yaml.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("recorder: decoding manifest: %w", err)
	}
	return &m, nil
}

// LoadManifestFile reads and parses a YAML manifest from path.
func LoadManifestFile(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("recorder: opening manifest %s: %w", path, err)
	}
	defer f.Close()
	return LoadManifest(f)
}

// RunManifest runs every step named in m, in order, writing each
// non-empty context's generated source to a file named
// "<step-name>_startup.go" inside outDir. Steps with nothing recorded
// are skipped, matching the teacher's own "nothing to do" early exits.
func (b *Bootstrap) RunManifest(m *Manifest, outDir string) error {
	for _, spec := range m.Steps {
		step, ok := b.steps[spec.Name]
		if !ok {
			return fmt.Errorf("recorder: no build step registered for %q", spec.Name)
		}

		ctx := NewContext(spec.Name, spec.StaticInit)
		if err := step(ctx); err != nil {
			return fmt.Errorf("recorder: build step %q: %w", spec.Name, err)
		}
		if ctx.IsEmpty() {
			continue
		}

		path := fmt.Sprintf("%s/%s_startup.go", outDir, spec.Name)
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("recorder: creating %s: %w", path, err)
		}
		err = ctx.Emit(f)
		closeErr := f.Close()
		if err != nil {
			return fmt.Errorf("recorder: emitting %q: %w", spec.Name, err)
		}
		if closeErr != nil {
			return fmt.Errorf("recorder: closing %s: %w", path, closeErr)
		}
	}
	return nil
}
