// Package emit owns the shared object array and the partitioning of
// generated startup code into the entry procedure and its bounded-size
// continuations (spec section 4.5). It plays the role the out-of-scope
// low-level code-emission library plays in the source system, narrowed
// to the handful of primitives the rest of the engine actually needs:
// starting a new instruction group, allocating a local, and writing a
// statement. The final assembly step formats everything into a single
// Go source file using go/format, the closest stdlib equivalent of a
// bytecode writer's "close the generated class" step.
package emit

import (
	"bytes"
	"fmt"
	"go/format"
	"sort"
	"text/template"
)

// MaxGroupsPerProcedure bounds how many instruction groups may live in
// one generated procedure before the emitter starts a new continuation.
const MaxGroupsPerProcedure = 300

// Emitter partitions a single generated startup task's instructions
// across an entry procedure and N continuations, all sharing one Array.
type Emitter struct {
	taskName string
	pkgName  string

	array   Array
	entry   *Procedure
	current *Procedure
	conts   []*Procedure

	imports map[string]struct{}
}

// New creates an Emitter for a generated type named taskName in package
// pkgName.
func New(pkgName, taskName string) *Emitter {
	entry := newProcedure("deploy", true)
	e := &Emitter{
		taskName: taskName,
		pkgName:  pkgName,
		entry:    entry,
		current:  entry,
		imports:  map[string]struct{}{"github.com/mstgnz/recorder/startup": {}},
	}
	entry.owner = e
	return e
}

// RequireImport records that the generated file needs to import path.
func (e *Emitter) RequireImport(path string) {
	e.imports[path] = struct{}{}
}

// Array returns the shared object array being built.
func (e *Emitter) Array() *Array {
	return &e.array
}

// Current returns the procedure instructions are currently being
// written into, without starting a new group.
func (e *Emitter) Current() *Procedure {
	return e.current
}

// BeginGroup marks the start of a new, indivisible instruction group -
// one StoredCall invocation, or one ArrayStored node's creation
// fragment - and returns the procedure it must be written into. If the
// current procedure has already reached MaxGroupsPerProcedure, a new
// continuation is allocated, invoked from the entry procedure, and
// becomes current.
func (e *Emitter) BeginGroup() *Procedure {
	if e.current.groups >= MaxGroupsPerProcedure {
		e.rollover()
	}
	e.current.groups++
	return e.current
}

func (e *Emitter) rollover() {
	name := fmt.Sprintf("continuation%d", len(e.conts)+1)
	cont := newProcedure(name, false)
	cont.owner = e
	e.conts = append(e.conts, cont)
	e.entry.Emit("if err := %s(ctx, arr); err != nil {\nreturn err\n}", name)
	e.current = cont
}

// GroupCount returns the total number of instruction groups written so
// far across every procedure - used by tests asserting the splitter
// respects MaxGroupsPerProcedure.
func (e *Emitter) GroupCount() int {
	total := e.entry.groups
	for _, c := range e.conts {
		total += c.groups
	}
	return total
}

// Procedures returns the entry procedure followed by its continuations,
// in creation order.
func (e *Emitter) Procedures() []*Procedure {
	all := make([]*Procedure, 0, len(e.conts)+1)
	all = append(all, e.entry)
	all = append(all, e.conts...)
	return all
}

const fileTemplate = `// Code generated by the recording/serialization engine. DO NOT EDIT.
package {{.Package}}

import (
{{- range .Imports}}
	"{{.}}"
{{- end}}
)

// {{.TaskName}} replays the calls recorded against its build-time
// recorder proxies.
type {{.TaskName}} struct{}

// newArray allocates the shared object array every continuation reads
// from and writes into.
func (t *{{.TaskName}}) newArray() []any {
	return make([]any, {{.ArrayLen}})
}

// Deploy implements startup.StartupTask.
func (t *{{.TaskName}}) Deploy(ctx *startup.Context) error {
	arr := t.newArray()
{{range .EntryBody}}	{{.}}
{{end}}	return nil
}
{{range .Continuations}}
func {{.Name}}(ctx *startup.Context, arr []any) error {
{{range .Body}}	{{.}}
{{end}}	return nil
}
{{end}}`

type templateData struct {
	Package       string
	TaskName      string
	ArrayLen      int
	Imports       []string
	EntryBody     []string
	Continuations []contData
}

type contData struct {
	Name string
	Body []string
}

// Source renders the complete generated Go file as formatted source.
func (e *Emitter) Source() ([]byte, error) {
	imports := make([]string, 0, len(e.imports))
	for p := range e.imports {
		imports = append(imports, p)
	}
	sort.Strings(imports)

	conts := make([]contData, 0, len(e.conts))
	for _, c := range e.conts {
		conts = append(conts, contData{Name: c.name, Body: c.body})
	}

	data := templateData{
		Package:       e.pkgName,
		TaskName:      e.taskName,
		ArrayLen:      e.array.Len(),
		Imports:       imports,
		EntryBody:     e.entry.body,
		Continuations: conts,
	}

	tmpl, err := template.New("startup").Parse(fileTemplate)
	if err != nil {
		return nil, fmt.Errorf("emit: parsing template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("emit: executing template: %w", err)
	}

	formatted, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("emit: formatting generated source: %w\n%s", err, buf.String())
	}
	return formatted, nil
}
