package emit

import "fmt"

// Procedure is one generated Go function: either the entry Deploy method
// or one of its numbered continuations. It owns its own local-variable
// namespace and its own per-procedure array-slot read cache, matching
// spec section 4.5 ("A per-procedure cache memoizes array-slot reads so
// a given slot is fetched at most once per procedure").
type Procedure struct {
	name      string
	body      []string
	localSeq  int
	groups    int
	slotCache map[int]string
	isEntry   bool
	owner     *Emitter
}

func newProcedure(name string, isEntry bool) *Procedure {
	return &Procedure{
		name:      name,
		slotCache: make(map[int]string),
		isEntry:   isEntry,
	}
}

// RequireImport records that this procedure's generated code needs path
// in scope, delegating to the owning Emitter's import set.
func (p *Procedure) RequireImport(path string) {
	if p.owner != nil {
		p.owner.RequireImport(path)
	}
}

// Name returns the Go function name this procedure will be emitted as.
func (p *Procedure) Name() string {
	return p.name
}

// AllocLocal returns a fresh local variable name in this procedure,
// prefixed with prefix for readability in the generated source.
func (p *Procedure) AllocLocal(prefix string) string {
	p.localSeq++
	return fmt.Sprintf("%s%d", prefix, p.localSeq)
}

// Emit appends one formatted statement line to the procedure body.
func (p *Procedure) Emit(format string, args ...any) {
	p.body = append(p.body, fmt.Sprintf(format, args...))
}

// EmitRaw appends a statement verbatim, with no formatting.
func (p *Procedure) EmitRaw(stmt string) {
	p.body = append(p.body, stmt)
}

// CachedSlot returns the local variable already holding array[idx] in
// this procedure, if it has been read before.
func (p *Procedure) CachedSlot(idx int) (string, bool) {
	name, ok := p.slotCache[idx]
	return name, ok
}

// CacheSlot records that array[idx] now lives in local variable name
// within this procedure.
func (p *Procedure) CacheSlot(idx int, name string) {
	p.slotCache[idx] = name
}

// Groups returns how many instruction groups have been written into
// this procedure so far.
func (p *Procedure) Groups() int {
	return p.groups
}
