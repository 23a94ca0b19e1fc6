package emit

// Array tracks the shared object array's size. Slots are assigned
// monotonically, in first-cross-procedure-use order (spec section 3):
// an ArrayStored node only consumes a slot the first time it is loaded
// from a procedure other than the one that prepared it.
type Array struct {
	next int
}

// Assign reserves and returns the next free slot index.
func (a *Array) Assign() int {
	idx := a.next
	a.next++
	return idx
}

// Len returns the number of slots assigned so far - the final array
// size once emission is complete.
func (a *Array) Len() int {
	return a.next
}
