package types

// OverloadSet maps normalized argument lists to destination files for all
// overloads sharing one qualified function name. Insertion order is kept:
// a lookup without an argument list gets the first overload registered.
type OverloadSet struct {
	order []string
	files map[string]string
}

// NewOverloadSet creates an empty overload set
func NewOverloadSet() *OverloadSet {
	return &OverloadSet{
		files: make(map[string]string),
	}
}

// Add registers an overload. Re-adding an argument list replaces its file but
// keeps its original position.
func (o *OverloadSet) Add(arglist, file string) {
	if _, exists := o.files[arglist]; !exists {
		o.order = append(o.order, arglist)
	}
	o.files[arglist] = file
}

// Len returns the number of overloads
func (o *OverloadSet) Len() int {
	return len(o.order)
}

// Arglists returns the normalized argument lists in insertion order
func (o *OverloadSet) Arglists() []string {
	out := make([]string, len(o.order))
	copy(out, o.order)
	return out
}

// File returns the destination registered for an argument list
func (o *OverloadSet) File(arglist string) (string, bool) {
	file, ok := o.files[arglist]
	return file, ok
}

// TargetKind implements Target
func (o *OverloadSet) TargetKind() Kind {
	return KindFunctionList
}

// Select implements Target. A non-empty argument list must match one overload
// exactly; an empty one means the caller doesn't care which overload is used.
// "()" counts as empty unless a zero-argument overload exists.
func (o *OverloadSet) Select(arglist string) (Entry, error) {
	if len(o.order) == 0 {
		return Entry{}, &LookupError{Reason: ReasonNotFound}
	}

	if file, ok := o.files[arglist]; ok && arglist != "" {
		return Entry{Kind: KindFunction, File: file}, nil
	}

	if arglist == "" || arglist == "()" {
		return Entry{Kind: KindFunction, File: o.files[o.order[0]]}, nil
	}
	return Entry{}, &LookupError{Arglist: arglist, Reason: ReasonArglistMismatch}
}
