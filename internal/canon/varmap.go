package canon

import "strconv"

// Binding pairs a generated placeholder with the host variable it replaced.
type Binding struct {
	Placeholder string `json:"placeholder" yaml:"placeholder"`
	Original    string `json:"original" yaml:"original"`
}

// VarMap is an ordered, invertible mapping from placeholder names (v0, v1,
// ...) to original variable names. The zero value is an empty map.
type VarMap struct {
	bindings []Binding
}

// NewVarMap assigns placeholders to originals in the order given. Duplicate
// names keep their first placeholder.
func NewVarMap(originals ...string) VarMap {
	var vm VarMap
	for _, name := range originals {
		vm.bind(name)
	}
	return vm
}

// Placeholder returns the generated name for position i.
func Placeholder(i int) string {
	return "v" + strconv.Itoa(i)
}

func (vm *VarMap) bind(original string) string {
	if ph, ok := vm.Placeholder(original); ok {
		return ph
	}
	ph := Placeholder(len(vm.bindings))
	vm.bindings = append(vm.bindings, Binding{Placeholder: ph, Original: original})
	return ph
}

// Len is the number of bound variables.
func (vm VarMap) Len() int { return len(vm.bindings) }

// Bindings returns a copy of the pairs in placeholder order.
func (vm VarMap) Bindings() []Binding {
	out := make([]Binding, len(vm.bindings))
	copy(out, vm.bindings)
	return out
}

// Placeholders lists the placeholder names in assignment order. This is the
// free-variable list handed to the solver.
func (vm VarMap) Placeholders() []string {
	out := make([]string, len(vm.bindings))
	for i, b := range vm.bindings {
		out[i] = b.Placeholder
	}
	return out
}

// Originals lists the host variable names in placeholder order.
func (vm VarMap) Originals() []string {
	out := make([]string, len(vm.bindings))
	for i, b := range vm.bindings {
		out[i] = b.Original
	}
	return out
}

// Original resolves a placeholder to the host variable name.
func (vm VarMap) Original(placeholder string) (string, bool) {
	for _, b := range vm.bindings {
		if b.Placeholder == placeholder {
			return b.Original, true
		}
	}
	return "", false
}

// Placeholder resolves a host variable name to its placeholder.
func (vm VarMap) Placeholder(original string) (string, bool) {
	for _, b := range vm.bindings {
		if b.Original == original {
			return b.Placeholder, true
		}
	}
	return "", false
}
