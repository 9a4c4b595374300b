package typefinder

import (
	"fmt"
	"go/types"
)

// targetTypeName unwraps the named type a search targets.
func targetTypeName(target types.Type) (*types.TypeName, error) {
	if target == nil {
		return nil, fmt.Errorf("target type is nil")
	}
	t := types.Unalias(target)
	if p, ok := t.(*types.Pointer); ok {
		t = types.Unalias(p.Elem())
	}
	named, ok := t.(*types.Named)
	if !ok {
		return nil, fmt.Errorf("target %s is not a named type", target)
	}
	return named.Origin().Obj(), nil
}

// sameTypeName compares by package path and name so that types from
// separately loaded packages still compare equal.
func sameTypeName(a, b *types.TypeName) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil || a.Pkg() == nil || b.Pkg() == nil {
		return false
	}
	return a.Name() == b.Name() && a.Pkg().Path() == b.Pkg().Path() && a.Parent() == a.Pkg().Scope() && b.Parent() == b.Pkg().Scope()
}

// assignable reports whether the candidate implements the target interface,
// or is or embeds the target struct.
func assignable(target *types.TypeName, cand *TypeDescriptor) bool {
	named, ok := target.Type().(*types.Named)
	if !ok || named.TypeParams().Len() > 0 || cand == nil || cand.Object == nil {
		return false
	}
	if sameTypeName(target, cand.Object) {
		return true
	}

	ct, err := selfInstance(cand.Object.Type())
	if err != nil {
		return false
	}
	switch u := named.Underlying().(type) {
	case *types.Interface:
		return implements(ct, u)
	case *types.Struct:
		return embeds(ct, target, make(map[*types.TypeName]bool))
	}
	return false
}

// implementsOpenGeneric reports whether the generic definition of cand
// satisfies the open generic target. Any failure is reported as no match.
func implementsOpenGeneric(cand *TypeDescriptor, open *types.Named) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	if cand == nil || cand.Object == nil || open == nil {
		return false
	}
	named, isNamed := cand.Object.Type().(*types.Named)
	if !isNamed || named.TypeParams().Len() == 0 {
		return false
	}
	if sameTypeName(named.Obj(), open.Obj()) {
		return true
	}

	self, err := selfInstance(named)
	if err != nil {
		return false
	}
	switch open.Underlying().(type) {
	case *types.Interface:
		if named.TypeParams().Len() != open.TypeParams().Len() {
			return false
		}
		inst, err := types.Instantiate(nil, open, typeParamArgs(named), false)
		if err != nil {
			return false
		}
		iface, isIface := inst.Underlying().(*types.Interface)
		return isIface && implements(self, iface)
	case *types.Struct:
		return embeds(self, open.Obj(), make(map[*types.TypeName]bool))
	}
	return false
}

// implements checks both the value and the pointer method set.
func implements(t types.Type, iface *types.Interface) bool {
	if types.Implements(t, iface) {
		return true
	}
	if types.IsInterface(t) {
		return false
	}
	return types.Implements(types.NewPointer(t), iface)
}

// embeds reports whether the struct underlying t embeds target, by value or
// pointer, directly or through other embedded named types.
func embeds(t types.Type, target *types.TypeName, seen map[*types.TypeName]bool) bool {
	st, ok := t.Underlying().(*types.Struct)
	if !ok {
		return false
	}
	for i := 0; i < st.NumFields(); i++ {
		f := st.Field(i)
		if !f.Embedded() {
			continue
		}
		ft := types.Unalias(f.Type())
		if p, ok := ft.(*types.Pointer); ok {
			ft = types.Unalias(p.Elem())
		}
		fn, ok := ft.(*types.Named)
		if !ok {
			continue
		}
		obj := fn.Origin().Obj()
		if sameTypeName(obj, target) {
			return true
		}
		if seen[obj] {
			continue
		}
		seen[obj] = true
		if embeds(fn, target, seen) {
			return true
		}
	}
	return false
}

// selfInstance instantiates a generic type with its own type parameters so
// that its method set can be inspected. Other types are returned as is.
func selfInstance(t types.Type) (types.Type, error) {
	named, ok := t.(*types.Named)
	if !ok || named.TypeParams().Len() == 0 {
		return t, nil
	}
	return types.Instantiate(nil, named, typeParamArgs(named), false)
}

func typeParamArgs(named *types.Named) []types.Type {
	tparams := named.TypeParams()
	args := make([]types.Type, tparams.Len())
	for i := range args {
		args[i] = tparams.At(i)
	}
	return args
}
