package typefinder

import (
	"go/token"
	"go/types"
)

// Kind classifies a declared type by its underlying type.
type Kind int

const (
	KindOther     Kind = iota // func, map, basic, ... underlying
	KindStruct                // a "class"
	KindInterface
)

func (k Kind) String() string {
	switch k {
	case KindStruct:
		return "struct"
	case KindInterface:
		return "interface"
	default:
		return "other"
	}
}

// TypeDescriptor describes a named type declared in a module.
type TypeDescriptor struct {
	// Name is the qualified name: "import/path.Type", or
	// "import/path.Outer.Type" for types declared in a function body.
	Name   string
	Object *types.TypeName
	Kind   Kind

	// Abstract is set by the //typefinder:abstract directive.
	Abstract bool
	// Generic is set for types declared with type parameters.
	Generic bool

	// Declaring is the receiver type of the method whose body declares this
	// type. Nil for package-level types and types local to plain functions.
	Declaring *TypeDescriptor

	Module   string
	Position token.Position
}

func (d *TypeDescriptor) String() string { return d.Name }

// IsInterface reports whether the type is an interface.
func (d *TypeDescriptor) IsInterface() bool { return d.Kind == KindInterface }

// IsClass reports whether the type is a struct.
func (d *TypeDescriptor) IsClass() bool { return d.Kind == KindStruct }

// IsConcrete reports whether the type is a non-abstract struct.
func (d *TypeDescriptor) IsConcrete() bool { return d.IsClass() && !d.Abstract }

// Exported reports whether code outside the module can name the type.
func (d *TypeDescriptor) Exported() bool {
	return d.packageLevel() && d.Object.Exported()
}

// packageLevel reports whether the type is declared at package scope.
func (d *TypeDescriptor) packageLevel() bool {
	return d.Object != nil && d.Object.Pkg() != nil && d.Object.Parent() == d.Object.Pkg().Scope()
}

// DeclaringOrSelf returns the declaring type, or d when there is none.
func (d *TypeDescriptor) DeclaringOrSelf() *TypeDescriptor {
	if d.Declaring != nil {
		return d.Declaring
	}
	return d
}

func kindOf(t types.Type) Kind {
	switch t.Underlying().(type) {
	case *types.Struct:
		return KindStruct
	case *types.Interface:
		return KindInterface
	default:
		return KindOther
	}
}
