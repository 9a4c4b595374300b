package typefinder

import (
	"go/ast"
	"go/token"
	"go/types"
	"sort"
)

// Module is a loaded Go package. Its defined types are resolved on first use.
type Module struct {
	Path string // import path; the module's identity
	Name string // package name
	Dir  string

	pkg   *types.Package
	info  *types.Info
	fset  *token.FileSet
	files []*ast.File
	errs  []error

	defined  []*TypeDescriptor
	resolved bool
}

// NewModule wraps a type-checked package. info and files may be nil, in which
// case types are enumerated from the package scope without directives or
// function-local types. errs are load errors; a module with errors fails
// enumeration.
func NewModule(pkg *types.Package, info *types.Info, fset *token.FileSet, files []*ast.File, errs ...error) *Module {
	m := &Module{
		pkg:   pkg,
		info:  info,
		fset:  fset,
		files: files,
		errs:  errs,
	}
	if pkg != nil {
		m.Path = pkg.Path()
		m.Name = pkg.Name()
	}
	if fset == nil {
		m.fset = token.NewFileSet()
	}
	return m
}

// Lookup returns the package-level type called name, or nil.
func (m *Module) Lookup(name string) *types.TypeName {
	if m.pkg == nil {
		return nil
	}
	tn, _ := m.pkg.Scope().Lookup(name).(*types.TypeName)
	return tn
}

// DefinedTypes enumerates the named types declared in the module:
// package-level types in file and declaration order, then types declared
// inside function bodies.
func (m *Module) DefinedTypes() ([]*TypeDescriptor, error) {
	if len(m.errs) > 0 {
		return nil, &TypeEnumerationError{Module: m.Path, Causes: m.errs}
	}
	if m.resolved {
		return m.defined, nil
	}
	if m.info == nil || len(m.files) == 0 {
		m.defined = m.definedFromScope()
	} else {
		m.defined = m.definedFromSyntax()
	}
	m.resolved = true
	return m.defined, nil
}

func (m *Module) definedFromSyntax() []*TypeDescriptor {
	var defined []*TypeDescriptor
	byObj := make(map[*types.TypeName]*TypeDescriptor)

	for _, f := range m.files {
		for _, decl := range f.Decls {
			gd, ok := decl.(*ast.GenDecl)
			if !ok || gd.Tok != token.TYPE {
				continue
			}
			for _, spec := range gd.Specs {
				ts := spec.(*ast.TypeSpec)
				d := m.describe(gd, ts, "", nil)
				if d == nil {
					continue
				}
				byObj[d.Object] = d
				defined = append(defined, d)
			}
		}
	}

	for _, f := range m.files {
		for _, decl := range f.Decls {
			fd, ok := decl.(*ast.FuncDecl)
			if !ok || fd.Body == nil {
				continue
			}
			outer := fd.Name.Name
			var declaring *TypeDescriptor
			if recv := m.receiver(fd); recv != nil {
				declaring = byObj[recv]
				outer = recv.Name()
			}
			ast.Inspect(fd.Body, func(n ast.Node) bool {
				gd, ok := n.(*ast.GenDecl)
				if !ok || gd.Tok != token.TYPE {
					return true
				}
				for _, spec := range gd.Specs {
					if d := m.describe(gd, spec.(*ast.TypeSpec), outer, declaring); d != nil {
						defined = append(defined, d)
					}
				}
				return false
			})
		}
	}
	return defined
}

// describe builds the descriptor of one type spec. outer qualifies the name
// of function-local types.
func (m *Module) describe(gd *ast.GenDecl, ts *ast.TypeSpec, outer string, declaring *TypeDescriptor) *TypeDescriptor {
	obj, ok := m.info.Defs[ts.Name].(*types.TypeName)
	if !ok || obj == nil || obj.IsAlias() {
		return nil
	}

	var doc *ast.CommentGroup
	if !gd.Lparen.IsValid() {
		doc = gd.Doc
	}
	annotations := ParseAnnotations(doc, ts.Doc)
	if HasAnnotation(annotations, AnnotIgnore) {
		return nil
	}

	name := m.Path + "." + ts.Name.Name
	if outer != "" {
		name = m.Path + "." + outer + "." + ts.Name.Name
	}
	return &TypeDescriptor{
		Name:      name,
		Object:    obj,
		Kind:      kindOf(obj.Type()),
		Abstract:  HasAnnotation(annotations, AnnotAbstract),
		Generic:   ts.TypeParams != nil && ts.TypeParams.NumFields() > 0,
		Declaring: declaring,
		Module:    m.Path,
		Position:  m.fset.Position(ts.Pos()),
	}
}

// receiver resolves the named receiver type of a method declaration.
func (m *Module) receiver(fd *ast.FuncDecl) *types.TypeName {
	if fd.Recv == nil || len(fd.Recv.List) == 0 {
		return nil
	}
	expr := fd.Recv.List[0].Type
	for {
		switch e := expr.(type) {
		case *ast.StarExpr:
			expr = e.X
			continue
		case *ast.ParenExpr:
			expr = e.X
			continue
		case *ast.IndexExpr:
			expr = e.X
			continue
		case *ast.IndexListExpr:
			expr = e.X
			continue
		case *ast.Ident:
			tn, _ := m.info.Uses[e].(*types.TypeName)
			return tn
		}
		return nil
	}
}

// definedFromScope is used for modules without syntax, e.g. loaded from
// export data. Declaration order is recovered from source positions.
func (m *Module) definedFromScope() []*TypeDescriptor {
	if m.pkg == nil {
		return nil
	}
	scope := m.pkg.Scope()
	var defined []*TypeDescriptor
	for _, name := range scope.Names() {
		obj, ok := scope.Lookup(name).(*types.TypeName)
		if !ok || obj.IsAlias() {
			continue
		}
		generic := false
		if named, ok := obj.Type().(*types.Named); ok {
			generic = named.TypeParams().Len() > 0
		}
		defined = append(defined, &TypeDescriptor{
			Name:     m.Path + "." + name,
			Object:   obj,
			Kind:     kindOf(obj.Type()),
			Generic:  generic,
			Module:   m.Path,
			Position: m.fset.Position(obj.Pos()),
		})
	}
	sort.SliceStable(defined, func(i, j int) bool {
		return defined[i].Object.Pos() < defined[j].Object.Pos()
	})
	return defined
}
