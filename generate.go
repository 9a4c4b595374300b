package typefinder

import (
	"bytes"
	"fmt"
	"go/types"
	"strings"
	"text/template"

	"golang.org/x/tools/imports"
)

// RegistryImport is the import path of the runtime registry package.
const RegistryImport = "github.com/iVampireSP/typefinder/registry"

// GenerateRequest describes a registration file to render.
type GenerateRequest struct {
	Package    string          // package clause of the generated file
	ImportPath string          // import path of that package; may be empty
	Capability *types.TypeName // interface the matches are registered as
	Matches    []*TypeDescriptor
}

type genImport struct {
	Alias string
	Path  string
}

type genEntry struct {
	Name string
	Expr string
}

type genData struct {
	Package    string
	Capability string
	Imports    []genImport
	Entries    []genEntry
}

var registryTemplate = template.Must(template.New("registry").Parse(`// Code generated by typefinder. DO NOT EDIT.

package {{.Package}}

import (
	registry "` + RegistryImport + `"
{{- range .Imports}}
	{{.Alias}} "{{.Path}}"
{{- end}}
)

func init() {
{{- range .Entries}}
	registry.Register[{{$.Capability}}]({{printf "%q" .Name}}, func() {{$.Capability}} { return {{.Expr}} })
{{- end}}
}
`))

// Generate renders a Go file registering a factory for every match that can
// be instantiated from the generated package and implements the capability.
func Generate(req GenerateRequest) ([]byte, error) {
	if req.Package == "" {
		return nil, fmt.Errorf("generate: package name is required")
	}
	if req.Capability == nil {
		return nil, fmt.Errorf("generate: capability is required")
	}
	iface, ok := req.Capability.Type().Underlying().(*types.Interface)
	if !ok {
		return nil, fmt.Errorf("generate: capability %s is not an interface", req.Capability.Name())
	}
	if named, ok := req.Capability.Type().(*types.Named); ok && named.TypeParams().Len() > 0 {
		return nil, fmt.Errorf("generate: capability %s is generic", req.Capability.Name())
	}

	used := map[string]string{"registry": RegistryImport}
	aliases := make(map[string]string)
	data := genData{Package: req.Package}

	qualify := func(tn *types.TypeName) string {
		pkg := tn.Pkg()
		if pkg == nil || pkg.Path() == req.ImportPath {
			return tn.Name()
		}
		alias, ok := aliases[pkg.Path()]
		if !ok {
			alias = importAlias(pkg.Path(), pkg.Name(), used)
			if alias == "" {
				alias = pkg.Name()
			}
			used[alias] = pkg.Path()
			aliases[pkg.Path()] = alias
			data.Imports = append(data.Imports, genImport{Alias: alias, Path: pkg.Path()})
		}
		return alias + "." + tn.Name()
	}

	data.Capability = qualify(req.Capability)

	seen := make(map[string]bool)
	for _, m := range req.Matches {
		if !registrable(m, req.ImportPath) || seen[m.Name] || !implements(m.Object.Type(), iface) {
			continue
		}
		seen[m.Name] = true

		expr := qualify(m.Object) + "{}"
		if !types.Implements(m.Object.Type(), iface) {
			expr = "&" + expr
		}
		data.Entries = append(data.Entries, genEntry{Name: m.Name, Expr: expr})
	}

	var buf bytes.Buffer
	if err := registryTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("generate: render: %w", err)
	}
	out, err := imports.Process("", buf.Bytes(), nil)
	if err != nil {
		return nil, fmt.Errorf("generate: format: %w", err)
	}
	return out, nil
}

// registrable reports whether the generated package can construct m.
func registrable(m *TypeDescriptor, importPath string) bool {
	if m == nil || !m.IsConcrete() || m.Generic || !m.packageLevel() {
		return false
	}
	return m.Exported() || m.Object.Pkg().Path() == importPath
}

// importAlias returns the alias needed for a package, or empty if its own
// name is free.
func importAlias(pkgPath, pkgName string, used map[string]string) string {
	existing, ok := used[pkgName]
	if !ok || existing == pkgPath {
		return ""
	}
	// Need alias: parent dir + pkg name
	parts := strings.Split(pkgPath, "/")
	if len(parts) >= 2 {
		alias := sanitizeIdent(parts[len(parts)-2]) + pkgName
		if _, taken := used[alias]; !taken {
			return alias
		}
		if len(parts) >= 3 {
			alias = sanitizeIdent(parts[len(parts)-3]) + alias
			if _, taken := used[alias]; !taken {
				return alias
			}
		}
	}
	for i := 2; ; i++ {
		alias := fmt.Sprintf("%s%d", pkgName, i)
		if _, taken := used[alias]; !taken {
			return alias
		}
	}
}

func sanitizeIdent(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
