package typefinder

import (
	"go/ast"
	"strings"
)

// Annotation types
const (
	AnnotAbstract = "abstract" // //typefinder:abstract
	AnnotIgnore   = "ignore"   // //typefinder:ignore
)

const directivePrefix = "typefinder:"

// Annotation represents a parsed //typefinder: directive. Text after the
// directive name is free-form and not kept.
type Annotation struct {
	Kind string // abstract, ignore
}

// ParseAnnotations extracts //typefinder: directives from the doc comments
// attached to a type declaration. Ungrouped declarations carry their doc on
// the GenDecl, grouped ones on the TypeSpec.
func ParseAnnotations(docs ...*ast.CommentGroup) []Annotation {
	var annotations []Annotation
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		for _, comment := range doc.List {
			text := strings.TrimSpace(strings.TrimPrefix(comment.Text, "//"))
			if !strings.HasPrefix(text, directivePrefix) {
				continue
			}
			text = strings.TrimPrefix(text, directivePrefix)

			kind, _, _ := strings.Cut(text, " ")
			switch kind {
			case AnnotAbstract, AnnotIgnore:
				annotations = append(annotations, Annotation{Kind: kind})
			}
		}
	}
	return annotations
}

// HasAnnotation checks if annotations contain a specific kind.
func HasAnnotation(annotations []Annotation, kind string) bool {
	for _, a := range annotations {
		if a.Kind == kind {
			return true
		}
	}
	return false
}
