// Package declarative implements the declarative-scene content variant
// for .qml resources. A scene is an ordered list of items, each with
// static properties or per-frame bindings; bindings are expr programs
// evaluated against the frame clock, the content size, and effect
// parameters.
package declarative

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// Scene file format, in the spirit of an INI file:
//
//	# comment
//	[backdrop]
//	type rect
//	color #202040
//
//	[frame]
//	type image
//	source source
//	width { width }
//	height { height }
//	opacity { min(1.0, time * 2.0) }
//
// An option line is "name value"; a value wrapped in braces is a
// binding, anything else is a literal. Items render in file order.

type itemKind int

const (
	rectItem itemKind = iota + 1
	imageItem
)

// property is a literal value or a compiled binding, never both.
type property struct {
	literal string
	binding *exprvm.Program
}

type item struct {
	name  string
	kind  itemKind
	props map[string]*property
}

type scene struct {
	items []*item
	// warnings are non-fatal oddities found while parsing, reported to
	// the log at load time.
	warnings []string
}

var knownProps = map[itemKind]map[string]bool{
	rectItem:  {"x": true, "y": true, "width": true, "height": true, "color": true, "opacity": true, "visible": true},
	imageItem: {"x": true, "y": true, "width": true, "height": true, "source": true, "visible": true},
}

// parseScene reads and compiles a scene description.
func parseScene(r io.Reader) (*scene, error) {
	s := &scene{}
	var current *item
	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			current = &item{
				name:  strings.Trim(line, "[]"),
				props: make(map[string]*property),
			}
			s.items = append(s.items, current)
			continue
		}

		if current == nil {
			return nil, fmt.Errorf("line %d: option %q outside any item section", lineNo, line)
		}

		name, value, _ := strings.Cut(line, " ")
		value = strings.TrimSpace(value)

		if name == "type" {
			switch value {
			case "rect":
				current.kind = rectItem
			case "image":
				current.kind = imageItem
			default:
				return nil, fmt.Errorf("line %d: unknown item type %q", lineNo, value)
			}
			continue
		}

		prop, err := parseProperty(value)
		if err != nil {
			return nil, fmt.Errorf("line %d: property %q: %w", lineNo, name, err)
		}
		current.props[name] = prop
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading scene: %w", err)
	}

	for _, it := range s.items {
		if it.kind == 0 {
			return nil, fmt.Errorf("item %q has no type", it.name)
		}
		for name := range it.props {
			if !knownProps[it.kind][name] {
				s.warnings = append(s.warnings,
					fmt.Sprintf("item %q: unknown property %q ignored", it.name, name))
			}
		}
		if it.kind == imageItem && it.props["source"] == nil {
			return nil, fmt.Errorf("image item %q has no source", it.name)
		}
	}
	return s, nil
}

// parseProperty compiles "{ expr }" values and keeps the rest verbatim.
func parseProperty(value string) (*property, error) {
	if strings.HasPrefix(value, "{") && strings.HasSuffix(value, "}") {
		src := strings.TrimSpace(value[1 : len(value)-1])
		program, err := expr.Compile(src,
			expr.Env(map[string]any{}),
			expr.AllowUndefinedVariables(),
		)
		if err != nil {
			return nil, err
		}
		return &property{binding: program}, nil
	}
	return &property{literal: value}, nil
}
