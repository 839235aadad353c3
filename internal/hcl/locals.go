package hcl

import (
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// functions are the helpers available to every expression in a build file.
var functions = map[string]function.Function{
	"concat": stdlib.ConcatFunc,
	"format": stdlib.FormatFunc,
	"join":   stdlib.JoinFunc,
	"lower":  stdlib.LowerFunc,
	"upper":  stdlib.UpperFunc,
}

// evalLocals evaluates every attribute of every locals block and returns the
// context that exposes them as local.<name>. A local may refer to other
// locals in any order as long as the references are acyclic.
func evalLocals(blocks []*localsBlock) (*hcl.EvalContext, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	pending := make(map[string]*hcl.Attribute)
	for _, b := range blocks {
		attrs, d := b.Body.JustAttributes()
		diags = append(diags, d...)
		for name, attr := range attrs {
			if prev, ok := pending[name]; ok {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Duplicate local value definition",
					Detail:   fmt.Sprintf("A local value named %q was already defined at %s.", name, prev.NameRange),
					Subject:  attr.NameRange.Ptr(),
				})
				continue
			}
			pending[name] = attr
		}
	}
	if diags.HasErrors() {
		return nil, diags
	}

	values := make(map[string]cty.Value, len(pending))
	for len(pending) > 0 {
		progress := false
		for _, name := range sortedNames(pending) {
			attr := pending[name]
			if !localsReady(attr.Expr, values) {
				continue
			}
			val, d := attr.Expr.Value(evalContext(values))
			diags = append(diags, d...)
			if d.HasErrors() {
				return nil, diags
			}
			values[name] = val
			delete(pending, name)
			progress = true
		}
		if !progress {
			for _, name := range sortedNames(pending) {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Unresolvable local value",
					Detail:   fmt.Sprintf("local.%s refers to a local value that is undefined or part of a cycle.", name),
					Subject:  pending[name].Expr.Range().Ptr(),
				})
			}
			return nil, diags
		}
	}
	return evalContext(values), diags
}

// localsReady reports whether every local.<name> that expr refers to has
// already been evaluated.
func localsReady(expr hcl.Expression, values map[string]cty.Value) bool {
	for _, traversal := range expr.Variables() {
		if traversal.RootName() != "local" || len(traversal) < 2 {
			continue
		}
		step, ok := traversal[1].(hcl.TraverseAttr)
		if !ok {
			continue
		}
		if _, done := values[step.Name]; !done {
			return false
		}
	}
	return true
}

func evalContext(values map[string]cty.Value) *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"local": cty.ObjectVal(values)},
		Functions: functions,
	}
}

func sortedNames(m map[string]*hcl.Attribute) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
