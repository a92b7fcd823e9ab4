// Package filter selects devices with CEL expressions such as
// `kind == "router" || vendor.startsWith("Acme")`.
package filter

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/checker/decls"

	"github.com/DrSkyle/netmapper/pkg/discovery"
)

// Filter is a compiled device predicate. The zero value matches everything.
type Filter struct {
	expr string
	prg  cel.Program
}

// Compile parses expr against the device variables ip, mac, kind and vendor.
// kind carries the device type, since "type" is a CEL builtin.
// An empty expression yields a filter that keeps every device.
func Compile(expr string) (*Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return &Filter{}, nil
	}

	env, err := cel.NewEnv(
		cel.Declarations(
			decls.NewVar("ip", decls.String),
			decls.NewVar("mac", decls.String),
			decls.NewVar("kind", decls.String),
			decls.NewVar("vendor", decls.String),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("filter compilation error: %w", issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("filter must evaluate to bool, got %s", ast.OutputType())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("filter program creation error: %w", err)
	}
	return &Filter{expr: expr, prg: prg}, nil
}

// String returns the source expression.
func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	return f.expr
}

// Match reports whether d satisfies the filter. Evaluation errors count as a
// miss.
func (f *Filter) Match(d discovery.Device) bool {
	if f == nil || f.prg == nil {
		return true
	}
	out, _, err := f.prg.Eval(map[string]interface{}{
		"ip":     d.IP,
		"mac":    d.MAC,
		"kind":   d.Type,
		"vendor": d.Vendor,
	})
	if err != nil {
		slog.Debug("Filter evaluation failed", "filter", f.expr, "ip", d.IP, "error", err)
		return false
	}
	match, ok := out.Value().(bool)
	return ok && match
}

// Apply returns the matching devices in their original order. The input is
// never modified.
func (f *Filter) Apply(devices []discovery.Device) []discovery.Device {
	out := make([]discovery.Device, 0, len(devices))
	for _, d := range devices {
		if f.Match(d) {
			out = append(out, d)
		}
	}
	return out
}
