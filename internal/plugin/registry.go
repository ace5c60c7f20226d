package plugin

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/language"

	"github.com/roach88/tabq/internal/ir"
)

// Registry holds one plugin per type name. Names are case-insensitive.
//
// Registry is not safe for concurrent use; it is populated at startup and
// read by the parser and executor afterwards.
type Registry struct {
	plugins map[string]Plugin
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{plugins: make(map[string]Plugin)}
}

// Default returns a registry holding the built-in string, number, boolean
// and date plugins.
func Default() *Registry {
	r := NewRegistry()
	for _, p := range []Plugin{
		NewStringPlugin(language.Und),
		NumberPlugin{},
		BooleanPlugin{},
		DatePlugin{},
	} {
		if err := r.Register(p, false); err != nil {
			panic(fmt.Sprintf("built-in plugin %T: %v", p, err))
		}
	}
	return r
}

// Register adds p under p.Name(). A plugin already registered under that
// name is replaced unless dontOverride is set, in which case the existing
// plugin is kept and Register returns nil.
//
// Register returns an INVALID_PLUGIN error for a nil plugin, an empty
// name, or an operator set missing one of BaseOperators.
func (r *Registry) Register(p Plugin, dontOverride bool) error {
	if err := validatePlugin(p); err != nil {
		return err
	}

	key := normalizeName(p.Name())
	_, ok := r.plugins[key]
	if !shouldReplace(ok, dontOverride) {
		slog.Debug("plugin registration skipped",
			slog.String("plugin", p.Name()),
			slog.String("reason", "dontOverride"))
		return nil
	}

	if ok {
		slog.Debug("plugin replaced", slog.String("plugin", p.Name()))
	}
	r.plugins[key] = p
	return nil
}

// shouldReplace is the single override policy: a new registration wins
// unless the caller protected the existing one.
func shouldReplace(exists, dontOverride bool) bool {
	return !exists || !dontOverride
}

func validatePlugin(p Plugin) error {
	if p == nil {
		return ir.NewError(ir.ErrCodeInvalidPlugin, "plugin is nil")
	}
	name := strings.TrimSpace(p.Name())
	if name == "" {
		return ir.NewError(ir.ErrCodeInvalidPlugin, "plugin %T has an empty name", p)
	}

	ops := p.Operators()
	var missing []string
	for _, base := range BaseOperators {
		if !operatorSet(ops).has(base) || !p.CheckOperator(base) {
			missing = append(missing, base)
		}
	}
	if len(missing) > 0 {
		err := ir.NewError(ir.ErrCodeInvalidPlugin,
			"plugin %q is missing base operators %s", name, strings.Join(missing, " "))
		err.Details = map[string]string{"missing": strings.Join(missing, " ")}
		return err
	}
	return nil
}

// Get returns the plugin registered under name, or an UNKNOWN_PLUGIN error.
func (r *Registry) Get(name string) (Plugin, error) {
	p, ok := r.Lookup(name)
	if !ok {
		return nil, ir.NewError(ir.ErrCodeUnknownPlugin, "no plugin registered for type %q", name)
	}
	return p, nil
}

// Lookup is the checking form of Get.
func (r *Registry) Lookup(name string) (Plugin, bool) {
	p, ok := r.plugins[normalizeName(name)]
	return p, ok
}

// Names returns the registered plugin names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.plugins))
	for _, p := range r.plugins {
		names = append(names, p.Name())
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered plugins.
func (r *Registry) Len() int {
	return len(r.plugins)
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// UnknownOperatorError reports op as unsupported for field, listing the
// operators p does support.
func UnknownOperatorError(p Plugin, field, op string) *ir.Error {
	valid := strings.Join(p.Operators(), " ")
	err := ir.NewError(ir.ErrCodeUnknownOperator,
		"operator %q is not supported by %s column %q; valid operators: %s",
		op, p.Name(), field, valid).WithField(field)
	err.Details = map[string]string{"operator": op, "valid": valid}
	return err
}

// formatAny renders an arbitrary import cell as text.
func formatAny(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(v)
	}
}
