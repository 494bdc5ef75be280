package blade

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/alphadose/haxmap"
)

// DirectiveExpander produces the replacement for a custom directive. It
// receives the argument text without the surrounding parentheses, or "" when
// the directive was used without arguments.
type DirectiveExpander interface {
	Expand(expression string) string
}

// DirectiveFunc adapts a plain function to DirectiveExpander.
type DirectiveFunc func(expression string) string

func (f DirectiveFunc) Expand(expression string) string { return f(expression) }

var directiveNamePattern = regexp.MustCompile(`^\w+(?:::\w+)?$`)

// Registry maps custom directive names to expanders. It is safe to register
// while other goroutines compile.
type Registry struct {
	directives *haxmap.Map[string, DirectiveExpander]
}

func NewRegistry() *Registry {
	return &Registry{directives: haxmap.New[string, DirectiveExpander]()}
}

// DefaultRegistry is the process-wide registry used by compilers that are
// not given their own.
var DefaultRegistry = NewRegistry()

// Register adds or replaces a custom directive.
func (r *Registry) Register(name string, expander DirectiveExpander) error {
	if !directiveNamePattern.MatchString(name) {
		return &Diagnostic{
			Kind:    KindInvalidDirectiveName,
			Message: fmt.Sprintf("directive name %q must be alphanumeric with underscores", name),
			Offset:  -1,
		}
	}
	if expander == nil {
		return fmt.Errorf("directive %q: nil expander", name)
	}
	r.directives.Set(name, expander)
	return nil
}

// RegisterFunc is Register for plain functions.
func (r *Registry) RegisterFunc(name string, fn func(expression string) string) error {
	return r.Register(name, DirectiveFunc(fn))
}

// RegisterIf defines a custom conditional: @name(args), @elsename(args),
// @unlessname(args) and @endname. The condition is evaluated at render time
// through $__env->check(name, args...).
func (r *Registry) RegisterIf(name string) error {
	check := func(prefix string) DirectiveFunc {
		return func(expression string) string {
			args := quoteLiteral(name)
			if expression != "" {
				args += ", " + expression
			}
			return "<?php " + prefix + " ($__env->check(" + args + ")): ?>"
		}
	}

	for _, d := range []struct {
		name string
		fn   DirectiveExpander
	}{
		{name, check("if")},
		{"else" + name, check("elseif")},
		{"unless" + name, DirectiveFunc(func(expression string) string {
			args := quoteLiteral(name)
			if expression != "" {
				args += ", " + expression
			}
			return "<?php if (! $__env->check(" + args + ")): ?>"
		})},
		{"end" + name, DirectiveFunc(func(string) string { return "<?php endif; ?>" })},
	} {
		if err := r.Register(d.name, d.fn); err != nil {
			return err
		}
	}
	return nil
}

// Get looks up a custom directive.
func (r *Registry) Get(name string) (DirectiveExpander, bool) {
	return r.directives.Get(name)
}

// Names lists the registered directive names in order.
func (r *Registry) Names() []string {
	var names []string
	r.directives.ForEach(func(name string, _ DirectiveExpander) bool {
		names = append(names, name)
		return true
	})
	sort.Strings(names)
	return names
}

// RegisterDirective registers a custom directive on DefaultRegistry.
func RegisterDirective(name string, expander DirectiveExpander) error {
	return DefaultRegistry.Register(name, expander)
}

// TemplateDirective builds an expander from a template in which "$expression"
// or "%s" stands for the argument text.
func TemplateDirective(template string) DirectiveExpander {
	return DirectiveFunc(func(expression string) string {
		out := strings.ReplaceAll(template, "$expression", expression)
		return strings.ReplaceAll(out, "%s", expression)
	})
}
