// Package blade compiles Blade templates into cacheable host-code artifacts.
//
// A template is run through a fixed sequence of passes: comments, verbatim
// regions, raw code blocks, @use imports, layout statements, component tags,
// the directive table, inline raw code and echoes. Regions that must survive
// untouched are parked in a Vault and restored at the end. The renderer that
// executes artifacts is not part of this package; artifacts call it through
// the $__env object.
package blade

import (
	"log/slog"
	"strings"
	"time"

	"bladec/pkg/metrics"
)

// Options configures a Compiler. Zero values fall back to the defaults below.
type Options struct {
	ViewsPath        string
	CachePath        string
	Extension        string
	EchoFormat       string
	StrictComponents bool
	Registry         *Registry
}

const (
	DefaultViewsPath  = "views"
	DefaultCachePath  = "storage/framework/views"
	DefaultExtension  = ".blade.php"
	DefaultEchoFormat = "e(%s)"
)

// Compiler turns template source into artifacts. It holds no per-template
// state, so one Compiler may be shared between goroutines.
type Compiler struct {
	opts     Options
	registry *Registry
	finder   *Finder
}

func New(opts Options) *Compiler {
	if opts.ViewsPath == "" {
		opts.ViewsPath = DefaultViewsPath
	}
	if opts.CachePath == "" {
		opts.CachePath = DefaultCachePath
	}
	if opts.Extension == "" {
		opts.Extension = DefaultExtension
	}
	if opts.EchoFormat == "" {
		opts.EchoFormat = DefaultEchoFormat
	}
	registry := opts.Registry
	if registry == nil {
		registry = DefaultRegistry
	}
	return &Compiler{
		opts:     opts,
		registry: registry,
		finder:   NewFinder(opts.ViewsPath, opts.Extension),
	}
}

func (c *Compiler) Options() Options { return c.opts }

func (c *Compiler) Registry() *Registry { return c.registry }

func (c *Compiler) Finder() *Finder { return c.finder }

// RegisterDirective adds a custom directive to the compiler's registry.
func (c *Compiler) RegisterDirective(name string, expander DirectiveExpander) error {
	return c.registry.Register(name, expander)
}

// Result is the output of one compilation.
type Result struct {
	Code     string
	Warnings []string
}

type forelseState struct {
	id        int
	emptySeen bool
}

// compilation is the state of a single CompileSource call.
type compilation struct {
	compiler *Compiler
	vault    Vault
	footer   []string

	slotSeq           int
	forelseSeq        int
	forelse           []forelseState
	firstCaseInSwitch bool

	warnings []string
	warned   map[string]bool
}

func (c *compilation) warn(msg string, args ...any) {
	if c.warned == nil {
		c.warned = make(map[string]bool)
	}
	if c.warned[msg] {
		return
	}
	c.warned[msg] = true
	c.warnings = append(c.warnings, msg)
	slog.Warn(msg, args...)
}

// CompileString compiles template source. It does no I/O.
func (c *Compiler) CompileString(source string) (string, error) {
	res, err := c.CompileSource(source)
	if err != nil {
		return "", err
	}
	return res.Code, nil
}

// CompileSource compiles template source and also reports the warnings
// raised by lenient passes.
func (c *Compiler) CompileSource(source string) (Result, error) {
	start := time.Now()
	comp := &compilation{compiler: c}

	text := stripComments(source)
	text = comp.storeVerbatimBlocks(text)
	text = comp.storePhpBlocks(text)

	passes := []func(string) (string, error){
		func(s string) (string, error) { return comp.compileStatements(s, useTable, false) },
		func(s string) (string, error) { return comp.compileStatements(s, layoutTable, false) },
		comp.compileComponentTags,
		func(s string) (string, error) { return comp.compileStatements(s, directiveTable, true) },
		func(s string) (string, error) { return comp.compileStatements(s, rawTable, false) },
	}
	for _, pass := range passes {
		var err error
		if text, err = pass(text); err != nil {
			metrics.ObserveCompile(metrics.ResultError, time.Since(start))
			return Result{}, err
		}
	}

	text = comp.compileEchoes(text)
	text = comp.vault.RestoreAll(text)
	if len(comp.footer) > 0 {
		text += "\n" + strings.Join(comp.footer, "\n")
	}

	metrics.ObserveCompile(metrics.ResultOK, time.Since(start))
	return Result{Code: text, Warnings: comp.warnings}, nil
}

// rawTable compiles the inline form @php(expr) left after block extraction.
var rawTable = buildTable([]Directive{
	{Name: "php", Kind: Output, Open: "<?php (%s); ?>"},
})

// storeVerbatimBlocks parks @verbatim ... @endverbatim bodies in the vault.
func (c *compilation) storeVerbatimBlocks(text string) string {
	return c.storeBlocks(text, "@verbatim", "@endverbatim", func(body string) string { return body })
}

// storePhpBlocks parks @php ... @endphp bodies as host code.
func (c *compilation) storePhpBlocks(text string) string {
	return c.storeBlocks(text, "@php", "@endphp", func(body string) string { return "<?php" + body + "?>" })
}

func (c *compilation) storeBlocks(text, open, close string, wrap func(string) string) string {
	if !strings.Contains(text, open) {
		return text
	}

	var b strings.Builder
	pos := 0
	for {
		idx := strings.Index(text[pos:], open)
		if idx == -1 {
			b.WriteString(text[pos:])
			break
		}
		start := pos + idx
		bodyStart := start + len(open)

		if !isBlockOpening(text, start, bodyStart) {
			b.WriteString(text[pos:bodyStart])
			pos = bodyStart
			continue
		}
		end := strings.Index(text[bodyStart:], close)
		if end == -1 {
			b.WriteString(text[pos:])
			break
		}
		b.WriteString(text[pos:start])
		b.WriteString(c.vault.Reserve(wrap(text[bodyStart : bodyStart+end])))
		pos = bodyStart + end + len(close)
	}
	return b.String()
}

// isBlockOpening rejects escaped (@@php), embedded (foo@php), longer
// (@phpinfo) and inline (@php(...)) occurrences.
func isBlockOpening(text string, start, bodyStart int) bool {
	if start > 0 && (text[start-1] == '@' || isWordByte(text[start-1])) {
		return false
	}
	if bodyStart < len(text) && isWordByte(text[bodyStart]) {
		return false
	}
	i := bodyStart
	for i < len(text) && (text[i] == ' ' || text[i] == '\t') {
		i++
	}
	return i >= len(text) || text[i] != '('
}
