package blade

import (
	"sort"
	"strconv"
	"strings"
)

// DirectiveKind classifies a table entry.
type DirectiveKind int

const (
	// Block directives open a region closed by @end<name>.
	Block DirectiveKind = iota
	// Output directives expand to one statement and have no closing form.
	Output
	// Single directives are literal substitutions without arguments.
	Single
)

func (k DirectiveKind) String() string {
	switch k {
	case Block:
		return "block"
	case Output:
		return "output"
	case Single:
		return "single"
	}
	return "unknown"
}

// Directive describes how one built-in directive compiles. Every "%s" in
// Open receives the argument text; Bare is used when no argument list
// follows; Close is emitted for @end<name>.
type Directive struct {
	Name  string
	Kind  DirectiveKind
	Open  string
	Bare  string
	Close string

	// compile overrides the templates for directives that carry state
	// across occurrences. It reports false to leave the token untouched.
	compile func(c *compilation, expr string, hasArgs bool) (string, bool)
}

const gateClass = `app(\Illuminate\Contracts\Auth\Access\Gate::class)`

var directiveTable = buildTable([]Directive{
	// conditionals
	{Name: "if", Kind: Block, Open: "<?php if(%s): ?>", Close: "<?php endif; ?>"},
	{Name: "elseif", Kind: Output, Open: "<?php elseif(%s): ?>"},
	{Name: "else", Kind: Single, Bare: "<?php else: ?>"},
	{Name: "unless", Kind: Block, Open: "<?php if (! (%s)): ?>", Close: "<?php endif; ?>"},
	{Name: "isset", Kind: Block, Open: "<?php if(isset(%s)): ?>", Close: "<?php endif; ?>"},
	{Name: "empty", Kind: Block, Open: "<?php if(empty(%s)): ?>", Close: "<?php endif; ?>", compile: compileEmpty},
	{Name: "hasSection", Kind: Output, Open: "<?php if (! empty(trim($__env->yieldSection(%s, '')))): ?>"},
	{Name: "sectionMissing", Kind: Output, Open: "<?php if (empty(trim($__env->yieldSection(%s, '')))): ?>"},
	{Name: "env", Kind: Block, Open: "<?php if(app()->environment(%s)): ?>", Close: "<?php endif; ?>"},
	{Name: "production", Kind: Block, Bare: "<?php if(app()->environment('production')): ?>", Close: "<?php endif; ?>"},

	// authentication and authorization
	{Name: "auth", Kind: Block, Open: "<?php if(auth()->guard(%s)->check()): ?>", Bare: "<?php if(auth()->guard()->check()): ?>", Close: "<?php endif; ?>"},
	{Name: "elseauth", Kind: Output, Open: "<?php elseif(auth()->guard(%s)->check()): ?>", Bare: "<?php elseif(auth()->guard()->check()): ?>"},
	{Name: "guest", Kind: Block, Open: "<?php if(auth()->guard(%s)->guest()): ?>", Bare: "<?php if(auth()->guard()->guest()): ?>", Close: "<?php endif; ?>"},
	{Name: "elseguest", Kind: Output, Open: "<?php elseif(auth()->guard(%s)->guest()): ?>", Bare: "<?php elseif(auth()->guard()->guest()): ?>"},
	{Name: "can", Kind: Block, Open: "<?php if (" + gateClass + "->check(%s)): ?>", Close: "<?php endif; ?>"},
	{Name: "cannot", Kind: Block, Open: "<?php if (" + gateClass + "->denies(%s)): ?>", Close: "<?php endif; ?>"},
	{Name: "canany", Kind: Block, Open: "<?php if (" + gateClass + "->any(%s)): ?>", Close: "<?php endif; ?>"},
	{Name: "elsecan", Kind: Output, Open: "<?php elseif (" + gateClass + "->check(%s)): ?>"},
	{Name: "elsecannot", Kind: Output, Open: "<?php elseif (" + gateClass + "->denies(%s)): ?>"},
	{Name: "elsecanany", Kind: Output, Open: "<?php elseif (" + gateClass + "->any(%s)): ?>"},
	{Name: "error", Kind: Block,
		Open:  "<?php $__errorArgs = [%s];\n$__bag = $errors->getBag($__errorArgs[1] ?? 'default');\nif ($__bag->has($__errorArgs[0])) :\nif (isset($message)) { $__messageOriginal = $message; }\n$message = $__bag->first($__errorArgs[0]); ?>",
		Close: "<?php unset($message);\nif (isset($__messageOriginal)) { $message = $__messageOriginal; }\nendif;\nunset($__errorArgs, $__bag); ?>"},

	// loops
	{Name: "foreach", Kind: Block, Open: "<?php foreach(%s): ?>", Close: "<?php endforeach; ?>"},
	{Name: "forelse", Kind: Block, compile: compileForelse},
	{Name: "endforelse", Kind: Single, compile: compileEndForelse},
	{Name: "for", Kind: Block, Open: "<?php for(%s): ?>", Close: "<?php endfor; ?>"},
	{Name: "while", Kind: Block, Open: "<?php while(%s): ?>", Close: "<?php endwhile; ?>"},
	{Name: "break", Kind: Output, Open: "<?php if(%s) break; ?>", Bare: "<?php break; ?>"},
	{Name: "continue", Kind: Output, Open: "<?php if(%s) continue; ?>", Bare: "<?php continue; ?>"},
	{Name: "switch", Kind: Block, compile: compileSwitch},
	{Name: "case", Kind: Output, compile: compileCase},
	{Name: "default", Kind: Single, compile: compileDefault},
	{Name: "endswitch", Kind: Single, compile: compileEndSwitch},

	// stacks
	{Name: "push", Kind: Block, Open: "<?php $__env->startPush(%s); ?>", Close: "<?php $__env->stopPush(); ?>"},
	{Name: "prepend", Kind: Block, Open: "<?php $__env->startPrepend(%s); ?>", Close: "<?php $__env->stopPrepend(); ?>"},
	{Name: "stack", Kind: Output, Open: "<?php echo $__env->yieldPushContent(%s); ?>"},

	// output statements
	{Name: "dump", Kind: Output, Open: "<?php dump(%s); ?>"},
	{Name: "dd", Kind: Output, Open: "<?php dd(%s); ?>"},
	{Name: "abort", Kind: Output, Open: "<?php abort(%s); ?>"},
	{Name: "json", Kind: Output, compile: compileJSON},
	{Name: "old", Kind: Output, Open: "<?php echo e(old(%s)); ?>"},
	{Name: "share", Kind: Output, Open: "<?php $__env->share(%s); ?>"},
	{Name: "method", Kind: Output, Open: "<?php echo method_field(%s); ?>"},
	{Name: "lang", Kind: Output, Open: "<?php echo app('translator')->get(%s); ?>"},
	{Name: "choice", Kind: Output, Open: "<?php echo app('translator')->choice(%s); ?>"},
	{Name: "class", Kind: Output, Open: `class="<?php echo \Illuminate\Support\Arr::toCssClasses(%s); ?>"`},
	{Name: "style", Kind: Output, Open: `style="<?php echo \Illuminate\Support\Arr::toCssStyles(%s); ?>"`},
	{Name: "checked", Kind: Output, Open: "<?php if(%s): echo 'checked'; endif; ?>"},
	{Name: "disabled", Kind: Output, Open: "<?php if(%s): echo 'disabled'; endif; ?>"},
	{Name: "selected", Kind: Output, Open: "<?php if(%s): echo 'selected'; endif; ?>"},
	{Name: "readonly", Kind: Output, Open: "<?php if(%s): echo 'readonly'; endif; ?>"},
	{Name: "required", Kind: Output, Open: "<?php if(%s): echo 'required'; endif; ?>"},
	{Name: "csrf", Kind: Single, Bare: "<?php echo csrf_field(); ?>"},
})

func buildTable(entries []Directive) map[string]Directive {
	table := make(map[string]Directive, len(entries))
	for _, d := range entries {
		table[d.Name] = d
	}
	return table
}

// Directives lists the built-in directive table sorted by name.
func Directives() []Directive {
	out := make([]Directive, 0, len(directiveTable)+len(layoutTable))
	for _, d := range directiveTable {
		out = append(out, d)
	}
	for _, d := range layoutTable {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// expand renders a directive occurrence from its table entry.
func (d Directive) expand(c *compilation, expr string, hasArgs bool) (string, bool) {
	if d.compile != nil {
		return d.compile(c, expr, hasArgs)
	}
	switch {
	case d.Kind == Single:
		return d.Bare, true
	case hasArgs && d.Open != "":
		return strings.ReplaceAll(d.Open, "%s", expr), true
	case !hasArgs && d.Bare != "":
		return d.Bare, true
	}
	return "", false
}

// closer returns the table entry whose region "@<name>" closes.
func closer(table map[string]Directive, name string) (Directive, bool) {
	if !strings.HasPrefix(name, "end") || len(name) == 3 {
		return Directive{}, false
	}
	d, ok := table[name[3:]]
	if !ok || d.Kind != Block || d.Close == "" {
		return Directive{}, false
	}
	return d, true
}

// compileStatements scans text for @name tokens and expands those known to
// table, and to the registry when custom is set. Unknown tokens are copied
// through unchanged.
func (c *compilation) compileStatements(text string, table map[string]Directive, custom bool) (string, error) {
	if !strings.Contains(text, "@") {
		return text, nil
	}

	var b strings.Builder
	b.Grow(len(text))
	pos := 0
	for {
		idx := strings.IndexByte(text[pos:], '@')
		if idx == -1 {
			b.WriteString(text[pos:])
			break
		}
		at := pos + idx
		b.WriteString(text[pos:at])

		// e-mail addresses and the like
		if at > 0 && isWordByte(text[at-1]) {
			b.WriteByte('@')
			pos = at + 1
			continue
		}

		// @@name escapes a directive; the vault keeps later passes off it
		if at+1 < len(text) && text[at+1] == '@' {
			end := scanIdentifier(text, at+2)
			if end > at+2 {
				b.WriteString(c.vault.Reserve(text[at+1 : end]))
				pos = end
				continue
			}
			b.WriteString("@@")
			pos = at + 2
			continue
		}

		nameEnd := scanIdentifier(text, at+1)
		if nameEnd == at+1 {
			b.WriteByte('@')
			pos = at + 1
			continue
		}
		name := text[at+1 : nameEnd]

		expr, argsEnd, hasArgs, err := c.directiveArguments(text, nameEnd)
		if err != nil {
			if !c.isDirective(table, name, custom) {
				b.WriteString(text[at:nameEnd])
				pos = nameEnd
				continue
			}
			return "", err
		}

		out, consumed, ok := c.expandToken(table, name, expr, hasArgs, custom)
		if !ok {
			b.WriteString(text[at:nameEnd])
			pos = nameEnd
			continue
		}
		b.WriteString(out)
		if consumed && hasArgs {
			pos = argsEnd
		} else {
			pos = nameEnd
		}
	}
	return b.String(), nil
}

// directiveArguments looks for an argument list after a directive name,
// allowing spaces or tabs before '('.
func (c *compilation) directiveArguments(text string, from int) (string, int, bool, error) {
	i := from
	for i < len(text) && (text[i] == ' ' || text[i] == '\t') {
		i++
	}
	if i >= len(text) || text[i] != '(' {
		return "", from, false, nil
	}
	expr, end, err := ExtractBalanced(text, i)
	if err != nil {
		return "", from, false, err
	}
	return expr, end, true, nil
}

// expandToken resolves one token. consumed reports whether the argument list
// belongs to the expansion. Custom expansions go straight to the vault so no
// later pass rescans them.
func (c *compilation) expandToken(table map[string]Directive, name, expr string, hasArgs, custom bool) (out string, consumed bool, ok bool) {
	if fn, found := c.compiler.registry.Get(name); found {
		// registered names wait for the directive pass, which lets them
		// override any built-in
		if !custom {
			return "", false, false
		}
		return c.vault.Reserve(fn.Expand(strings.TrimSpace(expr))), true, true
	}
	if d, found := table[name]; found {
		out, ok = d.expand(c, expr, hasArgs)
		return out, d.Kind != Single, ok
	}
	if d, found := closer(table, name); found {
		return d.Close, false, true
	}
	return "", false, false
}

// isDirective reports whether name would be expanded by this pass.
func (c *compilation) isDirective(table map[string]Directive, name string, custom bool) bool {
	if _, ok := c.compiler.registry.Get(name); ok {
		return custom
	}
	if _, ok := table[name]; ok {
		return true
	}
	_, ok := closer(table, name)
	return ok
}

func scanIdentifier(text string, i int) int {
	for i < len(text) && isWordByte(text[i]) {
		i++
	}
	// Class::method style names
	if i+2 < len(text) && text[i] == ':' && text[i+1] == ':' && isWordByte(text[i+2]) {
		i += 2
		for i < len(text) && isWordByte(text[i]) {
			i++
		}
	}
	return i
}

func isWordByte(ch byte) bool {
	return isAlnum(ch) || ch == '_'
}

func compileForelse(c *compilation, expr string, hasArgs bool) (string, bool) {
	if !hasArgs {
		return "", false
	}
	c.forelseSeq++
	c.forelse = append(c.forelse, forelseState{id: c.forelseSeq})
	v := "$__empty_" + strconv.Itoa(c.forelseSeq)
	return "<?php " + v + " = true; foreach(" + expr + "): " + v + " = false; ?>", true
}

// compileEmpty is @empty($x) as a conditional, or the bare @empty that
// splits a @forelse.
func compileEmpty(c *compilation, expr string, hasArgs bool) (string, bool) {
	if hasArgs {
		return "<?php if(empty(" + expr + ")): ?>", true
	}
	if len(c.forelse) == 0 {
		return "", false
	}
	top := &c.forelse[len(c.forelse)-1]
	top.emptySeen = true
	return "<?php endforeach; if ($__empty_" + strconv.Itoa(top.id) + "): ?>", true
}

func compileEndForelse(c *compilation, _ string, _ bool) (string, bool) {
	if len(c.forelse) == 0 {
		return "", false
	}
	top := c.forelse[len(c.forelse)-1]
	c.forelse = c.forelse[:len(c.forelse)-1]
	if top.emptySeen {
		return "<?php endif; ?>", true
	}
	return "<?php endforeach; ?>", true
}

// The host forbids output between "switch" and its first case, so the first
// case continues the switch's open code block.
func compileSwitch(c *compilation, expr string, hasArgs bool) (string, bool) {
	if !hasArgs {
		return "", false
	}
	c.firstCaseInSwitch = true
	return "<?php switch(" + expr + "):", true
}

func compileCase(c *compilation, expr string, hasArgs bool) (string, bool) {
	if !hasArgs {
		return "", false
	}
	if c.firstCaseInSwitch {
		c.firstCaseInSwitch = false
		return " case (" + expr + "): ?>", true
	}
	return "<?php case (" + expr + "): ?>", true
}

func compileDefault(c *compilation, _ string, _ bool) (string, bool) {
	if c.firstCaseInSwitch {
		c.firstCaseInSwitch = false
		return " default: ?>", true
	}
	return "<?php default: ?>", true
}

func compileEndSwitch(c *compilation, _ string, _ bool) (string, bool) {
	if c.firstCaseInSwitch {
		c.firstCaseInSwitch = false
		return " endswitch; ?>", true
	}
	return "<?php endswitch; ?>", true
}

func compileJSON(_ *compilation, expr string, hasArgs bool) (string, bool) {
	if !hasArgs {
		return "", false
	}
	parts := SplitArguments(expr)
	if len(parts) == 0 {
		return "", false
	}
	options, depth := "15", "512"
	if len(parts) > 1 && parts[1] != "" {
		options = parts[1]
	}
	if len(parts) > 2 && parts[2] != "" {
		depth = parts[2]
	}
	return "<?php echo json_encode(" + parts[0] + ", " + options + ", " + depth + ") ?>", true
}
