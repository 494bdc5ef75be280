package blade

import "strings"

// layoutTable holds the inheritance and inclusion statements, compiled
// before the main directive table.
var layoutTable = buildTable([]Directive{
	{Name: "extends", Kind: Output, compile: compileExtends},
	{Name: "section", Kind: Block, Open: "<?php $__env->startSection(%s); ?>", Close: "<?php $__env->endSection(); ?>"},
	{Name: "stop", Kind: Single, Bare: "<?php $__env->endSection(); ?>"},
	{Name: "show", Kind: Single, Bare: "<?php $__section = $__env->getCurrentSection(); $__env->endSection(); echo $__env->yieldSection($__section, ''); ?>"},
	{Name: "yield", Kind: Output, compile: compileYield},
	{Name: "include", Kind: Output, compile: compileInclude},
	{Name: "includeIf", Kind: Output, compile: compileIncludeIf},
	{Name: "includeWhen", Kind: Output, compile: compileIncludeWhen},
	{Name: "includeUnless", Kind: Output, compile: compileIncludeUnless},
	{Name: "includeFirst", Kind: Output, compile: compileIncludeFirst},
})

// useTable is the single-entry table for the @use pass.
var useTable = buildTable([]Directive{
	{Name: "use", Kind: Output, compile: compileUse},
})

// @extends compiles to nothing in place; the layout is named in a footer so
// every section of the child is defined before the layout renders.
func compileExtends(c *compilation, expr string, hasArgs bool) (string, bool) {
	if !hasArgs || strings.TrimSpace(expr) == "" {
		return "", false
	}
	c.footer = append(c.footer, "<?php $__env->setExtends("+strings.TrimSpace(expr)+"); ?>")
	return "", true
}

func compileYield(_ *compilation, expr string, hasArgs bool) (string, bool) {
	args := SplitArguments(expr)
	if !hasArgs || len(args) == 0 {
		return "", false
	}
	def := "''"
	if len(args) > 1 {
		def = strings.Join(args[1:], ", ")
	}
	return "<?php echo $__env->yieldSection(" + args[0] + ", " + def + "); ?>", true
}

// includeCall renders $__env->include() with the caller's variables merged
// under the explicit data.
func includeCall(name string, data []string) string {
	context := "get_defined_vars()"
	if len(data) > 0 && data[0] != "" {
		context = "array_merge(get_defined_vars(), " + data[0] + ")"
	}
	return "$__env->include(" + name + ", " + context + ")"
}

func compileInclude(_ *compilation, expr string, hasArgs bool) (string, bool) {
	args := SplitArguments(expr)
	if !hasArgs || len(args) == 0 {
		return "", false
	}
	return "<?php echo " + includeCall(args[0], args[1:]) + "; ?>", true
}

func compileIncludeIf(_ *compilation, expr string, hasArgs bool) (string, bool) {
	args := SplitArguments(expr)
	if !hasArgs || len(args) == 0 {
		return "", false
	}
	return "<?php if ($__env->templateExists(" + args[0] + ")) echo " + includeCall(args[0], args[1:]) + "; ?>", true
}

func compileIncludeWhen(_ *compilation, expr string, hasArgs bool) (string, bool) {
	args := SplitArguments(expr)
	if !hasArgs || len(args) < 2 {
		return "", false
	}
	return "<?php if (" + args[0] + ") echo " + includeCall(args[1], args[2:]) + "; ?>", true
}

func compileIncludeUnless(_ *compilation, expr string, hasArgs bool) (string, bool) {
	args := SplitArguments(expr)
	if !hasArgs || len(args) < 2 {
		return "", false
	}
	return "<?php if (! (" + args[0] + ")) echo " + includeCall(args[1], args[2:]) + "; ?>", true
}

func compileIncludeFirst(_ *compilation, expr string, hasArgs bool) (string, bool) {
	args := SplitArguments(expr)
	if !hasArgs || len(args) == 0 {
		return "", false
	}
	return "<?php foreach (" + args[0] + " as $__candidate) { if ($__env->templateExists($__candidate)) { echo " +
		includeCall("$__candidate", args[1:]) + "; break; } } ?>", true
}

// compileUse turns @use('App\Models\User', 'Member') into an import.
func compileUse(_ *compilation, expr string, hasArgs bool) (string, bool) {
	args := SplitArguments(expr)
	if !hasArgs || len(args) == 0 {
		return "", false
	}
	class := strings.TrimLeft(stripQuotes(args[0]), `\`)
	if class == "" {
		return "", false
	}
	stmt := `<?php use \` + class
	if len(args) > 1 {
		if alias := stripQuotes(args[1]); alias != "" {
			stmt += " as " + alias
		}
	}
	return stmt + "; ?>", true
}
