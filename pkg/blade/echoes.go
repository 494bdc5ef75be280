package blade

import (
	"regexp"
	"strings"
)

// Groups: 1 escape '@', 2 triple-brace body, 3 raw body, 4 regular body,
// 5 trailing newline. The triple form is listed first so it wins over "{{".
var echoPattern = regexp.MustCompile(`(?s)(@)?(?:\{\{\{\s*(.+?)\s*\}\}\}|\{!!\s*(.+?)\s*!!\}|\{\{\s*(.+?)\s*\}\})(\r?\n)?`)

var commentPattern = regexp.MustCompile(`(?s)\{\{--.*?--\}\}`)

// compileEchoes turns {{ }}, {{{ }}} and {!! !!} into output statements.
// An '@' prefix keeps the echo as literal text.
func (c *compilation) compileEchoes(text string) string {
	if !strings.Contains(text, "{{") && !strings.Contains(text, "{!!") {
		return text
	}

	format := c.compiler.opts.EchoFormat
	var b strings.Builder
	last := 0
	for _, m := range echoPattern.FindAllStringSubmatchIndex(text, -1) {
		b.WriteString(text[last:m[0]])
		last = m[1]

		if m[2] != -1 {
			// the '@' may be the tail of a vault key rather than an escape
			if !c.vault.EndsWithKey(text[:m[3]]) {
				b.WriteString(text[m[0]+1 : m[1]])
				continue
			}
			b.WriteByte('@')
		}

		// the host drops the first newline after a closing tag
		newline := ""
		if m[10] != -1 {
			nl := text[m[10]:m[11]]
			newline = nl + nl
		}

		switch {
		case m[4] != -1:
			b.WriteString("<?php echo " + strings.ReplaceAll(format, "%s", text[m[4]:m[5]]) + "; ?>")
		case m[6] != -1:
			b.WriteString("<?php echo " + text[m[6]:m[7]] + "; ?>")
		default:
			b.WriteString("<?php echo " + strings.ReplaceAll(format, "%s", text[m[8]:m[9]]) + "; ?>")
		}
		b.WriteString(newline)
	}
	b.WriteString(text[last:])
	return b.String()
}

func stripComments(text string) string {
	if !strings.Contains(text, "{{--") {
		return text
	}
	return commentPattern.ReplaceAllString(text, "")
}
