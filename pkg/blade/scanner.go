package blade

import "strings"

// cursor walks a string byte by byte, keeping quote and escape state so
// delimiters inside string literals are not mistaken for structure.
type cursor struct {
	src     string
	pos     int
	quote   byte // active quote character, 0 outside strings
	escaped bool
}

func (c *cursor) done() bool { return c.pos >= len(c.src) }

func (c *cursor) peek() byte {
	if c.done() {
		return 0
	}
	return c.src[c.pos]
}

// inString reports whether the byte just consumed was part of a string
// literal (including its delimiters).
func (c *cursor) inString() bool { return c.quote != 0 }

// next consumes one byte and updates quote/escape state. It reports whether
// the byte is significant, i.e. outside any quoted string and not escaped.
func (c *cursor) next() (byte, bool) {
	ch := c.src[c.pos]
	c.pos++

	if c.escaped {
		c.escaped = false
		return ch, false
	}
	if ch == '\\' {
		c.escaped = true
		return ch, false
	}
	if c.quote != 0 {
		if ch == c.quote {
			c.quote = 0
		}
		return ch, false
	}
	if ch == '"' || ch == '\'' {
		c.quote = ch
		return ch, false
	}
	return ch, true
}

// ExtractBalanced returns the text between text[open], which must be '(',
// and its matching ')', along with the index just past the closing paren.
func ExtractBalanced(text string, open int) (string, int, error) {
	if open < 0 || open >= len(text) || text[open] != '(' {
		return "", open, unbalanced(open)
	}

	c := cursor{src: text, pos: open + 1}
	depth := 1
	for !c.done() {
		ch, significant := c.next()
		if !significant {
			continue
		}
		switch ch {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return text[open+1 : c.pos-1], c.pos, nil
			}
		}
	}
	return "", open, unbalanced(open)
}

// SplitArguments splits an argument list on commas that sit outside strings
// and outside (), [] and {}. Each part is trimmed.
func SplitArguments(expr string) []string {
	if strings.TrimSpace(expr) == "" {
		return nil
	}

	var args []string
	c := cursor{src: expr}
	depth := 0
	last := 0
	for !c.done() {
		ch, significant := c.next()
		if !significant {
			continue
		}
		switch ch {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(expr[last:c.pos-1]))
				last = c.pos
			}
		}
	}
	return append(args, strings.TrimSpace(expr[last:]))
}

// stripQuotes removes one pair of matching surrounding quotes.
func stripQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
