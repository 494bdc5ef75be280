package blade

import (
	"regexp"
	"sort"
	"strings"
)

// Attribute is one parsed tag attribute. Value holds the unquoted text for
// static attributes and the host expression for dynamic ones.
type Attribute struct {
	Name    string
	Value   string
	Dynamic bool
	Boolean bool
}

// Expression renders the attribute value as host code.
func (a Attribute) Expression() string {
	switch {
	case a.Dynamic:
		return a.Value
	case a.Boolean:
		return "true"
	default:
		return attributeLiteral(a.Value)
	}
}

// Attributes is an ordered attribute set. Setting an existing name replaces
// its value but keeps its position.
type Attributes struct {
	items []Attribute
	index map[string]int
}

func newAttributes() *Attributes {
	return &Attributes{index: make(map[string]int)}
}

func (a *Attributes) Set(attr Attribute) {
	if i, ok := a.index[attr.Name]; ok {
		a.items[i] = attr
		return
	}
	a.index[attr.Name] = len(a.items)
	a.items = append(a.items, attr)
}

func (a *Attributes) Get(name string) (Attribute, bool) {
	i, ok := a.index[name]
	if !ok {
		return Attribute{}, false
	}
	return a.items[i], true
}

func (a *Attributes) Delete(name string) {
	i, ok := a.index[name]
	if !ok {
		return
	}
	a.items = append(a.items[:i], a.items[i+1:]...)
	delete(a.index, name)
	for j := i; j < len(a.items); j++ {
		a.index[a.items[j].Name] = j
	}
}

func (a *Attributes) Len() int { return len(a.items) }

// All returns the attributes in first-seen order.
func (a *Attributes) All() []Attribute {
	out := make([]Attribute, len(a.items))
	copy(out, a.items)
	return out
}

// DynamicNames lists, sorted, the attribute names bound with ':'.
func (a *Attributes) DynamicNames() []string {
	var names []string
	for _, attr := range a.items {
		if attr.Dynamic {
			names = append(names, attr.Name)
		}
	}
	sort.Strings(names)
	return names
}

// PHP renders the set as a host array literal.
func (a *Attributes) PHP() string {
	parts := make([]string, 0, len(a.items))
	for _, attr := range a.items {
		parts = append(parts, quoteLiteral(attr.Name)+" => "+attr.Expression())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// ParseAttributes tokenizes the attribute text of a component tag.
func ParseAttributes(text string) *Attributes {
	attrs := newAttributes()
	n := len(text)
	i := 0

	for i < n {
		for i < n && isSpace(text[i]) {
			i++
		}
		if i >= n {
			break
		}

		dynamic := false
		if text[i] == ':' {
			dynamic = true
			i++
		}

		start := i
		for i < n && isAttributeNameByte(text[i]) {
			i++
		}
		name := text[start:i]
		if strings.HasPrefix(name, "$") {
			name = name[1:]
			dynamic = true
		}
		if name == "" {
			// stray byte such as a lone quote or '='
			if i == start {
				i++
			}
			continue
		}

		if i < n && text[i] == '=' {
			value, end, quote := parseAttributeValue(text, i+1)
			i = end
			if !dynamic && quote != 0 {
				value = strings.ReplaceAll(value, `\`+string(quote), string(quote))
			}
			attrs.Set(Attribute{Name: name, Value: value, Dynamic: dynamic})
			continue
		}

		if dynamic {
			attrs.Set(Attribute{Name: name, Value: "$" + camelVariable(name), Dynamic: true, Boolean: true})
		} else {
			attrs.Set(Attribute{Name: name, Value: "true", Boolean: true})
		}
	}
	return attrs
}

// parseAttributeValue returns the value starting at i, the offset after it
// and the quote that delimited it, if any.
func parseAttributeValue(text string, i int) (string, int, byte) {
	n := len(text)
	if i >= n {
		return "", i, 0
	}

	if text[i] == '"' || text[i] == '\'' {
		quote := text[i]
		if end, ok := scanQuotedValue(text, i+1, quote, true); ok {
			return text[i+1 : end], end + 1, quote
		}
		// unbalanced brackets inside the value: fall back to the first
		// unescaped closing quote
		if end, ok := scanQuotedValue(text, i+1, quote, false); ok {
			return text[i+1 : end], end + 1, quote
		}
		return text[i+1:], n, quote
	}

	c := cursor{src: text, pos: i}
	depth := 0
	for !c.done() {
		if ch := c.peek(); isSpace(ch) && depth == 0 && !c.inString() && !c.escaped {
			break
		}
		ch, significant := c.next()
		if !significant {
			continue
		}
		switch ch {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			if depth > 0 {
				depth--
			}
		}
	}
	return text[i:c.pos], c.pos, 0
}

// scanQuotedValue finds the closing quote of a value starting at i. With
// nested set, quotes inside (), [] or {} open inner strings instead of
// closing the value.
func scanQuotedValue(text string, i int, quote byte, nested bool) (int, bool) {
	depth := 0
	var inner byte
	for i < len(text) {
		ch := text[i]
		switch {
		case ch == '\\':
			i += 2
			continue
		case inner != 0:
			if ch == inner {
				inner = 0
			}
		case ch == quote && depth == 0:
			return i, true
		case !nested:
		case ch == '(' || ch == '[' || ch == '{':
			depth++
		case ch == ')' || ch == ']' || ch == '}':
			if depth > 0 {
				depth--
			}
		case (ch == '\'' || ch == '"') && depth > 0:
			inner = ch
		}
		i++
	}
	return 0, false
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\f'
}

func isAttributeNameByte(ch byte) bool {
	return isAlnum(ch) || strings.IndexByte("-_.:@$", ch) >= 0
}

func isAlnum(ch byte) bool {
	return ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch >= '0' && ch <= '9'
}

// camelVariable turns an attribute name like "user-id" into "userId".
func camelVariable(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool { return r == '-' || r == '_' || r == '.' })
	for i := 1; i < len(parts); i++ {
		parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
	}
	return strings.Join(parts, "")
}

var attributeEchoPattern = regexp.MustCompile(`(?s)\{\{\s*(.+?)\s*\}\}`)

// attributeLiteral quotes a static value, turning embedded echoes into
// escaped concatenations.
func attributeLiteral(value string) string {
	if !strings.Contains(value, "{{") {
		return quoteLiteral(value)
	}

	var b strings.Builder
	last := 0
	for _, m := range attributeEchoPattern.FindAllStringSubmatchIndex(value, -1) {
		b.WriteString(quoteLiteral(value[last:m[0]]))
		b.WriteString(".e(")
		b.WriteString(value[m[2]:m[3]])
		b.WriteString(").")
		last = m[1]
	}
	b.WriteString(quoteLiteral(value[last:]))
	return b.String()
}

// quoteLiteral renders s as a single-quoted host string.
func quoteLiteral(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}
