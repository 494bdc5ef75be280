package blade

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

const componentPrefix = "<x-"

// componentTag is one parsed opening tag.
type componentTag struct {
	name        string
	attrs       string
	start       int // index of '<'
	end         int // index just past '>'
	selfClosing bool
}

// Component is a resolved occurrence, consumed right away into a fragment.
type Component struct {
	Name        string
	Attributes  *Attributes
	Slot        string
	NamedSlots  []NamedSlot
	SelfClosing bool
}

// NamedSlot is an <x-slot name="..."> region of a component body.
type NamedSlot struct {
	Name    string
	Content string
}

// compileComponentTags replaces <x-name> tags with component calls, innermost
// first, until no further tag can be rewritten.
func (c *compilation) compileComponentTags(text string) (string, error) {
	if !strings.Contains(text, componentPrefix) {
		return text, nil
	}

	for {
		out, changed, err := c.componentSweep(text, true)
		if err != nil {
			return "", err
		}
		if changed == 0 {
			// only deferred outer tags are left; their inner tags can never
			// resolve, so compile them as they are
			out, changed, err = c.componentSweep(text, false)
			if err != nil {
				return "", err
			}
		}
		text = out
		if changed == 0 {
			return text, nil
		}
	}
}

// componentSweep does one self-closing pass and one content-bearing pass.
// With deferNested set, a tag whose body still holds component tags is left
// for a later sweep so the inner tags resolve first.
func (c *compilation) componentSweep(text string, deferNested bool) (string, int, error) {
	text, selfClosed := c.replaceSelfClosing(text)

	var b strings.Builder
	changed := selfClosed
	pos := 0
	for {
		idx := strings.Index(text[pos:], componentPrefix)
		if idx == -1 {
			b.WriteString(text[pos:])
			break
		}
		start := pos + idx
		b.WriteString(text[pos:start])

		tag, ok := readComponentTag(text, start)
		if !ok || isSlotTag(tag.name) {
			b.WriteString(componentPrefix)
			pos = start + len(componentPrefix)
			continue
		}

		if tag.selfClosing {
			b.WriteString(c.componentFragment(Component{Name: tag.name, Attributes: ParseAttributes(tag.attrs), SelfClosing: true}))
			pos = tag.end
			changed++
			continue
		}

		closeStart, closeEnd, found := findClosingTag(text, tag.end, tag.name)
		if !found {
			if err := c.unmatchedComponent(tag); err != nil {
				return "", 0, err
			}
			b.WriteString(componentPrefix)
			pos = start + len(componentPrefix)
			continue
		}

		body := text[tag.end:closeStart]
		if deferNested && containsComponentTag(body) {
			b.WriteString(text[start:tag.end])
			pos = tag.end
			continue
		}

		slot, named := extractNamedSlots(body)
		b.WriteString(c.componentFragment(Component{
			Name:       tag.name,
			Attributes: ParseAttributes(tag.attrs),
			Slot:       slot,
			NamedSlots: named,
		}))
		pos = closeEnd
		changed++
	}
	return b.String(), changed, nil
}

// replaceSelfClosing rewrites every "<x-name ... />" in one left-to-right pass.
func (c *compilation) replaceSelfClosing(text string) (string, int) {
	var b strings.Builder
	changed := 0
	pos := 0
	for {
		idx := strings.Index(text[pos:], componentPrefix)
		if idx == -1 {
			b.WriteString(text[pos:])
			break
		}
		start := pos + idx
		b.WriteString(text[pos:start])

		tag, ok := readComponentTag(text, start)
		if !ok || !tag.selfClosing || isSlotTag(tag.name) {
			b.WriteString(componentPrefix)
			pos = start + len(componentPrefix)
			continue
		}
		b.WriteString(c.componentFragment(Component{Name: tag.name, Attributes: ParseAttributes(tag.attrs), SelfClosing: true}))
		pos = tag.end
		changed++
	}
	return b.String(), changed
}

func (c *compilation) unmatchedComponent(tag componentTag) error {
	if c.compiler.opts.StrictComponents {
		return &Diagnostic{
			Kind:    KindUnmatchedComponentTag,
			Message: fmt.Sprintf("no closing tag for <x-%s>", tag.name),
			Offset:  tag.start,
		}
	}
	c.warn(fmt.Sprintf("no closing tag for <x-%s>, left unexpanded", tag.name), "component", tag.name)
	return nil
}

// readComponentTag parses the opening tag starting at text[start] ("<x-").
func readComponentTag(text string, start int) (componentTag, bool) {
	i := start + len(componentPrefix)
	nameStart := i
	for i < len(text) && isTagNameByte(text[i]) {
		i++
	}
	if i == nameStart {
		return componentTag{}, false
	}
	tag := componentTag{name: text[nameStart:i], start: start}

	gt, ok := findTagEnd(text, i)
	if !ok {
		return componentTag{}, false
	}

	attrs := strings.TrimSpace(text[i:gt])
	if strings.HasSuffix(attrs, "/") {
		tag.selfClosing = true
		attrs = strings.TrimSpace(strings.TrimSuffix(attrs, "/"))
	}
	tag.attrs = attrs
	tag.end = gt + 1
	return tag, true
}

// findTagEnd returns the index of the '>' closing an opening tag, skipping
// quoted values and anything nested in (), [] or {}.
func findTagEnd(text string, from int) (int, bool) {
	c := cursor{src: text, pos: from}
	depth := 0
	for !c.done() {
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
		case '>':
			if depth == 0 {
				return c.pos - 1, true
			}
		}
	}
	return 0, false
}

// findClosingTag pairs the tag opened before from with its closing tag,
// counting nested opening tags of the same name. It returns the span of the
// closing tag.
func findClosingTag(text string, from int, name string) (int, int, bool) {
	open := componentPrefix + name
	closing := "</x-" + name
	depth := 1
	pos := from
	for pos < len(text) {
		switch {
		case strings.HasPrefix(text[pos:], open) && tagBoundary(text, pos+len(open), true):
			tag, ok := readComponentTag(text, pos)
			if !ok {
				pos += len(open)
				continue
			}
			if !tag.selfClosing {
				depth++
			}
			pos = tag.end
		case strings.HasPrefix(text[pos:], closing) && tagBoundary(text, pos+len(closing), false):
			gt := strings.IndexByte(text[pos:], '>')
			if gt == -1 {
				return 0, 0, false
			}
			depth--
			if depth == 0 {
				return pos, pos + gt + 1, true
			}
			pos += gt + 1
		default:
			pos++
		}
	}
	return 0, 0, false
}

// tagBoundary guards against a tag name that is a prefix of another
// (<x-card> vs <x-card-header>).
func tagBoundary(text string, i int, opening bool) bool {
	if i >= len(text) {
		return false
	}
	ch := text[i]
	if isSpace(ch) || ch == '>' {
		return true
	}
	return opening && ch == '/'
}

func isTagNameByte(ch byte) bool {
	return isAlnum(ch) || ch == '-' || ch == '_' || ch == '.' || ch == ':'
}

func isSlotTag(name string) bool {
	return name == "slot" || strings.HasPrefix(name, "slot:")
}

// containsComponentTag reports whether s still holds an unresolved component
// tag other than <x-slot>.
func containsComponentTag(s string) bool {
	pos := 0
	for {
		idx := strings.Index(s[pos:], componentPrefix)
		if idx == -1 {
			return false
		}
		start := pos + idx
		if tag, ok := readComponentTag(s, start); ok && !isSlotTag(tag.name) {
			return true
		}
		pos = start + len(componentPrefix)
	}
}

// extractNamedSlots pulls top-level <x-slot> regions out of a component body
// and returns the remaining default slot content.
func extractNamedSlots(body string) (string, []NamedSlot) {
	if !strings.Contains(body, "<x-slot") {
		return body, nil
	}

	var (
		b     strings.Builder
		named []NamedSlot
		pos   int
	)
	for {
		idx := strings.Index(body[pos:], "<x-slot")
		if idx == -1 {
			b.WriteString(body[pos:])
			break
		}
		start := pos + idx
		tag, ok := readComponentTag(body, start)
		if !ok || !isSlotTag(tag.name) {
			b.WriteString(body[pos : start+len("<x-slot")])
			pos = start + len("<x-slot")
			continue
		}

		name := strings.TrimPrefix(strings.TrimPrefix(tag.name, "slot"), ":")
		if name == "" {
			if attr, ok := ParseAttributes(tag.attrs).Get("name"); ok {
				name = attr.Value
			}
		}

		if tag.selfClosing {
			b.WriteString(body[pos:start])
			if name != "" {
				named = append(named, NamedSlot{Name: name})
			}
			pos = tag.end
			continue
		}

		closeStart, closeEnd, found := findSlotClose(body, tag.end)
		if !found || name == "" {
			b.WriteString(body[pos:tag.end])
			pos = tag.end
			continue
		}
		b.WriteString(body[pos:start])
		named = append(named, NamedSlot{Name: name, Content: body[tag.end:closeStart]})
		pos = closeEnd
	}
	return b.String(), named
}

func findSlotClose(body string, from int) (int, int, bool) {
	depth := 1
	pos := from
	for pos < len(body) {
		switch {
		case strings.HasPrefix(body[pos:], "<x-slot"):
			tag, ok := readComponentTag(body, pos)
			if ok && isSlotTag(tag.name) && !tag.selfClosing {
				depth++
				pos = tag.end
				continue
			}
			pos++
		case strings.HasPrefix(body[pos:], "</x-slot"):
			gt := strings.IndexByte(body[pos:], '>')
			if gt == -1 {
				return 0, 0, false
			}
			depth--
			if depth == 0 {
				return pos, pos + gt + 1, true
			}
			pos += gt + 1
		default:
			pos++
		}
	}
	return 0, 0, false
}

// isStaticContent reports whether slot content can be embedded as a literal:
// no host code, no echoes, no directives and no tags left to resolve.
func isStaticContent(s string) bool {
	if strings.Contains(s, "<?") || strings.Contains(s, "{{") || strings.Contains(s, "{!!") {
		return false
	}
	if strings.Contains(s, componentPrefix) || strings.Contains(s, "</x-") {
		return false
	}
	for i := 0; i < len(s)-1; i++ {
		if s[i] == '@' && isWordByte(s[i+1]) && (i == 0 || !isWordByte(s[i-1])) {
			return false
		}
	}
	return true
}

// componentFragment renders a component occurrence into a host call.
func (c *compilation) componentFragment(comp Component) string {
	var prelude strings.Builder
	entries := make([]string, 0, comp.Attributes.Len()+len(comp.NamedSlots)+1)
	for _, attr := range comp.Attributes.All() {
		if attr.Name == "slot" {
			continue
		}
		entries = append(entries, quoteLiteral(attr.Name)+" => "+attr.Expression())
	}

	for _, ns := range comp.NamedSlots {
		entries = append(entries, quoteLiteral(ns.Name)+" => "+c.slotValue(ns.Content, &prelude))
	}
	if strings.TrimSpace(comp.Slot) != "" {
		entries = append(entries, "'slot' => "+c.slotValue(comp.Slot, &prelude))
	}

	slog.Debug("Compiling component tag", "component", comp.Name, "attributes", comp.Attributes.Len(), "dynamic", comp.Attributes.DynamicNames())

	return prelude.String() + "<?php echo $__env->component(" + quoteLiteral(comp.Name) + ", [" + strings.Join(entries, ", ") + "]); ?>"
}

// slotValue returns the expression passed for a slot. Dynamic content is
// captured by an output-buffered closure declared in prelude.
func (c *compilation) slotValue(content string, prelude *strings.Builder) string {
	if isStaticContent(content) {
		return quoteLiteral(strings.Join(strings.Fields(content), " "))
	}

	c.slotSeq++
	fn := "$__slot" + strconv.Itoa(c.slotSeq)
	scope := "$__slotScope" + strconv.Itoa(c.slotSeq)
	prelude.WriteString("<?php " + scope + " = get_defined_vars(); " + fn + " = function () use (" + scope + ") { extract(" + scope + ", EXTR_SKIP); ob_start(); ?>")
	prelude.WriteString(content)
	prelude.WriteString("<?php return ob_get_clean(); }; ?>")
	return fn + "()"
}
