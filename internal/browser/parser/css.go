// internal/browser/parser/css.go
package parser

import (
	"strings"
)

// Property is a lowercased CSS property name (e.g. "display").
type Property string

// Value is a raw, trimmed CSS value (e.g. "none").
type Value string

// Declaration is a single property: value pair.
type Declaration struct {
	Property  Property
	Value     Value
	Important bool
}

// RuleSet binds declarations to one or more selector groups.
type RuleSet struct {
	SelectorGroups []SelectorGroup
	Declarations   []Declaration
}

// StyleSheet is an ordered list of rule sets.
type StyleSheet struct {
	Rules []RuleSet
}

// SelectorGroup is a comma-separated list of complex selectors.
type SelectorGroup []ComplexSelector

// ComplexSelector is a chain of compound selectors joined by combinators,
// stored left to right.
type ComplexSelector struct {
	Selectors []SimpleSelectorWithCombinator
}

// SimpleSelectorWithCombinator pairs a compound selector with the combinator
// that links it to the previous one.
type SimpleSelectorWithCombinator struct {
	Combinator     Combinator
	SimpleSelector SimpleSelector
}

// SimpleSelector is a compound selector: tag, id, classes, attributes and
// pseudo-classes that must all match the same element.
type SimpleSelector struct {
	TagName       string
	ID            string
	Classes       []string
	Attributes    []AttributeSelector
	PseudoClasses []string
}

// AttributeSelector is `[name]` or `[name op value]`.
type AttributeSelector struct {
	Name     string
	Operator string
	Value    string
}

type Combinator int

const (
	CombinatorNone Combinator = iota
	CombinatorDescendant
	CombinatorChild
	CombinatorAdjacentSibling
	CombinatorGeneralSibling
)

// CalculateSpecificity sums the (a, b, c) specificity of every compound
// selector in the chain.
func (cs ComplexSelector) CalculateSpecificity() (int, int, int) {
	a, b, c := 0, 0, 0
	for _, s := range cs.Selectors {
		sa, sb, sc := s.SimpleSelector.CalculateSpecificity()
		a, b, c = a+sa, b+sb, c+sc
	}
	return a, b, c
}

func (s SimpleSelector) CalculateSpecificity() (a, b, c int) {
	if s.ID != "" {
		a = 1
	}
	b = len(s.Classes) + len(s.Attributes) + len(s.PseudoClasses)
	if s.TagName != "" && s.TagName != "*" {
		c = 1
	}
	return a, b, c
}

func (s SimpleSelector) IsValid() bool {
	return s.TagName != "" || s.ID != "" || len(s.Classes) > 0 ||
		len(s.Attributes) > 0 || len(s.PseudoClasses) > 0
}

// Parser is a forgiving CSS parser. Malformed rules are skipped rather than
// reported, the way browsers recover.
type Parser struct {
	input string
	pos   int
}

func NewParser(input string) *Parser {
	return &Parser{input: input}
}

// Parse reads the whole input as a stylesheet. At-rules are skipped.
func (p *Parser) Parse() StyleSheet {
	var sheet StyleSheet
	for {
		p.skipTrivia()
		if p.eof() {
			return sheet
		}
		if p.peek() == '@' {
			p.skipAtRule()
			continue
		}
		groups := p.parseSelectorGroups()
		p.skipTrivia()
		if p.peek() != '{' {
			// Garbage before a block: drop through to the next block.
			p.skipUntil('{')
			if p.eof() {
				return sheet
			}
			p.skipBlock()
			continue
		}
		p.pos++
		decls := p.parseDeclarationList('}')
		if len(groups) > 0 && len(decls) > 0 {
			sheet.Rules = append(sheet.Rules, RuleSet{SelectorGroups: groups, Declarations: decls})
		}
	}
}

// ParseInline parses the body of a style attribute.
func ParseInline(style string) []Declaration {
	p := NewParser(style)
	return p.parseDeclarationList(0)
}

func (p *Parser) parseSelectorGroups() []SelectorGroup {
	var group SelectorGroup
	for {
		p.skipTrivia()
		if p.eof() || p.peek() == '{' {
			break
		}
		complex, ok := p.parseComplexSelector()
		if !ok {
			// One bad selector invalidates the whole list.
			p.skipUntil('{')
			return nil
		}
		group = append(group, complex)
		p.skipTrivia()
		if p.peek() == ',' {
			p.pos++
			continue
		}
		break
	}
	if len(group) == 0 {
		return nil
	}
	return []SelectorGroup{group}
}

func (p *Parser) parseComplexSelector() (ComplexSelector, bool) {
	var cs ComplexSelector
	comb := CombinatorNone
	for {
		sawSpace := p.skipTrivia()
		if p.eof() || p.peek() == '{' || p.peek() == ',' {
			break
		}
		switch p.peek() {
		case '>':
			comb = CombinatorChild
			p.pos++
			continue
		case '+':
			comb = CombinatorAdjacentSibling
			p.pos++
			continue
		case '~':
			comb = CombinatorGeneralSibling
			p.pos++
			continue
		}
		if sawSpace && len(cs.Selectors) > 0 && comb == CombinatorNone {
			comb = CombinatorDescendant
		}
		simple, ok := p.parseSimpleSelector()
		if !ok {
			return cs, false
		}
		if len(cs.Selectors) > 0 && comb == CombinatorNone {
			comb = CombinatorDescendant
		}
		cs.Selectors = append(cs.Selectors, SimpleSelectorWithCombinator{Combinator: comb, SimpleSelector: simple})
		comb = CombinatorNone
	}
	return cs, len(cs.Selectors) > 0 && comb == CombinatorNone
}

func (p *Parser) parseSimpleSelector() (SimpleSelector, bool) {
	var sel SimpleSelector
	if p.peek() == '*' {
		p.pos++
		sel.TagName = "*"
	} else if isIdentStart(p.peek()) {
		sel.TagName = strings.ToLower(p.ident())
	}
	for !p.eof() {
		switch p.peek() {
		case '#':
			p.pos++
			sel.ID = p.ident()
		case '.':
			p.pos++
			sel.Classes = append(sel.Classes, p.ident())
		case '[':
			p.pos++
			attr, ok := p.parseAttributeSelector()
			if !ok {
				return sel, false
			}
			sel.Attributes = append(sel.Attributes, attr)
		case ':':
			p.pos++
			if p.peek() == ':' {
				// Pseudo-elements never match a real node.
				return sel, false
			}
			name := strings.ToLower(p.ident())
			if p.peek() == '(' {
				start := p.pos
				p.skipParens()
				name += p.input[start:p.pos]
			}
			sel.PseudoClasses = append(sel.PseudoClasses, name)
		default:
			return sel, sel.IsValid()
		}
	}
	return sel, sel.IsValid()
}

func (p *Parser) parseAttributeSelector() (AttributeSelector, bool) {
	p.skipTrivia()
	attr := AttributeSelector{Name: strings.ToLower(p.ident())}
	p.skipTrivia()
	if p.peek() == ']' {
		p.pos++
		return attr, attr.Name != ""
	}
	switch c := p.peek(); c {
	case '=':
		attr.Operator = "="
		p.pos++
	case '~', '|', '^', '$', '*':
		if p.pos+1 < len(p.input) && p.input[p.pos+1] == '=' {
			attr.Operator = string(c) + "="
			p.pos += 2
		} else {
			return attr, false
		}
	default:
		return attr, false
	}
	p.skipTrivia()
	if q := p.peek(); q == '"' || q == '\'' {
		attr.Value = p.quoted(q)
	} else {
		attr.Value = p.ident()
	}
	p.skipTrivia()
	if p.peek() != ']' {
		return attr, false
	}
	p.pos++
	return attr, attr.Name != ""
}

// parseDeclarationList reads declarations until the closing byte (consumed)
// or EOF when closing is zero.
func (p *Parser) parseDeclarationList(closing byte) []Declaration {
	var decls []Declaration
	for {
		p.skipTrivia()
		if p.eof() {
			return decls
		}
		if closing != 0 && p.peek() == closing {
			p.pos++
			return decls
		}
		if p.peek() == ';' {
			p.pos++
			continue
		}
		if d, ok := p.parseDeclaration(closing); ok {
			decls = append(decls, d)
		}
	}
}

func (p *Parser) parseDeclaration(closing byte) (Declaration, bool) {
	name := p.ident()
	p.skipTrivia()
	if name == "" || p.peek() != ':' {
		p.skipValue(closing)
		return Declaration{}, false
	}
	p.pos++
	start := p.pos
	p.skipValue(closing)
	raw := strings.TrimSpace(p.input[start:p.pos])
	if p.peek() == ';' {
		p.pos++
	}
	d := Declaration{Property: Property(strings.ToLower(name))}
	if i := strings.LastIndex(raw, "!"); i >= 0 && strings.EqualFold(strings.TrimSpace(raw[i+1:]), "important") {
		d.Important = true
		raw = strings.TrimSpace(raw[:i])
	}
	d.Value = Value(raw)
	return d, raw != ""
}

// skipValue advances to the next top-level ';' or the closing byte.
func (p *Parser) skipValue(closing byte) {
	for !p.eof() {
		c := p.peek()
		switch {
		case c == ';' || (closing != 0 && c == closing):
			return
		case c == '"' || c == '\'':
			p.quoted(c)
		case c == '(':
			p.skipParens()
		default:
			p.pos++
		}
	}
}

func (p *Parser) eof() bool { return p.pos >= len(p.input) }

func (p *Parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.input[p.pos]
}

// skipTrivia consumes whitespace and comments and reports whether anything
// was consumed.
func (p *Parser) skipTrivia() bool {
	start := p.pos
	for !p.eof() {
		switch {
		case isSpace(p.peek()):
			p.pos++
		case strings.HasPrefix(p.input[p.pos:], "/*"):
			end := strings.Index(p.input[p.pos+2:], "*/")
			if end < 0 {
				p.pos = len(p.input)
			} else {
				p.pos += end + 4
			}
		default:
			return p.pos > start
		}
	}
	return p.pos > start
}

func (p *Parser) skipUntil(b byte) {
	for !p.eof() && p.peek() != b {
		p.pos++
	}
}

// skipBlock consumes a {...} block starting at the current '{'.
func (p *Parser) skipBlock() {
	depth := 0
	for !p.eof() {
		c := p.peek()
		p.pos++
		switch c {
		case '{':
			depth++
		case '}':
			depth--
			if depth <= 0 {
				return
			}
		}
	}
}

func (p *Parser) skipParens() {
	depth := 0
	for !p.eof() {
		c := p.peek()
		p.pos++
		switch c {
		case '(':
			depth++
		case ')':
			depth--
			if depth <= 0 {
				return
			}
		}
	}
}

func (p *Parser) skipAtRule() {
	for !p.eof() {
		switch p.peek() {
		case ';':
			p.pos++
			return
		case '{':
			p.skipBlock()
			return
		}
		p.pos++
	}
}

// quoted consumes a quoted string and returns its unescaped contents.
func (p *Parser) quoted(q byte) string {
	p.pos++
	var b strings.Builder
	for !p.eof() {
		c := p.peek()
		p.pos++
		if c == '\\' && !p.eof() {
			b.WriteByte(p.peek())
			p.pos++
			continue
		}
		if c == q {
			break
		}
		b.WriteByte(c)
	}
	return b.String()
}

func (p *Parser) ident() string {
	start := p.pos
	for !p.eof() && isIdentChar(p.peek()) {
		p.pos++
	}
	return p.input[start:p.pos]
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func isIdentStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_' || c == '-'
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
