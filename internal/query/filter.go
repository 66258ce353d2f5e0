package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"showcase/internal/models"
)

// Comparison and function operators accepted in $filter.
const (
	OpEq         = "eq"
	OpNe         = "ne"
	OpGt         = "gt"
	OpGe         = "ge"
	OpLt         = "lt"
	OpLe         = "le"
	OpContains   = "contains"
	OpStartsWith = "startswith"
)

var sqlOperators = map[string]string{
	OpEq: "=",
	OpNe: "<>",
	OpGt: ">",
	OpGe: ">=",
	OpLt: "<",
	OpLe: "<=",
}

// Clause is a single "field op value" condition. Clauses are joined with AND.
type Clause struct {
	Field string
	Op    string
	Value any
}

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokString
	tokNumber
	tokLParen
	tokRParen
	tokComma
)

type token struct {
	kind tokenKind
	text string
}

// ParseFilter parses a $filter expression such as
// "likes ge 3 and contains(title,'go')".
func ParseFilter(raw string) ([]Clause, error) {
	tokens, err := tokenize(raw)
	if err != nil {
		return nil, err
	}

	p := &filterParser{tokens: tokens}
	var clauses []Clause
	for {
		clause, err := p.clause()
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, clause)

		if p.done() {
			return clauses, nil
		}
		next := p.next()
		if next.kind != tokIdent || !strings.EqualFold(next.text, "and") {
			return nil, filterError("expected 'and' but found %q", next.text)
		}
	}
}

func filterError(format string, args ...any) error {
	return models.NewQueryValidationError("Invalid $filter: " + fmt.Sprintf(format, args...))
}

type filterParser struct {
	tokens []token
	pos    int
}

func (p *filterParser) done() bool { return p.pos >= len(p.tokens) }

func (p *filterParser) next() token {
	if p.done() {
		return token{kind: -1, text: "end of input"}
	}
	t := p.tokens[p.pos]
	p.pos++
	return t
}

func (p *filterParser) expect(kind tokenKind, what string) (token, error) {
	t := p.next()
	if t.kind != kind {
		return t, filterError("expected %s but found %q", what, t.text)
	}
	return t, nil
}

func (p *filterParser) clause() (Clause, error) {
	head, err := p.expect(tokIdent, "field or function")
	if err != nil {
		return Clause{}, err
	}

	fn := strings.ToLower(head.text)
	if fn == OpContains || fn == OpStartsWith {
		if _, err := p.expect(tokLParen, "'('"); err != nil {
			return Clause{}, err
		}
		name, err := p.expect(tokIdent, "field")
		if err != nil {
			return Clause{}, err
		}
		if _, err := p.expect(tokComma, "','"); err != nil {
			return Clause{}, err
		}
		lit, err := p.expect(tokString, "quoted text")
		if err != nil {
			return Clause{}, err
		}
		if _, err := p.expect(tokRParen, "')'"); err != nil {
			return Clause{}, err
		}
		return bind(name.text, fn, lit)
	}

	op, err := p.expect(tokIdent, "operator")
	if err != nil {
		return Clause{}, err
	}
	lit := p.next()
	return bind(head.text, strings.ToLower(op.text), lit)
}

// bind checks the clause against the field whitelist and converts the literal.
func bind(name, op string, lit token) (Clause, error) {
	field, ok := lookup(name)
	if !ok || !field.Filterable {
		return Clause{}, filterError("cannot filter on %s", name)
	}
	if _, known := sqlOperators[op]; !known && op != OpContains && op != OpStartsWith {
		return Clause{}, filterError("unknown operator %s", op)
	}

	clause := Clause{Field: field.Name, Op: op}
	switch field.Kind {
	case kindInt:
		if lit.kind != tokNumber || op == OpContains || op == OpStartsWith {
			return Clause{}, filterError("%s expects an integer comparison", field.Name)
		}
		n, err := strconv.ParseInt(lit.text, 10, 64)
		if err != nil {
			return Clause{}, filterError("invalid integer %q", lit.text)
		}
		clause.Value = n
	case kindString:
		if lit.kind != tokString {
			return Clause{}, filterError("%s expects quoted text", field.Name)
		}
		clause.Value = lit.text
	case kindTime:
		if lit.kind != tokString || op == OpContains || op == OpStartsWith {
			return Clause{}, filterError("%s expects a quoted date", field.Name)
		}
		ts, err := parseTime(lit.text)
		if err != nil {
			return Clause{}, filterError("invalid date %q", lit.text)
		}
		clause.Value = ts
	case kindTag:
		if lit.kind != tokString || (op != OpEq && op != OpContains) {
			return Clause{}, filterError("tag supports only eq and contains with quoted text")
		}
		clause.Value = strings.ToLower(lit.text)
	}
	return clause, nil
}

func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	return time.Parse(time.DateOnly, s)
}

func tokenize(raw string) ([]token, error) {
	var tokens []token
	runes := []rune(raw)
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(':
			tokens = append(tokens, token{kind: tokLParen, text: "("})
			i++
		case r == ')':
			tokens = append(tokens, token{kind: tokRParen, text: ")"})
			i++
		case r == ',':
			tokens = append(tokens, token{kind: tokComma, text: ","})
			i++
		case r == '\'':
			// '' inside a literal is an escaped quote.
			var b strings.Builder
			i++
			closed := false
			for i < len(runes) {
				if runes[i] == '\'' {
					if i+1 < len(runes) && runes[i+1] == '\'' {
						b.WriteRune('\'')
						i += 2
						continue
					}
					closed = true
					i++
					break
				}
				b.WriteRune(runes[i])
				i++
			}
			if !closed {
				return nil, filterError("unterminated string literal")
			}
			tokens = append(tokens, token{kind: tokString, text: b.String()})
		case r == '-' || unicode.IsDigit(r):
			start := i
			i++
			for i < len(runes) && unicode.IsDigit(runes[i]) {
				i++
			}
			tokens = append(tokens, token{kind: tokNumber, text: string(runes[start:i])})
		case unicode.IsLetter(r) || r == '_':
			start := i
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '_') {
				i++
			}
			tokens = append(tokens, token{kind: tokIdent, text: string(runes[start:i])})
		default:
			return nil, filterError("unexpected character %q", r)
		}
	}
	if len(tokens) == 0 {
		return nil, filterError("empty expression")
	}
	return tokens, nil
}
