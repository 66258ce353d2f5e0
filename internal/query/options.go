// Package query turns the search directives of a request into a bounded,
// whitelisted set of options and applies them to a GORM query.
package query

import (
	"fmt"
	"strconv"
	"strings"

	"showcase/internal/models"
)

const (
	// DefaultTop is the page size used when $top is absent.
	DefaultTop = 8
	// MaxTop is the largest page size ever returned.
	MaxTop = 64
)

// Directive names accepted on the query string.
const (
	DirectiveFilter  = "$filter"
	DirectiveOrderBy = "$orderby"
	DirectiveSkip    = "$skip"
	DirectiveTop     = "$top"
	DirectiveSelect  = "$select"
	DirectiveCount   = "$count"
)

var allowedDirectives = map[string]bool{
	DirectiveFilter:  true,
	DirectiveOrderBy: true,
	DirectiveSkip:    true,
	DirectiveTop:     true,
	DirectiveSelect:  true,
	DirectiveCount:   true,
}

// Order is a single sort key.
type Order struct {
	Field string
	Desc  bool
}

// Options is the validated form of the search directives.
type Options struct {
	Filters []Clause
	OrderBy []Order
	Skip    int
	Top     int
	Select  []string
	Count   bool
}

// Parse validates the raw query parameters. Parameters that do not start
// with '$' are ignored; unknown directives are rejected.
func Parse(params map[string]string) (Options, error) {
	opts := Options{
		Top:     DefaultTop,
		OrderBy: []Order{{Field: "createdOn", Desc: true}},
	}

	// Directive names are case-insensitive, so $top and $TOP name the same one.
	directives := make(map[string]string, len(params))
	for key, value := range params {
		if !strings.HasPrefix(key, "$") {
			continue
		}
		name := strings.ToLower(key)
		if !allowedDirectives[name] {
			return Options{}, models.NewQueryValidationError(fmt.Sprintf("Query directive %s is not allowed", key))
		}
		if _, dup := directives[name]; dup {
			return Options{}, models.NewQueryValidationError(fmt.Sprintf("Query directive %s is given more than once", name))
		}
		directives[name] = strings.TrimSpace(value)
	}

	get := func(name string) (string, bool) {
		value, ok := directives[name]
		return value, ok
	}

	if raw, ok := get(DirectiveTop); ok {
		top, err := parseNonNegative(DirectiveTop, raw)
		if err != nil {
			return Options{}, err
		}
		opts.Top = min(top, MaxTop)
	}

	if raw, ok := get(DirectiveSkip); ok {
		skip, err := parseNonNegative(DirectiveSkip, raw)
		if err != nil {
			return Options{}, err
		}
		opts.Skip = skip
	}

	if raw, ok := get(DirectiveCount); ok {
		switch strings.ToLower(raw) {
		case "true":
			opts.Count = true
		case "false":
			opts.Count = false
		default:
			return Options{}, models.NewQueryValidationError("$count must be true or false")
		}
	}

	if raw, ok := get(DirectiveOrderBy); ok && raw != "" {
		orders, err := parseOrderBy(raw)
		if err != nil {
			return Options{}, err
		}
		opts.OrderBy = orders
	}

	if raw, ok := get(DirectiveSelect); ok && raw != "" {
		selected, err := parseSelect(raw)
		if err != nil {
			return Options{}, err
		}
		opts.Select = selected
	}

	if raw, ok := get(DirectiveFilter); ok && raw != "" {
		clauses, err := ParseFilter(raw)
		if err != nil {
			return Options{}, err
		}
		opts.Filters = clauses
	}

	return opts, nil
}

func parseNonNegative(name, raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, models.NewQueryValidationError(fmt.Sprintf("%s must be a non-negative integer", name))
	}
	return n, nil
}

func parseOrderBy(raw string) ([]Order, error) {
	var orders []Order
	for _, part := range strings.Split(raw, ",") {
		words := strings.Fields(part)
		if len(words) == 0 || len(words) > 2 {
			return nil, models.NewQueryValidationError(fmt.Sprintf("Invalid $orderby clause %q", strings.TrimSpace(part)))
		}
		field, ok := lookup(words[0])
		if !ok || !field.Sortable {
			return nil, models.NewQueryValidationError(fmt.Sprintf("Cannot order by %s", words[0]))
		}
		order := Order{Field: field.Name}
		if len(words) == 2 {
			switch strings.ToLower(words[1]) {
			case "asc":
			case "desc":
				order.Desc = true
			default:
				return nil, models.NewQueryValidationError(fmt.Sprintf("Invalid sort direction %s", words[1]))
			}
		}
		orders = append(orders, order)
	}
	return orders, nil
}

func parseSelect(raw string) ([]string, error) {
	seen := make(map[string]bool)
	var selected []string
	for _, part := range strings.Split(raw, ",") {
		name := strings.TrimSpace(part)
		field, ok := lookup(name)
		if !ok || !field.Selectable {
			return nil, models.NewQueryValidationError(fmt.Sprintf("Cannot select %s", name))
		}
		if !seen[field.Name] {
			seen[field.Name] = true
			selected = append(selected, field.Name)
		}
	}
	return selected, nil
}
