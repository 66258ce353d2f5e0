package query

import "strings"

type fieldKind int

const (
	kindInt fieldKind = iota
	kindString
	kindTime
	kindTag
)

// Field describes how a response field may be used in a directive.
type Field struct {
	Name       string
	Column     string
	Kind       fieldKind
	Filterable bool
	Sortable   bool
	Selectable bool
}

// Counter expressions shared with the repository layer. Counters are never
// stored, so they are computed per row.
const (
	LikesExpr  = "(SELECT COUNT(*) FROM likes WHERE likes.project_id = projects.id)"
	VisitsExpr = "(SELECT COUNT(*) FROM visits WHERE visits.project_id = projects.id)"
	FlagsExpr  = "(SELECT COUNT(*) FROM flags WHERE flags.project_id = projects.id)"
)

var fields = []Field{
	{Name: "id", Column: "projects.id", Kind: kindInt, Filterable: true, Sortable: true, Selectable: true},
	{Name: "title", Column: "projects.title", Kind: kindString, Filterable: true, Sortable: true, Selectable: true},
	{Name: "description", Column: "projects.description", Kind: kindString, Filterable: true},
	{Name: "createdOn", Column: "projects.created_at", Kind: kindTime, Filterable: true, Sortable: true, Selectable: true},
	{Name: "likes", Column: LikesExpr, Kind: kindInt, Filterable: true, Sortable: true, Selectable: true},
	{Name: "visits", Column: VisitsExpr, Kind: kindInt, Filterable: true, Sortable: true, Selectable: true},
	{Name: "mainImage", Selectable: true},
	{Name: "owner", Selectable: true},
	{Name: "tag", Kind: kindTag, Filterable: true},
}

// lookup finds a field by name, ignoring case.
func lookup(name string) (Field, bool) {
	for _, f := range fields {
		if strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	return Field{}, false
}
