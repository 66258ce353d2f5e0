package query

import (
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

const tagExistsExpr = "EXISTS (SELECT 1 FROM project_tags JOIN tags ON tags.id = project_tags.tag_id WHERE project_tags.project_id = projects.id AND %s)"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ApplyFilters adds the filter clauses to db as WHERE conditions.
func (o Options) ApplyFilters(db *gorm.DB) *gorm.DB {
	for _, c := range o.Filters {
		field, _ := lookup(c.Field)

		if field.Kind == kindTag {
			if c.Op == OpContains {
				db = db.Where(fmt.Sprintf(tagExistsExpr, `tags.name LIKE ? ESCAPE '\'`), "%"+likeEscaper.Replace(c.Value.(string))+"%")
				continue
			}
			db = db.Where(fmt.Sprintf(tagExistsExpr, "tags.name = ?"), c.Value)
			continue
		}

		switch c.Op {
		case OpContains:
			db = db.Where(fmt.Sprintf(`LOWER(%s) LIKE ? ESCAPE '\'`, field.Column), "%"+likeEscaper.Replace(strings.ToLower(c.Value.(string)))+"%")
		case OpStartsWith:
			db = db.Where(fmt.Sprintf(`LOWER(%s) LIKE ? ESCAPE '\'`, field.Column), likeEscaper.Replace(strings.ToLower(c.Value.(string)))+"%")
		default:
			db = db.Where(fmt.Sprintf("%s %s ?", field.Column, sqlOperators[c.Op]), c.Value)
		}
	}
	return db
}

// ApplyOrder adds ORDER BY clauses. The id is appended as a tiebreaker so
// pages are stable.
func (o Options) ApplyOrder(db *gorm.DB) *gorm.DB {
	hasID := false
	for _, ord := range o.OrderBy {
		field, _ := lookup(ord.Field)
		dir := "ASC"
		if ord.Desc {
			dir = "DESC"
		}
		db = db.Order(fmt.Sprintf("%s %s", field.Column, dir))
		hasID = hasID || field.Name == "id"
	}
	if !hasID {
		db = db.Order("projects.id DESC")
	}
	return db
}

// ApplyPage adds OFFSET and LIMIT.
func (o Options) ApplyPage(db *gorm.DB) *gorm.DB {
	return db.Offset(o.Skip).Limit(o.Top)
}

// Shape reduces each item to the selected response fields. Without a
// $select the items are returned unchanged.
func Shape[T any](items []T, selected []string) ([]any, error) {
	out := make([]any, 0, len(items))
	if len(selected) == 0 {
		for _, item := range items {
			out = append(out, item)
		}
		return out, nil
	}

	for _, item := range items {
		b, err := json.Marshal(item)
		if err != nil {
			return nil, err
		}
		var full map[string]any
		if err := json.Unmarshal(b, &full); err != nil {
			return nil, err
		}
		reduced := make(map[string]any, len(selected))
		for _, name := range selected {
			reduced[name] = full[name]
		}
		out = append(out, reduced)
	}
	return out, nil
}
