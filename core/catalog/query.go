package catalog

import (
	"strings"

	"github.com/jmoiron/sqlx"
)

// Where accumulates AND-ed conditions written with ? placeholders.
type Where struct {
	clauses []string
	args    []interface{}
}

func (w *Where) And(clause string, args ...interface{}) {
	w.clauses = append(w.clauses, clause)
	w.args = append(w.args, args...)
}

func (w *Where) Args() []interface{} {
	return w.args
}

// Build appends the conditions to base and rebinds the placeholders for postgres.
func (w *Where) Build(base string, tail ...string) string {
	var b strings.Builder
	b.WriteString(base)
	if len(w.clauses) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(w.clauses, " AND "))
	}
	for _, t := range tail {
		b.WriteString(" ")
		b.WriteString(t)
	}
	return sqlx.Rebind(sqlx.DOLLAR, b.String())
}
