package sqlxrepos

import (
	"database/sql"
	"database/sql/driver"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/kanisahq/kanisa/core"
)

// stringArray maps Postgres text[] columns through pq.
type stringArray []string

func (a stringArray) Value() (driver.Value, error) {
	return pq.StringArray(a).Value()
}

func (a *stringArray) Scan(src interface{}) error {
	return (*pq.StringArray)(a).Scan(src)
}

// psql builds Postgres-flavored ($N placeholder) queries.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// orderClause joins the requested orderings, falling back to def.
// Ordering fields are whitelisted at the API boundary.
func orderClause(ordering []core.DBOrdering, def string) string {
	if len(ordering) == 0 {
		return def
	}
	parts := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		parts = append(parts, ord.String())
	}
	return strings.Join(parts, ", ")
}

// executor picks the transaction when one is given, the plain DB otherwise.
func executor(db core.DBExecutor, tx core.DBTransactor) core.DBExecutor {
	if tx != nil {
		return tx
	}
	return db
}

// trapNoRowsErr maps sql.ErrNoRows to the domain's not-found sentinel.
func trapNoRowsErr(err, notFound error, msg string) error {
	if err == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}
