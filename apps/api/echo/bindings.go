package echoapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kanisahq/kanisa/core"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind parses the "ordering" query param ("name,-created_at").
// Fields outside the allowed list are dropped; they end up in SQL ORDER BY.
func (ord *Ordering) Bind(ctx echo.Context, allowed ...string) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if !fieldAllowed(field, allowed) {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

func fieldAllowed(field string, allowed []string) bool {
	for _, a := range allowed {
		if field == a {
			return true
		}
	}
	return false
}

// bindDateRange parses optional "from"/"to" query params (RFC3339 or YYYY-MM-DD).
func bindDateRange(ctx echo.Context) (from, to time.Time, err error) {
	if from, err = parseTimeParam(ctx.QueryParam("from")); err != nil {
		return from, to, echo.NewHTTPError(http.StatusBadRequest, "invalid from date")
	}
	if to, err = parseTimeParam(ctx.QueryParam("to")); err != nil {
		return from, to, echo.NewHTTPError(http.StatusBadRequest, "invalid to date")
	}
	return from, to, nil
}

func parseTimeParam(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
