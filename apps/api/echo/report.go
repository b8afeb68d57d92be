package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kanisahq/kanisa/core/report"
)

type reportApi struct {
	deps ServerDeps
}

func registerReportAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := reportApi{deps: deps}

	rg := g.Group("/reports", jwt, staffMiddleware())
	rg.GET("/dashboard", api.dashboard)
	rg.GET("/attendance-trend", api.attendanceTrend)
	rg.GET("/member-growth", api.memberGrowth)
}

// Handlers

func (api *reportApi) dashboard(ctx echo.Context) error {
	orgID, err := getContextOrgID(ctx)
	if err != nil {
		return err
	}

	rf, err := bindRangeFilter(ctx)
	if err != nil {
		return err
	}

	summary, err := api.deps.ReportSvc.Dashboard(ctx.Request().Context(), orgID, rf)
	if err != nil {
		return errors.Wrap(err, "building dashboard summary")
	}
	return ctx.JSON(http.StatusOK, summary)
}

func (api *reportApi) attendanceTrend(ctx echo.Context) error {
	orgID, err := getContextOrgID(ctx)
	if err != nil {
		return err
	}

	rf, err := bindRangeFilter(ctx)
	if err != nil {
		return err
	}

	trend, err := api.deps.ReportSvc.AttendanceTrend(ctx.Request().Context(), orgID, rf)
	if err != nil {
		return errors.Wrap(err, "building attendance trend")
	}
	return ctx.JSON(http.StatusOK, trend)
}

func (api *reportApi) memberGrowth(ctx echo.Context) error {
	orgID, err := getContextOrgID(ctx)
	if err != nil {
		return err
	}

	months := 12
	if v := ctx.QueryParam("months"); v != "" {
		if months, err = strconv.Atoi(v); err != nil || months < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid months")
		}
	}

	growth, err := api.deps.ReportSvc.MemberGrowth(ctx.Request().Context(), orgID, months)
	if err != nil {
		return errors.Wrap(err, "building member growth")
	}
	return ctx.JSON(http.StatusOK, growth)
}

func bindRangeFilter(ctx echo.Context) (report.RangeFilter, error) {
	from, to, err := bindDateRange(ctx)
	if err != nil {
		return report.RangeFilter{}, err
	}
	return report.RangeFilter{From: from, To: to}, nil
}
