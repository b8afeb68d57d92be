package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kanisahq/kanisa/core/attendance"
	"github.com/kanisahq/kanisa/core/member"
)

var (
	errGthNotFoundInCtx = errors.New("gathering object not found in echo.Context")

	gatheringOrderFields = []string{"name", "kind", "starts_at", "created_at"}
)

type attendanceApi struct {
	deps ServerDeps
}

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := attendanceApi{deps: deps}

	ag := g.Group("/gatherings", jwt, staffMiddleware())
	ag.POST("", api.create)
	ag.GET("", api.query)
	ag.DELETE("", api.destroyMultiple, adminMiddleware())
	ag.GET("/summary", api.summary)

	dg := ag.Group("/:id", ctxGatheringMiddleware(api.deps.AttendanceSvc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy, adminMiddleware())
	dg.GET("/records", api.records)
	dg.POST("/records", api.record)
}

// Handlers

func (api *attendanceApi) create(ctx echo.Context) error {
	orgID, err := getContextOrgID(ctx)
	if err != nil {
		return err
	}

	var data attendance.NewGathering
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGathering")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	gth, err := api.deps.AttendanceSvc.Create(ctx.Request().Context(), orgID, data)
	if err != nil {
		return errors.Wrap(err, "creating gathering")
	}
	return ctx.JSON(http.StatusCreated, gth)
}

func (api *attendanceApi) query(ctx echo.Context) error {
	orgID, err := getContextOrgID(ctx)
	if err != nil {
		return err
	}

	filter := new(attendance.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []attendance.Gathering{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx, gatheringOrderFields...)

	gatherings, err := api.deps.AttendanceSvc.Query(ctx.Request().Context(), orgID, filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying gatherings")
	}
	if gatherings == nil {
		gatherings = []attendance.Gathering{}
	}
	return ctx.JSON(http.StatusOK, gatherings)
}

func (api *attendanceApi) retrieve(ctx echo.Context) error {
	gth, ok := ctx.Get("object").(attendance.Gathering)
	if !ok {
		return errors.Wrap(errGthNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, gth)
}

func (api *attendanceApi) update(ctx echo.Context) error {
	gth, ok := ctx.Get("object").(attendance.Gathering)
	if !ok {
		return errors.Wrap(errGthNotFoundInCtx, "retrieving object from context")
	}

	var data attendance.UpdateGathering
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateGathering")
	}
	if err := data.Validate(gth, api.deps.Validate); err != nil {
		return err
	}

	gth, err := api.deps.AttendanceSvc.Update(ctx.Request().Context(), gth, data)
	if err != nil {
		return errors.Wrap(err, "updating gathering")
	}
	return ctx.JSON(http.StatusOK, gth)
}

func (api *attendanceApi) destroy(ctx echo.Context) error {
	gth, ok := ctx.Get("object").(attendance.Gathering)
	if !ok {
		return errors.Wrap(errGthNotFoundInCtx, "retrieving object from context")
	}
	if err := api.deps.AttendanceSvc.Delete(ctx.Request().Context(), gth.OrgID, gth.ID); err != nil {
		return errors.Wrap(err, "deleting gathering")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *attendanceApi) destroyMultiple(ctx echo.Context) error {
	orgID, err := getContextOrgID(ctx)
	if err != nil {
		return err
	}

	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err := query.Validate(api.deps.Validate); err != nil {
		return err
	}

	if err := api.deps.AttendanceSvc.Delete(ctx.Request().Context(), orgID, query.IDs...); err != nil {
		return errors.Wrap(err, "deleting gatherings")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *attendanceApi) records(ctx echo.Context) error {
	gth, ok := ctx.Get("object").(attendance.Gathering)
	if !ok {
		return errors.Wrap(errGthNotFoundInCtx, "retrieving object from context")
	}

	recs, err := api.deps.AttendanceSvc.GatheringRecords(ctx.Request().Context(), gth)
	if err != nil {
		return errors.Wrap(err, "querying gathering records")
	}
	return ctx.JSON(http.StatusOK, recs)
}

func (api *attendanceApi) record(ctx echo.Context) error {
	gth, ok := ctx.Get("object").(attendance.Gathering)
	if !ok {
		return errors.Wrap(errGthNotFoundInCtx, "retrieving object from context")
	}

	var data attendance.RecordRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RecordRequest")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	reqCtx := ctx.Request().Context()

	// every mark must point at a member of the gathering's org
	for _, mark := range data.Marks {
		if _, err := api.deps.MemberSvc.GetByID(reqCtx, gth.OrgID, mark.MemberID); err != nil {
			if errors.Cause(err) == member.ErrNotFound {
				return errHttpNotFound
			}
			return errors.Wrap(err, "getting member")
		}
	}

	recs, err := api.deps.AttendanceSvc.Record(reqCtx, gth, data.Marks)
	if err != nil {
		return errors.Wrap(err, "recording attendance")
	}
	return ctx.JSON(http.StatusOK, recs)
}

func (api *attendanceApi) summary(ctx echo.Context) error {
	orgID, err := getContextOrgID(ctx)
	if err != nil {
		return err
	}

	from, to, err := bindDateRange(ctx)
	if err != nil {
		return err
	}

	summary, err := api.deps.AttendanceSvc.Summarize(ctx.Request().Context(), orgID, from, to)
	if err != nil {
		return errors.Wrap(err, "summarizing attendance")
	}
	return ctx.JSON(http.StatusOK, summary)
}

// ctxGatheringMiddleware loads the target gathering into the context as "object".
// Other orgs' gatherings are a 404.
func ctxGatheringMiddleware(svc attendance.ServiceInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			orgID, err := getContextOrgID(ctx)
			if err != nil {
				return err
			}

			gth, err := svc.GetByID(ctx.Request().Context(), orgID, ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == attendance.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding gathering by ID")
			}
			ctx.Set("object", gth)
			return next(ctx)
		}
	}
}
