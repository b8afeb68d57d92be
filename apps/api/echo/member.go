package echoapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kanisahq/kanisa/core/member"
	excelsvc "github.com/kanisahq/kanisa/services/excel"
)

var (
	errMbrNotFoundInCtx = errors.New("member object not found in echo.Context")

	memberOrderFields = []string{"first_name", "last_name", "email", "status", "joined_at", "created_at"}
)

type memberApi struct {
	deps ServerDeps
}

func registerMemberAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := memberApi{deps: deps}

	mg := g.Group("/members", jwt, staffMiddleware())
	mg.POST("", api.create)
	mg.GET("", api.query)
	mg.DELETE("", api.destroyMultiple, adminMiddleware())
	mg.GET("/birthdays", api.upcomingBirthdays)
	mg.GET("/birthdays/month", api.birthdaysInMonth)
	mg.GET("/export", api.export)
	mg.POST("/import", api.importMembers)

	dg := mg.Group("/:id", ctxMemberMiddleware(api.deps.MemberSvc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy, adminMiddleware())
	dg.POST("/convert", api.convertVisitor)
	dg.GET("/groups", api.memberGroups)
	dg.GET("/attendance", api.attendanceHistory)
}

// Handlers

func (api *memberApi) create(ctx echo.Context) error {
	orgID, err := getContextOrgID(ctx)
	if err != nil {
		return err
	}

	var data member.NewMember
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMember")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	mbr, err := api.deps.MemberSvc.Create(ctx.Request().Context(), orgID, data)
	if err != nil {
		return errors.Wrap(err, "creating member")
	}
	return ctx.JSON(http.StatusCreated, mbr)
}

func (api *memberApi) query(ctx echo.Context) error {
	orgID, err := getContextOrgID(ctx)
	if err != nil {
		return err
	}

	filter := new(member.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []member.Member{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx, memberOrderFields...)

	members, err := api.deps.MemberSvc.Query(ctx.Request().Context(), orgID, filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying members")
	}
	if members == nil {
		members = []member.Member{}
	}
	return ctx.JSON(http.StatusOK, members)
}

func (api *memberApi) retrieve(ctx echo.Context) error {
	mbr, ok := ctx.Get("object").(member.Member)
	if !ok {
		return errors.Wrap(errMbrNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, mbr)
}

func (api *memberApi) update(ctx echo.Context) error {
	mbr, ok := ctx.Get("object").(member.Member)
	if !ok {
		return errors.Wrap(errMbrNotFoundInCtx, "retrieving object from context")
	}

	var data member.UpdateMember
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateMember")
	}
	if err := data.Validate(mbr, api.deps.Validate); err != nil {
		return err
	}

	mbr, err := api.deps.MemberSvc.Update(ctx.Request().Context(), mbr, data)
	if err != nil {
		return errors.Wrap(err, "updating member")
	}
	return ctx.JSON(http.StatusOK, mbr)
}

func (api *memberApi) destroy(ctx echo.Context) error {
	mbr, ok := ctx.Get("object").(member.Member)
	if !ok {
		return errors.Wrap(errMbrNotFoundInCtx, "retrieving object from context")
	}
	if err := api.deps.MemberSvc.Delete(ctx.Request().Context(), mbr.OrgID, mbr.ID); err != nil {
		return errors.Wrap(err, "deleting member")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *memberApi) destroyMultiple(ctx echo.Context) error {
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

	if err := api.deps.MemberSvc.Delete(ctx.Request().Context(), orgID, query.IDs...); err != nil {
		return errors.Wrap(err, "deleting members")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *memberApi) convertVisitor(ctx echo.Context) error {
	mbr, ok := ctx.Get("object").(member.Member)
	if !ok {
		return errors.Wrap(errMbrNotFoundInCtx, "retrieving object from context")
	}

	mbr, err := api.deps.MemberSvc.ConvertVisitor(ctx.Request().Context(), mbr)
	if err != nil {
		if errors.Cause(err) == member.ErrNotVisitor {
			return echo.NewHTTPError(http.StatusBadRequest, "member is not a visitor")
		}
		return errors.Wrap(err, "converting visitor")
	}
	return ctx.JSON(http.StatusOK, mbr)
}

func (api *memberApi) upcomingBirthdays(ctx echo.Context) error {
	orgID, err := getContextOrgID(ctx)
	if err != nil {
		return err
	}

	days := 30
	if v := ctx.QueryParam("days"); v != "" {
		if days, err = strconv.Atoi(v); err != nil || days < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid days")
		}
	}

	bdays, err := api.deps.MemberSvc.UpcomingBirthdays(ctx.Request().Context(), orgID, days)
	if err != nil {
		return errors.Wrap(err, "querying upcoming birthdays")
	}
	return ctx.JSON(http.StatusOK, bdays)
}

func (api *memberApi) birthdaysInMonth(ctx echo.Context) error {
	orgID, err := getContextOrgID(ctx)
	if err != nil {
		return err
	}

	month := int(time.Now().Month())
	if v := ctx.QueryParam("month"); v != "" {
		if month, err = strconv.Atoi(v); err != nil || month < 1 || month > 12 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid month")
		}
	}

	bdays, err := api.deps.MemberSvc.BirthdaysInMonth(ctx.Request().Context(), orgID, time.Month(month))
	if err != nil {
		return errors.Wrap(err, "querying birthdays in month")
	}
	return ctx.JSON(http.StatusOK, bdays)
}

func (api *memberApi) export(ctx echo.Context) error {
	orgID, err := getContextOrgID(ctx)
	if err != nil {
		return err
	}

	filter := new(member.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		filter = new(member.QueryFilter)
	}
	filter.Clean()

	members, err := api.deps.MemberSvc.Query(ctx.Request().Context(), orgID, filter, nil)
	if err != nil {
		return errors.Wrap(err, "querying members")
	}

	buf, err := excelsvc.ExportMembers(members)
	if err != nil {
		return errors.Wrap(err, "exporting members")
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="members.xlsx"`)
	return ctx.Blob(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func (api *memberApi) importMembers(ctx echo.Context) error {
	orgID, err := getContextOrgID(ctx)
	if err != nil {
		return err
	}

	fh, err := ctx.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing workbook file")
	}
	f, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer f.Close()

	res, err := excelsvc.ImportMembers(ctx.Request().Context(), api.deps.MemberSvc, api.deps.Validate, orgID, f)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "could not read workbook")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *memberApi) memberGroups(ctx echo.Context) error {
	mbr, ok := ctx.Get("object").(member.Member)
	if !ok {
		return errors.Wrap(errMbrNotFoundInCtx, "retrieving object from context")
	}

	groups, err := api.deps.GroupSvc.MemberGroups(ctx.Request().Context(), mbr.OrgID, mbr.ID)
	if err != nil {
		return errors.Wrap(err, "querying member groups")
	}
	return ctx.JSON(http.StatusOK, groups)
}

func (api *memberApi) attendanceHistory(ctx echo.Context) error {
	mbr, ok := ctx.Get("object").(member.Member)
	if !ok {
		return errors.Wrap(errMbrNotFoundInCtx, "retrieving object from context")
	}

	from, to, err := bindDateRange(ctx)
	if err != nil {
		return err
	}

	recs, err := api.deps.AttendanceSvc.MemberHistory(ctx.Request().Context(), mbr.OrgID, mbr.ID, from, to)
	if err != nil {
		return errors.Wrap(err, "querying member attendance")
	}
	return ctx.JSON(http.StatusOK, recs)
}

// ctxMemberMiddleware loads the target member into the context as "object".
// Other orgs' members are a 404.
func ctxMemberMiddleware(svc member.ServiceInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			orgID, err := getContextOrgID(ctx)
			if err != nil {
				return err
			}

			mbr, err := svc.GetByID(ctx.Request().Context(), orgID, ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == member.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding member by ID")
			}
			ctx.Set("object", mbr)
			return next(ctx)
		}
	}
}
