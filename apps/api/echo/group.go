package echoapi

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kanisahq/kanisa/core/group"
	"github.com/kanisahq/kanisa/core/member"
)

var (
	errGrpNotFoundInCtx = errors.New("group object not found in echo.Context")

	groupOrderFields = []string{"name", "kind", "created_at"}
)

type groupApi struct {
	deps ServerDeps
}

func registerGroupAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := groupApi{deps: deps}

	gg := g.Group("/groups", jwt, staffMiddleware())
	gg.POST("", api.create)
	gg.GET("", api.query)
	gg.DELETE("", api.destroyMultiple, adminMiddleware())

	dg := gg.Group("/:id", ctxGroupMiddleware(api.deps.GroupSvc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy, adminMiddleware())
	dg.GET("/members", api.members)
	dg.POST("/members", api.join)
	dg.DELETE("/members/:memberID", api.leave)
}

// Handlers

func (api *groupApi) create(ctx echo.Context) error {
	orgID, err := getContextOrgID(ctx)
	if err != nil {
		return err
	}

	var data group.NewGroup
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGroup")
	}
	if err := data.Validate(api.deps.Validate, api.deps.GroupSvc, orgID); err != nil {
		return err
	}

	grp, err := api.deps.GroupSvc.Create(ctx.Request().Context(), orgID, data)
	if err != nil {
		return errors.Wrap(err, "creating group")
	}
	return ctx.JSON(http.StatusCreated, grp)
}

func (api *groupApi) query(ctx echo.Context) error {
	orgID, err := getContextOrgID(ctx)
	if err != nil {
		return err
	}

	filter := new(group.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []group.Group{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx, groupOrderFields...)

	groups, err := api.deps.GroupSvc.Query(ctx.Request().Context(), orgID, filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying groups")
	}
	if groups == nil {
		groups = []group.Group{}
	}
	return ctx.JSON(http.StatusOK, groups)
}

func (api *groupApi) retrieve(ctx echo.Context) error {
	grp, ok := ctx.Get("object").(group.Group)
	if !ok {
		return errors.Wrap(errGrpNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, grp)
}

func (api *groupApi) update(ctx echo.Context) error {
	grp, ok := ctx.Get("object").(group.Group)
	if !ok {
		return errors.Wrap(errGrpNotFoundInCtx, "retrieving object from context")
	}

	var data group.UpdateGroup
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateGroup")
	}
	if err := data.Validate(grp, api.deps.Validate, api.deps.GroupSvc); err != nil {
		return err
	}

	grp, err := api.deps.GroupSvc.Update(ctx.Request().Context(), grp, data)
	if err != nil {
		return errors.Wrap(err, "updating group")
	}
	return ctx.JSON(http.StatusOK, grp)
}

func (api *groupApi) destroy(ctx echo.Context) error {
	grp, ok := ctx.Get("object").(group.Group)
	if !ok {
		return errors.Wrap(errGrpNotFoundInCtx, "retrieving object from context")
	}
	if err := api.deps.GroupSvc.Delete(ctx.Request().Context(), grp.OrgID, grp.ID); err != nil {
		return errors.Wrap(err, "deleting group")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *groupApi) destroyMultiple(ctx echo.Context) error {
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

	if err := api.deps.GroupSvc.Delete(ctx.Request().Context(), orgID, query.IDs...); err != nil {
		return errors.Wrap(err, "deleting groups")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *groupApi) members(ctx echo.Context) error {
	grp, ok := ctx.Get("object").(group.Group)
	if !ok {
		return errors.Wrap(errGrpNotFoundInCtx, "retrieving object from context")
	}

	members, err := api.deps.GroupSvc.Members(ctx.Request().Context(), grp)
	if err != nil {
		return errors.Wrap(err, "querying group members")
	}
	return ctx.JSON(http.StatusOK, members)
}

type GroupMembershipRequest struct {
	MemberID string `json:"member_id" validate:"required"`
}

func (api *groupApi) join(ctx echo.Context) error {
	grp, ok := ctx.Get("object").(group.Group)
	if !ok {
		return errors.Wrap(errGrpNotFoundInCtx, "retrieving object from context")
	}

	var data GroupMembershipRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GroupMembershipRequest")
	}
	if err := api.deps.Validate.Struct(&data); err != nil {
		return err
	}

	reqCtx := ctx.Request().Context()

	// the member must live in the same org as the group
	mbr, err := api.deps.MemberSvc.GetByID(reqCtx, grp.OrgID, data.MemberID)
	if err != nil {
		if errors.Cause(err) == member.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting member")
	}

	if err := api.deps.GroupSvc.Join(reqCtx, grp, mbr.ID); err != nil {
		return errors.Wrap(err, "joining group")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *groupApi) leave(ctx echo.Context) error {
	grp, ok := ctx.Get("object").(group.Group)
	if !ok {
		return errors.Wrap(errGrpNotFoundInCtx, "retrieving object from context")
	}

	memberID := ctx.Param("memberID")
	if _, err := uuid.Parse(memberID); err != nil {
		return errHttpNotFound
	}

	if err := api.deps.GroupSvc.Leave(ctx.Request().Context(), grp, memberID); err != nil {
		return errors.Wrap(err, "leaving group")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// ctxGroupMiddleware loads the target group into the context as "object".
// Other orgs' groups are a 404.
func ctxGroupMiddleware(svc group.ServiceInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			orgID, err := getContextOrgID(ctx)
			if err != nil {
				return err
			}

			grp, err := svc.GetByID(ctx.Request().Context(), orgID, ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == group.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding group by ID")
			}
			ctx.Set("object", grp)
			return next(ctx)
		}
	}
}
