package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shulehub/shule/core/school"
	"github.com/shulehub/shule/core/tenant"
)

type schoolApi struct {
	opts *Options
}

func registerSchoolAPI(g *echo.Group, auth, tenancy echo.MiddlewareFunc, opts *Options) {
	api := schoolApi{opts: opts}

	sg := g.Group("/schools", auth, tenancy)
	sg.POST("/create", api.create)

	// role gating happens in contextSchool: an admin who has not created
	// their school yet resolves as unaffiliated and must read a 404 here,
	// which a kind-based route guard cannot distinguish from a teacher
	dg := sg.Group("/detail")
	dg.GET("", api.detail)
	dg.PUT("", api.update)
}

// Handlers

func (api *schoolApi) create(ctx echo.Context) error {
	id, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}
	// only admin-role accounts may register a school
	if !id.User.IsAdmin() {
		return errHttpForbidden
	}

	var data school.NewSchool
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSchool")
	}

	sch, err := api.opts.SchoolSvc.Create(id.User, data)
	if err != nil {
		return errors.Wrap(err, "creating school")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{
		"message": "School registered successfully.",
		"school":  sch,
	})
}

func (api *schoolApi) detail(ctx echo.Context) error {
	sch, err := api.contextSchool(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sch)
}

func (api *schoolApi) update(ctx echo.Context) error {
	sch, err := api.contextSchool(ctx)
	if err != nil {
		return err
	}
	var data school.UpdateSchool
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSchool")
	}
	sch, err = api.opts.SchoolSvc.Update(sch.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating school")
	}
	return ctx.JSON(http.StatusOK, sch)
}

func (api *schoolApi) contextSchool(ctx echo.Context) (school.School, error) {
	id, err := getContextIdentity(ctx)
	if err != nil {
		return school.School{}, err
	}
	if !id.User.IsAdmin() {
		return school.School{}, errHttpForbidden
	}
	if id.Kind != tenant.Admin || id.School == nil {
		return school.School{}, errHttpNotFound
	}
	return *id.School, nil
}
