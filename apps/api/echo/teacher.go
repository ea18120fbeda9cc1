package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shulehub/shule/core/access"
	"github.com/shulehub/shule/core/teacher"
	"github.com/shulehub/shule/core/tenant"
)

type teacherApi struct {
	opts *Options
}

func registerTeacherAPI(g *echo.Group, auth, tenancy echo.MiddlewareFunc, opts *Options) {
	api := teacherApi{opts: opts}

	tg := g.Group("/teachers", auth, tenancy)

	// self-service profile, no school-admin involvement
	tg.GET("/profile", api.ownProfile)
	tg.PUT("/profile", api.updateOwnProfile)

	tg.GET("/dashboard", api.dashboard, requireAccess(access.Or(access.IsAdmin, access.IsTeacherFull)))

	adminOnly := requireAccess(access.IsAdmin)
	ag := tg.Group("/attendance", requireAccess(access.IsTeacherOrAdmin))
	ag.GET("", api.listAttendance)
	ag.POST("", api.recordAttendance, adminOnly)
	ag.GET("/:id", api.attendanceDetail)
	ag.PUT("/:id", api.updateAttendance, adminOnly)
	ag.DELETE("/:id", api.deleteAttendance, adminOnly)

	tg.GET("", api.list, requireAccess(access.IsTeacherOrAdmin))
	tg.POST("", api.create, adminOnly)
	tg.GET("/:id", api.detail, requireAccess(access.IsTeacherOrAdmin))
	tg.PUT("/:id", api.update, adminOnly)
	tg.DELETE("/:id", api.delete, adminOnly)
	tg.GET("/:id/classes", api.classAssignments, requireAccess(access.IsTeacherOrAdmin))
	tg.POST("/:id/resend-credentials", api.resendCredentials, adminOnly)
}

// adminSchool returns the admin caller's identity; the route guards guarantee
// Kind is Admin, the school pointer check covers resolver drift.
func adminSchool(ctx echo.Context) (tenant.Identity, error) {
	id, err := getContextIdentity(ctx)
	if err != nil {
		return tenant.Identity{}, err
	}
	if id.Kind != tenant.Admin || id.School == nil {
		return tenant.Identity{}, errNoSchool
	}
	return id, nil
}

// Profile handlers

func (api *teacherApi) ownProfile(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	t, err := api.opts.TeacherSvc.GetByUserID(usr.ID)
	if err != nil {
		return errors.Wrap(err, "finding teacher profile")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *teacherApi) updateOwnProfile(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data teacher.UpdateProfile
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProfile")
	}
	t, err := api.opts.TeacherSvc.UpdateOwnProfile(usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating teacher profile")
	}
	return ctx.JSON(http.StatusOK, t)
}

// Teacher handlers

func (api *teacherApi) list(ctx echo.Context) error {
	_, schoolID, err := tenantSchoolID(ctx)
	if err != nil {
		return err
	}
	var filter teacher.Filter
	if err = ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to Filter")
	}
	teachers, err := api.opts.TeacherSvc.List(schoolID, filter)
	if err != nil {
		return errors.Wrap(err, "listing teachers")
	}
	return ctx.JSON(http.StatusOK, teachers)
}

func (api *teacherApi) create(ctx echo.Context) error {
	id, err := adminSchool(ctx)
	if err != nil {
		return err
	}
	var data teacher.NewTeacher
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTeacher")
	}
	t, err := api.opts.TeacherSvc.Create(id.SchoolID, id.School.Name, data)
	if err != nil {
		return errors.Wrap(err, "creating teacher")
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *teacherApi) detail(ctx echo.Context) error {
	id, schoolID, err := tenantSchoolID(ctx)
	if err != nil {
		return err
	}
	t, err := api.opts.TeacherSvc.Get(schoolID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding teacher")
	}
	// teachers may only read their own record
	if !access.CanActOnTeacher(id, t) {
		return errHttpForbidden
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *teacherApi) update(ctx echo.Context) error {
	_, schoolID, err := tenantSchoolID(ctx)
	if err != nil {
		return err
	}
	var data teacher.UpdateTeacher
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTeacher")
	}
	t, err := api.opts.TeacherSvc.Update(schoolID, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating teacher")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *teacherApi) delete(ctx echo.Context) error {
	_, schoolID, err := tenantSchoolID(ctx)
	if err != nil {
		return err
	}
	if err = api.opts.TeacherSvc.Delete(schoolID, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting teacher")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *teacherApi) classAssignments(ctx echo.Context) error {
	id, schoolID, err := tenantSchoolID(ctx)
	if err != nil {
		return err
	}
	t, err := api.opts.TeacherSvc.Get(schoolID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding teacher")
	}
	if !access.CanActOnTeacher(id, t) {
		return errHttpForbidden
	}
	assignments, err := api.opts.TeacherSvc.ListClassAssignments(t.ID)
	if err != nil {
		return errors.Wrap(err, "listing class assignments")
	}
	return ctx.JSON(http.StatusOK, assignments)
}

func (api *teacherApi) resendCredentials(ctx echo.Context) error {
	id, err := adminSchool(ctx)
	if err != nil {
		return err
	}
	email, err := api.opts.TeacherSvc.ResendCredentials(id.SchoolID, ctx.Param("id"), id.School.Name)
	if err != nil {
		return errors.Wrap(err, "resending credentials")
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"message": "Credentials sent successfully.",
		"email":   email,
	})
}

func (api *teacherApi) dashboard(ctx echo.Context) error {
	_, schoolID, err := tenantSchoolID(ctx)
	if err != nil {
		return err
	}
	stats, err := api.opts.TeacherSvc.Dashboard(schoolID)
	if err != nil {
		return errors.Wrap(err, "computing dashboard stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

// Attendance handlers

func (api *teacherApi) listAttendance(ctx echo.Context) error {
	_, schoolID, err := tenantSchoolID(ctx)
	if err != nil {
		return err
	}
	var filter teacher.AttendanceFilter
	if err = ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to AttendanceFilter")
	}
	records, err := api.opts.TeacherSvc.ListAttendance(schoolID, filter)
	if err != nil {
		return errors.Wrap(err, "listing teacher attendance")
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *teacherApi) recordAttendance(ctx echo.Context) error {
	_, schoolID, err := tenantSchoolID(ctx)
	if err != nil {
		return err
	}
	var data teacher.NewAttendance
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAttendance")
	}
	record, err := api.opts.TeacherSvc.RecordAttendance(schoolID, data)
	if err != nil {
		return errors.Wrap(err, "recording teacher attendance")
	}
	return ctx.JSON(http.StatusCreated, record)
}

func (api *teacherApi) attendanceDetail(ctx echo.Context) error {
	_, schoolID, err := tenantSchoolID(ctx)
	if err != nil {
		return err
	}
	recordID, err := pathID(ctx)
	if err != nil {
		return err
	}
	record, err := api.opts.TeacherSvc.GetAttendanceRecord(schoolID, recordID)
	if err != nil {
		return errors.Wrap(err, "finding teacher attendance record")
	}
	return ctx.JSON(http.StatusOK, record)
}

func (api *teacherApi) updateAttendance(ctx echo.Context) error {
	_, schoolID, err := tenantSchoolID(ctx)
	if err != nil {
		return err
	}
	recordID, err := pathID(ctx)
	if err != nil {
		return err
	}
	var data teacher.UpdateAttendance
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAttendance")
	}
	record, err := api.opts.TeacherSvc.UpdateAttendanceRecord(schoolID, recordID, data)
	if err != nil {
		return errors.Wrap(err, "updating teacher attendance record")
	}
	return ctx.JSON(http.StatusOK, record)
}

func (api *teacherApi) deleteAttendance(ctx echo.Context) error {
	_, schoolID, err := tenantSchoolID(ctx)
	if err != nil {
		return err
	}
	recordID, err := pathID(ctx)
	if err != nil {
		return err
	}
	if err = api.opts.TeacherSvc.DeleteAttendanceRecord(schoolID, recordID); err != nil {
		return errors.Wrap(err, "deleting teacher attendance record")
	}
	return ctx.NoContent(http.StatusNoContent)
}
