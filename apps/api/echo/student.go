package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shulehub/shule/core/access"
	"github.com/shulehub/shule/core/student"
	"github.com/shulehub/shule/core/tenant"
)

type studentApi struct {
	opts *Options
}

func registerStudentAPI(g *echo.Group, auth, tenancy echo.MiddlewareFunc, opts *Options) {
	api := studentApi{opts: opts}

	sg := g.Group("/students", auth, tenancy)

	// class management is reserved to the school admin
	cg := sg.Group("/classes", requireAccess(access.IsAdmin))
	cg.GET("", api.listClasses)
	cg.POST("", api.createClass)
	cg.GET("/:id", api.classDetail)
	cg.PUT("/:id", api.updateClass)
	cg.DELETE("/:id", api.deleteClass)

	// attendance: admins and full-access teachers write, all teachers read
	attWrite := requireAccess(access.Or(access.IsAdmin, access.IsTeacherFull))
	ag := sg.Group("/attendance", requireAccess(access.IsTeacherOrAdmin))
	ag.GET("", api.listAttendance)
	ag.POST("", api.recordAttendance, attWrite)
	ag.GET("/:id", api.attendanceDetail)
	ag.PUT("/:id", api.updateAttendance, attWrite)
	ag.DELETE("/:id", api.deleteAttendance, attWrite)

	sg.GET("", api.list, requireAccess(access.IsTeacherOrAdmin))
	sg.POST("", api.create, requireAccess(access.IsAdmin))
	sg.GET("/:id", api.detail, requireAccess(access.IsTeacherOrAdmin))
	sg.PUT("/:id", api.update, requireAccess(access.IsAdmin))
	sg.DELETE("/:id", api.delete, requireAccess(access.IsAdmin))
}

// tenantSchoolID extracts the acting school's ID, failing with a 400 when the
// caller has no school attached yet.
func tenantSchoolID(ctx echo.Context) (tenant.Identity, uint, error) {
	id, err := getContextIdentity(ctx)
	if err != nil {
		return tenant.Identity{}, 0, err
	}
	if !id.HasTenant() {
		return tenant.Identity{}, 0, errNoSchool
	}
	return id, id.SchoolID, nil
}

// Class handlers

func (api *studentApi) listClasses(ctx echo.Context) error {
	_, schoolID, err := tenantSchoolID(ctx)
	if err != nil {
		return err
	}
	classes, err := api.opts.StudentSvc.ListClasses(schoolID)
	if err != nil {
		return errors.Wrap(err, "listing classes")
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *studentApi) createClass(ctx echo.Context) error {
	_, schoolID, err := tenantSchoolID(ctx)
	if err != nil {
		return err
	}
	var data student.NewClass
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}
	class, err := api.opts.StudentSvc.CreateClass(schoolID, data)
	if err != nil {
		return errors.Wrap(err, "creating class")
	}
	return ctx.JSON(http.StatusCreated, class)
}

func (api *studentApi) classDetail(ctx echo.Context) error {
	_, schoolID, err := tenantSchoolID(ctx)
	if err != nil {
		return err
	}
	class, err := api.opts.StudentSvc.GetClass(schoolID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding class")
	}
	return ctx.JSON(http.StatusOK, class)
}

func (api *studentApi) updateClass(ctx echo.Context) error {
	_, schoolID, err := tenantSchoolID(ctx)
	if err != nil {
		return err
	}
	var data student.UpdateClass
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateClass")
	}
	class, err := api.opts.StudentSvc.UpdateClass(schoolID, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating class")
	}
	return ctx.JSON(http.StatusOK, class)
}

func (api *studentApi) deleteClass(ctx echo.Context) error {
	_, schoolID, err := tenantSchoolID(ctx)
	if err != nil {
		return err
	}
	if err = api.opts.StudentSvc.DeleteClass(schoolID, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting class")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Student handlers

func (api *studentApi) list(ctx echo.Context) error {
	id, schoolID, err := tenantSchoolID(ctx)
	if err != nil {
		return err
	}
	classIDs, err := tenantClassIDs(id, api.opts.TeacherSvc.AssignedClassIDs)
	if err != nil {
		return err
	}
	students, err := api.opts.StudentSvc.ListStudents(schoolID, classIDs...)
	if err != nil {
		return errors.Wrap(err, "listing students")
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) create(ctx echo.Context) error {
	_, schoolID, err := tenantSchoolID(ctx)
	if err != nil {
		return err
	}
	var data student.NewStudent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	std, err := api.opts.StudentSvc.CreateStudent(schoolID, data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, std)
}

func (api *studentApi) detail(ctx echo.Context) error {
	id, schoolID, err := tenantSchoolID(ctx)
	if err != nil {
		return err
	}
	std, err := api.opts.StudentSvc.GetStudent(schoolID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding student")
	}
	if ok, err := api.canViewStudent(id, std); err != nil {
		return err
	} else if !ok {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *studentApi) update(ctx echo.Context) error {
	_, schoolID, err := tenantSchoolID(ctx)
	if err != nil {
		return err
	}
	var data student.UpdateStudent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	std, err := api.opts.StudentSvc.UpdateStudent(schoolID, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *studentApi) delete(ctx echo.Context) error {
	_, schoolID, err := tenantSchoolID(ctx)
	if err != nil {
		return err
	}
	if err = api.opts.StudentSvc.DeleteStudent(schoolID, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// canViewStudent hides out-of-class students from class-restricted teachers.
func (api *studentApi) canViewStudent(id tenant.Identity, std student.Student) (bool, error) {
	if !access.ClassRestricted(id) {
		return true, nil
	}
	if std.ClassID == nil {
		return false, nil
	}
	ids, err := api.opts.TeacherSvc.AssignedClassIDs(id.Teacher.ID)
	if err != nil {
		return false, errors.Wrap(err, "loading assigned classes")
	}
	for _, cid := range ids {
		if cid == *std.ClassID {
			return true, nil
		}
	}
	return false, nil
}

// Attendance handlers

func (api *studentApi) listAttendance(ctx echo.Context) error {
	id, schoolID, err := tenantSchoolID(ctx)
	if err != nil {
		return err
	}
	var filter student.AttendanceFilter
	if err = ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to AttendanceFilter")
	}
	classIDs, err := tenantClassIDs(id, api.opts.TeacherSvc.AssignedClassIDs)
	if err != nil {
		return err
	}
	records, err := api.opts.StudentSvc.ListAttendance(schoolID, filter, classIDs...)
	if err != nil {
		return errors.Wrap(err, "listing attendance")
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *studentApi) recordAttendance(ctx echo.Context) error {
	_, schoolID, err := tenantSchoolID(ctx)
	if err != nil {
		return err
	}
	var data student.NewAttendance
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAttendance")
	}
	record, err := api.opts.StudentSvc.RecordAttendance(schoolID, data)
	if err != nil {
		return errors.Wrap(err, "recording attendance")
	}
	return ctx.JSON(http.StatusCreated, record)
}

func (api *studentApi) attendanceDetail(ctx echo.Context) error {
	id, schoolID, err := tenantSchoolID(ctx)
	if err != nil {
		return err
	}
	recordID, err := pathID(ctx)
	if err != nil {
		return err
	}
	classIDs, err := tenantClassIDs(id, api.opts.TeacherSvc.AssignedClassIDs)
	if err != nil {
		return err
	}
	record, err := api.opts.StudentSvc.GetAttendanceRecord(schoolID, recordID, classIDs...)
	if err != nil {
		return errors.Wrap(err, "finding attendance record")
	}
	return ctx.JSON(http.StatusOK, record)
}

func (api *studentApi) updateAttendance(ctx echo.Context) error {
	_, schoolID, err := tenantSchoolID(ctx)
	if err != nil {
		return err
	}
	recordID, err := pathID(ctx)
	if err != nil {
		return err
	}
	var data student.UpdateAttendance
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAttendance")
	}
	record, err := api.opts.StudentSvc.UpdateAttendanceRecord(schoolID, recordID, data)
	if err != nil {
		return errors.Wrap(err, "updating attendance record")
	}
	return ctx.JSON(http.StatusOK, record)
}

func (api *studentApi) deleteAttendance(ctx echo.Context) error {
	_, schoolID, err := tenantSchoolID(ctx)
	if err != nil {
		return err
	}
	recordID, err := pathID(ctx)
	if err != nil {
		return err
	}
	if err = api.opts.StudentSvc.DeleteAttendanceRecord(schoolID, recordID); err != nil {
		return errors.Wrap(err, "deleting attendance record")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func pathID(ctx echo.Context) (uint, error) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return 0, errHttpNotFound
	}
	return uint(id), nil
}
