// Package tenant resolves the school an authenticated user acts on.
// Every data-facing request is scoped to the resolved school; a user
// affiliated with no school gets an Unaffiliated identity, never another
// tenant's data.
package tenant

import (
	"errors"

	pkgerrors "github.com/pkg/errors"

	"github.com/shulehub/shule/core/school"
	"github.com/shulehub/shule/core/student"
	"github.com/shulehub/shule/core/teacher"
	"github.com/shulehub/shule/core/user"
)

// Kind states how the user is affiliated with their school.
type Kind int

const (
	Unaffiliated Kind = iota
	Admin             // owns the school
	Teacher           // has a teacher profile in the school
	Student           // has a student profile in the school
	Superuser         // platform operator, no tenant of their own
)

func (k Kind) String() string {
	switch k {
	case Admin:
		return "admin"
	case Teacher:
		return "teacher"
	case Student:
		return "student"
	case Superuser:
		return "superuser"
	}
	return "unaffiliated"
}

// Identity is the resolved tenancy of an authenticated user. SchoolID is zero
// unless Kind is Admin, Teacher or Student.
type Identity struct {
	Kind     Kind
	User     user.User
	SchoolID uint

	School  *school.School
	Teacher *teacher.Teacher
	Student *student.Student
}

func (id Identity) HasTenant() bool {
	return id.SchoolID != 0
}

type (
	// SchoolDirectory looks up a school by its owning admin; satisfied by the
	// school repository.
	SchoolDirectory interface {
		GetSchoolByAdminID(adminID uint) (school.School, error)
	}

	// TeacherDirectory looks up a teacher profile by login account; satisfied
	// by the teacher repository.
	TeacherDirectory interface {
		GetTeacherByUserID(userID uint) (teacher.Teacher, error)
	}

	// StudentDirectory looks up a student profile by login account; satisfied
	// by the student repository.
	StudentDirectory interface {
		GetStudentByUserID(userID uint) (student.Student, error)
	}

	Resolver struct {
		schools  SchoolDirectory
		teachers TeacherDirectory
		students StudentDirectory
	}
)

func NewResolver(schools SchoolDirectory, teachers TeacherDirectory, students StudentDirectory) *Resolver {
	return &Resolver{
		schools:  schools,
		teachers: teachers,
		students: students,
	}
}

// Resolve determines the user's tenancy: school owner first, then teacher
// profile, then student profile. A lookup that fails with anything other than
// a not-found sentinel is an error, never a silent Unaffiliated identity.
func (r *Resolver) Resolve(usr user.User) (Identity, error) {
	id := Identity{Kind: Unaffiliated, User: usr}

	sch, err := r.schools.GetSchoolByAdminID(usr.ID)
	switch {
	case err == nil:
		id.Kind = Admin
		id.SchoolID = sch.ID
		id.School = &sch
		return id, nil
	case !errors.Is(err, school.ErrNotFound):
		return Identity{}, pkgerrors.Wrap(err, "resolving school ownership")
	}

	t, err := r.teachers.GetTeacherByUserID(usr.ID)
	switch {
	case err == nil:
		id.Kind = Teacher
		id.SchoolID = t.SchoolID
		id.Teacher = &t
		return id, nil
	case !errors.Is(err, teacher.ErrNotFound):
		return Identity{}, pkgerrors.Wrap(err, "resolving teacher profile")
	}

	std, err := r.students.GetStudentByUserID(usr.ID)
	switch {
	case err == nil:
		id.Kind = Student
		id.SchoolID = std.SchoolID
		id.Student = &std
		return id, nil
	case !errors.Is(err, student.ErrStudentNotFound):
		return Identity{}, pkgerrors.Wrap(err, "resolving student profile")
	}

	if usr.IsSuperuser {
		id.Kind = Superuser
	}
	return id, nil
}
