package tenant

import (
	"errors"
	"testing"

	"github.com/shulehub/shule/core/school"
	"github.com/shulehub/shule/core/student"
	"github.com/shulehub/shule/core/teacher"
	"github.com/shulehub/shule/core/user"
)

type stubSchools struct {
	sch school.School
	err error
}

func (s stubSchools) GetSchoolByAdminID(uint) (school.School, error) { return s.sch, s.err }

type stubTeachers struct {
	t   teacher.Teacher
	err error
}

func (s stubTeachers) GetTeacherByUserID(uint) (teacher.Teacher, error) { return s.t, s.err }

type stubStudents struct {
	std student.Student
	err error
}

func (s stubStudents) GetStudentByUserID(uint) (student.Student, error) { return s.std, s.err }

func TestResolver_Resolve(t *testing.T) {
	noSchool := stubSchools{err: school.ErrNotFound}
	noTeacher := stubTeachers{err: teacher.ErrNotFound}
	noStudent := stubStudents{err: student.ErrStudentNotFound}

	t.Run("school owner resolves as admin", func(t *testing.T) {
		r := NewResolver(stubSchools{sch: school.School{ID: 3}}, noTeacher, noStudent)
		id, err := r.Resolve(user.User{ID: 1})
		if err != nil {
			t.Fatalf("Resolve() failed: %v", err)
		}
		if id.Kind != Admin || id.SchoolID != 3 || id.School == nil {
			t.Errorf("identity = %+v; want admin of school 3", id)
		}
	})

	t.Run("teacher profile resolves as teacher", func(t *testing.T) {
		r := NewResolver(noSchool, stubTeachers{t: teacher.Teacher{ID: 9, SchoolID: 3}}, noStudent)
		id, err := r.Resolve(user.User{ID: 2})
		if err != nil {
			t.Fatalf("Resolve() failed: %v", err)
		}
		if id.Kind != Teacher || id.SchoolID != 3 || id.Teacher == nil {
			t.Errorf("identity = %+v; want teacher of school 3", id)
		}
	})

	t.Run("student profile resolves as student", func(t *testing.T) {
		r := NewResolver(noSchool, noTeacher, stubStudents{std: student.Student{ID: 5, SchoolID: 3}})
		id, err := r.Resolve(user.User{ID: 4})
		if err != nil {
			t.Fatalf("Resolve() failed: %v", err)
		}
		if id.Kind != Student || id.SchoolID != 3 || id.Student == nil {
			t.Errorf("identity = %+v; want student of school 3", id)
		}
	})

	t.Run("superuser without profiles", func(t *testing.T) {
		r := NewResolver(noSchool, noTeacher, noStudent)
		id, err := r.Resolve(user.User{ID: 6, IsSuperuser: true})
		if err != nil {
			t.Fatalf("Resolve() failed: %v", err)
		}
		if id.Kind != Superuser || id.HasTenant() {
			t.Errorf("identity = %+v; want superuser with no tenant", id)
		}
	})

	t.Run("no affiliation resolves as unaffiliated", func(t *testing.T) {
		r := NewResolver(noSchool, noTeacher, noStudent)
		id, err := r.Resolve(user.User{ID: 7})
		if err != nil {
			t.Fatalf("Resolve() failed: %v", err)
		}
		if id.Kind != Unaffiliated || id.HasTenant() {
			t.Errorf("identity = %+v; want unaffiliated", id)
		}
	})

	t.Run("school ownership precedes teacher profile", func(t *testing.T) {
		r := NewResolver(
			stubSchools{sch: school.School{ID: 3}},
			stubTeachers{t: teacher.Teacher{ID: 9, SchoolID: 4}},
			noStudent,
		)
		id, err := r.Resolve(user.User{ID: 8})
		if err != nil {
			t.Fatalf("Resolve() failed: %v", err)
		}
		if id.Kind != Admin || id.SchoolID != 3 {
			t.Errorf("identity = %+v; want admin of school 3", id)
		}
	})

	t.Run("lookup failure is an error, not a silent unaffiliated", func(t *testing.T) {
		boom := errors.New("connection refused")
		r := NewResolver(stubSchools{err: boom}, noTeacher, noStudent)
		if _, err := r.Resolve(user.User{ID: 9}); !errors.Is(err, boom) {
			t.Errorf("Resolve() error = %v; want wrapped %v", err, boom)
		}
	})
}
