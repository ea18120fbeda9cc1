package teacher_test

import (
	"log"
	"os"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/shulehub/shule/core"
	"github.com/shulehub/shule/core/student"
	"github.com/shulehub/shule/core/teacher"
	"github.com/shulehub/shule/core/user"
	emailsvc "github.com/shulehub/shule/services/email"
	logsvc "github.com/shulehub/shule/services/logger"
	inmemdb "github.com/shulehub/shule/storage/database/inmem"
)

type testEnv struct {
	svc     *teacher.Service
	stdSvc  *student.Service
	usrRepo user.Repository
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	emailsvc.ClearSentMessages()

	conf := core.NewTestConfig()
	validate := validator.New()
	enLoc := en.New()
	uni := ut.New(enLoc, enLoc)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)
	user.RegisterValidators(validate, translator)
	student.RegisterValidators(validate, translator)
	teacher.RegisterValidators(validate, translator)

	db := inmemdb.NewDB()
	stdRepo := inmemdb.NewStudentRepository(db)
	tchRepo := inmemdb.NewTeacherRepository(db)
	usrRepo := inmemdb.NewUserRepository(db)
	mock := emailsvc.NewConsoleServiceMock(conf)
	logger := logsvc.NewStdLogger(log.New(os.Stderr, "", log.LstdFlags))

	return &testEnv{
		svc:     teacher.NewService(conf, tchRepo, stdRepo, mock, logger, validate),
		stdSvc:  student.NewService(stdRepo, validate),
		usrRepo: usrRepo,
	}
}

func newTeacher(email, employeeID, accessLevel string, classIDs ...string) teacher.NewTeacher {
	return teacher.NewTeacher{
		Email:                        email,
		EmployeeID:                   employeeID,
		FirstName:                    "Asha",
		LastName:                     "Mwangi",
		DateOfBirth:                  "1990-04-12",
		Gender:                       "female",
		PhoneNumber:                  "+255700000001",
		Address:                      "12 Uhuru St",
		State:                        "Dar es Salaam",
		City:                         "Kinondoni",
		EmergencyContactName:         "Juma Mwangi",
		EmergencyContactRelationship: "spouse",
		EmergencyContactPhone:        "+255700000002",
		HighestCertificate:           "B.Ed",
		SchoolName:                   "University of Dodoma",
		GraduationYear:               2012,
		JoiningDate:                  "2020-01-15",
		Salary:                       850000,
		AccessLevel:                  accessLevel,
		AssignedClasses:              classIDs,
	}
}

func TestService_Create(t *testing.T) {
	env := setup(t)
	const schoolID = 1

	cls, err := env.stdSvc.CreateClass(schoolID, student.NewClass{Name: "P1"})
	if err != nil {
		t.Fatal(err)
	}

	t.Run("creates a pre-verified login with a generated password", func(t *testing.T) {
		tch, err := env.svc.Create(schoolID, "Amani Academy", newTeacher("asha@test.local", "EMP-1", "full", cls.CustomID))
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if tch.CustomID[:4] != "TCH-" {
			t.Errorf("CustomID = %q; want TCH- prefix", tch.CustomID)
		}

		usr, err := env.usrRepo.GetUserByEmail("asha@test.local")
		if err != nil {
			t.Fatalf("GetUserByEmail() error = %v", err)
		}
		if usr.Role != user.RoleTeacher || !usr.IsVerified {
			t.Errorf("user = %+v; want a verified teacher account", usr)
		}

		if len(emailsvc.SentMessages) != 1 {
			t.Fatalf("sent %d emails; want 1", len(emailsvc.SentMessages))
		}

		ids, err := env.svc.AssignedClassIDs(tch.ID)
		if err != nil {
			t.Fatalf("AssignedClassIDs() error = %v", err)
		}
		if len(ids) != 1 || ids[0] != cls.ID {
			t.Errorf("AssignedClassIDs = %v; want [%d]", ids, cls.ID)
		}
	})

	t.Run("explicit password is kept", func(t *testing.T) {
		_, err := env.svc.Create(schoolID, "Amani Academy", func() teacher.NewTeacher {
			nt := newTeacher("juma@test.local", "EMP-2", "limited")
			nt.Password = "Expl1cit!pwd"
			return nt
		}())
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		usr, err := env.usrRepo.GetUserByEmail("juma@test.local")
		if err != nil {
			t.Fatal(err)
		}
		if err := usr.CheckPassword("Expl1cit!pwd"); err != nil {
			t.Errorf("CheckPassword() error = %v", err)
		}
	})

	t.Run("unknown class assignment", func(t *testing.T) {
		_, err := env.svc.Create(schoolID, "Amani Academy", newTeacher("x@test.local", "EMP-3", "full", "CLS-DEADBEEF"))
		if _, ok := errors.Cause(err).(*core.ValidationError); !ok {
			t.Fatalf("error = %v; want a validation error", err)
		}
	})

	t.Run("duplicate employee ID", func(t *testing.T) {
		_, err := env.svc.Create(schoolID, "Amani Academy", newTeacher("y@test.local", "EMP-1", "full"))
		if _, ok := errors.Cause(err).(*core.ValidationError); !ok {
			t.Fatalf("error = %v; want a validation error", err)
		}
	})

	t.Run("credentials email can be suppressed", func(t *testing.T) {
		emailsvc.ClearSentMessages()
		send := false
		nt := newTeacher("quiet@test.local", "EMP-4", "limited")
		nt.SendCredentials = &send
		if _, err := env.svc.Create(schoolID, "Amani Academy", nt); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if len(emailsvc.SentMessages) != 0 {
			t.Errorf("sent %d emails; want 0", len(emailsvc.SentMessages))
		}
	})
}

func TestService_Dashboard(t *testing.T) {
	env := setup(t)
	const schoolID = 1

	t.Run("empty school", func(t *testing.T) {
		stats, err := env.svc.Dashboard(schoolID)
		if err != nil {
			t.Fatalf("Dashboard() error = %v", err)
		}
		if stats.TotalTeachers != 0 || stats.AttendancePercentage != 0 {
			t.Errorf("stats = %+v; want zeroes", stats)
		}
	})

	t.Run("counts and percentage", func(t *testing.T) {
		a, err := env.svc.Create(schoolID, "S", newTeacher("a@test.local", "EMP-1", "full"))
		if err != nil {
			t.Fatal(err)
		}
		b, err := env.svc.Create(schoolID, "S", newTeacher("b@test.local", "EMP-2", "limited"))
		if err != nil {
			t.Fatal(err)
		}

		present, absent := true, false
		if _, err = env.svc.RecordAttendance(schoolID, teacher.NewAttendance{TeacherID: a.CustomID, Date: "2024-03-01", Present: &present}); err != nil {
			t.Fatal(err)
		}
		if _, err = env.svc.RecordAttendance(schoolID, teacher.NewAttendance{TeacherID: b.CustomID, Date: "2024-03-01", Present: &absent}); err != nil {
			t.Fatal(err)
		}

		stats, err := env.svc.Dashboard(schoolID)
		if err != nil {
			t.Fatalf("Dashboard() error = %v", err)
		}
		if stats.TotalTeachers != 2 || stats.ActiveTeachers != 2 {
			t.Errorf("teachers = %d/%d; want 2/2", stats.ActiveTeachers, stats.TotalTeachers)
		}
		if stats.TotalAttendance != 2 || stats.PresentCount != 1 {
			t.Errorf("attendance = %d/%d; want 1/2", stats.PresentCount, stats.TotalAttendance)
		}
		if stats.AttendancePercentage != 50 {
			t.Errorf("percentage = %v; want 50", stats.AttendancePercentage)
		}
	})
}

func TestService_ResendCredentials(t *testing.T) {
	env := setup(t)
	const schoolID = 1

	tch, err := env.svc.Create(schoolID, "Amani Academy", newTeacher("rc@test.local", "EMP-1", "limited"))
	if err != nil {
		t.Fatal(err)
	}

	email, err := env.svc.ResendCredentials(schoolID, tch.CustomID, "Amani Academy")
	if err != nil {
		t.Fatalf("ResendCredentials() error = %v", err)
	}
	if email != "rc@test.local" {
		t.Errorf("email = %q", email)
	}
	if len(emailsvc.SentMessages) != 2 {
		t.Errorf("sent %d emails; want 2", len(emailsvc.SentMessages))
	}

	if _, err := env.svc.ResendCredentials(schoolID, "TCH-DEADBEEF", "Amani Academy"); err == nil {
		t.Error("ResendCredentials() accepted an unknown teacher")
	}
}

func TestService_UpdateOwnProfile(t *testing.T) {
	env := setup(t)
	const schoolID = 1

	tch, err := env.svc.Create(schoolID, "Amani Academy", newTeacher("own@test.local", "EMP-1", "limited"))
	if err != nil {
		t.Fatal(err)
	}

	updated, err := env.svc.UpdateOwnProfile(tch.UserID, teacher.UpdateProfile{PhoneNumber: "+255711111111", City: "Arusha"})
	if err != nil {
		t.Fatalf("UpdateOwnProfile() error = %v", err)
	}
	if updated.PhoneNumber != "+255711111111" || updated.City != "Arusha" {
		t.Errorf("profile = %+v", updated)
	}
	// untouched fields survive
	if updated.State != "Dar es Salaam" {
		t.Errorf("State = %q; want unchanged", updated.State)
	}

	if _, err := env.svc.UpdateOwnProfile(99999, teacher.UpdateProfile{}); !errors.Is(err, teacher.ErrNotFound) {
		t.Errorf("error = %v; want ErrNotFound", err)
	}
}
