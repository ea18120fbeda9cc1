package teacher

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"

	"github.com/shulehub/shule/core"
	"github.com/shulehub/shule/core/student"
	"github.com/shulehub/shule/core/user"
)

var (
	ErrNotFound           = errors.New("teacher not found")
	ErrEmployeeIDExists   = errors.New("a teacher with this employee ID already exists in your school")
	ErrAttendanceNotFound = errors.New("attendance record not found")
	ErrDuplicateRecord    = errors.New("attendance has already been recorded for this teacher on this date")
)

type (
	Repository interface {
		// CreateTeacher creates the login account, the teacher profile and the
		// class assignments in a single transaction.
		CreateTeacher(usr user.User, t Teacher, classIDs []uint) (Teacher, error)
		GetTeacherByCustomID(schoolID uint, customID string) (Teacher, error)
		GetTeacherByUserID(userID uint) (Teacher, error)
		GetTeachersBySchoolID(schoolID uint, filter Filter) ([]Teacher, error)
		UpdateTeacher(t Teacher) (Teacher, error)
		// DeleteTeacher removes the profile, its assignments and attendance,
		// and the backing login account.
		DeleteTeacher(t Teacher) error
		ReplaceClassAssignments(teacherID uint, classIDs []uint) error
		GetClassAssignments(teacherID uint) ([]ClassAssignment, error)
		SetTeacherUserPassword(userID uint, hash []byte) error
		CountTeachers(schoolID uint) (total, active int, err error)

		CreateAttendance(att Attendance) (Attendance, error)
		GetAttendanceByID(schoolID uint, id uint) (Attendance, error)
		GetAttendance(schoolID uint, filter AttendanceFilter) ([]Attendance, error)
		UpdateAttendance(att Attendance) (Attendance, error)
		DeleteAttendance(id uint) error
		CountAttendance(schoolID uint) (total, present int, err error)
	}

	// ClassDirectory resolves the school's classes; satisfied by the student
	// repository.
	ClassDirectory interface {
		GetClassByCustomID(schoolID uint, customID string) (student.Class, error)
	}

	Service struct {
		conf     *core.Config
		repo     Repository
		classes  ClassDirectory
		mailSvc  core.EmailService
		logger   core.Logger
		validate *validator.Validate
	}
)

func NewService(conf *core.Config, repo Repository, classes ClassDirectory, mailSvc core.EmailService, logger core.Logger, validate *validator.Validate) *Service {
	return &Service{
		conf:     conf,
		repo:     repo,
		classes:  classes,
		mailSvc:  mailSvc,
		logger:   logger,
		validate: validate,
	}
}

// Create onboards a teacher: a pre-verified login account, the profile and the
// class assignments are created atomically. When no password is supplied one
// is generated. The credentials email is best-effort; a failure is logged and
// does not undo the creation.
func (svc *Service) Create(schoolID uint, schoolName string, nt NewTeacher) (Teacher, error) {
	if err := nt.Validate(svc.validate); err != nil {
		return Teacher{}, err
	}
	classIDs, err := svc.resolveClassIDs(schoolID, nt.AssignedClasses)
	if err != nil {
		return Teacher{}, err
	}

	pwd := nt.Password
	if pwd == "" {
		pwd = core.RandomPassword(svc.conf.GeneratedPasswordLen)
	}

	now := time.Now().UTC()
	usr := user.User{
		Email:      nt.Email,
		FullName:   nt.FirstName + " " + nt.LastName,
		Role:       user.RoleTeacher,
		IsActive:   true,
		IsVerified: true, // admin-created accounts skip email verification
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err = usr.SetPassword(pwd); err != nil {
		return Teacher{}, pkgerrors.Wrap(err, "hashing password")
	}

	t, err := svc.repo.CreateTeacher(usr, Teacher{
		CustomID:                     core.NewCustomID("TCH"),
		SchoolID:                     schoolID,
		EmployeeID:                   nt.EmployeeID,
		FirstName:                    nt.FirstName,
		LastName:                     nt.LastName,
		DateOfBirth:                  nt.DateOfBirth,
		Gender:                       nt.Gender,
		PhoneNumber:                  nt.PhoneNumber,
		Address:                      nt.Address,
		State:                        nt.State,
		City:                         nt.City,
		EmergencyContactName:         nt.EmergencyContactName,
		EmergencyContactRelationship: nt.EmergencyContactRelationship,
		EmergencyContactPhone:        nt.EmergencyContactPhone,
		HighestCertificate:           nt.HighestCertificate,
		SchoolName:                   nt.SchoolName,
		GraduationYear:               nt.GraduationYear,
		PreviousWorkplace:            nt.PreviousWorkplace,
		JobTitle:                     nt.JobTitle,
		JobDuration:                  nt.JobDuration,
		JobReferenceContact:          nt.JobReferenceContact,
		JoiningDate:                  nt.JoiningDate,
		Salary:                       nt.Salary,
		IsActive:                     true,
		AccessLevel:                  nt.AccessLevel,
		CreatedAt:                    now,
		UpdatedAt:                    now,
	}, classIDs)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrEmailExists):
			return Teacher{}, core.NewValidationError(user.ErrEmailExists, core.FieldError{Field: "email", Error: user.ErrEmailExists.Error()})
		case errors.Is(err, ErrEmployeeIDExists):
			return Teacher{}, core.NewValidationError(nil, core.FieldError{Field: "employee_id", Error: ErrEmployeeIDExists.Error()})
		}
		return Teacher{}, pkgerrors.Wrap(err, "creating teacher")
	}

	if nt.SendCredentials == nil || *nt.SendCredentials {
		if err = svc.mailSvc.SendMessage(credentialsEmail(t.User.Email, pwd, t.FullName(), schoolName)); err != nil {
			svc.logger.Error(fmt.Sprintf("sending teacher credentials email: %v", err), err)
		}
	}
	return t, nil
}

func (svc *Service) Get(schoolID uint, customID string) (Teacher, error) {
	return svc.repo.GetTeacherByCustomID(schoolID, customID)
}

func (svc *Service) GetByUserID(userID uint) (Teacher, error) {
	return svc.repo.GetTeacherByUserID(userID)
}

func (svc *Service) List(schoolID uint, filter Filter) ([]Teacher, error) {
	return svc.repo.GetTeachersBySchoolID(schoolID, filter)
}

// Update modifies a teacher profile; a non-nil AssignedClasses replaces all
// class assignments.
func (svc *Service) Update(schoolID uint, customID string, u UpdateTeacher) (Teacher, error) {
	t, err := svc.repo.GetTeacherByCustomID(schoolID, customID)
	if err != nil {
		return Teacher{}, err
	}
	if err = u.Validate(svc.validate); err != nil {
		return Teacher{}, err
	}
	if u.FirstName != "" {
		t.FirstName = u.FirstName
	}
	if u.LastName != "" {
		t.LastName = u.LastName
	}
	if u.DateOfBirth != "" {
		t.DateOfBirth = u.DateOfBirth
	}
	if u.Gender != "" {
		t.Gender = u.Gender
	}
	if u.PhoneNumber != "" {
		t.PhoneNumber = u.PhoneNumber
	}
	if u.Address != "" {
		t.Address = u.Address
	}
	if u.State != "" {
		t.State = u.State
	}
	if u.City != "" {
		t.City = u.City
	}
	if u.EmergencyContactName != "" {
		t.EmergencyContactName = u.EmergencyContactName
	}
	if u.EmergencyContactRelationship != "" {
		t.EmergencyContactRelationship = u.EmergencyContactRelationship
	}
	if u.EmergencyContactPhone != "" {
		t.EmergencyContactPhone = u.EmergencyContactPhone
	}
	if u.HighestCertificate != "" {
		t.HighestCertificate = u.HighestCertificate
	}
	if u.SchoolName != "" {
		t.SchoolName = u.SchoolName
	}
	if u.GraduationYear != 0 {
		t.GraduationYear = u.GraduationYear
	}
	if u.PreviousWorkplace != "" {
		t.PreviousWorkplace = u.PreviousWorkplace
	}
	if u.JobTitle != "" {
		t.JobTitle = u.JobTitle
	}
	if u.JobDuration != "" {
		t.JobDuration = u.JobDuration
	}
	if u.JobReferenceContact != "" {
		t.JobReferenceContact = u.JobReferenceContact
	}
	if u.JoiningDate != "" {
		t.JoiningDate = u.JoiningDate
	}
	if u.Salary != nil {
		t.Salary = *u.Salary
	}
	if u.IsActive != nil {
		t.IsActive = *u.IsActive
	}
	if u.AccessLevel != "" {
		t.AccessLevel = u.AccessLevel
	}
	t.UpdatedAt = time.Now().UTC()

	if u.AssignedClasses != nil {
		classIDs, err := svc.resolveClassIDs(schoolID, *u.AssignedClasses)
		if err != nil {
			return Teacher{}, err
		}
		if err = svc.repo.ReplaceClassAssignments(t.ID, classIDs); err != nil {
			return Teacher{}, pkgerrors.Wrap(err, "replacing class assignments")
		}
	}
	return svc.repo.UpdateTeacher(t)
}

// UpdateOwnProfile lets a teacher modify the contact section of their profile.
func (svc *Service) UpdateOwnProfile(userID uint, up UpdateProfile) (Teacher, error) {
	t, err := svc.repo.GetTeacherByUserID(userID)
	if err != nil {
		return Teacher{}, err
	}
	if err = up.Validate(svc.validate); err != nil {
		return Teacher{}, err
	}
	if up.PhoneNumber != "" {
		t.PhoneNumber = up.PhoneNumber
	}
	if up.Address != "" {
		t.Address = up.Address
	}
	if up.State != "" {
		t.State = up.State
	}
	if up.City != "" {
		t.City = up.City
	}
	if up.EmergencyContactName != "" {
		t.EmergencyContactName = up.EmergencyContactName
	}
	if up.EmergencyContactRelationship != "" {
		t.EmergencyContactRelationship = up.EmergencyContactRelationship
	}
	if up.EmergencyContactPhone != "" {
		t.EmergencyContactPhone = up.EmergencyContactPhone
	}
	t.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateTeacher(t)
}

func (svc *Service) Delete(schoolID uint, customID string) error {
	t, err := svc.repo.GetTeacherByCustomID(schoolID, customID)
	if err != nil {
		return err
	}
	return svc.repo.DeleteTeacher(t)
}

// ListClassAssignments returns the classes the teacher teaches.
func (svc *Service) ListClassAssignments(teacherID uint) ([]ClassAssignment, error) {
	return svc.repo.GetClassAssignments(teacherID)
}

// AssignedClassIDs returns the raw class IDs the teacher is assigned to.
func (svc *Service) AssignedClassIDs(teacherID uint) ([]uint, error) {
	assignments, err := svc.repo.GetClassAssignments(teacherID)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(assignments))
	for _, a := range assignments {
		ids = append(ids, a.ClassID)
	}
	return ids, nil
}

// ResendCredentials resets the teacher's password and emails the new
// credentials. Unlike onboarding, the email is the point of this operation,
// so a send failure is returned to the caller.
func (svc *Service) ResendCredentials(schoolID uint, customID, schoolName string) (string, error) {
	t, err := svc.repo.GetTeacherByCustomID(schoolID, customID)
	if err != nil {
		return "", err
	}

	pwd := core.RandomPassword(svc.conf.GeneratedPasswordLen)
	var tmp user.User
	if err = tmp.SetPassword(pwd); err != nil {
		return "", pkgerrors.Wrap(err, "hashing password")
	}
	if err = svc.repo.SetTeacherUserPassword(t.UserID, tmp.PasswordHash); err != nil {
		return "", pkgerrors.Wrap(err, "resetting teacher password")
	}

	if err = svc.mailSvc.SendMessage(credentialsEmail(t.User.Email, pwd, t.FullName(), schoolName)); err != nil {
		return "", pkgerrors.Wrap(err, "sending teacher credentials email")
	}
	return t.User.Email, nil
}

// Dashboard returns staffing and attendance statistics for the school.
func (svc *Service) Dashboard(schoolID uint) (DashboardStats, error) {
	total, active, err := svc.repo.CountTeachers(schoolID)
	if err != nil {
		return DashboardStats{}, pkgerrors.Wrap(err, "counting teachers")
	}
	totalAtt, present, err := svc.repo.CountAttendance(schoolID)
	if err != nil {
		return DashboardStats{}, pkgerrors.Wrap(err, "counting attendance")
	}
	stats := DashboardStats{
		TotalTeachers:   total,
		ActiveTeachers:  active,
		TotalAttendance: totalAtt,
		PresentCount:    present,
	}
	if totalAtt > 0 {
		stats.AttendancePercentage = float64(present) / float64(totalAtt) * 100
	}
	return stats, nil
}

// ----------------------------------------------------------------------------
// Attendance

func (svc *Service) RecordAttendance(schoolID uint, na NewAttendance) (Attendance, error) {
	if err := na.Validate(svc.validate); err != nil {
		return Attendance{}, err
	}
	t, err := svc.repo.GetTeacherByCustomID(schoolID, na.TeacherID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Attendance{}, core.NewValidationError(nil, core.FieldError{Field: "teacher", Error: ErrNotFound.Error()})
		}
		return Attendance{}, pkgerrors.Wrap(err, "resolving teacher")
	}
	att, err := svc.repo.CreateAttendance(Attendance{
		TeacherID:   t.ID,
		Date:        na.Date,
		Present:     *na.Present,
		Remarks:     na.Remarks,
		CreatedAt:   time.Now().UTC(),
		TeacherName: t.FullName(),
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateRecord) {
			return Attendance{}, core.NewValidationError(ErrDuplicateRecord)
		}
		return Attendance{}, pkgerrors.Wrap(err, "recording attendance")
	}
	return att, nil
}

func (svc *Service) GetAttendanceRecord(schoolID uint, id uint) (Attendance, error) {
	return svc.repo.GetAttendanceByID(schoolID, id)
}

func (svc *Service) ListAttendance(schoolID uint, filter AttendanceFilter) ([]Attendance, error) {
	return svc.repo.GetAttendance(schoolID, filter)
}

func (svc *Service) UpdateAttendanceRecord(schoolID uint, id uint, ua UpdateAttendance) (Attendance, error) {
	att, err := svc.repo.GetAttendanceByID(schoolID, id)
	if err != nil {
		return Attendance{}, err
	}
	if ua.Present != nil {
		att.Present = *ua.Present
	}
	if ua.Remarks != "" {
		att.Remarks = core.CleanString(ua.Remarks)
	}
	return svc.repo.UpdateAttendance(att)
}

func (svc *Service) DeleteAttendanceRecord(schoolID uint, id uint) error {
	att, err := svc.repo.GetAttendanceByID(schoolID, id)
	if err != nil {
		return err
	}
	return svc.repo.DeleteAttendance(att.ID)
}

func (svc *Service) resolveClassIDs(schoolID uint, customIDs []string) ([]uint, error) {
	ids := make([]uint, 0, len(customIDs))
	for _, cid := range customIDs {
		cls, err := svc.classes.GetClassByCustomID(schoolID, cid)
		if err != nil {
			if errors.Is(err, student.ErrClassNotFound) {
				return nil, core.NewValidationError(nil, core.FieldError{
					Field: "assigned_classes",
					Error: fmt.Sprintf("class %q not found", cid),
				})
			}
			return nil, pkgerrors.Wrap(err, "resolving class")
		}
		ids = append(ids, cls.ID)
	}
	return ids, nil
}
