package student

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"

	"github.com/shulehub/shule/core"
)

var (
	ErrClassNotFound      = errors.New("class not found")
	ErrStudentNotFound    = errors.New("student not found")
	ErrAttendanceNotFound = errors.New("attendance record not found")
	ErrClassNameExists    = errors.New("a class with this name already exists in your school")
	ErrRegNumberExists    = errors.New("a student with this registration number already exists")
	ErrDuplicateRecord    = errors.New("attendance has already been recorded for this student on this date")
)

type (
	Repository interface {
		CreateClass(cls Class) (Class, error)
		GetClassByCustomID(schoolID uint, customID string) (Class, error)
		GetClassesBySchoolID(schoolID uint, ids ...uint) ([]Class, error)
		UpdateClass(cls Class) (Class, error)
		DeleteClass(id uint) error

		CreateStudent(std Student) (Student, error)
		GetStudentByCustomID(schoolID uint, customID string) (Student, error)
		GetStudentByUserID(userID uint) (Student, error)
		GetStudentsBySchoolID(schoolID uint, classIDs ...uint) ([]Student, error)
		UpdateStudent(std Student) (Student, error)
		DeleteStudent(id uint) error
		CountStudents(schoolID uint, classIDs ...uint) (int, error)

		CreateAttendance(att Attendance) (Attendance, error)
		GetAttendanceByID(schoolID uint, id uint, classIDs ...uint) (Attendance, error)
		GetAttendance(schoolID uint, filter AttendanceFilter, classIDs ...uint) ([]Attendance, error)
		UpdateAttendance(att Attendance) (Attendance, error)
		DeleteAttendance(id uint) error
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{
		repo:     repo,
		validate: validate,
	}
}

// ----------------------------------------------------------------------------
// Classes

func (svc *Service) CreateClass(schoolID uint, nc NewClass) (Class, error) {
	if err := nc.Validate(svc.validate); err != nil {
		return Class{}, err
	}
	now := time.Now().UTC()
	cls, err := svc.repo.CreateClass(Class{
		CustomID:    core.NewCustomID("CLS"),
		SchoolID:    schoolID,
		Name:        nc.Name,
		Description: nc.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		if errors.Is(err, ErrClassNameExists) {
			return Class{}, core.NewValidationError(nil, core.FieldError{Field: "class_name", Error: ErrClassNameExists.Error()})
		}
		return Class{}, pkgerrors.Wrap(err, "creating class")
	}
	return cls, nil
}

func (svc *Service) GetClass(schoolID uint, customID string) (Class, error) {
	return svc.repo.GetClassByCustomID(schoolID, customID)
}

// ListClasses returns the school's classes. A non-empty classIDs narrows the
// result to those classes (used for class-restricted teachers).
func (svc *Service) ListClasses(schoolID uint, classIDs ...uint) ([]Class, error) {
	return svc.repo.GetClassesBySchoolID(schoolID, classIDs...)
}

func (svc *Service) UpdateClass(schoolID uint, customID string, uc UpdateClass) (Class, error) {
	cls, err := svc.repo.GetClassByCustomID(schoolID, customID)
	if err != nil {
		return Class{}, err
	}
	if err = uc.Validate(cls, svc.validate); err != nil {
		return Class{}, err
	}
	cls.Name = uc.Name
	cls.Description = uc.Description
	cls.UpdatedAt = time.Now().UTC()
	cls, err = svc.repo.UpdateClass(cls)
	if err != nil {
		if errors.Is(err, ErrClassNameExists) {
			return Class{}, core.NewValidationError(nil, core.FieldError{Field: "class_name", Error: ErrClassNameExists.Error()})
		}
		return Class{}, pkgerrors.Wrap(err, "updating class")
	}
	return cls, nil
}

func (svc *Service) DeleteClass(schoolID uint, customID string) error {
	cls, err := svc.repo.GetClassByCustomID(schoolID, customID)
	if err != nil {
		return err
	}
	return svc.repo.DeleteClass(cls.ID)
}

// ----------------------------------------------------------------------------
// Students

func (svc *Service) CreateStudent(schoolID uint, ns NewStudent) (Student, error) {
	if err := ns.Validate(svc.validate); err != nil {
		return Student{}, err
	}
	std := Student{
		CustomID:           core.NewCustomID("STU"),
		SchoolID:           schoolID,
		RegistrationNumber: ns.RegistrationNumber,
		FirstName:          ns.FirstName,
		LastName:           ns.LastName,
		DateOfBirth:        ns.DateOfBirth,
		Gender:             ns.Gender,
		Address:            ns.Address,
		ParentName:         ns.ParentName,
		ParentPhone:        ns.ParentPhone,
		ParentEmail:        ns.ParentEmail,
		AdmissionDate:      ns.AdmissionDate,
		IsActive:           true,
	}
	if ns.ClassID != "" {
		cls, err := svc.repo.GetClassByCustomID(schoolID, ns.ClassID)
		if err != nil {
			if errors.Is(err, ErrClassNotFound) {
				return Student{}, core.NewValidationError(nil, core.FieldError{Field: "class_assigned", Error: ErrClassNotFound.Error()})
			}
			return Student{}, pkgerrors.Wrap(err, "resolving class")
		}
		std.ClassID = &cls.ID
		std.ClassName = cls.Name
	}
	now := time.Now().UTC()
	std.CreatedAt, std.UpdatedAt = now, now

	std, err := svc.repo.CreateStudent(std)
	if err != nil {
		if errors.Is(err, ErrRegNumberExists) {
			return Student{}, core.NewValidationError(nil, core.FieldError{Field: "registration_number", Error: ErrRegNumberExists.Error()})
		}
		return Student{}, pkgerrors.Wrap(err, "creating student")
	}
	return std, nil
}

func (svc *Service) GetStudent(schoolID uint, customID string) (Student, error) {
	return svc.repo.GetStudentByCustomID(schoolID, customID)
}

// ListStudents returns the school's students. A non-empty classIDs narrows the
// result to students assigned to those classes.
func (svc *Service) ListStudents(schoolID uint, classIDs ...uint) ([]Student, error) {
	return svc.repo.GetStudentsBySchoolID(schoolID, classIDs...)
}

func (svc *Service) CountStudents(schoolID uint, classIDs ...uint) (int, error) {
	return svc.repo.CountStudents(schoolID, classIDs...)
}

func (svc *Service) UpdateStudent(schoolID uint, customID string, us UpdateStudent) (Student, error) {
	std, err := svc.repo.GetStudentByCustomID(schoolID, customID)
	if err != nil {
		return Student{}, err
	}
	if err = us.Validate(svc.validate); err != nil {
		return Student{}, err
	}
	if us.FirstName != "" {
		std.FirstName = us.FirstName
	}
	if us.LastName != "" {
		std.LastName = us.LastName
	}
	if us.DateOfBirth != "" {
		std.DateOfBirth = us.DateOfBirth
	}
	if us.Gender != "" {
		std.Gender = us.Gender
	}
	if us.Address != "" {
		std.Address = us.Address
	}
	if us.ParentName != "" {
		std.ParentName = us.ParentName
	}
	if us.ParentPhone != "" {
		std.ParentPhone = us.ParentPhone
	}
	if us.ParentEmail != "" {
		std.ParentEmail = us.ParentEmail
	}
	if us.AdmissionDate != "" {
		std.AdmissionDate = us.AdmissionDate
	}
	if us.IsActive != nil {
		std.IsActive = *us.IsActive
	}
	if us.ClassID != nil {
		if *us.ClassID == "" {
			std.ClassID = nil
			std.ClassName = ""
		} else {
			cls, err := svc.repo.GetClassByCustomID(schoolID, *us.ClassID)
			if err != nil {
				if errors.Is(err, ErrClassNotFound) {
					return Student{}, core.NewValidationError(nil, core.FieldError{Field: "class_assigned", Error: ErrClassNotFound.Error()})
				}
				return Student{}, pkgerrors.Wrap(err, "resolving class")
			}
			std.ClassID = &cls.ID
			std.ClassName = cls.Name
		}
	}
	std.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateStudent(std)
}

func (svc *Service) DeleteStudent(schoolID uint, customID string) error {
	std, err := svc.repo.GetStudentByCustomID(schoolID, customID)
	if err != nil {
		return err
	}
	return svc.repo.DeleteStudent(std.ID)
}

// ----------------------------------------------------------------------------
// Attendance

func (svc *Service) RecordAttendance(schoolID uint, na NewAttendance) (Attendance, error) {
	if err := na.Validate(svc.validate); err != nil {
		return Attendance{}, err
	}
	std, err := svc.repo.GetStudentByCustomID(schoolID, na.StudentID)
	if err != nil {
		if errors.Is(err, ErrStudentNotFound) {
			return Attendance{}, core.NewValidationError(nil, core.FieldError{Field: "student", Error: ErrStudentNotFound.Error()})
		}
		return Attendance{}, pkgerrors.Wrap(err, "resolving student")
	}
	att, err := svc.repo.CreateAttendance(Attendance{
		StudentID:   std.ID,
		Date:        na.Date,
		Present:     *na.Present,
		Remarks:     na.Remarks,
		CreatedAt:   time.Now().UTC(),
		StudentName: std.FullName(),
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateRecord) {
			return Attendance{}, core.NewValidationError(ErrDuplicateRecord)
		}
		return Attendance{}, pkgerrors.Wrap(err, "recording attendance")
	}
	return att, nil
}

// GetAttendanceRecord finds one record. A non-empty classIDs narrows the
// lookup to students of those classes; out-of-class records read as not found.
func (svc *Service) GetAttendanceRecord(schoolID uint, id uint, classIDs ...uint) (Attendance, error) {
	return svc.repo.GetAttendanceByID(schoolID, id, classIDs...)
}

// ListAttendance returns attendance records for the school's students,
// filtered and optionally narrowed to students of the given classes.
func (svc *Service) ListAttendance(schoolID uint, filter AttendanceFilter, classIDs ...uint) ([]Attendance, error) {
	return svc.repo.GetAttendance(schoolID, filter, classIDs...)
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
