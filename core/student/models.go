package student

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/shulehub/shule/core"
)

const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

var AllGenders = []string{GenderMale, GenderFemale, GenderOther}

// RegisterValidators registers the student-domain validation tags.
func RegisterValidators(validate *validator.Validate, translator ut.Translator) {
	core.RegisterOneOfValidation(validate, translator, "gender", "invalid gender", AllGenders)
}

// Class belongs to exactly one school; its name is unique within that school.
type Class struct {
	ID          uint      `gorm:"primaryKey" json:"-"`
	CustomID    string    `gorm:"uniqueIndex;size:12;not null" json:"id"`
	SchoolID    uint      `gorm:"not null;uniqueIndex:idx_school_class_name" json:"-"`
	Name        string    `gorm:"size:50;not null;uniqueIndex:idx_school_class_name" json:"class_name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	StudentCount int `gorm:"-" json:"student_count"`
}

// Student is scoped to one school and optionally assigned to one class.
// The registration number is unique system-wide.
type Student struct {
	ID                 uint      `gorm:"primaryKey" json:"-"`
	CustomID           string    `gorm:"uniqueIndex;size:12;not null" json:"id"`
	UserID             *uint     `gorm:"uniqueIndex" json:"-"`
	SchoolID           uint      `gorm:"index;not null" json:"-"`
	ClassID            *uint     `gorm:"index" json:"class_id,omitempty"`
	RegistrationNumber string    `gorm:"uniqueIndex;size:50;not null" json:"registration_number"`
	FirstName          string    `gorm:"size:100;not null" json:"first_name"`
	LastName           string    `gorm:"size:100;not null" json:"last_name"`
	DateOfBirth        string    `gorm:"size:10;not null" json:"date_of_birth"`
	Gender             string    `gorm:"size:10;not null" json:"gender"`
	Address            string    `gorm:"not null" json:"address"`
	ParentName         string    `gorm:"size:100;not null" json:"parent_name"`
	ParentPhone        string    `gorm:"size:20;not null" json:"parent_phone"`
	ParentEmail        string    `gorm:"size:255" json:"parent_email,omitempty"`
	AdmissionDate      string    `gorm:"size:10;not null" json:"admission_date"`
	IsActive           bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`

	ClassName string `gorm:"-" json:"class_name,omitempty"`
}

func (s Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

// Attendance holds one record per (student, date); enforced unique.
type Attendance struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StudentID uint      `gorm:"not null;uniqueIndex:idx_student_att_date" json:"student_id"`
	Date      string    `gorm:"size:10;not null;uniqueIndex:idx_student_att_date" json:"date"`
	Present   bool      `gorm:"not null;default:true" json:"is_present"`
	Remarks   string    `json:"remarks,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	StudentName string `gorm:"-" json:"student_name,omitempty"`
}

func (Attendance) TableName() string { return "student_attendances" }

// NewClass contains information needed to create a Class.
type NewClass struct {
	Name        string `json:"class_name" validate:"required,max=50"`
	Description string `json:"description"`
}

func (nc *NewClass) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Description = core.CleanString(nc.Description)
	return validate.Struct(nc)
}

// UpdateClass defines what may be modified on an existing Class.
type UpdateClass struct {
	Name        string `json:"class_name" validate:"omitempty,max=50"`
	Description string `json:"description"`
}

func (uc *UpdateClass) Validate(orig Class, validate *validator.Validate) error {
	if name := core.CleanString(uc.Name); name != "" {
		uc.Name = name
	} else {
		uc.Name = orig.Name
	}
	if desc := core.CleanString(uc.Description); desc != "" {
		uc.Description = desc
	} else {
		uc.Description = orig.Description
	}
	return validate.Struct(uc)
}

// NewStudent contains information needed to enroll a Student.
type NewStudent struct {
	RegistrationNumber string `json:"registration_number" validate:"required,max=50"`
	FirstName          string `json:"first_name" validate:"required"`
	LastName           string `json:"last_name" validate:"required"`
	DateOfBirth        string `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	Gender             string `json:"gender" validate:"required,gender"`
	Address            string `json:"address" validate:"required"`
	ParentName         string `json:"parent_name" validate:"required"`
	ParentPhone        string `json:"parent_phone" validate:"required,max=20"`
	ParentEmail        string `json:"parent_email" validate:"omitempty,email"`
	AdmissionDate      string `json:"admission_date" validate:"required,datetime=2006-01-02"`
	ClassID            string `json:"class_assigned"` // class custom ID
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.RegistrationNumber = core.CleanString(ns.RegistrationNumber)
	ns.FirstName = core.CleanString(ns.FirstName)
	ns.LastName = core.CleanString(ns.LastName)
	ns.ParentEmail = core.CleanString(ns.ParentEmail, true /* lower */)
	return validate.Struct(ns)
}

// UpdateStudent defines what may be modified on an existing Student.
type UpdateStudent struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	DateOfBirth   string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Gender        string `json:"gender" validate:"omitempty,gender"`
	Address       string `json:"address"`
	ParentName    string `json:"parent_name"`
	ParentPhone   string `json:"parent_phone" validate:"omitempty,max=20"`
	ParentEmail   string `json:"parent_email" validate:"omitempty,email"`
	AdmissionDate string `json:"admission_date" validate:"omitempty,datetime=2006-01-02"`
	ClassID       *string `json:"class_assigned"` // class custom ID; empty string unassigns
	IsActive      *bool   `json:"is_active"`
}

func (us *UpdateStudent) Validate(validate *validator.Validate) error {
	us.FirstName = core.CleanString(us.FirstName)
	us.LastName = core.CleanString(us.LastName)
	us.ParentEmail = core.CleanString(us.ParentEmail, true /* lower */)
	return validate.Struct(us)
}

// NewAttendance records presence for one student on one date.
type NewAttendance struct {
	StudentID string `json:"student" validate:"required"` // student custom ID
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Present   *bool  `json:"is_present" validate:"required"`
	Remarks   string `json:"remarks"`
}

func (na *NewAttendance) Validate(validate *validator.Validate) error {
	na.StudentID = core.CleanString(na.StudentID)
	na.Remarks = core.CleanString(na.Remarks)
	return validate.Struct(na)
}

// UpdateAttendance defines what may be modified on an attendance record.
type UpdateAttendance struct {
	Present *bool  `json:"is_present"`
	Remarks string `json:"remarks"`
}

// AttendanceFilter narrows attendance listings.
type AttendanceFilter struct {
	Date      string `query:"date"`
	Present   *bool  `query:"is_present"`
	StudentID string `query:"student"` // student custom ID
}
