package teacher

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/shulehub/shule/core"
	"github.com/shulehub/shule/core/user"
)

// Access levels control how much of the school a teacher can see.
const (
	AccessFull      = "full"
	AccessLimited   = "limited"
	AccessClassOnly = "class_only"
)

var AllAccessLevels = []string{AccessFull, AccessLimited, AccessClassOnly}

var AllGenders = []string{"male", "female", "other"}

// RegisterValidators registers the teacher-domain validation tags.
func RegisterValidators(validate *validator.Validate, translator ut.Translator) {
	core.RegisterOneOfValidation(validate, translator, "accesslevel", "invalid access level", AllAccessLevels)
	core.RegisterOneOfValidation(validate, translator, "gender", "invalid gender", AllGenders)
}

// Teacher is a school staff profile backed by a login account.
// The employee ID is unique within the school.
type Teacher struct {
	ID       uint   `gorm:"primaryKey" json:"-"`
	CustomID string `gorm:"uniqueIndex;size:12;not null" json:"id"`
	UserID   uint   `gorm:"uniqueIndex;not null" json:"-"`
	SchoolID uint   `gorm:"not null;uniqueIndex:idx_school_employee" json:"-"`

	EmployeeID  string `gorm:"size:50;not null;uniqueIndex:idx_school_employee" json:"employee_id"`
	FirstName   string `gorm:"size:100;not null" json:"first_name"`
	LastName    string `gorm:"size:100;not null" json:"last_name"`
	DateOfBirth string `gorm:"size:10;not null" json:"date_of_birth"`
	Gender      string `gorm:"size:10;not null" json:"gender"`

	PhoneNumber string `gorm:"size:20;not null" json:"phone_number"`
	Address     string `gorm:"not null" json:"address"`
	State       string `gorm:"size:50;not null" json:"state"`
	City        string `gorm:"size:50;not null" json:"city"`

	EmergencyContactName         string `gorm:"size:100;not null" json:"emergency_contact_name"`
	EmergencyContactRelationship string `gorm:"size:50;not null" json:"emergency_contact_relationship"`
	EmergencyContactPhone        string `gorm:"size:20;not null" json:"emergency_contact_phone"`

	HighestCertificate string `gorm:"size:100;not null" json:"highest_certificate"`
	SchoolName         string `gorm:"size:200;not null" json:"school_name"` // institution that issued the certificate
	GraduationYear     int    `gorm:"not null" json:"graduation_year"`

	PreviousWorkplace   string `gorm:"size:200" json:"previous_workplace,omitempty"`
	JobTitle            string `gorm:"size:100" json:"job_title,omitempty"`
	JobDuration         string `gorm:"size:50" json:"job_duration,omitempty"`
	JobReferenceContact string `gorm:"size:100" json:"job_reference_contact,omitempty"`

	JoiningDate string  `gorm:"size:10;not null" json:"joining_date"`
	Salary      float64 `gorm:"type:numeric(10,2);not null" json:"salary"`
	IsActive    bool    `gorm:"not null;default:true" json:"is_active"`
	AccessLevel string  `gorm:"size:10;not null;default:'limited'" json:"access_level"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User            user.User         `gorm:"foreignKey:UserID" json:"user"`
	AssignedClasses []ClassAssignment `gorm:"foreignKey:TeacherID" json:"assigned_classes"`
}

func (t Teacher) FullName() string {
	return t.FirstName + " " + t.LastName
}

// ClassAssignment links a teacher to one of the school's classes;
// unique per (teacher, class).
type ClassAssignment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TeacherID uint      `gorm:"not null;uniqueIndex:idx_teacher_class" json:"-"`
	ClassID   uint      `gorm:"not null;uniqueIndex:idx_teacher_class" json:"assigned_class"`
	IsPrimary bool      `gorm:"not null;default:false" json:"is_primary"`
	CreatedAt time.Time `json:"-"`

	ClassName string `gorm:"-" json:"class_name,omitempty"`
}

// Attendance holds one record per (teacher, date); enforced unique.
type Attendance struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TeacherID uint      `gorm:"not null;uniqueIndex:idx_teacher_att_date" json:"teacher_id"`
	Date      string    `gorm:"size:10;not null;uniqueIndex:idx_teacher_att_date" json:"date"`
	Present   bool      `gorm:"not null;default:true" json:"is_present"`
	Remarks   string    `json:"remarks,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	TeacherName string `gorm:"-" json:"teacher_name,omitempty"`
}

func (Attendance) TableName() string { return "teacher_attendances" }

// NewTeacher contains information needed to onboard a Teacher, including the
// login account that is created alongside the profile.
type NewTeacher struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password"` // generated when empty

	EmployeeID  string `json:"employee_id" validate:"required,max=50"`
	FirstName   string `json:"first_name" validate:"required"`
	LastName    string `json:"last_name" validate:"required"`
	DateOfBirth string `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	Gender      string `json:"gender" validate:"required,gender"`

	PhoneNumber string `json:"phone_number" validate:"required,max=20"`
	Address     string `json:"address" validate:"required"`
	State       string `json:"state" validate:"required,max=50"`
	City        string `json:"city" validate:"required,max=50"`

	EmergencyContactName         string `json:"emergency_contact_name" validate:"required"`
	EmergencyContactRelationship string `json:"emergency_contact_relationship" validate:"required,max=50"`
	EmergencyContactPhone        string `json:"emergency_contact_phone" validate:"required,max=20"`

	HighestCertificate string `json:"highest_certificate" validate:"required"`
	SchoolName         string `json:"school_name" validate:"required"`
	GraduationYear     int    `json:"graduation_year" validate:"required"`

	PreviousWorkplace   string `json:"previous_workplace"`
	JobTitle            string `json:"job_title"`
	JobDuration         string `json:"job_duration"`
	JobReferenceContact string `json:"job_reference_contact"`

	JoiningDate string  `json:"joining_date" validate:"required,datetime=2006-01-02"`
	Salary      float64 `json:"salary" validate:"required"`
	AccessLevel string  `json:"access_level" validate:"omitempty,accesslevel"`

	AssignedClasses []string `json:"assigned_classes"` // class custom IDs
	SendCredentials *bool    `json:"send_credentials"` // defaults to true
}

func (nt *NewTeacher) Validate(validate *validator.Validate) error {
	nt.Email = core.CleanString(nt.Email, true /* lower */)
	nt.EmployeeID = core.CleanString(nt.EmployeeID)
	nt.FirstName = core.CleanString(nt.FirstName)
	nt.LastName = core.CleanString(nt.LastName)
	if nt.AccessLevel == "" {
		nt.AccessLevel = AccessLimited
	}
	return validate.Struct(nt)
}

// UpdateTeacher defines what an admin may modify on an existing Teacher.
// A non-nil AssignedClasses replaces all class assignments.
type UpdateTeacher struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	DateOfBirth string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Gender      string `json:"gender" validate:"omitempty,gender"`

	PhoneNumber string `json:"phone_number" validate:"omitempty,max=20"`
	Address     string `json:"address"`
	State       string `json:"state" validate:"omitempty,max=50"`
	City        string `json:"city" validate:"omitempty,max=50"`

	EmergencyContactName         string `json:"emergency_contact_name"`
	EmergencyContactRelationship string `json:"emergency_contact_relationship" validate:"omitempty,max=50"`
	EmergencyContactPhone        string `json:"emergency_contact_phone" validate:"omitempty,max=20"`

	HighestCertificate string `json:"highest_certificate"`
	SchoolName         string `json:"school_name"`
	GraduationYear     int    `json:"graduation_year"`

	PreviousWorkplace   string `json:"previous_workplace"`
	JobTitle            string `json:"job_title"`
	JobDuration         string `json:"job_duration"`
	JobReferenceContact string `json:"job_reference_contact"`

	JoiningDate string   `json:"joining_date" validate:"omitempty,datetime=2006-01-02"`
	Salary      *float64 `json:"salary"`
	IsActive    *bool    `json:"is_active"`
	AccessLevel string   `json:"access_level" validate:"omitempty,accesslevel"`

	AssignedClasses *[]string `json:"assigned_classes"` // class custom IDs
}

func (u *UpdateTeacher) Validate(validate *validator.Validate) error {
	u.FirstName = core.CleanString(u.FirstName)
	u.LastName = core.CleanString(u.LastName)
	return validate.Struct(u)
}

// UpdateProfile defines what a teacher may modify on their own profile.
type UpdateProfile struct {
	PhoneNumber string `json:"phone_number" validate:"omitempty,max=20"`
	Address     string `json:"address"`
	State       string `json:"state" validate:"omitempty,max=50"`
	City        string `json:"city" validate:"omitempty,max=50"`

	EmergencyContactName         string `json:"emergency_contact_name"`
	EmergencyContactRelationship string `json:"emergency_contact_relationship" validate:"omitempty,max=50"`
	EmergencyContactPhone        string `json:"emergency_contact_phone" validate:"omitempty,max=20"`
}

func (up *UpdateProfile) Validate(validate *validator.Validate) error {
	return validate.Struct(up)
}

// NewAttendance records presence for one teacher on one date.
type NewAttendance struct {
	TeacherID string `json:"teacher" validate:"required"` // teacher custom ID
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Present   *bool  `json:"is_present" validate:"required"`
	Remarks   string `json:"remarks"`
}

func (na *NewAttendance) Validate(validate *validator.Validate) error {
	na.TeacherID = core.CleanString(na.TeacherID)
	na.Remarks = core.CleanString(na.Remarks)
	return validate.Struct(na)
}

// UpdateAttendance defines what may be modified on an attendance record.
type UpdateAttendance struct {
	Present *bool  `json:"is_present"`
	Remarks string `json:"remarks"`
}

// Filter narrows teacher listings.
type Filter struct {
	IsActive    *bool  `query:"is_active"`
	Gender      string `query:"gender"`
	AccessLevel string `query:"access_level"`
}

// AttendanceFilter narrows teacher attendance listings.
type AttendanceFilter struct {
	Date      string `query:"date"`
	Present   *bool  `query:"is_present"`
	TeacherID string `query:"teacher"` // teacher custom ID
}

// DashboardStats summarizes the school's teaching staff.
type DashboardStats struct {
	TotalTeachers        int     `json:"total_teachers"`
	ActiveTeachers       int     `json:"active_teachers"`
	TotalAttendance      int     `json:"total_attendance"`
	PresentCount         int     `json:"present_count"`
	AttendancePercentage float64 `json:"attendance_percentage"`
}
