package school

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/shulehub/shule/core"
)

// School types (grade bands).
const (
	TypeNursery                 = "nursery school"
	TypePrimary                 = "primary school"
	TypeSecondary               = "secondary school"
	TypeNurseryPrimary          = "nursery, primary school"
	TypeNurseryPrimarySecondary = "nursery, primary, secondary school"
)

var AllTypes = []string{
	TypeNursery,
	TypePrimary,
	TypeSecondary,
	TypeNurseryPrimary,
	TypeNurseryPrimarySecondary,
}

// RegisterValidators registers the school-domain validation tags.
func RegisterValidators(validate *validator.Validate, translator ut.Translator) {
	core.RegisterOneOfValidation(validate, translator, "schooltype", "invalid school type", AllTypes)
}

// School is the tenant: every class, teacher, student and attendance record
// is scoped to exactly one School. Owned by exactly one admin user.
type School struct {
	ID          uint      `gorm:"primaryKey" json:"-"`
	CustomID    string    `gorm:"uniqueIndex;size:12;not null" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:255;not null" json:"school_name"`
	Address     string    `gorm:"not null" json:"address"`
	Description string    `json:"description"`
	Type        string    `gorm:"size:100;not null;default:'nursery school'" json:"school_type"`
	AdminID     uint      `gorm:"uniqueIndex;not null" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewSchool contains information needed to register a new School.
type NewSchool struct {
	Name        string `json:"school_name" validate:"required"`
	Address     string `json:"address" validate:"required"`
	Description string `json:"description"`
	Type        string `json:"school_type" validate:"required,schooltype"`
}

func (ns *NewSchool) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Address = core.CleanString(ns.Address)
	ns.Description = core.CleanString(ns.Description)
	return validate.Struct(ns)
}

// UpdateSchool defines what may be modified on an existing School.
type UpdateSchool struct {
	Name        string `json:"school_name"`
	Address     string `json:"address"`
	Description string `json:"description"`
	Type        string `json:"school_type" validate:"omitempty,schooltype"`
}

func (us *UpdateSchool) Validate(orig School, validate *validator.Validate) error {
	if name := core.CleanString(us.Name); name != "" {
		us.Name = name
	} else {
		us.Name = orig.Name
	}
	if addr := core.CleanString(us.Address); addr != "" {
		us.Address = addr
	} else {
		us.Address = orig.Address
	}
	if desc := core.CleanString(us.Description); desc != "" {
		us.Description = desc
	} else {
		us.Description = orig.Description
	}
	if us.Type == "" {
		us.Type = orig.Type
	}
	return validate.Struct(us)
}
