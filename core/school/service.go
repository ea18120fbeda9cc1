package school

import (
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"

	"github.com/shulehub/shule/core"
	"github.com/shulehub/shule/core/user"
)

var (
	ErrNotFound     = errors.New("school not found")
	ErrNameExists   = errors.New("a school with this name already exists")
	ErrAlreadyOwned = errors.New("you already have a school registered")
	ErrNotVerified  = errors.New("your email must be verified before creating a school")
)

type (
	Repository interface {
		CreateSchool(sch School) (School, error)
		GetSchoolByID(id uint) (School, error)
		GetSchoolByAdminID(adminID uint) (School, error)
		UpdateSchool(sch School) (School, error)
	}

	Service struct {
		repo     Repository
		mailSvc  core.EmailService
		logger   core.Logger
		validate *validator.Validate
	}
)

func NewService(repo Repository, mailSvc core.EmailService, logger core.Logger, validate *validator.Validate) *Service {
	return &Service{
		repo:     repo,
		mailSvc:  mailSvc,
		logger:   logger,
		validate: validate,
	}
}

// Create registers a new School owned by the given admin user. The admin must
// be verified and must not already own a school. The confirmation email is
// best-effort: a failure is logged and does not undo the creation.
func (svc *Service) Create(admin user.User, ns NewSchool) (School, error) {
	if !admin.IsVerified {
		return School{}, core.NewValidationError(ErrNotVerified)
	}
	if _, err := svc.repo.GetSchoolByAdminID(admin.ID); err == nil {
		return School{}, core.NewValidationError(ErrAlreadyOwned)
	} else if err != ErrNotFound {
		return School{}, pkgerrors.Wrap(err, "checking school ownership")
	}
	if err := ns.Validate(svc.validate); err != nil {
		return School{}, err
	}

	now := time.Now().UTC()
	sch, err := svc.repo.CreateSchool(School{
		CustomID:    core.NewCustomID("SCH"),
		Name:        ns.Name,
		Address:     ns.Address,
		Description: ns.Description,
		Type:        ns.Type,
		AdminID:     admin.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return School{}, pkgerrors.Wrap(err, "creating school")
	}

	if err := svc.mailSvc.SendMessage(creationEmail(admin, sch)); err != nil {
		svc.logger.Error(fmt.Sprintf("sending school creation email: %v", err), err)
	}
	return sch, nil
}

func (svc *Service) GetByID(id uint) (School, error) {
	return svc.repo.GetSchoolByID(id)
}

func (svc *Service) GetByAdminID(adminID uint) (School, error) {
	return svc.repo.GetSchoolByAdminID(adminID)
}

func (svc *Service) Update(id uint, us UpdateSchool) (School, error) {
	sch, err := svc.repo.GetSchoolByID(id)
	if err != nil {
		return School{}, err
	}
	if err := us.Validate(sch, svc.validate); err != nil {
		return School{}, err
	}
	sch.Name = us.Name
	sch.Address = us.Address
	sch.Description = us.Description
	sch.Type = us.Type
	sch.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateSchool(sch)
}

func creationEmail(admin user.User, sch School) *core.EmailMessage {
	return &core.EmailMessage{
		To:      []mail.Address{{Name: admin.FullName, Address: admin.Email}},
		Subject: "School Registration Confirmation",
		TextContent: fmt.Sprintf(
			"Dear %s,\n\n"+
				"Congratulations! Your school has been successfully registered with the School Management System.\n\n"+
				"School Details:\n- School Name: %s\n- School Type: %s\n\n"+
				"You can now log in to the School Management System to manage your school.",
			admin.FullName, sch.Name, sch.Type),
		HTMLContent: fmt.Sprintf(
			"<html><body>"+
				"<h1>School Registration Confirmation</h1>"+
				"<p>Dear %s,</p>"+
				"<p>Congratulations! Your school has been successfully registered with the School Management System.</p>"+
				"<ul><li><strong>School Name:</strong> %s</li><li><strong>School Type:</strong> %s</li></ul>"+
				"<p>You can now log in to the School Management System to manage your school.</p>"+
				"</body></html>",
			admin.FullName, sch.Name, sch.Type),
	}
}
