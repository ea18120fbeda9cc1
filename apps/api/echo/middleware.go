package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shulehub/shule/core"
	"github.com/shulehub/shule/core/access"
	"github.com/shulehub/shule/core/tenant"
)

// tenantMiddleware resolves the authenticated user's tenancy and attaches the
// identity to the context. Runs after authMiddleware.
func tenantMiddleware(resolver *tenant.Resolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx)
			if err != nil {
				return err
			}
			id, err := resolver.Resolve(usr)
			if err != nil {
				return errors.Wrap(err, "resolving tenant")
			}
			ctx.Set(contextIdentityKey, id)
			return next(ctx)
		}
	}
}

func getContextIdentity(ctx echo.Context) (tenant.Identity, error) {
	if id, ok := ctx.Get(contextIdentityKey).(tenant.Identity); ok {
		return id, nil
	}
	// only reachable when a route skipped tenantMiddleware
	return tenant.Identity{}, core.NewShutdownError("tenant identity missing from context")
}

// requireAccess guards a route with an access predicate; failure is a uniform
// 403 with no detail about which rule failed.
func requireAccess(pred access.Predicate) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			id, err := getContextIdentity(ctx)
			if err != nil {
				return err
			}
			if !pred(id) {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}

// tenantClassIDs returns the class filter for listings: nil (no restriction)
// for admins and higher-access teachers, the assigned class IDs for
// class-restricted teachers.
func tenantClassIDs(id tenant.Identity, assignedIDs func(teacherID uint) ([]uint, error)) ([]uint, error) {
	if !access.ClassRestricted(id) {
		return nil, nil
	}
	ids, err := assignedIDs(id.Teacher.ID)
	if err != nil {
		return nil, errors.Wrap(err, "loading assigned classes")
	}
	if len(ids) == 0 {
		// a class-restricted teacher with no classes sees nothing
		ids = []uint{0}
	}
	return ids, nil
}
