// Package access holds the authorization rules as predicates over a resolved
// tenant identity. Handlers combine predicates; the transport layer turns a
// false result into a uniform forbidden response.
package access

import (
	"github.com/shulehub/shule/core/teacher"
	"github.com/shulehub/shule/core/tenant"
)

// Predicate reports whether the identity may perform the guarded operation.
type Predicate func(id tenant.Identity) bool

// And passes when every predicate passes.
func And(preds ...Predicate) Predicate {
	return func(id tenant.Identity) bool {
		for _, p := range preds {
			if !p(id) {
				return false
			}
		}
		return true
	}
}

// Or passes when any predicate passes.
func Or(preds ...Predicate) Predicate {
	return func(id tenant.Identity) bool {
		for _, p := range preds {
			if p(id) {
				return true
			}
		}
		return false
	}
}

// HasTenant passes when the identity is affiliated with a school.
func HasTenant(id tenant.Identity) bool {
	return id.HasTenant()
}

// IsAdmin passes for the school's owning admin.
func IsAdmin(id tenant.Identity) bool {
	return id.Kind == tenant.Admin
}

// IsTeacher passes for any teacher of the school, regardless of access level.
func IsTeacher(id tenant.Identity) bool {
	return id.Kind == tenant.Teacher && id.Teacher != nil
}

// IsTeacherOrAdmin passes for the school admin or any of its teachers.
func IsTeacherOrAdmin(id tenant.Identity) bool {
	return IsAdmin(id) || IsTeacher(id)
}

// IsTeacherFull passes for teachers with full access.
func IsTeacherFull(id tenant.Identity) bool {
	return IsTeacher(id) && id.Teacher.AccessLevel == teacher.AccessFull
}

// IsTeacherLimitedUp passes for teachers with limited or full access.
func IsTeacherLimitedUp(id tenant.Identity) bool {
	return IsTeacher(id) && (id.Teacher.AccessLevel == teacher.AccessFull || id.Teacher.AccessLevel == teacher.AccessLimited)
}

// IsSuperuser passes for platform operators.
func IsSuperuser(id tenant.Identity) bool {
	return id.Kind == tenant.Superuser
}

// CanActOnTeacher passes when the identity is the school admin or the teacher
// themselves; object-level check for profile reads and edits.
func CanActOnTeacher(id tenant.Identity, t teacher.Teacher) bool {
	if IsAdmin(id) {
		return true
	}
	return IsTeacher(id) && id.Teacher.ID == t.ID
}

// ClassRestricted reports whether listings must be narrowed to the teacher's
// assigned classes. Admins and higher-access teachers see the whole school.
func ClassRestricted(id tenant.Identity) bool {
	return IsTeacher(id) && id.Teacher.AccessLevel == teacher.AccessClassOnly
}
