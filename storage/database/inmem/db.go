// Package inmemdb provides in-memory repository implementations used by unit
// and API tests.
package inmemdb

import (
	"sync"

	"github.com/shulehub/shule/core/school"
	"github.com/shulehub/shule/core/student"
	"github.com/shulehub/shule/core/teacher"
	"github.com/shulehub/shule/core/user"
)

type DB struct {
	mu sync.RWMutex
	pk uint

	users         map[uint]*user.User
	verifications map[uint]*user.EmailVerification
	resets        map[uint]*user.PasswordReset
	revoked       map[string]*user.RevokedToken

	schools map[uint]*school.School

	classes    map[uint]*student.Class
	students   map[uint]*student.Student
	studentAtt map[uint]*student.Attendance

	teachers    map[uint]*teacher.Teacher
	assignments map[uint]*teacher.ClassAssignment
	teacherAtt  map[uint]*teacher.Attendance
}

func NewDB() *DB {
	return &DB{
		users:         make(map[uint]*user.User),
		verifications: make(map[uint]*user.EmailVerification),
		resets:        make(map[uint]*user.PasswordReset),
		revoked:       make(map[string]*user.RevokedToken),
		schools:       make(map[uint]*school.School),
		classes:       make(map[uint]*student.Class),
		students:      make(map[uint]*student.Student),
		studentAtt:    make(map[uint]*student.Attendance),
		teachers:      make(map[uint]*teacher.Teacher),
		assignments:   make(map[uint]*teacher.ClassAssignment),
		teacherAtt:    make(map[uint]*teacher.Attendance),
	}
}

// nextPK must be called with db.mu held.
func (db *DB) nextPK() uint {
	db.pk++
	return db.pk
}

func containsID(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
