package database

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shulehub/shule/core"
	"github.com/shulehub/shule/core/school"
	"github.com/shulehub/shule/core/student"
	"github.com/shulehub/shule/core/teacher"
	"github.com/shulehub/shule/core/user"
)

// Open connects to the database and waits for it to be ready.
// Waits 100ms longer between each attempt.
func Open(conf *core.Config) (*gorm.DB, error) {
	logLevel := logger.Silent
	if conf.Debug {
		logLevel = logger.Warn
	}
	db, err := gorm.Open(postgres.Open(conf.Database.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		// surface unique violations as gorm.ErrDuplicatedKey
		TranslateError: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "getting underlying DB")
	}
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		if err = sqlDB.Ping(); err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}
	if err != nil {
		return nil, errors.Wrap(err, "DB ping timeout")
	}
	return db, nil
}

// Migrate brings the schema up to date.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&user.User{},
		&user.EmailVerification{},
		&user.PasswordReset{},
		&user.RevokedToken{},
		&school.School{},
		&student.Class{},
		&student.Student{},
		&student.Attendance{},
		&teacher.Teacher{},
		&teacher.ClassAssignment{},
		&teacher.Attendance{},
	)
	return errors.Wrap(err, "migrating database")
}
