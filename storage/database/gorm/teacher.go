package gormrepos

import (
	"errors"

	"gorm.io/gorm"

	"github.com/shulehub/shule/core/student"
	"github.com/shulehub/shule/core/teacher"
	"github.com/shulehub/shule/core/user"
)

type teacherRepository struct {
	db *gorm.DB
}

func NewTeacherRepository(db *gorm.DB) teacher.Repository {
	return &teacherRepository{db: db}
}

func (repo *teacherRepository) CreateTeacher(usr user.User, t teacher.Teacher, classIDs []uint) (teacher.Teacher, error) {
	err := repo.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&teacher.Teacher{}).
			Where("school_id = ? AND employee_id = ?", t.SchoolID, t.EmployeeID).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return teacher.ErrEmployeeIDExists
		}

		if err = createUser(tx, &usr); err != nil {
			return err
		}
		t.UserID = usr.ID
		t.User = usr
		if err = tx.Omit("User", "AssignedClasses").Create(&t).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return teacher.ErrEmployeeIDExists
			}
			return err
		}
		for _, classID := range classIDs {
			a := teacher.ClassAssignment{TeacherID: t.ID, ClassID: classID}
			if err = tx.Create(&a).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return teacher.Teacher{}, err
	}
	repo.fillAssignments(&t)
	return t, nil
}

func (repo *teacherRepository) GetTeacherByCustomID(schoolID uint, customID string) (teacher.Teacher, error) {
	var t teacher.Teacher
	err := repo.db.
		Preload("User").
		Where("school_id = ? AND custom_id = ?", schoolID, customID).
		First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return teacher.Teacher{}, teacher.ErrNotFound
		}
		return teacher.Teacher{}, err
	}
	repo.fillAssignments(&t)
	return t, nil
}

func (repo *teacherRepository) GetTeacherByUserID(userID uint) (teacher.Teacher, error) {
	var t teacher.Teacher
	err := repo.db.Preload("User").Where("user_id = ?", userID).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return teacher.Teacher{}, teacher.ErrNotFound
		}
		return teacher.Teacher{}, err
	}
	repo.fillAssignments(&t)
	return t, nil
}

func (repo *teacherRepository) GetTeachersBySchoolID(schoolID uint, filter teacher.Filter) ([]teacher.Teacher, error) {
	q := repo.db.Preload("User").Where("school_id = ?", schoolID)
	if filter.IsActive != nil {
		q = q.Where("is_active = ?", *filter.IsActive)
	}
	if filter.Gender != "" {
		q = q.Where("gender = ?", filter.Gender)
	}
	if filter.AccessLevel != "" {
		q = q.Where("access_level = ?", filter.AccessLevel)
	}
	var teachers []teacher.Teacher
	if err := q.Order("last_name, first_name").Find(&teachers).Error; err != nil {
		return nil, err
	}
	for i := range teachers {
		repo.fillAssignments(&teachers[i])
	}
	return teachers, nil
}

func (repo *teacherRepository) UpdateTeacher(t teacher.Teacher) (teacher.Teacher, error) {
	err := repo.db.Model(&t).
		Select("*").
		Omit("id", "created_at", "user_id", "school_id").
		Updates(&t).Error
	if err != nil {
		return teacher.Teacher{}, err
	}
	repo.fillAssignments(&t)
	return t, nil
}

func (repo *teacherRepository) DeleteTeacher(t teacher.Teacher) error {
	return repo.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("teacher_id = ?", t.ID).Delete(&teacher.ClassAssignment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("teacher_id = ?", t.ID).Delete(&teacher.Attendance{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&teacher.Teacher{}, t.ID).Error; err != nil {
			return err
		}
		// the backing login account goes with the profile
		return tx.Delete(&user.User{}, t.UserID).Error
	})
}

func (repo *teacherRepository) ReplaceClassAssignments(teacherID uint, classIDs []uint) error {
	return repo.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("teacher_id = ?", teacherID).Delete(&teacher.ClassAssignment{}).Error; err != nil {
			return err
		}
		for _, classID := range classIDs {
			a := teacher.ClassAssignment{TeacherID: teacherID, ClassID: classID}
			if err := tx.Create(&a).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (repo *teacherRepository) GetClassAssignments(teacherID uint) ([]teacher.ClassAssignment, error) {
	var assignments []teacher.ClassAssignment
	err := repo.db.Where("teacher_id = ?", teacherID).Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	for i := range assignments {
		var cls student.Class
		if err := repo.db.First(&cls, assignments[i].ClassID).Error; err == nil {
			assignments[i].ClassName = cls.Name
		}
	}
	return assignments, nil
}

func (repo *teacherRepository) SetTeacherUserPassword(userID uint, hash []byte) error {
	return repo.db.Model(&user.User{}).Where("id = ?", userID).Update("password_hash", hash).Error
}

func (repo *teacherRepository) CountTeachers(schoolID uint) (total, active int, err error) {
	var count int64
	err = repo.db.Model(&teacher.Teacher{}).Where("school_id = ?", schoolID).Count(&count).Error
	if err != nil {
		return 0, 0, err
	}
	total = int(count)
	err = repo.db.Model(&teacher.Teacher{}).
		Where("school_id = ? AND is_active = true", schoolID).
		Count(&count).Error
	if err != nil {
		return 0, 0, err
	}
	return total, int(count), nil
}

func (repo *teacherRepository) fillAssignments(t *teacher.Teacher) {
	if assignments, err := repo.GetClassAssignments(t.ID); err == nil {
		t.AssignedClasses = assignments
	}
}

// ----------------------------------------------------------------------------
// Attendance

func (repo *teacherRepository) CreateAttendance(att teacher.Attendance) (teacher.Attendance, error) {
	var count int64
	err := repo.db.Model(&teacher.Attendance{}).
		Where("teacher_id = ? AND date = ?", att.TeacherID, att.Date).
		Count(&count).Error
	if err != nil {
		return teacher.Attendance{}, err
	}
	if count > 0 {
		return teacher.Attendance{}, teacher.ErrDuplicateRecord
	}
	name := att.TeacherName
	if err = repo.db.Create(&att).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return teacher.Attendance{}, teacher.ErrDuplicateRecord
		}
		return teacher.Attendance{}, err
	}
	att.TeacherName = name
	return att, nil
}

func (repo *teacherRepository) GetAttendanceByID(schoolID uint, id uint) (teacher.Attendance, error) {
	var att teacher.Attendance
	err := repo.db.
		Joins("JOIN teachers ON teachers.id = teacher_attendances.teacher_id").
		Where("teacher_attendances.id = ? AND teachers.school_id = ?", id, schoolID).
		First(&att).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return teacher.Attendance{}, teacher.ErrAttendanceNotFound
		}
		return teacher.Attendance{}, err
	}
	repo.fillTeacherName(&att)
	return att, nil
}

func (repo *teacherRepository) GetAttendance(schoolID uint, filter teacher.AttendanceFilter) ([]teacher.Attendance, error) {
	q := repo.db.
		Joins("JOIN teachers ON teachers.id = teacher_attendances.teacher_id").
		Where("teachers.school_id = ?", schoolID)
	if filter.Date != "" {
		q = q.Where("teacher_attendances.date = ?", filter.Date)
	}
	if filter.Present != nil {
		q = q.Where("teacher_attendances.present = ?", *filter.Present)
	}
	if filter.TeacherID != "" {
		q = q.Where("teachers.custom_id = ?", filter.TeacherID)
	}
	var records []teacher.Attendance
	if err := q.Order("teacher_attendances.date DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	for i := range records {
		repo.fillTeacherName(&records[i])
	}
	return records, nil
}

func (repo *teacherRepository) UpdateAttendance(att teacher.Attendance) (teacher.Attendance, error) {
	if err := repo.db.Save(&att).Error; err != nil {
		return teacher.Attendance{}, err
	}
	return att, nil
}

func (repo *teacherRepository) DeleteAttendance(id uint) error {
	return repo.db.Delete(&teacher.Attendance{}, id).Error
}

func (repo *teacherRepository) fillTeacherName(att *teacher.Attendance) {
	var t teacher.Teacher
	if err := repo.db.First(&t, att.TeacherID).Error; err == nil {
		att.TeacherName = t.FullName()
	}
}

func (repo *teacherRepository) CountAttendance(schoolID uint) (total, present int, err error) {
	var count int64
	base := func() *gorm.DB {
		return repo.db.Model(&teacher.Attendance{}).
			Joins("JOIN teachers ON teachers.id = teacher_attendances.teacher_id").
			Where("teachers.school_id = ?", schoolID)
	}
	if err = base().Count(&count).Error; err != nil {
		return 0, 0, err
	}
	total = int(count)
	if err = base().Where("teacher_attendances.present = true").Count(&count).Error; err != nil {
		return 0, 0, err
	}
	return total, int(count), nil
}
