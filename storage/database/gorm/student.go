package gormrepos

import (
	"errors"

	"gorm.io/gorm"

	"github.com/shulehub/shule/core/student"
)

type studentRepository struct {
	db *gorm.DB
}

func NewStudentRepository(db *gorm.DB) student.Repository {
	return &studentRepository{db: db}
}

// ----------------------------------------------------------------------------
// Classes

func (repo *studentRepository) CreateClass(cls student.Class) (student.Class, error) {
	var count int64
	err := repo.db.Model(&student.Class{}).
		Where("school_id = ? AND name = ?", cls.SchoolID, cls.Name).
		Count(&count).Error
	if err != nil {
		return student.Class{}, err
	}
	if count > 0 {
		return student.Class{}, student.ErrClassNameExists
	}
	if err = repo.db.Create(&cls).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return student.Class{}, student.ErrClassNameExists
		}
		return student.Class{}, err
	}
	return cls, nil
}

func (repo *studentRepository) GetClassByCustomID(schoolID uint, customID string) (student.Class, error) {
	var cls student.Class
	err := repo.db.Where("school_id = ? AND custom_id = ?", schoolID, customID).First(&cls).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return student.Class{}, student.ErrClassNotFound
		}
		return student.Class{}, err
	}
	repo.fillStudentCount(&cls)
	return cls, nil
}

func (repo *studentRepository) GetClassesBySchoolID(schoolID uint, ids ...uint) ([]student.Class, error) {
	q := repo.db.Where("school_id = ?", schoolID)
	if len(ids) > 0 {
		q = q.Where("id IN ?", ids)
	}
	var classes []student.Class
	if err := q.Order("name").Find(&classes).Error; err != nil {
		return nil, err
	}
	for i := range classes {
		repo.fillStudentCount(&classes[i])
	}
	return classes, nil
}

func (repo *studentRepository) UpdateClass(cls student.Class) (student.Class, error) {
	var count int64
	err := repo.db.Model(&student.Class{}).
		Where("school_id = ? AND name = ? AND id <> ?", cls.SchoolID, cls.Name, cls.ID).
		Count(&count).Error
	if err != nil {
		return student.Class{}, err
	}
	if count > 0 {
		return student.Class{}, student.ErrClassNameExists
	}
	if err = repo.db.Save(&cls).Error; err != nil {
		return student.Class{}, err
	}
	return cls, nil
}

func (repo *studentRepository) DeleteClass(id uint) error {
	return repo.db.Transaction(func(tx *gorm.DB) error {
		// unassign students before dropping the class
		if err := tx.Model(&student.Student{}).
			Where("class_id = ?", id).
			Update("class_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&student.Class{}, id).Error
	})
}

func (repo *studentRepository) fillStudentCount(cls *student.Class) {
	var count int64
	if err := repo.db.Model(&student.Student{}).Where("class_id = ?", cls.ID).Count(&count).Error; err == nil {
		cls.StudentCount = int(count)
	}
}

// ----------------------------------------------------------------------------
// Students

func (repo *studentRepository) CreateStudent(std student.Student) (student.Student, error) {
	var count int64
	err := repo.db.Model(&student.Student{}).
		Where("registration_number = ?", std.RegistrationNumber).
		Count(&count).Error
	if err != nil {
		return student.Student{}, err
	}
	if count > 0 {
		return student.Student{}, student.ErrRegNumberExists
	}
	if err = repo.db.Create(&std).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return student.Student{}, student.ErrRegNumberExists
		}
		return student.Student{}, err
	}
	return std, nil
}

func (repo *studentRepository) GetStudentByCustomID(schoolID uint, customID string) (student.Student, error) {
	var std student.Student
	err := repo.db.Where("school_id = ? AND custom_id = ?", schoolID, customID).First(&std).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return student.Student{}, student.ErrStudentNotFound
		}
		return student.Student{}, err
	}
	repo.fillClassName(&std)
	return std, nil
}

func (repo *studentRepository) GetStudentByUserID(userID uint) (student.Student, error) {
	var std student.Student
	err := repo.db.Where("user_id = ?", userID).First(&std).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return student.Student{}, student.ErrStudentNotFound
		}
		return student.Student{}, err
	}
	repo.fillClassName(&std)
	return std, nil
}

func (repo *studentRepository) GetStudentsBySchoolID(schoolID uint, classIDs ...uint) ([]student.Student, error) {
	q := repo.db.Where("school_id = ?", schoolID)
	if len(classIDs) > 0 {
		q = q.Where("class_id IN ?", classIDs)
	}
	var students []student.Student
	if err := q.Order("last_name, first_name").Find(&students).Error; err != nil {
		return nil, err
	}
	for i := range students {
		repo.fillClassName(&students[i])
	}
	return students, nil
}

func (repo *studentRepository) UpdateStudent(std student.Student) (student.Student, error) {
	// Save skips nil pointer fields; use Select to persist a class unassignment
	err := repo.db.Model(&std).
		Select("*").
		Omit("id", "created_at").
		Updates(&std).Error
	if err != nil {
		return student.Student{}, err
	}
	return std, nil
}

func (repo *studentRepository) DeleteStudent(id uint) error {
	return repo.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("student_id = ?", id).Delete(&student.Attendance{}).Error; err != nil {
			return err
		}
		return tx.Delete(&student.Student{}, id).Error
	})
}

func (repo *studentRepository) CountStudents(schoolID uint, classIDs ...uint) (int, error) {
	q := repo.db.Model(&student.Student{}).Where("school_id = ?", schoolID)
	if len(classIDs) > 0 {
		q = q.Where("class_id IN ?", classIDs)
	}
	var count int64
	err := q.Count(&count).Error
	return int(count), err
}

func (repo *studentRepository) fillClassName(std *student.Student) {
	if std.ClassID == nil {
		return
	}
	var cls student.Class
	if err := repo.db.First(&cls, *std.ClassID).Error; err == nil {
		std.ClassName = cls.Name
	}
}

// ----------------------------------------------------------------------------
// Attendance

func (repo *studentRepository) CreateAttendance(att student.Attendance) (student.Attendance, error) {
	var count int64
	err := repo.db.Model(&student.Attendance{}).
		Where("student_id = ? AND date = ?", att.StudentID, att.Date).
		Count(&count).Error
	if err != nil {
		return student.Attendance{}, err
	}
	if count > 0 {
		return student.Attendance{}, student.ErrDuplicateRecord
	}
	name := att.StudentName
	if err = repo.db.Create(&att).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return student.Attendance{}, student.ErrDuplicateRecord
		}
		return student.Attendance{}, err
	}
	att.StudentName = name
	return att, nil
}

func (repo *studentRepository) GetAttendanceByID(schoolID uint, id uint, classIDs ...uint) (student.Attendance, error) {
	q := repo.db.
		Joins("JOIN students ON students.id = student_attendances.student_id").
		Where("student_attendances.id = ? AND students.school_id = ?", id, schoolID)
	if len(classIDs) > 0 {
		q = q.Where("students.class_id IN ?", classIDs)
	}
	var att student.Attendance
	err := q.First(&att).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return student.Attendance{}, student.ErrAttendanceNotFound
		}
		return student.Attendance{}, err
	}
	repo.fillStudentName(&att)
	return att, nil
}

func (repo *studentRepository) GetAttendance(schoolID uint, filter student.AttendanceFilter, classIDs ...uint) ([]student.Attendance, error) {
	q := repo.db.
		Joins("JOIN students ON students.id = student_attendances.student_id").
		Where("students.school_id = ?", schoolID)
	if len(classIDs) > 0 {
		q = q.Where("students.class_id IN ?", classIDs)
	}
	if filter.Date != "" {
		q = q.Where("student_attendances.date = ?", filter.Date)
	}
	if filter.Present != nil {
		q = q.Where("student_attendances.present = ?", *filter.Present)
	}
	if filter.StudentID != "" {
		q = q.Where("students.custom_id = ?", filter.StudentID)
	}
	var records []student.Attendance
	if err := q.Order("student_attendances.date DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	for i := range records {
		repo.fillStudentName(&records[i])
	}
	return records, nil
}

func (repo *studentRepository) UpdateAttendance(att student.Attendance) (student.Attendance, error) {
	if err := repo.db.Save(&att).Error; err != nil {
		return student.Attendance{}, err
	}
	return att, nil
}

func (repo *studentRepository) DeleteAttendance(id uint) error {
	return repo.db.Delete(&student.Attendance{}, id).Error
}

func (repo *studentRepository) fillStudentName(att *student.Attendance) {
	var std student.Student
	if err := repo.db.First(&std, att.StudentID).Error; err == nil {
		att.StudentName = std.FullName()
	}
}
