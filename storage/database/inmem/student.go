package inmemdb

import (
	"sort"

	"github.com/shulehub/shule/core/student"
)

type studentRepository struct {
	db *DB
}

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db}
}

// ----------------------------------------------------------------------------
// Classes

func (repo *studentRepository) CreateClass(cls student.Class) (student.Class, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, c := range repo.db.classes {
		if c.SchoolID == cls.SchoolID && c.Name == cls.Name {
			return student.Class{}, student.ErrClassNameExists
		}
	}
	cls.ID = repo.db.nextPK()
	repo.db.classes[cls.ID] = &cls
	return cls, nil
}

func (repo *studentRepository) GetClassByCustomID(schoolID uint, customID string) (student.Class, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, cls := range repo.db.classes {
		if cls.SchoolID == schoolID && cls.CustomID == customID {
			out := *cls
			out.StudentCount = repo.db.countClassStudents(cls.ID)
			return out, nil
		}
	}
	return student.Class{}, student.ErrClassNotFound
}

func (repo *studentRepository) GetClassesBySchoolID(schoolID uint, ids ...uint) ([]student.Class, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	classes := make([]student.Class, 0)
	for _, cls := range repo.db.classes {
		if cls.SchoolID != schoolID {
			continue
		}
		if len(ids) > 0 && !containsID(ids, cls.ID) {
			continue
		}
		out := *cls
		out.StudentCount = repo.db.countClassStudents(cls.ID)
		classes = append(classes, out)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].Name < classes[j].Name })
	return classes, nil
}

func (repo *studentRepository) UpdateClass(cls student.Class) (student.Class, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.classes[cls.ID]; !ok {
		return student.Class{}, student.ErrClassNotFound
	}
	for _, c := range repo.db.classes {
		if c.ID != cls.ID && c.SchoolID == cls.SchoolID && c.Name == cls.Name {
			return student.Class{}, student.ErrClassNameExists
		}
	}
	repo.db.classes[cls.ID] = &cls
	return cls, nil
}

func (repo *studentRepository) DeleteClass(id uint) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, std := range repo.db.students {
		if std.ClassID != nil && *std.ClassID == id {
			std.ClassID = nil
		}
	}
	delete(repo.db.classes, id)
	return nil
}

// countClassStudents must be called with db.mu held (read or write).
func (db *DB) countClassStudents(classID uint) int {
	var count int
	for _, std := range db.students {
		if std.ClassID != nil && *std.ClassID == classID {
			count++
		}
	}
	return count
}

// ----------------------------------------------------------------------------
// Students

func (repo *studentRepository) CreateStudent(std student.Student) (student.Student, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, s := range repo.db.students {
		if s.RegistrationNumber == std.RegistrationNumber {
			return student.Student{}, student.ErrRegNumberExists
		}
	}
	std.ID = repo.db.nextPK()
	repo.db.students[std.ID] = &std
	return std, nil
}

func (repo *studentRepository) GetStudentByCustomID(schoolID uint, customID string) (student.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, std := range repo.db.students {
		if std.SchoolID == schoolID && std.CustomID == customID {
			out := *std
			repo.db.fillClassName(&out)
			return out, nil
		}
	}
	return student.Student{}, student.ErrStudentNotFound
}

func (repo *studentRepository) GetStudentByUserID(userID uint) (student.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, std := range repo.db.students {
		if std.UserID != nil && *std.UserID == userID {
			out := *std
			repo.db.fillClassName(&out)
			return out, nil
		}
	}
	return student.Student{}, student.ErrStudentNotFound
}

func (repo *studentRepository) GetStudentsBySchoolID(schoolID uint, classIDs ...uint) ([]student.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	students := make([]student.Student, 0)
	for _, std := range repo.db.students {
		if std.SchoolID != schoolID {
			continue
		}
		if len(classIDs) > 0 && (std.ClassID == nil || !containsID(classIDs, *std.ClassID)) {
			continue
		}
		out := *std
		repo.db.fillClassName(&out)
		students = append(students, out)
	}
	sort.Slice(students, func(i, j int) bool {
		if students[i].LastName != students[j].LastName {
			return students[i].LastName < students[j].LastName
		}
		return students[i].FirstName < students[j].FirstName
	})
	return students, nil
}

func (repo *studentRepository) UpdateStudent(std student.Student) (student.Student, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.students[std.ID]; !ok {
		return student.Student{}, student.ErrStudentNotFound
	}
	repo.db.students[std.ID] = &std
	return std, nil
}

func (repo *studentRepository) DeleteStudent(id uint) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for attID, att := range repo.db.studentAtt {
		if att.StudentID == id {
			delete(repo.db.studentAtt, attID)
		}
	}
	delete(repo.db.students, id)
	return nil
}

func (repo *studentRepository) CountStudents(schoolID uint, classIDs ...uint) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var count int
	for _, std := range repo.db.students {
		if std.SchoolID != schoolID {
			continue
		}
		if len(classIDs) > 0 && (std.ClassID == nil || !containsID(classIDs, *std.ClassID)) {
			continue
		}
		count++
	}
	return count, nil
}

// fillClassName must be called with db.mu held (read or write).
func (db *DB) fillClassName(std *student.Student) {
	if std.ClassID == nil {
		return
	}
	if cls, ok := db.classes[*std.ClassID]; ok {
		std.ClassName = cls.Name
	}
}

// ----------------------------------------------------------------------------
// Attendance

func (repo *studentRepository) CreateAttendance(att student.Attendance) (student.Attendance, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, a := range repo.db.studentAtt {
		if a.StudentID == att.StudentID && a.Date == att.Date {
			return student.Attendance{}, student.ErrDuplicateRecord
		}
	}
	att.ID = repo.db.nextPK()
	repo.db.studentAtt[att.ID] = &att
	return att, nil
}

func (repo *studentRepository) GetAttendanceByID(schoolID uint, id uint, classIDs ...uint) (student.Attendance, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	att, ok := repo.db.studentAtt[id]
	if !ok {
		return student.Attendance{}, student.ErrAttendanceNotFound
	}
	std, ok := repo.db.students[att.StudentID]
	if !ok || std.SchoolID != schoolID {
		return student.Attendance{}, student.ErrAttendanceNotFound
	}
	if len(classIDs) > 0 && (std.ClassID == nil || !containsID(classIDs, *std.ClassID)) {
		return student.Attendance{}, student.ErrAttendanceNotFound
	}
	out := *att
	out.StudentName = std.FullName()
	return out, nil
}

func (repo *studentRepository) GetAttendance(schoolID uint, filter student.AttendanceFilter, classIDs ...uint) ([]student.Attendance, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	records := make([]student.Attendance, 0)
	for _, att := range repo.db.studentAtt {
		std, ok := repo.db.students[att.StudentID]
		if !ok || std.SchoolID != schoolID {
			continue
		}
		if len(classIDs) > 0 && (std.ClassID == nil || !containsID(classIDs, *std.ClassID)) {
			continue
		}
		if filter.Date != "" && att.Date != filter.Date {
			continue
		}
		if filter.Present != nil && att.Present != *filter.Present {
			continue
		}
		if filter.StudentID != "" && std.CustomID != filter.StudentID {
			continue
		}
		out := *att
		out.StudentName = std.FullName()
		records = append(records, out)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Date > records[j].Date })
	return records, nil
}

func (repo *studentRepository) UpdateAttendance(att student.Attendance) (student.Attendance, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.studentAtt[att.ID]; !ok {
		return student.Attendance{}, student.ErrAttendanceNotFound
	}
	repo.db.studentAtt[att.ID] = &att
	return att, nil
}

func (repo *studentRepository) DeleteAttendance(id uint) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	delete(repo.db.studentAtt, id)
	return nil
}
