package inmemdb

import (
	"sort"

	"github.com/shulehub/shule/core/teacher"
	"github.com/shulehub/shule/core/user"
)

type teacherRepository struct {
	db *DB
}

func NewTeacherRepository(db *DB) teacher.Repository {
	return &teacherRepository{db: db}
}

func (repo *teacherRepository) CreateTeacher(usr user.User, t teacher.Teacher, classIDs []uint) (teacher.Teacher, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, existing := range repo.db.teachers {
		if existing.SchoolID == t.SchoolID && existing.EmployeeID == t.EmployeeID {
			return teacher.Teacher{}, teacher.ErrEmployeeIDExists
		}
	}
	usr, err := repo.db.createUser(usr)
	if err != nil {
		return teacher.Teacher{}, err
	}
	t.UserID = usr.ID
	t.User = usr
	t.ID = repo.db.nextPK()
	stored := t
	stored.AssignedClasses = nil
	repo.db.teachers[t.ID] = &stored

	for _, classID := range classIDs {
		a := teacher.ClassAssignment{
			ID:        repo.db.nextPK(),
			TeacherID: t.ID,
			ClassID:   classID,
		}
		repo.db.assignments[a.ID] = &a
	}
	t.AssignedClasses = repo.db.classAssignments(t.ID)
	return t, nil
}

func (repo *teacherRepository) GetTeacherByCustomID(schoolID uint, customID string) (teacher.Teacher, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, t := range repo.db.teachers {
		if t.SchoolID == schoolID && t.CustomID == customID {
			return repo.db.loadTeacher(t), nil
		}
	}
	return teacher.Teacher{}, teacher.ErrNotFound
}

func (repo *teacherRepository) GetTeacherByUserID(userID uint) (teacher.Teacher, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, t := range repo.db.teachers {
		if t.UserID == userID {
			return repo.db.loadTeacher(t), nil
		}
	}
	return teacher.Teacher{}, teacher.ErrNotFound
}

func (repo *teacherRepository) GetTeachersBySchoolID(schoolID uint, filter teacher.Filter) ([]teacher.Teacher, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	teachers := make([]teacher.Teacher, 0)
	for _, t := range repo.db.teachers {
		if t.SchoolID != schoolID {
			continue
		}
		if filter.IsActive != nil && t.IsActive != *filter.IsActive {
			continue
		}
		if filter.Gender != "" && t.Gender != filter.Gender {
			continue
		}
		if filter.AccessLevel != "" && t.AccessLevel != filter.AccessLevel {
			continue
		}
		teachers = append(teachers, repo.db.loadTeacher(t))
	}
	sort.Slice(teachers, func(i, j int) bool {
		if teachers[i].LastName != teachers[j].LastName {
			return teachers[i].LastName < teachers[j].LastName
		}
		return teachers[i].FirstName < teachers[j].FirstName
	})
	return teachers, nil
}

func (repo *teacherRepository) UpdateTeacher(t teacher.Teacher) (teacher.Teacher, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.teachers[t.ID]; !ok {
		return teacher.Teacher{}, teacher.ErrNotFound
	}
	stored := t
	stored.AssignedClasses = nil
	repo.db.teachers[t.ID] = &stored
	return repo.db.loadTeacher(&stored), nil
}

func (repo *teacherRepository) DeleteTeacher(t teacher.Teacher) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for id, a := range repo.db.assignments {
		if a.TeacherID == t.ID {
			delete(repo.db.assignments, id)
		}
	}
	for id, att := range repo.db.teacherAtt {
		if att.TeacherID == t.ID {
			delete(repo.db.teacherAtt, id)
		}
	}
	delete(repo.db.teachers, t.ID)
	delete(repo.db.users, t.UserID)
	return nil
}

func (repo *teacherRepository) ReplaceClassAssignments(teacherID uint, classIDs []uint) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for id, a := range repo.db.assignments {
		if a.TeacherID == teacherID {
			delete(repo.db.assignments, id)
		}
	}
	for _, classID := range classIDs {
		a := teacher.ClassAssignment{
			ID:        repo.db.nextPK(),
			TeacherID: teacherID,
			ClassID:   classID,
		}
		repo.db.assignments[a.ID] = &a
	}
	return nil
}

func (repo *teacherRepository) GetClassAssignments(teacherID uint) ([]teacher.ClassAssignment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.db.classAssignments(teacherID), nil
}

func (repo *teacherRepository) SetTeacherUserPassword(userID uint, hash []byte) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	usr, ok := repo.db.users[userID]
	if !ok {
		return user.ErrNotFound
	}
	usr.PasswordHash = hash
	return nil
}

func (repo *teacherRepository) CountTeachers(schoolID uint) (total, active int, err error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, t := range repo.db.teachers {
		if t.SchoolID != schoolID {
			continue
		}
		total++
		if t.IsActive {
			active++
		}
	}
	return total, active, nil
}

// classAssignments must be called with db.mu held (read or write).
func (db *DB) classAssignments(teacherID uint) []teacher.ClassAssignment {
	assignments := make([]teacher.ClassAssignment, 0)
	for _, a := range db.assignments {
		if a.TeacherID != teacherID {
			continue
		}
		out := *a
		if cls, ok := db.classes[a.ClassID]; ok {
			out.ClassName = cls.Name
		}
		assignments = append(assignments, out)
	}
	sort.Slice(assignments, func(i, j int) bool { return assignments[i].ID < assignments[j].ID })
	return assignments
}

// loadTeacher must be called with db.mu held (read or write).
func (db *DB) loadTeacher(t *teacher.Teacher) teacher.Teacher {
	out := *t
	if usr, ok := db.users[t.UserID]; ok {
		out.User = *usr
	}
	out.AssignedClasses = db.classAssignments(t.ID)
	return out
}

// ----------------------------------------------------------------------------
// Attendance

func (repo *teacherRepository) CreateAttendance(att teacher.Attendance) (teacher.Attendance, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, a := range repo.db.teacherAtt {
		if a.TeacherID == att.TeacherID && a.Date == att.Date {
			return teacher.Attendance{}, teacher.ErrDuplicateRecord
		}
	}
	att.ID = repo.db.nextPK()
	repo.db.teacherAtt[att.ID] = &att
	return att, nil
}

func (repo *teacherRepository) GetAttendanceByID(schoolID uint, id uint) (teacher.Attendance, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	att, ok := repo.db.teacherAtt[id]
	if !ok {
		return teacher.Attendance{}, teacher.ErrAttendanceNotFound
	}
	t, ok := repo.db.teachers[att.TeacherID]
	if !ok || t.SchoolID != schoolID {
		return teacher.Attendance{}, teacher.ErrAttendanceNotFound
	}
	out := *att
	out.TeacherName = t.FullName()
	return out, nil
}

func (repo *teacherRepository) GetAttendance(schoolID uint, filter teacher.AttendanceFilter) ([]teacher.Attendance, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	records := make([]teacher.Attendance, 0)
	for _, att := range repo.db.teacherAtt {
		t, ok := repo.db.teachers[att.TeacherID]
		if !ok || t.SchoolID != schoolID {
			continue
		}
		if filter.Date != "" && att.Date != filter.Date {
			continue
		}
		if filter.Present != nil && att.Present != *filter.Present {
			continue
		}
		if filter.TeacherID != "" && t.CustomID != filter.TeacherID {
			continue
		}
		out := *att
		out.TeacherName = t.FullName()
		records = append(records, out)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Date > records[j].Date })
	return records, nil
}

func (repo *teacherRepository) UpdateAttendance(att teacher.Attendance) (teacher.Attendance, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.teacherAtt[att.ID]; !ok {
		return teacher.Attendance{}, teacher.ErrAttendanceNotFound
	}
	repo.db.teacherAtt[att.ID] = &att
	return att, nil
}

func (repo *teacherRepository) DeleteAttendance(id uint) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	delete(repo.db.teacherAtt, id)
	return nil
}

func (repo *teacherRepository) CountAttendance(schoolID uint) (total, present int, err error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, att := range repo.db.teacherAtt {
		t, ok := repo.db.teachers[att.TeacherID]
		if !ok || t.SchoolID != schoolID {
			continue
		}
		total++
		if att.Present {
			present++
		}
	}
	return total, present, nil
}
