package inmemdb

import (
	"github.com/shulehub/shule/core/school"
)

type schoolRepository struct {
	db *DB
}

func NewSchoolRepository(db *DB) school.Repository {
	return &schoolRepository{db: db}
}

func (repo *schoolRepository) CreateSchool(sch school.School) (school.School, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, s := range repo.db.schools {
		if s.Name == sch.Name {
			return school.School{}, school.ErrNameExists
		}
	}
	sch.ID = repo.db.nextPK()
	repo.db.schools[sch.ID] = &sch
	return sch, nil
}

func (repo *schoolRepository) GetSchoolByID(id uint) (school.School, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if sch, ok := repo.db.schools[id]; ok {
		return *sch, nil
	}
	return school.School{}, school.ErrNotFound
}

func (repo *schoolRepository) GetSchoolByAdminID(adminID uint) (school.School, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, sch := range repo.db.schools {
		if sch.AdminID == adminID {
			return *sch, nil
		}
	}
	return school.School{}, school.ErrNotFound
}

func (repo *schoolRepository) UpdateSchool(sch school.School) (school.School, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.schools[sch.ID]; !ok {
		return school.School{}, school.ErrNotFound
	}
	for _, s := range repo.db.schools {
		if s.ID != sch.ID && s.Name == sch.Name {
			return school.School{}, school.ErrNameExists
		}
	}
	repo.db.schools[sch.ID] = &sch
	return sch, nil
}
