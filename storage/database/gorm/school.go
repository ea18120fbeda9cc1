package gormrepos

import (
	"errors"

	"gorm.io/gorm"

	"github.com/shulehub/shule/core/school"
)

type schoolRepository struct {
	db *gorm.DB
}

func NewSchoolRepository(db *gorm.DB) school.Repository {
	return &schoolRepository{db: db}
}

func (repo *schoolRepository) CreateSchool(sch school.School) (school.School, error) {
	var count int64
	if err := repo.db.Model(&school.School{}).Where("name = ?", sch.Name).Count(&count).Error; err != nil {
		return school.School{}, err
	}
	if count > 0 {
		return school.School{}, school.ErrNameExists
	}
	if err := repo.db.Create(&sch).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return school.School{}, school.ErrNameExists
		}
		return school.School{}, err
	}
	return sch, nil
}

func (repo *schoolRepository) GetSchoolByID(id uint) (school.School, error) {
	var sch school.School
	if err := repo.db.First(&sch, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return school.School{}, school.ErrNotFound
		}
		return school.School{}, err
	}
	return sch, nil
}

func (repo *schoolRepository) GetSchoolByAdminID(adminID uint) (school.School, error) {
	var sch school.School
	if err := repo.db.Where("admin_id = ?", adminID).First(&sch).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return school.School{}, school.ErrNotFound
		}
		return school.School{}, err
	}
	return sch, nil
}

func (repo *schoolRepository) UpdateSchool(sch school.School) (school.School, error) {
	if err := repo.db.Save(&sch).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return school.School{}, school.ErrNameExists
		}
		return school.School{}, err
	}
	return sch, nil
}
