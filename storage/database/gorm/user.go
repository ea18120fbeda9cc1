package gormrepos

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/shulehub/shule/core/user"
)

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CreateUser(usr user.User) (user.User, error) {
	err := createUser(repo.db, &usr)
	return usr, err
}

// createUser is shared with the teacher repository's onboarding transaction.
func createUser(db *gorm.DB, usr *user.User) error {
	var count int64
	if err := db.Model(&user.User{}).Where("email = ?", usr.Email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return user.ErrEmailExists
	}
	if err := db.Create(usr).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return user.ErrEmailExists
		}
		return err
	}
	return nil
}

func (repo *userRepository) GetUserByID(id uint) (user.User, error) {
	var usr user.User
	if err := repo.db.First(&usr, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return usr, nil
}

func (repo *userRepository) GetUserByEmail(email string) (user.User, error) {
	var usr user.User
	if err := repo.db.Where("email = ?", email).First(&usr).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return usr, nil
}

func (repo *userRepository) UpdateUser(usr user.User) (user.User, error) {
	if err := repo.db.Save(&usr).Error; err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (repo *userRepository) SetLastLogin(id uint, t time.Time) error {
	return repo.db.Model(&user.User{}).Where("id = ?", id).Update("last_login", t).Error
}

func (repo *userRepository) DeleteUsersByID(ids ...uint) error {
	if len(ids) == 0 {
		return nil
	}
	return repo.db.Delete(&user.User{}, ids).Error
}

func (repo *userRepository) CreateVerification(v user.EmailVerification) (user.EmailVerification, error) {
	err := repo.db.Create(&v).Error
	return v, err
}

func (repo *userRepository) LatestVerification(userID uint, otp string) (user.EmailVerification, error) {
	var v user.EmailVerification
	err := repo.db.
		Where("user_id = ? AND otp = ? AND used = false", userID, otp).
		Order("created_at DESC").
		First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return user.EmailVerification{}, user.ErrOTPNotFound
		}
		return user.EmailVerification{}, err
	}
	return v, nil
}

func (repo *userRepository) InvalidateVerifications(userID uint) error {
	return repo.db.Model(&user.EmailVerification{}).
		Where("user_id = ? AND used = false", userID).
		Update("used", true).Error
}

func (repo *userRepository) ConsumeVerification(verificationID, userID uint) error {
	return repo.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user.EmailVerification{}).
			Where("id = ?", verificationID).
			Update("used", true).Error; err != nil {
			return err
		}
		return tx.Model(&user.User{}).
			Where("id = ?", userID).
			Update("is_verified", true).Error
	})
}

func (repo *userRepository) CreatePasswordReset(r user.PasswordReset) (user.PasswordReset, error) {
	err := repo.db.Create(&r).Error
	return r, err
}

func (repo *userRepository) LatestPasswordReset(userID uint, otp string) (user.PasswordReset, error) {
	var r user.PasswordReset
	err := repo.db.
		Where("user_id = ? AND otp = ? AND used = false", userID, otp).
		Order("created_at DESC").
		First(&r).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return user.PasswordReset{}, user.ErrOTPNotFound
		}
		return user.PasswordReset{}, err
	}
	return r, nil
}

func (repo *userRepository) InvalidatePasswordResets(userID uint) error {
	return repo.db.Model(&user.PasswordReset{}).
		Where("user_id = ? AND used = false", userID).
		Update("used", true).Error
}

func (repo *userRepository) ConsumePasswordReset(resetID, userID uint, hash []byte) error {
	return repo.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user.PasswordReset{}).
			Where("id = ?", resetID).
			Update("used", true).Error; err != nil {
			return err
		}
		return tx.Model(&user.User{}).
			Where("id = ?", userID).
			Update("password_hash", hash).Error
	})
}

func (repo *userRepository) RevokeToken(rt user.RevokedToken) error {
	err := repo.db.Create(&rt).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil // already revoked
	}
	return err
}

func (repo *userRepository) IsTokenRevoked(jti string) (bool, error) {
	var count int64
	err := repo.db.Model(&user.RevokedToken{}).Where("jti = ?", jti).Count(&count).Error
	return count > 0, err
}
