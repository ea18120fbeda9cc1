package inmemdb

import (
	"time"

	"github.com/shulehub/shule/core/user"
)

type userRepository struct {
	db *DB
}

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CreateUser(usr user.User) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	return repo.db.createUser(usr)
}

// createUser must be called with db.mu held.
func (db *DB) createUser(usr user.User) (user.User, error) {
	for _, u := range db.users {
		if u.Email == usr.Email {
			return user.User{}, user.ErrEmailExists
		}
	}
	usr.ID = db.nextPK()
	db.users[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) GetUserByID(id uint) (user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if usr, ok := repo.db.users[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(email string) (user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, usr := range repo.db.users {
		if usr.Email == email {
			return *usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(usr user.User) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.users[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) SetLastLogin(id uint, t time.Time) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	usr, ok := repo.db.users[id]
	if !ok {
		return user.ErrNotFound
	}
	usr.LastLogin = t
	return nil
}

func (repo *userRepository) DeleteUsersByID(ids ...uint) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, id := range ids {
		delete(repo.db.users, id)
	}
	return nil
}

func (repo *userRepository) CreateVerification(v user.EmailVerification) (user.EmailVerification, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	v.ID = repo.db.nextPK()
	repo.db.verifications[v.ID] = &v
	return v, nil
}

func (repo *userRepository) LatestVerification(userID uint, otp string) (user.EmailVerification, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var latest *user.EmailVerification
	for _, v := range repo.db.verifications {
		if v.UserID != userID || v.OTP != otp || v.Used {
			continue
		}
		if latest == nil || v.CreatedAt.After(latest.CreatedAt) {
			latest = v
		}
	}
	if latest == nil {
		return user.EmailVerification{}, user.ErrOTPNotFound
	}
	return *latest, nil
}

func (repo *userRepository) InvalidateVerifications(userID uint) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, v := range repo.db.verifications {
		if v.UserID == userID {
			v.Used = true
		}
	}
	return nil
}

func (repo *userRepository) ConsumeVerification(verificationID, userID uint) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	v, ok := repo.db.verifications[verificationID]
	if !ok {
		return user.ErrOTPNotFound
	}
	usr, ok := repo.db.users[userID]
	if !ok {
		return user.ErrNotFound
	}
	v.Used = true
	usr.IsVerified = true
	return nil
}

func (repo *userRepository) CreatePasswordReset(r user.PasswordReset) (user.PasswordReset, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	r.ID = repo.db.nextPK()
	repo.db.resets[r.ID] = &r
	return r, nil
}

func (repo *userRepository) LatestPasswordReset(userID uint, otp string) (user.PasswordReset, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var latest *user.PasswordReset
	for _, r := range repo.db.resets {
		if r.UserID != userID || r.OTP != otp || r.Used {
			continue
		}
		if latest == nil || r.CreatedAt.After(latest.CreatedAt) {
			latest = r
		}
	}
	if latest == nil {
		return user.PasswordReset{}, user.ErrOTPNotFound
	}
	return *latest, nil
}

func (repo *userRepository) InvalidatePasswordResets(userID uint) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, r := range repo.db.resets {
		if r.UserID == userID {
			r.Used = true
		}
	}
	return nil
}

func (repo *userRepository) ConsumePasswordReset(resetID, userID uint, hash []byte) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	r, ok := repo.db.resets[resetID]
	if !ok {
		return user.ErrOTPNotFound
	}
	usr, ok := repo.db.users[userID]
	if !ok {
		return user.ErrNotFound
	}
	r.Used = true
	usr.PasswordHash = hash
	return nil
}

func (repo *userRepository) RevokeToken(rt user.RevokedToken) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.revoked[rt.JTI]; ok {
		return nil
	}
	rt.ID = repo.db.nextPK()
	repo.db.revoked[rt.JTI] = &rt
	return nil
}

func (repo *userRepository) IsTokenRevoked(jti string) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	_, ok := repo.db.revoked[jti]
	return ok, nil
}
