package memory

import (
	"context"

	"github.com/JadeHendricks/mern-devconnector/internal/domain/user"
)

type UsersRepo struct {
	db *DB
}

func NewUsersRepo(db *DB) *UsersRepo {
	return &UsersRepo{db: db}
}

func (r *UsersRepo) Create(_ context.Context, u user.User) (user.User, error) {
	u.Email = user.NormalizeEmail(u.Email)

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, taken := r.db.emails[u.Email]; taken {
		return user.User{}, user.ErrEmailTaken
	}

	r.db.users[u.ID] = u
	r.db.emails[u.Email] = u.ID

	return u, nil
}

func (r *UsersRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	id, ok := r.db.emails[user.NormalizeEmail(email)]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return r.db.users[id], nil
}

func (r *UsersRepo) GetByID(_ context.Context, id string) (user.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	u, ok := r.db.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return u, nil
}

func (r *UsersRepo) DeleteAccount(_ context.Context, userID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	delete(r.db.profiles, userID)

	if u, ok := r.db.users[userID]; ok {
		delete(r.db.emails, u.Email)
		delete(r.db.users, userID)
	}

	return nil
}
