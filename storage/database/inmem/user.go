package inmemdb

import (
	"context"

	"github.com/fypcompass/compass/core"
	"github.com/fypcompass/compass/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckEmailUniqueness(_ context.Context, email string, excludedUsers ...user.User) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	excluded := make(map[string]struct{}, len(excludedUsers))
	for _, u := range excludedUsers {
		excluded[u.ID] = struct{}{}
	}
	for _, usr := range repo.db.users {
		if _, ok := excluded[usr.ID]; ok {
			continue
		}
		if usr.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	usr.ID = repo.db.newID()
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) QueryUsers(_ context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	users := make([]user.User, 0, len(repo.db.users))
	for _, usr := range repo.db.users {
		if filter != nil {
			if filter.Search != "" && !containsFold(usr.Name, filter.Search) && !containsFold(usr.Email, filter.Search) {
				continue
			}
			if len(filter.Roles) > 0 && !core.ContainsString(filter.Roles, usr.Role) {
				continue
			}
		}
		users = append(users, *usr)
	}

	fields := map[string]compareFunc{
		"name":       func(i, j int) int { return compareStrings(users[i].Name, users[j].Name) },
		"email":      func(i, j int) int { return compareStrings(users[i].Email, users[j].Email) },
		"role":       func(i, j int) int { return compareStrings(users[i].Role, users[j].Role) },
		"is_active":  func(i, j int) int { return compareBools(users[i].IsActive, users[j].IsActive) },
		"created_at": func(i, j int) int { return compareTimes(users[i].CreatedAt, users[j].CreatedAt) },
		"updated_at": func(i, j int) int { return compareTimes(users[i].UpdatedAt, users[j].UpdatedAt) },
		"last_login": func(i, j int) int { return compareTimes(users[i].LastLogin, users[j].LastLogin) },
	}
	sortBy(len(users), func(i, j int) { users[i], users[j] = users[j], users[i] }, ordering, fields,
		func(i, j int) bool {
			return repo.db.older(users[i].ID, users[i].CreatedAt, users[j].ID, users[j].CreatedAt)
		})
	return users, nil
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if filter.ID != "" {
		if usr, ok := repo.db.users[filter.ID]; ok {
			return *usr, nil
		}
		return user.User{}, user.ErrNotFound
	}
	if filter.Email != "" {
		for _, usr := range repo.db.users {
			if usr.Email == filter.Email {
				return *usr, nil
			}
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUsersByID(_ context.Context, ids ...string) ([]user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	users := make([]user.User, 0, len(ids))
	for _, id := range ids {
		if usr, ok := repo.db.users[id]; ok {
			users = append(users, *usr)
		}
	}
	return users, nil
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.users[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) DeleteUsersByID(_ context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		repo.db.deleteUser(id)
	}
	return nil
}
