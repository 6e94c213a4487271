package database

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/fasthelp/fasthelp/internal/store"
	"github.com/fasthelp/fasthelp/pkg/models"
)

// encodeUser flattens a user into the string-typed hash representation.
func encodeUser(u *models.User) map[string]string {
	return map[string]string{
		"id":          u.ID,
		"fullName":    u.FullName,
		"username":    u.Username,
		"email":       u.Email,
		"phone":       u.Phone,
		"password":    u.PasswordHash,
		"role":        string(u.Role),
		"approval":    string(u.Approval),
		"createdAt":   encodeTime(u.CreatedAt),
		"updatedAt":   encodeTime(u.UpdatedAt),
		"lastLoginAt": encodeTime(u.LastLoginAt),
	}
}

func decodeUser(fields map[string]string) *models.User {
	return &models.User{
		ID:           fields["id"],
		FullName:     fields["fullName"],
		Username:     fields["username"],
		Email:        fields["email"],
		Phone:        fields["phone"],
		PasswordHash: fields["password"],
		Role:         models.Role(fields["role"]),
		Approval:     models.Approval(fields["approval"]),
		CreatedAt:    decodeTime(fields["createdAt"]),
		UpdatedAt:    decodeTime(fields["updatedAt"]),
		LastLoginAt:  decodeTime(fields["lastLoginAt"]),
	}
}

// CreateUser inserts a new user. It rejects duplicate emails and
// usernames, assigns the identifier and timestamps, and registers the
// user in the lookup maps and, unless pre-approved, the pending set.
func (db *DB) CreateUser(ctx context.Context, u *models.User) (*models.User, error) {
	if id, err := db.store.MapGet(ctx, mapUsersEmail, u.Email); err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	} else if id != "" {
		return nil, ErrEmailTaken
	}
	if id, err := db.store.MapGet(ctx, mapUsersUsername, u.Username); err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	} else if id != "" {
		return nil, ErrUsernameTaken
	}

	now := time.Now()
	u.ID = uuid.New().String()
	u.CreatedAt = now
	u.UpdatedAt = now
	if u.Approval == "" {
		u.Approval = models.ApprovalPending
	}

	err := db.store.Update(ctx, func(tx *store.Tx) {
		tx.SetFields(keyUser(u.ID), encodeUser(u))
		tx.AddToSet(setUsersAll, u.ID)
		tx.MapSet(mapUsersEmail, u.Email, u.ID)
		tx.MapSet(mapUsersUsername, u.Username, u.ID)
		if u.Approval != models.ApprovalApproved {
			tx.AddToSet(setUsersPending, u.ID)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// GetUserByID looks up a user by ID. Returns (nil, nil) on miss.
func (db *DB) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	fields, err := db.store.GetFields(ctx, keyUser(id))
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return decodeUser(fields), nil
}

// GetUserByEmail looks up a user through the email lookup map.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	id, err := db.store.MapGet(ctx, mapUsersEmail, email)
	if err != nil || id == "" {
		return nil, err
	}
	return db.GetUserByID(ctx, id)
}

// GetUserByUsername looks up a user through the username lookup map.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	id, err := db.store.MapGet(ctx, mapUsersUsername, username)
	if err != nil || id == "" {
		return nil, err
	}
	return db.GetUserByID(ctx, id)
}

// UpdateUser applies a mutation to the stored record and rewrites it
// with a fresh modification timestamp. Last write wins.
func (db *DB) UpdateUser(ctx context.Context, id string, apply func(*models.User)) (*models.User, error) {
	u, err := db.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNotFound
	}
	apply(u)
	u.UpdatedAt = time.Now()
	if err := db.store.SetFields(ctx, keyUser(id), encodeUser(u)); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return u, nil
}

// UpdateLastLogin stamps a successful login.
func (db *DB) UpdateLastLogin(ctx context.Context, id string, t time.Time) error {
	_, err := db.UpdateUser(ctx, id, func(u *models.User) { u.LastLoginAt = t })
	return err
}

// AllUsers returns every user, newest first.
func (db *DB) AllUsers(ctx context.Context) ([]models.User, error) {
	ids, err := db.store.SetMembers(ctx, setUsersAll)
	if err != nil {
		return nil, err
	}
	users := make([]models.User, 0, len(ids))
	for _, id := range ids {
		u, err := db.GetUserByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if u != nil {
			users = append(users, *u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return users, nil
}

// ApproveUser removes the user from the pending set and marks the
// account approved.
func (db *DB) ApproveUser(ctx context.Context, id string) (*models.User, error) {
	u, err := db.UpdateUser(ctx, id, func(u *models.User) { u.Approval = models.ApprovalApproved })
	if err != nil {
		return nil, err
	}
	if err := db.store.RemoveFromSet(ctx, setUsersPending, id); err != nil {
		return nil, err
	}
	return u, nil
}

// DenyUser marks the account denied. Denial is terminal: the user
// stays out of the pending set once processed.
func (db *DB) DenyUser(ctx context.Context, id string) (*models.User, error) {
	u, err := db.UpdateUser(ctx, id, func(u *models.User) { u.Approval = models.ApprovalDenied })
	if err != nil {
		return nil, err
	}
	if err := db.store.RemoveFromSet(ctx, setUsersPending, id); err != nil {
		return nil, err
	}
	return u, nil
}

// DeleteUser removes the user from every set and both lookup maps,
// then deletes the hash.
func (db *DB) DeleteUser(ctx context.Context, id string) error {
	u, err := db.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if u == nil {
		return ErrNotFound
	}
	return db.store.Update(ctx, func(tx *store.Tx) {
		tx.RemoveFromSet(setUsersAll, id)
		tx.RemoveFromSet(setUsersPending, id)
		tx.MapDel(mapUsersEmail, u.Email)
		tx.MapDel(mapUsersUsername, u.Username)
		tx.Delete(keyUser(id))
	})
}
