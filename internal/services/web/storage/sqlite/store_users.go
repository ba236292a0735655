package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/casanorte/casanorte/internal/services/web/storage"
)

const userColumns = `id, username, first_name, last_name, email, phone_number, status, invite_id, created_at, updated_at`

// PutUser inserts or updates a local account.
func (s *Store) PutUser(ctx context.Context, u storage.User) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if err := required("user id", u.ID); err != nil {
		return err
	}
	if err := required("username", u.Username); err != nil {
		return err
	}
	if strings.TrimSpace(u.Status) == "" {
		u.Status = storage.StatusReviewRequired
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO users (`+userColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    username = excluded.username,
    first_name = excluded.first_name,
    last_name = excluded.last_name,
    email = excluded.email,
    phone_number = excluded.phone_number,
    status = excluded.status,
    invite_id = excluded.invite_id,
    updated_at = excluded.updated_at`,
		u.ID, u.Username, u.FirstName, u.LastName, u.Email, u.PhoneNumber, u.Status, u.InviteID,
		toMillis(u.CreatedAt), toMillis(u.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("put user: %w", storage.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("put user: %w", err)
	}
	return nil
}

// GetUser loads a local account by id.
func (s *Store) GetUser(ctx context.Context, userID string) (storage.User, error) {
	if err := s.ready(ctx); err != nil {
		return storage.User{}, err
	}
	if err := required("user id", userID); err != nil {
		return storage.User{}, err
	}
	return s.scanUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, userID)
}

// GetUserByPhone loads a local account by E.164 phone number.
func (s *Store) GetUserByPhone(ctx context.Context, phoneNumber string) (storage.User, error) {
	if err := s.ready(ctx); err != nil {
		return storage.User{}, err
	}
	if err := required("phone number", phoneNumber); err != nil {
		return storage.User{}, err
	}
	return s.scanUser(ctx, `SELECT `+userColumns+` FROM users WHERE phone_number = ?`, phoneNumber)
}

func (s *Store) scanUser(ctx context.Context, query string, arg string) (storage.User, error) {
	var (
		u         storage.User
		createdAt int64
		updatedAt int64
	)
	err := s.sqlDB.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.Email, &u.PhoneNumber,
		&u.Status, &u.InviteID, &createdAt, &updatedAt,
	)
	if err != nil {
		return storage.User{}, fmt.Errorf("get user: %w", notFound(err))
	}
	u.CreatedAt = fromMillis(createdAt)
	u.UpdatedAt = fromMillis(updatedAt)
	return u, nil
}
