package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/casanorte/casanorte/internal/services/web/storage"
)

// PutPasskeyCredential inserts or updates a WebAuthn credential.
func (s *Store) PutPasskeyCredential(ctx context.Context, credential storage.PasskeyCredential) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if err := required("credential id", credential.CredentialID); err != nil {
		return err
	}
	if err := required("user id", credential.UserID); err != nil {
		return err
	}
	if err := required("credential json", credential.CredentialJSON); err != nil {
		return err
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO passkey_credentials (credential_id, user_id, credential_json, created_at, updated_at, last_used_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (credential_id) DO UPDATE SET
    credential_json = excluded.credential_json,
    updated_at = excluded.updated_at,
    last_used_at = excluded.last_used_at`,
		credential.CredentialID, credential.UserID, credential.CredentialJSON,
		toMillis(credential.CreatedAt), toMillis(credential.UpdatedAt), toNullMillis(credential.LastUsedAt),
	)
	if err != nil {
		return fmt.Errorf("put passkey: %w", err)
	}
	return nil
}

// GetPasskeyCredential loads a WebAuthn credential by its encoded id.
func (s *Store) GetPasskeyCredential(ctx context.Context, credentialID string) (storage.PasskeyCredential, error) {
	if err := s.ready(ctx); err != nil {
		return storage.PasskeyCredential{}, err
	}
	if err := required("credential id", credentialID); err != nil {
		return storage.PasskeyCredential{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT credential_id, user_id, credential_json, created_at, updated_at, last_used_at
FROM passkey_credentials WHERE credential_id = ?`, credentialID)
	credential, err := scanPasskey(row)
	if err != nil {
		return storage.PasskeyCredential{}, fmt.Errorf("get passkey: %w", notFound(err))
	}
	return credential, nil
}

// ListPasskeyCredentials returns a user's credentials, oldest first.
func (s *Store) ListPasskeyCredentials(ctx context.Context, userID string) ([]storage.PasskeyCredential, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if err := required("user id", userID); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT credential_id, user_id, credential_json, created_at, updated_at, last_used_at
FROM passkey_credentials WHERE user_id = ? ORDER BY created_at, credential_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list passkeys: %w", err)
	}
	defer rows.Close()

	var credentials []storage.PasskeyCredential
	for rows.Next() {
		credential, err := scanPasskey(rows)
		if err != nil {
			return nil, fmt.Errorf("scan passkey: %w", err)
		}
		credentials = append(credentials, credential)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list passkeys: %w", err)
	}
	return credentials, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPasskey(row rowScanner) (storage.PasskeyCredential, error) {
	var (
		credential storage.PasskeyCredential
		createdAt  int64
		updatedAt  int64
		lastUsedAt sql.NullInt64
	)
	if err := row.Scan(&credential.CredentialID, &credential.UserID, &credential.CredentialJSON, &createdAt, &updatedAt, &lastUsedAt); err != nil {
		return storage.PasskeyCredential{}, err
	}
	credential.CreatedAt = fromMillis(createdAt)
	credential.UpdatedAt = fromMillis(updatedAt)
	credential.LastUsedAt = fromNullMillis(lastUsedAt)
	return credential, nil
}

// PutPasskeySession stores an in-flight WebAuthn ceremony.
func (s *Store) PutPasskeySession(ctx context.Context, session storage.PasskeySession) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if err := required("session id", session.ID); err != nil {
		return err
	}
	if err := required("session kind", session.Kind); err != nil {
		return err
	}
	if err := required("session json", session.SessionJSON); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT OR REPLACE INTO passkey_sessions (id, kind, user_id, session_json, expires_at)
VALUES (?, ?, ?, ?, ?)`,
		session.ID, session.Kind, session.UserID, session.SessionJSON, toMillis(session.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("put passkey session: %w", err)
	}
	return nil
}

// GetPasskeySession loads an in-flight WebAuthn ceremony.
func (s *Store) GetPasskeySession(ctx context.Context, id string) (storage.PasskeySession, error) {
	if err := s.ready(ctx); err != nil {
		return storage.PasskeySession{}, err
	}
	if err := required("session id", id); err != nil {
		return storage.PasskeySession{}, err
	}
	var (
		session   storage.PasskeySession
		expiresAt int64
	)
	err := s.sqlDB.QueryRowContext(ctx, `
SELECT id, kind, user_id, session_json, expires_at FROM passkey_sessions WHERE id = ?`, id,
	).Scan(&session.ID, &session.Kind, &session.UserID, &session.SessionJSON, &expiresAt)
	if err != nil {
		return storage.PasskeySession{}, fmt.Errorf("get passkey session: %w", notFound(err))
	}
	session.ExpiresAt = fromMillis(expiresAt)
	return session, nil
}

// DeletePasskeySession removes an in-flight WebAuthn ceremony.
func (s *Store) DeletePasskeySession(ctx context.Context, id string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM passkey_sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete passkey session: %w", err)
	}
	return nil
}
