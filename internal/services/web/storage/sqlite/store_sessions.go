package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/casanorte/casanorte/internal/services/web/storage"
)

// PutWebSession stores a signed-in browser session.
func (s *Store) PutWebSession(ctx context.Context, session storage.WebSession) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if err := required("session id", session.ID); err != nil {
		return err
	}
	if err := required("user id", session.UserID); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO web_sessions (id, user_id, created_at, expires_at, revoked_at) VALUES (?, ?, ?, ?, ?)`,
		session.ID, session.UserID, toMillis(session.CreatedAt), toMillis(session.ExpiresAt), toNullMillis(session.RevokedAt),
	)
	if err != nil {
		return fmt.Errorf("put web session: %w", err)
	}
	return nil
}

// GetWebSession loads a signed-in browser session.
func (s *Store) GetWebSession(ctx context.Context, id string) (storage.WebSession, error) {
	if err := s.ready(ctx); err != nil {
		return storage.WebSession{}, err
	}
	if err := required("session id", id); err != nil {
		return storage.WebSession{}, err
	}
	var (
		session   storage.WebSession
		createdAt int64
		expiresAt int64
		revokedAt sql.NullInt64
	)
	err := s.sqlDB.QueryRowContext(ctx, `
SELECT id, user_id, created_at, expires_at, revoked_at FROM web_sessions WHERE id = ?`, id,
	).Scan(&session.ID, &session.UserID, &createdAt, &expiresAt, &revokedAt)
	if err != nil {
		return storage.WebSession{}, fmt.Errorf("get web session: %w", notFound(err))
	}
	session.CreatedAt = fromMillis(createdAt)
	session.ExpiresAt = fromMillis(expiresAt)
	session.RevokedAt = fromNullMillis(revokedAt)
	return session, nil
}

// RevokeWebSession marks a session revoked; revoking twice keeps the first time.
func (s *Store) RevokeWebSession(ctx context.Context, id string, at time.Time) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE web_sessions SET revoked_at = COALESCE(revoked_at, ?) WHERE id = ?`, toMillis(at), id)
	if err != nil {
		return fmt.Errorf("revoke web session: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("revoke web session: %w", storage.ErrNotFound)
	}
	return nil
}

// PutOTPChallenge stores a phone verification challenge.
func (s *Store) PutOTPChallenge(ctx context.Context, challenge storage.OTPChallenge) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if err := required("challenge id", challenge.ID); err != nil {
		return err
	}
	if err := required("phone number", challenge.PhoneNumber); err != nil {
		return err
	}
	if err := required("session info", challenge.SessionInfo); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO otp_challenges (id, phone_number, session_info, created_at, expires_at, verified_at) VALUES (?, ?, ?, ?, ?, ?)`,
		challenge.ID, challenge.PhoneNumber, challenge.SessionInfo,
		toMillis(challenge.CreatedAt), toMillis(challenge.ExpiresAt), toNullMillis(challenge.VerifiedAt),
	)
	if err != nil {
		return fmt.Errorf("put otp challenge: %w", err)
	}
	return nil
}

// GetOTPChallenge loads a phone verification challenge.
func (s *Store) GetOTPChallenge(ctx context.Context, id string) (storage.OTPChallenge, error) {
	if err := s.ready(ctx); err != nil {
		return storage.OTPChallenge{}, err
	}
	if err := required("challenge id", id); err != nil {
		return storage.OTPChallenge{}, err
	}
	var (
		challenge  storage.OTPChallenge
		createdAt  int64
		expiresAt  int64
		verifiedAt sql.NullInt64
	)
	err := s.sqlDB.QueryRowContext(ctx, `
SELECT id, phone_number, session_info, created_at, expires_at, verified_at FROM otp_challenges WHERE id = ?`, id,
	).Scan(&challenge.ID, &challenge.PhoneNumber, &challenge.SessionInfo, &createdAt, &expiresAt, &verifiedAt)
	if err != nil {
		return storage.OTPChallenge{}, fmt.Errorf("get otp challenge: %w", notFound(err))
	}
	challenge.CreatedAt = fromMillis(createdAt)
	challenge.ExpiresAt = fromMillis(expiresAt)
	challenge.VerifiedAt = fromNullMillis(verifiedAt)
	return challenge, nil
}

// MarkOTPChallengeVerified records a successful verification once.
func (s *Store) MarkOTPChallengeVerified(ctx context.Context, id string, at time.Time) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE otp_challenges SET verified_at = ? WHERE id = ? AND verified_at IS NULL`, toMillis(at), id)
	if err != nil {
		return fmt.Errorf("verify otp challenge: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("verify otp challenge: %w", storage.ErrNotFound)
	}
	return nil
}

// PutInviteValidation records an invite phone-validation receipt.
func (s *Store) PutInviteValidation(ctx context.Context, validation storage.InviteValidation) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if err := required("invite id", validation.InviteID); err != nil {
		return err
	}
	if err := required("browser key", validation.BrowserKey); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT OR REPLACE INTO invite_validations (invite_id, browser_key, validated_at, expires_at) VALUES (?, ?, ?, ?)`,
		validation.InviteID, validation.BrowserKey, toMillis(validation.ValidatedAt), toMillis(validation.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("put invite validation: %w", err)
	}
	return nil
}

// GetInviteValidation loads the receipt for one invite and browser.
func (s *Store) GetInviteValidation(ctx context.Context, inviteID string, browserKey string) (storage.InviteValidation, error) {
	if err := s.ready(ctx); err != nil {
		return storage.InviteValidation{}, err
	}
	var (
		validation  storage.InviteValidation
		validatedAt int64
		expiresAt   int64
	)
	err := s.sqlDB.QueryRowContext(ctx, `
SELECT invite_id, browser_key, validated_at, expires_at FROM invite_validations WHERE invite_id = ? AND browser_key = ?`,
		inviteID, browserKey,
	).Scan(&validation.InviteID, &validation.BrowserKey, &validatedAt, &expiresAt)
	if err != nil {
		return storage.InviteValidation{}, fmt.Errorf("get invite validation: %w", notFound(err))
	}
	validation.ValidatedAt = fromMillis(validatedAt)
	validation.ExpiresAt = fromMillis(expiresAt)
	return validation, nil
}
