package invitation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ultracrew/ultracrew/internal/crypto"
)

// ErrNotPending is returned by the status-guarded transitions when the row
// was no longer pending, which is how a lost token-replay race surfaces.
var ErrNotPending = errors.New("invitation is no longer pending")

const invitationColumns = `id, inviter_user_id, invitee_email, token_hash, status, expires_at, declined_at, decline_reason, created_at, updated_at`

// Store provides database operations for invitations.
type Store struct {
	pool   *pgxpool.Pool
	cipher *crypto.Cipher
}

// NewStore creates a new invitation store. cipher may be nil, in which case
// decline reasons are stored in plaintext.
func NewStore(pool *pgxpool.Pool, cipher *crypto.Cipher) *Store {
	return &Store{pool: pool, cipher: cipher}
}

// scanInvitation scans an invitation row.
func scanInvitation(scan func(dest ...any) error) (*Invitation, error) {
	i := &Invitation{}
	err := scan(&i.ID, &i.InviterUserID, &i.InviteeEmail, &i.TokenHash, &i.Status, &i.ExpiresAt, &i.DeclinedAt, &i.DeclineReason, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return i, nil
}

func (s *Store) encryptReason(reason string) (string, error) {
	if reason == "" {
		return "", nil
	}
	return s.cipher.Encrypt(reason)
}

func (s *Store) decryptReason(stored string) (string, error) {
	if stored == "" {
		return "", nil
	}
	return s.cipher.Decrypt(stored)
}

func (s *Store) decryptRow(i *Invitation) error {
	reason, err := s.decryptReason(i.DeclineReason)
	if err != nil {
		return fmt.Errorf("decrypting decline reason: %w", err)
	}
	i.DeclineReason = reason
	return nil
}

// Create inserts a new pending invitation. Only the token hash is stored.
func (s *Store) Create(ctx context.Context, inviterUserID, inviteeEmail, tokenHash string, expiresAt time.Time) (*Invitation, error) {
	i, err := scanInvitation(func(dest ...any) error {
		return s.pool.QueryRow(ctx,
			`INSERT INTO coach_invitations (inviter_user_id, invitee_email, token_hash, status, expires_at)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING `+invitationColumns,
			inviterUserID, inviteeEmail, tokenHash, StatusPending, expiresAt,
		).Scan(dest...)
	})
	if err != nil {
		return nil, fmt.Errorf("creating invitation: %w", err)
	}
	return i, nil
}

// GetByID retrieves an invitation by primary key.
func (s *Store) GetByID(ctx context.Context, id string) (*Invitation, error) {
	i, err := scanInvitation(func(dest ...any) error {
		return s.pool.QueryRow(ctx,
			`SELECT `+invitationColumns+` FROM coach_invitations WHERE id = $1`, id,
		).Scan(dest...)
	})
	if err != nil {
		return nil, fmt.Errorf("getting invitation: %w", err)
	}
	if err := s.decryptRow(i); err != nil {
		return nil, err
	}
	return i, nil
}

// GetByTokenHash retrieves an invitation by its token hash.
func (s *Store) GetByTokenHash(ctx context.Context, tokenHash string) (*Invitation, error) {
	i, err := scanInvitation(func(dest ...any) error {
		return s.pool.QueryRow(ctx,
			`SELECT `+invitationColumns+` FROM coach_invitations WHERE token_hash = $1`, tokenHash,
		).Scan(dest...)
	})
	if err != nil {
		return nil, fmt.Errorf("getting invitation by token: %w", err)
	}
	if err := s.decryptRow(i); err != nil {
		return nil, err
	}
	return i, nil
}

// ListByInviter returns the inviter's invitations, newest first, optionally
// filtered by status.
func (s *Store) ListByInviter(ctx context.Context, inviterUserID, status string) ([]*Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM coach_invitations WHERE inviter_user_id = $1`
	args := []any{inviterUserID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing invitations: %w", err)
	}
	defer rows.Close()

	var invitations []*Invitation
	for rows.Next() {
		i, err := scanInvitation(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning invitation row: %w", err)
		}
		if err := s.decryptRow(i); err != nil {
			return nil, err
		}
		invitations = append(invitations, i)
	}
	return invitations, rows.Err()
}

// ExpirePending flips all of the inviter's pending invitations whose
// deadline has passed to expired. Used on the read path so list results
// never show a stale pending state.
func (s *Store) ExpirePending(ctx context.Context, inviterUserID string, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE coach_invitations SET status = $3, updated_at = now()
		 WHERE inviter_user_id = $1 AND status = $2 AND expires_at < $4`,
		inviterUserID, StatusPending, StatusExpired, now,
	)
	if err != nil {
		return 0, fmt.Errorf("expiring invitations: %w", err)
	}
	return tag.RowsAffected(), nil
}

// MarkExpired transitions a single pending invitation to expired. Returns
// ErrNotPending if the row already left the pending state.
func (s *Store) MarkExpired(ctx context.Context, id string) (*Invitation, error) {
	return s.guardedTransition(ctx,
		`UPDATE coach_invitations SET status = $2, updated_at = now()
		 WHERE id = $1 AND status = $3
		 RETURNING `+invitationColumns,
		id, StatusExpired, StatusPending,
	)
}

// MarkRevoked transitions a single pending invitation to revoked. Returns
// ErrNotPending if the row already left the pending state.
func (s *Store) MarkRevoked(ctx context.Context, id string) (*Invitation, error) {
	return s.guardedTransition(ctx,
		`UPDATE coach_invitations SET status = $2, updated_at = now()
		 WHERE id = $1 AND status = $3
		 RETURNING `+invitationColumns,
		id, StatusRevoked, StatusPending,
	)
}

// MarkDeclined transitions a pending invitation to declined, recording the
// optional reason and the decline time. Returns ErrNotPending if the row
// already left the pending state.
func (s *Store) MarkDeclined(ctx context.Context, id, reason string, declinedAt time.Time) (*Invitation, error) {
	stored, err := s.encryptReason(reason)
	if err != nil {
		return nil, fmt.Errorf("encrypting decline reason: %w", err)
	}
	i, err := s.guardedTransition(ctx,
		`UPDATE coach_invitations SET status = $2, decline_reason = $4, declined_at = $5, updated_at = now()
		 WHERE id = $1 AND status = $3
		 RETURNING `+invitationColumns,
		id, StatusDeclined, StatusPending, stored, declinedAt,
	)
	if err != nil {
		return nil, err
	}
	return i, nil
}

// guardedTransition runs a conditional UPDATE whose WHERE clause includes
// the current status. Zero rows means a concurrent transition won.
func (s *Store) guardedTransition(ctx context.Context, query string, args ...any) (*Invitation, error) {
	i, err := scanInvitation(func(dest ...any) error {
		return s.pool.QueryRow(ctx, query, args...).Scan(dest...)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotPending
		}
		return nil, fmt.Errorf("transitioning invitation: %w", err)
	}
	if err := s.decryptRow(i); err != nil {
		return nil, err
	}
	return i, nil
}

// AcceptTx marks a pending invitation accepted and runs createRelationship
// inside the same transaction, so the accepted invitation and its
// relationship commit together or not at all. Returns ErrNotPending if the
// status guard matched no row.
func (s *Store) AcceptTx(ctx context.Context, id string, createRelationship func(pgx.Tx) error) (*Invitation, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning accept transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	i, err := scanInvitation(func(dest ...any) error {
		return tx.QueryRow(ctx,
			`UPDATE coach_invitations SET status = $2, updated_at = now()
			 WHERE id = $1 AND status = $3
			 RETURNING `+invitationColumns,
			id, StatusAccepted, StatusPending,
		).Scan(dest...)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotPending
		}
		return nil, fmt.Errorf("accepting invitation: %w", err)
	}

	if err := createRelationship(tx); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing accept transaction: %w", err)
	}

	if err := s.decryptRow(i); err != nil {
		return nil, err
	}
	return i, nil
}
