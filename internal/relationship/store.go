package relationship

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ultracrew/ultracrew/internal/crypto"
)

// ErrDuplicatePair is returned when a pairing already exists for the same
// (coach_id, runner_id) pair, in any status.
var ErrDuplicatePair = errors.New("relationship already exists for this pair")

const relationshipColumns = `id, coach_id, runner_id, status, relationship_type, invited_by, notes, created_at, updated_at`

// Store provides database operations for coach/runner relationships.
type Store struct {
	pool   *pgxpool.Pool
	cipher *crypto.Cipher
}

// NewStore creates a new relationship store. cipher may be nil, in which
// case notes are stored in plaintext.
func NewStore(pool *pgxpool.Pool, cipher *crypto.Cipher) *Store {
	return &Store{pool: pool, cipher: cipher}
}

// scanRelationship scans a relationship row.
func scanRelationship(scan func(dest ...any) error) (*Relationship, error) {
	r := &Relationship{}
	err := scan(&r.ID, &r.CoachID, &r.RunnerID, &r.Status, &r.RelationshipType, &r.InvitedBy, &r.Notes, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// encryptNotes encrypts non-empty notes for storage. Empty notes stay empty
// so the at-rest format is unambiguous.
func (s *Store) encryptNotes(notes string) (string, error) {
	if notes == "" {
		return "", nil
	}
	return s.cipher.Encrypt(notes)
}

func (s *Store) decryptNotes(stored string) (string, error) {
	if stored == "" {
		return "", nil
	}
	return s.cipher.Decrypt(stored)
}

// ListByUser returns all relationships in which the user participates,
// newest first, optionally filtered by status. Each row is annotated with
// the caller's perspective and the other participant's profile.
func (s *Store) ListByUser(ctx context.Context, userID, status string) ([]*ListItem, error) {
	query := `SELECT r.id, r.coach_id, r.runner_id, r.status, r.relationship_type, r.invited_by, r.notes, r.created_at, r.updated_at,
	       c.name, c.full_name, c.email,
	       ru.name, ru.full_name, ru.email
	FROM coach_runner r
	JOIN users c ON r.coach_id = c.id
	JOIN users ru ON r.runner_id = ru.id
	WHERE (r.coach_id = $1 OR r.runner_id = $1)`
	args := []any{userID}
	if status != "" {
		query += ` AND r.status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY r.created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing relationships: %w", err)
	}
	defer rows.Close()

	var items []*ListItem
	for rows.Next() {
		item := &ListItem{}
		var coachName, coachFullName, coachEmail string
		var runnerName, runnerFullName, runnerEmail string
		err := rows.Scan(
			&item.ID, &item.CoachID, &item.RunnerID, &item.Status, &item.RelationshipType,
			&item.InvitedBy, &item.Notes, &item.CreatedAt, &item.UpdatedAt,
			&coachName, &coachFullName, &coachEmail,
			&runnerName, &runnerFullName, &runnerEmail,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning relationship row: %w", err)
		}

		item.Notes, err = s.decryptNotes(item.Notes)
		if err != nil {
			return nil, fmt.Errorf("decrypting notes: %w", err)
		}

		if item.CoachID == userID {
			item.IsCoach = true
			item.OtherParty = OtherParty{
				ID: item.RunnerID, Name: runnerName, FullName: runnerFullName,
				Email: runnerEmail, Role: "runner",
			}
		} else {
			item.IsRunner = true
			item.OtherParty = OtherParty{
				ID: item.CoachID, Name: coachName, FullName: coachFullName,
				Email: coachEmail, Role: "coach",
			}
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Create inserts a new pending relationship. A second insert for the same
// (coach_id, runner_id) pair returns ErrDuplicatePair without writing.
func (s *Store) Create(ctx context.Context, in CreateParams) (*Relationship, error) {
	notes, err := s.encryptNotes(in.Notes)
	if err != nil {
		return nil, fmt.Errorf("encrypting notes: %w", err)
	}

	r, err := scanRelationship(func(dest ...any) error {
		return s.pool.QueryRow(ctx,
			`INSERT INTO coach_runner (coach_id, runner_id, status, relationship_type, invited_by, notes)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING `+relationshipColumns,
			in.CoachID, in.RunnerID, StatusPending, in.RelationshipType, in.InvitedBy, notes,
		).Scan(dest...)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicatePair
		}
		return nil, fmt.Errorf("creating relationship: %w", err)
	}

	r.Notes, err = s.decryptNotes(r.Notes)
	if err != nil {
		return nil, fmt.Errorf("decrypting notes: %w", err)
	}
	return r, nil
}

// GetByParticipant retrieves a relationship only if the user is one of its
// two participants. A row the caller does not participate in behaves exactly
// like a missing row.
func (s *Store) GetByParticipant(ctx context.Context, id, userID string) (*Relationship, error) {
	r, err := scanRelationship(func(dest ...any) error {
		return s.pool.QueryRow(ctx,
			`SELECT `+relationshipColumns+`
			 FROM coach_runner
			 WHERE id = $1 AND (coach_id = $2 OR runner_id = $2)`,
			id, userID,
		).Scan(dest...)
	})
	if err != nil {
		return nil, fmt.Errorf("getting relationship: %w", err)
	}

	r.Notes, err = s.decryptNotes(r.Notes)
	if err != nil {
		return nil, fmt.Errorf("decrypting notes: %w", err)
	}
	return r, nil
}

// UpdateByParticipant performs a partial update, guarded by the same
// participant check as GetByParticipant.
func (s *Store) UpdateByParticipant(ctx context.Context, id, userID string, in UpdateRelationshipInput) (*Relationship, error) {
	var setClauses []string
	var args []any
	argIdx := 1

	if in.Status != nil {
		setClauses = append(setClauses, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *in.Status)
		argIdx++
	}
	if in.Notes != nil {
		notes, err := s.encryptNotes(*in.Notes)
		if err != nil {
			return nil, fmt.Errorf("encrypting notes: %w", err)
		}
		setClauses = append(setClauses, fmt.Sprintf("notes = $%d", argIdx))
		args = append(args, notes)
		argIdx++
	}

	if len(setClauses) == 0 {
		return s.GetByParticipant(ctx, id, userID)
	}

	setClauses = append(setClauses, "updated_at = now()")

	args = append(args, id, userID)
	query := fmt.Sprintf(
		`UPDATE coach_runner SET %s
		 WHERE id = $%d AND (coach_id = $%d OR runner_id = $%d)
		 RETURNING `+relationshipColumns,
		strings.Join(setClauses, ", "), argIdx, argIdx+1, argIdx+1,
	)

	r, err := scanRelationship(func(dest ...any) error {
		return s.pool.QueryRow(ctx, query, args...).Scan(dest...)
	})
	if err != nil {
		return nil, fmt.Errorf("updating relationship: %w", err)
	}

	r.Notes, err = s.decryptNotes(r.Notes)
	if err != nil {
		return nil, fmt.Errorf("decrypting notes: %w", err)
	}
	return r, nil
}

// DeleteByParticipant hard-deletes a relationship, guarded by the
// participant check. Returns pgx.ErrNoRows when nothing matched.
func (s *Store) DeleteByParticipant(ctx context.Context, id, userID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM coach_runner WHERE id = $1 AND (coach_id = $2 OR runner_id = $2)`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("deleting relationship: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// AvailableCoaches returns coaches with no relationship row, in any status,
// involving the given runner.
func (s *Store) AvailableCoaches(ctx context.Context, runnerID string) ([]*OtherParty, error) {
	return s.availableUsers(ctx, "coach", "coach_id", "runner_id", runnerID)
}

// AvailableRunners returns runners with no relationship row, in any status,
// involving the given coach.
func (s *Store) AvailableRunners(ctx context.Context, coachID string) ([]*OtherParty, error) {
	return s.availableUsers(ctx, "runner", "runner_id", "coach_id", coachID)
}

func (s *Store) availableUsers(ctx context.Context, role, candidateCol, callerCol, callerID string) ([]*OtherParty, error) {
	query := fmt.Sprintf(
		`SELECT u.id, u.name, u.full_name, u.email, u.user_type
		 FROM users u
		 WHERE u.user_type = $1
		   AND u.id <> $2
		   AND NOT EXISTS (
		     SELECT 1 FROM coach_runner r
		     WHERE r.%s = u.id AND r.%s = $2
		   )
		 ORDER BY u.name, u.id`,
		candidateCol, callerCol,
	)

	rows, err := s.pool.Query(ctx, query, role, callerID)
	if err != nil {
		return nil, fmt.Errorf("listing available %ss: %w", role, err)
	}
	defer rows.Close()

	var out []*OtherParty
	for rows.Next() {
		p := &OtherParty{}
		if err := rows.Scan(&p.ID, &p.Name, &p.FullName, &p.Email, &p.Role); err != nil {
			return nil, fmt.Errorf("scanning available user row: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpsertInvitedTx creates the relationship produced by an accepted
// invitation, inside the caller's transaction. If the pair already exists
// the row is kept and only marked as invited; its status is not reset.
func (s *Store) UpsertInvitedTx(ctx context.Context, tx pgx.Tx, coachID, runnerID, invitedBy string) (*Relationship, error) {
	r, err := scanRelationship(func(dest ...any) error {
		return tx.QueryRow(ctx,
			`INSERT INTO coach_runner (coach_id, runner_id, status, relationship_type, invited_by, notes)
			 VALUES ($1, $2, $3, $4, $5, '')
			 ON CONFLICT (coach_id, runner_id)
			 DO UPDATE SET relationship_type = $4, updated_at = now()
			 RETURNING `+relationshipColumns,
			coachID, runnerID, StatusPending, TypeInvited, invitedBy,
		).Scan(dest...)
	})
	if err != nil {
		return nil, fmt.Errorf("upserting invited relationship: %w", err)
	}

	r.Notes, err = s.decryptNotes(r.Notes)
	if err != nil {
		return nil, fmt.Errorf("decrypting notes: %w", err)
	}
	return r, nil
}
