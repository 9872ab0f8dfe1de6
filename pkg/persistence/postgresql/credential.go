package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/braid-run/braid/pkg/models"
)

// CredentialRepository handles credential rows. Payloads arrive already
// encrypted; this layer never sees plaintext.
type CredentialRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewCredentialRepository(db *sql.DB, logger *slog.Logger) *CredentialRepository {
	return &CredentialRepository{db: db, logger: logger}
}

func (r *CredentialRepository) Save(ctx context.Context, credential *models.Credential) error {
	now := time.Now().UTC()

	if credential.CreatedAt.IsZero() {
		credential.CreatedAt = now
	}

	credential.UpdatedAt = now

	if credential.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate credential ID: %w", err)
		}

		credential.ID = id.String()
	}

	query := `
		INSERT INTO credentials (id, name, type, owner_id, encrypted_data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name
		  , type = EXCLUDED.type
		  , encrypted_data = EXCLUDED.encrypted_data
		  , updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		credential.ID, credential.Name, credential.Type, credential.OwnerID,
		credential.EncryptedData, credential.CreatedAt, credential.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save credential %s: %w", credential.ID, err)
	}

	return nil
}

// GetByID returns (nil, nil) when no row exists; ownership scoping happens
// in the credential store.
func (r *CredentialRepository) GetByID(ctx context.Context, id string) (*models.Credential, error) {
	query := `
		SELECT id, name, type, owner_id, encrypted_data, created_at, updated_at
		FROM credentials
		WHERE id = $1
	`

	var credential models.Credential

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&credential.ID, &credential.Name, &credential.Type, &credential.OwnerID,
		&credential.EncryptedData, &credential.CreatedAt, &credential.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan credential: %w", err)
	}

	return &credential, nil
}

func (r *CredentialRepository) ByOwner(ctx context.Context, ownerID string) ([]*models.Credential, error) {
	query := `
		SELECT id, name, type, owner_id, encrypted_data, created_at, updated_at
		FROM credentials
		WHERE owner_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query credentials: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	credentials := make([]*models.Credential, 0)

	for rows.Next() {
		var credential models.Credential

		err := rows.Scan(&credential.ID, &credential.Name, &credential.Type,
			&credential.OwnerID, &credential.EncryptedData,
			&credential.CreatedAt, &credential.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan credential: %w", err)
		}

		credentials = append(credentials, &credential)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating credentials: %w", err)
	}

	return credentials, nil
}

func (r *CredentialRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM credentials WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete credential %s: %w", id, err)
	}

	return nil
}
