package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/braid-run/braid/pkg/credential"
	"github.com/braid-run/braid/pkg/models"
	"github.com/braid-run/braid/pkg/persistence"
)

// MaskedCredential is the UI-facing shape of a credential: metadata plus the
// payload with sensitive values redacted. Plaintext never leaves the engine.
type MaskedCredential struct {
	ID        string                `json:"id"`
	Name      string                `json:"name"`
	Type      models.CredentialType `json:"type"`
	OwnerID   string                `json:"owner_id"`
	Data      map[string]any        `json:"data"`
	CreatedAt string                `json:"created_at"`
}

// Credentials manages per-user credentials: sealed writes, masked reads.
type Credentials struct {
	persistence persistence.Persistence
	store       *credential.Store
	validate    *validator.Validate
}

func NewCredentials(store persistence.Persistence, credStore *credential.Store) *Credentials {
	return &Credentials{
		persistence: store,
		store:       credStore,
		validate:    validator.New(),
	}
}

// Create encrypts the payload and stores the credential row.
func (s *Credentials) Create(ctx context.Context, name string, credType models.CredentialType, ownerID string, data map[string]any) (*models.Credential, error) {
	encrypted, err := s.store.EncryptData(data)
	if err != nil {
		return nil, fmt.Errorf("failed to seal credential payload: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate credential ID: %w", err)
	}

	row := &models.Credential{
		ID:            id.String(),
		Name:          name,
		Type:          credType,
		OwnerID:       ownerID,
		EncryptedData: encrypted,
	}

	if err := s.validate.Struct(row); err != nil {
		return nil, &ServiceError{Op: "create credential", Err: fmt.Errorf("%w: %w", ErrInvalidRequest, err)}
	}

	if err := s.persistence.SaveCredential(ctx, row); err != nil {
		return nil, fmt.Errorf("failed to save credential: %w", err)
	}

	return row, nil
}

// Get returns one credential with its payload masked. Reads are scoped to
// the owning user.
func (s *Credentials) Get(ctx context.Context, id, ownerID string) (*MaskedCredential, error) {
	decrypted, err := s.store.GetCredential(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	row, err := s.persistence.CredentialByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch credential %s: %w", id, err)
	}

	return &MaskedCredential{
		ID:        decrypted.ID,
		Name:      decrypted.Name,
		Type:      decrypted.Type,
		OwnerID:   decrypted.OwnerID,
		Data:      credential.MaskSensitive(decrypted.Data),
		CreatedAt: row.CreatedAt.Format(time.RFC3339),
	}, nil
}

// List returns the metadata of a user's credentials, payloads omitted.
func (s *Credentials) List(ctx context.Context, ownerID string) ([]*models.Credential, error) {
	if ownerID == "" {
		return nil, &ServiceError{Op: "list credentials", Err: ErrEmptyOwnerID}
	}

	return s.persistence.CredentialsByOwner(ctx, ownerID)
}

// Delete removes a credential, scoped to its owner.
func (s *Credentials) Delete(ctx context.Context, id, ownerID string) error {
	row, err := s.persistence.CredentialByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch credential %s: %w", id, err)
	}

	if row == nil || row.OwnerID != ownerID {
		return credential.ErrCredentialNotFound
	}

	return s.persistence.DeleteCredential(ctx, id)
}

// IsCredentialNotFound reports whether the error is a scoped-read miss.
func IsCredentialNotFound(err error) bool {
	return errors.Is(err, credential.ErrCredentialNotFound)
}
