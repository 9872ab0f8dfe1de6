package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/braid-run/braid/pkg/models"
)

var ErrCredentialNotFound = errors.New("credential not found")

// Repository is the persistence surface the store needs.
type Repository interface {
	CredentialByID(ctx context.Context, id string) (*models.Credential, error)
}

// Accessor is what node executors see: credential reads scoped to the
// execution's owning user.
type Accessor interface {
	GetCredential(ctx context.Context, id, ownerID string) (*models.DecryptedCredential, error)
}

// Store fetches credential rows and decrypts their payloads.
type Store struct {
	repository Repository
	cipher     *Cipher
}

func NewStore(repository Repository, cipher *Cipher) *Store {
	return &Store{
		repository: repository,
		cipher:     cipher,
	}
}

// GetCredential loads and decrypts a credential. Reads are scoped to the
// owning user: a credential belonging to someone else reads as not found.
func (s *Store) GetCredential(ctx context.Context, id, ownerID string) (*models.DecryptedCredential, error) {
	row, err := s.repository.CredentialByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch credential %s: %w", id, err)
	}

	if row == nil || row.OwnerID != ownerID {
		return nil, ErrCredentialNotFound
	}

	plaintext, err := s.cipher.Decrypt(row.EncryptedData)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt credential %s: %w", id, err)
	}

	var data map[string]any
	if err := json.Unmarshal(plaintext, &data); err != nil {
		return nil, fmt.Errorf("failed to parse credential %s payload: %w", id, err)
	}

	return &models.DecryptedCredential{
		ID:      row.ID,
		Name:    row.Name,
		Type:    row.Type,
		OwnerID: row.OwnerID,
		Data:    data,
	}, nil
}

// EncryptData seals a plaintext payload for persistence.
func (s *Store) EncryptData(data map[string]any) (string, error) {
	plaintext, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to serialize credential payload: %w", err)
	}

	return s.cipher.Encrypt(plaintext)
}

// sensitiveFields are conventionally-named keys whose values get redacted on
// any UI-bound read path.
var sensitiveFields = map[string]bool{
	"apikey":        true,
	"api_key":       true,
	"token":         true,
	"access_token":  true,
	"accesstoken":   true,
	"refresh_token": true,
	"refreshtoken":  true,
	"secret":        true,
	"client_secret": true,
	"clientsecret":  true,
	"password":      true,
	"private_key":   true,
	"privatekey":    true,
}

// MaskSensitive returns a copy of data with sensitive string values
// partially redacted: first and last four characters kept for values longer
// than eight characters, full asterisks otherwise. Presentation-only; the
// engine never sees masked payloads.
func MaskSensitive(data map[string]any) map[string]any {
	masked := make(map[string]any, len(data))

	for key, value := range data {
		str, isString := value.(string)
		if isString && sensitiveFields[strings.ToLower(key)] {
			masked[key] = maskValue(str)

			continue
		}

		masked[key] = value
	}

	return masked
}

func maskValue(value string) string {
	if len(value) > 8 {
		return value[:4] + strings.Repeat("*", len(value)-8) + value[len(value)-4:]
	}

	return strings.Repeat("*", len(value))
}
