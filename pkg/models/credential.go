package models

import "time"

// CredentialType classifies the secret bundle carried by a credential.
type CredentialType string

const (
	CredentialTypeAPIKey      CredentialType = "api_key"
	CredentialTypeDatabase    CredentialType = "database"
	CredentialTypeOAuth2      CredentialType = "oauth2"
	CredentialTypeBasicAuth   CredentialType = "basic_auth"
	CredentialTypeBearerToken CredentialType = "bearer_token"
	CredentialTypeCustom      CredentialType = "custom"
)

// Credential is a per-user secret bundle. EncryptedData holds the payload in
// hex(iv):hex(authTag):hex(ciphertext) form; plaintext is never persisted.
type Credential struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"     validate:"required"`
	Type          CredentialType `json:"type"     validate:"required"`
	OwnerID       string         `json:"owner_id" validate:"required"`
	EncryptedData string         `json:"-"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// DecryptedCredential is a credential with its payload open. It only ever
// lives in memory, scoped to one node execution.
type DecryptedCredential struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Type    CredentialType `json:"type"`
	OwnerID string         `json:"owner_id"`
	Data    map[string]any `json:"data"`
}
