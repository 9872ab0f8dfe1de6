package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/braid-run/braid/pkg/credential"
	"github.com/braid-run/braid/pkg/persistence"
)

// NewCredentialStore builds the credential store from the configured key.
// The key is 64 hex characters (32 bytes once decoded).
func NewCredentialStore(store persistence.Persistence, hexKey string) (*credential.Store, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("credential key is not valid hex: %w", err)
	}

	cipher, err := credential.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to build credential cipher: %w", err)
	}

	return credential.NewStore(store, cipher), nil
}
