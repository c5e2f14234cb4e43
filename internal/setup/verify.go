package setup

import (
	"fmt"

	"github.com/epoch-engine/epoch-setup/internal/gpg"
)

// SignatureVerifier checks a detached PGP signature of the generator
// against the public keys in KeysDir.
type SignatureVerifier struct {
	Signature string
	KeysDir   string
}

// Verify implements Verifier.
func (s SignatureVerifier) Verify(executable string) error {
	keys, err := gpg.LoadDir(s.KeysDir)
	if err != nil {
		return fmt.Errorf("failed to load keys: %w", err)
	}
	return gpg.VerifyFile(keys, executable, s.Signature)
}
