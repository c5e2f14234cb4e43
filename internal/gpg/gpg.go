// Package gpg verifies detached OpenPGP signatures on vendored tools.
package gpg

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ProtonMail/gopenpgp/v2/crypto"
)

const (
	maxFileSize = 256 * 1024 * 1024 // generator binaries are a few MB
	keyFileExt  = ".asc"
)

var (
	ErrNilKeyRing   = errors.New("keyring cannot be nil")
	ErrEmptyKeyRing = errors.New("no keys in keyring")
	ErrNoKeys       = errors.New("no .asc keys found in directory")
	ErrCannotVerify = errors.New("key cannot verify signatures")
)

// KeyRing verifies signatures against a set of trusted public keys.
type KeyRing interface {
	VerifyDetached(data, signature []byte) error
	Fingerprints() []string
}

// TrustedKeys is a KeyRing backed by gopenpgp.
type TrustedKeys struct {
	ring *crypto.KeyRing
}

// NewTrustedKeys creates an empty key set.
func NewTrustedKeys() *TrustedKeys {
	return &TrustedKeys{}
}

// Add parses an ASCII-armored public key and trusts it.
func (t *TrustedKeys) Add(armored string) error {
	if armored == "" {
		return fmt.Errorf("armored data cannot be empty")
	}
	key, err := crypto.NewKeyFromArmored(armored)
	if err != nil {
		return fmt.Errorf("failed to parse PGP key: %w", err)
	}
	if !key.CanVerify() {
		return fmt.Errorf("%w: %s", ErrCannotVerify, key.GetFingerprint())
	}

	if t.ring == nil {
		ring, err := crypto.NewKeyRing(key)
		if err != nil {
			return fmt.Errorf("failed to create keyring: %w", err)
		}
		t.ring = ring
		return nil
	}
	if err := t.ring.AddKey(key); err != nil {
		return fmt.Errorf("failed to add key %s: %w", key.GetFingerprint(), err)
	}
	return nil
}

// Fingerprints lists the trusted keys.
func (t *TrustedKeys) Fingerprints() []string {
	if t.ring == nil {
		return nil
	}
	keys := t.ring.GetKeys()
	fps := make([]string, 0, len(keys))
	for _, k := range keys {
		fps = append(fps, k.GetFingerprint())
	}
	return fps
}

// VerifyDetached checks signature over data. Armored and binary signatures are accepted.
func (t *TrustedKeys) VerifyDetached(data, signature []byte) error {
	if t.ring == nil {
		return ErrEmptyKeyRing
	}

	sig, err := crypto.NewPGPSignatureFromArmored(string(signature))
	if err != nil {
		sig = crypto.NewPGPSignature(signature)
	}

	if err := t.ring.VerifyDetached(crypto.NewPlainMessage(data), sig, crypto.GetUnixTime()); err != nil {
		return fmt.Errorf("signature verification failed: %w", err)
	}
	return nil
}

// VerifyFile checks the detached signature at sigPath over the file at path.
func VerifyFile(keys KeyRing, path, sigPath string) error {
	if keys == nil {
		return ErrNilKeyRing
	}

	data, err := readBounded(path)
	if err != nil {
		return fmt.Errorf("failed to read data file: %w", err)
	}
	sig, err := readBounded(sigPath)
	if err != nil {
		return fmt.Errorf("failed to read signature file: %w", err)
	}

	if err := keys.VerifyDetached(data, sig); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return nil
}

// LoadDir trusts every *.asc public key in dir.
func LoadDir(dir string) (*TrustedKeys, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read keys directory: %w", err)
	}

	keys := NewTrustedKeys()
	loaded := 0
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != keyFileExt {
			continue
		}

		path := filepath.Join(dir, e.Name())
		if err := checkKeyFile(path); err != nil {
			return nil, fmt.Errorf("invalid key file '%s': %w", e.Name(), err)
		}
		armored, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read key file: %w", err)
		}
		if err := keys.Add(string(armored)); err != nil {
			return nil, fmt.Errorf("key file '%s': %w", e.Name(), err)
		}
		loaded++
	}

	if loaded == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoKeys, dir)
	}
	return keys, nil
}

// LoadArmored trusts the given ASCII-armored public keys.
func LoadArmored(armored ...string) (*TrustedKeys, error) {
	if len(armored) == 0 {
		return nil, fmt.Errorf("no armored keys provided")
	}

	keys := NewTrustedKeys()
	for i, a := range armored {
		if err := keys.Add(a); err != nil {
			return nil, fmt.Errorf("key at index %d: %w", i, err)
		}
	}
	return keys, nil
}

func readBounded(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("file exceeds maximum allowed size of %d bytes", maxFileSize)
	}
	return os.ReadFile(path)
}

// checkKeyFile rejects oversized key files and key files writable by others.
func checkKeyFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to access key file: %w", err)
	}
	if info.Size() > maxFileSize {
		return fmt.Errorf("key file exceeds maximum allowed size of %d bytes", maxFileSize)
	}
	if perm := info.Mode().Perm(); perm&0022 != 0 {
		return fmt.Errorf("key file is writable by group or others (mode %o)", perm)
	}
	return nil
}
