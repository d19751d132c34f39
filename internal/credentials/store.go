// Package credentials persists the operator's API session between CLI
// invocations as a .env file under ~/.nodeboard. Only three keys belong
// to this package; anything else an operator keeps in the file survives
// saves and clears untouched.
package credentials

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/AeroNyxNetwork/nodeboard/pkg/models"
)

const (
	keyAPIKey        = "AERONYX_API_KEY"
	keyWalletAddress = "AERONYX_WALLET_ADDRESS"
	keyWalletType    = "AERONYX_WALLET_TYPE"
)

// Store reads and writes the credential .env file.
type Store struct {
	path string
}

// NewStore creates a store over an explicit file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultPath returns ~/.nodeboard/.env, creating the directory.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".nodeboard")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return filepath.Join(dir, ".env"), nil
}

// Load reads the persisted session. A missing file is a normal first
// run: zero session, no error.
func (s *Store) Load() (models.AuthSession, error) {
	envMap, err := godotenv.Read(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return models.AuthSession{}, nil
	}
	if err != nil {
		return models.AuthSession{}, fmt.Errorf("read credentials: %w", err)
	}
	return models.AuthSession{
		APIKey:        envMap[keyAPIKey],
		WalletAddress: envMap[keyWalletAddress],
		WalletType:    models.WalletType(envMap[keyWalletType]),
	}, nil
}

// Save writes the session, preserving unrelated entries in the file.
func (s *Store) Save(sess models.AuthSession) error {
	envMap, err := s.readExisting()
	if err != nil {
		return err
	}
	envMap[keyAPIKey] = sess.APIKey
	envMap[keyWalletAddress] = sess.WalletAddress
	envMap[keyWalletType] = string(sess.WalletType)
	return s.write(envMap)
}

// Clear removes the credential keys. Unrelated entries stay; a missing
// file is already clear.
func (s *Store) Clear() error {
	envMap, err := s.readExisting()
	if err != nil {
		return err
	}
	if len(envMap) == 0 {
		if _, statErr := os.Stat(s.path); errors.Is(statErr, fs.ErrNotExist) {
			return nil
		}
	}
	delete(envMap, keyAPIKey)
	delete(envMap, keyWalletAddress)
	delete(envMap, keyWalletType)
	return s.write(envMap)
}

func (s *Store) readExisting() (map[string]string, error) {
	envMap, err := godotenv.Read(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	return envMap, nil
}

// write serializes the map and writes it 0600. godotenv handles quoting;
// the file is created privately rather than chmod'd after the fact so
// the key never sits world-readable.
func (s *Store) write(envMap map[string]string) error {
	content, err := godotenv.Marshal(envMap)
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	body := "# AeroNyx nodeboard credentials\n# Generated by 'nodeboard login'\n\n" + content + "\n"
	return os.WriteFile(s.path, []byte(body), 0o600)
}
