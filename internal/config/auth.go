package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Auth holds the delivery account credential. It lives in its own file so
// the main config can be shared or checked in without leaking secrets.
type Auth struct {
	DeliveryPassword string `toml:"delivery_password"`
}

// AuthPath returns the auth file location under the base directory.
func AuthPath(baseDir string) string {
	return filepath.Join(baseDir, "auth.toml")
}

// ReadAuthFromFile reads an Auth from the specified file path. A missing
// file is not an error: it returns an empty Auth.
func ReadAuthFromFile(path string) (*Auth, error) {
	var auth Auth
	if _, err := toml.DecodeFile(path, &auth); err != nil {
		if os.IsNotExist(err) {
			return &Auth{}, nil
		}
		return nil, fmt.Errorf("reading auth from %s: %w", path, err)
	}
	return &auth, nil
}

// WriteAuthToFile writes an Auth to the specified path with owner-only
// permissions.
func WriteAuthToFile(path string, auth *Auth) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create auth directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create auth file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(auth); err != nil {
		return fmt.Errorf("writing auth to %s: %w", path, err)
	}
	return nil
}
