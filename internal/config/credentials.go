package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CredentialsConfig holds a username and where to find its password
type CredentialsConfig struct {
	Username     string `yaml:"username"`
	PasswordFile string `yaml:"passwordFile,omitempty"`
}

// Credentials is a resolved username/password pair
type Credentials struct {
	Username string
	Password string
}

// Resolve reads the password from PasswordFile or the given environment variable
func (c CredentialsConfig) Resolve(envVar string) (Credentials, error) {
	password, err := readSecret(c.PasswordFile, envVar)
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{Username: c.Username, Password: password}, nil
}

// readSecret returns the trimmed content of path when set, else the value of envVar.
func readSecret(path, envVar string) (string, error) {
	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return "", fmt.Errorf("failed to read secret from file %s: %w", path, err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	return os.Getenv(envVar), nil
}
