package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Supported database dialects.
const (
	DialectPostgres = "postgresql"
	DialectSQLite   = "sqlite"
)

// Driver names registered with database/sql.
const (
	DriverPgx    = "pgx"
	DriverSQLite = "sqlite"
)

const defaultSSLMode = "require"

// DatabaseConfig defines database connection settings
type DatabaseConfig struct {
	// Dialect is postgresql (alias postgres) or sqlite
	Dialect string `yaml:"dialect"`

	Host string `yaml:"host,omitempty"`
	Port int    `yaml:"port,omitempty"`
	User string `yaml:"user,omitempty"`

	// PasswordFile is the path to a file containing only the password.
	// When unset, the password is taken from PasswordEnv.
	PasswordFile string `yaml:"passwordFile,omitempty"`

	// PasswordEnv overrides the environment variable consulted for the password
	PasswordEnv string `yaml:"passwordEnv,omitempty"`

	// Database is the database name, or the file path for sqlite
	Database string `yaml:"database,omitempty"`

	// SSLMode is the PostgreSQL SSL mode (disable, require, verify-ca, verify-full)
	SSLMode string `yaml:"sslMode,omitempty"`

	// MaxConns caps the pgx pool size
	MaxConns int32 `yaml:"maxConns,omitempty"`

	name string
}

// IsPostgres reports whether the dialect is PostgreSQL
func (d *DatabaseConfig) IsPostgres() bool {
	switch strings.ToLower(d.Dialect) {
	case DialectPostgres, "postgres":
		return true
	}
	return false
}

// IsSQLite reports whether the dialect is SQLite
func (d *DatabaseConfig) IsSQLite() bool {
	switch strings.ToLower(d.Dialect) {
	case DialectSQLite, "sqlite3":
		return true
	}
	return false
}

// DriverName returns the database/sql driver for the dialect
func (d *DatabaseConfig) DriverName() string {
	if d.IsSQLite() {
		return DriverSQLite
	}
	return DriverPgx
}

// GetPassword returns the password from PasswordFile, then from the environment.
// An empty password is valid: the connection string then carries no password.
func (d *DatabaseConfig) GetPassword() (string, error) {
	return readSecret(d.PasswordFile, d.passwordEnv())
}

func (d *DatabaseConfig) passwordEnv() string {
	if d.PasswordEnv != "" {
		return d.PasswordEnv
	}
	if d.name == "" || d.name == TargetDatabase {
		return EnvTargetDBPassword
	}
	return fmt.Sprintf(envDBPasswordTemplate, strings.ToUpper(strings.ReplaceAll(d.name, "-", "_")))
}

// GetConnectionString builds {dialect}://{user}[:{password}]@{host}[:{port}][/{database}].
// For sqlite the database path is returned as is. The password is URL-escaped.
func (d *DatabaseConfig) GetConnectionString() (string, error) {
	if d.IsSQLite() {
		return d.Database, nil
	}

	password, err := d.GetPassword()
	if err != nil {
		return "", err
	}

	u := url.URL{Scheme: "postgres", Host: d.Host}
	if password != "" {
		u.User = url.UserPassword(d.User, password)
	} else {
		u.User = url.User(d.User)
	}
	if d.Port != 0 {
		u.Host = d.Host + ":" + strconv.Itoa(d.Port)
	}
	if d.Database != "" {
		u.Path = "/" + d.Database
	}

	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = defaultSSLMode
	}
	u.RawQuery = url.Values{"sslmode": []string{sslMode}}.Encode()

	return u.String(), nil
}

// Redacted describes the connection for logs without secrets
func (d *DatabaseConfig) Redacted() string {
	if d.IsSQLite() {
		return "sqlite:" + d.Database
	}
	if d.Port != 0 {
		return fmt.Sprintf("%s@%s:%d/%s", d.User, d.Host, d.Port, d.Database)
	}
	return fmt.Sprintf("%s@%s/%s", d.User, d.Host, d.Database)
}

func (d *DatabaseConfig) validate(prefix string) error {
	if d == nil {
		return fmt.Errorf("%s: configuration is empty", prefix)
	}
	d.name = strings.TrimPrefix(prefix, "databases.")

	switch {
	case d.IsPostgres():
		if d.Host == "" {
			return fmt.Errorf("%s: host is required", prefix)
		}
		if d.User == "" {
			return fmt.Errorf("%s: user is required", prefix)
		}
		if d.Database == "" {
			return fmt.Errorf("%s: database is required", prefix)
		}
	case d.IsSQLite():
		if d.Database == "" {
			return fmt.Errorf("%s: database (file path) is required", prefix)
		}
	default:
		return fmt.Errorf("%s: unsupported dialect %q (expected %s or %s)", prefix, d.Dialect, DialectPostgres, DialectSQLite)
	}

	if d.Port < 0 || d.Port > 65535 {
		return fmt.Errorf("%s: port %d is out of range", prefix, d.Port)
	}
	return nil
}
