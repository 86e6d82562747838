// Package config defines the typed configuration for driveoff.
//
// Configuration is loaded once at startup from a YAML file, validated,
// and then passed by value into every orchestrator call. Orchestrators
// never mutate it; a migration run snapshots it at the start so a
// concurrent edit cannot produce inconsistent naming mid-run.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/koustreak/driveoff/internal/errs"
	"go.yaml.in/yaml/v3"
)

// SharingMode governs who may access an uploaded object.
type SharingMode int

const (
	// SharingPrivate issues no permission grants at all.
	SharingPrivate SharingMode = iota
	// SharingAnyoneView grants link-level read access.
	SharingAnyoneView
	// SharingAnyoneEdit grants link-level write access.
	SharingAnyoneEdit
	// SharingSpecificPeople grants per-email read access to SharedEmails.
	SharingSpecificPeople
)

func (m SharingMode) String() string {
	switch m {
	case SharingPrivate:
		return "private"
	case SharingAnyoneView:
		return "anyone_view"
	case SharingAnyoneEdit:
		return "anyone_edit"
	case SharingSpecificPeople:
		return "specific_people"
	default:
		return "unknown"
	}
}

// ParseSharingMode converts a config string into a SharingMode.
func ParseSharingMode(s string) (SharingMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "private":
		return SharingPrivate, nil
	case "anyone_view":
		return SharingAnyoneView, nil
	case "anyone_edit":
		return SharingAnyoneEdit, nil
	case "specific_people":
		return SharingSpecificPeople, nil
	default:
		return SharingPrivate, errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("unknown sharing mode %q", s))
	}
}

// UnmarshalYAML implements yaml.Unmarshaler for SharingMode.
func (m *SharingMode) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	mode, err := ParseSharingMode(raw)
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// MarshalYAML implements yaml.Marshaler for SharingMode.
func (m SharingMode) MarshalYAML() (interface{}, error) {
	return m.String(), nil
}

// Duration is a time.Duration that unmarshals from YAML strings like
// "30s" or "5m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return errs.Wrap(errs.ErrKindInvalidInput, fmt.Sprintf("invalid duration %q", raw), err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// CredentialKind selects how the object store is authenticated.
type CredentialKind string

const (
	// CredentialRefreshToken uses an OAuth client plus a stored refresh token.
	CredentialRefreshToken CredentialKind = "refresh_token"
	// CredentialServiceAccount uses a service-account key file.
	CredentialServiceAccount CredentialKind = "service_account"
	// CredentialStaticKeys uses static access/secret keys (MinIO / S3 style).
	CredentialStaticKeys CredentialKind = "static_keys"
)

// Credentials holds the opaque credential material for the object store.
type Credentials struct {
	Kind CredentialKind `yaml:"kind"`

	// OAuth refresh-token flow.
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RefreshToken string `yaml:"refresh_token"`

	// Service-account flow.
	ServiceAccountFile string `yaml:"service_account_file"`

	// Static keys (MinIO / S3).
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// StoreProvider identifies the object store backend.
type StoreProvider string

const (
	ProviderGoogleDrive StoreProvider = "gdrive"
	ProviderMinIO       StoreProvider = "minio"
)

// ObjectStore holds connection settings for the remote store.
type ObjectStore struct {
	Provider StoreProvider `yaml:"provider"`

	// MinIO / S3 settings. Unused by the gdrive driver.
	Endpoint string `yaml:"endpoint"`
	Bucket   string `yaml:"bucket"`
	Region   string `yaml:"region"`
	UseSSL   bool   `yaml:"use_ssl"`
}

// RecordDriver identifies the host record store engine.
type RecordDriver string

const (
	RecordPostgres RecordDriver = "postgres"
	RecordMySQL    RecordDriver = "mysql"
)

// RecordStore holds connection and pool settings for the host's
// attachment table.
type RecordStore struct {
	Driver RecordDriver `yaml:"driver"`
	DSN    string       `yaml:"dsn"`

	// Pool tuning
	MaxConns        int32    `yaml:"max_conns"`
	MinConns        int32    `yaml:"min_conns"`
	MaxConnLifetime Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime Duration `yaml:"max_conn_idle_time"`
	ConnectTimeout  Duration `yaml:"connect_timeout"`
}

// Server holds HTTP surface settings.
type Server struct {
	Addr            string   `yaml:"addr"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// Logging holds logger settings.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the full driveoff configuration. It is treated as immutable
// after Load; orchestrators receive it by value.
type Config struct {
	// Enabled gates all upload activity. When false every attachment
	// event is a skip, never an error.
	Enabled bool `yaml:"enabled"`

	// DeleteFromRemote controls whether deleting a record also deletes
	// the corresponding remote object.
	DeleteFromRemote bool `yaml:"delete_from_remote"`

	// ParentFolderID is the remote folder all uploads land under.
	// Empty means the provider root.
	ParentFolderID string `yaml:"parent_folder_id"`

	// FolderPrefix is prepended to every computed remote name.
	FolderPrefix string `yaml:"folder_prefix"`

	// DateFolders appends a YYYY/MM/DD segment to the target folder.
	DateFolders bool `yaml:"date_folders"`

	// Sharing is the access policy applied to every uploaded object.
	Sharing SharingMode `yaml:"sharing"`

	// SharedEmails is the grant list for SharingSpecificPeople.
	SharedEmails []string `yaml:"shared_emails"`

	// IgnoreDoctypes lists owning record types exempt from upload.
	IgnoreDoctypes []string `yaml:"ignore_doctypes"`

	// SitePath is the host site directory holding local payloads
	// (public files under public/, private files under private/).
	SitePath string `yaml:"site_path"`

	Credentials Credentials `yaml:"credentials"`
	Store       ObjectStore `yaml:"store"`
	Records     RecordStore `yaml:"records"`
	Server      Server      `yaml:"server"`
	Logging     Logging     `yaml:"logging"`
}

// Default returns a config with the defaults applied by Load.
func Default() *Config {
	return &Config{
		Enabled: true,
		IgnoreDoctypes: []string{
			// Bulk imports attach large transient files that should
			// never leave the host.
			"Data Import",
		},
		Store: ObjectStore{
			Provider: ProviderGoogleDrive,
		},
		Records: RecordStore{
			Driver:          RecordPostgres,
			MaxConns:        10,
			MinConns:        2,
			MaxConnLifetime: Duration(30 * time.Minute),
			MaxConnIdleTime: Duration(5 * time.Minute),
			ConnectTimeout:  Duration(10 * time.Second),
		},
		Server: Server{
			Addr:            ":8406",
			ReadTimeout:     Duration(30 * time.Second),
			WriteTimeout:    Duration(5 * time.Minute),
			ShutdownTimeout: Duration(15 * time.Second),
		},
		Logging: Logging{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads the YAML file at path, applies environment overrides for
// secrets, validates the result, and returns it.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "cannot read config file", err)
	}
	return Parse(raw)
}

// Parse decodes YAML bytes into a validated Config.
func Parse(raw []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "malformed config", err)
	}
	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides secret material from the environment so credentials
// never need to live in the config file.
func applyEnv(cfg *Config) {
	if v := os.Getenv("DRIVEOFF_CLIENT_SECRET"); v != "" {
		cfg.Credentials.ClientSecret = v
	}
	if v := os.Getenv("DRIVEOFF_REFRESH_TOKEN"); v != "" {
		cfg.Credentials.RefreshToken = v
	}
	if v := os.Getenv("DRIVEOFF_SECRET_KEY"); v != "" {
		cfg.Credentials.SecretKey = v
	}
	if v := os.Getenv("DRIVEOFF_RECORDS_DSN"); v != "" {
		cfg.Records.DSN = v
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.Store.Provider {
	case ProviderGoogleDrive, ProviderMinIO:
	default:
		return errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("unknown store provider %q", c.Store.Provider))
	}

	if c.Store.Provider == ProviderMinIO {
		if c.Store.Endpoint == "" || c.Store.Bucket == "" {
			return errs.New(errs.ErrKindInvalidInput, "minio provider requires endpoint and bucket")
		}
	}

	switch c.Records.Driver {
	case RecordPostgres, RecordMySQL:
	default:
		return errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("unknown record driver %q", c.Records.Driver))
	}

	if c.Sharing == SharingSpecificPeople && len(c.SharedEmails) == 0 {
		return errs.New(errs.ErrKindInvalidInput, "sharing mode specific_people requires shared_emails")
	}

	switch c.Credentials.Kind {
	case CredentialRefreshToken:
		if c.Credentials.ClientID == "" || c.Credentials.RefreshToken == "" {
			return errs.New(errs.ErrKindInvalidInput, "refresh_token credentials require client_id and refresh_token")
		}
	case CredentialServiceAccount:
		if c.Credentials.ServiceAccountFile == "" {
			return errs.New(errs.ErrKindInvalidInput, "service_account credentials require service_account_file")
		}
	case CredentialStaticKeys:
		if c.Credentials.AccessKey == "" {
			return errs.New(errs.ErrKindInvalidInput, "static_keys credentials require access_key")
		}
	case "":
		// Permitted: the gdrive driver will fail at connect time with a
		// clear auth error, matching "not configured yet" installs.
	default:
		return errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("unknown credential kind %q", c.Credentials.Kind))
	}

	return nil
}

// Snapshot returns a deep value copy. A migration run works from the
// snapshot so a concurrent config edit cannot change naming mid-run.
func (c *Config) Snapshot() Config {
	cp := *c
	cp.SharedEmails = append([]string(nil), c.SharedEmails...)
	cp.IgnoreDoctypes = append([]string(nil), c.IgnoreDoctypes...)
	return cp
}

// Ignored reports whether doctype is on the ignore list.
func (c *Config) Ignored(doctype string) bool {
	for _, d := range c.IgnoreDoctypes {
		if strings.EqualFold(d, doctype) {
			return true
		}
	}
	return false
}
