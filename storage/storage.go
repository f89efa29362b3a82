package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hairizuan-noorazman/scriptvault/logger"
	"github.com/hairizuan-noorazman/scriptvault/script"
)

var (
	// ErrScriptNotFound is returned when no script matches the requested id or name.
	ErrScriptNotFound = errors.New("script not found")

	// ErrIO is returned when the backing document or database cannot be read, written or parsed.
	ErrIO = errors.New("storage i/o failure")

	// ErrUnimplemented is returned when a remote backend kind is selected.
	ErrUnimplemented = errors.New("not yet supported")

	// ErrInvalidConfig is returned for an unknown kind or a config missing required fields.
	ErrInvalidConfig = errors.New("invalid storage config")
)

// Backend is the capability set every script persistence mechanism exposes.
type Backend interface {
	// Save upserts a script, replacing any stored entry whose id or name matches.
	Save(ctx context.Context, s *script.Script) error

	// LoadByID returns ErrScriptNotFound when no entry has the id.
	LoadByID(ctx context.Context, id string) (*script.Script, error)

	// LoadByName returns ErrScriptNotFound when no entry has the name.
	LoadByName(ctx context.Context, name string) (*script.Script, error)

	// List returns every stored script. Order is backend defined.
	List(ctx context.Context) ([]*script.Script, error)

	// Delete returns ErrScriptNotFound when no entry has the id, leaving storage unchanged.
	Delete(ctx context.Context, id string) error

	// Exists reports whether an entry has the id.
	Exists(ctx context.Context, id string) (bool, error)

	// Metadata returns aggregate counts for the backend.
	Metadata(ctx context.Context) (*StorageMetadata, error)

	// HealthCheck is a liveness probe. Recoverable problems yield false, never an error.
	HealthCheck(ctx context.Context) bool

	// SyncPush and SyncPull return the ids affected by a reconciliation with a remote.
	SyncPush(ctx context.Context) ([]string, error)
	SyncPull(ctx context.Context) ([]string, error)

	// SyncStatus reports the reconciliation state of one script.
	SyncStatus(ctx context.Context, id string) (SyncStatus, error)

	// BackendType is a stable label such as "local".
	BackendType() string
}

// StorageMetadata is an aggregate view of a backend.
type StorageMetadata struct {
	TotalScripts   int        `json:"total_scripts"`
	TotalSizeBytes uint64     `json:"total_size_bytes"`
	LastSync       *time.Time `json:"last_sync,omitempty"`
	BackendType    string     `json:"backend_type"`
}

// SyncStatus is the reconciliation state between a local and a remote copy of a script.
type SyncStatus string

const (
	SyncStatusSynced      SyncStatus = "Synced"
	SyncStatusLocalNewer  SyncStatus = "LocalNewer"
	SyncStatusRemoteNewer SyncStatus = "RemoteNewer"
	SyncStatusLocalOnly   SyncStatus = "LocalOnly"
	SyncStatusRemoteOnly  SyncStatus = "RemoteOnly"
	SyncStatusConflict    SyncStatus = "Conflict"
)

// IsValid checks if the sync status is one of the known values.
func (s SyncStatus) IsValid() bool {
	switch s {
	case SyncStatusSynced, SyncStatusLocalNewer, SyncStatusRemoteNewer,
		SyncStatusLocalOnly, SyncStatusRemoteOnly, SyncStatusConflict:
		return true
	default:
		return false
	}
}

// Kind selects a backend implementation.
type Kind string

const (
	KindLocal     Kind = "local"
	KindSQLite    Kind = "sqlite"
	KindMySQL     Kind = "mysql"
	KindPostgres  Kind = "postgres"
	KindBackblaze Kind = "backblaze"
	KindS3        Kind = "s3"
	KindGCS       Kind = "gcs"
	KindAzure     Kind = "azure"
)

// IsRemote reports whether the kind is one of the cloud object stores.
func (k Kind) IsRemote() bool {
	switch k {
	case KindBackblaze, KindS3, KindGCS, KindAzure:
		return true
	default:
		return false
	}
}

// IsSQL reports whether the kind is served by SQLBackend.
func (k Kind) IsSQL() bool {
	switch k {
	case KindSQLite, KindMySQL, KindPostgres:
		return true
	default:
		return false
	}
}

// Config is the tagged storage selection. Only the fields of the chosen Kind are read.
type Config struct {
	Kind Kind

	// Path is the vault directory for the local kind.
	Path string

	// DSN is the connection string for the SQL kinds. For sqlite it is a file path.
	DSN string

	Bucket          string // backblaze, s3, gcs
	Region          string // s3
	Endpoint        string // s3 compatible endpoints
	KeyID           string // backblaze, s3
	Secret          string // backblaze, s3, azure
	ProjectID       string // gcs
	CredentialsPath string // gcs
	AccountName     string // azure
	Container       string // azure
}

// Validate checks that the fields required by the kind are present.
func (c Config) Validate() error {
	switch {
	case c.Kind == KindLocal:
		if strings.TrimSpace(c.Path) == "" {
			return fmt.Errorf("%w: path is required for local storage", ErrInvalidConfig)
		}
	case c.Kind.IsSQL():
		if strings.TrimSpace(c.DSN) == "" {
			return fmt.Errorf("%w: dsn is required for %s storage", ErrInvalidConfig, c.Kind)
		}
	case c.Kind.IsRemote():
	default:
		return fmt.Errorf("%w: unsupported storage type %q", ErrInvalidConfig, c.Kind)
	}
	return nil
}

// NewBackend creates the Backend selected by cfg.
// Remote kinds fail fast with ErrUnimplemented instead of falling back to local storage.
func NewBackend(ctx context.Context, cfg Config, log logger.Logger) (Backend, error) {
	cfg.Kind = Kind(strings.ToLower(string(cfg.Kind)))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch {
	case cfg.Kind == KindLocal:
		return NewLocalBackend(cfg.Path, log)
	case cfg.Kind.IsSQL():
		return OpenSQLBackend(ctx, cfg.Kind, cfg.DSN, log)
	default:
		return nil, fmt.Errorf("%s storage is %w", cfg.Kind, ErrUnimplemented)
	}
}

// noRemote supplies the sync operations of a backend without a remote copy.
type noRemote struct{}

func (noRemote) SyncPush(ctx context.Context) ([]string, error) { return []string{}, nil }

func (noRemote) SyncPull(ctx context.Context) ([]string, error) { return []string{}, nil }

func (noRemote) SyncStatus(ctx context.Context, id string) (SyncStatus, error) {
	return SyncStatusSynced, nil
}
