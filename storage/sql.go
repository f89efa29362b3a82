package storage

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/hairizuan-noorazman/scriptvault/logger"
	"github.com/hairizuan-noorazman/scriptvault/script"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

//go:embed migrations
var migrations embed.FS

// scriptRow is the database representation of a script.
// The full record is kept as JSON in Payload; the other columns back lookups and aggregates.
type scriptRow struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Name      string    `gorm:"size:255;not null;uniqueIndex"`
	SizeBytes int64     `gorm:"not null"`
	Payload   string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (scriptRow) TableName() string {
	return "scripts"
}

func toRow(s *script.Script) (*scriptRow, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode script: %v", ErrIO, err)
	}
	return &scriptRow{
		ID:        s.ID,
		Name:      s.Name,
		SizeBytes: int64(s.Metadata.SizeBytes),
		Payload:   string(payload),
		UpdatedAt: s.UpdatedAt,
	}, nil
}

func (r *scriptRow) toScript() (*script.Script, error) {
	var s script.Script
	if err := json.Unmarshal([]byte(r.Payload), &s); err != nil {
		return nil, fmt.Errorf("%w: failed to decode script %s: %v", ErrIO, r.ID, err)
	}
	return &s, nil
}

// SQLBackend implements Backend on a relational database through GORM.
// It serves the sqlite, mysql and postgres kinds with the same upsert semantics as LocalBackend.
type SQLBackend struct {
	noRemote

	db     *gorm.DB
	kind   Kind
	logger logger.Logger
}

// OpenSQLBackend connects to the database described by dsn and applies pending migrations.
// MySQL DSNs need parseTime=true.
func OpenSQLBackend(ctx context.Context, kind Kind, dsn string, log logger.Logger) (*SQLBackend, error) {
	var dialector gorm.Dialector
	switch kind {
	case KindSQLite:
		dialector = sqlite.Open(dsn)
	case KindMySQL:
		dialector = mysql.Open(dsn)
	case KindPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("%w: %s is not a SQL storage type", ErrInvalidConfig, kind)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to %s: %v", ErrIO, kind, err)
	}

	return NewSQLBackend(ctx, db, kind, log)
}

// NewSQLBackend wraps an open connection and applies pending migrations.
func NewSQLBackend(ctx context.Context, db *gorm.DB, kind Kind, log logger.Logger) (*SQLBackend, error) {
	b := &SQLBackend{
		db:     db,
		kind:   kind,
		logger: log.WithField("backend", string(kind)),
	}

	if err := b.migrate(); err != nil {
		b.logger.Error(ctx, "failed to apply migrations", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, fmt.Errorf("%w: failed to apply migrations: %v", ErrIO, err)
	}

	return b, nil
}

// migrate applies the embedded migrations for the backend's dialect.
// The migrate instance is not closed since that would close the shared connection.
func (b *SQLBackend) migrate() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}

	var driver migratedb.Driver
	switch b.kind {
	case KindSQLite:
		driver, err = migratesqlite.WithInstance(sqlDB, &migratesqlite.Config{})
	case KindMySQL:
		driver, err = migratemysql.WithInstance(sqlDB, &migratemysql.Config{})
	case KindPostgres:
		driver, err = migratepostgres.WithInstance(sqlDB, &migratepostgres.Config{})
	default:
		return fmt.Errorf("no migrations for %s", b.kind)
	}
	if err != nil {
		return err
	}

	source, err := iofs.New(migrations, "migrations/"+string(b.kind))
	if err != nil {
		return err
	}

	m, err := migrate.NewWithInstance("iofs", source, string(b.kind), driver)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// Save upserts a script, deleting any row whose id or name matches in the same transaction.
func (b *SQLBackend) Save(ctx context.Context, s *script.Script) error {
	if err := s.Validate(); err != nil {
		return err
	}

	row, err := toRow(s)
	if err != nil {
		return err
	}

	err = b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? OR name = ?", s.ID, s.Name).Delete(&scriptRow{}).Error; err != nil {
			return err
		}
		return tx.Create(row).Error
	})
	if err != nil {
		b.logger.Error(ctx, "failed to save script", map[string]interface{}{
			"error":       err.Error(),
			"script_id":   s.ID,
			"script_name": s.Name,
		})
		return fmt.Errorf("%w: %v", ErrIO, err)
	}

	b.logger.Info(ctx, "script saved", map[string]interface{}{
		"script_id":   s.ID,
		"script_name": s.Name,
	})

	return nil
}

// LoadByID retrieves a script by its id.
func (b *SQLBackend) LoadByID(ctx context.Context, id string) (*script.Script, error) {
	return b.first(ctx, "id = ?", id)
}

// LoadByName retrieves a script by its name.
func (b *SQLBackend) LoadByName(ctx context.Context, name string) (*script.Script, error) {
	return b.first(ctx, "name = ?", name)
}

func (b *SQLBackend) first(ctx context.Context, query string, arg string) (*script.Script, error) {
	var row scriptRow
	err := b.db.WithContext(ctx).Where(query, arg).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScriptNotFound
		}
		b.logger.Error(ctx, "failed to load script", map[string]interface{}{
			"error": err.Error(),
			"query": query,
			"value": arg,
		})
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	return row.toScript()
}

// List returns every script ordered by name.
func (b *SQLBackend) List(ctx context.Context) ([]*script.Script, error) {
	var rows []scriptRow
	if err := b.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		b.logger.Error(ctx, "failed to list scripts", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}

	scripts := make([]*script.Script, 0, len(rows))
	for i := range rows {
		s, err := rows[i].toScript()
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, s)
	}
	return scripts, nil
}

// Delete removes the script with the given id.
func (b *SQLBackend) Delete(ctx context.Context, id string) error {
	result := b.db.WithContext(ctx).Where("id = ?", id).Delete(&scriptRow{})
	if result.Error != nil {
		b.logger.Error(ctx, "failed to delete script", map[string]interface{}{
			"error":     result.Error.Error(),
			"script_id": id,
		})
		return fmt.Errorf("%w: %v", ErrIO, result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrScriptNotFound
	}

	b.logger.Info(ctx, "script deleted", map[string]interface{}{
		"script_id": id,
	})

	return nil
}

// Exists reports whether a row has the id.
func (b *SQLBackend) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := b.db.WithContext(ctx).Model(&scriptRow{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("%w: %v", ErrIO, err)
	}
	return count > 0, nil
}

// Metadata aggregates the row count and stored sizes.
func (b *SQLBackend) Metadata(ctx context.Context) (*StorageMetadata, error) {
	var agg struct {
		Total int64
		Size  int64
	}
	err := b.db.WithContext(ctx).
		Model(&scriptRow{}).
		Select("COUNT(*) AS total, COALESCE(SUM(size_bytes), 0) AS size").
		Scan(&agg).Error
	if err != nil {
		b.logger.Error(ctx, "failed to aggregate storage metadata", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}

	return &StorageMetadata{
		TotalScripts:   int(agg.Total),
		TotalSizeBytes: uint64(agg.Size),
		BackendType:    b.BackendType(),
	}, nil
}

// HealthCheck pings the database and checks the scripts table exists.
func (b *SQLBackend) HealthCheck(ctx context.Context) bool {
	sqlDB, err := b.db.DB()
	if err != nil {
		return false
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		b.logger.Warn(ctx, "database unreachable", map[string]interface{}{
			"error": err.Error(),
		})
		return false
	}
	return b.db.WithContext(ctx).Migrator().HasTable(&scriptRow{})
}

// BackendType returns the SQL kind label.
func (b *SQLBackend) BackendType() string {
	return string(b.kind)
}

// Close releases the database connection.
func (b *SQLBackend) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
