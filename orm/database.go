package orm

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/slimloans/inject"
	"github.com/slimloans/inject/errors"
)

// Provider returns an app-scoped database dependency: one connection per
// application lifetime, closed when the scope manager drains at shutdown.
// Register it under a name and inject it like any other dependency:
//
//	app.Provide("db", orm.Provider(app.Config(), app.Name))
func Provider(v *viper.Viper, prefixKey string) *inject.Provider {
	return inject.Provide(func() (*gorm.DB, func(), error) {
		db, err := Connect(v, prefixKey)
		if err != nil {
			return nil, nil, err
		}
		return db, closer(db), nil
	}, inject.WithScope(inject.ScopeApp), inject.WithName("database"))
}

// InMemoryProvider returns an app-scoped sqlite in-memory database, handy in
// tests. Any passed models are auto-migrated on first resolution.
func InMemoryProvider(modelsToMigrate ...interface{}) *inject.Provider {
	return inject.Provide(func() (*gorm.DB, func(), error) {
		db := NewInMemoryConnection(modelsToMigrate...)
		return db, closer(db), nil
	}, inject.WithScope(inject.ScopeApp), inject.WithName("database"))
}

// SessionProvider returns a request-scoped session on top of a registered
// connection: each request gets a fresh gorm session off the shared pool.
func SessionProvider(connectionName string) *inject.Provider {
	return inject.Provide(func(db *gorm.DB) *gorm.DB {
		return db.Session(&gorm.Session{NewDB: true})
	},
		inject.WithScope(inject.ScopeRequest),
		inject.WithParams(inject.Provides(connectionName)),
	)
}

// Connect opens the configured driver for the given config prefix.
func Connect(v *viper.Viper, prefixKey string) (*gorm.DB, error) {
	setConfigDefaults(v, prefixKey)

	driver := v.GetString(prefixKey + ".db.driver")

	switch driver {
	case "in-memory":
		return NewInMemoryConnection(), nil
	case "postgres":
		db, err := NewPostgresConnection(v, prefixKey)
		if err != nil {
			return nil, errors.WrapGeneric(err)
		}
		return db, nil
	default:
		return nil, errors.WrapGeneric(fmt.Errorf("database driver %s not supported", driver))
	}
}

// NewPostgresConnection opens a postgres connection from config, honoring
// DATABASE_URL when present.
func NewPostgresConnection(v *viper.Viper, prefixKey string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(postgresConnectionString(v, prefixKey)), &gorm.Config{})
}

// NewInMemoryConnection creates an in-memory sqlite connection and migrates
// any passed models. Mostly for tests.
func NewInMemoryConnection(modelsToMigrate ...interface{}) *gorm.DB {
	db, _ := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})

	if len(modelsToMigrate) > 0 {
		db.AutoMigrate(modelsToMigrate...)
	}

	return db
}

func postgresConnectionString(v *viper.Viper, prefixKey string) string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	return fmt.Sprintf("dbname=%s host=%s port=%d user=%s password=%s sslmode=disable",
		v.GetString(prefixKey+".db.name"),
		v.GetString(prefixKey+".db.host"),
		v.GetInt(prefixKey+".db.port"),
		v.GetString(prefixKey+".db.username"),
		v.GetString(prefixKey+".db.password"),
	)
}

func closer(db *gorm.DB) func() {
	return func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}
}

func setConfigDefaults(v *viper.Viper, prefixKey string) {
	v.SetDefault(prefixKey+".db.driver", "postgres")
	v.SetDefault(prefixKey+".db.host", "127.0.0.1")
	v.SetDefault(prefixKey+".db.port", 5432)
	v.SetDefault(prefixKey+".db.name", prefixKey)
	v.SetDefault(prefixKey+".db.username", "postgres")
	v.SetDefault(prefixKey+".db.password", "")
}
