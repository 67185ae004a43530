package driver

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"database/sql"
	"fmt"
	"os"

	mysqldriver "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"        // pgsql driver registration
	_ "modernc.org/sqlite"       // sqlite driver registration
)

// ConnectionConfig holds connection parameters for any supported engine.
type ConnectionConfig struct {
	Driver   string // mysql (default), pgsql, sqlite
	Host     string
	Port     int
	User     string
	Password string
	Database string
	Socket   string
	Path     string // sqlite file path
	TLSMode  string // "", "disabled", "preferred", "required", "skip-verify", "custom"
	TLSCA    string // path to CA certificate file (required when TLSMode == "custom")
}

// Connect opens and verifies a database connection for the configured engine.
func Connect(cfg ConnectionConfig) (*sql.DB, error) {
	if cfg.TLSMode == "custom" {
		if cfg.TLSCA == "" {
			return nil, fmt.Errorf("--tls-ca is required when --tls=custom")
		}
		if err := registerCustomTLS(cfg.TLSCA); err != nil {
			return nil, fmt.Errorf("TLS setup failed: %w", err)
		}
	}

	driverName, dsn, err := buildDSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}

	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping: %w", err)
	}

	// Conservative pool: one EXPLAIN stream at a time, one spare.
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(1)

	return db, nil
}

// registerCustomTLS reads a CA certificate PEM file and registers it as a
// named TLS config with the MySQL driver.
func registerCustomTLS(caPath string) error {
	pem, err := os.ReadFile(caPath)
	if err != nil {
		return fmt.Errorf("reading CA certificate %q: %w", caPath, err)
	}

	rootCAs := x509.NewCertPool()
	if !rootCAs.AppendCertsFromPEM(pem) {
		return fmt.Errorf("no valid certificates found in %q", caPath)
	}

	return mysqldriver.RegisterTLSConfig("querylens-custom", &tls.Config{
		RootCAs: rootCAs,
	})
}

func buildDSN(cfg ConnectionConfig) (string, string, error) {
	switch cfg.Driver {
	case "", "mysql":
		dsn, err := buildMySQLDSN(cfg)
		return "mysql", dsn, err
	case "pgsql", "postgres":
		return "postgres", buildPostgresDSN(cfg), nil
	case "sqlite":
		path := cfg.Path
		if path == "" {
			path = cfg.Database
		}
		if path == "" {
			return "", "", fmt.Errorf("sqlite requires a database file path")
		}
		return "sqlite", path, nil
	default:
		return "", "", fmt.Errorf("unsupported driver %q: valid values are mysql, pgsql, sqlite", cfg.Driver)
	}
}

func buildMySQLDSN(cfg ConnectionConfig) (string, error) {
	switch cfg.TLSMode {
	case "", "disabled", "preferred", "required", "skip-verify", "custom":
		// valid
	default:
		return "", fmt.Errorf("invalid TLS mode %q: valid values are disabled, preferred, required, skip-verify, custom", cfg.TLSMode)
	}

	var addr string
	if cfg.Socket != "" {
		addr = fmt.Sprintf("unix(%s)", cfg.Socket)
	} else {
		addr = fmt.Sprintf("tcp(%s:%d)", cfg.Host, cfg.Port)
	}

	db := cfg.Database
	if db == "" {
		db = "information_schema"
	}

	dsn := fmt.Sprintf("%s:%s@%s/%s?parseTime=true&interpolateParams=true",
		cfg.User, cfg.Password, addr, db)

	switch cfg.TLSMode {
	case "preferred":
		dsn += "&tls=preferred"
	case "required":
		dsn += "&tls=true"
	case "skip-verify":
		dsn += "&tls=skip-verify"
	case "custom":
		dsn += "&tls=querylens-custom"
		// "" and "disabled" → no TLS param
	}

	return dsn, nil
}

func buildPostgresDSN(cfg ConnectionConfig) string {
	host := cfg.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	sslmode := "disable"
	switch cfg.TLSMode {
	case "preferred":
		sslmode = "prefer"
	case "required", "custom":
		sslmode = "require"
	case "skip-verify":
		sslmode = "require"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		host, port, cfg.User, cfg.Password, cfg.Database, sslmode)
}
