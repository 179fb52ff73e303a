// backend/database/connection.go
package database

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/gramdarpan/mgnrega/backend/config"
)

var DB *sql.DB

// InitDB initializes the database connection pool and creates any missing
// tables.
func InitDB(cfg config.DatabaseConfig) error {
	var err error
	// DSN: username:password@protocol(address)/dbname?param=value
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
	)

	DB, err = sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	DB.SetMaxOpenConns(25)
	DB.SetMaxIdleConns(25)
	DB.SetConnMaxLifetime(5 * time.Minute)

	if err = DB.Ping(); err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if err = EnsureSchema(DB); err != nil {
		DB.Close()
		return fmt.Errorf("failed to ensure schema: %w", err)
	}

	log.Println("DB: connected and schema verified")
	return nil
}

// CloseDB closes the database connection pool. Called on shutdown.
func CloseDB() {
	if DB != nil {
		DB.Close()
		log.Println("DB: connection closed")
	}
}
