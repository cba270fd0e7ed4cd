package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"todos/internal/logger"

	"github.com/go-sql-driver/mysql"
)

var mysqlDialect = dialect{
	name: "mysql",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS todos (
			id BIGINT PRIMARY KEY AUTO_INCREMENT,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			created_at DATETIME(3) NOT NULL,
			updated_at DATETIME(3) NOT NULL,
			INDEX idx_todos_created_at (created_at)
		)`,
	},
}

// NewMySQLStorage принимает DSN драйвера go-sql-driver/mysql (user:pass@tcp(host:3306)/db)
func NewMySQLStorage(ctx context.Context, dsn string) (*SQLStorage, error) {
	cfg, err := mysqlConfig(dsn)
	if err != nil {
		return nil, err
	}

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия БД: %w", err)
	}
	db := sql.OpenDB(connector)
	db.SetConnMaxLifetime(3 * time.Minute)

	s, err := newSQLStorage(ctx, db, mysqlDialect)
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "MySQL база данных инициализирована", "addr", cfg.Addr, "db", cfg.DBName)
	return s, nil
}

// mysqlConfig разбирает DSN и включает опции, без которых SQLStorage работает неверно
func mysqlConfig(dsn string) (*mysql.Config, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("некорректный MySQL DSN: %w", err)
	}
	// created_at/updated_at сканируются в time.Time
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	// UPDATE без изменений значений должен считаться найденной строкой
	cfg.ClientFoundRows = true
	return cfg, nil
}
