package utils

import (
	"database/sql"

	"demsausage-api/internal/config"
	"demsausage-api/internal/logger"

	_ "github.com/lib/pq"
)

// OpenPostgres：按配置打开连接池
// 约束：sql.Open 不建立连接，调用方需自行 Ping
func OpenPostgres(c *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", c.PostgresDSN())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(c.PGMaxOpenConns)
	db.SetMaxIdleConns(c.PGMaxIdleConns)
	logger.L().Debug("pg_pool", "host", c.PGHost, "db", c.PGDB, "max_open", c.PGMaxOpenConns, "max_idle", c.PGMaxIdleConns)
	return db, nil
}
