// 包 migrate：启动时建立 PostGIS 结构
package migrate

import (
	"context"
	"database/sql"

	"demsausage-api/internal/logger"
)

// EnsureSchema：首次运行自动创建所需表与索引
// 约束：使用 IF NOT EXISTS 保持幂等；坐标统一为 geography(Point, 4326)
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS postgis`,
		`CREATE TABLE IF NOT EXISTS elections (
            id SERIAL PRIMARY KEY,
            name TEXT NOT NULL,
            geom geography(Point, 4326) NOT NULL,
            is_hidden BOOLEAN NOT NULL DEFAULT FALSE,
            is_primary BOOLEAN NOT NULL DEFAULT FALSE,
            polling_places_loaded BOOLEAN NOT NULL DEFAULT FALSE
        )`,
		// 至多一个主选举
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_elections_primary ON elections(is_primary) WHERE is_primary`,
		`CREATE TABLE IF NOT EXISTS polling_places (
            id SERIAL PRIMARY KEY,
            election_id INT NOT NULL REFERENCES elections(id) ON DELETE CASCADE,
            name TEXT NOT NULL,
            premises TEXT NOT NULL DEFAULT '',
            address TEXT NOT NULL DEFAULT '',
            state TEXT NOT NULL DEFAULT '',
            facility_type TEXT,
            chance_of_sausage INT CHECK (chance_of_sausage BETWEEN 0 AND 3),
            geom geography(Point, 4326) NOT NULL,
            noms JSONB
        )`,
		`CREATE INDEX IF NOT EXISTS idx_polling_places_election ON polling_places(election_id, id)`,
		`CREATE INDEX IF NOT EXISTS idx_polling_places_geom ON polling_places USING GIST(geom)`,
		`CREATE TABLE IF NOT EXISTS stalls (
            id SERIAL PRIMARY KEY,
            election_id INT NOT NULL REFERENCES elections(id) ON DELETE CASCADE,
            name TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            website TEXT NOT NULL DEFAULT '',
            email TEXT NOT NULL,
            noms JSONB,
            status TEXT NOT NULL DEFAULT 'Pending',
            polling_place_id INT REFERENCES polling_places(id) ON DELETE SET NULL,
            location_info JSONB,
            mail_confirmed BOOLEAN NOT NULL DEFAULT FALSE,
            mail_confirm_key TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_stalls_status ON stalls(status, id)`,
		`CREATE INDEX IF NOT EXISTS idx_stalls_email ON stalls(email) WHERE mail_confirmed`,
	}
	for i, s := range stmts {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	logger.L().Debug("schema_done")
	return nil
}
