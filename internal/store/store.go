// 包 store：PostGIS 数据访问层，覆盖选举、投票点与摊位
package store

import (
	"context"
	"database/sql"
	"errors"

	"demsausage-api/internal/apperr"
	"demsausage-api/internal/filter"
	"demsausage-api/internal/geo"
	"demsausage-api/internal/logger"
	"demsausage-api/internal/models"

	_ "github.com/lib/pq"
)

// primaryLockKey：切换主选举时的事务级咨询锁
const primaryLockKey = 0x5a05a6e

// Store：数据库访问入口，持有连接池
type Store struct {
	db *sql.DB
}

func AttachDB(db *sql.DB) *Store { return &Store{db: db} }

// Close：关闭数据库连接
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

const pointSQL = `ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography`

const electionCols = `id, name, ST_X(geom::geometry), ST_Y(geom::geometry), is_hidden, is_primary, polling_places_loaded`

type scanner interface {
	Scan(dest ...any) error
}

func scanElection(r scanner) (models.Election, error) {
	var e models.Election
	err := r.Scan(&e.ID, &e.Name, &e.Geom.Lon, &e.Geom.Lat, &e.IsHidden, &e.IsPrimary, &e.PollingPlacesLoaded)
	return e, err
}

// PutElection：ID 为 0 时新增，否则按 id 覆盖；IsPrimary 通过 SetPrimary 生效
func (s *Store) PutElection(ctx context.Context, e models.Election) (models.Election, error) {
	var err error
	if e.ID == 0 {
		err = s.db.QueryRowContext(ctx, `INSERT INTO elections(name, geom, is_hidden, polling_places_loaded)
            VALUES($3, `+pointSQL+`, $4, $5) RETURNING id`,
			e.Geom.Lon, e.Geom.Lat, e.Name, e.IsHidden, e.PollingPlacesLoaded).Scan(&e.ID)
	} else {
		_, err = s.db.ExecContext(ctx, `INSERT INTO elections(id, name, geom, is_hidden, polling_places_loaded)
            VALUES($3, $4, `+pointSQL+`, $5, $6)
            ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, geom=EXCLUDED.geom, is_hidden=EXCLUDED.is_hidden, polling_places_loaded=EXCLUDED.polling_places_loaded`,
			e.Geom.Lon, e.Geom.Lat, e.ID, e.Name, e.IsHidden, e.PollingPlacesLoaded)
		if err == nil {
			_, err = s.db.ExecContext(ctx, `SELECT setval(pg_get_serial_sequence('elections', 'id'), GREATEST((SELECT MAX(id) FROM elections), 1))`)
		}
	}
	if err != nil {
		return e, err
	}
	if e.IsPrimary {
		if err := s.SetPrimary(ctx, e.ID); err != nil {
			return e, err
		}
	}
	return e, nil
}

func (s *Store) GetElection(ctx context.Context, id int) (models.Election, error) {
	e, err := scanElection(s.db.QueryRowContext(ctx, `SELECT `+electionCols+` FROM elections WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return e, &apperr.NotFound{What: "election"}
	}
	return e, err
}

// ListElections：id 降序；includeHidden 为 false 时排除隐藏选举
func (s *Store) ListElections(ctx context.Context, includeHidden bool) ([]models.Election, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+electionCols+` FROM elections WHERE $1 OR NOT is_hidden ORDER BY id DESC`, includeHidden)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.Election{}
	for rows.Next() {
		e, err := scanElection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// SetPrimary：同一事务内清除其他主选举再设置目标
// 约束：咨询锁串行化并发切换；部分唯一索引兜底，任何时刻至多一个主选举
func (s *Store) SetPrimary(ctx context.Context, id int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, primaryLockKey); err != nil {
		return err
	}
	var found int
	if err := tx.QueryRowContext(ctx, `SELECT id FROM elections WHERE id=$1 FOR UPDATE`, id).Scan(&found); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &apperr.NotFound{What: "election"}
		}
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE elections SET is_primary=FALSE WHERE is_primary AND id<>$1`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE elections SET is_primary=TRUE WHERE id=$1`, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	logger.L().Info("election_set_primary", "election_id", id)
	return nil
}

const placeCols = `id, election_id, name, premises, address, state, facility_type, chance_of_sausage, ST_X(geom::geometry), ST_Y(geom::geometry), noms`

func scanPlace(r scanner, extra ...any) (models.PollingPlace, error) {
	var (
		pp       models.PollingPlace
		facility sql.NullString
		chance   sql.NullInt64
	)
	dest := []any{&pp.ID, &pp.ElectionID, &pp.Name, &pp.Premises, &pp.Address, &pp.State, &facility, &chance, &pp.Geom.Lon, &pp.Geom.Lat, &pp.Noms}
	if err := r.Scan(append(dest, extra...)...); err != nil {
		return pp, err
	}
	if facility.Valid {
		pp.FacilityType = &facility.String
	}
	if chance.Valid {
		c := int(chance.Int64)
		pp.ChanceOfSausage = &c
	}
	return pp, nil
}

// ReplacePollingPlaces：事务内整体替换某选举的投票点并标记已加载
func (s *Store) ReplacePollingPlaces(ctx context.Context, electionID int, pps []models.PollingPlace) ([]models.PollingPlace, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	var found int
	if err := tx.QueryRowContext(ctx, `SELECT id FROM elections WHERE id=$1 FOR UPDATE`, electionID).Scan(&found); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &apperr.NotFound{What: "election"}
		}
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM polling_places WHERE election_id=$1`, electionID); err != nil {
		return nil, err
	}
	explicit := false
	out := make([]models.PollingPlace, 0, len(pps))
	for _, pp := range pps {
		pp.ElectionID = electionID
		args := []any{pp.Geom.Lon, pp.Geom.Lat, electionID, pp.Name, pp.Premises, pp.Address, pp.State, pp.FacilityType, pp.ChanceOfSausage, pp.Noms}
		cols, vals := `election_id, name, premises, address, state, facility_type, chance_of_sausage, noms, geom`, `$3, $4, $5, $6, $7, $8, $9, $10, `+pointSQL
		if pp.ID != 0 {
			explicit = true
			args = append(args, pp.ID)
			cols, vals = "id, "+cols, "$11, "+vals
		}
		if err := tx.QueryRowContext(ctx, `INSERT INTO polling_places(`+cols+`) VALUES(`+vals+`) RETURNING id`, args...).Scan(&pp.ID); err != nil {
			return nil, err
		}
		out = append(out, pp)
	}
	if explicit {
		if _, err := tx.ExecContext(ctx, `SELECT setval(pg_get_serial_sequence('polling_places', 'id'), GREATEST((SELECT MAX(id) FROM polling_places), 1))`); err != nil {
			return nil, err
		}
	}
	if _, err := tx.ExecContext(ctx, `UPDATE elections SET polling_places_loaded=TRUE WHERE id=$1`, electionID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	logger.L().Info("polling_places_loaded", "election_id", electionID, "count", len(out))
	return out, nil
}

func (s *Store) GetPollingPlace(ctx context.Context, id int) (models.PollingPlace, error) {
	pp, err := scanPlace(s.db.QueryRowContext(ctx, `SELECT `+placeCols+` FROM polling_places WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return pp, &apperr.NotFound{What: "polling place"}
	}
	return pp, err
}

// FindPollingPlaces：按谓词过滤，id 升序
func (s *Store) FindPollingPlaces(ctx context.Context, p filter.Predicate) ([]models.PollingPlace, error) {
	where, args := filter.Where(p)
	rows, err := s.db.QueryContext(ctx, `SELECT `+placeCols+` FROM polling_places WHERE `+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.PollingPlace{}
	for rows.Next() {
		pp, err := scanPlace(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, pp)
	}
	return out, rows.Err()
}

// FindWithin：ST_DWithin 走 GIST 索引，按 (距离, id) 排序后截断
// 约束：$1 $2 为原点经纬度，$3 为半径米数，谓词参数从 $4 起
func (s *Store) FindWithin(ctx context.Context, base filter.Predicate, origin geo.Point, radiusKm float64, limit int) ([]models.NearbyPlace, error) {
	q := filter.NewQuery(origin.Lon, origin.Lat, radiusKm*1000)
	q.WriteString(`SELECT ` + placeCols + `, ST_Distance(geom, ` + pointSQL + `) / 1000 AS distance_km
        FROM polling_places
        WHERE ST_DWithin(geom, ` + pointSQL + `, $3) AND (`)
	base.WriteSQL(q)
	q.WriteString(`) ORDER BY distance_km, id LIMIT ` + q.Arg(limit))
	rows, err := s.db.QueryContext(ctx, q.String(), q.Args()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.NearbyPlace{}
	for rows.Next() {
		var d float64
		pp, err := scanPlace(rows, &d)
		if err != nil {
			return nil, err
		}
		out = append(out, models.NearbyPlace{PollingPlace: pp, DistanceKm: &d})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	logger.L().Debug("db_find_within", "radius_km", radiusKm, "results", len(out))
	return out, nil
}
