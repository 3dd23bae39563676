package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"demsausage-api/internal/apperr"
	"demsausage-api/internal/logger"
	"demsausage-api/internal/models"
)

const stallCols = `id, election_id, name, description, website, email, noms, status, polling_place_id, location_info, mail_confirmed, mail_confirm_key`

func scanStall(r scanner) (models.Stall, error) {
	var (
		st     models.Stall
		ppID   sql.NullInt64
		locRaw []byte
	)
	if err := r.Scan(&st.ID, &st.ElectionID, &st.Name, &st.Description, &st.Website, &st.Email, &st.Noms, &st.Status, &ppID, &locRaw, &st.MailConfirmed, &st.MailConfirmKey); err != nil {
		return st, err
	}
	if ppID.Valid {
		id := int(ppID.Int64)
		st.PollingPlaceID = &id
	}
	if locRaw != nil {
		st.LocationInfo = &models.LocationInfo{}
		if err := json.Unmarshal(locRaw, st.LocationInfo); err != nil {
			return st, err
		}
	}
	return st, nil
}

func notFoundStall(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return &apperr.NotFound{What: "stall"}
	}
	return err
}

// CreateStall：新增待审核摊位
func (s *Store) CreateStall(ctx context.Context, st models.Stall) (models.Stall, error) {
	st.Status = models.StallPending
	err := s.db.QueryRowContext(ctx, `INSERT INTO stalls(election_id, name, description, website, email, noms, status, polling_place_id, location_info)
        VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		st.ElectionID, st.Name, st.Description, st.Website, st.Email, st.Noms, string(st.Status), st.PollingPlaceID, st.LocationInfo).Scan(&st.ID)
	if err != nil {
		return st, err
	}
	logger.L().Info("stall_created", "stall_id", st.ID, "election_id", st.ElectionID)
	return st, nil
}

func (s *Store) GetStall(ctx context.Context, id int) (models.Stall, error) {
	st, err := scanStall(s.db.QueryRowContext(ctx, `SELECT `+stallCols+` FROM stalls WHERE id=$1`, id))
	return st, notFoundStall(err)
}

// ListStalls：按状态过滤，id 降序
func (s *Store) ListStalls(ctx context.Context, status models.StallStatus) ([]models.Stall, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+stallCols+` FROM stalls WHERE status=$1 ORDER BY id DESC`, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.Stall{}
	for rows.Next() {
		st, err := scanStall(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// SetStallStatus：审核通过时同一事务内把摊位 noms 写到所属投票点
func (s *Store) SetStallStatus(ctx context.Context, id int, status models.StallStatus) (models.Stall, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Stall{}, err
	}
	defer tx.Rollback()
	st, err := scanStall(tx.QueryRowContext(ctx, `UPDATE stalls SET status=$2 WHERE id=$1 RETURNING `+stallCols, id, string(status)))
	if err != nil {
		return st, notFoundStall(err)
	}
	if status == models.StallApproved && st.PollingPlaceID != nil {
		if _, err := tx.ExecContext(ctx, `UPDATE polling_places SET noms=$2 WHERE id=$1`, *st.PollingPlaceID, st.Noms); err != nil {
			return st, err
		}
	}
	if err := tx.Commit(); err != nil {
		return st, err
	}
	logger.L().Info("stall_status_set", "stall_id", id, "status", string(status))
	return st, nil
}

func (s *Store) SetMailConfirmation(ctx context.Context, id int, confirmed bool, key string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE stalls SET mail_confirmed=$2, mail_confirm_key=$3 WHERE id=$1`, id, confirmed, key)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &apperr.NotFound{What: "stall"}
	}
	return nil
}

// HasConfirmedMail：该邮箱是否曾经确认过（决定是否附带退订链接）
func (s *Store) HasConfirmedMail(ctx context.Context, email string) (bool, error) {
	var ok bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM stalls WHERE email=$1 AND mail_confirmed)`, email).Scan(&ok)
	return ok, err
}

func (s *Store) StallByConfirmKey(ctx context.Context, key string) (models.Stall, error) {
	if key == "" {
		return models.Stall{}, &apperr.NotFound{What: "stall"}
	}
	st, err := scanStall(s.db.QueryRowContext(ctx, `SELECT `+stallCols+` FROM stalls WHERE mail_confirm_key=$1 ORDER BY id DESC LIMIT 1`, key))
	return st, notFoundStall(err)
}
