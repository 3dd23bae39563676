package memstore

import (
	"context"
	"sort"

	"demsausage-api/internal/apperr"
	"demsausage-api/internal/models"
)

// CreateStall：分配 id，状态置为待审核
func (s *Store) CreateStall(ctx context.Context, st models.Stall) (models.Stall, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextStall++
	st.ID = s.nextStall
	st.Status = models.StallPending
	cp := st
	s.stalls[st.ID] = &cp
	return st, nil
}

func (s *Store) GetStall(ctx context.Context, id int) (models.Stall, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.stalls[id]
	if !ok {
		return models.Stall{}, &apperr.NotFound{What: "stall"}
	}
	return *st, nil
}

// ListStalls：按状态过滤，id 降序
func (s *Store) ListStalls(ctx context.Context, status models.StallStatus) ([]models.Stall, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Stall{}
	for _, st := range s.stalls {
		if st.Status == status {
			out = append(out, *st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// SetStallStatus：审核通过时把摊位 noms 写到所属投票点
func (s *Store) SetStallStatus(ctx context.Context, id int, status models.StallStatus) (models.Stall, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stalls[id]
	if !ok {
		return models.Stall{}, &apperr.NotFound{What: "stall"}
	}
	st.Status = status
	if status == models.StallApproved && st.PollingPlaceID != nil {
		if en, ok := s.places[*st.PollingPlaceID]; ok {
			en.pp.Noms = st.Noms
		}
	}
	return *st, nil
}

func (s *Store) SetMailConfirmation(ctx context.Context, id int, confirmed bool, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stalls[id]
	if !ok {
		return &apperr.NotFound{What: "stall"}
	}
	st.MailConfirmed = confirmed
	st.MailConfirmKey = key
	return nil
}

func (s *Store) HasConfirmedMail(ctx context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, st := range s.stalls {
		if st.Email == email && st.MailConfirmed {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) StallByConfirmKey(ctx context.Context, key string) (models.Stall, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if key == "" {
		return models.Stall{}, &apperr.NotFound{What: "stall"}
	}
	for _, st := range s.stalls {
		if st.MailConfirmKey == key {
			return *st, nil
		}
	}
	return models.Stall{}, &apperr.NotFound{What: "stall"}
}
