// 包 memstore：进程内数据存储，R-Tree 做候选过滤，Haversine 做精确距离
// 用于测试与 DATASTORE=memory 的单机运行
package memstore

import (
	"context"
	"sort"
	"sync"

	"demsausage-api/internal/apperr"
	"demsausage-api/internal/filter"
	"demsausage-api/internal/geo"
	"demsausage-api/internal/logger"
	"demsausage-api/internal/models"

	"github.com/dhconnelly/rtreego"
)

const pointTolerance = 1e-9

type entry struct {
	pp   *models.PollingPlace
	rect rtreego.Rect
}

func (e *entry) Bounds() rtreego.Rect { return e.rect }

// Store：约束与 PostGIS 实现一致（id 升序为默认顺序，同距按 id 升序）
type Store struct {
	mu        sync.RWMutex
	elections map[int]*models.Election
	places    map[int]*entry
	stalls    map[int]*models.Stall
	tree      *rtreego.Rtree
	nextPP    int
	nextStall int
}

func New() *Store {
	return &Store{
		elections: make(map[int]*models.Election),
		places:    make(map[int]*entry),
		stalls:    make(map[int]*models.Stall),
		tree:      rtreego.NewTree(2, 25, 50),
	}
}

func pointRect(p geo.Point) rtreego.Rect {
	return rtreego.Point{p.Lon, p.Lat}.ToRect(pointTolerance)
}

// PutElection：新增或覆盖
func (s *Store) PutElection(ctx context.Context, e models.Election) (models.Election, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == 0 {
		e.ID = len(s.elections) + 1
		for s.elections[e.ID] != nil {
			e.ID++
		}
	}
	if e.IsPrimary {
		for _, o := range s.elections {
			o.IsPrimary = false
		}
	}
	cp := e
	s.elections[e.ID] = &cp
	return e, nil
}

func (s *Store) GetElection(ctx context.Context, id int) (models.Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.elections[id]
	if !ok {
		return models.Election{}, &apperr.NotFound{What: "election"}
	}
	return *e, nil
}

// ListElections：id 降序
func (s *Store) ListElections(ctx context.Context, includeHidden bool) ([]models.Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Election, 0, len(s.elections))
	for _, e := range s.elections {
		if e.IsHidden && !includeHidden {
			continue
		}
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// SetPrimary：持写锁完成“全部清除再设置”，外部观察不到中间态
func (s *Store) SetPrimary(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	target, ok := s.elections[id]
	if !ok {
		return &apperr.NotFound{What: "election"}
	}
	for _, e := range s.elections {
		e.IsPrimary = false
	}
	target.IsPrimary = true
	return nil
}

// ReplacePollingPlaces：整体替换某选举的投票点并标记已加载
func (s *Store) ReplacePollingPlaces(ctx context.Context, electionID int, pps []models.PollingPlace) ([]models.PollingPlace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.elections[electionID]
	if !ok {
		return nil, &apperr.NotFound{What: "election"}
	}
	// 约束：先校验整批再改动，失败时不留半成品
	next := s.nextPP
	seen := make(map[int]bool, len(pps))
	for _, pp := range pps {
		if pp.ID == 0 {
			continue
		}
		if seen[pp.ID] {
			return nil, apperr.BadRequestf("polling place id %d appears more than once", pp.ID)
		}
		seen[pp.ID] = true
		if old, ok := s.places[pp.ID]; ok && old.pp.ElectionID != electionID {
			return nil, apperr.BadRequestf("polling place id %d belongs to election %d", pp.ID, old.pp.ElectionID)
		}
		if pp.ID > next {
			next = pp.ID
		}
	}
	s.nextPP = next
	for id, en := range s.places {
		if en.pp.ElectionID == electionID {
			s.tree.Delete(en)
			delete(s.places, id)
		}
	}
	out := make([]models.PollingPlace, 0, len(pps))
	for _, pp := range pps {
		if pp.ID == 0 {
			s.nextPP++
			pp.ID = s.nextPP
		}
		pp.ElectionID = electionID
		cp := pp
		en := &entry{pp: &cp, rect: pointRect(cp.Geom)}
		s.places[cp.ID] = en
		s.tree.Insert(en)
		out = append(out, cp)
	}
	e.PollingPlacesLoaded = true
	logger.L().Debug("memstore_polling_places_loaded", "election_id", electionID, "count", len(out))
	return out, nil
}

func (s *Store) GetPollingPlace(ctx context.Context, id int) (models.PollingPlace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	en, ok := s.places[id]
	if !ok {
		return models.PollingPlace{}, &apperr.NotFound{What: "polling place"}
	}
	return *en.pp, nil
}

// FindPollingPlaces：按谓词过滤，id 升序
func (s *Store) FindPollingPlaces(ctx context.Context, p filter.Predicate) ([]models.PollingPlace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.PollingPlace{}
	for _, en := range s.places {
		if p.Match(en.pp) {
			out = append(out, *en.pp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// FindWithin：包围盒候选 → 谓词 → 精确距离过滤 → (距离, id) 排序 → 截断
func (s *Store) FindWithin(ctx context.Context, base filter.Predicate, origin geo.Point, radiusKm float64, limit int) ([]models.NearbyPlace, error) {
	bb := geo.Around(origin, radiusKm)
	w, h := bb[2]-bb[0], bb[3]-bb[1]
	if w < pointTolerance {
		w = pointTolerance
	}
	if h < pointTolerance {
		h = pointTolerance
	}
	rect, err := rtreego.NewRect(rtreego.Point{bb[0], bb[1]}, []float64{w, h})
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	cands := s.tree.SearchIntersect(rect)
	out := make([]models.NearbyPlace, 0, len(cands))
	for _, c := range cands {
		pp := c.(*entry).pp
		if !base.Match(pp) {
			continue
		}
		d := geo.DistanceKm(origin, pp.Geom)
		if d > radiusKm {
			continue
		}
		dist := d
		out = append(out, models.NearbyPlace{PollingPlace: *pp, DistanceKm: &dist})
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		di, dj := *out[i].DistanceKm, *out[j].DistanceKm
		if di != dj {
			return di < dj
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
