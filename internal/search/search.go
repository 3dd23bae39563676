// 包 search：投票点检索与附近查询，组合过滤管线与空间引擎
package search

import (
	"context"

	"demsausage-api/internal/filter"
	"demsausage-api/internal/geojson"
	"demsausage-api/internal/logger"
	"demsausage-api/internal/models"
	"demsausage-api/internal/spatial"
)

// Datastore：检索所需的最小数据访问面
type Datastore interface {
	spatial.Datastore
	FindPollingPlaces(ctx context.Context, p filter.Predicate) ([]models.PollingPlace, error)
}

// Service：search / searchNearby / GeoJSON 构建
type Service struct {
	ds     Datastore
	engine *spatial.Engine
}

func New(ds Datastore) *Service {
	return &Service{ds: ds, engine: spatial.NewEngine(ds)}
}

// Search：按选举、id 集合、检索词依次收窄，结果保持 id 升序
func (s *Service) Search(ctx context.Context, q filter.SearchQuery) ([]models.PollingPlace, error) {
	pps, err := s.ds.FindPollingPlaces(ctx, q.Predicate())
	if err != nil {
		return nil, err
	}
	logger.L().Debug("search_done", "election_id", q.ElectionID, "ids", len(q.IDs), "terms", len(q.SearchTerms), "results", len(pps))
	return pps, nil
}

// Nearby：有坐标时走两级半径；无坐标时返回该选举全部投票点且不带距离
func (s *Service) Nearby(ctx context.Context, q filter.NearbyQuery) ([]models.NearbyPlace, error) {
	if q.Origin == nil {
		pps, err := s.ds.FindPollingPlaces(ctx, q.Predicate())
		if err != nil {
			return nil, err
		}
		out := make([]models.NearbyPlace, len(pps))
		for i := range pps {
			out[i] = models.NearbyPlace{PollingPlace: pps[i]}
		}
		return out, nil
	}
	res, tier, err := s.engine.Nearby(ctx, q.Predicate(), *q.Origin)
	if err != nil {
		return nil, err
	}
	logger.L().Debug("nearby_done", "election_id", q.ElectionID, "tier", string(tier), "results", len(res))
	return res, nil
}

// BuildGeoJSON：ResponseCache 的构建函数，序列化整选举的投票点
func (s *Service) BuildGeoJSON(ctx context.Context, electionID int) ([]byte, error) {
	pps, err := s.ds.FindPollingPlaces(ctx, filter.ElectionIs(electionID))
	if err != nil {
		return nil, err
	}
	return geojson.Marshal(pps)
}
