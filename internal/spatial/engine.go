// 包 spatial：两级半径的附近投票点查询
package spatial

import (
	"context"

	"demsausage-api/internal/filter"
	"demsausage-api/internal/geo"
	"demsausage-api/internal/logger"
	"demsausage-api/internal/metrics"
	"demsausage-api/internal/models"
)

const (
	// NearRadiusKm：城区精度的首选半径
	NearRadiusKm = 50.0
	// FarRadiusKm：首选半径为空时的兜底半径
	FarRadiusKm = 1000.0
	// Limit：每级返回上限
	Limit = 15
)

// Datastore：距离受限的最近邻查询
// 约束：结果按距离升序，距离相同按 id 升序；每项必须带 DistanceKm
type Datastore interface {
	FindWithin(ctx context.Context, base filter.Predicate, origin geo.Point, radiusKm float64, limit int) ([]models.NearbyPlace, error)
}

// Tier：命中的半径级别
type Tier string

const (
	TierNear Tier = "50km"
	TierFar  Tier = "1000km"
)

// Engine：SpatialQueryEngine
type Engine struct {
	ds Datastore
}

func NewEngine(ds Datastore) *Engine { return &Engine{ds: ds} }

// FindByDistance：单级查询
func (e *Engine) FindByDistance(ctx context.Context, base filter.Predicate, origin geo.Point, radiusKm float64, limit int) ([]models.NearbyPlace, error) {
	if base == nil {
		base = filter.All()
	}
	return e.ds.FindWithin(ctx, base, origin, radiusKm, limit)
}

// Nearby：先查 50km，为空再查 1000km；两级都为空时返回第二级的空结果
func (e *Engine) Nearby(ctx context.Context, base filter.Predicate, origin geo.Point) ([]models.NearbyPlace, Tier, error) {
	near, err := e.FindByDistance(ctx, base, origin, NearRadiusKm, Limit)
	if err != nil {
		return nil, "", err
	}
	if len(near) > 0 {
		metrics.NearbyTierTotal.WithLabelValues(string(TierNear)).Inc()
		return near, TierNear, nil
	}
	far, err := e.FindByDistance(ctx, base, origin, FarRadiusKm, Limit)
	if err != nil {
		return nil, "", err
	}
	metrics.NearbyTierTotal.WithLabelValues(string(TierFar)).Inc()
	logger.L().Debug("nearby_far_tier", "lon", origin.Lon, "lat", origin.Lat, "results", len(far))
	return far, TierFar, nil
}
