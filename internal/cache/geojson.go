package cache

import (
	"context"
	"strconv"
	"time"

	"demsausage-api/internal/logger"
	"demsausage-api/internal/metrics"
)

// emptyPayload：regenerate 请求的响应体，每次调用返回新切片
const emptyPayload = "{}"

// Key：缓存键只由选举 id 决定
func Key(electionID int) string { return "geojson:election:" + strconv.Itoa(electionID) }

// BuildFunc：查询并序列化某选举的全部投票点
type BuildFunc func(ctx context.Context, electionID int) ([]byte, error)

// GeoJSON：ResponseCache，只覆盖未过滤的整选举列表
type GeoJSON struct {
	store Store
	build BuildFunc
}

func NewGeoJSON(store Store, build BuildFunc) *GeoJSON {
	return &GeoJSON{store: store, build: build}
}

// Get：命中直接返回缓存内容；未命中则构建、写入并返回
// regenerate 为 true 时跳过读取，构建并写入后返回 {}，而不是新数据
// 约束：并发构建同一选举时最后写入者生效
func (c *GeoJSON) Get(ctx context.Context, electionID int, regenerate bool) ([]byte, error) {
	key := Key(electionID)
	if !regenerate {
		b, ok, err := c.store.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if ok {
			metrics.GeoJSONCacheHitsTotal.Inc()
			logger.L().Debug("geojson_cache_hit", "key", key, "bytes", len(b))
			return b, nil
		}
		metrics.GeoJSONCacheMissesTotal.Inc()
	}
	b, err := c.rebuild(ctx, electionID)
	if err != nil {
		return nil, err
	}
	if regenerate {
		metrics.GeoJSONRegenerateTotal.Inc()
		return []byte(emptyPayload), nil
	}
	return b, nil
}

// Regenerate：数据变更后的预热入口
func (c *GeoJSON) Regenerate(ctx context.Context, electionID int) error {
	_, err := c.Get(ctx, electionID, true)
	return err
}

func (c *GeoJSON) rebuild(ctx context.Context, electionID int) ([]byte, error) {
	t0 := time.Now()
	b, err := c.build(ctx, electionID)
	if err != nil {
		return nil, err
	}
	metrics.GeoJSONBuildDurationMs.Observe(float64(time.Since(t0).Milliseconds()))
	if err := c.store.Set(ctx, Key(electionID), b); err != nil {
		return nil, err
	}
	logger.L().Info("geojson_cache_set", "election_id", electionID, "bytes", len(b), "duration_ms", time.Since(t0).Milliseconds())
	return b, nil
}
