package filter

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"demsausage-api/internal/apperr"
	"demsausage-api/internal/geo"
)

// MaxParamLen：列表类参数解析前截断的字符数，属于安全上限而非语义上限
const MaxParamLen = 1000

const (
	ParamElectionID = "election_id"
	ParamIDs        = "ids"
	ParamSearchTerm = "search_term"
	ParamLonLat     = "lonlat"
)

// ErrNoSearchCriteria：ids 与 search_term 都未提供
var ErrNoSearchCriteria = errors.New("must supply ids or search_term")

// truncate：按字符而非字节截断
func truncate(s string) string {
	if len(s) <= MaxParamLen {
		return s
	}
	n := 0
	for i := range s {
		if n == MaxParamLen {
			return s[:i]
		}
		n++
	}
	return s
}

// ParseElectionID：election_id 必填且为整数
func ParseElectionID(v url.Values) (int, error) {
	raw := strings.TrimSpace(v.Get(ParamElectionID))
	if raw == "" {
		return 0, apperr.BadRequestf("%s: This field is required.", ParamElectionID)
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.BadRequestf("%s: Enter a number.", ParamElectionID)
	}
	return id, nil
}

// ParseIntegerList：逗号分隔整数；显式空值报错，任一项解析失败整体报错
func ParseIntegerList(raw string) ([]int, error) {
	if raw == "" {
		return nil, apperr.BadRequestf("Must supply at least one polling place to search for.")
	}
	parts := strings.Split(truncate(raw), ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, &apperr.BadRequest{Msg: fmt.Sprintf("invalid polling place id %q", p), Err: err}
		}
		out = append(out, n)
	}
	return out, nil
}

// ParseSearchTerms：逗号分隔；空值返回 nil（不做文本收窄）
func ParseSearchTerms(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

// ParseLonLat：恰好两个浮点数，经度在前
func ParseLonLat(raw string) (geo.Point, error) {
	parts := strings.Split(truncate(raw), ",")
	if len(parts) != 2 {
		return geo.Point{}, &apperr.BadRequest{Msg: "lonlat", Err: fmt.Errorf("expected 2 values (lon,lat), got %d", len(parts))}
	}
	var vals [2]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return geo.Point{}, &apperr.BadRequest{Msg: "lonlat", Err: err}
		}
		vals[i] = f
	}
	pt := geo.Point{Lon: vals[0], Lat: vals[1]}
	if !pt.Valid() {
		return geo.Point{}, apperr.BadRequestf("lonlat: coordinates out of range: %s", raw)
	}
	return pt, nil
}

// SearchQuery：/polling_places/search/ 的已解析参数
type SearchQuery struct {
	ElectionID  int
	IDs         []int
	HasIDs      bool
	SearchTerms []string
	HasTerms    bool
}

// ParseSearchQuery：校验组合规则后依次解析 election_id、ids、search_term
// 约束：ids 与 search_term 两个键都不存在时直接拒绝，而不是返回全部
func ParseSearchQuery(v url.Values) (SearchQuery, error) {
	var q SearchQuery
	if !v.Has(ParamIDs) && !v.Has(ParamSearchTerm) {
		return q, apperr.WrapBadRequest(ErrNoSearchCriteria)
	}
	id, err := ParseElectionID(v)
	if err != nil {
		return q, err
	}
	q.ElectionID = id
	if v.Has(ParamIDs) {
		ids, err := ParseIntegerList(v.Get(ParamIDs))
		if err != nil {
			return q, err
		}
		q.IDs, q.HasIDs = ids, true
	}
	if v.Has(ParamSearchTerm) {
		q.SearchTerms, q.HasTerms = ParseSearchTerms(v.Get(ParamSearchTerm)), true
	}
	return q, nil
}

// Predicate：选举 AND id 集合 AND 每个检索词（词内三列 OR）
func (q SearchQuery) Predicate() Predicate {
	ps := []Predicate{ElectionIs(q.ElectionID)}
	if q.HasIDs {
		ps = append(ps, IDIn(q.IDs))
	}
	for _, t := range q.SearchTerms {
		ps = append(ps, AnyTextField(t))
	}
	return And(ps...)
}

// NearbyQuery：/polling_places/nearby/ 的已解析参数；Origin 为空表示不按距离过滤
type NearbyQuery struct {
	ElectionID int
	Origin     *geo.Point
}

// ParseNearbyQuery：lonlat 缺失或为空时直通
func ParseNearbyQuery(v url.Values) (NearbyQuery, error) {
	var q NearbyQuery
	id, err := ParseElectionID(v)
	if err != nil {
		return q, err
	}
	q.ElectionID = id
	if raw := v.Get(ParamLonLat); raw != "" {
		pt, err := ParseLonLat(raw)
		if err != nil {
			return q, err
		}
		q.Origin = &pt
	}
	return q, nil
}

// Predicate：附近查询的基础集合（仅按选举过滤）
func (q NearbyQuery) Predicate() Predicate { return ElectionIs(q.ElectionID) }
