// 包 geo：WGS84 点、球面距离与半径包围盒
package geo

import (
	"encoding/json"
	"errors"
	"math"
)

// SRID：全部坐标使用的参考系
const SRID = 4326

const earthRadiusKm = 6371.0

// Point：经纬度点，JSON 编码为 GeoJSON 顺序 [lon, lat]
type Point struct {
	Lon float64
	Lat float64
}

// Valid：有限值且在经纬度范围内
func (p Point) Valid() bool {
	if math.IsNaN(p.Lon) || math.IsNaN(p.Lat) || math.IsInf(p.Lon, 0) || math.IsInf(p.Lat, 0) {
		return false
	}
	return p.Lon >= -180 && p.Lon <= 180 && p.Lat >= -90 && p.Lat <= 90
}

func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.Lon, p.Lat})
}

func (p *Point) UnmarshalJSON(b []byte) error {
	var c []float64
	if err := json.Unmarshal(b, &c); err != nil {
		return err
	}
	if len(c) != 2 {
		return errors.New("geo: point needs [lon, lat]")
	}
	p.Lon, p.Lat = c[0], c[1]
	return nil
}

// DistanceKm：Haversine 球面距离（千米）
func DistanceKm(a, b Point) float64 {
	dLat := rad(b.Lat - a.Lat)
	dLon := rad(b.Lon - a.Lon)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(rad(a.Lat))*math.Cos(rad(b.Lat))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func rad(d float64) float64 { return d * math.Pi / 180 }

// BBox：minLon, minLat, maxLon, maxLat
type BBox [4]float64

// Around：覆盖以 p 为中心、半径 km 的圆的包围盒，只用于候选过滤
// 约束：接近极点或跨越 ±180° 时退化为整条经度带
func Around(p Point, km float64) BBox {
	dLat := km / earthRadiusKm * 180 / math.Pi
	minLat := math.Max(-90, p.Lat-dLat)
	maxLat := math.Min(90, p.Lat+dLat)
	cos := math.Cos(rad(math.Max(math.Abs(minLat), math.Abs(maxLat))))
	if cos < 1e-9 {
		return BBox{-180, minLat, 180, maxLat}
	}
	dLon := dLat / cos
	if dLon >= 180 || p.Lon-dLon < -180 || p.Lon+dLon > 180 {
		return BBox{-180, minLat, 180, maxLat}
	}
	return BBox{p.Lon - dLon, minLat, p.Lon + dLon, maxLat}
}

// Contains：点是否在包围盒内
func (b BBox) Contains(p Point) bool {
	return p.Lon >= b[0] && p.Lon <= b[2] && p.Lat >= b[1] && p.Lat <= b[3]
}
