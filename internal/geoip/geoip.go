// 包 geoip：访客 IP 的近似定位（GeoLite2 City），用于地图初始中心
package geoip

import (
	"net"
	"sync/atomic"

	"demsausage-api/internal/logger"

	"github.com/oschwald/geoip2-golang"
)

// Location：城市级近似位置
type Location struct {
	Lon  float64 `json:"lon"`
	Lat  float64 `json:"lat"`
	City string  `json:"city"`
}

type cityLookup interface {
	City(ip net.IP) (*geoip2.City, error)
}

type holder struct{ r cityLookup }

// Resolver：通过 atomic.Pointer 热替换底层数据库，读路径无锁
// 约束：未加载数据库时所有查询未命中
type Resolver struct {
	v atomic.Pointer[holder]
}

func New() *Resolver { return &Resolver{} }

// Open：打开 mmdb 文件并替换当前数据库；旧库不主动关闭，交由 GC
func (r *Resolver) Open(path string) error {
	db, err := geoip2.Open(path)
	if err != nil {
		return err
	}
	r.set(db)
	logger.L().Info("geoip_loaded", "path", path, "build_epoch", db.Metadata().BuildEpoch)
	return nil
}

func (r *Resolver) set(c cityLookup) { r.v.Store(&holder{r: c}) }

// Locate：非法 IP、未加载或无坐标时返回 false
func (r *Resolver) Locate(ip string) (Location, bool) {
	h := r.v.Load()
	if h == nil {
		return Location{}, false
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return Location{}, false
	}
	rec, err := h.r.City(parsed)
	if err != nil {
		logger.L().Debug("geoip_lookup_error", "ip", ip, "err", err)
		return Location{}, false
	}
	if rec.Location.Latitude == 0 && rec.Location.Longitude == 0 {
		return Location{}, false
	}
	return Location{Lon: rec.Location.Longitude, Lat: rec.Location.Latitude, City: rec.City.Names["en"]}, true
}
