// 包 api：HTTP 路由与处理函数
package api

import (
	"context"
	"net/http"
	"time"

	"demsausage-api/internal/cache"
	"demsausage-api/internal/config"
	"demsausage-api/internal/geoip"
	"demsausage-api/internal/logger"
	"demsausage-api/internal/mail"
	"demsausage-api/internal/metrics"
	"demsausage-api/internal/middleware"
	"demsausage-api/internal/models"
	"demsausage-api/internal/search"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
)

// Datastore：HTTP 层用到的全部数据访问
type Datastore interface {
	search.Datastore
	ListElections(ctx context.Context, includeHidden bool) ([]models.Election, error)
	GetElection(ctx context.Context, id int) (models.Election, error)
	SetPrimary(ctx context.Context, id int) error
	GetPollingPlace(ctx context.Context, id int) (models.PollingPlace, error)
	CreateStall(ctx context.Context, st models.Stall) (models.Stall, error)
	GetStall(ctx context.Context, id int) (models.Stall, error)
	ListStalls(ctx context.Context, status models.StallStatus) ([]models.Stall, error)
	SetStallStatus(ctx context.Context, id int, status models.StallStatus) (models.Stall, error)
	StallByConfirmKey(ctx context.Context, key string) (models.Stall, error)
	mail.ConfirmStore
}

// Server：处理函数共享的依赖
type Server struct {
	cfg      *config.Config
	ds       Datastore
	search   *search.Service
	geojson  *cache.GeoJSON
	notifier *mail.Notifier
	geoip    *geoip.Resolver
	rc       *redis.Client
	now      func() time.Time
}

// Deps：NewServer 的输入；Redis 与 GeoIP 可为空
type Deps struct {
	Config     *config.Config
	Datastore  Datastore
	CacheStore cache.Store
	Sender     mail.Sender
	GeoIP      *geoip.Resolver
	Redis      *redis.Client
}

func NewServer(d Deps) *Server {
	svc := search.New(d.Datastore)
	s := &Server{
		cfg:     d.Config,
		ds:      d.Datastore,
		search:  svc,
		geojson: cache.NewGeoJSON(d.CacheStore, svc.BuildGeoJSON),
		geoip:   d.GeoIP,
		rc:      d.Redis,
		now:     time.Now,
	}
	s.notifier = &mail.Notifier{
		Sender:    d.Sender,
		Store:     d.Datastore,
		Confirmer: mail.Confirmer{HMACKey: d.Config.MailgunHMACKey, Secret: d.Config.MailgunConfirmSecret},
		OptOutURL: d.Config.APIBaseURL + d.Config.APIBase + "/mail/opt_out/",
	}
	if s.geoip == nil {
		s.geoip = geoip.New()
	}
	return s
}

// GeoJSON：供离线工具与审核流程复用同一缓存
func (s *Server) GeoJSON() *cache.GeoJSON { return s.geojson }

// Routes：全部路由挂在 API_BASE 下，/metrics 除外
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(logger.AccessMiddleware(logger.L()))
	r.Use(middleware.RateLimit(s.cfg.RateLimitEnabled, s.cfg.RateLimitQPS))
	r.Use(chimw.Timeout(60 * time.Second))

	r.Handle("/metrics", metrics.Handler())
	routes := func(r chi.Router) {
		r.Get("/polling_places/search/", instrument("search", s.handleSearch))
		r.Get("/polling_places/nearby/", instrument("nearby", s.handleNearby))
		r.Get("/polling_places/geojson/", instrument("geojson", s.handleGeoJSON))
		r.Get("/geolocate/", instrument("geolocate", s.handleGeolocate))
		r.Get("/elections/", instrument("elections", s.handleListElections))
		r.Post("/stalls/", instrument("stall_submit", s.handleSubmitStall))
		r.Get("/mail/opt_out/", instrument("mail_opt_out", s.handleOptOut))
		r.Post("/mail/mailgun_webhook/", instrument("mailgun_webhook", s.handleMailgunWebhook))

		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Post("/elections/{id}/set_primary/", instrument("set_primary", s.handleSetPrimary))
			r.Get("/stalls/pending/", instrument("stalls_pending", s.handlePendingStalls))
			r.Post("/stalls/{id}/approve/", instrument("stall_approve", s.handleApproveStall))
			r.Post("/stalls/{id}/decline/", instrument("stall_decline", s.handleDeclineStall))
		})
	}
	if s.cfg.APIBase == "" {
		r.Group(routes)
	} else {
		r.Route(s.cfg.APIBase, routes)
	}
	return r
}

// instrument：按端点计数与计时
func instrument(endpoint string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t0 := time.Now()
		metrics.RequestsTotal.WithLabelValues(endpoint).Inc()
		h(w, r)
		metrics.RequestDurationMs.WithLabelValues(endpoint).Observe(float64(time.Since(t0).Milliseconds()))
	}
}
