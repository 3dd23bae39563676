// geojson-warm：重建一个或全部选举的 GeoJSON 缓存，用于批量导入后预热
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"demsausage-api/internal/cache"
	"demsausage-api/internal/config"
	"demsausage-api/internal/logger"
	"demsausage-api/internal/search"
	"demsausage-api/internal/store"
	"demsausage-api/internal/utils"

	"github.com/joho/godotenv"
)

func main() {
	envFile := flag.String("env", "", "额外加载的 .env 文件")
	electionID := flag.Int("election", 0, "选举 id；0 表示全部选举")
	flag.Parse()
	if *envFile != "" {
		_ = godotenv.Load(*envFile)
	}
	config.LoadDotEnv()
	l := logger.Setup()
	cfg := config.FromEnv()

	// 进程内缓存随进程退出，预热只对 Redis 有意义
	rc := utils.OpenRedis(cfg)
	if rc == nil {
		fmt.Println("REDIS_ENABLED is not true; nothing to warm")
		os.Exit(1)
	}
	defer rc.Close()
	db, err := utils.OpenPostgres(cfg)
	if err != nil {
		fmt.Println("db error:", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()
	st := store.AttachDB(db)
	svc := search.New(st)
	gj := cache.NewGeoJSON(cache.NewRedisStore(rc), svc.BuildGeoJSON)

	ids := []int{*electionID}
	if *electionID == 0 {
		es, err := st.ListElections(ctx, true)
		if err != nil {
			fmt.Println("list elections error:", err)
			os.Exit(1)
		}
		ids = ids[:0]
		for _, e := range es {
			ids = append(ids, e.ID)
		}
	}
	failed := 0
	for _, id := range ids {
		if err := gj.Regenerate(ctx, id); err != nil {
			l.Error("geojson_warm_error", "election_id", id, "err", err)
			failed++
			continue
		}
		fmt.Printf("election %d: cache regenerated\n", id)
	}
	if failed > 0 {
		os.Exit(1)
	}
}
