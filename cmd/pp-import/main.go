// pp-import：从 CSV 整体替换某选举的投票点，随后重建其 GeoJSON 缓存
//
// CSV 需要表头，必填列 name,lon,lat；可选列 id,premises,address,state,facility_type,chance_of_sausage
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"demsausage-api/internal/cache"
	"demsausage-api/internal/config"
	"demsausage-api/internal/geo"
	"demsausage-api/internal/logger"
	"demsausage-api/internal/migrate"
	"demsausage-api/internal/models"
	"demsausage-api/internal/search"
	"demsausage-api/internal/store"
	"demsausage-api/internal/utils"

	"github.com/joho/godotenv"
)

var requiredCols = []string{"name", "lon", "lat"}

// parseCSV：按表头名取列，行号从 2 开始计（第 1 行为表头）
func parseCSV(r io.Reader) ([]models.PollingPlace, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := map[string]int{}
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range requiredCols {
		if _, ok := col[c]; !ok {
			return nil, fmt.Errorf("missing column %q", c)
		}
	}
	get := func(rec []string, name string) string {
		if i, ok := col[name]; ok && i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}
	var out []models.PollingPlace
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		pp := models.PollingPlace{
			Name:     get(rec, "name"),
			Premises: get(rec, "premises"),
			Address:  get(rec, "address"),
			State:    get(rec, "state"),
		}
		if pp.Name == "" {
			return nil, fmt.Errorf("line %d: empty name", line)
		}
		lon, err1 := strconv.ParseFloat(get(rec, "lon"), 64)
		lat, err2 := strconv.ParseFloat(get(rec, "lat"), 64)
		pp.Geom = geo.Point{Lon: lon, Lat: lat}
		if err1 != nil || err2 != nil || !pp.Geom.Valid() {
			return nil, fmt.Errorf("line %d: bad coordinates %q,%q", line, get(rec, "lon"), get(rec, "lat"))
		}
		if s := get(rec, "id"); s != "" {
			if pp.ID, err = strconv.Atoi(s); err != nil {
				return nil, fmt.Errorf("line %d: bad id: %w", line, err)
			}
		}
		if s := get(rec, "facility_type"); s != "" {
			pp.FacilityType = &s
		}
		if s := get(rec, "chance_of_sausage"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 || n > 3 {
				return nil, fmt.Errorf("line %d: chance_of_sausage must be 0-3", line)
			}
			pp.ChanceOfSausage = &n
		}
		out = append(out, pp)
	}
	return out, nil
}

func main() {
	envFile := flag.String("env", "", "额外加载的 .env 文件")
	electionID := flag.Int("election", 0, "选举 id（必填）")
	file := flag.String("file", "", "CSV 文件路径（必填）")
	flag.Parse()
	if *electionID <= 0 || *file == "" {
		flag.Usage()
		os.Exit(2)
	}
	if *envFile != "" {
		_ = godotenv.Load(*envFile)
	}
	config.LoadDotEnv()
	l := logger.Setup()
	cfg := config.FromEnv()

	f, err := os.Open(*file)
	if err != nil {
		fmt.Println("open error:", err)
		os.Exit(1)
	}
	pps, err := parseCSV(f)
	f.Close()
	if err != nil {
		fmt.Println("csv error:", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(cfg)
	if err != nil {
		fmt.Println("db error:", err)
		os.Exit(1)
	}
	defer db.Close()
	ctx := context.Background()
	if err := migrate.EnsureSchema(ctx, db); err != nil {
		fmt.Println("schema error:", err)
		os.Exit(1)
	}
	st := store.AttachDB(db)
	loaded, err := st.ReplacePollingPlaces(ctx, *electionID, pps)
	if err != nil {
		fmt.Println("import error:", err)
		os.Exit(1)
	}
	fmt.Printf("election %d: %d polling places loaded\n", *electionID, len(loaded))

	if rc := utils.OpenRedis(cfg); rc != nil {
		defer rc.Close()
		gj := cache.NewGeoJSON(cache.NewRedisStore(rc), search.New(st).BuildGeoJSON)
		if err := gj.Regenerate(ctx, *electionID); err != nil {
			l.Error("geojson_regenerate_error", "election_id", *electionID, "err", err)
			os.Exit(1)
		}
		fmt.Println("geojson cache regenerated")
	}
}
