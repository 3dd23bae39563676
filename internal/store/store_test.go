package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"testing"

	"demsausage-api/internal/apperr"
	"demsausage-api/internal/filter"
	"demsausage-api/internal/geo"
	"demsausage-api/internal/migrate"
	"demsausage-api/internal/models"
)

// openTestStore：需要 TEST_DATABASE_URL 指向带 PostGIS 的空库，表会被清空
func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	ctx := context.Background()
	if err := migrate.EnsureSchema(ctx, db); err != nil {
		t.Fatal(err)
	}
	if _, err := db.ExecContext(ctx, `TRUNCATE stalls, polling_places, elections RESTART IDENTITY CASCADE`); err != nil {
		t.Fatal(err)
	}
	return AttachDB(db)
}

func seedPlaces(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	if _, err := s.PutElection(ctx, models.Election{ID: 1, Name: "NSW 2023", Geom: geo.Point{Lon: 147, Lat: -32}}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.PutElection(ctx, models.Election{ID: 2, Name: "Hidden", IsHidden: true}); err != nil {
		t.Fatal(err)
	}
	_, err := s.ReplacePollingPlaces(ctx, 1, []models.PollingPlace{
		{ID: 10, Name: "Newtown PS", Premises: "School Hall", Address: "King St", Geom: geo.Point{Lon: 151.1795, Lat: -33.8968}},
		{ID: 11, Name: "Glebe TH", Premises: "100% Hall", Address: "St Johns Rd", Geom: geo.Point{Lon: 151.1860, Lat: -33.8790}},
		{ID: 12, Name: "Parramatta PS", Address: "Church St", Geom: geo.Point{Lon: 151.0036, Lat: -33.8150}},
		{ID: 14, Name: "Glebe TH annex", Geom: geo.Point{Lon: 151.1860, Lat: -33.8790}},
		{ID: 15, Name: "Broken Hill", Geom: geo.Point{Lon: 141.4670, Lat: -31.9530}},
	})
	if err != nil {
		t.Fatal(err)
	}
}

func placeIDs(pps []models.PollingPlace) string {
	out := make([]int, len(pps))
	for i, p := range pps {
		out[i] = p.ID
	}
	return fmt.Sprint(out)
}

func TestFindPollingPlacesSQL(t *testing.T) {
	s := openTestStore(t)
	seedPlaces(t, s)
	ctx := context.Background()
	cases := []struct {
		p    filter.Predicate
		want string
	}{
		{filter.ElectionIs(1), "[10 11 12 14 15]"},
		{filter.And(filter.ElectionIs(1), filter.IDIn([]int{15, 11})), "[11 15]"},
		{filter.And(filter.ElectionIs(1), filter.AnyTextField("glebe")), "[11 14]"},
		{filter.And(filter.ElectionIs(1), filter.AnyTextField("church")), "[12]"},
		// LIKE 通配符按字面匹配
		{filter.And(filter.ElectionIs(1), filter.AnyTextField("100%")), "[11]"},
		{filter.And(filter.ElectionIs(1), filter.AnyTextField("%")), "[11]"},
		{filter.ElectionIs(2), "[]"},
	}
	for i, tc := range cases {
		got, err := s.FindPollingPlaces(ctx, tc.p)
		if err != nil {
			t.Fatalf("case %d: %v", i, err)
		}
		if placeIDs(got) != tc.want {
			t.Fatalf("case %d: got %s want %s", i, placeIDs(got), tc.want)
		}
	}
}

func TestFindWithinSQL(t *testing.T) {
	s := openTestStore(t)
	seedPlaces(t, s)
	ctx := context.Background()
	origin := geo.Point{Lon: 151.1860, Lat: -33.8790}
	got, err := s.FindWithin(ctx, filter.ElectionIs(1), origin, 50, 15)
	if err != nil {
		t.Fatal(err)
	}
	ids := make([]int, len(got))
	for i, p := range got {
		ids[i] = p.ID
	}
	if fmt.Sprint(ids) != "[11 14 10 12]" {
		t.Fatalf("order = %v", ids)
	}
	if *got[0].DistanceKm != 0 || *got[2].DistanceKm > 3 {
		t.Fatalf("distances %v %v", *got[0].DistanceKm, *got[2].DistanceKm)
	}
	limited, err := s.FindWithin(ctx, filter.ElectionIs(1), origin, 1000, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 {
		t.Fatalf("limit ignored: %d", len(limited))
	}
}

func TestSetPrimarySQLConcurrent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		if _, err := s.PutElection(ctx, models.Election{ID: i, Name: fmt.Sprintf("e%d", i)}); err != nil {
			t.Fatal(err)
		}
	}
	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			errs <- s.SetPrimary(ctx, id)
		}(i%5 + 1)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatal(err)
		}
	}
	var n int
	if err := s.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM elections WHERE is_primary`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("primary count = %d", n)
	}
	if err := s.SetPrimary(ctx, 99); !apperr.IsNotFound(err) {
		t.Fatalf("missing election err = %v", err)
	}
}

func TestStallLifecycleSQL(t *testing.T) {
	s := openTestStore(t)
	seedPlaces(t, s)
	ctx := context.Background()
	ppID := 11
	st, err := s.CreateStall(ctx, models.Stall{
		ElectionID: 1, Name: "P&C sizzle", Email: "pc@example.com",
		Noms: models.Noms{"bbq": true}, PollingPlaceID: &ppID,
	})
	if err != nil {
		t.Fatal(err)
	}
	other, err := s.CreateStall(ctx, models.Stall{
		ElectionID: 1, Name: "Scouts", Email: "scouts@example.com",
		LocationInfo: &models.LocationInfo{Name: "Scout Hall", Address: "1 Main St", State: "NSW", Lon: 151, Lat: -33},
	})
	if err != nil {
		t.Fatal(err)
	}
	pending, err := s.ListStalls(ctx, models.StallPending)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 2 || pending[0].ID != other.ID || pending[1].LocationInfo != nil || pending[0].LocationInfo.Name != "Scout Hall" {
		t.Fatalf("pending = %+v", pending)
	}
	if _, err := s.SetStallStatus(ctx, st.ID, models.StallApproved); err != nil {
		t.Fatal(err)
	}
	pp, err := s.GetPollingPlace(ctx, ppID)
	if err != nil {
		t.Fatal(err)
	}
	if !pp.Noms.Flag("bbq") {
		t.Fatalf("noms not copied: %v", pp.Noms)
	}
	if err := s.SetMailConfirmation(ctx, st.ID, true, "k1"); err != nil {
		t.Fatal(err)
	}
	if ok, _ := s.HasConfirmedMail(ctx, "pc@example.com"); !ok {
		t.Fatal("expected confirmed")
	}
	got, err := s.StallByConfirmKey(ctx, "k1")
	if err != nil || got.ID != st.ID {
		t.Fatalf("by key = %+v, %v", got, err)
	}
	if _, err := s.StallByConfirmKey(ctx, ""); !apperr.IsNotFound(err) {
		t.Fatalf("empty key err = %v", err)
	}
	if _, err := s.SetStallStatus(ctx, 999, models.StallDeclined); !apperr.IsNotFound(err) {
		t.Fatalf("missing stall err = %v", err)
	}
}
