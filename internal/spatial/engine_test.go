package spatial

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"demsausage-api/internal/filter"
	"demsausage-api/internal/geo"
	"demsausage-api/internal/models"
	"demsausage-api/internal/store/memstore"
)

type call struct {
	radius float64
	limit  int
}

type fakeStore struct {
	calls   []call
	results map[float64][]models.NearbyPlace
	err     error
}

func (f *fakeStore) FindWithin(ctx context.Context, base filter.Predicate, origin geo.Point, radiusKm float64, limit int) ([]models.NearbyPlace, error) {
	f.calls = append(f.calls, call{radiusKm, limit})
	if f.err != nil {
		return nil, f.err
	}
	return f.results[radiusKm], nil
}

func place(id int, d float64) models.NearbyPlace {
	return models.NearbyPlace{PollingPlace: models.PollingPlace{ID: id}, DistanceKm: &d}
}

func TestNearbyUsesNearTierWhenNonEmpty(t *testing.T) {
	fs := &fakeStore{results: map[float64][]models.NearbyPlace{50: {place(1, 2.5)}, 1000: {place(2, 300)}}}
	got, tier, err := NewEngine(fs).Nearby(context.Background(), filter.All(), geo.Point{})
	if err != nil {
		t.Fatal(err)
	}
	if tier != TierNear || len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("tier=%s got=%v", tier, got)
	}
	if len(fs.calls) != 1 || fs.calls[0] != (call{50, 15}) {
		t.Fatalf("calls = %v", fs.calls)
	}
}

func TestNearbyFallsBackToFarTier(t *testing.T) {
	fs := &fakeStore{results: map[float64][]models.NearbyPlace{1000: {place(2, 300)}}}
	got, tier, err := NewEngine(fs).Nearby(context.Background(), filter.All(), geo.Point{})
	if err != nil {
		t.Fatal(err)
	}
	if tier != TierFar || len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("tier=%s got=%v", tier, got)
	}
	if fmt.Sprint(fs.calls) != "[{50 15} {1000 15}]" {
		t.Fatalf("calls = %v", fs.calls)
	}
}

func TestNearbyBothEmpty(t *testing.T) {
	fs := &fakeStore{}
	got, tier, err := NewEngine(fs).Nearby(context.Background(), nil, geo.Point{})
	if err != nil || len(got) != 0 || tier != TierFar {
		t.Fatalf("got=%v tier=%s err=%v", got, tier, err)
	}
}

func TestNearbyPropagatesStoreError(t *testing.T) {
	boom := errors.New("db down")
	_, _, err := NewEngine(&fakeStore{err: boom}).Nearby(context.Background(), filter.All(), geo.Point{})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}

func TestNearbyAgainstMemstore(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	_, _ = s.PutElection(ctx, models.Election{ID: 1})
	var pps []models.PollingPlace
	// 20 个投票点排成一列，间隔约 1km，均在 50km 内
	for i := 0; i < 20; i++ {
		pps = append(pps, models.PollingPlace{ID: i + 1, Geom: geo.Point{Lon: 151.0 + float64(i)*0.01, Lat: -33.9}})
	}
	// 偏远投票点：约 600km 外
	pps = append(pps, models.PollingPlace{ID: 100, Geom: geo.Point{Lon: 145.0, Lat: -31.0}})
	if _, err := s.ReplacePollingPlaces(ctx, 1, pps); err != nil {
		t.Fatal(err)
	}
	e := NewEngine(s)

	got, tier, err := e.Nearby(ctx, filter.ElectionIs(1), geo.Point{Lon: 151.0, Lat: -33.9})
	if err != nil {
		t.Fatal(err)
	}
	if tier != TierNear || len(got) != Limit {
		t.Fatalf("tier=%s len=%d", tier, len(got))
	}
	for i, p := range got {
		if p.ID != i+1 {
			t.Fatalf("position %d has id %d", i, p.ID)
		}
	}

	got, tier, err = e.Nearby(ctx, filter.ElectionIs(1), geo.Point{Lon: 144.0, Lat: -31.5})
	if err != nil {
		t.Fatal(err)
	}
	if tier != TierFar || len(got) == 0 || got[0].ID != 100 {
		t.Fatalf("rural fallback: tier=%s got=%v", tier, got)
	}
	if got[0].DistanceKm == nil || *got[0].DistanceKm > FarRadiusKm {
		t.Fatalf("distance not exposed: %v", got[0].DistanceKm)
	}
}
