package geojson

import (
	"encoding/json"
	"testing"

	"demsausage-api/internal/geo"
	"demsausage-api/internal/models"
)

func TestMarshal(t *testing.T) {
	b, err := Marshal([]models.PollingPlace{
		{ID: 3, Name: "Newtown PS", Premises: "Hall", Geom: geo.Point{Lon: 151.18, Lat: -33.9}, Noms: models.Noms{"bbq": true}},
		{ID: 4, Name: "Glebe TH", Geom: geo.Point{Lon: 151.19, Lat: -33.88}},
	})
	if err != nil {
		t.Fatal(err)
	}
	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Type     string `json:"type"`
			Geometry struct {
				Type        string    `json:"type"`
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	if err := json.Unmarshal(b, &fc); err != nil {
		t.Fatal(err)
	}
	if fc.Type != "FeatureCollection" || len(fc.Features) != 2 {
		t.Fatalf("unexpected %s", b)
	}
	f := fc.Features[0]
	if f.Type != "Feature" || f.Geometry.Type != "Point" || f.Geometry.Coordinates[0] != 151.18 || f.Geometry.Coordinates[1] != -33.9 {
		t.Fatalf("feature = %+v", f)
	}
	if f.Properties["id"] != float64(3) || f.Properties["noms"].(map[string]any)["bbq"] != true {
		t.Fatalf("properties = %v", f.Properties)
	}
	if v, ok := fc.Features[1].Properties["noms"]; !ok || v != nil {
		t.Fatalf("missing noms should be null: %v", fc.Features[1].Properties)
	}
}

func TestMarshalEmpty(t *testing.T) {
	b, err := Marshal(nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"type":"FeatureCollection","features":[]}` {
		t.Fatalf("got %s", b)
	}
}
