// 包 geojson：投票点 FeatureCollection 序列化
package geojson

import (
	"encoding/json"

	"demsausage-api/internal/geo"
	"demsausage-api/internal/models"
)

type geometry struct {
	Type        string    `json:"type"`
	Coordinates geo.Point `json:"coordinates"`
}

type properties struct {
	ID       int         `json:"id"`
	Name     string      `json:"name"`
	Premises string      `json:"premises"`
	Noms     models.Noms `json:"noms"`
}

type feature struct {
	Type       string     `json:"type"`
	Geometry   geometry   `json:"geometry"`
	Properties properties `json:"properties"`
}

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

// Marshal：空集合输出 "features": []
func Marshal(pps []models.PollingPlace) ([]byte, error) {
	fc := featureCollection{Type: "FeatureCollection", Features: make([]feature, 0, len(pps))}
	for _, pp := range pps {
		fc.Features = append(fc.Features, feature{
			Type:     "Feature",
			Geometry: geometry{Type: "Point", Coordinates: pp.Geom},
			Properties: properties{
				ID:       pp.ID,
				Name:     pp.Name,
				Premises: pp.Premises,
				Noms:     pp.Noms,
			},
		})
	}
	return json.Marshal(fc)
}
