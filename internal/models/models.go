// 包 models：选举、投票点、摊位的共享数据结构
package models

import "demsausage-api/internal/geo"

// Election：选举；同一时刻至多一个 IsPrimary
type Election struct {
	ID                  int       `json:"id"`
	Name                string    `json:"name"`
	Geom                geo.Point `json:"geom"`
	IsHidden            bool      `json:"is_hidden"`
	IsPrimary           bool      `json:"is_primary"`
	PollingPlacesLoaded bool      `json:"polling_places_loaded"`
}

// PollingPlace：投票点，坐标固定为 SRID 4326
type PollingPlace struct {
	ID              int       `json:"id"`
	ElectionID      int       `json:"election_id"`
	Name            string    `json:"name"`
	Premises        string    `json:"premises"`
	Address         string    `json:"address"`
	State           string    `json:"state"`
	FacilityType    *string   `json:"facility_type"`
	ChanceOfSausage *int      `json:"chance_of_sausage"`
	Geom            geo.Point `json:"geom"`
	Noms            Noms      `json:"noms"`
}

// NearbyPlace：附近查询结果，DistanceKm 为空表示未按距离过滤
type NearbyPlace struct {
	PollingPlace
	DistanceKm *float64 `json:"distance_km"`
}
