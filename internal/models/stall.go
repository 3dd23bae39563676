package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// StallStatus：审核状态
type StallStatus string

const (
	StallPending  StallStatus = "Pending"
	StallApproved StallStatus = "Approved"
	StallDeclined StallStatus = "Declined"
)

// LocationInfo：选举尚未加载投票点时由提交者填写的位置
type LocationInfo struct {
	Name    string  `json:"name"`
	Address string  `json:"address"`
	State   string  `json:"state"`
	Lon     float64 `json:"lon"`
	Lat     float64 `json:"lat"`
}

func (l *LocationInfo) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

func (l *LocationInfo) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	}
	return errors.New("location_info: unsupported scan type")
}

// Stall：社区提交的摊位
// 约束：PollingPlaceID 与 LocationInfo 至少一个非空
type Stall struct {
	ID             int           `json:"id"`
	ElectionID     int           `json:"election_id"`
	Name           string        `json:"name"`
	Description    string        `json:"description"`
	Website        string        `json:"website"`
	Email          string        `json:"email"`
	Noms           Noms          `json:"noms"`
	Status         StallStatus   `json:"status"`
	PollingPlaceID *int          `json:"polling_place_id"`
	LocationInfo   *LocationInfo `json:"location_info"`
	MailConfirmed  bool          `json:"-"`
	MailConfirmKey string        `json:"-"`
}
