package model

import "time"

// 预订状态
const (
	ReservationStatusActive    = "active"
	ReservationStatusCancelled = "cancelled"
)

// Reservation 预订表 — 对应 reservations
// 取消的预订保留用于审计，但不参与容量占用统计
type Reservation struct {
	ReservationID   string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"reservation_id"`
	UserID          string     `gorm:"type:uuid;not null"                             json:"user_id"`
	RestaurantID    string     `gorm:"type:uuid;not null"                             json:"restaurant_id"`
	TableID         string     `gorm:"type:uuid;not null"                             json:"table_id"`
	StartTime       time.Time  `gorm:"not null"                                       json:"start_time"`
	DurationMinutes int        `gorm:"not null"                                       json:"duration_minutes"`
	PartySize       int        `gorm:"not null"                                       json:"party_size"`
	SpecialRequests string     `gorm:"type:varchar(500)"                              json:"special_requests,omitempty"`
	Status          string     `gorm:"type:varchar(20);not null;default:'active'"     json:"status"` // active | cancelled
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
	BaseModel
	Version int `gorm:"not null;default:1" json:"version"`

	// 关联
	User       *User       `gorm:"foreignKey:UserID;references:UserID"             json:"user,omitempty"`
	Restaurant *Restaurant `gorm:"foreignKey:RestaurantID;references:RestaurantID" json:"restaurant,omitempty"`
	Table      *Table      `gorm:"foreignKey:TableID;references:TableID"           json:"table,omitempty"`
}

// TableName 指定表名
func (Reservation) TableName() string { return "reservations" }

// EndTime 派生结束时刻 = start_time + duration_minutes
func (r *Reservation) EndTime() time.Time {
	return r.StartTime.Add(time.Duration(r.DurationMinutes) * time.Minute)
}

// Overlaps 半开区间重叠判定：[a,b) 与 [c,d) 重叠当且仅当 a < d && c < b
func (r *Reservation) Overlaps(windowStart, windowEnd time.Time) bool {
	return r.StartTime.Before(windowEnd) && windowStart.Before(r.EndTime())
}
