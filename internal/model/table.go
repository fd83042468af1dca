package model

// Table 桌型表 — 对应 tables
// 一行代表一个桌型：capacity_min ~ capacity_max 为可落座人数区间，
// quantity 为该规格完全相同的物理桌数
type Table struct {
	TableID      string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"table_id"`
	RestaurantID string `gorm:"type:uuid;not null"                             json:"restaurant_id"`
	CapacityMin  int    `gorm:"type:smallint;not null"                         json:"capacity_min"`
	CapacityMax  int    `gorm:"type:smallint;not null"                         json:"capacity_max"`
	Quantity     int    `gorm:"type:smallint;not null"                         json:"quantity"`
	VersionedModel

	// 关联
	Restaurant *Restaurant `gorm:"foreignKey:RestaurantID;references:RestaurantID" json:"restaurant,omitempty"`
}

// TableName 指定表名
func (Table) TableName() string { return "tables" }

// Seats 判断桌型是否可容纳指定人数
func (t *Table) Seats(partySize int) bool {
	return partySize >= t.CapacityMin && partySize <= t.CapacityMax
}
