package model

// Restaurant 餐厅表 — 对应 restaurants
// 营业时间存储为当日时刻 "HH:MM"；跨午夜营业不在支持范围内
type Restaurant struct {
	RestaurantID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"restaurant_id"`
	Name         string `gorm:"type:varchar(100);not null"                     json:"name"`
	Address      string `gorm:"type:varchar(200)"                              json:"address,omitempty"`
	OwnerUserID  string `gorm:"type:uuid;not null"                             json:"owner_user_id"`
	Phone        string `gorm:"type:varchar(30)"                               json:"phone,omitempty"`
	Email        string `gorm:"type:varchar(255)"                              json:"email,omitempty"`
	CoverPhoto   string `gorm:"type:varchar(500)"                              json:"cover_photo,omitempty"`
	ProfilePhoto string `gorm:"type:varchar(500)"                              json:"profile_photo,omitempty"`
	OpeningTime  string `gorm:"type:time;not null"                             json:"opening_time"`
	ClosingTime  string `gorm:"type:time;not null"                             json:"closing_time"`
	VersionedModel

	// 关联
	Owner  *User   `gorm:"foreignKey:OwnerUserID;references:UserID" json:"owner,omitempty"`
	Tables []Table `gorm:"foreignKey:RestaurantID"                  json:"tables,omitempty"`
}

// TableName 指定表名
func (Restaurant) TableName() string { return "restaurants" }
