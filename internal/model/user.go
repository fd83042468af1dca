package model

// User 用户表 — 对应 users
// 用户记录由外部身份系统维护，本服务仅做存在性与归属校验
type User struct {
	UserID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name   string `gorm:"type:varchar(100);not null"                     json:"name"`
	Email  string `gorm:"type:varchar(255);not null"                     json:"email"`
	Phone  string `gorm:"type:varchar(30)"                               json:"phone,omitempty"`
	Role   string `gorm:"type:varchar(20);not null;default:'diner'"      json:"role"` // diner | owner
	BaseModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }
