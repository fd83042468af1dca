package dto

// ── 餐厅模块 DTO ──

// CreateRestaurantRequest 创建餐厅请求
type CreateRestaurantRequest struct {
	Name         string `json:"name"          binding:"required,min=1,max=100"`
	Address      string `json:"address"       binding:"omitempty,max=200"`
	Phone        string `json:"phone"         binding:"omitempty,max=30"`
	Email        string `json:"email"         binding:"omitempty,email"`
	CoverPhoto   string `json:"cover_photo"   binding:"omitempty,url,max=500"`
	ProfilePhoto string `json:"profile_photo" binding:"omitempty,url,max=500"`
	OpeningTime  string `json:"opening_time"  binding:"required"`
	ClosingTime  string `json:"closing_time"  binding:"required"`
}

// UpdateRestaurantRequest 更新餐厅请求（管理性编辑，不回溯影响既有预订）
type UpdateRestaurantRequest struct {
	Name         *string `json:"name"          binding:"omitempty,min=1,max=100"`
	Address      *string `json:"address"       binding:"omitempty,max=200"`
	Phone        *string `json:"phone"         binding:"omitempty,max=30"`
	Email        *string `json:"email"         binding:"omitempty,email"`
	CoverPhoto   *string `json:"cover_photo"   binding:"omitempty,url,max=500"`
	ProfilePhoto *string `json:"profile_photo" binding:"omitempty,url,max=500"`
	OpeningTime  *string `json:"opening_time"`
	ClosingTime  *string `json:"closing_time"`
}

// RestaurantResponse 餐厅详情响应
type RestaurantResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Address      string `json:"address,omitempty"`
	OwnerUserID  string `json:"owner_user_id"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty"`
	CoverPhoto   string `json:"cover_photo,omitempty"`
	ProfilePhoto string `json:"profile_photo,omitempty"`
	OpeningTime  string `json:"opening_time"`
	ClosingTime  string `json:"closing_time"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}
