package dto

// ── 桌型模块 DTO ──

// CreateTableRequest 创建桌型请求
type CreateTableRequest struct {
	CapacityMin int `json:"capacity_min" binding:"required,min=1"`
	CapacityMax int `json:"capacity_max" binding:"required,min=1"`
	Quantity    int `json:"quantity"     binding:"required,min=1"`
}

// UpdateTableRequest 更新桌型请求
type UpdateTableRequest struct {
	CapacityMin *int `json:"capacity_min" binding:"omitempty,min=1"`
	CapacityMax *int `json:"capacity_max" binding:"omitempty,min=1"`
	Quantity    *int `json:"quantity"     binding:"omitempty,min=1"`
}

// TableResponse 桌型详情响应
type TableResponse struct {
	ID           string `json:"id"`
	RestaurantID string `json:"restaurant_id"`
	CapacityMin  int    `json:"capacity_min"`
	CapacityMax  int    `json:"capacity_max"`
	Quantity     int    `json:"quantity"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}
