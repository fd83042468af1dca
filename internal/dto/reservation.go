package dto

// ── 预订模块 DTO ──

// CreateReservationRequest 创建预订请求
// start_time 为 RFC3339 时间戳
type CreateReservationRequest struct {
	RestaurantID    string `json:"restaurant_id"    binding:"required,uuid"`
	PartySize       int    `json:"party_size"       binding:"required,min=1"`
	StartTime       string `json:"start_time"       binding:"required"`
	DurationMinutes int    `json:"duration_minutes" binding:"required,min=1"`
	SpecialRequests string `json:"special_requests" binding:"omitempty,max=500"`
}

// ModifyReservationRequest 修改预订请求
// 语义为同一临界区内的"取消重建"：释放的名额对本次重排可见，对并发请求不可见
type ModifyReservationRequest struct {
	PartySize       *int    `json:"party_size"       binding:"omitempty,min=1"`
	StartTime       *string `json:"start_time"`
	DurationMinutes *int    `json:"duration_minutes" binding:"omitempty,min=1"`
	SpecialRequests *string `json:"special_requests" binding:"omitempty,max=500"`
}

// ListRestaurantReservationsRequest 餐厅预订列表查询参数
// from/to 为 RFC3339 时间戳，缺省为当天
type ListRestaurantReservationsRequest struct {
	From string `form:"from"`
	To   string `form:"to"`
	PaginationRequest
}

// ── 响应 ──

// ReservationResponse 预订详情响应
type ReservationResponse struct {
	ID              string           `json:"id"`
	UserID          string           `json:"user_id"`
	User            *UserBrief       `json:"user,omitempty"`
	RestaurantID    string           `json:"restaurant_id"`
	Restaurant      *RestaurantBrief `json:"restaurant,omitempty"`
	TableID         string           `json:"table_id"`
	Table           *TableBrief      `json:"table,omitempty"`
	StartTime       string           `json:"start_time"`
	EndTime         string           `json:"end_time"`
	DurationMinutes int              `json:"duration_minutes"`
	PartySize       int              `json:"party_size"`
	SpecialRequests string           `json:"special_requests,omitempty"`
	Status          string           `json:"status"`
	CancelledAt     *string          `json:"cancelled_at,omitempty"`
	CreatedAt       string           `json:"created_at"`
	UpdatedAt       string           `json:"updated_at"`
}
