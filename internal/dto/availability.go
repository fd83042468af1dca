package dto

// ── 可用性模块 DTO ──

// AvailabilityRequest 可用性查询参数
// window_start / window_end 为 RFC3339 时间戳，半开区间 [start, end)
type AvailabilityRequest struct {
	PartySize   int    `form:"party_size"   binding:"required,min=1"`
	WindowStart string `form:"window_start" binding:"required"`
	WindowEnd   string `form:"window_end"   binding:"required"`
}

// TableAvailability 单个桌型在查询窗口内的剩余容量
type TableAvailability struct {
	TableID     string `json:"table_id"`
	CapacityMin int    `json:"capacity_min"`
	CapacityMax int    `json:"capacity_max"`
	Quantity    int    `json:"quantity"`
	FreeCount   int    `json:"free_count"`
}

// AvailabilityResponse 可用性查询响应
// 候选桌型按最小适配排序：capacity_max 升序，桌型 ID 升序打破平局
type AvailabilityResponse struct {
	RestaurantID string              `json:"restaurant_id"`
	WindowStart  string              `json:"window_start"`
	WindowEnd    string              `json:"window_end"`
	PartySize    int                 `json:"party_size"`
	Tables       []TableAvailability `json:"tables"`
}
