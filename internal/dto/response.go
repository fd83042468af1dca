package dto

// ── 通用简要信息 ──

// UserBrief 用户简要信息（脱敏）
type UserBrief struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// RestaurantBrief 餐厅简要信息
type RestaurantBrief struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Address     string `json:"address,omitempty"`
	OpeningTime string `json:"opening_time"`
	ClosingTime string `json:"closing_time"`
}

// TableBrief 桌型简要信息
type TableBrief struct {
	ID          string `json:"id"`
	CapacityMin int    `json:"capacity_min"`
	CapacityMax int    `json:"capacity_max"`
	Quantity    int    `json:"quantity"`
}

// ── 分页请求 ──

// PaginationRequest 通用分页参数
type PaginationRequest struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// GetPage 获取页码（含默认值）
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize 获取每页数量（含默认值）
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 20
	}
	return p.PageSize
}

// GetOffset 计算偏移量
func (p *PaginationRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}
