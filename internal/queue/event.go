package queue

// 预订生命周期事件的 routing key
const (
	RoutingKeyReservationCreated   = "reservation.created"
	RoutingKeyReservationCancelled = "reservation.cancelled"
	RoutingKeyReservationModified  = "reservation.modified"
)

// ReservationEvent 预订生命周期事件载荷
// 携带下游消费者（通知、统计等）所需的全部信息，避免反查主库；
// 通知投递本身由下游系统负责
type ReservationEvent struct {
	ReservationID  string `json:"reservation_id"`
	UserID         string `json:"user_id"`
	RestaurantID   string `json:"restaurant_id"`
	RestaurantName string `json:"restaurant_name,omitempty"`
	TableID        string `json:"table_id"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	PartySize      int    `json:"party_size"`
	Status         string `json:"status"`
	OccurredAt     string `json:"occurred_at"`
}
