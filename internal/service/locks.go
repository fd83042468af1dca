package service

import "sync"

// restaurantLocks 按餐厅划分的互斥锁注册表
//
// 同一餐厅的写操作必须串行：提交前在临界区内重读当前容量再落库。
// 不同餐厅互不竞争，天然支持按餐厅 ID 水平分片；
// 跨进程部署时应替换为数据库层可串行化事务（见 ReservationService 注释）
type restaurantLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newRestaurantLocks() *restaurantLocks {
	return &restaurantLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock 获取指定餐厅的互斥锁并加锁，返回解锁函数
// 锁按需惰性创建，餐厅数量有限，不做回收
func (l *restaurantLocks) Lock(restaurantID string) func() {
	l.mu.Lock()
	m, ok := l.locks[restaurantID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[restaurantID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
