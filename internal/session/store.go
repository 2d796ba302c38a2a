package session

import (
	"sync"
	"time"

	"tempmail/bot/internal/domain"
)

// Record 表示一个已生成邮箱的本地会话
//
// 会话在生成调用成功并同时返回邮箱地址与访问令牌时创建，
// 创建后不再修改，只会被整体覆盖或删除。
type Record struct {
	Email     string             // 邮箱地址，用户内唯一键
	Token     string             // 远程 API 签发的访问令牌
	Kind      domain.MailboxKind // 邮箱类型
	CreatedAt time.Time          // 本地创建时间
	ExpiresAt *time.Time         // 远端到期时间，仅 10min 类型且远端返回可解析时间时填充
}

// Expired 判断会话在给定时刻（含宽限期）是否已过期
//
// 只有记录了到期时间的十分钟邮箱才会过期，其余类型由容量上限约束。
func (r *Record) Expired(now time.Time, grace time.Duration) bool {
	if r.Kind != domain.KindTenMinute || r.ExpiresAt == nil {
		return false
	}
	return now.After(r.ExpiresAt.Add(grace))
}

// userSessions 保存单个用户的全部会话，保持插入顺序
type userSessions struct {
	byEmail map[string]*Record
	order   []string
}

// Store 使用内存保存用户会话
//
// 键为 Telegram 用户 ID。进程重启后数据丢失，这是刻意设计：
// 会话持久化不在系统目标内。为避免长期运行时无界增长，
// 每用户会话数受 maxPerUser 约束，超出时淘汰最旧的一条；
// 过期的十分钟邮箱由 PruneExpired 周期性移除。
type Store struct {
	mu         sync.RWMutex
	users      map[int64]*userSessions
	maxPerUser int
	grace      time.Duration
	now        func() time.Time // 可注入的时钟，便于测试
}

// NewStore 创建会话存储
//
// 参数:
//   - maxPerUser: 单个用户最多保留的会话数
//   - grace: 十分钟邮箱过期后的宽限期
func NewStore(maxPerUser int, grace time.Duration) *Store {
	return &Store{
		users:      make(map[int64]*userSessions),
		maxPerUser: maxPerUser,
		grace:      grace,
		now:        time.Now,
	}
}

// Put 写入或覆盖一条会话
//
// 邮箱已存在时原位覆盖并保持原有顺序；新增导致超出容量上限时
// 淘汰该用户最旧的一条会话。
func (s *Store) Put(userID int64, record *Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, ok := s.users[userID]
	if !ok {
		sessions = &userSessions{byEmail: make(map[string]*Record)}
		s.users[userID] = sessions
	}

	if _, exists := sessions.byEmail[record.Email]; exists {
		sessions.byEmail[record.Email] = record
		return
	}

	sessions.byEmail[record.Email] = record
	sessions.order = append(sessions.order, record.Email)

	if s.maxPerUser > 0 && len(sessions.order) > s.maxPerUser {
		oldest := sessions.order[0]
		sessions.order = sessions.order[1:]
		delete(sessions.byEmail, oldest)
	}
}

// Get 查询一条会话
func (s *Store) Get(userID int64, email string) (*Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions, ok := s.users[userID]
	if !ok {
		return nil, false
	}
	record, ok := sessions.byEmail[email]
	return record, ok
}

// ListForUser 按插入顺序返回用户的全部会话
//
// 用户没有会话时返回空切片。返回的切片是副本，但记录本身共享。
func (s *Store) ListForUser(userID int64) []*Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions, ok := s.users[userID]
	if !ok {
		return nil
	}

	records := make([]*Record, 0, len(sessions.order))
	for _, email := range sessions.order {
		records = append(records, sessions.byEmail[email])
	}
	return records
}

// Delete 删除一条会话，返回是否存在
func (s *Store) Delete(userID int64, email string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, ok := s.users[userID]
	if !ok {
		return false
	}
	if _, exists := sessions.byEmail[email]; !exists {
		return false
	}

	delete(sessions.byEmail, email)
	for i, e := range sessions.order {
		if e == email {
			sessions.order = append(sessions.order[:i], sessions.order[i+1:]...)
			break
		}
	}
	if len(sessions.order) == 0 {
		delete(s.users, userID)
	}
	return true
}

// Len 返回全部用户的会话总数
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, sessions := range s.users {
		total += len(sessions.order)
	}
	return total
}

// PruneExpired 移除所有已过期的十分钟邮箱会话，返回移除数量
func (s *Store) PruneExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0

	for userID, sessions := range s.users {
		kept := sessions.order[:0]
		for _, email := range sessions.order {
			record := sessions.byEmail[email]
			if record.Expired(now, s.grace) {
				delete(sessions.byEmail, email)
				removed++
				continue
			}
			kept = append(kept, email)
		}
		sessions.order = kept
		if len(sessions.order) == 0 {
			delete(s.users, userID)
		}
	}

	return removed
}
