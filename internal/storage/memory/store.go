package memory

import (
	"sort"
	"strings"
	"sync"
	"time"

	"mailfly/backend/internal/domain"
	"mailfly/backend/internal/storage"
)

// Store 使用内存保存邮箱与邮件数据，主要用于开发验证与测试。
//
// 所有多步操作都在同一把锁内完成，对外提供与 SQL 实现相同的
// 原子性观察结果（邮箱删除、邮件+统计写入、过期回收）。
type Store struct {
	mu         sync.RWMutex
	inboxes    map[string]*domain.Inbox // address -> inbox
	emails     map[string]*domain.Email // emailID -> email
	byInbox    map[string][]string      // address -> emailIDs（按接收顺序）
	stats      []domain.DeliveryStat
	users      map[string]*domain.User // userID -> user
	byUsername map[string]string       // username -> userID
	tokens     map[string]*domain.APIToken
	nextStatID uint
}

// NewStore 创建一个内存存储实例。
func NewStore() *Store {
	return &Store{
		inboxes:    make(map[string]*domain.Inbox),
		emails:     make(map[string]*domain.Email),
		byInbox:    make(map[string][]string),
		users:      make(map[string]*domain.User),
		byUsername: make(map[string]string),
		tokens:     make(map[string]*domain.APIToken),
	}
}

// ========== InboxRepository ==========

// CreateInbox 保存新邮箱，地址冲突返回 ErrInboxExists。
func (s *Store) CreateInbox(inbox *domain.Inbox) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.inboxes[inbox.Address]; ok {
		return storage.ErrInboxExists
	}
	clone := *inbox
	s.inboxes[inbox.Address] = &clone
	return nil
}

// GetInbox 根据地址获取邮箱，不做过期过滤。
func (s *Store) GetInbox(address string) (*domain.Inbox, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inbox, ok := s.inboxes[address]
	if !ok {
		return nil, storage.ErrInboxNotFound
	}
	clone := *inbox
	return &clone, nil
}

// GetActiveInbox 只返回未过期的邮箱，过期与不存在不可区分。
func (s *Store) GetActiveInbox(address string, now time.Time) (*domain.Inbox, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inbox, ok := s.inboxes[address]
	if !ok || inbox.Expired(now) {
		return nil, storage.ErrInboxNotFound
	}
	clone := *inbox
	return &clone, nil
}

// UpdateInboxExpiry 更新过期时间，后写覆盖先写。
func (s *Store) UpdateInboxExpiry(address string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inbox, ok := s.inboxes[address]
	if !ok {
		return storage.ErrInboxNotFound
	}
	inbox.ExpiresAt = expiresAt
	return nil
}

// UpdateInboxForward 更新转发地址，空值表示清除。
func (s *Store) UpdateInboxForward(address string, forwardTo string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inbox, ok := s.inboxes[address]
	if !ok {
		return storage.ErrInboxNotFound
	}
	inbox.ForwardTo = forwardTo
	return nil
}

// DeleteInbox 原子地删除邮箱与其全部邮件。
func (s *Store) DeleteInbox(address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deleteInboxLocked(address)
	return nil
}

func (s *Store) deleteInboxLocked(address string) (emails int64) {
	for _, id := range s.byInbox[address] {
		if _, ok := s.emails[id]; ok {
			delete(s.emails, id)
			emails++
		}
	}
	delete(s.byInbox, address)
	delete(s.inboxes, address)
	return emails
}

// ========== EmailRepository ==========

// SaveEmailWithStat 同时写入邮件与投递统计记录。
func (s *Store) SaveEmailWithStat(email *domain.Email, stat *domain.DeliveryStat) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cloneEmail := *email
	s.emails[email.ID] = &cloneEmail
	s.byInbox[email.InboxAddress] = append(s.byInbox[email.InboxAddress], email.ID)

	s.nextStatID++
	cloneStat := *stat
	cloneStat.ID = s.nextStatID
	s.stats = append(s.stats, cloneStat)
	return nil
}

// ListEmails 返回指定邮箱的邮件摘要，按接收时间倒序。
func (s *Store) ListEmails(address string) ([]domain.EmailSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byInbox[address]
	summaries := make([]domain.EmailSummary, 0, len(ids))
	for _, id := range ids {
		if email, ok := s.emails[id]; ok {
			summaries = append(summaries, email.Summary())
		}
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].ReceivedAt.After(summaries[j].ReceivedAt)
	})
	return summaries, nil
}

// GetEmail 根据 ID 获取邮件全文。
func (s *Store) GetEmail(id string) (*domain.Email, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email, ok := s.emails[id]
	if !ok {
		return nil, storage.ErrEmailNotFound
	}
	clone := *email
	return &clone, nil
}

// DeleteEmail 删除单封邮件。删除不存在的邮件不报错。
func (s *Store) DeleteEmail(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email, ok := s.emails[id]
	if !ok {
		return nil
	}
	delete(s.emails, id)

	ids := s.byInbox[email.InboxAddress]
	for i, candidate := range ids {
		if candidate == id {
			s.byInbox[email.InboxAddress] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

// ========== UserRepository ==========

// CreateUser 保存新用户，用户名区分大小写，冲突返回 ErrUsernameTaken。
func (s *Store) CreateUser(user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byUsername[user.Username]; ok {
		return storage.ErrUsernameTaken
	}
	clone := *user
	s.users[user.ID] = &clone
	s.byUsername[user.Username] = user.ID
	return nil
}

// GetUserByUsername 根据用户名获取用户。
func (s *Store) GetUserByUsername(username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUsername[username]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	clone := *s.users[id]
	return &clone, nil
}

// ========== TokenRepository ==========

// SaveAPIToken 保存管理面 API 令牌。
func (s *Store) SaveAPIToken(token *domain.APIToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *token
	s.tokens[token.Token] = &clone
	return nil
}

// GetAPIToken 根据令牌串获取令牌记录。
func (s *Store) GetAPIToken(token string) (*domain.APIToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.tokens[token]
	if !ok {
		return nil, storage.ErrTokenNotFound
	}
	clone := *record
	return &clone, nil
}

// ListAPITokens 返回全部令牌，按创建时间倒序。
func (s *Store) ListAPITokens() ([]domain.APIToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tokens := make([]domain.APIToken, 0, len(s.tokens))
	for _, record := range s.tokens {
		tokens = append(tokens, *record)
	}
	sort.Slice(tokens, func(i, j int) bool {
		return tokens[i].CreatedAt.After(tokens[j].CreatedAt)
	})
	return tokens, nil
}

// DeleteAPIToken 删除令牌。删除不存在的令牌不报错。
func (s *Store) DeleteAPIToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tokens, token)
	return nil
}

// ========== StatsRepository ==========

// CountInboxes 统计全部邮箱数（含已过期未回收的）。
func (s *Store) CountInboxes() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.inboxes)), nil
}

// CountActiveInboxes 统计未过期的邮箱数。
func (s *Store) CountActiveInboxes(now time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, inbox := range s.inboxes {
		if !inbox.Expired(now) {
			count++
		}
	}
	return count, nil
}

// CountStats 统计全部投递记录数。
func (s *Store) CountStats() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.stats)), nil
}

// CountStatsSince 统计指定时刻之后的投递记录数。
func (s *Store) CountStatsSince(since time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, stat := range s.stats {
		if stat.ReceivedAt.After(since) {
			count++
		}
	}
	return count, nil
}

// TopSenders 按投递记录聚合发件人计数，取前 limit 名。
func (s *Store) TopSenders(limit int) ([]domain.SenderCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int64)
	for _, stat := range s.stats {
		counts[stat.FromAddr]++
	}
	return topCounts(counts, limit), nil
}

// CountEmailsForInbox 统计单个邮箱当前存有的邮件数。
func (s *Store) CountEmailsForInbox(address string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, id := range s.byInbox[address] {
		if _, ok := s.emails[id]; ok {
			count++
		}
	}
	return count, nil
}

// TopSendersForInbox 按邮件表聚合单邮箱的发件人计数。
func (s *Store) TopSendersForInbox(address string, limit int) ([]domain.SenderCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int64)
	for _, id := range s.byInbox[address] {
		if email, ok := s.emails[id]; ok {
			counts[email.FromAddr]++
		}
	}
	return topCounts(counts, limit), nil
}

// EmailsByHour 按 UTC 小时桶聚合全部投递记录，跨所有天累加。
func (s *Store) EmailsByHour() ([]domain.HourCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var buckets [24]int64
	for _, stat := range s.stats {
		hour := int(stat.ReceivedAt.Unix()/3600) % 24
		buckets[hour]++
	}

	counts := make([]domain.HourCount, 0, 24)
	for hour, count := range buckets {
		if count > 0 {
			counts = append(counts, domain.HourCount{Hour: hour, Count: count})
		}
	}
	return counts, nil
}

// SweepExpired 回收全部过期邮箱及其邮件。
func (s *Store) SweepExpired(now time.Time) (int64, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []string
	for address, inbox := range s.inboxes {
		if inbox.Expired(now) {
			expired = append(expired, address)
		}
	}

	var emails int64
	for _, address := range expired {
		emails += s.deleteInboxLocked(address)
	}
	return emails, int64(len(expired)), nil
}

// DeleteStatsBefore 删除早于 cutoff 的投递记录。
func (s *Store) DeleteStatsBefore(cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.stats[:0]
	var removed int64
	for _, stat := range s.stats {
		if stat.ReceivedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, stat)
	}
	s.stats = kept
	return removed, nil
}

// Close 实现 Store 接口，内存实现无资源可释放。
func (s *Store) Close() error { return nil }

// Health 实现 Store 接口。
func (s *Store) Health() error { return nil }

func topCounts(counts map[string]int64, limit int) []domain.SenderCount {
	out := make([]domain.SenderCount, 0, len(counts))
	for addr, count := range counts {
		out = append(out, domain.SenderCount{FromAddr: addr, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return strings.Compare(out[i].FromAddr, out[j].FromAddr) < 0
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
