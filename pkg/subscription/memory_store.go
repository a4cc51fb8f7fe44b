package subscription

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"estatelink_backend/internal/model"
)

var errOneActive = errors.New("duplicate key value violates unique constraint \"idx_subscribed_plans_one_active\"")

// MemoryStore is an in-process Store used by tests and local tooling.
// Transactions work on a copy of the state that is swapped in on success.
// Injected faults are shared across copies so a rolled back call still consumes them.
type MemoryStore struct {
	mu    *sync.Mutex
	state *memState
	inTx  bool
}

type memState struct {
	users  map[uint]model.User
	plans  map[uint]model.SubscriptionPlan
	subs   map[uint]model.SubscribedPlan
	nextID uint
	faults map[string]error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		mu: &sync.Mutex{},
		state: &memState{
			users:  map[uint]model.User{},
			plans:  map[uint]model.SubscriptionPlan{},
			subs:   map[uint]model.SubscribedPlan{},
			faults: map[string]error{},
		},
	}
}

func (st *memState) clone() *memState {
	c := &memState{
		users:  make(map[uint]model.User, len(st.users)),
		plans:  make(map[uint]model.SubscriptionPlan, len(st.plans)),
		subs:   make(map[uint]model.SubscribedPlan, len(st.subs)),
		nextID: st.nextID,
		faults: st.faults,
	}
	for k, v := range st.users {
		c.users[k] = v
	}
	for k, v := range st.plans {
		c.plans[k] = v
	}
	for k, v := range st.subs {
		c.subs[k] = v
	}
	return c
}

func (st *memState) id() uint {
	st.nextID++
	return st.nextID
}

func (st *memState) fault(op string) error {
	if err, ok := st.faults[op]; ok {
		delete(st.faults, op)
		return err
	}
	return nil
}

func (s *MemoryStore) guard() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// FailNext makes the next call of the named Store method return err.
func (s *MemoryStore) FailNext(method string, err error) {
	defer s.guard()()
	s.state.faults[method] = err
}

func (s *MemoryStore) AddUser(u model.User) model.User {
	defer s.guard()()
	if u.ID == 0 {
		u.ID = s.state.id()
	}
	s.state.users[u.ID] = u
	return u
}

func (s *MemoryStore) AddPlan(p model.SubscriptionPlan) model.SubscriptionPlan {
	defer s.guard()()
	if p.ID == 0 {
		p.ID = s.state.id()
	}
	s.state.plans[p.ID] = p
	return p
}

func (s *MemoryStore) AddSubscription(sub model.SubscribedPlan) model.SubscribedPlan {
	defer s.guard()()
	if sub.ID == 0 {
		sub.ID = s.state.id()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = sub.StartDate
	}
	s.state.subs[sub.ID] = sub
	return sub
}

func (s *MemoryStore) User(id uint) (model.User, bool) {
	defer s.guard()()
	u, ok := s.state.users[id]
	return u, ok
}

func (s *MemoryStore) Subscription(id uint) (model.SubscribedPlan, bool) {
	defer s.guard()()
	sub, ok := s.state.subs[id]
	return sub, ok
}

// Subscriptions returns a user's instances in creation order.
func (s *MemoryStore) Subscriptions(userID uint) []model.SubscribedPlan {
	defer s.guard()()
	return s.state.subsOf(userID, func(model.SubscribedPlan) bool { return true })
}

func (st *memState) subsOf(userID uint, keep func(model.SubscribedPlan) bool) []model.SubscribedPlan {
	var out []model.SubscribedPlan
	for _, sub := range st.subs {
		if sub.UserID == userID && keep(sub) {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *MemoryStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(&MemoryStore{mu: s.mu, state: work, inTx: true}); err != nil {
		return err
	}
	s.state = work
	return nil
}

func (s *MemoryStore) LockUser(ctx context.Context, userID uint) error {
	defer s.guard()()
	return s.state.fault("LockUser")
}

func (s *MemoryStore) FindUser(ctx context.Context, id uint) (*model.User, error) {
	defer s.guard()()
	if err := s.state.fault("FindUser"); err != nil {
		return nil, err
	}
	u, ok := s.state.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (s *MemoryStore) SetUsersVerified(ctx context.Context, userIDs []uint, verified bool) error {
	defer s.guard()()
	if err := s.state.fault("SetUsersVerified"); err != nil {
		return err
	}
	for _, id := range userIDs {
		if u, ok := s.state.users[id]; ok {
			u.IsVerified = verified
			s.state.users[id] = u
		}
	}
	return nil
}

func (s *MemoryStore) FindPlan(ctx context.Context, id uint) (*model.SubscriptionPlan, error) {
	defer s.guard()()
	p, ok := s.state.plans[id]
	if !ok {
		return nil, ErrPlanNotFound
	}
	return &p, nil
}

func (s *MemoryStore) FindFreePlan(ctx context.Context) (*model.SubscriptionPlan, error) {
	defer s.guard()()
	var found *model.SubscriptionPlan
	for _, p := range s.state.plans {
		p := p
		if p.IsActive && p.IsFree() && (found == nil || p.ID < found.ID) {
			found = &p
		}
	}
	if found == nil {
		return nil, ErrPlanNotFound
	}
	return found, nil
}

func (s *MemoryStore) FindSubscription(ctx context.Context, id uint) (*model.SubscribedPlan, error) {
	defer s.guard()()
	sub, ok := s.state.subs[id]
	if !ok {
		return nil, ErrSubscriptionNotFound
	}
	return &sub, nil
}

func (s *MemoryStore) ListOpenSubscriptions(ctx context.Context, userID uint) ([]model.SubscribedPlan, error) {
	defer s.guard()()
	if err := s.state.fault("ListOpenSubscriptions"); err != nil {
		return nil, err
	}
	subs := s.state.subsOf(userID, func(sub model.SubscribedPlan) bool {
		return sub.Status == model.SubscriptionPending || sub.Status == model.SubscriptionActive
	})
	for i := range subs {
		if p, ok := s.state.plans[subs[i].PlanID]; ok {
			p := p
			subs[i].Plan = &p
		}
	}
	return subs, nil
}

func (s *MemoryStore) FindQuotaSource(ctx context.Context, userID uint, now time.Time) (*model.SubscribedPlan, error) {
	defer s.guard()()
	subs := s.state.subsOf(userID, func(sub model.SubscribedPlan) bool {
		return sub.IsActive && sub.Status == model.SubscriptionActive && sub.CoversDate(now)
	})
	return latest(subs), nil
}

func (s *MemoryStore) FindCurrentSubscription(ctx context.Context, userID uint, now time.Time) (*model.SubscribedPlan, error) {
	defer s.guard()()
	subs := s.state.subsOf(userID, func(sub model.SubscribedPlan) bool {
		return sub.Status == model.SubscriptionActive && sub.CoversDate(now)
	})
	for i := len(subs) - 1; i >= 0; i-- {
		if subs[i].IsActive {
			sub := subs[i]
			return &sub, nil
		}
	}
	return latest(subs), nil
}

func latest(subs []model.SubscribedPlan) *model.SubscribedPlan {
	if len(subs) == 0 {
		return nil
	}
	sub := subs[len(subs)-1]
	return &sub
}

func (st *memState) checkOneActive(sub *model.SubscribedPlan) error {
	if !sub.IsActive {
		return nil
	}
	for _, other := range st.subs {
		if other.ID != sub.ID && other.UserID == sub.UserID && other.IsActive {
			return errOneActive
		}
	}
	return nil
}

func (s *MemoryStore) CreateSubscription(ctx context.Context, sub *model.SubscribedPlan) error {
	defer s.guard()()
	if err := s.state.fault("CreateSubscription"); err != nil {
		return err
	}
	if err := s.state.checkOneActive(sub); err != nil {
		return err
	}
	sub.ID = s.state.id()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = sub.StartDate
	}
	stored := *sub
	stored.User, stored.Plan = nil, nil
	s.state.subs[sub.ID] = stored
	return nil
}

func (s *MemoryStore) SaveSubscription(ctx context.Context, sub *model.SubscribedPlan) error {
	defer s.guard()()
	if err := s.state.fault("SaveSubscription"); err != nil {
		return err
	}
	if _, ok := s.state.subs[sub.ID]; !ok {
		return fmt.Errorf("save subscribed plan %d: %w", sub.ID, ErrSubscriptionNotFound)
	}
	if err := s.state.checkOneActive(sub); err != nil {
		return err
	}
	stored := *sub
	stored.User, stored.Plan = nil, nil
	s.state.subs[sub.ID] = stored
	return nil
}

func (s *MemoryStore) SupersedeSubscriptions(ctx context.Context, userID, keepID uint) (int64, error) {
	defer s.guard()()
	var n int64
	for id, sub := range s.state.subs {
		if sub.UserID != userID || id == keepID {
			continue
		}
		if sub.Status == model.SubscriptionActive || sub.IsActive {
			sub.IsActive = false
			sub.Status = model.SubscriptionInactive
			s.state.subs[id] = sub
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) DeleteSubscription(ctx context.Context, id uint) error {
	defer s.guard()()
	if _, ok := s.state.subs[id]; !ok {
		return ErrSubscriptionNotFound
	}
	delete(s.state.subs, id)
	return nil
}

func (s *MemoryStore) ListLapsed(ctx context.Context, now time.Time) ([]model.SubscribedPlan, error) {
	defer s.guard()()
	if err := s.state.fault("ListLapsed"); err != nil {
		return nil, err
	}
	var out []model.SubscribedPlan
	for _, sub := range s.state.subs {
		if sub.EndDate.Before(now) && sub.Status == model.SubscriptionActive {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) MarkExpired(ctx context.Context, ids []uint) (int64, error) {
	defer s.guard()()
	if err := s.state.fault("MarkExpired"); err != nil {
		return 0, err
	}
	var n int64
	for _, id := range ids {
		if sub, ok := s.state.subs[id]; ok {
			sub.IsActive = false
			sub.Status = model.SubscriptionExpired
			s.state.subs[id] = sub
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) ListEndingBetween(ctx context.Context, from, to time.Time) ([]model.SubscribedPlan, error) {
	defer s.guard()()
	var out []model.SubscribedPlan
	for _, sub := range s.state.subs {
		if sub.Status != model.SubscriptionActive || !sub.IsActive {
			continue
		}
		if sub.EndDate.Before(from) || !sub.EndDate.Before(to) {
			continue
		}
		if u, ok := s.state.users[sub.UserID]; ok {
			u := u
			sub.User = &u
		}
		if p, ok := s.state.plans[sub.PlanID]; ok {
			p := p
			sub.Plan = &p
		}
		out = append(out, sub)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
