package cron

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"estatelink_backend/internal/model"
	"estatelink_backend/pkg/email"
	"estatelink_backend/pkg/subscription"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

func TestSchedulerRejectsBadSpecAndDuplicates(t *testing.T) {
	s := NewScheduler()
	noop := func(ctx context.Context) error { return nil }

	require.NoError(t, s.Register("a", "0 0 * * *", noop))
	assert.Error(t, s.Register("a", "0 0 * * *", noop))
	assert.Error(t, s.Register("b", "not a spec", noop))
	assert.ErrorIs(t, s.RunNow(context.Background(), "missing"), ErrUnknownJob)
}

func TestSchedulerRunNowDoesNotOverlap(t *testing.T) {
	s := NewScheduler()
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	var runs int32

	require.NoError(t, s.Register("slow", "@daily", func(ctx context.Context) error {
		atomic.AddInt32(&runs, 1)
		started <- struct{}{}
		<-release
		return errors.New("done")
	}))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		errs[0] = s.RunNow(context.Background(), "slow")
	}()
	<-started

	wg.Add(1)
	go func() {
		defer wg.Done()
		errs[1] = s.RunNow(context.Background(), "slow")
	}()
	// give the second caller time to join the in-flight run
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&runs))
	assert.EqualError(t, errs[0], "done")
	assert.EqualError(t, errs[1], "done")
}

func TestExpireSubscriptionsJob(t *testing.T) {
	store := subscription.NewMemoryStore()
	user := store.AddUser(model.User{Name: "U", Email: "u@example.com", IsActive: true, IsVerified: true})
	stale := store.AddSubscription(model.SubscribedPlan{
		UserID:    user.ID,
		StartDate: now.AddDate(0, -1, 0),
		EndDate:   now.AddDate(0, 0, -1),
		IsActive:  true,
		Status:    model.SubscriptionActive,
	})
	engine := subscription.NewEngine(store, subscription.WithClock(clock))

	s := NewScheduler()
	require.NoError(t, s.Register(JobSubscriptionExpiry, "0 0 * * *", ExpireSubscriptions(engine)))
	require.NoError(t, s.RunNow(context.Background(), JobSubscriptionExpiry))

	got, _ := store.Subscription(stale.ID)
	assert.Equal(t, model.SubscriptionExpired, got.Status)
	assert.False(t, got.IsActive)
	u, _ := store.User(user.ID)
	assert.False(t, u.IsVerified)

	// second run is a no-op
	require.NoError(t, s.RunNow(context.Background(), JobSubscriptionExpiry))
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []email.SubscriptionExpiryWarningData
	to   []string
	fail bool
}

func (m *fakeMailer) SendSubscriptionExpiryWarning(ctx context.Context, to string, data email.SubscriptionExpiryWarningData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("smtp down")
	}
	m.to = append(m.to, to)
	m.sent = append(m.sent, data)
	return nil
}

func TestWarnExpiringSubscriptions(t *testing.T) {
	store := subscription.NewMemoryStore()
	plan := store.AddPlan(model.SubscriptionPlan{Name: "Basic Plan", Title: "basic", MaxProperties: 10, IsActive: true})

	addUser := func(mail string, endsIn time.Duration) {
		u := store.AddUser(model.User{Name: mail, Email: mail, IsActive: true})
		store.AddSubscription(model.SubscribedPlan{
			UserID:         u.ID,
			PlanID:         plan.ID,
			StartDate:      now.AddDate(0, -1, 0),
			EndDate:        now.Add(endsIn),
			ListingOffered: 10,
			Listed:         4,
			IsActive:       true,
			Status:         model.SubscriptionActive,
		})
	}
	addUser("seven@example.com", 7*24*time.Hour+2*time.Hour)
	addUser("three@example.com", 3*24*time.Hour-5*time.Hour)
	addUser("five@example.com", 5*24*time.Hour)

	mailer := &fakeMailer{}
	job := WarnExpiringSubscriptions(store, mailer, []int{7, 3}, clock)
	require.NoError(t, job(context.Background()))

	require.Len(t, mailer.sent, 2)
	assert.Equal(t, []string{"seven@example.com", "three@example.com"}, mailer.to)
	assert.Equal(t, 7, mailer.sent[0].DaysLeft)
	assert.Equal(t, 3, mailer.sent[1].DaysLeft)
	assert.Equal(t, "Basic Plan", mailer.sent[0].PlanName)
	assert.Equal(t, 6, mailer.sent[0].Remaining)
}

func TestWarnExpiringSubscriptionsSurvivesMailFailure(t *testing.T) {
	store := subscription.NewMemoryStore()
	u := store.AddUser(model.User{Name: "U", Email: "u@example.com"})
	store.AddSubscription(model.SubscribedPlan{
		UserID:    u.ID,
		StartDate: now.AddDate(0, -1, 0),
		EndDate:   now.AddDate(0, 0, 3),
		IsActive:  true,
		Status:    model.SubscriptionActive,
	})

	job := WarnExpiringSubscriptions(store, &fakeMailer{fail: true}, []int{3}, clock)
	assert.NoError(t, job(context.Background()))
}
