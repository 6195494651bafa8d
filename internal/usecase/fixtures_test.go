package usecase

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"lockedin/internal/domain/profile"
	"lockedin/internal/domain/savedsearch"
	"lockedin/internal/domain/user"
	"lockedin/internal/notification"
	"lockedin/internal/repository/memory"

	"github.com/google/uuid"
)

var t0 = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMapCache() *mapCache { return &mapCache{data: map[string][]byte{}} }

func (c *mapCache) GetJSON(_ context.Context, key string, out any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, out)
}

func (c *mapCache) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = b
	c.sets++
	return nil
}

func (c *mapCache) DeleteByPattern(_ context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
		}
	}
	return nil
}

type memLocker struct {
	mu   sync.Mutex
	held map[uuid.UUID]bool
}

func newMemLocker() *memLocker { return &memLocker{held: map[uuid.UUID]bool{}} }

func (l *memLocker) Acquire(_ context.Context, id uuid.UUID) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[id] {
		return func() {}, false, nil
	}
	l.held[id] = true
	return func() {
		l.mu.Lock()
		delete(l.held, id)
		l.mu.Unlock()
	}, true, nil
}

type recordingDeliverer struct {
	mu     sync.Mutex
	sent   []notification.Delivery
	failOn map[uuid.UUID]error
}

func (d *recordingDeliverer) Deliver(_ context.Context, del notification.Delivery) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.failOn[del.SearchID]; err != nil {
		return err
	}
	d.sent = append(d.sent, del)
	return nil
}

func (d *recordingDeliverer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sent)
}

type env struct {
	store     *memory.Store
	evaluator *SearchEvaluator
	tracker   *MatchTracker
	deliverer *recordingDeliverer
	locker    *memLocker
	scheduler *NotificationScheduler
}

func newEnv() *env {
	store := memory.NewStore()
	ev := NewSearchEvaluator(store.Candidates(), nil)
	tr := NewMatchTracker(ev, store.SearchMatches(), store.SavedSearches(), nil)
	del := &recordingDeliverer{failOn: map[uuid.UUID]error{}}
	lk := newMemLocker()
	sch := NewNotificationScheduler(store.SavedSearches(), tr, store.Notifications(), del, lk, SchedulerOptions{Workers: 2}, nil)
	return &env{store: store, evaluator: ev, tracker: tr, deliverer: del, locker: lk, scheduler: sch}
}

func (e *env) candidate(skills []string, location string, experienced bool) profile.Candidate {
	return e.store.AddCandidate(profile.Candidate{
		UserID:            uuid.New(),
		SkillNames:        skills,
		Location:          location,
		HasWorkExperience: experienced,
		IsPublic:          true,
	})
}

func (e *env) search(recruiterID uuid.UUID, freq savedsearch.Frequency, c savedsearch.Criteria) savedsearch.SavedSearch {
	return e.store.PutSearch(savedsearch.SavedSearch{
		RecruiterID:        recruiterID,
		Name:               "search " + string(freq),
		Criteria:           c,
		IsActive:           true,
		NotifyOnNewMatches: true,
		Frequency:          freq,
		CreatedAt:          t0.Add(-time.Hour),
	})
}

func recruiterActor(recruiterID uuid.UUID) user.Actor {
	return user.UserActor(uuid.New(), user.Recruiter{RecruiterID: recruiterID})
}

func ptrTime(t time.Time) *time.Time { return &t }
