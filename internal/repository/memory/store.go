// Package memory holds in-process implementations of the repository
// interfaces. They back unit tests and local runs without PostgreSQL.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"lockedin/internal/domain/job"
	"lockedin/internal/domain/match"
	"lockedin/internal/domain/matching"
	"lockedin/internal/domain/profile"
	"lockedin/internal/domain/savedsearch"
	"lockedin/internal/repository"

	"github.com/google/uuid"
)

// Op names a repository call that Store.Fail can intercept.
type Op string

const (
	OpFindCandidates Op = "find_candidates"
	OpCreateMatches  Op = "create_matches"
	OpConsume        Op = "consume"
	OpCreateAudit    Op = "create_audit"
)

// Store is the shared state behind every repository in this package.
type Store struct {
	mu sync.Mutex

	candidates   []profile.Candidate
	postings     []job.Posting
	applications map[uuid.UUID]map[uuid.UUID]struct{}

	searches      map[uuid.UUID]savedsearch.SavedSearch
	searchOrder   []uuid.UUID
	matches       []match.SearchMatch
	notifications []match.SearchNotification

	// Fail, when set, is consulted before the named operation. A non-nil
	// return aborts the call with that error. id is the saved search id where
	// one applies.
	Fail func(op Op, id uuid.UUID) error
}

func NewStore() *Store {
	return &Store{
		applications: map[uuid.UUID]map[uuid.UUID]struct{}{},
		searches:     map[uuid.UUID]savedsearch.SavedSearch{},
	}
}

func (s *Store) AddCandidate(c profile.Candidate) profile.Candidate {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	s.candidates = append(s.candidates, c)
	return c
}

func (s *Store) AddPosting(p job.Posting) job.Posting {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	s.postings = append(s.postings, p)
	return p
}

func (s *Store) AddApplication(candidateID, jobID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.applications[candidateID]
	if !ok {
		set = map[uuid.UUID]struct{}{}
		s.applications[candidateID] = set
	}
	set[jobID] = struct{}{}
}

// PutSearch inserts or replaces a saved search as-is.
func (s *Store) PutSearch(ss savedsearch.SavedSearch) savedsearch.SavedSearch {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ss.ID == uuid.Nil {
		ss.ID = uuid.New()
	}
	if _, ok := s.searches[ss.ID]; !ok {
		s.searchOrder = append(s.searchOrder, ss.ID)
	}
	ss.Criteria.Skills = append([]string(nil), ss.Criteria.Skills...)
	s.searches[ss.ID] = ss
	return ss
}

// Search returns a copy of the stored search.
func (s *Store) Search(id uuid.UUID) (savedsearch.SavedSearch, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ss, ok := s.searches[id]
	return ss, ok
}

// Matches returns every match row of the search, in insertion order.
func (s *Store) Matches(searchID uuid.UUID) []match.SearchMatch {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]match.SearchMatch, 0)
	for _, m := range s.matches {
		if m.SavedSearchID == searchID {
			out = append(out, m)
		}
	}
	return out
}

// AuditRows returns every notification row of the search.
func (s *Store) AuditRows(searchID uuid.UUID) []match.SearchNotification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]match.SearchNotification, 0)
	for _, n := range s.notifications {
		if n.SavedSearchID == searchID {
			out = append(out, n)
		}
	}
	return out
}

func (s *Store) fail(op Op, id uuid.UUID) error {
	if s.Fail == nil {
		return nil
	}
	return s.Fail(op, id)
}

func (s *Store) Candidates() *CandidateRepository        { return &CandidateRepository{s: s} }
func (s *Store) Jobs() *JobRepository                    { return &JobRepository{s: s} }
func (s *Store) SavedSearches() *SavedSearchRepository   { return &SavedSearchRepository{s: s} }
func (s *Store) SearchMatches() *SearchMatchRepository   { return &SearchMatchRepository{s: s} }
func (s *Store) Notifications() *NotificationRepository { return &NotificationRepository{s: s} }

var (
	_ repository.CandidateRepository          = (*CandidateRepository)(nil)
	_ repository.JobRepository                = (*JobRepository)(nil)
	_ repository.SavedSearchRepository        = (*SavedSearchRepository)(nil)
	_ repository.SearchMatchRepository        = (*SearchMatchRepository)(nil)
	_ repository.SearchNotificationRepository = (*NotificationRepository)(nil)
)

type CandidateRepository struct{ s *Store }

func (r *CandidateRepository) FindPublicCandidates(_ context.Context, f repository.CandidateFilter) ([]profile.Candidate, error) {
	if err := r.s.fail(OpFindCandidates, uuid.Nil); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	skills := matching.Normalize(f.SkillsAny)
	loc := strings.ToLower(f.LocationContains)

	out := make([]profile.Candidate, 0)
	for _, c := range r.s.candidates {
		if !c.IsPublic {
			continue
		}
		if loc != "" && !strings.Contains(strings.ToLower(c.Location), loc) {
			continue
		}
		if f.HasWorkExperience != nil && c.HasWorkExperience != *f.HasWorkExperience {
			continue
		}
		if len(skills) > 0 && !matching.Overlaps(skills, c.SkillNames) {
			continue
		}
		c.SkillNames = append([]string(nil), c.SkillNames...)
		out = append(out, c)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out, nil
}

func (r *CandidateRepository) GetByID(_ context.Context, id uuid.UUID) (profile.Candidate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.candidates {
		if c.ID == id {
			return c, nil
		}
	}
	return profile.Candidate{}, repository.ErrCandidateNotFound
}

type JobRepository struct{ s *Store }

func (r *JobRepository) ListOpenPostings(_ context.Context) ([]job.Posting, error) {
	return r.open(func(job.Posting) bool { return true }), nil
}

func (r *JobRepository) ListOpenPostingsByRecruiter(_ context.Context, recruiterID uuid.UUID) ([]job.Posting, error) {
	return r.open(func(p job.Posting) bool { return p.RecruiterID == recruiterID }), nil
}

func (r *JobRepository) open(keep func(job.Posting) bool) []job.Posting {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]job.Posting, 0)
	for _, p := range r.s.postings {
		if p.Open() && keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func (r *JobRepository) AppliedJobIDs(_ context.Context, candidateID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := map[uuid.UUID]struct{}{}
	for id := range r.s.applications[candidateID] {
		out[id] = struct{}{}
	}
	return out, nil
}

type SavedSearchRepository struct{ s *Store }

func (r *SavedSearchRepository) Create(_ context.Context, ss savedsearch.SavedSearch) (savedsearch.SavedSearch, error) {
	if ss.CreatedAt.IsZero() {
		ss.CreatedAt = time.Now().UTC()
	}
	ss.UpdatedAt = ss.CreatedAt
	return r.s.PutSearch(ss), nil
}

func (r *SavedSearchRepository) GetByID(_ context.Context, id uuid.UUID) (savedsearch.SavedSearch, error) {
	ss, ok := r.s.Search(id)
	if !ok {
		return savedsearch.SavedSearch{}, repository.ErrSavedSearchNotFound
	}
	return ss, nil
}

func (r *SavedSearchRepository) GetForRecruiter(ctx context.Context, id, recruiterID uuid.UUID) (savedsearch.SavedSearch, error) {
	ss, err := r.GetByID(ctx, id)
	if err != nil {
		return ss, err
	}
	if ss.RecruiterID != recruiterID {
		return savedsearch.SavedSearch{}, repository.ErrSavedSearchNotFound
	}
	return ss, nil
}

func (r *SavedSearchRepository) ListByRecruiter(_ context.Context, recruiterID uuid.UUID) ([]savedsearch.SavedSearch, error) {
	out := r.filter(func(ss savedsearch.SavedSearch) bool { return ss.RecruiterID == recruiterID })
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *SavedSearchRepository) ListNotifiable(_ context.Context, onlyID *uuid.UUID) ([]savedsearch.SavedSearch, error) {
	return r.filter(func(ss savedsearch.SavedSearch) bool {
		if onlyID != nil && ss.ID != *onlyID {
			return false
		}
		return ss.Notifiable()
	}), nil
}

func (r *SavedSearchRepository) Update(_ context.Context, in savedsearch.SavedSearch) (savedsearch.SavedSearch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ss, ok := r.s.searches[in.ID]
	if !ok || ss.RecruiterID != in.RecruiterID {
		return savedsearch.SavedSearch{}, repository.ErrSavedSearchNotFound
	}
	ss.Name = in.Name
	ss.Description = in.Description
	ss.Criteria = in.Criteria
	ss.Criteria.Skills = append([]string(nil), in.Criteria.Skills...)
	ss.NotifyOnNewMatches = in.NotifyOnNewMatches
	ss.Frequency = in.Frequency
	ss.UpdatedAt = time.Now().UTC()
	r.s.searches[in.ID] = ss
	return ss, nil
}

func (r *SavedSearchRepository) SetActive(_ context.Context, id, recruiterID uuid.UUID, active bool) (savedsearch.SavedSearch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ss, ok := r.s.searches[id]
	if !ok || ss.RecruiterID != recruiterID {
		return savedsearch.SavedSearch{}, repository.ErrSavedSearchNotFound
	}
	ss.IsActive = active
	ss.UpdatedAt = time.Now().UTC()
	r.s.searches[id] = ss
	return ss, nil
}

func (r *SavedSearchRepository) Delete(_ context.Context, id, recruiterID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ss, ok := r.s.searches[id]
	if !ok || ss.RecruiterID != recruiterID {
		return repository.ErrSavedSearchNotFound
	}
	delete(r.s.searches, id)

	order := r.s.searchOrder[:0]
	for _, sid := range r.s.searchOrder {
		if sid != id {
			order = append(order, sid)
		}
	}
	r.s.searchOrder = order

	matches := r.s.matches[:0]
	for _, m := range r.s.matches {
		if m.SavedSearchID != id {
			matches = append(matches, m)
		}
	}
	r.s.matches = matches

	notes := r.s.notifications[:0]
	for _, n := range r.s.notifications {
		if n.SavedSearchID != id {
			notes = append(notes, n)
		}
	}
	r.s.notifications = notes
	return nil
}

func (r *SavedSearchRepository) TouchLastSearch(_ context.Context, id uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ss, ok := r.s.searches[id]
	if !ok {
		return nil
	}
	ss.LastSearchAt = &at
	r.s.searches[id] = ss
	return nil
}

func (r *SavedSearchRepository) CountNotifiableByRecruiter(_ context.Context, recruiterID uuid.UUID) (int, error) {
	return len(r.filter(func(ss savedsearch.SavedSearch) bool {
		return ss.RecruiterID == recruiterID && ss.Notifiable()
	})), nil
}

func (r *SavedSearchRepository) filter(keep func(savedsearch.SavedSearch) bool) []savedsearch.SavedSearch {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]savedsearch.SavedSearch, 0)
	for _, id := range r.s.searchOrder {
		ss := r.s.searches[id]
		if keep(ss) {
			out = append(out, ss)
		}
	}
	return out
}

type SearchMatchRepository struct{ s *Store }

func (r *SearchMatchRepository) KnownCandidateIDs(_ context.Context, searchID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := map[uuid.UUID]struct{}{}
	for _, m := range r.s.matches {
		if m.SavedSearchID == searchID {
			out[m.CandidateID] = struct{}{}
		}
	}
	return out, nil
}

func (r *SearchMatchRepository) CreateIfAbsent(_ context.Context, searchID uuid.UUID, candidateIDs []uuid.UUID, at time.Time) ([]match.SearchMatch, error) {
	if err := r.s.fail(OpCreateMatches, searchID); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	created := make([]match.SearchMatch, 0, len(candidateIDs))
	for _, cid := range candidateIDs {
		if r.existsLocked(searchID, cid) {
			continue
		}
		m := match.SearchMatch{
			ID:            uuid.New(),
			SavedSearchID: searchID,
			CandidateID:   cid,
			MatchedAt:     at,
			IsNewMatch:    true,
		}
		r.s.matches = append(r.s.matches, m)
		created = append(created, m)
	}
	return created, nil
}

func (r *SearchMatchRepository) existsLocked(searchID, candidateID uuid.UUID) bool {
	for _, m := range r.s.matches {
		if m.SavedSearchID == searchID && m.CandidateID == candidateID {
			return true
		}
	}
	return false
}

func (r *SearchMatchRepository) ListPending(_ context.Context, searchID uuid.UUID) ([]match.SearchMatch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]match.SearchMatch, 0)
	for _, m := range r.s.matches {
		if m.SavedSearchID == searchID && m.Pending() {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MatchedAt.After(out[j].MatchedAt) })
	return out, nil
}

func (r *SearchMatchRepository) CountPending(ctx context.Context, searchID uuid.UUID) (int, error) {
	p, err := r.ListPending(ctx, searchID)
	return len(p), err
}

func (r *SearchMatchRepository) ConsumePending(_ context.Context, searchID uuid.UUID, actor string, at time.Time) (int64, error) {
	if err := r.s.fail(OpConsume, searchID); err != nil {
		return 0, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for i := range r.s.matches {
		m := &r.s.matches[i]
		if m.SavedSearchID == searchID && m.Pending() {
			m.IsNewMatch = false
			m.Notified = true
			n++
		}
	}
	if ss, ok := r.s.searches[searchID]; ok {
		ss.LastNotifiedAt = &at
		by := actor
		ss.LastNotifiedBy = &by
		r.s.searches[searchID] = ss
	}
	return n, nil
}

type NotificationRepository struct{ s *Store }

func (r *NotificationRepository) Create(_ context.Context, n match.SearchNotification) (match.SearchNotification, error) {
	if err := r.s.fail(OpCreateAudit, n.SavedSearchID); err != nil {
		return match.SearchNotification{}, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.SentAt.IsZero() {
		n.SentAt = time.Now().UTC()
	}
	r.s.notifications = append(r.s.notifications, n)
	return n, nil
}

func (r *NotificationRepository) ListByRecruiter(_ context.Context, recruiterID uuid.UUID, limit, offset int) ([]match.SearchNotification, int, error) {
	owned := r.owned(recruiterID, func(match.SearchNotification) bool { return true })
	sort.SliceStable(owned, func(i, j int) bool { return owned[i].SentAt.After(owned[j].SentAt) })

	total := len(owned)
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []match.SearchNotification{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return owned[offset:end], total, nil
}

func (r *NotificationRepository) UnreadCount(_ context.Context, recruiterID uuid.UUID) (int, error) {
	return len(r.owned(recruiterID, func(n match.SearchNotification) bool { return !n.IsRead })), nil
}

func (r *NotificationRepository) MarkRead(_ context.Context, id, recruiterID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.notifications {
		n := &r.s.notifications[i]
		if n.ID != id {
			continue
		}
		ss, ok := r.s.searches[n.SavedSearchID]
		if !ok || ss.RecruiterID != recruiterID {
			return repository.ErrNotificationNotFound
		}
		n.IsRead = true
		return nil
	}
	return repository.ErrNotificationNotFound
}

func (r *NotificationRepository) CountSince(_ context.Context, recruiterID uuid.UUID, since time.Time) (int, error) {
	return len(r.owned(recruiterID, func(n match.SearchNotification) bool { return !n.SentAt.Before(since) })), nil
}

func (r *NotificationRepository) owned(recruiterID uuid.UUID, keep func(match.SearchNotification) bool) []match.SearchNotification {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]match.SearchNotification, 0)
	for _, n := range r.s.notifications {
		ss, ok := r.s.searches[n.SavedSearchID]
		if !ok || ss.RecruiterID != recruiterID || !keep(n) {
			continue
		}
		n.SavedSearchName = ss.Name
		out = append(out, n)
	}
	return out
}
