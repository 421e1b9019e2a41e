// Package memory is an in-process implementation of every repository the
// workflow services consume. A Store is constructed explicitly and owned by
// its caller; nothing here is package-level state.
//
// Committed data lives behind a single RWMutex. Workflow transactions take a
// mutex per candidate, report and grant cycle, so work on different entities
// never blocks, and writes are buffered until Commit.
package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/granttrack/internal/apperr"
	"github.com/MrJamesThe3rd/granttrack/internal/candidate"
	"github.com/MrJamesThe3rd/granttrack/internal/cycle"
	"github.com/MrJamesThe3rd/granttrack/internal/ledger"
	"github.com/MrJamesThe3rd/granttrack/internal/org"
	"github.com/MrJamesThe3rd/granttrack/internal/report"
)

type Store struct {
	mu sync.RWMutex

	cycles       map[uuid.UUID]*cycle.GrantCycle
	balances     map[uuid.UUID]*ledger.Balance
	applications map[uuid.UUID]*cycle.Application
	candidates   map[uuid.UUID]*candidate.Candidate
	reports      map[uuid.UUID]*report.Report
	contacts     map[uuid.UUID][]org.Contact

	// seq preserves insertion order for listings.
	seq  map[uuid.UUID]int64
	next int64

	locks lockTable
	now   func() time.Time
}

func New() *Store {
	return &Store{
		cycles:       make(map[uuid.UUID]*cycle.GrantCycle),
		balances:     make(map[uuid.UUID]*ledger.Balance),
		applications: make(map[uuid.UUID]*cycle.Application),
		candidates:   make(map[uuid.UUID]*candidate.Candidate),
		reports:      make(map[uuid.UUID]*report.Report),
		contacts:     make(map[uuid.UUID][]org.Contact),
		seq:          make(map[uuid.UUID]int64),
		locks:        lockTable{locks: make(map[uuid.UUID]*sync.Mutex)},
		now:          time.Now,
	}
}

// Candidates returns the candidate workflow view of the store.
func (s *Store) Candidates() candidate.Repository { return candidateRepo{s} }

// Reports returns the report workflow view of the store.
func (s *Store) Reports() report.Repository { return reportRepo{s} }

type candidateRepo struct{ *Store }

func (r candidateRepo) Begin(context.Context) (candidate.Tx, error) { return r.begin(), nil }

type reportRepo struct{ *Store }

func (r reportRepo) Begin(context.Context) (report.Tx, error) { return r.begin(), nil }

// lockTable hands out one mutex per entity id. Entries are never removed, so
// the table grows with the number of entities ever locked.
type lockTable struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func (l *lockTable) get(id uuid.UUID) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}

	return m
}

func (s *Store) stamp(id uuid.UUID) {
	s.next++
	s.seq[id] = s.next
}

func (s *Store) bySeq(a, b uuid.UUID) int {
	return cmp.Compare(s.seq[a], s.seq[b])
}

// Cycles

func (s *Store) CreateCycle(_ context.Context, c *cycle.GrantCycle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.cycles {
		if strings.EqualFold(existing.Name, c.Name) {
			return apperr.Validation("name", "grant cycle %q already exists", c.Name)
		}
	}

	c.ID = uuid.New()
	c.CreatedAt = s.now()

	cp := *c
	s.cycles[c.ID] = &cp
	s.balances[c.ID] = &ledger.Balance{CycleID: c.ID, Appropriated: c.Appropriated}
	s.stamp(c.ID)

	return nil
}

func (s *Store) GetCycle(_ context.Context, id uuid.UUID) (*cycle.GrantCycle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.cycles[id]
	if !ok {
		return nil, apperr.NotFound("grant cycle", id)
	}

	cp := *c

	return &cp, nil
}

func (s *Store) FindCycleByName(_ context.Context, name string) (*cycle.GrantCycle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.cycles {
		if strings.EqualFold(c.Name, name) {
			cp := *c
			return &cp, nil
		}
	}

	return nil, apperr.NotFound("grant cycle", uuid.Nil)
}

func (s *Store) ListCycles(context.Context) ([]*cycle.GrantCycle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*cycle.GrantCycle, 0, len(s.cycles))
	for _, c := range s.cycles {
		cp := *c
		out = append(out, &cp)
	}

	slices.SortFunc(out, func(a, b *cycle.GrantCycle) int { return s.bySeq(a.ID, b.ID) })

	return out, nil
}

// Applications

func (s *Store) CreateApplication(_ context.Context, a *cycle.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cycles[a.GrantCycleID]; !ok {
		return apperr.NotFound("grant cycle", a.GrantCycleID)
	}

	now := s.now()
	a.ID = uuid.New()
	a.CreatedAt = now
	a.UpdatedAt = now

	cp := *a
	s.applications[a.ID] = &cp
	s.stamp(a.ID)

	return nil
}

func (s *Store) GetApplication(_ context.Context, id uuid.UUID) (*cycle.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.applications[id]
	if !ok {
		return nil, apperr.NotFound("application", id)
	}

	cp := *a

	return &cp, nil
}

func (s *Store) ListApplications(_ context.Context, cycleID uuid.UUID) ([]*cycle.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*cycle.Application

	for _, a := range s.applications {
		if a.GrantCycleID == cycleID {
			cp := *a
			out = append(out, &cp)
		}
	}

	slices.SortFunc(out, func(a, b *cycle.Application) int { return s.bySeq(a.ID, b.ID) })

	return out, nil
}

// Candidates

func (s *Store) CreateCandidate(_ context.Context, c *candidate.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.applications[c.ApplicationID]; !ok {
		return apperr.NotFound("application", c.ApplicationID)
	}

	now := s.now()
	c.ID = uuid.New()
	c.CreatedAt = now
	c.UpdatedAt = now
	c.Version = 1

	cp := *c
	s.candidates[c.ID] = &cp
	s.stamp(c.ID)

	return nil
}

func (s *Store) GetCandidate(_ context.Context, id uuid.UUID) (*candidate.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.candidates[id]
	if !ok {
		return nil, apperr.NotFound("candidate", id)
	}

	cp := *c

	return &cp, nil
}

func (s *Store) ListCandidates(_ context.Context, filter candidate.ListFilter) ([]*candidate.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*candidate.Candidate

	for _, c := range s.candidates {
		if filter.GrantCycleID != nil && c.GrantCycleID != *filter.GrantCycleID {
			continue
		}

		if filter.ApplicationID != nil && c.ApplicationID != *filter.ApplicationID {
			continue
		}

		if filter.Submission != nil && c.Submission != *filter.Submission {
			continue
		}

		cp := *c
		out = append(out, &cp)
	}

	slices.SortFunc(out, func(a, b *candidate.Candidate) int { return s.bySeq(a.ID, b.ID) })

	return out, nil
}

// Reports

func (s *Store) GetReport(_ context.Context, id uuid.UUID) (*report.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reports[id]
	if !ok {
		return nil, apperr.NotFound("report", id)
	}

	return r.Clone(), nil
}

func (s *Store) ListReports(_ context.Context, filter report.ListFilter) ([]*report.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*report.Report

	for _, r := range s.reports {
		if filter.GrantCycleID != nil && r.GrantCycleID != *filter.GrantCycleID {
			continue
		}

		if filter.CandidateID != nil && r.CandidateID != *filter.CandidateID {
			continue
		}

		if filter.Status != nil && r.Status != *filter.Status {
			continue
		}

		out = append(out, r.Clone())
	}

	slices.SortFunc(out, func(a, b *report.Report) int { return s.bySeq(a.ID, b.ID) })

	return out, nil
}

// Ledger

func (s *Store) GetBalance(_ context.Context, cycleID uuid.UUID) (*ledger.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.balances[cycleID]
	if !ok {
		return nil, apperr.NotFound("grant cycle", cycleID)
	}

	cp := *b

	return &cp, nil
}

// Organization contacts

func (s *Store) ListContacts(_ context.Context, orgID uuid.UUID) ([]org.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.contacts[orgID]), nil
}

func (s *Store) CreateContact(_ context.Context, c *org.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = uuid.New()
	s.contacts[c.OrgID] = append(s.contacts[c.OrgID], *c)

	return nil
}
