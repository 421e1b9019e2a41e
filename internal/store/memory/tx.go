package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/granttrack/internal/apperr"
	"github.com/MrJamesThe3rd/granttrack/internal/candidate"
	"github.com/MrJamesThe3rd/granttrack/internal/ledger"
	"github.com/MrJamesThe3rd/granttrack/internal/report"
)

// tx implements candidate.Tx and report.Tx. Entity mutexes are held from the
// first ForUpdate read until Commit or Rollback.
type tx struct {
	s    *Store
	held map[uuid.UUID]*sync.Mutex
	done bool

	candidates    map[uuid.UUID]*candidate.Candidate
	newCandidates []uuid.UUID
	reports       map[uuid.UUID]*report.Report
	newReports    []uuid.UUID
	balances      map[uuid.UUID]*ledger.Balance
}

func (s *Store) begin() *tx {
	return &tx{
		s:          s,
		held:       make(map[uuid.UUID]*sync.Mutex),
		candidates: make(map[uuid.UUID]*candidate.Candidate),
		reports:    make(map[uuid.UUID]*report.Report),
		balances:   make(map[uuid.UUID]*ledger.Balance),
	}
}

func (t *tx) lock(id uuid.UUID) {
	if _, ok := t.held[id]; ok {
		return
	}

	m := t.s.locks.get(id)
	m.Lock()
	t.held[id] = m
}

func (t *tx) release() {
	for _, m := range t.held {
		m.Unlock()
	}

	t.held = nil
	t.done = true
}

func (t *tx) CreateCandidate(_ context.Context, c *candidate.Candidate) error {
	t.s.mu.RLock()
	_, ok := t.s.applications[c.ApplicationID]
	t.s.mu.RUnlock()

	if !ok {
		return apperr.NotFound("application", c.ApplicationID)
	}

	now := t.s.now()
	c.ID = uuid.New()
	c.CreatedAt = now
	c.UpdatedAt = now
	c.Version = 1

	cp := *c
	t.candidates[c.ID] = &cp
	t.newCandidates = append(t.newCandidates, c.ID)

	return nil
}

func (t *tx) GetCandidateForUpdate(ctx context.Context, id uuid.UUID) (*candidate.Candidate, error) {
	t.lock(id)

	if c, ok := t.candidates[id]; ok {
		cp := *c
		return &cp, nil
	}

	return t.s.GetCandidate(ctx, id)
}

func (t *tx) UpdateCandidate(_ context.Context, c *candidate.Candidate) error {
	current, ok := t.candidates[c.ID]
	if !ok {
		t.s.mu.RLock()
		current, ok = t.s.candidates[c.ID]
		t.s.mu.RUnlock()
	}

	if !ok {
		return apperr.NotFound("candidate", c.ID)
	}

	if current.Version != c.Version {
		return apperr.Conflict("candidate", c.ID)
	}

	c.Version++
	c.UpdatedAt = t.s.now()

	cp := *c
	t.candidates[c.ID] = &cp

	return nil
}

func (t *tx) LockBalance(ctx context.Context, cycleID uuid.UUID) (*ledger.Balance, error) {
	t.lock(cycleID)

	if b, ok := t.balances[cycleID]; ok {
		cp := *b
		return &cp, nil
	}

	return t.s.GetBalance(ctx, cycleID)
}

func (t *tx) SaveBalance(_ context.Context, b *ledger.Balance) error {
	if _, ok := t.held[b.CycleID]; !ok {
		return fmt.Errorf("saving balance for cycle %s without holding its lock", b.CycleID)
	}

	if !b.Valid() {
		return fmt.Errorf("cycle %s: %w", b.CycleID, ledger.ErrInvariant)
	}

	cp := *b
	t.balances[b.CycleID] = &cp

	return nil
}

func (t *tx) OpenReports(ctx context.Context, c *candidate.Candidate) error {
	existing, err := t.ListReportsForCandidate(ctx, c.ID)
	if err != nil {
		return err
	}

	if len(existing) > 0 {
		return fmt.Errorf("candidate %s already has outcome reports", c.ID)
	}

	now := t.s.now()

	for _, r := range report.NewPair(c) {
		r.ID = uuid.New()
		r.CreatedAt = now
		r.UpdatedAt = now
		r.Version = 1

		t.reports[r.ID] = r
		t.newReports = append(t.newReports, r.ID)
	}

	return nil
}

func (t *tx) GetReportForUpdate(ctx context.Context, id uuid.UUID) (*report.Report, error) {
	t.lock(id)

	if r, ok := t.reports[id]; ok {
		return r.Clone(), nil
	}

	return t.s.GetReport(ctx, id)
}

func (t *tx) ListReportsForCandidate(ctx context.Context, candidateID uuid.UUID) ([]*report.Report, error) {
	committed, err := t.s.ListReports(ctx, report.ListFilter{CandidateID: &candidateID})
	if err != nil {
		return nil, err
	}

	out := make([]*report.Report, 0, len(committed))

	for _, r := range committed {
		if pending, ok := t.reports[r.ID]; ok {
			r = pending.Clone()
		}

		out = append(out, r)
	}

	for _, id := range t.newReports {
		if r := t.reports[id]; r.CandidateID == candidateID {
			out = append(out, r.Clone())
		}
	}

	return out, nil
}

func (t *tx) UpdateReport(_ context.Context, r *report.Report) error {
	current, ok := t.reports[r.ID]
	if !ok {
		t.s.mu.RLock()
		current, ok = t.s.reports[r.ID]
		t.s.mu.RUnlock()
	}

	if !ok {
		return apperr.NotFound("report", r.ID)
	}

	if current.Version != r.Version {
		return apperr.Conflict("report", r.ID)
	}

	r.Version++
	r.UpdatedAt = t.s.now()
	t.reports[r.ID] = r.Clone()

	return nil
}

func (t *tx) Commit() error {
	if t.done {
		return fmt.Errorf("transaction already finished")
	}

	defer t.release()

	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	for id, c := range t.candidates {
		t.s.candidates[id] = c
	}

	for _, id := range t.newCandidates {
		t.s.stamp(id)
	}

	for id, b := range t.balances {
		t.s.balances[id] = b
	}

	for _, id := range t.newReports {
		t.s.stamp(id)
	}

	for id, r := range t.reports {
		t.s.reports[id] = r
	}

	return nil
}

func (t *tx) Rollback() error {
	if t.done {
		return nil
	}

	t.release()

	return nil
}
