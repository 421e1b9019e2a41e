// Package ledger tracks how much of a grant cycle's appropriation has been
// committed. Amounts are in cents.
//
// A Balance only changes through the composite operations below, each of
// which either applies completely or leaves the balance untouched. Callers
// are responsible for holding the cycle's lock (a row lock or the memory
// store's cycle mutex) across load, mutate and save.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrInvariant is returned when an operation would drive a bucket negative.
// It means an upstream workflow let the candidate and ledger drift apart.
var ErrInvariant = errors.New("ledger invariant violated")

// Balance is the commitment state of a single grant cycle.
type Balance struct {
	CycleID      uuid.UUID
	Appropriated int64
	Reserved     int64
	Encumbered   int64
	Disbursed    int64
}

// Remaining is the amount still available for new reservations.
func (b Balance) Remaining() int64 {
	return b.Appropriated - b.Reserved - b.Encumbered - b.Disbursed
}

// TryReserve admits amount into Reserved if enough appropriation remains.
// It reports whether the reservation was made.
func (b *Balance) TryReserve(amount int64) bool {
	if amount <= 0 || b.Remaining() < amount {
		return false
	}

	b.Reserved += amount

	return true
}

// Release returns a reserved amount to the available pool.
func (b *Balance) Release(amount int64) error {
	if err := checkAmount(amount, b.Reserved, "reserved"); err != nil {
		return err
	}

	b.Reserved -= amount

	return nil
}

// PromoteReservedToEncumbered moves amount from Reserved to Encumbered once
// an award agreement is signed.
func (b *Balance) PromoteReservedToEncumbered(amount int64) error {
	if err := checkAmount(amount, b.Reserved, "reserved"); err != nil {
		return err
	}

	b.Reserved -= amount
	b.Encumbered += amount

	return nil
}

// PromoteEncumberedToDisbursed moves amount from Encumbered to Disbursed once
// payment has been made.
func (b *Balance) PromoteEncumberedToDisbursed(amount int64) error {
	if err := checkAmount(amount, b.Encumbered, "encumbered"); err != nil {
		return err
	}

	b.Encumbered -= amount
	b.Disbursed += amount

	return nil
}

// Valid reports whether the balance satisfies the ledger invariant.
func (b Balance) Valid() bool {
	return b.Reserved >= 0 && b.Encumbered >= 0 && b.Disbursed >= 0 &&
		b.Reserved+b.Encumbered+b.Disbursed <= b.Appropriated
}

func checkAmount(amount, available int64, bucket string) error {
	if amount <= 0 {
		return fmt.Errorf("%w: non-positive amount %d", ErrInvariant, amount)
	}

	if available < amount {
		return fmt.Errorf("%w: %s %d < %d", ErrInvariant, bucket, available, amount)
	}

	return nil
}

// Snapshot is a read-only view of a Balance.
type Snapshot struct {
	CycleID      uuid.UUID
	Appropriated int64
	Reserved     int64
	Encumbered   int64
	Disbursed    int64
	Remaining    int64
}

func (b Balance) Snapshot() Snapshot {
	return Snapshot{
		CycleID:      b.CycleID,
		Appropriated: b.Appropriated,
		Reserved:     b.Reserved,
		Encumbered:   b.Encumbered,
		Disbursed:    b.Disbursed,
		Remaining:    b.Remaining(),
	}
}

type Repository interface {
	GetBalance(ctx context.Context, cycleID uuid.UUID) (*Balance, error)
}

// Service exposes read access to cycle balances. Mutations happen inside the
// candidate workflow transactions.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Snapshot(ctx context.Context, cycleID uuid.UUID) (Snapshot, error) {
	b, err := s.repo.GetBalance(ctx, cycleID)
	if err != nil {
		return Snapshot{}, err
	}

	return b.Snapshot(), nil
}
