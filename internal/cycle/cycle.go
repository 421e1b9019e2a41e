package cycle

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/granttrack/internal/org"
)

// GrantCycle is one appropriation period. Appropriated is fixed at creation.
type GrantCycle struct {
	ID                uuid.UUID
	Name              string
	Appropriated      int64 // Amount in cents
	StartDate         time.Time
	EndDate           time.Time
	ReportingDeadline time.Time
	ApplicationOpen   bool
	CreatedAt         time.Time
}

// ApplicationStatus is informational; candidate progress is tracked per candidate.
type ApplicationStatus string

const (
	ApplicationActive ApplicationStatus = "active"
	ApplicationClosed ApplicationStatus = "closed"
)

// Application pairs a preparation program with a district for a cycle.
type Application struct {
	ID           uuid.UUID
	GrantCycleID uuid.UUID
	IHE          org.Ref
	LEA          org.Ref
	Status       ApplicationStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
