// Package policy loads the program policy file: review rules, the reporting
// window and the grant cycles seeded on boot.
package policy

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/MrJamesThe3rd/granttrack/internal/cycle"
	"github.com/MrJamesThe3rd/granttrack/internal/money"
)

const dateLayout = "2006-01-02"

type Policy struct {
	Review struct {
		AllowSkip bool `yaml:"allow_skip"`
	} `yaml:"review"`
	Reporting struct {
		CriticalAfterDays int    `yaml:"critical_after_days"`
		DefaultDeadline   string `yaml:"default_deadline"`
	} `yaml:"reporting"`
	Cycles []CycleSeed `yaml:"cycles"`
}

// CycleSeed is a grant cycle created on boot when no cycle with its name exists.
type CycleSeed struct {
	Name              string `yaml:"name"`
	Appropriated      string `yaml:"appropriated"`
	StartDate         string `yaml:"start_date"`
	EndDate           string `yaml:"end_date"`
	ReportingDeadline string `yaml:"reporting_deadline"`
	ApplicationOpen   *bool  `yaml:"application_open"`
}

// Load reads the policy at path. A missing file yields the defaults.
func Load(path string) (*Policy, error) {
	p := &Policy{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read policy: %w", err)
		}

		if len(data) > 0 {
			if err := yaml.Unmarshal(data, p); err != nil {
				return nil, fmt.Errorf("parse policy: %w", err)
			}
		}
	}

	if p.Reporting.CriticalAfterDays == 0 {
		p.Reporting.CriticalAfterDays = 30
	}

	return p, nil
}

// CriticalAfter is the overdue window past which a report is critical.
func (p *Policy) CriticalAfter() time.Duration {
	return time.Duration(p.Reporting.CriticalAfterDays) * 24 * time.Hour
}

// Validate checks the policy and every cycle seed.
func (p *Policy) Validate() error {
	if p.Reporting.CriticalAfterDays < 0 {
		return fmt.Errorf("reporting.critical_after_days must not be negative")
	}

	if p.Reporting.DefaultDeadline != "" {
		if _, err := time.Parse(dateLayout, p.Reporting.DefaultDeadline); err != nil {
			return fmt.Errorf("reporting.default_deadline: %w", err)
		}
	}

	if _, err := p.CycleParams(); err != nil {
		return err
	}

	return nil
}

// CycleParams converts the seeds into creation parameters. A seed without a
// reporting deadline uses reporting.default_deadline.
func (p *Policy) CycleParams() ([]cycle.CreateCycleParams, error) {
	out := make([]cycle.CreateCycleParams, 0, len(p.Cycles))

	for i, seed := range p.Cycles {
		prefix := fmt.Sprintf("cycles[%d]", i)

		if strings.TrimSpace(seed.Name) == "" {
			return nil, fmt.Errorf("%s.name is required", prefix)
		}

		cents, err := money.ParseDollars(seed.Appropriated)
		if err != nil {
			return nil, fmt.Errorf("%s.appropriated: %w", prefix, err)
		}

		start, err := time.Parse(dateLayout, seed.StartDate)
		if err != nil {
			return nil, fmt.Errorf("%s.start_date: %w", prefix, err)
		}

		end, err := time.Parse(dateLayout, seed.EndDate)
		if err != nil {
			return nil, fmt.Errorf("%s.end_date: %w", prefix, err)
		}

		deadlineStr := seed.ReportingDeadline
		if deadlineStr == "" {
			deadlineStr = p.Reporting.DefaultDeadline
		}

		deadline, err := time.Parse(dateLayout, deadlineStr)
		if err != nil {
			return nil, fmt.Errorf("%s.reporting_deadline: %w", prefix, err)
		}

		open := true
		if seed.ApplicationOpen != nil {
			open = *seed.ApplicationOpen
		}

		out = append(out, cycle.CreateCycleParams{
			Name:              strings.TrimSpace(seed.Name),
			Appropriated:      cents,
			StartDate:         start,
			EndDate:           end,
			ReportingDeadline: deadline,
			ApplicationOpen:   open,
		})
	}

	return out, nil
}
