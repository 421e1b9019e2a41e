// Package roster reads IHE candidate rosters exported as CSV and turns them
// into candidate drafts. The header layout is auto-detected from a list of
// known profiles.
package roster

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/MrJamesThe3rd/granttrack/internal/apperr"
	"github.com/MrJamesThe3rd/granttrack/internal/candidate"
)

// Profile describes the column layout of one roster export format.
// Optional columns may be left empty.
type Profile struct {
	Name          string
	FirstNameCol  string
	LastNameCol   string
	EmailCol      string
	SEIDCol       string
	CredentialCol string

	SchoolSiteCol string
	EmployeeIDCol string
}

func (p Profile) requiredCols() []string {
	return []string{p.FirstNameCol, p.LastNameCol, p.EmailCol, p.SEIDCol, p.CredentialCol}
}

// profiles are tried in order; the first whose required columns all appear
// in a row wins.
var profiles = []Profile{
	{
		Name:          "ctc",
		FirstNameCol:  "candidate first",
		LastNameCol:   "candidate last",
		EmailCol:      "email address",
		SEIDCol:       "seid",
		CredentialCol: "credential",
		SchoolSiteCol: "school site",
		EmployeeIDCol: "district employee id",
	},
	{
		Name:          "standard",
		FirstNameCol:  "first name",
		LastNameCol:   "last name",
		EmailCol:      "email",
		SEIDCol:       "seid",
		CredentialCol: "credential area",
		SchoolSiteCol: "school site",
		EmployeeIDCol: "employee id",
	},
}

// Result is a parsed roster.
type Result struct {
	Profile string
	Rows    []candidate.Fields
}

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Parse decodes the roster and returns one Fields per data row. Blank rows are
// skipped; a row without a first or last name fails the whole file.
func (p *Parser) Parse(r io.Reader) (*Result, error) {
	utf8r, err := utf8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	data, err := io.ReadAll(utf8r)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}

	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.Comma = delimiter(string(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, apperr.Validation("roster", "malformed csv: %v", err)
	}

	profile, cols, headerIdx := detectProfile(records)
	if profile == nil {
		return nil, apperr.Validation("roster", "unrecognised header: expected the standard or ctc roster columns")
	}

	rows, err := parseRows(profile, cols, records[headerIdx+1:], headerIdx+1)
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, apperr.Validation("roster", "no candidate rows")
	}

	return &Result{Profile: profile.Name, Rows: rows}, nil
}

// delimiter picks ';' when the first line has more semicolons than commas.
func delimiter(data string) rune {
	first, _, _ := strings.Cut(data, "\n")
	if strings.Count(first, ";") > strings.Count(first, ",") {
		return ';'
	}

	return ','
}

// colIndex maps a lower-cased header name to its column.
type colIndex map[string]int

func detectProfile(records [][]string) (*Profile, colIndex, int) {
	for rowIdx, row := range records {
		cols := make(colIndex)

		for i, cell := range row {
			if name := strings.ToLower(strings.TrimSpace(cell)); name != "" {
				cols[name] = i
			}
		}

		for i := range profiles {
			if cols.hasAll(profiles[i].requiredCols()) {
				return &profiles[i], cols, rowIdx
			}
		}
	}

	return nil, nil, 0
}

func (c colIndex) hasAll(names []string) bool {
	for _, n := range names {
		if _, ok := c[n]; !ok {
			return false
		}
	}

	return true
}

// cell returns the trimmed value of the named column, or "" when the column
// is absent from the header or the row is short.
func (c colIndex) cell(row []string, name string) string {
	idx, ok := c[name]
	if !ok || name == "" || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}

func parseRows(p *Profile, cols colIndex, records [][]string, offset int) ([]candidate.Fields, error) {
	var out []candidate.Fields

	for i, row := range records {
		line := offset + i + 1 // 1-based line in the file

		if blank(row) {
			continue
		}

		f := candidate.Fields{
			FirstName:          cols.cell(row, p.FirstNameCol),
			LastName:           cols.cell(row, p.LastNameCol),
			Email:              cols.cell(row, p.EmailCol),
			SEID:               cols.cell(row, p.SEIDCol),
			CredentialArea:     cols.cell(row, p.CredentialCol),
			SchoolSite:         cols.cell(row, p.SchoolSiteCol),
			DistrictEmployeeID: cols.cell(row, p.EmployeeIDCol),
		}

		switch {
		case f.FirstName == "":
			return nil, apperr.Validation(fmt.Sprintf("line %d", line), "missing first name")
		case f.LastName == "":
			return nil, apperr.Validation(fmt.Sprintf("line %d", line), "missing last name")
		}

		out = append(out, f)
	}

	return out, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}

	return true
}
