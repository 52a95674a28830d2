package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Borough is a NYC borough code (1-5).
type Borough int

const (
	Manhattan    Borough = 1
	Bronx        Borough = 2
	Brooklyn     Borough = 3
	Queens       Borough = 4
	StatenIsland Borough = 5
)

// Name returns the upper-case borough name used by DOB datasets.
func (b Borough) Name() string {
	switch b {
	case Manhattan:
		return "MANHATTAN"
	case Bronx:
		return "BRONX"
	case Brooklyn:
		return "BROOKLYN"
	case Queens:
		return "QUEENS"
	case StatenIsland:
		return "STATEN ISLAND"
	default:
		return ""
	}
}

// Valid reports whether b is one of the five boroughs.
func (b Borough) Valid() bool {
	return b >= Manhattan && b <= StatenIsland
}

// BBL is the borough/block/lot triple identifying a single tax lot.
type BBL struct {
	Borough Borough `json:"borough"`
	Block   int     `json:"block"`
	Lot     int     `json:"lot"`
}

// ParseBBL accepts "1-00123-0045", "1/123/45" or the 10-digit form "1001230045".
func ParseBBL(s string) (BBL, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return BBL{}, eris.New("model: empty bbl")
	}

	var parts []string
	switch {
	case strings.ContainsAny(s, "-/ "):
		parts = strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == '/' || r == ' ' })
	case len(s) == 10:
		parts = []string{s[:1], s[1:6], s[6:]}
	default:
		return BBL{}, eris.Errorf("model: unrecognized bbl %q", s)
	}
	if len(parts) != 3 {
		return BBL{}, eris.Errorf("model: unrecognized bbl %q", s)
	}

	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return BBL{}, eris.Wrapf(err, "model: parse bbl %q", s)
		}
		nums[i] = n
	}

	b := BBL{Borough: Borough(nums[0]), Block: nums[1], Lot: nums[2]}
	if err := b.Validate(); err != nil {
		return BBL{}, err
	}
	return b, nil
}

// Validate checks the triple is within the ranges used by the city.
func (b BBL) Validate() error {
	if !b.Borough.Valid() {
		return eris.Errorf("model: invalid borough %d", b.Borough)
	}
	if b.Block <= 0 || b.Block > 99999 {
		return eris.Errorf("model: invalid block %d", b.Block)
	}
	if b.Lot <= 0 || b.Lot > 9999 {
		return eris.Errorf("model: invalid lot %d", b.Lot)
	}
	return nil
}

// String returns the canonical 10-digit form.
func (b BBL) String() string {
	return fmt.Sprintf("%d%05d%04d", b.Borough, b.Block, b.Lot)
}

// Display returns the dashed form, e.g. "1-00123-0045".
func (b BBL) Display() string {
	return fmt.Sprintf("%d-%05d-%04d", b.Borough, b.Block, b.Lot)
}
