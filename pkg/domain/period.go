package domain

import (
	"fmt"
	"regexp"
	"strconv"
)

// Half is the half-month slice a Period refers to: A = days 1-15, B = days
// 16-end.
type Half string

const (
	HalfA Half = "A"
	HalfB Half = "B"
)

var periodPattern = regexp.MustCompile(`^(\d{4})(\d{2})([AB])$`)

// Period is the opaque, externally-visible calendar unit `YYYYMM{A|B}`.
// The pipeline never interprets period strings beyond ordering them.
type Period string

// Decompose splits a Period into (year, month, half). It returns an error
// if the period string does not match `YYYYMM{A|B}`.
func (p Period) Decompose() (year, month int, half Half, err error) {
	m := periodPattern.FindStringSubmatch(string(p))
	if m == nil {
		return 0, 0, "", fmt.Errorf("domain: malformed period %q", p)
	}
	year, _ = strconv.Atoi(m[1])
	month, _ = strconv.Atoi(m[2])
	half = Half(m[3])
	return year, month, half, nil
}

// Before reports whether p sorts lexicographically before other once both
// are decomposed into (year, month, half) — the only ordering guarantee
// spec.md §6 makes for period labels.
func (p Period) Before(other Period) bool {
	py, pm, ph, err1 := p.Decompose()
	oy, om, oh, err2 := other.Decompose()
	if err1 != nil || err2 != nil {
		return string(p) < string(other)
	}
	if py != oy {
		return py < oy
	}
	if pm != om {
		return pm < om
	}
	return ph < oh
}

// NewPeriod constructs a Period from components, formatting it as
// `YYYYMM{A|B}`.
func NewPeriod(year, month int, half Half) Period {
	return Period(fmt.Sprintf("%04d%02d%s", year, month, half))
}
