package expiry

import (
	"fmt"
	"strings"
)

// Filter selects records for reports by derived status.
type Filter string

const (
	FilterAll      Filter = "all"
	FilterValid    Filter = "valid"
	FilterExpiring Filter = "expiring"
	FilterExpired  Filter = "expired"
)

// ParseFilter accepts the report type parameter. Blank input means all.
func ParseFilter(value string) (Filter, error) {
	filter := Filter(strings.ToLower(strings.TrimSpace(value)))
	switch filter {
	case "":
		return FilterAll, nil
	case FilterAll, FilterValid, FilterExpiring, FilterExpired:
		return filter, nil
	default:
		return "", fmt.Errorf("invalid report type %q", value)
	}
}

// Matches reports whether a record with the given status passes the filter.
// Valid covers everything that has not yet expired.
func (f Filter) Matches(status Status) bool {
	switch f {
	case FilterAll:
		return true
	case FilterValid:
		return status == StatusCurrent || status == StatusExpiringSoon
	case FilterExpiring:
		return status == StatusExpiringSoon
	case FilterExpired:
		return status == StatusExpired
	default:
		return false
	}
}

// ParseStatus accepts a status query parameter. Blank input and "all" return
// "", which matches every status.
func ParseStatus(value string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(value)))
	switch status {
	case Status(FilterAll):
		return "", nil
	case "", StatusCurrent, StatusExpiringSoon, StatusExpired:
		return status, nil
	default:
		return "", fmt.Errorf("invalid status %q", value)
	}
}

// Counts tallies records by status. Total always equals the sum of buckets.
type Counts struct {
	Total        int `json:"total"`
	Current      int `json:"current"`
	ExpiringSoon int `json:"expiring_soon"`
	Expired      int `json:"expired"`
}

// Add counts one record.
func (c *Counts) Add(status Status) {
	switch status {
	case StatusExpired:
		c.Expired++
	case StatusExpiringSoon:
		c.ExpiringSoon++
	default:
		c.Current++
	}
	c.Total++
}

// Merge adds another tally into c.
func (c *Counts) Merge(other Counts) {
	c.Total += other.Total
	c.Current += other.Current
	c.ExpiringSoon += other.ExpiringSoon
	c.Expired += other.Expired
}
