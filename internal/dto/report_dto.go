package dto

import "github.com/dcurran1637/Certificate-management/internal/expiry"

// StatsResponse is the dashboard summary.
type StatsResponse struct {
	TotalStaff    int64         `json:"totalStaff"`
	ActiveCourses int64         `json:"activeCourses"`
	ExpiringSoon  int           `json:"expiringSoon"`
	CurrentCerts  int           `json:"currentCerts"`
	Expired       int           `json:"expired"`
	Counts        expiry.Counts `json:"counts"`
}

// ReportQuery selects report rows.
type ReportQuery struct {
	Type     string
	PersonID uint
}

// ReportRow is one line of the expiry report.
type ReportRow struct {
	Source    Source        `json:"source"`
	RecordID  uint          `json:"record_id"`
	PersonID  uint          `json:"person_id"`
	StaffName string        `json:"staff_name"`
	Email     string        `json:"email"`
	Course    string        `json:"course"`
	Completed string        `json:"completed"`
	Expires   *string       `json:"expires"`
	Assessor  string        `json:"assessor"`
	Status    expiry.Status `json:"status"`
}
