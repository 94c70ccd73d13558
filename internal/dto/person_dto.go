package dto

import "github.com/dcurran1637/Certificate-management/internal/expiry"

// PersonRollup is one row of GET /api/people.
type PersonRollup struct {
	PersonID      uint   `json:"person_id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Role          string `json:"role,omitempty"`
	TotalTraining int    `json:"total_training"`
	Current       int    `json:"current"`
	ExpiringSoon  int    `json:"expiring_soon"`
	Expired       int    `json:"expired"`
}

// PersonProfile is the header of a person summary.
type PersonProfile struct {
	PersonID uint   `json:"person_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role,omitempty"`
}

// SummaryTrainingItem is an internal record on a person summary.
type SummaryTrainingItem struct {
	RecordID  uint          `json:"training_record_id"`
	CourseID  uint          `json:"course_id"`
	Course    string        `json:"course"`
	Completed string        `json:"completed"`
	Expires   *string       `json:"expires"`
	Assessor  string        `json:"assessor"`
	Notes     string        `json:"notes"`
	Status    expiry.Status `json:"status"`
	FilePath  *string       `json:"file_path"`
	MimeType  *string       `json:"mime_type"`
}

// PersonSummary is the response of GET /api/person/:id/summary.
type PersonSummary struct {
	Person     PersonProfile         `json:"person"`
	Training   []SummaryTrainingItem `json:"training"`
	ThirdParty []ThirdPartyResponse  `json:"thirdparty"`
	Counts     expiry.Counts         `json:"counts"`
}

// MyTrainingItem is one entry of the caller's merged training list.
type MyTrainingItem struct {
	ID        uint          `json:"id"`
	Source    Source        `json:"source"`
	Course    string        `json:"course"`
	Completed string        `json:"completed"`
	Expires   *string       `json:"expires"`
	Assessor  string        `json:"assessor"`
	Status    expiry.Status `json:"status"`
}

// MyTrainingResponse is the response of GET /api/my.
type MyTrainingResponse struct {
	List   []MyTrainingItem `json:"list"`
	Counts expiry.Counts    `json:"counts"`
}
