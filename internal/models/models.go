package models

// All lists every persisted model in migration order.
func All() []any {
	return []any{
		&Person{},
		&User{},
		&Category{},
		&Provider{},
		&Course{},
		&TrainingRecord{},
		&Attachment{},
		&ThirdPartyCertification{},
		&ActivityLog{},
	}
}
