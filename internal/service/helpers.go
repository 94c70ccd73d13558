package service

import (
	"context"
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/dcurran1637/Certificate-management/internal/expiry"
	"github.com/dcurran1637/Certificate-management/internal/policy"
)

var textPolicy = bluemonday.StrictPolicy()

// cleanText strips markup from user supplied free text. StrictPolicy escapes
// entities, which are decoded again so names like "O'Neil & Co" survive.
func cleanText(value string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(value)))
}

func optionalDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := expiry.FormatDate(t)
	return &formatted
}

func formatDay(t time.Time) string {
	return expiry.FormatDate(&t)
}

func parseCompletion(value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, validationError("completion_date is required")
	}
	parsed, err := expiry.ParseDate(value)
	if err != nil {
		return time.Time{}, validationError("completion_date: %s", err.Error())
	}
	return parsed, nil
}

// audit writes an activity entry for caller. Failures are logged and never
// fail the mutation that triggered them.
func audit(ctx context.Context, recorder ActivityRecorder, logger zerolog.Logger, caller *policy.Identity, action, entityType string, entityID uint, metadata map[string]any) {
	if recorder == nil {
		return
	}

	entry := ActivityEntry{
		Action:     action,
		EntityType: entityType,
		Metadata:   metadata,
	}
	if caller != nil {
		entry.ActorID = caller.UserID
		entry.ActorRole = string(caller.Role)
	}
	if entityID > 0 {
		id := entityID
		entry.EntityID = &id
	}

	if _, err := recorder.Record(ctx, entry); err != nil {
		logger.Warn().Err(err).Str("action", action).Msg("failed to record activity")
	}
}
