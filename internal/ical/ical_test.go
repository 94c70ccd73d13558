package ical

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRenderAllDayEventWithAlarm(t *testing.T) {
	cal := Calendar{
		Name: "Jane Doe certificate expiries",
		Events: []Event{{
			UID:         "person-7-internal-42@training-manager",
			Summary:     "Certificate expiry - First Aid",
			Description: "Employee: Jane Doe, jane@example.com",
			Date:        time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			AlarmBefore: 14 * 24 * time.Hour,
		}},
	}

	stamp := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	out := string(cal.Render(stamp))

	require.True(t, strings.HasPrefix(out, "BEGIN:VCALENDAR\r\n"))
	require.True(t, strings.HasSuffix(out, "END:VCALENDAR\r\n"))
	require.Contains(t, out, "PRODID:-//Training Manager//EN\r\n")
	require.Contains(t, out, "DTSTART;VALUE=DATE:20250301\r\n")
	require.Contains(t, out, "DTEND;VALUE=DATE:20250302\r\n")
	require.Contains(t, out, "DTSTAMP:20250110T090000Z\r\n")
	require.Contains(t, out, "UID:person-7-internal-42@training-manager\r\n")
	require.Contains(t, out, "SUMMARY:Certificate expiry - First Aid\r\n")
	require.Contains(t, out, `DESCRIPTION:Employee: Jane Doe\, jane@example.com`)
	require.Contains(t, out, "TRIGGER:-P14D\r\n")
	require.Equal(t, 1, strings.Count(out, "BEGIN:VALARM"))
	require.Equal(t, 1, strings.Count(out, "BEGIN:VEVENT"))

	for _, line := range strings.Split(strings.TrimSuffix(out, "\r\n"), "\r\n") {
		require.LessOrEqual(t, len(line), 75)
	}
}

func TestRenderIsStableForSameInput(t *testing.T) {
	cal := Calendar{Events: []Event{{UID: "a", Summary: "x", Date: time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)}}}
	stamp := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	require.Equal(t, cal.Render(stamp), cal.Render(stamp))
	require.Contains(t, string(cal.Render(stamp)), "DTEND;VALUE=DATE:20250201\r\n")
	require.NotContains(t, string(cal.Render(stamp)), "VALARM")
}

func TestRenderEmptyCalendar(t *testing.T) {
	out := string(Calendar{}.Render(time.Now()))
	require.Equal(t, 0, strings.Count(out, "BEGIN:VEVENT"))
	require.Contains(t, out, "VERSION:2.0\r\n")
}

func TestEscape(t *testing.T) {
	require.Equal(t, `a\\b\;c\,d\ne`, Escape("a\\b;c,d\ne"))
}

func TestFoldingKeepsMultibyteRunes(t *testing.T) {
	summary := strings.Repeat("é", 60)
	cal := Calendar{Events: []Event{{UID: "u", Summary: summary, Date: time.Now()}}}
	out := string(cal.Render(time.Now()))

	unfolded := strings.ReplaceAll(out, "\r\n ", "")
	require.Contains(t, unfolded, "SUMMARY:"+summary)
	for _, line := range strings.Split(out, "\r\n") {
		require.LessOrEqual(t, len(line), 75)
	}
}

func TestDurationBefore(t *testing.T) {
	require.Equal(t, "-P14D", durationBefore(14*24*time.Hour))
	require.Equal(t, "-PT90M", durationBefore(90*time.Minute))
}
