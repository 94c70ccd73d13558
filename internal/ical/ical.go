// Package ical renders all-day certificate expiry events as RFC 5545 calendars.
package ical

import (
	"bytes"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	productID  = "-//Training Manager//EN"
	dateLayout = "20060102"
	stampFmt   = "20060102T150405Z"
	maxLine    = 75
)

// Event is a single all-day expiry event.
type Event struct {
	UID         string
	Summary     string
	Description string
	Date        time.Time
	// AlarmBefore is how long before the event the reminder fires. Zero disables the alarm.
	AlarmBefore time.Duration
}

// Calendar is a set of events published together.
type Calendar struct {
	Name   string
	Events []Event
}

// Render encodes the calendar with CRLF line endings. stamp is written as
// DTSTAMP on every event.
func (c Calendar) Render(stamp time.Time) []byte {
	var buf bytes.Buffer
	w := func(line string) {
		writeFolded(&buf, line)
	}

	w("BEGIN:VCALENDAR")
	w("VERSION:2.0")
	w("PRODID:" + productID)
	w("CALSCALE:GREGORIAN")
	w("METHOD:PUBLISH")
	if c.Name != "" {
		w("X-WR-CALNAME:" + Escape(c.Name))
	}

	stampValue := stamp.UTC().Format(stampFmt)
	for _, event := range c.Events {
		year, month, day := event.Date.Date()
		start := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)

		w("BEGIN:VEVENT")
		w("UID:" + event.UID)
		w("DTSTAMP:" + stampValue)
		w("DTSTART;VALUE=DATE:" + start.Format(dateLayout))
		w("DTEND;VALUE=DATE:" + start.AddDate(0, 0, 1).Format(dateLayout))
		w("SUMMARY:" + Escape(event.Summary))
		if event.Description != "" {
			w("DESCRIPTION:" + Escape(event.Description))
		}
		w("TRANSP:TRANSPARENT")
		if event.AlarmBefore > 0 {
			w("BEGIN:VALARM")
			w("ACTION:DISPLAY")
			w("DESCRIPTION:Certificate expiring soon")
			w("TRIGGER:" + durationBefore(event.AlarmBefore))
			w("END:VALARM")
		}
		w("END:VEVENT")
	}

	w("END:VCALENDAR")
	return buf.Bytes()
}

// Escape escapes a TEXT value.
func Escape(value string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		";", `\;`,
		",", `\,`,
		"\r\n", `\n`,
		"\n", `\n`,
		"\r", `\n`,
	)
	return replacer.Replace(value)
}

// durationBefore renders a negative trigger in whole days when possible.
func durationBefore(d time.Duration) string {
	const day = 24 * time.Hour
	if d%day == 0 {
		return "-P" + strconv.Itoa(int(d/day)) + "D"
	}
	minutes := int(d / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	return "-PT" + strconv.Itoa(minutes) + "M"
}

// writeFolded writes a content line, folding it at 75 octets without
// splitting a UTF-8 sequence.
func writeFolded(buf *bytes.Buffer, line string) {
	limit := maxLine
	for len(line) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(line[cut]) {
			cut--
		}
		buf.WriteString(line[:cut])
		buf.WriteString("\r\n ")
		line = line[cut:]
		// continuation lines lose one octet to the leading space
		limit = maxLine - 1
	}
	buf.WriteString(line)
	buf.WriteString("\r\n")
}
