package util

import (
	"strings"
	"time"
)

var dateTplReplacer = strings.NewReplacer(
	"YYYY", "2006",
	"YY", "06",
	"MM", "01",
	"DD", "02",
	"hh", "15",
	"mm", "04",
	"ss", "05",
)

// FormatDateTpl formats t using a template with placeholders:
// YYYY, YY, MM, DD, hh, mm, ss.
//
//	FormatDateTpl(t, "YYYY.MM.DD")       // "2023.11.10"
//	FormatDateTpl(t, "YYYY-MM-DD hh:mm") // "2023-11-10 00:00"
//
// The zero time formats as "".
func FormatDateTpl(t time.Time, tpl string) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateTplReplacer.Replace(tpl))
}

// FormatCompactDate reformats a compact YYYYMMDD date such as an upload date
// reported by yt-dlp. Input that does not parse is returned unchanged.
func FormatCompactDate(raw, tpl string) string {
	t, err := time.Parse("20060102", raw)
	if err != nil {
		return raw
	}
	return FormatDateTpl(t, tpl)
}
