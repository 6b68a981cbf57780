package tui

import (
	"time"

	"github.com/goodsign/monday"
	"github.com/muesli/reflow/wordwrap"
)

const dateLayout = "2 de January de 2006, 15:04"

// FormatDate renders t in loc the way the es-ES locale writes a long date with time,
// e.g. "7 de noviembre de 2025, 14:05"
func FormatDate(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return monday.Format(t.In(loc), dateLayout, monday.LocaleEsES)
}

// wrapText wraps text to fit within width, keeping its own line breaks
func wrapText(text string, width int) string {
	if width <= 0 {
		return text
	}
	return wordwrap.String(text, width)
}
