package tui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDate(t *testing.T) {
	madrid, err := time.LoadLocation("Europe/Madrid")
	if err != nil {
		madrid = time.FixedZone("CET", 3600)
	}

	testCases := []struct {
		name string
		in   time.Time
		loc  *time.Location
		want string
	}{
		{
			name: "utc",
			in:   time.Date(2025, 11, 7, 14, 5, 0, 0, time.UTC),
			loc:  time.UTC,
			want: "7 de noviembre de 2025, 14:05",
		},
		{
			name: "converted to the display zone",
			in:   time.Date(2025, 11, 7, 14, 5, 0, 0, time.UTC),
			loc:  madrid,
			want: "7 de noviembre de 2025, 15:05",
		},
		{
			name: "two digit hour",
			in:   time.Date(2024, 1, 31, 9, 3, 0, 0, time.UTC),
			loc:  time.UTC,
			want: "31 de enero de 2024, 09:03",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatDate(tc.in, tc.loc))
		})
	}
}

func TestWrapTextKeepsLineBreaks(t *testing.T) {
	assert.Equal(t, "uno\ndos", wrapText("uno\ndos", 20))
	assert.Equal(t, "una idea\nlarga", wrapText("una idea larga", 9))
	assert.Equal(t, "sin ancho", wrapText("sin ancho", 0))
}
