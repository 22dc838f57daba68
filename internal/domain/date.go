package domain

import "time"

// DateLayout is the dd.mm.yyyy format used for creation and publication dates.
const DateLayout = "02.01.2006"

// FormatDate renders t in DateLayout.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
