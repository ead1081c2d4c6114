package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EntryNumberPeriod returns the "{PREFIX}-{YYYYMM}" part shared by all entry
// numbers of one prefix and month.
func EntryNumberPeriod(prefix string, at time.Time) string {
	return prefix + "-" + at.Format("200601")
}

// FormatEntryNumber renders "{PREFIX}-{YYYYMM}-{NNNN}". Sequences above 9999
// simply widen.
func FormatEntryNumber(prefix string, at time.Time, seq int64) string {
	return fmt.Sprintf("%s-%04d", EntryNumberPeriod(prefix, at), seq)
}

// EntryNumberSequence extracts the trailing sequence of an entry number that
// belongs to period. ok is false for numbers of other periods or formats.
func EntryNumberSequence(period, entryNumber string) (seq int64, ok bool) {
	rest, found := strings.CutPrefix(entryNumber, period+"-")
	if !found || rest == "" {
		return 0, false
	}

	n, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}

	return n, true
}
