package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// FormatCountdown renders d as HH:MM:SS, rounding partial seconds up.
func FormatCountdown(d time.Duration) string {
	if d <= 0 {
		return "00:00:00"
	}
	total := int64((d + time.Second - 1) / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

var cooldownUnits = []struct {
	pattern *regexp.Regexp
	unit    time.Duration
}{
	{regexp.MustCompile(`(\d+)\s*小时`), time.Hour},
	{regexp.MustCompile(`(\d+)\s*分钟`), time.Minute},
	{regexp.MustCompile(`(\d+)\s*秒`), time.Second},
}

const (
	cooldownWaitPrefix = "等待"
	cooldownWaitSuffix = "后"
)

// ParseCooldownWait extracts the remaining wait from the work page notice, e.g.
// "您需要等待3小时12分钟5秒后即可进行。". Any subset of the units may be present.
func ParseCooldownWait(text string) (time.Duration, bool) {
	_, rest, found := strings.Cut(text, cooldownWaitPrefix)
	if !found {
		return 0, false
	}
	if head, _, ok := strings.Cut(rest, cooldownWaitSuffix); ok {
		rest = head
	}

	var (
		total   time.Duration
		matched bool
	)
	for _, u := range cooldownUnits {
		m := u.pattern.FindStringSubmatch(rest)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, false
		}
		total += time.Duration(n) * u.unit
		matched = true
	}

	return total, matched
}
