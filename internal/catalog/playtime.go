package catalog

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Patterns are tried in order; the first one that matches wins.
var (
	dayHourPattern = regexp.MustCompile(`(\d+)\s*(?:天|days?|d)\s*(?:(\d+)\s*(?:小时|hours?|h))?`)
	hourMinPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:小时|hours?|h)\s*(?:(\d+)\s*(?:分钟|minutes?|min))?`)
	minutePattern  = regexp.MustCompile(`(\d+)\s*(?:分钟|minutes?|min)`)
	clockPattern   = regexp.MustCompile(`^(\d+):(\d+)$`)
	hoursPattern   = regexp.MustCompile(`^(\d+(?:\.\d+)?)$`)
)

// ParsePlayTime converts a free-text play time label into minutes.
// Supported forms: "25小时", "25h", "2天3小时", "2d3h", "150分钟", "150min",
// "1:30" (hours:minutes) and a bare number of hours. Anything else yields 0.
func ParsePlayTime(text string) int {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return 0
	}

	if m := dayHourPattern.FindStringSubmatch(normalized); m != nil {
		return atoi(m[1])*24*60 + atoi(m[2])*60
	}
	if m := hourMinPattern.FindStringSubmatch(normalized); m != nil {
		return int(math.Round(atof(m[1])*60)) + atoi(m[2])
	}
	if m := minutePattern.FindStringSubmatch(normalized); m != nil {
		return atoi(m[1])
	}
	if m := clockPattern.FindStringSubmatch(normalized); m != nil {
		return atoi(m[1])*60 + atoi(m[2])
	}
	if m := hoursPattern.FindStringSubmatch(normalized); m != nil {
		return int(math.Round(atof(m[1]) * 60))
	}
	return 0
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func atof(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
