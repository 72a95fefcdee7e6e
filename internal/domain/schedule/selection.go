package schedule

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// WorkingDays is a set of weekdays stored as a bitmask, bit 0 = Sunday.
type WorkingDays uint8

const AllDays WorkingDays = 0x7f

func NewWorkingDays(days ...time.Weekday) WorkingDays {
	var w WorkingDays
	for _, d := range days {
		w |= 1 << uint(d)
	}
	return w
}

func (w WorkingDays) Contains(d time.Weekday) bool {
	return w&(1<<uint(d)) != 0
}

func (w WorkingDays) Days() []time.Weekday {
	days := make([]time.Weekday, 0, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if w.Contains(d) {
			days = append(days, d)
		}
	}
	return days
}

// ParseWorkingDays reads a JSON array (or comma separated list) of weekday indices,
// 0=Sunday..6=Saturday, with 7 also accepted for Sunday. Unknown entries are ignored.
// An unset, empty or unreadable value yields AllDays.
func ParseWorkingDays(raw string) WorkingDays {
	var w WorkingDays
	for _, n := range parseIntList(raw) {
		if n == 7 {
			n = 0
		}
		if n >= 0 && n <= 6 {
			w |= 1 << uint(n)
		}
	}
	if w == 0 {
		return AllDays
	}
	return w
}

// BranchSelection lists the branches an employee may check in at.
// An empty list means the nearest of any active branch.
type BranchSelection struct {
	IDs []int64
}

func (s BranchSelection) AnyBranch() bool {
	return len(s.IDs) == 0
}

// ParseBranchSelection reads a JSON array or comma separated list of branch ids.
// "", "any", "all", "nearest" and unreadable values select the nearest of any branch.
func ParseBranchSelection(raw string) BranchSelection {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "any", "all", "nearest", "null":
		return BranchSelection{}
	}
	var ids []int64
	seen := make(map[int64]struct{})
	for _, n := range parseIntList(raw) {
		if n <= 0 {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		ids = append(ids, n)
	}
	return BranchSelection{IDs: ids}
}

func parseIntList(raw string) []int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	if strings.HasPrefix(raw, "[") {
		var values []json.RawMessage
		if err := json.Unmarshal([]byte(raw), &values); err != nil {
			return nil
		}
		out := make([]int64, 0, len(values))
		for _, v := range values {
			s := strings.Trim(string(v), `"`)
			if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
				out = append(out, n)
			}
		}
		return out
	}

	var out []int64
	for _, part := range strings.Split(raw, ",") {
		if n, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64); err == nil {
			out = append(out, n)
		}
	}
	return out
}
