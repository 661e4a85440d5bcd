package util

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// MaxRangeValues bounds the number of values one range specification may
// expand to.
const MaxRangeValues = 4096

// ExpandRange expands a range specification into individual values
// Supports formats like:
//   - "1-5" -> [1, 2, 3, 4, 5]
//   - "1,3,5" -> [1, 3, 5]
//   - "1-3,5,7-9" -> [1, 2, 3, 5, 7, 8, 9]
//
// Specifications that would expand past MaxRangeValues are rejected before
// anything is allocated.
func ExpandRange(spec string) ([]int, error) {
	return expandRange(spec, nil)
}

// expandRange parses every part first, checking endpoints with check and the
// total size, and only then expands.
func expandRange(spec string, check func(int) error) ([]int, error) {
	if spec == "" {
		return nil, nil
	}

	type span struct{ start, end int }
	var spans []span
	total := 0
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		var sp span
		if strings.Contains(part, "-") {
			// Range: "1-5"
			rangeParts := strings.SplitN(part, "-", 2)
			start, err := strconv.Atoi(strings.TrimSpace(rangeParts[0]))
			if err != nil {
				return nil, fmt.Errorf("invalid start value in range %s: %v", part, err)
			}
			end, err := strconv.Atoi(strings.TrimSpace(rangeParts[1]))
			if err != nil {
				return nil, fmt.Errorf("invalid end value in range %s: %v", part, err)
			}
			if start > end {
				return nil, fmt.Errorf("start value %d greater than end value %d in range %s", start, end, part)
			}
			sp = span{start, end}
		} else {
			// Single value
			val, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("invalid value: %s", part)
			}
			sp = span{val, val}
		}

		if check != nil {
			if err := check(sp.start); err != nil {
				return nil, err
			}
			if err := check(sp.end); err != nil {
				return nil, err
			}
		}
		if sp.end-sp.start >= MaxRangeValues-total {
			return nil, fmt.Errorf("range %s expands to more than %d values", spec, MaxRangeValues)
		}
		total += sp.end - sp.start + 1
		spans = append(spans, sp)
	}

	result := make([]int, 0, total)
	for _, sp := range spans {
		for i := sp.start; i <= sp.end; i++ {
			result = append(result, i)
		}
	}

	// Sort and deduplicate
	sort.Ints(result)
	return dedupInts(result), nil
}

// CompactRange compacts a list of integers into range notation
// [1, 2, 3, 5, 7, 8, 9] -> "1-3,5,7-9"
func CompactRange(values []int) string {
	if len(values) == 0 {
		return ""
	}

	// Sort and deduplicate
	sorted := make([]int, len(values))
	copy(sorted, values)
	sort.Ints(sorted)
	sorted = dedupInts(sorted)

	var parts []string
	start := sorted[0]
	end := sorted[0]

	for i := 1; i < len(sorted); i++ {
		if sorted[i] == end+1 {
			end = sorted[i]
		} else {
			parts = append(parts, formatRange(start, end))
			start = sorted[i]
			end = sorted[i]
		}
	}
	parts = append(parts, formatRange(start, end))

	return strings.Join(parts, ",")
}

func formatRange(start, end int) string {
	if start == end {
		return strconv.Itoa(start)
	}
	return fmt.Sprintf("%d-%d", start, end)
}

func dedupInts(sorted []int) []int {
	if len(sorted) == 0 {
		return sorted
	}
	result := []int{sorted[0]}
	for i := 1; i < len(sorted); i++ {
		if sorted[i] != sorted[i-1] {
			result = append(result, sorted[i])
		}
	}
	return result
}

// ExpandPortRange expands the last path segment of a port range
// "0/1-4" -> ["0/1", "0/2", "0/3", "0/4"]
// "1/0/2" -> ["1/0/2"]
func ExpandPortRange(spec string) ([]string, error) {
	spec = strings.TrimSpace(spec)
	slash := strings.LastIndex(spec, "/")
	head, tail := "", spec
	if slash >= 0 {
		head, tail = spec[:slash+1], spec[slash+1:]
	}
	for _, seg := range strings.Split(strings.TrimSuffix(head, "/"), "/") {
		if seg == "" && head == "" {
			continue
		}
		if _, err := strconv.Atoi(seg); err != nil {
			return nil, fmt.Errorf("invalid slot %q in port range %s", seg, spec)
		}
	}
	if strings.Contains(tail, ",") {
		return nil, fmt.Errorf("invalid port range: %s", spec)
	}

	ports, err := ExpandRange(tail)
	if err != nil {
		return nil, fmt.Errorf("invalid port range %s: %v", spec, err)
	}
	if len(ports) == 0 {
		return nil, fmt.Errorf("empty port range: %s", spec)
	}

	result := make([]string, len(ports))
	for i, p := range ports {
		result[i] = fmt.Sprintf("%s%d", head, p)
	}
	return result, nil
}

// ValidateVLANID checks if a VLAN ID is in the usable range
func ValidateVLANID(id int) error {
	if id < 1 || id > 4094 {
		return fmt.Errorf("VLAN ID must be between 1 and 4094, got %d", id)
	}
	return nil
}

// ExpandVLANRange expands VLAN range notation
// "100-105,200" -> [100, 101, 102, 103, 104, 105, 200]
// Endpoints are validated before expansion.
func ExpandVLANRange(spec string) ([]int, error) {
	return expandRange(spec, ValidateVLANID)
}
