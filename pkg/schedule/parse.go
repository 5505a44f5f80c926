package schedule

import (
	"regexp"
	"strconv"
)

// deletionPattern matches a Sonarr or Radarr deletion candidate. Janitorr writes
// the age as "[45}]"; the stray brace is tolerated but not required. The age
// bracket must end the line so titles containing "[2019]" stay intact.
var deletionPattern = regexp.MustCompile(
	`(\d{4}-\d{2}-\d{2})T.*?\[.*?\] .*?(?:Sonarr|Radarr)RestService\s*: Deleting (.*?) \[(\d+)\}?\]\s*$`,
)

type candidate struct {
	date  Date
	title string
	age   int
}

// matchLine extracts a deletion candidate from a log line.
func matchLine(line string) (candidate, bool) {
	m := deletionPattern.FindStringSubmatch(line)
	if m == nil {
		return candidate{}, false
	}

	date, err := ParseDate(m[1])
	if err != nil {
		return candidate{}, false
	}
	age, err := strconv.Atoi(m[3])
	if err != nil {
		return candidate{}, false
	}
	return candidate{date: date, title: m[2], age: age}, true
}
