package transport

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/cheliu754/CS409-MP3/domain"
)

// UserRequest is a user create/replace payload. PendingTasks is a pointer so
// an omitted field (keep the stored set) is distinguishable from an explicit
// empty list (clear it).
type UserRequest struct {
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PendingTasks *[]string `json:"pendingTasks"`
}

// TaskRequest is a task create/replace payload. Deadline stays raw because
// clients send it as an ISO-8601 string, a numeric string of epoch
// milliseconds, or a bare number; DeadlineTime normalizes all three.
type TaskRequest struct {
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	Deadline         json.RawMessage `json:"deadline"`
	Completed        bool            `json:"completed"`
	AssignedUser     *string         `json:"assignedUser"`
	AssignedUserName *string         `json:"assignedUserName"`
}

// DeadlineTime normalizes the deadline to UTC. The second result is false
// when the field was absent or null.
func (r *TaskRequest) DeadlineTime() (time.Time, bool, error) {
	raw := strings.TrimSpace(string(r.Deadline))
	if raw == "" || raw == "null" {
		return time.Time{}, false, nil
	}

	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(r.Deadline, &s); err != nil {
			return time.Time{}, false, domain.Invalidf("deadline: %v", err)
		}
		return parseDeadlineString(s)
	}

	var ms float64
	if err := json.Unmarshal(r.Deadline, &ms); err != nil {
		return time.Time{}, false, domain.Invalidf("deadline must be a timestamp string or number")
	}
	return time.UnixMilli(int64(ms)).UTC(), true, nil
}

func parseDeadlineString(s string) (time.Time, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false, nil
	}

	// numeric string of epoch milliseconds
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), true, nil
	}

	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true, nil
		}
	}
	return time.Time{}, false, domain.Invalidf("deadline %q is not an ISO-8601 timestamp or epoch milliseconds", s)
}
