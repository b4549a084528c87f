package monitor

import "time"

type Status struct {
	Store        bool      `json:"store"`
	Redis        bool      `json:"redis"`
	RedisEnabled bool      `json:"redis_enabled"`
	Users        int       `json:"users"`
	Tasks        int       `json:"tasks"`
	LastCheck    time.Time `json:"last_check"`
}
