package entity

import "fmt"

// OnlineStatus is a presence status.
type OnlineStatus string

const (
	StatusOnline    OnlineStatus = "online"
	StatusIdle      OnlineStatus = "idle"
	StatusDND       OnlineStatus = "dnd"
	StatusInvisible OnlineStatus = "invisible"
	StatusOffline   OnlineStatus = "offline"
)

// Valid reports whether s is a known status.
func (s OnlineStatus) Valid() bool {
	switch s {
	case StatusOnline, StatusIdle, StatusDND, StatusInvisible, StatusOffline:
		return true
	}
	return false
}

// ParseOnlineStatus parses a wire status string.
func ParseOnlineStatus(raw string) (OnlineStatus, error) {
	s := OnlineStatus(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown online status %q", raw)
	}
	return s, nil
}
