package handlers

import (
	"strings"

	"github.com/google/uuid"

	"github.com/taufiksamantha-web/nongkrongr-sub002/internal/events"
	"github.com/taufiksamantha-web/nongkrongr-sub002/internal/notify"
)

// Shared wiring, set once from main before routes are served.
var (
	Bus           *events.Bus
	Notifications *notify.Registry
)

// Init wires the handlers to the change bus and the notification registry.
func Init(bus *events.Bus, registry *notify.Registry) {
	Bus = bus
	Notifications = registry
}

// slugify builds a URL slug from a title, suffixed for uniqueness.
func slugify(title string, id uuid.UUID) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ' || r == '-' || r == '_':
			return '-'
		default:
			return -1
		}
	}, s)
	s = strings.Trim(s, "-")
	if s == "" {
		s = "untitled"
	}
	return s + "-" + id.String()[:8]
}
