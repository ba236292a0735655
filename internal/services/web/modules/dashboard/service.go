package dashboard

import (
	"strings"

	module "github.com/casanorte/casanorte/internal/services/web/module"
)

// fallbackGreetingName is used when nothing better is known about the viewer.
const fallbackGreetingName = "User"

// DashboardView is the dashboard view model.
type DashboardView struct {
	GreetingName string
	Checks       []Check
	PollSeconds  int
}

type service struct {
	health HealthSource
}

func newService(health HealthSource) service {
	return service{health: health}
}

func (s service) loadDashboard(viewer module.Viewer) DashboardView {
	return DashboardView{
		GreetingName: greetingName(viewer),
		Checks:       s.checks(),
		PollSeconds:  s.pollSeconds(),
	}
}

func (s service) checks() []Check {
	if s.health == nil {
		return nil
	}
	return s.health.Snapshot()
}

func (s service) pollSeconds() int {
	interval := DefaultHealthInterval
	if monitor, ok := s.health.(*Monitor); ok && monitor != nil {
		interval = monitor.Interval()
	}
	seconds := int(interval.Seconds())
	if seconds < 1 {
		return 1
	}
	return seconds
}

// greetingName prefers the full name, then the display name, then the email.
func greetingName(viewer module.Viewer) string {
	full := strings.TrimSpace(strings.TrimSpace(viewer.FirstName) + " " + strings.TrimSpace(viewer.LastName))
	if full != "" {
		return full
	}
	if name := strings.TrimSpace(viewer.DisplayName); name != "" {
		return name
	}
	if email := strings.TrimSpace(viewer.Email); email != "" {
		return email
	}
	return fallbackGreetingName
}
