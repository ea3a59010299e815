package config

import (
	"errors"
	"fmt"
	"strings"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeDispatcher runs the change-feed dispatcher.
	ServiceModeDispatcher ServiceMode = "dispatcher"
	// ServiceModeWorker runs the queue-draining worker pool.
	ServiceModeWorker ServiceMode = "worker"
	// ServiceModeReclaimer runs the visibility-timeout reclaimer.
	ServiceModeReclaimer ServiceMode = "reclaimer"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{ServiceModeDispatcher, ServiceModeWorker, ServiceModeReclaimer}
}

// ParseServices parses a comma-delimited string of service names and returns
// the enabled services. Unknown names fail parsing.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	for _, part := range strings.Split(servicesStr, ",") {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeDispatcher, ServiceModeWorker, ServiceModeReclaimer:
			services[mode] = true
		default:
			return nil, fmt.Errorf(
				"invalid service name: %q (valid options: dispatcher, worker, reclaimer)",
				serviceName,
			)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}
	return services, nil
}
