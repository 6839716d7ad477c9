package instance

import "github.com/campusnet/campus-api/pkg/env"

// ID identifies this process in logs: the platform dyno name, then the
// container hostname, then "local".
func ID() string {
	if id := env.Get("DYNO", ""); id != "" {
		return id
	}
	return env.Get("HOSTNAME", "local")
}
