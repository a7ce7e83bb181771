package config

import "reflect"

// ConfigDiff describes what changed between two configs.
// Only the log level can be applied without a restart; every other change
// is listed in RestartRequired.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// RestartRequired names the sections whose changes only take effect
	// after a restart (e.g. "storage").
	RestartRequired []string
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	// Log level
	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	oldServer, newServer := old.Server, new.Server
	oldServer.LogLevel, newServer.LogLevel = "", ""
	if !reflect.DeepEqual(oldServer, newServer) {
		d.RestartRequired = append(d.RestartRequired, "server")
	}
	if old.Storage != new.Storage {
		d.RestartRequired = append(d.RestartRequired, "storage")
	}
	if old.Catalog != new.Catalog {
		d.RestartRequired = append(d.RestartRequired, "catalog")
	}
	if !reflect.DeepEqual(old.Telemetry, new.Telemetry) {
		d.RestartRequired = append(d.RestartRequired, "telemetry")
	}

	return d
}
