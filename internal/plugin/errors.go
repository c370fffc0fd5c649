package plugin

import (
	"errors"
	"fmt"
)

var (
	ErrNotSensor         = errors.New("plugin: must be attached to a camera sensor")
	ErrNoSensorName      = errors.New("plugin: camera sensor has invalid name")
	ErrNoParentModel     = errors.New("plugin: parent model not found")
	ErrNoWorld           = errors.New("plugin: world not found")
	ErrNoTopic           = errors.New("plugin: no valid zoom topic")
	ErrAlreadyConfigured = errors.New("plugin: already configured")
)

// ConfigError reports the Configure stage that failed. The instance stays
// invalid for its lifetime.
type ConfigError struct {
	Stage string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("plugin: configure %s: %v", e.Stage, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }
