package trainer

import "fmt"

// ConfigError reports a missing or invalid configuration value. It is
// returned before any training work starts.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Reason)
}

// UnimplementedHookError reports that a concrete trainer did not
// supply a mandatory framework-specific hook. It surfaces at the
// hook's first invocation and aborts the run.
type UnimplementedHookError struct {
	Hook string
}

func (e *UnimplementedHookError) Error() string {
	return fmt.Sprintf("hook %s not implemented", e.Hook)
}

// ValidationPrereqError reports that validation was requested but no
// dev set was loaded. The run aborts before any model is persisted.
type ValidationPrereqError struct {
	PicklePath string
}

func (e *ValidationPrereqError) Error() string {
	return fmt.Sprintf("validation requested but no dev set was loaded from %s", e.PicklePath)
}
