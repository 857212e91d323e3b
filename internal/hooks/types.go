package hooks

// Hook is a shell command run after a build writes its files.
type Hook struct {
	Command string `mapstructure:"command" yaml:"command"`
	Timeout int    `mapstructure:"timeout" yaml:"timeout"` // seconds, default 30
}

// Enabled reports whether the hook has a command to run.
func (h Hook) Enabled() bool {
	return h.Command != ""
}

// DefaultTimeout is the default timeout for hook execution in seconds.
const DefaultTimeout = 30
