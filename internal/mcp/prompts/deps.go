// Package prompts contains MCP prompt implementations for the PMS inspector.
package prompts

// Config holds configuration needed by prompts.
type Config struct {
	// Mode is "mock" or "live".
	Mode          string
	HistoryLimit  int
	ExportEnabled bool
}

func (c *Config) live() bool {
	return c != nil && c.Mode == "live"
}
