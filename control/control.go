// control/control.go
// Author: momentics <momentics@gmail.com>
//
// Control bundles metrics, config and debug probes behind one Stats view.

package control

// Control is the runtime introspection surface of a server.
type Control struct {
	config  *ConfigStore
	metrics *MetricsRegistry
	debug   *DebugProbes
}

// New returns a Control with platform probes pre-registered.
func New() *Control {
	c := &Control{
		config:  NewConfigStore(),
		metrics: NewMetricsRegistry(),
		debug:   NewDebugProbes(),
	}
	RegisterPlatformProbes(c.debug)
	return c
}

// Metrics returns the counter registry.
func (c *Control) Metrics() *MetricsRegistry { return c.metrics }

// SetConfig records effective configuration values.
func (c *Control) SetConfig(cfg map[string]any) { c.config.SetConfig(cfg) }

// GetConfig returns the recorded configuration.
func (c *Control) GetConfig() map[string]any { return c.config.GetSnapshot() }

// RegisterDebugProbe adds a named probe.
func (c *Control) RegisterDebugProbe(name string, fn func() any) {
	c.debug.RegisterProbe(name, fn)
}

// Stats merges metrics, "config."-prefixed config and "debug."-prefixed probes.
func (c *Control) Stats() map[string]any {
	combined := c.metrics.GetSnapshot()
	for k, v := range c.config.GetSnapshot() {
		combined["config."+k] = v
	}
	for k, v := range c.debug.DumpState() {
		combined["debug."+k] = v
	}
	return combined
}
