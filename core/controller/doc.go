// Package controller runs the charging lifecycle: it consumes the
// planner's schedule, issues start/stop commands through the actuator
// gateway, and supervises the charge with stall detection and bounded
// retry on failed start commands. Callers must serialize all handler
// invocations; the host's event loop does this.
package controller
