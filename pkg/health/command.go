package health

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cuemby/hacluster/pkg/crm"
)

// CommandChecker runs a local command; it is healthy when the command exits
// zero and, if Contains is set, its output contains that text
type CommandChecker struct {
	// Command is the command to execute (e.g., ["systemctl", "is-active", "corosync"])
	Command []string

	// Contains is the text the output must include
	Contains string

	// Timeout is the command execution timeout (default: 10 seconds)
	Timeout time.Duration

	runner crm.Runner
}

// NewCommandChecker creates a new command health checker
func NewCommandChecker(runner crm.Runner, command ...string) *CommandChecker {
	return &CommandChecker{
		Command: command,
		Timeout: 10 * time.Second,
		runner:  runner,
	}
}

// NewServiceChecker reports whether a systemd unit is active
func NewServiceChecker(runner crm.Runner, unit string) *CommandChecker {
	return NewCommandChecker(runner, "systemctl", "is-active", "--quiet", unit)
}

// NewMembershipChecker reports whether hostname is a cluster member
func NewMembershipChecker(runner crm.Runner, hostname string) *CommandChecker {
	return NewCommandChecker(runner, append([]string{crm.Command}, crm.NodeListArgs...)...).WithContains(hostname)
}

// Check performs the command health check
func (c *CommandChecker) Check(ctx context.Context) Result {
	start := time.Now()

	if len(c.Command) == 0 {
		return failed(start, "no command specified")
	}

	execCtx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	cmdline := strings.Join(c.Command, " ")
	out, err := c.runner.Run(execCtx, c.Command[0], c.Command[1:]...)
	if err != nil {
		return failed(start, fmt.Sprintf("%s: %v", cmdline, err))
	}
	if c.Contains != "" && !strings.Contains(string(out), c.Contains) {
		return failed(start, fmt.Sprintf("%s: %q not listed", cmdline, c.Contains))
	}

	return Result{
		Healthy:   true,
		Message:   cmdline + ": ok",
		CheckedAt: start,
		Duration:  time.Since(start),
	}
}

// Type returns the health check type
func (c *CommandChecker) Type() CheckType {
	return CheckTypeCommand
}

// WithContains sets the text the output must include
func (c *CommandChecker) WithContains(s string) *CommandChecker {
	c.Contains = s
	return c
}

// WithTimeout sets the execution timeout
func (c *CommandChecker) WithTimeout(timeout time.Duration) *CommandChecker {
	c.Timeout = timeout
	return c
}
