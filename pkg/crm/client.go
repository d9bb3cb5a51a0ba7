package crm

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/coreos/go-semver/semver"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/cuemby/hacluster/pkg/log"
	"github.com/cuemby/hacluster/pkg/metrics"
)

// Client inspects and mutates the live cluster through the crm shell
type Client struct {
	runner Runner
	fs     afero.Fs
	logger zerolog.Logger

	mu      sync.Mutex
	version *semver.Version
	dialect *propertyDialect
	journal []string
}

// NewClient creates a client. fs holds the temporary files handed to
// configure load.
func NewClient(runner Runner, fs afero.Fs) *Client {
	return &Client{
		runner: runner,
		fs:     fs,
		logger: log.WithComponent("crm"),
	}
}

func (c *Client) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	c.logger.Debug().Str("cmd", joinCmd(name, args)).Msg("Running")
	return c.runner.Run(ctx, name, args...)
}

// mutate runs a command that changes cluster state. Every such command is
// logged, counted and appended to the journal.
func (c *Client) mutate(ctx context.Context, name string, args ...string) error {
	line := joinCmd(name, args)
	verb := verbOf(name, args)

	c.mu.Lock()
	c.journal = append(c.journal, line)
	c.mu.Unlock()

	c.logger.Info().Str("cmd", line).Msg("Applying cluster change")
	if _, err := c.runner.Run(ctx, name, args...); err != nil {
		metrics.CommandsTotal.WithLabelValues(verb, "failure").Inc()
		return err
	}
	metrics.CommandsTotal.WithLabelValues(verb, "success").Inc()
	return nil
}

// Journal returns every mutating command issued so far, in order
func (c *Client) Journal() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.journal...)
}

var versionRe = regexp.MustCompile(`(\d+)\.(\d+)(?:\.(\d+))?`)

func parseVersion(banner string) (*semver.Version, error) {
	m := versionRe.FindStringSubmatch(banner)
	if m == nil {
		return nil, fmt.Errorf("no version in %q", strings.TrimSpace(banner))
	}
	patch := m[3]
	if patch == "" {
		patch = "0"
	}
	return semver.NewVersion(m[1] + "." + m[2] + "." + patch)
}

// Version returns the crm shell version, e.g. from "crm 2.2.0" or
// "1.2.5 (Build f2f315da...)". The result is cached.
func (c *Client) Version(ctx context.Context) (*semver.Version, error) {
	c.mu.Lock()
	if c.version != nil {
		defer c.mu.Unlock()
		return c.version, nil
	}
	c.mu.Unlock()

	out, err := c.run(ctx, Command, VersionArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to read crm version: %w", err)
	}
	v, err := parseVersion(string(out))
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.version = v
	c.mu.Unlock()
	return v, nil
}

type propertyDialect struct {
	name       string
	minVersion semver.Version
	get        func(c *Client, ctx context.Context, name string) (string, error)
}

// Newest first; the last entry applies to every version
var propertyDialects = []propertyDialect{
	{name: "get-property", minVersion: *semver.New("2.4.0"), get: commandProperty(GetPropertyArgs)},
	{name: "show-property", minVersion: *semver.New("2.2.0"), get: commandProperty(ShowPropertyArgs)},
	{name: "cib-xml", minVersion: *semver.New("0.0.0"), get: (*Client).xmlProperty},
}

func dialectFor(v *semver.Version) *propertyDialect {
	for i := range propertyDialects {
		if !v.LessThan(propertyDialects[i].minVersion) {
			return &propertyDialects[i]
		}
	}
	return &propertyDialects[len(propertyDialects)-1]
}

func commandProperty(argsFn func(string) []string) func(c *Client, ctx context.Context, name string) (string, error) {
	return func(c *Client, ctx context.Context, name string) (string, error) {
		out, err := c.run(ctx, Command, argsFn(name)...)
		if err != nil {
			return "", err
		}
		value := strings.TrimSpace(string(out))
		if value == "" {
			return "", fmt.Errorf("%w: %s", ErrPropertyNotFound, name)
		}
		return value, nil
	}
}

func (c *Client) xmlProperty(ctx context.Context, name string) (string, error) {
	dump, err := c.run(ctx, Command, ShowXMLArgs...)
	if err != nil {
		return "", err
	}
	value, err := propertyFromCIB(dump, name)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(value), nil
}

// Property reads a cluster property using the strategy the installed crm
// shell supports
func (c *Client) Property(ctx context.Context, name string) (string, error) {
	c.mu.Lock()
	dialect := c.dialect
	c.mu.Unlock()

	if dialect == nil {
		v, err := c.Version(ctx)
		if err != nil {
			return "", err
		}
		dialect = dialectFor(v)
		c.mu.Lock()
		c.dialect = dialect
		c.mu.Unlock()
		c.logger.Debug().Str("version", v.String()).Str("dialect", dialect.name).Msg("Selected property dialect")
	}
	return dialect.get(c, ctx, name)
}

// SetProperty writes a cluster property
func (c *Client) SetProperty(ctx context.Context, name, value string) error {
	return c.mutate(ctx, Command, SetPropertyArgs(name, value)...)
}

// ObjectExists reports whether a configuration object with the id exists.
// A failed configuration dump is an error, not absence.
func (c *Client) ObjectExists(ctx context.Context, name string) (bool, error) {
	dump, err := c.run(ctx, Command, ShowXMLArgs...)
	if err != nil {
		return false, fmt.Errorf("failed to dump cluster configuration: %w", err)
	}
	return objectInCIB(dump, name)
}

// ResourceRunning reports whether the resource runs anywhere. A failed
// status query counts as not running.
func (c *Client) ResourceRunning(ctx context.Context, name string) bool {
	out, err := c.run(ctx, Command, ResourceStatusArgs(name)...)
	if err != nil {
		return false
	}
	return strings.Contains(string(out), "is running on")
}

// ListNodes returns the member node names, remote nodes excluded
func (c *Client) ListNodes(ctx context.Context) ([]string, error) {
	out, err := c.run(ctx, Command, NodeStatusArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to list cluster nodes: %w", err)
	}
	return memberNodes(out)
}

// HasNode reports whether hostname shows up in the node list
func (c *Client) HasNode(ctx context.Context, hostname string) bool {
	out, err := c.run(ctx, Command, NodeListArgs...)
	if err != nil {
		return false
	}
	return strings.Contains(string(out), hostname)
}

// RemoteResources returns the ids of the configured remote node connection
// resources
func (c *Client) RemoteResources(ctx context.Context) ([]string, error) {
	dump, err := c.run(ctx, Command, ShowXMLArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to dump cluster configuration: %w", err)
	}
	return remoteResourcesInCIB(dump)
}

// ResourceMeta reads a meta attribute of a resource
func (c *Client) ResourceMeta(ctx context.Context, resource, key string) (string, error) {
	out, err := c.run(ctx, ResourceCommand, GetMetaArgs(resource, key)...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// ResourceParam reads an instance parameter of a primitive
func (c *Client) ResourceParam(ctx context.Context, resource, key string) (string, error) {
	out, err := c.run(ctx, ResourceCommand, GetParamArgs(resource, key)...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// SetResourceMeta writes a meta attribute of a resource
func (c *Client) SetResourceMeta(ctx context.Context, resource, key, value string) error {
	return c.mutate(ctx, ResourceCommand, SetMetaArgs(resource, key, value)...)
}

// Cleanup clears the failure history of a resource
func (c *Client) Cleanup(ctx context.Context, resource string) error {
	return c.mutate(ctx, Command, CleanupArgs(resource)...)
}

// Commit runs a crm command line. The command is split on whitespace only;
// quotes are handed to crm untouched since it re-parses its arguments.
func (c *Client) Commit(ctx context.Context, cmd string) error {
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return errors.New("empty command")
	}
	return c.mutate(ctx, fields[0], fields[1:]...)
}

// UpdateResource replaces the definition of an existing primitive
func (c *Client) UpdateResource(ctx context.Context, name, agent, params string) error {
	f, err := afero.TempFile(c.fs, "", "crm-update-")
	if err != nil {
		return fmt.Errorf("failed to create update file: %w", err)
	}
	path := f.Name()
	defer c.fs.Remove(path)

	content := fmt.Sprintf("primitive %s %s \\\n\t%s", name, agent, params)
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return fmt.Errorf("failed to write update file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write update file: %w", err)
	}

	return c.mutate(ctx, Command, LoadUpdateArgs(path)...)
}

// DeleteNode removes a node from the cluster membership
func (c *Client) DeleteNode(ctx context.Context, hostname string) error {
	return c.mutate(ctx, Command, DeleteNodeArgs(hostname)...)
}

func joinCmd(name string, args []string) string {
	return strings.Join(append([]string{name}, args...), " ")
}

// verbOf names a command for metrics: the first two non-flag arguments,
// e.g. "configure_primitive" or "resource_cleanup"
func verbOf(name string, args []string) string {
	if name != Command {
		return name
	}
	var words []string
	for _, arg := range args {
		if strings.HasPrefix(arg, "-") {
			continue
		}
		words = append(words, arg)
		if len(words) == 2 {
			break
		}
	}
	if len(words) == 0 {
		return name
	}
	return strings.Join(words, "_")
}
