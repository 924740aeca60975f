package devops

import (
	"time"

	"github.com/BishopFox/devopsfox/globals"
)

// Hosts are the service hosts of the different API families.
type Hosts struct {
	Core       string
	Release    string
	Extensions string
	Feeds      string
}

// Config is passed explicitly to every fetcher of a run.
type Config struct {
	// APIVersion is used by every resource type without a pinned preview version.
	APIVersion     string
	WorkItemLimit  int
	PullRequestTop int
	Timeout        time.Duration
	Retries        int
	MaxGoroutines  int
	Hosts          Hosts
}

func DefaultHosts() Hosts {
	return Hosts{
		Core:       globals.DEVOPS_CORE_HOST,
		Release:    globals.DEVOPS_RELEASE_HOST,
		Extensions: globals.DEVOPS_EXTENSIONS_HOST,
		Feeds:      globals.DEVOPS_FEEDS_HOST,
	}
}

func DefaultConfig() Config {
	return Config{
		APIVersion:     globals.DEVOPS_DEFAULT_API_VERSION,
		WorkItemLimit:  globals.DEVOPS_DEFAULT_WORK_ITEM_LIMIT,
		PullRequestTop: globals.DEVOPS_DEFAULT_PULL_REQUEST_TOP,
		Timeout:        60 * time.Second,
		Retries:        2,
		MaxGoroutines:  10,
		Hosts:          DefaultHosts(),
	}
}

// withDefaults fills every zero field from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.APIVersion == "" {
		c.APIVersion = d.APIVersion
	}
	if c.WorkItemLimit <= 0 {
		c.WorkItemLimit = d.WorkItemLimit
	}
	if c.PullRequestTop <= 0 {
		c.PullRequestTop = d.PullRequestTop
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.Retries < 0 {
		c.Retries = 0
	}
	if c.MaxGoroutines <= 0 {
		c.MaxGoroutines = d.MaxGoroutines
	}
	if c.Hosts.Core == "" {
		c.Hosts.Core = d.Hosts.Core
	}
	if c.Hosts.Release == "" {
		c.Hosts.Release = d.Hosts.Release
	}
	if c.Hosts.Extensions == "" {
		c.Hosts.Extensions = d.Hosts.Extensions
	}
	if c.Hosts.Feeds == "" {
		c.Hosts.Feeds = d.Hosts.Feeds
	}
	return c
}

// version returns the pinned preview version or the configured default.
func (c Config) version(pinned string) string {
	if pinned != "" {
		return pinned
	}
	return c.APIVersion
}
