package main

import (
	"fmt"
	"strings"

	"wordreel/internal/config"
)

// commandContext resolves shared flags lazily so commands that never touch
// the daemon (config init, help) do not require a reachable server or a
// valid config file.
type commandContext struct {
	serverFlag *string
	configFlag *string

	cfg *config.Config
}

func newCommandContext(serverFlag, configFlag *string) *commandContext {
	return &commandContext{serverFlag: serverFlag, configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, _, _, err := config.Load(c.configValue())
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

func (c *commandContext) configValue() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

// client builds an API client. An explicit --server wins; otherwise the bind
// address from the config file is used.
func (c *commandContext) client() (*client, error) {
	if c.serverFlag != nil {
		if addr := strings.TrimSpace(*c.serverFlag); addr != "" {
			return newClient(addr), nil
		}
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, fmt.Errorf("resolve daemon address: %w", err)
	}
	return newClient(cfg.Paths.APIBind), nil
}
