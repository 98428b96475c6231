package main

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"narrator/internal/api"
	"narrator/internal/config"
)

type commandContext struct {
	configFlag *string
	apiFlag    *string

	configOnce sync.Once
	config     *config.Config
	configPath   string
	configExists bool
	configErr    error
}

func newCommandContext(configFlag, apiFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		apiFlag:    apiFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, exists, err := config.Load(c.configFlagValue())
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = path
		c.configExists = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) configFlagValue() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) apiFlagValue() string {
	if c.apiFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.apiFlag)
}

func (c *commandContext) apiAddress() (string, error) {
	if addr := c.apiFlagValue(); addr != "" {
		return addr, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return "", err
	}
	return cfg.API.Bind, nil
}

func (c *commandContext) withClient(fn func(*api.Client) error) error {
	addr, err := c.apiAddress()
	if err != nil {
		return err
	}
	client, err := api.NewClient(addr)
	if err != nil {
		return err
	}
	return wrapAPIError(fn(client), client.BaseURL())
}

func wrapAPIError(err error, base string) error {
	if err == nil {
		return nil
	}
	var statusErr *api.StatusError
	switch {
	case api.IsUnavailable(err):
		return fmt.Errorf("connect to daemon at %s: not reachable; start it with `narrator serve`", base)
	case errors.As(err, &statusErr) && statusErr.Message != "":
		return errors.New(statusErr.Message)
	default:
		return err
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
