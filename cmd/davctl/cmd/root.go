package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/davgate/apiclient"
	"github.com/xxxsen/davgate/cmd/davctl/config"
	"github.com/xxxsen/davgate/idp"
)

const (
	defaultConfigFileEnv = "DAVCTL_CONFIG"
)

var cmds []CreateFunc

type Context struct {
	Config *config.Config
	IdP    idp.IClient
	API    apiclient.IClient
}

// Login runs a password grant with the configured credential.
func (c *Context) Login(ctx context.Context) (*idp.Token, error) {
	if len(c.Config.Username) == 0 || len(c.Config.Password) == 0 {
		return nil, fmt.Errorf("no username or password found in config")
	}
	tk, err := c.IdP.PasswordGrant(ctx, c.Config.Username, c.Config.Password)
	if err != nil {
		return nil, fmt.Errorf("login failed, user:%s, err:%w", c.Config.Username, err)
	}
	return tk, nil
}

func (c *Context) Files(ctx context.Context) (apiclient.IFileClient, error) {
	tk, err := c.Login(ctx)
	if err != nil {
		return nil, err
	}
	return c.API.Bind(tk.AccessToken), nil
}

type CreateFunc func(ctx *Context) *cobra.Command

func register(cr CreateFunc) {
	cmds = append(cmds, cr)
}

func initContext(ctx *Context, cfgs []string) error {
	var c *config.Config
	var err error
	for _, cfg := range cfgs {
		if len(cfg) == 0 {
			continue
		}
		c, err = config.Parse(cfg)
		if err == nil {
			break
		}
	}
	if c == nil {
		return fmt.Errorf("no valid config file found, last err:%w", err)
	}
	ctx.Config = c
	logger.Init("", c.LogLevel, 0, 0, 0, true)
	idpClient, err := idp.New(idp.WithHost(c.IdPURL))
	if err != nil {
		return err
	}
	apiClient, err := apiclient.New(apiclient.WithHost(c.APIURL))
	if err != nil {
		return err
	}
	ctx.IdP = idpClient
	ctx.API = apiClient
	return nil
}

func NewRoot() *cobra.Command {
	var configFile string
	ctx := &Context{}
	var rootCmd = &cobra.Command{
		Use:   "davctl",
		Short: "davgate backend CLI tool",
	}
	for _, cr := range cmds {
		rootCmd.AddCommand(cr(ctx))
	}
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		envConfigFile, _ := os.LookupEnv(defaultConfigFileEnv)
		return initContext(ctx, []string{configFile, envConfigFile, "/etc/davctl/davctl_config.json"})
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file")
	return rootCmd
}
