package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/xxxsen/davgate/session"
)

func NewTokenCmd(c *Context) *cobra.Command {
	var showToken bool
	subc := &cobra.Command{
		Use:   "token",
		Short: "Login with the configured credential and show the token expiry",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return onRunToken(cmd.Context(), c, showToken)
		},
	}
	subc.PersistentFlags().BoolVar(&showToken, "show", false, "print the access token")
	return subc
}

func onRunToken(ctx context.Context, c *Context, showToken bool) error {
	tk, err := c.Login(ctx)
	if err != nil {
		return err
	}
	now := time.Now()
	exp := session.ExpiryOf(tk, now)
	fmt.Printf("user:       %s\n", c.Config.Username)
	fmt.Printf("expires at: %s (in %s)\n", exp.Format(time.RFC3339), exp.Sub(now).Round(time.Second))
	fmt.Printf("refreshable: %t\n", len(tk.RefreshToken) > 0)
	if showToken {
		fmt.Printf("token:      %s\n", tk.AccessToken)
	}
	return nil
}

func init() {
	register(NewTokenCmd)
}
