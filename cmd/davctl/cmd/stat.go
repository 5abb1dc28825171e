package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/retry"
	"github.com/xxxsen/davgate/apiclient"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func NewStatCmd(c *Context) *cobra.Command {
	subc := &cobra.Command{
		Use:   "stat path...",
		Short: "Resolve backend paths in parallel",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return onRunStat(cmd.Context(), c, args)
		},
	}
	return subc
}

func onRunStat(ctx context.Context, c *Context, paths []string) error {
	cli, err := c.Files(ctx)
	if err != nil {
		return err
	}
	rs := make([]*apiclient.File, len(paths))
	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(c.Config.Thread)
	for idx, p := range paths {
		eg.Go(func() error {
			return retry.RetryDo(ectx, 3, time.Second, func(ctx context.Context) error {
				item, err := cli.GetByPath(ctx, p)
				if errors.Is(err, os.ErrNotExist) {
					logutil.GetLogger(ctx).Warn("path not found", zap.String("path", p))
					return nil
				}
				if err != nil {
					return err
				}
				rs[idx] = item
				return nil
			})
		})
	}
	if err := eg.Wait(); err != nil {
		return fmt.Errorf("stat paths failed, err:%w", err)
	}
	for idx, item := range rs {
		if item == nil {
			fmt.Printf("%s: not found\n", paths[idx])
			continue
		}
		fmt.Printf("%s: id=%s type=%s size=%s permission=%s modified=%s\n", paths[idx], item.ID, item.Type,
			itemSize(item), item.Permission, item.Modified().Local().Format(time.RFC3339))
	}
	return nil
}

func init() {
	register(NewStatCmd)
}
