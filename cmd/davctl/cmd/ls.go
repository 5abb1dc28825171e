package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/davgate/apiclient"
	"go.uber.org/zap"
)

func NewLsCmd(c *Context) *cobra.Command {
	subc := &cobra.Command{
		Use:   "ls [path]",
		Short: "List a backend folder",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := "/"
			if len(args) > 0 {
				p = args[0]
			}
			return onRunLs(cmd.Context(), c, p)
		},
	}
	return subc
}

func onRunLs(ctx context.Context, c *Context, p string) error {
	start := time.Now()
	cli, err := c.Files(ctx)
	if err != nil {
		return err
	}
	items, err := cli.ListByPath(ctx, p)
	if err != nil {
		return fmt.Errorf("list folder failed, path:%s, err:%w", p, err)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, item := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", itemKind(item), itemSize(item), item.Modified().Local().Format(time.DateTime), item.Name)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	logutil.GetLogger(ctx).Debug("list folder succ", zap.String("path", p), zap.Int("count", len(items)), zap.Duration("cost", time.Since(start)))
	return nil
}

func itemKind(item *apiclient.File) string {
	if item.IsFolder() {
		return "d"
	}
	return "-"
}

func itemSize(item *apiclient.File) string {
	sz, ok := item.Size()
	if !ok {
		return "-"
	}
	return humanize.IBytes(uint64(sz))
}

func init() {
	register(NewLsCmd)
}
