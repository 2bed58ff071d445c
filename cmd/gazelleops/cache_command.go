package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"gazelleops/internal/processed"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and edit the resume cache",
	}
	cmd.AddCommand(newCacheListCommand(ctx))
	cmd.AddCommand(newCacheSkipCommand(ctx))
	cmd.AddCommand(newCacheClearCommand(ctx))
	return cmd
}

func (c *commandContext) withStore(fn func(*processed.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := processed.Open(cfg.CachePath(), nil)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached torrent ids",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *processed.Store) error {
				entries, err := store.All(cmd.Context())
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					cmd.Println("resume cache is empty")
					return nil
				}
				rows := make([][]string, 0, len(entries))
				for _, entry := range entries {
					when := ""
					if !entry.CreatedAt.IsZero() {
						when = entry.CreatedAt.Format("2006-01-02 15:04")
					}
					rows = append(rows, []string{
						strconv.FormatInt(entry.TorrentID, 10),
						entry.Status,
						when,
					})
				}
				cmd.Println(renderTable(
					[]column{{title: "Torrent", numeric: true}, {title: "Status"}, {title: "Recorded"}},
					rows,
				))
				return nil
			})
		},
	}
}

func newCacheSkipCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "skip <torrent-id>...",
		Short: "Mark torrents handled without doing any work",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			return ctx.withStore(func(store *processed.Store) error {
				if err := store.MarkSkipped(cmd.Context(), ids...); err != nil {
					return err
				}
				cmd.Printf("marked %d torrent(s) skipped\n", len(ids))
				return nil
			})
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget every cached torrent",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *processed.Store) error {
				if err := store.Clear(cmd.Context()); err != nil {
					return err
				}
				cmd.Println("resume cache cleared")
				return nil
			})
		},
	}
}
