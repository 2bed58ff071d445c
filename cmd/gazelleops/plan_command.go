package main

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"gazelleops/internal/formats"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan <torrent-id>...",
		Short: "Show which formats each release still needs, without transcoding",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			desired, err := formats.Desired(cfg.Transcode.Formats)
			if err != nil {
				return err
			}
			client := ctx.newClient(cfg)

			rows := make([][]string, 0, len(args))
			for _, arg := range args {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					return err
				}
				group, torrent, err := client.Torrent(cmd.Context(), id)
				if err != nil {
					return err
				}
				full, err := client.TorrentGroup(cmd.Context(), torrent.GroupID)
				if err != nil {
					return err
				}

				needed := formats.ResolveGaps(full.Torrents, torrent, desired)
				names := make([]string, 0, len(needed))
				for _, spec := range needed {
					names = append(names, spec.Name)
				}
				verdict := strings.Join(names, ", ")
				if verdict == "" {
					verdict = "fully covered"
				}
				rows = append(rows, []string{
					strconv.FormatInt(torrent.ID, 10),
					group.DisplayName(),
					torrent.Encoding,
					verdict,
				})
			}

			cmd.Println(renderTable(
				[]column{{title: "Torrent", numeric: true}, {title: "Release"}, {title: "Encoding"}, {title: "Needed"}},
				rows,
			))
			return nil
		},
	}
	return cmd
}
