package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/yaakapp/yaaksync/internal/store"
)

func newStatusCmd(c *cli) *cobra.Command {
	var workspaceID string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the fingerprints recorded for a workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			if workspaceID == "" {
				return errors.New("--workspace is required")
			}

			_, st, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer c.close()

			out := cmd.OutOrStdout()
			meta, err := st.GetWorkspaceMeta(workspaceID)
			if errors.Is(err, store.ErrNotFound) {
				fmt.Fprintf(out, "%s is not linked to a directory\n", cyan(workspaceID))
				return nil
			}
			if err != nil {
				return err
			}

			states, err := st.ListSyncStates(workspaceID, meta.SettingSyncDir)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "%s %s (%d files, linked %s)\n", cyan(workspaceID), meta.SettingSyncDir,
				len(states), humanize.Time(meta.UpdatedAt))

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "MODEL\tFILE\tCHECKSUM\tFLUSHED")
			for _, state := range states {
				checksum := state.Checksum
				if len(checksum) > 12 {
					checksum = checksum[:12]
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", state.ModelID, state.RelPath, checksum, humanize.Time(state.FlushedAt))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVarP(&workspaceID, "workspace", "w", "", "workspace id")
	return cmd
}
