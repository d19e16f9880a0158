package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yaakapp/yaaksync/internal/models"
	"github.com/yaakapp/yaaksync/internal/utils"
)

func newLinkCmd(c *cli) *cobra.Command {
	var workspaceID, dir string

	cmd := &cobra.Command{
		Use:   "link",
		Short: "Link a workspace to a sync directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			if workspaceID == "" || dir == "" {
				return errors.New("--workspace and --dir are required")
			}

			_, st, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer c.close()

			if _, err := st.GetResource(models.KindWorkspace, workspaceID); err != nil {
				return fmt.Errorf("workspace %s: %w", workspaceID, err)
			}

			syncDir, err := utils.ResolvePath(dir)
			if err != nil {
				return err
			}
			if err := utils.EnsureDir(syncDir); err != nil {
				return fmt.Errorf("create sync dir: %w", err)
			}

			changed, err := st.SetWorkspaceSyncDir(workspaceID, syncDir)
			if err != nil {
				return err
			}
			if changed {
				fmt.Fprintf(cmd.OutOrStdout(), "%s linked %s to %s\n", green("✓"), cyan(workspaceID), syncDir)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s already linked to %s\n", cyan(workspaceID), syncDir)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&workspaceID, "workspace", "w", "", "workspace id")
	cmd.Flags().StringVar(&dir, "dir", "", "sync directory")
	return cmd
}
