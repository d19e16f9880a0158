package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/yaakapp/yaaksync/internal/models"
	"github.com/yaakapp/yaaksync/internal/store"
)

func newWorkspaceCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workspace",
		Short: "Manage workspaces",
	}
	cmd.AddCommand(newWorkspaceCreateCmd(c), newWorkspaceListCmd(c))
	return cmd
}

func newWorkspaceCreateCmd(c *cli) *cobra.Command {
	var name, description string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an empty workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return errors.New("--name is required")
			}

			_, st, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer c.close()

			ws := &models.Workspace{
				Base:                        models.Base{ID: models.GenerateID(models.KindWorkspace)},
				Name:                        name,
				Description:                 description,
				SettingValidateCertificates: true,
				SettingFollowRedirects:      true,
			}
			if _, err := st.UpsertResource(ws, store.UpdateSourceUser); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s created workspace %s (%s)\n", green("✓"), cyan(ws.ID), name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "workspace name")
	cmd.Flags().StringVar(&description, "description", "", "workspace description")
	return cmd
}

func newWorkspaceListCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List workspaces and their linked directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer c.close()

			workspaces, err := st.ListWorkspaces()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tSYNC DIR\tUPDATED")
			for _, ws := range workspaces {
				syncDir := "-"
				if meta, err := st.GetWorkspaceMeta(ws.ID); err == nil {
					syncDir = meta.SettingSyncDir
				} else if !errors.Is(err, store.ErrNotFound) {
					return err
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", ws.ID, ws.Name, syncDir, humanize.Time(ws.UpdatedAt))
			}
			return tw.Flush()
		},
	}
}
