package main

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/testudy/rebase/internal/icons"
	"github.com/testudy/rebase/public"
)

func newIconsCmd(cfgFile *string) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "icons",
		Short: "List the icons the styleguide serves",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				cfg, err := loadConfig(*cfgFile, nil)
				if err != nil {
					return err
				}
				dir = cfg.Site.IconsDir
			}
			fsys, root, err := iconSource(dir)
			if err != nil {
				return err
			}
			list, err := icons.List(fsys, root)
			if err != nil {
				return err
			}
			return printIcons(cmd.OutOrStdout(), list)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "icon directory (defaults to site.icons_dir or the embedded icons)")
	return cmd
}

func iconSource(dir string) (fs.FS, string, error) {
	if dir != "" {
		return os.DirFS(dir), ".", nil
	}
	static, err := public.StaticFS()
	if err != nil {
		return nil, "", fmt.Errorf("reading embedded assets: %w", err)
	}
	return static, "svgs", nil
}

func printIcons(w io.Writer, list []icons.Icon) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tLABEL\tFILE")
	for _, icon := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", icon.Name, icon.Label, icon.File)
	}
	return tw.Flush()
}
