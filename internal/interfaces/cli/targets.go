package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

const targetSuffix = "_target.pdbqt"

func newTargetsCmd(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "targets",
		Short: "List prepared docking targets",
		Long:  "List the protein targets available for docking in the local storage\nbackend. A target is any <name>" + targetSuffix + " file under the targets prefix.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if cfg.Storage.Backend != "local" {
				return fmt.Errorf("the targets command requires the local storage backend, got %q", cfg.Storage.Backend)
			}

			dir := filepath.Join(cfg.Storage.Root, cfg.Docking.TargetsDir)
			entries, err := os.ReadDir(dir)
			if err != nil {
				if os.IsNotExist(err) {
					fmt.Fprintln(cmd.OutOrStdout(), "no targets directory found")
					return nil
				}
				return err
			}

			var names []string
			for _, e := range entries {
				if e.IsDir() || !strings.HasSuffix(e.Name(), targetSuffix) {
					continue
				}
				names = append(names, strings.TrimSuffix(e.Name(), targetSuffix))
			}
			sort.Strings(names)

			if len(names) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no targets found")
				return nil
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}

	return cmd
}
