package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/moldock/internal/application/docking"
	"github.com/turtacn/moldock/internal/config"
	"github.com/turtacn/moldock/internal/domain/structure/convert"
	"github.com/turtacn/moldock/internal/infrastructure/chem"
	"github.com/turtacn/moldock/internal/infrastructure/engine"
	"github.com/turtacn/moldock/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/moldock/internal/infrastructure/storage"
)

func newDockCmd(opts *RootOptions) *cobra.Command {
	var (
		smiles  string
		target  string
		output  string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "dock",
		Short: "Run one docking job locally",
		Long:  "Dock a SMILES string against a prepared target using the local storage\nbackend, without going through the API server or the job queue.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if smiles == "" {
				return fmt.Errorf("--smiles is required")
			}
			if target == "" {
				return fmt.Errorf("--target is required")
			}
			if output != "text" && output != "json" {
				return fmt.Errorf("invalid output format %q (must be text or json)", output)
			}

			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if timeout > 0 {
				cfg.Engine.Timeout = timeout
			}

			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}

			svc, err := buildLocalService(cfg, logger)
			if err != nil {
				return err
			}

			res, err := svc.Submit(cmd.Context(), docking.Request{
				SMILES:     smiles,
				TargetName: target,
			})
			if err != nil {
				return err
			}

			return printDockResult(cmd, res, output)
		},
	}

	cmd.Flags().StringVar(&smiles, "smiles", "", "ligand SMILES string [REQUIRED]")
	cmd.Flags().StringVar(&target, "target", "", "prepared target name [REQUIRED]")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format (text, json)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "engine timeout override")

	return cmd
}

// buildLocalService wires the docking pipeline on top of the local filesystem
// backend. The queue and result cache are deliberately left out; one-shot CLI
// runs have no use for either.
func buildLocalService(cfg *config.Config, logger logging.Logger) (*docking.Service, error) {
	if cfg.Storage.Backend != "local" {
		return nil, fmt.Errorf("the dock command requires the local storage backend, got %q", cfg.Storage.Backend)
	}
	store := storage.NewLocalStore(cfg.Storage.Root, cfg.Storage.AllowRename)
	awaiter := storage.NewAwaiter(store, cfg.Storage.Await, logger)
	eng := engine.NewVinaEngine(cfg.Engine, logger)

	return docking.NewService(
		cfg.Docking,
		eng,
		chem.NewHashIdentityService(),
		store,
		awaiter,
		convert.NewPDBQTConverter(),
		nil,
		nil,
		logger,
	), nil
}

func printDockResult(cmd *cobra.Command, res *docking.Result, output string) error {
	if output == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Target:      %s\n", res.TargetName)
	fmt.Fprintf(cmd.OutOrStdout(), "Molecule ID: %s\n", res.MoleculeID)
	fmt.Fprintf(cmd.OutOrStdout(), "Best score:  %.2f kcal/mol\n", res.Score)
	fmt.Fprintf(cmd.OutOrStdout(), "Ligand:      %s\n", res.Links.Ligand)
	fmt.Fprintf(cmd.OutOrStdout(), "Complex:     %s\n", res.Links.Complex)
	return nil
}
