package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/csheth/paperchunk/internal/config"
	"github.com/csheth/paperchunk/internal/ledger"
)

func newRunsCmd(f *flags, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "runs [id]",
		Short: "List recorded runs, or show one run by id prefix",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(f.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("output") {
				cfg.OutputDir = f.output
			}
			path := ledger.Path(cfg.OutputDir)
			runs, err := ledger.Load(path)
			if errors.Is(err, os.ErrNotExist) {
				fmt.Fprintf(stdout, "No runs recorded in %s\n", path)
				return nil
			}
			if err != nil {
				return err
			}
			if len(args) == 1 {
				run, ok := ledger.Find(runs, args[0])
				if !ok {
					return fmt.Errorf("no run matching %q in %s", args[0], path)
				}
				printRun(stdout, run)
				return nil
			}
			for _, run := range runs {
				fmt.Fprintf(stdout, "%s  %s  %d/%d ok\n",
					shortID(run.ID), run.StartedAt.Local().Format("2006-01-02 15:04:05"), run.Succeeded(), len(run.Papers))
			}
			return nil
		},
	}
}
