package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sakif/what-to-watch/internal/loader"
	"github.com/sakif/what-to-watch/internal/server"
	"github.com/sakif/what-to-watch/internal/service"
)

func newLoadOpinionsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "load-opinions [file]",
		Short: "Import opinions from a CSV file",
		Long: "Import opinions from a CSV file with a header row of title, text\n" +
			"and optionally source and added_by. Defaults to loader.file (opinions.csv).",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := cfg.Loader.File
			if len(args) == 1 {
				path = args[0]
			}

			file, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open opinions file: %w", err)
			}
			defer file.Close()

			db, err := server.OpenDatabase(cfg.Database.URI)
			if err != nil {
				return err
			}
			defer db.Close()

			svc := service.NewOpinionService(db, ctx.newLogger())
			n, err := loader.Load(cmd.Context(), file, svc)
			fmt.Fprintf(cmd.OutOrStdout(), "Загружено мнений: %d\n", n)
			return err
		},
	}
}
