package main

import (
	"context"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gatherly/companion/internal/export"
	"github.com/gatherly/companion/internal/model"
	"github.com/gatherly/companion/internal/transform"
)

var exportFile string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export normalized conference data to an XLSX workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		wb := export.Workbook{}

		wb.Attendees, err = loadFilteredAttendees(ctx, env)
		if err != nil {
			return err
		}
		wb.Agenda, err = exportAgenda(ctx, env)
		if err != nil {
			return err
		}
		wb.Dining, err = exportDining(ctx, env)
		if err != nil {
			return err
		}
		wb.Sponsors, err = exportSponsors(ctx, env)
		if err != nil {
			return err
		}

		path := exportFile
		if path == "" {
			path = filepath.Join(cfg.Export.OutDir, "conference-"+time.Now().Format("20060102-150405")+".xlsx")
		}
		if err := export.Write(path, wb); err != nil {
			return err
		}

		zap.L().Info("export complete",
			zap.String("path", path),
			zap.Int("attendees", len(wb.Attendees)),
			zap.Int("agenda", len(wb.Agenda)),
			zap.Int("dining", len(wb.Dining)),
			zap.Int("sponsors", len(wb.Sponsors)),
		)
		return nil
	},
}

func exportAgenda(ctx context.Context, env *env) ([]model.AgendaItem, error) {
	raws, err := env.fetchRecords(ctx, "agenda")
	if err != nil {
		return nil, err
	}
	items, err := env.Transformers.Agenda.FromDatabaseAll(raws)
	if err != nil {
		return nil, err
	}
	return transform.SortAgendaItems(items), nil
}

func exportDining(ctx context.Context, env *env) ([]model.DiningOption, error) {
	raws, err := env.fetchRecords(ctx, "dining")
	if err != nil {
		return nil, err
	}
	options, err := env.Transformers.Dining.FromDatabaseAll(raws)
	if err != nil {
		return nil, err
	}
	return transform.SortDiningOptions(options), nil
}

func exportSponsors(ctx context.Context, env *env) ([]model.Sponsor, error) {
	raws, err := env.fetchRecords(ctx, "sponsors")
	if err != nil {
		return nil, err
	}
	sponsors, err := env.Transformers.Sponsors.FromDatabaseAll(raws)
	if err != nil {
		return nil, err
	}
	return transform.SortSponsors(sponsors), nil
}

func init() {
	exportCmd.Flags().StringVar(&exportFile, "file", "", "output path (default timestamped file in export.out_dir)")
	rootCmd.AddCommand(exportCmd)
}
