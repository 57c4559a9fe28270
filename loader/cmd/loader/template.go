package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/qaanalytics/qaanalytics/loader/internal/config"
	"github.com/qaanalytics/qaanalytics/loader/internal/driver"
	"github.com/qaanalytics/qaanalytics/loader/internal/layout"
	"github.com/qaanalytics/qaanalytics/loader/internal/ledger"
)

func newTemplateCmd() *cobra.Command {
	var (
		dir   string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write a default config file and a matching template workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeTemplate(dir, force)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", ".", "directory to write loader.yaml and the template into")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing files")
	return cmd
}

func writeTemplate(dir string, force bool) error {
	cfg, err := config.Parse(config.DefaultDocument)
	if err != nil {
		return err
	}
	cfgPath := filepath.Join(dir, "loader.yaml")
	tplPath := filepath.Join(dir, cfg.General.OutputTemplate)
	if !force {
		for _, p := range []string{cfgPath, tplPath} {
			if _, err := os.Stat(p); err == nil {
				return fmt.Errorf("%s already exists (use --force to overwrite)", p)
			} else if !errors.Is(err, fs.ErrNotExist) {
				return err
			}
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(cfgPath, config.DefaultDocument, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	wb, err := ledger.BuildTemplate(layout.NewGeometry(cfg.Template), ledger.DefaultBlueprint())
	if err != nil {
		return err
	}
	defer wb.Close()
	if err := wb.SaveAs(tplPath); err != nil {
		return err
	}

	for m := 1; m <= cfg.General.MachineCount; m++ {
		if err := os.MkdirAll(driver.MachineDir(dir, cfg.General, m), 0o755); err != nil {
			return err
		}
	}
	slog.Info("template written", "config", cfgPath, "workbook", tplPath)
	return nil
}
