package commands

import (
	"context"
	"fmt"

	"KeeperMigrate/internal/cli/api"
	fsrepo "KeeperMigrate/internal/cli/repo/fs"
	"KeeperMigrate/internal/cli/service"
	"KeeperMigrate/internal/config"
)

type exportCmd struct{}

func (exportCmd) Name() string { return "export" }
func (exportCmd) Description() string {
	return "Download and decrypt all vaults into PASSWORK_EXPORT_DIR"
}
func (exportCmd) Usage() string { return "export" }

func (exportCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	if err := cfg.ValidateExport(); err != nil {
		return err
	}

	client := api.NewHTTPClient(cfg.PassworkURL, api.Options{
		Timeout:   cfg.Timeout,
		VerifyTLS: cfg.VerifyTLS,
		PageSize:  cfg.PageSize,
	})
	tree, err := fsrepo.NewTreeStore(cfg.ExportDir)
	if err != nil {
		return fmt.Errorf("prepare export dir: %w", err)
	}

	Logger.Infow("export started", "url", cfg.PassworkURL, "dir", tree.Root())
	sum, err := service.NewExporter(client, tree, Logger, Out).Run(ctx, cfg.APIKey, cfg.MasterPassword)
	if err != nil {
		return err
	}
	Logger.Infow("export finished",
		"vaults", sum.Vaults, "folders", sum.Folders, "items", sum.Items,
		"attachments", sum.Attachments, "activity_logs", sum.ActivityLogs)
	fmt.Fprintf(Out, "  %d vaults, %d folders, %d items, %d attachments, %d activity log entries\n",
		sum.Vaults, sum.Folders, sum.Items, sum.Attachments, sum.ActivityLogs)
	return nil
}

func init() { RegisterCmd(exportCmd{}) }
