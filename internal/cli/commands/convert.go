package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"KeeperMigrate/internal/cli/service"
	"KeeperMigrate/internal/config"
)

type convertCmd struct{}

func (convertCmd) Name() string { return "convert" }
func (convertCmd) Description() string {
	return "Build a Keeper import file from the export directory"
}
func (convertCmd) Usage() string { return "convert [-o <file>]" }

func (convertCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	out := fs.String("o", cfg.OutputFile, "Keeper import file")
	if err := fs.Parse(args); err != nil || fs.NArg() != 0 {
		return ErrUsage
	}
	if *out == "" {
		return ErrUsage
	}

	conv, err := service.NewConverter(cfg.ExportDir, Logger)
	if err != nil {
		return err
	}
	Logger.Infow("convert started", "dir", conv.Root(), "out", *out)
	n, err := conv.Run(ctx, *out)
	if err != nil {
		return err
	}
	fmt.Fprintf(Out, "[✓] Wrote %s with %d records.\n", *out, n)
	return nil
}

func init() { RegisterCmd(convertCmd{}) }
