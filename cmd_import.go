package main

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/ansher/agreementtracker/config"
	"github.com/ansher/agreementtracker/service"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file.pdf>",
	Short: "Extract an agreement from a PDF and store it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		company, _ := cmd.Flags().GetString("company")
		return importAgreement(cmd.Context(), cfg, cmd.OutOrStdout(), args[0], company)
	},
}

func importAgreement(ctx context.Context, cfg *config.Config, out io.Writer, path, company string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	a, err := newApp(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()

	agreement, err := a.tracker.Upload(ctx, service.UploadRequest{
		FileName:    filepath.Base(path),
		ContentType: declaredContentType(path),
		Data:        data,
		Company:     company,
	})
	if err != nil {
		return err
	}

	return printAgreements(out, []service.AgreementView{service.NewAgreementView(agreement, a.tracker.Now())})
}

// declaredContentType is the media type a file's extension declares
func declaredContentType(path string) string {
	return mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
}
