package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ansher/agreementtracker/config"
	"github.com/ansher/agreementtracker/service"
	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Write reminder drafts for agreements nearing expiry",
	Long: `sweep checks every agreement against the reminder thresholds, writes one
.eml draft per due reminder into the outbox directory and marks the
reminder as sent.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		outbox, _ := cmd.Flags().GetString("outbox")
		return sweepReminders(cmd.Context(), cfg, cmd.OutOrStdout(), outbox)
	},
}

var errSweepIncomplete = errors.New("reminder sweep finished with failures")

func sweepReminders(ctx context.Context, cfg *config.Config, out io.Writer, outboxDir string) error {
	if outboxDir == "" {
		outboxDir = cfg.Reminders.OutboxDir
	}

	a, err := newApp(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()

	writer := &service.EMLWriter{Dir: outboxDir, From: cfg.Reminders.From}
	result, err := a.tracker.SendReminders(ctx, writer)
	if err != nil {
		return err
	}

	if result.Sent == 0 && !result.Failed() {
		fmt.Fprintln(out, "No reminders to send at this time.")
		return nil
	}

	fmt.Fprintf(out, "%d reminder draft(s) written to %s\n", result.Sent, outboxDir)
	for _, f := range writer.Files() {
		fmt.Fprintf(out, "  %s\n", f)
	}
	for _, d := range result.Drafts {
		fmt.Fprintf(out, "  %s\n", d.Mailto)
	}
	for _, msg := range result.NotifyErrors {
		fmt.Fprintf(out, "  failed: %s\n", msg)
	}
	for _, w := range result.Writes {
		if w.Err != nil {
			fmt.Fprintf(out, "  not saved: %s: %v\n", w.AgreementID, w.Err)
		}
	}

	if result.Failed() {
		return errSweepIncomplete
	}
	return nil
}
