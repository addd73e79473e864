package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ansher/agreementtracker/config"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an agreement",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		interactive := term.IsTerminal(int(os.Stdin.Fd()))
		return deleteAgreement(cmd.Context(), cfg, cmd.InOrStdin(), cmd.OutOrStdout(), args[0], yes, interactive)
	},
}

var errNotConfirmed = errors.New("deletion not confirmed")

func deleteAgreement(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer, id string, yes, interactive bool) error {
	a, err := newApp(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()

	agreement, err := a.tracker.Get(id)
	if err != nil {
		return err
	}

	if !yes {
		if !interactive {
			return fmt.Errorf("%w: stdin is not a terminal, pass --yes", errNotConfirmed)
		}
		label := orDash(agreement.CounterpartyName)
		prompt := fmt.Sprintf("Delete %s agreement %s with %s? [y/N] ", orDash(agreement.AgreementType), id, label)
		ok, err := confirm(in, out, prompt)
		if err != nil {
			return err
		}
		if !ok {
			return errNotConfirmed
		}
	}

	if err := a.tracker.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(out, "Deleted %s\n", id)
	return nil
}

// confirm asks prompt on out and reads a yes/no answer from in
func confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	fmt.Fprint(out, prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
