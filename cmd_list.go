package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/ansher/agreementtracker/config"
	"github.com/ansher/agreementtracker/service"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List agreements with their expiry status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		company, _ := cmd.Flags().GetString("company")
		return listAgreements(cmd.Context(), cfg, cmd.OutOrStdout(), company)
	},
}

func listAgreements(ctx context.Context, cfg *config.Config, out io.Writer, company string) error {
	a, err := newApp(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()

	views, err := a.tracker.List(company)
	if err != nil {
		return err
	}
	return printAgreements(out, views)
}

func printAgreements(out io.Writer, views []service.AgreementView) error {
	if len(views) == 0 {
		_, err := fmt.Fprintln(out, "No agreements.")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCOMPANY\tTYPE\tCOUNTERPARTY\tEND DATE\tSTATUS")
	for _, v := range views {
		end := "-"
		if v.Agreement.EndDate != nil {
			end = *v.Agreement.EndDate
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			v.Agreement.ID,
			v.Agreement.Company.ShortName(),
			orDash(v.Agreement.AgreementType),
			orDash(v.Agreement.CounterpartyName),
			end,
			v.Status.Label,
		)
	}
	return w.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
