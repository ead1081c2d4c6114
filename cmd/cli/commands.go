package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/iho/goledger/internal/adapter/http/dto"
	"github.com/iho/goledger/internal/infrastructure/postgres"
)

func ledgerCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "consistency",
		Short: "Check that posted debits equal posted credits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result struct {
				Status     string `json:"status"`
				Consistent bool   `json:"consistent"`
			}
			body, err := newAPIClient(opts).call(cmd.Context(), http.MethodGet, "/api/v1/ledger/consistency", &result)
			if err != nil {
				var apiErr *apiError
				if errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict {
					fmt.Fprintf(cmd.OutOrStdout(), "Consistency check FAILED\nResponse: %s\n", apiErr.Body)
				}
				return err
			}
			if opts.jsonOutput {
				return printJSON(cmd.OutOrStdout(), body)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Consistency check PASSED\nConsistent: %v\nStatus: %s\n", result.Consistent, result.Status)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reconcile",
		Short: "Compare cached balances with the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result struct {
				Accounts []dto.ReconciliationResponse `json:"accounts"`
				Stale    int                          `json:"stale"`
			}
			body, err := newAPIClient(opts).call(cmd.Context(), http.MethodPost, "/api/v1/ledger/reconcile", &result)
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return printJSON(cmd.OutOrStdout(), body)
			}

			tw := newTable(cmd.OutOrStdout(), "ACCOUNT", "CACHED", "LEDGER", "RECONCILED")
			for _, r := range result.Accounts {
				cached := "-"
				if r.CachedBalance != nil {
					cached = r.CachedBalance.StringFixed(2)
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%v\n", r.AccountID, cached, r.CalculatedBalance.StringFixed(2), r.IsReconciled)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d accounts, %d stale\n", len(result.Accounts), result.Stale)
			return nil
		},
	})

	return cmd
}

func reportsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Financial reports",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "trial-balance",
		Short: "Print the trial balance over posted entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var tb dto.TrialBalanceResponse
			body, err := newAPIClient(opts).call(cmd.Context(), http.MethodGet, "/api/v1/reports/trial-balance", &tb)
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return printJSON(cmd.OutOrStdout(), body)
			}

			tw := newTable(cmd.OutOrStdout(), "NUMBER", "NAME", "TYPE", "DEBIT", "CREDIT", "BALANCE")
			for _, row := range tb.Rows {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					row.AccountNumber, truncate(row.AccountName, 32), row.AccountType,
					row.DebitTotal.StringFixed(2), row.CreditTotal.StringFixed(2), row.Balance.StringFixed(2))
			}
			fmt.Fprintf(tw, "\tTOTAL\t\t%s\t%s\t\n", tb.TotalDebit.StringFixed(2), tb.TotalCredit.StringFixed(2))
			if err := tw.Flush(); err != nil {
				return err
			}

			if !tb.Balanced {
				return errors.New("trial balance is out of balance")
			}
			return nil
		},
	})

	return cmd
}

func accountsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Chart of accounts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Show an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			body, err := newAPIClient(opts).call(cmd.Context(), http.MethodGet, fmt.Sprintf("/api/v1/accounts/%d?include=balance", id), nil)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), body)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "balance <id>",
		Short: "Show the posted balance of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var bal dto.BalanceResponse
			body, err := newAPIClient(opts).call(cmd.Context(), http.MethodGet, fmt.Sprintf("/api/v1/accounts/%d/balance", id), &bal)
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return printJSON(cmd.OutOrStdout(), body)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Account %d\nDebits:  %s\nCredits: %s\nBalance: %s\n",
				bal.AccountID, bal.DebitTotal.StringFixed(2), bal.CreditTotal.StringFixed(2), bal.Balance.StringFixed(2))
			return nil
		},
	})

	var typeID int64
	treeCmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the account hierarchy of one account type with rolled-up balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var nodes []*dto.AccountNodeResponse
			body, err := newAPIClient(opts).call(cmd.Context(), http.MethodGet, fmt.Sprintf("/api/v1/accounts/tree?type_id=%d", typeID), &nodes)
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return printJSON(cmd.OutOrStdout(), body)
			}

			for _, n := range nodes {
				printNode(cmd.OutOrStdout(), n, 0)
			}
			return nil
		},
	}
	treeCmd.Flags().Int64Var(&typeID, "type", 0, "Account type id (1 asset, 2 liability, 3 equity, 4 revenue, 5 expense)")
	_ = treeCmd.MarkFlagRequired("type")
	cmd.AddCommand(treeCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "search <query>",
		Short: "Search accounts by number or name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.QueryEscape(strings.Join(args, " "))
			var accounts []dto.AccountResponse
			body, err := newAPIClient(opts).call(cmd.Context(), http.MethodGet, "/api/v1/accounts/search?q="+q, &accounts)
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return printJSON(cmd.OutOrStdout(), body)
			}

			tw := newTable(cmd.OutOrStdout(), "ID", "NUMBER", "NAME", "ACTIVE")
			for _, a := range accounts {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%v\n", a.ID, a.AccountNumber, truncate(a.Name, 40), a.IsActive)
			}
			return tw.Flush()
		},
	})

	return cmd
}

func entriesCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entries",
		Short: "Journal entries",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Show a journal entry with its lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			body, err := newAPIClient(opts).call(cmd.Context(), http.MethodGet, fmt.Sprintf("/api/v1/journal-entries/%d", id), nil)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), body)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "post <id>",
		Short: "Post a draft journal entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var entry dto.JournalEntryResponse
			body, err := newAPIClient(opts).call(cmd.Context(), http.MethodPost, fmt.Sprintf("/api/v1/journal-entries/%d/post", id), &entry)
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return printJSON(cmd.OutOrStdout(), body)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Posted %s (%s)\n", entry.EntryNumber, entry.TotalDebit.StringFixed(2))
			return nil
		},
	})

	var prefix, date string
	nextCmd := &cobra.Command{
		Use:   "next-number",
		Short: "Preview the next entry number",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if prefix != "" {
				q.Set("prefix", prefix)
			}
			if date != "" {
				q.Set("date", date)
			}
			path := "/api/v1/journal-entries/next-number"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}

			var next dto.NextEntryNumberResponse
			if _, err := newAPIClient(opts).call(cmd.Context(), http.MethodGet, path, &next); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), next.EntryNumber)
			return nil
		},
	}
	nextCmd.Flags().StringVar(&prefix, "prefix", "", "Entry number prefix")
	nextCmd.Flags().StringVar(&date, "date", "", "Entry date (YYYY-MM-DD)")
	cmd.AddCommand(nextCmd)

	return cmd
}

// migrateUp and migrateDown are swapped in tests.
var (
	migrateUp   = postgres.RunMigrations
	migrateDown = postgres.RunMigrationsDown
)

func migrateCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}
	cmd.PersistentFlags().StringVar(&opts.databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection URL")

	run := func(name string, fn func(string) error) *cobra.Command {
		return &cobra.Command{
			Use:   name,
			Short: "Run " + name + " migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if opts.databaseURL == "" {
					return errors.New("--database-url or DATABASE_URL is required")
				}
				if err := fn(opts.databaseURL); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "migrate %s: done\n", name)
				return nil
			},
		}
	}

	cmd.AddCommand(
		run("up", func(dsn string) error { return migrateUp(dsn) }),
		run("down", func(dsn string) error { return migrateDown(dsn) }),
	)
	return cmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func newTable(w io.Writer, headers ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	return tw
}

func printNode(w io.Writer, n *dto.AccountNodeResponse, depth int) {
	fmt.Fprintf(w, "%s%s %s  %s\n", strings.Repeat("  ", depth), n.AccountNumber, n.Name, n.Balance.StringFixed(2))
	for _, c := range n.Children {
		printNode(w, c, depth+1)
	}
}

func printJSON(w io.Writer, raw []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err := w.Write(buf.Bytes())
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
