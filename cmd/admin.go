package cmd

import (
	"fmt"
	"strconv"

	"stakeduel/auth"
	"stakeduel/config"
	"stakeduel/models"
	"stakeduel/service"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage accounts",
}

var accountCreateCmd = &cobra.Command{
	Use:   "create <username>",
	Short: "Create an account with a zero balance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		account, err := service.NewAccountService(a.uowFactory).CreateAccount(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		cmd.Printf("Created account %d (%s)\n", account.ID, account.Username)
		return nil
	},
}

var topUpCmd = &cobra.Command{
	Use:   "topup <account-id> <amount>",
	Short: "Credit an account through the ledger",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		accountID, err := parseAccountID(args[0])
		if err != nil {
			return err
		}
		amount, err := decimal.NewFromString(args[1])
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", args[1], err)
		}
		note, _ := cmd.Flags().GetString("note")

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		entry, err := service.NewAdminService(a.uowFactory).TopUp(cmd.Context(), accountID, amount, note)
		if err != nil {
			return err
		}
		cmd.Printf("Account %d: %s -> %s (entry %d)\n", accountID, entry.BalanceBefore, entry.BalanceAfter, entry.ID)
		return nil
	},
}

var auditCmd = &cobra.Command{
	Use:   "audit [account-id]",
	Short: "Replay ledger chains and compare them with stored balances",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		admin := service.NewAdminService(a.uowFactory)

		var audits []*models.LedgerAudit
		if len(args) == 1 {
			accountID, err := parseAccountID(args[0])
			if err != nil {
				return err
			}
			audit, err := admin.AuditAccount(cmd.Context(), accountID)
			if err != nil {
				return err
			}
			audits = append(audits, audit)
		} else if audits, err = admin.AuditAll(cmd.Context()); err != nil {
			return err
		}

		inconsistent := 0
		for _, audit := range audits {
			status := "ok"
			if !audit.Consistent() {
				status = "INCONSISTENT"
				inconsistent++
			}
			cmd.Printf("%-8d stored=%s ledger=%s entries=%d broken=%v %s\n",
				audit.AccountID, audit.StoredBalance, audit.LedgerBalance, audit.EntryCount, audit.BrokenEntryIDs, status)
		}
		if inconsistent > 0 {
			return fmt.Errorf("%d of %d accounts failed the audit", inconsistent, len(audits))
		}
		return nil
	},
}

var revenueCmd = &cobra.Command{
	Use:   "revenue",
	Short: "Print total platform revenue",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		summary, err := service.NewAdminService(a.uowFactory).RevenueSummary(cmd.Context())
		if err != nil {
			return err
		}
		cmd.Printf("Settled matches with a fee: %d\nTotal revenue: %s\n", summary.MatchCount, summary.Total)
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token <account-id>",
	Short: "Mint a bearer token for local development",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		accountID, err := parseAccountID(args[0])
		if err != nil {
			return err
		}
		ttl, _ := cmd.Flags().GetDuration("ttl")
		username, _ := cmd.Flags().GetString("username")

		token, err := auth.GenerateToken(accountID, username, config.Get().JWTSecret, ttl)
		if err != nil {
			return err
		}
		cmd.Println(token)
		return nil
	},
}

var gamesCmd = &cobra.Command{
	Use:   "games",
	Short: "Manage the game catalog",
}

var gamesAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a game to the catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, _ := cmd.Flags().GetString("mode")

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		game, err := service.NewGameService(a.uowFactory).AddGame(cmd.Context(), args[0], models.ResolutionMode(mode))
		if err != nil {
			return err
		}
		cmd.Printf("Added game %d (%s, %s)\n", game.ID, game.Slug, game.ResolutionMode)
		return nil
	},
}

var gamesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active games",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		games, err := service.NewGameService(a.uowFactory).ListGames(cmd.Context())
		if err != nil {
			return err
		}
		for _, g := range games {
			cmd.Printf("%-4d %-20s %s\n", g.ID, g.Slug, g.ResolutionMode)
		}
		return nil
	},
}

func init() {
	accountCmd.AddCommand(accountCreateCmd)
	topUpCmd.Flags().String("note", "", "description stored on the ledger entry")
	tokenCmd.Flags().Duration("ttl", auth.DefaultTokenTTL, "token lifetime")
	tokenCmd.Flags().String("username", "", "username claim")
	gamesAddCmd.Flags().String("mode", string(models.ResolutionFirstFinish), "resolution mode: first_finish or best_score")
	gamesCmd.AddCommand(gamesAddCmd, gamesListCmd)
}

func parseAccountID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid account id %q", raw)
	}
	return id, nil
}
