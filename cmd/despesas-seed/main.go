package main

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"

	"despesas/internal/cli"
	"despesas/internal/core"
)

// Seeds the configured SQLite database with a small demo ledger. Replaces
// whatever is already there.
func main() {
	logger, cfg := cli.Bootstrap()

	repo := cli.MustOpenSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	masters := demoLedger()
	if err := repo.ReplaceAll(ctx, masters); err != nil {
		logger.Error("Failed to seed database", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}

	logger.Info("Database seeded", "path", cfg.SQLiteDBPath, "transactions", len(masters))
}

func demoLedger() []core.MasterTransaction {
	now := time.Now().UTC()
	anchor := core.NewDate(now.Year(), int(now.Month()), 1)
	groupID := uuid.NewString()

	money := func(s string) core.Money {
		m, err := core.ParseMoney(s)
		if err != nil {
			panic(err)
		}
		return m
	}

	return []core.MasterTransaction{
		{
			ID:          uuid.NewString(),
			Description: "Salary",
			Category:    "Work",
			Type:        core.TypeIncome,
			Frequency:   core.Monthly,
			Amount:      money("3200.00"),
			AnchorDate:  anchor,
			Status:      core.StatusPending,
		},
		{
			ID:          uuid.NewString(),
			Description: "Rent",
			Category:    "Housing",
			Type:        core.TypeExpense,
			Frequency:   core.Monthly,
			Amount:      money("950.00"),
			AnchorDate:  core.NewDate(anchor.Year(), anchor.Month(), 5),
			Status:      core.StatusPending,
		},
		{
			ID:          uuid.NewString(),
			Description: "Groceries",
			Category:    "Food",
			Type:        core.TypeExpense,
			Frequency:   core.Once,
			Amount:      money("82.40"),
			AnchorDate:  core.NewDate(anchor.Year(), anchor.Month(), 12),
			Status:      core.StatusPaid,
		},
		{
			ID:                 uuid.NewString(),
			Description:        "Washing machine",
			Category:           "Home",
			Type:               core.TypeExpense,
			Frequency:          core.Installment,
			Amount:             money("120.00"),
			AnchorDate:         core.NewDate(anchor.Year(), anchor.Month(), 20),
			TotalAmount:        money("600.00"),
			TotalInstallments:  5,
			InstallmentGroupID: groupID,
			Status:             core.StatusPending,
		},
	}
}
