package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abros/mathtrek/internal/app"
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Show the diamond balance",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return fmt.Errorf("resolve DB path: %w", err)
		}
		a, err := app.New(app.Options{DBPath: dbPath})
		if err != nil {
			return err
		}
		defer a.Close()

		wallet, err := a.Diamonds.Wallet()
		if err != nil {
			return err
		}
		fmt.Printf("Diamonds: %d (earned %d all time)\n", wallet.Balance, wallet.TotalEarned)
		return nil
	},
}
