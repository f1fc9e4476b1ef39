package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abros/mathtrek/internal/app"
	"github.com/abros/mathtrek/internal/streak"
)

var streakCmd = &cobra.Command{
	Use:   "streak",
	Short: "Show the daily streak",
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

		status, err := a.Streaks.CheckStatusOnLoad(a.Today())
		if err != nil {
			return err
		}

		fmt.Printf("Streak: %d days (longest %d)\n", status.Record.CurrentStreak, status.Record.LongestStreak)
		switch status.Regime {
		case streak.RegimeSameDay:
			fmt.Println("Today already counts. Come back tomorrow!")
		case streak.RegimeFrozen:
			fmt.Println("Frozen! Complete a challenge today to thaw it.")
		case streak.RegimeExpiredRestorable:
			fmt.Printf("Expired, but restorable for %d diamonds. Run `mathtrek play` to decide.\n", a.Config.RestoreCost)
		case streak.RegimeExpiredPermanent:
			fmt.Println("Lost after a long break. A new streak starts with your next challenge.")
		default:
			fmt.Println("Complete a challenge today to keep it going.")
		}
		if status.Record.LastActiveDate != "" {
			fmt.Printf("Last active: %s\n", status.Record.LastActiveDate)
		}
		return nil
	},
}
