package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abros/mathtrek/internal/app"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show lifetime progress",
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

		today := a.Today()
		rec, err := a.Progress.Snapshot(today)
		if err != nil {
			return err
		}
		status, err := a.Streaks.CheckStatusOnLoad(today)
		if err != nil {
			return err
		}
		wallet, err := a.Diamonds.Wallet()
		if err != nil {
			return err
		}

		fmt.Println("MathTrek progress")
		fmt.Printf("  Tasks solved:           %d (%d today)\n", rec.TotalTasksCompleted, rec.TasksCompletedToday)
		fmt.Printf("  Challenges completed:   %d\n", rec.TotalChallengesCompleted)
		fmt.Printf("  Current streak:         %d days (longest %d)\n", status.Record.CurrentStreak, status.Record.LongestStreak)
		fmt.Printf("  Diamonds:               %d (earned %d all time)\n", wallet.Balance, wallet.TotalEarned)
		tasks := a.Config.TasksPerDiamond - rec.TotalTasksCompleted%a.Config.TasksPerDiamond
		fmt.Printf("  Next diamond in:        %d tasks\n", tasks)
		return nil
	},
}
