package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abros/mathtrek/internal/app"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Erase all progress for the active profile",
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

		fmt.Print("This erases the streak, diamonds and all progress. Type 'yes' to confirm: ")
		in := bufio.NewReader(os.Stdin)
		line, _ := in.ReadString('\n')
		if strings.TrimSpace(line) != "yes" {
			fmt.Println("Aborted.")
			return nil
		}

		if err := a.Store.DeleteAll(); err != nil {
			return err
		}
		fmt.Println("All progress erased.")
		return nil
	},
}
