package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abros/mathtrek/internal/app"
	"github.com/abros/mathtrek/internal/challenge"
	"github.com/abros/mathtrek/internal/premium"
	"github.com/abros/mathtrek/internal/streak"
	"github.com/abros/mathtrek/internal/taskgen"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play today's challenges",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlay(cmd)
	},
}

// runPlay wires the engines and drives the interactive daily loop.
func runPlay(cmd *cobra.Command) error {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return fmt.Errorf("resolve DB path: %w", err)
	}
	a, err := app.New(app.Options{DBPath: dbPath})
	if err != nil {
		return err
	}
	defer a.Close()

	in := bufio.NewReader(os.Stdin)
	today := a.Today()

	if err := handleStreakPrompt(a, in); err != nil {
		return err
	}

	for {
		set, err := a.Challenges.GetOrCreateTodaysSet(today)
		if err != nil {
			return err
		}
		day, err := a.Premium.GetOrRollToday(today)
		if err != nil {
			return err
		}

		printMenu(a, set, day)
		choice := prompt(in, "> ")

		switch {
		case choice == "q":
			return nil
		case choice == "p" && day.SpawnedKind() != "":
			if err := playPremium(a, in, day.SpawnedKind()); err != nil {
				return err
			}
		default:
			idx, err := strconv.Atoi(choice)
			if err != nil || idx < 1 || idx > challenge.SetSize {
				fmt.Println("Pick a challenge number, p for the premium challenge, or q to quit.")
				continue
			}
			if err := playChallenge(a, in, idx-1); err != nil {
				return err
			}
		}
	}
}

func printMenu(a *app.App, set challenge.DailySet, day premium.DayRecord) {
	rec, _ := a.Streaks.CheckStatusOnLoad(a.Today())
	wallet, _ := a.Diamonds.Wallet()
	fmt.Printf("\n=== MathTrek %s === streak %d · %d diamonds\n", set.Date, rec.Record.CurrentStreak, wallet.Balance)

	for i, c := range set.Challenges {
		label := c.Operation.DisplayName()
		if c.IsSuper {
			label = "SUPER " + label
		}
		fmt.Printf("  %d. %-22s [%s]\n", i+1, label, c.State)
	}
	if kind := day.SpawnedKind(); kind != "" {
		rec := day.Rush
		if kind == premium.KindNut {
			rec = day.Nut
		}
		fmt.Printf("  p. %-22s [%s] (%d diamonds to enter)\n", kind.DisplayName(), rec.State, a.Config.PremiumEntryFee)
	}
	fmt.Println("  q. quit")
}

// playChallenge runs one daily challenge from start (or resume) to its end.
func playChallenge(a *app.App, in *bufio.Reader, index int) error {
	today := a.Today()
	set, err := a.Challenges.GetOrCreateTodaysSet(today)
	if err != nil {
		return err
	}
	c := set.Challenges[index]

	switch {
	case c.State.IsAvailable():
		res, err := a.Challenges.Start(today, index)
		if err != nil {
			return err
		}
		if !res.OK {
			fmt.Println("That challenge cannot be started:", res.Reason)
			return nil
		}
	case c.State.IsInProgress():
		fmt.Println("Resuming where you left off.")
	default:
		fmt.Println("That challenge is", string(c.State)+".")
		return nil
	}

	errors, done, err := runTasks(a, in, index)
	if err != nil {
		return err
	}
	if !done {
		res, err := a.Challenges.Fail(today, index, errors)
		if err != nil {
			return err
		}
		if res.OK {
			fmt.Println("Challenge abandoned. You can retry it today.")
		}
		return nil
	}

	complete, err := a.Challenges.Complete(today, index, errors)
	if err != nil {
		return err
	}
	if !complete.OK {
		fmt.Println("Could not complete:", complete.Reason)
		return nil
	}
	printCompletion(complete)
	return nil
}

// runTasks walks the in-progress challenge's remaining tasks. It returns the
// error count and whether the final task was passed; "stop" abandons.
func runTasks(a *app.App, in *bufio.Reader, index int) (int, bool, error) {
	today := a.Today()
	for {
		set, err := a.Challenges.GetOrCreateTodaysSet(today)
		if err != nil {
			return 0, false, err
		}
		c := set.Challenges[index]
		if c.CurrentTaskIndex >= len(c.Tasks) {
			return c.ErrorCount, true, nil
		}
		task := c.Tasks[c.CurrentTaskIndex]

		answer := prompt(in, fmt.Sprintf("[%d/%d] %s = ", c.CurrentTaskIndex+1, len(c.Tasks), task.Question))
		if answer == "stop" {
			return c.ErrorCount, false, nil
		}

		correct := taskgen.CheckAnswer(answer, task)
		if _, err := a.Challenges.RecordAnswer(today, index, correct); err != nil {
			return 0, false, err
		}
		if !correct {
			fmt.Println("Not quite, try again.")
			continue
		}

		res, err := a.Challenges.AdvanceTask(today, index)
		if err != nil {
			return 0, false, err
		}
		if res.Done {
			set, err = a.Challenges.GetOrCreateTodaysSet(today)
			if err != nil {
				return 0, false, err
			}
			return set.Challenges[index].ErrorCount, true, nil
		}
	}
}

func printCompletion(res challenge.CompleteResult) {
	fmt.Println("\nChallenge complete!")
	if res.SuperResult == challenge.SuperSuccess {
		fmt.Println("Flawless! The super challenge is yours.")
	} else if res.SuperResult == challenge.SuperFailed {
		fmt.Println("The super challenge needed a zero-error run. Done anyway!")
	}
	if res.Awarded > 0 {
		fmt.Printf("You earned %d diamond(s). Balance: %d\n", res.Awarded, res.Balance)
	}
	if res.Unfroze {
		fmt.Printf("Your streak thawed and grew to %d!\n", res.NewStreak)
	} else if res.StreakChanged {
		fmt.Printf("Streak: %d\n", res.NewStreak)
	}
	if res.AllCompleted {
		fmt.Println("All five challenges done. See you tomorrow!")
	}
}

// playPremium runs the spawned premium challenge, charging the entry fee. For
// Rush a local countdown feeds the engine's clock.
func playPremium(a *app.App, in *bufio.Reader, kind premium.Kind) error {
	today := a.Today()
	day, err := a.Premium.GetOrRollToday(today)
	if err != nil {
		return err
	}
	rec := day.Rush
	if kind == premium.KindNut {
		rec = day.Nut
	}

	if rec.State == premium.StateAvailable {
		fmt.Printf("%s costs %d diamonds to enter. Start? (y/n) ", kind.DisplayName(), a.Config.PremiumEntryFee)
		if prompt(in, "") != "y" {
			return nil
		}
		res, err := a.Premium.Start(today, kind)
		if err != nil {
			return err
		}
		if !res.OK {
			fmt.Println("Cannot start:", res.Reason)
			return nil
		}
		if kind == premium.KindNut {
			fmt.Println("The Nut cracks only for a perfect run. One mistake and it's over.")
		} else {
			fmt.Printf("Beat the clock! %d seconds on the Rush timer.\n", a.Config.RushSeconds)
		}
	} else if rec.State != premium.StateInProgress {
		fmt.Println("The premium challenge is", string(rec.State)+".")
		return nil
	}

	day, err = a.Premium.GetOrRollToday(today)
	if err != nil {
		return err
	}
	rec = day.Rush
	if kind == premium.KindNut {
		rec = day.Nut
	}
	// Resuming picks the countdown up where it stopped.
	deadline := time.Now().Add(time.Duration(rec.TimeRemaining) * time.Second)

	for {
		day, err = a.Premium.GetOrRollToday(today)
		if err != nil {
			return err
		}
		rec = day.Rush
		if kind == premium.KindNut {
			rec = day.Nut
		}
		if rec.State != premium.StateInProgress {
			return nil
		}
		if rec.CurrentTaskIndex >= len(rec.Tasks) {
			return finishPremium(a, kind)
		}
		task := rec.Tasks[rec.CurrentTaskIndex]

		if kind == premium.KindRush {
			remaining := int(time.Until(deadline).Seconds())
			if _, err := a.Premium.TickTime(today, remaining); err != nil {
				return err
			}
			if remaining <= 0 {
				if _, err := a.Premium.Timeout(today); err != nil {
					return err
				}
				fmt.Println("Time's up! The Rush resets; the entry fee is spent.")
				return nil
			}
			fmt.Printf("(%ds left) ", remaining)
		}

		answer := prompt(in, fmt.Sprintf("[%d/%d] %s = ", rec.CurrentTaskIndex+1, len(rec.Tasks), task.Question))
		if answer == "stop" {
			if _, err := a.Premium.Fail(today, kind); err != nil {
				return err
			}
			fmt.Println("Attempt abandoned. The entry fee is spent.")
			return nil
		}

		correct := taskgen.CheckAnswer(answer, task)
		if _, err := a.Premium.RecordAnswer(today, kind, correct); err != nil {
			return err
		}
		if !correct {
			if kind == premium.KindNut {
				if _, err := a.Premium.Fail(today, kind); err != nil {
					return err
				}
				fmt.Println("The Nut stays whole. You can pay to try again.")
				return nil
			}
			fmt.Println("Not quite, keep going!")
			continue
		}
		if _, err := a.Premium.AdvanceTask(today, kind); err != nil {
			return err
		}
	}
}

func finishPremium(a *app.App, kind premium.Kind) error {
	res, err := a.Premium.Complete(a.Today(), kind)
	if err != nil {
		return err
	}
	if !res.OK {
		fmt.Println("Could not complete:", res.Reason)
		return nil
	}
	if res.Outcome == premium.OutcomeSuccess {
		fmt.Printf("%s cleared! You won %d diamonds. Balance: %d\n", kind.DisplayName(), res.Reward, res.Balance)
	} else {
		fmt.Println("So close! The challenge resets; you can pay to try again.")
	}
	return nil
}

// handleStreakPrompt surfaces a frozen or expired streak once per day and
// walks the player through the recovery choice.
func handleStreakPrompt(a *app.App, in *bufio.Reader) error {
	today := a.Today()
	status, err := a.Streaks.CheckStatusOnLoad(today)
	if err != nil {
		return err
	}
	if !status.NeedsPrompt {
		return nil
	}

	switch status.Regime {
	case streak.RegimeFrozen:
		fmt.Printf("Your %d-day streak is frozen. Complete any challenge today to thaw it!\n", status.Record.CurrentStreak)
		return a.Streaks.MarkStatusHandled(today)

	case streak.RegimeExpiredRestorable:
		fmt.Printf("Your %d-day streak expired. Restore it for %d diamonds? (y/n) ", status.Record.CurrentStreak, a.Config.RestoreCost)
		if prompt(in, "") == "y" {
			res, err := a.Streaks.RestoreExpired(today)
			if err != nil {
				return err
			}
			if res.OK {
				fmt.Printf("Streak restored at %d days.\n", res.Streak)
				return nil
			}
			fmt.Println("Restore failed:", res.Reason)
		}
		if _, err := a.Streaks.AcceptLoss(today); err != nil {
			return err
		}
		fmt.Println("Starting fresh. A new streak begins with today's first challenge.")
		return nil

	default:
		fmt.Printf("Your %d-day streak is gone after a long break. A new one starts today!\n", status.Record.LostStreak)
		_, err := a.Streaks.AcceptLoss(today)
		return err
	}
}

func prompt(in *bufio.Reader, label string) string {
	if label != "" {
		fmt.Print(label)
	}
	line, err := in.ReadString('\n')
	if err != nil {
		return "q"
	}
	return strings.TrimSpace(line)
}
