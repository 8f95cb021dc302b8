package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"medtrack/internal/bootstrap"
	scheduledto "medtrack/internal/modules/schedule/dto"
	"medtrack/internal/platform/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootFlags struct {
	vaultPath string
	assumeYes bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "medtrack",
		Short:         "Medication reminder tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.vaultPath, "vault", ".", "vault directory holding .medtrack data")
	root.PersistentFlags().BoolVarP(&flags.assumeYes, "yes", "y", false, "answer yes to every confirmation")

	root.AddCommand(newTUICmd(flags))
	root.AddCommand(newTodayCmd(flags))
	root.AddCommand(newMedsCmd(flags))
	root.AddCommand(newTakeCmd(flags))
	root.AddCommand(newActivateCmd(flags))
	root.AddCommand(newResetCourseCmd(flags))
	root.AddCommand(newResetTodayCmd(flags))
	root.AddCommand(newSweepCmd(flags))
	root.AddCommand(newWatchCmd(flags))
	root.AddCommand(newNoteCmd(flags))
	root.AddCommand(newAddCmd(flags))
	root.AddCommand(newRemoveCmd(flags))
	root.AddCommand(newNotifyCmd(flags))
	return root
}

func loadConfig(vaultPath string) (config.Config, error) {
	// .env is optional; values already in the environment win.
	if err := godotenv.Load(filepath.Join(vaultPath, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return config.Config{}, fmt.Errorf("load .env: %w", err)
	}
	return config.Load(vaultPath)
}

func loadApp(cmd *cobra.Command, flags *rootFlags, mode bootstrap.Mode) (*bootstrap.App, error) {
	cfg, err := loadConfig(flags.vaultPath)
	if err != nil {
		return nil, err
	}
	return bootstrap.New(cfg, bootstrap.Options{
		Mode:      mode,
		AssumeYes: flags.assumeYes,
		In:        cmd.InOrStdin(),
		Out:       cmd.OutOrStdout(),
		ErrOut:    cmd.ErrOrStderr(),
	})
}

// withApp builds the CLI app, runs fn and releases the app afterwards.
func withApp(cmd *cobra.Command, flags *rootFlags, fn func(app *bootstrap.App) error) error {
	app, err := loadApp(cmd, flags, bootstrap.ModeCLI)
	if err != nil {
		return err
	}
	runErr := fn(app)
	return errors.Join(runErr, app.Close())
}

func parseID(raw string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid medication id %q", raw)
	}
	return id, nil
}

func printWarning(w io.Writer, warning string) {
	if warning != "" {
		_, _ = fmt.Fprintf(w, "warning: %s\n", warning)
	}
}

func newTUICmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the medtrack terminal UI",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(cmd, flags, bootstrap.ModeTUI)
			if err != nil {
				return err
			}
			runErr := bootstrap.RunTUI(app)
			return errors.Join(runErr, app.Close())
		},
	}
}

func newTodayCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Show today's doses",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(app *bootstrap.App) error {
				today, err := app.ScheduleCLI.Today(context.Background())
				if err != nil {
					return err
				}
				printToday(cmd.OutOrStdout(), today)
				return nil
			})
		},
	}
}

func printToday(w io.Writer, today scheduledto.TodayOutput) {
	_, _ = fmt.Fprintf(w, "Today %s  %d/%d taken\n", today.Day, today.Taken, today.Total)
	if today.EmptyHint != "" {
		_, _ = fmt.Fprintln(w, today.EmptyHint)
		return
	}
	for _, e := range today.Entries {
		_, _ = fmt.Fprintf(w, "\n[%d] %s  %s  %s\n", e.Medication.ID, e.Medication.Name, e.Medication.Dosage, e.Medication.Instruction)
		for _, s := range e.Slots {
			switch {
			case s.Taken:
				_, _ = fmt.Fprintf(w, "    [x] %s (taken %s)\n", s.Time, s.TakenAt)
			case s.Overdue:
				_, _ = fmt.Fprintf(w, "    [ ] %s due\n", s.Time)
			default:
				_, _ = fmt.Fprintf(w, "    [ ] %s\n", s.Time)
			}
		}
		if e.Footer != "" {
			_, _ = fmt.Fprintf(w, "    %s\n", e.Footer)
		}
	}
}

func newMedsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "meds",
		Short: "List all medications",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(app *bootstrap.App) error {
				meds, err := app.ScheduleCLI.Medications(context.Background())
				if err != nil {
					return err
				}
				for _, m := range meds {
					state := "visible"
					if !m.Visible {
						state = "hidden"
					}
					line := fmt.Sprintf("%d\t%s\t%s\t%s\t%s", m.ID, m.Name, m.Kind, strings.Join(m.ScheduledTimes, ","), state)
					if m.DurationDays > 0 {
						line += fmt.Sprintf("\tcourse=%s", m.CourseState)
						if m.CourseDay > 0 {
							line += fmt.Sprintf(" day=%d/%d", m.CourseDay, m.DurationDays)
						}
					}
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), line)
				}
				return nil
			})
		},
	}
}

func newTakeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "take <id> <HH:MM>",
		Short: "Mark a dose taken, or undo it when already taken",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, flags, func(app *bootstrap.App) error {
				out, err := app.ScheduleCLI.Take(context.Background(), id, args[1])
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				switch {
				case out.Declined:
					_, _ = fmt.Fprintf(w, "kept: %s %s stays taken\n", out.Name, out.Slot)
				case out.Taken:
					_, _ = fmt.Fprintf(w, "taken: %s %s at %s\n", out.Name, out.Slot, out.TakenAt)
					if out.CourseStarted {
						_, _ = fmt.Fprintln(w, "course started today")
					}
				default:
					_, _ = fmt.Fprintf(w, "undone: %s %s\n", out.Name, out.Slot)
				}
				printWarning(cmd.ErrOrStderr(), out.Warning)
				return nil
			})
		},
	}
}

func newActivateCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "activate <id>",
		Short: "Toggle a conditional medication on or off",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, flags, func(app *bootstrap.App) error {
				out, err := app.ScheduleCLI.Activate(context.Background(), id)
				if err != nil {
					return err
				}
				state := "paused"
				if out.IsActive {
					state = "active"
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", out.Name, state)
				printWarning(cmd.ErrOrStderr(), out.Warning)
				return nil
			})
		},
	}
}

func newResetCourseCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-course <id>",
		Short: "Clear course start and history of a medication",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, flags, func(app *bootstrap.App) error {
				out, err := app.ScheduleCLI.ResetCourse(context.Background(), id)
				if err != nil {
					return err
				}
				printReset(cmd, out, "course reset")
				return nil
			})
		},
	}
}

func newResetTodayCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-today",
		Short: "Clear every taken mark recorded today",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(app *bootstrap.App) error {
				out, err := app.ScheduleCLI.ResetToday(context.Background())
				if err != nil {
					return err
				}
				printReset(cmd, out, fmt.Sprintf("today reset, %d mark(s) cleared", out.Cleared))
				return nil
			})
		},
	}
}

func printReset(cmd *cobra.Command, out scheduledto.ResetOutput, done string) {
	if !out.Applied {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "cancelled")
		return
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), done)
	printWarning(cmd.ErrOrStderr(), out.Warning)
}

func newSweepCmd(flags *rootFlags) *cobra.Command {
	var since time.Duration
	sweep := &cobra.Command{
		Use:   "sweep",
		Short: "Notify untaken doses that came due within --since",
		Long: "Notify untaken doses that came due within --since. Meant for cron or a\n" +
			"systemd timer: run it as often as --since so every slot is checked once.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(app *bootstrap.App) error {
				out, err := app.ScheduleCLI.SweepSince(context.Background(), since)
				if err != nil {
					return err
				}
				printSweep(cmd.OutOrStdout(), out, true)
				return nil
			})
		},
	}
	sweep.Flags().DurationVar(&since, "since", 15*time.Minute, "how far back to look for due doses")
	return sweep
}

func printSweep(w io.Writer, out scheduledto.SweepOutput, always bool) {
	if !always && len(out.Due) == 0 && out.Skipped == 0 {
		return
	}
	_, _ = fmt.Fprintf(w, "%s due=%d delivered=%d failed=%d skipped=%d permission=%s\n",
		out.To.Format("15:04:05"), len(out.Due), out.Delivered, out.Failed, out.Skipped, out.Permission)
	for _, r := range out.Due {
		_, _ = fmt.Fprintf(w, "  %s %s: %s\n", r.Slot, r.Title, r.Body)
	}
}

func newWatchCmd(flags *rootFlags) *cobra.Command {
	var interval time.Duration
	watch := &cobra.Command{
		Use:   "watch",
		Short: "Sweep for due doses until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(app *bootstrap.App) error {
				every := interval
				if every <= 0 {
					every = app.Config.SweepInterval
				}
				ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "watching every %s, ctrl+c to stop\n", every)
				return app.ScheduleCLI.Watch(ctx, every, func(out scheduledto.SweepOutput) {
					printSweep(cmd.OutOrStdout(), out, false)
				})
			})
		},
	}
	watch.Flags().DurationVar(&interval, "interval", 0, "sweep interval (defaults to sweep_interval from config)")
	return watch
}

func newNoteCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "note",
		Short: "Write today's schedule into the vault day note",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(app *bootstrap.App) error {
				out, err := app.ScheduleCLI.Note(context.Background())
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "day note written: %s\n", out.Path)
				return nil
			})
		},
	}
}

func newAddCmd(flags *rootFlags) *cobra.Command {
	var input scheduledto.AddMedicationInput
	add := &cobra.Command{
		Use:   "add --name <name>",
		Short: "Add a medication",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(app *bootstrap.App) error {
				out, err := app.ScheduleCLI.Add(context.Background(), input)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "added %s (%d)\n", out.Name, out.ID)
				return nil
			})
		},
	}
	add.Flags().StringVar(&input.Name, "name", "", "medication name")
	add.Flags().StringVar(&input.Dosage, "dosage", "", "dosage, e.g. 2.5 ml")
	add.Flags().StringVar(&input.Instruction, "instruction", "", "instruction, e.g. after meals")
	add.Flags().StringSliceVar(&input.Times, "times", nil, "scheduled times HH:MM")
	return add
}

func newRemoveCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a medication",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, flags, func(app *bootstrap.App) error {
				if err := app.ScheduleCLI.Remove(context.Background(), id); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "removed %d\n", id)
				return nil
			})
		},
	}
}

func newNotifyCmd(flags *rootFlags) *cobra.Command {
	notify := &cobra.Command{Use: "notify", Short: "Notification permission and delivery"}

	notify.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show permission and configured notifiers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(app *bootstrap.App) error {
				out, err := app.NotifyCLI.Status(context.Background())
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(w, "permission=%s available=%t direct=%t\n", out.Permission, out.Available, out.DirectSink)
				if len(out.Notifiers) == 0 {
					_, _ = fmt.Fprintln(w, "no notifier plugins configured")
				}
				for _, n := range out.Notifiers {
					_, _ = fmt.Fprintf(w, "%s@%s enabled=%t binary=%s\n", n.Name, n.Version, n.Enabled, n.Binary)
				}
				return nil
			})
		},
	})

	notify.AddCommand(&cobra.Command{
		Use:   "enable",
		Short: "Ask for notification permission",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(app *bootstrap.App) error {
				out, err := app.NotifyCLI.Enable(context.Background())
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "permission=%s\n", out.Permission)
				return nil
			})
		},
	})

	notify.AddCommand(&cobra.Command{
		Use:   "disable",
		Short: "Revoke notification permission",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(app *bootstrap.App) error {
				out, err := app.NotifyCLI.Disable(context.Background())
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "permission=%s\n", out.Permission)
				return nil
			})
		},
	})

	notify.AddCommand(&cobra.Command{
		Use:   "test",
		Short: "Send a test notification",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(app *bootstrap.App) error {
				out, err := app.NotifyCLI.Test(context.Background())
				if err != nil {
					return err
				}
				if out.Collapsed {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "collapsed: a test notification was shown recently")
					return nil
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "sent %s via %s\n", out.ID, out.Channel)
				return nil
			})
		},
	})

	notify.AddCommand(&cobra.Command{
		Use:   "doctor",
		Short: "Validate notifier checksums and lifecycle",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(app *bootstrap.App) error {
				results, err := app.NotifyCLI.Doctor(context.Background())
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if len(results) == 0 {
					_, _ = fmt.Fprintln(w, "no notifier plugins configured")
					return nil
				}
				for _, r := range results {
					_, _ = fmt.Fprintf(w, "%s checksum=%t binary=%t lifecycle=%t", r.Name, r.ChecksumValid, r.BinaryReachable, r.LifecycleOK)
					if r.Channel != "" {
						_, _ = fmt.Fprintf(w, " channel=%s", r.Channel)
					}
					if r.Error != "" {
						_, _ = fmt.Fprintf(w, " error=%q", r.Error)
					}
					_, _ = fmt.Fprintln(w)
				}
				return nil
			})
		},
	})
	return notify
}
