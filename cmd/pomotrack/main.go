package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"pomotrack/internal/bootstrap"
	taskdto "pomotrack/internal/modules/task/dto"
	timerdto "pomotrack/internal/modules/timer/dto"
	"pomotrack/internal/platform/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dataDir string

	root := &cobra.Command{
		Use:           "pomotrack",
		Short:         "Task tracker with a pomodoro work timer",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir(), "data directory")

	root.AddCommand(newTUICmd(&dataDir))
	root.AddCommand(newTaskCmd(&dataDir))
	root.AddCommand(newTimerCmd(&dataDir))
	root.AddCommand(newNotifyCmd(&dataDir))
	return root
}

// withApp builds the application for one command and always closes it, so
// pending notifications are delivered and the store is released.
func withApp(dataDir string, opts bootstrap.Options, run func(*bootstrap.App) error) (err error) {
	cfg, err := config.New(dataDir)
	if err != nil {
		return err
	}
	app, err := bootstrap.New(cfg, opts)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := app.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return run(app)
}

func newTUICmd(dataDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the pomotrack terminal UI",
		RunE: func(_ *cobra.Command, _ []string) error {
			return withApp(*dataDir, bootstrap.Options{TUI: true}, bootstrap.RunTUI)
		},
	}
}

// ─── task ────────────────────────────────────────────────────────────────────

func newTaskCmd(dataDir *string) *cobra.Command {
	task := &cobra.Command{Use: "task", Short: "Manage tasks"}

	var title, description, due, priority string
	add := &cobra.Command{
		Use:   "add --title <title> --due <YYYY-MM-DD>",
		Short: "Create a task",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dueAt, err := taskdto.ParseDue(due)
			if err != nil {
				return err
			}
			return withApp(*dataDir, bootstrap.Options{}, func(app *bootstrap.App) error {
				out, err := app.TaskCLI.Create(context.Background(), title, description, dueAt, priority)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", out.Title, out.ID)
				return nil
			})
		},
	}
	add.Flags().StringVar(&title, "title", "", "task title")
	add.Flags().StringVar(&description, "description", "", "task description (markdown)")
	add.Flags().StringVar(&due, "due", "", "due date: YYYY-MM-DD or YYYY-MM-DD HH:MM")
	add.Flags().StringVar(&priority, "priority", "medium", "priority: low|medium|high")
	task.AddCommand(add)

	var status, sortBy string
	list := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, bootstrap.Options{}, func(app *bootstrap.App) error {
				out, err := app.TaskCLI.List(context.Background(), status, sortBy)
				if err != nil {
					return err
				}
				printTaskList(cmd.OutOrStdout(), out, time.Now())
				return nil
			})
		},
	}
	list.Flags().StringVar(&status, "status", taskdto.StatusIncomplete, "status: incomplete|complete|all")
	list.Flags().StringVar(&sortBy, "sort", taskdto.SortByDueDate, "sort: dueDate|priority")
	task.AddCommand(list)

	var showID string
	show := &cobra.Command{
		Use:   "show --id <task-id>",
		Short: "Show a task with its sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, bootstrap.Options{}, func(app *bootstrap.App) error {
				out, err := app.TaskCLI.Get(context.Background(), showID)
				if err != nil {
					return err
				}
				printTaskDetail(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
	show.Flags().StringVar(&showID, "id", "", "task id")
	task.AddCommand(show)

	var editID, editTitle, editDescription, editDue, editPriority string
	edit := &cobra.Command{
		Use:   "edit --id <task-id> [--title] [--description] [--due] [--priority]",
		Short: "Edit task fields",
		RunE: func(cmd *cobra.Command, _ []string) error {
			input := taskdto.UpdateInput{ID: editID}
			flags := cmd.Flags()
			if flags.Changed("title") {
				input.Title = &editTitle
			}
			if flags.Changed("description") {
				input.Description = &editDescription
			}
			if flags.Changed("priority") {
				input.Priority = &editPriority
			}
			if flags.Changed("due") {
				dueAt, err := taskdto.ParseDue(editDue)
				if err != nil {
					return err
				}
				input.DueDate = &dueAt
			}
			return withApp(*dataDir, bootstrap.Options{}, func(app *bootstrap.App) error {
				out, err := app.TaskCLI.Update(context.Background(), input)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "updated %s (%s)\n", out.Title, out.ID)
				return nil
			})
		},
	}
	edit.Flags().StringVar(&editID, "id", "", "task id")
	edit.Flags().StringVar(&editTitle, "title", "", "new title")
	edit.Flags().StringVar(&editDescription, "description", "", "new description")
	edit.Flags().StringVar(&editDue, "due", "", "new due date")
	edit.Flags().StringVar(&editPriority, "priority", "", "new priority")
	task.AddCommand(edit)

	var doneID string
	done := &cobra.Command{
		Use:   "done --id <task-id>",
		Short: "Toggle a task between incomplete and complete",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, bootstrap.Options{}, func(app *bootstrap.App) error {
				out, err := app.TaskCLI.ToggleStatus(context.Background(), doneID)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", out.Title, out.Status)
				return nil
			})
		},
	}
	done.Flags().StringVar(&doneID, "id", "", "task id")
	task.AddCommand(done)

	var deleteID string
	del := &cobra.Command{
		Use:   "delete --id <task-id>",
		Short: "Delete a task",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, bootstrap.Options{}, func(app *bootstrap.App) error {
				if err := app.TaskCLI.Delete(context.Background(), deleteID); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", deleteID)
				return nil
			})
		},
	}
	del.Flags().StringVar(&deleteID, "id", "", "task id")
	task.AddCommand(del)

	var exportID string
	export := &cobra.Command{
		Use:   "export --id <task-id>",
		Short: "Write a task and its sessions to a markdown note",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, bootstrap.Options{}, func(app *bootstrap.App) error {
				out, err := app.TaskCLI.Export(context.Background(), exportID)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "exported %s\n", out.Path)
				return nil
			})
		},
	}
	export.Flags().StringVar(&exportID, "id", "", "task id")
	task.AddCommand(export)

	return task
}

// ─── timer ───────────────────────────────────────────────────────────────────

func newTimerCmd(dataDir *string) *cobra.Command {
	timer := &cobra.Command{Use: "timer", Short: "Control the work timer"}

	timer.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the timer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, bootstrap.Options{}, func(app *bootstrap.App) error {
				out, err := app.TimerCLI.CatchUp(context.Background())
				if err != nil {
					return err
				}
				printTimerResult(cmd.OutOrStdout(), out)
				return nil
			})
		},
	})

	var startTask string
	start := &cobra.Command{
		Use:   "start [--task <task-id>]",
		Short: "Start or resume the countdown; time is logged to --task",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, bootstrap.Options{}, func(app *bootstrap.App) error {
				out, err := app.TimerCLI.Start(context.Background(), startTask)
				if err != nil {
					return err
				}
				printTimerResult(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
	start.Flags().StringVar(&startTask, "task", "", "task to log the session to")
	timer.AddCommand(start)

	timer.AddCommand(&cobra.Command{
		Use:   "pause",
		Short: "Pause the countdown and log the elapsed session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, bootstrap.Options{}, func(app *bootstrap.App) error {
				out, err := app.TimerCLI.Pause(context.Background())
				if err != nil {
					return err
				}
				printTimerResult(cmd.OutOrStdout(), out)
				return nil
			})
		},
	})

	timer.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Log any running session and restore the full duration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, bootstrap.Options{}, func(app *bootstrap.App) error {
				out, err := app.TimerCLI.Reset(context.Background())
				if err != nil {
					return err
				}
				printTimerResult(cmd.OutOrStdout(), out)
				return nil
			})
		},
	})

	var seconds bool
	duration := &cobra.Command{
		Use:   "duration <minutes>",
		Short: "Set the countdown length (timer must be stopped)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("duration must be a whole number: %w", err)
			}
			if !seconds {
				n *= 60
			}
			return withApp(*dataDir, bootstrap.Options{}, func(app *bootstrap.App) error {
				out, err := app.TimerCLI.SetDuration(context.Background(), n)
				if err != nil {
					return err
				}
				printTimerResult(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
	duration.Flags().BoolVar(&seconds, "seconds", false, "read the argument as seconds")
	timer.AddCommand(duration)

	var runTask string
	run := &cobra.Command{
		Use:   "run [--task <task-id>]",
		Short: "Start the timer and count down in the foreground; ctrl+c pauses",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, bootstrap.Options{}, func(app *bootstrap.App) error {
				return runTimer(cmd.Context(), cmd.OutOrStdout(), app, runTask)
			})
		},
	}
	run.Flags().StringVar(&runTask, "task", "", "task to log the session to")
	timer.AddCommand(run)

	return timer
}

// runTimer drives ticks from one ticker until the countdown completes or the
// user interrupts, which pauses and logs the partial session.
func runTimer(ctx context.Context, w io.Writer, app *bootstrap.App, taskID string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	out, err := app.TimerCLI.Attach(ctx, taskID)
	if err != nil {
		return err
	}
	generation := out.State.Generation

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	_, _ = fmt.Fprintf(w, "\r%s ", clock(out.State.RemainingTime))
	for {
		select {
		case <-sigCtx.Done():
			_, _ = fmt.Fprintln(w)
			paused, err := app.TimerCLI.Pause(context.WithoutCancel(ctx))
			if err != nil {
				return err
			}
			printTimerResult(w, paused)
			return nil
		case <-ticker.C:
			res, err := app.TimerCLI.Tick(ctx, generation)
			if err != nil {
				return err
			}
			if res.Stale {
				return errors.New("timer was changed elsewhere, stopping")
			}
			_, _ = fmt.Fprintf(w, "\r%s ", clock(res.State.RemainingTime))
			if res.Completed {
				_, _ = fmt.Fprintln(w, "\a")
				printTimerResult(w, res)
				return nil
			}
		}
	}
}

// ─── notify ──────────────────────────────────────────────────────────────────

func newNotifyCmd(dataDir *string) *cobra.Command {
	notify := &cobra.Command{Use: "notify", Short: "Inspect notifier plugins"}

	notify.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List configured notifier plugins",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, bootstrap.Options{}, func(app *bootstrap.App) error {
				plugins, err := app.NotifyCLI.List(context.Background())
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				_, _ = fmt.Fprintln(tw, "NAME\tVERSION\tENABLED\tEVENTS\tBINARY")
				for _, p := range plugins {
					_, _ = fmt.Fprintf(tw, "%s\t%s\t%t\t%s\t%s\n", p.Name, p.Version, p.Enabled, strings.Join(p.Events, ","), p.Binary)
				}
				return tw.Flush()
			})
		},
	})

	notify.AddCommand(&cobra.Command{
		Use:   "doctor",
		Short: "Check notifier binaries, checksums and handshakes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, bootstrap.Options{}, func(app *bootstrap.App) error {
				results, err := app.NotifyCLI.Doctor(context.Background())
				if err != nil {
					return err
				}
				for _, r := range results {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s reachable=%t checksum=%t lifecycle=%t", r.Name, r.BinaryReachable, r.ChecksumValid, r.LifecycleOK)
					if r.Error != "" {
						_, _ = fmt.Fprintf(cmd.OutOrStdout(), " error=%s", r.Error)
					}
					_, _ = fmt.Fprintln(cmd.OutOrStdout())
				}
				return nil
			})
		},
	})

	var event string
	test := &cobra.Command{
		Use:   "test [--event timer.completed]",
		Short: "Send a synthetic event to every subscribed plugin",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, bootstrap.Options{}, func(app *bootstrap.App) error {
				out, err := app.NotifyCLI.Test(context.Background(), event, time.Now().UTC())
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "delivered=%s\n", strings.Join(out.Delivered, ","))
				for _, f := range out.Failed {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "failed %s: %s\n", f.Name, f.Error)
				}
				return nil
			})
		},
	}
	test.Flags().StringVar(&event, "event", "timer.completed", "event: timer.completed|session.recorded")
	notify.AddCommand(test)

	return notify
}

// ─── output ──────────────────────────────────────────────────────────────────

func printTaskList(w io.Writer, out taskdto.ListOutput, now time.Time) {
	_, _ = fmt.Fprintf(w, "all %d  incomplete %d  complete %d\n\n", out.Counts.All, out.Counts.Incomplete, out.Counts.Complete)
	if len(out.Tasks) == 0 {
		_, _ = fmt.Fprintln(w, "no tasks")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tTITLE\tPRIORITY\tSTATUS\tDUE\tSPENT\tSESSIONS")
	for _, t := range out.Tasks {
		due := humanize.RelTime(t.DueDate, now, "ago", "from now")
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			t.ID, t.Title, t.Priority, t.Status, due, spent(t.TimeSpent), t.SessionCount)
	}
	_ = tw.Flush()
}

func printTaskDetail(w io.Writer, t taskdto.TaskDetailOutput) {
	_, _ = fmt.Fprintf(w, "%s\n", t.Title)
	_, _ = fmt.Fprintf(w, "id:        %s\n", t.ID)
	_, _ = fmt.Fprintf(w, "priority:  %s\n", t.Priority)
	_, _ = fmt.Fprintf(w, "status:    %s\n", t.Status)
	_, _ = fmt.Fprintf(w, "due:       %s (%s)\n", t.DueDate.Local().Format("2006-01-02 15:04"), humanize.Time(t.DueDate))
	_, _ = fmt.Fprintf(w, "created:   %s\n", t.CreatedAt.Local().Format(time.RFC3339))
	if t.CompletedAt != nil {
		_, _ = fmt.Fprintf(w, "completed: %s\n", t.CompletedAt.Local().Format(time.RFC3339))
	}
	_, _ = fmt.Fprintf(w, "spent:     %s\n", spent(t.TimeSpent))
	if strings.TrimSpace(t.Description) != "" {
		_, _ = fmt.Fprintf(w, "\n%s\n", t.Description)
	}
	_, _ = fmt.Fprintf(w, "\nsessions (%d)\n", len(t.Sessions))
	for i, s := range t.Sessions {
		_, _ = fmt.Fprintf(w, "%3d  %s  %s  %s\n", i+1,
			s.StartTime.Local().Format("2006-01-02 15:04:05"),
			s.EndTime.Local().Format("15:04:05"),
			spent(s.Duration))
	}
}

func printTimerResult(w io.Writer, out timerdto.ResultOutput) {
	s := out.State
	state := "stopped"
	switch {
	case s.IsRunning && s.TaskID != "":
		state = "running on " + s.TaskID
	case s.IsRunning:
		state = "running (not logging to a task)"
	case s.Expired():
		state = "finished, reset to start again"
	}
	_, _ = fmt.Fprintf(w, "%s / %s  %s\n", clock(s.RemainingTime), clock(s.Duration), state)
	if a := out.Accrual; a != nil {
		_, _ = fmt.Fprintf(w, "logged %s to %s (total %s)\n", spent(a.Duration), a.TaskID, spent(a.TimeSpent))
	}
	if out.Completed {
		_, _ = fmt.Fprintln(w, "time's up")
	}
}

func clock(seconds int) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func spent(seconds int) string {
	return (time.Duration(seconds) * time.Second).String()
}
