package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/daybar-app/daybar/internal/database"
	"github.com/daybar-app/daybar/internal/legacy"
	"github.com/daybar-app/daybar/internal/logger"
	"github.com/daybar-app/daybar/internal/models"
	"github.com/daybar-app/daybar/internal/store"
	"github.com/daybar-app/daybar/internal/timeutil"
	"github.com/daybar-app/daybar/internal/tui"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Database file path." type:"path"`
	Debug   bool   `help:"Enable debug logging."`

	Tui   TuiCmd   `cmd:"" help:"Launch the interactive weekly schedule." default:"1"`
	Show  ShowCmd  `cmd:"" help:"Print the schedule for a day."`
	Reset ResetCmd `cmd:"" help:"Reset all settings and completions."`
}

type appContext struct {
	store *store.Store
}

type TuiCmd struct{}

func (c *TuiCmd) Run(app *appContext) error {
	p := tea.NewProgram(tui.NewApp(app.store), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

type ShowCmd struct {
	Day string `arg:"" optional:"" help:"Day of week (e.g. monday). Defaults to today."`
}

func (c *ShowCmd) Run(app *appContext) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.store.WaitUntilReady(ctx); err != nil {
		return err
	}

	day := models.DayOf(time.Now())
	if c.Day != "" {
		day = models.DayOfWeek(c.Day)
		if _, ok := models.DayLabels[day]; !ok {
			return fmt.Errorf("unknown day %q", c.Day)
		}
	}

	cfg := app.store.DayConfigFor(day)
	fmt.Printf("%s\n", models.DayLabels[day])
	if !cfg.Enabled {
		fmt.Println("  (disabled)")
		return nil
	}
	fmt.Printf("  window: %s - %s\n", timeutil.Format(cfg.StartTime), timeutil.Format(cfg.EndTime))

	if len(cfg.BusyPeriods) == 0 {
		fmt.Println("  no busy periods")
		return nil
	}
	completions := app.store.CompletionsForDate(time.Now())
	today := day == models.DayOf(time.Now())
	for i, p := range cfg.BusyPeriods {
		mark := " "
		if today {
			if _, ok := completions[i]; ok {
				mark = "x"
			}
		}
		switch {
		case p.Kind() == models.PeriodFloating:
			fmt.Printf("  [%s] %s (~%s)\n", mark, p.Title, timeutil.Format(*p.Duration))
		case p.Start != nil && p.End != nil:
			fmt.Printf("  [%s] %s (%s-%s)\n", mark, p.Title, timeutil.Format(*p.Start), timeutil.Format(*p.End))
		default:
			fmt.Printf("  [%s] %s\n", mark, p.Title)
		}
	}
	if today && len(completions) > 0 {
		indexes := make([]int, 0, len(completions))
		for i := range completions {
			indexes = append(indexes, i)
		}
		sort.Ints(indexes)
		for _, i := range indexes {
			fmt.Printf("  done #%d at %s\n", i, timeutil.Format(completions[i].CompletedAt))
		}
	}
	return nil
}

type ResetCmd struct {
	Force bool `help:"Skip confirmation."`
}

func (c *ResetCmd) Run(app *appContext) error {
	if !c.Force {
		fmt.Print("Reset all settings and completions? [y/N] ")
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.store.WaitUntilReady(ctx); err != nil {
		return err
	}
	app.store.ResetAll()
	app.store.Flush()
	fmt.Println("Schedule reset to defaults.")
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("daybar"),
		kong.Description("Personal weekly schedule tracker"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.Vars{"version": "v0.1.0"},
	)

	dbPath := CLI.Config
	if dbPath == "" {
		var err error
		dbPath, err = database.DefaultPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	configDir := filepath.Dir(dbPath)

	if err := logger.Init(logger.Config{Debug: CLI.Debug, ConfigDir: configDir}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	s := store.New(store.Options{
		DBPath: dbPath,
		Legacy: legacy.NewFileKV(configDir),
	})
	defer s.Close()

	if err := ctx.Run(&appContext{store: s}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
