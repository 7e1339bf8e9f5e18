package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"run4recht/internal/activity"
	"run4recht/internal/calendar"
	"run4recht/internal/config"
	cronrunner "run4recht/internal/cron"
	"run4recht/internal/output"
	"run4recht/internal/ranking"
)

type Context struct {
	Config config.Config
	Output output.Format
}

func Usage(w io.Writer) {
	fmt.Fprint(w, `syncagent [flags] <command> [flags]

Global Flags:
  --config      Config file (env: R4R_CONFIG)
  --api-base    Server base URL
  --output      json|text (default text)

Commands:
  run      sync and reminder loop (cron)
  sync     upload new steps once
  stats    daily series and summary [--window W1|aktuell|Gesamt]
  rank     position in the department [--window W1|aktuell|Gesamt]
  ranking  department ranking [--window W1|aktuell|Gesamt]
  weeks    tournament weeks up to today
  set      overwrite one day manually --date 2024-01-05 --steps 8000
  reset    forget the sync checkpoint (next sync starts at the tournament start)
`)
}

func Dispatch(ctx context.Context, c Context, args []string) error {
	if len(args) == 0 {
		Usage(os.Stderr)
		return errors.New("missing command")
	}
	switch args[0] {
	case "run":
		return runCmd(ctx, c, args[1:])
	case "sync":
		return syncCmd(ctx, c, args[1:])
	case "stats":
		return statsCmd(ctx, c, args[1:])
	case "rank":
		return rankCmd(ctx, c, args[1:])
	case "ranking":
		return rankingCmd(ctx, c, args[1:])
	case "weeks":
		return weeksCmd(ctx, c, args[1:])
	case "set":
		return setCmd(ctx, c, args[1:])
	case "reset":
		return resetCmd(ctx, c, args[1:])
	case "help", "-h", "--help":
		Usage(os.Stdout)
		return nil
	default:
		Usage(os.Stderr)
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func runCmd(ctx context.Context, c Context, args []string) error {
	fs := flag.NewFlagSet("syncagent run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	once := fs.Bool("sync-now", true, "Sync once before the first tick")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := newApp(ctx, c.Config, true)
	if err != nil {
		return err
	}
	defer a.Close()

	// sync and reminder never overlap
	var mu sync.Mutex
	serial := func(job cronrunner.Job) cronrunner.Job {
		return func(ctx context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			return job(ctx)
		}
	}

	if *once {
		if err := serial(a.sync.Job)(ctx); err != nil {
			a.log.Warn("initial sync failed", zap.Error(err))
		}
	}

	runner := cronrunner.New(a.log.Named("cron"), ctx)
	if _, err := runner.Add("sync", c.Config.Cron.Sync, serial(a.sync.Job)); err != nil {
		return fmt.Errorf("cron sync: %w", err)
	}
	if _, err := runner.Add("reminder", c.Config.Cron.Reminder, serial(a.reminder.Job)); err != nil {
		return fmt.Errorf("cron reminder: %w", err)
	}
	if _, err := runner.Add("session", "@every 1h", a.refreshSession); err != nil {
		return fmt.Errorf("cron session: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		runner.Start()
		<-gctx.Done()
		runner.Stop()
		return nil
	})
	g.Go(func() error {
		events, cancel := a.session.Subscribe()
		defer cancel()
		for {
			select {
			case <-gctx.Done():
				return nil
			case ev, ok := <-events:
				if !ok {
					return nil
				}
				a.log.Debug("session event", zap.String("kind", string(ev.Kind)), zap.Uint64("generation", ev.Generation))
			}
		}
	})
	a.log.Info("agent running", zap.String("sync", c.Config.Cron.Sync), zap.String("reminder", c.Config.Cron.Reminder))
	return g.Wait()
}

func syncCmd(ctx context.Context, c Context, args []string) error {
	fs := flag.NewFlagSet("syncagent sync", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	a, err := newApp(ctx, c.Config, true)
	if err != nil {
		return err
	}
	defer a.Close()
	res, err := a.sync.RunOnce(ctx)
	if err != nil {
		return err
	}
	return output.Write(os.Stdout, c.Output, res)
}

type statsView struct {
	Window  ranking.Window             `json:"fenster"`
	Days    []activity.StatisticRecord `json:"tage"`
	Summary ranking.Summary            `json:"zusammenfassung"`
}

func (v statsView) Header() []string { return []string{"datum", "schritte", "strecke_km"} }

func (v statsView) Rows() [][]string {
	rows := make([][]string, 0, len(v.Days)+1)
	for _, d := range v.Days {
		rows = append(rows, []string{d.Date.String(), strconv.FormatInt(d.Steps, 10), d.DistanceKm.StringFixed(2)})
	}
	rows = append(rows, []string{v.Window.Label, strconv.FormatInt(v.Summary.TotalSteps, 10), v.Summary.TotalDistanceKm.StringFixed(2)})
	return rows
}

func statsCmd(ctx context.Context, c Context, args []string) error {
	fs := flag.NewFlagSet("syncagent stats", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	label := fs.String("window", ranking.WholeTournamentLabel, "Window label (W1..Wn, aktuell or Gesamt)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	a, err := newApp(ctx, c.Config, false)
	if err != nil {
		return err
	}
	defer a.Close()
	w, err := a.window(*label)
	if err != nil {
		return err
	}
	user, _ := a.session.User()
	records, err := a.api.FetchStatistics(ctx, user.EmployeeID, w.Elapsed)
	if err != nil {
		return err
	}
	days, err := ranking.FillMissingDays(w.Elapsed.Start, w.Elapsed.End, records)
	if err != nil {
		return err
	}
	return output.Write(os.Stdout, c.Output, statsView{Window: w, Days: days, Summary: ranking.Summarize(days)})
}

type rankView struct {
	Window   ranking.Window   `json:"fenster"`
	Position ranking.Position `json:"position"`
}

func (v rankView) Header() []string {
	return []string{"fenster", "platz", "teilnehmer", "abstand_nach_vorne", "vorsprung_nach_hinten"}
}

func (v rankView) Rows() [][]string {
	p := v.Position
	return [][]string{{v.Window.Label, strconv.Itoa(p.Rank), strconv.Itoa(p.CohortSize),
		strconv.FormatInt(p.GapAhead, 10), strconv.FormatInt(p.GapBehind, 10)}}
}

func rankCmd(ctx context.Context, c Context, args []string) error {
	fs := flag.NewFlagSet("syncagent rank", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	label := fs.String("window", ranking.WholeTournamentLabel, "Window label (W1..Wn, aktuell or Gesamt)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	a, err := newApp(ctx, c.Config, false)
	if err != nil {
		return err
	}
	defer a.Close()
	w, err := a.window(*label)
	if err != nil {
		return err
	}
	user, _ := a.session.User()
	records, err := a.api.FetchDepartmentTotals(ctx, user.DepartmentID, w.Elapsed)
	if err != nil {
		return err
	}
	pos, err := ranking.RankAndGapTo(ranking.Totals(records), user.EmployeeID)
	if err != nil {
		return err
	}
	return output.Write(os.Stdout, c.Output, rankView{Window: w, Position: pos})
}

type weeksView ranking.Windows

func (v weeksView) Header() []string { return []string{"fenster", "von", "bis", "bisher_bis"} }

func (v weeksView) Rows() [][]string {
	all := append(append([]ranking.Window{}, v.Weeks...), v.Whole)
	rows := make([][]string, 0, len(all))
	for _, w := range all {
		rows = append(rows, []string{w.Label, w.Range.Start.String(), w.Range.End.String(), w.Elapsed.End.String()})
	}
	return rows
}

func weeksCmd(ctx context.Context, c Context, args []string) error {
	a, err := newApp(ctx, c.Config, false)
	if err != nil {
		return err
	}
	defer a.Close()
	tw, _ := a.session.Tournament()
	windows, err := ranking.DeriveWeekWindows(tw, calendar.Today(a.now(), a.loc))
	if err != nil {
		return err
	}
	if c.Output == output.FormatJSON {
		return output.Write(os.Stdout, c.Output, windows)
	}
	return output.Write(os.Stdout, c.Output, weeksView(windows))
}

type rankingView struct {
	Window  ranking.Window          `json:"fenster"`
	Entries []activity.RankingEntry `json:"rangliste"`
}

func (v rankingView) Header() []string { return []string{"platz", "dienstelle", "schritte", "trend"} }

func (v rankingView) Rows() [][]string {
	rows := make([][]string, 0, len(v.Entries))
	for _, e := range v.Entries {
		rows = append(rows, []string{strconv.Itoa(e.Rank), e.Name, strconv.FormatInt(e.TotalSteps, 10), string(e.Trend)})
	}
	return rows
}

func rankingCmd(ctx context.Context, c Context, args []string) error {
	fs := flag.NewFlagSet("syncagent ranking", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	label := fs.String("window", ranking.WholeTournamentLabel, "Window label (W1..Wn, aktuell or Gesamt)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	a, err := newApp(ctx, c.Config, false)
	if err != nil {
		return err
	}
	defer a.Close()
	w, err := a.window(*label)
	if err != nil {
		return err
	}
	entries, err := a.api.FetchRankings(ctx, w.Elapsed)
	if err != nil {
		return err
	}
	return output.Write(os.Stdout, c.Output, rankingView{Window: w, Entries: entries})
}

func setCmd(ctx context.Context, c Context, args []string) error {
	fs := flag.NewFlagSet("syncagent set", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	date := fs.String("date", "", "Day to overwrite (YYYY-MM-DD, default today)")
	steps := fs.Int64("steps", -1, "Steps for that day")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *steps < 0 {
		return errors.New("--steps is required and must not be negative")
	}
	a, err := newApp(ctx, c.Config, false)
	if err != nil {
		return err
	}
	defer a.Close()
	day := calendar.Today(a.now(), a.loc)
	if *date != "" {
		if day, err = calendar.Parse(*date); err != nil {
			return err
		}
	}
	user, _ := a.session.User()
	saved, err := a.api.UpsertStatistic(ctx, activity.StatisticRecord{EmployeeID: user.EmployeeID, Steps: *steps, Date: day})
	if err != nil {
		return err
	}
	return output.Write(os.Stdout, c.Output, saved)
}

func resetCmd(ctx context.Context, c Context, args []string) error {
	a, err := newApp(ctx, c.Config, false)
	if err != nil {
		return err
	}
	defer a.Close()
	cps, err := a.checkpoints(ctx)
	if err != nil {
		return err
	}
	user, _ := a.session.User()
	if err := cps.Reset(ctx, user.EmployeeID); err != nil {
		return err
	}
	a.log.Info("checkpoint reset", zap.Int64("employee", user.EmployeeID))
	return nil
}
