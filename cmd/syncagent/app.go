package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"run4recht/internal/agent"
	"run4recht/internal/calendar"
	"run4recht/internal/checkpoint"
	"run4recht/internal/client"
	"run4recht/internal/config"
	"run4recht/internal/healthsource"
	"run4recht/internal/logger"
	"run4recht/internal/notify"
	"run4recht/internal/ranking"
	"run4recht/internal/session"
	"run4recht/internal/stepsync"
)

// currentWeekLabel selects the week containing today.
const currentWeekLabel = "aktuell"

// app is the wired agent for one CLI invocation.
type app struct {
	cfg      config.Config
	log      *zap.Logger
	loc      *time.Location
	now      func() time.Time
	api      *client.Client
	session  *session.Session
	sync     *agent.SyncService
	reminder *agent.ReminderService
	closers  []func()
}

// newApp logs in and loads the tournament. withDevice also opens the checkpoint
// store and the health source.
func newApp(ctx context.Context, cfg config.Config, withDevice bool) (*app, error) {
	if strings.TrimSpace(cfg.Agent.Email) == "" {
		return nil, errors.New("agent.email is required (env: R4R_AGENT_EMAIL)")
	}
	// keep stdout free for command output
	cfg.Log.Output = "stderr"
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	a := &app{
		cfg:     cfg,
		log:     log,
		loc:     cfg.App.Location(),
		now:     time.Now,
		session: session.New(),
		api: &client.Client{
			BaseURL:  cfg.Agent.APIBase,
			Email:    cfg.Agent.Email,
			Password: cfg.Agent.Password,
			HTTP:     &http.Client{Timeout: cfg.Agent.Timeout},
		},
	}
	a.closers = append(a.closers, func() { _ = log.Sync() })

	if err := agent.Bootstrap(ctx, a.api, a.session, !cfg.Agent.Notifications, log.Named("session")); err != nil {
		a.Close()
		return nil, fmt.Errorf("login: %w", err)
	}
	if !withDevice {
		return a, nil
	}

	user, _ := a.session.User()
	if cfg.Agent.StepLengthCm > 0 && user.StepLengthCm <= 0 {
		user.StepLengthCm = cfg.Agent.StepLengthCm
		a.session.SetUser(user)
	}

	cps, err := a.checkpoints(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	source, err := a.openSource(user.EmployeeID)
	if err != nil {
		a.Close()
		return nil, err
	}
	policy, err := stepsync.ParseResetPolicy(cfg.Agent.ResetPolicy)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.sync = &agent.SyncService{
		Session:     a.session,
		Source:      source,
		API:         a.api,
		Checkpoints: cps,
		Policy:      policy,
		Location:    a.loc,
		Logger:      log.Named("sync"),
		Now:         a.now,
	}
	a.reminder = &agent.ReminderService{
		Session:  a.session,
		API:      a.api,
		Notifier: a.notifier(),
		Location: a.loc,
		Logger:   log.Named("reminder"),
		Now:      a.now,
	}
	return a, nil
}

func (a *app) openCheckpointStore(ctx context.Context) (checkpoint.Store, error) {
	c := a.cfg.Checkpoint
	switch strings.ToLower(strings.TrimSpace(c.Backend)) {
	case "memory":
		return checkpoint.NewMemoryStore(), nil
	case "redis":
		rs := checkpoint.NewRedisStore(&redis.Options{Addr: c.RedisAddr, Password: c.RedisPass, DB: c.RedisDB})
		a.closers = append(a.closers, func() { _ = rs.Close() })
		return rs, nil
	default:
		ss, err := checkpoint.OpenSQLite(ctx, c.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("checkpoint store: %w", err)
		}
		a.closers = append(a.closers, func() { _ = ss.Close() })
		return ss, nil
	}
}

func (a *app) openSource(employeeID int64) (healthsource.Source, error) {
	h := a.cfg.Health
	if !strings.EqualFold(strings.TrimSpace(h.Source), "mqtt") {
		return healthsource.SimulatedSource{Daily: h.SimulatedDaily, Location: a.loc, Now: a.now}, nil
	}
	src := &healthsource.MQTTSource{
		BrokerURL:      h.BrokerURL,
		TopicPrefix:    h.TopicPrefix,
		ClientID:       h.ClientID,
		Username:       h.Username,
		Password:       h.Password,
		ConnectTimeout: h.ConnectTimeout,
		Location:       a.loc,
		Logger:         a.log.Named("mqtt"),
	}
	if err := src.Connect(employeeID); err != nil {
		return nil, fmt.Errorf("health source: %w", err)
	}
	a.closers = append(a.closers, src.Close)
	return src, nil
}

func (a *app) notifier() notify.Notifier {
	if strings.TrimSpace(a.cfg.Notify.WebhookURL) == "" {
		return notify.LogNotifier{Logger: a.log.Named("notify")}
	}
	return notify.WebhookSender{URL: a.cfg.Notify.WebhookURL, HTTP: &http.Client{Timeout: a.cfg.Notify.Timeout}}
}

// refreshSession picks up tournament dates and notification settings changed on the server.
func (a *app) refreshSession(ctx context.Context) error {
	return agent.RefreshSession(ctx, a.api, a.session, !a.cfg.Agent.Notifications)
}

// checkpoints opens the configured checkpoint store for the logged-in user's state.
func (a *app) checkpoints(ctx context.Context) (checkpoint.Checkpoints, error) {
	store, err := a.openCheckpointStore(ctx)
	if err != nil {
		return checkpoint.Checkpoints{}, err
	}
	return checkpoint.Checkpoints{Store: store, Prefix: a.cfg.Checkpoint.KeyPrefix}, nil
}

func (a *app) window(label string) (ranking.Window, error) {
	tw, ok := a.session.Tournament()
	if !ok {
		return ranking.Window{}, agent.ErrNotReady
	}
	windows, err := ranking.DeriveWeekWindows(tw, calendar.Today(a.now(), a.loc))
	if err != nil {
		return ranking.Window{}, err
	}
	var w ranking.Window
	if strings.EqualFold(strings.TrimSpace(label), currentWeekLabel) {
		w, ok = windows.Current()
	} else {
		w, ok = windows.Find(label)
	}
	if !ok {
		return ranking.Window{}, fmt.Errorf("unknown window %q", label)
	}
	return w, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
