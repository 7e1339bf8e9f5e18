package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"run4recht/internal/activity"
	"run4recht/internal/calendar"
	"run4recht/internal/checkpoint"
	"run4recht/internal/client"
	"run4recht/internal/notify"
	"run4recht/internal/ranking"
	"run4recht/internal/session"
	"run4recht/internal/stepsync"
)

func day(s string) calendar.Date { return calendar.MustParse(s) }

type fakeSource struct {
	available bool
	granted   bool
	samples   []stepsync.Sample
}

func (f *fakeSource) IsAvailable(ctx context.Context) bool { return f.available }
func (f *fakeSource) RequestAuthorization(ctx context.Context) (bool, error) {
	return f.granted, nil
}
func (f *fakeSource) QueryStepsByDay(ctx context.Context, start, end time.Time) ([]stepsync.Sample, error) {
	var out []stepsync.Sample
	for _, s := range f.samples {
		t := s.Date.Time(time.UTC)
		if !t.Before(start) && !t.After(end) {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeUploader struct {
	failAt int
	calls  int
	seen   map[string]int64
	keys   []string
}

func (f *fakeUploader) ApplyDelta(ctx context.Context, rec activity.StatisticRecord, batchKey string) (bool, error) {
	f.calls++
	if f.failAt > 0 && f.calls == f.failAt {
		return false, errors.New("network down")
	}
	if f.seen == nil {
		f.seen = map[string]int64{}
	}
	k := batchKey + "/" + rec.Date.String()
	if _, ok := f.seen[k]; ok {
		return false, nil
	}
	f.seen[k] = rec.Steps
	f.keys = append(f.keys, batchKey)
	return true, nil
}

type syncFixture struct {
	sess   *session.Session
	source *fakeSource
	up     *fakeUploader
	cps    checkpoint.Checkpoints
	svc    *SyncService
	now    time.Time
}

func newSyncFixture() *syncFixture {
	f := &syncFixture{
		sess:   session.New(),
		source: &fakeSource{available: true, granted: true},
		up:     &fakeUploader{},
		cps:    checkpoint.Checkpoints{Store: checkpoint.NewMemoryStore()},
		now:    time.Date(2024, 1, 3, 20, 0, 0, 0, time.UTC),
	}
	f.sess.SetUser(session.User{EmployeeID: 7, DepartmentID: 3, Notifications: true})
	f.sess.SetTournament(activity.TournamentWindow{Title: "T", Start: day("2024-01-01"), End: day("2024-01-31")})
	f.svc = &SyncService{Session: f.sess, Source: f.source, API: f.up, Checkpoints: f.cps, Now: func() time.Time { return f.now }}
	return f
}

func TestSync_FirstRunThenIncremental(t *testing.T) {
	f := newSyncFixture()
	ctx := context.Background()
	f.source.samples = []stepsync.Sample{{Date: day("2024-01-01"), Steps: 5000}, {Date: day("2024-01-02"), Steps: 7000}, {Date: day("2024-01-03"), Steps: 1000}}

	res, err := f.svc.RunOnce(ctx)
	if err != nil || res.Uploaded != 3 || res.Checkpoint == nil || res.BatchKey != "7-initial" {
		t.Fatalf("res=%+v err=%v", res, err)
	}
	cp, _ := f.cps.Load(ctx, 7)
	if cp == nil || cp.LastCumulativeSteps != 1000 || cp.BaselineDate != day("2024-01-03") {
		t.Fatalf("checkpoint=%+v", cp)
	}

	f.source.samples[2].Steps = 1600
	f.now = f.now.Add(time.Hour)
	res, err = f.svc.RunOnce(ctx)
	if err != nil || res.Records != 1 {
		t.Fatalf("res=%+v err=%v", res, err)
	}
	if got := f.up.seen[res.BatchKey+"/2024-01-03"]; got != 600 {
		t.Fatalf("delta=%d want=600", got)
	}
}

func TestSync_PartialFailureKeepsCheckpoint(t *testing.T) {
	f := newSyncFixture()
	ctx := context.Background()
	f.source.samples = []stepsync.Sample{{Date: day("2024-01-01"), Steps: 100}, {Date: day("2024-01-02"), Steps: 200}, {Date: day("2024-01-03"), Steps: 300}}
	f.up.failAt = 2

	res, err := f.svc.RunOnce(ctx)
	if !errors.Is(err, stepsync.ErrUpload) || res.Uploaded != 1 {
		t.Fatalf("res=%+v err=%v", res, err)
	}
	if cp, _ := f.cps.Load(ctx, 7); cp != nil {
		t.Fatalf("checkpoint advanced after failure: %+v", cp)
	}

	// retry replays day 1 under the same batch key
	res, err = f.svc.RunOnce(ctx)
	if err != nil || res.Uploaded != 3 || res.Replayed != 1 {
		t.Fatalf("retry res=%+v err=%v", res, err)
	}
	if f.up.seen["7-initial/2024-01-01"] != 100 {
		t.Fatalf("seen=%+v", f.up.seen)
	}
}

func TestSync_Preconditions(t *testing.T) {
	f := newSyncFixture()
	ctx := context.Background()
	f.source.available = false
	if _, err := f.svc.RunOnce(ctx); !errors.Is(err, ErrHealthUnavailable) {
		t.Fatalf("err=%v want ErrHealthUnavailable", err)
	}
	if err := f.svc.Job(ctx); err != nil {
		t.Fatalf("job err=%v want nil for expected skip", err)
	}
	f.source.available = true
	f.source.granted = false
	if _, err := f.svc.RunOnce(ctx); !errors.Is(err, ErrAuthorizationDenied) {
		t.Fatalf("err=%v want ErrAuthorizationDenied", err)
	}
	f.sess.Clear()
	if _, err := f.svc.RunOnce(ctx); !errors.Is(err, ErrNotReady) {
		t.Fatalf("err=%v want ErrNotReady", err)
	}
	if f.up.calls != 0 {
		t.Fatalf("uploads=%d want=0", f.up.calls)
	}
}

type switchingUploader struct {
	fakeUploader
	sess *session.Session
}

func (s *switchingUploader) ApplyDelta(ctx context.Context, rec activity.StatisticRecord, batchKey string) (bool, error) {
	s.sess.SetUser(session.User{EmployeeID: 99})
	return s.fakeUploader.ApplyDelta(ctx, rec, batchKey)
}

func TestSync_DiscardsResultAfterUserSwitch(t *testing.T) {
	f := newSyncFixture()
	f.svc.API = &switchingUploader{sess: f.sess}
	f.source.samples = []stepsync.Sample{{Date: day("2024-01-02"), Steps: 10}}
	res, err := f.svc.RunOnce(context.Background())
	if err != nil || !res.Discarded {
		t.Fatalf("res=%+v err=%v", res, err)
	}
	if cp, _ := f.cps.Load(context.Background(), 7); cp != nil {
		t.Fatalf("checkpoint saved for previous user: %+v", cp)
	}
}

type fakeCohort struct{ records []activity.StatisticRecord }

func (f fakeCohort) FetchDepartmentTotals(ctx context.Context, departmentID int64, r calendar.Range) ([]activity.StatisticRecord, error) {
	return f.records, nil
}

type captureNotifier struct{ got []notify.Message }

func (c *captureNotifier) Notify(ctx context.Context, msg notify.Message) error {
	c.got = append(c.got, msg)
	return nil
}

func TestReminder_MessageForMiddlePlace(t *testing.T) {
	sess := session.New()
	sess.SetUser(session.User{EmployeeID: 7, DepartmentID: 3, Notifications: true})
	sess.SetTournament(activity.TournamentWindow{Start: day("2024-01-01"), End: day("2024-01-31")})
	n := &captureNotifier{}
	svc := &ReminderService{
		Session: sess,
		API: fakeCohort{records: []activity.StatisticRecord{
			{EmployeeID: 1, Steps: 9000}, {EmployeeID: 7, Steps: 5000}, {EmployeeID: 7, Steps: 1000},
			{EmployeeID: 2, Steps: 2500},
		}},
		Notifier: n,
		Now:      func() time.Time { return time.Date(2024, 1, 10, 18, 0, 0, 0, time.UTC) },
	}
	msg, sent, err := svc.RunOnce(context.Background())
	if err != nil || !sent || len(n.got) != 1 {
		t.Fatalf("sent=%v err=%v got=%+v", sent, err, n.got)
	}
	if msg.Title != "Weiter so!" || !strings.Contains(msg.Message, "Platz 2") ||
		!strings.Contains(msg.Message, "Vorsprung von 3500") || !strings.Contains(msg.Message, "die 3000 Schritte") {
		t.Fatalf("msg=%+v", msg)
	}

	sess.SetNotifications(false)
	if _, sent, err := svc.RunOnce(context.Background()); sent || err != nil {
		t.Fatalf("sent=%v err=%v with notifications off", sent, err)
	}
}

func TestMotivationalMessage_Edges(t *testing.T) {
	if m := MotivationalMessage(ranking.Position{Rank: 1, CohortSize: 1}); m.Title != "Ihre aktuelle Position" {
		t.Fatalf("alone=%+v", m)
	}
	if m := MotivationalMessage(ranking.Position{Rank: 1, GapBehind: 40, CohortSize: 3}); !strings.Contains(m.Message, "Vorsprung von 40") {
		t.Fatalf("first=%+v", m)
	}
	if m := MotivationalMessage(ranking.Position{Rank: 3, GapAhead: 12, CohortSize: 3}); m.Title != "Aufholjagd starten!" || !strings.Contains(m.Message, "nur 12 Schritte") {
		t.Fatalf("last=%+v", m)
	}
}

func TestReminder_ZeroStepColleaguesCount(t *testing.T) {
	sess := session.New()
	sess.SetUser(session.User{EmployeeID: 7, DepartmentID: 3, Notifications: true})
	sess.SetTournament(activity.TournamentWindow{Start: day("2024-01-01"), End: day("2024-01-31")})
	n := &captureNotifier{}
	svc := &ReminderService{
		Session: sess,
		API: fakeCohort{records: []activity.StatisticRecord{
			{EmployeeID: 1, Steps: 9000}, {EmployeeID: 7, Steps: 400}, {EmployeeID: 2, Steps: 0},
		}},
		Notifier: n,
		Now:      func() time.Time { return time.Date(2024, 1, 10, 18, 0, 0, 0, time.UTC) },
	}
	msg, sent, err := svc.RunOnce(context.Background())
	if err != nil || !sent {
		t.Fatalf("sent=%v err=%v", sent, err)
	}
	if msg.Title != "Weiter so!" || !strings.Contains(msg.Message, "Vorsprung von 400") {
		t.Fatalf("msg=%+v want middle place ahead of the colleague without steps", msg)
	}
}

type fakeRefresher struct {
	tw      activity.TournamentWindow
	profile client.Profile
}

func (f fakeRefresher) FetchProfile(ctx context.Context, employeeID int64) (client.Profile, error) {
	return f.profile, nil
}

func (f fakeRefresher) FetchTournamentWindow(ctx context.Context) (activity.TournamentWindow, error) {
	return f.tw, nil
}

func TestRefreshSession_PicksUpServerChanges(t *testing.T) {
	sess := session.New()
	if err := RefreshSession(context.Background(), fakeRefresher{}, sess, false); !errors.Is(err, ErrNotReady) {
		t.Fatalf("err=%v want ErrNotReady", err)
	}
	sess.SetUser(session.User{EmployeeID: 7, Notifications: true})
	sess.SetTournament(activity.TournamentWindow{Start: day("2024-01-01"), End: day("2024-01-28")})
	ticket := sess.Begin()

	api := fakeRefresher{tw: activity.TournamentWindow{Start: day("2024-01-01"), End: day("2024-02-04")}}
	if err := RefreshSession(context.Background(), api, sess, false); err != nil {
		t.Fatalf("err=%v", err)
	}
	u, _ := sess.User()
	tw, _ := sess.Tournament()
	if u.Notifications || tw.End != day("2024-02-04") {
		t.Fatalf("user=%+v tournament=%+v", u, tw)
	}
	if !ticket.Valid() {
		t.Fatalf("refresh must not invalidate work started for the same user")
	}

	api.profile.Settings.Notifications = true
	_ = RefreshSession(context.Background(), api, sess, true)
	if u, _ := sess.User(); u.Notifications {
		t.Fatalf("local opt-out ignored: %+v", u)
	}
	_ = RefreshSession(context.Background(), api, sess, false)
	if u, _ := sess.User(); !u.Notifications {
		t.Fatalf("notifications not re-enabled: %+v", u)
	}
}
