// Package session holds the agent's logged-in user and tournament state. SetUser is the
// only place a user is published; everything else reads snapshots.
package session

import (
	"sync"

	"run4recht/internal/activity"
)

type User struct {
	EmployeeID    int64  `json:"mitarbeiter_id"`
	DepartmentID  int64  `json:"dienstelle_id"`
	Name          string `json:"name"`
	Token         string `json:"-"`
	StepLengthCm  int    `json:"schrittlaenge"`
	Notifications bool   `json:"benachrichtigungen"`
}

type EventKind string

const (
	EventUserChanged       EventKind = "user_changed"
	EventCleared           EventKind = "cleared"
	EventTournamentChanged EventKind = "tournament_changed"
)

type Event struct {
	Kind       EventKind
	User       *User
	Generation uint64
}

// Ticket pins the session generation a unit of work started under.
type Ticket struct {
	s          *Session
	generation uint64
}

// Valid reports whether the user is unchanged since the ticket was taken.
func (t Ticket) Valid() bool {
	if t.s == nil {
		return false
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	return t.s.user != nil && t.s.generation == t.generation
}

type Session struct {
	mu         sync.RWMutex
	user       *User
	tournament *activity.TournamentWindow
	generation uint64
	subs       map[int]chan Event
	nextSub    int
}

func New() *Session {
	return &Session{subs: map[int]chan Event{}}
}

// SetUser replaces the current user and invalidates outstanding tickets.
func (s *Session) SetUser(u User) {
	s.mu.Lock()
	s.generation++
	cp := u
	s.user = &cp
	ev := Event{Kind: EventUserChanged, User: &u, Generation: s.generation}
	s.broadcastLocked(ev)
	s.mu.Unlock()
}

// Clear logs the user out.
func (s *Session) Clear() {
	s.mu.Lock()
	s.generation++
	s.user = nil
	s.broadcastLocked(Event{Kind: EventCleared, Generation: s.generation})
	s.mu.Unlock()
}

func (s *Session) SetTournament(tw activity.TournamentWindow) {
	s.mu.Lock()
	cp := tw
	s.tournament = &cp
	s.broadcastLocked(Event{Kind: EventTournamentChanged, Generation: s.generation})
	s.mu.Unlock()
}

// SetNotifications toggles reminders for the current user.
func (s *Session) SetNotifications(on bool) {
	s.mu.Lock()
	if s.user != nil {
		s.user.Notifications = on
	}
	s.mu.Unlock()
}

func (s *Session) User() (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return User{}, false
	}
	return *s.user, true
}

func (s *Session) Tournament() (activity.TournamentWindow, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tournament == nil {
		return activity.TournamentWindow{}, false
	}
	return *s.tournament, true
}

// Begin returns a ticket for the current generation.
func (s *Session) Begin() Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Ticket{s: s, generation: s.generation}
}

// Subscribe returns a channel of session events. Slow subscribers miss events.
// cancel is idempotent and closes the channel.
func (s *Session) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 4)
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
}

func (s *Session) broadcastLocked(ev Event) {
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
