package healthsource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"run4recht/internal/calendar"
	"run4recht/internal/stepsync"
)

// StepItem is one interval published by the phone or wearable bridge.
type StepItem struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Steps int64     `json:"steps"`
}

// MQTTSource subscribes to <prefix>/<employeeId>/steps and keeps the received intervals
// in memory. A re-published interval (same start) replaces the earlier one.
type MQTTSource struct {
	BrokerURL      string
	TopicPrefix    string
	ClientID       string
	Username       string
	Password       string
	ConnectTimeout time.Duration
	Location       *time.Location
	Logger         *zap.Logger

	mu         sync.RWMutex
	client     mqtt.Client
	topic      string
	subscribed bool
	items      map[int64]StepItem
}

func (s *MQTTSource) Topic(employeeID int64) string {
	prefix := strings.Trim(strings.TrimSpace(s.TopicPrefix), "/")
	if prefix == "" {
		prefix = "run4recht"
	}
	return fmt.Sprintf("%s/%d/steps", prefix, employeeID)
}

// Connect dials the broker and subscribes to the employee's topic. Calling it again for
// another employee drops the buffered intervals.
func (s *MQTTSource) Connect(employeeID int64) error {
	if strings.TrimSpace(s.BrokerURL) == "" {
		return errors.New("mqtt broker url is empty")
	}
	s.Close()

	clientID := strings.TrimSpace(s.ClientID)
	if clientID == "" {
		clientID = "run4recht-agent-" + uuid.NewString()
	}
	opts := mqtt.NewClientOptions().AddBroker(s.BrokerURL).SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(false)
	if s.Username != "" {
		opts.SetUsername(s.Username)
		opts.SetPassword(s.Password)
	}
	timeout := s.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	opts.SetConnectTimeout(timeout)
	topic := s.Topic(employeeID)
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		// resubscribe after reconnects
		tok := c.Subscribe(topic, 1, func(_ mqtt.Client, msg mqtt.Message) {
			if err := s.Ingest(msg.Payload()); err != nil && s.Logger != nil {
				s.Logger.Warn("mqtt payload rejected", zap.String("topic", msg.Topic()), zap.Error(err))
			}
		})
		tok.Wait()
		s.mu.Lock()
		s.subscribed = tok.Error() == nil
		s.mu.Unlock()
		if err := tok.Error(); err != nil && s.Logger != nil {
			s.Logger.Warn("mqtt subscribe failed", zap.String("topic", topic), zap.Error(err))
		}
	})

	s.mu.Lock()
	s.topic = topic
	s.items = map[int64]StepItem{}
	s.mu.Unlock()

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("mqtt connect: timeout after %s", timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	s.mu.Lock()
	s.client = client
	s.mu.Unlock()
	if s.Logger != nil {
		s.Logger.Info("mqtt source connected", zap.String("broker", s.BrokerURL), zap.String("topic", topic))
	}
	return nil
}

func (s *MQTTSource) Close() {
	s.mu.Lock()
	client := s.client
	s.client = nil
	s.subscribed = false
	s.mu.Unlock()
	if client != nil && client.IsConnected() {
		client.Disconnect(250)
	}
}

// Ingest accepts a single item or an array of items.
func (s *MQTTSource) Ingest(payload []byte) error {
	var items []StepItem
	trimmed := strings.TrimSpace(string(payload))
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(payload, &items); err != nil {
			return err
		}
	} else {
		var it StepItem
		if err := json.Unmarshal(payload, &it); err != nil {
			return err
		}
		items = append(items, it)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.items == nil {
		s.items = map[int64]StepItem{}
	}
	for _, it := range items {
		if it.Start.IsZero() || it.Steps < 0 {
			return fmt.Errorf("invalid step item %+v", it)
		}
		s.items[it.Start.UnixNano()] = it
	}
	return nil
}

func (s *MQTTSource) IsAvailable(ctx context.Context) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client != nil && s.client.IsConnectionOpen()
}

// RequestAuthorization succeeds once the topic subscription is active.
func (s *MQTTSource) RequestAuthorization(ctx context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.subscribed, nil
}

// QueryStepsByDay sums the buffered intervals per calendar day of their start.
func (s *MQTTSource) QueryStepsByDay(ctx context.Context, start, end time.Time) ([]stepsync.Sample, error) {
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	byDay := map[calendar.Date]int64{}
	s.mu.RLock()
	for _, it := range s.items {
		if it.Start.Before(start) || it.Start.After(end) {
			continue
		}
		byDay[calendar.Today(it.Start, loc)] += it.Steps
	}
	s.mu.RUnlock()

	out := make([]stepsync.Sample, 0, len(byDay))
	for d, steps := range byDay {
		out = append(out, stepsync.Sample{Date: d, Steps: steps})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

var _ Source = (*MQTTSource)(nil)
