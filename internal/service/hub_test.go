package service

import "testing"

func TestHub_DropsForSlowSubscribers(t *testing.T) {
	hub := &Hub{Buffer: 1}
	ch, cancel := hub.Subscribe()
	if n := hub.Publish(RankingSnapshot{}); n != 1 {
		t.Fatalf("n=%d want=1", n)
	}
	if n := hub.Publish(RankingSnapshot{}); n != 0 {
		t.Fatalf("n=%d want=0 (buffer full)", n)
	}
	<-ch
	cancel()
	cancel()
	if hub.Subscribers() != 0 {
		t.Fatalf("subscribers=%d", hub.Subscribers())
	}
	if _, ok := <-ch; ok {
		t.Fatalf("channel not closed")
	}
}
