package service

import (
	"context"
	"testing"
	"time"
)

func TestDirectorySearch_Fuzzy(t *testing.T) {
	f := newFixture(t, time.Now())
	d := &DirectoryService{Repo: f.store}
	got, err := d.Search(context.Background(), "brg", 10)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(got) == 0 || got[0].ID != f.bob.ID {
		t.Fatalf("got=%+v want Bob Berg first", got)
	}
	all, _ := d.Search(context.Background(), "", 2)
	if len(all) != 2 {
		t.Fatalf("all=%d want=2 (limit)", len(all))
	}
}
