package notify

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestRecorderIsSafeForConcurrentUse(t *testing.T) {
	rec := &Recorder{}
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = rec.Publish(context.Background(), CalendarEvent{RoomID: "SB201", Date: "2024-03-04"})
		}()
	}
	wg.Wait()

	events := rec.Events()
	if len(events) != 20 {
		t.Fatalf("events = %d", len(events))
	}
	events[0].RoomID = "changed"
	if rec.Events()[0].RoomID != "SB201" {
		t.Fatal("Events must return a copy")
	}
}

func TestRedisNotifierReportsUnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	n := NewRedisNotifier(client, "")
	defer n.Close()

	if n.channel != DefaultChannel {
		t.Fatalf("channel = %q", n.channel)
	}
	err := n.Publish(context.Background(), CalendarEvent{RoomID: "SB201", Date: "2024-03-04", Action: "created"})
	if err == nil || !strings.Contains(err.Error(), "failed to publish calendar event") {
		t.Fatalf("err = %v", err)
	}
}
