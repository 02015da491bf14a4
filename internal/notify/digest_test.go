package notify_test

import (
	"testing"

	"notifier-go/internal/model"
	"notifier-go/internal/notify"
)

func TestNewDigest(t *testing.T) {
	posts := []model.Post{
		post("p1", "t1", "alice", "", 1),
		post("p2", "t1", "bob", "p1", 10),
		post("p3", "t2", "carol", "", 20),
	}

	d := notify.NewDigest(dailyUser("eve", 0), posts)

	if want := "3 new post(s) in 2 thread(s)"; d.Subject != want {
		t.Errorf("Subject = %q, want %q", d.Subject, want)
	}
	if got := d.ThreadCount(); got != 2 {
		t.Errorf("ThreadCount() = %d, want 2", got)
	}
	assertPostIDs(t, d.Posts, "p1", "p2", "p3")
}
