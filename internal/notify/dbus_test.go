//go:build linux

package notify

import (
	"os"
	"testing"
)

func TestDBusNotifier_NotifyAndReplace(t *testing.T) {
	if os.Getenv("DBUS_SESSION_BUS_ADDRESS") == "" {
		t.Skip("no D-Bus session available")
	}

	n, err := New()
	if err != nil {
		t.Skipf("notification service unavailable: %v", err)
	}

	id1, err := n.Notify(Notification{Title: "tonearm test", Body: "first", Timeout: 1000})
	if err != nil {
		t.Skipf("Notify() error: %v", err)
	}
	id2, err := n.Notify(Notification{Title: "tonearm test", Body: "second", Timeout: 1000, ReplacesID: id1})
	if err != nil {
		t.Fatalf("replacing Notify() error: %v", err)
	}
	if id2 != id1 {
		t.Errorf("replacing notification got id=%d, want id=%d", id2, id1)
	}
	if err := n.Close(id2); err != nil {
		t.Errorf("Close() error: %v", err)
	}
}
