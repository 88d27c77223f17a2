package cache

import (
	"testing"
	"time"
)

func TestManager_OnHeartbeat_IsOnline(t *testing.T) {
	m := New(2 * time.Second)
	now := time.Now()
	if m.IsOnline("A", now) {
		t.Fatalf("expected offline initially")
	}
	m.OnHeartbeat("A", now)
	if !m.IsOnline("A", now) {
		t.Fatalf("expected online after heartbeat")
	}
	if m.IsOnline("B", now) {
		t.Fatalf("other device should be offline")
	}
}

func TestManager_Timeout(t *testing.T) {
	m := New(500 * time.Millisecond)
	ts := time.Now()
	m.OnHeartbeat("X", ts)
	if !m.IsOnline("X", ts.Add(400*time.Millisecond)) {
		t.Fatalf("should still be online before timeout")
	}
	if m.IsOnline("X", ts.Add(600*time.Millisecond)) {
		t.Fatalf("should be offline after timeout")
	}
}

func TestManager_PendingCall_RoundTrip(t *testing.T) {
	m := New(time.Minute)
	m.PutPendingCall("CP1", "msg-1", "RemoteStartTransaction", time.Second)

	action, ok := m.TakePendingCall("CP1", "msg-1")
	if !ok || action != "RemoteStartTransaction" {
		t.Fatalf("expected pending call to round-trip, got %q ok=%v", action, ok)
	}

	if _, ok := m.TakePendingCall("CP1", "msg-1"); ok {
		t.Fatalf("pending call should be consumed after first take")
	}
}

func TestManager_PendingCall_Expired(t *testing.T) {
	m := New(time.Minute)
	m.PutPendingCall("CP1", "msg-1", "Reset", -time.Second)

	if _, ok := m.TakePendingCall("CP1", "msg-1"); ok {
		t.Fatalf("expired pending call should not be returned")
	}
}

func TestManager_IdTagCache(t *testing.T) {
	m := New(time.Minute)
	m.CacheIdTagStatus("TAG1", "Accepted", 200*time.Millisecond)

	status, ok := m.GetCachedIdTagStatus("TAG1")
	if !ok || status != "Accepted" {
		t.Fatalf("expected cached status Accepted, got %q ok=%v", status, ok)
	}

	if _, ok := m.GetCachedIdTagStatus("UNKNOWN"); ok {
		t.Fatalf("unknown tag should miss")
	}
}

func TestManager_BindUnbind(t *testing.T) {
	m := New(time.Minute)
	conn := struct{ name string }{name: "conn-a"}
	m.Bind("CP1", conn)

	got, ok := m.GetConn("CP1")
	if !ok || got.(struct{ name string }).name != "conn-a" {
		t.Fatalf("expected bound connection to be retrievable")
	}

	m.Unbind("CP1")
	if _, ok := m.GetConn("CP1"); ok {
		t.Fatalf("expected connection to be gone after unbind")
	}
}
