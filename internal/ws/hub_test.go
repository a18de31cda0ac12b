package ws

import (
	"testing"
	"time"
)

func TestHubAddAndRemoveClient(t *testing.T) {
	hub := NewHub()

	info := ConnInfo{ConnID: "c1", UserID: "u1", ConnectedAt: time.Now()}
	hub.AddClient("roastery", nil, info)
	if len(hub.labRooms) != 1 {
		t.Fatalf("expected lab room to be created")
	}
	if len(hub.userConns["u1"]) != 1 {
		t.Fatalf("expected user connection to be registered")
	}

	hub.RemoveClient("roastery", nil)
	if len(hub.labRooms) != 0 {
		t.Fatalf("expected lab room to be removed")
	}
	if len(hub.userConns) != 0 {
		t.Fatalf("expected user connection to be removed")
	}
}

func TestHubRemoveUnknownClientIsNoOp(t *testing.T) {
	hub := NewHub()
	hub.RemoveClient("nowhere", nil)
	if len(hub.labRooms) != 0 || len(hub.userConns) != 0 {
		t.Fatalf("expected hub to stay empty")
	}
}
