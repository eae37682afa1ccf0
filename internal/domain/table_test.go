package domain

import (
	"fmt"
	"testing"
)

func newTestTable() *Table {
	return NewTable("ROOM01", 10, Participant{UserID: "owner", DisplayName: "Owner"}, 1000)
}

func TestNewTable(t *testing.T) {
	table := newTestTable()

	if table.OwnerID != "owner" {
		t.Fatalf("Expected owner seat for creator, got %q", table.OwnerID)
	}
	if len(table.Seated) != 1 || table.Seated[0].UserID != "owner" {
		t.Fatalf("Expected creator seated first")
	}
	if table.Balances["owner"] != 1000 {
		t.Fatalf("Expected cached balance 1000, got %d", table.Balances["owner"])
	}
	if len(table.MoneyEvents) != 1 {
		t.Fatalf("Expected stake announcement in money events, got %v", table.MoneyEvents)
	}
}

func TestSeat_FullTable(t *testing.T) {
	table := newTestTable()
	for i := 1; i < MaxSeats; i++ {
		if !table.Seat(Participant{UserID: fmt.Sprintf("p%d", i)}, 500) {
			t.Fatalf("Expected seat %d to be free", i)
		}
	}
	if table.Seat(Participant{UserID: "extra"}, 500) {
		t.Fatal("Expected full table to reject a fifth seat")
	}
}

func TestRemove(t *testing.T) {
	table := newTestTable()
	table.Seat(Participant{UserID: "p1"}, 500)
	table.AddSpectator(Participant{UserID: "watcher"}, 500)

	if _, idx, ok := table.Remove("p1"); !ok || idx != 1 {
		t.Fatalf("Expected removal from seat 1, got idx=%d ok=%t", idx, ok)
	}
	if _, idx, ok := table.Remove("watcher"); !ok || idx != -1 {
		t.Fatalf("Expected spectator removal with idx -1, got idx=%d ok=%t", idx, ok)
	}
	if _, _, ok := table.Remove("ghost"); ok {
		t.Fatal("Expected removing an absent user to be a no-op")
	}
	if table.ParticipantCount() != 1 {
		t.Fatalf("Expected 1 participant left, got %d", table.ParticipantCount())
	}
}

func TestPromoteSpectators(t *testing.T) {
	table := newTestTable()
	table.AddSpectator(Participant{UserID: "w1", DisplayName: "W1"}, 500)
	table.AddSpectator(Participant{UserID: "w2", DisplayName: "W2"}, 500)

	promoted := table.PromoteSpectators()
	if len(promoted) != 2 {
		t.Fatalf("Expected 2 promotions, got %v", promoted)
	}
	if len(table.Seated) != 3 || len(table.Spectators) != 0 {
		t.Fatalf("Expected spectators to fill seats in order")
	}
	if table.Seated[1].UserID != "w1" || table.Seated[2].UserID != "w2" {
		t.Fatalf("Expected queue order preserved, got %v", table.SeatOrder())
	}
}

func TestDemoteBelow(t *testing.T) {
	table := newTestTable()
	table.Seat(Participant{UserID: "rich"}, 900)
	table.Seat(Participant{UserID: "poor"}, 50)

	moved := table.DemoteBelow(150)
	if len(moved) != 1 || moved[0].UserID != "poor" {
		t.Fatalf("Expected only poor demoted, got %v", moved)
	}
	if table.SeatedIndex("poor") >= 0 {
		t.Fatal("Demoted player still seated")
	}
	if len(table.Spectators) != 1 {
		t.Fatalf("Expected demoted player in spectator queue")
	}
}

func TestDemoteBelow_ReassignsOwner(t *testing.T) {
	table := newTestTable()
	table.Seat(Participant{UserID: "p1"}, 900)
	table.Balances["owner"] = 10

	table.DemoteBelow(150)
	if table.OwnerID != "p1" {
		t.Fatalf("Expected ownership to pass to p1, got %q", table.OwnerID)
	}
}

func TestApplyTransfer(t *testing.T) {
	table := newTestTable()
	table.Seat(Participant{UserID: "p1"}, 500)

	tr, ok := table.ApplyTransfer("p1", "owner", 3, "test payout")
	if !ok {
		t.Fatal("Expected transfer to apply")
	}
	if tr.Amount != 30 || tr.Units != 3 {
		t.Fatalf("Expected 3 units = 30, got units=%d amount=%d", tr.Units, tr.Amount)
	}
	if table.Balances["p1"] != 470 || table.Balances["owner"] != 1030 {
		t.Fatalf("Cached balances wrong: %v", table.Balances)
	}

	if _, ok := table.ApplyTransfer("p1", "p1", 3, "self"); ok {
		t.Fatal("Expected self transfer to be dropped")
	}
	if _, ok := table.ApplyTransfer("p1", "owner", 0, "zero"); ok {
		t.Fatal("Expected zero transfer to be dropped")
	}
}

func TestPushMoneyEvent_Bounded(t *testing.T) {
	table := newTestTable()
	for i := 0; i < 25; i++ {
		table.PushMoneyEvent(fmt.Sprintf("event %d", i))
	}
	if len(table.MoneyEvents) != moneyEventHistory {
		t.Fatalf("Expected feed capped at %d, got %d", moneyEventHistory, len(table.MoneyEvents))
	}
	if table.MoneyEvents[len(table.MoneyEvents)-1] != "event 24" {
		t.Fatalf("Expected newest event kept, got %q", table.MoneyEvents[len(table.MoneyEvents)-1])
	}
}
