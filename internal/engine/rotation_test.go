package engine

import "testing"

func TestRotation_FreeForAll(t *testing.T) {
	s := newTestState(t, Game501, DefaultOptions(Game501), "p1", "p2", "p3")

	want := []string{"p2", "p3", "p1"}
	for _, next := range want {
		if err := s.EndTurn(s.CurrentPlayerID); err != nil {
			t.Fatalf("end turn: %v", err)
		}
		if s.CurrentPlayerID != next {
			t.Fatalf("current: got %s, want %s", s.CurrentPlayerID, next)
		}
	}
	if s.CurrentRound != 2 {
		t.Fatalf("round after full cycle: got %d, want 2", s.CurrentRound)
	}
}

func TestRotation_TeamsInterleaveMembers(t *testing.T) {
	players := []Player{
		{ID: "p1", TeamID: "a"}, {ID: "p2", TeamID: "b"},
		{ID: "p3", TeamID: "a"}, {ID: "p4", TeamID: "b"},
	}
	teams := []Team{
		{ID: "a", PlayerIDs: []string{"p1", "p3"}},
		{ID: "b", PlayerIDs: []string{"p2", "p4"}},
	}
	s := NewState(Game501, DefaultOptions(Game501), players, teams)
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	if s.CurrentPlayerID != "p1" {
		t.Fatalf("first actor: got %s, want p1", s.CurrentPlayerID)
	}
	want := []string{"p2", "p3", "p4", "p1"}
	for _, next := range want {
		if err := s.EndTurn(s.CurrentPlayerID); err != nil {
			t.Fatalf("end turn: %v", err)
		}
		if s.CurrentPlayerID != next {
			t.Fatalf("current: got %s, want %s", s.CurrentPlayerID, next)
		}
	}
	if s.CurrentRound != 3 {
		t.Fatalf("round after two full cycles: got %d, want 3", s.CurrentRound)
	}
}

func TestRotation_TeamShareOneScore(t *testing.T) {
	players := []Player{
		{ID: "p1", TeamID: "a"}, {ID: "p2", TeamID: "b"},
		{ID: "p3", TeamID: "a"}, {ID: "p4", TeamID: "b"},
	}
	teams := []Team{
		{ID: "a", PlayerIDs: []string{"p1", "p3"}},
		{ID: "b", PlayerIDs: []string{"p2", "p4"}},
	}
	s := NewState(Game501, DefaultOptions(Game501), players, teams)
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	mustThrow(t, s, "p1", Triple, 20)
	if got := s.Teams[0].Score; got != 441 {
		t.Fatalf("team score: got %d, want 441", got)
	}
	if got := s.Players["p1"].Score; got != 501 {
		t.Fatalf("player score must stay untouched in team mode: got %d", got)
	}
}
