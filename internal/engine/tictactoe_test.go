package engine

import "testing"

// bindSegments pins the board layout so tests do not depend on the random
// draw.
func bindSegments(s *State) *BoardState {
	bs := s.Variant.(*BoardState)
	for i := 0; i < 9; i++ {
		bs.Segments[i] = i + 1
	}
	return bs
}

func TestTicTacToe_ClaimNeedsThreshold(t *testing.T) {
	s := newTestState(t, GameTicTacToe, DefaultOptions(GameTicTacToe), "p1", "p2")
	bs := bindSegments(s)

	mustThrow(t, s, "p1", Double, 1) // 2 hits of 4
	if got := bs.Squares[0].Owner; got != "" {
		t.Fatalf("square claimed too early by %q", got)
	}
	mustThrow(t, s, "p1", Double, 1)
	if got := bs.Squares[0].Owner; got != "p1" {
		t.Fatalf("owner: got %q, want p1", got)
	}
}

func TestTicTacToe_LineWins(t *testing.T) {
	s := newTestState(t, GameTicTacToe, Options{MarksToWin: 1, Legs: 1, Sets: 1}, "p1", "p2")
	bindSegments(s)

	mustThrow(t, s, "p1", Single, 1)
	mustThrow(t, s, "p1", Single, 2)
	out := mustThrow(t, s, "p1", Single, 3)

	if !out.GameOver {
		t.Fatalf("top row should win: %+v", out)
	}
	if s.WinnerID != "p1" {
		t.Fatalf("winner: got %q, want p1", s.WinnerID)
	}
}

func TestTicTacToe_UnboundSegmentConsumesSlot(t *testing.T) {
	s := newTestState(t, GameTicTacToe, DefaultOptions(GameTicTacToe), "p1", "p2")
	bindSegments(s)

	for i := 0; i < 3; i++ {
		mustThrow(t, s, "p1", Triple, 15) // not on the board
	}
	if s.CurrentPlayerID != "p2" {
		t.Fatalf("three unbound darts must end the turn, current = %s", s.CurrentPlayerID)
	}
	if got := s.Players["p1"].Stats.DartsThrown; got != 3 {
		t.Fatalf("darts thrown: got %d, want 3", got)
	}
}

func TestTicTacToe_ClaimedSquareIsDead(t *testing.T) {
	s := newTestState(t, GameTicTacToe, DefaultOptions(GameTicTacToe), "p1", "p2")
	bs := bindSegments(s)
	bs.Squares[0].Owner = "p2"

	mustThrow(t, s, "p1", Triple, 1)
	if got := bs.Squares[0].Hits["p1"]; got != 0 {
		t.Fatalf("hits on a claimed square must not count: got %d", got)
	}
	if got := bs.Squares[0].Owner; got != "p2" {
		t.Fatalf("owner: got %q, want p2", got)
	}
}

func TestTicTacToe_TeamLineCountsBothMembers(t *testing.T) {
	players := []Player{
		{ID: "p1", TeamID: "team-1"}, {ID: "p2", TeamID: "team-2"},
		{ID: "p3", TeamID: "team-1"}, {ID: "p4", TeamID: "team-2"},
	}
	teams := []Team{
		{ID: "team-1", PlayerIDs: []string{"p1", "p3"}},
		{ID: "team-2", PlayerIDs: []string{"p2", "p4"}},
	}
	s := NewState(GameTicTacToe, Options{MarksToWin: 1, Legs: 1, Sets: 1}, players, teams)
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	bs := bindSegments(s)
	bs.Squares[0].Owner = "p1"
	bs.Squares[1].Owner = "p3"

	out := mustThrow(t, s, "p1", Single, 3)
	if !out.GameOver {
		t.Fatalf("teammates' squares should complete the line: %+v", out)
	}
	if s.WinnerTeamID != "team-1" {
		t.Fatalf("winner team: got %q, want team-1", s.WinnerTeamID)
	}
}
