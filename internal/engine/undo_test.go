package engine

import "testing"

func TestUndo_X01RestoresScoreAndStats(t *testing.T) {
	s := newTestState(t, Game501, DefaultOptions(Game501), "p1", "p2")

	mustThrow(t, s, "p1", Triple, 20)
	if !s.UndoThrow("p1") {
		t.Fatalf("undo should succeed")
	}

	ps := s.Players["p1"]
	if ps.Score != 501 {
		t.Fatalf("score: got %d, want 501", ps.Score)
	}
	if ps.Stats.DartsThrown != 0 || ps.Stats.TotalPoints != 0 {
		t.Fatalf("stats not reverted: %+v", ps.Stats)
	}
	if s.Turn.Darts[0] != nil || s.Turn.RoundScore != 0 {
		t.Fatalf("turn slot not cleared: %+v", s.Turn)
	}
	if s.UndoThrow("p1") {
		t.Fatalf("undo on an empty turn must be a no-op")
	}
}

func TestUndo_GotchaSubtracts(t *testing.T) {
	s := newTestState(t, GameGotcha, DefaultOptions(GameGotcha), "p1", "p2")

	mustThrow(t, s, "p1", Triple, 20)
	if !s.UndoThrow("p1") {
		t.Fatalf("undo should succeed")
	}
	if got := s.Players["p1"].Score; got != 0 {
		t.Fatalf("score: got %d, want 0", got)
	}
}

func TestUndo_CricketReopensSegment(t *testing.T) {
	s := newTestState(t, GameCricket, DefaultOptions(GameCricket), "p1", "p2")
	cs := s.Variant.(*CricketState)

	mustThrow(t, s, "p1", Triple, 20)
	if !s.UndoThrow("p1") {
		t.Fatalf("undo should succeed")
	}
	if got := cs.Marks[20]["p1"]; got != 0 {
		t.Fatalf("marks: got %d, want 0", got)
	}
	if got := cs.ClosedBy[20]; got != "" {
		t.Fatalf("segment should reopen, closed by %q", got)
	}
}

func TestUndo_CricketBonusOnly(t *testing.T) {
	s := newTestState(t, GameCricket, DefaultOptions(GameCricket), "p1", "p2")
	cs := s.Variant.(*CricketState)

	mustThrow(t, s, "p1", Triple, 20)
	mustThrow(t, s, "p1", Single, 20) // pure bonus dart

	if !s.UndoThrow("p1") {
		t.Fatalf("undo should succeed")
	}
	if got := cs.Scores["p1"]; got != 0 {
		t.Fatalf("bonus: got %d, want 0", got)
	}
	if got := cs.Marks[20]["p1"]; got != 3 {
		t.Fatalf("closing dart must survive: got %d marks", got)
	}
	if got := cs.ClosedBy[20]; got != "p1" {
		t.Fatalf("segment should stay closed by p1, got %q", got)
	}
}

func TestUndo_TicTacToeUnclaims(t *testing.T) {
	s := newTestState(t, GameTicTacToe, Options{MarksToWin: 2, Legs: 1, Sets: 1}, "p1", "p2")
	bs := bindSegments(s)

	mustThrow(t, s, "p1", Double, 1)
	if bs.Squares[0].Owner != "p1" {
		t.Fatalf("square should be claimed")
	}
	if !s.UndoThrow("p1") {
		t.Fatalf("undo should succeed")
	}
	if bs.Squares[0].Owner != "" || bs.Squares[0].Hits["p1"] != 0 {
		t.Fatalf("claim not reverted: %+v", bs.Squares[0])
	}
}

func TestUndo_AfterBustIsNoop(t *testing.T) {
	s := newTestState(t, Game501, Options{StartingScore: 32, DoubleOut: true, Legs: 1, Sets: 1}, "p1", "p2")

	mustThrow(t, s, "p1", Single, 20)
	out := mustThrow(t, s, "p1", Triple, 20)
	if !out.Bust {
		t.Fatalf("expected bust, got %+v", out)
	}

	// the bust ended p1's turn, so there is nothing left to undo and the
	// restored score must not move
	if s.UndoThrow("p1") {
		t.Fatalf("undo after a bust must be a no-op")
	}
	if got := s.Players["p1"].Score; got != 32 {
		t.Fatalf("score: got %d, want 32", got)
	}
}

func TestUndoRound_UnwindsWholeTurn(t *testing.T) {
	s := newTestState(t, Game501, DefaultOptions(Game501), "p1", "p2")

	mustThrow(t, s, "p1", Single, 20)
	mustThrow(t, s, "p1", Single, 19)

	if !s.UndoRound("p1") {
		t.Fatalf("undo round should succeed")
	}
	if got := s.Players["p1"].Score; got != 501 {
		t.Fatalf("score: got %d, want 501", got)
	}
	if s.UndoRound("p1") {
		t.Fatalf("second undo round must be a no-op")
	}
}
