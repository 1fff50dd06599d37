package engine

import "testing"

func newCricketTestState(t *testing.T, ids ...string) *State {
	t.Helper()
	return newTestState(t, GameCricket, DefaultOptions(GameCricket), ids...)
}

func TestCricket_MarksAndClose(t *testing.T) {
	s := newCricketTestState(t, "p1", "p2")
	cs := s.Variant.(*CricketState)

	mustThrow(t, s, "p1", Triple, 20)
	if got := cs.Marks[20]["p1"]; got != 3 {
		t.Fatalf("marks: got %d, want 3", got)
	}
	if got := cs.ClosedBy[20]; got != "p1" {
		t.Fatalf("closed by: got %q, want p1", got)
	}
}

func TestCricket_OvermarkScoresWhileOpponentOpen(t *testing.T) {
	s := newCricketTestState(t, "p1", "p2")
	cs := s.Variant.(*CricketState)

	mustThrow(t, s, "p1", Triple, 20)
	mustThrow(t, s, "p1", Single, 20)

	if got := cs.Scores["p1"]; got != 20 {
		t.Fatalf("bonus: got %d, want 20", got)
	}
	if got := cs.Marks[20]["p1"]; got != 3 {
		t.Fatalf("marks stay capped at 3, got %d", got)
	}
}

func TestCricket_NoBonusWhenAllOpponentsClosed(t *testing.T) {
	s := newCricketTestState(t, "p1", "p2")
	cs := s.Variant.(*CricketState)
	cs.Marks[20]["p2"] = 3

	mustThrow(t, s, "p1", Triple, 20)
	mustThrow(t, s, "p1", Single, 20)

	if got := cs.Scores["p1"]; got != 0 {
		t.Fatalf("closed segment must not score: got %d", got)
	}
}

func TestCricket_PartialCloseThenOvermarkInOneDart(t *testing.T) {
	s := newCricketTestState(t, "p1", "p2")
	cs := s.Variant.(*CricketState)
	cs.Marks[19]["p1"] = 2

	// two marks: one closes, one is bonus
	mustThrow(t, s, "p1", Double, 19)
	if got := cs.Marks[19]["p1"]; got != 3 {
		t.Fatalf("marks: got %d, want 3", got)
	}
	if got := cs.Scores["p1"]; got != 19 {
		t.Fatalf("bonus: got %d, want 19", got)
	}
}

func TestCricket_OffTargetConsumesSlot(t *testing.T) {
	s := newCricketTestState(t, "p1", "p2")

	for i := 0; i < 3; i++ {
		mustThrow(t, s, "p1", Single, 7)
	}
	if s.CurrentPlayerID != "p2" {
		t.Fatalf("three off-target darts must end the turn, current = %s", s.CurrentPlayerID)
	}
}

func TestCricket_WinNeedsAllClosedAndLead(t *testing.T) {
	s := newCricketTestState(t, "p1", "p2")
	cs := s.Variant.(*CricketState)
	for _, seg := range CricketSegments {
		if seg != 15 {
			cs.Marks[seg]["p1"] = 3
		}
	}
	cs.Scores["p2"] = 20

	out := mustThrow(t, s, "p1", Triple, 15)
	if out.GameOver {
		t.Fatalf("cannot win while trailing on points")
	}

	// overmarks catch up past the opponent, then the win condition holds
	cs.Marks[15]["p1"] = 2
	out = mustThrow(t, s, "p1", Triple, 15)
	if !out.GameOver {
		t.Fatalf("expected win: %+v (score %d)", out, cs.Scores["p1"])
	}
	if s.WinnerID != "p1" {
		t.Fatalf("winner: got %q, want p1", s.WinnerID)
	}
}
