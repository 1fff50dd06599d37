package engine

// UndoThrow pops the most recent dart of the open turn and reverses its
// effect: the score deduction/addition for x01 and gotcha, the marks for
// cricket, the hits (and claim) for tictactoe. Returns false, with no state
// change, when the turn is already empty.
func (s *State) UndoThrow(playerID string) bool {
	if s.Phase == PhaseFinished {
		return false
	}
	ps := s.Players[playerID]
	if ps == nil || len(ps.RoundDarts) == 0 {
		return false
	}

	d := ps.RoundDarts[len(ps.RoundDarts)-1]
	ps.RoundDarts = ps.RoundDarts[:len(ps.RoundDarts)-1]
	ps.AllDarts = ps.AllDarts[:len(ps.AllDarts)-1]
	ps.Stats.DartsThrown--
	ps.Stats.TotalPoints -= d.Points

	// a bust can never be open here: every bust path ends the turn, which
	// clears RoundDarts, so a non-empty turn is always bust-free
	switch s.GameType {
	case Game501, Game301:
		s.setSideScore(playerID, s.sideScore(playerID)+d.Points)
	case GameGotcha:
		s.setSideScore(playerID, s.sideScore(playerID)-d.Points)
	case GameCricket:
		s.undoCricket(playerID, d)
	case GameTicTacToe:
		s.undoTicTacToe(playerID, d)
	}

	idx := len(ps.RoundDarts)
	if idx < 3 {
		s.Turn.Darts[idx] = nil
	}
	s.Turn.RoundScore -= d.Points
	s.Turn.Bust = false

	return true
}

// UndoRound unwinds the whole open turn. No-op when already empty.
func (s *State) UndoRound(playerID string) bool {
	any := false
	for s.UndoThrow(playerID) {
		any = true
	}
	return any
}

func (s *State) undoCricket(playerID string, d Dart) {
	if d.Marks == 0 && d.Bonus == 0 {
		return
	}
	cs := s.Variant.(*CricketState)
	seg := d.Value
	cs.Marks[seg][playerID] -= d.Marks
	cs.Scores[playerID] -= d.Bonus
	if cs.ClosedBy[seg] == playerID && cs.Marks[seg][playerID] < 3 {
		cs.ClosedBy[seg] = ""
	}
}

func (s *State) undoTicTacToe(playerID string, d Dart) {
	if d.Square < 0 {
		return
	}
	bs := s.Variant.(*BoardState)
	sq := &bs.Squares[d.Square]
	sq.Hits[playerID] -= d.Hits
	threshold := s.Options.MarksToWin
	if threshold <= 0 {
		threshold = 4
	}
	if sq.Owner == playerID && sq.Hits[playerID] < threshold {
		sq.Owner = ""
	}
}
