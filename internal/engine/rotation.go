package engine

// endTurn folds the round into stats, clears the turn and advances the
// rotation. In team mode the next team acts every turn, but the acting
// member within each team only rotates once the cycle wraps, so every team
// acts once per round before any acts twice.
func (s *State) endTurn(playerID string) {
	ps := s.Players[playerID]

	roundScore := 0
	for _, d := range ps.RoundDarts {
		roundScore += d.Points
	}
	if roundScore > ps.Stats.HighestRound {
		ps.Stats.HighestRound = roundScore
	}
	ps.RoundDarts = nil

	if s.TeamMode {
		s.CurrentTeam = (s.CurrentTeam + 1) % len(s.Teams)
		next := s.Teams[s.CurrentTeam]
		s.CurrentPlayerID = next.PlayerIDs[next.MemberIndex]

		if s.CurrentTeam == 0 {
			s.CurrentRound++
			for _, t := range s.Teams {
				t.MemberIndex = (t.MemberIndex + 1) % len(t.PlayerIDs)
			}
			s.CurrentPlayerID = next.PlayerIDs[next.MemberIndex]
		}
	} else {
		s.CurrentIndex = (s.CurrentIndex + 1) % len(s.PlayerOrder)
		s.CurrentPlayerID = s.PlayerOrder[s.CurrentIndex]
		if s.CurrentIndex == 0 {
			s.CurrentRound++
		}
	}
	s.CurrentIndex = indexOf(s.PlayerOrder, s.CurrentPlayerID)

	s.Turn = TurnState{PlayerID: s.CurrentPlayerID}
}
