package engine

// CricketSegments are the only numbers that score in cricket; 25 covers
// both bull tiers.
var CricketSegments = []int{20, 19, 18, 17, 16, 15, 25}

func newCricketState(order []string) *CricketState {
	cs := &CricketState{
		Marks:    make(map[int]map[string]int, len(CricketSegments)),
		ClosedBy: make(map[int]string, len(CricketSegments)),
		Scores:   make(map[string]int, len(order)),
	}
	for _, seg := range CricketSegments {
		cs.Marks[seg] = make(map[string]int, len(order))
		for _, pid := range order {
			cs.Marks[seg][pid] = 0
		}
		cs.ClosedBy[seg] = ""
	}
	for _, pid := range order {
		cs.Scores[pid] = 0
	}
	return cs
}

func isCricketSegment(seg int) bool {
	for _, s := range CricketSegments {
		if s == seg {
			return true
		}
	}
	return false
}

// throwCricket applies a dart in cricket. Overmark bonus is evaluated per
// dart against opponents' marks at that instant; throw order within a turn
// matters and is preserved.
func (s *State) throwCricket(playerID string, d Dart) Outcome {
	cs := s.Variant.(*CricketState)
	seg := d.Value

	if !isCricketSegment(seg) {
		s.addDart(playerID, d)
		s.autoEndTurn(playerID)
		return Outcome{}
	}

	marks := d.Multiplier.weight()
	current := cs.Marks[seg][playerID]
	newMarks := min(current+marks, 3)
	overMarks := current + marks - 3

	cs.Marks[seg][playerID] = newMarks
	d.Marks = newMarks - current

	if newMarks >= 3 && overMarks > 0 {
		allOthersClosed := true
		for _, pid := range s.PlayerOrder {
			if pid != playerID && cs.Marks[seg][pid] < 3 {
				allOthersClosed = false
				break
			}
		}
		if !allOthersClosed {
			d.Bonus = overMarks * seg
			cs.Scores[playerID] += d.Bonus
		}
	}

	if newMarks >= 3 && cs.ClosedBy[seg] == "" {
		cs.ClosedBy[seg] = playerID
	}

	s.addDart(playerID, d)

	if s.cricketWin(playerID) {
		return s.handleCheckout(playerID)
	}

	s.autoEndTurn(playerID)
	return Outcome{}
}

// cricketWin: every segment closed and a bonus score no opponent beats.
func (s *State) cricketWin(playerID string) bool {
	cs := s.Variant.(*CricketState)
	for _, seg := range CricketSegments {
		if cs.Marks[seg][playerID] < 3 {
			return false
		}
	}
	score := cs.Scores[playerID]
	for _, pid := range s.PlayerOrder {
		if pid != playerID && cs.Scores[pid] > score {
			return false
		}
	}
	return true
}
