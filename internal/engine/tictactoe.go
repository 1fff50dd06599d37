package engine

import "math/rand"

// newBoardState binds nine random distinct segments from 1-20 to the 3x3
// board.
func newBoardState(order []string) *BoardState {
	segs := rand.Perm(20)
	bs := &BoardState{}
	for i := 0; i < 9; i++ {
		bs.Segments[i] = segs[i] + 1
		bs.Squares[i].Hits = make(map[string]int, len(order))
		for _, pid := range order {
			bs.Squares[i].Hits[pid] = 0
		}
	}
	return bs
}

// throwTicTacToe applies a dart on the claim-the-board grid. Unbound
// segments and already-claimed squares are no-ops that still consume a
// turn slot.
func (s *State) throwTicTacToe(playerID string, d Dart) Outcome {
	bs := s.Variant.(*BoardState)

	square := -1
	for i, seg := range bs.Segments {
		if seg == d.Value {
			square = i
			break
		}
	}
	if square == -1 || bs.Squares[square].Owner != "" {
		s.addDart(playerID, d)
		s.autoEndTurn(playerID)
		return Outcome{}
	}

	hits := d.Multiplier.weight()
	sq := &bs.Squares[square]
	sq.Hits[playerID] += hits
	d.Square = square
	d.Hits = hits

	threshold := s.Options.MarksToWin
	if threshold <= 0 {
		threshold = 4
	}
	if sq.Hits[playerID] >= threshold {
		sq.Owner = playerID
		if s.boardWin(playerID) {
			bs.Winner = playerID
			s.addDart(playerID, d)
			return s.handleCheckout(playerID)
		}
	}

	s.addDart(playerID, d)
	s.autoEndTurn(playerID)
	return Outcome{}
}

var boardLines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8}, // rows
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8}, // columns
	{0, 4, 8}, {2, 4, 6}, // diagonals
}

// boardWin checks for three squares in a line owned by the player, or in
// team mode by members of the player's team.
func (s *State) boardWin(playerID string) bool {
	bs := s.Variant.(*BoardState)
	team := s.team(playerID)

	sameSide := func(owner string) bool {
		if owner == "" {
			return false
		}
		if team == nil {
			return owner == playerID
		}
		return s.team(owner) == team
	}

	for _, line := range boardLines {
		if sameSide(bs.Squares[line[0]].Owner) &&
			sameSide(bs.Squares[line[1]].Owner) &&
			sameSide(bs.Squares[line[2]].Owner) {
			return true
		}
	}
	return false
}
