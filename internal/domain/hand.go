package domain

import "sort"

// Hand is the set of cards held by one seat.
type Hand struct {
	Seat  int    `json:"seat"`
	Cards []Card `json:"cards"`
}

// Contains reports whether the hand holds the exact card.
func (h *Hand) Contains(card Card) bool {
	for _, c := range h.Cards {
		if c == card {
			return true
		}
	}
	return false
}

// Remove takes a card out of the hand. Returns false if absent.
func (h *Hand) Remove(card Card) bool {
	for i, c := range h.Cards {
		if c == card {
			h.Cards = append(h.Cards[:i], h.Cards[i+1:]...)
			return true
		}
	}
	return false
}

// TrumpCounts returns, for every candidate trump suit, how many trumps the
// hand would hold: the permanent trumps plus the plain cards of that suit.
func (h *Hand) TrumpCounts() map[Suit]int {
	permanents := 0
	plain := map[Suit]int{Hearts: 0, Diamonds: 0, Clubs: 0, Spades: 0}
	for _, c := range h.Cards {
		if c.IsPermanentTrump() {
			permanents++
		} else {
			plain[c.Suit]++
		}
	}
	counts := make(map[Suit]int, 4)
	for _, s := range Suits {
		counts[s] = permanents + plain[s]
	}
	return counts
}

// BidOption is one legal announcement open to a hand.
type BidOption struct {
	Length      int  `json:"length"`
	Suit        Suit `json:"suit"`
	IsClubMatch bool `json:"is_club_match"`
}

// AvailableBids enumerates the bids the hand may announce against the
// current highest bid (highestLength 0 means no bid yet). A new bid must be
// strictly longer, except clubs may match the standing length when the
// standing bid is not itself clubs.
func (h *Hand) AvailableBids(highestLength int, highestSuit Suit) []BidOption {
	counts := h.TrumpCounts()
	minLength := MinBidLength
	if highestLength >= MinBidLength {
		minLength = highestLength + 1
	}

	var options []BidOption
	for _, s := range Suits {
		for length := minLength; length <= counts[s]; length++ {
			options = append(options, BidOption{Length: length, Suit: s})
		}
	}
	if highestLength >= MinBidLength && highestSuit != Clubs && counts[Clubs] >= highestLength {
		options = append(options, BidOption{Length: highestLength, Suit: Clubs, IsClubMatch: true})
	}

	sort.SliceStable(options, func(i, j int) bool {
		if options[i].Length != options[j].Length {
			return options[i].Length < options[j].Length
		}
		// Clubs sorts last at equal length to surface the stronger call.
		ci, cj := options[i].Suit == Clubs, options[j].Suit == Clubs
		if ci != cj {
			return cj
		}
		return suitOrder[options[i].Suit] < suitOrder[options[j].Suit]
	})
	return options
}

// BidBeats reports whether bid (length, suit) strictly beats the standing
// (highestLength, highestSuit). Longer always wins; at equal length only a
// clubs bid over a non-clubs bid wins.
func BidBeats(length int, suit Suit, highestLength int, highestSuit Suit) bool {
	if highestLength < MinBidLength {
		return length >= MinBidLength
	}
	if length > highestLength {
		return true
	}
	return length == highestLength && suit == Clubs && highestSuit != Clubs
}
