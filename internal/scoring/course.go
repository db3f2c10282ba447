package scoring

// Hole is the static par and difficulty data for one hole of a course.
type Hole struct {
	Number int // 1–18
	Par    int // 3–6
	Rating int // 1–18, 1 = hardest; each value used once per course
}

var standardPars = [Holes]int{4, 4, 3, 5, 4, 3, 4, 4, 5, 4, 3, 4, 5, 4, 3, 4, 4, 5}

// StandardHoles is the fallback layout used when a match has no course or the
// course has no hole data: a par-72 card rated 1–18 in hole order.
func StandardHoles() []Hole {
	holes := make([]Hole, Holes)
	for i := range holes {
		holes[i] = Hole{Number: i + 1, Par: standardPars[i], Rating: i + 1}
	}
	return holes
}

// ValidateHoles checks that holes describe a full 18-hole course: every hole
// number once, par 3–6, and ratings forming a permutation of 1–18.
func ValidateHoles(holes []Hole) error {
	if len(holes) != Holes {
		return validationErrorf("course must have %d holes, got %d", Holes, len(holes))
	}
	var seenHole, seenRating [Holes + 1]bool
	for _, h := range holes {
		if h.Number < 1 || h.Number > Holes {
			return validationErrorf("hole number %d outside 1-%d", h.Number, Holes)
		}
		if seenHole[h.Number] {
			return validationErrorf("hole %d listed twice", h.Number)
		}
		seenHole[h.Number] = true
		if h.Par < 3 || h.Par > 6 {
			return validationErrorf("hole %d par %d outside 3-6", h.Number, h.Par)
		}
		if h.Rating < 1 || h.Rating > Holes {
			return validationErrorf("hole %d rating %d outside 1-%d", h.Number, h.Rating, Holes)
		}
		if seenRating[h.Rating] {
			return validationErrorf("rating %d used by more than one hole", h.Rating)
		}
		seenRating[h.Rating] = true
	}
	return nil
}

// CoursePar sums par over the holes.
func CoursePar(holes []Hole) int {
	total := 0
	for _, h := range holes {
		total += h.Par
	}
	return total
}
