package gesture

import "github.com/1broseidon/swish/internal/touch"

// closestValidPair returns the closest two contacts whose separation lies
// in [minDist, maxDist]. Comparison uses squared distances.
func closestValidPair(contacts []touch.Contact, minDist, maxDist float64) (touch.Contact, touch.Contact, bool) {
	minSq, maxSq := minDist*minDist, maxDist*maxDist
	var (
		a, b  touch.Contact
		best  = -1.0
		found bool
	)
	for i := 0; i < len(contacts); i++ {
		for j := i + 1; j < len(contacts); j++ {
			dx := contacts[i].X - contacts[j].X
			dy := contacts[i].Y - contacts[j].Y
			d := dx*dx + dy*dy
			if d < minSq || d > maxSq {
				continue
			}
			if !found || d < best {
				a, b, best, found = contacts[i], contacts[j], d, true
			}
		}
	}
	return a, b, found
}

func findContact(contacts []touch.Contact, id int) (touch.Contact, bool) {
	for _, c := range contacts {
		if c.ID == id {
			return c, true
		}
	}
	return touch.Contact{}, false
}
