package matcher

// SequenceRatio measures the similarity of a and b as 2*M/T, where T is the total number of
// runes in both strings and M is the number of runes in matching blocks.
//
// Matching blocks are found by taking the longest common contiguous block, then recursing into
// the unmatched regions to its left and right. Two empty strings are identical (1.0).
func SequenceRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1.0
	}
	return 2.0 * float64(newSequence(ra, rb).matched()) / float64(total)
}

type sequence struct {
	a, b []rune
	b2j  map[rune][]int
}

func newSequence(a, b []rune) *sequence {
	b2j := make(map[rune][]int)
	for j, r := range b {
		b2j[r] = append(b2j[r], j)
	}
	return &sequence{a: a, b: b, b2j: b2j}
}

// longest returns the start in a, start in b and size of the longest block shared by
// a[alo:ahi] and b[blo:bhi]. Ties go to the block starting earliest in a, then earliest in b.
func (s *sequence) longest(alo, ahi, blo, bhi int) (int, int, int) {
	besti, bestj, bestSize := alo, blo, 0

	// runs[j] is the length of the block ending at a[i-1] and b[j].
	runs := map[int]int{}
	for i := alo; i < ahi; i++ {
		next := map[int]int{}
		for _, j := range s.b2j[s.a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := runs[j-1] + 1
			next[j] = k
			if k > bestSize {
				besti, bestj, bestSize = i-k+1, j-k+1, k
			}
		}
		runs = next
	}

	return besti, bestj, bestSize
}

// matched returns the total size of all matching blocks.
func (s *sequence) matched() int {
	type span struct{ alo, ahi, blo, bhi int }

	total := 0
	queue := []span{{0, len(s.a), 0, len(s.b)}}
	for len(queue) > 0 {
		sp := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		i, j, k := s.longest(sp.alo, sp.ahi, sp.blo, sp.bhi)
		if k == 0 {
			continue
		}
		total += k
		if sp.alo < i && sp.blo < j {
			queue = append(queue, span{sp.alo, i, sp.blo, j})
		}
		if i+k < sp.ahi && j+k < sp.bhi {
			queue = append(queue, span{i + k, sp.ahi, j + k, sp.bhi})
		}
	}
	return total
}
