package matcher

import "bytes"

// twoWay is a compiled Crochemore-Perrin searcher. Search time is linear in
// len(needle)+len(haystack) and uses constant extra space.
type twoWay struct {
	needle   []byte
	ell      int  // critical position
	per      int  // period, or shift bound for non-periodic needles
	periodic bool // needle[:ell+1] is a suffix of needle[:per+ell+1]
}

func newTwoWay(needle []byte) *twoWay {
	tw := &twoWay{needle: bytes.Clone(needle)}
	m := len(tw.needle)

	i, p := maximalSuffix(tw.needle, false)
	j, q := maximalSuffix(tw.needle, true)
	if i > j {
		tw.ell, tw.per = i, p
	} else {
		tw.ell, tw.per = j, q
	}

	if tw.per+tw.ell+1 <= m && bytes.Equal(tw.needle[:tw.ell+1], tw.needle[tw.per:tw.per+tw.ell+1]) {
		tw.periodic = true
	} else {
		tw.per = max(tw.ell+1, m-tw.ell-1) + 1
	}
	return tw
}

// maximalSuffix returns the start of the maximal suffix of x (minus one) and
// its period, under the byte order or its reverse.
func maximalSuffix(x []byte, reversed bool) (ms, p int) {
	ms, j, k, p := -1, 0, 1, 1
	for j+k < len(x) {
		a, b := x[j+k], x[ms+k]
		switch {
		case a == b:
			if k != p {
				k++
			} else {
				j += p
				k = 1
			}
		case (a < b) != reversed:
			j += k
			k = 1
			p = j - ms
		default:
			ms = j
			j = ms + 1
			k, p = 1, 1
		}
	}
	return ms, p
}

// index returns the first offset of the needle in y, or -1.
func (tw *twoWay) index(y []byte) int {
	x, m, n := tw.needle, len(tw.needle), len(y)
	if m == 0 {
		return 0
	}

	if tw.periodic {
		memory := -1
		for j := 0; j <= n-m; {
			i := max(tw.ell, memory) + 1
			for i < m && x[i] == y[i+j] {
				i++
			}
			if i < m {
				j += i - tw.ell
				memory = -1
				continue
			}
			i = tw.ell
			for i > memory && x[i] == y[i+j] {
				i--
			}
			if i <= memory {
				return j
			}
			j += tw.per
			memory = m - tw.per - 1
		}
		return -1
	}

	for j := 0; j <= n-m; {
		i := tw.ell + 1
		for i < m && x[i] == y[i+j] {
			i++
		}
		if i < m {
			j += i - tw.ell
			continue
		}
		i = tw.ell
		for i >= 0 && x[i] == y[i+j] {
			i--
		}
		if i < 0 {
			return j
		}
		j += tw.per
	}
	return -1
}
