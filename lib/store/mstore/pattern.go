package mstore

// matchPattern reports whether channel matches a pub/sub glob pattern.
// Supported syntax: '*' (any sequence, including ':' and '/'), '?' (any single
// byte) and '\' to escape the next byte. Unlike path.Match no separator is special.
func matchPattern(pattern, channel string) bool {
	p, c := 0, 0
	starP, starC := -1, 0
	for c < len(channel) {
		if p < len(pattern) {
			switch pattern[p] {
			case '*':
				starP, starC = p, c
				p++
				continue
			case '?':
				p++
				c++
				continue
			case '\\':
				if p+1 < len(pattern) && pattern[p+1] == channel[c] {
					p += 2
					c++
					continue
				}
			default:
				if pattern[p] == channel[c] {
					p++
					c++
					continue
				}
			}
		}
		// mismatch: backtrack to the last star
		if starP < 0 {
			return false
		}
		starC++
		p, c = starP+1, starC
	}
	for p < len(pattern) && pattern[p] == '*' {
		p++
	}
	return p == len(pattern)
}
