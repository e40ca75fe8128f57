package util

// UniqueStrings takes a list of strings and returns a list with unique strings.
// The first occurrence of each string is kept so the order of the input is preserved.
func UniqueStrings(strings []string) []string {
	stringSet := map[string]bool{}
	uniqueStrings := make([]string, 0, len(strings))
	for _, str := range strings {
		if _, ok := stringSet[str]; ok {
			continue
		}
		stringSet[str] = true
		uniqueStrings = append(uniqueStrings, str)
	}
	return uniqueStrings
}
