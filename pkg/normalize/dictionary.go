package normalize

// Surname/word equivalences seen in the wild: machine-translated profile
// names map common Romanian surnames to their literal English meaning, so
// "Croitoru Ion" and "Tailor Ion" are the same person. The table is small on
// purpose; it only carries pairs actually observed in order data.
var equivalences = map[string]string{
	"croitoru": "tailor",
	"ciobanu":  "shepherd",
	"moraru":   "miller",
	"fieraru":  "smith",
	"pescaru":  "fisher",
	"lupu":     "wolf",
	"ursu":     "bear",
	"vulpe":    "fox",
	"albu":     "white",
	"negru":    "black",
}

var reverseEquivalences = func() map[string]string {
	m := make(map[string]string, len(equivalences))
	for k, v := range equivalences {
		m[v] = k
	}
	return m
}()

// Equivalents returns the dictionary counterparts of a canonical token,
// looking the token up as both a key and a value.
func Equivalents(token string) []string {
	var out []string
	if v, ok := equivalences[token]; ok {
		out = append(out, v)
	}
	if k, ok := reverseEquivalences[token]; ok {
		out = append(out, k)
	}
	return out
}
