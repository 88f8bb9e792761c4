package rating

import (
	"strings"
	"unicode"
)

// Rating is the outcome of classifying one customer reply against the
// rating prompt.
type Rating string

const (
	High Rating = "RATING_HIGH"
	Mid  Rating = "RATING_MID"
	Low  Rating = "RATING_LOW"
	None Rating = "NONE"
)

// category pairs a rating with the phrases that map to it. Phrases are
// stored pre-normalized; legacy digit shortcuts ("1", "2", "3") sit in
// their category's list like any other phrase.
type category struct {
	rating  Rating
	phrases []string
}

// Evaluated in order: high outranks mid outranks low.
var categories = []category{
	{High, []string{
		"1",
		"top",
		"au top",
		"excellent",
		"excellente",
		"super",
		"genial",
		"parfait",
		"parfaite",
		"tres bien",
		"tres bonne",
		"nickel",
		"great",
		"awesome",
	}},
	{Mid, []string{
		"2",
		"moyen",
		"moyenne",
		"bof",
		"correct",
		"correcte",
		"ca va",
		"pas mal",
		"bien",
		"ok",
		"okay",
	}},
	{Low, []string{
		"3",
		"mauvais",
		"mauvaise",
		"nul",
		"nulle",
		"pas top",
		"pas bien",
		"decevant",
		"decevante",
		"decu",
		"decue",
		"pas satisfait",
		"pas satisfaite",
		"mecontent",
		"mecontente",
		"bad",
		"terrible",
	}},
}

// Classify maps free text to a rating. A match requires the entire
// normalized text to equal one of a category's phrases; text containing
// a phrase as a mere substring ("bien sûr pas top") never matches it.
// Unmatched text yields None.
func Classify(text string) Rating {
	n := normalize(text)
	if n == "" {
		return None
	}
	for _, c := range categories {
		for _, p := range c.phrases {
			if n == p {
				return c.rating
			}
		}
	}
	return None
}

// accentFold maps the accented letters seen in customer replies to
// their base form so "génial" and "genial" classify alike.
var accentFold = map[rune]rune{
	'à': 'a', 'â': 'a', 'ä': 'a',
	'é': 'e', 'è': 'e', 'ê': 'e', 'ë': 'e',
	'î': 'i', 'ï': 'i',
	'ô': 'o', 'ö': 'o',
	'ù': 'u', 'û': 'u', 'ü': 'u',
	'ç': 'c',
}

// normalize lowercases, folds accents, drops punctuation and emoji,
// and collapses runs of whitespace to single spaces.
func normalize(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if folded, ok := accentFold[r]; ok {
			r = folded
		}
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
