package analyzer

import "strings"

// powerWords raise the engagement score of a title or snippet that contains them.
var powerWords = []string{
	"ultimate", "secret", "proven", "explosive", "mistake", "breakdown",
	"step-by-step", "hack", "strategy", "deadly", "hidden", "crucial",
	"essential", "surprising", "shocking", "powerful", "critical",
	"guaranteed", "instant", "exclusive", "revolutionary", "incredible",
}

// stopWords are dropped before keyword ranking and niche alignment.
var stopWords = wordSet(`
the a an and or but in on at to for of with by from is it its this that are
was were be been being have has had do does did will would could should may
might can shall not no nor so if then than too very just about above after
again all also am as any because before below between both each few get got
he her here him his how i into me more most my new now only other our out
over own same she some such them there these they those through under up us
we what when where which while who whom why you your one two use used using
make like know see way even well back much many still come take say said
need look think want give first last long great little right good big high
different small large next early young important let thing things go going
went really read best top help try every keep work working put end start turn
`)

// phraseStopWords is the lighter list used when extracting bigrams, so that
// phrases keep more of their connective words.
var phraseStopWords = wordSet(`
the a an and or but in on at to for of with by from is it this that are was
have has do does will would could should not no so if than very just about
all also as any get how into more most new now only other our out some them
there these they those up we what when where which who why you your one use
like know see way even well back much many still come take say need think
want give first last right good help try every keep work start top best make
used
`)

func wordSet(list string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(list) {
		set[w] = struct{}{}
	}
	return set
}

// IsStopWord reports whether w is ignored by keyword ranking.
func IsStopWord(w string) bool {
	_, ok := stopWords[w]
	return ok
}

// Tokenize lower-cases text and splits it into runs of ASCII letters.
// Everything else, digits included, separates tokens.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return r < 'a' || r > 'z'
	})
}

// contentWords filters tokens through stop and keeps those longer than two letters.
func contentWords(tokens []string, stop map[string]struct{}) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if len(t) <= 2 {
			continue
		}
		if _, skip := stop[t]; skip {
			continue
		}
		out = append(out, t)
	}
	return out
}
