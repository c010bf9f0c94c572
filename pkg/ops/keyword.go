package ops

import (
	ac "github.com/petar-dambovaliev/aho-corasick"
	"github.com/rawbytedev/morsel/pkg/match"
)

// Keywords recognizes a fixed set of words.
type Keywords struct {
	words []string
	ac    *ac.AhoCorasick
}

// NewKeywords builds a keyword set. With fold set, ASCII case is ignored
// and matches report the word as it was given here.
func NewKeywords(words []string, fold bool) *Keywords {
	b := ac.NewAhoCorasickBuilder(ac.Opts{
		AsciiCaseInsensitive: fold,
		MatchKind:            ac.LeftMostLongestMatch,
	})
	built := b.Build(words)
	return &Keywords{words: append([]string(nil), words...), ac: &built}
}

// Lookup returns the keyword spelled by b, if b is exactly one.
func (k *Keywords) Lookup(b []byte) (string, bool) {
	if len(b) == 0 {
		return "", false
	}
	// leftmost-longest puts a whole-input keyword first
	ms := k.ac.FindAll(string(b))
	if len(ms) == 0 || ms[0].Start() != 0 || ms[0].End() != len(b) {
		return "", false
	}
	return k.words[ms[0].Pattern()], true
}

// Word matches a whole identifier and resolves it to a keyword. An
// identifier that is not a keyword fails.
func (k *Keywords) Word() *match.Operator[byte, []byte, string] {
	return match.Resolve(While(IsWord).Named("keyword"), k.Lookup)
}

// Prefix matches the shortest keyword at the cursor, even when more word
// bytes follow it.
func (k *Keywords) Prefix() *match.Operator[byte, []byte, string] {
	return match.ResolvePartial(While(IsWord).Named("keyword_prefix"), k.Lookup)
}
