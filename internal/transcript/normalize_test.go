package transcript

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeCollapsesWhitespaceAndSentenceCase(t *testing.T) {
	t.Parallel()

	got := Normalize(" hello", "world.", "\nfrom", "candor")
	require.Equal(t, "Hello world. From candor", got)
}

func TestNormalizeEmptyInput(t *testing.T) {
	t.Parallel()

	require.Empty(t, Normalize())
	require.Empty(t, Normalize("  ", "\n\t"))
}

func TestNormalizeCapitalizesPronounI(t *testing.T) {
	t.Parallel()

	got := Normalize("when i speak i'm clearer. i think i will keep using it.")
	require.Equal(t, "When I speak I'm clearer. I think I will keep using it.", got)
}

func TestNormalizeKeepsAbbreviationsMidSentence(t *testing.T) {
	t.Parallel()

	got := Normalize("we used go, e.g. for the gateway. it worked")
	require.Equal(t, "We used go, e.g. for the gateway. It worked", got)
}

func TestNormalizeIdempotent(t *testing.T) {
	t.Parallel()

	first := Normalize("hello world. this is candor")
	require.Equal(t, first, Normalize(first))
}

func TestSentences(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "empty", in: "", want: nil},
		{name: "punctuation only", in: "...", want: nil},
		{name: "no terminal punctuation", in: "just one thought", want: []string{"just one thought"}},
		{
			name: "mixed terminators",
			in:   "I led the migration. It took 2.5 months, e.g. planning and rollout! Did it work? yes",
			want: []string{
				"I led the migration.",
				"It took 2.5 months, e.g. planning and rollout!",
				"Did it work?",
				"yes",
			},
		},
		{
			name: "initialism before capital starts a sentence",
			in:   "I moved to the U.S. Then I joined a startup.",
			want: []string{"I moved to the U.S.", "Then I joined a startup."},
		},
		{
			name: "initialism mid sentence",
			in:   "the u.s. office grew.",
			want: []string{"the u.s. office grew."},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Sentences(tc.in))
		})
	}
}

func TestWords(t *testing.T) {
	t.Parallel()

	got := Words("Worked with React.js, Node & C++ at U.S. companies")
	require.Equal(t, []string{"worked", "with", "react.js", "node", "c++", "at", "u.s", "companies"}, got)
	require.Empty(t, Words(" -- "))
}
