package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr string
	}{
		{name: "blank", input: "   ", want: nil},
		{name: "disabled", input: "# pw-play", want: nil},
		{name: "plain", input: "pw-play --media-role Notification", want: []string{"pw-play", "--media-role", "Notification"}},
		{name: "double quoted path", input: `paplay "/tmp/interview cue.wav"`, want: []string{"paplay", "/tmp/interview cue.wav"}},
		{name: "escaped space", input: `paplay /tmp/interview\ cue.wav`, want: []string{"paplay", "/tmp/interview cue.wav"}},
		{name: "single quotes are literal", input: `sh -c 'echo \n'`, want: []string{"sh", "-c", `echo \n`}},
		{name: "escaped double quote", input: `notify "say \"hi\""`, want: []string{"notify", `say "hi"`}},
		{name: "empty quoted arg", input: `play '' --volume 5`, want: []string{"play", "", "--volume", "5"}},
		{name: "adjacent quoting joins", input: `a"b c"'d'`, want: []string{"ab cd"}},
		{name: "unterminated single", input: `paplay 'cue.wav`, wantErr: "unterminated quote"},
		{name: "unterminated double", input: `paplay "cue.wav`, wantErr: "unterminated quote"},
		{name: "dangling escape", input: `paplay \`, wantErr: "unterminated escape"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			words, err := splitCommand(tc.input)
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, words)
		})
	}
}

func TestMustSplitCommandPanicsOnInvalidInput(t *testing.T) {
	require.Panics(t, func() { mustSplitCommand(`"open`) })
	require.Equal(t, []string{"pw-play"}, mustSplitCommand("pw-play"))
}
