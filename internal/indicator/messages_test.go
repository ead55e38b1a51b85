package indicator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMessagesFor(t *testing.T) {
	tests := []struct {
		tag       string
		recording string
		countdown string
		feedback  string
	}{
		{tag: "en_US.UTF-8", recording: "Recording answer…", countdown: "Recording in 3…", feedback: "Feedback ready: 74/100"},
		{tag: "es-MX", recording: "Grabando respuesta…", countdown: "Grabando en 3…", feedback: "Evaluación lista: 74/100"},
		{tag: "fr_FR.UTF-8", recording: "Recording answer…", countdown: "Recording in 3…", feedback: "Feedback ready: 74/100"},
		{tag: "C", recording: "Recording answer…", countdown: "Recording in 3…", feedback: "Feedback ready: 74/100"},
	}
	for _, tc := range tests {
		t.Run(tc.tag, func(t *testing.T) {
			msg := messagesFor(tc.tag)
			require.Equal(t, tc.recording, msg.recording)
			require.Equal(t, tc.countdown, msg.countdown(3))
			require.Equal(t, tc.feedback, msg.feedback(74))
		})
	}
}

func TestMessagesFromEnvPrecedence(t *testing.T) {
	t.Setenv("LANG", "en_US.UTF-8")
	t.Setenv("LC_MESSAGES", "es_ES.UTF-8")
	t.Setenv("LC_ALL", "")
	require.Equal(t, "Analizando respuesta…", messagesFromEnv().analyzing)

	t.Setenv("LC_ALL", "en_GB.UTF-8")
	require.Equal(t, "Analyzing answer…", messagesFromEnv().analyzing)
}
