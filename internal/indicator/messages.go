package indicator

import (
	"fmt"
	"os"
	"strings"
)

// messages is one locale's notification text.
type messages struct {
	recording string
	analyzing string
	completed string
	warning   string
	countdown func(remaining int) string
	feedback  func(score int) string
}

var catalog = map[string]messages{
	"en": {
		recording: "Recording answer…",
		analyzing: "Analyzing answer…",
		completed: "Interview complete",
		warning:   "Interview warning",
		countdown: func(n int) string { return fmt.Sprintf("Recording in %d…", n) },
		feedback:  func(score int) string { return fmt.Sprintf("Feedback ready: %d/100", score) },
	},
	"es": {
		recording: "Grabando respuesta…",
		analyzing: "Analizando respuesta…",
		completed: "Entrevista finalizada",
		warning:   "Aviso de entrevista",
		countdown: func(n int) string { return fmt.Sprintf("Grabando en %d…", n) },
		feedback:  func(score int) string { return fmt.Sprintf("Evaluación lista: %d/100", score) },
	},
}

// messagesFromEnv follows the POSIX precedence LC_ALL, LC_MESSAGES, LANG.
func messagesFromEnv() messages {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			return messagesFor(value)
		}
	}
	return catalog["en"]
}

// messagesFor maps a locale such as "es_MX.UTF-8" or "en-US" to its catalog
// entry, defaulting to English.
func messagesFor(tag string) messages {
	lang := strings.ToLower(strings.TrimSpace(tag))
	if i := strings.IndexAny(lang, "_-.@"); i >= 0 {
		lang = lang[:i]
	}
	if m, ok := catalog[lang]; ok {
		return m
	}
	return catalog["en"]
}
