// Package cli parses candor command-line arguments.
package cli

import (
	"errors"
	"fmt"
	"strings"
)

type Command string

const (
	CommandRun       Command = "run"
	CommandServe     Command = "serve"
	CommandQuestions Command = "questions"
	CommandStatus    Command = "status"
	CommandAnswer    Command = "answer"
	CommandStop      Command = "stop"
	CommandNext      Command = "next"
	CommandReset     Command = "reset"
	CommandDevices   Command = "devices"
	CommandDoctor    Command = "doctor"
	CommandVersion   Command = "version"
	CommandHelp      Command = "help"
)

var validCommands = map[Command]struct{}{
	CommandRun:       {},
	CommandServe:     {},
	CommandQuestions: {},
	CommandStatus:    {},
	CommandAnswer:    {},
	CommandStop:      {},
	CommandNext:      {},
	CommandReset:     {},
	CommandDevices:   {},
	CommandDoctor:    {},
	CommandVersion:   {},
	CommandHelp:      {},
}

// Forwarded reports whether the command is relayed to a running interview over IPC.
func (c Command) Forwarded() bool {
	switch c {
	case CommandStatus, CommandAnswer, CommandStop, CommandNext, CommandReset:
		return true
	default:
		return false
	}
}

// NeedsJob reports whether the command requires --job.
func (c Command) NeedsJob() bool {
	return c == CommandRun || c == CommandQuestions
}

type Parsed struct {
	Command    Command
	ConfigPath string
	JobPath    string
	Listen     string
	ShowHelp   bool
}

func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}
	commandSeen := false

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--config", "--job", "--listen":
			i++
			if i >= len(args) || strings.TrimSpace(args[i]) == "" {
				return Parsed{}, fmt.Errorf("%s requires a value", arg)
			}
			switch arg {
			case "--config":
				parsed.ConfigPath = args[i]
			case "--job":
				parsed.JobPath = args[i]
			case "--listen":
				parsed.Listen = args[i]
			}
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}
			if commandSeen {
				return Parsed{}, fmt.Errorf("unexpected argument %q after command %q", arg, parsed.Command)
			}

			cmd := Command(arg)
			if _, ok := validCommands[cmd]; !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}

			commandSeen = true
			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp
		}
	}

	if parsed.Command.NeedsJob() && strings.TrimSpace(parsed.JobPath) == "" {
		return Parsed{}, fmt.Errorf("%s requires --job PATH", parsed.Command)
	}
	if parsed.Listen != "" && parsed.Command != CommandServe {
		return Parsed{}, errors.New("--listen is only valid with serve")
	}

	return parsed, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] <command> [--job PATH] [--listen ADDR]

Commands:
  run         Run an interview in this terminal for the posting given by --job
  serve       Serve the browser API and wait for interviews
  questions   Print the questions that would be asked for --job
  status      Print the state of the running interview
  answer      Start answering the current question
  stop        Stop recording and request feedback
  next        Advance to the next question
  reset       Abandon the running interview
  devices     List available input devices
  doctor      Run configuration and environment checks
  version     Print version information
  help        Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/candor/config.jsonc)
  --job PATH      Job posting (.yaml, .pdf, .docx, .txt, .md)
  --listen ADDR   HTTP listen address for serve (default from config)
  -h, --help      Show help
  --version       Show version

Keys during run:
  a answer   s stop   n next   r reset   q quit
`, binaryName)
}
