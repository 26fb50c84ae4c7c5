package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gseamans/midimacro/internal/emitter"
	"github.com/gseamans/midimacro/internal/orchestrator"
)

var (
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#555"))
	activeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#fff"))
	cursorStyle  = lipgloss.NewStyle().Background(lipgloss.Color("#444"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888"))
	triggerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#5fd787"))
)

const maxLogLines = 12

type model struct {
	svc       *orchestrator.Service
	emit      *emitter.Emitter
	events    <-chan emitter.Event
	unsub     func()
	ports     []string
	cursor    int
	listening bool
	connected int
	log       []string
	quitting  bool
}

type eventMsg emitter.Event

func newModel(svc *orchestrator.Service, emit *emitter.Emitter) model {
	events, unsub := emit.Subscribe(32)
	return model{
		svc:    svc,
		emit:   emit,
		events: events,
		unsub:  unsub,
		ports:  svc.ListMIDIInputs(),
	}
}

func listenForEvent(events <-chan emitter.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return eventMsg(ev)
	}
}

func (m model) Init() tea.Cmd {
	return listenForEvent(m.events)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			if m.unsub != nil {
				m.unsub()
			}
			m.svc.StopMIDIListening()
			return m, tea.Quit

		case "j", "down":
			if m.cursor < len(m.ports)-1 {
				m.cursor++
			}

		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}

		case "r":
			m.ports = m.svc.ListMIDIInputs()

		case "enter", " ":
			if len(m.ports) == 0 {
				break
			}
			if m.listening {
				m.svc.StopMIDIListening()
				m.listening = false
				m.connected = -1
			} else if err := m.svc.StartMIDIListening(m.cursor); err == nil {
				m.listening = true
				m.connected = m.cursor
			} else {
				m.log = appendLog(m.log, fmt.Sprintf("connect failed: %v", err))
			}
		}

	case eventMsg:
		m.log = appendLog(m.log, describeEvent(emitter.Event(msg)))
		return m, listenForEvent(m.events)
	}

	return m, nil
}

func appendLog(log []string, line string) []string {
	log = append(log, line)
	if len(log) > maxLogLines {
		log = log[len(log)-maxLogLines:]
	}
	return log
}

func describeEvent(ev emitter.Event) string {
	switch {
	case ev.Status != nil:
		return fmt.Sprintf("status  %s", ev.Status.Message)
	case ev.Trigger != nil:
		t := ev.Trigger
		return triggerStyle.Render(fmt.Sprintf("trigger %s (group %s) @%dms [%s]", t.MacroName, t.GroupID, t.TriggeredAtMs, t.CorrelationID[:8]))
	case ev.MIDI != nil:
		e := ev.MIDI
		return fmt.Sprintf("midi    %-14s ch%d  data1=%d data2=%d", e.TypeName, e.Channel, e.Data1, e.Data2)
	default:
		return "event"
	}
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString("MIDI inputs:\n")
	if len(m.ports) == 0 {
		b.WriteString(dimStyle.Render("  (none found — press r to rescan)\n"))
	}
	for i, p := range m.ports {
		style := dimStyle
		if i == m.cursor {
			style = style.Inherit(cursorStyle)
		}
		if m.listening && i == m.connected {
			style = activeStyle
		}
		b.WriteString(style.Render(fmt.Sprintf("  %d: %s", i, p)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	state := "disconnected"
	if m.listening {
		state = fmt.Sprintf("listening on port %d", m.connected)
	}
	b.WriteString(statusStyle.Render(state))
	b.WriteString("\n\nevents:\n")
	for _, line := range m.log {
		b.WriteString("  " + line + "\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("j/k:move  enter:connect/disconnect  r:rescan  q:quit"))
	b.WriteString("\n")

	return b.String()
}
