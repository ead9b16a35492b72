package ui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kafka2i/kafka2i/internal/nav"
)

// KeyMap holds the bindings of normal mode. Insert mode only knows Esc,
// Enter and Tab; every other key goes to the edited widget.
type KeyMap struct {
	Tab        key.Binding
	BackTab    key.Binding
	Up         key.Binding
	Down       key.Binding
	Left       key.Binding
	Right      key.Binding
	Enter      key.Binding
	Esc        key.Binding
	Command    key.Binding
	Insert     key.Binding
	Consumer   key.Binding
	Producer   key.Binding
	ScrollDown key.Binding
	ScrollUp   key.Binding
	Publish    key.Binding
	Help       key.Binding
	Quit       key.Binding
	ForceQuit  key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next panel"),
		),
		BackTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "previous panel"),
		),
		Up: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "previous item"),
		),
		Down: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "next item"),
		),
		Left: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("←", "previous offset"),
		),
		Right: key.NewBinding(
			key.WithKeys("right"),
			key.WithHelp("→", "next offset"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "run command"),
		),
		Esc: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "normal mode"),
		),
		Command: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "command (offset!<n>, ts!<ms>)"),
		),
		Insert: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "edit message"),
		),
		Consumer: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "consumer mode"),
		),
		Producer: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "producer mode"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "scroll message down"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "scroll message up"),
		),
		Publish: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "send message"),
		),
		Help: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "Q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
		),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Up, k.Down, k.Command, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.BackTab, k.Up, k.Down, k.Help, k.Quit},
		{k.Left, k.Right, k.Command, k.Enter, k.Esc},
		{k.Consumer, k.Producer, k.Insert, k.Publish, k.ScrollDown, k.ScrollUp},
	}
}

// event maps a key press onto a state machine event
func (k KeyMap) event(msg tea.KeyMsg, mode nav.EditMode) nav.Event {
	if mode == nav.Insert {
		switch {
		case key.Matches(msg, k.Esc):
			return nav.EventEsc
		case key.Matches(msg, k.Enter):
			return nav.EventEnter
		case key.Matches(msg, k.Tab):
			return nav.EventTab
		case key.Matches(msg, k.ForceQuit):
			return nav.EventQuit
		default:
			return nav.EventInput
		}
	}

	switch {
	case key.Matches(msg, k.Tab):
		return nav.EventTab
	case key.Matches(msg, k.BackTab):
		return nav.EventBackTab
	case key.Matches(msg, k.Up):
		return nav.EventUp
	case key.Matches(msg, k.Down):
		return nav.EventDown
	case key.Matches(msg, k.Left):
		return nav.EventLeft
	case key.Matches(msg, k.Right):
		return nav.EventRight
	case key.Matches(msg, k.Enter):
		return nav.EventEnter
	case key.Matches(msg, k.Esc):
		return nav.EventEsc
	case key.Matches(msg, k.Command):
		return nav.EventCommandMode
	case key.Matches(msg, k.Insert):
		return nav.EventInsertMode
	case key.Matches(msg, k.Consumer):
		return nav.EventConsumerMode
	case key.Matches(msg, k.Producer):
		return nav.EventProducerMode
	case key.Matches(msg, k.ScrollDown):
		return nav.EventScrollDown
	case key.Matches(msg, k.ScrollUp):
		return nav.EventScrollUp
	case key.Matches(msg, k.Publish):
		return nav.EventPublish
	case key.Matches(msg, k.Help):
		return nav.EventHelp
	case key.Matches(msg, k.Quit):
		return nav.EventQuit
	default:
		return nav.EventInput
	}
}
