// Package nav holds the navigation state machine: which widget has focus,
// what is selected in every list, and the application and edit modes.
package nav

// AppMode selects the side panel and the widgets Tab cycles through
type AppMode int

const (
	Consumer AppMode = iota
	Producer
)

func (m AppMode) String() string {
	if m == Producer {
		return "PRODUCER"
	}
	return "CONSUMER"
}

// EditMode distinguishes list navigation from text entry
type EditMode int

const (
	Normal EditMode = iota
	Insert
)

func (m EditMode) String() string {
	if m == Insert {
		return "INSERT"
	}
	return "NORMAL"
}

// Widget identifies a focusable widget. The order is the Tab order.
type Widget int

const (
	BrokersList Widget = iota
	ConsumerGroupsList
	TopicsList
	PartitionsList
	KeyField
	HeadersField
	PayloadField

	// CommandLine is edited in consumer insert mode. It is never focused by Tab.
	CommandLine Widget = -1
)

const (
	listCount  = 4
	fieldCount = 3
)

func (w Widget) String() string {
	switch w {
	case BrokersList:
		return "Brokers"
	case ConsumerGroupsList:
		return "Consumer Groups"
	case TopicsList:
		return "Topics"
	case PartitionsList:
		return "Partitions"
	case KeyField:
		return "Key"
	case HeadersField:
		return "Headers"
	case PayloadField:
		return "Payload"
	case CommandLine:
		return "Command"
	default:
		return "Unknown"
	}
}

// IsList reports whether w is one of the four lists
func (w Widget) IsList() bool {
	return w >= BrokersList && w < BrokersList+listCount
}

// IsField reports whether w is a producer input field
func (w Widget) IsField() bool {
	return w >= KeyField && w < KeyField+fieldCount
}

// Uninitialised is the pinned offset while no message of the selected
// partition has been fetched.
const Uninitialised int64 = -999

// Event is an input event in terms of the state machine
type Event int

const (
	EventTab Event = iota
	EventBackTab
	EventUp
	EventDown
	EventLeft
	EventRight
	EventEnter
	EventEsc
	EventCommandMode  // ':'
	EventInsertMode   // 'i'
	EventConsumerMode // 'c'
	EventProducerMode // 'p'
	EventScrollDown   // 'm'
	EventScrollUp     // 'n'
	EventHelp         // 'h'
	EventPublish      // 's'
	EventQuit         // 'q', 'Q', ctrl+c
	EventInput        // any other key
)

// State is the navigation state machine. It is owned by the UI goroutine and
// is not safe for concurrent use.
type State struct {
	lists      [listCount]*List
	focus      Widget
	appMode    AppMode
	editMode   EditMode
	pinned     int64
	shouldQuit bool
}

func New() *State {
	return &State{
		lists: [listCount]*List{
			newList(BrokersList.String()),
			newList(ConsumerGroupsList.String()),
			newList(TopicsList.String()),
			newList(PartitionsList.String()),
		},
		focus:  BrokersList,
		pinned: Uninitialised,
	}
}

func (s *State) Focus() Widget      { return s.focus }
func (s *State) AppMode() AppMode   { return s.appMode }
func (s *State) EditMode() EditMode { return s.editMode }
func (s *State) Pinned() int64      { return s.pinned }
func (s *State) ShouldQuit() bool   { return s.shouldQuit }

// List returns the list widget w, nil if w is not a list
func (s *State) List(w Widget) *List {
	if !w.IsList() {
		return nil
	}
	return s.lists[w]
}

// Selected returns the selected item of list w
func (s *State) Selected(w Widget) (string, bool) {
	l := s.List(w)
	if l == nil {
		return "", false
	}
	return l.Selected()
}

// widgetCount is the number of widgets Tab cycles through in the current mode
func (s *State) widgetCount() int {
	if s.appMode == Producer {
		return listCount + fieldCount
	}
	return listCount
}

// SetPartitionItems replaces the partition list after a topic selection
func (s *State) SetPartitionItems(items []string) {
	s.lists[PartitionsList].Reset(items)
	s.pinned = Uninitialised
}

// RefreshLists replaces the broker, group and topic items after a metadata
// refresh, keeping selections that still exist.
func (s *State) RefreshLists(brokers, groups, topics []string) {
	s.lists[BrokersList].Replace(brokers)
	s.lists[ConsumerGroupsList].Replace(groups)
	if !s.lists[TopicsList].Replace(topics) {
		s.SetPartitionItems(nil)
	}
}

// RefreshPartitions replaces the partition items of the selected topic,
// keeping the selected partition when it still exists.
func (s *State) RefreshPartitions(items []string) {
	if !s.lists[PartitionsList].Replace(items) {
		s.pinned = Uninitialised
	}
}

// SetPinned records the offset of the message shown for partition. It is
// ignored when partition is no longer selected.
func (s *State) SetPinned(partition string, offset int64) {
	if selected, ok := s.Selected(PartitionsList); ok && selected == partition {
		s.pinned = offset
	}
}

// Handle applies ev and returns the side effects the UI must perform
func (s *State) Handle(ev Event) []Effect {
	if s.editMode == Insert {
		return s.handleInsert(ev)
	}
	return s.handleNormal(ev)
}

func (s *State) handleNormal(ev Event) []Effect {
	switch ev {
	case EventTab:
		return s.moveFocus(1)
	case EventBackTab:
		return s.moveFocus(-1)
	case EventUp:
		return s.moveCursor(false)
	case EventDown:
		return s.moveCursor(true)
	case EventLeft:
		return s.stepOffset(-1)
	case EventRight:
		return s.stepOffset(1)
	case EventCommandMode:
		if s.appMode != Consumer {
			return nil
		}
		s.editMode = Insert
		return []Effect{EnterInsert{Widget: CommandLine, Reset: true}}
	case EventInsertMode:
		if s.appMode != Producer {
			return nil
		}
		var effects []Effect
		if !s.focus.IsField() {
			s.focus = KeyField
			effects = append(effects, FocusChanged{Widget: s.focus})
		}
		s.editMode = Insert
		return append(effects, EnterInsert{Widget: s.focus})
	case EventConsumerMode:
		return s.setAppMode(Consumer)
	case EventProducerMode:
		return s.setAppMode(Producer)
	case EventScrollDown:
		return []Effect{Scroll{Delta: 1}}
	case EventScrollUp:
		return []Effect{Scroll{Delta: -1}}
	case EventHelp:
		return []Effect{ToggleHelp{}}
	case EventPublish:
		if s.appMode != Producer {
			return nil
		}
		topic, ok := s.Selected(TopicsList)
		if !ok {
			return nil
		}
		partition, _ := s.Selected(PartitionsList)
		return []Effect{Publish{Topic: topic, Partition: partition}}
	case EventQuit:
		s.shouldQuit = true
		return []Effect{Quit{}}
	default:
		return nil
	}
}

func (s *State) handleInsert(ev Event) []Effect {
	widget := s.insertWidget()
	switch ev {
	case EventEsc:
		s.editMode = Normal
		return []Effect{LeaveInsert{}}
	case EventEnter:
		if s.appMode == Consumer {
			s.editMode = Normal
			return []Effect{SubmitCommand{}, LeaveInsert{}}
		}
		return []Effect{Edit{Widget: widget, Text: "\n"}}
	case EventTab:
		return []Effect{Edit{Widget: widget, Text: "\t"}}
	case EventQuit:
		// ctrl+c quits from anywhere
		s.shouldQuit = true
		return []Effect{Quit{}}
	default:
		return []Effect{Edit{Widget: widget}}
	}
}

func (s *State) insertWidget() Widget {
	if s.appMode == Consumer {
		return CommandLine
	}
	return s.focus
}

func (s *State) moveFocus(step int) []Effect {
	n := s.widgetCount()
	s.focus = Widget((int(s.focus) + step + n) % n)
	effects := []Effect{FocusChanged{Widget: s.focus}}

	if s.appMode == Producer && s.focus.IsField() {
		s.editMode = Insert
		effects = append(effects, EnterInsert{Widget: s.focus})
	}
	return effects
}

func (s *State) setAppMode(mode AppMode) []Effect {
	if s.appMode == mode {
		return nil
	}
	s.appMode = mode
	effects := []Effect{ModeChanged{Mode: mode}}

	if last := Widget(s.widgetCount() - 1); s.focus > last {
		s.focus = last
		effects = append(effects, FocusChanged{Widget: s.focus})
	}
	return effects
}

func (s *State) moveCursor(down bool) []Effect {
	list := s.List(s.focus)
	if list == nil {
		return nil
	}

	moved := list.Prev
	if down {
		moved = list.Next
	}
	if !moved() {
		return nil
	}

	item, _ := list.Selected()
	switch s.focus {
	case BrokersList:
		return []Effect{BrokerSelected{Name: item}}
	case ConsumerGroupsList:
		return []Effect{GroupSelected{Name: item}}
	case TopicsList:
		return []Effect{TopicSelected{Name: item}}
	case PartitionsList:
		s.pinned = Uninitialised
		return []Effect{PartitionSelected{Name: item, Fetch: s.appMode == Consumer}}
	}
	return nil
}

func (s *State) stepOffset(step int64) []Effect {
	if s.appMode != Consumer {
		return nil
	}
	partition, ok := s.Selected(PartitionsList)
	if !ok {
		return []Effect{NoPartitionSelected{}}
	}
	if s.pinned == Uninitialised {
		return nil
	}
	return []Effect{FetchOffset{Partition: partition, Offset: s.pinned + step}}
}
