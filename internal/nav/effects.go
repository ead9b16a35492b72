package nav

// Effect is a side effect the UI performs after a transition
type Effect interface {
	effect()
}

type (
	BrokerSelected struct{ Name string }
	GroupSelected  struct{ Name string }
	TopicSelected  struct{ Name string }

	// PartitionSelected asks for the latest message when Fetch is set
	PartitionSelected struct {
		Name  string
		Fetch bool
	}

	// FetchOffset asks for the message at a literal offset
	FetchOffset struct {
		Partition string
		Offset    int64
	}

	NoPartitionSelected struct{}

	FocusChanged struct{ Widget Widget }
	ModeChanged  struct{ Mode AppMode }

	// EnterInsert starts editing Widget. Reset clears its buffer first.
	EnterInsert struct {
		Widget Widget
		Reset  bool
	}
	LeaveInsert struct{}

	// Edit forwards the key to Widget, or inserts Text when it is set
	Edit struct {
		Widget Widget
		Text   string
	}

	SubmitCommand struct{}

	// Publish sends the composed message to Topic, and to Partition when set
	Publish struct {
		Topic     string
		Partition string
	}

	Scroll     struct{ Delta int }
	ToggleHelp struct{}
	Quit       struct{}
)

func (BrokerSelected) effect()      {}
func (GroupSelected) effect()       {}
func (TopicSelected) effect()       {}
func (PartitionSelected) effect()   {}
func (FetchOffset) effect()         {}
func (NoPartitionSelected) effect() {}
func (FocusChanged) effect()        {}
func (ModeChanged) effect()         {}
func (EnterInsert) effect()         {}
func (LeaveInsert) effect()         {}
func (Edit) effect()                {}
func (SubmitCommand) effect()       {}
func (Publish) effect()             {}
func (Scroll) effect()              {}
func (ToggleHelp) effect()          {}
func (Quit) effect()                {}
