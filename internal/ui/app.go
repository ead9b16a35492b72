// Package ui is the bubbletea program: it turns key presses into navigation
// state transitions, performs their effects and renders the result.
package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/kafka2i/kafka2i/internal/command"
	"github.com/kafka2i/kafka2i/internal/consumer"
	"github.com/kafka2i/kafka2i/internal/kafka"
	"github.com/kafka2i/kafka2i/internal/metadata"
	"github.com/kafka2i/kafka2i/internal/nav"
	"github.com/kafka2i/kafka2i/internal/types"
)

// Footer codes for failures that are not command errors
const (
	CodeEmptyPartition  = "err:EmptyPartition"
	CodeNoMessage       = "err:NoMessage"
	CodeFetchingMessage = "err:FetchingMessage"
	CodeInvalidHeaders  = "err:InvalidHeaders"
	CodePublish         = "err:Publish"
)

type Fetcher interface {
	Fetch(ctx context.Context, partitionName string, req consumer.OffsetRequest, progress func(string)) (consumer.Result, error)
}

// Commander runs command lines. Validate must not touch the cluster.
type Commander interface {
	Validate(input, partitionName string) error
	Execute(ctx context.Context, input, partitionName string, progress func(string)) (consumer.Result, error)
}

type Publisher interface {
	Produce(ctx context.Context, req types.ProduceRequest) error
}

// Deps are the collaborators of the program. Clipboard, Producer and Stats
// may be nil.
type Deps struct {
	Cache     *metadata.Cache
	Fetcher   Fetcher
	Commands  Commander
	Producer  Publisher
	Clipboard Clipboard
	Stats     <-chan types.ClientStats
	Theme     string
	Log       *zap.Logger
}

// RefreshedMsg tells the program a new metadata snapshot was published
type RefreshedMsg struct {
	Snapshot *metadata.Snapshot
}

type tickMsg time.Time
type statsMsg types.ClientStats

type progressMsg struct {
	seq    int
	text   string
	events <-chan tea.Msg
}

type fetchDoneMsg struct {
	seq       int
	partition string
	result    consumer.Result
	err       error
}

type publishDoneMsg struct {
	req types.ProduceRequest
	err error
}

const fieldCount = 3

type model struct {
	ctx    context.Context
	deps   Deps
	log    *zap.Logger
	state  *nav.State
	keys   KeyMap
	styles *Styles

	help    help.Model
	spinner spinner.Model
	command textinput.Model
	fields  [fieldCount]textarea.Model
	message viewport.Model

	messageTitle string
	details      map[nav.Widget]string
	stats        types.ClientStats
	status       string
	footerCode   string

	fetchSeq int
	busy     bool
	showHelp bool
	ready    bool
	quitting bool
	width    int
	height   int
	now      time.Time
}

// New builds the program model. The cache should already hold the first
// snapshot so the lists are filled on the first render.
func New(ctx context.Context, deps Deps) tea.Model {
	styles := NewStyles(deps.Theme)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Spinner()

	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = "offset!<n> | ts!<epoch ms>"
	ti.CharLimit = 64

	m := model{
		ctx:     ctx,
		deps:    deps,
		log:     deps.Log.Named("ui"),
		state:   nav.New(),
		keys:    DefaultKeyMap(),
		styles:  styles,
		help:    help.New(),
		spinner: s,
		command: ti,
		message: viewport.New(0, 0),
		details: map[nav.Widget]string{},
		now:     time.Now(),
	}
	for i, placeholder := range []string{"key", "name:value, one per line", "payload"} {
		ta := textarea.New()
		ta.Placeholder = placeholder
		ta.ShowLineNumbers = false
		m.fields[i] = ta
	}

	m.applySnapshot(deps.Cache.Snapshot())
	return m
}

// NewProgram runs the model full screen until quit or ctx is done
func NewProgram(ctx context.Context, deps Deps) *tea.Program {
	return tea.NewProgram(New(ctx, deps), tea.WithAltScreen(), tea.WithContext(ctx))
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		tickCmd(),
		listenStats(m.deps.Stats),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.ready = true
		m.resize(msg.Width, msg.Height)

	case RefreshedMsg:
		m.applySnapshot(msg.Snapshot)

	case statsMsg:
		m.stats = types.ClientStats(msg)
		return m, listenStats(m.deps.Stats)

	case progressMsg:
		if msg.seq == m.fetchSeq {
			m.status = msg.text
		}
		return m, listen(msg.events)

	case fetchDoneMsg:
		cmd = m.finishFetch(msg)
		return m, cmd

	case publishDoneMsg:
		m.finishPublish(msg)

	case tickMsg:
		m.now = time.Time(msg)
		if !m.quitting {
			return m, tickCmd()
		}

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ev := m.keys.event(msg, m.state.EditMode())
	effects := m.state.Handle(ev)

	var cmds []tea.Cmd
	for _, effect := range effects {
		if cmd := m.apply(effect, msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return *m, tea.Batch(cmds...)
}

// apply performs one side effect of a state transition
func (m *model) apply(effect nav.Effect, key tea.KeyMsg) tea.Cmd {
	switch e := effect.(type) {
	case nav.BrokerSelected:
		snap := m.deps.Cache.Snapshot()
		b, ok := snap.GetBroker(e.Name)
		if !ok {
			m.log.Warn("selected broker not in metadata", zap.String("broker", e.Name))
			return nil
		}
		m.details[nav.BrokersList] = brokerDetails(b, snap.NoOfPartitionsForBroker(b.ID))

	case nav.GroupSelected:
		g, ok := m.deps.Cache.Snapshot().GetConsumerGroup(e.Name)
		if !ok {
			m.log.Warn("selected group not in metadata", zap.String("group", e.Name))
			return nil
		}
		m.details[nav.ConsumerGroupsList] = groupDetails(g)

	case nav.TopicSelected:
		t, ok := m.deps.Cache.Snapshot().GetTopic(e.Name)
		if !ok {
			m.log.Warn("selected topic not in metadata", zap.String("topic", e.Name))
			return nil
		}
		m.details[nav.TopicsList] = topicDetails(t)
		m.details[nav.PartitionsList] = ""
		m.state.SetPartitionItems(t.PartitionNames())

	case nav.PartitionSelected:
		if !e.Fetch {
			return nil
		}
		name := e.Name
		return m.startFetch(name, func(ctx context.Context, progress func(string)) (consumer.Result, error) {
			return m.deps.Fetcher.Fetch(ctx, name, consumer.LatestOffset(), progress)
		})

	case nav.FetchOffset:
		return m.startFetch(e.Partition, func(ctx context.Context, progress func(string)) (consumer.Result, error) {
			return m.deps.Fetcher.Fetch(ctx, e.Partition, consumer.AtOffset(e.Offset), progress)
		})

	case nav.NoPartitionSelected:
		m.footerCode = command.CodeNoSelectedPartition

	case nav.EnterInsert:
		if e.Widget == nav.CommandLine {
			if e.Reset {
				m.command.Reset()
				m.command.SetValue(":")
				m.command.CursorEnd()
			}
			return m.command.Focus()
		}
		return m.fields[e.Widget-nav.KeyField].Focus()

	case nav.LeaveInsert:
		m.command.Blur()
		for i := range m.fields {
			m.fields[i].Blur()
		}

	case nav.Edit:
		return m.edit(e, key)

	case nav.SubmitCommand:
		input := m.command.Value()
		partition, _ := m.state.Selected(nav.PartitionsList)
		// input errors leave a fetch in flight alone
		if err := m.deps.Commands.Validate(input, partition); err != nil {
			m.footerCode = errorCode(err)
			m.setMessage("Error", err.Error())
			return nil
		}
		return m.startFetch(partition, func(ctx context.Context, progress func(string)) (consumer.Result, error) {
			return m.deps.Commands.Execute(ctx, input, partition, progress)
		})

	case nav.Publish:
		return m.startPublish(e)

	case nav.Scroll:
		m.message.SetYOffset(m.message.YOffset + e.Delta)

	case nav.ToggleHelp:
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp

	case nav.Quit:
		m.quitting = true
		return tea.Quit
	}

	return nil
}

func (m *model) edit(e nav.Edit, key tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	if e.Widget == nav.CommandLine {
		// single line, tabs are dropped
		if e.Text != "" {
			return nil
		}
		m.command, cmd = m.command.Update(key)
		return cmd
	}

	i := e.Widget - nav.KeyField
	if e.Text != "" {
		m.fields[i].InsertString(e.Text)
		return nil
	}
	m.fields[i], cmd = m.fields[i].Update(key)
	return cmd
}

// startFetch runs a fetch in the background. Progress and the result arrive
// as messages; results of superseded fetches are dropped.
func (m *model) startFetch(partition string, run func(context.Context, func(string)) (consumer.Result, error)) tea.Cmd {
	m.fetchSeq++
	seq := m.fetchSeq
	m.busy = true
	m.status = "fetching ..."

	ctx := m.ctx
	events := make(chan tea.Msg, 1)
	go func() {
		result, err := run(ctx, func(text string) {
			events <- progressMsg{seq: seq, text: text, events: events}
		})
		events <- fetchDoneMsg{seq: seq, partition: partition, result: result, err: err}
	}()

	return listen(events)
}

// finishFetch applies a fetch result. The returned command copies the
// message to the clipboard.
func (m *model) finishFetch(msg fetchDoneMsg) tea.Cmd {
	if msg.seq != m.fetchSeq {
		m.log.Debug("dropping superseded fetch result", zap.Int("seq", msg.seq), zap.String("partition", msg.partition))
		return nil
	}
	m.busy = false
	m.status = ""

	result := msg.result
	if result.Details != nil {
		m.details[nav.PartitionsList] = partitionDetails(result.Details)
	}

	if msg.err != nil {
		m.footerCode = errorCode(msg.err)
		// a failed watermark fetch leaves the previous message in place
		if result.Details != nil || command.Code(msg.err) != "" || errors.Is(msg.err, consumer.ErrPartitionNotFound) {
			m.setMessage("Error", msg.err.Error())
		}
		return nil
	}

	m.footerCode = ""
	m.state.SetPinned(msg.partition, result.Offset)
	body := messageBody(result.Message)
	m.setMessage(messageTitle(result.Message, m.now), body)

	return copyCmd(m.deps.Clipboard, body, m.log)
}

func (m *model) startPublish(e nav.Publish) tea.Cmd {
	if m.deps.Producer == nil {
		return nil
	}

	headers, err := kafka.ParseHeaders(m.fields[nav.HeadersField-nav.KeyField].Value())
	if err != nil {
		m.footerCode = CodeInvalidHeaders
		m.setMessage("Error", err.Error())
		return nil
	}

	req := types.ProduceRequest{
		Topic:     e.Topic,
		Partition: -1,
		Key:       m.fields[nav.KeyField-nav.KeyField].Value(),
		Headers:   headers,
		Payload:   m.fields[nav.PayloadField-nav.KeyField].Value(),
	}
	if e.Partition != "" {
		if _, id, err := types.ParsePartitionName(e.Partition); err == nil {
			req.Partition = id
		}
	}

	m.busy = true
	m.status = "publishing ..."
	ctx, producer := m.ctx, m.deps.Producer
	return func() tea.Msg {
		return publishDoneMsg{req: req, err: producer.Produce(ctx, req)}
	}
}

func (m *model) finishPublish(msg publishDoneMsg) {
	m.busy = false
	m.status = ""

	if msg.err != nil {
		m.footerCode = CodePublish
		m.setMessage("Error", msg.err.Error())
		return
	}

	m.footerCode = ""
	target := msg.req.Topic
	if msg.req.Partition >= 0 {
		target = types.PartitionName(msg.req.Topic, msg.req.Partition)
	}
	m.setMessage("Sent", fmt.Sprintf("Message sent to %s", target))
}

func (m *model) applySnapshot(snap *metadata.Snapshot) {
	if snap == nil {
		return
	}
	m.state.RefreshLists(snap.BrokerNames(), snap.GroupNames(), snap.TopicNames())
	if name, ok := m.state.Selected(nav.TopicsList); ok {
		if t, ok := snap.GetTopic(name); ok {
			m.state.RefreshPartitions(t.PartitionNames())
		}
	}
}

func (m *model) setMessage(title, body string) {
	m.messageTitle = title
	m.message.SetContent(body)
	m.message.GotoTop()
}

func errorCode(err error) string {
	if code := command.Code(err); code != "" {
		return code
	}
	var rangeErr *consumer.OffsetOutOfRangeError
	switch {
	case errors.As(err, &rangeErr):
		return command.CodeInvalidOffset
	case errors.Is(err, consumer.ErrEmptyPartition):
		return CodeEmptyPartition
	case errors.Is(err, consumer.ErrNoMessage):
		return CodeNoMessage
	default:
		return CodeFetchingMessage
	}
}

// copyCmd writes text to the clipboard off the update loop; the clipboard
// tools it shells out to can be slow.
func copyCmd(cb Clipboard, text string, log *zap.Logger) tea.Cmd {
	if cb == nil {
		return nil
	}
	return func() tea.Msg {
		if err := cb.WriteAll(text); err != nil {
			log.Warn("failed to copy message to clipboard", zap.Error(err))
		}
		return nil
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func listen(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-events
	}
}

func listenStats(stats <-chan types.ClientStats) tea.Cmd {
	if stats == nil {
		return nil
	}
	return func() tea.Msg {
		s, ok := <-stats
		if !ok {
			return nil
		}
		return statsMsg(s)
	}
}
