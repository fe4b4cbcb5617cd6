// Package shell is the interactive bubbletea program: the onboarding wizard
// on first run, then the chat, digest and circles tabs.
package shell

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"kinship/cmd/kinship/ui"
	"kinship/internal/app"
	"kinship/internal/conversation"
	"kinship/internal/digest"
	"kinship/internal/fixtures"
	"kinship/internal/logging"
	"kinship/internal/onboarding"
	"kinship/internal/social"
	"kinship/internal/usage"
	"kinship/internal/ux"
)

const (
	chatPlaceholder   = "Ask about your people... (Enter to send, Tab to switch, Ctrl+C to exit)"
	searchPlaceholder = "Search contacts..."
)

// Deps wires the shell to the rest of the application.
type Deps struct {
	Context context.Context
	State   *app.State

	// Assistant serves both surfaces.
	Assistant conversation.Assistant

	// Optional collaborators.
	Preferences *ux.PreferencesManager
	Recorder    conversation.Recorder
	Reloads     <-chan fixtures.Set

	// SessionID tags usage and transcript entries for this run.
	SessionID string

	Theme           ui.Theme
	TransitionDelay time.Duration
	ConfirmDelay    time.Duration
	Now             func() time.Time
}

// fixturesReloadedMsg carries a fixture set from the watcher.
type fixturesReloadedMsg struct {
	set fixtures.Set
}

// chatAction is a selectable element of the conversation: an update card or
// one chip of a suggestions message.
type chatAction struct {
	update social.Update
	chip   string
	isChip bool
}

// Model is the root bubbletea model.
type Model struct {
	deps     Deps
	state    *app.State
	styles   ui.Styles
	markdown *ui.Markdown

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	// Onboarding
	flow       *onboarding.Flow
	flowCursor int

	// Surfaces, built once onboarding is complete.
	chat       *conversation.Controller
	digest     *digest.Controller
	chatFocus  int
	chipCursor int

	width  int
	height int
	ready  bool
	status string
}

// New builds the shell. Surfaces are created immediately when the state is
// already onboarded, otherwise when the wizard completes.
func New(deps Deps) Model {
	if deps.Context == nil {
		deps.Context = context.Background()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	styles := ui.NewStyles(deps.Theme)

	ti := textinput.New()
	ti.Placeholder = chatPlaceholder
	ti.Focus()
	ti.Prompt = "│ "
	ti.CharLimit = 1024
	ti.Width = 80
	ti.PromptStyle = styles.Prompt
	ti.TextStyle = styles.UserInput

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	vp := viewport.New(80, 20)
	vp.SetContent("")

	m := Model{
		deps:      deps,
		state:     deps.State,
		styles:    styles,
		markdown:  ui.NewMarkdown(deps.Theme, 76),
		input:     ti,
		viewport:  vp,
		spinner:   sp,
		chatFocus: -1,
	}
	if m.state.Onboarded() {
		m.buildSurfaces()
	} else {
		m.flow = onboarding.New(m.state.AllContacts())
	}
	m.refresh()
	return m
}

// Init starts the cursor blink, the spinner and the fixture listener.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		waitForReload(m.deps.Reloads),
	)
}

func waitForReload(ch <-chan fixtures.Set) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		set, ok := <-ch
		if !ok {
			return nil
		}
		return fixturesReloadedMsg{set: set}
	}
}

// Chat returns the conversation controller, or nil before onboarding.
func (m Model) Chat() *conversation.Controller { return m.chat }

// Digest returns the digest controller, or nil before onboarding.
func (m Model) Digest() *digest.Controller { return m.digest }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.shutdown()
			return m, tea.Quit
		}
		if !m.state.Onboarded() {
			return m.updateOnboarding(msg)
		}
		if msg.Type == tea.KeyTab {
			m.switchTab(m.state.ActiveTab().Next())
			return m, nil
		}
		if msg.Type == tea.KeyShiftTab {
			m.switchTab(m.state.ActiveTab().Next().Next())
			return m, nil
		}
		switch m.state.ActiveTab() {
		case app.TabChat:
			return m.updateChat(msg)
		case app.TabDigest:
			return m.updateDigest(msg)
		default:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case fixturesReloadedMsg:
		m.applyFixtures(msg.set)
		return m, waitForReload(m.deps.Reloads)
	}

	if m.chat != nil && m.chat.Update(msg) {
		m.refresh()
		if m.state.ActiveTab() == app.TabChat {
			m.viewport.GotoBottom()
		}
		return m, nil
	}
	if m.digest != nil {
		wasDone := m.digest.Done()
		if m.digest.Update(msg) {
			if !wasDone && m.digest.Done() {
				m.bump("digests_completed")
			}
			m.chipCursor = clamp(m.chipCursor, len(m.digest.Suggestions()))
			return m, nil
		}
	}

	// Cursor blink and other component messages.
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	headerHeight := 3
	footerHeight := 2
	inputHeight := 2
	h := height - headerHeight - footerHeight - inputHeight
	if h < 3 {
		h = 3
	}
	if !m.ready {
		m.viewport = viewport.New(width-4, h)
		m.ready = true
	} else {
		m.viewport.Width = width - 4
		m.viewport.Height = h
	}
	m.input.Width = width - 6
	m.markdown.SetWidth(width - 8)
	m.refresh()
}

// buildSurfaces creates both controllers over the active contact subset.
func (m *Model) buildSurfaces() {
	updates := m.state.Updates()
	contacts := m.state.Contacts()
	prefs := m.state.Preferences()

	m.chat = conversation.New(m.deps.Assistant, updates, contacts, prefs, conversation.Options{
		Context:      usage.WithCallContext(m.deps.Context, "conversation", m.deps.SessionID),
		ConfirmDelay: m.deps.ConfirmDelay,
		Recorder:     m.deps.Recorder,
		Now:          m.deps.Now,
	})
	m.digest = digest.New(m.deps.Assistant, updates, contacts, prefs, digest.Options{
		Context:         usage.WithCallContext(m.deps.Context, "digest", m.deps.SessionID),
		TransitionDelay: m.deps.TransitionDelay,
	})
	m.chatFocus = -1
	logging.UI("surfaces ready: %d contacts, %d updates", len(contacts), len(updates))
}

// switchTab changes the visible surface and abandons the leaving surface's
// in-flight work.
func (m *Model) switchTab(t app.Tab) {
	leaving := m.state.ActiveTab()
	if !m.state.SetTab(t) {
		return
	}
	switch leaving {
	case app.TabChat:
		m.chat.Cancel()
	case app.TabDigest:
		m.digest.Cancel()
	}
	m.chipCursor = 0
	logging.UIDebug("tab %s -> %s", leaving, t)
	m.refresh()
	m.viewport.GotoTop()
	if t == app.TabChat {
		m.viewport.GotoBottom()
	}
}

func (m *Model) applyFixtures(set fixtures.Set) {
	m.state.SetFixtures(set.Contacts, set.Updates)
	if m.flow != nil && !m.state.Onboarded() {
		m.flow = onboarding.New(m.state.AllContacts())
		m.flowCursor = 0
	}
	if m.digest != nil {
		m.digest.SetUpdates(m.state.Updates(), m.state.Contacts())
	}
	if m.chat != nil {
		m.chat.SetContext(m.state.Updates(), m.state.Contacts())
	}
	m.status = fmt.Sprintf("Fixtures reloaded: %d updates", len(m.state.Updates()))
	logging.UI("fixtures applied: %d contacts, %d updates", len(set.Contacts), len(set.Updates))
	m.refresh()
}

func (m *Model) bump(metric string) {
	if m.deps.Preferences == nil {
		return
	}
	if err := m.deps.Preferences.IncrementMetric(metric); err != nil {
		logging.UIDebug("metric %s: %v", metric, err)
	}
}

// shutdown cancels outstanding work and flushes preferences.
func (m *Model) shutdown() {
	if m.chat != nil {
		m.chat.Cancel()
	}
	if m.digest != nil {
		m.digest.Cancel()
	}
	if m.deps.Preferences != nil {
		if err := m.deps.Preferences.Save(); err != nil {
			logging.UI("failed to save preferences on exit: %v", err)
		}
	}
}

// updateOnboarding drives the wizard.
func (m Model) updateOnboarding(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.flow
	switch msg.Type {
	case tea.KeyEnter:
		if f.Step() == onboarding.StepTone {
			return m.finishOnboarding()
		}
		m.enterStep(f.Advance)
		return m, nil
	case tea.KeyEsc, tea.KeyLeft:
		m.enterStep(f.Retreat)
		return m, nil
	case tea.KeyUp:
		m.flowCursor = clamp(m.flowCursor-1, m.flowOptions())
		m.syncTone()
		return m, nil
	case tea.KeyDown:
		m.flowCursor = clamp(m.flowCursor+1, m.flowOptions())
		m.syncTone()
		return m, nil
	case tea.KeySpace:
		m.toggleFlowOption()
		return m, nil
	}

	if f.Step() == onboarding.StepContacts {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		f.SetSearch(m.input.Value())
		m.flowCursor = clamp(m.flowCursor, m.flowOptions())
		return m, cmd
	}
	return m, nil
}

// enterStep moves the wizard and prepares the input for the new step.
func (m *Model) enterStep(move func()) {
	before := m.flow.Step()
	move()
	if m.flow.Step() == before {
		return
	}
	m.flowCursor = 0
	m.input.Reset()
	m.flow.SetSearch("")
	m.input.Placeholder = chatPlaceholder
	if m.flow.Step() == onboarding.StepContacts {
		m.input.Placeholder = searchPlaceholder
	}
	if m.flow.Step() == onboarding.StepTone {
		m.flowCursor = toneIndex(m.flow.Tone())
	}
}

func (m *Model) flowOptions() int {
	switch m.flow.Step() {
	case onboarding.StepChannels:
		return len(onboarding.ChannelOptions)
	case onboarding.StepContacts:
		return len(m.flow.VisibleContacts())
	case onboarding.StepTone:
		return len(onboarding.ToneOptions)
	}
	return 0
}

func (m *Model) toggleFlowOption() {
	switch m.flow.Step() {
	case onboarding.StepChannels:
		m.flow.ToggleChannel(onboarding.ChannelOptions[m.flowCursor].ID)
	case onboarding.StepContacts:
		visible := m.flow.VisibleContacts()
		if m.flowCursor < len(visible) {
			m.flow.ToggleContact(visible[m.flowCursor].ID)
		}
	}
}

func (m *Model) syncTone() {
	if m.flow.Step() == onboarding.StepTone {
		m.flow.SetTone(social.Tone(onboarding.ToneOptions[m.flowCursor].ID))
	}
}

func toneIndex(t social.Tone) int {
	for i, opt := range onboarding.ToneOptions {
		if opt.ID == string(t) {
			return i
		}
	}
	return 0
}

func (m Model) finishOnboarding() (tea.Model, tea.Cmd) {
	res, err := m.flow.Finish()
	if err != nil {
		return m, nil
	}
	if err := m.state.CompleteOnboarding(res); err != nil {
		// The outcome still applies for this session.
		logging.UI("onboarding not persisted: %v", err)
		m.status = "Preferences could not be saved"
	}
	m.flow = nil
	m.input.Reset()
	m.input.Placeholder = chatPlaceholder
	m.buildSurfaces()
	m.refresh()
	m.viewport.GotoBottom()
	return m, nil
}

// updateChat handles keys on the chat tab.
func (m Model) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		if strings.TrimSpace(m.input.Value()) != "" {
			m.chat.SetInput(m.input.Value())
			cmd := m.chat.Submit()
			if cmd != nil {
				m.input.Reset()
				m.chatFocus = -1
				m.bump("chats_sent")
			}
			m.refresh()
			m.viewport.GotoBottom()
			return m, cmd
		}
		return m.activateChatFocus()
	case tea.KeyUp:
		m.moveChatFocus(-1)
		return m, nil
	case tea.KeyDown:
		m.moveChatFocus(1)
		return m, nil
	case tea.KeyEsc:
		m.chatFocus = -1
		m.refresh()
		return m, nil
	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// chatActions lists the selectable elements in message order. Only the
// latest suggestions message offers chips.
func (m Model) chatActions() []chatAction {
	msgs := m.chat.Messages()
	latest := -1
	for i, msg := range msgs {
		if _, ok := msg.(*conversation.SuggestionsMessage); ok {
			latest = i
		}
	}
	var out []chatAction
	for i, msg := range msgs {
		switch v := msg.(type) {
		case *conversation.UpdateCardMessage:
			out = append(out, chatAction{update: v.Update})
		case *conversation.SuggestionsMessage:
			if i != latest {
				continue
			}
			for _, s := range v.Suggestions {
				out = append(out, chatAction{update: v.Update, chip: s, isChip: true})
			}
		}
	}
	return out
}

func (m *Model) moveChatFocus(delta int) {
	actions := m.chatActions()
	if len(actions) == 0 {
		m.chatFocus = -1
		return
	}
	if m.chatFocus < 0 {
		if delta < 0 {
			m.chatFocus = len(actions) - 1
		} else {
			m.chatFocus = 0
		}
	} else {
		m.chatFocus = clamp(m.chatFocus+delta, len(actions))
	}
	m.refresh()
}

func (m Model) activateChatFocus() (tea.Model, tea.Cmd) {
	actions := m.chatActions()
	if m.chatFocus < 0 || m.chatFocus >= len(actions) {
		return m, nil
	}
	a := actions[m.chatFocus]
	var cmd tea.Cmd
	if a.isChip {
		cmd = m.chat.SendReply(a.chip)
		if cmd != nil {
			m.bump("replies_sent")
		}
	} else {
		cmd = m.chat.RequestSuggestions(a.update)
	}
	if cmd != nil {
		m.chatFocus = -1
	}
	m.refresh()
	m.viewport.GotoBottom()
	return m, cmd
}

// updateDigest handles keys on the digest tab.
func (m Model) updateDigest(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	d := m.digest
	if d.Replying() {
		switch msg.Type {
		case tea.KeyEsc:
			d.CloseReply()
			return m, nil
		case tea.KeyUp:
			m.chipCursor = clamp(m.chipCursor-1, len(d.Suggestions()))
			return m, nil
		case tea.KeyDown:
			m.chipCursor = clamp(m.chipCursor+1, len(d.Suggestions()))
			return m, nil
		case tea.KeyEnter:
			return m.sendDigestReply(m.chipCursor)
		case tea.KeyRunes:
			if len(msg.Runes) == 1 && msg.Runes[0] >= '1' && msg.Runes[0] <= '9' {
				return m.sendDigestReply(int(msg.Runes[0] - '1'))
			}
		}
		return m, nil
	}

	switch msg.String() {
	case "left", "h", "s":
		return m, d.Skip()
	case "right", "l", "r", "enter":
		m.chipCursor = 0
		return m, d.StartReply()
	}
	return m, nil
}

func (m Model) sendDigestReply(i int) (tea.Model, tea.Cmd) {
	suggestions := m.digest.Suggestions()
	if i < 0 || i >= len(suggestions) {
		return m, nil
	}
	cmd := m.digest.SendReply(suggestions[i])
	if cmd != nil {
		m.bump("replies_sent")
	}
	return m, cmd
}

// refresh re-renders the scrollable surfaces into the viewport.
func (m *Model) refresh() {
	if !m.state.Onboarded() || m.chat == nil {
		return
	}
	switch m.state.ActiveTab() {
	case app.TabChat:
		m.viewport.SetContent(m.renderChat())
	case app.TabCircles:
		m.viewport.SetContent(m.renderCircles())
	}
}

// clamp bounds i to [0, n). It returns 0 when n is 0.
func clamp(i, n int) int {
	if n <= 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
