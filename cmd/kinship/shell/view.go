package shell

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"kinship/cmd/kinship/ui"
	"kinship/internal/app"
	"kinship/internal/conversation"
	"kinship/internal/digest"
	"kinship/internal/onboarding"
	"kinship/internal/social"
)

var tabLabels = map[app.Tab]string{
	app.TabChat:    "Chat",
	app.TabDigest:  "Digest",
	app.TabCircles: "Circles",
}

func (m Model) View() string {
	if !m.state.Onboarded() {
		return m.renderOnboarding()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	switch m.state.ActiveTab() {
	case app.TabChat:
		b.WriteString(m.viewport.View())
		b.WriteString("\n")
		if m.chat.Busy() {
			b.WriteString(m.spinner.View() + m.styles.Muted.Render(" thinking..."))
		}
		b.WriteString("\n")
		b.WriteString(m.input.View())
	case app.TabDigest:
		b.WriteString(m.renderDigest())
	case app.TabCircles:
		b.WriteString(m.viewport.View())
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	tabs := make([]string, 0, len(app.Tabs))
	for _, t := range app.Tabs {
		style := m.styles.Tab
		if t == m.state.ActiveTab() {
			style = m.styles.ActiveTab
		}
		tabs = append(tabs, style.Render(tabLabels[t]))
	}
	header := lipgloss.JoinHorizontal(lipgloss.Top,
		m.styles.Header.Render("kinship"),
		" ",
		lipgloss.JoinHorizontal(lipgloss.Top, tabs...),
	)
	width := m.width
	if width == 0 {
		width = 80
	}
	return header + "\n" + m.styles.RenderDivider(width)
}

func (m Model) renderFooter() string {
	var help string
	switch m.state.ActiveTab() {
	case app.TabChat:
		help = "enter send • ↑/↓ select card or chip • enter on selection act • tab switch"
	case app.TabDigest:
		if m.digest.Replying() {
			help = "1-3 or ↑/↓+enter send • esc close"
		} else {
			help = "← skip • → reply • tab switch"
		}
	default:
		help = "↑/↓ scroll • tab switch"
	}
	if m.status != "" {
		help = m.status + " • " + help
	}
	return m.styles.Footer.Render(help)
}

// renderChat renders the conversation for the viewport.
func (m Model) renderChat() string {
	actions := m.chatActions()
	focused := chatAction{}
	hasFocus := m.chatFocus >= 0 && m.chatFocus < len(actions)
	if hasFocus {
		focused = actions[m.chatFocus]
	}

	var b strings.Builder
	for _, msg := range m.chat.Messages() {
		switch v := msg.(type) {
		case *conversation.TextMessage:
			if v.Role() == conversation.RoleUser {
				b.WriteString(m.styles.UserBubble.Render("You: " + v.Text))
			} else {
				b.WriteString(m.styles.ModelBubble.Render(m.markdown.Render(v.Text)))
			}
		case *conversation.UpdateCardMessage:
			selected := hasFocus && !focused.isChip && focused.update.ID == v.Update.ID
			b.WriteString(m.renderCard(v.Update, selected))
		case *conversation.SuggestionsMessage:
			b.WriteString(m.styles.Bold.Render(v.Heading))
			b.WriteString("\n")
			chips := make([]string, 0, len(v.Suggestions))
			for _, s := range v.Suggestions {
				style := m.styles.Chip
				if hasFocus && focused.isChip && focused.chip == s && focused.update.ID == v.Update.ID {
					style = m.styles.ChipActive
				}
				chips = append(chips, style.Render(s))
			}
			b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, chips...))
		}
		b.WriteString("\n\n")
	}
	return b.String()
}

func (m Model) renderCard(u social.Update, selected bool) string {
	name := "Unknown"
	if c, ok := social.FindContact(m.state.AllContacts(), u.ContactID); ok {
		name = c.Name
	}
	meta := fmt.Sprintf("%s · %s · %s", name, u.Channel, humanize.Time(u.Timestamp))
	body := m.styles.Bold.Render(meta) + "\n" + m.styles.Body.Render(u.Content)
	if u.ImageURL != "" {
		body += "\n" + m.styles.Muted.Render("🖼  "+u.ImageURL)
	}
	style := m.styles.Card
	if selected {
		style = style.BorderForeground(m.styles.Theme.Accent)
		body += "\n" + m.styles.Selected.Render("enter for reply ideas")
	}
	return style.Render(body)
}

// renderDigest renders the story bars, the current card and the reply overlay.
func (m Model) renderDigest() string {
	d := m.digest
	var b strings.Builder

	bars := make([]string, 0, d.Len())
	for _, stage := range d.Progress() {
		switch stage {
		case digest.StageDone:
			bars = append(bars, m.styles.StoryDone.Render("━━━"))
		case digest.StageCurrent:
			bars = append(bars, m.styles.StoryCurrent.Render("━━━"))
		default:
			bars = append(bars, m.styles.StoryPending.Render("━━━"))
		}
	}
	b.WriteString(strings.Join(bars, " "))
	b.WriteString("\n\n")

	if d.Done() {
		b.WriteString(m.styles.Title.Render("All caught up! 🎉"))
		b.WriteString("\n")
		b.WriteString(m.styles.Muted.Render(fmt.Sprintf("You went through %d updates.", d.Len())))
		return b.String()
	}

	u, contact, ok := d.Current()
	if !ok {
		b.WriteString(m.styles.Muted.Render("This update's contact is no longer available. ← to skip."))
		return b.String()
	}

	switch d.Direction() {
	case digest.DirectionLeft:
		b.WriteString(m.styles.Muted.Render("← skipped"))
		b.WriteString("\n")
	case digest.DirectionRight:
		b.WriteString(m.styles.Success.Render("sent →"))
		b.WriteString("\n")
	}

	var card strings.Builder
	card.WriteString(m.styles.Bold.Render(contact.Name))
	card.WriteString(m.styles.Muted.Render(fmt.Sprintf("  %s · %s · %s", contact.Circle, u.Channel, humanize.Time(u.Timestamp))))
	card.WriteString("\n\n")
	if digest.IsVisual(u) {
		card.WriteString(m.styles.Muted.Render("🖼  " + u.ImageURL))
		card.WriteString("\n")
		card.WriteString(m.styles.Body.Render(u.Content))
	} else {
		card.WriteString(m.styles.Body.Render(u.Content))
		if u.ImageURL != "" {
			card.WriteString("\n" + m.styles.Muted.Render("🖼  "+u.ImageURL))
		}
	}
	if u.Summary != "" {
		card.WriteString("\n" + m.styles.Subtitle.Render(u.Summary))
	}
	b.WriteString(m.styles.Card.Render(card.String()))
	b.WriteString("\n")

	if d.Replying() {
		b.WriteString("\n")
		b.WriteString(m.styles.Bold.Render("Reply to " + contact.Name))
		b.WriteString("\n")
		if d.Loading() {
			b.WriteString(m.spinner.View() + m.styles.Muted.Render(" drafting replies..."))
		} else {
			for i, s := range d.Suggestions() {
				style := m.styles.Chip
				if i == m.chipCursor {
					style = m.styles.ChipActive
				}
				b.WriteString(style.Render(fmt.Sprintf("%d. %s", i+1, s)))
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}

// renderCircles renders the directory grouped by circle.
func (m Model) renderCircles() string {
	var b strings.Builder
	for _, g := range social.GroupByCircle(m.state.Contacts()) {
		b.WriteString(m.styles.Title.Render(fmt.Sprintf("%s (%d)", g.Circle, len(g.Contacts))))
		b.WriteString("\n")
		for _, c := range g.Contacts {
			channels := make([]string, 0, len(c.Channels))
			for _, ch := range c.Channels {
				channels = append(channels, string(ch))
			}
			b.WriteString(fmt.Sprintf("  • %s  %s\n", m.styles.Bold.Render(c.Name), m.styles.Muted.Render(strings.Join(channels, ", "))))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// renderOnboarding renders the current wizard page.
func (m Model) renderOnboarding() string {
	f := m.flow
	s := m.styles
	var b strings.Builder

	b.WriteString(ui.Logo(s))
	b.WriteString("\n")
	b.WriteString(renderProgress(s, f.Progress(), 30))
	b.WriteString(s.Muted.Render(fmt.Sprintf("  step %d of %d", f.Step(), onboarding.Steps)))
	b.WriteString("\n\n")

	switch f.Step() {
	case onboarding.StepIntro:
		b.WriteString(s.Title.Render("Stay close to the people who matter."))
		b.WriteString("\n")
		b.WriteString(s.Body.Render("Kinship gathers what your friends and family are up to and helps you reply in your own voice."))
		b.WriteString("\n\n")
		b.WriteString(s.Muted.Render("enter to begin"))

	case onboarding.StepChannels:
		b.WriteString(s.Title.Render("Where do your people talk to you?"))
		b.WriteString("\n")
		for i, opt := range onboarding.ChannelOptions {
			b.WriteString(optionLine(s, i == m.flowCursor, f.ChannelSelected(opt.ID), opt.Label))
		}
		b.WriteString("\n")
		b.WriteString(s.Muted.Render("space toggle • enter next • esc back"))

	case onboarding.StepContacts:
		b.WriteString(s.Title.Render("Who should we keep an eye on?"))
		b.WriteString("\n")
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		visible := f.VisibleContacts()
		if len(visible) == 0 {
			b.WriteString(s.Muted.Render("  no matches"))
			b.WriteString("\n")
		}
		for i, c := range visible {
			b.WriteString(optionLine(s, i == m.flowCursor, f.ContactSelected(c.ID), fmt.Sprintf("%s  %s", c.Name, s.Muted.Render(string(c.Circle)))))
		}
		b.WriteString("\n")
		b.WriteString(s.Muted.Render(fmt.Sprintf("%d selected (none means everyone) • space toggle • enter next • esc back", f.SelectedCount())))

	case onboarding.StepTone:
		b.WriteString(s.Title.Render("How do you want to sound?"))
		b.WriteString("\n")
		for i, opt := range onboarding.ToneOptions {
			b.WriteString(optionLine(s, i == m.flowCursor, string(f.Tone()) == opt.ID, opt.Icon+"  "+opt.Label))
		}
		b.WriteString("\n")
		b.WriteString(s.Muted.Render("↑/↓ choose • enter finish • esc back"))
	}

	if m.status != "" {
		b.WriteString("\n\n")
		b.WriteString(s.Warning.Render(m.status))
	}
	return b.String()
}

func optionLine(s ui.Styles, cursor, selected bool, label string) string {
	pointer := "  "
	if cursor {
		pointer = s.Selected.Render("› ")
	}
	mark := "[ ]"
	if selected {
		mark = s.Success.Render("[x]")
	}
	return fmt.Sprintf("%s%s %s\n", pointer, mark, label)
}

func renderProgress(s ui.Styles, fraction float64, width int) string {
	filled := int(fraction * float64(width))
	if filled > width {
		filled = width
	}
	return s.StoryCurrent.Render(strings.Repeat("█", filled)) + s.StoryPending.Render(strings.Repeat("░", width-filled))
}
