package main

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/world-forge/pkg/entity"
)

const (
	PlaceHolderText = "Describe the entity to forge..."
)

var kinds = []string{"item", "npc", "location"}

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	client       *http.Client
	logViewport  viewport.Model
	textarea     textarea.Model
	spinner      spinner.Model
	ready        bool
	width        int
	height       int
	err          error
	loading      bool
	kindIndex    int
	requestID    string
	lines        []string
	lastEntityID string
	sseCancel    context.CancelFunc
	eventChan    chan SSEEvent
}

type requestSubmittedMsg struct {
	requestID string
	err       error
}

type sseEventMsg struct {
	event SSEEvent
}

type sseClosedMsg struct {
	err error
}

type entityLoadedMsg struct {
	entity *entity.GeneratedEntity
	err    error
}

type entitiesListedMsg struct {
	ids []string
	err error
}

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	stageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	degradedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	kindStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")). // teal
			Bold(true)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)

	rarityStyles = map[entity.Rarity]lipgloss.Style{
		entity.RarityCommon:    lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		entity.RarityRare:      lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		entity.RarityEpic:      lipgloss.NewStyle().Foreground(lipgloss.Color("129")),
		entity.RarityLegendary: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	}

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey
)

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 500
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	vp := viewport.New(50, 20)
	vp.MouseWheelEnabled = true

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = degradedStyle

	return ConsoleUI{
		config:      cfg,
		client:      client,
		textarea:    ta,
		logViewport: vp,
		spinner:     sp,
		ready:       false,
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return textarea.Blink
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.logViewport.Width = msg.Width - 4
		m.logViewport.Height = msg.Height - 8
		m.textarea.SetWidth(msg.Width - 4)
		m.ready = true
		m.refreshLog()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			if m.sseCancel != nil {
				m.sseCancel()
			}
			return m, tea.Quit

		case tea.KeyTab:
			m.kindIndex = (m.kindIndex + 1) % len(kinds)
			return m, nil

		case tea.KeyCtrlY:
			if m.lastEntityID != "" {
				if err := clipboard.WriteAll(m.lastEntityID); err != nil {
					m.appendLine(errorStyle.Render("Failed to copy id: " + err.Error()))
				} else {
					m.appendLine(promptStyle.Render("Copied " + m.lastEntityID))
				}
			}
			return m, nil

		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}
			prompt := strings.TrimSpace(m.textarea.Value())
			if prompt == "" {
				return m, nil
			}
			if strings.HasPrefix(prompt, "/") {
				m.textarea.Reset()
				return m.handleCommand(prompt)
			}
			m.textarea.Reset()
			m.loading = true
			m.appendLine(kindStyle.Render(fmt.Sprintf("[%s] ", kinds[m.kindIndex])) + prompt)
			// Return here so the textarea does not also consume the keypress
			return m, tea.Batch(m.submitRequest(kinds[m.kindIndex], prompt), m.spinner.Tick)
		}

	case requestSubmittedMsg:
		if msg.err != nil {
			m.loading = false
			m.appendLine(errorStyle.Render("Request failed: " + msg.err.Error()))
			return m, nil
		}
		m.requestID = msg.requestID
		m.appendLine(promptStyle.Render("request " + msg.requestID + " queued"))
		cmds = append(cmds, m.startEventStream(msg.requestID))

	case sseEventMsg:
		m.handleEvent(msg.event)
		if m.eventChan != nil {
			cmds = append(cmds, waitForEvent(m.eventChan))
		}
		if ent, ok := msg.event.Data["entity_id"].(string); ok && msg.event.Type == "entity.created" {
			cmds = append(cmds, m.loadEntity(ent))
		}

	case sseClosedMsg:
		if msg.err != nil && m.loading {
			m.loading = false
			m.appendLine(errorStyle.Render("Event stream error: " + msg.err.Error()))
		}

	case entityLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.appendLine(errorStyle.Render("Failed to load entity: " + msg.err.Error()))
			return m, nil
		}
		m.lastEntityID = msg.entity.ID
		m.appendLine(m.renderEntityCard(msg.entity))
		m.appendLine(promptStyle.Render("Ctrl+Y copies the entity id"))

	case entitiesListedMsg:
		if msg.err != nil {
			m.appendLine(errorStyle.Render("Failed to list entities: " + msg.err.Error()))
			return m, nil
		}
		if len(msg.ids) == 0 {
			m.appendLine("No entities forged yet.")
		} else {
			sorted := append([]string(nil), msg.ids...)
			sort.Strings(sorted)
			m.appendLine(titleStyle.Render("FORGED ENTITIES"))
			for _, id := range sorted {
				m.appendLine("  " + id)
			}
		}

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	var taCmd, vpCmd tea.Cmd
	m.textarea, taCmd = m.textarea.Update(msg)
	m.logViewport, vpCmd = m.logViewport.Update(msg)
	cmds = append(cmds, taCmd, vpCmd)

	return m, tea.Batch(cmds...)
}

func (m ConsoleUI) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := titleStyle.Render("WORLD FORGE") +
		separatorStyle.Render("  •  kind: ") +
		kindStyle.Render(kinds[m.kindIndex]) +
		separatorStyle.Render("  (tab to change)")

	status := ""
	if m.loading {
		status = m.spinner.View() + degradedStyle.Render(" forging...")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.logViewport.View(),
		status,
		m.textarea.View(),
		promptStyle.Render("enter: forge  •  /list: entities  •  ctrl+c: quit"),
	)
}

func (m *ConsoleUI) handleCommand(cmd string) (tea.Model, tea.Cmd) {
	switch cmd {
	case "/list":
		return m, m.listAll()
	case "/help":
		m.appendLine("Commands: /list shows forged entity ids, /help shows this text.")
		return m, nil
	default:
		m.appendLine(errorStyle.Render("Unknown command: " + cmd))
		return m, nil
	}
}

// handleEvent appends a log line for one pipeline event
func (m *ConsoleUI) handleEvent(ev SSEEvent) {
	switch ev.Type {
	case "connected":
		// Quietly ignore the handshake event
	case "stage.started":
		// Stage completion lines carry the useful signal
	case "stage.completed":
		label := "stage"
		if stage, ok := ev.Data["stage"].(string); ok {
			label = stage
		}
		m.appendLine(stageStyle.Render("  ✓ " + label + " complete"))
	case "stage.degraded":
		label := "stage"
		if stage, ok := ev.Data["stage"].(string); ok {
			label = stage
		}
		reason := ""
		if errText, ok := ev.Data["error"].(string); ok {
			reason = ": " + errText
		}
		m.appendLine(degradedStyle.Render("  ~ " + label + " degraded" + reason))
	case "entity.failed":
		m.loading = false
		reason := "generation failed"
		if errText, ok := ev.Data["error"].(string); ok {
			reason = errText
		}
		if stage, ok := ev.Data["stage"].(string); ok {
			reason = stage + ": " + reason
		}
		m.appendLine(errorStyle.Render("  ✗ " + reason))
	case "entity.created":
		if name, ok := ev.Data["name"].(string); ok {
			m.appendLine(stageStyle.Render("  ✓ " + name + " forged"))
		}
	}
}

func (m *ConsoleUI) renderEntityCard(ent *entity.GeneratedEntity) string {
	width := m.logViewport.Width - 8
	if width < 20 {
		width = 20
	}

	rarity := rarityStyles[ent.Rarity].Render(strings.ToUpper(string(ent.Rarity)))

	var b strings.Builder
	b.WriteString(titleStyle.Render(ent.Name) + "  " + rarity + "\n")
	b.WriteString(promptStyle.Render(ent.ID) + "\n\n")
	b.WriteString(wordwrap.String(ent.Description, width) + "\n")

	if ent.Purpose != "" {
		b.WriteString("\n" + wordwrap.String("Purpose: "+ent.Purpose, width) + "\n")
	}

	if len(ent.OwnAttributes) > 0 {
		b.WriteString("\n")
		names := make([]string, 0, len(ent.OwnAttributes))
		for name := range ent.OwnAttributes {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			record := ent.OwnAttributes[name]
			marker := ""
			if record.Origin == entity.OriginInferred {
				marker = degradedStyle.Render(" *")
			}
			b.WriteString(fmt.Sprintf("  %s: %v%s\n", name, record.Value, marker))
		}
	}

	return cardStyle.Width(width + 4).Render(b.String())
}

func (m *ConsoleUI) appendLine(line string) {
	m.lines = append(m.lines, line)
	m.refreshLog()
}

func (m *ConsoleUI) refreshLog() {
	m.logViewport.SetContent(strings.Join(m.lines, "\n"))
	m.logViewport.GotoBottom()
}

func (m *ConsoleUI) submitRequest(kind string, prompt string) tea.Cmd {
	client := m.client
	baseURL := m.config.APIBaseURL
	return func() tea.Msg {
		requestID, err := generateEntityAsync(client, baseURL, kind, prompt)
		return requestSubmittedMsg{requestID: requestID, err: err}
	}
}

// startEventStream subscribes to the request's SSE channel and forwards
// events into the bubbletea loop.
func (m *ConsoleUI) startEventStream(requestID string) tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	m.sseCancel = cancel
	m.eventChan = make(chan SSEEvent, 16)

	eventChan := m.eventChan
	client := &http.Client{} // No timeout: the stream stays open until terminal event
	baseURL := m.config.APIBaseURL

	go func() {
		defer close(eventChan)
		_ = listenToSSE(ctx, client, baseURL, requestID, eventChan)
	}()

	return waitForEvent(eventChan)
}

func waitForEvent(eventChan chan SSEEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-eventChan
		if !ok {
			return sseClosedMsg{}
		}
		return sseEventMsg{event: ev}
	}
}

func (m *ConsoleUI) loadEntity(entityID string) tea.Cmd {
	client := m.client
	baseURL := m.config.APIBaseURL
	return func() tea.Msg {
		ent, err := getEntity(client, baseURL, entityID)
		return entityLoadedMsg{entity: ent, err: err}
	}
}

func (m *ConsoleUI) listAll() tea.Cmd {
	client := m.client
	baseURL := m.config.APIBaseURL
	return func() tea.Msg {
		ids, err := listEntities(client, baseURL)
		return entitiesListedMsg{ids: ids, err: err}
	}
}
