package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/alan-mat/dip/internal/api"
	"github.com/alan-mat/dip/internal/client"
	"github.com/alan-mat/dip/internal/config"
	"github.com/alan-mat/dip/internal/message"
)

const pollInterval = 500 * time.Millisecond

func main() {
	conf := config.FromEnv()
	c := client.New(conf.ServerURL)

	p := tea.NewProgram(initialModel(c), tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		log.Fatal(err)
	}
}

type (
	errMsg error
)

type sectorsMsg []string

type acceptedMsg struct {
	TaskID string
}

type traceMsg struct {
	Trace *api.TraceResponse
}

const (
	fieldPath = iota
	fieldSector
	fieldStrategy
	fieldCount
)

type phase int

const (
	phaseForm phase = iota
	phaseSubmitting
	phasePolling
	phaseDone
)

type model struct {
	client *client.Client

	phase   phase
	inputs  []textinput.Model
	focused int
	spinner spinner.Model

	sectors []string
	taskID  string
	trace   *api.TraceResponse

	titleStyle lipgloss.Style
	helpStyle  lipgloss.Style
	okStyle    lipgloss.Style
	failStyle  lipgloss.Style
	err        error
}

func initialModel(c *client.Client) model {
	inputs := make([]textinput.Model, fieldCount)

	path := textinput.New()
	path.Placeholder = "path/to/document.pdf"
	path.Prompt = "file     > "
	path.CharLimit = 256
	path.Focus()
	inputs[fieldPath] = path

	sector := textinput.New()
	sector.Placeholder = "legal"
	sector.Prompt = "sector   > "
	sector.CharLimit = 64
	inputs[fieldSector] = sector

	strategy := textinput.New()
	strategy.Placeholder = "fixed_size"
	strategy.Prompt = "strategy > "
	strategy.CharLimit = 64
	inputs[fieldStrategy] = strategy

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return model{
		client:     c,
		inputs:     inputs,
		spinner:    sp,
		titleStyle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		helpStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		okStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
		failStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		err:        nil,
	}
}

func fetchSectors(c *client.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		resp, err := c.Sectors(ctx)
		if err != nil {
			return errMsg(err)
		}
		return sectorsMsg(resp.Sectors)
	}
}

func submitDocument(c *client.Client, path, sector, strategy string) tea.Cmd {
	return func() tea.Msg {
		content, err := os.ReadFile(path)
		if err != nil {
			return errMsg(err)
		}

		req := api.IngestRequest{
			ProcessRequest: api.ProcessRequest{
				DocumentID: uuid.NewString(),
				Sector:     sector,
				Strategy:   strategy,
			},
			File: &message.FileContent{
				Name:    filepath.Base(path),
				Content: base64.StdEncoding.EncodeToString(content),
			},
		}

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		accepted, err := c.IngestDocument(ctx, req)
		if err != nil {
			return errMsg(err)
		}
		return acceptedMsg{TaskID: accepted.TaskID}
	}
}

func pollTrace(c *client.Client, taskID string) tea.Cmd {
	return tea.Tick(pollInterval, func(time.Time) tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		trace, err := c.GetTrace(ctx, taskID)
		if err != nil {
			return errMsg(err)
		}
		return traceMsg{Trace: trace}
	})
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		fetchSectors(m.client),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit

		case tea.KeyTab, tea.KeyShiftTab, tea.KeyUp, tea.KeyDown:
			if m.phase != phaseForm {
				return m, nil
			}
			if msg.Type == tea.KeyShiftTab || msg.Type == tea.KeyUp {
				m.focused = (m.focused + fieldCount - 1) % fieldCount
			} else {
				m.focused = (m.focused + 1) % fieldCount
			}
			for i := range m.inputs {
				if i == m.focused {
					m.inputs[i].Focus()
				} else {
					m.inputs[i].Blur()
				}
			}
			return m, nil

		case tea.KeyEnter:
			switch m.phase {
			case phaseForm:
				path := strings.TrimSpace(m.inputs[fieldPath].Value())
				sector := strings.TrimSpace(m.inputs[fieldSector].Value())
				strategy := strings.TrimSpace(m.inputs[fieldStrategy].Value())
				if path == "" || sector == "" || strategy == "" {
					m.err = fmt.Errorf("all fields are required")
					return m, nil
				}
				m.err = nil
				m.phase = phaseSubmitting
				return m, submitDocument(m.client, path, sector, strategy)
			case phaseDone:
				return m, tea.Quit
			}
			return m, nil
		}

	case sectorsMsg:
		m.sectors = msg
		return m, nil

	case acceptedMsg:
		m.taskID = msg.TaskID
		m.phase = phasePolling
		return m, pollTrace(m.client, m.taskID)

	case traceMsg:
		m.trace = msg.Trace
		if m.trace.Status == "completed" || m.trace.Status == "failed" {
			m.phase = phaseDone
			return m, nil
		}
		return m, pollTrace(m.client, m.taskID)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case errMsg:
		m.err = msg
		m.phase = phaseForm
		for i := range m.inputs {
			m.inputs[i].Blur()
		}
		m.focused = fieldPath
		m.inputs[fieldPath].Focus()
		return m, nil
	}

	if m.phase == phaseForm {
		var cmd tea.Cmd
		m.inputs[m.focused], cmd = m.inputs[m.focused].Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(m.titleStyle.Render("dip uploader"))
	b.WriteString("\n\n")

	switch m.phase {
	case phaseForm:
		for i := range m.inputs {
			b.WriteString(m.inputs[i].View())
			b.WriteString("\n")
		}
		b.WriteString("\n")
		if len(m.sectors) > 0 {
			b.WriteString(m.helpStyle.Render("sectors: " + strings.Join(m.sectors, ", ")))
			b.WriteString("\n")
		}
		b.WriteString(m.helpStyle.Render("tab: next field • enter: submit • esc: quit"))
		if m.err != nil {
			b.WriteString("\n\n")
			b.WriteString(m.failStyle.Render("error: " + m.err.Error()))
		}

	case phaseSubmitting:
		b.WriteString(fmt.Sprintf("%s uploading document...", m.spinner.View()))

	case phasePolling:
		b.WriteString(fmt.Sprintf("%s processing task %s", m.spinner.View(), m.taskID))
		if m.trace != nil {
			b.WriteString(m.helpStyle.Render(fmt.Sprintf("  status: %s", m.trace.Status)))
		}

	case phaseDone:
		if m.trace.Status == "completed" {
			b.WriteString(m.okStyle.Render(
				fmt.Sprintf("done: %d chunks stored for document %s", m.trace.ChunkCount, m.trace.DocumentID)))
		} else {
			b.WriteString(m.failStyle.Render("failed: " + m.trace.FailReason))
		}
		b.WriteString("\n\n")
		b.WriteString(m.helpStyle.Render("enter: quit"))
	}

	b.WriteString("\n")
	return b.String()
}
