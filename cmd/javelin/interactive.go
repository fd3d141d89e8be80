package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/javelin-rt/javelin/classfile"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	methodStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	descStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	okStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type browserModel struct {
	err       error
	cf        *classfile.ClassFile
	filename  string
	className string
	methods   []methodEntry
	view      viewport.Model
	selected  int
	width     int
	height    int
	state     browserState
}

type methodEntry struct {
	name       string
	descriptor string
	flags      string
	codeSize   int
}

type browserState int

const (
	stateSelectMethod browserState = iota
	stateViewMethod
	stateViewPool
	stateViewVerify
)

type classLoadedMsg struct {
	err       error
	cf        *classfile.ClassFile
	className string
	methods   []methodEntry
}

func newBrowserModel(filename string) *browserModel {
	return &browserModel{
		filename: filename,
		view:     viewport.New(80, 24),
		width:    80,
		height:   24,
		state:    stateSelectMethod,
	}
}

func (m *browserModel) Init() tea.Cmd {
	return m.loadClass
}

func (m *browserModel) loadClass() tea.Msg {
	data, err := os.ReadFile(m.filename)
	if err != nil {
		return classLoadedMsg{err: err}
	}

	cf, err := classfile.ParseClass(data)
	if err != nil {
		return classLoadedMsg{err: err}
	}

	className, err := cf.ClassName()
	if err != nil {
		className = fmt.Sprintf("#%d", cf.ThisClass)
	}

	methods := make([]methodEntry, 0, len(cf.Methods))
	for _, method := range cf.Methods {
		entry := methodEntry{
			name:       fmt.Sprintf("#%d", method.NameIndex),
			descriptor: fmt.Sprintf("#%d", method.DescriptorIndex),
			flags:      classfile.FormatMethodFlags(method.AccessFlags),
		}
		if name, err := method.Name(cf.ConstantPool); err == nil {
			entry.name = name
		}
		if desc, err := method.Descriptor(cf.ConstantPool); err == nil {
			entry.descriptor = desc
		}
		if code := method.Code(); code != nil {
			entry.codeSize = len(code.Code)
		}
		methods = append(methods, entry)
	}

	return classLoadedMsg{cf: cf, className: className, methods: methods}
}

func (m *browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			if m.state == stateSelectMethod && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectMethod && m.selected < len(m.methods)-1 {
				m.selected++
			}

		case "enter":
			if m.state == stateSelectMethod && len(m.methods) > 0 {
				m.view.SetContent(classfile.DisassembleMethod(m.cf, m.cf.Methods[m.selected]))
				m.view.GotoTop()
				m.state = stateViewMethod
			}

		case "p":
			if m.state == stateSelectMethod && m.cf != nil {
				m.view.SetContent(m.poolListing())
				m.view.GotoTop()
				m.state = stateViewPool
			}

		case "v":
			if m.state == stateSelectMethod && m.cf != nil {
				report, clean := verifyReport(m.cf)
				if clean {
					report = okStyle.Render("verification passed") + "\n\n" + report
				} else {
					report = errorStyle.Render("verification failed") + "\n\n" + report
				}
				m.view.SetContent(report)
				m.view.GotoTop()
				m.state = stateViewVerify
			}

		case "esc":
			if m.state != stateSelectMethod {
				m.state = stateSelectMethod
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.view.Width = msg.Width
		m.view.Height = msg.Height - 4

	case classLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.cf = msg.cf
		m.className = msg.className
		m.methods = msg.methods
	}

	if m.state != stateSelectMethod {
		var cmd tea.Cmd
		m.view, cmd = m.view.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *browserModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	if m.cf == nil {
		return "Loading class file..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Javelin"))
	b.WriteString(" ")
	b.WriteString(m.className)
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectMethod:
		b.WriteString("Select a method:\n\n")
		for i, entry := range m.methods {
			line := m.formatMethod(entry)
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter disassemble • p pool • v verify • q quit"))

	case stateViewMethod, stateViewPool, stateViewVerify:
		b.WriteString(m.view.View())
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ scroll • esc back • q quit"))
	}

	return b.String()
}

func (m *browserModel) poolListing() string {
	cp := m.cf.ConstantPool
	var b strings.Builder
	fmt.Fprintf(&b, "Constant pool (%d slots):\n\n", cp.Count())
	for i := 1; i <= cp.Count(); i++ {
		if cp.Entry(uint16(i)) == nil {
			continue
		}
		fmt.Fprintf(&b, "  #%d = %s\n", i, classfile.DescribeConstant(cp, uint16(i)))
	}
	return b.String()
}

func (m *browserModel) formatMethod(entry methodEntry) string {
	size := ""
	if entry.codeSize > 0 {
		size = fmt.Sprintf(" (%d bytes)", entry.codeSize)
	}
	return methodStyle.Render(entry.name) + descStyle.Render(entry.descriptor) + size
}

func runInteractive(filename string) error {
	p := tea.NewProgram(newBrowserModel(filename), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
