package cli

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/smap/smap/internal/pack"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <pack>",
	Short: "Interactively browse a pack's table of contents",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

const previewByteLimit = 4096

var (
	inspectTitleStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	inspectPaneStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// pathItem adapts a logical path string to bubbles/list's Item interface.
type pathItem string

func (p pathItem) Title() string       { return string(p) }
func (p pathItem) Description() string { return "" }
func (p pathItem) FilterValue() string { return string(p) }

type inspectModel struct {
	reader  *pack.Reader
	list    list.Model
	preview string
	width   int
	height  int
}

func newInspectModel(reader *pack.Reader) inspectModel {
	paths := reader.Paths()
	sort.Strings(paths)

	items := make([]list.Item, len(paths))
	for i, p := range paths {
		items[i] = pathItem(p)
	}

	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "entries"
	l.SetShowHelp(true)

	m := inspectModel{reader: reader, list: l}
	m.loadPreview()
	return m
}

func (m inspectModel) Init() tea.Cmd {
	return nil
}

func (m *inspectModel) loadPreview() {
	item, ok := m.list.SelectedItem().(pathItem)
	if !ok {
		m.preview = ""
		return
	}

	r, err := m.reader.GetFileReader(string(item))
	if err != nil {
		m.preview = fmt.Sprintf("error: %v", err)
		return
	}

	buf := make([]byte, previewByteLimit)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		m.preview = fmt.Sprintf("error: %v", err)
		return
	}
	m.preview = string(buf[:n])
}

func (m inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		listWidth := m.width / 2
		m.list.SetSize(listWidth, m.height-2)
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	prevIndex := m.list.Index()
	m.list, cmd = m.list.Update(msg)
	if m.list.Index() != prevIndex {
		m.loadPreview()
	}
	return m, cmd
}

func (m inspectModel) View() string {
	listView := inspectPaneStyle.Render(m.list.View())
	previewView := inspectPaneStyle.Width(m.width - lipgloss.Width(listView) - 4).Render(
		inspectTitleStyle.Render("preview") + "\n" + m.preview,
	)
	return lipgloss.JoinHorizontal(lipgloss.Top, listView, previewView)
}

func runInspect(cmd *cobra.Command, args []string) error {
	packPath := args[0]

	f, err := os.Open(packPath)
	if err != nil {
		return err
	}
	defer f.Close()

	reader, err := pack.Open(cmd.Context(), f, verifyOpts()...)
	if err != nil {
		return err
	}

	program := tea.NewProgram(newInspectModel(reader), tea.WithAltScreen())
	_, err = program.Run()
	return err
}
