// Copyright 2026 The Boundbook Authors
// SPDX-License-Identifier: Apache-2.0

package bookui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/boundbook/boundbook/lib/bbf"
)

// Tab identifies which data view is active.
type Tab int

const (
	// TabPages shows the reading sequence with per-page asset facts.
	TabPages Tab = iota
	// TabSections shows the section forest.
	TabSections
	// TabMetadata shows book-level and section-scoped metadata.
	TabMetadata

	tabCount
)

func (t Tab) String() string {
	switch t {
	case TabPages:
		return "Pages"
	case TabSections:
		return "Sections"
	case TabMetadata:
		return "Metadata"
	}
	return "?"
}

// keyMap binds the browser's keys.
type keyMap struct {
	Quit       key.Binding
	NextTab    key.Binding
	PrevTab    key.Binding
	Up         key.Binding
	Down       key.Binding
	Top        key.Binding
	Bottom     key.Binding
	Verify     key.Binding
	VerifyFull key.Binding
	Goto       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		NextTab:    key.NewBinding(key.WithKeys("tab", "right", "l"), key.WithHelp("tab", "next view")),
		PrevTab:    key.NewBinding(key.WithKeys("shift+tab", "left", "h"), key.WithHelp("shift+tab", "previous view")),
		Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("k", "up")),
		Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("j", "down")),
		Top:        key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
		Bottom:     key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
		Verify:     key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "verify page")),
		VerifyFull: key.NewBinding(key.WithKeys("V"), key.WithHelp("V", "verify file")),
		Goto:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "go to section page")),
	}
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	tabStyle      = lipgloss.NewStyle().Faint(true)
	activeTab     = lipgloss.NewStyle().Bold(true).Underline(true)
	selectedStyle = lipgloss.NewStyle().Reverse(true)
	faintStyle    = lipgloss.NewStyle().Faint(true)
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

// sectionRow is one rendered line of the flattened section forest.
type sectionRow struct {
	depth int
	node  *bbf.SectionNode
}

// Model is the bubbletea model for the book browser.
type Model struct {
	reader *bbf.Reader
	title  string

	tab    Tab
	cursor [tabCount]int
	width  int
	height int

	sectionRows []sectionRow
	metaRows    []string

	// verdicts[assetIndex] holds the result of the last VerifyAsset
	// call for that asset; absence means not yet checked.
	verdicts map[uint32]error

	notice   string
	quitting bool
	keys     keyMap
}

// New builds a browser over an open reader. The title is shown in
// the header; pass the file name or the book's Title metadata.
func New(reader *bbf.Reader, title string) Model {
	m := Model{
		reader:   reader,
		title:    title,
		verdicts: make(map[uint32]error),
		keys:     defaultKeyMap(),
		width:    80,
		height:   24,
	}
	m.sectionRows = flattenSections(reader.Sections())
	m.metaRows = metadataRows(reader)
	return m
}

func flattenSections(roots []*bbf.SectionNode) []sectionRow {
	var rows []sectionRow
	var walk func(node *bbf.SectionNode, depth int)
	walk = func(node *bbf.SectionNode, depth int) {
		rows = append(rows, sectionRow{depth: depth, node: node})
		for _, child := range node.Children {
			walk(child, depth+1)
		}
	}
	for _, root := range roots {
		walk(root, 0)
	}
	return rows
}

func metadataRows(reader *bbf.Reader) []string {
	var rows []string
	book, err := reader.Metadata("")
	if err == nil {
		for _, entry := range book {
			rows = append(rows, fmt.Sprintf("%s: %s", entry.Key, entry.Value))
		}
	}
	var walk func(node *bbf.SectionNode, path string)
	walk = func(node *bbf.SectionNode, path string) {
		full := node.Name
		if path != "" {
			full = path + "/" + node.Name
		}
		for _, entry := range node.Metadata {
			rows = append(rows, fmt.Sprintf("[%s] %s: %s", full, entry.Key, entry.Value))
		}
		for _, child := range node.Children {
			walk(child, full)
		}
	}
	for _, root := range reader.Sections() {
		walk(root, "")
	}
	return rows
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// rowCount returns the number of rows in the active view.
func (m Model) rowCount() int {
	switch m.tab {
	case TabPages:
		return m.reader.PageCount()
	case TabSections:
		return len(m.sectionRows)
	case TabMetadata:
		return len(m.metaRows)
	}
	return 0
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.NextTab):
			m.tab = (m.tab + 1) % tabCount
			m.notice = ""
		case key.Matches(msg, m.keys.PrevTab):
			m.tab = (m.tab + tabCount - 1) % tabCount
			m.notice = ""
		case key.Matches(msg, m.keys.Down):
			m.moveCursor(1)
		case key.Matches(msg, m.keys.Up):
			m.moveCursor(-1)
		case key.Matches(msg, m.keys.Top):
			m.cursor[m.tab] = 0
		case key.Matches(msg, m.keys.Bottom):
			if n := m.rowCount(); n > 0 {
				m.cursor[m.tab] = n - 1
			}
		case key.Matches(msg, m.keys.Verify):
			m.verifyCurrent()
		case key.Matches(msg, m.keys.VerifyFull):
			if err := m.reader.VerifyFull(); err != nil {
				m.notice = failStyle.Render("file verification FAILED: " + err.Error())
			} else {
				m.notice = okStyle.Render("file verified")
			}
		case key.Matches(msg, m.keys.Goto):
			m.gotoSectionPage()
		}
	}
	return m, nil
}

func (m *Model) moveCursor(delta int) {
	n := m.rowCount()
	if n == 0 {
		return
	}
	c := m.cursor[m.tab] + delta
	if c < 0 {
		c = 0
	}
	if c >= n {
		c = n - 1
	}
	m.cursor[m.tab] = c
}

// verifyCurrent checks the asset under the cursor on the pages tab.
func (m *Model) verifyCurrent() {
	if m.tab != TabPages || m.reader.PageCount() == 0 {
		return
	}
	page := m.cursor[TabPages]
	assetIndex, err := m.reader.PageAsset(page)
	if err != nil {
		m.notice = failStyle.Render(err.Error())
		return
	}
	verdict := m.reader.VerifyAsset(int(assetIndex))
	m.verdicts[assetIndex] = verdict
	if verdict != nil {
		m.notice = failStyle.Render(fmt.Sprintf("page %d FAILED: %v", page, verdict))
	} else {
		m.notice = okStyle.Render(fmt.Sprintf("page %d verified", page))
	}
}

// gotoSectionPage jumps the pages view to the selected section's
// target.
func (m *Model) gotoSectionPage() {
	if m.tab != TabSections || len(m.sectionRows) == 0 {
		return
	}
	row := m.sectionRows[m.cursor[TabSections]]
	m.cursor[TabPages] = int(row.node.Page)
	m.tab = TabPages
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString(faintStyle.Render(fmt.Sprintf("  %d pages · %d assets · %d sections",
		m.reader.PageCount(), m.reader.AssetCount(), m.reader.SectionCount())))
	b.WriteString("\n")

	for t := Tab(0); t < tabCount; t++ {
		label := " " + t.String() + " "
		if t == m.tab {
			b.WriteString(activeTab.Render(label))
		} else {
			b.WriteString(tabStyle.Render(label))
		}
	}
	b.WriteString("\n\n")

	body := m.bodyRows()
	top, bottom := m.window(len(body))
	for i := top; i < bottom; i++ {
		line := body[i]
		if i == m.cursor[m.tab] {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if len(body) == 0 {
		b.WriteString(faintStyle.Render("(empty)"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.notice != "" {
		b.WriteString(m.notice)
		b.WriteString("\n")
	}
	b.WriteString(faintStyle.Render("j/k move · tab switch · v verify page · V verify file · enter go to section · q quit"))
	return b.String()
}

// window clips the body to the visible height around the cursor.
func (m Model) window(rows int) (int, int) {
	visible := m.height - 7
	if visible < 3 {
		visible = 3
	}
	if rows <= visible {
		return 0, rows
	}
	top := m.cursor[m.tab] - visible/2
	if top < 0 {
		top = 0
	}
	if top+visible > rows {
		top = rows - visible
	}
	return top, top + visible
}

func (m Model) bodyRows() []string {
	switch m.tab {
	case TabPages:
		rows := make([]string, 0, m.reader.PageCount())
		for page := range m.reader.PageCount() {
			rows = append(rows, m.pageRow(page))
		}
		return rows
	case TabSections:
		rows := make([]string, 0, len(m.sectionRows))
		for _, row := range m.sectionRows {
			indent := strings.Repeat("  ", row.depth)
			rows = append(rows, fmt.Sprintf("%s%s → page %d", indent, row.node.Name, row.node.Page))
		}
		return rows
	case TabMetadata:
		return m.metaRows
	}
	return nil
}

func (m Model) pageRow(page int) string {
	assetIndex, err := m.reader.PageAsset(page)
	if err != nil {
		return fmt.Sprintf("page %4d  <%v>", page, err)
	}
	info, err := m.reader.Asset(int(assetIndex))
	if err != nil {
		return fmt.Sprintf("page %4d  <%v>", page, err)
	}

	verdict := "  "
	if checked, ok := m.verdicts[assetIndex]; ok {
		if checked == nil {
			verdict = okStyle.Render("ok")
		} else {
			verdict = failStyle.Render("BAD")
		}
	}
	return fmt.Sprintf("page %4d  asset %4d  %-12s %10s  %s… %s",
		page, assetIndex, info.ContentType, formatBytes(info.Length),
		bbf.FormatDigest(info.ContentHash)[:8], verdict)
}

// formatBytes renders a byte count with a binary unit suffix.
func formatBytes(n uint64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}
