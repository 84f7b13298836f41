package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/kamal-hamza/pictag/internal/core/domain"
	"github.com/kamal-hamza/pictag/internal/core/services"
	"github.com/kamal-hamza/pictag/pkg/ui"
)

var browseNoRefresh bool

// browseCmd represents the browse command
var browseCmd = &cobra.Command{
	Use:     "browse",
	Aliases: []string{"ui"},
	Short:   "Browse images by tag interactively",
	Long: `Launch a full-screen browser for the catalog.

The left pane lists every tag with its usage count. Toggle tags to filter
the image list on the right; an image is shown when it carries any of the
selected tags. Selecting nothing shows every image.

Keyboard Shortcuts:
  Navigation:
    ↑/k  ↓/j    Move
    g / G       Top / bottom
    Tab         Switch between tags and images

  Tags pane:
    Space/Enter Toggle tag
    c           Clear selection
    /           Filter the tag list

  Images pane:
    e           Edit tags
    Enter/o     Open image
    y           Copy path

  General:
    r           Rescan for new images
    ?           Help
    q           Quit`,
	RunE: runBrowse,
}

func init() {
	browseCmd.Flags().BoolVar(&browseNoRefresh, "no-refresh", false, "Skip scanning for new images on start")
}

func runBrowse(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	m, err := newBrowseModel(ctx, catalogService, !browseNoRefresh)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running browser: %w", err)
	}

	return nil
}

type browsePane int

const (
	paneTags browsePane = iota
	paneAssets
)

type browseMode int

const (
	browseNormal browseMode = iota
	browseEdit
	browseFilter
	browseHelp
)

type (
	statusMsg struct {
		message string
		style   lipgloss.Style
	}
	clearMessageMsg struct{}
	refreshDoneMsg  struct {
		added int
		err   error
	}
	tagsSavedMsg struct {
		relPath string
		changed bool
		err     error
	}
)

type browseKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Top     key.Binding
	Bottom  key.Binding
	Switch  key.Binding
	Toggle  key.Binding
	Clear   key.Binding
	Filter  key.Binding
	Edit    key.Binding
	Open    key.Binding
	Copy    key.Binding
	Refresh key.Binding
	Help    key.Binding
	Quit    key.Binding
	Escape  key.Binding
	Save    key.Binding
}

func (k browseKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Switch, k.Toggle, k.Edit, k.Open, k.Help, k.Quit}
}

func (k browseKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom, k.Switch},
		{k.Toggle, k.Clear, k.Filter},
		{k.Edit, k.Open, k.Copy},
		{k.Refresh, k.Help, k.Escape, k.Quit},
	}
}

var browseKeys = browseKeyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Top:     key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "top")),
	Bottom:  key.NewBinding(key.WithKeys("G"), key.WithHelp("G", "bottom")),
	Switch:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch pane")),
	Toggle:  key.NewBinding(key.WithKeys(" ", "enter"), key.WithHelp("space", "toggle tag")),
	Clear:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear tags")),
	Filter:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter tags")),
	Edit:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit tags")),
	Open:    key.NewBinding(key.WithKeys("enter", "o"), key.WithHelp("enter/o", "open")),
	Copy:    key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy path")),
	Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rescan")),
	Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Escape:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	Save:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")),
}

// browseModel is the tag browser. All catalog reads and writes go through svc.
type browseModel struct {
	ctx context.Context
	svc *services.CatalogService

	allTags   []string
	tags      []string // allTags narrowed by the tag filter
	counts    map[string]int
	selected  map[string]bool
	tagCursor int
	tagOffset int

	records []domain.AssetRecord
	total   int
	cursor  int
	offset  int

	pane        browsePane
	mode        browseMode
	tagInput    textinput.Model
	filterInput textinput.Model
	editTarget  string
	help        help.Model
	keys        browseKeyMap

	width         int
	height        int
	ready         bool
	refreshOnInit bool
	loading       bool
	message       string
	messageStyle  lipgloss.Style
	messageExpiry time.Time
}

func newBrowseModel(ctx context.Context, svc *services.CatalogService, refreshOnInit bool) (browseModel, error) {
	ti := textinput.New()
	ti.Placeholder = "tag1;tag2"
	ti.Prompt = "Tags: "
	ti.CharLimit = 500

	fi := textinput.New()
	fi.Placeholder = "filter tags..."
	fi.Prompt = "/"
	fi.CharLimit = 100

	m := browseModel{
		ctx:           ctx,
		svc:           svc,
		selected:      make(map[string]bool),
		pane:          paneTags,
		mode:          browseNormal,
		tagInput:      ti,
		filterInput:   fi,
		help:          help.New(),
		keys:          browseKeys,
		refreshOnInit: refreshOnInit,
		loading:       refreshOnInit,
	}

	if err := m.reload(); err != nil {
		return m, err
	}
	return m, nil
}

func (m browseModel) Init() tea.Cmd {
	if m.refreshOnInit {
		return m.refreshCmd()
	}
	return nil
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.tagInput.Width = msg.Width - 10
		m.ready = true
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case browseEdit:
			return m.updateEdit(msg)
		case browseFilter:
			return m.updateFilter(msg)
		case browseHelp:
			return m.updateHelp(msg)
		default:
			return m.updateNormal(msg)
		}

	case refreshDoneMsg:
		m.loading = false
		if msg.err != nil {
			return m, m.status("Refresh failed: "+msg.err.Error(), ui.StyleError)
		}
		if err := m.reload(); err != nil {
			return m, m.status(err.Error(), ui.StyleError)
		}
		if msg.added > 0 {
			return m, m.status(fmt.Sprintf("Added %d new images", msg.added), ui.StyleSuccess)
		}
		return m, nil

	case tagsSavedMsg:
		if msg.err != nil {
			return m, m.status("Could not save tags: "+msg.err.Error(), ui.StyleError)
		}
		if !msg.changed {
			return m, m.status("No changes to tags.", ui.StyleMuted)
		}
		if err := m.reload(); err != nil {
			return m, m.status(err.Error(), ui.StyleError)
		}
		return m, m.status("Saved tags for "+msg.relPath, ui.StyleSuccess)

	case statusMsg:
		m.message = msg.message
		m.messageStyle = msg.style
		m.messageExpiry = time.Now().Add(3 * time.Second)
		return m, tea.Tick(3*time.Second, func(time.Time) tea.Msg { return clearMessageMsg{} })

	case clearMessageMsg:
		if time.Now().After(m.messageExpiry) {
			m.message = ""
		}
		return m, nil
	}

	return m, nil
}

func (m browseModel) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.mode = browseHelp

	case key.Matches(msg, m.keys.Switch):
		if m.pane == paneTags {
			m.pane = paneAssets
		} else {
			m.pane = paneTags
		}

	case key.Matches(msg, m.keys.Up):
		m.move(-1)

	case key.Matches(msg, m.keys.Down):
		m.move(1)

	case key.Matches(msg, m.keys.Top):
		m.move(-m.paneLen())

	case key.Matches(msg, m.keys.Bottom):
		m.move(m.paneLen())

	case key.Matches(msg, m.keys.Refresh):
		if !m.loading {
			m.loading = true
			return m, m.refreshCmd()
		}

	case m.pane == paneTags && key.Matches(msg, m.keys.Toggle):
		if len(m.tags) > 0 {
			tag := m.tags[m.tagCursor]
			if m.selected[tag] {
				delete(m.selected, tag)
			} else {
				m.selected[tag] = true
			}
			if err := m.applySelection(); err != nil {
				return m, m.status(err.Error(), ui.StyleError)
			}
		}

	case m.pane == paneTags && key.Matches(msg, m.keys.Clear):
		m.selected = make(map[string]bool)
		if err := m.applySelection(); err != nil {
			return m, m.status(err.Error(), ui.StyleError)
		}

	case m.pane == paneTags && key.Matches(msg, m.keys.Filter):
		m.mode = browseFilter
		m.filterInput.Focus()
		return m, textinput.Blink

	case m.pane == paneAssets && key.Matches(msg, m.keys.Edit):
		if r, ok := m.current(); ok {
			m.mode = browseEdit
			m.editTarget = r.RelativePath
			m.tagInput.SetValue(r.Tags.String())
			m.tagInput.CursorEnd()
			m.tagInput.Focus()
			return m, textinput.Blink
		}

	case m.pane == paneAssets && key.Matches(msg, m.keys.Open):
		if r, ok := m.current(); ok {
			return m, openAssetCmd(m.svc.AssetPath(r.RelativePath), imageViewer())
		}

	case m.pane == paneAssets && key.Matches(msg, m.keys.Copy):
		if r, ok := m.current(); ok {
			path := m.svc.AssetPath(r.RelativePath)
			if err := clipboard.WriteAll(path); err != nil {
				return m, m.status("Clipboard unavailable: "+err.Error(), ui.StyleWarning)
			}
			return m, m.status("Copied "+path, ui.StyleSuccess)
		}
	}

	return m, nil
}

func (m browseModel) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.mode = browseNormal
		m.tagInput.Blur()
		m.editTarget = ""
		return m, nil

	case key.Matches(msg, m.keys.Save):
		m.mode = browseNormal
		m.tagInput.Blur()
		target := m.editTarget
		m.editTarget = ""
		return m, m.saveTagsCmd(target, m.tagInput.Value())
	}

	var cmd tea.Cmd
	m.tagInput, cmd = m.tagInput.Update(msg)
	return m, cmd
}

func (m browseModel) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.mode = browseNormal
		m.filterInput.Blur()
		m.filterInput.SetValue("")
		m.applyTagFilter()
		return m, nil

	case msg.Type == tea.KeyEnter:
		m.mode = browseNormal
		m.filterInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	m.applyTagFilter()
	return m, cmd
}

func (m browseModel) updateHelp(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Help), key.Matches(msg, m.keys.Quit):
		m.mode = browseNormal
	}
	return m, nil
}

// reload pulls tags, counts and the current selection from the service
func (m *browseModel) reload() error {
	records, err := m.svc.Records(m.ctx)
	if err != nil {
		return err
	}

	stats := services.ComputeStats(records)
	m.counts = make(map[string]int, len(stats.Tags))
	for _, tc := range stats.Tags {
		m.counts[tc.Tag] = tc.Count
	}
	m.allTags = services.AllTags(records)

	// Drop selected tags that no longer exist
	for tag := range m.selected {
		if _, ok := m.counts[tag]; !ok {
			delete(m.selected, tag)
		}
	}

	m.applyTagFilter()
	return m.applySelection()
}

func (m *browseModel) applySelection() error {
	records, err := m.svc.Query(m.ctx, m.selectedTags())
	if err != nil {
		return err
	}
	m.records = records
	m.total = len(records)
	m.cursor = clamp(m.cursor, len(m.records))
	m.offset = 0
	m.adjustOffsets()
	return nil
}

// applyTagFilter narrows the visible tag list; it never changes the selection
func (m *browseModel) applyTagFilter() {
	needle := strings.ToLower(strings.TrimSpace(m.filterInput.Value()))
	if needle == "" {
		m.tags = m.allTags
	} else {
		m.tags = nil
		for _, t := range m.allTags {
			if strings.Contains(strings.ToLower(t), needle) {
				m.tags = append(m.tags, t)
			}
		}
	}
	m.tagCursor = clamp(m.tagCursor, len(m.tags))
	m.tagOffset = 0
	m.adjustOffsets()
}

func (m browseModel) selectedTags() []string {
	out := make([]string, 0, len(m.selected))
	for t := range m.selected {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func (m browseModel) current() (domain.AssetRecord, bool) {
	if len(m.records) == 0 {
		return domain.AssetRecord{}, false
	}
	return m.records[m.cursor], true
}

func (m browseModel) paneLen() int {
	if m.pane == paneTags {
		return len(m.tags)
	}
	return len(m.records)
}

func (m *browseModel) move(delta int) {
	if m.pane == paneTags {
		m.tagCursor = clamp(m.tagCursor+delta, len(m.tags))
	} else {
		m.cursor = clamp(m.cursor+delta, len(m.records))
	}
	m.adjustOffsets()
}

func (m browseModel) listHeight() int {
	h := m.height - 9
	if h < 3 {
		h = 3
	}
	return h
}

func (m *browseModel) adjustOffsets() {
	h := m.listHeight()
	m.offset = scrollOffset(m.cursor, m.offset, h)
	m.tagOffset = scrollOffset(m.tagCursor, m.tagOffset, h)
}

func scrollOffset(cursor, offset, height int) int {
	if cursor < offset {
		return cursor
	}
	if cursor >= offset+height {
		return cursor - height + 1
	}
	return offset
}

func clamp(i, n int) int {
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

func (m browseModel) status(message string, style lipgloss.Style) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{message: message, style: style}
	}
}

func (m browseModel) refreshCmd() tea.Cmd {
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		resp, err := svc.Refresh(ctx)
		if err != nil {
			return refreshDoneMsg{err: err}
		}
		return refreshDoneMsg{added: resp.Added}
	}
}

func (m browseModel) saveTagsCmd(relPath, text string) tea.Cmd {
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		changed, err := svc.UpdateTags(ctx, relPath, text)
		return tagsSavedMsg{relPath: relPath, changed: changed, err: err}
	}
}

func openAssetCmd(path, viewer string) tea.Cmd {
	return func() tea.Msg {
		if err := OpenFile(path, viewer); err != nil {
			return statusMsg{message: err.Error(), style: ui.StyleError}
		}
		return statusMsg{message: "Opened " + filepath.Base(path), style: ui.StyleSuccess}
	}
}

func imageViewer() string {
	if appConfig != nil {
		return appConfig.ImageViewer
	}
	return ""
}

// -----------------------------------------------------------------------------
// View
// -----------------------------------------------------------------------------

func (m browseModel) View() string {
	if !m.ready {
		return "\n  Loading catalog..."
	}

	if m.mode == browseHelp {
		return m.viewHelp()
	}

	tagWidth := m.width / 3
	if tagWidth < 24 {
		tagWidth = 24
	}
	assetWidth := m.width - tagWidth - 3
	if assetWidth < 20 {
		assetWidth = 20
	}

	body := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.renderPane("Tags", m.renderTags(tagWidth-4), tagWidth, m.pane == paneTags),
		" ",
		m.renderPane("Images", m.renderAssets(assetWidth-4), assetWidth, m.pane == paneAssets),
	)

	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), body, m.renderFooter())
}

func (m browseModel) renderHeader() string {
	title := ui.StyleTitle.Render(ui.IconImage + " pictag")

	var filter string
	if sel := m.selectedTags(); len(sel) > 0 {
		filter = "any of: " + strings.Join(sel, ", ")
	} else {
		filter = "all images"
	}

	info := ui.StyleMuted.Render(fmt.Sprintf("  %d shown · %s", m.total, filter))
	if m.loading {
		info += ui.StyleInfo.Render("  scanning...")
	}
	return title + info + "\n"
}

func (m browseModel) renderPane(title, content string, width int, focused bool) string {
	border := ui.ColorMuted
	if focused {
		border = ui.ColorPrimary
	}
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Width(width - 2).
		Height(m.listHeight() + 1)

	return style.Render(ui.StyleHeader.Render(title) + "\n" + content)
}

func (m browseModel) renderTags(width int) string {
	if len(m.tags) == 0 {
		if m.filterInput.Value() != "" {
			return ui.StyleSubtle.Render("No tags match the filter.")
		}
		return ui.StyleSubtle.Render("No tags yet.")
	}

	var s strings.Builder
	end := m.tagOffset + m.listHeight()
	if end > len(m.tags) {
		end = len(m.tags)
	}

	line := lipgloss.NewStyle().MaxWidth(width)
	for i := m.tagOffset; i < end; i++ {
		tag := m.tags[i]

		cursor := "  "
		if m.pane == paneTags && i == m.tagCursor {
			cursor = ui.StylePrimary.Render("▶ ")
		}
		box := "[ ]"
		name := tag
		if m.selected[tag] {
			box = ui.StyleSuccess.Render("[x]")
			name = ui.StyleBold.Render(tag)
		}

		s.WriteString(line.Render(fmt.Sprintf("%s%s %s %s", cursor, box, name, ui.StyleMuted.Render(fmt.Sprintf("(%d)", m.counts[tag])))))
		s.WriteString("\n")
	}

	if m.mode == browseFilter || m.filterInput.Value() != "" {
		s.WriteString(m.filterInput.View())
	}
	return s.String()
}

func (m browseModel) renderAssets(width int) string {
	if len(m.records) == 0 {
		if len(m.selected) > 0 {
			return ui.StyleSubtle.Render("No images carry the selected tags.")
		}
		return ui.StyleSubtle.Render("No images found.")
	}

	var s strings.Builder
	end := m.offset + m.listHeight()
	if end > len(m.records) {
		end = len(m.records)
	}

	line := lipgloss.NewStyle().MaxWidth(width)
	for i := m.offset; i < end; i++ {
		r := m.records[i]

		cursor := "  "
		path := r.RelativePath
		if m.pane == paneAssets && i == m.cursor {
			cursor = ui.StylePrimary.Render("▶ ")
			path = ui.StylePrimary.Render(path)
		}

		s.WriteString(line.Render(fmt.Sprintf("%s%s  %s", cursor, path, ui.FormatTags(r.Tags, r.IsManual()))))
		s.WriteString("\n")
	}
	return s.String()
}

func (m browseModel) renderFooter() string {
	var lines []string

	if m.mode == browseEdit {
		lines = append(lines, ui.StyleMuted.Render("Editing "+m.editTarget+" (enter to save, esc to cancel)"))
		lines = append(lines, m.tagInput.View())
	}

	if m.message != "" && time.Now().Before(m.messageExpiry) {
		lines = append(lines, m.messageStyle.Render(m.message))
	} else {
		lines = append(lines, ui.StyleMuted.Render("Ready"))
	}
	lines = append(lines, m.help.View(m.keys))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m browseModel) viewHelp() string {
	helpStyle := lipgloss.NewStyle().Padding(1, 2)

	var s strings.Builder
	s.WriteString(ui.StyleTitle.Render("Keyboard Shortcuts"))
	s.WriteString("\n\n")
	s.WriteString(m.help.FullHelpView(m.keys.FullHelp()))
	s.WriteString("\n\n")
	s.WriteString(ui.StyleMuted.Render("Tags are matched as whole tokens; an image is shown when it has any selected tag."))
	s.WriteString("\n")
	s.WriteString(ui.StyleMuted.Render("Press esc or ? to return"))

	return helpStyle.Render(s.String())
}
