package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	cliapi "abc-dashboard/internal/cli"
	"abc-dashboard/internal/handlers"
	"abc-dashboard/internal/query"
	"abc-dashboard/internal/records"
)

// KeyMap represents the key bindings for the interactive table
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	NextPage key.Binding
	PrevPage key.Binding
	PageSize key.Binding
	Reload   key.Binding
	Details  key.Binding
	Help     key.Binding
	Quit     key.Binding
	Close    key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("n", "right", "l"),
			key.WithHelp("n/→", "next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("p", "left", "h"),
			key.WithHelp("p/←", "previous page"),
		),
		PageSize: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "page size"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		Details: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "details"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Close: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close"),
		),
	}
}

// dogPager loads one page of the dog table
type dogPager interface {
	GetDogs(q cliapi.DogQuery) (*handlers.DogsResponse, error)
}

var dogColumns = []struct {
	title string
	width int
}{
	{"ID", 6},
	{"DISTRICT", 20},
	{"ULB", 16},
	{"WARD", 6},
	{"GENDER", 8},
	{"CAUGHT", 10},
	{"SURGERY", 10},
	{"RELEASED", 10},
	{"STATUS", 10},
}

// InteractiveTable browses the dog table a page at a time
type InteractiveTable struct {
	table       table.Model
	page        *handlers.DogsResponse
	pager       dogPager
	filter      cliapi.DogQuery
	view        *query.ViewState
	keys        KeyMap
	loading     bool
	spinner     spinner.Model
	err         error
	message     string
	showHelp    bool
	showDetails bool
	quitting    bool
	useColor    bool
	interval    time.Duration
}

// NewInteractiveTable creates the table from an already loaded first
// page. A positive interval reloads the current page on a timer.
func NewInteractiveTable(first *handlers.DogsResponse, pager dogPager, filter cliapi.DogQuery, interval time.Duration, cfg *cliapi.Config) *InteractiveTable {
	columns := make([]table.Column, len(dogColumns))
	for i, c := range dogColumns {
		columns[i] = table.Column{Title: c.title, Width: c.width}
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	// Create spinner
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	// Determine if colors should be used
	useColor := !cfg.NoColor && isatty.IsTerminal(os.Stdout.Fd())

	// Apply styling
	if useColor {
		s := table.DefaultStyles()
		s.Header = s.Header.
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			BorderBottom(true).
			Bold(false)
		s.Selected = s.Selected.
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57")).
			Bold(false)
		t.SetStyles(s)
	}

	view := query.NewViewState(nil)
	if first.PageSize > 0 {
		view.SetPageSize(first.PageSize)
	}
	view.SetPage(first.Page, first.TotalItems)

	m := &InteractiveTable{
		table:    t,
		pager:    pager,
		filter:   filter,
		view:     view,
		keys:     DefaultKeyMap(),
		spinner:  s,
		useColor: useColor,
		interval: interval,
	}
	m.setPage(first)
	return m
}

// pageLoadedMsg is sent when a page fetch completes
type pageLoadedMsg struct {
	page *handlers.DogsResponse
	err  error
	auto bool
}

// autoRefreshMsg fires on the refresh interval
type autoRefreshMsg time.Time

// Init initializes the interactive table
func (m InteractiveTable) Init() tea.Cmd {
	return m.scheduleRefresh()
}

func (m InteractiveTable) scheduleRefresh() tea.Cmd {
	if m.interval <= 0 {
		return nil
	}
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return autoRefreshMsg(t)
	})
}

// Update handles messages and updates the model
func (m InteractiveTable) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.showDetails {
			switch {
			case key.Matches(msg, m.keys.Close), key.Matches(msg, m.keys.Details), key.Matches(msg, m.keys.Quit):
				m.showDetails = false
			}
			return m, nil
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
			return m, nil

		case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
			m.table, cmd = m.table.Update(msg)
			return m, cmd

		case key.Matches(msg, m.keys.NextPage):
			before := m.view.Page()
			m.view.NextPage(m.totalItems())
			if m.view.Page() == before {
				m.message = "Already on the last page"
				m.err = nil
				return m, nil
			}
			return m.load(false)

		case key.Matches(msg, m.keys.PrevPage):
			before := m.view.Page()
			m.view.PrevPage(m.totalItems())
			if m.view.Page() == before {
				m.message = "Already on the first page"
				m.err = nil
				return m, nil
			}
			return m.load(false)

		case key.Matches(msg, m.keys.PageSize):
			m.view.CyclePageSize()
			return m.load(false)

		case key.Matches(msg, m.keys.Reload):
			return m.load(false)

		case key.Matches(msg, m.keys.Details):
			if m.selected() != nil {
				m.showDetails = true
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.table.SetWidth(msg.Width)
		return m, nil

	case autoRefreshMsg:
		next := m.scheduleRefresh()
		if m.loading {
			return m, next
		}
		m.loading = true
		return m, tea.Batch(next, m.fetch(true))

	case pageLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.message = fmt.Sprintf("Error loading dogs: %v", msg.err)
			return m, nil
		}
		m.err = nil
		m.message = ""
		if msg.auto && m.page != nil && msg.page.Version != m.page.Version {
			m.message = fmt.Sprintf("Updated to data version %d", msg.page.Version)
		}
		m.setPage(msg.page)
		return m, nil

	case spinner.TickMsg:
		if m.loading {
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

// load fetches the page the view state points at
func (m InteractiveTable) load(auto bool) (InteractiveTable, tea.Cmd) {
	m.loading = true
	m.message = ""
	m.err = nil
	return m, tea.Batch(m.spinner.Tick, m.fetch(auto))
}

func (m InteractiveTable) fetch(auto bool) tea.Cmd {
	q := m.filter
	q.Page = m.view.Page()
	q.PageSize = m.view.PageSize()
	pager := m.pager
	return func() tea.Msg {
		page, err := pager.GetDogs(q)
		return pageLoadedMsg{page: page, err: err, auto: auto}
	}
}

// setPage replaces the rows with a freshly loaded page
func (m *InteractiveTable) setPage(page *handlers.DogsResponse) {
	m.page = page
	m.view.SetPage(page.Page, page.TotalItems)

	rows := make([]table.Row, len(page.Items))
	for i, row := range page.Items {
		rows[i] = dogToRow(row.AnimalRecord)
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(0, len(rows)-1))
	}
}

func (m InteractiveTable) totalItems() int {
	if m.page == nil {
		return 0
	}
	return m.page.TotalItems
}

func (m InteractiveTable) selected() *handlers.DogRow {
	if m.page == nil {
		return nil
	}
	i := m.table.Cursor()
	if i < 0 || i >= len(m.page.Items) {
		return nil
	}
	return &m.page.Items[i]
}

// View renders the interactive table
func (m InteractiveTable) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	var b strings.Builder

	if m.showHelp {
		b.WriteString(m.helpView())
		b.WriteString("\n")
	}

	if m.loading {
		b.WriteString(fmt.Sprintf("%s Loading...\n", m.spinner.View()))
	}

	if m.showDetails {
		b.WriteString(m.detailsView())
	} else {
		b.WriteString(m.table.View())
	}
	b.WriteString("\n")

	if m.message != "" {
		color := lipgloss.Color("82")
		if m.err != nil {
			color = lipgloss.Color("196")
		}
		b.WriteString(m.render(lipgloss.NewStyle().Foreground(color), m.message))
		b.WriteString("\n")
	}

	b.WriteString(m.statusLine())
	return b.String()
}

func (m InteractiveTable) render(style lipgloss.Style, s string) string {
	if !m.useColor {
		return s
	}
	return style.Render(s)
}

// helpView returns the help view
func (m InteractiveTable) helpView() string {
	help := strings.Builder{}
	help.WriteString("Help:\n")
	help.WriteString("  ↑/k         - Move up\n")
	help.WriteString("  ↓/j         - Move down\n")
	help.WriteString("  n/→         - Next page\n")
	help.WriteString("  p/←         - Previous page\n")
	help.WriteString("  s           - Cycle page size (5, 10, 25)\n")
	help.WriteString("  r           - Reload page\n")
	help.WriteString("  enter       - View details\n")
	help.WriteString("  ?           - Toggle help\n")
	help.WriteString("  q/ctrl+c    - Quit\n")
	return help.String()
}

// statusLine returns the status line
func (m InteractiveTable) statusLine() string {
	if m.showDetails {
		return "Details | Press esc/enter to return to the table"
	}
	if m.totalItems() == 0 {
		return "No dogs found | Press ? for help"
	}
	return fmt.Sprintf("Page %d of %d | %d dogs | %d per page | Press ? for help",
		m.view.Page()+1, m.page.TotalPages, m.page.TotalItems, m.view.PageSize())
}

// detailsView renders every field of the selected dog
func (m InteractiveTable) detailsView() string {
	row := m.selected()
	if row == nil {
		return ""
	}

	var b strings.Builder
	title := fmt.Sprintf("Dog %d", row.ID)
	b.WriteString(m.render(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")), title))
	b.WriteString("\n\n")

	field := func(label, value string) {
		if value == "" {
			value = "N/A"
		}
		fmt.Fprintf(&b, "%-22s %s\n", label+":", value)
	}
	field("District", row.District)
	field("ULB", row.ULB)
	field("Ward", row.WardNumber)
	field("Gender", row.Gender)
	field("Date of Catch", formatDate(row.DateOfCatch))
	field("Surgery Date", formatDate(row.SurgeryDate))
	field("Relocation Date", formatDate(row.RelocationDate))
	field("Status", dogStatus(row.AnimalRecord))
	field("Location", strings.Trim(string(row.Latitude)+", "+string(row.Longitude), ", "))
	field("Map", row.MapURL)
	field("Before Surgery Image", row.BeforeSurgeryImage)
	field("After Surgery Image", row.AfterSurgeryImage)
	field("Relocation Image", row.RelocationImage)
	return b.String()
}

// dogToRow converts a record to a table row
func dogToRow(r records.AnimalRecord) table.Row {
	return table.Row{
		strconv.Itoa(r.ID),
		truncateString(r.District, 20),
		truncateString(r.ULB, 16),
		r.WardNumber,
		r.Gender,
		orNA(formatDate(r.DateOfCatch)),
		orNA(formatDate(r.SurgeryDate)),
		orNA(formatDate(r.RelocationDate)),
		dogStatus(r),
	}
}

func formatDate(d records.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.Format("02/01/2006")
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func dogStatus(r records.AnimalRecord) string {
	switch {
	case r.Released():
		return "released"
	case r.Sterilized():
		return "sterilized"
	default:
		return "pending"
	}
}

// truncateString truncates a string to the specified length with ellipsis
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// runInteractiveTable runs the interactive table
func runInteractiveTable(first *handlers.DogsResponse, pager dogPager, filter cliapi.DogQuery, interval time.Duration, cfg *cliapi.Config) error {
	p := tea.NewProgram(NewInteractiveTable(first, pager, filter, interval, cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
