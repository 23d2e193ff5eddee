package home

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pandamarket/panda/internal/api"
	"github.com/pandamarket/panda/internal/ui/messages"
)

// Tab selects which half of the landing page is listed.
type Tab int

const (
	TabProducts Tab = iota
	TabArticles
)

// Source loads the landing page.
type Source interface {
	GetLanding(ctx context.Context, pageSize int) (*api.Landing, error)
}

// Model is the home view: the newest products and articles.
type Model struct {
	list     list.Model
	tab      Tab
	source   Source
	pageSize int
	landing  *api.Landing
	loading  bool
	now      func() time.Time
}

// New creates the home view showing tab.
func New(source Source, pageSize int, tab Tab) Model {
	l := list.New(nil, Delegate{}, 0, 0)
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(true)

	m := Model{
		list:     l,
		tab:      tab,
		source:   source,
		pageSize: pageSize,
		now:      time.Now,
	}
	m.list.Title = m.title()
	return m
}

// Init loads the landing page.
func (m *Model) Init() tea.Cmd {
	m.loading = true
	m.list.Title = m.title() + " (loading...)"
	return m.load()
}

// SetSize updates the viewport dimensions.
func (m *Model) SetSize(w, h int) {
	m.list.SetSize(w, h)
}

// SetTab switches the list to tab.
func (m *Model) SetTab(tab Tab) {
	if m.tab == tab {
		return
	}
	m.tab = tab
	m.fill()
}

// Tab returns the tab being shown.
func (m Model) Tab() Tab {
	return m.tab
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.LandingLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.list.Title = "Error: " + msg.Err.Error()
			return m, nil
		}
		m.landing = msg.Landing
		m.fill()
		return m, nil

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "tab", "shift+tab":
			m.tab = 1 - m.tab
			m.fill()
			return m, nil
		case "r", "ctrl+r":
			if m.loading {
				return m, nil
			}
			m.loading = true
			m.list.Title = m.title() + " (refreshing...)"
			return m, m.load()
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the list.
func (m Model) View() string {
	return m.list.View()
}

func (m *Model) fill() {
	m.list.Title = m.title()
	if m.landing == nil {
		m.list.SetItems(nil)
		return
	}
	now := m.now()
	var items []list.Item
	switch m.tab {
	case TabProducts:
		items = make([]list.Item, 0, len(m.landing.Products))
		for _, p := range m.landing.Products {
			items = append(items, ProductItem{Product: p, Now: now})
		}
	case TabArticles:
		items = make([]list.Item, 0, len(m.landing.Articles))
		for _, a := range m.landing.Articles {
			items = append(items, ArticleItem{Article: a, Now: now})
		}
	}
	m.list.SetItems(items)
	m.list.ResetSelected()
}

func (m Model) load() tea.Cmd {
	source := m.source
	size := m.pageSize
	return func() tea.Msg {
		landing, err := source.GetLanding(context.Background(), size)
		return messages.LandingLoadedMsg{Landing: landing, Err: err}
	}
}

func (m Model) title() string {
	if m.tab == TabArticles {
		return "자유게시판"
	}
	return "중고마켓"
}
