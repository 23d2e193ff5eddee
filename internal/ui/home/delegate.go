package home

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pandamarket/panda/internal/render"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	selectedTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#3692FF"))

	descStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	badgeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F9FAFB")).Bold(true)
	markStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F74747"))
	cursor     = lipgloss.NewStyle().Foreground(lipgloss.Color("#3692FF")).Render("> ")
)

// entry is a row of the home list: a product or an article.
type entry interface {
	list.DefaultItem
	// badge is the right-aligned figure of the row.
	badge() string
	// marked rows are favorites of the signed-in user.
	marked() bool
}

func (p ProductItem) badge() string { return render.Price(p.Price) }
func (p ProductItem) marked() bool  { return p.IsFavorite }

func (a ArticleItem) badge() string {
	if a.LikeCount == 0 {
		return ""
	}
	return fmt.Sprintf("♥ %d", a.LikeCount)
}
func (a ArticleItem) marked() bool { return false }

// Delegate renders a title line with the badge flush right and a
// description line underneath.
type Delegate struct{}

func (Delegate) Height() int                             { return 2 }
func (Delegate) Spacing() int                            { return 1 }
func (Delegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (Delegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	item, ok := listItem.(entry)
	if !ok {
		return
	}

	gutter := "  "
	style := titleStyle
	if index == m.Index() {
		gutter = cursor
		style = selectedTitleStyle
	}

	badge := item.badge()
	mark := ""
	if item.marked() {
		mark = markStyle.Render("♥") + " "
	}
	room := m.Width() - 2 - render.Width(badge) - render.Width(mark) - 1
	title := render.Truncate(item.Title(), max(room, 8))
	gap := max(room-render.Width(title), 0) + 1

	fmt.Fprintf(w, "%s%s%s%s%s\n%s%s",
		gutter, mark, style.Render(title), strings.Repeat(" ", gap), badgeStyle.Render(badge),
		gutter, descStyle.Render(item.Description()))
}
