package home

import (
	"fmt"
	"strings"
	"time"

	"github.com/pandamarket/panda/internal/api"
	"github.com/pandamarket/panda/internal/render"
)

// ProductItem wraps a listing for the bubbles list.
type ProductItem struct {
	api.Product
	Now time.Time
}

func (p ProductItem) Title() string {
	return render.Truncate(p.Name, 60)
}

func (p ProductItem) Description() string {
	parts := make([]string, 0, 3)
	if p.FavoriteCount > 0 {
		parts = append(parts, fmt.Sprintf("♥ %d", p.FavoriteCount))
	}
	if p.OwnerNickname != "" {
		parts = append(parts, p.OwnerNickname)
	}
	if ago := render.TimeAgo(p.CreatedAt, p.Now); ago != "" {
		parts = append(parts, ago)
	}
	return strings.Join(parts, " | ")
}

func (p ProductItem) FilterValue() string {
	return p.Name + " " + strings.Join(p.Tags, " ")
}

// ArticleItem wraps a board post for the bubbles list.
type ArticleItem struct {
	api.Article
	Now time.Time
}

func (a ArticleItem) Title() string {
	return render.Truncate(a.Article.Title, 60)
}

func (a ArticleItem) Description() string {
	parts := make([]string, 0, 2)
	if a.Writer.Nickname != "" {
		parts = append(parts, a.Writer.Nickname)
	}
	if ago := render.TimeAgo(a.CreatedAt, a.Now); ago != "" {
		parts = append(parts, ago)
	}
	return strings.Join(parts, " | ")
}

func (a ArticleItem) FilterValue() string {
	return a.Article.Title + " " + a.Writer.Nickname
}
