package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/sync/errgroup"
)

// ListOptions are the common listing query parameters.
type ListOptions struct {
	Page     int
	PageSize int
	OrderBy  Order
	Keyword  string
}

func (o ListOptions) query() string {
	q := url.Values{}
	page := o.Page
	if page < 1 {
		page = 1
	}
	q.Set("page", strconv.Itoa(page))
	if o.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(o.PageSize))
	}
	if o.OrderBy != "" {
		q.Set("orderBy", string(o.OrderBy))
	}
	if o.Keyword != "" {
		q.Set("keyword", o.Keyword)
	}
	return q.Encode()
}

// ListProducts fetches one page of market listings.
func (c *Client) ListProducts(ctx context.Context, opts ListOptions) (*Page[Product], error) {
	var page Page[Product]
	if err := c.do(ctx, http.MethodGet, "/api/products?"+opts.query(), nil, &page); err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return &page, nil
}

// ListArticles fetches one page of board posts.
func (c *Client) ListArticles(ctx context.Context, opts ListOptions) (*Page[Article], error) {
	var page Page[Article]
	if err := c.do(ctx, http.MethodGet, "/api/articles?"+opts.query(), nil, &page); err != nil {
		return nil, fmt.Errorf("listing articles: %w", err)
	}
	return &page, nil
}

// Landing holds what the home view shows.
type Landing struct {
	Products []Product
	Articles []Article
}

// GetLanding fetches the newest products and articles concurrently.
func (c *Client) GetLanding(ctx context.Context, pageSize int) (*Landing, error) {
	var landing Landing
	opts := ListOptions{Page: 1, PageSize: pageSize, OrderBy: OrderRecent}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		page, err := c.ListProducts(ctx, opts)
		if err != nil {
			return err
		}
		landing.Products = page.List
		return nil
	})
	g.Go(func() error {
		page, err := c.ListArticles(ctx, opts)
		if err != nil {
			return err
		}
		landing.Articles = page.List
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &landing, nil
}
