package api

import (
	"errors"
	"strings"
	"time"
)

// Provider tags the identity provider a user signed up with.
type Provider string

const (
	ProviderLocal  Provider = "local"
	ProviderGoogle Provider = "google"
	ProviderKakao  Provider = "kakao"
)

// User is the account returned by /api/users/me.
type User struct {
	ID        int       `json:"id"`
	Email     string    `json:"email"`
	Nickname  string    `json:"nickname"`
	FirstName string    `json:"firstName,omitempty"`
	LastName  string    `json:"lastName,omitempty"`
	Image     string    `json:"image,omitempty"`
	Provider  Provider  `json:"provider,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// Validate checks the fields every consumer relies on.
func (u *User) Validate() error {
	var errs []error
	if u.ID <= 0 {
		errs = append(errs, errors.New("user: missing id"))
	}
	if strings.TrimSpace(u.Email) == "" {
		errs = append(errs, errors.New("user: missing email"))
	}
	if strings.TrimSpace(u.Nickname) == "" {
		errs = append(errs, errors.New("user: missing nickname"))
	}
	return errors.Join(errs...)
}

// FullName joins the first and last name, if any.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Credentials is the body of POST /api/auth/login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the body of POST /api/users.
type Registration struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Nickname    string `json:"nickname"`
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

// Credentials returns the login credentials for a freshly registered account.
func (r Registration) Credentials() Credentials {
	return Credentials{Email: r.Email, Password: r.Password}
}

// Order is the orderBy query value for listings.
type Order string

const (
	OrderRecent   Order = "recent"
	OrderFavorite Order = "favorite"
	OrderLike     Order = "like"
)

// Product is a second-hand market listing.
type Product struct {
	ID            int       `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Price         int       `json:"price"`
	Tags          []string  `json:"tags"`
	Images        []string  `json:"images"`
	FavoriteCount int       `json:"favoriteCount"`
	IsFavorite    bool      `json:"isFavorite"`
	OwnerNickname string    `json:"ownerNickname"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Article is a community board post.
type Article struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Image     string    `json:"image"`
	LikeCount int       `json:"likeCount"`
	Writer    struct {
		ID       int    `json:"id"`
		Nickname string `json:"nickname"`
	} `json:"writer"`
	CreatedAt time.Time `json:"createdAt"`
}

// Page is one page of a listing endpoint.
type Page[T any] struct {
	List       []T `json:"list"`
	TotalCount int `json:"totalCount"`
}
