package ui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Quit     key.Binding
	Back     key.Binding
	Home     key.Binding
	Login    key.Binding
	Logout   key.Binding
	Register key.Binding
	Profile  key.Binding
	Settings key.Binding
}

var Keys = KeyMap{
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Home:     key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "home")),
	Login:    key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "login")),
	Logout:   key.NewBinding(key.WithKeys("X"), key.WithHelp("X", "logout")),
	Register: key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "sign up")),
	Profile:  key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "profile")),
	Settings: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "account")),
}
