package server

import (
	"notecloud/internal/store"
)

// Account binds a configured account scope to its store.
type Account struct {
	// Scope is the account segment of every identifier under this
	// account. It must not contain identifier separators.
	Scope string
	// Title is the display name of the account root.
	Title string
	Store *store.Store
}

// Registry resolves identifier scopes to accounts.
type Registry struct {
	accounts map[string]*Account
	order    []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{accounts: make(map[string]*Account)}
}

// Add registers an account, replacing any previous one with the same scope.
func (r *Registry) Add(a *Account) {
	if _, ok := r.accounts[a.Scope]; !ok {
		r.order = append(r.order, a.Scope)
	}
	r.accounts[a.Scope] = a
}

// Get returns the account for a scope.
func (r *Registry) Get(scope string) (*Account, bool) {
	a, ok := r.accounts[scope]
	return a, ok
}

// All returns every account in registration order.
func (r *Registry) All() []*Account {
	out := make([]*Account, 0, len(r.order))
	for _, scope := range r.order {
		out = append(out, r.accounts[scope])
	}
	return out
}
