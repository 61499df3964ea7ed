package rest

import (
	"context"
	"iter"

	"github.com/mattjoyce/switchboard/internal/params"
)

// Accounts is the list of the authenticated account and its subaccounts.
type Accounts struct {
	list[Account]
}

// AccountFilter narrows Accounts.List.
type AccountFilter struct {
	FriendlyName string
	Status       string
}

func (f AccountFilter) values() *params.Set {
	return params.New().
		Add("FriendlyName", f.FriendlyName).
		Add("Status", f.Status)
}

// List returns one page of accounts.
func (a *Accounts) List(ctx context.Context, f AccountFilter, opts PageOptions) (*Page[Account], error) {
	return a.page(ctx, f.values().Values(), opts)
}

// All iterates every account matching f.
func (a *Accounts) All(ctx context.Context, f AccountFilter) iter.Seq2[Account, error] {
	return a.all(ctx, f.values().Values(), 0)
}

// Create opens a subaccount.
func (a *Accounts) Create(ctx context.Context, friendlyName string) (*Account, error) {
	return a.create(ctx, params.New().Add("FriendlyName", friendlyName).Values())
}

// Update changes an account's friendly name or status.
func (a *Accounts) Update(ctx context.Context, sid string, f AccountFilter) (*Account, error) {
	return a.update(ctx, sid, f.values().Values())
}

// Close permanently deactivates an account.
func (a *Accounts) Close(ctx context.Context, sid string) (*Account, error) {
	return a.Update(ctx, sid, AccountFilter{Status: AccountClosed})
}

// Suspend temporarily suspends an account.
func (a *Accounts) Suspend(ctx context.Context, sid string) (*Account, error) {
	return a.Update(ctx, sid, AccountFilter{Status: AccountSuspended})
}

// Activate reactivates a suspended account.
func (a *Accounts) Activate(ctx context.Context, sid string) (*Account, error) {
	return a.Update(ctx, sid, AccountFilter{Status: AccountActive})
}
