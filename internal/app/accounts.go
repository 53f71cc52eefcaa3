package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"blogd/internal/policy"
	"blogd/internal/store"
	"blogd/internal/token"
	"blogd/pkg/auth"
	"blogd/pkg/domain"
)

// RegisterRequest carries the fields a new account is created from.
type RegisterRequest struct {
	Username string
	Display  string
	Email    string
	Password string
}

// AccountUpdate enumerates the mutable account fields. Nil fields are left
// untouched. Admin and Confirmed may only be set by admin actors.
type AccountUpdate struct {
	Display   *string
	Email     *string
	About     *string
	Password  *string
	Admin     *bool
	Confirmed *bool
}

// Register creates an unconfirmed account and dispatches a confirmation
// email. With the always-confirmed override active the account is usable
// immediately and no email is sent.
func (a *App) Register(ctx context.Context, req RegisterRequest) (domain.Account, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if username == "" || email == "" {
		return domain.Account{}, fmt.Errorf("%w: username and email are required", ErrValidation)
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		return domain.Account{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return domain.Account{}, fmt.Errorf("hash password: %w", err)
	}
	display := strings.TrimSpace(req.Display)
	if display == "" {
		display = req.Username
	}

	account, err := a.store.CreateAccount(ctx, domain.Account{
		Username:     username,
		Display:      display,
		Email:        email,
		PasswordHash: hash,
		Confirmed:    a.alwaysConfirmed,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return domain.Account{}, fmt.Errorf("%w: account", ErrUnableToCreate)
		}
		return domain.Account{}, fmt.Errorf("create account: %w", err)
	}

	if !a.alwaysConfirmed {
		tok, err := a.tokens.Issue(account.ID, token.PurposeConfirmEmail)
		if err != nil {
			a.logger.Error("issue_confirm_token_failed", "account_id", account.ID, "error", err.Error())
		} else {
			a.mail.SendConfirmEmail(&account, tok)
		}
	}
	return account, nil
}

// Login checks credentials against the stored hash and opens a session.
// Lookup failure and password mismatch are indistinguishable to the caller.
func (a *App) Login(ctx context.Context, username, password string) (domain.Account, string, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	account, err := a.store.GetAccountByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Account{}, "", fmt.Errorf("%w: incorrect username or password", ErrValidation)
		}
		return domain.Account{}, "", fmt.Errorf("lookup account: %w", err)
	}
	if !auth.CheckPassword(password, account.PasswordHash) {
		return domain.Account{}, "", fmt.Errorf("%w: incorrect username or password", ErrValidation)
	}
	session, err := a.sessions.NewSession(ctx, account.ID)
	if err != nil {
		return domain.Account{}, "", fmt.Errorf("open session: %w", err)
	}
	return account, session, nil
}

// Logout discards the session token.
func (a *App) Logout(ctx context.Context, session string) error {
	return a.sessions.DeleteSession(ctx, session)
}

// Authenticate resolves a session token to an actor and touches the
// account's seen_at. An empty or unknown token yields the anonymous actor.
func (a *App) Authenticate(ctx context.Context, session string) (domain.Actor, error) {
	anonymous := domain.Actor{AlwaysConfirmed: a.alwaysConfirmed}
	if session == "" {
		return anonymous, nil
	}
	accountID, ok, err := a.sessions.GetAccountIDByToken(ctx, session)
	if err != nil {
		return anonymous, fmt.Errorf("resolve session: %w", err)
	}
	if !ok {
		return anonymous, nil
	}
	account, err := a.store.GetAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return anonymous, nil
		}
		return anonymous, fmt.Errorf("load account: %w", err)
	}
	now := time.Now().UTC()
	account.SeenAt = &now
	if err := a.store.UpdateAccount(ctx, account); err != nil {
		a.logger.Warn("touch_seen_at_failed", "account_id", account.ID, "error", err.Error())
	}
	return domain.Actor{Account: &account, AlwaysConfirmed: a.alwaysConfirmed}, nil
}

// ConfirmEmail redeems a confirmation token and marks the account confirmed.
func (a *App) ConfirmEmail(ctx context.Context, tok string) error {
	accountID, err := a.tokens.Verify(tok, token.PurposeConfirmEmail)
	if err != nil {
		return fmt.Errorf("%w: invalid or expired confirmation token", ErrValidation)
	}
	account, err := a.store.GetAccountByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("load account: %w", err)
	}
	if account.Confirmed {
		return nil
	}
	account.Confirmed = true
	now := time.Now().UTC()
	account.UpdatedAt = &now
	if err := a.store.UpdateAccount(ctx, account); err != nil {
		return fmt.Errorf("%w: account", ErrUnableToUpdate)
	}
	return nil
}

// RequestPasswordReset mails a reset link when the address matches an
// account. It reports success either way so addresses cannot be enumerated.
func (a *App) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	account, err := a.store.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("lookup account: %w", err)
	}
	tok, err := a.tokens.Issue(account.ID, token.PurposeResetPassword)
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}
	a.mail.SendResetPassword(&account, tok)
	return nil
}

// ResetPassword redeems a reset token and replaces the account's password.
func (a *App) ResetPassword(ctx context.Context, tok, password string) error {
	accountID, err := a.tokens.Verify(tok, token.PurposeResetPassword)
	if err != nil {
		return fmt.Errorf("%w: invalid or expired reset token", ErrValidation)
	}
	if err := auth.ValidatePassword(password); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	account, err := a.store.GetAccountByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("load account: %w", err)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	account.PasswordHash = hash
	now := time.Now().UTC()
	account.UpdatedAt = &now
	if err := a.store.UpdateAccount(ctx, account); err != nil {
		return fmt.Errorf("%w: account", ErrUnableToUpdate)
	}
	return nil
}

// GetAccount returns an account visible to the actor.
func (a *App) GetAccount(ctx context.Context, actor domain.Actor, id int64) (domain.Account, error) {
	account, err := a.store.GetAccountByID(ctx, id)
	if err != nil {
		return domain.Account{}, err
	}
	if err := a.policy.Require(actor, domain.ActionRead, policy.ForAccount(account)); err != nil {
		return domain.Account{}, err
	}
	return account, nil
}

// GetAccountByUsername returns an account looked up by its unique username.
func (a *App) GetAccountByUsername(ctx context.Context, actor domain.Actor, username string) (domain.Account, error) {
	account, err := a.store.GetAccountByUsername(ctx, strings.ToLower(username))
	if err != nil {
		return domain.Account{}, err
	}
	if err := a.policy.Require(actor, domain.ActionRead, policy.ForAccount(account)); err != nil {
		return domain.Account{}, err
	}
	return account, nil
}

// ListAccounts returns every account visible to the actor.
func (a *App) ListAccounts(ctx context.Context, actor domain.Actor) ([]domain.Account, error) {
	if err := a.policy.RequireType(actor, domain.ActionRead, domain.ResourceAccount); err != nil {
		return nil, err
	}
	return a.store.ListAccounts(ctx)
}

// UpdateAccount applies the given field changes to an account. Actors may
// edit their own accounts; admins may edit any, including the admin and
// confirmed flags.
func (a *App) UpdateAccount(ctx context.Context, actor domain.Actor, id int64, update AccountUpdate) (domain.Account, error) {
	account, err := a.store.GetAccountByID(ctx, id)
	if err != nil {
		return domain.Account{}, err
	}
	if err := a.policy.Require(actor, domain.ActionEdit, policy.ForAccount(account)); err != nil {
		return domain.Account{}, err
	}
	if (update.Admin != nil || update.Confirmed != nil) && !actor.Admin() {
		return domain.Account{}, fmt.Errorf("%w: admin-only fields", ErrForbidden)
	}

	if update.Display != nil {
		account.Display = strings.TrimSpace(*update.Display)
	}
	if update.Email != nil {
		account.Email = strings.ToLower(strings.TrimSpace(*update.Email))
	}
	if update.About != nil {
		account.About = *update.About
	}
	if update.Password != nil {
		if err := auth.ValidatePassword(*update.Password); err != nil {
			return domain.Account{}, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		hash, err := auth.HashPassword(*update.Password)
		if err != nil {
			return domain.Account{}, fmt.Errorf("hash password: %w", err)
		}
		account.PasswordHash = hash
	}
	if update.Admin != nil {
		account.Admin = *update.Admin
	}
	if update.Confirmed != nil {
		account.Confirmed = *update.Confirmed
	}
	now := time.Now().UTC()
	account.UpdatedAt = &now

	if err := a.store.UpdateAccount(ctx, account); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return domain.Account{}, fmt.Errorf("%w: account", ErrUnableToUpdate)
		}
		return domain.Account{}, fmt.Errorf("update account: %w", err)
	}
	return account, nil
}

// DeleteAccount removes an account. Authored blogs are deleted when
// deleteBlogs is set and detached otherwise; authored comments always stay,
// detached from their author.
func (a *App) DeleteAccount(ctx context.Context, actor domain.Actor, id int64, deleteBlogs bool) error {
	account, err := a.store.GetAccountByID(ctx, id)
	if err != nil {
		return err
	}
	if err := a.policy.Require(actor, domain.ActionDelete, policy.ForAccount(account)); err != nil {
		return err
	}
	if err := a.store.DeleteAccount(ctx, id, deleteBlogs); err != nil {
		return fmt.Errorf("%w: account", ErrUnableToDelete)
	}
	return nil
}
