package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"blogd/internal/mail"
	"blogd/internal/store"
	"blogd/internal/token"
	"blogd/pkg/domain"
)

const testPassword = "Sup3r$ecret!"

type discardSender struct{}

func (discardSender) Send(context.Context, mail.Message) error { return nil }

func newTestApp(t *testing.T) (*App, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	a, err := New(Config{
		Store:       st,
		Sessions:    store.NewMemorySessionStore(),
		Mailer:      discardSender{},
		TokenSecret: "test-secret",
		SiteURL:     "https://blog.example.com",
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return a, st
}

func newActor(t *testing.T, st *store.MemoryStore, username string, admin, confirmed bool) domain.Actor {
	t.Helper()
	account, err := st.CreateAccount(context.Background(), domain.Account{
		Username:  username,
		Display:   username,
		Email:     username + "@example.com",
		Admin:     admin,
		Confirmed: confirmed,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("create account %q: %v", username, err)
	}
	return domain.Actor{Account: &account}
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestRegisterAndLogin(t *testing.T) {
	a, _ := newTestApp(t)
	ctx := context.Background()

	account, err := a.Register(ctx, RegisterRequest{
		Username: "Alice",
		Display:  "Alice",
		Email:    "Alice@Example.com",
		Password: testPassword,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if account.Confirmed {
		t.Fatal("new account should be unconfirmed")
	}
	if account.Username != "alice" || account.Email != "alice@example.com" {
		t.Fatalf("username/email not lowercased: %q %q", account.Username, account.Email)
	}

	logged, session, err := a.Login(ctx, "alice", testPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if logged.ID != account.ID || session == "" {
		t.Fatalf("login returned account %d, session %q", logged.ID, session)
	}

	if _, _, err := a.Login(ctx, "alice", "wrong-password"); !errors.Is(err, ErrValidation) {
		t.Fatalf("wrong password: got %v, want ErrValidation", err)
	}
	if _, _, err := a.Login(ctx, "nobody", testPassword); !errors.Is(err, ErrValidation) {
		t.Fatalf("unknown user: got %v, want ErrValidation", err)
	}

	actor, err := a.Authenticate(ctx, session)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if actor.Anonymous() || actor.ID() != account.ID {
		t.Fatalf("authenticate resolved wrong actor: %+v", actor)
	}
	if actor.Account.SeenAt == nil {
		t.Fatal("seen_at not touched on authenticated request")
	}

	if err := a.Logout(ctx, session); err != nil {
		t.Fatalf("logout: %v", err)
	}
	actor, err = a.Authenticate(ctx, session)
	if err != nil {
		t.Fatalf("authenticate after logout: %v", err)
	}
	if !actor.Anonymous() {
		t.Fatal("session should be gone after logout")
	}
}

func TestRegisterDuplicate(t *testing.T) {
	a, _ := newTestApp(t)
	ctx := context.Background()
	req := RegisterRequest{Username: "bob", Email: "bob@example.com", Password: testPassword}
	if _, err := a.Register(ctx, req); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := a.Register(ctx, req); !errors.Is(err, ErrUnableToCreate) {
		t.Fatalf("duplicate register: got %v, want ErrUnableToCreate", err)
	}
}

func TestRegisterWeakPassword(t *testing.T) {
	a, _ := newTestApp(t)
	_, err := a.Register(context.Background(), RegisterRequest{
		Username: "carol", Email: "carol@example.com", Password: "short",
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("got %v, want ErrValidation", err)
	}
}

func TestAlwaysConfirmedOverride(t *testing.T) {
	st := store.NewMemoryStore()
	a, err := New(Config{
		Store:                  st,
		Sessions:               store.NewMemorySessionStore(),
		Mailer:                 discardSender{},
		TokenSecret:            "test-secret",
		AccountAlwaysConfirmed: true,
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	account, err := a.Register(context.Background(), RegisterRequest{
		Username: "dave", Email: "dave@example.com", Password: testPassword,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !account.Confirmed {
		t.Fatal("always-confirmed override should confirm on registration")
	}
}

func TestConfirmEmail(t *testing.T) {
	a, st := newTestApp(t)
	ctx := context.Background()
	account, err := a.Register(ctx, RegisterRequest{
		Username: "erin", Email: "erin@example.com", Password: testPassword,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	tok, err := a.tokens.Issue(account.ID, token.PurposeConfirmEmail)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if err := a.ConfirmEmail(ctx, tok); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	stored, err := st.GetAccountByID(ctx, account.ID)
	if err != nil {
		t.Fatalf("load account: %v", err)
	}
	if !stored.Confirmed {
		t.Fatal("account not confirmed after token exchange")
	}

	if err := a.ConfirmEmail(ctx, "garbage"); !errors.Is(err, ErrValidation) {
		t.Fatalf("bad token: got %v, want ErrValidation", err)
	}
}

func TestResetPassword(t *testing.T) {
	a, _ := newTestApp(t)
	ctx := context.Background()
	account, err := a.Register(ctx, RegisterRequest{
		Username: "fay", Email: "fay@example.com", Password: testPassword,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := a.RequestPasswordReset(ctx, "unknown@example.com"); err != nil {
		t.Fatalf("reset for unknown address should not error: %v", err)
	}

	tok, err := a.tokens.Issue(account.ID, token.PurposeResetPassword)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	const newPassword = "N3w$ecretPass!"
	if err := a.ResetPassword(ctx, tok, newPassword); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, _, err := a.Login(ctx, "fay", newPassword); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if _, _, err := a.Login(ctx, "fay", testPassword); !errors.Is(err, ErrValidation) {
		t.Fatalf("old password should be rejected: %v", err)
	}
}

func TestUpdateAccount(t *testing.T) {
	a, st := newTestApp(t)
	ctx := context.Background()
	alice := newActor(t, st, "alice", false, true)
	bob := newActor(t, st, "bob", false, true)
	admin := newActor(t, st, "root", true, true)

	updated, err := a.UpdateAccount(ctx, alice, alice.ID(), AccountUpdate{Display: strPtr("Alice A.")})
	if err != nil {
		t.Fatalf("self update: %v", err)
	}
	if updated.Display != "Alice A." {
		t.Fatalf("display = %q", updated.Display)
	}

	if _, err := a.UpdateAccount(ctx, alice, bob.ID(), AccountUpdate{Display: strPtr("x")}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("editing another account: got %v, want ErrForbidden", err)
	}
	if _, err := a.UpdateAccount(ctx, alice, alice.ID(), AccountUpdate{Admin: boolPtr(true)}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("self-promotion: got %v, want ErrForbidden", err)
	}
	if _, err := a.UpdateAccount(ctx, admin, bob.ID(), AccountUpdate{Confirmed: boolPtr(false)}); err != nil {
		t.Fatalf("admin update: %v", err)
	}
}

func TestDeleteAccountCascadeOrDetach(t *testing.T) {
	a, st := newTestApp(t)
	ctx := context.Background()
	admin := newActor(t, st, "root", true, true)

	writer := newActor(t, st, "writer", false, true)
	blog, err := a.CreateBlog(ctx, writer, BlogCreate{Title: "Kept Post", Comment: true})
	if err != nil {
		t.Fatalf("create blog: %v", err)
	}
	if err := a.DeleteAccount(ctx, admin, writer.ID(), false); err != nil {
		t.Fatalf("delete account: %v", err)
	}
	detached, err := st.GetBlogByID(ctx, blog.ID)
	if err != nil {
		t.Fatalf("blog should survive detach delete: %v", err)
	}
	if detached.AuthorID != nil {
		t.Fatal("blog author should be detached")
	}

	writer2 := newActor(t, st, "writer2", false, true)
	blog2, err := a.CreateBlog(ctx, writer2, BlogCreate{Title: "Doomed Post"})
	if err != nil {
		t.Fatalf("create blog: %v", err)
	}
	if err := a.DeleteAccount(ctx, writer2, writer2.ID(), true); err != nil {
		t.Fatalf("self delete: %v", err)
	}
	if _, err := st.GetBlogByID(ctx, blog2.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("blog should be cascade-deleted: %v", err)
	}
}

func TestContact(t *testing.T) {
	a, _ := newTestApp(t)
	if err := a.Contact("", "enquiry", "body"); !errors.Is(err, ErrValidation) {
		t.Fatalf("got %v, want ErrValidation", err)
	}
	if err := a.Contact("visitor@example.com", "Hello", "A question."); err != nil {
		t.Fatalf("contact: %v", err)
	}
}
