package policy

import (
	"errors"
	"testing"

	"blogd/pkg/domain"
)

func actorFor(account *domain.Account) domain.Actor {
	return domain.Actor{Account: account}
}

func ptr(id int64) *int64 { return &id }

func TestOwnershipGatesBlogEdit(t *testing.T) {
	engine := New()
	owner := &domain.Account{ID: 1, Confirmed: true}
	other := &domain.Account{ID: 2, Confirmed: true}
	blog := domain.Blog{ID: 10, AuthorID: ptr(1), Published: true}

	if !engine.Evaluate(actorFor(owner), domain.ActionEdit, ForBlog(blog)) {
		t.Fatal("owner should be allowed to edit their blog")
	}
	if engine.Evaluate(actorFor(other), domain.ActionEdit, ForBlog(blog)) {
		t.Fatal("non-owner should be denied edit even though they can create blogs")
	}
	if !engine.EvaluateType(actorFor(other), domain.ActionCreate, domain.ResourceBlog).Allowed {
		t.Fatal("confirmed account should be allowed to create blogs")
	}
	if engine.Evaluate(actorFor(other), domain.ActionDelete, ForBlog(blog)) {
		t.Fatal("non-owner should be denied delete")
	}
}

func TestUnconfirmedGetsOnlyUniversalGrants(t *testing.T) {
	engine := New()
	unconfirmed := actorFor(&domain.Account{ID: 3})

	if engine.EvaluateType(unconfirmed, domain.ActionCreate, domain.ResourceBlog).Allowed {
		t.Fatal("unconfirmed account must not create blogs")
	}
	if engine.EvaluateType(unconfirmed, domain.ActionCreate, domain.ResourceComment).Allowed {
		t.Fatal("unconfirmed account must not create comments")
	}
	if !engine.Evaluate(unconfirmed, domain.ActionRead, ForCategory(domain.Category{ID: 1})) {
		t.Fatal("universal category read should still apply")
	}
	if !engine.Evaluate(unconfirmed, domain.ActionRead, ForBlog(domain.Blog{Published: true})) {
		t.Fatal("universal published-blog read should still apply")
	}
	own := domain.Blog{ID: 4, AuthorID: ptr(3)}
	if engine.Evaluate(unconfirmed, domain.ActionEdit, ForBlog(own)) {
		t.Fatal("unconfirmed account must not edit, even their own blog")
	}
}

func TestAlwaysConfirmedOverride(t *testing.T) {
	engine := New()
	actor := domain.Actor{Account: &domain.Account{ID: 5}, AlwaysConfirmed: true}
	if !engine.EvaluateType(actor, domain.ActionCreate, domain.ResourceBlog).Allowed {
		t.Fatal("always-confirmed override should grant confirmed rules")
	}
}

func TestAdminManagesEverything(t *testing.T) {
	engine := New()
	admin := actorFor(&domain.Account{ID: 9, Admin: true})

	refs := []Ref{
		ForAccount(domain.Account{ID: 1}),
		ForBlog(domain.Blog{ID: 2, AuthorID: ptr(1)}),
		ForBlog(domain.Blog{ID: 3}),
		ForCategory(domain.Category{ID: 4}),
		ForComment(domain.Comment{ID: 5, AuthorID: ptr(1)}),
	}
	actions := []domain.Action{domain.ActionRead, domain.ActionCreate, domain.ActionEdit, domain.ActionDelete, domain.ActionManage}
	for _, ref := range refs {
		for _, action := range actions {
			if !engine.Evaluate(admin, action, ref) {
				t.Fatalf("admin denied %s on %s", action, ref.Type)
			}
		}
	}
}

func TestAnonymousReadsPublishedOnly(t *testing.T) {
	engine := New()
	anon := domain.Actor{}

	if !engine.Evaluate(anon, domain.ActionRead, ForBlog(domain.Blog{Published: true})) {
		t.Fatal("anonymous should read published blogs")
	}
	if engine.Evaluate(anon, domain.ActionRead, ForBlog(domain.Blog{Published: false})) {
		t.Fatal("anonymous must not read unpublished blogs")
	}
	if !engine.Evaluate(anon, domain.ActionRead, ForAccount(domain.Account{ID: 1})) {
		t.Fatal("anonymous should read accounts")
	}
	if !engine.Evaluate(anon, domain.ActionRead, ForCategory(domain.Category{ID: 1})) {
		t.Fatal("anonymous should read categories")
	}
	if engine.Evaluate(anon, domain.ActionCreate, ForComment(domain.Comment{})) {
		t.Fatal("anonymous must not create comments")
	}
}

func TestOwnAccountAndCommentGrants(t *testing.T) {
	engine := New()
	actor := actorFor(&domain.Account{ID: 6, Confirmed: true})

	if !engine.Evaluate(actor, domain.ActionDelete, ForAccount(domain.Account{ID: 6})) {
		t.Fatal("account owner should delete their own account")
	}
	if engine.Evaluate(actor, domain.ActionEdit, ForAccount(domain.Account{ID: 7})) {
		t.Fatal("editing another account must be denied")
	}
	if !engine.Evaluate(actor, domain.ActionEdit, ForComment(domain.Comment{ID: 1, AuthorID: ptr(6)})) {
		t.Fatal("comment author should edit their comment")
	}
	if engine.Evaluate(actor, domain.ActionDelete, ForComment(domain.Comment{ID: 2, AuthorID: ptr(7)})) {
		t.Fatal("deleting another author's comment must be denied")
	}
}

func TestEvaluateTypeScopeUnion(t *testing.T) {
	engine := New()

	anonScope := engine.EvaluateType(domain.Actor{}, domain.ActionRead, domain.ResourceBlog)
	if !anonScope.Allowed || anonScope.Scope.All || !anonScope.Scope.Published || anonScope.Scope.OwnerID != nil {
		t.Fatalf("anonymous blog read scope = %+v, want published-only", anonScope.Scope)
	}

	confirmed := actorFor(&domain.Account{ID: 8, Confirmed: true})
	scope := engine.EvaluateType(confirmed, domain.ActionRead, domain.ResourceBlog).Scope
	if scope.All {
		t.Fatal("confirmed non-admin must not see everything")
	}
	if !scope.Matches(ForBlog(domain.Blog{Published: true})) {
		t.Fatal("scope should admit published blogs")
	}
	if !scope.Matches(ForBlog(domain.Blog{AuthorID: ptr(8)})) {
		t.Fatal("scope should admit the actor's own drafts")
	}
	if scope.Matches(ForBlog(domain.Blog{AuthorID: ptr(9)})) {
		t.Fatal("scope must not admit another author's drafts")
	}

	admin := actorFor(&domain.Account{ID: 1, Admin: true})
	if s := engine.EvaluateType(admin, domain.ActionDelete, domain.ResourceCategory).Scope; !s.All {
		t.Fatalf("admin scope = %+v, want all", s)
	}
}

func TestRequireReturnsForbidden(t *testing.T) {
	engine := New()
	actor := actorFor(&domain.Account{ID: 1, Confirmed: true})
	err := engine.Require(actor, domain.ActionEdit, ForBlog(domain.Blog{ID: 2, AuthorID: ptr(2)}))
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := engine.Require(actor, domain.ActionEdit, ForBlog(domain.Blog{ID: 3, AuthorID: ptr(1)})); err != nil {
		t.Fatalf("unexpected error for owner edit: %v", err)
	}
}
