// Package policy decides whether an actor may perform an action on a
// resource. Decisions are produced by one pure evaluator over an additive
// grant list: every grant matching the actor is unioned, and absence of a
// grant denies. There are no explicit deny rules.
package policy

import (
	"errors"

	"blogd/pkg/domain"
)

// ErrForbidden signals that the actor lacks permission for the action. It is
// fatal to the invoking operation and never retried.
var ErrForbidden = errors.New("forbidden")

// resourceAll is the wildcard subject used by the admin grant.
const resourceAll domain.ResourceType = "*"

// Ref is the policy-relevant view of a resource instance: its type, the
// account owning it (the account itself for accounts, the author for blogs
// and comments) and, for blogs, the published flag.
type Ref struct {
	Type      domain.ResourceType
	OwnerID   *int64
	Published bool
}

// ForAccount builds the policy view of an account.
func ForAccount(a domain.Account) Ref {
	id := a.ID
	return Ref{Type: domain.ResourceAccount, OwnerID: &id}
}

// ForBlog builds the policy view of a blog.
func ForBlog(b domain.Blog) Ref {
	return Ref{Type: domain.ResourceBlog, OwnerID: b.AuthorID, Published: b.Published}
}

// ForCategory builds the policy view of a category.
func ForCategory(domain.Category) Ref {
	return Ref{Type: domain.ResourceCategory}
}

// ForComment builds the policy view of a comment.
func ForComment(c domain.Comment) Ref {
	return Ref{Type: domain.ResourceComment, OwnerID: c.AuthorID}
}

// Scope is the union predicate describing which instances of a resource type
// the actor may reach. It is the collection-filter form of a decision.
type Scope struct {
	// All admits every instance.
	All bool
	// Published admits published blogs.
	Published bool
	// OwnerID admits instances owned by this account.
	OwnerID *int64
}

// Matches reports whether the scope admits the given instance.
func (s Scope) Matches(ref Ref) bool {
	if s.All {
		return true
	}
	if s.Published && ref.Published {
		return true
	}
	if s.OwnerID != nil && ref.OwnerID != nil && *s.OwnerID == *ref.OwnerID {
		return true
	}
	return false
}

// Decision is an authorization outcome. For type-level evaluations Scope
// describes the subset of the collection visible to the actor.
type Decision struct {
	Allowed bool
	Scope   Scope
}

// grant is one (action-set, resource-type, scoping-condition) triple.
type grant struct {
	actions   []domain.Action
	resource  domain.ResourceType
	ownerID   *int64
	published bool
}

func (g grant) covers(action domain.Action, resource domain.ResourceType) bool {
	if g.resource != resourceAll && g.resource != resource {
		return false
	}
	for _, granted := range g.actions {
		if granted == action || granted == domain.ActionManage {
			return true
		}
	}
	return false
}

func (g grant) admits(ref Ref) bool {
	if g.published && !ref.Published {
		return false
	}
	if g.ownerID != nil {
		if ref.OwnerID == nil || *ref.OwnerID != *g.ownerID {
			return false
		}
	}
	return true
}

var (
	readOnly       = []domain.Action{domain.ActionRead}
	createOnly     = []domain.Action{domain.ActionCreate}
	readEditDelete = []domain.Action{domain.ActionRead, domain.ActionEdit, domain.ActionDelete}
	manageAll      = []domain.Action{domain.ActionManage}
)

// grantsFor expresses the whole rule table as data. Admins get the wildcard
// grant; confirmed accounts get ownership grants plus blog/comment creation;
// everyone, including anonymous actors, gets the universal read grants.
func grantsFor(actor domain.Actor) []grant {
	var grants []grant
	if !actor.Anonymous() {
		if actor.Admin() {
			grants = append(grants, grant{actions: manageAll, resource: resourceAll})
		} else if actor.Confirmed() {
			id := actor.ID()
			grants = append(grants,
				grant{actions: readEditDelete, resource: domain.ResourceAccount, ownerID: &id},
				grant{actions: createOnly, resource: domain.ResourceBlog},
				grant{actions: readEditDelete, resource: domain.ResourceBlog, ownerID: &id},
				grant{actions: readEditDelete, resource: domain.ResourceComment, ownerID: &id},
				grant{actions: createOnly, resource: domain.ResourceComment},
			)
		}
	}
	grants = append(grants,
		grant{actions: readOnly, resource: domain.ResourceAccount},
		grant{actions: readOnly, resource: domain.ResourceCategory},
		grant{actions: readOnly, resource: domain.ResourceBlog, published: true},
	)
	return grants
}

// Engine evaluates authorization decisions. It is stateless and safe for
// concurrent use; the same engine serves the view, admin and API surfaces so
// all three gate with identical semantics.
type Engine struct{}

// New constructs a policy engine.
func New() *Engine { return &Engine{} }

// Evaluate decides whether the actor may perform action on the given
// resource instance.
func (e *Engine) Evaluate(actor domain.Actor, action domain.Action, ref Ref) bool {
	for _, g := range grantsFor(actor) {
		if g.covers(action, ref.Type) && g.admits(ref) {
			return true
		}
	}
	return false
}

// EvaluateType decides whether the actor may perform action on a resource
// type at all, and returns the scope filter describing which instances the
// matching grants admit.
func (e *Engine) EvaluateType(actor domain.Actor, action domain.Action, resource domain.ResourceType) Decision {
	decision := Decision{}
	for _, g := range grantsFor(actor) {
		if !g.covers(action, resource) {
			continue
		}
		decision.Allowed = true
		switch {
		case g.ownerID != nil:
			decision.Scope.OwnerID = g.ownerID
		case g.published:
			decision.Scope.Published = true
		default:
			decision.Scope.All = true
		}
	}
	return decision
}

// Require fails with ErrForbidden when Evaluate denies. It has no side
// effects otherwise.
func (e *Engine) Require(actor domain.Actor, action domain.Action, ref Ref) error {
	if !e.Evaluate(actor, action, ref) {
		return ErrForbidden
	}
	return nil
}

// RequireType fails with ErrForbidden when the actor may not perform the
// action on the resource type at all.
func (e *Engine) RequireType(actor domain.Actor, action domain.Action, resource domain.ResourceType) error {
	if !e.EvaluateType(actor, action, resource).Allowed {
		return ErrForbidden
	}
	return nil
}
