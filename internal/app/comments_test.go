package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"blogd/pkg/domain"
)

func newCommentFixture(t *testing.T) (*App, domain.Actor, domain.Blog) {
	t.Helper()
	a, st := newTestApp(t)
	writer := newActor(t, st, "writer", false, true)
	blog, err := a.CreateBlog(context.Background(), writer, BlogCreate{
		Title:     "Discussed Post",
		Published: true,
		Comment:   true,
	})
	if err != nil {
		t.Fatalf("create blog: %v", err)
	}
	return a, writer, blog
}

func TestCommentPathRoundTrip(t *testing.T) {
	a, writer, blog := newCommentFixture(t)
	ctx := context.Background()

	c1, err := a.CreateComment(ctx, writer, CommentCreate{Body: "root", BlogID: &blog.ID})
	if err != nil {
		t.Fatalf("create root: %v", err)
	}
	c2, err := a.CreateComment(ctx, writer, CommentCreate{Body: "reply", ParentID: &c1.ID})
	if err != nil {
		t.Fatalf("create reply: %v", err)
	}
	c3, err := a.CreateComment(ctx, writer, CommentCreate{Body: "reply to reply", ParentID: &c2.ID})
	if err != nil {
		t.Fatalf("create nested reply: %v", err)
	}

	if c1.Level() != 0 || c2.Level() != 1 || c3.Level() != 2 {
		t.Fatalf("levels = %d %d %d, want 0 1 2", c1.Level(), c2.Level(), c3.Level())
	}
	if !strings.HasPrefix(c3.Path, c2.Path+".") || !strings.HasPrefix(c2.Path, c1.Path+".") {
		t.Fatalf("paths not nested: %q %q %q", c1.Path, c2.Path, c3.Path)
	}
	if len(c1.Path) != domain.PathSegmentDigits {
		t.Fatalf("root path %q should be one fixed-width segment", c1.Path)
	}
	if !c1.Descendant(c3) || c3.Descendant(c1) {
		t.Fatal("descendant relation inverted")
	}
}

func TestCommentThreadAnchoring(t *testing.T) {
	a, writer, blog := newCommentFixture(t)
	ctx := context.Background()

	c1, err := a.CreateComment(ctx, writer, CommentCreate{Body: "root", BlogID: &blog.ID})
	if err != nil {
		t.Fatalf("create root: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	c2, err := a.CreateComment(ctx, writer, CommentCreate{Body: "reply", ParentID: &c1.ID})
	if err != nil {
		t.Fatalf("create reply: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	c3, err := a.CreateComment(ctx, writer, CommentCreate{Body: "later reply", ParentID: &c2.ID})
	if err != nil {
		t.Fatalf("create nested reply: %v", err)
	}

	if !c2.ThreadAt.Equal(c1.ThreadAt) || !c3.ThreadAt.Equal(c1.ThreadAt) {
		t.Fatalf("thread_at not inherited: %v %v %v", c1.ThreadAt, c2.ThreadAt, c3.ThreadAt)
	}
	if c2.BlogID != blog.ID || c3.BlogID != blog.ID {
		t.Fatal("replies should inherit the parent's blog")
	}
}

func TestCommentOrdering(t *testing.T) {
	a, writer, blog := newCommentFixture(t)
	ctx := context.Background()

	oldRoot, err := a.CreateComment(ctx, writer, CommentCreate{Body: "old thread", BlogID: &blog.ID})
	if err != nil {
		t.Fatalf("create old root: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	newRoot, err := a.CreateComment(ctx, writer, CommentCreate{Body: "new thread", BlogID: &blog.ID})
	if err != nil {
		t.Fatalf("create new root: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	// A late reply inside the old thread must not move it ahead.
	oldReply, err := a.CreateComment(ctx, writer, CommentCreate{Body: "late reply", ParentID: &oldRoot.ID})
	if err != nil {
		t.Fatalf("create late reply: %v", err)
	}

	comments, err := a.ListComments(ctx, ListCommentsRequest{BlogID: &blog.ID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(comments) != 3 {
		t.Fatalf("got %d comments, want 3", len(comments))
	}
	wantOrder := []int64{newRoot.ID, oldRoot.ID, oldReply.ID}
	for i, want := range wantOrder {
		if comments[i].ID != want {
			t.Fatalf("position %d = comment %d, want %d", i, comments[i].ID, want)
		}
	}
}

func TestCommentCreationDenials(t *testing.T) {
	a, writer, blog := newCommentFixture(t)
	ctx := context.Background()

	if _, err := a.CreateComment(ctx, writer, CommentCreate{Body: "floating"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("no blog and no parent: got %v, want ErrValidation", err)
	}
	if _, err := a.CreateComment(ctx, domain.Actor{}, CommentCreate{Body: "anon", BlogID: &blog.ID}); !errors.Is(err, ErrValidation) {
		t.Fatalf("anonymous author: got %v, want ErrValidation", err)
	}

	unconfirmed := domain.Actor{Account: &domain.Account{ID: 99, Username: "lurker"}}
	if _, err := a.CreateComment(ctx, unconfirmed, CommentCreate{Body: "hi", BlogID: &blog.ID}); !errors.Is(err, ErrValidation) {
		t.Fatalf("unconfirmed author: got %v, want ErrValidation", err)
	}

	closed, err := a.CreateBlog(ctx, writer, BlogCreate{Title: "No Comments Here", Published: true})
	if err != nil {
		t.Fatalf("create closed blog: %v", err)
	}
	if _, err := a.CreateComment(ctx, writer, CommentCreate{Body: "hi", BlogID: &closed.ID}); !errors.Is(err, ErrValidation) {
		t.Fatalf("comment-disabled blog: got %v, want ErrValidation", err)
	}

	if _, err := a.CreateComment(ctx, writer, CommentCreate{Body: "   ", BlogID: &blog.ID}); !errors.Is(err, ErrValidation) {
		t.Fatalf("blank body: got %v, want ErrValidation", err)
	}
}

func TestCommentReplyOverridesBlog(t *testing.T) {
	a, writer, blog := newCommentFixture(t)
	ctx := context.Background()

	other, err := a.CreateBlog(ctx, writer, BlogCreate{Title: "Other Post", Comment: true})
	if err != nil {
		t.Fatalf("create other blog: %v", err)
	}
	root, err := a.CreateComment(ctx, writer, CommentCreate{Body: "root", BlogID: &blog.ID})
	if err != nil {
		t.Fatalf("create root: %v", err)
	}
	reply, err := a.CreateComment(ctx, writer, CommentCreate{Body: "reply", BlogID: &other.ID, ParentID: &root.ID})
	if err != nil {
		t.Fatalf("create reply: %v", err)
	}
	if reply.BlogID != blog.ID {
		t.Fatalf("reply blog = %d, want parent's blog %d", reply.BlogID, blog.ID)
	}
}

func TestCommentCascadeDelete(t *testing.T) {
	a, writer, blog := newCommentFixture(t)
	ctx := context.Background()

	root, err := a.CreateComment(ctx, writer, CommentCreate{Body: "root", BlogID: &blog.ID})
	if err != nil {
		t.Fatalf("create root: %v", err)
	}
	mid, err := a.CreateComment(ctx, writer, CommentCreate{Body: "mid", ParentID: &root.ID})
	if err != nil {
		t.Fatalf("create mid: %v", err)
	}
	leaf, err := a.CreateComment(ctx, writer, CommentCreate{Body: "leaf", ParentID: &mid.ID})
	if err != nil {
		t.Fatalf("create leaf: %v", err)
	}
	sibling, err := a.CreateComment(ctx, writer, CommentCreate{Body: "sibling", ParentID: &root.ID})
	if err != nil {
		t.Fatalf("create sibling: %v", err)
	}

	if err := a.DeleteComment(ctx, writer, mid.ID); err != nil {
		t.Fatalf("delete mid: %v", err)
	}
	if _, err := a.GetComment(ctx, leaf.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("descendant should be cascade-deleted: %v", err)
	}
	if _, err := a.GetComment(ctx, root.ID); err != nil {
		t.Fatalf("ancestor should survive: %v", err)
	}
	if _, err := a.GetComment(ctx, sibling.ID); err != nil {
		t.Fatalf("unrelated sibling should survive: %v", err)
	}

	if err := a.DeleteComment(ctx, writer, root.ID); err != nil {
		t.Fatalf("delete root: %v", err)
	}
	remaining, err := a.ListComments(ctx, ListCommentsRequest{BlogID: &blog.ID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("thread should be empty after root delete, got %d", len(remaining))
	}
}

func TestCommentUpdateOwnership(t *testing.T) {
	a, writer, blog := newCommentFixture(t)
	ctx := context.Background()

	comment, err := a.CreateComment(ctx, writer, CommentCreate{Body: "original", BlogID: &blog.ID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	stranger := domain.Actor{Account: &domain.Account{ID: 555, Username: "stranger", Confirmed: true}}
	if _, err := a.UpdateComment(ctx, stranger, comment.ID, "defaced"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("stranger edit: got %v, want ErrForbidden", err)
	}
	if err := a.DeleteComment(ctx, stranger, comment.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("stranger delete: got %v, want ErrForbidden", err)
	}

	updated, err := a.UpdateComment(ctx, writer, comment.ID, "edited")
	if err != nil {
		t.Fatalf("author edit: %v", err)
	}
	if updated.Body != "edited" || updated.UpdatedAt == nil {
		t.Fatalf("edit not applied: %+v", updated)
	}

	admin := domain.Actor{Account: &domain.Account{ID: 556, Username: "root", Admin: true, Confirmed: true}}
	if err := a.DeleteComment(ctx, admin, comment.ID); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
}
