// Package feed holds the view model behind the main incident feed: live
// post list, sorting and filtering, optimistic likes and comments, and new
// report submission.
package feed

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/centinela-app/centinela/internal/client/docstore"
	"github.com/centinela-app/centinela/internal/client/livequery"
	"github.com/centinela-app/centinela/internal/client/models"
	"github.com/centinela-app/centinela/internal/client/realtime"
	"github.com/centinela-app/centinela/internal/common"
	"github.com/centinela-app/centinela/internal/logging"
)

// Session identifies the signed-in user for attribution and like membership.
// A zero Session browses anonymously.
type Session struct {
	UID         string
	DisplayName string
}

func (s Session) Anonymous() bool { return s.UID == "" }

// SortMode selects the feed ordering.
type SortMode int

const (
	// SortRecency orders newest first.
	SortRecency SortMode = iota
	// SortPopularity orders by like count, newest first among equals.
	SortPopularity
)

// ViewModel is the state machine behind the feed screen. All exported
// methods are safe for concurrent use.
type ViewModel struct {
	conn    realtime.Conn
	store   docstore.Store
	session Session
	logger  logging.Logger
	clock   func() time.Time

	mu       sync.RWMutex
	posts    []models.Post
	liked    map[string]bool
	inflight map[string]struct{}
	sub      *livequery.Subscription
	onChange func([]models.Post)

	wg sync.WaitGroup
}

func NewViewModel(conn realtime.Conn, store docstore.Store, session Session, logger logging.Logger) *ViewModel {
	return &ViewModel{
		conn:     conn,
		store:    store,
		session:  session,
		logger:   logger,
		clock:    time.Now,
		liked:    make(map[string]bool),
		inflight: make(map[string]struct{}),
	}
}

// OnChange registers a hook invoked with the new post list after every
// applied snapshot. Must be set before Start.
func (vm *ViewModel) OnChange(fn func([]models.Post)) { vm.onChange = fn }

// Start opens the live query over the posts collection, newest first.
// Snapshots keep arriving until Stop.
func (vm *ViewModel) Start(ctx context.Context) error {
	q := realtime.Query{
		Collection: models.CollectionPosts,
		OrderBy:    "timestamp",
		Descending: true,
	}
	sub, err := livequery.Subscribe(ctx, vm.conn, q, vm.decodePost, vm.ApplySnapshot)
	if err != nil {
		return fmt.Errorf("subscribe posts: %w", err)
	}
	vm.mu.Lock()
	vm.sub = sub
	vm.mu.Unlock()
	return nil
}

// Stop tears down the live query and waits for in-flight writes to settle.
func (vm *ViewModel) Stop() {
	vm.mu.Lock()
	sub := vm.sub
	vm.sub = nil
	vm.mu.Unlock()
	if sub != nil {
		sub.Unsubscribe()
	}
	vm.wg.Wait()
}

func (vm *ViewModel) decodePost(rec realtime.Record) models.Post {
	return models.DecodePost(rec.ID, rec.Fields, vm.clock())
}

// ApplySnapshot replaces the post list with a freshly decoded one. The
// server list is authoritative; local optimistic counter adjustments do not
// survive it.
func (vm *ViewModel) ApplySnapshot(list []models.Post) {
	vm.mu.Lock()
	vm.posts = list
	fn := vm.onChange
	vm.mu.Unlock()
	if fn != nil {
		fn(list)
	}
}

// Posts returns a copy of the current list in server order.
func (vm *ViewModel) Posts() []models.Post {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	out := make([]models.Post, len(vm.posts))
	copy(out, vm.posts)
	return out
}

// SortedBy returns the current posts under the given ordering. The result
// is deterministic: ties break by creation time descending, then by id.
func (vm *ViewModel) SortedBy(mode SortMode) []models.Post {
	out := vm.Posts()
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if mode == SortPopularity && a.LikeCount != b.LikeCount {
			return a.LikeCount > b.LikeCount
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out
}

// FilteredBy returns posts whose title contains the query, case-insensitively.
// An empty query returns everything.
func (vm *ViewModel) FilteredBy(query string) []models.Post {
	all := vm.Posts()
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return all
	}
	out := all[:0]
	for _, p := range all {
		if strings.Contains(strings.ToLower(p.Title), query) {
			out = append(out, p)
		}
	}
	return out
}

// LikedByMe reports the local like membership for a post.
func (vm *ViewModel) LikedByMe(postID string) bool {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.liked[postID]
}

// ToggleLike flips the user's like on a post. State updates immediately;
// the remote write settles in the background and is never rolled back, the
// live snapshot reconciles any divergence. A second toggle for the same
// post while one is settling returns common.ErrToggleInFlight. The returned
// bool is the new membership.
func (vm *ViewModel) ToggleLike(ctx context.Context, postID string) (bool, error) {
	if vm.session.Anonymous() {
		return false, common.ErrPermissionDenied
	}

	key := postID + "|" + vm.session.UID

	vm.mu.Lock()
	if _, busy := vm.inflight[key]; busy {
		cur := vm.liked[postID]
		vm.mu.Unlock()
		return cur, common.ErrToggleInFlight
	}
	vm.inflight[key] = struct{}{}
	liked := !vm.liked[postID]
	vm.liked[postID] = liked
	vm.adjustLikeCountLocked(postID, liked)
	vm.mu.Unlock()

	// the write must outlive the caller's ctx: the flip already happened
	bgCtx := context.WithoutCancel(ctx)

	vm.wg.Add(1)
	go func() {
		defer vm.wg.Done()
		defer func() {
			vm.mu.Lock()
			delete(vm.inflight, key)
			vm.mu.Unlock()
		}()
		if err := vm.writeLike(bgCtx, postID, liked); err != nil {
			vm.logger.Warn(bgCtx, "like write failed", "post", postID, "error", err)
		}
	}()

	return liked, nil
}

// adjustLikeCountLocked applies the optimistic counter delta, clamped at zero.
func (vm *ViewModel) adjustLikeCountLocked(postID string, liked bool) {
	for i := range vm.posts {
		if vm.posts[i].ID != postID {
			continue
		}
		if liked {
			vm.posts[i].LikeCount++
		} else if vm.posts[i].LikeCount > 0 {
			vm.posts[i].LikeCount--
		}
		return
	}
}

func (vm *ViewModel) writeLike(ctx context.Context, postID string, liked bool) error {
	likePath := models.CollectionPosts + "/" + postID + "/" + models.SubcollectionLikes + "/" + vm.session.UID
	postPath := models.CollectionPosts + "/" + postID

	if liked {
		fields := map[string]any{"userId": vm.session.UID, "likedAt": vm.clock()}
		if err := vm.store.Set(ctx, likePath, fields); err != nil {
			return err
		}
		return vm.store.Update(ctx, postPath, []docstore.Update{
			{Field: "likesCount", Value: docstore.Increment(1)},
		})
	}

	if err := vm.store.Delete(ctx, likePath); err != nil {
		return err
	}
	return vm.store.Update(ctx, postPath, []docstore.Update{
		{Field: "likesCount", Value: docstore.Increment(-1)},
	})
}

// RefreshMembership reloads like membership for the visible posts from the
// store. Lookup failures leave the local flag untouched.
func (vm *ViewModel) RefreshMembership(ctx context.Context, postIDs []string) {
	if vm.session.Anonymous() {
		return
	}
	for _, id := range postIDs {
		path := models.CollectionPosts + "/" + id + "/" + models.SubcollectionLikes + "/" + vm.session.UID
		_, err := vm.store.Get(ctx, path)
		switch {
		case err == nil:
			vm.setLiked(id, true)
		case errors.Is(err, common.ErrNotFound):
			vm.setLiked(id, false)
		default:
			vm.logger.Warn(ctx, "membership lookup failed", "post", id, "error", err)
		}
	}
}

func (vm *ViewModel) setLiked(postID string, v bool) {
	vm.mu.Lock()
	vm.liked[postID] = v
	vm.mu.Unlock()
}

// SubmitComment appends a comment to a post and bumps its counter. The
// counter bump is applied locally first and the two remote writes are not
// transactional; the live snapshot is the reconciler.
func (vm *ViewModel) SubmitComment(ctx context.Context, postID, text string) (models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Comment{}, common.ErrEmptyComment
	}

	now := vm.clock()
	vm.mu.Lock()
	for i := range vm.posts {
		if vm.posts[i].ID == postID {
			vm.posts[i].CommentCount++
			break
		}
	}
	vm.mu.Unlock()

	fields := map[string]any{
		"text":      text,
		"createdAt": now,
	}
	if !vm.session.Anonymous() {
		fields["userId"] = vm.session.UID
		fields["userName"] = vm.session.DisplayName
	}

	collection := models.CollectionPosts + "/" + postID + "/" + models.SubcollectionComments
	id, err := vm.store.Add(ctx, collection, fields)
	if err != nil {
		return models.Comment{}, fmt.Errorf("add comment: %w", err)
	}

	err = vm.store.Update(ctx, models.CollectionPosts+"/"+postID, []docstore.Update{
		{Field: "commentsCount", Value: docstore.Increment(1)},
	})
	if err != nil {
		vm.logger.Warn(ctx, "comment counter bump failed", "post", postID, "error", err)
	}

	return models.Comment{
		ID:                id,
		PostID:            postID,
		AuthorID:          vm.session.UID,
		AuthorDisplayName: vm.session.DisplayName,
		Text:              text,
		CreatedAt:         now,
	}, nil
}

// SubmitPost validates a draft and creates the report. Returns the new
// post id.
func (vm *ViewModel) SubmitPost(ctx context.Context, draft models.PostDraft) (string, error) {
	if strings.TrimSpace(draft.Title) == "" || strings.TrimSpace(draft.Body) == "" {
		return "", common.ErrEmptyPostField
	}
	fields := draft.Fields(vm.session.UID, vm.session.DisplayName, vm.clock())
	id, err := vm.store.Add(ctx, models.CollectionPosts, fields)
	if err != nil {
		return "", fmt.Errorf("add post: %w", err)
	}
	return id, nil
}

// SubscribeComments opens a live query on a post's comments, oldest first.
func (vm *ViewModel) SubscribeComments(ctx context.Context, postID string, onChange func([]models.Comment)) (*livequery.Subscription, error) {
	q := realtime.Query{
		Collection: models.CollectionPosts + "/" + postID + "/" + models.SubcollectionComments,
		OrderBy:    "createdAt",
	}
	decode := func(rec realtime.Record) models.Comment {
		return models.DecodeComment(rec.ID, postID, rec.Fields, vm.clock())
	}
	return livequery.Subscribe(ctx, vm.conn, q, decode, onChange)
}

// Wait blocks until background like writes settle. Meant for shutdown and
// tests.
func (vm *ViewModel) Wait() { vm.wg.Wait() }
