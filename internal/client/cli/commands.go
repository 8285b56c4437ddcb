package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/centinela-app/centinela/internal/client/alert"
	"github.com/centinela-app/centinela/internal/client/feed"
	"github.com/centinela-app/centinela/internal/client/mapbridge"
	"github.com/centinela-app/centinela/internal/client/models"
	"github.com/centinela-app/centinela/internal/common"
)

// List prints the feed. Mode "top" orders by popularity, anything else by
// recency.
func (a *App) List(ctx context.Context, mode string) {
	sort := feed.SortRecency
	if mode == "top" {
		sort = feed.SortPopularity
	}
	a.printPosts(ctx, a.feed.SortedBy(sort))
}

// Find prints the posts whose title matches the query.
func (a *App) Find(ctx context.Context, query string) {
	a.printPosts(ctx, a.feed.FilteredBy(query))
}

func (a *App) printPosts(ctx context.Context, posts []models.Post) {
	if len(posts) == 0 {
		printlnFn("No reports.")
		return
	}
	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	a.feed.RefreshMembership(ctx, ids)

	for _, p := range posts {
		mark := " "
		if a.feed.LikedByMe(p.ID) {
			mark = "*"
		}
		author := p.AuthorDisplayName
		if p.Anonymous() {
			author = "Anónimo"
		}
		printlnFn(fmt.Sprintf("%s [%s] %s — %s (%d likes, %d comments) %s",
			mark, p.ID, p.Title, author, p.LikeCount, p.CommentCount, p.CreatedAt.Format(time.RFC822)))
	}
}

// Like toggles the user's like on a post.
func (a *App) Like(ctx context.Context, id string) {
	liked, err := a.feed.ToggleLike(ctx, id)
	switch {
	case errors.Is(err, common.ErrToggleInFlight):
		printlnFn("Still saving your previous tap, try again in a moment.")
	case errors.Is(err, common.ErrPermissionDenied):
		printlnFn("Sign in to like reports (start with -u <user id>).")
	case err != nil:
		printlnFn(fmt.Sprintf("Like failed: %v", err))
	case liked:
		printlnFn("Liked.")
	default:
		printlnFn("Like removed.")
	}
}

// Comment appends a comment to a post.
func (a *App) Comment(ctx context.Context, id, text string) {
	c, err := a.feed.SubmitComment(ctx, id, text)
	switch {
	case errors.Is(err, common.ErrEmptyComment):
		printlnFn("Cannot send an empty comment.")
	case err != nil:
		printlnFn(fmt.Sprintf("Comment failed: %v", err))
	default:
		printlnFn(fmt.Sprintf("Comment %s published.", c.ID))
	}
}

// Post interactively collects a draft and publishes it.
func (a *App) Post(ctx context.Context) error {
	title, err := GetSimpleText(a.reader, "Title of the report", os.Stdout)
	if err != nil {
		return err
	}
	body, err := GetSimpleText(a.reader, "What happened?", os.Stdout)
	if err != nil {
		return err
	}
	place, err := GetSimpleText(a.reader, "Where? (optional)", os.Stdout)
	if err != nil {
		return err
	}

	id, err := a.feed.SubmitPost(ctx, models.PostDraft{Title: title, Body: body, Location: place})
	if errors.Is(err, common.ErrEmptyPostField) {
		printlnFn("Title and description are both required.")
		return nil
	}
	if err != nil {
		printlnFn(fmt.Sprintf("Publish failed: %v", err))
		return err
	}
	printlnFn(fmt.Sprintf("Report %s published.", id))
	return nil
}

// SOS dispatches an emergency alert, reporting progress as it happens.
func (a *App) SOS(ctx context.Context, category string) {
	cat := models.CategoryFromLabel(category)
	if cat == models.CategoryOther {
		printlnFn("Unknown category. Use police, ambulance or fire.")
		return
	}

	a.dispatcher.OnState(func(s alert.State) {
		printlnFn(fmt.Sprintf("  ... %s", s))
	})

	sent, err := a.dispatcher.Send(ctx, cat)
	if err != nil {
		printlnFn("Could not send the alert. Check your connection and RETRY.")
		return
	}
	where := "no location"
	if sent.Coordinates != nil {
		where = sent.Coordinates.String()
	}
	printlnFn(fmt.Sprintf("Alert %s sent (%s, %s).", sent.ID, sent.Category.WireLabel(), where))
}

// Alerts prints the live emergency alerts, newest first.
func (a *App) Alerts(ctx context.Context) {
	alerts := a.alerts.Alerts()
	if len(alerts) == 0 {
		printlnFn("No active alerts.")
		return
	}
	for _, al := range alerts {
		dist := a.alerts.DistanceLabel(al)
		if dist != "" {
			dist = " " + dist
		}
		printlnFn(fmt.Sprintf("[%s] %s %s%s", al.ID, al.Category.WireLabel(), al.CreatedAt.Format(time.RFC822), dist))
	}
}

// Map prints the payload the embedded map surface would receive.
func (a *App) Map(ctx context.Context) {
	var current *models.Coordinates
	if c, ok := a.cache.Get(); ok {
		current = &c
	}
	msg := mapbridge.Project(a.alerts.Alerts(), current)
	raw, err := mapbridge.Encode(msg)
	if err != nil {
		printlnFn(fmt.Sprintf("Map payload failed: %v", err))
		return
	}
	printlnFn(string(raw))
}

// SetLocation stores a manual device position in the shared cache.
func (a *App) SetLocation(ctx context.Context, latStr, lonStr string) {
	lat, err1 := strconv.ParseFloat(latStr, 64)
	lon, err2 := strconv.ParseFloat(lonStr, 64)
	if err1 != nil || err2 != nil {
		printlnFn("usage: setloc <lat> <lon>")
		return
	}
	a.cache.Set(models.Coordinates{Lat: lat, Lon: lon})
	printlnFn("Position updated.")
}
