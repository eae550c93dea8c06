package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sakif/slay-vote/internal/model"
	"github.com/sakif/slay-vote/internal/tally"
)

// Notifier shows errors to the user.
type Notifier interface {
	Notify(err error)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(err error)

func (f NotifierFunc) Notify(err error) { f(err) }

// Snapshot is a consistent, caller-owned copy of the application state.
type Snapshot struct {
	User       model.User
	Categories []model.Category
	Votes      []model.Vote
	Results    tally.Dashboard
	Current    int               // index into Categories, -1 if none
	Draft      string            // pending write-in text in Current
	Mine       map[string]string // category ID → wire form of own choice
	Refreshed  time.Time
}

// CurrentCategory returns the category under the cursor.
func (s Snapshot) CurrentCategory() (model.Category, bool) {
	if s.Current < 0 || s.Current >= len(s.Categories) {
		return model.Category{}, false
	}
	return s.Categories[s.Current], true
}

// MyChoice returns the user's vote in categoryID, if any.
func (s Snapshot) MyChoice(categoryID string) (model.CandidateRef, bool) {
	wire, ok := s.Mine[categoryID]
	if !ok {
		return model.CandidateRef{}, false
	}
	return model.ParseCandidateRef(wire), true
}

// App is the client application state: the session, the category cursor
// and the latest vote snapshot. The snapshot is only ever replaced as a
// whole.
type App struct {
	gateway  Gateway
	sessions SessionStore
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time

	mu         sync.RWMutex
	session    Session
	categories []model.Category
	votes      []model.Vote
	mine       map[string]string
	refreshed  time.Time
	nav        *Navigator

	// Rendered is called after every successful refresh, from the
	// goroutine that did the refresh. Optional.
	Rendered func(Snapshot)
}

func NewApp(gw Gateway, sessions SessionStore, notifier Notifier, logger *slog.Logger) *App {
	if notifier == nil {
		notifier = NotifierFunc(func(error) {})
	}
	return &App{
		gateway:  gw,
		sessions: sessions,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
		mine:     map[string]string{},
		nav:      NewNavigator(0),
	}
}

// Start restores a stored session, loads the categories and fetches the
// first vote snapshot. An expired stored session is cleared.
func (a *App) Start(ctx context.Context) error {
	sess, ok, err := a.sessions.Get()
	if err != nil {
		a.logger.Warn("ignoring unreadable session", slog.String("error", err.Error()))
	}
	if ok && sess.Valid(a.now()) {
		a.setSession(sess)
	} else if ok {
		_ = a.sessions.Clear()
	}

	cats, err := a.gateway.FetchCategories(ctx)
	if err != nil {
		return fmt.Errorf("loading categories: %w", err)
	}
	a.mu.Lock()
	a.categories = cats
	a.nav.Reset(len(cats))
	a.mu.Unlock()

	return a.Refresh(ctx)
}

func (a *App) setSession(sess Session) {
	a.mu.Lock()
	a.session = sess
	a.mu.Unlock()
	a.gateway.SetToken(sess.Token)
}

// User returns the acting user; LoggedIn is false when signed out.
func (a *App) User() model.User {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session.User
}

// Login signs in and persists the session.
func (a *App) Login(ctx context.Context, email string) error {
	sess, err := a.gateway.Login(ctx, email)
	if err != nil {
		return err
	}
	if err := a.sessions.Set(sess); err != nil {
		return err
	}
	a.setSession(sess)
	a.logger.Info("logged in", slog.String("email", sess.User.Email))
	return a.Refresh(ctx)
}

// Logout forgets the session locally and in the store.
func (a *App) Logout() error {
	a.setSession(Session{})
	a.mu.Lock()
	a.mine = map[string]string{}
	a.mu.Unlock()
	return a.sessions.Clear()
}

// Vote submits the user's choice in categoryID.
//
// Without a logged-in user this does nothing. A failed submission is
// reported through the Notifier and leaves the local snapshot as it was;
// there is no retry. A successful one triggers a full refresh rather
// than patching the snapshot locally.
func (a *App) Vote(ctx context.Context, categoryID string, ref model.CandidateRef) error {
	user := a.User()
	if !user.LoggedIn {
		return nil
	}

	if err := a.gateway.UpsertVote(ctx, categoryID, ref, user.Email); err != nil {
		err = fmt.Errorf("vote not saved: %w", err)
		a.notifier.Notify(err)
		return err
	}

	a.mu.Lock()
	a.nav.SetDraft("")
	a.mu.Unlock()

	return a.Refresh(ctx)
}

// Refresh fetches the full vote set and replaces the snapshot. If two
// refreshes overlap, whichever finishes last wins; any complete snapshot
// tallies correctly.
func (a *App) Refresh(ctx context.Context) error {
	votes, err := a.gateway.FetchAllVotes(ctx)
	if err != nil {
		return fmt.Errorf("fetching votes: %w", err)
	}

	mine := map[string]string{}
	if a.User().LoggedIn {
		own, err := a.gateway.FetchMyVotes(ctx)
		if err != nil {
			a.logger.Warn("failed to fetch own votes", slog.String("error", err.Error()))
		}
		for _, v := range own {
			mine[v.CategoryID] = v.Candidate.String()
		}
	}

	a.mu.Lock()
	a.votes = votes
	a.mine = mine
	a.refreshed = a.now()
	a.mu.Unlock()

	if a.Rendered != nil {
		a.Rendered(a.Snapshot())
	}
	return nil
}

// Run is the reconciliation loop. It subscribes to changes once, then
// refreshes on every signal until ctx is cancelled or the feed closes.
// Refresh errors are logged and the loop keeps going; the next signal
// retries naturally.
func (a *App) Run(ctx context.Context) error {
	sub, err := a.gateway.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribing to changes: %w", err)
	}
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-sub.Changes():
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("change feed closed")
			}
			if err := a.Refresh(ctx); err != nil && ctx.Err() == nil {
				a.logger.Warn("refresh failed", slog.String("error", err.Error()))
			}
		}
	}
}

// Next moves to the following category, wrapping at the end.
func (a *App) Next() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nav.Next()
}

// Prev moves to the previous category, wrapping at the start.
func (a *App) Prev() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nav.Prev()
}

// SetDraft records write-in text typed in the current category.
func (a *App) SetDraft(s string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nav.SetDraft(s)
}

// Snapshot returns a copy of the state with results tallied from it.
func (a *App) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	s := Snapshot{
		User:       a.session.User,
		Categories: append([]model.Category(nil), a.categories...),
		Votes:      append([]model.Vote(nil), a.votes...),
		Current:    a.nav.Index(),
		Draft:      a.nav.Draft(),
		Mine:       make(map[string]string, len(a.mine)),
		Refreshed:  a.refreshed,
	}
	for k, v := range a.mine {
		s.Mine[k] = v
	}
	s.Results = tally.Summarize(s.Categories, s.Votes)
	return s
}
