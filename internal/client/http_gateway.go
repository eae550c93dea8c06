package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/sakif/slay-vote/internal/model"
)

// HTTPGateway talks to the vote server's JSON API and change stream.
type HTTPGateway struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

var _ Gateway = (*HTTPGateway)(nil)

// NewHTTPGateway returns a gateway for the server at baseURL, e.g.
// "http://localhost:8080". A nil client means a client with a 10 second
// timeout.
func NewHTTPGateway(baseURL string, hc *http.Client) (*HTTPGateway, error) {
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("client: invalid server URL %q", baseURL)
	}
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPGateway{baseURL: strings.TrimRight(baseURL, "/"), http: hc}, nil
}

// SetToken sets the bearer token sent with every request. An empty
// token logs the gateway out.
func (g *HTTPGateway) SetToken(token string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.token = token
}

func (g *HTTPGateway) bearer() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.token
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Type    string `json:"error"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("server returned %d", e.Status)
}

func (g *HTTPGateway) do(ctx context.Context, method, path string, body, dst any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: encoding request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("client: building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := g.bearer(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}

	if dst == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("client: decoding %s response: %w", path, err)
	}
	return nil
}

// Login signs in by email. The returned session carries the token; the
// caller decides whether to keep it (see App.Login).
func (g *HTTPGateway) Login(ctx context.Context, email string) (Session, error) {
	var res struct {
		User      model.User `json:"user"`
		Token     string     `json:"token"`
		ExpiresAt time.Time  `json:"expiresAt"`
	}
	if err := g.do(ctx, http.MethodPost, "/auth/login", map[string]string{"email": email}, &res); err != nil {
		return Session{}, err
	}
	return Session{User: res.User, Token: res.Token, ExpiresAt: res.ExpiresAt}, nil
}

func (g *HTTPGateway) FetchCategories(ctx context.Context) ([]model.Category, error) {
	var cats []model.Category
	if err := g.do(ctx, http.MethodGet, "/api/categories", nil, &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

func (g *HTTPGateway) FetchAllVotes(ctx context.Context) ([]model.Vote, error) {
	var votes []model.Vote
	if err := g.do(ctx, http.MethodGet, "/api/votes", nil, &votes); err != nil {
		return nil, err
	}
	return votes, nil
}

func (g *HTTPGateway) FetchMyVotes(ctx context.Context) ([]model.Vote, error) {
	if g.bearer() == "" {
		return nil, ErrNotLoggedIn
	}
	var votes []model.Vote
	if err := g.do(ctx, http.MethodGet, "/api/votes/mine", nil, &votes); err != nil {
		return nil, err
	}
	return votes, nil
}

// UpsertVote stores the vote. The server takes the voter from the
// session token; voterEmail only guards against voting with no session.
func (g *HTTPGateway) UpsertVote(ctx context.Context, categoryID string, ref model.CandidateRef, voterEmail string) error {
	if voterEmail == "" || g.bearer() == "" {
		return ErrNotLoggedIn
	}
	body := map[string]model.CandidateRef{"candidateId": ref}
	return g.do(ctx, http.MethodPut, "/api/votes/"+url.PathEscape(categoryID), body, nil)
}

// Subscribe opens the websocket change stream.
func (g *HTTPGateway) Subscribe(ctx context.Context) (Subscription, error) {
	wsURL := "ws" + strings.TrimPrefix(g.baseURL, "http") + "/api/changes"

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("client: opening change stream: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &wsSubscription{
		conn:    conn,
		changes: make(chan struct{}, 1),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go s.read(ctx)
	return s, nil
}

type wsSubscription struct {
	conn    *websocket.Conn
	changes chan struct{}
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
}

func (s *wsSubscription) Changes() <-chan struct{} { return s.changes }

func (s *wsSubscription) read(ctx context.Context) {
	defer close(s.done)
	defer close(s.changes)

	for {
		_, msg, err := s.conn.Read(ctx)
		if err != nil {
			return
		}
		if string(msg) != "refresh" {
			continue
		}
		select {
		case s.changes <- struct{}{}:
		default:
			// a refresh is already pending
		}
	}
}

// Close ends the stream and waits for the reader to stop. Closing a
// stream that already dropped is not an error.
func (s *wsSubscription) Close() error {
	var err error
	s.once.Do(func() {
		select {
		case <-s.done:
			s.cancel()
			_ = s.conn.CloseNow()
			return
		default:
		}
		err = s.conn.Close(websocket.StatusNormalClosure, "unsubscribe")
		s.cancel()
		<-s.done
	})
	return err
}
