package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/sakif/slay-vote/internal/model"
)

func TestNewHTTPGateway_RejectsBadURL(t *testing.T) {
	for _, u := range []string{"", "localhost:8080", "ftp://host", "http://"} {
		if _, err := NewHTTPGateway(u, nil); err == nil {
			t.Errorf("NewHTTPGateway(%q) should fail", u)
		}
	}
}

func TestHTTPGateway_LoginAndVote(t *testing.T) {
	var gotAuth, gotBody, gotPath string

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ Email string }
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"user":      map[string]any{"email": req.Email, "isLoggedIn": true},
			"token":     "tok",
			"expiresAt": time.Now().Add(time.Hour),
		})
	})
	mux.HandleFunc("PUT /api/votes/{id}", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.PathValue("id")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	gw, err := NewHTTPGateway(srv.URL, srv.Client())
	if err != nil {
		t.Fatal(err)
	}

	err = gw.UpsertVote(context.Background(), "cat1", model.Static("c1"), "ann@example.com")
	if !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("UpsertVote() without token error = %v, want ErrNotLoggedIn", err)
	}

	sess, err := gw.Login(context.Background(), "ann@example.com")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if !sess.User.LoggedIn || sess.Token != "tok" {
		t.Fatalf("Login() = %+v", sess)
	}
	gw.SetToken(sess.Token)

	if err := gw.UpsertVote(context.Background(), "cat1", model.WriteIn("Carl"), "ann@example.com"); err != nil {
		t.Fatalf("UpsertVote() error = %v", err)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotPath != "cat1" {
		t.Errorf("path category = %q", gotPath)
	}
	if gotBody != `{"candidateId":"custom:Carl"}` {
		t.Errorf("body = %s", gotBody)
	}
}

func TestHTTPGateway_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not_found","message":"category not found"}`))
	}))
	defer srv.Close()

	gw, _ := NewHTTPGateway(srv.URL, nil)
	gw.SetToken("tok")

	err := gw.UpsertVote(context.Background(), "nope", model.Static("c1"), "ann@example.com")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusNotFound || apiErr.Type != "not_found" {
		t.Errorf("APIError = %+v", apiErr)
	}
	if apiErr.Error() != "category not found" {
		t.Errorf("Error() = %q", apiErr.Error())
	}
}

func TestHTTPGateway_FetchVotes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"categoryId":"cat1","candidateId":"custom:Carl"}]`))
	}))
	defer srv.Close()

	gw, _ := NewHTTPGateway(srv.URL, nil)

	votes, err := gw.FetchAllVotes(context.Background())
	if err != nil {
		t.Fatalf("FetchAllVotes() error = %v", err)
	}
	if len(votes) != 1 || votes[0].Candidate != model.WriteIn("Carl") {
		t.Errorf("votes = %+v", votes)
	}

	if _, err := gw.FetchMyVotes(context.Background()); !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("FetchMyVotes() without token error = %v", err)
	}
}

func TestHTTPGateway_Subscribe(t *testing.T) {
	send := make(chan string)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/changes" {
			http.NotFound(w, r)
			return
		}
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.CloseNow()
		ctx := conn.CloseRead(r.Context())
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-send:
				if err := conn.Write(ctx, websocket.MessageText, []byte(msg)); err != nil {
					return
				}
			}
		}
	}))
	defer srv.Close()

	gw, _ := NewHTTPGateway(srv.URL, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub, err := gw.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	send <- "hello"
	send <- "refresh"
	select {
	case <-sub.Changes():
	case <-ctx.Done():
		t.Fatal("no change signal received")
	}

	_ = sub.Close()
	if _, ok := <-sub.Changes(); ok {
		t.Error("Changes() should be closed after Close()")
	}
	if err := sub.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
