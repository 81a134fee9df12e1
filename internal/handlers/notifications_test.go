package handlers

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dimitrije/hackteams-api/internal/sse"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readUntil scans the stream until a line contains want.
func readUntil(t *testing.T, lines <-chan string, want string) {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case line, ok := <-lines:
			require.True(t, ok, "stream closed before %q", want)
			if strings.Contains(line, want) {
				return
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %q", want)
		}
	}
}

func TestNotificationHandler_StreamDeliversUserEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := sse.NewHub(nil)
	go hub.Run(ctx)

	jwtSvc := newTestJWTService()
	handler := NewNotificationHandler(hub)
	server := httptest.NewServer(newTestApp(jwtSvc, route{http.MethodGet, "/notifications/stream", handler.Stream}))
	defer server.Close()

	userID := uuid.New()
	token := generateTestToken(t, jwtSvc, userID, "ana@example.com")

	reqCtx, stopReq := context.WithCancel(ctx)
	defer stopReq()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, server.URL+"/notifications/stream", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	readUntil(t, lines, "connected")
	require.True(t, hub.Connected(userID))

	require.NoError(t, hub.PublishToUser(ctx, uuid.New(), sse.Event{Type: "other_user"}))
	require.NoError(t, hub.PublishToUser(ctx, userID, sse.Event{Type: "member_joined", Data: map[string]string{"team_name": "Builders"}}))

	readUntil(t, lines, "member_joined")

	stopReq()
	assert.Eventually(t, func() bool { return !hub.Connected(userID) }, 5*time.Second, 10*time.Millisecond)
}

func TestNotificationHandler_StreamRequiresAuth(t *testing.T) {
	hub := sse.NewHub(nil)
	handler := NewNotificationHandler(hub)
	app := newTestApp(newTestJWTService(), route{http.MethodGet, "/notifications/stream", handler.Stream})

	rec := do(t, app, http.MethodGet, "/notifications/stream", "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNotificationHandler_StreamReturnsAfterHubStops(t *testing.T) {
	hub := sse.NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	jwtSvc := newTestJWTService()
	handler := NewNotificationHandler(hub)
	app := newTestApp(jwtSvc, route{http.MethodGet, "/notifications/stream", handler.Stream})
	token := generateTestToken(t, jwtSvc, uuid.New(), "ana@example.com")

	finished := make(chan struct{})
	go func() {
		do(t, app, http.MethodGet, "/notifications/stream", token, nil)
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not return after the hub stopped")
	}
}
