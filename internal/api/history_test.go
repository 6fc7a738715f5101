package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_RoomHistory(t *testing.T) {
	var gotPath string
	var gotCookie *http.Cookie
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotCookie, _ = r.Cookie("JSESSIONID")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"chatMessages": [
				{"chatRoomId": 3, "memberId": 100, "nickname": "mentor", "content": "welcome", "createdAt": "2024-03-01T10:00:00", "owner": false},
				{"chatRoomId": 3, "memberId": 200, "nickname": "mentee", "content": "thanks", "createdAt": "2024-03-01T10:01:00", "owner": true}
			],
			"chatMembers": [
				{"chatRoomMemberId": 11, "chatRoomId": 3, "nickname": "mentor"},
				{"chatRoomMemberId": 12, "chatRoomId": 3, "nickname": "mentee"}
			],
			"name": "spring backend study",
			"currentChatMemberId": 12
		}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "JSESSIONID", "abc123", zerolog.Nop())

	history, err := client.RoomHistory(context.Background(), 3)

	require.NoError(t, err)
	assert.Equal(t, "/api/v1/chatRoom/history/3", gotPath)
	require.NotNil(t, gotCookie, "session cookie is attached to the request")
	assert.Equal(t, "abc123", gotCookie.Value)

	assert.Equal(t, "spring backend study", history.Name)
	assert.Equal(t, 12, history.CurrentChatMemberID)
	require.Len(t, history.ChatMessages, 2)
	assert.Equal(t, "welcome", history.ChatMessages[0].Content)
	assert.False(t, history.ChatMessages[0].Owner)
	assert.True(t, history.ChatMessages[1].Owner)
	require.Len(t, history.ChatMembers, 2)
	assert.Equal(t, 11, history.ChatMembers[0].ChatRoomMemberID)
}

func TestClient_RoomHistory_NoCookieWithoutSession(t *testing.T) {
	var hadCookie bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := r.Cookie("JSESSIONID")
		hadCookie = err == nil
		w.Write([]byte(`{"chatMessages":[],"chatMembers":[],"name":"","currentChatMemberId":1}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "JSESSIONID", "", zerolog.Nop())

	_, err := client.RoomHistory(context.Background(), 1)

	require.NoError(t, err)
	assert.False(t, hadCookie, "no cookie header when the session value is empty")
}

func TestClient_RoomHistory_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "unauthorized status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
		},
		{
			name: "invalid body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("<html>not json</html>"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			client := NewClient(srv.URL, "JSESSIONID", "abc", zerolog.Nop())
			_, err := client.RoomHistory(context.Background(), 1)

			assert.ErrorIs(t, err, ErrHistoryLoad)
		})
	}
}

func TestClient_RoomHistory_ConnectionRefused(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "JSESSIONID", "abc", zerolog.Nop())

	_, err := client.RoomHistory(context.Background(), 1)

	assert.ErrorIs(t, err, ErrHistoryLoad)
}
