package mailer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendGridPostsMessage(t *testing.T) {
	var body map[string]interface{}
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	m := NewSendGrid("SG.key", "Seat Desk", "desk@example.com")
	m.host = srv.URL
	err := m.Send(context.Background(), Message{ToName: "Asha", ToEmail: "asha@example.com", Subject: "Renewal due", Text: "hi"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer SG.key", auth)
	personalizations := body["personalizations"].([]interface{})
	first := personalizations[0].(map[string]interface{})
	assert.Equal(t, "[Seat Desk] Renewal due", first["subject"])
}

func TestSendGridSurfacesRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	m := NewSendGrid("bad", "Seat Desk", "desk@example.com")
	m.host = srv.URL
	assert.Error(t, m.Send(context.Background(), Message{ToEmail: "a@example.com", Subject: "x", Text: "y"}))
	assert.Error(t, m.Send(context.Background(), Message{}))
}

func TestLogMailerNeverFails(t *testing.T) {
	assert.NoError(t, NewLogMailer(nil).Send(context.Background(), Message{ToEmail: "a@example.com"}))
}
