package alert

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sample = &Notification{
	Title:         "Strong applicant",
	Body:          "Rent is 23% of income.",
	URL:           "https://roomivo.test/applications/a1",
	Score:         99,
	ApplicationID: "a1",
	PropertyName:  "Studio Latin Quarter",
	TenantName:    "Sophie Martin",
}

type stubNotifier struct {
	name string
	err  error
	got  []*Notification
}

func (s *stubNotifier) Name() string { return s.name }

func (s *stubNotifier) Send(_ context.Context, n *Notification) error {
	s.got = append(s.got, n)
	return s.err
}

func TestManager_BroadcastTriesEveryNotifier(t *testing.T) {
	failing := &stubNotifier{name: "bad", err: errors.New("boom")}
	ok := &stubNotifier{name: "good"}
	m := NewManager([]Notifier{failing, ok})

	err := m.Broadcast(context.Background(), sample)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad: boom")
	assert.Len(t, ok.got, 1)
	assert.True(t, m.HasNotifiers())
}

func TestManager_Empty(t *testing.T) {
	assert.False(t, NewManager(nil).HasNotifiers())
	assert.NoError(t, NewManager(nil).Broadcast(context.Background(), sample))

	var m *Manager
	assert.False(t, m.HasNotifiers())
}

func TestWebhook_SignsBody(t *testing.T) {
	var got Notification
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.True(t, Verify("s3cret", body, r.Header.Get(SignatureHeader)))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, EventApplicantFlagged, r.Header.Get(EventHeader))
		_, err = uuid.Parse(r.Header.Get(DeliveryHeader))
		assert.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	require.NoError(t, NewWebhook(srv.URL, "s3cret").Send(context.Background(), sample))
	assert.Equal(t, *sample, got)
}

func TestWebhook_UnsignedWithoutSecret(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get(SignatureHeader))
	}))
	defer srv.Close()

	assert.NoError(t, NewWebhook(srv.URL, "").Send(context.Background(), sample))
}

func TestVerify_RejectsTamperedBody(t *testing.T) {
	sig := Sign("k", []byte(`{"score":99}`))
	assert.True(t, Verify("k", []byte(`{"score":99}`), sig))
	assert.False(t, Verify("k", []byte(`{"score":10}`), sig))
	assert.False(t, Verify("other", []byte(`{"score":99}`), sig))
	assert.False(t, Verify("k", []byte(`{"score":99}`), strings.TrimPrefix(sig, "sha256=")))
	assert.False(t, Verify("k", []byte(`{"score":99}`), "sha256=zz"))
}

func TestNotifiers_StatusErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	for _, n := range []Notifier{NewSlack(srv.URL), NewDiscord(srv.URL), NewWebhook(srv.URL, "")} {
		t.Run(n.Name(), func(t *testing.T) {
			err := n.Send(context.Background(), sample)
			assert.ErrorContains(t, err, "status 502")
		})
	}
}

func TestSlack_Payload(t *testing.T) {
	var payload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
	}))
	defer srv.Close()

	require.NoError(t, NewSlack(srv.URL).Send(context.Background(), sample))
	assert.Equal(t, "Sophie Martin applied for Studio Latin Quarter (risk score 99/99)", payload["text"])
	assert.Len(t, payload["blocks"], 3)
}

func TestDiscord_Payload(t *testing.T) {
	var payload struct {
		Embeds []struct {
			Title string `json:"title"`
			Color int    `json:"color"`
			URL   string `json:"url"`
		} `json:"embeds"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
	}))
	defer srv.Close()

	require.NoError(t, NewDiscord(srv.URL).Send(context.Background(), sample))
	require.Len(t, payload.Embeds, 1)
	assert.Equal(t, "Strong applicant", payload.Embeds[0].Title)
	assert.Equal(t, 0x2ECC71, payload.Embeds[0].Color)
	assert.Equal(t, sample.URL, payload.Embeds[0].URL)
}
