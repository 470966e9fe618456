package armory

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestClient returns a client pointed at srv with retries that never sleep.
func newTestClient(srv *httptest.Server, retries int) *Client {
	c := New(srv.URL, "en_US", retries, srv.Client(), zap.NewNop())
	c.sleepFunc = func(ctx context.Context, d time.Duration) error { return nil }
	return c
}

func TestGuildRoster(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/wow/guild/area-52/the-order/roster", r.URL.Path)
		assert.Equal(t, "profile-us", r.URL.Query().Get("namespace"))
		assert.Equal(t, "en_US", r.URL.Query().Get("locale"))
		w.Write([]byte(`{
			"guild": {"id": 7, "name": "The Order", "realm": {"slug": "area-52"}},
			"members": [
				{"rank": 0, "character": {"name": "Anna", "realm": {"slug": "area-52"}, "level": 80, "playable_class": {"id": 8}}},
				{"rank": 1, "character": {"name": "Bob", "realm": {"slug": "area-52"}, "level": 70, "playable_class": {"id": 1, "name": "Warrior"}}}
			]
		}`))
	}))
	defer srv.Close()

	roster, err := newTestClient(srv, 0).GuildRoster(context.Background(), "US", "Area 52", "The Order")
	require.NoError(t, err)
	require.Len(t, roster.Members, 2)
	assert.Equal(t, int64(7), roster.Guild.ID)
	assert.Equal(t, "Mage", roster.Members[0].Character.ClassName())
	assert.Equal(t, "Warrior", roster.Members[1].Character.ClassName())
	assert.Equal(t, 1, roster.Members[1].Rank)
}

func TestGuildData_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":404}`, http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(srv, 3).GuildData(context.Background(), "eu", "draenor", "gone")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestDo_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"id": 1, "name": "The Order", "realm": {"slug": "area-52"}}`))
	}))
	defer srv.Close()

	guild, err := newTestClient(srv, 3).GuildData(context.Background(), "us", "area-52", "the-order")
	require.NoError(t, err)
	assert.Equal(t, "The Order", guild.Name)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDo_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(srv, 2).GuildData(context.Background(), "us", "area-52", "the-order")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrThrottled))
	assert.False(t, IsNotFound(err))
	assert.Equal(t, int32(3), calls.Load())
}

func TestCharacterProfile_MissingSectionsAreOptional(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/profile/wow/character/area-52/anna":
			w.Write([]byte(`{"id": 42, "name": "Anna", "realm": {"slug": "area-52"}, "level": 80,
				"character_class": {"id": 8, "name": "Mage"},
				"guild": {"id": 7, "name": "The Order", "realm": {"slug": "area-52"}}}`))
		case "/profile/wow/character/area-52/anna/equipment":
			w.Write([]byte(`{"equipped_items": []}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	bundle, err := newTestClient(srv, 0).CharacterProfile(context.Background(), "us", "area-52", "Anna")
	require.NoError(t, err)
	assert.Equal(t, int64(42), bundle.Summary.ID)
	require.NotNil(t, bundle.Summary.Guild)
	assert.Equal(t, int64(7), bundle.Summary.Guild.ID)
	assert.JSONEq(t, `{"equipped_items": []}`, string(bundle.Equipment))
	assert.Nil(t, bundle.MythicKeystone)
	assert.Nil(t, bundle.Professions)
}

func TestCharacterProfile_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	bundle, err := newTestClient(srv, 0).CharacterProfile(context.Background(), "us", "area-52", "Gone")
	assert.Nil(t, bundle)
	assert.True(t, IsNotFound(err))
}

func TestFollow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/profile/wow/character/area-52/anna/collections/mounts", r.URL.Path)
		assert.Equal(t, "profile-us", r.URL.Query().Get("namespace"))
		assert.Equal(t, "en_US", r.URL.Query().Get("locale"))
		w.Write([]byte(`{"mounts": [{"mount": {"id": 6}}, {"mount": {"id": 2}}]}`))
	}))
	defer srv.Close()

	var mounts MountsCollection
	href := srv.URL + "/profile/wow/character/area-52/anna/collections/mounts?namespace=profile-us"
	require.NoError(t, newTestClient(srv, 0).Follow(context.Background(), href, &mounts))
	assert.Len(t, mounts.Mounts, 2)
}

func TestCalcBackoff(t *testing.T) {
	c := New("", "", 0, nil, nil)
	for attempt := 0; attempt < 10; attempt++ {
		d := c.calcBackoff(attempt)
		assert.Greater(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, time.Duration(float64(maxBackoff)*(1+jitterFraction)))
	}
}
