package scheduler

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"roster-sync/feature/guild"
	"roster-sync/feature/models"
	"roster-sync/feature/store"
	"roster-sync/feature/store/storetest"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestApp(t *testing.T, g *fakeGuilds) (*fiber.App, *Orchestrator, *store.Store) {
	s := storetest.New(t)
	o := newOrchestrator(t, s, g, &fakeCharacters{})

	app := fiber.New()
	require.NoError(t, NewFeature(o, s, zap.NewNop()).Load(app))
	return app, o, s
}

func doRequest(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func TestHandler_Status(t *testing.T) {
	app, o, _ := newTestApp(t, &fakeGuilds{})

	code, body := doRequest(t, app, "GET", "/sync/status", "")
	assert.Equal(t, 200, code)
	assert.Equal(t, "idle", body["state"])
	assert.NotContains(t, body, "last_report")

	_, err := o.RunSync(context.Background())
	require.NoError(t, err)

	_, body = doRequest(t, app, "GET", "/sync/status", "")
	assert.Contains(t, body, "last_report")
}

func TestHandler_RunAndAbort(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	g := &fakeGuilds{sync: func(*models.Guild) (guild.Outcome, error) {
		close(entered)
		<-release
		return guild.Synced, nil
	}}
	app, o, s := newTestApp(t, g)
	_, _, err := s.Guilds.Register(context.Background(), "us", "area-52", "Slow")
	require.NoError(t, err)

	code, _ := doRequest(t, app, "POST", "/sync/run", "")
	assert.Equal(t, 202, code)
	<-entered

	code, body := doRequest(t, app, "POST", "/sync/run", "")
	assert.Equal(t, 409, code)
	assert.Equal(t, ErrAlreadyRunning.Error(), body["error"])

	code, body = doRequest(t, app, "POST", "/sync/abort", "")
	assert.Equal(t, 200, code)
	assert.Equal(t, true, body["aborted"])
	assert.Equal(t, AbortRequested, o.State())

	close(release)
	o.Wait()
	assert.True(t, o.LastReport().Aborted)

	_, body = doRequest(t, app, "POST", "/sync/abort", "")
	assert.Equal(t, false, body["aborted"])
}

func TestHandler_RegisterGuild(t *testing.T) {
	g := &fakeGuilds{}
	app, o, s := newTestApp(t, g)

	code, body := doRequest(t, app, "POST", "/guilds", `{"region":"US","realm":"Area 52","name":"Raid Team"}`)
	assert.Equal(t, 201, code)
	assert.Equal(t, "area-52", body["realm"])
	assert.Equal(t, "us", body["region"])

	o.Wait()
	require.Eventually(t, func() bool { return len(g.calls()) > 0 }, time.Second, 5*time.Millisecond)

	code, _ = doRequest(t, app, "POST", "/guilds", `{"region":"us","realm":"area-52","name":"raid team"}`)
	assert.Equal(t, 200, code)
	o.Wait()

	found, err := s.Guilds.FindByName(context.Background(), "us", "area-52", "Raid Team")
	require.NoError(t, err)
	assert.Equal(t, uint(body["id"].(float64)), found.ID)

	code, _ = doRequest(t, app, "POST", "/guilds", `{"region":"us"}`)
	assert.Equal(t, 400, code)

	code, _ = doRequest(t, app, "POST", "/guilds", `{not json`)
	assert.Equal(t, 400, code)
}

func TestHandler_IncludeGuild(t *testing.T) {
	app, o, s := newTestApp(t, &fakeGuilds{})
	ctx := context.Background()

	g, _, err := s.Guilds.Register(ctx, "us", "area-52", "Gone")
	require.NoError(t, err)
	require.NoError(t, s.Guilds.Exclude(ctx, g.ID, time.Now().UTC()))

	code, _ := doRequest(t, app, "POST", "/guilds/"+itoa(g.ID)+"/include", "")
	assert.Equal(t, 204, code)
	o.Wait()

	loaded, err := s.Guilds.FindByID(ctx, g.ID)
	require.NoError(t, err)
	assert.False(t, loaded.ExcludedFromSync)

	code, _ = doRequest(t, app, "POST", "/guilds/999/include", "")
	assert.Equal(t, 404, code)

	code, _ = doRequest(t, app, "POST", "/guilds/abc/include", "")
	assert.Equal(t, 400, code)
}

func TestHandler_ResetCharacter(t *testing.T) {
	app, _, s := newTestApp(t, &fakeGuilds{})
	ctx := context.Background()

	c := &models.Character{Name: "a", Realm: "r", Region: "us", IdentityKey: "a-r", Role: "DPS", ConsecutiveUpdateFailures: 9}
	require.NoError(t, s.Characters.CreateBatch(ctx, []*models.Character{c}, 1))

	code, _ := doRequest(t, app, "POST", "/characters/"+itoa(c.ID)+"/reset", "")
	assert.Equal(t, 204, code)

	loaded, err := s.Characters.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Zero(t, loaded.ConsecutiveUpdateFailures)

	code, _ = doRequest(t, app, "POST", "/characters/999/reset", "")
	assert.Equal(t, 404, code)
}

func TestHandler_RenameRank(t *testing.T) {
	app, _, s := newTestApp(t, &fakeGuilds{})
	ctx := context.Background()

	g, _, err := s.Guilds.Register(ctx, "us", "area-52", "Raid Team")
	require.NoError(t, err)
	require.NoError(t, s.Ranks.Create(ctx, &models.Rank{GuildID: g.ID, RankID: 3, RankName: "Rank 3", MemberCount: 2}))

	path := "/guilds/" + itoa(g.ID) + "/ranks/3"
	code, _ := doRequest(t, app, "PUT", path, `{"name":" Raiders "}`)
	assert.Equal(t, 204, code)

	ranks, err := s.Ranks.FindByGuild(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, ranks, 1)
	assert.Equal(t, "Raiders", ranks[0].RankName)
	assert.Equal(t, 2, ranks[0].MemberCount)

	code, _ = doRequest(t, app, "PUT", "/guilds/"+itoa(g.ID)+"/ranks/9", `{"name":"Nope"}`)
	assert.Equal(t, 404, code)

	code, _ = doRequest(t, app, "PUT", path, `{"name":"  "}`)
	assert.Equal(t, 400, code)

	code, _ = doRequest(t, app, "PUT", "/guilds/"+itoa(g.ID)+"/ranks/-1", `{"name":"x"}`)
	assert.Equal(t, 400, code)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
