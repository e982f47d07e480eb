package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ashfall-games/wasteland/internal/game/dice"
	"github.com/ashfall-games/wasteland/internal/game/service"
	"github.com/ashfall-games/wasteland/internal/rules"
	"github.com/ashfall-games/wasteland/internal/session"
	"github.com/ashfall-games/wasteland/internal/storage"
)

type fixedSource struct{ v int }

func (s fixedSource) Intn(n int) int { return s.v % n }

func testRules() *rules.Dataset {
	return &rules.Dataset{
		Special: rules.SpecialRules{Min: 1, Max: 10, PointBudget: 28},
		Skills: []rules.Skill{
			{Name: "Crafting", BaseFormula: "(I - 5)"},
		},
		Crafting: map[string]any{
			"CraftableItems": map[string]any{
				"Tools": []any{
					map[string]any{
						"Name": "Lockpick Set",
						"Craft": map[string]any{
							"Materials": []any{"x2 scrap metal"},
							"DC":        float64(10),
						},
					},
				},
			},
		},
	}
}

type fixture struct {
	svc    *service.GameService
	server *httptest.Server
	client *http.Client
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zap.NewNop()
	registry := session.NewRegistry("", logger)
	ruleset := testRules()

	svc := service.New(
		storage.NewMemoryCharacterStore(),
		storage.NewMemoryShopStore(),
		ruleset,
		registry,
		dice.NewLoggedRoller(fixedSource{v: 15}, logger),
		logger,
	)

	api := New(svc, registry, ruleset, nil, "sid", logger)
	server := httptest.NewServer(api.Routes())
	t.Cleanup(server.Close)

	return &fixture{svc: svc, server: server, client: server.Client()}
}

// login authenticates and returns a client that carries the session cookie.
func (f *fixture) login(t *testing.T, name string) *http.Client {
	t.Helper()
	resp := f.do(t, f.client, "POST", "/api/login", map[string]any{"name": name, "role": "player"})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var sid *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "sid" {
			sid = c
		}
	}
	require.NotNil(t, sid, "login must set the session cookie")
	require.True(t, sid.HttpOnly)

	jar := &cookieClient{cookie: sid, base: f.client}
	return &http.Client{Transport: jar}
}

// cookieClient pins one session cookie onto every request.
type cookieClient struct {
	cookie *http.Cookie
	base   *http.Client
}

func (c *cookieClient) RoundTrip(r *http.Request) (*http.Response, error) {
	r.AddCookie(c.cookie)
	return c.base.Transport.RoundTrip(r)
}

func (f *fixture) do(t *testing.T, client *http.Client, method, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, f.server.URL+path, &buf)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestLoginRoles(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, f.client, "POST", "/api/login", map[string]any{"name": "Piper", "role": "player"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	user := body["user"].(map[string]any)
	assert.Equal(t, "Piper", user["name"])
	assert.Equal(t, "player", user["role"])
	assert.Nil(t, body["character"], "no character before creation")

	resp = f.do(t, f.client, "POST", "/api/login", map[string]any{"name": "dm:Hancock"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	user = body["user"].(map[string]any)
	assert.Equal(t, "Hancock", user["name"], "dm token is stripped from the name")
	assert.Equal(t, "dm", user["role"])
}

func TestLoginRejectsEmptyName(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, f.client, "POST", "/api/login", map[string]any{"name": "  "})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAuthRequired(t *testing.T) {
	f := newFixture(t)
	for _, route := range []struct{ method, path string }{
		{"GET", "/api/me"},
		{"GET", "/api/characters"},
		{"POST", "/api/character"},
		{"GET", "/api/shop"},
		{"POST", "/api/craft"},
	} {
		resp := f.do(t, f.client, route.method, route.path, nil)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "%s %s", route.method, route.path)
	}
}

func TestCharacterLifecycle(t *testing.T) {
	f := newFixture(t)
	player := f.login(t, "Piper")

	resp := f.do(t, player, "POST", "/api/character", map[string]any{
		"name":    "Piper",
		"race":    "Human",
		"special": map[string]int{"S": 6, "P": 5, "E": 7, "C": 4, "I": 6, "A": 5, "L": 7},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decodeBody(t, resp)
	ch := body["character"].(map[string]any)
	id := ch["id"].(string)
	// Endurance 7 gives 10 + (7-5) hit points.
	assert.Equal(t, float64(12), ch["maxHp"])

	resp = f.do(t, player, "POST", "/api/character", map[string]any{
		"name": "Second", "race": "Ghoul",
		"special": map[string]int{"S": 5, "P": 5, "E": 5, "C": 5, "I": 5, "A": 5, "L": 5},
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "one character per player")

	resp = f.do(t, player, "GET", "/api/my/character", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, id, body["character"].(map[string]any)["id"])

	name := "Piper Wright"
	resp = f.do(t, player, "POST", "/api/characters/"+id, map[string]any{"name": name})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, name, body["character"].(map[string]any)["name"])
}

func TestCharacterListRedaction(t *testing.T) {
	f := newFixture(t)
	piper := f.login(t, "Piper")
	cait := f.login(t, "Cait")

	resp := f.do(t, piper, "POST", "/api/character", map[string]any{
		"name": "Piper", "race": "Human",
		"special": map[string]int{"S": 6, "P": 5, "E": 7, "C": 4, "I": 6, "A": 5, "L": 7},
	})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = f.do(t, cait, "GET", "/api/characters", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	chars := body["characters"].([]any)
	require.Len(t, chars, 1)
	record := chars[0].(map[string]any)
	assert.Contains(t, record, "ownerName")
	assert.NotContains(t, record, "hp", "other players' characters are redacted")
}

func TestGetCharacterByID(t *testing.T) {
	f := newFixture(t)
	piper := f.login(t, "Piper")
	cait := f.login(t, "Cait")

	resp := f.do(t, piper, "POST", "/api/character", map[string]any{
		"name": "Piper", "race": "Human",
		"special": map[string]int{"S": 6, "P": 5, "E": 7, "C": 4, "I": 6, "A": 5, "L": 7},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := decodeBody(t, resp)["character"].(map[string]any)["id"].(string)

	resp = f.do(t, piper, "GET", "/api/characters/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ch := decodeBody(t, resp)["character"].(map[string]any)
	assert.Equal(t, id, ch["id"])
	assert.Contains(t, ch, "hp", "owners read the full record")

	resp = f.do(t, cait, "GET", "/api/characters/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ch = decodeBody(t, resp)["character"].(map[string]any)
	assert.Equal(t, id, ch["id"])
	assert.NotContains(t, ch, "hp", "other players read the redacted view")

	resp = f.do(t, piper, "GET", "/api/characters/c-missing", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestShopCRUDRequiresDM(t *testing.T) {
	f := newFixture(t)
	player := f.login(t, "Piper")
	dm := f.login(t, "dm:Hancock")

	resp := f.do(t, player, "POST", "/api/shop", map[string]any{"name": "Stimpak", "cost": 25, "stock": 3})
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = f.do(t, dm, "POST", "/api/shop", map[string]any{"name": "Stimpak", "cost": 25, "stock": 3})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decodeBody(t, resp)
	item := body["item"].(map[string]any)
	id := item["id"].(string)
	assert.Equal(t, "Stimpak", item["name"])

	resp = f.do(t, dm, "PATCH", "/api/shop/"+id, map[string]any{"cost": 20})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, float64(20), body["item"].(map[string]any)["cost"])

	resp = f.do(t, player, "GET", "/api/shop", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Len(t, body["items"].([]any), 1)

	resp = f.do(t, dm, "DELETE", "/api/shop/"+id, nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestBuyFlow(t *testing.T) {
	f := newFixture(t)
	player := f.login(t, "Piper")
	dm := f.login(t, "dm:Hancock")

	resp := f.do(t, player, "POST", "/api/character", map[string]any{
		"name": "Piper", "race": "Human",
		"special": map[string]int{"S": 6, "P": 5, "E": 7, "C": 4, "I": 6, "A": 5, "L": 7},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := decodeBody(t, resp)["character"].(map[string]any)["id"].(string)

	resp = f.do(t, dm, "POST", "/api/characters/"+id, map[string]any{"caps": 100})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.do(t, dm, "POST", "/api/shop", map[string]any{"name": "Stimpak", "cost": 25, "stock": 3})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	itemID := decodeBody(t, resp)["item"].(map[string]any)["id"].(string)

	resp = f.do(t, player, "POST", "/api/shop/"+itemID+"/buy", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "shop closed until the DM opens it")

	resp = f.do(t, dm, "POST", "/api/characters/"+id+"/shop", map[string]any{"allow": true})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.do(t, player, "POST", "/api/shop/"+itemID+"/buy", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, float64(75), body["character"].(map[string]any)["caps"])
	assert.Equal(t, float64(2), body["item"].(map[string]any)["stock"])
}

func TestCraftEndpoint(t *testing.T) {
	f := newFixture(t)
	player := f.login(t, "Piper")
	dm := f.login(t, "dm:Hancock")

	resp := f.do(t, player, "POST", "/api/character", map[string]any{
		"name": "Piper", "race": "Human",
		"special": map[string]int{"S": 6, "P": 5, "E": 7, "C": 4, "I": 6, "A": 5, "L": 7},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := decodeBody(t, resp)["character"].(map[string]any)["id"].(string)

	resp = f.do(t, dm, "POST", "/api/characters/"+id+"/materials", map[string]any{
		"add": map[string]int{"scrap metal": 2},
	})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// fixedSource{15} rolls 15%20+1 = 16 on the d20, beating DC 10.
	resp = f.do(t, player, "POST", "/api/craft", map[string]any{"recipe": "Lockpick Set"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	result := body["result"].(map[string]any)
	assert.Equal(t, true, result["ok"])
	ch := body["character"].(map[string]any)
	assert.Contains(t, ch["inventory"], "Lockpick Set")
}

func TestRulesEndpointIsPublic(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, f.client, "GET", "/rules.json", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Contains(t, body, "special")
	assert.Contains(t, body, "skills")
}

func TestLogoutClearsSession(t *testing.T) {
	f := newFixture(t)
	player := f.login(t, "Piper")

	resp := f.do(t, player, "GET", "/api/me", nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.do(t, player, "POST", "/api/logout", nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.do(t, player, "GET", "/api/me", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
