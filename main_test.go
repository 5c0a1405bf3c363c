package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Every section plays in 20ms so streams finish quickly
const fastPresets = `
[greeting]
mode = "type"
duration_ms = 20

[info]
duration_ms = 20
prescramble = true

[project]
delay_ms = 5
duration_ms = 20

[skill]
duration_ms = 20

[contact]
duration_ms = 20

[lab]
duration_ms = 20
easing = "sine.out"
`

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	frameInterval = time.Millisecond
	os.Exit(m.Run())
}

func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()

	require.NoError(t, site.Load(""))

	var err error
	presets, err = parsePresets([]byte(fastPresets))
	require.NoError(t, err)

	conn, err := openDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, initSchema(conn))
	db = conn
	t.Cleanup(func() {
		db = nil
		conn.Close()
	})

	t.Setenv("ADMIN_USERNAME", "tester")
	t.Setenv("ADMIN_PASSWORD", "secret")
	initAdminToken()

	return newRouter()
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("DNT", "1")
	r.ServeHTTP(w, req)
	return w
}

func adminRequest(r http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	req.AddCookie(&http.Cookie{Name: "admin_token", Value: adminToken})
	r.ServeHTTP(w, req)
	return w
}

var doneEvent = regexp.MustCompile(`event:\s?done\ndata:\s?(.*)\n`)

func doneData(t *testing.T, body string) string {
	t.Helper()
	m := doneEvent.FindStringSubmatch(body)
	require.NotNil(t, m, "no done event in %q", body)
	return m[1]
}

func TestHealthz(t *testing.T) {
	r := newTestServer(t)
	w := get(r, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestIndexPage(t *testing.T) {
	r := newTestServer(t)
	w := get(r, "/")
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, `data-reveal="/reveal/project/0"`)
	assert.Contains(t, body, `data-reveal="/reveal/skill/17"`)
	assert.Contains(t, body, `data-reveal="/reveal/info/0"`)
	assert.Contains(t, body, `href="/labs/primordial-soup"`)
	assert.Contains(t, body, "011")
	// placeholders hide the real names until the reveal runs
	assert.NotContains(t, body, ">Primordial Soup<")
}

func TestLabPage(t *testing.T) {
	r := newTestServer(t)

	w := get(r, "/labs/tensor-field")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Tensor Field")
	assert.Contains(t, body, `href="/labs/primordial-soup"`)
	assert.Contains(t, body, `href="/labs/neuro-synth"`)
	assert.Contains(t, body, `data-reveal="/reveal/lab/1"`)

	var views int
	require.NoError(t, db.QueryRow(`SELECT views FROM lab_views WHERE slug = ?`, "tensor-field").Scan(&views))
	assert.Equal(t, 1, views)
}

func TestLabPage_UnknownSlug(t *testing.T) {
	r := newTestServer(t)

	w := get(r, "/labs/does-not-exist")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "An interactive experiment")
	assert.NotContains(t, w.Body.String(), "data-reveal=\"/reveal/lab/")

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM lab_views`).Scan(&count))
	assert.Zero(t, count)
}

func TestRevealStream(t *testing.T) {
	r := newTestServer(t)
	content := site.Get()

	tests := []struct {
		path string
		want string
	}{
		{"/reveal/project/0?nodelay=1", content.Projects[0].Name},
		{"/reveal/project/3", content.Projects[3].Name},
		{"/reveal/skill/2", content.Skills[2].Name},
		{"/reveal/contact/0", content.Contacts[0].Value},
		{"/reveal/greeting/0", content.Greetings[0]},
		{"/reveal/lab/4", content.Projects[4].Description},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := get(r, tt.path)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

			body := w.Body.String()
			assert.Equal(t, tt.want, doneData(t, body))
			assert.True(t, strings.HasSuffix(body, "\n\n"))
			assert.Equal(t, 1, strings.Count(body, "event:done")+strings.Count(body, "event: done"))
		})
	}
}

func TestRevealStream_InfoKeepsMarkup(t *testing.T) {
	r := newTestServer(t)
	want := site.Get().Info

	w := get(r, "/reveal/info/0")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, want, doneData(t, w.Body.String()))
}

func TestRevealStream_BadRequests(t *testing.T) {
	r := newTestServer(t)

	assert.Equal(t, http.StatusBadRequest, get(r, "/reveal/project/abc").Code)
	assert.Equal(t, http.StatusNotFound, get(r, "/reveal/project/999").Code)
	assert.Equal(t, http.StatusNotFound, get(r, "/reveal/info/1").Code)
	assert.Equal(t, http.StatusNotFound, get(r, "/reveal/unknown/0").Code)
}

func TestLoaderStream(t *testing.T) {
	r := newTestServer(t)

	w := get(r, "/loader?ms=20&message=Loading")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Equal(t, "loaded", doneData(t, body))

	var last loaderFrame
	for _, line := range strings.Split(body, "\n") {
		data, ok := strings.CutPrefix(line, "data:")
		if !ok || !strings.HasPrefix(strings.TrimSpace(data), "{") {
			continue
		}
		require.NoError(t, json.Unmarshal([]byte(data), &last))
	}
	assert.Equal(t, 1.0, last.Progress)
	assert.Equal(t, "Loading", last.Message)
	assert.Len(t, last.Blocks, 20)
	for _, b := range last.Blocks {
		assert.Equal(t, "solid", b)
	}
}

func TestTransitionStream(t *testing.T) {
	r := newTestServer(t)

	w := get(r, "/transition?mode=reveal&ms=20&color="+url.QueryEscape("#fff"))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "<svg")
	assert.Contains(t, body, `fill="#fff"`)
	assert.Equal(t, "complete", doneData(t, body))

	w = get(r, "/transition?color=red")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQueryHelpers(t *testing.T) {
	assert.True(t, isHexColor("#111111"))
	assert.True(t, isHexColor("#AbC"))
	assert.False(t, isHexColor("111111"))
	assert.False(t, isHexColor("#12345"))
	assert.False(t, isHexColor("#ggg"))
	assert.False(t, isHexColor(`#"><x`))
}

func TestAdmin_RequiresLogin(t *testing.T) {
	r := newTestServer(t)

	for _, path := range []string{"/admin/dashboard", "/admin/api/stats", "/admin/labs", "/admin/visitors"} {
		w := get(r, path)
		assert.Equal(t, http.StatusFound, w.Code, path)
		assert.Equal(t, "/admin/login", w.Header().Get("Location"), path)
	}
}

func TestAdmin_Login(t *testing.T) {
	r := newTestServer(t)

	post := func(user, pass string) *httptest.ResponseRecorder {
		form := url.Values{"username": {user}, "password": {pass}}
		req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := post("tester", "wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid credentials")

	w = post("tester", "secret")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/admin/dashboard", w.Header().Get("Location"))
	assert.Contains(t, w.Header().Get("Set-Cookie"), "admin_token="+adminToken)
}

func TestAdmin_Stats(t *testing.T) {
	r := newTestServer(t)

	require.NoError(t, recordLabView("tensor-field"))
	require.NoError(t, recordLabView("tensor-field"))
	require.NoError(t, recordLabView("tentacles"))
	trackVisitorPrivacy("10.0.0.1", "test-agent", "/")
	trackVisitorPrivacy("10.0.0.1", "test-agent", "/labs/tentacles")
	trackVisitorPrivacy("10.0.0.2", "test-agent", "/")

	w := adminRequest(r, http.MethodGet, "/admin/api/stats")
	require.Equal(t, http.StatusOK, w.Code)

	var stats AdminStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.EqualValues(t, 3, stats.TotalVisitors)
	assert.EqualValues(t, 2, stats.UniqueVisitors)
	assert.EqualValues(t, 2, stats.TotalLabs)
	assert.EqualValues(t, 3, stats.TotalLabViews)
	require.Len(t, stats.TopLabs, 2)
	assert.Equal(t, "tensor-field", stats.TopLabs[0].Slug)
	assert.Equal(t, "Tensor Field", stats.TopLabs[0].Name)
	require.Len(t, stats.RecentVisitors, 3)
	assert.NotEqual(t, "10.0.0.1", stats.RecentVisitors[0].HashedIP)
	assert.Len(t, stats.RecentVisitors[0].HashedIP, 16)

	w = adminRequest(r, http.MethodGet, "/admin/dashboard")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "tensor-field")

	w = adminRequest(r, http.MethodGet, "/admin/labs")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Tentacles")

	w = adminRequest(r, http.MethodGet, "/admin/visitors")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/labs/tentacles")

	w = adminRequest(r, http.MethodGet, "/admin/export/stats")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "admin-stats.json")
}

func TestAdmin_ResetLab(t *testing.T) {
	r := newTestServer(t)
	require.NoError(t, recordLabView("magic-beans"))

	w := adminRequest(r, http.MethodDelete, "/admin/labs/magic-beans")
	assert.Equal(t, http.StatusOK, w.Code)

	w = adminRequest(r, http.MethodDelete, "/admin/labs/magic-beans")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHashIP_StablePerAddress(t *testing.T) {
	hashingSalt = "salt"
	assert.Equal(t, hashIP("1.2.3.4"), hashIP("1.2.3.4"))
	assert.NotEqual(t, hashIP("1.2.3.4"), hashIP("1.2.3.5"))
}

func TestPlaceholder(t *testing.T) {
	p := placeholder("a&amp;b<br/>c d")
	runes := []rune(p)
	require.Len(t, runes, 6)
	for _, r := range runes {
		assert.Contains(t, symbolRunes, r)
	}
}

var symbolRunes = []rune(`-/\>|<_=+*&^%$#@![]{}:;,.?`)

func TestColumns(t *testing.T) {
	items := make([]int, 12)
	cols := columns(items, 7)
	require.Len(t, cols, 2)
	assert.Len(t, cols[0], 7)
	assert.Len(t, cols[1], 5)

	assert.Len(t, columns(items[:7], 7), 1)
	assert.Nil(t, columns([]int{}, 7))
}
