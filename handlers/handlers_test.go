package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"sim-mahasiswa-server-go/db"
	"sim-mahasiswa-server-go/models"
	"sim-mahasiswa-server-go/service"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type testApp struct {
	server *httptest.Server
	svc    *service.StudentService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := db.NewRedisService(client, "")

	ctx := context.Background()
	students := []struct {
		program string
		year    int
		st      models.Student
	}{
		{"Informatika", 2024, models.Student{ID: "2408561001", Name: "Kadek Dwi", Email: "kadekdwi001@student.unud.ac.id", Password: "pw1"}},
		{"Informatika", 2024, models.Student{ID: "2408561002", Name: "Putu Eka", Email: "putueka002@student.unud.ac.id", Password: "pw2"}},
		{"Informatika", 2023, models.Student{ID: "2308561001", Name: "Made Tri", Email: "madetri001@student.unud.ac.id", Password: "pw3"}},
		{"Biologi", 2022, models.Student{ID: "2208531005", Name: "Nyoman Catur", Email: "nyomancatur005@student.unud.ac.id", Password: "pw4"}},
	}
	for _, s := range students {
		require.NoError(t, store.SaveStudent(ctx, s.program, s.year, s.st))
	}
	require.NoError(t, store.SaveAdminCredential(ctx, models.AdminCredential{Password: "adminpw", Email: "dekan@unud.ac.id"}))

	svc := service.NewStudentService(store)
	_, err := svc.Load(ctx)
	require.NoError(t, err)

	router, err := NewRouter(svc, RouterConfig{
		SessionName: "sim_session",
		RememberFor: 720 * time.Hour,
		CohortYears: []int{2021, 2022, 2023, 2024, 2025},
	})
	require.NoError(t, err)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &testApp{server: server, svc: svc}
}

func (a *testApp) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func (a *testApp) cookie(t *testing.T, c *http.Client, name string) *http.Cookie {
	t.Helper()
	u, err := url.Parse(a.server.URL)
	require.NoError(t, err)
	for _, ck := range c.Jar.Cookies(u) {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func (a *testApp) get(t *testing.T, c *http.Client, path string) (int, string) {
	t.Helper()
	resp, err := c.Get(a.server.URL + path)
	require.NoError(t, err)
	return resp.StatusCode, readBody(t, resp)
}

func (a *testApp) post(t *testing.T, c *http.Client, path string, form url.Values) (int, string) {
	t.Helper()
	resp, err := c.PostForm(a.server.URL+path, form)
	require.NoError(t, err)
	return resp.StatusCode, readBody(t, resp)
}

func (a *testApp) login(t *testing.T, c *http.Client, username, password string, remember bool) string {
	t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	if remember {
		form.Set("remember_me", "on")
	}
	code, body := a.post(t, c, "/login", form)
	require.Equal(t, http.StatusOK, code)
	return body
}

func TestRoute(t *testing.T) {
	tests := []struct {
		name  string
		state SessionState
		want  View
	}{
		{"anonymous default", SessionState{}, ViewLogin},
		{"anonymous login page", SessionState{Page: PageLogin}, ViewLogin},
		{"anonymous register page", SessionState{Page: PageRegister}, ViewRegister},
		{"student", SessionState{LoggedIn: true, Role: models.RoleStudent, Username: "2408561001"}, ViewStudent},
		{"admin", SessionState{LoggedIn: true, Role: models.RoleAdmin, Username: "admin"}, ViewAdmin},
		{"logged in ignores page", SessionState{LoggedIn: true, Role: models.RoleStudent, Page: PageRegister}, ViewStudent},
		{"role without login", SessionState{Role: models.RoleAdmin}, ViewLogin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Route(tt.state))
		})
	}
}

func TestHomeShowsLoginForAnonymous(t *testing.T) {
	app := newTestApp(t)
	code, body := app.get(t, app.client(t), "/")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `action="/login"`)
	assert.NotContains(t, body, "Logout")
}

func TestLoginStudent(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)

	body := app.login(t, c, "2408561001", "pw1", false)
	assert.Contains(t, body, "Data Mahasiswa")
	assert.Contains(t, body, "2408561001")
	assert.Contains(t, body, "Kadek Dwi")
	assert.Contains(t, body, "kadekdwi001@student.unud.ac.id")
	assert.Nil(t, app.cookie(t, c, models.DefaultCookieName), "remember-me cookie set without being asked")
}

func TestLoginFailuresShareOneMessage(t *testing.T) {
	app := newTestApp(t)
	cases := []url.Values{
		{"username": {"2408561001"}, "password": {"wrong"}},
		{"username": {"2499999999"}, "password": {"pw1"}},
		{"username": {"admin"}, "password": {"pw1"}},
		{"username": {""}, "password": {""}},
	}
	for _, form := range cases {
		c := app.client(t)
		code, body := app.post(t, c, "/login", form)
		assert.Equal(t, http.StatusOK, code)
		assert.Contains(t, body, "Username atau Password salah!")

		_, home := app.get(t, c, "/")
		assert.Contains(t, home, `action="/login"`)
	}
}

func TestRememberMeRestoresSession(t *testing.T) {
	app := newTestApp(t)
	first := app.client(t)
	app.login(t, first, "2208531005", "pw4", true)

	remembered := app.cookie(t, first, models.DefaultCookieName)
	require.NotNil(t, remembered)
	assert.NotContains(t, remembered.Value, "2208531005", "cookie value must be encrypted")

	// a new browser carrying only the remember-me cookie
	second := app.client(t)
	u, _ := url.Parse(app.server.URL)
	second.Jar.SetCookies(u, []*http.Cookie{{Name: remembered.Name, Value: remembered.Value, Path: "/"}})

	code, body := app.get(t, second, "/")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Nyoman Catur")
	assert.NotNil(t, app.cookie(t, second, "sim_session"))
}

func TestRememberMeAdmin(t *testing.T) {
	app := newTestApp(t)
	first := app.client(t)
	app.login(t, first, "ADMIN", "adminpw", true)
	remembered := app.cookie(t, first, models.DefaultCookieName)
	require.NotNil(t, remembered)

	second := app.client(t)
	u, _ := url.Parse(app.server.URL)
	second.Jar.SetCookies(u, []*http.Cookie{{Name: remembered.Name, Value: remembered.Value, Path: "/"}})

	_, body := app.get(t, second, "/")
	assert.Contains(t, body, "Dashboard Admin")
}

func TestTamperedRememberCookieIsIgnored(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)
	u, _ := url.Parse(app.server.URL)
	c.Jar.SetCookies(u, []*http.Cookie{{Name: models.DefaultCookieName, Value: "2408561001", Path: "/"}})

	_, body := app.get(t, c, "/")
	assert.Contains(t, body, `action="/login"`)
	assert.NotContains(t, body, "Kadek Dwi")
}

func TestLogoutClearsCookies(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)
	app.login(t, c, "2408561002", "pw2", true)
	require.NotNil(t, app.cookie(t, c, models.DefaultCookieName))

	code, body := app.post(t, c, "/logout", url.Values{})
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `action="/login"`)
	assert.Nil(t, app.cookie(t, c, models.DefaultCookieName))
	assert.Nil(t, app.cookie(t, c, "sim_session"))

	_, home := app.get(t, c, "/")
	assert.NotContains(t, home, "Putu Eka")
}

func TestAdminListing(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)
	body := app.login(t, c, "admin", "adminpw", false)

	assert.Contains(t, body, "Dashboard Admin")
	assert.Contains(t, body, "dekan@unud.ac.id")
	assert.Contains(t, body, "<summary>Biologi</summary>")
	assert.Contains(t, body, "<summary>Informatika</summary>")
	assert.Contains(t, body, "Angkatan 2023")
	assert.Contains(t, body, "2208531005")
	assert.Less(t, strings.Index(body, "Biologi"), strings.Index(body, "Informatika"))
	assert.Less(t, strings.Index(body, "Angkatan 2023"), strings.Index(body, "Angkatan 2024"))
}

func TestExport(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)
	app.login(t, c, "admin", "adminpw", false)

	resp, err := c.Get(app.server.URL + "/admin/export")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, xlsxContentType, resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), ".xlsx")

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	wb, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer wb.Close()
	rows, err := wb.GetRows("Mahasiswa")
	require.NoError(t, err)
	assert.Len(t, rows, 5)
}

func TestExportRequiresAdmin(t *testing.T) {
	app := newTestApp(t)

	code, _ := app.get(t, app.client(t), "/admin/export")
	assert.Equal(t, http.StatusForbidden, code)

	student := app.client(t)
	app.login(t, student, "2408561001", "pw1", false)
	code, _ = app.get(t, student, "/admin/export")
	assert.Equal(t, http.StatusForbidden, code)
}

func TestRegisterFlow(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)

	code, body := app.get(t, c, "/register")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Registrasi Mahasiswa")
	assert.Contains(t, body, `<option value="Informatika">`)
	assert.Contains(t, body, `<option value="2025">`)

	_, body = app.post(t, c, "/register", url.Values{
		"nama":     {"Ni Komang Ayu Pratiwi"},
		"prodi":    {"Informatika"},
		"angkatan": {"2024"},
		"password": {"rahasia"},
	})
	assert.Contains(t, body, "Registrasi berhasil! NIM Anda adalah 2408561003. Silakan login.")

	st, ok := app.svc.FindStudent("2408561003")
	require.True(t, ok)
	assert.Equal(t, "komangayupratiwi003@student.unud.ac.id", st.Email)

	// back on the login page
	_, home := app.get(t, c, "/")
	assert.Contains(t, home, `action="/login"`)

	body = app.login(t, c, "2408561003", "rahasia", false)
	assert.Contains(t, body, "Ni Komang Ayu Pratiwi")
}

func TestRegisterRejectsBadInput(t *testing.T) {
	app := newTestApp(t)
	tests := []struct {
		name string
		form url.Values
		want string
	}{
		{"unknown program", url.Values{"nama": {"Gede"}, "prodi": {"Geografi"}, "angkatan": {"2024"}, "password": {"x"}}, "Prodi tidak ditemukan."},
		{"year outside list", url.Values{"nama": {"Gede"}, "prodi": {"Informatika"}, "angkatan": {"1999"}, "password": {"x"}}, "Angkatan tidak valid."},
		{"name without letters", url.Values{"nama": {"12345"}, "prodi": {"Informatika"}, "angkatan": {"2024"}, "password": {"x"}}, "Nama harus mengandung huruf."},
		{"missing password", url.Values{"nama": {"Gede"}, "prodi": {"Informatika"}, "angkatan": {"2024"}}, "Semua kolom wajib diisi."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := app.post(t, app.client(t), "/register", tt.form)
			assert.Equal(t, http.StatusOK, code)
			assert.Contains(t, body, tt.want)
		})
	}
	assert.Equal(t, 4, app.svc.StudentCount())
}

func TestSwitchPage(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)

	_, body := app.get(t, c, "/register")
	assert.Contains(t, body, `action="/register"`)
	_, body = app.get(t, c, "/")
	assert.Contains(t, body, `action="/register"`)
	_, body = app.get(t, c, "/login")
	assert.Contains(t, body, `action="/login"`)
}

func TestPing(t *testing.T) {
	app := newTestApp(t)
	resp, err := http.Get(app.server.URL + "/ping")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Message  string `json:"message"`
		Students int    `json:"students"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "Pong!", payload.Message)
	assert.Equal(t, 4, payload.Students)
}

func TestCookieKeys(t *testing.T) {
	hashKey, blockKey := CookieKeys(models.DefaultCookieConfig())
	assert.Len(t, hashKey, 32)
	assert.Len(t, blockKey, 32)
	assert.NotEqual(t, hashKey, blockKey)

	again, _ := CookieKeys(models.DefaultCookieConfig())
	assert.Equal(t, hashKey, again)

	other, _ := CookieKeys(models.CookieConfig{Name: models.DefaultCookieName, Key: "another"})
	assert.NotEqual(t, hashKey, other)
}

func TestNewRouterRejectsCookieNameClash(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	svc := service.NewStudentService(db.NewRedisService(client, ""))
	_, err := svc.Load(context.Background())
	require.NoError(t, err)

	_, err = NewRouter(svc, RouterConfig{SessionName: models.DefaultCookieName})
	assert.Error(t, err)
}

func TestRegisterValidators(t *testing.T) {
	require.NoError(t, registerValidators([]int{2024, 2025}))

	valid := registerForm{Nama: "Gede Arya", Prodi: "Informatika", Angkatan: 2024, Password: "x"}
	assert.NoError(t, binding.Validator.ValidateStruct(&valid))

	badYear := valid
	badYear.Angkatan = 2021
	err := binding.Validator.ValidateStruct(&badYear)
	require.Error(t, err)
	assert.Equal(t, "Angkatan tidak valid.", formError(err))

	badName := valid
	badName.Nama = "123 !!"
	err = binding.Validator.ValidateStruct(&badName)
	require.Error(t, err)
	assert.Equal(t, "Nama harus mengandung huruf.", formError(err))
}
