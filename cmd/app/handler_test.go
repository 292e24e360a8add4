package main

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBlogPayload(title string) map[string]any {
	return map[string]any{
		"title":       title,
		"description": "A short description",
		"body":        strings.Repeat("lorem ipsum ", 40),
		"tags":        []string{"go", "testing"},
	}
}

func TestRegisterUserHandler(t *testing.T) {
	app := newTestApplication(t, nil)
	ts := newTestServer(t, app.routes())

	testCases := []struct {
		name         string
		payload      any
		expectedCode int
		expectedMsg  string
		errorFields  []string
	}{
		{
			name:         "valid user",
			payload:      map[string]string{"first_name": "Test", "last_name": "User", "email": "Test@Yopmail.com", "password": "password123"},
			expectedCode: http.StatusOK,
			expectedMsg:  "User created successfully",
		},
		{
			name:         "duplicate email",
			payload:      map[string]string{"first_name": "Other", "last_name": "User", "email": "test@yopmail.com", "password": "password123"},
			expectedCode: http.StatusBadRequest,
			expectedMsg:  "User with this email already exists",
		},
		{
			name:         "invalid fields",
			payload:      map[string]string{"first_name": "", "last_name": "User", "email": "not-an-email", "password": "123"},
			expectedCode: http.StatusBadRequest,
			expectedMsg:  "Validation error",
			errorFields:  []string{"first_name", "email", "password"},
		},
		{
			name:         "unknown field",
			payload:      map[string]string{"username": "test"},
			expectedCode: http.StatusBadRequest,
			expectedMsg:  `request body contains unknown field "username"`,
		},
		{
			name:         "badly formed json",
			payload:      `{"first_name": "Test",`,
			expectedCode: http.StatusBadRequest,
			expectedMsg:  "request body contains badly-formed JSON",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			code, _, body := ts.post(t, "/auth/register", "", tc.payload)
			assert.Equal(t, tc.expectedCode, code)
			assert.Equal(t, tc.expectedMsg, body["message"])

			if code == http.StatusOK {
				user := data(t, body)["user"].(map[string]any)
				assert.NotEmpty(t, user["id"])
				assert.Equal(t, "Test", user["first_name"])
				assert.Equal(t, "test@yopmail.com", user["email"])
				assert.NotContains(t, user, "password")
			}

			for _, field := range tc.errorFields {
				assert.Contains(t, body["errors"], field)
			}
		})
	}
}

func TestLoginUserHandler(t *testing.T) {
	app := newTestApplication(t, nil)
	ts := newTestServer(t, app.routes())

	ts.registerAndLogin(t, "Test", "User", "test@yopmail.com")

	testCases := []struct {
		name         string
		payload      map[string]string
		expectedCode int
		expectedMsg  string
	}{
		{
			name:         "valid credentials",
			payload:      map[string]string{"email": "TEST@yopmail.com", "password": "password123"},
			expectedCode: http.StatusOK,
			expectedMsg:  "Login successful",
		},
		{
			name:         "wrong password",
			payload:      map[string]string{"email": "test@yopmail.com", "password": "wrongpassword"},
			expectedCode: http.StatusUnauthorized,
			expectedMsg:  "Username or Password is incorrect",
		},
		{
			name:         "unknown email",
			payload:      map[string]string{"email": "nobody@yopmail.com", "password": "password123"},
			expectedCode: http.StatusUnauthorized,
			expectedMsg:  "Username or Password is incorrect",
		},
		{
			name:         "missing fields",
			payload:      map[string]string{},
			expectedCode: http.StatusBadRequest,
			expectedMsg:  "Validation error",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			code, _, body := ts.post(t, "/auth/login", "", tc.payload)
			assert.Equal(t, tc.expectedCode, code)
			assert.Equal(t, tc.expectedMsg, body["message"])

			if code == http.StatusOK {
				d := data(t, body)
				assert.NotEmpty(t, d["accessToken"])
				assert.NotContains(t, d, "password")
			}
		})
	}
}

func TestLogoutUserHandler(t *testing.T) {
	app := newTestApplication(t, nil)
	ts := newTestServer(t, app.routes())

	token := ts.registerAndLogin(t, "Test", "User", "test@yopmail.com")

	code, _, _ := ts.get(t, "/blogs/users/me", token)
	require.Equal(t, http.StatusOK, code)

	code, _, body := ts.post(t, "/auth/logout", token, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Logout successful", body["message"])

	code, _, body = ts.get(t, "/blogs/users/me", token)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Unauthorized", body["message"])

	code, _, _ = ts.post(t, "/auth/logout", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestPublicRoutes_IgnoreStaleToken(t *testing.T) {
	app := newTestApplication(t, nil)
	ts := newTestServer(t, app.routes())

	token := ts.registerAndLogin(t, "Ada", "Lovelace", "ada@yopmail.com")

	code, _, body := ts.post(t, "/blogs", token, testBlogPayload("Notes on the engine"))
	require.Equal(t, http.StatusCreated, code)
	id := blogData(t, body)["id"].(string)

	code, _, _ = ts.patch(t, "/blogs/"+id+"/publish", token, nil)
	require.Equal(t, http.StatusOK, code)

	code, _, _ = ts.post(t, "/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, code)

	testCases := []struct {
		name         string
		method       string
		path         string
		token        string
		expectedCode int
	}{
		{name: "list with revoked token", method: http.MethodGet, path: "/blogs", token: token, expectedCode: http.StatusOK},
		{name: "detail with revoked token", method: http.MethodGet, path: "/blogs/" + id, token: token, expectedCode: http.StatusOK},
		{name: "list with garbage token", method: http.MethodGet, path: "/blogs", token: "garbage", expectedCode: http.StatusOK},
		{name: "detail with garbage token", method: http.MethodGet, path: "/blogs/" + id, token: "garbage", expectedCode: http.StatusOK},
		{name: "own blogs with revoked token", method: http.MethodGet, path: "/blogs/users/me", token: token, expectedCode: http.StatusUnauthorized},
		{name: "create with garbage token", method: http.MethodPost, path: "/blogs", token: "garbage", expectedCode: http.StatusUnauthorized},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var payload any
			if tc.method == http.MethodPost {
				payload = testBlogPayload("Should never be stored")
			}

			code, _, body := ts.do(t, tc.method, tc.path, tc.token, payload)
			assert.Equal(t, tc.expectedCode, code)

			if tc.expectedCode == http.StatusUnauthorized {
				assert.Equal(t, "Unauthorized", body["message"])
			}
		})
	}
}

func TestBlogLifecycle(t *testing.T) {
	app := newTestApplication(t, nil)
	ts := newTestServer(t, app.routes())

	author := ts.registerAndLogin(t, "Ada", "Lovelace", "ada@yopmail.com")
	other := ts.registerAndLogin(t, "Grace", "Hopper", "grace@yopmail.com")

	// nothing is published yet
	code, _, body := ts.get(t, "/blogs", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Get all blogs", body["message"])
	assert.Empty(t, body["data"])
	assert.Equal(t, float64(0), body["meta"].(map[string]any)["total"])

	code, _, body = ts.post(t, "/blogs", "", testBlogPayload("My first blog"))
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Unauthorized", body["message"])

	code, _, body = ts.post(t, "/blogs", author, map[string]any{"title": "abc"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Validation error", body["message"])

	code, _, body = ts.post(t, "/blogs", author, testBlogPayload("My first blog"))
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "Blog created successfully", body["message"])

	blog := blogData(t, body)
	id := blog["id"].(string)
	assert.Equal(t, "draft", blog["state"])
	assert.Equal(t, float64(0), blog["read_count"])
	assert.Equal(t, float64(3), blog["reading_time"])
	assert.Equal(t, "Ada", blog["author"].(map[string]any)["first_name"])
	assert.NotContains(t, blog["author"], "password")

	code, _, body = ts.post(t, "/blogs", author, testBlogPayload("My first blog"))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Blog already with the title exists", body["message"])

	// drafts are not public
	code, _, body = ts.get(t, "/blogs/"+id, "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Blog not found", body["message"])
	assert.NotContains(t, body, "data")

	code, _, body = ts.get(t, "/blogs/users/me", author)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Get all authors blogs", body["message"])
	assert.Len(t, body["data"], 1)

	code, _, body = ts.patch(t, "/blogs/"+id+"/publish", other, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Unauthorized", body["message"])

	code, _, body = ts.patch(t, "/blogs/missing/publish", author, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Blog not found", body["message"])

	for i := 0; i < 2; i++ {
		code, _, body = ts.patch(t, "/blogs/"+id+"/publish", author, nil)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, "Successfully published Blog", body["message"])
		assert.Equal(t, "published", blogData(t, body)["state"])
	}

	code, _, body = ts.get(t, "/blogs/"+id, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Successfully retrieved Blog", body["message"])
	assert.Equal(t, float64(1), blogData(t, body)["read_count"])

	// title only keeps the reading time
	code, _, body = ts.patch(t, "/blogs/"+id, author, map[string]any{"title": "New Blog Title"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Successfully updated Blog", body["message"])
	assert.Equal(t, "New Blog Title", blogData(t, body)["title"])
	assert.Equal(t, float64(3), blogData(t, body)["reading_time"])
	assert.Equal(t, "published", blogData(t, body)["state"])

	code, _, body = ts.patch(t, "/blogs/"+id, author, map[string]any{"body": strings.Repeat("word ", 100)})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(3), blogData(t, body)["reading_time"])

	code, _, body = ts.patch(t, "/blogs/"+id, author, map[string]any{"body": strings.Repeat("word ", 400)})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(12), blogData(t, body)["reading_time"])

	code, _, _ = ts.post(t, "/blogs", author, testBlogPayload("Second blog"))
	require.Equal(t, http.StatusCreated, code)

	code, _, body = ts.patch(t, "/blogs/"+id, author, map[string]any{"title": "Second blog"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Blog with same title already exists", body["message"])

	code, _, body = ts.patch(t, "/blogs/"+id, other, map[string]any{"title": "Hijacked"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Unauthorized", body["message"])

	code, _, _ = ts.delete(t, "/blogs/"+id, other)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _, body = ts.delete(t, "/blogs/"+id, author)
	assert.Equal(t, http.StatusNoContent, code)
	assert.Nil(t, body)

	code, _, body = ts.get(t, "/blogs/"+id, "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Blog not found", body["message"])

	code, _, _ = ts.delete(t, "/blogs/"+id, author)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestListPublishedBlogsHandler(t *testing.T) {
	app := newTestApplication(t, nil)
	ts := newTestServer(t, app.routes())

	ada := ts.registerAndLogin(t, "Ada", "Lovelace", "ada@yopmail.com")
	grace := ts.registerAndLogin(t, "Grace", "Hopper", "grace@yopmail.com")

	publish := func(token, title string, tags ...string) {
		payload := testBlogPayload(title)
		payload["tags"] = tags

		code, _, body := ts.post(t, "/blogs", token, payload)
		require.Equal(t, http.StatusCreated, code)

		code, _, _ = ts.patch(t, "/blogs/"+blogData(t, body)["id"].(string)+"/publish", token, nil)
		require.Equal(t, http.StatusOK, code)
	}

	for i := 0; i < 3; i++ {
		publish(ada, fmt.Sprintf("Analytical engine part %d", i), "history")
	}
	publish(grace, "Compilers and COBOL", "compilers", "cobol")

	code, _, _ := ts.post(t, "/blogs", grace, testBlogPayload("Unpublished draft"))
	require.Equal(t, http.StatusCreated, code)

	testCases := []struct {
		name      string
		query     string
		wantCount int
		wantTotal float64
		wantPage  float64
		wantLimit float64
	}{
		{name: "defaults", query: "", wantCount: 4, wantTotal: 4, wantPage: 1, wantLimit: 20},
		{name: "paged", query: "?page=2&limit=3", wantCount: 1, wantTotal: 4, wantPage: 2, wantLimit: 3},
		{name: "bad paging values", query: "?page=zero&limit=-1", wantCount: 4, wantTotal: 4, wantPage: 1, wantLimit: 20},
		{name: "title", query: "?title=engine", wantCount: 3, wantTotal: 3, wantPage: 1, wantLimit: 20},
		{name: "tags", query: "?tags=COBOL,rust", wantCount: 1, wantTotal: 1, wantPage: 1, wantLimit: 20},
		{name: "author", query: "?author=lovelace", wantCount: 3, wantTotal: 3, wantPage: 1, wantLimit: 20},
		{name: "unknown author", query: "?author=turing", wantCount: 0, wantTotal: 0, wantPage: 1, wantLimit: 20},
		{name: "sorted", query: "?order_by=reading_time&order=asc", wantCount: 4, wantTotal: 4, wantPage: 1, wantLimit: 20},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			code, _, body := ts.get(t, "/blogs"+tc.query, "")
			require.Equal(t, http.StatusOK, code)

			blogs := body["data"].([]any)
			assert.Len(t, blogs, tc.wantCount)
			for _, b := range blogs {
				assert.Equal(t, "published", b.(map[string]any)["state"])
			}

			meta := body["meta"].(map[string]any)
			assert.Equal(t, tc.wantTotal, meta["total"])
			assert.Equal(t, tc.wantPage, meta["page"])
			assert.Equal(t, tc.wantLimit, meta["limit"])
		})
	}
}

func TestListMyBlogsHandler(t *testing.T) {
	app := newTestApplication(t, nil)
	ts := newTestServer(t, app.routes())

	token := ts.registerAndLogin(t, "Ada", "Lovelace", "ada@yopmail.com")

	code, _, body := ts.post(t, "/blogs", token, testBlogPayload("Published one"))
	require.Equal(t, http.StatusCreated, code)
	code, _, _ = ts.patch(t, "/blogs/"+blogData(t, body)["id"].(string)+"/publish", token, nil)
	require.Equal(t, http.StatusOK, code)

	code, _, _ = ts.post(t, "/blogs", token, testBlogPayload("Draft one"))
	require.Equal(t, http.StatusCreated, code)

	testCases := []struct {
		name         string
		query        string
		expectedCode int
		wantCount    int
	}{
		{name: "all states", query: "", expectedCode: http.StatusOK, wantCount: 2},
		{name: "drafts", query: "?state=draft", expectedCode: http.StatusOK, wantCount: 1},
		{name: "published", query: "?state=published", expectedCode: http.StatusOK, wantCount: 1},
		{name: "invalid state", query: "?state=archived", expectedCode: http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			code, _, body := ts.get(t, "/blogs/users/me"+tc.query, token)
			require.Equal(t, tc.expectedCode, code)

			if code == http.StatusOK {
				assert.Len(t, body["data"], tc.wantCount)
				return
			}

			assert.Equal(t, "Validation error", body["message"])
			assert.Contains(t, body["errors"], "state")
		})
	}

	code, _, _ = ts.get(t, "/blogs/users/me", "")
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestGetBlogHandler_ConcurrentReads(t *testing.T) {
	app := newTestApplication(t, nil)
	ts := newTestServer(t, app.routes())

	token := ts.registerAndLogin(t, "Ada", "Lovelace", "ada@yopmail.com")

	code, _, body := ts.post(t, "/blogs", token, testBlogPayload("Popular post"))
	require.Equal(t, http.StatusCreated, code)
	id := blogData(t, body)["id"].(string)

	code, _, _ = ts.patch(t, "/blogs/"+id+"/publish", token, nil)
	require.Equal(t, http.StatusOK, code)

	const readers = 25

	var wg sync.WaitGroup
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			code, _, _ := ts.get(t, "/blogs/"+id, "")
			assert.Equal(t, http.StatusOK, code)
		}()
	}
	wg.Wait()

	code, _, body = ts.get(t, "/blogs/"+id, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(readers+1), blogData(t, body)["read_count"])
}

func TestNotFound(t *testing.T) {
	app := newTestApplication(t, nil)
	ts := newTestServer(t, app.routes())

	testCases := []struct {
		method string
		path   string
	}{
		{method: http.MethodGet, path: "/nope"},
		{method: http.MethodPut, path: "/blogs/123"},
		{method: http.MethodGet, path: "/auth/login"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			code, _, body := ts.do(t, tc.method, tc.path, "", nil)
			assert.Equal(t, http.StatusNotFound, code)
			assert.Equal(t, "Not found", body["message"])
		})
	}
}

func TestHealthCheckHandler(t *testing.T) {
	app := newTestApplication(t, nil)
	ts := newTestServer(t, app.routes())

	code, _, body := ts.get(t, "/healthcheck", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "available", body["status"])

	info := body["system_info"].(map[string]any)
	assert.Equal(t, "testing", info["environment"])
	assert.Equal(t, "1.0.0", info["version"])
	assert.Equal(t, "memory", info["db_driver"])
}
