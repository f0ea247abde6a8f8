package controllers_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"civicplus-be/models"

	"github.com/gin-gonic/gin"
)

func register(t *testing.T, r *gin.Engine, body gin.H) *models.User {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/auth/register", body, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d: %s", w.Code, w.Body.String())
	}
	var user models.User
	if err := json.Unmarshal(decodeBody(t, w)["user"], &user); err != nil {
		t.Fatalf("decode user: %v", err)
	}
	return &user
}

func TestRegister(t *testing.T) {
	r, _ := newTestRouter(t, false)

	user := register(t, r, gin.H{
		"name": "Priya Shah", "email": "priya@example.com",
		"password": "secret123", "ward": "ward4",
	})
	if user.ID == 0 || user.Role != models.RoleCitizen || user.Ward != "ward4" {
		t.Fatalf("unexpected registered user: %+v", user)
	}

	w := doJSON(t, r, http.MethodPost, "/api/auth/login", gin.H{
		"email": "priya@example.com", "password": "secret123",
	}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("login after register status = %d: %s", w.Code, w.Body.String())
	}
	var raw map[string]map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if _, leaked := raw["user"]["password"]; leaked {
		t.Fatal("password hash leaked in the response")
	}
}

func TestRegisterValidation(t *testing.T) {
	r, _ := newTestRouter(t, false)

	cases := []gin.H{
		{"email": "a@example.com", "password": "secret123"},
		{"name": "n", "password": "secret123"},
		{"name": "n", "email": "not-an-email", "password": "secret123"},
		{"name": "n", "email": "a@example.com", "password": "short"},
	}
	for _, body := range cases {
		w := doJSON(t, r, http.MethodPost, "/api/auth/register", body, "")
		if w.Code != http.StatusBadRequest {
			t.Fatalf("register %v status = %d, want 400", body, w.Code)
		}
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	r, _ := newTestRouter(t, false)

	body := gin.H{"name": "Priya Shah", "email": "priya@example.com", "password": "secret123"}
	register(t, r, body)

	w := doJSON(t, r, http.MethodPost, "/api/auth/register", body, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("duplicate register status = %d, want 400", w.Code)
	}
}

func TestLogin(t *testing.T) {
	r, _ := newTestRouter(t, true)

	w := doJSON(t, r, http.MethodPost, "/api/auth/login", gin.H{
		"email": "citizen@example.com", "password": "password123",
	}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", w.Code, w.Body.String())
	}

	var user models.User
	if err := json.Unmarshal(decodeBody(t, w)["user"], &user); err != nil {
		t.Fatalf("decode user: %v", err)
	}
	if user.Email != "citizen@example.com" || user.Role != models.RoleCitizen {
		t.Fatalf("unexpected user: %+v", user)
	}

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "auth_token" {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value == "" || !cookie.HttpOnly {
		t.Fatalf("expected an httpOnly auth_token cookie, got %+v", cookie)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	r, _ := newTestRouter(t, true)

	cases := []gin.H{
		{"email": "ghost@example.com", "password": "whatever"},
		{"email": "citizen@example.com", "password": "wrong-password"},
		{"email": "citizen@example.com", "password": "password123", "role": "admin"},
	}
	var messages []string
	for _, body := range cases {
		w := doJSON(t, r, http.MethodPost, "/api/auth/login", body, "")
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("login %v status = %d, want 401", body, w.Code)
		}
		var resp struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode error: %v", err)
		}
		messages = append(messages, resp.Error)
	}
	for _, m := range messages {
		if m != messages[0] {
			t.Fatalf("failure messages differ: %v", messages)
		}
	}
}

func TestGetMe(t *testing.T) {
	r, _ := newTestRouter(t, true)

	w := doJSON(t, r, http.MethodGet, "/api/auth/me", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated me status = %d, want 401", w.Code)
	}

	token := testToken(t, "admin@example.com")
	w = doJSON(t, r, http.MethodGet, "/api/auth/me", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("me status = %d: %s", w.Code, w.Body.String())
	}
	var user models.User
	if err := json.Unmarshal(decodeBody(t, w)["user"], &user); err != nil {
		t.Fatalf("decode user: %v", err)
	}
	if user.Email != "admin@example.com" || user.Role != models.RoleAdmin {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	r, _ := newTestRouter(t, false)

	w := doJSON(t, r, http.MethodPost, "/api/auth/logout", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("logout status = %d", w.Code)
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == "auth_token" && c.MaxAge >= 0 {
			t.Fatalf("auth_token cookie not expired: %+v", c)
		}
	}
}
