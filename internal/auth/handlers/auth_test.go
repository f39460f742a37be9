package handlers

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v3"

	"invite-studio/internal/auth/models"
	"invite-studio/internal/auth/repository"
	"invite-studio/internal/auth/service"
	"invite-studio/internal/common/middleware"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

func newTestApp(t *testing.T) (*fiber.App, *repository.Repository) {
	t.Helper()
	db, err := repository.OpenSQLite(filepath.Join(t.TempDir(), "auth.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	repo := repository.New(db)
	if err := repo.Init(context.Background(), "../../../migrations/001_init_users.sql"); err != nil {
		t.Fatal(err)
	}

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	NewAuthHandler(repo, service.NewSessionManager()).Mount(app)
	return app, repo
}

func do(t *testing.T, app *fiber.App, method, path, token string, body any, out any) int {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if out != nil {
		data, _ := io.ReadAll(resp.Body)
		if err := json.Unmarshal(data, out); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, data, err)
		}
	}
	return resp.StatusCode
}

func login(t *testing.T, app *fiber.App, email, password string) loginResponse {
	t.Helper()
	var out loginResponse
	code := do(t, app, http.MethodPost, "/login", "", credentialsRequest{Email: email, Password: password}, &out)
	if code != http.StatusOK {
		t.Fatalf("login %s: %d", email, code)
	}
	return out
}

func TestLoginAndResolve(t *testing.T) {
	app, _ := newTestApp(t)

	var failed map[string]string
	if code := do(t, app, http.MethodPost, "/login", "", credentialsRequest{Email: "admin@example.com", Password: "nope"}, &failed); code != http.StatusUnauthorized {
		t.Fatalf("bad password: %d", code)
	}
	if failed["error"] != "invalid credentials" {
		t.Fatalf("error = %q", failed["error"])
	}
	if code := do(t, app, http.MethodPost, "/login", "", credentialsRequest{Email: "ghost@example.com", Password: "whatever"}, nil); code != http.StatusUnauthorized {
		t.Fatalf("unknown user: %d", code)
	}

	res := login(t, app, "ADMIN@example.com", "admin123")
	if res.Token == "" || res.User.Role != models.RoleAdmin {
		t.Fatalf("unexpected login response %+v", res)
	}

	var sess sessionPayload
	if code := do(t, app, http.MethodGet, "/internal/sessions/"+res.Token, "", nil, &sess); code != http.StatusOK {
		t.Fatalf("resolve: %d", code)
	}
	if sess.Email != "admin@example.com" || sess.Status != models.StatusApproved {
		t.Fatalf("session %+v", sess)
	}

	if code := do(t, app, http.MethodGet, "/internal/sessions/unknown", "", nil, nil); code != http.StatusNotFound {
		t.Fatalf("unknown token: %d", code)
	}

	if code := do(t, app, http.MethodPost, "/logout", res.Token, nil, nil); code != http.StatusNoContent {
		t.Fatalf("logout: %d", code)
	}
	if code := do(t, app, http.MethodGet, "/internal/sessions/"+res.Token, "", nil, nil); code != http.StatusNotFound {
		t.Fatalf("token survived logout: %d", code)
	}
}

func TestRegisterApproveFlow(t *testing.T) {
	app, _ := newTestApp(t)

	var created models.User
	code := do(t, app, http.MethodPost, "/register", "", credentialsRequest{Email: "bia@example.com", Password: "festa2024"}, &created)
	if code != http.StatusCreated || created.Status != models.StatusPending {
		t.Fatalf("register: %d %+v", code, created)
	}
	if code := do(t, app, http.MethodPost, "/register", "", credentialsRequest{Email: "bia@example.com", Password: "festa2024"}, nil); code != http.StatusConflict {
		t.Fatalf("duplicate register: %d", code)
	}
	if code := do(t, app, http.MethodPost, "/register", "", credentialsRequest{Email: "short@example.com", Password: "123"}, nil); code != http.StatusBadRequest {
		t.Fatalf("short password: %d", code)
	}

	user := login(t, app, "bia@example.com", "festa2024")
	if user.User.Status != models.StatusPending {
		t.Fatalf("status = %s", user.User.Status)
	}

	if code := do(t, app, http.MethodGet, "/admin/users", user.Token, nil, nil); code != http.StatusForbidden {
		t.Fatalf("non-admin list: %d", code)
	}

	admin := login(t, app, "admin@example.com", "admin123")
	var list struct {
		Users []models.User `json:"users"`
	}
	if code := do(t, app, http.MethodGet, "/admin/users", admin.Token, nil, &list); code != http.StatusOK || len(list.Users) != 2 {
		t.Fatalf("list: %d %+v", code, list)
	}

	if code := do(t, app, http.MethodPost, "/admin/users/bia@example.com/approve", admin.Token, nil, nil); code != http.StatusOK {
		t.Fatalf("approve: %d", code)
	}

	var sess sessionPayload
	do(t, app, http.MethodGet, "/internal/sessions/"+user.Token, "", nil, &sess)
	if sess.Status != models.StatusApproved {
		t.Fatalf("status after approve = %s", sess.Status)
	}

	if code := do(t, app, http.MethodPost, "/admin/users/bia@example.com/block", admin.Token, nil, nil); code != http.StatusOK {
		t.Fatalf("block: %d", code)
	}
	do(t, app, http.MethodGet, "/internal/sessions/"+user.Token, "", nil, &sess)
	if sess.Status != models.StatusBlocked {
		t.Fatalf("status after block = %s", sess.Status)
	}

	if code := do(t, app, http.MethodPost, "/admin/users/admin@example.com/block", admin.Token, nil, nil); code != http.StatusForbidden {
		t.Fatalf("blocking admin: %d", code)
	}
	if code := do(t, app, http.MethodPost, "/admin/users/ghost@example.com/approve", admin.Token, nil, nil); code != http.StatusNotFound {
		t.Fatalf("unknown target: %d", code)
	}
}

func TestResetPasswordForcesChange(t *testing.T) {
	app, _ := newTestApp(t)
	do(t, app, http.MethodPost, "/register", "", credentialsRequest{Email: "caio@example.com", Password: "original"}, nil)
	old := login(t, app, "caio@example.com", "original")
	admin := login(t, app, "admin@example.com", "admin123")

	var reset struct {
		User         models.User `json:"user"`
		TempPassword string      `json:"tempPassword"`
	}
	if code := do(t, app, http.MethodPost, "/admin/users/caio@example.com/reset-password", admin.Token, nil, &reset); code != http.StatusOK {
		t.Fatalf("reset: %d", code)
	}
	if reset.TempPassword == "" || !reset.User.MustChangePassword {
		t.Fatalf("reset response %+v", reset)
	}
	if code := do(t, app, http.MethodGet, "/me", old.Token, nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("old token after reset: %d", code)
	}

	temp := login(t, app, "caio@example.com", reset.TempPassword)
	if !temp.User.MustChangePassword {
		t.Fatal("mustChangePassword not set")
	}

	change := changePasswordRequest{CurrentPassword: "wrong", NewPassword: "brandnew"}
	if code := do(t, app, http.MethodPost, "/password", temp.Token, change, nil); code != http.StatusUnauthorized {
		t.Fatalf("wrong current password: %d", code)
	}

	change.CurrentPassword = reset.TempPassword
	var me models.User
	if code := do(t, app, http.MethodPost, "/password", temp.Token, change, &me); code != http.StatusOK {
		t.Fatalf("change: %d", code)
	}
	if me.MustChangePassword {
		t.Fatal("mustChangePassword still set")
	}
	login(t, app, "caio@example.com", "brandnew")
}

func TestLegacyHashUpgradedOnLogin(t *testing.T) {
	app, repo := newTestApp(t)
	ctx := context.Background()

	sum := sha256.Sum256([]byte("legacy1"))
	u := &models.User{
		Email:        "old@example.com",
		PasswordHash: hex.EncodeToString(sum[:]),
		Role:         models.RoleUser,
		Status:       models.StatusApproved,
	}
	if err := repo.Insert(ctx, u); err != nil {
		t.Fatal(err)
	}

	login(t, app, "old@example.com", "legacy1")

	stored, err := repo.GetByEmail(ctx, "old@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if upgrade, err := service.CheckPassword(stored.PasswordHash, "legacy1"); err != nil || upgrade {
		t.Fatalf("hash not upgraded: upgrade=%v err=%v hash=%q", upgrade, err, stored.PasswordHash)
	}
}

func TestDeleteUserRevokesSessions(t *testing.T) {
	app, _ := newTestApp(t)
	do(t, app, http.MethodPost, "/register", "", credentialsRequest{Email: "duda@example.com", Password: "segredo"}, nil)
	user := login(t, app, "duda@example.com", "segredo")
	admin := login(t, app, "admin@example.com", "admin123")

	if code := do(t, app, http.MethodDelete, "/admin/users/duda@example.com", admin.Token, nil, nil); code != http.StatusNoContent {
		t.Fatalf("delete: %d", code)
	}
	if code := do(t, app, http.MethodGet, "/internal/sessions/"+user.Token, "", nil, nil); code != http.StatusNotFound {
		t.Fatalf("session survived delete: %d", code)
	}
	if code := do(t, app, http.MethodGet, "/me", "", nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("anonymous me: %d", code)
	}
}
