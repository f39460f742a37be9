package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"invite-studio/internal/auth/models"
	"invite-studio/internal/auth/repository"
	"invite-studio/internal/auth/service"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Auth Handler
// ============================================================

type AuthHandler struct {
	repo     *repository.Repository
	sessions *service.SessionManager
}

func NewAuthHandler(repo *repository.Repository, sessions *service.SessionManager) *AuthHandler {
	return &AuthHandler{
		repo:     repo,
		sessions: sessions,
	}
}

// Mount registers every auth route on r.
func (h *AuthHandler) Mount(r fiber.Router) {
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.Post("/register", h.Register)
	r.Post("/password", h.ChangePassword)
	r.Get("/me", h.Me)

	admin := r.Group("/admin")
	admin.Get("/users", h.ListUsers)
	admin.Post("/users/:email/approve", h.Approve)
	admin.Post("/users/:email/block", h.Block)
	admin.Post("/users/:email/reset-password", h.ResetPassword)
	admin.Delete("/users/:email", h.DeleteUser)

	// Internal routes (для межсервисного общения)
	r.Get("/internal/sessions/:token", h.ResolveSession)
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type sessionPayload struct {
	ID     string        `json:"id"`
	Email  string        `json:"email"`
	Role   models.Role   `json:"role"`
	Status models.Status `json:"status"`
}

// ============================================================
// Account
// ============================================================

// Login выдает токен по паре email/password. Пользователь получает токен
// при любом статусе; что ему доступно, решает студия.
func (h *AuthHandler) Login(c fiber.Ctx) error {
	log.Printf("[AUTH] Login request")

	req, err := decodeCredentials(c)
	if err != nil {
		return err
	}

	ctx := context.Background()
	user, err := h.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Printf("[AUTH] Lookup failed: %v", err)
		}
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "invalid credentials"})
	}

	upgrade, err := service.CheckPassword(user.PasswordHash, req.Password)
	if err != nil {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "invalid credentials"})
	}

	if upgrade {
		if hash, err := service.HashPassword(req.Password); err == nil {
			user.PasswordHash = hash
			if err := h.repo.Update(ctx, user); err != nil {
				log.Printf("[AUTH] Hash upgrade for %s failed: %v", user.Email, err)
			} else {
				log.Printf("[AUTH] Upgraded legacy hash for %s", user.Email)
			}
		}
	}

	token := h.sessions.Issue(user.ID)
	log.Printf("[AUTH] %s logged in (status %s)", user.Email, user.Status)

	return c.JSON(loginResponse{
		Token: token,
		User:  user,
	})
}

func (h *AuthHandler) Logout(c fiber.Ctx) error {
	if token, ok := bearer(c); ok {
		h.sessions.Revoke(token)
	}
	return c.SendStatus(http.StatusNoContent)
}

// Register создает пользователя в статусе PENDING.
func (h *AuthHandler) Register(c fiber.Ctx) error {
	req, err := decodeCredentials(c)
	if err != nil {
		return err
	}
	if !strings.Contains(req.Email, "@") {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid email"})
	}

	hash, err := service.HashPassword(req.Password)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: hash,
		Role:         models.RoleUser,
		Status:       models.StatusPending,
	}
	if err := h.repo.Insert(context.Background(), user); err != nil {
		if errors.Is(err, repository.ErrExists) {
			return c.Status(http.StatusConflict).JSON(fiber.Map{"error": "email already registered"})
		}
		return err
	}

	log.Printf("[AUTH] Registered %s, awaiting approval", user.Email)
	return c.Status(http.StatusCreated).JSON(user)
}

// ChangePassword меняет пароль и снимает флаг mustChangePassword.
func (h *AuthHandler) ChangePassword(c fiber.Ctx) error {
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}
	if _, err := service.CheckPassword(user.PasswordHash, req.CurrentPassword); err != nil {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "current password is wrong"})
	}

	hash, err := service.HashPassword(req.NewPassword)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	user.PasswordHash = hash
	user.MustChangePassword = false
	if err := h.repo.Update(context.Background(), user); err != nil {
		return err
	}
	return c.JSON(user)
}

func (h *AuthHandler) Me(c fiber.Ctx) error {
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

// ============================================================
// Admin
// ============================================================

func (h *AuthHandler) ListUsers(c fiber.Ctx) error {
	if _, err := h.requireAdmin(c); err != nil {
		return err
	}
	users, err := h.repo.List(context.Background())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"users": users})
}

func (h *AuthHandler) Approve(c fiber.Ctx) error {
	return h.setStatus(c, models.StatusApproved)
}

func (h *AuthHandler) Block(c fiber.Ctx) error {
	return h.setStatus(c, models.StatusBlocked)
}

func (h *AuthHandler) setStatus(c fiber.Ctx, status models.Status) error {
	target, err := h.adminTarget(c)
	if err != nil {
		return err
	}

	target.Status = status
	if err := h.repo.Update(context.Background(), target); err != nil {
		return err
	}
	log.Printf("[AUTH] %s -> %s", target.Email, status)
	return c.JSON(target)
}

// ResetPassword выдает временный пароль. Он возвращается один раз и не
// хранится в открытом виде.
func (h *AuthHandler) ResetPassword(c fiber.Ctx) error {
	target, err := h.adminTarget(c)
	if err != nil {
		return err
	}

	temp, err := service.TempPassword()
	if err != nil {
		return err
	}
	hash, err := service.HashPassword(temp)
	if err != nil {
		return err
	}

	target.PasswordHash = hash
	target.MustChangePassword = true
	if err := h.repo.Update(context.Background(), target); err != nil {
		return err
	}
	h.sessions.RevokeUser(target.ID)

	log.Printf("[AUTH] Password reset for %s", target.Email)
	return c.JSON(fiber.Map{
		"user":         target,
		"tempPassword": temp,
	})
}

func (h *AuthHandler) DeleteUser(c fiber.Ctx) error {
	target, err := h.adminTarget(c)
	if err != nil {
		return err
	}

	if err := h.repo.Delete(context.Background(), target.Email); err != nil {
		return err
	}
	revoked := h.sessions.RevokeUser(target.ID)

	log.Printf("[AUTH] Deleted %s (%d sessions revoked)", target.Email, revoked)
	return c.SendStatus(http.StatusNoContent)
}

// adminTarget checks the caller is an admin and loads the :email user.
// Admin accounts cannot be targeted.
func (h *AuthHandler) adminTarget(c fiber.Ctx) (*models.User, error) {
	if _, err := h.requireAdmin(c); err != nil {
		return nil, err
	}

	target, err := h.repo.GetByEmail(context.Background(), c.Params("email"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fiber.NewError(http.StatusNotFound, "user not found")
		}
		return nil, err
	}
	if target.IsAdmin() {
		return nil, fiber.NewError(http.StatusForbidden, "admin accounts cannot be modified")
	}
	return target, nil
}

// ============================================================
// Internal
// ============================================================

// ResolveSession is called by the studio for every request it serves.
func (h *AuthHandler) ResolveSession(c fiber.Ctx) error {
	userID, ok := h.sessions.Resolve(c.Params("token"))
	if !ok {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "unknown session"})
	}

	user, err := h.repo.GetByID(context.Background(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "unknown session"})
		}
		return err
	}

	return c.JSON(sessionPayload{
		ID:     user.ID,
		Email:  user.Email,
		Role:   user.Role,
		Status: user.Status,
	})
}

// ============================================================
// Helpers
// ============================================================

func bearer(c fiber.Ctx) (string, bool) {
	auth := c.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	return strings.TrimPrefix(auth, "Bearer "), true
}

func (h *AuthHandler) authorize(c fiber.Ctx) (string, bool) {
	token, ok := bearer(c)
	if !ok {
		return "", false
	}
	return h.sessions.Resolve(token)
}

func (h *AuthHandler) currentUser(c fiber.Ctx) (*models.User, error) {
	userID, ok := h.authorize(c)
	if !ok {
		return nil, fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	user, err := h.repo.GetByID(context.Background(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fiber.NewError(http.StatusUnauthorized, "unauthorized")
		}
		return nil, err
	}
	return user, nil
}

func (h *AuthHandler) requireAdmin(c fiber.Ctx) (*models.User, error) {
	user, err := h.currentUser(c)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() {
		return nil, fiber.NewError(http.StatusForbidden, "forbidden")
	}
	return user, nil
}

func decodeCredentials(c fiber.Ctx) (credentialsRequest, error) {
	var req credentialsRequest
	if len(c.Body()) == 0 {
		return req, fiber.NewError(http.StatusBadRequest, "empty body")
	}
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return req, fiber.NewError(http.StatusBadRequest, "invalid json")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return req, fiber.NewError(http.StatusBadRequest, "email and password required")
	}
	return req, nil
}
