package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/permis-dz/lifecycle-service/internal/models"
	"github.com/permis-dz/lifecycle-service/internal/repositories"
)

// stubUserRepo serves a fixed set of users to the auth middleware.
type stubUserRepo struct {
	users map[string]*models.User
}

func (s *stubUserRepo) Create(ctx context.Context, tx *gorm.DB, user *models.User) error { return nil }
func (s *stubUserRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.User, error) {
	if user, ok := s.users[id]; ok {
		return user, nil
	}
	return nil, repositories.ErrNotFound
}
func (s *stubUserRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error) {
	return nil, repositories.ErrNotFound
}
func (s *stubUserRepo) Update(ctx context.Context, tx *gorm.DB, user *models.User) error { return nil }
func (s *stubUserRepo) UpdateRole(ctx context.Context, tx *gorm.DB, userID string, role models.UserRole) error {
	return nil
}
func (s *stubUserRepo) Deactivate(ctx context.Context, tx *gorm.DB, userID string) error { return nil }

func authTestRouter(am *JWTAuthMiddleware) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", am.AuthMiddleware(), func(c *gin.Context) {
		userID := c.GetString("user_id")
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	})
	return router
}

func TestAuthMiddlewareAcceptsIssuedToken(t *testing.T) {
	user := &models.User{ID: "u1", Email: "amine@example.com", Role: models.RoleStudent, IsActive: true}
	am := NewJWTAuthMiddleware("test-secret", time.Hour, &stubUserRepo{users: map[string]*models.User{"u1": user}})
	router := authTestRouter(am)

	token, err := am.IssueToken(user)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/protected", nil)
	request.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Errorf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
}

func TestAuthMiddlewareRejectsMissingAndMalformedHeaders(t *testing.T) {
	am := NewJWTAuthMiddleware("test-secret", time.Hour, &stubUserRepo{users: map[string]*models.User{}})
	router := authTestRouter(am)

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not-a-jwt"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			request := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tc.header != "" {
				request.Header.Set("Authorization", tc.header)
			}
			router.ServeHTTP(recorder, request)

			if recorder.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", recorder.Code)
			}
		})
	}
}

func TestAuthMiddlewareRejectsWrongSecret(t *testing.T) {
	user := &models.User{ID: "u1", Email: "amine@example.com", Role: models.RoleStudent, IsActive: true}
	repo := &stubUserRepo{users: map[string]*models.User{"u1": user}}

	issuer := NewJWTAuthMiddleware("secret-a", time.Hour, repo)
	verifier := NewJWTAuthMiddleware("secret-b", time.Hour, repo)
	router := authTestRouter(verifier)

	token, err := issuer.IssueToken(user)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/protected", nil)
	request.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for a foreign signature, got %d", recorder.Code)
	}
}

func TestAuthMiddlewareRejectsDeactivatedUser(t *testing.T) {
	user := &models.User{ID: "u1", Email: "amine@example.com", Role: models.RoleStudent, IsActive: false}
	am := NewJWTAuthMiddleware("test-secret", time.Hour, &stubUserRepo{users: map[string]*models.User{"u1": user}})
	router := authTestRouter(am)

	token, err := am.IssueToken(user)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/protected", nil)
	request.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for a deactivated account, got %d", recorder.Code)
	}
}
