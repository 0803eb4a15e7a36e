package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"workdiary.app/server/internal/http/handler"
	"workdiary.app/server/internal/http/middleware"
	"workdiary.app/server/internal/model"
)

var _ = Describe("AuthHandler", func() {
	const frontendURL = "https://app.example.com"

	var (
		router *gin.Engine
		svc    *mockAuthService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		svc = &mockAuthService{}

		h := handler.NewAuthHandler(svc, frontendURL, false)
		router.GET("/auth/login", h.Login)
		router.GET("/auth/callback", h.Callback)
		router.POST("/auth/logout", h.Logout)
		router.GET("/auth/me", middleware.RequireAuth(svc), h.Me)
	})

	Describe("Login", func() {
		It("redirects to the provider and sets the state cookie", func() {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/login", nil))

			Expect(w.Code).To(Equal(http.StatusTemporaryRedirect))
			Expect(w.Header().Get("Location")).To(HavePrefix("https://auth.example.com/authorize"))
			Expect(w.Header().Get("Set-Cookie")).To(ContainSubstring("workdiary_oauth_state"))
		})
	})

	Describe("Callback", func() {
		It("creates the session and redirects to the dashboard", func() {
			svc.handleCallbackFn = func(_ context.Context, code string) (*model.User, *model.Session, error) {
				Expect(code).To(Equal("abc"))
				return &model.User{ID: 1, Email: "priya@example.com"}, &model.Session{ID: 555}, nil
			}

			req := httptest.NewRequest(http.MethodGet, "/auth/callback?state=st&code=abc", nil)
			req.AddCookie(&http.Cookie{Name: "workdiary_oauth_state", Value: "st"})
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusTemporaryRedirect))
			Expect(w.Header().Get("Location")).To(Equal(frontendURL + "/dashboard"))
			Expect(w.Header().Values("Set-Cookie")).To(ContainElement(ContainSubstring(middleware.SessionCookieName + "=555")))
		})

		It("rejects a state mismatch", func() {
			req := httptest.NewRequest(http.MethodGet, "/auth/callback?state=bad&code=abc", nil)
			req.AddCookie(&http.Cookie{Name: "workdiary_oauth_state", Value: "st"})
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Header().Get("Location")).To(ContainSubstring("auth_error=invalid_state"))
		})

		It("surfaces a provider error", func() {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/callback?error=access_denied", nil))

			Expect(w.Header().Get("Location")).To(ContainSubstring("auth_error=access_denied"))
		})
	})

	Describe("Me", func() {
		It("returns the current user", func() {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, authedRequest(http.MethodGet, "/auth/me"))

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(ContainSubstring("priya@example.com"))
		})

		It("returns 401 without a session", func() {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/me", nil))

			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("Logout", func() {
		It("deletes the session and clears the cookie", func() {
			var loggedOut int64
			svc.logoutFn = func(_ context.Context, sessionID int64) error {
				loggedOut = sessionID
				return nil
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, authedRequest(http.MethodPost, "/auth/logout"))

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(loggedOut).To(Equal(int64(123)))
		})
	})
})
