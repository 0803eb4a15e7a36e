package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"workdiary.app/server/internal/activity"
	"workdiary.app/server/internal/http/handler"
	"workdiary.app/server/internal/http/middleware"
	"workdiary.app/server/internal/model"
	"workdiary.app/server/internal/platform"
	"workdiary.app/server/internal/service"
)

func authedRequest(method, target string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "123"})
	return req
}

var _ = Describe("ActivityHandler", func() {
	var (
		router *gin.Engine
		svc    *mockActivityService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		svc = &mockActivityService{}

		h := handler.NewActivityHandler(svc)
		auth := middleware.RequireAuth(&mockAuthService{})
		router.GET("/activity", auth, h.GetComposite)
		router.GET("/activity/slack", auth, h.GetSlack)
		router.GET("/activity/calendar", auth, h.GetCalendar)
		router.GET("/activity/github", auth, h.GetGitHub)
	})

	Describe("GetComposite", func() {
		It("returns the merged view with all three sections", func() {
			svc.analyzeFn = func(_ context.Context, userID int64, days int) (*activity.CompositeView, *model.AnalysisSnapshot, error) {
				Expect(userID).To(Equal(int64(1)))
				Expect(days).To(Equal(14))
				return activity.Merge(activity.MergeParams{
					Slack: &activity.SlackStats{Status: activity.StatusOK, TotalMessages: 42},
				}), nil, nil
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, authedRequest(http.MethodGet, "/activity?days=14"))

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp).To(HaveKey("slack"))
			Expect(resp).To(HaveKey("calendar"))
			Expect(resp).To(HaveKey("github"))
			Expect(resp).To(HaveKey("services_connected"))
		})

		It("returns 400 for an out-of-range window", func() {
			svc.analyzeFn = func(_ context.Context, _ int64, _ int) (*activity.CompositeView, *model.AnalysisSnapshot, error) {
				return nil, nil, service.ErrInvalidDays
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, authedRequest(http.MethodGet, "/activity?days=120"))

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 401 without a session cookie", func() {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/activity", nil))

			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("per-platform endpoints", func() {
		It("returns 400 when the platform is not connected", func() {
			svc.analyzeSlackFn = func(_ context.Context, _ int64, _ int) (*activity.SlackStats, error) {
				return nil, platform.ErrNotConnected
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, authedRequest(http.MethodGet, "/activity/slack"))

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(w.Body.String()).To(ContainSubstring("connect slack first"))
		})

		It("returns 401 when the credential is invalid", func() {
			svc.analyzeGitHubFn = func(_ context.Context, _ int64, _ int) (*activity.GitHubStats, error) {
				return nil, platform.ErrCredentialInvalid
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, authedRequest(http.MethodGet, "/activity/github"))

			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})

		It("returns 502 when the platform is unavailable", func() {
			svc.analyzeCalendarFn = func(_ context.Context, _ int64, _ int) (*activity.CalendarStats, error) {
				return nil, platform.ErrUnavailable
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, authedRequest(http.MethodGet, "/activity/calendar"))

			Expect(w.Code).To(Equal(http.StatusBadGateway))
		})

		It("returns 500 on unexpected errors", func() {
			svc.analyzeSlackFn = func(_ context.Context, _ int64, _ int) (*activity.SlackStats, error) {
				return nil, errors.New("boom")
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, authedRequest(http.MethodGet, "/activity/slack"))

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
		})

		It("returns the stats on success", func() {
			svc.analyzeSlackFn = func(_ context.Context, _ int64, _ int) (*activity.SlackStats, error) {
				return &activity.SlackStats{Status: activity.StatusOK, TotalMessages: 7}, nil
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, authedRequest(http.MethodGet, "/activity/slack"))

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(ContainSubstring(`"total_messages":7`))
		})
	})
})
