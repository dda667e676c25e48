package app

import (
	"context"
	"intervue/internal/config"
	"intervue/internal/model"
	"intervue/internal/service"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/smartystreets/goconvey/convey"
	"go.uber.org/zap"
)

func TestNewMemoryApp(t *testing.T) {
	convey.Convey("Given a memory-backed configuration", t, func() {
		cfg := &config.Config{
			StoreDriver:        config.StoreMemory,
			JWTSecret:          "secret",
			CORSAllowedOrigins: "*",
		}
		ctx := context.Background()

		a, err := New(ctx, cfg, zap.NewNop())
		convey.So(err, convey.ShouldBeNil)
		convey.Reset(func() { a.Close(ctx) })

		convey.Convey("Caches stay disabled without Redis", func() {
			convey.So(a.SessionCache, convey.ShouldBeNil)
			convey.So(a.DayCache, convey.ShouldBeNil)
		})

		convey.Convey("The services share one store", func() {
			admin := model.Identity{UserID: "admin-1", Role: model.RoleAdmin}
			day, err := a.Days.Create(ctx, admin, service.CreateDayInput{Date: "2025-03-10"})
			convey.So(err, convey.ShouldBeNil)

			stored, err := a.Repos.Days.GetByID(ctx, day.ID)
			convey.So(err, convey.ShouldBeNil)
			convey.So(stored.Date, convey.ShouldEqual, "2025-03-10")
		})

		convey.Convey("The router serves health", func() {
			rec := httptest.NewRecorder()
			a.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
		})
	})
}
