package main

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/niicolenco/tikbattle/internal/adapters/http/api"
	service "github.com/niicolenco/tikbattle/internal/app"
	"github.com/niicolenco/tikbattle/internal/config"
	"github.com/niicolenco/tikbattle/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			t.Setenv("TIKBATTLE_ADDR", ":18080")
			t.Setenv("TIKBATTLE_QUEUE_SIZE", "1000")

			convey.Convey("Then configuration should be loadable", func() {
				ctx := context.Background()
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":18080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 1000)
			})
		})

		convey.Convey("When testing service creation", func() {
			cfg := config.New(context.Background())
			cfg.DataDir = t.TempDir()

			convey.Convey("Then service should be creatable with defaults", func() {
				svc := service.New(cfg)
				convey.So(svc, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When testing HTTP server creation", func() {
			ctx := context.Background()
			cfg := config.New(ctx)
			cfg.DataDir = t.TempDir()
			svc := service.New(cfg)
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer svc.Stop()

			mux := http.NewServeMux()
			api.NewServer(svc, svc.Hub()).Register(ctx, mux)

			srv := &http.Server{
				Addr:              ":0",
				Handler:           mux,
				ReadHeaderTimeout: time.Second,
			}
			convey.So(srv, convey.ShouldNotBeNil)
			convey.So(srv.Handler, convey.ShouldNotBeNil)
			_ = srv.Close()
		})
	})
}

func TestMetricsUpdaters(t *testing.T) {
	convey.Convey("Given the metrics updaters", t, func() {
		convey.Convey("updateSystemMetrics should not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})

		convey.Convey("updateServiceMetrics should read the service snapshot", func() {
			ctx := context.Background()
			cfg := config.New(ctx)
			cfg.DataDir = t.TempDir()
			svc := service.New(cfg)
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer svc.Stop()

			convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
		})
	})
}
