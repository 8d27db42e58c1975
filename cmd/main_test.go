package main

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/handball/internal/adapters/kv"
	"github.com/okian/handball/internal/config"
	"github.com/okian/handball/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func TestStoreConfig(t *testing.T) {
	convey.Convey("Given a config selecting the s3 backend", t, func() {
		cfg := config.New()
		cfg.StoreDriver = "s3"
		cfg.S3Bucket = "recordings"
		cfg.S3Region = "eu-central-1"
		cfg.S3Endpoint = "http://localhost:9000"
		cfg.S3PathStyle = true
		cfg.S3Prefix = "club/"

		convey.Convey("Then the backend config carries every setting", func() {
			sc := storeConfig(cfg)
			convey.So(sc.Driver, convey.ShouldEqual, "s3")
			convey.So(sc.S3, convey.ShouldResemble, kv.S3Config{
				Bucket:    "recordings",
				Region:    "eu-central-1",
				Endpoint:  "http://localhost:9000",
				PathStyle: true,
				Prefix:    "club/",
			})
		})
	})
}

func TestHandler(t *testing.T) {
	convey.Convey("Given the wired handler over a memory store", t, func() {
		ctx := context.Background()
		cfg := config.New()
		cfg.StoreDriver = "memory"

		store, err := kv.Open(ctx, storeConfig(cfg))
		convey.So(err, convey.ShouldBeNil)
		svc := newService(store, cfg, logger.Nop())
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		h := newHandler(ctx, svc, cfg, logger.Nop())

		convey.Convey("Then API, docs and metrics routes respond", func() {
			for _, path := range []string{"/files", "/openapi.yaml", "/api-docs", "/healthz", "/stats", "/scores/fiveJump?value=13.5"} {
				rec := httptest.NewRecorder()
				h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			}

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/files", strings.NewReader(`{"name":"Nabór"}`)))
			convey.So(rec.Code, convey.ShouldEqual, http.StatusCreated)
		})
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given a config on a free port with a sqlite store", t, func() {
		l, err := net.Listen("tcp", "127.0.0.1:0")
		convey.So(err, convey.ShouldBeNil)
		addr := l.Addr().String()
		convey.So(l.Close(), convey.ShouldBeNil)

		cfg := config.New()
		cfg.Addr = addr
		cfg.StoreDriver = "sqlite"
		cfg.StorePath = filepath.Join(t.TempDir(), "handball.db")

		convey.Convey("When run is cancelled after serving a request", func() {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- run(ctx, cfg, logger.Nop()) }()

			var resp *http.Response
			deadline := time.Now().Add(5 * time.Second)
			for time.Now().Before(deadline) {
				resp, err = http.Get("http://" + addr + "/files")
				if err == nil {
					break
				}
				time.Sleep(20 * time.Millisecond)
			}
			cancel()

			convey.Convey("Then it served and shut down cleanly", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
				_ = resp.Body.Close()
				convey.So(<-done, convey.ShouldBeNil)

				_, statErr := os.Stat(cfg.StorePath)
				convey.So(statErr, convey.ShouldBeNil)
			})
		})
	})

	convey.Convey("Given a config with an unusable backend", t, func() {
		cfg := config.New()
		cfg.StoreDriver = "fs"
		cfg.StorePath = ""

		convey.Convey("Then run fails before listening", func() {
			err := run(context.Background(), cfg, logger.Nop())
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestSystemMetrics(t *testing.T) {
	convey.Convey("Given the system metrics updater", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		convey.So(func() {
			updateSystemMetrics()
			startSystemMetricsUpdater(ctx)
		}, convey.ShouldNotPanic)
	})
}
