package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/handball/internal/adapters/http/api"
	"github.com/okian/handball/internal/adapters/kv"
	"github.com/okian/handball/internal/adapters/spreadsheet"
	service "github.com/okian/handball/internal/app"
	"github.com/okian/handball/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type testServer struct {
	svc *service.Service
	mux *http.ServeMux
	srv *httptest.Server
}

func newTestServer(opts ...api.Option) *testServer {
	svc := service.New(kv.NewMemory(), service.WithQuietWindow(time.Hour))
	So(svc.Start(context.Background()), ShouldBeNil)

	mux := http.NewServeMux()
	api.NewServer(svc, opts...).Register(context.Background(), mux)
	return &testServer{svc: svc, mux: mux, srv: httptest.NewServer(mux)}
}

func (ts *testServer) close() {
	ts.srv.Close()
	_ = ts.svc.Stop(context.Background())
}

func (ts *testServer) do(method, path string, body any) *http.Response {
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		rd = bytes.NewReader(b)
	case string:
		rd = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		So(err, ShouldBeNil)
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.srv.URL+path, rd)
	So(err, ShouldBeNil)
	resp, err := http.DefaultClient.Do(req)
	So(err, ShouldBeNil)
	return resp
}

func decode(resp *http.Response, v any) {
	defer resp.Body.Close()
	So(json.NewDecoder(resp.Body).Decode(v), ShouldBeNil)
}

func errorCode(resp *http.Response) string {
	var body struct {
		Code string `json:"code"`
	}
	decode(resp, &body)
	return body.Code
}

func (ts *testServer) createFile(name string) service.File {
	resp := ts.do(http.MethodPost, "/files", map[string]string{"name": name})
	So(resp.StatusCode, ShouldEqual, http.StatusCreated)
	var f service.File
	decode(resp, &f)
	return f
}

func TestScores(t *testing.T) {
	Convey("Given the API server", t, func() {
		ts := newTestServer()
		defer ts.close()

		Convey("When a score is looked up", func() {
			cases := []struct {
				path  string
				score int
			}{
				{"/scores/sprint30m?value=3.71", 79},
				{"/scores/medicineBall?value=18.01", 20},
				{"/scores/fiveJump?value=13.5", 80},
			}
			for _, c := range cases {
				resp := ts.do(http.MethodGet, c.path, nil)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var body struct {
					Score int `json:"score"`
				}
				decode(resp, &body)
				So(body.Score, ShouldEqual, c.score)
			}
		})

		Convey("When the test or value is unknown", func() {
			resp := ts.do(http.MethodGet, "/scores/handThrow?value=3", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			resp.Body.Close()

			resp = ts.do(http.MethodGet, "/scores/sprint30m?value=abc", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			So(errorCode(resp), ShouldEqual, "bad_request")
		})
	})
}

func TestFiles(t *testing.T) {
	Convey("Given the API server", t, func() {
		ts := newTestServer()
		defer ts.close()

		Convey("When the catalog is empty", func() {
			resp := ts.do(http.MethodGet, "/files", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			var files []api.FileInfo
			decode(resp, &files)
			So(files, ShouldBeEmpty)
		})

		Convey("When a file is created", func() {
			f := ts.createFile("Nabór")
			So(f.Info.Name, ShouldEqual, "Nabór")
			So(f.Groups, ShouldHaveLength, 1)

			Convey("Then it is listed and can be opened", func() {
				resp := ts.do(http.MethodGet, "/files", nil)
				var files []api.FileInfo
				decode(resp, &files)
				So(files, ShouldHaveLength, 1)
				So(files[0].ID, ShouldEqual, f.Info.ID)

				resp = ts.do(http.MethodGet, "/files/"+f.Info.ID, nil)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var opened service.File
				decode(resp, &opened)
				So(opened.Groups[0].Name, ShouldEqual, "Grupa 1")
			})

			Convey("Then it can be renamed", func() {
				resp := ts.do(http.MethodPatch, "/files/"+f.Info.ID, map[string]string{"name": "Kadra"})
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var renamed service.File
				decode(resp, &renamed)
				So(renamed.Info.Name, ShouldEqual, "Kadra")
			})

			Convey("Then it can be deleted", func() {
				resp := ts.do(http.MethodDelete, "/files/"+f.Info.ID, nil)
				So(resp.StatusCode, ShouldEqual, http.StatusNoContent)
				resp.Body.Close()

				resp = ts.do(http.MethodGet, "/files/"+f.Info.ID, nil)
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
				So(errorCode(resp), ShouldEqual, "not_found")
			})
		})

		Convey("When the request is malformed", func() {
			resp := ts.do(http.MethodPost, "/files", "{")
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			resp.Body.Close()

			resp = ts.do(http.MethodPost, "/files", map[string]string{"name": "  "})
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			resp.Body.Close()
		})
	})
}

func TestGroupsAndPlayers(t *testing.T) {
	Convey("Given an open file", t, func() {
		ts := newTestServer()
		defer ts.close()
		f := ts.createFile("Test")
		base := "/files/" + f.Info.ID

		Convey("When the last group is removed", func() {
			resp := ts.do(http.MethodDelete, base+"/groups/0", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusConflict)
			So(errorCode(resp), ShouldEqual, "conflict")
		})

		Convey("When groups are added and renamed", func() {
			resp := ts.do(http.MethodPost, base+"/groups", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusCreated)
			resp.Body.Close()

			resp = ts.do(http.MethodPatch, base+"/groups/1", map[string]string{"name": "U14"})
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			var got service.File
			decode(resp, &got)
			So(got.Groups, ShouldHaveLength, 2)
			So(got.Groups[1].Name, ShouldEqual, "U14")

			resp = ts.do(http.MethodDelete, base+"/groups/0", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			decode(resp, &got)
			So(got.Groups, ShouldHaveLength, 1)
		})

		Convey("When a player is added and scored", func() {
			resp := ts.do(http.MethodPost, base+"/groups/0/players", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusCreated)
			resp.Body.Close()

			resp = ts.do(http.MethodPatch, base+"/groups/0/players/0",
				map[string]any{"field": "sprint30m_time", "value": "3.71"})
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			var p model.Player
			decode(resp, &p)
			So(*p.Sprint30mScore, ShouldEqual, 79)

			Convey("Then numeric and null values are accepted", func() {
				resp := ts.do(http.MethodPatch, base+"/groups/0/players/0",
					map[string]any{"field": "fiveJump_distance", "value": 13.5})
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				decode(resp, &p)
				So(*p.FiveJumpScore, ShouldEqual, 80)

				resp = ts.do(http.MethodPatch, base+"/groups/0/players/0",
					map[string]any{"field": "sprint30m_time", "value": nil})
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				decode(resp, &p)
				So(p.Sprint30mScore, ShouldBeNil)
			})

			Convey("Then invalid updates are rejected", func() {
				cases := []struct {
					path   string
					body   map[string]any
					status int
				}{
					{"/groups/0/players/0", map[string]any{"field": "handThrow_score", "value": 81}, http.StatusBadRequest},
					{"/groups/0/players/0", map[string]any{"field": "fiveJump_score", "value": 10}, http.StatusBadRequest},
					{"/groups/0/players/0", map[string]any{"field": "weight", "value": 10}, http.StatusBadRequest},
					{"/groups/0/players/0", map[string]any{"field": "firstName", "value": true}, http.StatusBadRequest},
					{"/groups/0/players/7", map[string]any{"field": "firstName", "value": "Ola"}, http.StatusNotFound},
					{"/groups/3/players/0", map[string]any{"field": "firstName", "value": "Ola"}, http.StatusNotFound},
					{"/groups/x/players/0", map[string]any{"field": "firstName", "value": "Ola"}, http.StatusBadRequest},
				}
				for _, c := range cases {
					resp := ts.do(http.MethodPatch, base+c.path, c.body)
					So(resp.StatusCode, ShouldEqual, c.status)
					resp.Body.Close()
				}
			})

			Convey("Then the player can be removed", func() {
				resp := ts.do(http.MethodDelete, base+"/groups/0/players/0", nil)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var got service.File
				decode(resp, &got)
				So(got.Groups[0].Players, ShouldBeEmpty)
			})
		})
	})
}

func TestWorkbooks(t *testing.T) {
	Convey("Given a file with a scored player", t, func() {
		ts := newTestServer(api.WithMaxUploadBytes(1 << 20))
		defer ts.close()
		f := ts.createFile("Test")
		base := "/files/" + f.Info.ID
		resp := ts.do(http.MethodPost, base+"/groups/0/players", nil)
		resp.Body.Close()
		resp = ts.do(http.MethodPatch, base+"/groups/0/players/0", map[string]any{"field": "lastName", "value": "Nowak"})
		resp.Body.Close()

		Convey("When it is exported", func() {
			resp := ts.do(http.MethodGet, base+"/export", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(resp.Header.Get("Content-Type"), ShouldEqual, spreadsheet.MIMEType)
			So(resp.Header.Get("Content-Disposition"), ShouldStartWith, `attachment; filename="dane_testowe_zawodnikow_`)
			data, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			So(err, ShouldBeNil)

			Convey("Then the workbook imports as a new file", func() {
				resp := ts.do(http.MethodPost, "/files/import?name=Kopia", data)
				So(resp.StatusCode, ShouldEqual, http.StatusCreated)
				var imported service.File
				decode(resp, &imported)
				So(imported.Info.Name, ShouldEqual, "Kopia")
				So(imported.Groups[0].Players[0].LastName, ShouldEqual, "Nowak")
			})
		})

		Convey("When a broken workbook is imported", func() {
			resp := ts.do(http.MethodPost, "/files/import?name=x", []byte("not a workbook"))
			So(resp.StatusCode, ShouldEqual, http.StatusUnprocessableEntity)
			So(errorCode(resp), ShouldEqual, "unprocessable")
		})

		Convey("When an upload is too large", func() {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/files/import?name=x", bytes.NewReader(bytes.Repeat([]byte("x"), 2<<20)))
			ts.mux.ServeHTTP(rec, req)
			So(rec.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
			So(rec.Body.String(), ShouldContainSubstring, `"code":"payload_too_large"`)
		})

		Convey("When an unknown file is exported", func() {
			resp := ts.do(http.MethodGet, "/files/missing/export", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			resp.Body.Close()
		})
	})
}

func TestHealthAndStats(t *testing.T) {
	Convey("Given the API server", t, func() {
		ts := newTestServer()
		defer ts.close()
		ts.createFile("Test")

		Convey("When /healthz is requested", func() {
			resp := ts.do(http.MethodGet, "/healthz", nil)
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)

			Convey("Then Prometheus metrics are served", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(string(body), ShouldContainSubstring, "handball_recorder_http_requests_total")
				So(string(body), ShouldContainSubstring, "handball_recorder_files_created_total")
			})
		})

		Convey("When /stats is requested", func() {
			resp := ts.do(http.MethodGet, "/stats", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			var stats map[string]any
			decode(resp, &stats)
			So(stats["started"], ShouldEqual, true)
			So(stats["openFiles"], ShouldEqual, float64(1))
		})
	})

	Convey("Given a server whose service is not started", t, func() {
		svc := service.New(kv.NewMemory())
		mux := http.NewServeMux()
		api.NewServer(svc).Register(context.Background(), mux)

		Convey("Then file requests are unavailable", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files", nil))
			So(rec.Code, ShouldEqual, http.StatusServiceUnavailable)
		})

		Convey("Then unknown methods are rejected by the router", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/files", nil))
			So(rec.Code, ShouldEqual, http.StatusMethodNotAllowed)
			So(rec.Header().Get("Allow"), ShouldContainSubstring, http.MethodGet)
		})
	})
}
