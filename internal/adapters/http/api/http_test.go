package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/okian/vigil/internal/adapters/http/api"
	"github.com/okian/vigil/internal/app"
	"github.com/okian/vigil/internal/config"
	"github.com/okian/vigil/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	_ = logger.SetLevelString("error")
	os.Exit(m.Run())
}

func newTestServer() (*httptest.Server, func()) {
	cfg := config.New()
	cfg.WorkerCount = 1
	cfg.QueueSize = 8
	cfg.MaxBatchSize = 5
	cfg.SweepIntervalSec = 3600

	svc, err := app.New(cfg)
	So(err, ShouldBeNil)
	So(svc.Start(context.Background()), ShouldBeNil)

	srv := api.NewServer(svc)
	ts := httptest.NewServer(srv.Handler())
	return ts, func() {
		ts.Close()
		_ = svc.Stop(context.Background())
	}
}

func post(ts *httptest.Server, path string, body any) (*http.Response, map[string]any) {
	raw, err := json.Marshal(body)
	So(err, ShouldBeNil)
	resp, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(raw))
	So(err, ShouldBeNil)
	return resp, decode(resp)
}

func get(ts *httptest.Server, path string) (*http.Response, map[string]any) {
	resp, err := http.Get(ts.URL + path)
	So(err, ShouldBeNil)
	return resp, decode(resp)
}

func decode(resp *http.Response) map[string]any {
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return out
}

func scoreBody(id string, amount float64) map[string]any {
	return map[string]any{
		"transaction_id": id,
		"user_id":        "user-1",
		"merchant_id":    "merchant-1",
		"amount":         amount,
		"type":           "purchase",
		"timestamp":      time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC).Format(time.RFC3339),
	}
}

func TestScoreEndpoint(t *testing.T) {
	Convey("Given a running server", t, func() {
		ts, done := newTestServer()
		defer done()

		Convey("When a valid transaction is posted", func() {
			resp, body := post(ts, "/score", scoreBody("t1", 100))

			Convey("Then the verdict comes back complete", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["transaction_id"], ShouldEqual, "t1")
				So(body["risk_level"], ShouldEqual, "LOW")
				So(body["is_fraud"], ShouldEqual, false)
				So(body["fraud_score"], ShouldNotBeNil)
				So(body["risk_factors"], ShouldNotBeNil)
			})
		})

		Convey("When the transaction id is omitted", func() {
			b := scoreBody("", 100)
			delete(b, "transaction_id")
			resp, body := post(ts, "/score", b)

			Convey("Then one is generated", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["transaction_id"], ShouldNotBeEmpty)
			})
		})

		Convey("When the body is not JSON", func() {
			resp, err := http.Post(ts.URL+"/score", "application/json",
				bytes.NewReader([]byte("{nope")))
			So(err, ShouldBeNil)
			resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When required fields are missing", func() {
			b := scoreBody("t1", 100)
			b["user_id"] = ""
			resp, body := post(ts, "/score", b)

			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			So(body["error"], ShouldNotBeEmpty)
		})

		Convey("When the method is wrong", func() {
			resp, _ := get(ts, "/score")
			So(resp.StatusCode, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestBatchEndpoint(t *testing.T) {
	Convey("Given a running server", t, func() {
		ts, done := newTestServer()
		defer done()

		Convey("When a mixed batch is posted", func() {
			bad := scoreBody("t2", 100)
			bad["merchant_id"] = ""
			resp, body := post(ts, "/score/batch", map[string]any{
				"transactions": []map[string]any{scoreBody("t1", 100), bad},
			})

			Convey("Then items succeed and fail independently", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				results := body["results"].([]any)
				So(results, ShouldHaveLength, 2)

				first := results[0].(map[string]any)
				So(first["result"], ShouldNotBeNil)
				So(first["error"], ShouldBeNil)

				second := results[1].(map[string]any)
				So(second["result"], ShouldBeNil)
				So(second["error"], ShouldNotBeEmpty)
			})
		})

		Convey("When the batch is empty", func() {
			resp, _ := post(ts, "/score/batch", map[string]any{"transactions": []any{}})
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the batch is oversized", func() {
			txns := make([]map[string]any, 6)
			for i := range txns {
				txns[i] = scoreBody(fmt.Sprintf("t%d", i), 100)
			}
			resp, _ := post(ts, "/score/batch", map[string]any{"transactions": txns})
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestSubmitEndpoint(t *testing.T) {
	Convey("Given a running server", t, func() {
		ts, done := newTestServer()
		defer done()

		Convey("When a transaction is submitted asynchronously", func() {
			resp, body := post(ts, "/transactions", scoreBody("async-1", 100))

			Convey("Then it is accepted", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusAccepted)
				So(body["status"], ShouldEqual, "accepted")
				So(body["transaction_id"], ShouldEqual, "async-1")
			})

			Convey("Then resubmitting the same id conflicts", func() {
				resp, _ := post(ts, "/transactions", scoreBody("async-1", 100))
				So(resp.StatusCode, ShouldEqual, http.StatusConflict)
			})
		})
	})
}

func TestStatsAndConfigEndpoints(t *testing.T) {
	Convey("Given a running server", t, func() {
		ts, done := newTestServer()
		defer done()

		Convey("When transactions have been scored", func() {
			for i := 0; i < 3; i++ {
				resp, _ := post(ts, "/score", scoreBody(fmt.Sprintf("t%d", i), 100))
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
			}

			Convey("Then the stats reflect them", func() {
				resp, body := get(ts, "/stats")
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["total_scored"], ShouldEqual, 3)
				So(body["entities_tracked"], ShouldEqual, 2)
			})
		})

		Convey("When the config is fetched", func() {
			resp, body := get(ts, "/config")
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(body["supervised_weight"], ShouldEqual, 0.7)
			So(body["fraud_threshold"], ShouldEqual, 0.5)
		})

		Convey("When a valid config is put", func() {
			raw, _ := json.Marshal(map[string]any{
				"supervised_weight":   0.6,
				"anomaly_weight":      0.4,
				"fraud_threshold":     0.55,
				"high_risk_threshold": 0.8,
			})
			req, _ := http.NewRequest(http.MethodPut, ts.URL+"/config", bytes.NewReader(raw))
			resp, err := http.DefaultClient.Do(req)
			So(err, ShouldBeNil)
			body := decode(resp)

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(body["fraud_threshold"], ShouldEqual, 0.55)
		})

		Convey("When an invalid config is put", func() {
			raw, _ := json.Marshal(map[string]any{
				"supervised_weight": 1.0,
				"anomaly_weight":    1.0,
			})
			req, _ := http.NewRequest(http.MethodPut, ts.URL+"/config", bytes.NewReader(raw))
			resp, err := http.DefaultClient.Do(req)
			So(err, ShouldBeNil)
			resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When health is probed", func() {
			resp, body := get(ts, "/healthz")
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(body["status"], ShouldEqual, "ok")
		})

		Convey("When metrics are scraped", func() {
			resp, err := http.Get(ts.URL + "/metrics")
			So(err, ShouldBeNil)
			resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
		})
	})
}
