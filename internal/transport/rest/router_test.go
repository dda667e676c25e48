package rest

import (
	"bytes"
	"encoding/json"
	"intervue/internal/metrics"
	"intervue/internal/model"
	"intervue/internal/repository/memory"
	"intervue/internal/service"
	"intervue/internal/transport/ws"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"
	"go.uber.org/zap"
)

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

type testAPI struct {
	srv    *httptest.Server
	auth   *service.AuthService
	hub    *ws.Hub
	tokens map[string]string
}

func newTestAPI(maxPerMin int, opts ...func(*Container)) *testAPI {
	repos := memory.New().Repositories()
	log := zap.NewNop()
	m := metrics.New()
	hub := ws.NewHub(log, m)
	auth := service.NewAuthService("test-secret", time.Hour)

	sessions := service.NewSessionService(repos.Sessions, repos.Reservations, repos.Slots, repos.Evaluations, nil, nil, log)
	sessions.SetBroadcaster(hub)

	c := &Container{
		AuthService:        auth,
		DayService:         service.NewDayService(repos.Days, repos.Slots, nil, log),
		SlotService:        service.NewSlotService(repos.Slots, repos.Days, repos.Leases, log),
		ReservationService: service.NewReservationService(repos.Reservations, repos.Slots, repos.Days, repos.Sessions, nil, log),
		SessionService:     sessions,
		EvaluationService:  service.NewEvaluationService(repos.Evaluations, repos.Sessions, log),
		WSHub:              hub,
		Metrics:            m,
		Logger:             log,
		CORSAllowedOrigins: "*",
		MaxRequestsPerMin:  maxPerMin,
	}
	for _, opt := range opts {
		opt(c)
	}
	router := NewRouter(c)

	api := &testAPI{srv: httptest.NewServer(router), auth: auth, hub: hub, tokens: map[string]string{}}
	for _, id := range []model.Identity{
		{UserID: "admin-1", Role: model.RoleAdmin, Name: "Ada"},
		{UserID: "int-1", Role: model.RoleInterviewer, Name: "Ivan"},
		{UserID: "cand-a", Role: model.RoleCandidate, Name: "Alice"},
		{UserID: "cand-b", Role: model.RoleCandidate, Name: "Bob"},
	} {
		token, err := auth.IssueToken(id)
		if err != nil {
			panic(err)
		}
		api.tokens[id.UserID] = token
	}
	return api
}

func (a *testAPI) close() {
	a.srv.Close()
	a.hub.Close()
}

func (a *testAPI) do(method, path, user string, body interface{}) (int, apiResponse) {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			panic(err)
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, a.srv.URL+path, r)
	if err != nil {
		panic(err)
	}
	if user != "" {
		req.Header.Set("Authorization", "Bearer "+a.tokens[user])
	}
	req.Header.Set("Content-Type", "application/json")
	return a.send(req)
}

func (a *testAPI) send(req *http.Request) (int, apiResponse) {
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()
	var out apiResponse
	json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func idOf(resp apiResponse) string {
	var v struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp.Data, &v); err != nil {
		panic(err)
	}
	return v.ID
}

func TestRouter(t *testing.T) {
	convey.Convey("Given the API", t, func() {
		api := newTestAPI(0)
		convey.Reset(api.close)

		convey.Convey("Health needs no token", func() {
			resp, err := http.Get(api.srv.URL + "/health")
			convey.So(err, convey.ShouldBeNil)
			resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
		})

		convey.Convey("Metrics are exposed", func() {
			api.do("GET", "/v1/days", "cand-a", nil)
			resp, err := http.Get(api.srv.URL + "/metrics")
			convey.So(err, convey.ShouldBeNil)
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)
			convey.So(string(body), convey.ShouldContainSubstring, "intervue_http_requests_total")
		})

		convey.Convey("API routes require a token", func() {
			code, resp := api.do("GET", "/v1/days", "", nil)
			convey.So(code, convey.ShouldEqual, http.StatusUnauthorized)
			convey.So(resp.Success, convey.ShouldBeFalse)
		})

		convey.Convey("Preflight requests are answered", func() {
			req, _ := http.NewRequest("OPTIONS", api.srv.URL+"/v1/days", nil)
			resp, err := http.DefaultClient.Do(req)
			convey.So(err, convey.ShouldBeNil)
			resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			convey.So(resp.Header.Get("Access-Control-Allow-Origin"), convey.ShouldEqual, "*")
		})

		convey.Convey("The booking flow works end to end", func() {
			code, resp := api.do("POST", "/v1/days", "admin-1", map[string]interface{}{"date": "2025-03-10", "title": "Spring"})
			convey.So(code, convey.ShouldEqual, http.StatusCreated)
			convey.So(resp.Success, convey.ShouldBeTrue)
			dayID := idOf(resp)

			code, resp = api.do("POST", "/v1/days/"+dayID+"/slots", "int-1", map[string]interface{}{
				"startTime": "10:00", "endTime": "11:00", "maxCandidates": 1,
			})
			convey.So(code, convey.ShouldEqual, http.StatusCreated)
			slotID := idOf(resp)

			code, resp = api.do("POST", "/v1/slots/"+slotID+"/reservations", "cand-a", map[string]string{"note": "hi"})
			convey.So(code, convey.ShouldEqual, http.StatusCreated)
			reservationID := idOf(resp)

			code, resp = api.do("POST", "/v1/slots/"+slotID+"/reservations", "cand-b", nil)
			convey.So(code, convey.ShouldEqual, http.StatusConflict)
			convey.So(resp.Success, convey.ShouldBeFalse)
			convey.So(resp.Message, convey.ShouldNotBeEmpty)

			code, _ = api.do("POST", "/v1/reservations/"+reservationID+"/accept", "cand-a", nil)
			convey.So(code, convey.ShouldEqual, http.StatusForbidden)

			code, resp = api.do("POST", "/v1/reservations/"+reservationID+"/accept", "int-1", nil)
			convey.So(code, convey.ShouldEqual, http.StatusOK)
			var accepted struct {
				Session model.Session `json:"session"`
			}
			convey.So(json.Unmarshal(resp.Data, &accepted), convey.ShouldBeNil)
			sessionID := accepted.Session.ID
			convey.So(accepted.Session.Date, convey.ShouldEqual, "2025-03-10")

			code, _ = api.do("POST", "/v1/sessions/"+sessionID+"/complete", "int-1", nil)
			convey.So(code, convey.ShouldEqual, http.StatusConflict)

			code, _ = api.do("POST", "/v1/sessions/"+sessionID+"/start", "int-1", nil)
			convey.So(code, convey.ShouldEqual, http.StatusOK)
			code, _ = api.do("POST", "/v1/sessions/"+sessionID+"/complete", "int-1", map[string]string{"notes": "good"})
			convey.So(code, convey.ShouldEqual, http.StatusOK)

			criteria := map[string]interface{}{
				"communication":  map[string]float64{"score": 8},
				"technical":      map[string]float64{"score": 7},
				"problemSolving": map[string]float64{"score": 9},
				"confidence":     map[string]float64{"score": 8},
			}
			code, resp = api.do("POST", "/v1/sessions/"+sessionID+"/evaluation", "int-1", map[string]interface{}{"criteria": criteria})
			convey.So(code, convey.ShouldEqual, http.StatusCreated)
			var evaluation model.Evaluation
			convey.So(json.Unmarshal(resp.Data, &evaluation), convey.ShouldBeNil)
			convey.So(evaluation.OverallScore, convey.ShouldEqual, 8.0)

			code, _ = api.do("GET", "/v1/sessions/"+sessionID+"/evaluation", "cand-a", nil)
			convey.So(code, convey.ShouldEqual, http.StatusOK)
			code, _ = api.do("GET", "/v1/sessions/"+sessionID+"/evaluation", "cand-b", nil)
			convey.So(code, convey.ShouldEqual, http.StatusForbidden)

			code, resp = api.do("GET", "/v1/reservations", "cand-a", nil)
			convey.So(code, convey.ShouldEqual, http.StatusOK)
			var mine []model.Reservation
			convey.So(json.Unmarshal(resp.Data, &mine), convey.ShouldBeNil)
			convey.So(len(mine), convey.ShouldEqual, 1)
		})

		convey.Convey("Errors map to their status codes", func() {
			code, resp := api.do("GET", "/v1/days/missing", "cand-a", nil)
			convey.So(code, convey.ShouldEqual, http.StatusNotFound)
			convey.So(resp.Message, convey.ShouldEqual, "day not found")

			code, _ = api.do("POST", "/v1/days", "cand-a", map[string]string{"date": "2025-03-10"})
			convey.So(code, convey.ShouldEqual, http.StatusForbidden)

			code, _ = api.do("POST", "/v1/days", "admin-1", map[string]string{"date": "10/03/2025"})
			convey.So(code, convey.ShouldEqual, http.StatusBadRequest)

			req, _ := http.NewRequest("POST", api.srv.URL+"/v1/days", strings.NewReader("{broken"))
			req.Header.Set("Authorization", "Bearer "+api.tokens["admin-1"])
			code, resp = api.send(req)
			convey.So(code, convey.ShouldEqual, http.StatusBadRequest)
			convey.So(resp.Message, convey.ShouldEqual, "invalid request body")
		})

		convey.Convey("Recording upload without storage is refused", func() {
			_, resp := api.do("POST", "/v1/days", "admin-1", map[string]string{"date": "2025-03-11"})
			_, resp = api.do("POST", "/v1/days/"+idOf(resp)+"/slots", "int-1", map[string]interface{}{
				"startTime": "09:00", "endTime": "10:00", "maxCandidates": 1,
			})
			_, resp = api.do("POST", "/v1/slots/"+idOf(resp)+"/reservations", "cand-a", nil)
			_, resp = api.do("POST", "/v1/reservations/"+idOf(resp)+"/accept", "int-1", nil)
			var accepted struct {
				Session model.Session `json:"session"`
			}
			convey.So(json.Unmarshal(resp.Data, &accepted), convey.ShouldBeNil)

			var body bytes.Buffer
			mw := multipart.NewWriter(&body)
			part, _ := mw.CreateFormFile("file", "call.webm")
			part.Write([]byte("video"))
			mw.Close()

			req, _ := http.NewRequest("POST", api.srv.URL+"/v1/sessions/"+accepted.Session.ID+"/recording", &body)
			req.Header.Set("Content-Type", mw.FormDataContentType())
			req.Header.Set("Authorization", "Bearer "+api.tokens["int-1"])
			code, _ := api.send(req)
			convey.So(code, convey.ShouldEqual, http.StatusConflict)

			req, _ = http.NewRequest("POST", api.srv.URL+"/v1/sessions/"+accepted.Session.ID+"/recording", nil)
			req.Header.Set("Authorization", "Bearer "+api.tokens["int-1"])
			code, _ = api.send(req)
			convey.So(code, convey.ShouldEqual, http.StatusBadRequest)
		})
	})
}

// acceptedSession books and accepts a fresh slot on date, returning the session id
func (a *testAPI) acceptedSession(date string) string {
	_, resp := a.do("POST", "/v1/days", "admin-1", map[string]string{"date": date})
	_, resp = a.do("POST", "/v1/days/"+idOf(resp)+"/slots", "int-1", map[string]interface{}{
		"startTime": "09:00", "endTime": "10:00", "maxCandidates": 1,
	})
	_, resp = a.do("POST", "/v1/slots/"+idOf(resp)+"/reservations", "cand-a", nil)
	_, resp = a.do("POST", "/v1/reservations/"+idOf(resp)+"/accept", "int-1", nil)
	var accepted struct {
		Session model.Session `json:"session"`
	}
	if err := json.Unmarshal(resp.Data, &accepted); err != nil {
		panic(err)
	}
	return accepted.Session.ID
}

func TestUploadLimit(t *testing.T) {
	convey.Convey("Recording bodies over the upload limit get 413", t, func() {
		api := newTestAPI(0, func(c *Container) { c.MaxUploadBytes = 1024 })
		defer api.close()
		sessionID := api.acceptedSession("2025-03-12")

		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		part, _ := mw.CreateFormFile("file", "call.webm")
		part.Write(bytes.Repeat([]byte("v"), 8*1024))
		mw.Close()

		req, _ := http.NewRequest("POST", api.srv.URL+"/v1/sessions/"+sessionID+"/recording", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+api.tokens["int-1"])
		code, resp := api.send(req)
		convey.So(code, convey.ShouldEqual, http.StatusRequestEntityTooLarge)
		convey.So(resp.Message, convey.ShouldEqual, "recording exceeds the upload limit")
	})
}

func TestDevTokens(t *testing.T) {
	convey.Convey("With development tokens enabled", t, func() {
		api := newTestAPI(0, func(c *Container) { c.DevTokens = true })
		defer api.close()

		code, resp := api.do("POST", "/v1/auth/token", "", map[string]string{"userId": "cand-z", "role": "candidate", "name": "Zoe"})
		convey.So(code, convey.ShouldEqual, http.StatusCreated)
		var issued model.TokenResponse
		convey.So(json.Unmarshal(resp.Data, &issued), convey.ShouldBeNil)
		convey.So(issued.UserID, convey.ShouldEqual, "cand-z")
		convey.So(issued.Role, convey.ShouldEqual, model.RoleCandidate)

		claims, err := api.auth.ValidateToken(issued.Token)
		convey.So(err, convey.ShouldBeNil)
		convey.So(claims.Name, convey.ShouldEqual, "Zoe")

		api.tokens["cand-z"] = issued.Token
		code, _ = api.do("GET", "/v1/days", "cand-z", nil)
		convey.So(code, convey.ShouldEqual, http.StatusOK)

		code, _ = api.do("POST", "/v1/auth/token", "", map[string]string{"userId": "x", "role": "root"})
		convey.So(code, convey.ShouldEqual, http.StatusBadRequest)
		code, _ = api.do("POST", "/v1/auth/token", "", map[string]string{"role": "admin"})
		convey.So(code, convey.ShouldEqual, http.StatusBadRequest)
	})

	convey.Convey("By default the token route does not exist", t, func() {
		api := newTestAPI(0)
		defer api.close()

		code, _ := api.do("POST", "/v1/auth/token", "", map[string]string{"userId": "admin-9", "role": "admin"})
		convey.So(code, convey.ShouldEqual, http.StatusNotFound)
	})
}

func TestRateLimit(t *testing.T) {
	convey.Convey("Requests over the per-minute limit get 429", t, func() {
		api := newTestAPI(2)
		defer api.close()

		codes := make([]int, 0, 3)
		for i := 0; i < 3; i++ {
			code, _ := api.do("GET", "/v1/days", "cand-a", nil)
			codes = append(codes, code)
		}
		convey.So(codes, convey.ShouldResemble, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests})
	})
}
