package dashboard

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/kitchenboard/pkg/enums/itemstatus"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func newTestRouter(store *MockOrderItemStore) http.Handler {
	svc := newTestService(store, NewMockPublisher(), DefaultScoringConfig())
	h := NewHandler(svc, apt.NewConfig(), apt.NewNoopLogger())
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func decodeData(t *testing.T, body []byte) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("cannot decode response: %v", err)
	}
	data, ok := resp["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("Response does not contain data object: %s", body)
	}
	return data
}

func TestNewHandler(t *testing.T) {
	tests := []struct {
		name   string
		config *apt.Config
		logger apt.Logger
	}{
		{name: "withAllDependencies", config: apt.NewConfig(), logger: apt.NewNoopLogger()},
		{name: "withNilLogger", config: apt.NewConfig(), logger: nil},
		{name: "withNilConfig", config: nil, logger: apt.NewNoopLogger()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if h := NewHandler(nil, tt.config, tt.logger); h == nil {
				t.Error("NewHandler() returned nil")
			}
		})
	}
}

func TestHandlerGetDashboard(t *testing.T) {
	store := NewMockOrderItemStore()
	store.AddItem(activeItem("T1", 12))
	store.AddItem(activeItem("T2", 3))

	req := httptest.NewRequest(http.MethodGet, "/dashboard/", nil)
	w := httptest.NewRecorder()
	newTestRouter(store).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("GetDashboard() status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	data := decodeData(t, w.Body.Bytes())
	groups, ok := data["groups"].([]interface{})
	if !ok || len(groups) != 2 {
		t.Errorf("groups = %v, want 2 entries", data["groups"])
	}
	if _, ok := data["stats"].(map[string]interface{}); !ok {
		t.Errorf("stats missing: %s", w.Body.String())
	}
}

func TestHandlerGetGroupsAndStats(t *testing.T) {
	store := NewMockOrderItemStore()
	store.AddItem(activeItem("T1", 12))

	tests := []struct {
		name string
		path string
		key  string
	}{
		{name: "groups", path: "/dashboard/groups", key: "groups"},
		{name: "stats", path: "/dashboard/stats", key: "total_cooking_items"},
	}

	router := newTestRouter(store)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
			}
			if _, ok := decodeData(t, w.Body.Bytes())[tt.key]; !ok {
				t.Errorf("response missing %q: %s", tt.key, w.Body.String())
			}
		})
	}
}

func TestHandlerUpdateStatus(t *testing.T) {
	tests := []struct {
		name           string
		from           itemstatus.Status
		path           func(id string) string
		body           string
		ifMatch        string
		expectedStatus int
	}{
		{
			name:           "statusRoute",
			from:           itemstatus.Statuses.Pending,
			path:           func(id string) string { return "/items/" + id + "/status" },
			body:           `{"status":"preparing","version":1}`,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "startAction",
			from:           itemstatus.Statuses.Pending,
			path:           func(id string) string { return "/items/" + id + "/start" },
			expectedStatus: http.StatusOK,
		},
		{
			name:           "readyActionWithIfMatch",
			from:           itemstatus.Statuses.Preparing,
			path:           func(id string) string { return "/items/" + id + "/ready" },
			ifMatch:        `"1"`,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "serveAction",
			from:           itemstatus.Statuses.Ready,
			path:           func(id string) string { return "/items/" + id + "/serve" },
			expectedStatus: http.StatusOK,
		},
		{
			name:           "cancelAction",
			from:           itemstatus.Statuses.Preparing,
			path:           func(id string) string { return "/items/" + id + "/cancel" },
			body:           `{"notes":"out of stock"}`,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "unknownStatus",
			from:           itemstatus.Statuses.Pending,
			path:           func(id string) string { return "/items/" + id + "/status" },
			body:           `{"status":"burnt"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalidJSON",
			from:           itemstatus.Statuses.Pending,
			path:           func(id string) string { return "/items/" + id + "/status" },
			body:           `{"status":`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalidID",
			from:           itemstatus.Statuses.Pending,
			path:           func(string) string { return "/items/not-a-uuid/start" },
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalidIfMatch",
			from:           itemstatus.Statuses.Pending,
			path:           func(id string) string { return "/items/" + id + "/start" },
			ifMatch:        `"abc"`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknownItem",
			from:           itemstatus.Statuses.Pending,
			path:           func(string) string { return "/items/" + uuid.NewString() + "/start" },
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "illegalTransition",
			from:           itemstatus.Statuses.Pending,
			path:           func(id string) string { return "/items/" + id + "/serve" },
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:           "staleVersion",
			from:           itemstatus.Statuses.Pending,
			path:           func(id string) string { return "/items/" + id + "/start" },
			body:           `{"version":3}`,
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "illegalTransitionWithStaleVersion",
			from:           itemstatus.Statuses.Pending,
			path:           func(id string) string { return "/items/" + id + "/serve" },
			body:           `{"version":3}`,
			expectedStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMockOrderItemStore()
			item := activeItem("T1", 10)
			item.Status = tt.from
			store.AddItem(item)

			req := httptest.NewRequest(http.MethodPatch, tt.path(item.ID.String()), bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			if tt.ifMatch != "" {
				req.Header.Set("If-Match", tt.ifMatch)
			}
			w := httptest.NewRecorder()
			newTestRouter(store).ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.expectedStatus, w.Body.String())
			}
			if tt.expectedStatus == http.StatusOK {
				if etag := w.Header().Get("ETag"); etag != `"2"` {
					t.Errorf("ETag = %s, want \"2\"", etag)
				}
				data := decodeData(t, w.Body.Bytes())
				if data["version"] != float64(2) {
					t.Errorf("version = %v, want 2", data["version"])
				}
			}
		})
	}
}

func TestParseIfMatch(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: "", want: AnyVersion},
		{in: "*", want: AnyVersion},
		{in: `"4"`, want: 4},
		{in: `W/"9"`, want: 9},
		{in: "12", want: 12},
		{in: `"x"`, wantErr: true},
	}

	for _, tt := range tests {
		got, err := parseIfMatch(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseIfMatch(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parseIfMatch(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
