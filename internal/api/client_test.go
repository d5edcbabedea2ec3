package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/felixgeelhaar/adminctl/internal/errors"
	"github.com/felixgeelhaar/adminctl/internal/log"
)

const testToken = "test-token"

func newTestClient(t *testing.T, handler http.HandlerFunc, token string, extra ...func(*Options)) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	opts := Options{
		BaseURL: server.URL,
		Tokens:  StaticToken(token),
		Logger:  log.Discard(),
	}
	for _, fn := range extra {
		fn(&opts)
	}

	client, err := New(opts)
	require.NoError(t, err)
	return client
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{name: "valid", opts: Options{BaseURL: "https://api.example.com/v1"}},
		{name: "empty base url", opts: Options{}, wantErr: true},
		{name: "relative base url", opts: Options{BaseURL: "/api"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(tt.opts)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.CodeOf(err) == errors.ErrCodeConfigInvalid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, DefaultLoginPath, client.LoginPath())
		})
	}
}

func TestLogin(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/approval/login", r.URL.Path)
			assert.Empty(t, r.Header.Get("Authorization"))

			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "admin@example.com", body["email"])
			assert.Equal(t, "secret123", body["password"])

			writeJSON(w, http.StatusOK, map[string]any{
				"status":  200,
				"message": "Login successful",
				"data": map[string]any{
					"token": "jwt-token",
					"user":  map[string]any{"id": 7, "email": "admin@example.com"},
				},
			})
		}, "")

		env := client.Login(context.Background(), "admin@example.com", "secret123")
		require.True(t, env.OK(), env.Message)
		assert.Equal(t, "jwt-token", env.Data.Token)
		assert.Equal(t, FlexString("7"), env.Data.User.ID)
	})

	t.Run("configured login path", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/admin/login", r.URL.Path)
			writeJSON(w, http.StatusOK, map[string]any{"status": 200, "message": "ok", "data": map[string]any{"token": "t"}})
		}, "", func(o *Options) { o.LoginPath = AdminLoginPath })

		env := client.Login(context.Background(), "admin@example.com", "secret123")
		assert.True(t, env.OK())
	})

	t.Run("backend rejects credentials", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"status": 401, "message": "Invalid credentials"})
		}, "")

		env := client.Login(context.Background(), "admin@example.com", "wrongpass")
		assert.False(t, env.OK())
		assert.Equal(t, 401, env.Status)
		assert.Equal(t, "Invalid credentials", env.Message)
		assert.Equal(t, KindBackend, env.Kind)
		assert.Nil(t, env.Data)
	})

	t.Run("success without token", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"status": 200, "message": "ok", "data": map[string]any{}})
		}, "")

		env := client.Login(context.Background(), "admin@example.com", "secret123")
		assert.False(t, env.OK())
		assert.Equal(t, StatusDecodeError, env.Status)
	})
}

func TestAuthenticatedCallWithoutToken(t *testing.T) {
	var hits int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}, "")

	env := client.DashboardCount(context.Background())

	assert.Equal(t, StatusAuthMissing, env.Status)
	assert.Equal(t, KindAuthMissing, env.Kind)
	assert.Nil(t, env.Data)
	assert.Zero(t, atomic.LoadInt32(&hits), "no request may be sent without a token")
	assert.True(t, errors.CodeOf(env.AsError()) == errors.ErrCodeAuthMissing)
}

func TestLogout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/admin/logout", r.URL.Path)
		assert.Equal(t, "Bearer "+testToken, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{"status": 200, "message": "Logged out"})
	}, testToken)

	var labels []string
	resp := client.Logout(context.Background(), WithListener(ListenerFunc(func(e Event) {
		labels = append(labels, e.Label)
	})))

	assert.True(t, resp.OK())
	assert.Equal(t, "Logged out", resp.Message)
	assert.Equal(t, []string{"Logout...", "Logout..."}, labels)
}

func TestDashboardCount(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  200,
			"message": "ok",
			"title":   "Welcome back",
			"data": []map[string]any{
				{"id": 1, "title": "Pending", "count": 12, "badge": "new"},
				{"id": "2", "title": "Approved", "count": 40, "trend": 2.5},
			},
		})
	}, testToken)

	env := client.DashboardCount(context.Background())
	require.True(t, env.OK(), env.Message)
	assert.Equal(t, "Welcome back", env.Data.Title)
	require.Len(t, env.Data.Items, 2)
	assert.Equal(t, int64(12), env.Data.Items[0].Count)
	assert.Equal(t, "new", env.Data.Items[0].Extra["badge"])
	require.NotNil(t, env.Data.Items[1].Trend)
	assert.InDelta(t, 2.5, *env.Data.Items[1].Trend, 0.0001)
}

func TestSearchByMobileNumber(t *testing.T) {
	architect := map[string]any{
		"architectId":   101,
		"firstName":     "Asha",
		"lastName":      "Rao",
		"contactNumber": 9876543210,
		"city":          "Pune",
	}

	tests := []struct {
		name      string
		kind      RecordKind
		data      any
		wantPath  string
		wantFound bool
	}{
		{name: "nested list", kind: RecordArchitect, data: map[string]any{"data": []any{architect}}, wantPath: "/approval/searchArchitect", wantFound: true},
		{name: "nested object", kind: RecordArchitect, data: map[string]any{"data": architect}, wantPath: "/approval/searchArchitect", wantFound: true},
		{name: "bare record", kind: RecordArchitect, data: architect, wantPath: "/approval/searchArchitect", wantFound: true},
		{name: "empty list", kind: RecordArchitect, data: map[string]any{"data": []any{}}, wantPath: "/approval/searchArchitect"},
		{name: "null data", kind: RecordSales, data: nil, wantPath: "/approval/searchSales"},
		{name: "sales record", kind: RecordSales, data: []any{map[string]any{"name": "Ravi", "contactNumber": "9876543210"}}, wantPath: "/approval/searchSales", wantFound: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, tt.wantPath, r.URL.Path)
				assert.Empty(t, r.URL.RawQuery)

				var body map[string]string
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, map[string]string{"mobile": "9876543210"}, body)
				writeJSON(w, http.StatusOK, map[string]any{"status": 200, "message": "ok", "data": tt.data})
			}, testToken)

			env := client.SearchByMobileNumber(context.Background(), "9876543210", tt.kind)
			require.True(t, env.OK(), env.Message)
			assert.Equal(t, tt.kind, env.Data.Kind)
			assert.Equal(t, tt.wantFound, env.Data.Found)

			if !tt.wantFound {
				assert.Nil(t, env.Data.Architect)
				assert.Nil(t, env.Data.Sales)
				return
			}
			switch tt.kind {
			case RecordArchitect:
				require.NotNil(t, env.Data.Architect)
				assert.Equal(t, FlexString("101"), env.Data.Architect.ArchitectID)
				assert.Equal(t, FlexString("9876543210"), env.Data.Architect.ContactNumber)
			case RecordSales:
				require.NotNil(t, env.Data.Sales)
				assert.Equal(t, "Ravi", env.Data.Sales.Name)
			}
		})
	}
}

func TestSearchPassesBackendValidationThrough(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": 422, "message": "Mobile number is invalid"})
	}, testToken)

	env := client.SearchByMobileNumber(context.Background(), "123", RecordArchitect)
	assert.False(t, env.OK())
	assert.Equal(t, 422, env.Status)
	assert.Equal(t, "Mobile number is invalid", env.Message)
	assert.Nil(t, env.Data)
}

func TestUpdateRecord(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/approval/updateArchitect", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "101", body["architectId"])
		assert.Equal(t, "9876543210", body["mobile"])
		assert.NotContains(t, body, "contactNumber")
		assert.Equal(t, "411001", body["pincode"])

		writeJSON(w, http.StatusOK, map[string]any{"status": 200, "message": "Architect updated"})
	}, testToken)

	resp := client.UpdateRecord(context.Background(), ArchitectRecord{
		ArchitectID:   "101",
		FirstName:     "Asha",
		ContactNumber: "9876543210",
		Pincode:       "411001",
	})
	assert.True(t, resp.OK())
	assert.Equal(t, "Architect updated", resp.Message)
}

func TestListByStatus(t *testing.T) {
	paths := map[UserStatus]string{
		UserPending:  "/admin/getPendingUsers",
		UserApproved: "/admin/getApprovedUsers",
		UserRejected: "/admin/getRejectedUsers",
	}

	for status, path := range paths {
		t.Run(string(status), func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, path, r.URL.Path)
				writeJSON(w, http.StatusOK, map[string]any{
					"status":  200,
					"message": "ok",
					"data": map[string]any{
						"data":  []any{map[string]any{"id": 42, "firstName": "Neha", "lastName": "Shah", "gstNumber": "X1"}},
						"total": 1,
					},
				})
			}, testToken)

			env := client.ListByStatus(context.Background(), status)
			require.True(t, env.OK(), env.Message)
			require.Len(t, env.Data.Data, 1)
			assert.Equal(t, "Neha Shah", env.Data.Data[0].FullName())
			assert.Equal(t, "X1", env.Data.Data[0].Extra["gstNumber"])
			require.NotNil(t, env.Data.Total)
			assert.Equal(t, 1, *env.Data.Total)
		})
	}

	t.Run("user list key", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"status":  200,
				"message": "ok",
				"data":    map[string]any{"userList": []any{map[string]any{"id": "a1"}}},
			})
		}, testToken)

		env := client.ListByStatus(context.Background(), UserPending)
		require.True(t, env.OK())
		require.Len(t, env.Data.Data, 1)
		assert.Equal(t, FlexString("a1"), env.Data.Data[0].ID)
	})
}

func TestInvalidArgumentsIssueNoRequest(t *testing.T) {
	var hits int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}, testToken)
	ctx := context.Background()

	statuses := []int{
		client.ListByStatus(ctx, UserStatus("archived")).Status,
		client.GetReasonList(ctx, ReasonKind("other")).Status,
		client.SearchByMobileNumber(ctx, "9876543210", RecordKind("dealer")).Status,
		client.PerformUserAction(ctx, UserAction("delete"), 1, nil).Status,
		client.GetRecordByID(ctx, "  ").Status,
	}

	for _, status := range statuses {
		assert.Equal(t, StatusInvalidArgument, status)
	}
	assert.Zero(t, atomic.LoadInt32(&hits))
}

func TestGetRecordByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/admin/getUserInfo/42", r.URL.Path)
			writeJSON(w, http.StatusOK, map[string]any{
				"status": 200, "message": "ok",
				"data": map[string]any{"id": 42, "email": "neha@example.com", "phone": 9876543210},
			})
		}, testToken)

		env := client.GetRecordByID(context.Background(), "42")
		require.True(t, env.OK())
		assert.Equal(t, "neha@example.com", env.Data.Email)
		assert.Equal(t, FlexString("9876543210"), env.Data.Phone)
	})

	t.Run("escapes id", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/admin/getUserInfo/a%2Fb", r.URL.EscapedPath())
			writeJSON(w, http.StatusOK, map[string]any{"status": 200, "message": "ok"})
		}, testToken)

		env := client.GetRecordByID(context.Background(), "a/b")
		assert.True(t, env.Empty())
	})

	t.Run("not found", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"status": 200, "message": "ok", "data": map[string]any{}})
		}, testToken)

		env := client.GetRecordByID(context.Background(), "43")
		assert.True(t, env.Empty())
		assert.False(t, env.OK())
	})
}

func TestGetReasonList(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/rejectReason", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{
			"status": 200, "message": "ok",
			"data": []any{
				map[string]any{"id": 1, "reason": "Incomplete documents", "isActive": true},
				map[string]any{"id": 2, "reason": "Duplicate account"},
			},
		})
	}, testToken)

	env := client.GetReasonList(context.Background(), ReasonReject)
	require.True(t, env.OK())
	require.Len(t, *env.Data, 2)
	assert.Equal(t, "Incomplete documents", (*env.Data)[0].Reason)
	require.NotNil(t, (*env.Data)[0].IsActive)
	assert.True(t, *(*env.Data)[0].IsActive)
}

func TestPerformUserAction(t *testing.T) {
	var body map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/admin/approve", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeJSON(w, http.StatusOK, map[string]any{"status": 200, "message": "Approved"})
	}, testToken)

	extra := map[string]any{"remarks": "looks good", "userId": 99}
	resp := client.PerformUserAction(context.Background(), ActionApprove, 42, extra)

	require.True(t, resp.OK())
	assert.Equal(t, float64(42), body["userId"])
	assert.Equal(t, "looks good", body["remarks"])
	assert.Equal(t, 99, extra["userId"], "caller payload must not be modified")
}

func TestTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client, err := New(Options{BaseURL: url, Tokens: StaticToken(testToken), Logger: log.Discard()})
	require.NoError(t, err)

	env := client.ListByStatus(context.Background(), UserPending)
	assert.Equal(t, StatusTransportError, env.Status)
	assert.Equal(t, KindTransport, env.Kind)
	assert.Nil(t, env.Data)
	assert.True(t, errors.CodeOf(env.AsError()) == errors.ErrCodeTransport)
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, testToken, func(o *Options) { o.Timeout = 50 * time.Millisecond })
	defer close(release)

	env := client.DashboardCount(context.Background())
	assert.Equal(t, StatusTransportError, env.Status)
}

func TestMalformedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "{not json")
	}, testToken)

	env := client.DashboardCount(context.Background())
	assert.Equal(t, StatusDecodeError, env.Status)
	assert.Nil(t, env.Data)
	assert.True(t, errors.CodeOf(env.AsError()) == errors.ErrCodeDecode)
}

func TestListenersAndSequencing(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": 200, "message": "ok", "data": []any{}})
	}, testToken)

	var (
		mu     sync.Mutex
		events []Event
	)
	listener := ListenerFunc(func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e)
	})

	first := client.GetReasonList(context.Background(), ReasonApprove, WithListener(listener), WithLabel("Fetching"))
	second := client.GetReasonList(context.Background(), ReasonApprove, WithListener(listener))

	assert.Equal(t, uint64(1), first.Seq)
	assert.Equal(t, uint64(2), second.Seq)
	assert.False(t, first.Stale)
	assert.False(t, second.Stale)

	require.Len(t, events, 4)
	assert.Equal(t, EventStarted, events[0].Type)
	assert.Equal(t, EventFinished, events[1].Type)
	assert.Equal(t, events[0].Seq, events[1].Seq)
	assert.Equal(t, "Fetching", events[0].Label)
	assert.Equal(t, "getReasonList:approve", events[1].Key)
	assert.True(t, events[1].OK())
}

func TestOverlappingCallsAreIndependent(t *testing.T) {
	firstArrived := make(chan struct{})
	releaseFirst := make(chan struct{})
	var calls int32

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			close(firstArrived)
			<-releaseFirst
			writeJSON(w, http.StatusOK, map[string]any{"status": 200, "message": "first", "data": []any{map[string]any{"id": 1}}})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": 200, "message": "second", "data": []any{map[string]any{"id": 2}, map[string]any{"id": 3}}})
	}, testToken)

	ctx := context.Background()
	firstDone := make(chan *Envelope[RecordPage[UserRecord]])
	go func() {
		firstDone <- client.ListByStatus(ctx, UserPending)
	}()

	<-firstArrived
	second := client.ListByStatus(ctx, UserPending)
	close(releaseFirst)
	first := <-firstDone

	require.True(t, first.OK())
	require.True(t, second.OK())
	assert.True(t, first.Stale, "first call was superseded")
	assert.False(t, second.Stale)
	assert.Len(t, first.Data.Data, 1)
	assert.Len(t, second.Data.Data, 2)
	assert.Equal(t, "first", first.Message)
	assert.Equal(t, "second", second.Message)
}

func TestPanicDuringCallBecomesEnvelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": 200, "message": "ok"})
	}, "", func(o *Options) {
		o.Tokens = tokenFunc(func(context.Context) (string, error) { panic("token store exploded") })
	})

	resp := client.Logout(context.Background())
	assert.Equal(t, StatusUnexpected, resp.Status)
	assert.Equal(t, KindUnexpected, resp.Kind)
	assert.True(t, errors.CodeOf(resp.AsError()) == errors.ErrCodeUnexpected)
}

type tokenFunc func(context.Context) (string, error)

func (f tokenFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

func TestTracing(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{"status": 404, "message": "missing"})
	}, testToken, func(o *Options) { o.TracerProvider = tp })

	client.GetRecordByID(context.Background(), "9")

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "api.getRecordById", spans[0].Name())

	attrs := map[string]any{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	assert.Equal(t, "/admin/getUserInfo/9", attrs["url.path"])
	assert.Equal(t, int64(404), attrs["adminctl.status"])
	assert.Equal(t, "backend", attrs["adminctl.failure_kind"])
}
