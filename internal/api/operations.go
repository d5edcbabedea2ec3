package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/felixgeelhaar/adminctl/internal/errors"
)

// Login authenticates with email and password. It never needs a session.
// A successful envelope always carries a non-empty token.
func (c *Client) Login(ctx context.Context, email, password string, opts ...CallOption) *Envelope[LoginData] {
	return invoke(ctx, c, request{
		op:     "login",
		label:  "Signing in...",
		method: http.MethodPost,
		path:   c.loginPath,
		body:   map[string]string{"email": email, "password": password},
	}, opts, func(raw *rawResult) *Envelope[LoginData] {
		env := normalize[LoginData](raw)
		if env.Response.OK() && (env.Data == nil || env.Data.Token == "") {
			return decodeFailure[LoginData]("login response carried no token", nil)
		}
		return env
	})
}

// Logout invalidates the session on the backend. The caller clears its
// stored token.
func (c *Client) Logout(ctx context.Context, opts ...CallOption) *Response {
	env := call[json.RawMessage](ctx, c, request{
		op:     "logout",
		label:  "Logout...",
		method: http.MethodGet,
		path:   "/admin/logout",
		auth:   true,
	}, opts)
	return &env.Response
}

// DashboardCount fetches the dashboard counters and their display title.
func (c *Client) DashboardCount(ctx context.Context, opts ...CallOption) *Envelope[Dashboard] {
	return invoke(ctx, c, request{
		op:     "dashboardCount",
		label:  "Loading dashboard...",
		method: http.MethodGet,
		path:   "/admin/getAppData",
		auth:   true,
	}, opts, func(raw *rawResult) *Envelope[Dashboard] {
		env := normalize[[]DashboardCountItem](raw)
		if env.Data == nil {
			return retype[[]DashboardCountItem, Dashboard](env, nil)
		}
		title, _ := env.ExtraString("title")
		return retype(env, &Dashboard{Title: title, Items: *env.Data})
	})
}

var searchPaths = map[RecordKind]string{
	RecordArchitect: "/approval/searchArchitect",
	RecordSales:     "/approval/searchSales",
}

// SearchByMobileNumber looks up an architect or sales record by mobile
// number. The number is sent as-is; callers validate it first. A successful
// envelope with Match.Found false is the not-found signal.
func (c *Client) SearchByMobileNumber(ctx context.Context, mobile string, kind RecordKind, opts ...CallOption) *Envelope[Match] {
	path, ok := searchPaths[kind]
	if !ok {
		return rejected[Match](errors.NewInvalidArgumentError("record kind", kind, "architect, sales"))
	}

	return invoke(ctx, c, request{
		op:     "searchByMobileNumber",
		key:    "searchByMobileNumber:" + string(kind),
		label:  "Searching...",
		method: http.MethodPost,
		path:   path,
		body:   map[string]string{"mobile": mobile},
		auth:   true,
	}, opts, func(raw *rawResult) *Envelope[Match] {
		env := normalize[json.RawMessage](raw)
		if !env.Response.OK() {
			return retype[json.RawMessage, Match](env, nil)
		}

		match := &Match{Kind: kind}
		record, found := resolveRecord(env.Data)
		if !found {
			return retype(env, match)
		}

		var err error
		switch kind {
		case RecordArchitect:
			match.Architect = &ArchitectRecord{}
			err = json.Unmarshal(record, match.Architect)
		case RecordSales:
			match.Sales = &SalesRecord{}
			err = json.Unmarshal(record, match.Sales)
		}
		if err != nil {
			return decodeFailure[Match]("unexpected "+string(kind)+" record shape", err)
		}
		match.Found = true
		return retype(env, match)
	})
}

// resolveRecord picks the record out of a search payload. Backends answer
// with {data: [record]}, {data: record}, [record] or the record itself.
func resolveRecord(data *json.RawMessage) (json.RawMessage, bool) {
	if data == nil {
		return nil, false
	}
	raw := bytes.TrimSpace(*data)

	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
		return nil, false
	case raw[0] == '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil || len(items) == 0 {
			return nil, false
		}
		return resolveRecord(&items[0])
	case raw[0] == '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil || len(fields) == 0 {
			return nil, false
		}
		if inner, ok := fields["data"]; ok {
			return resolveRecord(&inner)
		}
		return raw, true
	default:
		return nil, false
	}
}

// UpdateRecord sends the full architect record. Repeated calls are separate
// updates on the backend.
func (c *Client) UpdateRecord(ctx context.Context, record ArchitectRecord, opts ...CallOption) *Response {
	env := call[json.RawMessage](ctx, c, request{
		op:     "updateRecord",
		key:    "updateRecord:" + record.ArchitectID.String(),
		label:  "Updating...",
		method: http.MethodPost,
		path:   "/approval/updateArchitect",
		body:   record.updatePayload(),
		auth:   true,
	}, opts)
	return &env.Response
}

var statusPaths = map[UserStatus]string{
	UserPending:  "/admin/getPendingUsers",
	UserApproved: "/admin/getApprovedUsers",
	UserRejected: "/admin/getRejectedUsers",
}

// ListByStatus fetches the pending, approved or rejected user list.
func (c *Client) ListByStatus(ctx context.Context, status UserStatus, opts ...CallOption) *Envelope[RecordPage[UserRecord]] {
	path, ok := statusPaths[status]
	if !ok {
		return rejected[RecordPage[UserRecord]](errors.NewInvalidArgumentError("status", status, "pending, approved, rejected"))
	}

	return call[RecordPage[UserRecord]](ctx, c, request{
		op:     "listByStatus",
		key:    "listByStatus:" + string(status),
		label:  "Loading " + string(status) + " users...",
		method: http.MethodGet,
		path:   path,
		auth:   true,
	}, opts)
}

// GetRecordByID fetches a single user. Empty reports not found.
func (c *Client) GetRecordByID(ctx context.Context, id string, opts ...CallOption) *Envelope[UserRecord] {
	id = strings.TrimSpace(id)
	if id == "" {
		return rejected[UserRecord](errors.NewInvalidArgumentError("user id", `""`, "a non-empty identifier"))
	}

	return invoke(ctx, c, request{
		op:     "getRecordById",
		key:    "getRecordById:" + id,
		label:  "Loading user...",
		method: http.MethodGet,
		path:   "/admin/getUserInfo/" + url.PathEscape(id),
		auth:   true,
	}, opts, func(raw *rawResult) *Envelope[UserRecord] {
		env := normalize[json.RawMessage](raw)
		if !env.Response.OK() {
			return retype[json.RawMessage, UserRecord](env, nil)
		}
		record, found := resolveRecord(env.Data)
		if !found {
			return retype[json.RawMessage, UserRecord](env, nil)
		}
		var user UserRecord
		if err := json.Unmarshal(record, &user); err != nil {
			return decodeFailure[UserRecord]("unexpected user record shape", err)
		}
		return retype(env, &user)
	})
}

var reasonPaths = map[ReasonKind]string{
	ReasonReject:  "/admin/rejectReason",
	ReasonApprove: "/admin/approveReason",
}

// GetReasonList fetches the reject or approve reasons.
func (c *Client) GetReasonList(ctx context.Context, kind ReasonKind, opts ...CallOption) *Envelope[[]Reason] {
	path, ok := reasonPaths[kind]
	if !ok {
		return rejected[[]Reason](errors.NewInvalidArgumentError("reason kind", kind, "reject, approve"))
	}

	return call[[]Reason](ctx, c, request{
		op:     "getReasonList",
		key:    "getReasonList:" + string(kind),
		label:  "Loading reasons...",
		method: http.MethodGet,
		path:   path,
		auth:   true,
	}, opts)
}

var actionPaths = map[UserAction]string{
	ActionReview:  "/admin/review",
	ActionReject:  "/admin/reject",
	ActionApprove: "/admin/approve",
}

// PerformUserAction posts a review, reject or approve action. The body is a
// copy of extra with userId set; extra itself is not modified.
func (c *Client) PerformUserAction(ctx context.Context, action UserAction, userID int64, extra map[string]any, opts ...CallOption) *Response {
	path, ok := actionPaths[action]
	if !ok {
		return &rejected[json.RawMessage](errors.NewInvalidArgumentError("action", action, "review, reject, approve")).Response
	}

	body := make(map[string]any, len(extra)+1)
	for k, v := range extra {
		body[k] = v
	}
	body["userId"] = userID

	env := call[json.RawMessage](ctx, c, request{
		op:     "performUserAction",
		key:    "performUserAction:" + string(action),
		label:  "Submitting...",
		method: http.MethodPost,
		path:   path,
		body:   body,
		auth:   true,
	}, opts)
	return &env.Response
}
