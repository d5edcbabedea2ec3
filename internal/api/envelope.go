package api

import (
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/felixgeelhaar/adminctl/internal/errors"
)

// Sentinel statuses for envelopes synthesized on the client side.
// All of them are outside the 2xx success range.
const (
	StatusTransportError  = -1
	StatusAuthMissing     = -2
	StatusDecodeError     = -3
	StatusInvalidArgument = -5
	StatusUnexpected      = -6
)

// FailureKind classifies why an envelope is not a success.
type FailureKind int

const (
	// KindNone marks an envelope produced from a parsed backend body.
	KindNone FailureKind = iota
	// KindTransport covers network failures, timeouts and malformed bodies.
	KindTransport
	// KindAuthMissing marks authenticated calls attempted without a session token.
	KindAuthMissing
	// KindBackend marks well-formed responses carrying a failure status.
	KindBackend
	// KindInvalidArgument marks calls rejected before any request was built.
	KindInvalidArgument
	// KindUnexpected marks recovered panics and unclassified errors.
	KindUnexpected
)

func (k FailureKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindTransport:
		return "transport"
	case KindAuthMissing:
		return "auth_missing"
	case KindBackend:
		return "backend"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindUnexpected:
		return "unexpected"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// BaseResponse is the minimal contract every backend call satisfies.
type BaseResponse struct {
	Status  int    `json:"status" yaml:"status"`
	Message string `json:"message" yaml:"message"`
}

// Success reports whether Status is in the 2xx range.
func (b BaseResponse) Success() bool {
	return b.Status >= 200 && b.Status < 300
}

// Response is the result of operations that carry no payload.
type Response struct {
	BaseResponse

	// Kind is KindNone unless the failure was classified by the client.
	Kind FailureKind `json:"-" yaml:"-"`
	// Err holds the underlying error for failure envelopes.
	Err error `json:"-" yaml:"-"`
	// Seq is the sequence number the call was stamped with.
	Seq uint64 `json:"-" yaml:"-"`
	// Stale is set when a newer call for the same operation key was issued
	// before this one completed.
	Stale bool `json:"-" yaml:"-"`
}

// OK reports whether the call succeeded.
func (r *Response) OK() bool {
	return r.Kind == KindNone && r.Success()
}

// AsError converts a failure envelope into a coded error. It returns nil on success.
func (r *Response) AsError() error {
	if r.OK() {
		return nil
	}

	var adminErr *errors.AdminError
	if r.Err != nil && stderrors.As(r.Err, &adminErr) {
		return r.Err
	}

	switch r.Kind {
	case KindNone, KindBackend:
		return errors.NewBackendError(r.Status, r.Message)
	case KindAuthMissing:
		return errors.Wrap(errors.ErrCodeAuthMissing, r.Message, r.Err)
	case KindTransport:
		if r.Status == StatusDecodeError {
			return errors.Wrap(errors.ErrCodeDecode, r.Message, r.Err)
		}
		return errors.Wrap(errors.ErrCodeTransport, r.Message, r.Err)
	case KindInvalidArgument:
		return errors.Wrap(errors.ErrCodeInvalidArgument, r.Message, r.Err)
	default:
		return errors.Wrap(errors.ErrCodeUnexpected, r.Message, r.Err)
	}
}

// Envelope is a Response with an operation-specific payload.
//
// Data is non-nil only when the backend declared success and sent a payload
// that decoded into T. Extra keeps any other top-level fields of the body.
type Envelope[T any] struct {
	Response

	Data  *T                         `json:"data,omitempty" yaml:"data,omitempty"`
	Extra map[string]json.RawMessage `json:"-" yaml:"-"`
}

// OK reports whether the call succeeded and produced a payload.
func (e *Envelope[T]) OK() bool {
	return e.Response.OK() && e.Data != nil
}

// Empty reports a successful call whose body carried no data,
// which single-record lookups treat as "not found".
func (e *Envelope[T]) Empty() bool {
	return e.Response.OK() && e.Data == nil
}

// ExtraString returns a string-valued extra field.
func (e *Envelope[T]) ExtraString(key string) (string, bool) {
	raw, ok := e.Extra[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func failureEnvelope[T any](status int, kind FailureKind, message string, err error) *Envelope[T] {
	return &Envelope[T]{
		Response: Response{
			BaseResponse: BaseResponse{Status: status, Message: message},
			Kind:         kind,
			Err:          err,
		},
	}
}

// retype moves the Response and Extra of one envelope into another payload type.
func retype[T, U any](e *Envelope[T], data *U) *Envelope[U] {
	return &Envelope[U]{Response: e.Response, Data: data, Extra: e.Extra}
}
