package api

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/felixgeelhaar/adminctl/internal/errors"
)

// normalize turns a raw transport result into an envelope. It never panics
// and never returns nil.
func normalize[T any](raw *rawResult) *Envelope[T] {
	httpStatus := raw.StatusCode
	body := bytes.TrimSpace(raw.Body)

	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return backendEnvelope[T](httpStatus, "", nil)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		// Some gateways answer errors with plain text or HTML.
		if httpStatus < 200 || httpStatus >= 300 {
			return backendEnvelope[T](httpStatus, "", nil)
		}
		return decodeFailure[T]("response body is not a JSON object", err)
	}

	status := httpStatus
	if rawStatus, ok := fields["status"]; ok {
		var s FlexString
		if err := json.Unmarshal(rawStatus, &s); err == nil {
			if n, err := s.Int64(); err == nil {
				status = int(n)
			}
		}
	}
	// A transport-level failure outranks a body that claims success.
	if (httpStatus < 200 || httpStatus >= 300) && status >= 200 && status < 300 {
		status = httpStatus
	}

	message := ""
	if rawMessage, ok := fields["message"]; ok {
		var m string
		if err := json.Unmarshal(rawMessage, &m); err == nil {
			message = m
		} else {
			message = string(rawMessage)
		}
	}

	var extra map[string]json.RawMessage
	for k, v := range fields {
		switch k {
		case "status", "message", "data":
			continue
		}
		if extra == nil {
			extra = make(map[string]json.RawMessage)
		}
		extra[k] = v
	}

	env := backendEnvelope[T](status, message, nil)
	env.Extra = extra
	if !env.Success() {
		return env
	}

	rawData, ok := fields["data"]
	if !ok || bytes.Equal(bytes.TrimSpace(rawData), []byte("null")) {
		return env
	}

	var data T
	if err := json.Unmarshal(rawData, &data); err != nil {
		return decodeFailure[T](fmt.Sprintf("unexpected data shape: %v", err), err)
	}
	env.Data = &data
	return env
}

func backendEnvelope[T any](status int, message string, data *T) *Envelope[T] {
	if message == "" {
		message = http.StatusText(status)
	}
	env := &Envelope[T]{
		Response: Response{BaseResponse: BaseResponse{Status: status, Message: message}},
		Data:     data,
	}
	if !env.Success() {
		env.Kind = KindBackend
		env.Err = errors.NewBackendError(status, message)
	}
	return env
}

func decodeFailure[T any](message string, err error) *Envelope[T] {
	return failureEnvelope[T](StatusDecodeError, KindTransport, message, errors.NewDecodeError(message, err))
}

// catch is the default error handler: it maps any error produced while
// issuing a call to the failure envelope callers see.
func catch[T any](err error) *Envelope[T] {
	var adminErr *errors.AdminError
	if !stderrors.As(err, &adminErr) {
		return failureEnvelope[T](StatusUnexpected, KindUnexpected, err.Error(),
			errors.Wrap(errors.ErrCodeUnexpected, "unexpected error", err))
	}

	message := adminErr.Message
	if adminErr.Cause != nil {
		message = adminErr.Message + ": " + adminErr.Cause.Error()
	}

	switch adminErr.Code {
	case errors.ErrCodeTransport:
		return failureEnvelope[T](StatusTransportError, KindTransport, message, err)
	case errors.ErrCodeDecode:
		return failureEnvelope[T](StatusDecodeError, KindTransport, message, err)
	case errors.ErrCodeAuthMissing:
		return failureEnvelope[T](StatusAuthMissing, KindAuthMissing, adminErr.Message, err)
	case errors.ErrCodeInvalidArgument:
		return failureEnvelope[T](StatusInvalidArgument, KindInvalidArgument, message, err)
	case errors.ErrCodeBackend:
		return failureEnvelope[T](adminErr.Status, KindBackend, adminErr.Message, err)
	default:
		return failureEnvelope[T](StatusUnexpected, KindUnexpected, message, err)
	}
}

// recovered converts a recovered panic value into an error.
func recovered(v any) error {
	if err, ok := v.(error); ok {
		return errors.Wrap(errors.ErrCodeUnexpected, "panic during call", err)
	}
	return errors.New(errors.ErrCodeUnexpected, fmt.Sprintf("panic during call: %v", v))
}
