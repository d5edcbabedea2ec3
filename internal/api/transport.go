package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/felixgeelhaar/adminctl/internal/errors"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 8 << 20

// TokenSource yields the current session token. An empty token with a nil
// error means no session exists.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource that always returns the same token.
type StaticToken string

// Token implements TokenSource.
func (s StaticToken) Token(context.Context) (string, error) {
	return string(s), nil
}

// rawResult is what the transport hands to the normalizer.
type rawResult struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// transport builds and issues requests. It never classifies HTTP status codes.
type transport struct {
	baseURL    *url.URL
	httpClient *http.Client
	tokens     TokenSource
	limiter    *rate.Limiter
	authHeader string
	authScheme string
	userAgent  string
}

// unauthenticated issues a POST with a JSON body and no credentials.
func (t *transport) unauthenticated(ctx context.Context, path string, body any) (*rawResult, error) {
	return t.do(ctx, http.MethodPost, path, body, "")
}

// authenticated attaches the session token and issues the request. GET
// bodies are encoded as query parameters. Without a token nothing is sent.
func (t *transport) authenticated(ctx context.Context, method, path string, body any) (*rawResult, error) {
	token := ""
	if t.tokens != nil {
		var err error
		token, err = t.tokens.Token(ctx)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeAuthMissing, "failed to read session token", err).
				WithSuggestion("Run 'adminctl auth login' to authenticate")
		}
	}
	if token == "" {
		return nil, errors.NewAuthMissingError(path)
	}
	return t.do(ctx, method, path, body, token)
}

func (t *transport) do(ctx context.Context, method, path string, body any, token string) (*rawResult, error) {
	target, err := t.resolve(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidArgument, "invalid request path", err)
	}

	var reqBody io.Reader
	if method == http.MethodGet || method == http.MethodHead {
		if body != nil {
			query, err := encodeQuery(body)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidArgument, "failed to encode query", err)
			}
			if len(query) > 0 {
				q := target.Query()
				for k, vs := range query {
					for _, v := range vs {
						q.Add(k, v)
					}
				}
				target.RawQuery = q.Encode()
			}
		}
	} else {
		if body == nil {
			body = struct{}{}
		}
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidArgument, "failed to marshal request body", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reqBody)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidArgument, "failed to create request", err)
	}

	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token != "" {
		value := token
		if t.authScheme != "" {
			value = t.authScheme + " " + token
		}
		req.Header.Set(t.authHeader, value)
	}

	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, errors.NewTransportError(method+" "+path, err)
		}
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewTransportError(method+" "+path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.NewTransportError(method+" "+path, fmt.Errorf("failed to read response body: %w", err))
	}

	return &rawResult{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

func (t *transport) resolve(path string) (*url.URL, error) {
	rel, err := url.Parse(path)
	if err != nil {
		return nil, err
	}
	if rel.IsAbs() {
		return nil, fmt.Errorf("absolute path %q not allowed", path)
	}

	u := *t.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(rel.Path, "/")
	u.RawPath = ""
	if rel.RawPath != "" {
		u.RawPath = strings.TrimRight(t.baseURL.EscapedPath(), "/") + "/" + strings.TrimLeft(rel.RawPath, "/")
	}
	u.RawQuery = rel.RawQuery
	return &u, nil
}

// encodeQuery flattens the top-level fields of body into query parameters.
// Nested objects are sent as their JSON text.
func encodeQuery(body any) (url.Values, error) {
	if v, ok := body.(url.Values); ok {
		return v, nil
	}

	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, fmt.Errorf("query body must be an object: %w", err)
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := url.Values{}
	for _, k := range keys {
		raw := bytes.TrimSpace(fields[k])
		switch {
		case bytes.Equal(raw, []byte("null")):
			continue
		case len(raw) > 0 && raw[0] == '"':
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return nil, err
			}
			values.Add(k, s)
		case len(raw) > 0 && raw[0] == '[':
			var items []json.RawMessage
			if err := json.Unmarshal(raw, &items); err != nil {
				return nil, err
			}
			for _, item := range items {
				var s string
				if json.Unmarshal(item, &s) == nil {
					values.Add(k, s)
				} else {
					values.Add(k, string(item))
				}
			}
		default:
			values.Add(k, string(raw))
		}
	}
	return values, nil
}
