package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
)

// Backoff schedules for CallWithRetry. Tests shorten them.
var (
	RateLimitWaitTimes   = []time.Duration{65 * time.Second, 100 * time.Second, 135 * time.Second}
	ServerErrorWaitTimes = []time.Duration{5 * time.Second, 30 * time.Second, 60 * time.Second}
)

// ResponsesAPI is the slice of the OpenAI client CallWithRetry needs.
type ResponsesAPI interface {
	New(ctx context.Context, body responses.ResponseNewParams, opts ...option.RequestOption) (*responses.Response, error)
}

func CallWithRetry(ctx context.Context, api ResponsesAPI, params responses.ResponseNewParams) (*responses.Response, error) {
	const maxRetries = 3

	for attempt := 0; attempt < maxRetries; attempt++ {
		resp, err := api.New(ctx, params)
		if err == nil {
			return resp, nil
		}
		var wait time.Duration
		switch {
		case IsRateLimitError(err):
			wait = RateLimitWaitTimes[attempt]
		case IsServerError(err):
			wait = ServerErrorWaitTimes[attempt]
		default:
			return nil, err
		}
		if attempt == maxRetries-1 {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, fmt.Errorf("failed after %d attempts due to OpenAI API issues", maxRetries)
}

// Client returns the Responses service of c as a ResponsesAPI.
func Client(c *openai.Client) ResponsesAPI { return &c.Responses }

func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests")
}

func IsServerError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "internal server error") ||
		strings.Contains(errStr, "server_error")
}

// StrictSchema reflects T into the closed-object JSON schema the Responses API accepts
// with Strict set: every object rejects unknown keys and requires all of its properties.
func StrictSchema[T any]() (map[string]any, error) {
	r := jsonschema.Reflector{DoNotReference: true}
	root := r.Reflect(new(T))
	closeObjects(root)

	b, err := json.Marshal(root)
	if err != nil {
		return nil, fmt.Errorf("StrictSchema: encode: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("StrictSchema: decode: %w", err)
	}
	return out, nil
}

// MustStrictSchema is StrictSchema for package-level schema variables.
func MustStrictSchema[T any]() map[string]any {
	out, err := StrictSchema[T]()
	if err != nil {
		panic(err)
	}
	return out
}

// closeObjects walks every subschema and closes the objects it finds. Required follows
// property declaration order.
func closeObjects(s *jsonschema.Schema) {
	if s == nil {
		return
	}
	if s.Type == "object" || s.Properties != nil {
		s.AdditionalProperties = jsonschema.FalseSchema
		s.Required = nil
		if s.Properties != nil {
			for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
				s.Required = append(s.Required, pair.Key)
				closeObjects(pair.Value)
			}
		}
	}
	closeObjects(s.Items)
	closeObjects(s.Not)
	for _, group := range [][]*jsonschema.Schema{s.AnyOf, s.OneOf, s.AllOf, s.PrefixItems} {
		for _, sub := range group {
			closeObjects(sub)
		}
	}
	for _, def := range s.Definitions {
		closeObjects(def)
	}
}
