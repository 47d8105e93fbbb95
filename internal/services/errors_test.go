package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Izzudinalqassam/techops-dashboard/internal/domain"
)

func TestValidationError_MatchesSentinel(t *testing.T) {
	err := fmt.Errorf("create: %w", invalid("title", "is required"))
	assert.ErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrStore)
	assert.Equal(t, "create: title: is required", err.Error())
	assert.Equal(t, "nothing to do", invalid("", "nothing to do").Error())
}

func TestStoreFailure_LogsContextAndHidesCause(t *testing.T) {
	var buf bytes.Buffer
	lg := zerolog.New(&buf)
	ctx := lg.WithContext(context.Background())
	cause := errors.New("pq: relation \"maintenance_requests\" does not exist")

	err := storeFailure(ctx, "get_request", 7, domain.Actor{ID: 3, Role: "engineer"}, cause)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStore)
	assert.ErrorIs(t, err, cause)
	assert.NotContains(t, err.Error(), "relation")

	out := buf.String()
	for _, want := range []string{`"op":"get_request"`, `"request_id":7`, `"actor_id":3`, `"actor_role":"engineer"`, "does not exist"} {
		assert.Contains(t, out, want)
	}

	// Expected outcomes pass through untouched and are not logged.
	buf.Reset()
	for _, e := range []error{ErrRequestNotFound, ErrInvalidStatus, invalid("x", "y"), err} {
		assert.Same(t, e, storeFailure(ctx, "op", 1, domain.Actor{}, e))
	}
	assert.Empty(t, buf.String())
	assert.NoError(t, storeFailure(ctx, "op", 1, domain.Actor{}, nil))
}

func TestSanitizeText(t *testing.T) {
	cases := map[string]string{
		"  plain  ":                       "plain",
		"<b>bold</b> move":                "bold move",
		"Tom & Jerry's <i>desk</i>":       "Tom & Jerry's desk",
		"<script>alert('x')</script>safe": "safe",
		"<img src=x onerror=alert(1)>":    "",
	}
	for in, want := range cases {
		assert.Equal(t, want, sanitizeText(in), "input %q", in)
	}
	assert.Nil(t, sanitizeOptional(nil))
	assert.Nil(t, sanitizeOptional(ptr("  ")))
	assert.Equal(t, "ok", *sanitizeOptional(ptr(" ok ")))
}
