package cmd

import (
	"errors"
	"fmt"
	"testing"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/stretchr/testify/assert"

	"github.com/zballl/vibecheck-app/internal/ailink"
	"github.com/zballl/vibecheck-app/internal/core"
)

func TestExitCodeFor(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want foundry.ExitCode
	}{
		{"auth", &ailink.AuthError{StatusCode: 401}, foundry.ExitConfigInvalid},
		{"wrapped auth", fmt.Errorf("resolve: %w", &ailink.AuthError{}), foundry.ExitConfigInvalid},
		{"dispatch", &ailink.DispatchError{Failures: []core.Attempt{{Model: "m", Reason: core.ReasonUnavailable}}}, foundry.ExitExternalServiceUnavailable},
		{"extract", &ailink.ExtractError{Err: errors.New("no array")}, foundry.ExitExternalServiceUnavailable},
		{"explicit", &exitError{code: foundry.ExitConfigInvalid, err: errors.New("bad config")}, foundry.ExitConfigInvalid},
		{"other", errors.New("boom"), foundry.ExitFailure},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExitCodeFor(tc.err))
		})
	}
}

func TestIsQuiet(t *testing.T) {
	assert.True(t, IsQuiet(&exitError{code: foundry.ExitFailure, err: errors.New("shown"), quiet: true}))
	assert.False(t, IsQuiet(&exitError{code: foundry.ExitFailure, err: errors.New("not shown")}))
	assert.False(t, IsQuiet(errors.New("plain")))
}
