package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand_Text(t *testing.T) {
	out, _, err := execute(t, "parse", "filter_by_name('Cody') and filter_by_age(10)")
	require.NoError(t, err)

	assert.Contains(t, out, "tree:         filter_by_name('Cody') and filter_by_age(10)")
	assert.Contains(t, out, "calls:        filter_by_name, filter_by_age")
	assert.NotContains(t, out, "placeholders:")
}

func TestParseCommand_JSON(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "parse", "filter_by_owner(current_user()) or not a()")
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   ParseResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "VALID_TREE", resp.Data.State)
	assert.Len(t, resp.Data.Fingerprint, 64)
	assert.Equal(t, []string{"filter_by_owner", "a"}, resp.Data.Calls)
	assert.Equal(t, []string{"current_user"}, resp.Data.Placeholders)
}

func TestParseCommand_SameTreeSameFingerprint(t *testing.T) {
	fingerprint := func(query string) string {
		out, _, err := execute(t, "--format", "json", "parse", query)
		require.NoError(t, err)
		var resp struct {
			Data ParseResult `json:"data"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		return resp.Data.Fingerprint
	}

	assert.Equal(t, fingerprint("a(1) and b('x')"), fingerprint("a( 1 )  and  b( 'x' )"))
	assert.NotEqual(t, fingerprint("a(1) and b('x')"), fingerprint("b('x') and a(1)"))
}

func TestParseCommand_Errors(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantCode  string
		wantState string
	}{
		{"comparison", "filter_by_age() >= 30", "SYNTAX_ERROR", "SYNTAX_ERROR"},
		{"dangling operator", "a() and", "SYNTAX_ERROR", "SYNTAX_ERROR"},
		{"lambda argument", "filter_by_age(lambda x: x+1)", "ARGUMENT_PARSING_ERROR", "ARGUMENT_PARSING_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, "--format", "json", "parse", tt.query)
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))

			var resp struct {
				Status string `json:"status"`
				Error  struct {
					Code    string            `json:"code"`
					Details parseErrorDetails `json:"details"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			assert.Equal(t, "error", resp.Status)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, tt.wantState, resp.Error.Details.State)
		})
	}
}
