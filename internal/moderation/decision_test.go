package moderation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDecision(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Decision
		wantErr bool
	}{
		{name: "safe", raw: `{"safe": true, "reason": "friendly greeting"}`, want: Decision{Safe: true, Reason: "friendly greeting"}},
		{name: "unsafe", raw: `{"safe": false, "reason": "insult"}`, want: Decision{Safe: false, Reason: "insult"}},
		{name: "surrounding whitespace", raw: "\n  {\"safe\": true, \"reason\": \"ok\"}  \n", want: Decision{Safe: true, Reason: "ok"}},
		{name: "empty reason allowed", raw: `{"safe": false, "reason": ""}`, want: Decision{Safe: false}},
		{name: "missing reason", raw: `{"safe": true}`, wantErr: true},
		{name: "missing safe", raw: `{"reason": "ok"}`, wantErr: true},
		{name: "extra field", raw: `{"safe": true, "reason": "ok", "score": 0.9}`, wantErr: true},
		{name: "string safe", raw: `{"safe": "true", "reason": "ok"}`, wantErr: true},
		{name: "prose before json", raw: `Sure! {"safe": true, "reason": "ok"}`, wantErr: true},
		{name: "trailing prose", raw: `{"safe": true, "reason": "ok"} hope this helps`, wantErr: true},
		{name: "markdown fence", raw: "```json\n{\"safe\": true, \"reason\": \"ok\"}\n```", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
		{name: "array", raw: `[true, "ok"]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeDecision(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMalformed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
