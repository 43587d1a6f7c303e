package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDurationUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{name: "duration string", input: `"30m"`, want: 30 * time.Minute},
		{name: "nanosecond number", input: `60000000000`, want: time.Minute},
		{name: "bad string", input: `"soon"`, wantErr: true},
		{name: "wrong type", input: `{"m":30}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration

			err := json.Unmarshal([]byte(tt.input), &d)
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, time.Duration(d))
		})
	}
}

func TestDurationMarshalRoundTrip(t *testing.T) {
	out, err := json.Marshal(Duration(90 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, `"1m30s"`, string(out))

	var back Duration
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, 90*time.Second, time.Duration(back))
}
