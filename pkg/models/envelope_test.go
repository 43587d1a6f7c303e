package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnvelope(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
		check   func(t *testing.T, env *Envelope)
	}{
		{
			name: "command",
			data: `{"type":"command","command":{"requestId":"r1","commandType":"click","params":{"x":10}}}`,
			check: func(t *testing.T, env *Envelope) {
				require.NotNil(t, env.Command)
				assert.Equal(t, "r1", env.Command.RequestID)
				assert.Equal(t, "click", env.Command.CommandType)
				assert.Equal(t, float64(10), env.Command.Params["x"])
			},
		},
		{
			name: "node response",
			data: `{"type":"node_response","response":{"requestId":"r2","status":"success","responsePayload":{"ok":true}}}`,
			check: func(t *testing.T, env *Envelope) {
				require.NotNil(t, env.Response)
				assert.Equal(t, "r2", env.Response.RequestID)
				assert.Equal(t, "success", env.Response.Status)
			},
		},
		{
			name: "file upload",
			data: `{"type":"file_upload","file":{"requestId":"r3","filename":"a.pdf","fileContent":"AAAA","mimeType":"application/pdf","fileSize":3}}`,
			check: func(t *testing.T, env *Envelope) {
				require.NotNil(t, env.File)
				assert.Equal(t, "a.pdf", env.File.Filename)
				assert.EqualValues(t, 3, env.File.FileSize)
			},
		},
		{
			name: "image frame",
			data: `{"type":"image_frame","frame_data":"iVBORw0KGgo="}`,
			check: func(t *testing.T, env *Envelope) {
				assert.Equal(t, "iVBORw0KGgo=", env.FrameData)
			},
		},
		{
			name: "status probe carries no payload",
			data: `{"type":"status_probe"}`,
			check: func(t *testing.T, env *Envelope) {
				assert.Equal(t, TypeStatusProbe, env.Type)
			},
		},
		{
			name: "unknown type decodes cleanly",
			data: `{"type":"future_thing","message":"hi"}`,
			check: func(t *testing.T, env *Envelope) {
				assert.Equal(t, "future_thing", env.Type)
			},
		},
		{
			name:    "invalid json",
			data:    `{not json`,
			wantErr: true,
		},
		{
			name:    "missing type",
			data:    `{"command":{"requestId":"r1"}}`,
			wantErr: true,
		},
		{
			name:    "command without payload",
			data:    `{"type":"command"}`,
			wantErr: true,
		},
		{
			name:    "command without request id",
			data:    `{"type":"command","command":{"commandType":"click"}}`,
			wantErr: true,
		},
		{
			name:    "response without request id",
			data:    `{"type":"node_response","response":{"status":"success"}}`,
			wantErr: true,
		},
		{
			name:    "file without request id",
			data:    `{"type":"file_upload","file":{"filename":"a.pdf"}}`,
			wantErr: true,
		},
		{
			name:    "image frame without data",
			data:    `{"type":"image_frame"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := ParseEnvelope([]byte(tt.data))
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrMalformedEnvelope)

				return
			}

			require.NoError(t, err)

			if tt.check != nil {
				tt.check(t, env)
			}
		})
	}
}

func TestNewCommandEnvelope(t *testing.T) {
	cmd := &CommandBody{RequestID: "r1", CommandType: "type_text"}
	env := NewCommandEnvelope(cmd)

	assert.Equal(t, TypeCommand, env.Type)
	assert.Same(t, cmd, env.Command)
}

func TestNewErrorEnvelope(t *testing.T) {
	env := NewErrorEnvelope("node disconnected")

	assert.Equal(t, TypeError, env.Type)
	assert.Equal(t, "node disconnected", env.Message)
}
