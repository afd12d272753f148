package protocol_test

import (
	"encoding/json"
	"math"
	"testing"

	"codeberg.org/mutker/eelnode/internal/errors"
	"codeberg.org/mutker/eelnode/internal/protocol"
	"codeberg.org/mutker/eelnode/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		frame   string
		want    protocol.Command
		wantErr bool
	}{
		{name: "ack", frame: `{"cmd":0}`, want: protocol.Ack()},
		{name: "report", frame: `{"cmd":1}`, want: protocol.ReportAll()},
		{name: "report with extra fields", frame: `{"cmd":1,"id":"abc","x":[1,2]}`, want: protocol.ReportAll()},
		{name: "whitespace", frame: " \n{ \"cmd\" : 0 }\r\n", want: protocol.Ack()},
		{name: "integral float", frame: `{"cmd":1.0}`, want: protocol.ReportAll()},
		{name: "exponent", frame: `{"cmd":1e0}`, want: protocol.ReportAll()},
		{name: "unknown code", frame: `{"cmd":99}`, want: protocol.Unknown(99)},
		{name: "negative code", frame: `{"cmd":-1}`, want: protocol.Unknown(-1)},
		{name: "missing cmd", frame: `{}`, want: protocol.Missing()},
		{name: "other fields only", frame: `{"command":0}`, want: protocol.Missing()},
		{name: "fractional cmd", frame: `{"cmd":1.5}`, want: protocol.Missing()},
		{name: "string cmd", frame: `{"cmd":"1"}`, want: protocol.Missing()},
		{name: "null cmd", frame: `{"cmd":null}`, want: protocol.Missing()},
		{name: "array", frame: `[1,2]`, want: protocol.Missing()},
		{name: "bare number", frame: `1`, want: protocol.Missing()},
		{name: "plain text", frame: `hello`, wantErr: true},
		{name: "truncated", frame: `{"cmd":`, wantErr: true},
		{name: "empty", frame: ``, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := protocol.Decode([]byte(tt.frame))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.HasCode(err, protocol.ErrMalformedFrame))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromCode(t *testing.T) {
	assert.Equal(t, protocol.KindAck, protocol.FromCode(0).Kind)
	assert.Equal(t, protocol.KindReportAll, protocol.FromCode(1).Kind)

	unknown := protocol.FromCode(2)
	assert.Equal(t, protocol.KindUnknown, unknown.Kind)
	assert.Equal(t, int64(2), unknown.Code)
	assert.True(t, unknown.Present)

	assert.False(t, protocol.Missing().Present)
	assert.Equal(t, "report", protocol.KindReportAll.String())
	assert.Equal(t, "unknown", protocol.Kind(9).String())
}

func TestEncodeStatus(t *testing.T) {
	out, err := protocol.Encode(protocol.Status(protocol.StatusOK))
	require.NoError(t, err)
	assert.Equal(t, `{"status":1}`, string(out))

	out, err = protocol.Encode(protocol.Status(protocol.StatusRejected))
	require.NoError(t, err)
	assert.Equal(t, `{"status":0}`, string(out))
}

func TestEncodeReportKeepsMetricOrder(t *testing.T) {
	readings := []telemetry.Reading{
		{Metric: telemetry.Temperature, Value: 24.5, Valid: true},
		{Metric: telemetry.Distance, Value: 0},
		{Metric: telemetry.PH, Value: 9, Valid: true},
		{Metric: telemetry.DissolvedOxygen, Value: 8, Valid: true},
	}

	out, err := protocol.Encode(protocol.Report(readings))
	require.NoError(t, err)
	assert.Equal(t, `{"temperature":24.5,"distance":0,"ph":9,"dissolved_oxygen":8}`, string(out))

	var decoded map[string]float64
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Len(t, decoded, 4)
}

func TestResponseSetReplaces(t *testing.T) {
	r := protocol.Status(protocol.StatusRejected)
	r.Set(protocol.StatusField, protocol.StatusOK)

	v, ok := r.Get(protocol.StatusField)
	require.True(t, ok)
	assert.Equal(t, 1.0, v)
	assert.Len(t, r.Fields(), 1)

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestEncodeRejectsNonFinite(t *testing.T) {
	r := &protocol.Response{}
	r.Set("temperature", math.NaN())

	_, err := protocol.Encode(r)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, protocol.ErrEncodeResponse))
}

func TestEncodeEmpty(t *testing.T) {
	out, err := protocol.Encode(&protocol.Response{})
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(out))
}
