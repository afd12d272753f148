package protocol

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"

	"codeberg.org/mutker/eelnode/internal/errors"
)

// Kind enumerates the commands a client can send.
type Kind int

const (
	// KindUnknown covers any unrecognised code, a missing cmd field, or a
	// cmd that is not an integer.
	KindUnknown Kind = iota
	// KindAck asks the node to confirm it is alive.
	KindAck
	// KindReportAll asks for the latest value of every metric.
	KindReportAll
)

const (
	CodeAck       = 0
	CodeReportAll = 1
)

func (k Kind) String() string {
	switch k {
	case KindAck:
		return "ack"
	case KindReportAll:
		return "report"
	default:
		return "unknown"
	}
}

// Command is a decoded command envelope. Code and Present keep the raw cmd
// value for unknown commands.
type Command struct {
	Kind    Kind
	Code    int64
	Present bool
}

// Ack returns the acknowledge command.
func Ack() Command { return Command{Kind: KindAck, Code: CodeAck, Present: true} }

// ReportAll returns the report-all command.
func ReportAll() Command { return Command{Kind: KindReportAll, Code: CodeReportAll, Present: true} }

// Unknown returns an unknown command carrying the raw code.
func Unknown(code int64) Command { return Command{Kind: KindUnknown, Code: code, Present: true} }

// Missing returns the command decoded from an envelope without a usable cmd.
func Missing() Command { return Command{Kind: KindUnknown} }

// FromCode maps a numeric command code onto its Command.
func FromCode(code int64) Command {
	switch code {
	case CodeAck:
		return Ack()
	case CodeReportAll:
		return ReportAll()
	default:
		return Unknown(code)
	}
}

// Decode parses an inbound frame. Only frames that are not well-formed JSON
// fail; anything else decodes to a Command, possibly of KindUnknown.
func Decode(frame []byte) (Command, error) {
	if !json.Valid(frame) {
		return Command{}, errors.New().New(ErrMalformedFrame)
	}

	trimmed := bytes.TrimSpace(frame)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Missing(), nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return Command{}, errors.New().Wrap(ErrMalformedFrame, err)
	}

	raw, ok := envelope["cmd"]
	if !ok {
		return Missing(), nil
	}

	code, ok := integerValue(raw)
	if !ok {
		return Missing(), nil
	}

	return FromCode(code), nil
}

// integerValue accepts JSON numbers with an integral value, including forms
// such as 1.0 or 1e0.
func integerValue(raw json.RawMessage) (int64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || (raw[0] != '-' && (raw[0] < '0' || raw[0] > '9')) {
		return 0, false
	}

	if n, err := strconv.ParseInt(string(raw), 10, 64); err == nil {
		return n, true
	}

	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}

	return int64(f), true
}
