package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	mixerrors "github.com/scribblekit/mixcut/pkg/errors"
)

func TestErrFmtHandlerAddsStacktrace(t *testing.T) {
	var buf bytes.Buffer
	handler := WrapByErrFmtHandler(slog.NewJSONHandler(&buf, nil))
	logger := slog.New(handler)

	logger.Error("fit failed", ErrAttr(mixerrors.NewOverfitError(2, 1e-9, 1e-7)))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if _, ok := record[StacktraceAttrKey]; !ok {
		t.Errorf("record missing %q attribute: %v", StacktraceAttrKey, record)
	}
}

func TestZerologErrMarshalsStructuredObject(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerolog(&buf)

	ZerologErr(logger.Error(), &mixerrors.OverfitError{Component: 1, Mass: 1e-9, Threshold: 1e-7}).
		Msg("component collapsed")

	out := buf.String()
	if !strings.Contains(out, `"component":1`) {
		t.Errorf("structured error fields missing from output: %s", out)
	}
	if !strings.Contains(out, "OverfitError") {
		t.Errorf("error type missing from output: %s", out)
	}
}

func TestToLogLevel(t *testing.T) {
	if ToLogLevel("debug") != slog.LevelDebug {
		t.Error("debug level mapped incorrectly")
	}
	if ToLogLevel("error") != slog.LevelError {
		t.Error("error level mapped incorrectly")
	}
}
