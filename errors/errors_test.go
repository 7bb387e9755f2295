package errors

import (
	stderrors "errors"
	"net/http"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	err := New(ErrCodeTimeout, "took too long", http.StatusGatewayTimeout)
	if got := err.Error(); got != "TIMEOUT: took too long" {
		t.Errorf("Error() = %q", got)
	}

	cause := stderrors.New("dial tcp: timeout")
	err = err.WithCause(cause)
	if got := err.Error(); got != "TIMEOUT: took too long (cause: dial tcp: timeout)" {
		t.Errorf("Error() with cause = %q", got)
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := stderrors.New("root")
	err := Internal(cause)
	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to reach the cause")
	}
}

func TestNew_RetryableDetection(t *testing.T) {
	if !New(ErrCodeTimeout, "m", 0).Retryable {
		t.Error("TIMEOUT should be retryable")
	}
	if New(ErrCodeCandidateFailed, "m", 0).Retryable {
		t.Error("CANDIDATE_FAILED should not be retryable")
	}
}

func TestCandidateFailed(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := CandidateFailed(2, cause)
	if err.Code != ErrCodeCandidateFailed {
		t.Errorf("code = %s", err.Code)
	}
	if err.Details["slot"] != 2 {
		t.Errorf("slot detail = %v", err.Details["slot"])
	}
	if !stderrors.Is(err, cause) {
		t.Error("cause not wrapped")
	}
}

func TestAdaptationFailed(t *testing.T) {
	err := AdaptationFailed(stderrors.New("not a producer"))
	if err.Code != ErrCodeAdaptationFailed || err.Retryable {
		t.Errorf("unexpected error: %+v", err)
	}
}

func TestRelayBacklog(t *testing.T) {
	err := RelayBacklog("client-1")
	if !err.Retryable {
		t.Error("backlog drops should be retryable")
	}
	if err.Details["client_id"] != "client-1" {
		t.Errorf("client detail = %v", err.Details["client_id"])
	}
}

func TestWithDetail(t *testing.T) {
	err := Validation("bad").WithDetail("field", "name")
	if err.Details["field"] != "name" {
		t.Errorf("details = %v", err.Details)
	}
}

func TestToResponse(t *testing.T) {
	err := NotFound("stream", "ticks")
	resp := err.ToResponse()
	if resp.Error.Code != ErrCodeNotFound {
		t.Errorf("response code = %s", resp.Error.Code)
	}
	if resp.Error.Details["resource"] != "stream" {
		t.Errorf("response details = %v", resp.Error.Details)
	}
}

func TestIsAppError(t *testing.T) {
	if !IsAppError(Timeout("op")) {
		t.Error("expected AppError detection")
	}
	if IsAppError(stderrors.New("plain")) {
		t.Error("plain error detected as AppError")
	}

	appErr, ok := AsAppError(RateLimited())
	if !ok || appErr.Code != ErrCodeRateLimited {
		t.Errorf("AsAppError = %v, %v", appErr, ok)
	}
}
