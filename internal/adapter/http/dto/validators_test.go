package dto

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
)

// bindingValidate runs gin's binding validators without an HTTP request.
func bindingValidate(obj interface{}) error {
	return binding.Validator.ValidateStruct(obj)
}

// --- SanitizeStruct tests ---

func TestSanitizeStruct_TrimsWhitespace(t *testing.T) {
	req := CreateRoundRequest{
		Title:       "  Solar farm  ",
		Description: " Expand the array ",
	}
	SanitizeStruct(&req)

	assert.Equal(t, "Solar farm", req.Title)
	assert.Equal(t, "Expand the array", req.Description)
}

func TestSanitizeStruct_EscapesHTML(t *testing.T) {
	req := CreateRoundRequest{
		Title:       "round <script>alert('x')</script>",
		Description: "desc <b>bold</b>",
	}
	SanitizeStruct(&req)

	assert.Contains(t, req.Title, "&lt;script&gt;")
	assert.NotContains(t, req.Title, "<script>")
	assert.Equal(t, "desc &lt;b&gt;bold&lt;/b&gt;", req.Description)
}

func TestSanitizeStruct_HandlesPointerString(t *testing.T) {
	reason := "  insufficient funds on our side  "
	req := ResolveWithdrawalRequest{
		Outcome: "REJECTED",
		Reason:  &reason,
	}
	SanitizeStruct(&req)

	assert.Equal(t, "insufficient funds on our side", *req.Reason)
}

func TestSanitizeStruct_NilPointerIsNoOp(t *testing.T) {
	req := ResolveWithdrawalRequest{
		Outcome: "COMPLETED",
		Reason:  nil,
	}
	SanitizeStruct(&req)
	assert.Nil(t, req.Reason)
}

func TestSanitizeStruct_NonPointerIsNoOp(t *testing.T) {
	s := "hello"
	SanitizeStruct(s) // should not panic
}

// --- Custom Validator tests ---

func TestInstrumentKind_Valid(t *testing.T) {
	for _, tc := range []string{"EQUITY", "LOAN", "DONATION"} {
		req := CreateRoundRequest{
			Title:          "r",
			InstrumentType: tc,
			TargetAmount:   100,
			Deadline:       "2030-01-01T00:00:00Z",
		}
		assert.NoError(t, bindingValidate(&req), "expected valid: %s", tc)
	}
}

func TestInstrumentKind_Invalid(t *testing.T) {
	for _, tc := range []string{"BOND", "equity", "", "LOAN "} {
		req := CreateRoundRequest{
			Title:          "r",
			InstrumentType: tc,
			TargetAmount:   100,
			Deadline:       "2030-01-01T00:00:00Z",
		}
		assert.Error(t, bindingValidate(&req), "expected invalid: %q", tc)
	}
}

func TestWithdrawalOutcome_Valid(t *testing.T) {
	for _, tc := range []string{"PROCESSING", "COMPLETED", "REJECTED"} {
		req := ResolveWithdrawalRequest{Outcome: tc}
		assert.NoError(t, bindingValidate(&req), "expected valid: %s", tc)
	}
}

func TestWithdrawalOutcome_RejectsPending(t *testing.T) {
	for _, tc := range []string{"PENDING", "DONE", ""} {
		req := ResolveWithdrawalRequest{Outcome: tc}
		assert.Error(t, bindingValidate(&req), "expected invalid: %q", tc)
	}
}
