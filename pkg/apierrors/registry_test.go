package apierrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestRegistry_ServiceRulesRegistered(t *testing.T) {
	// Service rules should be registered via init()
	rules := Registry.All()
	if len(rules) < 3 {
		t.Fatalf("expected at least 3 rules, got %d", len(rules))
	}

	mustExist := []string{
		FragmentAuthFail,
		FragmentAccessDenied,
		FragmentInvalidParameter,
	}

	for _, fragment := range mustExist {
		if _, ok := Registry.Get(fragment); !ok {
			t.Errorf("fragment %q not registered", fragment)
		}
	}
}

func TestRegistry_Classify(t *testing.T) {
	tests := []struct {
		code string
		kind Kind
	}{
		{"TicketGet.AuthFail", KindAuthenticationFailed},
		{"SessionCreate.AuthFail", KindAuthenticationFailed},
		{"TicketGet.AccessDenied", KindAccessDenied},
		{"TicketCreate.InvalidParameter", KindInvalidParameter},
		{"TicketSearch.NotFound", KindServiceError},
		{"", KindServiceError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := Registry.Classify(tt.code); got != tt.kind {
				t.Errorf("Classify(%q) = %q, want %q", tt.code, got, tt.kind)
			}
		})
	}
}

func TestRegistry_PrecedenceKeptOnReplace(t *testing.T) {
	r := &registry{index: make(map[string]int)}
	r.Register(Rule{Fragment: "AuthFail", Kind: KindAuthenticationFailed})
	r.Register(Rule{Fragment: "Denied", Kind: KindAccessDenied})
	r.Register(Rule{Fragment: "AuthFail", Kind: KindAuthenticationFailed, Message: "replaced"})

	rules := r.All()
	if len(rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rules))
	}
	if rules[0].Message != "replaced" {
		t.Errorf("replaced rule moved or not updated: %+v", rules[0])
	}

	// Both fragments present: the earlier rule wins
	if got := r.Classify("X.AuthFail.Denied"); got != KindAuthenticationFailed {
		t.Errorf("Classify = %q, want %q", got, KindAuthenticationFailed)
	}
}

type extraRules struct{}

func (extraRules) EnumerateRules() []Rule {
	return []Rule{{Fragment: "TicketLocked", Kind: KindAccessDenied, Message: "Ticket locked"}}
}

func TestRegistry_RegisterAll(t *testing.T) {
	r := &registry{index: make(map[string]int)}
	r.RegisterAll(extraRules{})

	if got := r.Classify("TicketUpdate.TicketLocked"); got != KindAccessDenied {
		t.Errorf("Classify = %q, want %q", got, KindAccessDenied)
	}
	if got := r.Message(KindAccessDenied); got != "Ticket locked" {
		t.Errorf("Message = %q", got)
	}
	if got := r.Message(KindTransport); got != string(KindTransport) {
		t.Errorf("Message for undeclared kind = %q", got)
	}
}

func TestError_IsMatchesKind(t *testing.T) {
	err := fmt.Errorf("send: %w", FromEnvelope("TicketGet.AuthFail", "bad session", nil))

	if !errors.Is(err, ErrAuthenticationFailed) {
		t.Error("expected errors.Is to match ErrAuthenticationFailed")
	}
	if errors.Is(err, ErrAccessDenied) {
		t.Error("auth failure must not match ErrAccessDenied")
	}
	if KindOf(err) != KindAuthenticationFailed {
		t.Errorf("KindOf = %q", KindOf(err))
	}
	if KindOf(errors.New("plain")) != "" {
		t.Error("plain errors have no kind")
	}
}

func TestFromEnvelope_ServiceErrorKeepsEnvelope(t *testing.T) {
	envelope := map[string]any{"Error": map[string]any{"ErrorCode": "Odd.Code"}}

	e := FromEnvelope("Odd.Code", "odd", envelope)
	if e.Kind != KindServiceError {
		t.Fatalf("kind = %q", e.Kind)
	}
	if e.Envelope == nil {
		t.Error("service errors must carry the envelope")
	}

	e = FromEnvelope("X.AccessDenied", "no", envelope)
	if e.Envelope != nil {
		t.Error("classified errors do not carry the envelope")
	}
}

func TestError_Message(t *testing.T) {
	e := &Error{Kind: KindBadResponse, StatusCode: 502, Message: "upstream"}
	want := "otrs: bad_response (HTTP 502): upstream"
	if e.Error() != want {
		t.Errorf("Error() = %q, want %q", e.Error(), want)
	}

	cause := errors.New("boom")
	w := Wrap(KindTransport, cause, "POST %s", "Session")
	if !errors.Is(w, cause) {
		t.Error("Wrap must keep the cause reachable")
	}
}
