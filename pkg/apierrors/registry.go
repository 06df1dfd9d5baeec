package apierrors

import (
	"strings"
	"sync"
)

// Rule maps an OTRS error code fragment to a Kind.
type Rule struct {
	Fragment string `json:"fragment"` // Substring matched against ErrorCode (e.g., "AuthFail")
	Kind     Kind   `json:"kind"`     // Kind assigned on match
	Message  string `json:"message"`  // Default English message
}

// RuleEnumerator is implemented by extensions that declare extra code fragments
type RuleEnumerator interface {
	EnumerateRules() []Rule
}

// registry holds classification rules in registration order
type registry struct {
	mu    sync.RWMutex
	rules []Rule
	index map[string]int // fragment -> position in rules
}

// Registry is the global classification registry
var Registry = &registry{
	index: make(map[string]int),
}

// Register adds a rule. Registering a known fragment replaces its rule in place
// so the original precedence is kept.
func (r *registry) Register(rule Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i, ok := r.index[rule.Fragment]; ok {
		r.rules[i] = rule
		return
	}
	r.index[rule.Fragment] = len(r.rules)
	r.rules = append(r.rules, rule)
}

// RegisterAll registers every rule of an enumerator
func (r *registry) RegisterAll(enumerator RuleEnumerator) {
	for _, rule := range enumerator.EnumerateRules() {
		r.Register(rule)
	}
}

// Get returns the rule for a fragment
func (r *registry) Get(fragment string) (Rule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.index[fragment]
	if !ok {
		return Rule{}, false
	}
	return r.rules[i], true
}

// All returns all registered rules in precedence order
func (r *registry) All() []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Rule, len(r.rules))
	copy(result, r.rules)
	return result
}

// Classify returns the Kind of the first rule whose fragment is contained in
// code, or KindServiceError when none matches.
func (r *registry) Classify(code string) Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rule := range r.rules {
		if strings.Contains(code, rule.Fragment) {
			return rule.Kind
		}
	}
	return KindServiceError
}

// Message returns the default message for a kind, or the kind itself if no
// rule declares one
func (r *registry) Message(kind Kind) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rule := range r.rules {
		if rule.Kind == kind && rule.Message != "" {
			return rule.Message
		}
	}
	return string(kind)
}
