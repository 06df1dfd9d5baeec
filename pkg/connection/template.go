package connection

import (
	"net/url"
	"regexp"

	"github.com/goatkit/otrsclient/pkg/apierrors"
)

// SessionIDField is the template placeholder replaced with the session token.
const SessionIDField = "SessionID"

var placeholderPattern = regexp.MustCompile(`\{(\w+)\}`)

// templateFields returns the placeholder names of tmpl in order of appearance.
func templateFields(tmpl string) []string {
	matches := placeholderPattern.FindAllStringSubmatch(tmpl, -1)
	fields := make([]string, 0, len(matches))
	for _, m := range matches {
		fields = append(fields, m[1])
	}
	return fields
}

// checkTemplate fails when a placeholder other than {SessionID} has no value.
func checkTemplate(tmpl string, params map[string]string) error {
	for _, name := range templateFields(tmpl) {
		if name == SessionIDField {
			continue
		}
		if _, ok := params[name]; !ok {
			return &apierrors.Error{
				Kind:    apierrors.KindMissingTemplateField,
				Message: "no value for template field {" + name + "} in " + tmpl,
			}
		}
	}
	return nil
}

// expandTemplate substitutes {SessionID} (query-escaped) and every {Name}
// from params (verbatim).
func expandTemplate(tmpl, token string, params map[string]string) (string, error) {
	if err := checkTemplate(tmpl, params); err != nil {
		return "", err
	}
	return placeholderPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		name := match[1 : len(match)-1]
		if name == SessionIDField {
			return url.QueryEscape(token)
		}
		return params[name]
	}), nil
}
