package gateway

import (
	"fmt"
	"strings"
)

// Method enumerates the HTTP methods a gateway route can carry. Raw method
// names arrive as free-form strings (YAML, flags) and pass through
// ParseMethod exactly once; everything past that boundary works with the
// closed type.
type Method int

const (
	OPTIONS Method = iota
	GET
	HEAD
	PUT
	POST
	DELETE
	PATCH
)

var methodNames = [...]string{
	OPTIONS: "OPTIONS",
	GET:     "GET",
	HEAD:    "HEAD",
	PUT:     "PUT",
	POST:    "POST",
	DELETE:  "DELETE",
	PATCH:   "PATCH",
}

// AllMethods returns every supported method in declaration order
func AllMethods() []Method {
	return []Method{OPTIONS, GET, HEAD, PUT, POST, DELETE, PATCH}
}

// MethodNames returns the canonical names of every supported method
func MethodNames() []string {
	all := AllMethods()
	names := make([]string, 0, len(all))
	for _, m := range all {
		names = append(names, methodNames[m])
	}
	return names
}

// String returns the canonical upper-case method name
func (m Method) String() string {
	if m < OPTIONS || m > PATCH {
		return fmt.Sprintf("Method(%d)", int(m))
	}
	return methodNames[m]
}

// ParseMethod normalizes a raw method name. Matching is case-insensitive
// and ignores surrounding whitespace.
func ParseMethod(raw string) (Method, error) {
	name := strings.ToUpper(strings.TrimSpace(raw))
	for _, m := range AllMethods() {
		if methodNames[m] == name {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown HTTP method %q (supported: %s)", raw, strings.Join(MethodNames(), ", "))
}

// ParseMethods normalizes a list of raw method names. An empty list is
// rejected: a route with no methods has nothing to require a key on.
func ParseMethods(raw []string) ([]Method, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("at least one HTTP method is required")
	}

	methods := make([]Method, 0, len(raw))
	for _, r := range raw {
		m, err := ParseMethod(r)
		if err != nil {
			return nil, err
		}
		methods = append(methods, m)
	}
	return methods, nil
}
