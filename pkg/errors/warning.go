package errors

import (
	"fmt"
	"strings"
)

// Warning codes for non-fatal problems.
const (
	WarnUnsupportedNodeType  Code = "UNSUPPORTED_NODE_TYPE"
	WarnAttributeRejected    Code = "ATTRIBUTE_REJECTED"
	WarnSocketRejected       Code = "SOCKET_REJECTED"
	WarnReferenceUnresolved  Code = "REFERENCE_UNRESOLVED"
	WarnDependencyLoadFailed Code = "DEPENDENCY_LOAD_FAILED"
	WarnNameConflict         Code = "NAME_CONFLICT"
)

// Warning describes a problem that was contained rather than raised.
// Group, Node and Key narrow the location; any of them may be empty.
type Warning struct {
	Code    Code   `json:"code"`
	Group   string `json:"group,omitempty"`
	Node    string `json:"node,omitempty"`
	Key     string `json:"key,omitempty"`
	Message string `json:"message"`
}

// String renders the warning as "group/node.key: message".
func (w Warning) String() string {
	var loc strings.Builder
	loc.WriteString(w.Group)
	if w.Node != "" {
		if loc.Len() > 0 {
			loc.WriteByte('/')
		}
		loc.WriteString(w.Node)
	}
	if w.Key != "" {
		loc.WriteByte('.')
		loc.WriteString(w.Key)
	}
	if loc.Len() == 0 {
		return w.Message
	}
	return loc.String() + ": " + w.Message
}

// Report accumulates warnings across the stages of a single call.
// The zero value is ready to use.
type Report struct {
	warnings []Warning
}

// Add appends a warning with a formatted message.
func (r *Report) Add(code Code, group, node, key, format string, args ...any) {
	r.warnings = append(r.warnings, Warning{
		Code:    code,
		Group:   group,
		Node:    node,
		Key:     key,
		Message: fmt.Sprintf(format, args...),
	})
}

// Append copies already-built warnings into the report.
func (r *Report) Append(ws ...Warning) {
	r.warnings = append(r.warnings, ws...)
}

// Warnings returns the accumulated warnings in the order they were added.
func (r *Report) Warnings() []Warning {
	if r == nil {
		return nil
	}
	return r.warnings
}

// Len returns the number of accumulated warnings.
func (r *Report) Len() int {
	if r == nil {
		return 0
	}
	return len(r.warnings)
}

// Count returns how many warnings carry the given code.
func (r *Report) Count(code Code) int {
	n := 0
	for _, w := range r.Warnings() {
		if w.Code == code {
			n++
		}
	}
	return n
}
