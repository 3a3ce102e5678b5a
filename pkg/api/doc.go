// Package api serves document inspection, validation and rendering over
// HTTP.
//
// Routes:
//
//	GET  /healthz
//	POST /v1/inspect                       document summary
//	POST /v1/validate                      restore into a scratch library
//	POST /v1/render?group=&format=&detailed=  DOT, SVG, PDF or PNG
//
// Request bodies are encoded documents, limited to [MaxBodyBytes]. Errors
// are JSON objects carrying the structured error code:
//
//	{"error": {"code": "GROUP_NOT_FOUND", "message": "..."}}
//
// Dependencies are never loaded from the server's filesystem; validation
// reports them as failed loads.
package api
