// Package reqctx carries request-scoped values through context.Context.
//
// HTTP middleware sets a *RequestMeta on every request and AuthClaims on
// authenticated ones. Services and the log handler read them back:
//
//	rid := reqctx.RequestIDFromContext(ctx)
//	patientID, ok := reqctx.SubjectFromContext(ctx)
//
// Trace and span ids come from the active OpenTelemetry span.
package reqctx
