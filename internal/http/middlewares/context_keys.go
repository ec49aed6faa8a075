package middlewares

const (
	CtxRequestID = "request_id"
	ctxIdentity  = "auth.identity"
	// ctxStack holds a recovered panic's stack for the error mapper.
	ctxStack = "error.stack"
)
