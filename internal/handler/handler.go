// Package handler defines the Handler/Middleware contract the
// transport packages (h1, h2, upgrade) dispatch into, and a minimal
// default handler serving the two built-in welcome pages.
//
// Grounded on the teacher's http.Handler/ServeHTTP dispatch shape
// (server.go's sc.handler.ServeHTTP(rw, req)), adapted from
// net/http's interface-with-ResponseWriter style to this module's
// value-returning message.Request/message.Response model, which
// suits a protocol-agnostic handler shared by both HTTP/1.1 and
// HTTP/2 front ends.
package handler

import (
	"github.com/usadson/servente/internal/message"
)

// Handler answers one request. Implementations must be safe for
// concurrent use: both the h1 and h2 engines may invoke a Handler from
// several goroutines for different in-flight requests at once.
type Handler func(req *message.Request) *message.Response

// Middleware wraps a Handler to add cross-cutting behavior (logging,
// compression, conditional-request short-circuiting). It has no error
// result: a wrapped Handler can only return a Response, and the
// transports answer a nil Response with 500.
type Middleware func(Handler) Handler

// Chain composes middlewares around base, applied outermost-first:
// Chain(base, a, b)(req) runs a(b(base))(req).
func Chain(base Handler, mws ...Middleware) Handler {
	h := base
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

const welcomeEnglish = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>servente</title></head>
<body>
<h1>It works!</h1>
<p>This is the default page served by servente because no site-specific
handler matched this request.</p>
</body>
</html>
`

const welcomeDutch = `<!DOCTYPE html>
<html lang="nl">
<head><meta charset="utf-8"><title>servente</title></head>
<body>
<h1>Het werkt!</h1>
<p>Dit is de standaardpagina van servente, omdat er geen
site-specifieke afhandelaar overeenkwam met dit verzoek.</p>
</body>
</html>
`

// NotFound returns the canned 404 response the default handler sends
// when no route matches. Request routing and the handler registry are
// out of scope for this module (they belong to the collaborator that
// wraps a Handler in front of a file cache); this exists only so the
// transport packages have something runnable to dispatch into during
// development and in tests.
func NotFound(req *message.Request) *message.Response {
	resp := message.WithStatus(message.StatusNotFound)
	resp.Version = req.Version
	resp.Headers.Append(message.NewHeaderName(message.HeaderContentType), message.MediaTypeValue(message.MediaType{Type: "text", Subtype: "plain", Charset: "utf-8"}))
	resp.Body = message.StringBody("404 Not Found\n")
	return resp
}

// Welcome serves the built-in welcome page, choosing Dutch when the
// request's Accept-Language prefers it and English otherwise.
func Welcome(req *message.Request) *message.Response {
	page := welcomeEnglish
	if al, ok := req.Headers.GetFirst(message.NewHeaderName(message.HeaderAcceptLanguage)); ok {
		if prefersDutch(al.Serialize()) {
			page = welcomeDutch
		}
	}
	resp := message.WithStatus(message.StatusOK)
	resp.Version = req.Version
	resp.Headers.Append(message.NewHeaderName(message.HeaderContentType), message.MediaTypeValue(message.MediaType{Type: "text", Subtype: "html", Charset: "utf-8"}))
	resp.Body = message.StringBody(page)
	return resp
}

// prefersDutch does a crude positional Accept-Language scan for "nl"
// appearing before "en"; q-values are ignored. Full language-range
// matching (RFC 9110 §12.5.4)
// is out of scope, this only distinguishes the two built-in pages.
func prefersDutch(acceptLanguage string) bool {
	nlPos, enPos := -1, -1
	for i := 0; i+1 < len(acceptLanguage); i++ {
		switch {
		case acceptLanguage[i] == 'n' && acceptLanguage[i+1] == 'l' && nlPos == -1:
			nlPos = i
		case acceptLanguage[i] == 'e' && acceptLanguage[i+1] == 'n' && enPos == -1:
			enPos = i
		}
	}
	return nlPos != -1 && (enPos == -1 || nlPos < enPos)
}
