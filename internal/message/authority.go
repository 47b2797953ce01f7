package message

import "golang.org/x/net/idna"

// NormalizeAuthority converts an internationalized Host/:authority
// value to its ASCII (punycode) form per RFC 3986 §3.2.2's "host"
// production, so downstream comparisons (virtual-host matching, log
// fields) never have to deal with two representations of the same
// name. Non-IDN hosts pass through unchanged; a malformed label
// returns the original string and false rather than failing the whole
// request, since host validation at this layer is advisory — final
// rejection is the routing collaborator's job, which is out of scope
// here.
func NormalizeAuthority(host string) (string, bool) {
	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return host, false
	}
	return ascii, true
}
