// Package fingerprint derives the coarse network identity used to spot
// consecutive submissions from the same source.
//
// Two addresses that share their last three octets map to the same
// fingerprint. It is an anti-spam signal, not a security boundary.
package fingerprint

import (
	"net/http"
	"net/netip"
	"strconv"
	"strings"
)

const (
	// Fallback is returned when the source address is not IPv4.
	Fallback = "0.0.0"

	headerConnectingIP = "CF-Connecting-IP"
	headerForwardedFor = "X-Forwarded-For"
	placeholderAddress = "0.0.0.0"
)

// FromRequest returns the fingerprint for the client behind r.
func FromRequest(r *http.Request) string {
	return FromAddress(ClientAddress(r))
}

// ClientAddress picks the edge-reported client address, then the first
// X-Forwarded-For hop, then the all-zero placeholder.
func ClientAddress(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get(headerConnectingIP)); ip != "" {
		return ip
	}
	if fwd := r.Header.Get(headerForwardedFor); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	return placeholderAddress
}

// FromAddress drops the first octet of an IPv4 address and joins the
// remaining three. Anything that is not IPv4 yields Fallback.
func FromAddress(addr string) string {
	ip, err := netip.ParseAddr(addr)
	if err != nil {
		return Fallback
	}
	ip = ip.Unmap()
	if !ip.Is4() {
		return Fallback
	}

	o := ip.As4()
	return strconv.Itoa(int(o[1])) + "." + strconv.Itoa(int(o[2])) + "." + strconv.Itoa(int(o[3]))
}
