// Package hostmatch classifies hostnames for the network-policy
// engine: first versus third party, and known tracker hosts.
//
// SiteKey is a heuristic eTLD+1 approximation (last two labels), not a
// public-suffix-list lookup. Multi-part suffixes such as co.uk are
// misclassified; this matches the shipped behavior and keeps the
// matcher dependency-free.
package hostmatch

import (
	"net"
	"net/url"
	"strings"
)

// trackerHosts is the fixed deny-list of domains presumed to perform
// cross-site tracking. Matching covers the domain itself and any
// dot-subdomain of it.
var trackerHosts = []string{
	"doubleclick.net",
	"googlesyndication.com",
	"googleadservices.com",
	"googletagmanager.com",
	"google-analytics.com",
	"adservice.google.com",
	"facebook.net",
	"connect.facebook.net",
	"ads-twitter.com",
	"static.ads-twitter.com",
	"amazon-adsystem.com",
	"scorecardresearch.com",
	"quantserve.com",
	"outbrain.com",
	"taboola.com",
	"criteo.com",
	"adnxs.com",
	"rubiconproject.com",
	"pubmatic.com",
	"openx.net",
	"moatads.com",
	"hotjar.com",
	"mouseflow.com",
	"fullstory.com",
	"branch.io",
	"segment.io",
	"mixpanel.com",
	"amplitude.com",
	"bluekai.com",
	"krxd.net",
}

// SiteKey returns a registrable-domain-ish key for a hostname.
// Loopback hosts and literal IPv4 addresses map to themselves, as do
// hostnames with at most two labels; anything else maps to its last
// two dot-separated labels.
func SiteKey(hostname string) string {
	host := strings.ToLower(strings.TrimSuffix(hostname, "."))
	if host == "" {
		return ""
	}
	if IsLoopbackHost(host) || net.ParseIP(host) != nil {
		return host
	}

	labels := strings.Split(host, ".")
	if len(labels) <= 2 {
		return host
	}
	return strings.Join(labels[len(labels)-2:], ".")
}

// IsThirdParty reports whether requestURL and initiatorURL belong to
// different sites. When either URL fails to parse the answer is false:
// the policy fails open rather than blocking on uncertainty.
func IsThirdParty(requestURL, initiatorURL string) bool {
	reqHost := hostOf(requestURL)
	initHost := hostOf(initiatorURL)
	if reqHost == "" || initHost == "" {
		return false
	}
	return SiteKey(reqHost) != SiteKey(initHost)
}

// MatchesTrackerHost reports whether hostname equals, or is a
// dot-subdomain of, an entry in the tracker list.
func MatchesTrackerHost(hostname string) bool {
	host := strings.ToLower(strings.TrimSuffix(hostname, "."))
	if host == "" {
		return false
	}
	for _, tracker := range trackerHosts {
		if host == tracker || strings.HasSuffix(host, "."+tracker) {
			return true
		}
	}
	return false
}

// IsLoopbackHost reports whether host names the local machine:
// localhost, *.localhost, or a loopback IP literal.
func IsLoopbackHost(host string) bool {
	h := strings.ToLower(host)
	if h == "localhost" || strings.HasSuffix(h, ".localhost") {
		return true
	}
	if ip := net.ParseIP(h); ip != nil {
		return ip.IsLoopback()
	}
	return false
}

// IsUpgradeExempt reports whether an http URL's host is exempt from
// the HTTPS upgrade: loopback, *.localhost, or any literal IPv4.
func IsUpgradeExempt(host string) bool {
	if IsLoopbackHost(host) {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.To4() != nil
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	return u.Hostname()
}
