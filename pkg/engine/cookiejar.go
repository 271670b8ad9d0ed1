package engine

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
)

// jarCookie is the jar's internal storage shape: a parsed cookie plus the
// domain/path scope it was installed under.
type jarCookie struct {
	name, value string
	domain      string // normalized, no leading dot
	hostOnly    bool   // true if domain was not declared (exact-host match only)
	path        string
	expires     time.Time // zero means session cookie (never expires by wall clock)
	secure      bool
}

// CookieJar holds cookies indexed for domain/path matching and produces the
// applicable subset for a given URL. It is fed by response-derived cookies
// via the Client's on_new_cookies observer, and consulted on every
// outbound request unless suppressed.
//
// For a given URL the jar yields at most one cookie per cookie name
// (latest write wins), consistent with standard cookie scoping rules.
type CookieJar struct {
	mu      sync.RWMutex
	byName  map[string]*jarCookie // name -> most recent matching entry across all scopes
	entries []*jarCookie          // insertion order, for full enumeration
}

// NewCookieJar constructs an empty jar.
func NewCookieJar() *CookieJar {
	return &CookieJar{byName: make(map[string]*jarCookie)}
}

// Update accepts cookies in any of the recognized shapes — individual
// *http.Cookie values, a name->value map (scoped to "/" on no host, i.e.
// applies everywhere), or raw Set-Cookie header strings — normalizes and
// installs them. Later entries with the same (name, domain, path) replace
// earlier ones. Malformed Set-Cookie strings are skipped; Update never
// fails the caller and never raises a parse error.
func (j *CookieJar) Update(sources any) {
	switch v := sources.(type) {
	case []*http.Cookie:
		for _, c := range v {
			j.install(c, "")
		}
	case *http.Cookie:
		j.install(v, "")
	case map[string]string:
		for name, value := range v {
			j.install(&http.Cookie{Name: name, Value: value, Path: "/"}, "")
		}
	case []string:
		for _, raw := range v {
			j.updateFromHeader(raw)
		}
	case string:
		j.updateFromHeader(v)
	}
}

// updateFromHeader parses a single raw Set-Cookie header value. Parse
// failures are swallowed silently: the jar's contract never raises
// CookieParse faults to callers.
func (j *CookieJar) updateFromHeader(raw string) {
	header := http.Header{}
	header.Add("Set-Cookie", raw)
	resp := http.Response{Header: header}
	cookies := resp.Cookies()
	for _, c := range cookies {
		j.install(c, "")
	}
}

// UpdateFromResponse merges every Set-Cookie header on resp into the jar,
// scoping cookies without an explicit Domain attribute to reqURL's host.
func (j *CookieJar) UpdateFromResponse(reqURL string, header http.Header) {
	u, err := url.Parse(reqURL)
	if err != nil {
		return
	}
	header2 := http.Header{"Set-Cookie": header.Values("Set-Cookie")}
	resp := http.Response{Header: header2}
	for _, c := range resp.Cookies() {
		j.install(c, u.Hostname())
	}
}

func (j *CookieJar) install(c *http.Cookie, defaultHost string) {
	if c == nil || c.Name == "" {
		return
	}
	domain := strings.ToLower(c.Domain)
	hostOnly := domain == ""
	if hostOnly {
		domain = strings.ToLower(defaultHost)
	} else {
		domain = strings.TrimPrefix(domain, ".")
	}
	path := c.Path
	if path == "" {
		path = "/"
	}

	entry := &jarCookie{
		name:     c.Name,
		value:    c.Value,
		domain:   domain,
		hostOnly: hostOnly,
		path:     path,
		secure:   c.Secure,
	}
	if c.MaxAge < 0 || (!c.Expires.IsZero() && c.Expires.Before(time.Now())) {
		// Explicit deletion request: remove any matching entry and stop.
		j.remove(entry.name, entry.domain, entry.path)
		return
	}
	if !c.Expires.IsZero() {
		entry.expires = c.Expires
	} else if c.MaxAge > 0 {
		entry.expires = time.Now().Add(time.Duration(c.MaxAge) * time.Second)
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	j.replaceLocked(entry)
}

func (j *CookieJar) replaceLocked(entry *jarCookie) {
	for i, e := range j.entries {
		if e.name == entry.name && e.domain == entry.domain && e.path == entry.path {
			j.entries[i] = entry
			j.byName[entry.name] = entry
			return
		}
	}
	j.entries = append(j.entries, entry)
	j.byName[entry.name] = entry
}

func (j *CookieJar) remove(name, domain, path string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for i, e := range j.entries {
		if e.name == name && e.domain == domain && e.path == path {
			j.entries = append(j.entries[:i], j.entries[i+1:]...)
			break
		}
	}
	if cur, ok := j.byName[name]; ok && cur.domain == domain && cur.path == path {
		delete(j.byName, name)
	}
}

// ForURL returns a map name->value of the cookies applicable to u: not
// expired, domain-matching (exact host match for host-only cookies,
// suffix match respecting the public-suffix boundary otherwise), and
// path-matching. At most one cookie per name is returned (latest write
// among the matching entries).
func (j *CookieJar) ForURL(rawURL string) map[string]string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return map[string]string{}
	}
	host := strings.ToLower(u.Hostname())
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	secureReq := u.Scheme == "https"
	now := time.Now()

	j.mu.RLock()
	defer j.mu.RUnlock()

	out := make(map[string]string)
	for _, e := range j.entries {
		if !e.expires.IsZero() && e.expires.Before(now) {
			continue
		}
		if e.secure && !secureReq {
			continue
		}
		if !domainMatch(host, e.domain, e.hostOnly) {
			continue
		}
		if !pathMatch(path, e.path) {
			continue
		}
		out[e.name] = e.value
	}
	return out
}

// domainMatch mirrors the algorithm net/http/cookiejar documents: host-only
// cookies require an exact match; domain cookies match the host itself or
// any subdomain, but never cross a public-suffix boundary. A cookie
// installed with no host at all (cookieDomain == "", e.g. via
// Update(map[string]string)) is scoped globally, per Update's documented
// "applies everywhere" contract.
func domainMatch(host, cookieDomain string, hostOnly bool) bool {
	if cookieDomain == "" {
		return true
	}
	if hostOnly {
		return host == cookieDomain
	}
	if host == cookieDomain {
		return true
	}
	if !strings.HasSuffix(host, "."+cookieDomain) {
		return false
	}
	suffix, _ := publicsuffix.PublicSuffix(cookieDomain)
	return cookieDomain != suffix
}

// pathMatch implements RFC 6265 §5.1.4 path matching.
func pathMatch(requestPath, cookiePath string) bool {
	if requestPath == cookiePath {
		return true
	}
	if strings.HasPrefix(requestPath, cookiePath) {
		if strings.HasSuffix(cookiePath, "/") {
			return true
		}
		if len(requestPath) > len(cookiePath) && requestPath[len(cookiePath)] == '/' {
			return true
		}
	}
	return false
}

// Cookies returns every cookie currently in the jar, regardless of scope or
// expiry. A host-only entry is emitted with Domain == "", the same
// convention *http.Cookie itself uses for "no Domain attribute was set" —
// its scope lived only in the request host it was learned from, which
// Domain alone can't represent once re-applied via Update.
func (j *CookieJar) Cookies() []*http.Cookie {
	j.mu.RLock()
	defer j.mu.RUnlock()
	out := make([]*http.Cookie, 0, len(j.entries))
	for _, e := range j.entries {
		domain := e.domain
		if e.hostOnly {
			domain = ""
		}
		out = append(out, &http.Cookie{
			Name: e.name, Value: e.value, Domain: domain,
			Path: e.path, Expires: e.expires, Secure: e.secure,
		})
	}
	return out
}

// Clear removes every cookie from the jar.
func (j *CookieJar) Clear() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = nil
	j.byName = make(map[string]*jarCookie)
}

// persistedCookie is the on-disk shape for CookieJar.Save/Load, grounded on
// pkg/falsepositive.Database's MarshalIndent-then-WriteFile pattern.
type persistedCookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Domain   string    `json:"domain"`
	HostOnly bool      `json:"host_only"`
	Path     string    `json:"path"`
	Expires  time.Time `json:"expires,omitempty"`
	Secure   bool      `json:"secure"`
}

// Save writes the jar's contents to path as indented JSON.
func (j *CookieJar) Save(path string) error {
	j.mu.RLock()
	out := make([]persistedCookie, 0, len(j.entries))
	for _, e := range j.entries {
		out = append(out, persistedCookie{
			Name: e.name, Value: e.value, Domain: e.domain, HostOnly: e.hostOnly,
			Path: e.path, Expires: e.expires, Secure: e.secure,
		})
	}
	j.mu.RUnlock()

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("engine: marshal cookie jar: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Load replaces the jar's contents with what was previously written by
// Save. A missing file is not an error — a fresh Client with a configured
// CookieJarPath that hasn't saved yet should start with an empty jar.
func (j *CookieJar) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("engine: read cookie jar: %w", err)
	}

	var in []persistedCookie
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("engine: unmarshal cookie jar: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = nil
	j.byName = make(map[string]*jarCookie)
	for _, pc := range in {
		entry := &jarCookie{
			name: pc.Name, value: pc.Value, domain: pc.Domain, hostOnly: pc.HostOnly,
			path: pc.Path, expires: pc.Expires, secure: pc.Secure,
		}
		j.replaceLocked(entry)
	}
	return nil
}

// DeepClone returns an independent copy of the jar: mutating the clone
// never affects the original, and vice versa. Used by Client.Sandbox to
// snapshot/restore cookie state around a block.
func (j *CookieJar) DeepClone() *CookieJar {
	j.mu.RLock()
	defer j.mu.RUnlock()
	clone := NewCookieJar()
	for _, e := range j.entries {
		copied := *e
		clone.entries = append(clone.entries, &copied)
		clone.byName[copied.name] = &copied
	}
	return clone
}

// replaceAllFrom overwrites j's contents with an independent copy of
// other's, preserving every jarCookie field exactly, including hostOnly.
// Unlike routing a restore through Cookies()/Update(), which only exposes
// Domain on *http.Cookie, this can't silently turn a host-only cookie into
// a domain-scoped one. Used by Client.Sandbox to restore the jar it
// snapshotted with DeepClone.
func (j *CookieJar) replaceAllFrom(other *CookieJar) {
	other.mu.RLock()
	entries := make([]*jarCookie, 0, len(other.entries))
	for _, e := range other.entries {
		copied := *e
		entries = append(entries, &copied)
	}
	other.mu.RUnlock()

	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = entries
	j.byName = make(map[string]*jarCookie, len(entries))
	for _, e := range entries {
		j.byName[e.name] = e
	}
}
