package controllers

import (
	"fmt"
	"log"
	"math/rand"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"Stitchup/models"

	"github.com/gin-gonic/gin"
	"github.com/twinj/uuid"
	"gorm.io/gorm"
)

const voterCookieName = "stitchup_voter_id"

// Identity sources, tried in order. A network address is a deliberately weak
// pseudo-identity (everyone behind one NAT gateway shares it); that tradeoff
// is accepted, the fallback token only covers requests with no usable address.
const (
	identitySourceForwarded = "forwarded"
	identitySourceRealIP    = "real-ip"
	identitySourceRemote    = "remote-addr"
	identitySourceSession   = "session-token"
)

// resolveVoterIdentity derives the anonymous identity for this request. It
// never fails: when no network address can be resolved it degrades to a
// session token persisted in a cookie, so the same browser keeps the same
// identity for the rest of the session.
func resolveVoterIdentity(c *gin.Context, db *gorm.DB) string {
	identity, source := lookupClientAddress(c.Request)
	if identity == "" {
		identity = sessionFallbackToken(c)
		source = identitySourceSession
		log.Printf("voter identity degraded to session token for %s", c.Request.URL.Path)
	}

	if err := models.TouchAnonymousVoter(db, identity, source); err != nil {
		// Diagnostic record only; the vote itself must not fail here.
		log.Printf("touch anonymous voter: %v", err)
	}
	return identity
}

// lookupClientAddress tries each address source in order and returns the
// first parseable result.
func lookupClientAddress(r *http.Request) (string, string) {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if ip := net.ParseIP(first); ip != nil {
			return ip.String(), identitySourceForwarded
		}
	}

	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		if ip := net.ParseIP(realIP); ip != nil {
			return ip.String(), identitySourceRealIP
		}
	}

	if r.RemoteAddr != "" {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if ip := net.ParseIP(host); ip != nil {
			return ip.String(), identitySourceRemote
		}
	}

	return "", ""
}

// sessionFallbackToken reuses the cookie token when present, otherwise mints
// a fresh one from the current time plus random bits and sets a session
// cookie so repeated calls within this session resolve identically.
func sessionFallbackToken(c *gin.Context) string {
	if cookie, err := c.Cookie(voterCookieName); err == nil && isLikelyToken(cookie) {
		return cookie
	}

	token := fmt.Sprintf("anon-%x-%04x-%s", time.Now().UnixNano(), rand.Intn(0xffff), uuid.NewV4().String())
	setVoterCookie(c, token)
	return token
}

func setVoterCookie(c *gin.Context, token string) {
	secure := os.Getenv("APP_ENV") == "production"
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	// MaxAge 0: session cookie, the fallback identity does not outlive the
	// browser session.
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     voterCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: sameSite,
		Secure:   secure,
	})
}

func isLikelyToken(value string) bool {
	return len(strings.TrimSpace(value)) >= 32
}
