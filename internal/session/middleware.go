package session

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"investchat/internal/service/chat"
)

const (
	CookieName        = "investchat_session"
	sessionContextKey = "chat_session"
)

// Middleware attaches the cookie session to the request, starting a new one
// when the cookie is absent or the session has expired.
func (s *Store) Middleware(secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := c.Cookie(CookieName)
		sess, created := s.GetOrCreate(id)
		if created {
			setCookie(c, CookieName, sess.ID, secure, true)
		}
		c.Set(sessionContextKey, sess)
		c.Next()
	}
}

// RequirePathSession resolves the :session_id path parameter of JSON routes.
func (s *Store) RequirePathSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := s.Get(c.Param("session_id"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.Set(sessionContextKey, sess)
		c.Next()
	}
}

// FromContext retrieves the session bound by one of the middlewares.
func FromContext(c *gin.Context) (*chat.Session, bool) {
	val, ok := c.Get(sessionContextKey)
	if !ok {
		return nil, false
	}
	sess, ok := val.(*chat.Session)
	return sess, ok
}

// ClearCookie expires the session cookie.
func ClearCookie(c *gin.Context, secure bool) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		MaxAge:   -1,
		Path:     "/",
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func setCookie(c *gin.Context, name, value string, secure, httpOnly bool) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Secure:   secure,
		HttpOnly: httpOnly,
		SameSite: http.SameSiteLaxMode,
	})
}
