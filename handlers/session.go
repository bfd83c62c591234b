package handlers

import (
	"log"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"sim-mahasiswa-server-go/models"
	"sim-mahasiswa-server-go/service"
)

// Session keys
const (
	keyLoggedIn = "logged_in"
	keyRole     = "role"
	keyPage     = "page"
	keyUsername = "username"
)

// Anonymous sub-pages
const (
	PageLogin    = "login"
	PageRegister = "register"
)

// View is the page rendered for a session
type View string

const (
	ViewLogin    View = "login"
	ViewRegister View = "register"
	ViewStudent  View = "student"
	ViewAdmin    View = "admin"
)

// SessionState is the per-user state carried in the session cookie
type SessionState struct {
	LoggedIn bool
	Role     models.Role
	Page     string
	Username string
}

// Route picks the view for a session. Anonymous sessions see the login
// page unless they switched to registration.
func Route(state SessionState) View {
	if state.LoggedIn {
		if state.Role == models.RoleAdmin {
			return ViewAdmin
		}
		return ViewStudent
	}
	if state.Page == PageRegister {
		return ViewRegister
	}
	return ViewLogin
}

func readState(session sessions.Session) SessionState {
	state := SessionState{}
	state.LoggedIn, _ = session.Get(keyLoggedIn).(bool)
	if role, ok := session.Get(keyRole).(string); ok {
		state.Role = models.Role(role)
	}
	state.Page, _ = session.Get(keyPage).(string)
	state.Username, _ = session.Get(keyUsername).(string)
	return state
}

func signIn(session sessions.Session, p service.Principal) {
	session.Set(keyLoggedIn, true)
	session.Set(keyRole, string(p.Role))
	session.Set(keyUsername, p.Username)
	session.Delete(keyPage)
}

// expire clears a session and tells the browser to drop its cookie
func expire(session sessions.Session) {
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
}

// RestoreRemembered signs an anonymous session back in from the
// remember-me cookie. A username that no longer resolves drops the cookie.
func (h *PageHandler) RestoreRemembered() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.DefaultMany(c, h.sessionName)
		if readState(session).LoggedIn {
			c.Next()
			return
		}

		remember := sessions.DefaultMany(c, h.rememberName)
		username, _ := remember.Get(keyUsername).(string)
		if username == "" {
			c.Next()
			return
		}

		if p, ok := h.Service.Restore(username); ok {
			signIn(session, p)
			if err := session.Save(); err != nil {
				log.Printf("Error saving restored session for %s: %v", username, err)
			} else {
				log.Printf("Restored session for %s from remember-me cookie", p.Username)
			}
		} else {
			log.Printf("Dropping remember-me cookie for unknown user %s", username)
			expire(remember)
			if err := remember.Save(); err != nil {
				log.Printf("Error dropping remember-me cookie: %v", err)
			}
		}
		c.Next()
	}
}
