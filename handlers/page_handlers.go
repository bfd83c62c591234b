package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"sim-mahasiswa-server-go/service"
)

const (
	msgBadLogin       = "Username atau Password salah!"
	msgUnknownProgram = "Prodi tidak ditemukan."
	msgServerError    = "Terjadi kesalahan pada server. Silakan coba lagi."
)

// PageHandler serves the login, registration, student and admin pages
type PageHandler struct {
	Service *service.StudentService

	sessionName  string
	rememberName string
	rememberFor  time.Duration
	years        []int
}

// NewPageHandler creates a PageHandler. The remember-me cookie name comes
// from the service's loaded cookie config.
func NewPageHandler(svc *service.StudentService, sessionName string, rememberFor time.Duration, years []int) *PageHandler {
	return &PageHandler{
		Service:      svc,
		sessionName:  sessionName,
		rememberName: svc.CookieConfig().Name,
		rememberFor:  rememberFor,
		years:        years,
	}
}

func (h *PageHandler) session(c *gin.Context) sessions.Session {
	return sessions.DefaultMany(c, h.sessionName)
}

func (h *PageHandler) remember(c *gin.Context) sessions.Session {
	return sessions.DefaultMany(c, h.rememberName)
}

// Home handles GET /
func (h *PageHandler) Home(c *gin.Context) {
	session := h.session(c)
	state := readState(session)

	switch Route(state) {
	case ViewAdmin:
		h.renderAdmin(c)
	case ViewStudent:
		p, ok := h.Service.Restore(state.Username)
		if !ok || p.Student == nil {
			// session outlived the record it points at
			expire(session)
			if err := session.Save(); err != nil {
				log.Printf("Error clearing stale session: %v", err)
			}
			h.renderLogin(c, http.StatusOK, gin.H{})
			return
		}
		c.HTML(http.StatusOK, "student.html", gin.H{
			"title":    "Data Mahasiswa",
			"loggedIn": true,
			"student":  p.Student,
		})
	case ViewRegister:
		h.renderRegister(c, http.StatusOK, gin.H{})
	default:
		h.renderLogin(c, http.StatusOK, gin.H{})
	}
}

// SwitchPage handles GET /login and GET /register for anonymous sessions
func (h *PageHandler) SwitchPage(page string) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := h.session(c)
		if !readState(session).LoggedIn {
			session.Set(keyPage, page)
			if err := session.Save(); err != nil {
				log.Printf("Error saving session: %v", err)
			}
		}
		c.Redirect(http.StatusSeeOther, "/")
	}
}

// Login handles POST /login
func (h *PageHandler) Login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		h.renderLogin(c, http.StatusOK, gin.H{"error": msgBadLogin, "username": form.Username})
		return
	}

	p, err := h.Service.Authenticate(form.Username, form.Password)
	if err != nil {
		log.Printf("Failed login for %s", form.Username)
		h.renderLogin(c, http.StatusOK, gin.H{"error": msgBadLogin, "username": form.Username})
		return
	}

	session := h.session(c)
	signIn(session, p)
	if err := session.Save(); err != nil {
		log.Printf("Error saving session for %s: %v", p.Username, err)
		h.renderLogin(c, http.StatusInternalServerError, gin.H{"error": msgServerError})
		return
	}

	if form.RememberMe != "" {
		remember := h.remember(c)
		remember.Set(keyUsername, p.Username)
		remember.Options(sessions.Options{
			Path:     "/",
			MaxAge:   int(h.rememberFor.Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		if err := remember.Save(); err != nil {
			log.Printf("Error saving remember-me cookie for %s: %v", p.Username, err)
		}
	}

	log.Printf("User %s logged in as %s", p.Username, p.Role)
	c.Redirect(http.StatusSeeOther, "/")
}

// Register handles POST /register
func (h *PageHandler) Register(c *gin.Context) {
	var form registerForm
	if err := c.ShouldBind(&form); err != nil {
		h.renderRegister(c, http.StatusOK, gin.H{"error": formError(err), "nama": form.Nama, "prodi": form.Prodi})
		return
	}

	st, err := h.Service.Register(c.Request.Context(), service.Registration{
		Name:     form.Nama,
		Program:  form.Prodi,
		Year:     form.Angkatan,
		Password: form.Password,
	})
	if err != nil {
		msg := msgServerError
		switch {
		case errors.Is(err, service.ErrUnknownProgram):
			msg = msgUnknownProgram
		case errors.Is(err, service.ErrInvalidName):
			msg = "Nama harus mengandung huruf."
		case errors.Is(err, service.ErrInvalidYear):
			msg = "Angkatan tidak valid."
		default:
			log.Printf("Error registering %s in %s/%d: %v", form.Nama, form.Prodi, form.Angkatan, err)
		}
		h.renderRegister(c, http.StatusOK, gin.H{"error": msg, "nama": form.Nama, "prodi": form.Prodi})
		return
	}

	session := h.session(c)
	session.Set(keyPage, PageLogin)
	if err := session.Save(); err != nil {
		log.Printf("Error saving session: %v", err)
	}
	h.renderLogin(c, http.StatusOK, gin.H{
		"success":  fmt.Sprintf("Registrasi berhasil! NIM Anda adalah %s. Silakan login.", st.ID),
		"username": st.ID,
	})
}

// Logout handles POST /logout
func (h *PageHandler) Logout(c *gin.Context) {
	session := h.session(c)
	username := readState(session).Username
	expire(session)
	if err := session.Save(); err != nil {
		log.Printf("Error clearing session: %v", err)
	}

	remember := h.remember(c)
	expire(remember)
	if err := remember.Save(); err != nil {
		log.Printf("Error clearing remember-me cookie: %v", err)
	}

	if username != "" {
		log.Printf("User %s logged out", username)
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *PageHandler) renderLogin(c *gin.Context, status int, data gin.H) {
	data["title"] = "Login"
	c.HTML(status, "login.html", data)
}

func (h *PageHandler) renderRegister(c *gin.Context, status int, data gin.H) {
	data["title"] = "Registrasi Mahasiswa"
	data["programs"] = h.Service.ProgramNames()
	data["years"] = h.years
	if _, ok := data["prodi"]; !ok {
		data["prodi"] = ""
	}
	c.HTML(status, "register.html", data)
}

func (h *PageHandler) renderAdmin(c *gin.Context) {
	c.HTML(http.StatusOK, "admin.html", gin.H{
		"title":    "Dashboard Admin",
		"loggedIn": true,
		"email":    h.Service.AdminEmail(),
		"programs": h.Service.Listing(),
	})
}
