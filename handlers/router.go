package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"sim-mahasiswa-server-go/service"
	"sim-mahasiswa-server-go/web"
)

// RouterConfig carries the web settings that do not live in the store
type RouterConfig struct {
	SessionName string
	RememberFor time.Duration
	CohortYears []int
}

// NewRouter builds the gin engine. The service must be loaded first so the
// cookie config is known.
func NewRouter(svc *service.StudentService, cfg RouterConfig) (*gin.Engine, error) {
	tmpl, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	cookieCfg := svc.CookieConfig()
	if cookieCfg.Name == cfg.SessionName {
		return nil, fmt.Errorf("session cookie and remember-me cookie are both named %q", cfg.SessionName)
	}
	if err := registerValidators(cfg.CohortYears); err != nil {
		return nil, err
	}

	hashKey, blockKey := CookieKeys(cookieCfg)
	store := cookie.NewStore(hashKey, blockKey)
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	h := NewPageHandler(svc, cfg.SessionName, cfg.RememberFor, cfg.CohortYears)

	router := gin.Default()
	router.SetHTMLTemplate(tmpl)
	router.GET("/ping", h.Ping)

	pages := router.Group("/")
	pages.Use(sessions.SessionsMany([]string{cfg.SessionName, cookieCfg.Name}, store), h.RestoreRemembered())
	{
		pages.GET("/", h.Home)
		pages.GET("/login", h.SwitchPage(PageLogin))
		pages.GET("/register", h.SwitchPage(PageRegister))
		pages.POST("/login", h.Login)
		pages.POST("/register", h.Register)
		pages.POST("/logout", h.Logout)
		pages.GET("/admin/export", h.Export)
	}
	return router, nil
}
