// Package fakeidp is a local stand-in for a Keycloak realm and the application behind it.
// It serves the login form with the same markup Keycloak uses, redirects back with code and
// session_state in the fragment and keeps a single sign-on cookie. It is a test double,
// nothing here is a real identity provider.
package fakeidp

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/didip/tollbooth/v8"
	"github.com/didip/tollbooth/v8/limiter"
	cache "github.com/go-pkgz/expirable-cache/v3"
	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater"
	"github.com/go-pkgz/repeater/strategy"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

//go:embed templates/*.html
var templatesFS embed.FS

// cookie names of the single sign-on session, as Keycloak sets them
const (
	identityCookie = "KEYCLOAK_IDENTITY"
	sessionCookie  = "KEYCLOAK_SESSION"
)

// InvalidCredentials is the message shown for any rejected login
const InvalidCredentials = "Invalid username or password."

// Config of the stand-in
type Config struct {
	Realm     string  // realm name, part of every identity provider path
	ClientID  string  // the only known client
	Username  string  // the only known user
	Password  string  // plain password, hashed on start
	IdPURL    string  // external url of the identity provider, i.e. http://127.0.0.1:8180
	AppURL    string  // external url of the application, i.e. http://localhost:3000
	LoginRate float64 // login posts per second per ip, 0 disables the limit
	Version   string
}

// Server serves the identity provider and the application handlers
type Server struct {
	cfg          Config
	passwordHash []byte
	templates    *template.Template
	tabs         cache.Cache[string, authRequest] // tab id -> pending authorization request
	sessions     cache.Cache[string, string]      // sso session id -> username
}

// authRequest is an authorization request waiting for credentials
type authRequest struct {
	ClientID     string
	RedirectURI  string
	State        string
	ResponseMode string
}

// New makes the stand-in. IdPURL and AppURL must be set and use different hosts,
// otherwise the browser can't tell the identity provider from the application.
func New(cfg Config) (*Server, error) {
	if cfg.Realm == "" {
		cfg.Realm = "dev"
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "app"
	}
	idp, err := url.Parse(cfg.IdPURL)
	if err != nil || idp.Host == "" {
		return nil, fmt.Errorf("invalid identity provider url %q", cfg.IdPURL)
	}
	app, err := url.Parse(cfg.AppURL)
	if err != nil || app.Host == "" {
		return nil, fmt.Errorf("invalid application url %q", cfg.AppURL)
	}
	if idp.Host == app.Host {
		return nil, fmt.Errorf("identity provider and application share host %s", idp.Host)
	}
	cfg.IdPURL, cfg.AppURL = strings.TrimSuffix(cfg.IdPURL, "/"), strings.TrimSuffix(cfg.AppURL, "/")

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Server{
		cfg:          cfg,
		passwordHash: hash,
		templates:    tmpl,
		tabs:         cache.NewCache[string, authRequest]().WithTTL(30 * time.Minute).WithMaxKeys(10000),
		sessions:     cache.NewCache[string, string]().WithTTL(10 * time.Hour).WithMaxKeys(10000),
	}, nil
}

// AuthURL makes authorization url of the configured client, landing back on the application
func (s *Server) AuthURL() string {
	q := url.Values{}
	q.Set("client_id", s.cfg.ClientID)
	q.Set("redirect_uri", s.cfg.AppURL+"/")
	q.Set("state", uuid.NewString())
	q.Set("response_mode", "fragment")
	q.Set("response_type", "code")
	q.Set("scope", "openid")
	return s.realmURL() + "/protocol/openid-connect/auth?" + q.Encode()
}

// LogoutURL is the end session endpoint
func (s *Server) LogoutURL() string {
	return s.realmURL() + "/protocol/openid-connect/logout"
}

// AppURL is the external url of the application
func (s *Server) AppURL() string { return s.cfg.AppURL }

// Run serves both handlers until ctx is canceled
func (s *Server) Run(ctx context.Context, idpAddress, appAddress string) error {
	servers := []*http.Server{
		{Addr: idpAddress, Handler: s.IdPHandler(), ReadHeaderTimeout: 5 * time.Second, WriteTimeout: 30 * time.Second,
			IdleTimeout: 30 * time.Second},
		{Addr: appAddress, Handler: s.AppHandler(), ReadHeaderTimeout: 5 * time.Second, WriteTimeout: 30 * time.Second,
			IdleTimeout: 30 * time.Second},
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Printf("[WARN] failed to shutdown %s: %v", srv.Addr, err)
			}
		}
	}()

	errCh := make(chan error, len(servers))
	for _, srv := range servers {
		go func() {
			log.Printf("[INFO] fake identity provider listens on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("server on %s failed: %w", srv.Addr, err)
				return
			}
			errCh <- nil
		}()
	}

	var res error
	for range servers {
		if err := <-errCh; err != nil && res == nil {
			res = err
			for _, srv := range servers {
				_ = srv.Close()
			}
		}
	}
	return res
}

// WaitReady polls /ping of every base url until it responds or timeout expires
func WaitReady(ctx context.Context, timeout time.Duration, urls ...string) error {
	const delay = 100 * time.Millisecond
	client := http.Client{Timeout: time.Second}
	for _, u := range urls {
		rptr := repeater.New(&strategy.FixedDelay{Repeats: max(int(timeout/delay), 1), Delay: delay})
		err := rptr.Do(ctx, func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(u, "/")+"/ping", http.NoBody)
			if err != nil {
				return err
			}
			resp, err := client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close() //nolint:errcheck // ping response
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("status %d", resp.StatusCode)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("%s not ready: %w", u, err)
		}
	}
	return nil
}

// IdPHandler serves the realm endpoints
func (s *Server) IdPHandler() http.Handler {
	router := routegroup.New(http.NewServeMux())
	s.useCommon(router)

	router.Mount("/realms/" + s.cfg.Realm).Route(func(realm *routegroup.Bundle) {
		realm.Use(rest.NoCache)
		realm.HandleFunc("GET /protocol/openid-connect/auth", s.handleAuth)
		realm.HandleFunc("GET /protocol/openid-connect/logout", s.handleLogout)
		if s.cfg.LoginRate > 0 {
			lmt := tollbooth.NewLimiter(s.cfg.LoginRate, &limiter.ExpirableOptions{DefaultExpirationTTL: time.Hour})
			lmt.SetIPLookup(limiter.IPLookup{Name: "RemoteAddr"})
			lmt.SetMessage("too many login attempts")
			realm.With(tollbooth.HTTPMiddleware(lmt)).HandleFunc("POST /login-actions/authenticate", s.handleAuthenticate)
			return
		}
		realm.HandleFunc("POST /login-actions/authenticate", s.handleAuthenticate)
	})
	return router
}

// AppHandler serves the application, a single page reading the code from the fragment
func (s *Server) AppHandler() http.Handler {
	router := routegroup.New(http.NewServeMux())
	s.useCommon(router)
	// every path is a client side route of the single page
	router.HandleFunc("GET /{path...}", s.handleApp)
	return router
}

func (s *Server) useCommon(router *routegroup.Bundle) {
	router.Use(rest.RealIP, rest.Recoverer(log.Default()), rest.AppInfo("fakeidp", "umputun", s.cfg.Version),
		rest.Ping, rest.SizeLimit(64*1024), logger.New(logger.Log(log.Default()), logger.Prefix("[DEBUG]")).Handler)
}

// handleAuth starts authorization. A valid sso cookie skips the form.
func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := authRequest{ClientID: q.Get("client_id"), RedirectURI: q.Get("redirect_uri"), State: q.Get("state"),
		ResponseMode: q.Get("response_mode")}
	if req.ClientID != s.cfg.ClientID {
		s.renderMessage(w, http.StatusBadRequest, "We are sorry...", "Client not found.")
		return
	}
	if req.RedirectURI == "" {
		req.RedirectURI = s.cfg.AppURL + "/"
	}
	if !strings.HasPrefix(req.RedirectURI, s.cfg.AppURL+"/") {
		s.renderMessage(w, http.StatusBadRequest, "We are sorry...", "Invalid parameter: redirect_uri")
		return
	}

	if sid, ok := s.ssoSession(r); ok {
		log.Printf("[DEBUG] sso session %s, skip login form", sid)
		http.Redirect(w, r, s.callbackURL(req, sid), http.StatusFound)
		return
	}

	tabID := uuid.NewString()
	s.tabs.Set(tabID, req, 0)
	s.renderLogin(w, tabID, "", "")
}

// handleAuthenticate checks credentials of the login form
func (s *Server) handleAuthenticate(w http.ResponseWriter, r *http.Request) {
	tabID := r.URL.Query().Get("tab_id")
	req, ok := s.tabs.Get(tabID)
	if !ok {
		s.renderMessage(w, http.StatusBadRequest, "Page has expired", "Your login attempt timed out. Login will start from the beginning.")
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	username, password := r.PostFormValue("username"), r.PostFormValue("password")
	if username == "" || password == "" || username != s.cfg.Username ||
		bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)) != nil {
		log.Printf("[INFO] rejected login of %q", username)
		s.renderLogin(w, tabID, username, InvalidCredentials)
		return
	}

	sid := uuid.NewString()
	s.sessions.Set(sid, username, 0)
	s.tabs.Invalidate(tabID)
	cookiePath := "/realms/" + s.cfg.Realm + "/"
	http.SetCookie(w, &http.Cookie{Name: identityCookie, Value: sid, Path: cookiePath, HttpOnly: true,
		SameSite: http.SameSiteLaxMode})
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: s.cfg.Realm + "/" + username + "/" + sid, Path: cookiePath,
		SameSite: http.SameSiteLaxMode})
	log.Printf("[INFO] login of %q, session %s", username, sid)
	http.Redirect(w, r, s.callbackURL(req, sid), http.StatusFound)
}

// handleLogout ends sso session and returns to post_logout_redirect_uri of the application
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sid, ok := s.ssoSession(r); ok {
		s.sessions.Invalidate(sid)
		log.Printf("[INFO] logout, session %s", sid)
	}
	cookiePath := "/realms/" + s.cfg.Realm + "/"
	for _, name := range []string{identityCookie, sessionCookie} {
		http.SetCookie(w, &http.Cookie{Name: name, Value: "", Path: cookiePath, MaxAge: -1})
	}

	redirect := r.URL.Query().Get("post_logout_redirect_uri")
	if redirect != "" && strings.HasPrefix(redirect, s.cfg.AppURL+"/") {
		http.Redirect(w, r, redirect, http.StatusFound)
		return
	}
	s.renderMessage(w, http.StatusOK, "You are logged out", "You are logged out.")
}

func (s *Server) handleApp(w http.ResponseWriter, _ *http.Request) {
	data := struct {
		Name      string
		Realm     string
		AuthURL   string
		LogoutURL string
	}{
		Name:      "loginprobe app",
		Realm:     s.cfg.Realm,
		AuthURL:   s.AuthURL(),
		LogoutURL: s.LogoutURL() + "?" + url.Values{"post_logout_redirect_uri": {s.cfg.AppURL + "/"}}.Encode(),
	}
	s.render(w, http.StatusOK, "app.html", data)
}

func (s *Server) ssoSession(r *http.Request) (string, bool) {
	c, err := r.Cookie(identityCookie)
	if err != nil || c.Value == "" {
		return "", false
	}
	if _, ok := s.sessions.Get(c.Value); !ok {
		return "", false
	}
	return c.Value, true
}

// callbackURL adds state, session_state and a fresh code to the redirect uri,
// in the fragment for response_mode=fragment and in the query otherwise
func (s *Server) callbackURL(req authRequest, sid string) string {
	// url.Values sorts keys, Keycloak sends state first and code last
	enc := "state=" + url.QueryEscape(req.State) + "&session_state=" + url.QueryEscape(sid) +
		"&code=" + url.QueryEscape(uuid.NewString())
	if req.ResponseMode == "fragment" {
		return req.RedirectURI + "#" + enc
	}
	sep := "?"
	if strings.Contains(req.RedirectURI, "?") {
		sep = "&"
	}
	return req.RedirectURI + sep + enc
}

func (s *Server) realmURL() string { return s.cfg.IdPURL + "/realms/" + s.cfg.Realm }

func (s *Server) renderLogin(w http.ResponseWriter, tabID, username, errMsg string) {
	q := url.Values{}
	q.Set("execution", "auth-username-password-form")
	q.Set("client_id", s.cfg.ClientID)
	q.Set("tab_id", tabID)
	data := struct {
		Realm    string
		Action   string
		Username string
		Error    string
	}{
		Realm:    s.cfg.Realm,
		Action:   s.realmURL() + "/login-actions/authenticate?" + q.Encode(),
		Username: username,
		Error:    errMsg,
	}
	s.render(w, http.StatusOK, "login.html", data)
}

func (s *Server) renderMessage(w http.ResponseWriter, status int, title, msg string) {
	s.render(w, status, "message.html", struct{ Title, Message string }{Title: title, Message: msg})
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	buf := new(bytes.Buffer)
	if err := s.templates.ExecuteTemplate(buf, name, data); err != nil {
		log.Printf("[WARN] failed to execute template %s: %v", name, err)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		log.Printf("[WARN] failed to write response: %v", err)
	}
}
