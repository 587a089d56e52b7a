package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/webstarter/authkit/internal/logging"
	"github.com/webstarter/authkit/internal/registry"
	"github.com/webstarter/authkit/internal/server/models"
)

// AuthBackend is the service surface the handlers need. It is satisfied by
// services.AuthService; tests substitute a stub.
type AuthBackend interface {
	Register(ctx context.Context, email, password, name string) (*registry.Identity, string, error)
	Login(ctx context.Context, email, password string) (*registry.Identity, string, error)
	Authenticate(ctx context.Context, bearer string) (*registry.Identity, error)
	Logout(ctx context.Context, bearer string) error
	Refresh(ctx context.Context, bearer string) (string, error)
	UpdateUser(ctx context.Context, userID string, p registry.Patch) (*registry.Identity, error)
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
	ResetPassword(ctx context.Context, email string) error
	Profile(ctx context.Context, userID string) (*models.Profile, error)
	SaveProfile(ctx context.Context, p *models.Profile) (*models.Profile, error)
}

// AvatarBackend hands out presigned URLs for avatar storage.
type AvatarBackend interface {
	PresignUpload(ctx context.Context, userID string) (url string, key string, err error)
	PresignDownload(ctx context.Context, key string) (string, error)
}

// Server owns the router and the HTTP listener.
type Server struct {
	addr    string
	auth    AuthBackend
	avatars AvatarBackend
	logger  logging.Logger
}

func NewServer(addr string, auth AuthBackend, avatars AvatarBackend, logger logging.Logger) *Server {
	return &Server{addr: addr, auth: auth, avatars: avatars, logger: logger}
}

// Router builds the REST surface.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	r.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/auth/reset", s.handleResetPassword).Methods(http.MethodPost)

	r.HandleFunc("/auth/logout", s.requireAuth(s.handleLogout)).Methods(http.MethodPost)
	r.HandleFunc("/auth/me", s.requireAuth(s.handleMe)).Methods(http.MethodGet)
	r.HandleFunc("/auth/me", s.requireAuth(s.handleUpdateMe)).Methods(http.MethodPatch)
	r.HandleFunc("/auth/refresh", s.requireAuth(s.handleRefresh)).Methods(http.MethodPost)
	r.HandleFunc("/auth/password", s.requireAuth(s.handleChangePassword)).Methods(http.MethodPut)
	r.HandleFunc("/auth/profile", s.requireAuth(s.handleGetProfile)).Methods(http.MethodGet)
	r.HandleFunc("/auth/profile", s.requireAuth(s.handlePutProfile)).Methods(http.MethodPut)
	r.HandleFunc("/auth/avatar", s.requireAuth(s.handleAvatarUpload)).Methods(http.MethodPost)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Handler:      s.Router(),
		Addr:         s.addr,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "auth server listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
