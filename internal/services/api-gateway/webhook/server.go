package webhook

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"go.uber.org/zap"

	"github.com/NordCoder/Hookery/internal/domain/user"
	hook "github.com/NordCoder/Hookery/internal/domain/webhook"
	"github.com/NordCoder/Hookery/internal/obs"
	"github.com/NordCoder/Hookery/internal/services/api-gateway/auth"
)

const maxBodyBytes = 1 << 20

type Server struct {
	log *zap.Logger
	uc  *Usecase
}

func NewServer(log *zap.Logger, uc *Usecase) *Server {
	if log == nil {
		log = zap.L()
	}
	return &Server{log: log.With(zap.String("component", "webhook.server")), uc: uc}
}

// webHookView is a web hook as listed to administrators: the creator's
// profile replaces created_by_uid.
type webHookView struct {
	ID                      uuid.UUID     `json:"id"`
	Name                    string        `json:"name"`
	Description             string        `json:"description"`
	URL                     string        `json:"url"`
	Status                  hook.Status   `json:"status"`
	ConsecutiveFailureCount int           `json:"consecutive_failure_count"`
	RegisterTime            time.Time     `json:"register_time"`
	CreatedBy               *user.Profile `json:"created_by,omitempty"`
}

func toView(w *hook.WithCreator) webHookView {
	return webHookView{
		ID:                      w.ID,
		Name:                    w.Name,
		Description:             w.Description,
		URL:                     w.URL,
		Status:                  w.Status,
		ConsecutiveFailureCount: w.ConsecutiveFailureCount,
		RegisterTime:            w.RegisterTime,
		CreatedBy:               w.Creator,
	}
}

type registerRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

type reviveRequest struct {
	TokenID []string `json:"token_id"`
}

type addTokenRequest struct {
	WebHookID string `json:"web_hook_id"`
	TokenID   string `json:"token_id"`
}

// Register mounts the web hook routes on mux.
func (s *Server) Register(mux *runtime.ServeMux) error {
	routes := []struct {
		method, pattern string
		h               runtime.HandlerFunc
	}{
		{http.MethodGet, "/v1/web-hooks", s.listWebHook},
		{http.MethodPost, "/v1/web-hooks", s.registerWebHook},
		{http.MethodPut, "/v1/web-hooks/{id}", s.updateWebHook},
		{http.MethodDelete, "/v1/web-hooks/{id}", s.deleteWebHook},
		{http.MethodPost, "/v1/web-hooks/{id}/revive", s.revive},
		{http.MethodGet, "/v1/users/me/web-hooks", s.listWebHookByUser},
		{http.MethodPost, "/v1/users/me/web-hook-tokens", s.addWebHookToken},
		{http.MethodDelete, "/v1/users/me/web-hook-tokens/{web_hook_id}", s.deleteWebHookToken},
	}
	for _, rt := range routes {
		if err := mux.HandlePath(rt.method, rt.pattern, instrument(rt.pattern, rt.h)); err != nil {
			return fmt.Errorf("register %s %s: %w", rt.method, rt.pattern, err)
		}
	}
	return nil
}

func instrument(pattern string, h runtime.HandlerFunc) runtime.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, params map[string]string) {
		obs.InstrumentHTTP(pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h(w, r, params)
		})).ServeHTTP(w, r)
	}
}

func (s *Server) listWebHook(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	list, total, err := s.uc.ListWebHook(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]webHookView, 0, len(list))
	for _, h := range list {
		out = append(out, toView(h))
	}
	writeList(w, out, total)
}

func (s *Server) registerWebHook(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	uid, ok := auth.UserIDFromCtx(r.Context())
	if !ok {
		s.writeError(w, errUnauthorized)
		return
	}
	var req registerRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	s.log.Info("RegisterWebHook request", zap.String("uid", uid.String()), zap.String("url", req.URL))

	id, err := s.uc.RegisterWebHook(r.Context(), hook.Fields{
		Name:        req.Name,
		Description: req.Description,
		URL:         req.URL,
	}, uid)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeData(w, id.String())
}

func (s *Server) updateWebHook(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := pathUUID(params, "id")
	if err != nil {
		s.writeError(w, err)
		return
	}
	var f hook.Fields
	if err := decodeBody(w, r, &f); err != nil {
		s.writeError(w, err)
		return
	}

	s.log.Info("UpdateWebHook request", zap.String("id", id.String()), zap.String("url", f.URL), zap.Int("status", int(f.Status)))

	if err := s.uc.UpdateWebHook(r.Context(), id, f); err != nil {
		s.writeError(w, err)
		return
	}
	writeOK(w)
}

func (s *Server) deleteWebHook(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := pathUUID(params, "id")
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.log.Info("DeleteWebHook request", zap.String("id", id.String()))

	if err := s.uc.DeleteWebHook(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	writeOK(w)
}

func (s *Server) revive(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := pathUUID(params, "id")
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req reviveRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	s.log.Info("Revive request", zap.String("id", id.String()), zap.Int("tokens", len(req.TokenID)))

	favs, err := s.uc.Revive(r.Context(), id, req.TokenID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeData(w, favs)
}

func (s *Server) listWebHookByUser(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	uid, ok := auth.UserIDFromCtx(r.Context())
	if !ok {
		s.writeError(w, errUnauthorized)
		return
	}
	list, total, err := s.uc.ListWebHookByUser(r.Context(), uid)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeList(w, list, total)
}

func (s *Server) addWebHookToken(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	uid, ok := auth.UserIDFromCtx(r.Context())
	if !ok {
		s.writeError(w, errUnauthorized)
		return
	}
	var req addTokenRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	hookID, err := uuid.Parse(req.WebHookID)
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: web_hook_id must be a uuid", ErrValidation))
		return
	}

	s.log.Info("AddWebHookToken request", zap.String("uid", uid.String()), zap.String("web_hook_id", hookID.String()))

	if err := s.uc.AddWebHookToken(r.Context(), req.TokenID, hookID, uid); err != nil {
		s.writeError(w, err)
		return
	}
	writeOK(w)
}

func (s *Server) deleteWebHookToken(w http.ResponseWriter, r *http.Request, params map[string]string) {
	uid, ok := auth.UserIDFromCtx(r.Context())
	if !ok {
		s.writeError(w, errUnauthorized)
		return
	}
	hookID, err := pathUUID(params, "web_hook_id")
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.log.Info("DeleteWebHookToken request", zap.String("uid", uid.String()), zap.String("web_hook_id", hookID.String()))

	if err := s.uc.DeleteWebHookToken(r.Context(), hookID, uid); err != nil {
		s.writeError(w, err)
		return
	}
	writeOK(w)
}

func pathUUID(params map[string]string, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(params[name])
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s must be a uuid", ErrValidation, name)
	}
	return id, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed request body", ErrValidation)
	}
	return nil
}
