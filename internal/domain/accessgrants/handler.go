package accessgrants

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"pet-sharing/internal/domain/expiry"
	"pet-sharing/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/grants", func(gr chi.Router) {
		// Owner: invitar y listar lo que compartió
		gr.Post("/", createInviteHandler(svc))
		gr.Get("/", listGrantsHandler(svc))

		// No-owner: pedir acceso
		gr.Post("/requests", createRequestHandler(svc))

		// Aceptar invite por QR (invite_token)
		gr.Post("/claim", claimInviteHandler(svc))

		gr.Route("/{grantID}", func(ir chi.Router) {
			ir.Post("/accept", acceptGrantHandler(svc))
			ir.Post("/decline", declineGrantHandler(svc))
			ir.Post("/revoke", revokeGrantHandler(svc))
			ir.Delete("/", removeGrantHandler(svc))
		})
	})

	// Grantee: lo compartido conmigo (aceptado + invites a mi e-mail)
	r.Get("/me/grants", listSharedWithMeHandler(svc))
}

type permissionsPayload struct {
	Scope       string   `json:"scope"`
	PetIDs      []string `json:"pet_ids,omitempty"`
	AccessLevel string   `json:"access_level"`
}

type createInviteRequest struct {
	GranteeEmail string             `json:"grantee_email"`
	Permissions  permissionsPayload `json:"permissions"`
	Expires      expiry.Spec        `json:"expires"`
	QR           bool               `json:"qr"`
}

type createRequestRequest struct {
	OwnerUserID string             `json:"owner_user_id"`
	Permissions permissionsPayload `json:"permissions"`
	Expires     expiry.Spec        `json:"expires"`
}

type claimRequest struct {
	InviteToken string `json:"invite_token"`
}

type grantResponse struct {
	ID            string             `json:"id"`
	OwnerUserID   string             `json:"owner_user_id"`
	GranteeUserID string             `json:"grantee_user_id,omitempty"`
	GranteeEmail  string             `json:"grantee_email,omitempty"`
	Permissions   permissionsPayload `json:"permissions"`
	Status        Status             `json:"status"`
	ValidUntil    *time.Time         `json:"valid_until,omitempty"`
	InviteToken   string             `json:"invite_token,omitempty"`
	CreatedBy     string             `json:"created_by"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

func createInviteHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createInviteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		g, err := svc.CreateInvite(r.Context(), claims.UserID, InviteInput{
			GranteeEmail: req.GranteeEmail,
			Permissions:  toPermissionSet(req.Permissions),
			Expires:      req.Expires,
			QR:           req.QR,
		})
		if err != nil {
			writeGrantError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toGrantResponse(g))
	}
}

func createRequestHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createRequestRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		g, err := svc.CreateRequest(r.Context(), claims.UserID, strings.TrimSpace(req.OwnerUserID), RequestInput{
			Permissions: toPermissionSet(req.Permissions),
			Expires:     req.Expires,
		})
		if err != nil {
			writeGrantError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toGrantResponse(g))
	}
}

func claimInviteHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req claimRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		g, err := svc.AcceptByToken(r.Context(), req.InviteToken, Actor{UserID: claims.UserID, Email: claims.Email})
		if err != nil {
			writeGrantError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toGrantResponse(g))
	}
}

func acceptGrantHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		grantID := chi.URLParam(r, "grantID")
		g, err := svc.Accept(r.Context(), grantID, Actor{UserID: claims.UserID, Email: claims.Email})
		if err != nil {
			writeGrantError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toGrantResponse(g))
	}
}

func declineGrantHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		grantID := chi.URLParam(r, "grantID")
		g, err := svc.Decline(r.Context(), grantID, Actor{UserID: claims.UserID, Email: claims.Email})
		if err != nil {
			writeGrantError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toGrantResponse(g))
	}
}

func revokeGrantHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		grantID := chi.URLParam(r, "grantID")
		g, err := svc.Revoke(r.Context(), grantID, claims.UserID)
		if err != nil {
			writeGrantError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toGrantResponse(g))
	}
}

func removeGrantHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		grantID := chi.URLParam(r, "grantID")
		err := svc.Remove(r.Context(), grantID, Actor{UserID: claims.UserID, Email: claims.Email})
		if err != nil {
			// Doble remove: ya no existe, mismo resultado final.
			if errors.Is(err, ErrNotFound) {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			writeGrantError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func listGrantsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListByOwner(r.Context(), claims.UserID)
		if err != nil {
			writeGrantError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toGrantResponses(items))
	}
}

func listSharedWithMeHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		// status=accepted,pending (CSV opcional)
		allowed := parseStatusFilter(r.URL.Query().Get("status"))

		items, err := svc.ListSharedWith(r.Context(), Actor{UserID: claims.UserID, Email: claims.Email})
		if err != nil {
			writeGrantError(w, err)
			return
		}

		if len(allowed) > 0 {
			filtered := make([]Grant, 0, len(items))
			for _, g := range items {
				if _, ok := allowed[g.Status]; ok {
					filtered = append(filtered, g)
				}
			}
			items = filtered
		}

		writeJSON(w, http.StatusOK, toGrantResponses(items))
	}
}

func toPermissionSet(p permissionsPayload) PermissionSet {
	return PermissionSet{
		Scope:  Scope(strings.TrimSpace(p.Scope)),
		PetIDs: p.PetIDs,
		Level:  AccessLevel(strings.TrimSpace(p.AccessLevel)),
	}
}

func toGrantResponse(g Grant) grantResponse {
	return grantResponse{
		ID:            g.ID,
		OwnerUserID:   g.OwnerUserID,
		GranteeUserID: g.GranteeUserID,
		GranteeEmail:  g.GranteeEmail,
		Permissions: permissionsPayload{
			Scope:       string(g.Permissions.Scope),
			PetIDs:      g.Permissions.PetIDs,
			AccessLevel: string(g.Permissions.Level),
		},
		Status:      g.Status,
		ValidUntil:  g.ValidUntil,
		InviteToken: g.InviteToken,
		CreatedBy:   g.CreatedBy,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}

func toGrantResponses(items []Grant) []grantResponse {
	out := make([]grantResponse, 0, len(items))
	for _, g := range items {
		out = append(out, toGrantResponse(g))
	}
	return out
}

func parseStatusFilter(raw string) map[Status]struct{} {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := map[Status]struct{}{}
	for _, p := range parts {
		s := Status(strings.TrimSpace(p))
		if s == "" {
			continue
		}
		out[s] = struct{}{}
	}
	return out
}

func writeGrantError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, ErrBadState):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrExpired):
		http.Error(w, "expired", http.StatusGone)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
