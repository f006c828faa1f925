package audit

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pet-sharing/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	// Owner: su propio rastro de actividad de sharing
	r.Get("/me/access-events", listMyAccessEventsHandler(svc))
}

type accessEventResponse struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	ActorType   ActorType `json:"actor_type"`
	ActorID     string    `json:"actor_id,omitempty"`
	GrantID     string    `json:"grant_id,omitempty"`
	PetID       string    `json:"pet_id,omitempty"`
	TokenDigest string    `json:"token_digest,omitempty"`
	Detail      string    `json:"detail,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func listMyAccessEventsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		filter := ListFilter{
			Types: parseTypeFilter(r.URL.Query().Get("type")),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				filter.Limit = n
			}
		}

		items, err := svc.ListByOwner(r.Context(), claims.UserID, filter)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]accessEventResponse, 0, len(items))
		for _, e := range items {
			out = append(out, accessEventResponse{
				ID:          e.ID,
				Type:        e.Type,
				ActorType:   e.Actor.Type,
				ActorID:     e.Actor.ID,
				GrantID:     e.GrantID,
				PetID:       e.PetID,
				TokenDigest: e.TokenDigest,
				Detail:      e.Detail,
				OccurredAt:  e.OccurredAt,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// type=GRANT_ACCEPTED,LINK_DENIED (CSV opcional)
func parseTypeFilter(raw string) []EventType {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]EventType, 0, len(parts))
	for _, p := range parts {
		t := EventType(strings.ToUpper(strings.TrimSpace(p)))
		if t == "" {
			continue
		}
		out = append(out, t)
	}
	return out
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
