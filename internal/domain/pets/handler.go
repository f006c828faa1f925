package pets

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"pet-sharing/internal/domain/authz"
	"pet-sharing/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, resolver *authz.Resolver) {
	r.Route("/pets", func(pr chi.Router) {
		pr.Post("/", createPetHandler(svc))
		pr.Get("/", listPetsHandler(svc))

		// Perfil: owner, o grantee con nivel suficiente (lo decide el resolver)
		pr.Get("/{petID}", getPetHandler(svc, resolver))
	})
}

type createPetRequest struct {
	Name         string   `json:"name"`
	Species      string   `json:"species"`
	Breed        string   `json:"breed"`
	Sex          string   `json:"sex"`
	BirthDate    string   `json:"birth_date"` // YYYY-MM-DD opcional
	Microchip    string   `json:"microchip"`
	Allergies    []string `json:"allergies"`
	Vaccinations []string `json:"vaccinations"`
	Notes        string   `json:"notes"`
}

type petResponse struct {
	ID           string     `json:"id"`
	OwnerUserID  string     `json:"owner_user_id"`
	Name         string     `json:"name"`
	Species      string     `json:"species"`
	Breed        string     `json:"breed"`
	Sex          string     `json:"sex"`
	BirthDate    *time.Time `json:"birth_date,omitempty"`
	Microchip    string     `json:"microchip,omitempty"`
	Allergies    []string   `json:"allergies,omitempty"`
	Vaccinations []string   `json:"vaccinations,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	// AccessLevel efectivo del caller sobre esta mascota (para la UI).
	AccessLevel string `json:"access_level,omitempty"`
}

func createPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createPetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var birth *time.Time
		if strings.TrimSpace(req.BirthDate) != "" {
			t, err := time.Parse("2006-01-02", strings.TrimSpace(req.BirthDate))
			if err != nil {
				http.Error(w, "invalid birth_date (YYYY-MM-DD)", http.StatusBadRequest)
				return
			}
			birth = &t
		}

		p, err := svc.Create(r.Context(), claims.UserID, CreateInput{
			Name:         req.Name,
			Species:      req.Species,
			Breed:        req.Breed,
			Sex:          req.Sex,
			BirthDate:    birth,
			Microchip:    req.Microchip,
			Allergies:    req.Allergies,
			Vaccinations: req.Vaccinations,
			Notes:        req.Notes,
		})
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, toPetResponse(p, ""))
	}
}

func listPetsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListByOwner(r.Context(), claims.UserID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]petResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toPetResponse(p, ""))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getPetHandler(svc *Service, resolver *authz.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		petID := chi.URLParam(r, "petID")

		decision, err := resolver.Resolve(r.Context(),
			authz.Identity{UserID: claims.UserID, Email: claims.Email},
			petID, authz.ActionRead)
		if err != nil {
			if errors.Is(err, authz.ErrPetNotFound) {
				http.Error(w, "pet not found", http.StatusNotFound)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if !decision.Allowed {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		p, err := svc.GetByID(r.Context(), petID)
		if err != nil {
			http.Error(w, "pet not found", http.StatusNotFound)
			return
		}

		writeJSON(w, http.StatusOK, toPetResponse(p, string(decision.Level)))
	}
}

func toPetResponse(p Pet, level string) petResponse {
	return petResponse{
		ID:           p.ID,
		OwnerUserID:  p.OwnerUserID,
		Name:         p.Name,
		Species:      string(p.Species),
		Breed:        p.Breed,
		Sex:          string(p.Sex),
		BirthDate:    p.BirthDate,
		Microchip:    p.Microchip,
		Allergies:    p.Allergies,
		Vaccinations: p.Vaccinations,
		Notes:        p.Notes,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
		AccessLevel:  level,
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
