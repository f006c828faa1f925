package sharelinks

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"pet-sharing/internal/domain/expiry"
	"pet-sharing/internal/domain/pets"
	"pet-sharing/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// PetReader evita acoplar al service de pets completo.
type PetReader interface {
	GetByID(ctx context.Context, id string) (pets.Pet, error)
}

func RegisterRoutes(r chi.Router, svc *Service, petReader PetReader, publicBaseURL string) {
	publicBaseURL = strings.TrimRight(strings.TrimSpace(publicBaseURL), "/")

	// Owner: emitir y listar links de una mascota
	r.Route("/pets/{petID}/share-links", func(lr chi.Router) {
		lr.Post("/", issueLinkHandler(svc, publicBaseURL))
		lr.Get("/", listLinksByPetHandler(svc, publicBaseURL))
	})

	// Owner: revocar por token
	r.Post("/share-links/{token}/revoke", revokeLinkHandler(svc))

	// Público: sin auth. El token es la única credencial.
	r.Get("/share/{token}", publicViewHandler(svc, petReader))
}

type issueLinkRequest struct {
	Settings Settings    `json:"settings"`
	Expires  expiry.Spec `json:"expires"`
}

type linkResponse struct {
	Token      string     `json:"token"`
	URL        string     `json:"url"`
	PetID      string     `json:"pet_id"`
	Settings   Settings   `json:"settings"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`
	IsActive   bool       `json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
}

func issueLinkHandler(svc *Service, publicBaseURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		petID := chi.URLParam(r, "petID")

		var req issueLinkRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		l, err := svc.Issue(r.Context(), claims.UserID, IssueInput{
			PetID:    petID,
			Settings: req.Settings,
			Expires:  req.Expires,
		})
		if err != nil {
			writeLinkError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toLinkResponse(l, publicBaseURL))
	}
}

func listLinksByPetHandler(svc *Service, publicBaseURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		petID := chi.URLParam(r, "petID")

		items, err := svc.ListByPet(r.Context(), petID, claims.UserID)
		if err != nil {
			writeLinkError(w, err)
			return
		}

		out := make([]linkResponse, 0, len(items))
		for _, l := range items {
			out = append(out, toLinkResponse(l, publicBaseURL))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func revokeLinkHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		token := chi.URLParam(r, "token")
		l, err := svc.Revoke(r.Context(), token, claims.UserID)
		if err != nil {
			writeLinkError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"pet_id":    l.PetID,
			"is_active": l.IsActive,
		})
	}
}

// publicPetView es la ficha recortada por Settings. Solo aparecen las
// secciones habilitadas; nada de IDs internos del owner.
type publicPetView struct {
	PetName        string              `json:"pet_name"`
	Identification *identificationView `json:"identification,omitempty"`
	Medical        *medicalView        `json:"medical,omitempty"`
	Vaccinations   []string            `json:"vaccinations,omitempty"`
	Allergies      []string            `json:"allergies,omitempty"`
	ValidUntil     *time.Time          `json:"valid_until,omitempty"`
}

type identificationView struct {
	Name      string     `json:"name"`
	Species   string     `json:"species"`
	Breed     string     `json:"breed,omitempty"`
	Sex       string     `json:"sex,omitempty"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	Microchip string     `json:"microchip,omitempty"`
}

type medicalView struct {
	Notes string `json:"notes,omitempty"`
}

func publicViewHandler(svc *Service, petReader PetReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := chi.URLParam(r, "token")

		l, err := svc.Validate(r.Context(), token)
		if err != nil {
			writeLinkError(w, err)
			return
		}

		p, err := petReader.GetByID(r.Context(), l.PetID)
		if err != nil {
			// Mascota borrada después de emitir el link: referencia stale,
			// el link simplemente deja de resolver.
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		writeJSON(w, http.StatusOK, buildPublicView(p, l))
	}
}

func buildPublicView(p pets.Pet, l ShareLink) publicPetView {
	view := publicPetView{
		PetName:    p.Name,
		ValidUntil: l.ValidUntil,
	}
	if l.Settings.Identification {
		view.Identification = &identificationView{
			Name:      p.Name,
			Species:   string(p.Species),
			Breed:     p.Breed,
			Sex:       string(p.Sex),
			BirthDate: p.BirthDate,
			Microchip: p.Microchip,
		}
	}
	if l.Settings.Medical {
		view.Medical = &medicalView{Notes: p.Notes}
	}
	if l.Settings.Vaccinations {
		view.Vaccinations = p.Vaccinations
	}
	if l.Settings.Allergies {
		view.Allergies = p.Allergies
	}
	return view
}

func toLinkResponse(l ShareLink, publicBaseURL string) linkResponse {
	return linkResponse{
		Token:      l.Token,
		URL:        publicBaseURL + "/share/" + l.Token,
		PetID:      l.PetID,
		Settings:   l.Settings,
		ValidUntil: l.ValidUntil,
		IsActive:   l.IsActive,
		CreatedAt:  l.CreatedAt,
	}
}

func writeLinkError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, ErrExpired):
		http.Error(w, "expired", http.StatusGone)
	case errors.Is(err, ErrRevoked):
		http.Error(w, "revoked", http.StatusGone)
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
