package authz

import (
	"context"
	"errors"
	"testing"
	"time"

	"pet-sharing/internal/domain/accessgrants"
)

type fakePets map[string]string // petID -> owner

func (p fakePets) OwnerOf(ctx context.Context, petID string) (string, error) {
	owner, ok := p[petID]
	if !ok {
		return "", errors.New("pets: not found")
	}
	return owner, nil
}

type fakeGrants []accessgrants.Grant

func (f fakeGrants) ListByGrantee(ctx context.Context, granteeUserID, granteeEmail string) ([]accessgrants.Grant, error) {
	out := make([]accessgrants.Grant, 0)
	for _, g := range f {
		if granteeUserID != "" && g.GranteeUserID == granteeUserID {
			out = append(out, g)
		}
	}
	return out, nil
}

func fixedNow() time.Time {
	return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
}

func acceptedGrant(owner, grantee string, perms accessgrants.PermissionSet, validUntil *time.Time) accessgrants.Grant {
	return accessgrants.Grant{
		ID:            "g-" + owner + "-" + grantee,
		OwnerUserID:   owner,
		GranteeUserID: grantee,
		Permissions:   perms,
		Status:        accessgrants.StatusAccepted,
		ValidUntil:    validUntil,
	}
}

func TestResolver_OwnerIsAdmin(t *testing.T) {
	r := NewResolver(fakePets{"pet-1": "owner-1"}, fakeGrants{})
	r.now = fixedNow

	d, err := r.Resolve(context.Background(), Identity{UserID: "owner-1"}, "pet-1", ActionManage)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if !d.Allowed || d.Level != accessgrants.LevelAdmin {
		t.Fatalf("expected owner admin, got %#v", d)
	}
}

func TestResolver_UnknownPet(t *testing.T) {
	r := NewResolver(fakePets{}, fakeGrants{})

	_, err := r.Resolve(context.Background(), Identity{UserID: "user-1"}, "ghost", ActionRead)
	if err != ErrPetNotFound {
		t.Fatalf("expected ErrPetNotFound, got %v", err)
	}
}

func TestResolver_NoGrant_Denied(t *testing.T) {
	r := NewResolver(fakePets{"pet-1": "owner-1"}, fakeGrants{})
	r.now = fixedNow

	d, err := r.Resolve(context.Background(), Identity{UserID: "user-2"}, "pet-1", ActionRead)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if d.Allowed {
		t.Fatalf("expected denied without grants")
	}
}

func TestResolver_ScopeAll_CoversLaterPets(t *testing.T) {
	// El grant se creó antes de pet-2; all no snapshotea IDs.
	pets := fakePets{"pet-1": "owner-1", "pet-2": "owner-1"}
	grants := fakeGrants{
		acceptedGrant("owner-1", "user-2", accessgrants.PermissionSet{
			Scope: accessgrants.ScopeAll,
			Level: accessgrants.LevelViewer,
		}, nil),
	}
	r := NewResolver(pets, grants)
	r.now = fixedNow

	for _, petID := range []string{"pet-1", "pet-2"} {
		d, err := r.Resolve(context.Background(), Identity{UserID: "user-2"}, petID, ActionRead)
		if err != nil {
			t.Fatalf("Resolve(%s) error: %v", petID, err)
		}
		if !d.Allowed {
			t.Fatalf("expected read allowed on %s", petID)
		}
	}

	// viewer no escribe
	d, _ := r.Resolve(context.Background(), Identity{UserID: "user-2"}, "pet-1", ActionWrite)
	if d.Allowed {
		t.Fatalf("expected write denied for viewer")
	}
	if d.Level != accessgrants.LevelViewer {
		t.Fatalf("expected level viewer in decision, got %s", d.Level)
	}
}

func TestResolver_ScopeSelected_OnlyListedPets(t *testing.T) {
	pets := fakePets{"pet-1": "owner-1", "pet-2": "owner-1"}
	grants := fakeGrants{
		acceptedGrant("owner-1", "user-2", accessgrants.PermissionSet{
			Scope:  accessgrants.ScopeSelected,
			PetIDs: []string{"pet-1"},
			Level:  accessgrants.LevelEditor,
		}, nil),
	}
	r := NewResolver(pets, grants)
	r.now = fixedNow

	d, err := r.Resolve(context.Background(), Identity{UserID: "user-2"}, "pet-1", ActionWrite)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if !d.Allowed {
		t.Fatalf("expected write allowed on selected pet")
	}

	d, _ = r.Resolve(context.Background(), Identity{UserID: "user-2"}, "pet-2", ActionRead)
	if d.Allowed {
		t.Fatalf("expected read denied on unlisted pet")
	}
}

func TestResolver_PendingAndTerminalGrantsIgnored(t *testing.T) {
	pets := fakePets{"pet-1": "owner-1"}
	mk := func(status accessgrants.Status) accessgrants.Grant {
		g := acceptedGrant("owner-1", "user-2", accessgrants.PermissionSet{
			Scope: accessgrants.ScopeAll,
			Level: accessgrants.LevelAdmin,
		}, nil)
		g.Status = status
		return g
	}

	for _, status := range []accessgrants.Status{
		accessgrants.StatusPending,
		accessgrants.StatusRequested,
		accessgrants.StatusDeclined,
		accessgrants.StatusRevoked,
	} {
		r := NewResolver(pets, fakeGrants{mk(status)})
		r.now = fixedNow

		d, err := r.Resolve(context.Background(), Identity{UserID: "user-2"}, "pet-1", ActionRead)
		if err != nil {
			t.Fatalf("Resolve error for %s: %v", status, err)
		}
		if d.Allowed {
			t.Fatalf("expected %s grant ignored", status)
		}
	}
}

func TestResolver_ExpiryIsLazy(t *testing.T) {
	until := fixedNow().Add(24 * time.Hour)
	pets := fakePets{"pet-1": "owner-1"}
	grants := fakeGrants{
		acceptedGrant("owner-1", "user-2", accessgrants.PermissionSet{
			Scope: accessgrants.ScopeAll,
			Level: accessgrants.LevelEditor,
		}, &until),
	}
	r := NewResolver(pets, grants)

	// Antes del límite: permitido.
	r.now = fixedNow
	d, _ := r.Resolve(context.Background(), Identity{UserID: "user-2"}, "pet-1", ActionWrite)
	if !d.Allowed {
		t.Fatalf("expected allowed before expiry")
	}

	// Exactamente en el límite: todavía vale.
	r.now = func() time.Time { return until }
	d, _ = r.Resolve(context.Background(), Identity{UserID: "user-2"}, "pet-1", ActionWrite)
	if !d.Allowed {
		t.Fatalf("expected allowed at boundary")
	}

	// Un segundo después: denegado, sin tocar el grant guardado.
	r.now = func() time.Time { return until.Add(time.Second) }
	d, _ = r.Resolve(context.Background(), Identity{UserID: "user-2"}, "pet-1", ActionWrite)
	if d.Allowed {
		t.Fatalf("expected denied after expiry")
	}
}

func TestResolver_MostPermissiveWins(t *testing.T) {
	pets := fakePets{"pet-1": "owner-1"}
	grants := fakeGrants{
		acceptedGrant("owner-1", "user-2", accessgrants.PermissionSet{
			Scope: accessgrants.ScopeAll,
			Level: accessgrants.LevelViewer,
		}, nil),
		acceptedGrant("owner-1", "user-2", accessgrants.PermissionSet{
			Scope:  accessgrants.ScopeSelected,
			PetIDs: []string{"pet-1"},
			Level:  accessgrants.LevelAdmin,
		}, nil),
	}
	r := NewResolver(pets, grants)
	r.now = fixedNow

	d, err := r.Resolve(context.Background(), Identity{UserID: "user-2"}, "pet-1", ActionDelete)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if !d.Allowed || d.Level != accessgrants.LevelAdmin {
		t.Fatalf("expected admin to win, got %#v", d)
	}
}

func TestResolver_GrantsFromOtherOwnersDontApply(t *testing.T) {
	pets := fakePets{"pet-1": "owner-1"}
	grants := fakeGrants{
		acceptedGrant("owner-9", "user-2", accessgrants.PermissionSet{
			Scope: accessgrants.ScopeAll,
			Level: accessgrants.LevelAdmin,
		}, nil),
	}
	r := NewResolver(pets, grants)
	r.now = fixedNow

	d, _ := r.Resolve(context.Background(), Identity{UserID: "user-2"}, "pet-1", ActionRead)
	if d.Allowed {
		t.Fatalf("expected grant from another owner to not apply")
	}
}

// Escenario completo: invite selected[P1] editor con vencimiento a 7 días.
func TestResolver_SelectedEditorSevenDays(t *testing.T) {
	created := fixedNow()
	until := created.Add(7 * 24 * time.Hour)
	pets := fakePets{"p1": "owner-1", "p2": "owner-1"}
	grants := fakeGrants{
		acceptedGrant("owner-1", "user-b", accessgrants.PermissionSet{
			Scope:  accessgrants.ScopeSelected,
			PetIDs: []string{"p1"},
			Level:  accessgrants.LevelEditor,
		}, &until),
	}
	r := NewResolver(pets, grants)

	// Día 3: puede editar P1.
	r.now = func() time.Time { return created.Add(3 * 24 * time.Hour) }
	d, err := r.Resolve(context.Background(), Identity{UserID: "user-b"}, "p1", ActionWrite)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if !d.Allowed {
		t.Fatalf("expected write on p1 allowed at day 3")
	}

	// P2 nunca estuvo en el set.
	d, _ = r.Resolve(context.Background(), Identity{UserID: "user-b"}, "p2", ActionRead)
	if d.Allowed {
		t.Fatalf("expected p2 denied")
	}

	// editor no borra ni administra
	d, _ = r.Resolve(context.Background(), Identity{UserID: "user-b"}, "p1", ActionDelete)
	if d.Allowed {
		t.Fatalf("expected delete denied for editor")
	}

	// Día 8: vencido.
	r.now = func() time.Time { return created.Add(8 * 24 * time.Hour) }
	d, _ = r.Resolve(context.Background(), Identity{UserID: "user-b"}, "p1", ActionRead)
	if d.Allowed {
		t.Fatalf("expected denied at day 8")
	}
}
