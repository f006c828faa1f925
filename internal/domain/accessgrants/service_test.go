package accessgrants

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"pet-sharing/internal/domain/expiry"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

var errRepoNotFound = errors.New("repo: not found")

type testRepo struct {
	byID map[string]Grant
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Grant{}}
}

func (r *testRepo) Create(ctx context.Context, g Grant) error {
	if g.ID == "" {
		return errors.New("repo: id required")
	}
	if _, ok := r.byID[g.ID]; ok {
		return errors.New("repo: already exists")
	}
	r.byID[g.ID] = g
	return nil
}

func (r *testRepo) UpdateIfStatus(ctx context.Context, g Grant, expected Status) error {
	cur, ok := r.byID[g.ID]
	if !ok {
		return errRepoNotFound
	}
	if cur.Status != expected {
		return ErrBadState
	}
	r.byID[g.ID] = g
	return nil
}

func (r *testRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return errRepoNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Grant, error) {
	g, ok := r.byID[id]
	if !ok {
		return Grant{}, errRepoNotFound
	}
	return g, nil
}

func (r *testRepo) GetByInviteToken(ctx context.Context, token string) (Grant, error) {
	for _, g := range r.byID {
		if g.InviteToken != "" && g.InviteToken == token {
			return g, nil
		}
	}
	return Grant{}, ErrNotFound
}

func (r *testRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]Grant, error) {
	out := make([]Grant, 0)
	for _, g := range r.byID {
		if g.OwnerUserID == ownerUserID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *testRepo) ListByGrantee(ctx context.Context, granteeUserID, granteeEmail string) ([]Grant, error) {
	out := make([]Grant, 0)
	for _, g := range r.byID {
		if granteeUserID != "" && g.GranteeUserID == granteeUserID {
			out = append(out, g)
			continue
		}
		if granteeEmail != "" && g.GranteeUserID == "" && strings.EqualFold(g.GranteeEmail, granteeEmail) {
			out = append(out, g)
		}
	}
	return out, nil
}

// testPets mapea petID -> ownerUserID.
type testPets map[string]string

func (p testPets) OwnerOf(ctx context.Context, petID string) (string, error) {
	owner, ok := p[petID]
	if !ok {
		return "", errors.New("pets: not found")
	}
	return owner, nil
}

func newTestService(repo *testRepo, pets testPets) *Service {
	svc := NewService(repo, pets)
	svc.newToken = func(int) (string, error) { return "tok-fixed", nil }
	return svc
}

// -------------------------
// Tests
// -------------------------

func TestService_CreateInvite_RequiresEmailOrQR(t *testing.T) {
	svc := newTestService(newTestRepo(), testPets{})

	_, err := svc.CreateInvite(context.Background(), "owner-1", InviteInput{})
	if err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestService_CreateInvite_DefaultsToAllViewer(t *testing.T) {
	svc := newTestService(newTestRepo(), testPets{})

	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	g, err := svc.CreateInvite(context.Background(), "owner-1", InviteInput{
		GranteeEmail: "Ana@Example.com",
	})
	if err != nil {
		t.Fatalf("CreateInvite error: %v", err)
	}
	if g.Status != StatusPending {
		t.Fatalf("expected pending, got %s", g.Status)
	}
	if g.GranteeEmail != "ana@example.com" {
		t.Fatalf("expected normalized email, got %q", g.GranteeEmail)
	}
	if g.Permissions.Scope != ScopeAll || g.Permissions.Level != LevelViewer {
		t.Fatalf("expected all/viewer defaults, got %#v", g.Permissions)
	}
	if g.ValidUntil != nil {
		t.Fatalf("expected no expiry by default")
	}
	if g.InviteToken != "" {
		t.Fatalf("expected no invite token without QR")
	}
	if g.CreatedAt != now || g.UpdatedAt != now {
		t.Fatalf("expected CreatedAt/UpdatedAt to be now")
	}
}

func TestService_CreateInvite_SelectedValidatesOwnership(t *testing.T) {
	pets := testPets{"pet-1": "owner-1", "pet-2": "owner-2"}
	svc := newTestService(newTestRepo(), pets)

	// Mascota de otro owner: rechazado.
	_, err := svc.CreateInvite(context.Background(), "owner-1", InviteInput{
		GranteeEmail: "ana@example.com",
		Permissions:  PermissionSet{Scope: ScopeSelected, PetIDs: []string{"pet-1", "pet-2"}, Level: LevelEditor},
	})
	if err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput for foreign pet, got %v", err)
	}

	// Mascota inexistente: rechazado.
	_, err = svc.CreateInvite(context.Background(), "owner-1", InviteInput{
		GranteeEmail: "ana@example.com",
		Permissions:  PermissionSet{Scope: ScopeSelected, PetIDs: []string{"ghost"}, Level: LevelEditor},
	})
	if err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput for unknown pet, got %v", err)
	}

	// Duplicados se colapsan.
	g, err := svc.CreateInvite(context.Background(), "owner-1", InviteInput{
		GranteeEmail: "ana@example.com",
		Permissions:  PermissionSet{Scope: ScopeSelected, PetIDs: []string{"pet-1", "pet-1"}, Level: LevelEditor},
	})
	if err != nil {
		t.Fatalf("CreateInvite error: %v", err)
	}
	if len(g.Permissions.PetIDs) != 1 || g.Permissions.PetIDs[0] != "pet-1" {
		t.Fatalf("expected deduped pet IDs, got %#v", g.Permissions.PetIDs)
	}
}

func TestService_CreateInvite_AllWithPetIDsRejected(t *testing.T) {
	svc := newTestService(newTestRepo(), testPets{"pet-1": "owner-1"})

	_, err := svc.CreateInvite(context.Background(), "owner-1", InviteInput{
		GranteeEmail: "ana@example.com",
		Permissions:  PermissionSet{Scope: ScopeAll, PetIDs: []string{"pet-1"}},
	})
	if err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestService_CreateInvite_QRGeneratesToken(t *testing.T) {
	svc := newTestService(newTestRepo(), testPets{})

	g, err := svc.CreateInvite(context.Background(), "owner-1", InviteInput{QR: true})
	if err != nil {
		t.Fatalf("CreateInvite error: %v", err)
	}
	if g.InviteToken == "" {
		t.Fatalf("expected invite token for QR invite")
	}
	if g.GranteeEmail != "" {
		t.Fatalf("expected QR-only invite without email")
	}
}

func TestService_CreateInvite_QRTokensNeverRepeat(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo, testPets{})

	// newToken determinístico que colisiona antes de variar.
	calls := 0
	svc.newToken = func(int) (string, error) {
		calls++
		if calls <= 2 {
			return "tok-dup", nil
		}
		return "tok-fresh", nil
	}

	first, err := svc.CreateInvite(context.Background(), "owner-1", InviteInput{QR: true})
	if err != nil {
		t.Fatalf("CreateInvite #1 error: %v", err)
	}
	if first.InviteToken != "tok-dup" {
		t.Fatalf("expected first token tok-dup, got %s", first.InviteToken)
	}

	second, err := svc.CreateInvite(context.Background(), "owner-1", InviteInput{QR: true})
	if err != nil {
		t.Fatalf("CreateInvite #2 error: %v", err)
	}
	if second.InviteToken != "tok-fresh" {
		t.Fatalf("expected retry to produce tok-fresh, got %s", second.InviteToken)
	}
}

func TestService_Accept_Invite_ByEmailMatch(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo, testPets{})

	g, err := svc.CreateInvite(context.Background(), "owner-1", InviteInput{
		GranteeEmail: "ana@example.com",
	})
	if err != nil {
		t.Fatalf("CreateInvite error: %v", err)
	}

	// Identidad equivocada: forbidden.
	_, err = svc.Accept(context.Background(), g.ID, Actor{UserID: "user-9", Email: "otro@example.com"})
	if err != ErrForbidden {
		t.Fatalf("expected ErrForbidden for wrong identity, got %v", err)
	}

	// Match case-insensitive.
	accepted, err := svc.Accept(context.Background(), g.ID, Actor{UserID: "user-2", Email: "ANA@example.com"})
	if err != nil {
		t.Fatalf("Accept error: %v", err)
	}
	if accepted.Status != StatusAccepted {
		t.Fatalf("expected accepted, got %s", accepted.Status)
	}
	if accepted.GranteeUserID != "user-2" {
		t.Fatalf("expected grantee bound to user-2, got %q", accepted.GranteeUserID)
	}
}

func TestService_Accept_Idempotent_SameGrantee(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo, testPets{})

	g, _ := svc.CreateInvite(context.Background(), "owner-1", InviteInput{
		GranteeEmail: "ana@example.com",
	})
	actor := Actor{UserID: "user-2", Email: "ana@example.com"}

	if _, err := svc.Accept(context.Background(), g.ID, actor); err != nil {
		t.Fatalf("Accept error: %v", err)
	}

	// Doble tap: no-op.
	again, err := svc.Accept(context.Background(), g.ID, actor)
	if err != nil {
		t.Fatalf("Accept #2 error: %v", err)
	}
	if again.Status != StatusAccepted {
		t.Fatalf("expected accepted, got %s", again.Status)
	}

	// Otro usuario sobre un grant ya aceptado: conflicto.
	_, err = svc.Accept(context.Background(), g.ID, Actor{UserID: "user-3", Email: "ana@example.com"})
	if err != ErrBadState {
		t.Fatalf("expected ErrBadState, got %v", err)
	}
}

func TestService_Accept_Request_OnlyOwnerApproves(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo, testPets{})

	g, err := svc.CreateRequest(context.Background(), "user-2", "owner-1", RequestInput{})
	if err != nil {
		t.Fatalf("CreateRequest error: %v", err)
	}
	if g.Status != StatusRequested {
		t.Fatalf("expected requested, got %s", g.Status)
	}

	// El requester no se auto-aprueba.
	_, err = svc.Accept(context.Background(), g.ID, Actor{UserID: "user-2"})
	if err != ErrForbidden {
		t.Fatalf("expected ErrForbidden for self-approve, got %v", err)
	}

	accepted, err := svc.Accept(context.Background(), g.ID, Actor{UserID: "owner-1"})
	if err != nil {
		t.Fatalf("Accept error: %v", err)
	}
	if accepted.GranteeUserID != "user-2" {
		t.Fatalf("expected grantee user-2, got %q", accepted.GranteeUserID)
	}
}

func TestService_Accept_ExpiredInvite(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo, testPets{})

	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	g, err := svc.CreateInvite(context.Background(), "owner-1", InviteInput{
		GranteeEmail: "ana@example.com",
		Expires:      expiry.Spec{Type: expiry.TypeDays, Days: 7},
	})
	if err != nil {
		t.Fatalf("CreateInvite error: %v", err)
	}

	// Exactamente en el límite: todavía vale.
	svc.now = func() time.Time { return now.Add(7 * 24 * time.Hour) }
	if _, err := svc.Accept(context.Background(), g.ID, Actor{UserID: "user-2", Email: "ana@example.com"}); err != nil {
		t.Fatalf("Accept at boundary error: %v", err)
	}

	// Pasado el límite: expirado.
	g2, _ := svc.CreateInvite(context.Background(), "owner-1", InviteInput{
		GranteeEmail: "bob@example.com",
		Expires:      expiry.Spec{Type: expiry.TypeDays, Days: 7},
	})
	svc.now = func() time.Time { return now.Add(7*24*time.Hour + 7*24*time.Hour + time.Second) }
	_, err = svc.Accept(context.Background(), g2.ID, Actor{UserID: "user-3", Email: "bob@example.com"})
	if err != ErrExpired {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestService_AcceptByToken(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo, testPets{})

	g, err := svc.CreateInvite(context.Background(), "owner-1", InviteInput{QR: true})
	if err != nil {
		t.Fatalf("CreateInvite error: %v", err)
	}

	accepted, err := svc.AcceptByToken(context.Background(), g.InviteToken, Actor{UserID: "user-2"})
	if err != nil {
		t.Fatalf("AcceptByToken error: %v", err)
	}
	if accepted.Status != StatusAccepted || accepted.GranteeUserID != "user-2" {
		t.Fatalf("expected accepted by user-2, got %#v", accepted)
	}
	if accepted.InviteToken != "" {
		t.Fatalf("expected invite token cleared after accept")
	}

	// El token ya no existe.
	if _, err := svc.AcceptByToken(context.Background(), g.InviteToken, Actor{UserID: "user-3"}); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for spent token, got %v", err)
	}
}

func TestService_AcceptByToken_EmailBoundInviteChecksIdentity(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo, testPets{})

	g, err := svc.CreateInvite(context.Background(), "owner-1", InviteInput{
		GranteeEmail: "ana@example.com",
		QR:           true,
	})
	if err != nil {
		t.Fatalf("CreateInvite error: %v", err)
	}

	// Token en manos equivocadas: no alcanza.
	_, err = svc.AcceptByToken(context.Background(), g.InviteToken, Actor{UserID: "user-9", Email: "otro@example.com"})
	if err != ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	if _, err := svc.AcceptByToken(context.Background(), g.InviteToken, Actor{UserID: "user-2", Email: "ana@example.com"}); err != nil {
		t.Fatalf("AcceptByToken error: %v", err)
	}
}

func TestService_Accept_LostRace_ReturnsBadState(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo, testPets{})

	g, _ := svc.CreateInvite(context.Background(), "owner-1", InviteInput{
		GranteeEmail: "ana@example.com",
	})

	// Simula otra tab que ganó el CAS entre el read y el update.
	other := repo.byID[g.ID]
	other.Status = StatusAccepted
	other.GranteeUserID = "user-2"

	svcRaced := newTestService(repo, testPets{})
	svcRaced.repo = &racedRepo{testRepo: repo, flipTo: other}

	_, err := svcRaced.Accept(context.Background(), g.ID, Actor{UserID: "user-3", Email: "ana@example.com"})
	if err != ErrBadState {
		t.Fatalf("expected ErrBadState for lost race, got %v", err)
	}
}

// racedRepo devuelve el estado viejo en GetByID y aplica flipTo antes
// del CAS, como si otra transición hubiera ganado en el medio.
type racedRepo struct {
	*testRepo
	flipTo  Grant
	flipped bool
}

func (r *racedRepo) UpdateIfStatus(ctx context.Context, g Grant, expected Status) error {
	if !r.flipped {
		r.byID[r.flipTo.ID] = r.flipTo
		r.flipped = true
	}
	return r.testRepo.UpdateIfStatus(ctx, g, expected)
}

func TestService_Decline_Invite_AndTerminalNoOp(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo, testPets{})

	g, _ := svc.CreateInvite(context.Background(), "owner-1", InviteInput{
		GranteeEmail: "ana@example.com",
	})
	actor := Actor{UserID: "user-2", Email: "ana@example.com"}

	declined, err := svc.Decline(context.Background(), g.ID, actor)
	if err != nil {
		t.Fatalf("Decline error: %v", err)
	}
	if declined.Status != StatusDeclined {
		t.Fatalf("expected declined, got %s", declined.Status)
	}

	// Declinar de nuevo: no-op.
	again, err := svc.Decline(context.Background(), g.ID, actor)
	if err != nil {
		t.Fatalf("Decline #2 error: %v", err)
	}
	if again.Status != StatusDeclined {
		t.Fatalf("expected declined after no-op, got %s", again.Status)
	}
}

func TestService_Decline_AcceptedIsBadState(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo, testPets{})

	g, _ := svc.CreateInvite(context.Background(), "owner-1", InviteInput{
		GranteeEmail: "ana@example.com",
	})
	actor := Actor{UserID: "user-2", Email: "ana@example.com"}
	if _, err := svc.Accept(context.Background(), g.ID, actor); err != nil {
		t.Fatalf("Accept error: %v", err)
	}

	// Un grant aceptado no se declina; se revoca o se remueve.
	_, err := svc.Decline(context.Background(), g.ID, actor)
	if err != ErrBadState {
		t.Fatalf("expected ErrBadState, got %v", err)
	}
}

func TestService_Revoke_OwnerOnly_AnyState_Idempotent(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo, testPets{})

	g, _ := svc.CreateInvite(context.Background(), "owner-1", InviteInput{
		GranteeEmail: "ana@example.com",
	})

	// No-owner no revoca.
	_, err := svc.Revoke(context.Background(), g.ID, "user-2")
	if err != ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	// Revocar un pending vale.
	revoked, err := svc.Revoke(context.Background(), g.ID, "owner-1")
	if err != nil {
		t.Fatalf("Revoke error: %v", err)
	}
	if revoked.Status != StatusRevoked {
		t.Fatalf("expected revoked, got %s", revoked.Status)
	}

	// Doble revoke: no-op.
	if _, err := svc.Revoke(context.Background(), g.ID, "owner-1"); err != nil {
		t.Fatalf("Revoke #2 error: %v", err)
	}
}

func TestService_Revoke_AcceptedGrant(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo, testPets{})

	g, _ := svc.CreateInvite(context.Background(), "owner-1", InviteInput{
		GranteeEmail: "ana@example.com",
	})
	if _, err := svc.Accept(context.Background(), g.ID, Actor{UserID: "user-2", Email: "ana@example.com"}); err != nil {
		t.Fatalf("Accept error: %v", err)
	}

	revoked, err := svc.Revoke(context.Background(), g.ID, "owner-1")
	if err != nil {
		t.Fatalf("Revoke error: %v", err)
	}
	if revoked.Status != StatusRevoked {
		t.Fatalf("expected revoked, got %s", revoked.Status)
	}
}

func TestService_Remove_EitherParty(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo, testPets{})

	g, _ := svc.CreateInvite(context.Background(), "owner-1", InviteInput{
		GranteeEmail: "ana@example.com",
	})
	if _, err := svc.Accept(context.Background(), g.ID, Actor{UserID: "user-2", Email: "ana@example.com"}); err != nil {
		t.Fatalf("Accept error: %v", err)
	}

	// Un tercero no remueve.
	if err := svc.Remove(context.Background(), g.ID, Actor{UserID: "user-9"}); err != ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	// El grantee sí.
	if err := svc.Remove(context.Background(), g.ID, Actor{UserID: "user-2"}); err != nil {
		t.Fatalf("Remove error: %v", err)
	}
	if _, err := repo.GetByID(context.Background(), g.ID); err != errRepoNotFound {
		t.Fatalf("expected grant deleted, got %v", err)
	}
}

func TestService_ListSharedWith_MatchesPendingByEmail(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo, testPets{})

	if _, err := svc.CreateInvite(context.Background(), "owner-1", InviteInput{
		GranteeEmail: "ana@example.com",
	}); err != nil {
		t.Fatalf("CreateInvite error: %v", err)
	}

	got, err := svc.ListSharedWith(context.Background(), Actor{UserID: "user-2", Email: "Ana@Example.com"})
	if err != nil {
		t.Fatalf("ListSharedWith error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 pending invite by email, got %d", len(got))
	}
}
