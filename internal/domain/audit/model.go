package audit

import "time"

type EventType string

const (
	EventGrantInvited   EventType = "GRANT_INVITED"
	EventGrantRequested EventType = "GRANT_REQUESTED"
	EventGrantAccepted  EventType = "GRANT_ACCEPTED"
	EventGrantDeclined  EventType = "GRANT_DECLINED"
	EventGrantRevoked   EventType = "GRANT_REVOKED"
	EventGrantRemoved   EventType = "GRANT_REMOVED"
	EventLinkIssued     EventType = "LINK_ISSUED"
	EventLinkRevoked    EventType = "LINK_REVOKED"
	EventLinkDenied     EventType = "LINK_DENIED"
)

type ActorType string

const (
	ActorTypeUser   ActorType = "USER"
	ActorTypePublic ActorType = "PUBLIC" // portador anónimo de un link
)

type Actor struct {
	Type ActorType
	ID   string // vacío para PUBLIC
}

// AccessEvent es un registro append-only de la actividad de sharing de un
// owner. TokenDigest guarda sha256(token) en hex: el token plano es la
// única credencial de un link público y no puede quedar en ningún log.
type AccessEvent struct {
	ID          string
	OwnerUserID string

	Type  EventType
	Actor Actor

	GrantID     string
	PetID       string
	TokenDigest string
	Detail      string

	OccurredAt time.Time
}
