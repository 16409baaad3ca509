package entity

import (
	"fmt"

	"github.com/google/uuid"
)

// OwnerKind discriminates the two ways a session can be owned.
type OwnerKind int

const (
	OwnerAnonymous OwnerKind = iota
	OwnerAuthenticated
)

// Owner is the session owner identity. A session is either bound to an
// authenticated user id or to a per-connection anonymous key, never a bare
// nullable reference.
type Owner struct {
	kind   OwnerKind
	userId uuid.UUID
	anonId string
}

func NewAnonymousOwner(anonId string) Owner {
	return Owner{kind: OwnerAnonymous, anonId: anonId}
}

func NewAuthenticatedOwner(userId uuid.UUID) Owner {
	return Owner{kind: OwnerAuthenticated, userId: userId}
}

func (o Owner) Kind() OwnerKind {
	return o.kind
}

func (o Owner) IsAuthenticated() bool {
	return o.kind == OwnerAuthenticated
}

// UserId returns the authenticated user id. Valid only for authenticated owners.
func (o Owner) UserId() (uuid.UUID, bool) {
	if o.kind != OwnerAuthenticated {
		return uuid.Nil, false
	}
	return o.userId, true
}

// AnonymousId returns the anonymous connection key. Valid only for anonymous owners.
func (o Owner) AnonymousId() (string, bool) {
	if o.kind != OwnerAnonymous {
		return "", false
	}
	return o.anonId, true
}

// RateLimitIdentity is the key the rate limiter buckets this owner under.
func (o Owner) RateLimitIdentity() string {
	switch o.kind {
	case OwnerAuthenticated:
		return "user:" + o.userId.String()
	case OwnerAnonymous:
		return "anon:" + o.anonId
	}
	return "anon:unknown"
}

func (o Owner) String() string {
	switch o.kind {
	case OwnerAuthenticated:
		return fmt.Sprintf("user(%s)", o.userId)
	case OwnerAnonymous:
		return fmt.Sprintf("anon(%s)", o.anonId)
	}
	return "owner(unknown)"
}
