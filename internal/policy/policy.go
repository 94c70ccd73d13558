// Package policy decides whether a caller may perform an operation.
//
// Every service operation that mutates data or reads data scoped to a person
// calls Authorize before touching storage. The rules are evaluated in a fixed
// order and the first matching rule wins:
//
//  1. no identity: ErrUnauthenticated
//  2. AdminOnly: allowed for admins
//  3. Write: allowed for admins and managers
//  4. ReadOwnOrPrivileged: allowed when the caller owns the resource, or is an admin or manager
//  5. ReadAny: allowed, and the caller narrows results with Scope
//  6. anything else: ErrForbidden
package policy

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Role is an account role.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleUser    Role = "user"
)

var (
	// ErrUnauthenticated is returned when no identity is present.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrForbidden is returned when the identity lacks the capability.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidRole is returned by ParseRole for unknown role names.
	ErrInvalidRole = errors.New("invalid role")
)

// ParseRole normalises a role name and rejects unknown values.
func ParseRole(value string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(value)))
	switch role {
	case RoleAdmin, RoleManager, RoleUser:
		return role, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, value)
	}
}

// Privileged reports whether the role may read and write any person's data.
func (r Role) Privileged() bool {
	return r == RoleAdmin || r == RoleManager
}

// Identity is the authenticated caller.
type Identity struct {
	UserID   uint
	PersonID uint
	Role     Role
	Email    string
}

// Capability is the kind of access an operation needs.
type Capability int

const (
	ReadAny Capability = iota + 1
	ReadOwnOrPrivileged
	Write
	AdminOnly
)

func (c Capability) String() string {
	switch c {
	case ReadAny:
		return "read-any"
	case ReadOwnOrPrivileged:
		return "read-own-or-privileged"
	case Write:
		return "write"
	case AdminOnly:
		return "admin-only"
	default:
		return fmt.Sprintf("capability(%d)", int(c))
	}
}

// OwnerResolver returns the person that owns the resource being accessed.
type OwnerResolver func(ctx context.Context) (uint, error)

// Owner returns a resolver for an already known owner.
func Owner(personID uint) OwnerResolver {
	return func(context.Context) (uint, error) {
		return personID, nil
	}
}

// Decide applies the rules to an already resolved owner. Owner is ignored for
// capabilities other than ReadOwnOrPrivileged.
func Decide(caller *Identity, capability Capability, owner uint) error {
	if caller == nil {
		return ErrUnauthenticated
	}

	switch capability {
	case AdminOnly:
		if caller.Role == RoleAdmin {
			return nil
		}
	case Write:
		if caller.Role.Privileged() {
			return nil
		}
	case ReadOwnOrPrivileged:
		if caller.Role.Privileged() {
			return nil
		}
		if owner != 0 && caller.PersonID == owner {
			return nil
		}
	case ReadAny:
		return nil
	}

	return ErrForbidden
}

// Authorize is Decide with a lazily resolved owner. The resolver only runs
// when ownership can change the outcome, and its error is returned unchanged.
func Authorize(ctx context.Context, caller *Identity, capability Capability, resolve OwnerResolver) error {
	if caller == nil {
		return ErrUnauthenticated
	}

	var owner uint
	if capability == ReadOwnOrPrivileged && !caller.Role.Privileged() {
		if resolve == nil {
			return ErrForbidden
		}
		resolved, err := resolve(ctx)
		if err != nil {
			return err
		}
		owner = resolved
	}

	return Decide(caller, capability, owner)
}

// Scope narrows a ReadAny result set. It returns nil when the caller may see
// every person, otherwise the caller's own person id. A missing identity
// scopes to nobody.
func Scope(caller *Identity) *uint {
	if caller != nil && caller.Role.Privileged() {
		return nil
	}
	var personID uint
	if caller != nil {
		personID = caller.PersonID
	}
	return &personID
}

// RequireSelf allows only the caller's own person id, whatever the role. It
// guards endpoints that are personal views rather than shared data.
func RequireSelf(caller *Identity, owner uint) error {
	if caller == nil {
		return ErrUnauthenticated
	}
	if owner == 0 || caller.PersonID != owner {
		return ErrForbidden
	}
	return nil
}
