package authorize

import (
	"context"
	"errors"

	"github.com/Alijeyrad/simorq_booking/pkg/reqctx"
)

var ErrNoSubjectInContext = errors.New("no subject found in context")

// SubjectsFromContext returns the subjects a request is checked as: the
// account id, then the role from its token claim when there is one.
func SubjectsFromContext(ctx context.Context) ([]GroupSubject, error) {
	claims := reqctx.ClaimsFromContext(ctx)
	if claims == nil || claims.GetSubject() == "" {
		return nil, ErrNoSubjectInContext
	}
	out := []GroupSubject{GroupSubject(claims.GetSubject())}
	if role := RoleFromClaim(claims.GetRole()); role != "" {
		out = append(out, GroupSubject(role))
	}
	return out, nil
}

// EnforceAny allows the request when any of the context's subjects is allowed.
func EnforceAny(ctx context.Context, auth IAuthorization, domain Domain, object Resource, action Action) error {
	subjects, err := SubjectsFromContext(ctx)
	if err != nil {
		return err
	}
	for _, sub := range subjects {
		ok, err := auth.Enforce(ctx, sub, domain, object, action)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return ErrForbidden
}
