package services

import (
	"context"
	"fmt"
	"route-board-service/internal/domain"
)

// AssignmentDesk resolves routes from the catalog and fronts the single
// assignment session the operator may have open at a time.
type AssignmentDesk struct {
	Routes  RouteResolver
	Session *AssignmentSession
}

func NewAssignmentDesk(routes RouteResolver, session *AssignmentSession) *AssignmentDesk {
	return &AssignmentDesk{Routes: routes, Session: session}
}

// Open starts a session for routeID. It fails with ErrSessionOpen while
// another session is open.
func (d *AssignmentDesk) Open(ctx context.Context, routeID string) (domain.Route, error) {
	if d.Session.State() != SessionClosed {
		return domain.Route{}, ErrSessionOpen
	}

	route, err := d.Routes.GetRoute(ctx, routeID)
	if err != nil {
		return domain.Route{}, fmt.Errorf("open assignment: %w", err)
	}

	if err := d.Session.Open(route); err != nil {
		return domain.Route{}, fmt.Errorf("open assignment route=%s: %w", routeID, err)
	}
	return route, nil
}

// SelectAllRows applies the binary select-all over every booking on the open route.
func (d *AssignmentDesk) SelectAllRows() error {
	route, ok := d.Session.Route()
	if !ok {
		return ErrSessionClosed
	}
	return d.Session.SelectAll(route.BookingIDs())
}
