package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/fypcompass/compass/core"
	"github.com/fypcompass/compass/core/user"
)

// userMiddleware loads the token's user into the context. Deleted users are unauthorized
// and deactivated ones forbidden.
func userMiddleware(svc user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx, svc)
			if err != nil {
				return err
			}
			if !usr.IsActive {
				return errAccountDeactivated
			}
			return next(ctx)
		}
	}
}

// roleMiddleware only lets through users holding one of roles.
func roleMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, ok := ctx.Get(contextUserKey).(user.User)
			if !ok {
				return errUnauthorized
			}
			if core.ContainsString(roles, usr.Role) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

func adminMiddleware() echo.MiddlewareFunc { return roleMiddleware(user.RoleAdmin) }

func advisorMiddleware() echo.MiddlewareFunc { return roleMiddleware(user.RoleAdvisor, user.RoleAdmin) }

func studentMiddleware() echo.MiddlewareFunc { return roleMiddleware(user.RoleStudent) }

// ctxUser returns the user set by userMiddleware.
func ctxUser(ctx echo.Context) user.User {
	usr, _ := ctx.Get(contextUserKey).(user.User)
	return usr
}
