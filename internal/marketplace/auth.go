package marketplace

import (
	"context"
	"errors"

	"oldphonedeals/internal/domain/user"
)

// Auth is the result of a successful login.
type Auth struct {
	Token string
	User  user.User
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token       string  `json:"token"`
	AccessToken string  `json:"accessToken"`
	User        userDTO `json:"user"`
	Admin       userDTO `json:"admin"`
}

// Login authenticates a regular user.
func (c *Client) Login(ctx context.Context, email, password string) (Auth, error) {
	return c.login(ctx, "/api/auth/login", email, password, false)
}

// AdminLogin authenticates against the admin login endpoint.
func (c *Client) AdminLogin(ctx context.Context, email, password string) (Auth, error) {
	return c.login(ctx, "/api/admin/login", email, password, true)
}

func (c *Client) login(ctx context.Context, endpoint, email, password string, admin bool) (Auth, error) {
	var resp loginResponse
	if err := c.PostJSON(ctx, endpoint, loginRequest{Email: email, Password: password}, "", &resp); err != nil {
		return Auth{}, err
	}
	token := firstNonEmpty(resp.Token, resp.AccessToken)
	if token == "" {
		return Auth{}, errors.New("marketplace login: response carried no token")
	}
	u := resp.User.normalize()
	if u.ID == "" {
		u = resp.Admin.normalize()
	}
	if admin {
		u.IsAdmin = true
	}
	return Auth{Token: token, User: u}, nil
}
