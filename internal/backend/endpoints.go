package backend

import (
	"context"
	"errors"
	"net/http"

	"github.com/Flyrell/gatepass/internal/member"
)

// User is the identity returned by a successful login.
type User struct {
	ID   member.ID `json:"id"`
	Name string    `json:"name"`
	Role string    `json:"role"`
}

// LoginResult is the decoded /login response.
type LoginResult struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// Login authenticates with email and password.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	var res LoginResult
	err := c.do(ctx, request{
		method: http.MethodPost,
		route:  "/login",
		path:   "/login",
		body:   map[string]string{"email": email, "password": password},
		out:    &res,
	})
	if code := StatusCode(err); code >= 400 && code < 500 {
		return LoginResult{}, ErrAuthFailed
	}
	if err != nil {
		return LoginResult{}, asNetwork("login", err)
	}
	if res.User.ID.IsZero() {
		return LoginResult{}, ErrAuthFailed
	}
	return res, nil
}

// Members lists every member with its QR image.
func (c *Client) Members(ctx context.Context) ([]member.Member, error) {
	var raw []member.RawMember
	err := c.do(ctx, request{method: http.MethodGet, route: "/members", path: "/members", out: &raw})
	if err != nil {
		return nil, asNetwork("list members", err)
	}
	out := make([]member.Member, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.Normalize())
	}
	return out, nil
}

// Groups lists all groups with nested member details and daily counters.
func (c *Client) Groups(ctx context.Context) ([]member.Group, error) {
	var raw []member.RawGroup
	err := c.do(ctx, request{method: http.MethodGet, route: "/groups", path: "/groups", out: &raw})
	if err != nil {
		return nil, asNetwork("list groups", err)
	}
	return member.NormalizeGroups(raw), nil
}

// MyGroups lists the groups owned by a group-responsible user.
func (c *Client) MyGroups(ctx context.Context, userID member.ID) ([]member.Group, error) {
	var res struct {
		Groups []member.RawGroup `json:"groups"`
	}
	err := c.do(ctx, request{
		method: http.MethodGet,
		route:  "/my-groups/:userId",
		path:   "/my-groups/" + pathID(userID),
		out:    &res,
	})
	if err != nil {
		return nil, asNetwork("list my groups", err)
	}
	return member.NormalizeGroups(res.Groups), nil
}

// AddMember creates a member in the given group.
func (c *Client) AddMember(ctx context.Context, groupID member.ID, name string) (member.Member, error) {
	var raw member.RawMember
	err := c.do(ctx, request{
		method: http.MethodPost,
		route:  "/groups/addmembers",
		path:   "/groups/addmembers",
		body: struct {
			GroupID member.ID `json:"groupId"`
			Name    string    `json:"name"`
		}{groupID, name},
		out: &raw,
	})
	if err != nil {
		return member.Member{}, asNetwork("add member", err)
	}
	m := raw.Normalize()
	if m.GroupID == "" {
		m.GroupID = groupID
	}
	return m, nil
}

// DeleteMember removes a member.
func (c *Client) DeleteMember(ctx context.Context, id member.ID) error {
	err := c.do(ctx, request{
		method: http.MethodDelete,
		route:  "/members/delete/:id",
		path:   "/members/delete/" + pathID(id),
	})
	if StatusCode(err) == http.StatusNotFound {
		return ErrMemberNotFound
	}
	return asNetwork("delete member", err)
}

// GenerateAllQR asks the backend to regenerate every QR code. It returns the
// backend's message, if any.
func (c *Client) GenerateAllQR(ctx context.Context) (string, error) {
	var res struct {
		Message string `json:"message"`
	}
	err := c.do(ctx, request{
		method: http.MethodPost,
		route:  "/generate-all-qr",
		path:   "/generate-all-qr",
		out:    &res,
		auth:   true,
	})
	if err != nil {
		return "", asNetwork("generate QR codes", err)
	}
	return res.Message, nil
}

// Member fetches one member record including its QR image and access flag.
func (c *Client) Member(ctx context.Context, id member.ID) (member.Member, error) {
	var raw member.RawMember
	err := c.do(ctx, request{
		method: http.MethodGet,
		route:  "/members/:id",
		path:   "/members/" + pathID(id),
		out:    &raw,
	})
	if StatusCode(err) == http.StatusNotFound {
		return member.Member{}, ErrMemberNotFound
	}
	if err != nil {
		return member.Member{}, asNetwork("get member", err)
	}
	m := raw.Normalize()
	if m.ID.IsZero() {
		m.ID = id
	}
	return m, nil
}

// HasEntered reports whether the member already entered today.
func (c *Client) HasEntered(ctx context.Context, id member.ID) (bool, error) {
	var res struct {
		Entered member.Flag `json:"entered"`
	}
	err := c.do(ctx, request{
		method: http.MethodGet,
		route:  "/hisenter/:id",
		path:   "/hisenter/" + pathID(id),
		out:    &res,
	})
	if StatusCode(err) == http.StatusNotFound {
		return false, ErrMemberNotFound
	}
	if err != nil {
		return false, asNetwork("check entry", err)
	}
	return bool(res.Entered), nil
}

// RecordEntry records today's entry for the member. The backend treats a
// repeated call as a no-op.
func (c *Client) RecordEntry(ctx context.Context, id member.ID) error {
	err := c.do(ctx, request{
		method: http.MethodPost,
		route:  "/members/:id/enter",
		path:   "/members/" + pathID(id) + "/enter",
	})
	if StatusCode(err) == http.StatusNotFound {
		return ErrMemberNotFound
	}
	return asNetwork("record entry", err)
}

// SetAccessBulk updates the access flag of many members in one call.
// ids and states must have the same length.
func (c *Client) SetAccessBulk(ctx context.Context, ids []member.ID, states []bool) error {
	if len(ids) != len(states) {
		return errors.New("member ids and access states differ in length")
	}
	if ids == nil {
		ids = []member.ID{}
		states = []bool{}
	}
	err := c.do(ctx, request{
		method: http.MethodPost,
		route:  "/members/haveAccess/bulk",
		path:   "/members/haveAccess/bulk",
		body: struct {
			MemberIDs    []member.ID `json:"memberIds"`
			AccessStates []bool      `json:"accessStates"`
		}{ids, states},
	})
	return asNetwork("update access", err)
}
