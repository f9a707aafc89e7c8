package member

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Flag is a boolean that tolerates the shapes the backend has used over time:
// true/false, 0/1, "true"/"1", and null or absent (false).
type Flag bool

// UnmarshalJSON implements json.Unmarshaler.
func (f *Flag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")):
		*f = false
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.ToLower(strings.TrimSpace(s))
		*f = Flag(s == "true" || s == "1" || s == "yes")
		return nil
	case data[0] == 't' || data[0] == 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*f = Flag(b)
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = n != 0
	return nil
}

// RawMember is a member as returned by the member, group and my-groups endpoints.
type RawMember struct {
	ID             ID     `json:"id"`
	Name           string `json:"name"`
	GroupID        ID     `json:"group_id"`
	HasAccessToday Flag   `json:"has_access_today"`
	Access         *Flag  `json:"access"`
	Entered        Flag   `json:"entered"`
	QRCode         string `json:"qr_code"`
}

// Normalize converts the wire shape into a Member.
func (r RawMember) Normalize() Member {
	access := bool(r.HasAccessToday)
	if r.Access != nil && !access {
		access = bool(*r.Access)
	}
	return Member{
		ID:             r.ID,
		Name:           strings.TrimSpace(r.Name),
		GroupID:        r.GroupID,
		HasAccessToday: access,
		EnteredToday:   bool(r.Entered),
		QRCode:         r.QRCode,
	}
}

// RawGroup is a group as returned by GET /groups and GET /my-groups/:userId.
// The first nests memberDetails with counters; the second nests members only.
type RawGroup struct {
	ID            ID          `json:"id"`
	Name          string      `json:"name"`
	MembersCount  *int        `json:"membersCount"`
	AccessToday   *int        `json:"accessToday"`
	Entered       *int        `json:"entered"`
	MemberDetails []RawMember `json:"memberDetails"`
	Members       []RawMember `json:"members"`
}

// Normalize converts the wire shape into a Group. Absent counters default to
// zero and duplicate member ids keep their first occurrence.
func (r RawGroup) Normalize() Group {
	raw := r.MemberDetails
	if len(raw) == 0 {
		raw = r.Members
	}

	g := Group{
		ID:      r.ID,
		Name:    strings.TrimSpace(r.Name),
		Members: []Member{},
	}
	seen := make(map[ID]bool, len(raw))
	for _, rm := range raw {
		m := rm.Normalize()
		if seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		if m.GroupID == "" {
			m.GroupID = g.ID
		}
		g.Members = append(g.Members, m)
	}

	g.MembersCount = intOr(r.MembersCount, 0)
	g.AccessToday = intOr(r.AccessToday, 0)
	g.Entered = intOr(r.Entered, 0)
	return g
}

// NormalizeGroups normalizes a whole group list. A nil input yields an empty list.
func NormalizeGroups(raw []RawGroup) []Group {
	out := make([]Group, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.Normalize())
	}
	return out
}

func intOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}
