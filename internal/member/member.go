package member

import "sort"

// Member is a person who may be granted daily access and whose entry is recorded
// by scanning their QR code.
type Member struct {
	ID             ID     `json:"id"`
	Name           string `json:"name"`
	GroupID        ID     `json:"group_id,omitempty"`
	HasAccessToday bool   `json:"has_access_today"`
	EnteredToday   bool   `json:"entered"`
	QRCode         string `json:"qr_code,omitempty"`
}

// Group is a named set of members with the backend's daily counters.
type Group struct {
	ID           ID       `json:"id"`
	Name         string   `json:"name"`
	MembersCount int      `json:"members_count"`
	AccessToday  int      `json:"access_today"`
	Entered      int      `json:"entered"`
	Members      []Member `json:"members"`
}

// ScanResult is the access decision produced for one decoded QR payload.
type ScanResult struct {
	MemberID       ID
	Name           string
	GroupID        ID
	Access         bool
	AlreadyEntered bool
	// Recorded is true when this resolution issued the entry-recording call.
	Recorded bool
}

// Clone returns a deep copy of the group list.
func Clone(groups []Group) []Group {
	if groups == nil {
		return nil
	}
	out := make([]Group, len(groups))
	for i, g := range groups {
		out[i] = g
		if g.Members != nil {
			out[i].Members = make([]Member, len(g.Members))
			copy(out[i].Members, g.Members)
		}
	}
	return out
}

// Totals sums the access and entry counters over all groups.
func Totals(groups []Group) (access, entered int) {
	for _, g := range groups {
		access += g.AccessToday
		entered += g.Entered
	}
	return access, entered
}

// FindGroup returns the group with the given id, or nil.
func FindGroup(groups []Group, id ID) *Group {
	for i := range groups {
		if groups[i].ID == id {
			return &groups[i]
		}
	}
	return nil
}

// SortForDisplay orders members as entered-with-access first, then access
// only, then everyone else. The order within each rank is preserved.
func SortForDisplay(members []Member) []Member {
	out := append([]Member(nil), members...)
	score := func(m Member) int {
		switch {
		case m.HasAccessToday && m.EnteredToday:
			return 2
		case m.HasAccessToday:
			return 1
		}
		return 0
	}
	sort.SliceStable(out, func(i, j int) bool {
		return score(out[i]) > score(out[j])
	})
	return out
}

// WithAccess returns the members that currently hold access.
func WithAccess(members []Member) []Member {
	var out []Member
	for _, m := range members {
		if m.HasAccessToday {
			out = append(out, m)
		}
	}
	return out
}
