// Package export renders printable QR badges and spreadsheet rosters from
// backend data.
package export

import (
	"context"
	"fmt"
	"time"

	"github.com/Flyrell/gatepass/internal/member"
	"github.com/Flyrell/gatepass/internal/stringutil"
	"golang.org/x/sync/errgroup"
)

// Source is the subset of the backend client the exports read from.
type Source interface {
	Members(ctx context.Context) ([]member.Member, error)
	Groups(ctx context.Context) ([]member.Group, error)
}

// Data is everything an export needs, fetched in one go.
type Data struct {
	Members []member.Member
	Groups  []member.Group
}

// Fetch loads members and groups concurrently. Either failure cancels the
// other request.
func Fetch(ctx context.Context, src Source) (Data, error) {
	var d Data
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		members, err := src.Members(ctx)
		if err != nil {
			return fmt.Errorf("fetching members: %w", err)
		}
		d.Members = members
		return nil
	})
	g.Go(func() error {
		groups, err := src.Groups(ctx)
		if err != nil {
			return fmt.Errorf("fetching groups: %w", err)
		}
		d.Groups = groups
		return nil
	})
	if err := g.Wait(); err != nil {
		return Data{}, err
	}
	return d, nil
}

// GroupNames maps group ids to names.
func (d Data) GroupNames() map[member.ID]string {
	names := make(map[member.ID]string, len(d.Groups))
	for _, g := range d.Groups {
		names[g.ID] = g.Name
	}
	return names
}

// FileName builds a default output name such as "gatepass-badges-2025-03-12.pdf".
func FileName(kind string, day time.Time, ext string) string {
	return fmt.Sprintf("%s-%s.%s", stringutil.Slugify("gatepass "+kind), day.Format("2006-01-02"), ext)
}
