package search

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	customsearch "google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

const maxResults = 3

type Service struct {
	o Options
	s *customsearch.Service
}

type Options struct {
	APIKey string `toml:"api_key"`
	CX     string `toml:"cx"`
}

func New(ctx context.Context, o Options) (s *Service, err error) {
	// Create service
	s = &Service{o: o}
	if s.s, err = customsearch.NewService(ctx, option.WithAPIKey(o.APIKey)); err != nil {
		err = errors.Wrap(err, "search: creating customsearch service failed")
		return
	}
	return
}

// Search returns a short plain-text summary of the top web results, or an
// empty string when nothing was found.
func (s *Service) Search(ctx context.Context, query string) (summary string, err error) {
	// List results
	var resp *customsearch.Search
	if resp, err = s.s.Cse.List().Context(ctx).Cx(s.o.CX).Q(query).Num(maxResults).Do(); err != nil {
		err = errors.Wrap(err, "search: listing results failed")
		return
	}

	// No result
	if len(resp.Items) == 0 {
		return
	}

	// Summarize
	ls := []string{"Here is what I found on the web:"}
	for _, i := range resp.Items {
		ls = append(ls, "- "+i.Title+": "+i.Snippet)
	}
	summary = strings.Join(ls, "\n")
	return
}
