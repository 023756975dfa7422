package search

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"datahub-backend/internal/domain"
	esclient "datahub-backend/internal/infrastructure/search"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	syncBatchSize = 500
	exportLimit   = 5000
)

// Backend is the subset of the Elasticsearch client the service needs.
type Backend interface {
	Indexer
	Search(ctx context.Context, index string, query map[string]interface{}) (*esclient.Hits, error)
	Bulk(ctx context.Context, index string, docs []esclient.Document) (int, error)
}

type Service struct {
	DB      *gorm.DB
	Backend Backend
}

// Result is returned by Search.
type Result struct {
	Count   int64             `json:"count"`
	Results []json.RawMessage `json:"results"`
}

// Search runs a search for the named entity. A missing index yields no results.
func (s *Service) Search(ctx context.Context, name string, req Request) (*Result, error) {
	index, err := Index(name)
	if err != nil {
		return nil, err
	}
	query, err := BuildQuery(name, req)
	if err != nil {
		return nil, err
	}
	hits, err := s.Backend.Search(ctx, index, query)
	if errors.Is(err, esclient.ErrIndexMissing) {
		return &Result{Results: []json.RawMessage{}}, nil
	}
	if err != nil {
		return nil, err
	}
	return &Result{Count: hits.Total, Results: hits.Sources}, nil
}

var companyExportHeader = []string{
	"Name", "Company number", "Town", "Postcode", "Global ultimate", "Archived", "Date created",
}

// ExportCompanies writes the companies matching req as CSV.
func (s *Service) ExportCompanies(ctx context.Context, req Request, w io.Writer) error {
	req.Offset, req.Limit = 0, exportLimit
	res, err := s.Search(ctx, "company", req)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(companyExportHeader); err != nil {
		return err
	}
	for _, raw := range res.Results {
		var d CompanyDocument
		if err := json.Unmarshal(raw, &d); err != nil {
			return fmt.Errorf("decode company document: %w", err)
		}
		if err := cw.Write([]string{
			d.Name,
			d.CompanyNumber,
			d.AddressTown,
			d.AddressPostcode,
			yesNo(d.IsGlobalUltimate),
			yesNo(d.Archived),
			d.CreatedOn.UTC().Format("2006-01-02"),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// SyncAll reindexes every entity and returns the number of documents indexed per index.
func (s *Service) SyncAll(ctx context.Context) (map[string]int, error) {
	counts := map[string]int{}
	db := s.DB.WithContext(ctx)

	var companies []domain.Company
	if err := syncModel(ctx, s.Backend, db, IndexCompany, &companies, counts, func() []esclient.Document {
		docs := make([]esclient.Document, 0, len(companies))
		for _, c := range companies {
			docs = append(docs, esclient.Document{ID: c.ID.String(), Body: NewCompanyDocument(c)})
		}
		return docs
	}); err != nil {
		return counts, err
	}

	var contacts []domain.Contact
	if err := syncModel(ctx, s.Backend, db, IndexContact, &contacts, counts, func() []esclient.Document {
		docs := make([]esclient.Document, 0, len(contacts))
		for _, c := range contacts {
			docs = append(docs, esclient.Document{ID: c.ID.String(), Body: NewContactDocument(c)})
		}
		return docs
	}); err != nil {
		return counts, err
	}

	var interactions []domain.Interaction
	if err := syncModel(ctx, s.Backend, db, IndexInteraction, &interactions, counts, func() []esclient.Document {
		docs := make([]esclient.Document, 0, len(interactions))
		for _, i := range interactions {
			docs = append(docs, esclient.Document{ID: i.ID.String(), Body: NewInteractionDocument(i)})
		}
		return docs
	}); err != nil {
		return counts, err
	}

	var projects []domain.InvestmentProject
	if err := syncModel(ctx, s.Backend, db, IndexInvestmentProject, &projects, counts, func() []esclient.Document {
		docs := make([]esclient.Document, 0, len(projects))
		for _, p := range projects {
			docs = append(docs, esclient.Document{ID: p.ID.String(), Body: NewInvestmentProjectDocument(p)})
		}
		return docs
	}); err != nil {
		return counts, err
	}

	var wins []domain.Win
	if err := syncModel(ctx, s.Backend, db, IndexExportWin, &wins, counts, func() []esclient.Document {
		docs := make([]esclient.Document, 0, len(wins))
		for _, w := range wins {
			docs = append(docs, esclient.Document{ID: w.ID.String(), Body: NewWinDocument(w)})
		}
		return docs
	}); err != nil {
		return counts, err
	}
	return counts, nil
}

// syncModel walks the table behind dest in batches and bulk indexes each batch.
func syncModel(ctx context.Context, backend Backend, db *gorm.DB, index string, dest interface{}, counts map[string]int, docs func() []esclient.Document) error {
	res := db.FindInBatches(dest, syncBatchSize, func(_ *gorm.DB, batch int) error {
		n, err := backend.Bulk(ctx, index, docs())
		counts[index] += n
		if err != nil {
			return err
		}
		log.Info().Str("index", index).Int("batch", batch).Int("indexed", n).Msg("search sync batch")
		return nil
	})
	if res.Error != nil {
		return fmt.Errorf("sync %s: %w", index, res.Error)
	}
	return nil
}
