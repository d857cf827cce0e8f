// Package export writes legacy orders as an accounting import CSV, with each
// order resolved against the customer directory so known customers carry
// their directory contact details.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/identity"
	"github.com/Ramsey-B/clover/pkg/legacy"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// header is the fixed column layout the downstream import expects. Order and
// spelling are part of the contract.
var header = []string{
	"amount", "name", "address", "city", "postal code", "country code",
	"email", "phone", "reference", "status",
}

// statusNew marks orders that resolved to no directory customer.
const statusNew = "new"

// orderPageSize is how many orders each source page carries.
const orderPageSize = 500

// Source is the slice of the legacy client the exporter consumes.
type Source interface {
	FetchOrders(ctx context.Context, limit, offset int) ([]legacy.RawOrder, error)
}

// Directory is the slice of the customer repository the exporter consumes.
type Directory interface {
	ListAll(ctx context.Context) ([]models.Customer, error)
}

// Summary reports how an export resolved.
type Summary struct {
	Rows      int `json:"rows"`
	Matched   int `json:"matched"`
	Unmatched int `json:"unmatched"`
}

// Exporter matches orders against the directory and writes the CSV.
type Exporter struct {
	source    Source
	directory Directory
	matcher   *identity.Matcher
	logger    ectologger.Logger
}

// NewExporter creates a CSV exporter.
func NewExporter(source Source, directory Directory, logger ectologger.Logger) *Exporter {
	return &Exporter{
		source:    source,
		directory: directory,
		matcher:   identity.NewMatcher(),
		logger:    logger,
	}
}

// Export streams every order from the source into w. The identity index is
// built once per export from the full directory.
func (e *Exporter) Export(ctx context.Context, w io.Writer) (*Summary, error) {
	ctx, span := tracing.StartSpan(ctx, "export.Exporter.Export")
	defer span.End()

	customers, err := e.directory.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	index := identity.BuildIndex(customers)
	e.logger.WithContext(ctx).WithFields(map[string]any{
		"customers": len(customers),
		"variants":  index.Size(),
	}).Debug("Built identity index")

	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}

	summary := &Summary{}

	for offset := 0; ; offset += orderPageSize {
		orders, err := e.source.FetchOrders(ctx, orderPageSize, offset)
		if err != nil {
			return nil, err
		}

		for _, raw := range orders {
			row := raw.Normalize()
			record, matched := e.resolve(row, index)
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("failed to write csv row: %w", err)
			}
			summary.Rows++
			if matched {
				summary.Matched++
			} else {
				summary.Unmatched++
			}
		}

		if len(orders) < orderPageSize {
			break
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}

	e.logger.WithContext(ctx).WithFields(map[string]any{
		"rows":      summary.Rows,
		"matched":   summary.Matched,
		"unmatched": summary.Unmatched,
	}).Info("Order export finished")

	return summary, nil
}

// resolve produces one CSV record for an order. Matched orders carry the
// directory customer's details; unmatched orders keep the order's own name
// and phone and are flagged as new.
func (e *Exporter) resolve(row models.OrderRow, index *identity.Index) ([]string, bool) {
	amount := fmt.Sprintf("%.2f", row.Total)

	customer, strategy, ok := e.matcher.Match(row, index)
	if !ok {
		metrics.RecordMatchAttempt("none")
		return []string{
			amount, row.Name, "", "", "", "",
			"", deref(row.Phone), row.SourceID, statusNew,
		}, false
	}

	metrics.RecordMatchAttempt(strategy)
	return []string{
		amount,
		customer.Name,
		deref(customer.Address),
		deref(customer.City),
		deref(customer.PostalCode),
		deref(customer.CountryNorm),
		deref(customer.Email),
		deref(customer.Phone),
		row.SourceID,
		strategy,
	}, true
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
