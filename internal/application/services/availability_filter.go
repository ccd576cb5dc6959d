package services

import (
	"github.com/zatekoja/clinicavailability/internal/domain/entities"
)

const (
	defaultPageSize = 10
	maxPageSize     = 50
)

// AvailabilityFilterEngine derives filtered and paginated views over a result set.
// It only reads availability and never triggers fetches.
type AvailabilityFilterEngine struct{}

// NewAvailabilityFilterEngine creates a filter engine
func NewAvailabilityFilterEngine() *AvailabilityFilterEngine {
	return &AvailabilityFilterEngine{}
}

// Apply returns the results that pass every active filter, preserving input order.
// availability holds whatever is loaded; professionals missing from it count as having no slots.
func (e *AvailabilityFilterEngine) Apply(
	results []entities.ProfessionalResult,
	filters entities.AvailabilityFilterState,
	availability map[string]*entities.ProfessionalAvailability,
) []entities.ProfessionalResult {
	dateRange := filters.DateFrom != "" && filters.DateTo != ""

	out := make([]entities.ProfessionalResult, 0, len(results))
	for _, r := range results {
		if filters.MinRating > 0 && r.Rating < filters.MinRating {
			continue
		}
		if filters.MinPrice > 0 && r.VisitPrice < filters.MinPrice {
			continue
		}
		if filters.MaxPrice > 0 && r.VisitPrice > filters.MaxPrice {
			continue
		}

		a := availability[r.ProfessionalID]
		if filters.RequireAvailable && !a.HasAvailableSlot() {
			continue
		}
		if dateRange && !a.HasAvailableSlotBetween(filters.DateFrom, filters.DateTo) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Paginate slices results into a 1-based page. Out of range pages are empty.
func (e *AvailabilityFilterEngine) Paginate(results []entities.ProfessionalResult, page, pageSize int) entities.ResultPage {
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	if page < 1 {
		page = 1
	}

	total := len(results)
	totalPages := (total + pageSize - 1) / pageSize

	// Pages past the last one are empty.
	start, end := total, total
	if page <= totalPages {
		start = (page - 1) * pageSize
		end = min(start+pageSize, total)
	}

	items := make([]entities.ProfessionalResult, end-start)
	copy(items, results[start:end])

	return entities.ResultPage{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}
}

// VisibleIDs returns the professional ids on a page in display order.
func VisibleIDs(page entities.ResultPage) []string {
	ids := make([]string, len(page.Items))
	for i, item := range page.Items {
		ids[i] = item.ProfessionalID
	}
	return ids
}
