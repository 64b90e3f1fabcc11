package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/denisok6893-rgb/crm-lead-matching/internal/domain"
	"github.com/denisok6893-rgb/crm-lead-matching/internal/storage"
)

// listingFilterFromQuery reads status, city, district, property_type,
// min_price, max_price and sort. Unparseable numbers are ignored.
func listingFilterFromQuery(r *http.Request, limit, offset int) storage.ListingFilter {
	q := r.URL.Query()

	minPrice, _ := strconv.ParseFloat(q.Get("min_price"), 64)
	maxPrice, _ := strconv.ParseFloat(q.Get("max_price"), 64)

	sort := q.Get("sort")
	if sort != storage.SortPriceAsc && sort != storage.SortPriceDesc {
		sort = ""
	}

	return storage.ListingFilter{
		Status:       domain.ListingStatus(strings.ToLower(strings.TrimSpace(q.Get("status")))),
		City:         strings.TrimSpace(q.Get("city")),
		District:     strings.TrimSpace(q.Get("district")),
		PropertyType: strings.TrimSpace(q.Get("property_type")),
		MinPrice:     minPrice,
		MaxPrice:     maxPrice,
		Sort:         sort,
		Limit:        limit,
		Offset:       offset,
	}
}

func leadFilterFromQuery(r *http.Request, limit, offset int) storage.LeadFilter {
	q := r.URL.Query()
	return storage.LeadFilter{
		Status: domain.LeadStatus(strings.ToLower(strings.TrimSpace(q.Get("status")))),
		Kind:   domain.LeadKind(strings.ToLower(strings.TrimSpace(q.Get("kind")))),
		Region: strings.TrimSpace(q.Get("region")),
		Limit:  limit,
		Offset: offset,
	}
}
