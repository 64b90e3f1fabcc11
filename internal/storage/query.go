package storage

import (
	"encoding/json"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/denisok6893-rgb/crm-lead-matching/internal/domain"
)

const (
	listingsTable = "listings"
	leadsTable    = "leads"
)

var listingColumns = []string{ //nolint:gochecknoglobals
	"id", "title", "description", "price", "status",
	"city", "district", "property_type", "room_count",
	"elevator", "parking", "balcony", "in_complex", "furnished", "credit_eligible",
}

var leadColumns = []string{ //nolint:gochecknoglobals
	"id", "name", "email", "phone", "status", "kind",
	"budget_min", "budget_max",
	"preferred_regions_json", "preferred_property_types_json", "preferred_room_counts_json",
	"notes",
}

// queries builds the SQL shared by the SQLite and Postgres stores. Only the
// placeholder format differs between them.
type queries struct {
	sb sq.StatementBuilderType
}

func newQueries(ph sq.PlaceholderFormat) queries {
	return queries{sb: sq.StatementBuilder.PlaceholderFormat(ph)}
}

func (q queries) selectListings(f ListingFilter) sq.SelectBuilder {
	b := q.sb.Select(listingColumns...).From(listingsTable)
	if conds := listingConditions(f); len(conds) > 0 {
		b = b.Where(conds)
	}

	switch f.Sort {
	case SortPriceAsc:
		b = b.OrderBy("price ASC", "id ASC")
	case SortPriceDesc:
		b = b.OrderBy("price DESC", "id ASC")
	default:
		b = b.OrderBy("id")
	}
	return paginate(b, f.Limit, f.Offset)
}

func (q queries) countListings(f ListingFilter) sq.SelectBuilder {
	b := q.sb.Select("COUNT(*)").From(listingsTable)
	if conds := listingConditions(f); len(conds) > 0 {
		b = b.Where(conds)
	}
	return b
}

func (q queries) getListing(id string) sq.SelectBuilder {
	return q.sb.Select(listingColumns...).From(listingsTable).Where(sq.Eq{"id": id})
}

func (q queries) insertListing(l domain.Listing) sq.InsertBuilder {
	return q.sb.Insert(listingsTable).Columns(listingColumns...).Values(listingValues(l)...)
}

// insertListingIfAbsent is insertListing that silently skips an existing id.
func (q queries) insertListingIfAbsent(l domain.Listing) sq.InsertBuilder {
	return q.insertListing(l).Suffix("ON CONFLICT (id) DO NOTHING")
}

func (q queries) deleteListing(id string) sq.DeleteBuilder {
	return q.sb.Delete(listingsTable).Where(sq.Eq{"id": id})
}

func (q queries) selectLeads(f LeadFilter) sq.SelectBuilder {
	b := q.sb.Select(leadColumns...).From(leadsTable)
	if conds := leadConditions(f); len(conds) > 0 {
		b = b.Where(conds)
	}
	return paginate(b.OrderBy("id"), f.Limit, f.Offset)
}

func (q queries) countLeads(f LeadFilter) sq.SelectBuilder {
	b := q.sb.Select("COUNT(*)").From(leadsTable)
	if conds := leadConditions(f); len(conds) > 0 {
		b = b.Where(conds)
	}
	return b
}

func (q queries) getLead(id string) sq.SelectBuilder {
	return q.sb.Select(leadColumns...).From(leadsTable).Where(sq.Eq{"id": id})
}

func (q queries) insertLead(l domain.Lead) (sq.InsertBuilder, error) {
	values, err := leadValues(l)
	if err != nil {
		return sq.InsertBuilder{}, err
	}
	return q.sb.Insert(leadsTable).Columns(leadColumns...).Values(values...), nil
}

func (q queries) insertLeadIfAbsent(l domain.Lead) (sq.InsertBuilder, error) {
	b, err := q.insertLead(l)
	if err != nil {
		return b, err
	}
	return b.Suffix("ON CONFLICT (id) DO NOTHING"), nil
}

func (q queries) deleteLead(id string) sq.DeleteBuilder {
	return q.sb.Delete(leadsTable).Where(sq.Eq{"id": id})
}

func listingConditions(f ListingFilter) sq.And {
	var conds sq.And
	if f.Status != "" {
		conds = append(conds, sq.Eq{"status": string(f.Status)})
	}
	if f.PropertyType != "" {
		conds = append(conds, sq.Eq{"property_type": f.PropertyType})
	}
	if strings.TrimSpace(f.City) != "" {
		conds = append(conds, containsCond("city", f.City))
	}
	if strings.TrimSpace(f.District) != "" {
		conds = append(conds, containsCond("district", f.District))
	}
	if f.MinPrice > 0 {
		conds = append(conds, sq.GtOrEq{"price": f.MinPrice})
	}
	if f.MaxPrice > 0 {
		conds = append(conds, sq.LtOrEq{"price": f.MaxPrice})
	}
	return conds
}

func leadConditions(f LeadFilter) sq.And {
	var conds sq.And
	if f.Status != "" {
		conds = append(conds, sq.Eq{"status": string(f.Status)})
	}
	if f.Kind != "" {
		conds = append(conds, sq.Eq{"kind": string(f.Kind)})
	}
	if strings.TrimSpace(f.Region) != "" {
		conds = append(conds, containsCond("preferred_regions_json", f.Region))
	}
	return conds
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`) //nolint:gochecknoglobals

// containsCond matches rows whose column contains s, ignoring case. LIKE
// wildcards in s are matched literally.
func containsCond(column, s string) sq.Sqlizer {
	return sq.Expr("LOWER("+column+") LIKE ? ESCAPE '\\'", likePattern(s))
}

func likePattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(s))) + "%"
}

func paginate(b sq.SelectBuilder, limit, offset int) sq.SelectBuilder {
	if limit <= 0 {
		return b
	}
	b = b.Limit(uint64(limit))
	if offset > 0 {
		b = b.Offset(uint64(offset))
	}
	return b
}

func listingValues(l domain.Listing) []interface{} {
	return []interface{}{
		l.ID, l.Title, l.Description, l.Price, string(l.Status),
		l.City, l.District, l.PropertyType, l.RoomCount,
		l.Elevator, l.Parking, l.Balcony, l.InComplex, l.Furnished, l.CreditEligible,
	}
}

func leadValues(l domain.Lead) ([]interface{}, error) {
	regions, err := marshalList(l.PreferredRegions)
	if err != nil {
		return nil, err
	}
	types, err := marshalList(l.PreferredPropertyTypes)
	if err != nil {
		return nil, err
	}
	rooms, err := marshalList(l.PreferredRoomCounts)
	if err != nil {
		return nil, err
	}
	return []interface{}{
		l.ID, l.Name, l.Email, l.Phone, string(l.Status), string(l.Kind),
		l.BudgetMin, l.BudgetMax,
		regions, types, rooms,
		l.Notes,
	}, nil
}

// rowScanner is satisfied by *sql.Row, *sql.Rows, pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanListing(r rowScanner) (domain.Listing, error) {
	var (
		l      domain.Listing
		status string
	)
	if err := r.Scan(
		&l.ID, &l.Title, &l.Description, &l.Price, &status,
		&l.City, &l.District, &l.PropertyType, &l.RoomCount,
		&l.Elevator, &l.Parking, &l.Balcony, &l.InComplex, &l.Furnished, &l.CreditEligible,
	); err != nil {
		return domain.Listing{}, err
	}
	l.Status = domain.ListingStatus(status)
	return l, nil
}

func scanLead(r rowScanner) (domain.Lead, error) {
	var (
		l                     domain.Lead
		status, kind          string
		regions, types, rooms string
	)
	if err := r.Scan(
		&l.ID, &l.Name, &l.Email, &l.Phone, &status, &kind,
		&l.BudgetMin, &l.BudgetMax,
		&regions, &types, &rooms,
		&l.Notes,
	); err != nil {
		return domain.Lead{}, err
	}
	l.Status = domain.LeadStatus(status)
	l.Kind = domain.LeadKind(kind)

	if err := json.Unmarshal([]byte(regions), &l.PreferredRegions); err != nil {
		return domain.Lead{}, fmt.Errorf("lead %s preferred regions: %w", l.ID, err)
	}
	if err := json.Unmarshal([]byte(types), &l.PreferredPropertyTypes); err != nil {
		return domain.Lead{}, fmt.Errorf("lead %s preferred property types: %w", l.ID, err)
	}
	if err := json.Unmarshal([]byte(rooms), &l.PreferredRoomCounts); err != nil {
		return domain.Lead{}, fmt.Errorf("lead %s preferred room counts: %w", l.ID, err)
	}
	return l, nil
}

func marshalList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
