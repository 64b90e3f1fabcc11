package matching

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/denisok6893-rgb/crm-lead-matching/internal/domain"
)

// scoreBudget grades the price against the lead's [lo, hi] budget range. A zero or
// negative bound is not guarded: the ratio becomes infinite and falls through
// to the zero band.
func scoreBudget(price, lo, hi float64) domain.SubScore {
	switch {
	case price >= lo && price <= hi:
		return domain.SubScore{Matched: true, Score: scoreFull, Reason: "price within budget"}

	case price < lo:
		gap := (lo - price) / lo
		switch {
		case gap <= budgetNearBand:
			return domain.SubScore{Matched: true, Score: budgetSlightlyUnder, Reason: percentReason("below budget", gap)}
		case gap <= budgetFarBand:
			return domain.SubScore{Score: budgetUnder, Reason: percentReason("below budget", gap)}
		}
		return domain.SubScore{Score: scoreNone, Reason: "price far below budget"}

	default:
		gap := (price - hi) / hi
		switch {
		case gap <= budgetNearBand:
			return domain.SubScore{Matched: true, Score: budgetSlightlyOver, Reason: percentReason("over budget", gap)}
		case gap <= budgetFarBand:
			return domain.SubScore{Score: budgetOver, Reason: percentReason("over budget", gap)}
		}
		return domain.SubScore{Score: scoreNone, Reason: "price far over budget"}
	}
}

func percentReason(what string, gap float64) string {
	return fmt.Sprintf("price %.0f%% %s", gap*100, what)
}

// scoreRegion looks for any preferred region inside the district, then inside
// the city. Containment is checked in both directions, case-insensitively, so an
// empty district or an empty preferred token matches.
func scoreRegion(preferred []string, district, city string) domain.SubScore {
	if r, ok := regionHit(preferred, district); ok {
		return domain.SubScore{Matched: true, Score: scoreFull, Reason: "district matches " + r}
	}
	if r, ok := regionHit(preferred, city); ok {
		return domain.SubScore{Matched: true, Score: regionCityOnly, Reason: "city matches " + r}
	}
	return domain.SubScore{Score: scoreNone, Reason: "outside preferred regions"}
}

func regionHit(preferred []string, place string) (string, bool) {
	p := strings.ToLower(place)
	for _, r := range preferred {
		want := strings.ToLower(r)
		if strings.Contains(p, want) || strings.Contains(want, p) {
			return r, true
		}
	}
	return "", false
}

func scorePropertyType(preferred []string, propertyType string) domain.SubScore {
	if len(preferred) == 0 {
		return domain.SubScore{Matched: true, Score: scoreNeutral, Reason: "no property type preference"}
	}
	if slices.Contains(preferred, propertyType) {
		return domain.SubScore{Matched: true, Score: scoreFull, Reason: "property type " + propertyType + " preferred"}
	}
	return domain.SubScore{Score: scoreNone, Reason: "property type " + propertyType + " not preferred"}
}

// scoreRoomCount matches "<rooms>+<halls>" codes exactly, then by a one-room
// difference in the leading number.
func scoreRoomCount(preferred []string, code string) domain.SubScore {
	if len(preferred) == 0 {
		return domain.SubScore{Matched: true, Score: scoreNeutral, Reason: "no room count preference"}
	}
	if slices.Contains(preferred, code) {
		return domain.SubScore{Matched: true, Score: scoreFull, Reason: "room count " + code + " preferred"}
	}

	rooms, ok := leadingRooms(code)
	if ok {
		for _, p := range preferred {
			want, ok := leadingRooms(p)
			if !ok {
				continue
			}
			if d := rooms - want; d == 1 || d == -1 {
				return domain.SubScore{Matched: true, Score: roomAdjacent, Reason: "room count " + code + " close to " + p}
			}
		}
	}
	return domain.SubScore{Score: scoreNone, Reason: "room count " + code + " not preferred"}
}

// leadingRooms parses the number of main rooms: the leading digits of the part
// before '+'. "3+1" -> 3, "4 + 2" -> 4, "studio" -> not ok.
func leadingRooms(code string) (int, bool) {
	head, _, _ := strings.Cut(code, "+")
	head = strings.TrimSpace(head)

	end := 0
	for end < len(head) && head[end] >= '0' && head[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(head[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// scoreFeatures counts elevator, parking, balcony and in-complex. Furnished and
// credit eligibility are tracked on the listing but do not take part.
func scoreFeatures(l domain.Listing) domain.SubScore {
	count := countedFeatures(l)
	switch {
	case count == 0:
		return domain.SubScore{Score: featureFloor, Reason: "no listed amenities"}
	case count >= featureRichCount:
		return domain.SubScore{
			Matched: true,
			Score:   math.Min(scoreFull, float64(count)/featureDenominator*100),
			Reason:  fmt.Sprintf("%d amenities", count),
		}
	default:
		return domain.SubScore{
			Matched: true,
			Score:   float64(count) / featureDenominator * 100,
			Reason:  fmt.Sprintf("%d amenities", count),
		}
	}
}

func countedFeatures(l domain.Listing) int {
	n := 0
	for _, on := range []bool{l.Elevator, l.Parking, l.Balcony, l.InComplex} {
		if on {
			n++
		}
	}
	return n
}
