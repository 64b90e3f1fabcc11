package matching

// Tiers returns the score bands from best to worst.
func Tiers() []Tier {
	out := make([]Tier, len(tiers))
	copy(out, tiers)
	return out
}

// TierFor returns the band a score falls into.
func TierFor(score int) Tier {
	for _, t := range tiers {
		if score >= t.Min {
			return t
		}
	}
	return tiers[len(tiers)-1]
}

func Label(score int) string { return TierFor(score).Label }

func Color(score int) string { return TierFor(score).Color }
