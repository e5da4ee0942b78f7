package domain

// textureRule pairs a predicate over a normalized composition with the
// class it selects. Rules are evaluated top to bottom, first match wins.
type textureRule struct {
	match func(clay, sand, silt float64) bool
	class TextureClass
}

// textureRules encodes the USDA texture triangle as used in production.
// The order is part of the semantics: several predicates overlap and later
// rules are only reachable when earlier ones fail. Do not reorder or merge
// branches, even where they look redundant against the canonical triangle.
var textureRules = []textureRule{
	{func(c, s, si float64) bool {
		return s >= 85 && si+1.5*c < 15
	}, TextureSand},
	{func(c, s, si float64) bool {
		return s >= 70 && s < 90 && c <= 15 && si+2*c >= 15 && si+2*c < 30
	}, TextureLoamySand},
	{func(c, s, si float64) bool {
		return s >= 70 && s < 85 && si+1.5*c >= 15 && c < 20
	}, TextureLoamySand},
	{func(c, s, si float64) bool {
		return (c < 20 && s >= 52 && si < 30) || (c < 7 && s >= 43 && si < 50)
	}, TextureSandyLoam},
	{func(c, s, si float64) bool {
		return c >= 7 && c < 27 && si >= 28 && si < 50 && s < 52
	}, TextureLoam},
	{func(c, s, si float64) bool {
		return (si >= 50 && c < 27) || (si >= 50 && si < 80 && c < 12)
	}, TextureSiltLoam},
	// Pure silt maps to silt loam; no Silt class exists downstream.
	{func(c, s, si float64) bool {
		return si >= 80 && c < 12
	}, TextureSiltLoam},
	{func(c, s, si float64) bool {
		return c >= 20 && c < 35 && s >= 45 && si < 28
	}, TextureSandyClayLoam},
	{func(c, s, si float64) bool {
		return c >= 27 && c < 40 && s >= 20 && s < 45
	}, TextureClayLoam},
	{func(c, s, si float64) bool {
		return c >= 27 && c < 40 && s < 20
	}, TextureSiltyClayLoam},
	{func(c, s, si float64) bool {
		return c >= 35 && s >= 45
	}, TextureSandyClay},
	{func(c, s, si float64) bool {
		return c >= 40 && si >= 40
	}, TextureSiltyClay},
	{func(c, s, si float64) bool {
		return c >= 40
	}, TextureClay},
}

// ClassifyTexture maps a clay/sand/silt composition (percentages, not
// necessarily summing to 100) onto a USDA texture class. The composition is
// normalized to a 100% total first. A zero or unmatched composition falls
// back to loam. Never fails.
func ClassifyTexture(clay, sand, silt float64) TextureClass {
	total := clay + sand + silt
	if total <= 0 {
		return TextureLoam
	}
	c := clay * 100 / total
	s := sand * 100 / total
	si := silt * 100 / total

	for _, r := range textureRules {
		if r.match(c, s, si) {
			return r.class
		}
	}
	return TextureLoam
}
