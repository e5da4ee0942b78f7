// Package domain models soil hydraulic properties derived from the ISRIC
// SoilGrids global soil-property service.
//
// # Data Source
//
// SoilGrids publishes clay, sand, and silt content as g/kg across six fixed
// depth bands (0-5, 5-15, 15-30, 30-60, 60-100, 100-200 cm). Values are
// divided by 10 to obtain percentages. A profile holds the three property
// sequences as parallel, depth-sorted arrays; they are aggregated into a
// single composition by thickness-weighting each band's overlap with the
// requested root-depth window.
//
// # Texture Classification
//
// Compositions are classified with the USDA texture triangle, expressed as
// an ordered list of (predicate, class) rules evaluated top to bottom. Rule
// order is load-bearing: later rules are only reached when earlier ones
// fail, and several predicates deliberately overlap. The order and
// thresholds mirror the production classifier and must not be "simplified"
// into disjoint ranges. Pure silt has no class of its own downstream and
// maps to silt loam. Anything unmatched falls back to loam.
//
// # Pedotransfer
//
// Hydraulic parameters (field capacity, wilting point, saturated
// conductivity) are estimated from texture with the Saxton & Rawls (2006)
// pedotransfer equations at the default 2% organic matter. The estimates
// are clamped to agronomically sane ranges and always satisfy
// wiltingPoint <= fieldCapacity - 2.
//
// # Irrigation Timing
//
// Cycle/soak scheduling and maximum safe application volume are derived
// from infiltration rate and terrain slope. Low infiltration or steep
// slopes shorten watering cycles and lengthen soak pauses so water is
// absorbed instead of running off.
//
// All functions in this package are total: any finite numeric input yields
// a usable answer, never a panic or an error.
package domain
