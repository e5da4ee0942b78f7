// Package soildb bundles a small static soil reference table so detections
// can link a texture class to a database entry the mobile app understands.
// The authoritative database ships with the app; this copy only carries the
// fields the service itself consumes.
package soildb

import "github.com/quietcreek/soil-intel-service/internal/domain"

// StaticDB implements domain.SoilDatabase from a fixed table.
type StaticDB struct {
	byClass map[domain.TextureClass]domain.SoilRef
}

// New returns the bundled reference database.
func New() *StaticDB {
	refs := []struct {
		class domain.TextureClass
		ref   domain.SoilRef
	}{
		{domain.TextureSand, domain.SoilRef{ID: "sand", Name: "Sand", AvailableWaterMmM: 70, InfiltrationRateMmH: 50}},
		{domain.TextureLoamySand, domain.SoilRef{ID: "loamy_sand", Name: "Loamy Sand", AvailableWaterMmM: 90, InfiltrationRateMmH: 30}},
		{domain.TextureSandyLoam, domain.SoilRef{ID: "sandy_loam", Name: "Sandy Loam", AvailableWaterMmM: 120, InfiltrationRateMmH: 22}},
		{domain.TextureLoam, domain.SoilRef{ID: "loam", Name: "Loam", AvailableWaterMmM: 165, InfiltrationRateMmH: 13}},
		{domain.TextureSiltLoam, domain.SoilRef{ID: "silt_loam", Name: "Silt Loam", AvailableWaterMmM: 190, InfiltrationRateMmH: 7}},
		{domain.TextureSandyClayLoam, domain.SoilRef{ID: "sandy_clay_loam", Name: "Sandy Clay Loam", AvailableWaterMmM: 140, InfiltrationRateMmH: 6}},
		{domain.TextureClayLoam, domain.SoilRef{ID: "clay_loam", Name: "Clay Loam", AvailableWaterMmM: 170, InfiltrationRateMmH: 4}},
		{domain.TextureSiltyClayLoam, domain.SoilRef{ID: "silty_clay_loam", Name: "Silty Clay Loam", AvailableWaterMmM: 180, InfiltrationRateMmH: 3}},
		{domain.TextureSandyClay, domain.SoilRef{ID: "sandy_clay", Name: "Sandy Clay", AvailableWaterMmM: 150, InfiltrationRateMmH: 3}},
		{domain.TextureSiltyClay, domain.SoilRef{ID: "silty_clay", Name: "Silty Clay", AvailableWaterMmM: 160, InfiltrationRateMmH: 2.5}},
		{domain.TextureClay, domain.SoilRef{ID: "clay", Name: "Clay", AvailableWaterMmM: 155, InfiltrationRateMmH: 2}},
	}

	m := make(map[domain.TextureClass]domain.SoilRef, len(refs))
	for _, r := range refs {
		m[r.class] = r.ref
	}
	return &StaticDB{byClass: m}
}

// MatchTexture looks up the reference entry for a texture class.
func (db *StaticDB) MatchTexture(tc domain.TextureClass) (domain.SoilRef, bool) {
	ref, ok := db.byClass[tc]
	return ref, ok
}
