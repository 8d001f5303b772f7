package heroes

import "github.com/shikigami/battle-server-go/internal/game"

// Hero numbers of the default catalog.
const (
	NoBrawler   = 1
	NoDrummer   = 2
	NoFoxArcher = 3
	NoGuardian  = 4
)

// Equipment numbers of the default catalog.
const (
	EquipHeartEye = 1
)

// Default returns a catalog with every built-in hero and equipment piece.
func Default() *game.Catalog {
	c := game.NewCatalog()
	c.RegisterHero(NoBrawler, Simple(NoBrawler, "Brawler", Stats{
		HP:             10253.8,
		Attack:         3323.2,
		Defense:        379.26,
		Speed:          112,
		Critical:       0.15,
		CriticalDamage: 1.5,
	}))
	c.RegisterHero(NoDrummer, Drummer)
	c.RegisterHero(NoFoxArcher, FoxArcher)
	c.RegisterHero(NoGuardian, Simple(NoGuardian, "Guardian", Stats{
		HP:             13672,
		Attack:         2144,
		Defense:        530,
		Speed:          104,
		Critical:       0.05,
		CriticalDamage: 1.5,
	}))
	c.RegisterEquipment(EquipHeartEye, HeartEye)
	return c
}
