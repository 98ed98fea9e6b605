// Package fixtures builds domain values for tests.
//
// Builders take the required fields positionally and everything else as
// options:
//
//	ada := fixtures.User("u1", "ada@example.com", fixtures.WithTimezone("Europe/Paris"))
//	run := fixtures.Event("5k", fixtures.Epoch.Add(48*time.Hour), 60,
//		fixtures.At("Parc Monceau"), fixtures.Capped(2), fixtures.Attended(ada.ID))
//	g := fixtures.Group("g1", ada.ID, "Run Club", run)
//
// Everything is anchored on Epoch so tests can reason about fixed times.
package fixtures
