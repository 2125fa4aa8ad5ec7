package trash

import (
	"os"
	"time"

	"github.com/mutagen-io/extstat"
)

// Recover performs the startup sweep described in spec section 4.4: for
// each journal entry whose staged path still exists, it is moved back to
// original, and the entry is retired. An entry whose staging has vanished
// (already recovered by an earlier sweep, or cleaned up by hand) has
// nothing left to roll back and is dropped. An entry whose staging exists
// but whose rollback move fails is retained so a later sweep (or an
// operator) can retry. The reduced journal is persisted atomically before
// Recover returns.
func (g *Gateway) Recover() error {
	entries, err := g.journal.load()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	var retained []entry
	for _, e := range entries {
		if _, err := os.Lstat(e.Staged); err != nil {
			g.log.Warnf("stage journal entry for %q has no staged file at %q; dropping", e.Original, e.Staged)
			continue
		}
		if err := os.Rename(e.Staged, e.Original); err != nil {
			g.log.Warnf("unable to restore staged trash entry %q to %q: %v; retaining (%s)", e.Staged, e.Original, err, stagingAgeDiagnostic(e.Staged))
			retained = append(retained, e)
			continue
		}
	}

	return g.journal.persist(retained)
}

// stagingAgeDiagnostic reports how long a staged trash entry that failed
// its rollback move has been sitting untouched, the same
// extstat.NewFromFileName(...).AccessTime housekeeping diagnostic the
// teacher's pkg/housekeeping uses to decide whether an idle agent binary
// is worth removing. A stuck staged entry that has not been accessed in a
// long time is the strongest signal an operator has that the sweep is
// failing for a persistent reason (e.g. a missing destination volume)
// rather than a transient one.
func stagingAgeDiagnostic(staged string) string {
	stat, err := extstat.NewFromFileName(staged)
	if err != nil {
		return "age unknown"
	}
	return "last accessed " + time.Since(stat.AccessTime).Round(time.Second).String() + " ago"
}
