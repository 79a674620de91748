package routes

import (
	"fmt"

	"github.com/congo-pay/datatopup/internal/identity"
	"github.com/congo-pay/datatopup/internal/journal"
	"github.com/congo-pay/datatopup/internal/profile"
	"github.com/congo-pay/datatopup/internal/session"
	"github.com/congo-pay/datatopup/internal/supabase"
)

type backends struct {
	profiles     profile.Repository
	profilesName string
	identity     identity.Provider
	identityName string
	journal      journal.Journal
	sessions     session.Store
}

// newBackends picks Supabase, then Postgres, then memory for profiles and
// identity; Postgres or memory for the journal; Redis or memory for sessions.
func newBackends(d Deps) (backends, error) {
	var b backends

	switch {
	case d.Cfg.UseSupabase():
		client, err := supabase.New(supabase.Config{URL: d.Cfg.SupabaseURL, APIKey: d.Cfg.SupabaseKey})
		if err != nil {
			return backends{}, fmt.Errorf("supabase client: %w", err)
		}
		b.profiles, b.profilesName = profile.NewSupabaseRepository(client), "supabase"
		b.identity, b.identityName = identity.NewSupabaseProvider(client), "supabase"
	case d.DB != nil:
		b.profiles, b.profilesName = profile.NewPostgresRepository(d.DB), "postgres"
		b.identity, b.identityName = identity.NewLocalProvider(identity.NewPostgresRepository(d.DB)), "postgres"
	default:
		if !d.Cfg.IsDev() {
			return backends{}, fmt.Errorf("a profile store is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		b.profiles, b.profilesName = profile.NewMemoryRepository(), "memory"
		b.identity, b.identityName = identity.NewLocalProvider(identity.NewMemoryRepository()), "memory"
	}

	if d.DB != nil {
		b.journal = journal.NewPostgresJournal(d.DB)
	} else {
		b.journal = journal.NewInMemory()
	}

	if d.Cache != nil {
		b.sessions = session.NewRedisStore(d.Cache)
	} else {
		b.sessions = session.NewMemoryStore()
	}
	return b, nil
}
