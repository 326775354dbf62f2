package profile

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/synaptica-ai/riskengine/pkg/common/config"
	"gorm.io/gorm"
)

// FromConfig selects the profile source named by PROFILE_SOURCE. db is only
// used by the postgres source and rdb may be nil to disable caching.
func FromConfig(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (Source, error) {
	var src Source
	switch cfg.ProfileSource {
	case config.ProfileSourceNone:
		return Disabled{}, nil
	case config.ProfileSourcePostgres:
		if db == nil {
			return nil, fmt.Errorf("profile source %q needs a database", cfg.ProfileSource)
		}
		src = NewStore(db)
	case config.ProfileSourceRemote:
		src = NewRemote(RemoteConfig{
			BaseURL:      cfg.ProfileBaseURL,
			TokenURL:     cfg.ProfileTokenURL,
			ClientID:     cfg.ProfileClientID,
			ClientSecret: cfg.ProfileClientSecret,
			Timeout:      cfg.ProfileRequestTimeout,
		})
	default:
		return nil, fmt.Errorf("unknown profile source %q", cfg.ProfileSource)
	}
	return Observed{Source: NewCached(src, rdb, cfg.ProfileCacheTTL)}, nil
}
