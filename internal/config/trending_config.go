package config

import "time"

type Trending struct {
	HashtagsURL   string        `env:"TRENDING_HASHTAGS_URL" envDefault:"https://ads.tiktok.com/creative_radar_api/v1/popular_trend/hashtag/list?period=7&page=1&limit=20&sort_by=popular"`
	SongsURL      string        `env:"TRENDING_SONGS_URL" envDefault:"https://ads.tiktok.com/creative_radar_api/v1/popular_trend/sound/rank_list?period=7&page=1&limit=20&rank_type=popular"`
	CacheTTL      time.Duration `env:"TRENDING_CACHE_TTL" envDefault:"30m"`
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
}

var _ TrendingConfig = Trending{}

func (t Trending) GetTrendingHashtagsURL() string {
	return t.HashtagsURL
}

func (t Trending) GetTrendingSongsURL() string {
	return t.SongsURL
}

func (t Trending) GetTrendingCacheTTL() time.Duration {
	if t.CacheTTL <= 0 {
		return 30 * time.Minute
	}
	return t.CacheTTL
}

// GetRedisAddr returns an empty string when the in-memory trend cache should be used.
func (t Trending) GetRedisAddr() string {
	return t.RedisAddr
}

func (t Trending) GetRedisPassword() string {
	return t.RedisPassword
}

func (t Trending) GetRedisDB() int {
	return t.RedisDB
}
