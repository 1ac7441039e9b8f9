package trending

import (
	"errors"

	"github.com/tidwall/gjson"
)

var (
	ErrNotJSON   = errors.New("trend response is not JSON")
	ErrEmptyList = errors.New("trend response has no list")
)

var (
	listPaths   = []string{"data.list", "data.sound_list", "data.hashtag_list", "list", "data"}
	namePaths   = []string{"hashtag_name", "name", "title", "song_name"}
	postsPaths  = []string{"publish_cnt", "posts", "video_count", "related_items"}
	viewsPaths  = []string{"video_views", "views", "play_count"}
	changePaths = []string{"rank_diff", "change"}
)

// Normalize converts an upstream trend body into ranked items.
func Normalize(body []byte) ([]Item, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrNotJSON
	}
	root := gjson.ParseBytes(body)

	var list gjson.Result
	for _, p := range listPaths {
		if v := root.Get(p); v.IsArray() {
			list = v
			break
		}
	}
	if !list.Exists() {
		return nil, ErrEmptyList
	}

	var items []Item
	list.ForEach(func(_, v gjson.Result) bool {
		name := first(v, namePaths).String()
		if name == "" {
			return true
		}
		item := Item{
			Rank:   int(v.Get("rank").Int()),
			Name:   name,
			Posts:  first(v, postsPaths).Int(),
			Views:  first(v, viewsPaths).Int(),
			Change: first(v, changePaths).Int(),
		}
		if item.Rank <= 0 {
			item.Rank = len(items) + 1
		}
		item.Trend = TrendFor(item.Change)
		items = append(items, item)
		return true
	})
	if len(items) == 0 {
		return nil, ErrEmptyList
	}
	return items, nil
}

// TrendFor classifies a rank change.
func TrendFor(change int64) string {
	switch {
	case change > 10:
		return TrendHot
	case change > 0:
		return TrendRising
	default:
		return TrendStable
	}
}

func first(v gjson.Result, paths []string) gjson.Result {
	for _, p := range paths {
		if r := v.Get(p); r.Exists() {
			return r
		}
	}
	return gjson.Result{}
}
