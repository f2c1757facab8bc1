package feeders

// KeyFeeder extracts a single named section of a shared config file into a
// target struct. TomlFeeder and YamlFeeder both implement it.
type KeyFeeder interface {
	FeedKey(key string, target interface{}) error
	HasKey(key string) (bool, error)
}

var (
	_ KeyFeeder = TomlFeeder{}
	_ KeyFeeder = YamlFeeder{}
)
