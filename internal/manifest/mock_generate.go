package manifest

//go:generate -command mockgen mockgen -package=manifest -self_package=github.com/gnaf-kit/addresskit/internal/manifest
//go:generate mockgen -destination=./fetcher_mock.go github.com/gnaf-kit/addresskit/internal/manifest Fetcher
