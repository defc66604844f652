//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package video

// Platform identifies the video hosting platform behind a URL
// ENUM(youtube,rumble,unknown)
type Platform string
